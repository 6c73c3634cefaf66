package identity

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/okian/teampulse/internal/domain/model"
	"github.com/okian/teampulse/pkg/metrics"
)

// Middleware authenticates every request and stores the identity in its context.
func (p *Provider) Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		id, err := p.Authenticate(r)
		if err != nil {
			reason := "invalid"
			if errors.Is(err, ErrMissingToken) {
				reason = "missing"
			}
			metrics.RecordAuthFailure(reason)
			deny(w, http.StatusUnauthorized, err)
			return
		}
		next.ServeHTTP(w, r.WithContext(WithIdentity(r.Context(), id)))
	})
}

// RequireRole rejects callers whose role is not listed. It expects Middleware
// to have run first.
func RequireRole(next http.Handler, roles ...model.Role) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		id, ok := FromContext(r.Context())
		if !ok {
			metrics.RecordAuthFailure("missing")
			deny(w, http.StatusUnauthorized, ErrMissingToken)
			return
		}
		if !id.HasRole(roles...) {
			metrics.RecordAuthFailure("forbidden")
			deny(w, http.StatusForbidden, ErrForbidden)
			return
		}
		next.ServeHTTP(w, r)
	})
}

func deny(w http.ResponseWriter, status int, err error) {
	if status == http.StatusUnauthorized {
		w.Header().Set("WWW-Authenticate", `Bearer realm="teampulse"`)
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(map[string]string{"error": err.Error()})
}
