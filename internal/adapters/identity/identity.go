// Package identity resolves callers to a subject and role from HS256 bearer tokens.
package identity

import (
	"context"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"

	"github.com/okian/teampulse/internal/domain/model"
)

// AnonymousSubject identifies callers when authentication is disabled.
const AnonymousSubject = "anonymous"

// Identity is the authenticated caller.
type Identity struct {
	Subject string     `json:"subject"`
	Role    model.Role `json:"role"`
}

// Anonymous is the identity every caller gets when authentication is disabled.
func Anonymous() Identity {
	return Identity{Subject: AnonymousSubject, Role: model.RoleAdmin}
}

// Claims is the JWT payload.
type Claims struct {
	Role string `json:"role"`
	jwt.RegisteredClaims
}

// Provider issues and verifies tokens. A disabled provider authenticates
// everyone as Anonymous.
type Provider struct {
	enabled bool
	secret  []byte
	issuer  string
	ttl     time.Duration
	now     func() time.Time
}

// Option configures a Provider.
type Option func(*Provider)

// WithIssuer sets the iss claim written and required.
func WithIssuer(issuer string) Option {
	return func(p *Provider) { p.issuer = issuer }
}

// WithTTL sets the token lifetime.
func WithTTL(ttl time.Duration) Option {
	return func(p *Provider) {
		if ttl > 0 {
			p.ttl = ttl
		}
	}
}

// WithClock overrides the time source.
func WithClock(now func() time.Time) Option {
	return func(p *Provider) { p.now = now }
}

// NewProvider creates an enabled provider signing with secret.
func NewProvider(secret string, opts ...Option) (*Provider, error) {
	if strings.TrimSpace(secret) == "" {
		return nil, ErrNoSecret
	}
	p := &Provider{
		enabled: true,
		secret:  []byte(secret),
		issuer:  "teampulse",
		ttl:     24 * time.Hour,
		now:     time.Now,
	}
	for _, opt := range opts {
		opt(p)
	}
	return p, nil
}

// Disabled returns a provider that skips authentication.
func Disabled() *Provider {
	return &Provider{now: time.Now}
}

// Enabled reports whether tokens are checked.
func (p *Provider) Enabled() bool {
	return p.enabled
}

// Issue signs a token for subject with role.
func (p *Provider) Issue(subject string, role model.Role) (string, error) {
	if !p.enabled {
		return "", fmt.Errorf("%w: authentication is disabled", model.ErrConfiguration)
	}
	if strings.TrimSpace(subject) == "" {
		return "", fmt.Errorf("%w: empty subject", model.ErrInvalidInput)
	}
	if _, err := model.ParseRole(string(role)); err != nil {
		return "", err
	}
	now := p.now()
	claims := Claims{
		Role: string(role),
		RegisteredClaims: jwt.RegisteredClaims{
			ID:        uuid.NewString(),
			Issuer:    p.issuer,
			Subject:   subject,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(p.ttl)),
		},
	}
	return jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(p.secret)
}

// Verify parses and validates a token string.
func (p *Provider) Verify(token string) (Identity, error) {
	if !p.enabled {
		return Anonymous(), nil
	}
	if strings.TrimSpace(token) == "" {
		return Identity{}, ErrMissingToken
	}

	parserOpts := []jwt.ParserOption{
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithTimeFunc(p.now),
		jwt.WithExpirationRequired(),
	}
	if p.issuer != "" {
		parserOpts = append(parserOpts, jwt.WithIssuer(p.issuer))
	}
	parsed, err := jwt.ParseWithClaims(token, &Claims{}, func(*jwt.Token) (any, error) {
		return p.secret, nil
	}, parserOpts...)
	if err != nil {
		return Identity{}, fmt.Errorf("%w: %v", ErrInvalidToken, err)
	}
	claims, ok := parsed.Claims.(*Claims)
	if !ok || !parsed.Valid {
		return Identity{}, ErrInvalidToken
	}
	role, err := model.ParseRole(claims.Role)
	if err != nil {
		return Identity{}, fmt.Errorf("%w: %v", ErrInvalidToken, err)
	}
	if claims.Subject == "" {
		return Identity{}, fmt.Errorf("%w: missing subject", ErrInvalidToken)
	}
	return Identity{Subject: claims.Subject, Role: role}, nil
}

// Authenticate resolves the caller of r from its Authorization header.
func (p *Provider) Authenticate(r *http.Request) (Identity, error) {
	if !p.enabled {
		return Anonymous(), nil
	}
	header := r.Header.Get("Authorization")
	token, ok := strings.CutPrefix(header, "Bearer ")
	if !ok {
		return Identity{}, ErrMissingToken
	}
	return p.Verify(strings.TrimSpace(token))
}

type ctxKey struct{}

// WithIdentity stores id in ctx.
func WithIdentity(ctx context.Context, id Identity) context.Context {
	return context.WithValue(ctx, ctxKey{}, id)
}

// FromContext returns the identity stored by the middleware.
func FromContext(ctx context.Context) (Identity, bool) {
	id, ok := ctx.Value(ctxKey{}).(Identity)
	return id, ok
}

// CanActAs reports whether id may read or write data belonging to studentID.
// Students are limited to themselves.
func (id Identity) CanActAs(studentID string) bool {
	return id.Role.Staff() || id.Subject == studentID
}

// CanViewGroup reports whether id may read a group's data.
func (id Identity) CanViewGroup(g model.GroupDescriptor) bool {
	return id.Role.Staff() || g.HasMember(id.Subject)
}

// HasRole reports whether id holds one of roles.
func (id Identity) HasRole(roles ...model.Role) bool {
	for _, r := range roles {
		if id.Role == r {
			return true
		}
	}
	return false
}
