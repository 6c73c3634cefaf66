package api

import (
	"errors"
	"net/http"

	"github.com/okian/teampulse/internal/adapters/identity"
	"github.com/okian/teampulse/internal/adapters/mq/queue"
	"github.com/okian/teampulse/internal/adapters/repository"
	"github.com/okian/teampulse/internal/domain/model"
)

// Sentinel kinds for API errors.
var (
	ErrBadRequest      = errors.New("bad request")
	ErrNotFound        = errors.New("not found")
	ErrUnauthenticated = errors.New("unauthenticated")
	ErrForbidden       = errors.New("forbidden")
	ErrBackpressure    = errors.New("backpressure")
	ErrUnavailable     = errors.New("unavailable")
	ErrInternal        = errors.New("internal error")
)

// OpError tags an error with the handler operation and an API kind.
type OpError struct {
	Op   string
	Kind error
	Err  error
}

func (e *OpError) Error() string {
	if e.Err == nil {
		return e.Op + ": " + e.Kind.Error()
	}
	return e.Op + ": " + e.Kind.Error() + ": " + e.Err.Error()
}

func (e *OpError) Unwrap() []error {
	if e.Err == nil {
		return []error{e.Kind}
	}
	return []error{e.Kind, e.Err}
}

// WrapKind wraps err with op and kind. errors.Is matches both.
func WrapKind(op string, kind, err error) error {
	return &OpError{Op: op, Kind: kind, Err: err}
}

// NewKind returns an OpError with no cause.
func NewKind(op string, kind error) error {
	return &OpError{Op: op, Kind: kind}
}

// classify maps an error to its HTTP status, response code and API kind.
func classify(err error) (int, string, error) {
	switch {
	case errors.Is(err, ErrUnauthenticated),
		errors.Is(err, identity.ErrMissingToken),
		errors.Is(err, identity.ErrInvalidToken):
		return http.StatusUnauthorized, "unauthenticated", ErrUnauthenticated
	case errors.Is(err, ErrForbidden), errors.Is(err, identity.ErrForbidden):
		return http.StatusForbidden, "forbidden", ErrForbidden
	case errors.Is(err, ErrNotFound), errors.Is(err, repository.ErrNotFound):
		return http.StatusNotFound, "not_found", ErrNotFound
	case errors.Is(err, ErrBackpressure), errors.Is(err, queue.ErrFull):
		return http.StatusTooManyRequests, "backpressure", ErrBackpressure
	case errors.Is(err, ErrUnavailable), errors.Is(err, queue.ErrClosed):
		return http.StatusServiceUnavailable, "unavailable", ErrUnavailable
	case errors.Is(err, ErrBadRequest), errors.Is(err, model.ErrInvalidInput):
		return http.StatusBadRequest, "bad_request", ErrBadRequest
	default:
		return http.StatusInternalServerError, "internal_error", ErrInternal
	}
}
