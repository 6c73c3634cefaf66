package identity

import (
	"errors"
	"fmt"

	"github.com/okian/teampulse/internal/domain/model"
)

var (
	ErrMissingToken = errors.New("missing bearer token")
	ErrInvalidToken = errors.New("invalid token")
	ErrForbidden    = errors.New("forbidden")
	ErrNoSecret     = fmt.Errorf("jwt secret is required when auth is enabled: %w", model.ErrConfiguration)
)
