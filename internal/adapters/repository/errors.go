package repository

import (
	"errors"
	"fmt"

	"github.com/okian/teampulse/internal/domain/model"
)

// Sentinel kinds for store errors.
var (
	ErrNotFound      = fmt.Errorf("record not found: %w", model.ErrInvalidInput)
	ErrConflict      = fmt.Errorf("record already exists: %w", model.ErrInvalidInput)
	ErrInvalidLimit  = fmt.Errorf("invalid history limit: %w", model.ErrInvalidInput)
	ErrUnknownDriver = errors.New("unknown store driver")
)
