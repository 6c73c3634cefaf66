package render

import (
	"fmt"

	"github.com/okian/teampulse/internal/domain/model"
)

var (
	// ErrUnavailable indicates the generative backend is unreachable.
	ErrUnavailable = fmt.Errorf("renderer unavailable: %w", model.ErrExternalService)

	// ErrTimeout indicates a render call exceeded its deadline.
	ErrTimeout = fmt.Errorf("renderer timed out: %w", model.ErrExternalService)

	// ErrRetryExhausted indicates every attempt failed.
	ErrRetryExhausted = fmt.Errorf("renderer retry attempts exhausted: %w", model.ErrExternalService)

	// ErrEmptyOutput indicates the backend answered with blank text.
	ErrEmptyOutput = fmt.Errorf("renderer returned empty text: %w", model.ErrExternalService)

	// ErrUnknownKind indicates no phrase exists for the requested kind.
	ErrUnknownKind = fmt.Errorf("unknown phrase kind: %w", model.ErrInvalidInput)
)
