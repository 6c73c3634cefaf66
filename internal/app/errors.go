package service

import (
	"fmt"

	"github.com/okian/teampulse/internal/adapters/repository"
	"github.com/okian/teampulse/internal/domain/model"
)

// Sentinel kinds for service errors. Each wraps a taxonomy kind.
var (
	ErrUnknownGroup        = fmt.Errorf("unknown group: %w", repository.ErrNotFound)
	ErrUnknownStudent      = fmt.Errorf("unknown student: %w", repository.ErrNotFound)
	ErrEmptyMembers        = fmt.Errorf("group has no members: %w", model.ErrInvalidInput)
	ErrInvalidContribution = fmt.Errorf("invalid contribution: %w", model.ErrInvalidInput)
)
