package rules

import (
	"fmt"

	"github.com/okian/teampulse/internal/domain/model"
)

// ErrInvalidThreshold marks a threshold outside its valid range.
var ErrInvalidThreshold = fmt.Errorf("invalid threshold: %w", model.ErrConfiguration)
