package config

import (
	"fmt"

	"github.com/okian/teampulse/internal/domain/model"
)

// Sentinel error kinds for this package. Both are configuration errors.
var (
	ErrInvalidConfig = fmt.Errorf("invalid config: %w", model.ErrConfiguration)
	ErrLoadConfig    = fmt.Errorf("load config failed: %w", model.ErrConfiguration)
)
