package nudge

import (
	"fmt"

	"github.com/okian/teampulse/internal/domain/model"
)

// ErrUnknownStudent is returned when nudges are requested for a non-member.
var ErrUnknownStudent = fmt.Errorf("unknown student: %w", model.ErrInvalidInput)
