// Package render turns structured analysis results into user-facing phrases.
package render

import (
	"context"
	"maps"
	"slices"

	"github.com/okian/teampulse/internal/domain/model"
)

// Kind selects the phrase to produce.
type Kind string

const (
	KindFirstContribution = Kind(model.NudgeFirstContribution)
	KindReEngage          = Kind(model.NudgeReEngage)
	KindFairLoad          = Kind(model.NudgeFairLoad)
	KindGoodWork          = Kind(model.NudgeGoodWork)
	KindDeadline          = Kind(model.NudgeDeadline)
	KindAllGood           = Kind(model.NudgeAllGood)
	KindGroupAssessment   = Kind("group_assessment")
	KindInstructorAlert   = Kind("instructor_alert")
)

// Kinds lists every kind the deterministic renderer covers.
var Kinds = []Kind{
	KindFirstContribution, KindReEngage, KindFairLoad, KindGoodWork, KindDeadline, KindAllGood,
	KindGroupAssessment, KindInstructorAlert,
}

// Parameter keys shared by callers and templates.
const (
	ParamStudent      = "student"
	ParamDays         = "days"
	ParamHours        = "hours"
	ParamGroupAverage = "group_average"
	ParamMilestone    = "milestone"
	ParamDueDate      = "due_date"
	ParamStatus       = "status"
	ParamGroup        = "group"
	ParamScore        = "score"
	ParamIssues       = "issues"
	ParamPriority     = "priority"

	// ParamMessage carries the exact text to fall back to when nothing else renders.
	ParamMessage = "message"
)

// Params are the structured values a phrase is built from.
type Params map[string]string

// keys returns the parameter names in a stable order.
func (p Params) keys() []string {
	return slices.Sorted(maps.Keys(p))
}

// Renderer produces text for a kind. Implementations may fail or time out.
type Renderer interface {
	Render(ctx context.Context, kind Kind, params Params) (string, error)
}

// Prober is implemented by renderers that can report backend reachability.
type Prober interface {
	Available(ctx context.Context) bool
}

// NudgeParams copies a nudge's parameters and adds its message as last resort.
func NudgeParams(n model.Nudge) Params {
	p := make(Params, len(n.Params)+1)
	maps.Copy(p, n.Params)
	p[ParamMessage] = n.Message
	return p
}
