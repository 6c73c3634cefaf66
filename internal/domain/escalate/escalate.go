// Package escalate runs the group analyzers across a course and keeps only the
// findings worth an instructor's attention.
package escalate

import (
	"fmt"
	"strings"
	"time"

	"github.com/okian/teampulse/internal/domain/aggregate"
	"github.com/okian/teampulse/internal/domain/detect"
	"github.com/okian/teampulse/internal/domain/health"
	"github.com/okian/teampulse/internal/domain/model"
	"github.com/okian/teampulse/internal/domain/rules"
)

const (
	ActionReview  = "Review group immediately"
	ActionMonitor = "Monitor this group"

	supportDescription = "This group is at risk. Consider scheduling a check-in or providing additional resources."
	supportImpact      = "High - Could improve group success rate"

	CourseWideTitle  = "Course-Wide Engagement"
	CourseWideTarget = "Whole Class"
	courseWideDesc   = "Overall participation is lower than expected. Consider sending a reminder email or hosting an office hour."
	courseWideImpact = "Medium - Could boost overall engagement"
	excerptSeparator = ", "
)

// GroupResult pairs a group with its freshly computed report.
type GroupResult struct {
	Group  model.GroupDescriptor
	Report model.GroupHealthReport
}

// Feed is everything the instructor dashboard shows for one course.
type Feed struct {
	Alerts          []model.InstructorAlert `json:"alerts"`
	Recommendations []model.Recommendation  `json:"recommendations"`
	Summary         model.CourseSummary     `json:"summary"`
	Results         []GroupResult           `json:"-"`
}

// Run pushes one group snapshot through aggregation, detection and scoring.
func Run(snap model.GroupSnapshot, th rules.Thresholds, now time.Time) model.GroupHealthReport {
	metrics := aggregate.Aggregate(snap.Group.ID, snap.Group.Members, snap.Contributions, now)
	alerts := detect.Detect(metrics, snap.Milestones, snap.Communications, th, now)
	return health.Analyze(metrics, alerts, th, now)
}

// Escalate analyzes every group and builds the instructor feed. Alerts and
// recommendations follow the input group order.
func Escalate(groups []model.GroupSnapshot, th rules.Thresholds, now time.Time) Feed {
	results := make([]GroupResult, len(groups))
	for i, snap := range groups {
		results[i] = GroupResult{Group: snap.Group, Report: Run(snap, th, now)}
	}
	return FromResults(results, th)
}

// FromResults builds the feed from reports computed elsewhere.
func FromResults(results []GroupResult, th rules.Thresholds) Feed {
	feed := Feed{
		Alerts:          []model.InstructorAlert{},
		Recommendations: Recommend(results, th),
		Results:         results,
	}
	for _, r := range results {
		if a, ok := AlertFor(r.Group, r.Report, th); ok {
			feed.Alerts = append(feed.Alerts, a)
		}
	}
	feed.Summary = Summarize(results, feed.Alerts, feed.Recommendations)
	return feed
}

// AlertFor escalates a group by its number of high-severity alerts: none for
// zero, a warning with the full message for one, critical beyond that.
func AlertFor(group model.GroupDescriptor, report model.GroupHealthReport, th rules.Thresholds) (model.InstructorAlert, bool) {
	var high []string
	for _, a := range report.Alerts {
		if a.Severity == model.SeverityHigh {
			high = append(high, a.Message)
		}
	}

	alert := model.InstructorAlert{
		GroupID:        group.ID,
		GroupName:      group.Name,
		HighAlertCount: len(high),
	}
	switch {
	case len(high) >= th.CriticalHighAlerts:
		excerpts := make([]string, len(high))
		for i, msg := range high {
			excerpts[i] = Excerpt(msg, th.EscalationExcerptRunes)
		}
		alert.Priority = model.PriorityCritical
		alert.Message = strings.Join(excerpts, excerptSeparator)
		alert.Action = ActionReview
	case len(high) >= 1:
		alert.Priority = model.PriorityWarning
		alert.Message = high[0]
		alert.Action = ActionMonitor
	default:
		return model.InstructorAlert{}, false
	}
	return alert, true
}

// Excerpt keeps the first n runes of msg.
func Excerpt(msg string, n int) string {
	r := []rune(msg)
	if len(r) <= n {
		return msg
	}
	return string(r[:n])
}

// Recommend emits one support item per group whose external status is At Risk
// and a course-wide item when mean participation is under the floor.
func Recommend(results []GroupResult, th rules.Thresholds) []model.Recommendation {
	out := []model.Recommendation{}
	for _, r := range results {
		if r.Group.Status != model.StatusAtRisk {
			continue
		}
		out = append(out, model.Recommendation{
			Title:       fmt.Sprintf("Support %s", DisplayName(r.Group)),
			Description: supportDescription,
			Target:      DisplayName(r.Group),
			GroupID:     r.Group.ID,
			Impact:      supportImpact,
		})
	}

	if len(results) == 0 {
		return out
	}
	var sum float64
	for _, r := range results {
		sum += r.Report.Metrics.ParticipationRate
	}
	if sum/float64(len(results)) < th.ParticipationFloor {
		out = append(out, model.Recommendation{
			Title:       CourseWideTitle,
			Description: courseWideDesc,
			Target:      CourseWideTarget,
			Impact:      courseWideImpact,
		})
	}
	return out
}

// Summarize counts groups by their external status alongside the feed sizes.
func Summarize(results []GroupResult, alerts []model.InstructorAlert, recs []model.Recommendation) model.CourseSummary {
	s := model.CourseSummary{
		TotalGroups:     len(results),
		TotalAlerts:     len(alerts),
		Recommendations: len(recs),
	}
	for _, r := range results {
		switch r.Group.Status {
		case model.StatusThriving:
			s.Thriving++
		case model.StatusHealthy:
			s.Healthy++
		case model.StatusAtRisk:
			s.AtRisk++
		case model.StatusCritical:
			s.Critical++
		}
	}
	return s
}

// DisplayName prefers the group name and falls back to its id.
func DisplayName(g model.GroupDescriptor) string {
	if g.Name != "" {
		return g.Name
	}
	return g.ID
}
