package model

import "time"

// NeverContributed is the DaysSinceLast marker for a member with no records.
const NeverContributed = -1

// StudentMetrics summarizes one member's contributions. Recomputed per call.
type StudentMetrics struct {
	StudentID         string  `json:"student_id"`
	TotalHours        float64 `json:"total_hours"`
	ContributionCount int     `json:"contribution_count"`
	DaysSinceLast     int     `json:"days_since_last"`
	Share             float64 `json:"share"`
}

// HasContributed reports whether the member has at least one record.
func (s StudentMetrics) HasContributed() bool {
	return s.ContributionCount > 0
}

// GroupMetrics is the aggregate for one group. Students follow member order.
type GroupMetrics struct {
	GroupID           string           `json:"group_id"`
	Students          []StudentMetrics `json:"students"`
	TotalHours        float64          `json:"total_hours"`
	AvgHours          float64          `json:"avg_hours"`
	ParticipationRate float64          `json:"participation_rate"`
	MemberCount       int              `json:"member_count"`
}

// Student looks up one member's metrics.
func (g GroupMetrics) Student(studentID string) (StudentMetrics, bool) {
	for _, s := range g.Students {
		if s.StudentID == studentID {
			return s, true
		}
	}
	return StudentMetrics{}, false
}

// NudgeKind identifies the rule behind a nudge and the phrase template for it.
type NudgeKind string

const (
	NudgeFirstContribution NudgeKind = "first_contribution"
	NudgeReEngage          NudgeKind = "re_engage"
	NudgeFairLoad          NudgeKind = "fair_load"
	NudgeGoodWork          NudgeKind = "good_work"
	NudgeDeadline          NudgeKind = "deadline"
	NudgeAllGood           NudgeKind = "all_good"
)

// Nudge is a student-facing suggestion. Params carry the structured values
// a phrase renderer needs to reword Message.
type Nudge struct {
	Kind            NudgeKind         `json:"kind"`
	Icon            string            `json:"icon"`
	Title           string            `json:"title"`
	Message         string            `json:"message"`
	SuggestedAction string            `json:"suggested_action"`
	Params          map[string]string `json:"params,omitempty"`
}

// SuggestionRebalance is the only suggestion kind produced today.
const SuggestionRebalance = "rebalance"

// Suggestion proposes moving work between two members.
type Suggestion struct {
	Kind      string `json:"kind"`
	From      string `json:"from"`
	To        string `json:"to"`
	Message   string `json:"message"`
	Rationale string `json:"rationale"`
}

// GroupHealthReport is the combined output of the analyzers for one group.
type GroupHealthReport struct {
	GroupID     string       `json:"group_id"`
	Metrics     GroupMetrics `json:"metrics"`
	Alerts      []Alert      `json:"alerts"`
	Suggestions []Suggestion `json:"suggestions"`
	HealthScore float64      `json:"health_score"`
	Status      GroupStatus  `json:"status"`
	GeneratedAt time.Time    `json:"generated_at"`
}

// Priority is the escalation level of an instructor alert.
type Priority string

const (
	PriorityWarning  Priority = "warning"
	PriorityCritical Priority = "critical"
)

// InstructorAlert is an escalated group finding shown on the instructor feed.
type InstructorAlert struct {
	GroupID        string   `json:"group_id"`
	GroupName      string   `json:"group_name"`
	Priority       Priority `json:"priority"`
	Message        string   `json:"message"`
	Action         string   `json:"action"`
	HighAlertCount int      `json:"high_alert_count"`

	// Summary is the rendered phrase for dashboards. Message stays exact.
	Summary string `json:"summary,omitempty"`
}

// Recommendation is an instructor action item independent of alert counts.
type Recommendation struct {
	Title       string `json:"title"`
	Description string `json:"description"`
	Target      string `json:"target"`
	GroupID     string `json:"group_id,omitempty"`
	Impact      string `json:"impact"`
}

// CourseSummary counts groups by externally set status and feed sizes.
type CourseSummary struct {
	TotalGroups     int `json:"total_groups"`
	Thriving        int `json:"thriving"`
	Healthy         int `json:"healthy"`
	AtRisk          int `json:"at_risk"`
	Critical        int `json:"critical"`
	TotalAlerts     int `json:"total_alerts"`
	Recommendations int `json:"recommendations"`
}

// HealthSnapshot is the persisted history row for one analysis of a group.
type HealthSnapshot struct {
	ID                string      `json:"id"`
	GroupID           string      `json:"group_id"`
	HealthScore       float64     `json:"health_score"`
	Status            GroupStatus `json:"status"`
	HighAlerts        int         `json:"high_alerts"`
	MediumAlerts      int         `json:"medium_alerts"`
	ParticipationRate float64     `json:"participation_rate"`
	TotalHours        float64     `json:"total_hours"`
	RecordedAt        time.Time   `json:"recorded_at"`
}

// SnapshotOf condenses a report into a history row.
func SnapshotOf(id string, r GroupHealthReport) HealthSnapshot {
	return HealthSnapshot{
		ID:                id,
		GroupID:           r.GroupID,
		HealthScore:       r.HealthScore,
		Status:            r.Status,
		HighAlerts:        CountBySeverity(r.Alerts, SeverityHigh),
		MediumAlerts:      CountBySeverity(r.Alerts, SeverityMedium),
		ParticipationRate: r.Metrics.ParticipationRate,
		TotalHours:        r.Metrics.TotalHours,
		RecordedAt:        r.GeneratedAt,
	}
}
