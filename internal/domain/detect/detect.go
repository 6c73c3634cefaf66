// Package detect applies the threshold rules to aggregated group metrics and
// produces severity-tagged alerts. Rules are independent and cumulative.
package detect

import (
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/okian/teampulse/internal/domain/model"
	"github.com/okian/teampulse/internal/domain/rules"
)

// Detect evaluates every rule against one group and returns the alerts ordered
// high to low severity. Within a tier, alerts naming a student are ordered by
// student id and precede group-level alerts, which keep rule order.
func Detect(
	metrics model.GroupMetrics,
	milestones []model.MilestoneRecord,
	communications []model.CommunicationRecord,
	th rules.Thresholds,
	now time.Time,
) []model.Alert {
	var alerts []model.Alert
	alerts = append(alerts, overload(metrics, th)...)
	if a, ok := inactivity(metrics); ok {
		alerts = append(alerts, a)
	}
	if a, ok := overdueMilestone(milestones, now); ok {
		alerts = append(alerts, a)
	}
	if a, ok := urgency(communications); ok {
		alerts = append(alerts, a)
	}
	Sort(alerts)
	return alerts
}

// Sort orders alerts high to low severity, then by subject. Empty subjects
// sort after named ones and keep their relative order.
func Sort(alerts []model.Alert) {
	sort.SliceStable(alerts, func(i, j int) bool {
		a, b := alerts[i], alerts[j]
		if a.Severity != b.Severity {
			return a.Severity > b.Severity
		}
		if (a.Subject == "") != (b.Subject == "") {
			return a.Subject != ""
		}
		return a.Subject < b.Subject
	})
}

func overload(m model.GroupMetrics, th rules.Thresholds) []model.Alert {
	if m.TotalHours <= 0 {
		return nil
	}
	var out []model.Alert
	for _, s := range m.Students {
		if s.TotalHours <= 0 {
			continue
		}
		share := s.TotalHours / m.TotalHours
		if share <= th.ImbalanceThreshold {
			continue
		}
		out = append(out, model.Alert{
			Severity: model.SeverityHigh,
			Subject:  s.StudentID,
			Message: fmt.Sprintf("%s is doing %.1f%% of the work. Consider redistributing tasks for better balance.",
				s.StudentID, share*100),
			Payload: model.OverloadPayload{StudentID: s.StudentID, Share: share},
		})
	}
	return out
}

func inactivity(m model.GroupMetrics) (model.Alert, bool) {
	var idle []string
	for _, s := range m.Students {
		if s.TotalHours == 0 {
			idle = append(idle, s.StudentID)
		}
	}
	if len(idle) == 0 {
		return model.Alert{}, false
	}
	verb := "has"
	if len(idle) > 1 {
		verb = "have"
	}
	return model.Alert{
		Severity: model.SeverityHigh,
		Message:  fmt.Sprintf("%s %s not contributed yet. Immediate action needed.", strings.Join(idle, ", "), verb),
		Payload:  model.InactivityPayload{StudentIDs: idle},
	}, true
}

func overdueMilestone(milestones []model.MilestoneRecord, now time.Time) (model.Alert, bool) {
	found := -1
	for i, ms := range milestones {
		if ms.Status != model.MilestoneNotStarted || !ms.DueDate.Before(now) {
			continue
		}
		if found < 0 || ms.DueDate.Before(milestones[found].DueDate) {
			found = i
		}
	}
	if found < 0 {
		return model.Alert{}, false
	}
	ms := milestones[found]
	return model.Alert{
		Severity: model.SeverityHigh,
		Message:  fmt.Sprintf("Milestone '%s' is overdue. Urgent: catch up required.", ms.Name),
		Payload:  model.OverdueMilestonePayload{Milestone: ms.Name, DueDate: ms.DueDate},
	}, true
}

func urgency(communications []model.CommunicationRecord) (model.Alert, bool) {
	n := 0
	for _, c := range communications {
		if c.Tone == model.ToneUrgent {
			n++
		}
	}
	if n == 0 {
		return model.Alert{}, false
	}
	return model.Alert{
		Severity: model.SeverityMedium,
		Message:  fmt.Sprintf("Team communication shows urgency. %d urgent message(s) detected. Consider team sync.", n),
		Payload:  model.UrgencyPayload{Count: n},
	}, true
}
