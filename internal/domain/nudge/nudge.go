// Package nudge maps one student's metrics and group context to an ordered
// list of personal nudges. The list is never empty.
package nudge

import (
	"fmt"
	"strconv"

	"github.com/okian/teampulse/internal/domain/model"
	"github.com/okian/teampulse/internal/domain/rules"
)

// DateLayout is how due dates appear in nudge text.
const DateLayout = "2006-01-02"

// Generate evaluates the nudge rules in fixed order for studentID.
// It fails only when the student is not part of the metrics.
func Generate(
	studentID string,
	group model.GroupMetrics,
	milestones []model.MilestoneRecord,
	th rules.Thresholds,
) ([]model.Nudge, error) {
	s, ok := group.Student(studentID)
	if !ok {
		return nil, fmt.Errorf("%w: %s in group %s", ErrUnknownStudent, studentID, group.GroupID)
	}

	var out []model.Nudge

	switch {
	case !s.HasContributed():
		out = append(out, firstContribution(s))
	case s.DaysSinceLast >= th.InactivityLookbackDays:
		out = append(out, reEngage(s))
	}

	if group.TotalHours > 0 && s.TotalHours < th.FairLoadRatio*group.AvgHours {
		out = append(out, fairLoad(s, group.AvgHours))
	}

	if s.TotalHours >= th.GoodWorkHours {
		out = append(out, goodWork(s))
	}

	if ms, ok := nearestOpen(milestones); ok {
		out = append(out, deadline(s, ms))
	}

	if len(out) == 0 {
		out = append(out, allGood(s))
	}
	return out, nil
}

// nearestOpen returns the open milestone with the earliest due date, ties to input order.
func nearestOpen(milestones []model.MilestoneRecord) (model.MilestoneRecord, bool) {
	found := -1
	for i, ms := range milestones {
		if !ms.Status.Open() {
			continue
		}
		if found < 0 || ms.DueDate.Before(milestones[found].DueDate) {
			found = i
		}
	}
	if found < 0 {
		return model.MilestoneRecord{}, false
	}
	return milestones[found], true
}

// FormatHours renders hours without trailing zeros, e.g. 7, 1.5.
func FormatHours(h float64) string {
	return strconv.FormatFloat(h, 'f', -1, 64)
}

func firstContribution(s model.StudentMetrics) model.Nudge {
	return model.Nudge{
		Kind:            model.NudgeFirstContribution,
		Icon:            "📢",
		Title:           "Time to Contribute!",
		Message:         "You haven't contributed yet. Your team is working on the project now!",
		SuggestedAction: "Check with your group about task assignments",
		Params:          map[string]string{"student": s.StudentID},
	}
}

func reEngage(s model.StudentMetrics) model.Nudge {
	days := strconv.Itoa(s.DaysSinceLast)
	return model.Nudge{
		Kind:            model.NudgeReEngage,
		Icon:            "📢",
		Title:           "Time to Contribute!",
		Message:         fmt.Sprintf("It's been %s days since you last worked. The team might need your help!", days),
		SuggestedAction: "Catch up on project progress and rejoin",
		Params:          map[string]string{"student": s.StudentID, "days": days},
	}
}

func fairLoad(s model.StudentMetrics, avg float64) model.Nudge {
	hours := FormatHours(s.TotalHours)
	average := fmt.Sprintf("%.1f", avg)
	return model.Nudge{
		Kind:  model.NudgeFairLoad,
		Icon:  "⚖️",
		Title: "Ensure Fair Load",
		Message: fmt.Sprintf("You've contributed %s hours while the group average is %s hours. Consider taking on additional tasks?",
			hours, average),
		SuggestedAction: "Discuss workload distribution with team",
		Params:          map[string]string{"student": s.StudentID, "hours": hours, "group_average": average},
	}
}

func goodWork(s model.StudentMetrics) model.Nudge {
	hours := FormatHours(s.TotalHours)
	return model.Nudge{
		Kind:            model.NudgeGoodWork,
		Icon:            "⭐",
		Title:           "Great Progress!",
		Message:         fmt.Sprintf("Great work! You've contributed %s hours. Keep the momentum!", hours),
		SuggestedAction: "Keep up the consistent effort",
		Params:          map[string]string{"student": s.StudentID, "hours": hours},
	}
}

func deadline(s model.StudentMetrics, ms model.MilestoneRecord) model.Nudge {
	due := ms.DueDate.Format(DateLayout)
	return model.Nudge{
		Kind:            model.NudgeDeadline,
		Icon:            "⏰",
		Title:           "Milestone Approaching",
		Message:         fmt.Sprintf("'%s' is due %s. Current status: %s", ms.Name, due, ms.Status.Label()),
		SuggestedAction: "Coordinate timing with your team",
		Params: map[string]string{
			"student":   s.StudentID,
			"milestone": ms.Name,
			"due_date":  due,
			"status":    ms.Status.Label(),
		},
	}
}

func allGood(s model.StudentMetrics) model.Nudge {
	return model.Nudge{
		Kind:            model.NudgeAllGood,
		Icon:            "✅",
		Title:           "All Good!",
		Message:         "You're on track. Keep collaborating with your team.",
		SuggestedAction: "Continue with current tasks",
		Params:          map[string]string{"student": s.StudentID},
	}
}
