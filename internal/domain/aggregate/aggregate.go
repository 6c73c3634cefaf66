// Package aggregate reduces raw contribution records into per-member and
// per-group figures. Every call recomputes from its inputs.
package aggregate

import (
	"time"

	"github.com/okian/teampulse/internal/domain/model"
)

const day = 24 * time.Hour

// Aggregate computes metrics for every member of a group. Members with no
// records appear with zero hours. Records from non-members are ignored.
// Duplicate member ids are counted once, at their first position.
func Aggregate(groupID string, members []string, records []model.ContributionRecord, now time.Time) model.GroupMetrics {
	order := make([]string, 0, len(members))
	index := make(map[string]int, len(members))
	for _, m := range members {
		if _, dup := index[m]; dup {
			continue
		}
		index[m] = len(order)
		order = append(order, m)
	}

	students := make([]model.StudentMetrics, len(order))
	last := make([]time.Time, len(order))
	for i, id := range order {
		students[i] = model.StudentMetrics{StudentID: id, DaysSinceLast: model.NeverContributed}
	}

	for _, r := range records {
		i, ok := index[r.StudentID]
		if !ok {
			continue
		}
		students[i].TotalHours += r.Hours
		students[i].ContributionCount++
		if r.Timestamp.After(last[i]) {
			last[i] = r.Timestamp
		}
	}

	out := model.GroupMetrics{
		GroupID:     groupID,
		Students:    students,
		MemberCount: len(order),
	}

	active := 0
	for i := range students {
		out.TotalHours += students[i].TotalHours
		if students[i].TotalHours > 0 {
			active++
		}
		if students[i].ContributionCount > 0 {
			students[i].DaysSinceLast = daysBetween(last[i], now)
		}
	}

	if out.TotalHours > 0 {
		for i := range students {
			students[i].Share = students[i].TotalHours / out.TotalHours
		}
	}
	if out.MemberCount > 0 {
		out.AvgHours = out.TotalHours / float64(out.MemberCount)
		out.ParticipationRate = float64(active) / float64(out.MemberCount)
	}
	return out
}

// daysBetween returns whole days from then to now, never negative.
func daysBetween(then, now time.Time) int {
	d := now.Sub(then)
	if d <= 0 {
		return 0
	}
	return int(d / day)
}
