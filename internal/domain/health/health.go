// Package health combines group metrics and alerts into a scored health report.
package health

import (
	"fmt"
	"math"
	"time"

	"github.com/okian/teampulse/internal/domain/model"
	"github.com/okian/teampulse/internal/domain/rules"
)

// RebalanceRationale is attached to every rebalancing suggestion.
const RebalanceRationale = "Improves team equity and engagement"

// scorePrecision trims float noise so 1 - 0.15 - 0.05 lands exactly on 0.8.
const scorePrecision = 1e9

// Analyze builds the report for one group. It never assigns StatusCritical.
func Analyze(metrics model.GroupMetrics, alerts []model.Alert, th rules.Thresholds, now time.Time) model.GroupHealthReport {
	score := Score(alerts, th)
	return model.GroupHealthReport{
		GroupID:     metrics.GroupID,
		Metrics:     metrics,
		Alerts:      alerts,
		Suggestions: Rebalance(metrics, th),
		HealthScore: score,
		Status:      StatusFor(score, th),
		GeneratedAt: now,
	}
}

// Score starts at 1, subtracts a penalty per high and medium alert, and floors at 0.
func Score(alerts []model.Alert, th rules.Thresholds) float64 {
	penalty := float64(model.CountBySeverity(alerts, model.SeverityHigh))*th.HighAlertPenalty +
		float64(model.CountBySeverity(alerts, model.SeverityMedium))*th.MediumAlertPenalty
	score := math.Round((1-penalty)*scorePrecision) / scorePrecision
	if score < 0 {
		return 0
	}
	return score
}

// StatusFor maps a score onto the Thriving/Healthy/AtRisk bands.
func StatusFor(score float64, th rules.Thresholds) model.GroupStatus {
	switch {
	case score >= th.ThrivingScore:
		return model.StatusThriving
	case score >= th.HealthyScore:
		return model.StatusHealthy
	default:
		return model.StatusAtRisk
	}
}

// Rebalance suggests moving work from the most loaded member above the
// overload floor to the least loaded member below the underutilized ceiling.
func Rebalance(m model.GroupMetrics, th rules.Thresholds) []model.Suggestion {
	over, under := -1, -1
	for i, s := range m.Students {
		if s.TotalHours > th.OverloadHoursFloor && (over < 0 || s.TotalHours > m.Students[over].TotalHours) {
			over = i
		}
		if s.TotalHours < th.UnderutilizedHoursCeiling && (under < 0 || s.TotalHours < m.Students[under].TotalHours) {
			under = i
		}
	}
	if over < 0 || under < 0 {
		return nil
	}
	from, to := m.Students[over].StudentID, m.Students[under].StudentID
	return []model.Suggestion{{
		Kind:      model.SuggestionRebalance,
		From:      from,
		To:        to,
		Message:   fmt.Sprintf("Move some tasks from %s to %s for better balance.", from, to),
		Rationale: RebalanceRationale,
	}}
}
