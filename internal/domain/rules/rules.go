// Package rules holds the named thresholds every analysis stage is parameterized by.
package rules

import (
	"fmt"
)

// Thresholds is passed explicitly into every stage. Validate it once at startup.
type Thresholds struct {
	// ImbalanceThreshold is the share of group hours above which a member is overloaded. (0,1].
	ImbalanceThreshold float64 `koanf:"imbalance_threshold" json:"imbalance_threshold"`

	// InactivityLookbackDays is the gap after which a contributor is asked to re-engage.
	InactivityLookbackDays int `koanf:"inactivity_lookback_days" json:"inactivity_lookback_days"`

	// OverloadHoursFloor and UnderutilizedHoursCeiling bound the rebalancing suggestion.
	OverloadHoursFloor        float64 `koanf:"overload_hours_floor" json:"overload_hours_floor"`
	UnderutilizedHoursCeiling float64 `koanf:"underutilized_hours_ceiling" json:"underutilized_hours_ceiling"`

	// FairLoadRatio is the fraction of the group average below which a fair-load nudge fires.
	FairLoadRatio float64 `koanf:"fair_load_ratio" json:"fair_load_ratio"`

	// GoodWorkHours is the total at which a student gets positive reinforcement.
	GoodWorkHours float64 `koanf:"good_work_hours" json:"good_work_hours"`

	HighAlertPenalty   float64 `koanf:"high_alert_penalty" json:"high_alert_penalty"`
	MediumAlertPenalty float64 `koanf:"medium_alert_penalty" json:"medium_alert_penalty"`

	// ThrivingScore and HealthyScore are the lower bounds of each status band.
	ThrivingScore float64 `koanf:"thriving_score" json:"thriving_score"`
	HealthyScore  float64 `koanf:"healthy_score" json:"healthy_score"`

	// CriticalHighAlerts is how many high alerts turn an escalation critical.
	CriticalHighAlerts int `koanf:"critical_high_alerts" json:"critical_high_alerts"`

	// EscalationExcerptRunes truncates each high alert in a critical escalation message.
	EscalationExcerptRunes int `koanf:"escalation_excerpt_runes" json:"escalation_excerpt_runes"`

	// ParticipationFloor is the course-wide mean participation below which a recommendation fires.
	ParticipationFloor float64 `koanf:"participation_floor" json:"participation_floor"`
}

// Defaults returns the documented default thresholds.
func Defaults() Thresholds {
	return Thresholds{
		ImbalanceThreshold:        0.6,
		InactivityLookbackDays:    3,
		OverloadHoursFloor:        5,
		UnderutilizedHoursCeiling: 2,
		FairLoadRatio:             0.5,
		GoodWorkHours:             5,
		HighAlertPenalty:          0.15,
		MediumAlertPenalty:        0.05,
		ThrivingScore:             0.8,
		HealthyScore:              0.5,
		CriticalHighAlerts:        2,
		EscalationExcerptRunes:    30,
		ParticipationFloor:        0.8,
	}
}

// Validate rejects thresholds outside their valid ranges.
func (t Thresholds) Validate() error {
	switch {
	case t.ImbalanceThreshold <= 0 || t.ImbalanceThreshold > 1:
		return invalid("imbalance_threshold", t.ImbalanceThreshold, "must be in (0,1]")
	case t.InactivityLookbackDays < 1:
		return invalid("inactivity_lookback_days", t.InactivityLookbackDays, "must be at least 1")
	case t.OverloadHoursFloor < 0:
		return invalid("overload_hours_floor", t.OverloadHoursFloor, "must not be negative")
	case t.UnderutilizedHoursCeiling < 0:
		return invalid("underutilized_hours_ceiling", t.UnderutilizedHoursCeiling, "must not be negative")
	case t.UnderutilizedHoursCeiling > t.OverloadHoursFloor:
		return invalid("underutilized_hours_ceiling", t.UnderutilizedHoursCeiling, "must not exceed overload_hours_floor")
	case t.FairLoadRatio <= 0 || t.FairLoadRatio > 1:
		return invalid("fair_load_ratio", t.FairLoadRatio, "must be in (0,1]")
	case t.GoodWorkHours <= 0:
		return invalid("good_work_hours", t.GoodWorkHours, "must be positive")
	case t.HighAlertPenalty < 0 || t.HighAlertPenalty > 1:
		return invalid("high_alert_penalty", t.HighAlertPenalty, "must be in [0,1]")
	case t.MediumAlertPenalty < 0 || t.MediumAlertPenalty > 1:
		return invalid("medium_alert_penalty", t.MediumAlertPenalty, "must be in [0,1]")
	case t.HealthyScore <= 0 || t.HealthyScore >= t.ThrivingScore || t.ThrivingScore > 1:
		return invalid("healthy_score", t.HealthyScore, "must satisfy 0 < healthy_score < thriving_score <= 1")
	case t.CriticalHighAlerts < 2:
		return invalid("critical_high_alerts", t.CriticalHighAlerts, "must be at least 2")
	case t.EscalationExcerptRunes < 1:
		return invalid("escalation_excerpt_runes", t.EscalationExcerptRunes, "must be positive")
	case t.ParticipationFloor < 0 || t.ParticipationFloor > 1:
		return invalid("participation_floor", t.ParticipationFloor, "must be in [0,1]")
	}
	return nil
}

func invalid(field string, value any, why string) error {
	return fmt.Errorf("%w: %s=%v %s", ErrInvalidThreshold, field, value, why)
}
