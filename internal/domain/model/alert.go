package model

import (
	"encoding/json"
	"fmt"
	"strings"
	"time"
)

// Severity ranks alerts. Higher values sort first.
type Severity int

const (
	SeverityLow Severity = iota + 1
	SeverityMedium
	SeverityHigh
)

func (s Severity) String() string {
	switch s {
	case SeverityLow:
		return "low"
	case SeverityMedium:
		return "medium"
	case SeverityHigh:
		return "high"
	default:
		return "unknown"
	}
}

// MarshalText encodes the severity as its name.
func (s Severity) MarshalText() ([]byte, error) {
	if s < SeverityLow || s > SeverityHigh {
		return nil, fmt.Errorf("%w: severity %d", ErrInvalidInput, int(s))
	}
	return []byte(s.String()), nil
}

// UnmarshalText decodes a severity name.
func (s *Severity) UnmarshalText(b []byte) error {
	switch strings.ToLower(string(b)) {
	case "low":
		*s = SeverityLow
	case "medium":
		*s = SeverityMedium
	case "high":
		*s = SeverityHigh
	default:
		return fmt.Errorf("%w: unknown severity %q", ErrInvalidInput, string(b))
	}
	return nil
}

// Category names the rule that produced an alert.
type Category string

const (
	CategoryOverload             Category = "overload"
	CategoryInactivity           Category = "inactivity"
	CategoryOverdueMilestone     Category = "overdue_milestone"
	CategoryCommunicationUrgency Category = "communication_urgency"
)

// AlertPayload is the typed body of an alert. The set of implementations is closed.
type AlertPayload interface {
	Category() Category
	isAlertPayload()
}

// OverloadPayload names a student carrying more than the allowed share of hours.
type OverloadPayload struct {
	StudentID string  `json:"student_id"`
	Share     float64 `json:"share"`
}

// InactivityPayload lists every member with zero hours, in member order.
type InactivityPayload struct {
	StudentIDs []string `json:"student_ids"`
}

// OverdueMilestonePayload names the earliest not-started milestone past its due date.
type OverdueMilestonePayload struct {
	Milestone string    `json:"milestone"`
	DueDate   time.Time `json:"due_date"`
}

// UrgencyPayload counts urgent-toned messages.
type UrgencyPayload struct {
	Count int `json:"count"`
}

func (OverloadPayload) Category() Category         { return CategoryOverload }
func (InactivityPayload) Category() Category       { return CategoryInactivity }
func (OverdueMilestonePayload) Category() Category { return CategoryOverdueMilestone }
func (UrgencyPayload) Category() Category          { return CategoryCommunicationUrgency }

func (OverloadPayload) isAlertPayload()         {}
func (InactivityPayload) isAlertPayload()       {}
func (OverdueMilestonePayload) isAlertPayload() {}
func (UrgencyPayload) isAlertPayload()          {}

// Alert is a severity-tagged finding about a group. Subject is a student id or empty.
type Alert struct {
	Severity Severity
	Subject  string
	Message  string
	Payload  AlertPayload
}

// Category derives the category from the payload.
func (a Alert) Category() Category {
	if a.Payload == nil {
		return ""
	}
	return a.Payload.Category()
}

type alertJSON struct {
	Severity Severity        `json:"severity"`
	Subject  string          `json:"subject,omitempty"`
	Message  string          `json:"message"`
	Category Category        `json:"category"`
	Payload  json.RawMessage `json:"payload"`
}

// MarshalJSON writes the category next to the payload so it can be decoded again.
func (a Alert) MarshalJSON() ([]byte, error) {
	if a.Payload == nil {
		return nil, fmt.Errorf("%w: alert without payload", ErrInvalidInput)
	}
	payload, err := json.Marshal(a.Payload)
	if err != nil {
		return nil, err
	}
	return json.Marshal(alertJSON{
		Severity: a.Severity,
		Subject:  a.Subject,
		Message:  a.Message,
		Category: a.Category(),
		Payload:  payload,
	})
}

// UnmarshalJSON picks the payload type from the category.
func (a *Alert) UnmarshalJSON(b []byte) error {
	var raw alertJSON
	if err := json.Unmarshal(b, &raw); err != nil {
		return err
	}

	var payload AlertPayload
	switch raw.Category {
	case CategoryOverload:
		var p OverloadPayload
		if err := json.Unmarshal(raw.Payload, &p); err != nil {
			return err
		}
		payload = p
	case CategoryInactivity:
		var p InactivityPayload
		if err := json.Unmarshal(raw.Payload, &p); err != nil {
			return err
		}
		payload = p
	case CategoryOverdueMilestone:
		var p OverdueMilestonePayload
		if err := json.Unmarshal(raw.Payload, &p); err != nil {
			return err
		}
		payload = p
	case CategoryCommunicationUrgency:
		var p UrgencyPayload
		if err := json.Unmarshal(raw.Payload, &p); err != nil {
			return err
		}
		payload = p
	default:
		return fmt.Errorf("%w: unknown alert category %q", ErrInvalidInput, raw.Category)
	}

	*a = Alert{
		Severity: raw.Severity,
		Subject:  raw.Subject,
		Message:  raw.Message,
		Payload:  payload,
	}
	return nil
}

// CountBySeverity returns how many alerts carry the given severity.
func CountBySeverity(alerts []Alert, s Severity) int {
	n := 0
	for _, a := range alerts {
		if a.Severity == s {
			n++
		}
	}
	return n
}
