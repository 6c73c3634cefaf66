// Package model contains domain models passed between layers.
package model

import (
	"fmt"
	"strings"
	"time"
)

// ContributionRecord is one unit of logged work by a student. Immutable once created.
type ContributionRecord struct {
	ID        string    `json:"id"`
	StudentID string    `json:"student_id"`
	GroupID   string    `json:"group_id,omitempty"`
	Task      string    `json:"task"`
	Action    string    `json:"action"`
	Hours     float64   `json:"hours"`
	Timestamp time.Time `json:"timestamp"`
}

// MilestoneRecord is a dated group deliverable.
type MilestoneRecord struct {
	ID          string          `json:"id"`
	GroupID     string          `json:"group_id"`
	Name        string          `json:"name"`
	Description string          `json:"description,omitempty"`
	DueDate     time.Time       `json:"due_date"`
	Status      MilestoneStatus `json:"status"`
}

// CommunicationRecord is one message exchanged inside a group.
type CommunicationRecord struct {
	ID        string    `json:"id"`
	GroupID   string    `json:"group_id"`
	Sender    string    `json:"sender"`
	Recipient string    `json:"recipient"`
	Message   string    `json:"message"`
	Tone      Tone      `json:"tone"`
	Timestamp time.Time `json:"timestamp"`
}

// GroupDescriptor identifies a project group and its members.
// Status is set externally and never derived by the analyzers.
type GroupDescriptor struct {
	ID       string      `json:"id"`
	Name     string      `json:"name"`
	Project  string      `json:"project"`
	Members  []string    `json:"members"`
	Deadline time.Time   `json:"deadline"`
	Status   GroupStatus `json:"status"`
}

// HasMember reports whether studentID belongs to the group.
func (g GroupDescriptor) HasMember(studentID string) bool {
	for _, m := range g.Members {
		if m == studentID {
			return true
		}
	}
	return false
}

// Student is the roster entry for a member.
type Student struct {
	ID    string `json:"id"`
	Name  string `json:"name"`
	Email string `json:"email,omitempty"`
}

// GroupSnapshot bundles every record the analyzers need for one group.
type GroupSnapshot struct {
	Group          GroupDescriptor
	Contributions  []ContributionRecord
	Milestones     []MilestoneRecord
	Communications []CommunicationRecord
}

// MilestoneStatus tracks progress of a milestone.
type MilestoneStatus string

const (
	MilestoneNotStarted MilestoneStatus = "not_started"
	MilestoneInProgress MilestoneStatus = "in_progress"
	MilestoneCompleted  MilestoneStatus = "completed"
	MilestoneOverdue    MilestoneStatus = "overdue"
)

var milestoneLabels = map[MilestoneStatus]string{
	MilestoneNotStarted: "Not Started",
	MilestoneInProgress: "In Progress",
	MilestoneCompleted:  "Completed",
	MilestoneOverdue:    "Overdue",
}

// Label returns the human-readable form used in messages.
func (s MilestoneStatus) Label() string {
	if l, ok := milestoneLabels[s]; ok {
		return l
	}
	return string(s)
}

// Open reports whether the milestone still needs work.
func (s MilestoneStatus) Open() bool {
	return s == MilestoneNotStarted || s == MilestoneInProgress
}

// ParseMilestoneStatus accepts either the wire value or the label.
func ParseMilestoneStatus(v string) (MilestoneStatus, error) {
	for s, l := range milestoneLabels {
		if strings.EqualFold(v, string(s)) || strings.EqualFold(v, l) {
			return s, nil
		}
	}
	return "", fmt.Errorf("%w: unknown milestone status %q", ErrInvalidInput, v)
}

// GroupStatus is the coarse health label of a group.
type GroupStatus string

const (
	StatusThriving GroupStatus = "thriving"
	StatusHealthy  GroupStatus = "healthy"
	StatusAtRisk   GroupStatus = "at_risk"
	StatusCritical GroupStatus = "critical"
)

var groupStatusLabels = map[GroupStatus]string{
	StatusThriving: "Thriving",
	StatusHealthy:  "Healthy",
	StatusAtRisk:   "At Risk",
	StatusCritical: "Critical",
}

// Label returns the human-readable form used in tables and messages.
func (s GroupStatus) Label() string {
	if l, ok := groupStatusLabels[s]; ok {
		return l
	}
	return string(s)
}

// ParseGroupStatus accepts either the wire value or the label.
func ParseGroupStatus(v string) (GroupStatus, error) {
	for s, l := range groupStatusLabels {
		if strings.EqualFold(v, string(s)) || strings.EqualFold(v, l) {
			return s, nil
		}
	}
	return "", fmt.Errorf("%w: unknown group status %q", ErrInvalidInput, v)
}

// Tone classifies the register of a message.
type Tone string

const (
	ToneSupportive    Tone = "supportive"
	ToneCollaborative Tone = "collaborative"
	ToneUrgent        Tone = "urgent"
	ToneDirect        Tone = "direct"
	ToneNeutral       Tone = "neutral"
)

// ParseTone validates a tone value. Empty input maps to neutral.
func ParseTone(v string) (Tone, error) {
	switch t := Tone(strings.ToLower(strings.TrimSpace(v))); t {
	case "":
		return ToneNeutral, nil
	case ToneSupportive, ToneCollaborative, ToneUrgent, ToneDirect, ToneNeutral:
		return t, nil
	default:
		return "", fmt.Errorf("%w: unknown tone %q", ErrInvalidInput, v)
	}
}

// Role is the caller role supplied by the identity provider.
type Role string

const (
	RoleStudent    Role = "student"
	RoleInstructor Role = "instructor"
	RoleAdmin      Role = "admin"
)

// ParseRole validates a role value.
func ParseRole(v string) (Role, error) {
	switch r := Role(strings.ToLower(strings.TrimSpace(v))); r {
	case RoleStudent, RoleInstructor, RoleAdmin:
		return r, nil
	default:
		return "", fmt.Errorf("%w: unknown role %q", ErrInvalidInput, v)
	}
}

// Staff reports whether the role may see course-wide data.
func (r Role) Staff() bool {
	return r == RoleInstructor || r == RoleAdmin
}
