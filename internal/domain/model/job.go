package model

import "time"

// RefreshReason says why a group's health is being recomputed.
type RefreshReason string

const (
	ReasonContribution RefreshReason = "contribution"
	ReasonScheduled    RefreshReason = "scheduled"
	ReasonManual       RefreshReason = "manual"
)

// RefreshJob asks a worker to recompute and snapshot one group's health.
type RefreshJob struct {
	JobID      string        `json:"job_id"`
	GroupID    string        `json:"group_id"`
	Reason     RefreshReason `json:"reason"`
	EnqueuedAt time.Time     `json:"enqueued_at"`
}
