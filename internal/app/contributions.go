package service

import (
	"context"
	"errors"
	"fmt"
	"math"
	"strings"
	"time"

	"github.com/google/uuid"

	eventqueue "github.com/okian/teampulse/internal/adapters/mq/queue"
	"github.com/okian/teampulse/internal/adapters/repository"
	"github.com/okian/teampulse/internal/domain/model"
	"github.com/okian/teampulse/pkg/logger"
	"github.com/okian/teampulse/pkg/metrics"
)

// ContributionInput is a contribution as submitted by a client. ID doubles as
// the idempotency key; an empty ID gets a fresh UUID.
type ContributionInput struct {
	ID        string    `json:"id,omitempty"`
	StudentID string    `json:"student_id"`
	GroupID   string    `json:"group_id,omitempty"`
	Task      string    `json:"task"`
	Action    string    `json:"action,omitempty"`
	Hours     float64   `json:"hours"`
	Timestamp time.Time `json:"timestamp,omitempty"`
}

func (in ContributionInput) validate() error {
	switch {
	case strings.TrimSpace(in.StudentID) == "":
		return fmt.Errorf("%w: student_id is required", ErrInvalidContribution)
	case strings.TrimSpace(in.Task) == "":
		return fmt.Errorf("%w: task is required", ErrInvalidContribution)
	case math.IsNaN(in.Hours) || math.IsInf(in.Hours, 0) || in.Hours < 0:
		return fmt.Errorf("%w: hours must be a non-negative number", ErrInvalidContribution)
	}
	return nil
}

// RecordContribution validates, deduplicates and persists a contribution, then
// schedules a refresh of the student's group. A repeated ID reports duplicate
// without storing anything. When the refresh queue refuses the job the record
// and its key are rolled back and the queue error is returned.
func (s *Service) RecordContribution(ctx context.Context, in ContributionInput) (model.ContributionRecord, bool, error) {
	if err := in.validate(); err != nil {
		return model.ContributionRecord{}, false, err
	}

	group, err := s.groupOf(ctx, in.StudentID, in.GroupID)
	if err != nil {
		return model.ContributionRecord{}, false, err
	}

	rec := model.ContributionRecord{
		ID:        in.ID,
		StudentID: in.StudentID,
		GroupID:   group.ID,
		Task:      in.Task,
		Action:    in.Action,
		Hours:     in.Hours,
		Timestamp: in.Timestamp,
	}
	if rec.ID == "" {
		rec.ID = uuid.NewString()
	}
	if rec.Timestamp.IsZero() {
		rec.Timestamp = s.now().UTC()
	}

	if s.deduper.SeenAndRecord(ctx, rec.ID) {
		metrics.RecordContributionDuplicate()
		s.logger.Debug(ctx, "duplicate contribution detected, skipping", logger.String("id", rec.ID))
		return rec, true, nil
	}

	if err := s.store.AddContribution(ctx, rec); err != nil {
		if errors.Is(err, repository.ErrConflict) {
			// Stored before the tracker last forgot the key.
			metrics.RecordContributionDuplicate()
			return rec, true, nil
		}
		s.deduper.Unrecord(ctx, rec.ID)
		metrics.RecordErrorByComponent("service", "store_error")
		return model.ContributionRecord{}, false, fmt.Errorf("storing contribution %s: %w", rec.ID, err)
	}

	job := model.RefreshJob{
		JobID:      uuid.NewString(),
		GroupID:    group.ID,
		Reason:     model.ReasonContribution,
		EnqueuedAt: s.now().UTC(),
	}
	if !s.queue.Enqueue(ctx, job) {
		if err := s.store.RemoveContribution(ctx, rec.ID); err != nil {
			s.logger.Error(ctx, "rolling back contribution", logger.String("id", rec.ID), logger.Error(err))
		}
		s.deduper.Unrecord(ctx, rec.ID)
		metrics.RecordErrorByComponent("service", "backpressure")
		return model.ContributionRecord{}, false, eventqueue.Reject(s.queue, group.ID)
	}

	metrics.RecordContributionRecorded()
	s.logger.Debug(ctx, "contribution recorded",
		logger.String("id", rec.ID),
		logger.String("studentID", rec.StudentID),
		logger.String("groupID", rec.GroupID),
		logger.Float64("hours", rec.Hours),
	)
	return rec, false, nil
}

// groupOf resolves the group a student works in. A given groupID must list
// the student; otherwise the student's first group by id is used.
func (s *Service) groupOf(ctx context.Context, studentID, groupID string) (model.GroupDescriptor, error) {
	if groupID != "" {
		g, err := s.Group(ctx, groupID)
		if err != nil {
			return model.GroupDescriptor{}, err
		}
		if !g.HasMember(studentID) {
			return model.GroupDescriptor{}, fmt.Errorf("%w: %s is not a member of %s", ErrUnknownStudent, studentID, groupID)
		}
		return g, nil
	}

	g, err := s.store.GroupForStudent(ctx, studentID)
	if errors.Is(err, repository.ErrNotFound) {
		return model.GroupDescriptor{}, fmt.Errorf("%w: %s", ErrUnknownStudent, studentID)
	}
	if err != nil {
		return model.GroupDescriptor{}, fmt.Errorf("finding group of %s: %w", studentID, err)
	}
	return g, nil
}
