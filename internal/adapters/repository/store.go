// Package repository stores course records and analysis history.
package repository

import (
	"context"
	"fmt"

	"github.com/okian/teampulse/internal/domain/model"
)

// Store drivers.
const (
	DriverMemory = "memory"
	DriverSQLite = "sqlite"
)

// ContributionFilter narrows a contribution query. Empty fields match everything.
type ContributionFilter struct {
	GroupID   string
	StudentID string
}

func (f ContributionFilter) match(c model.ContributionRecord) bool {
	return (f.GroupID == "" || c.GroupID == f.GroupID) &&
		(f.StudentID == "" || c.StudentID == f.StudentID)
}

// Store provides read/write access to course records.
//
// Listing methods return records in insertion order, except Groups which is
// ordered by id and HealthHistory which is newest first.
type Store interface {
	PutGroup(ctx context.Context, g model.GroupDescriptor) error
	// Group returns ErrNotFound for an unknown id.
	Group(ctx context.Context, id string) (model.GroupDescriptor, error)
	Groups(ctx context.Context) ([]model.GroupDescriptor, error)
	// GroupForStudent returns the first group, by id, listing studentID as a member.
	GroupForStudent(ctx context.Context, studentID string) (model.GroupDescriptor, error)

	PutStudent(ctx context.Context, s model.Student) error
	Student(ctx context.Context, id string) (model.Student, error)

	// AddContribution returns ErrConflict when the id is already stored.
	AddContribution(ctx context.Context, c model.ContributionRecord) error
	RemoveContribution(ctx context.Context, id string) error
	Contributions(ctx context.Context, f ContributionFilter) ([]model.ContributionRecord, error)

	AddMilestone(ctx context.Context, m model.MilestoneRecord) error
	Milestones(ctx context.Context, groupID string) ([]model.MilestoneRecord, error)

	AddCommunication(ctx context.Context, c model.CommunicationRecord) error
	Communications(ctx context.Context, groupID string) ([]model.CommunicationRecord, error)

	SaveHealthSnapshot(ctx context.Context, s model.HealthSnapshot) error
	// HealthHistory returns at most limit snapshots; limit 0 means all.
	HealthHistory(ctx context.Context, groupID string, limit int) ([]model.HealthSnapshot, error)

	Close() error
}

// LoadSnapshot gathers every record the analyzers need for one group.
func LoadSnapshot(ctx context.Context, s Store, groupID string) (model.GroupSnapshot, error) {
	g, err := s.Group(ctx, groupID)
	if err != nil {
		return model.GroupSnapshot{}, err
	}
	contributions, err := s.Contributions(ctx, ContributionFilter{GroupID: groupID})
	if err != nil {
		return model.GroupSnapshot{}, err
	}
	milestones, err := s.Milestones(ctx, groupID)
	if err != nil {
		return model.GroupSnapshot{}, err
	}
	communications, err := s.Communications(ctx, groupID)
	if err != nil {
		return model.GroupSnapshot{}, err
	}
	return model.GroupSnapshot{
		Group:          g,
		Contributions:  contributions,
		Milestones:     milestones,
		Communications: communications,
	}, nil
}

// Open builds the store named by driver ("memory" or "sqlite").
func Open(driver, dsn string, opts ...Option) (Store, error) {
	switch driver {
	case DriverMemory:
		return NewMemoryStore(opts...), nil
	case DriverSQLite:
		return OpenSQLite(dsn, opts...)
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownDriver, driver)
	}
}
