package repository

import (
	"context"
	"fmt"
	"slices"
	"sort"
	"sync"
	"time"

	"github.com/okian/teampulse/internal/domain/model"
	"github.com/okian/teampulse/pkg/metrics"
)

// MemoryStore keeps everything in process memory. Safe for concurrent use.
type MemoryStore struct {
	mu             sync.RWMutex
	opts           options
	groups         map[string]model.GroupDescriptor
	students       map[string]model.Student
	contributions  []model.ContributionRecord
	contribIDs     map[string]struct{}
	milestones     map[string][]model.MilestoneRecord
	communications map[string][]model.CommunicationRecord
	history        map[string][]model.HealthSnapshot
}

// NewMemoryStore creates an empty in-memory store.
func NewMemoryStore(opts ...Option) *MemoryStore {
	o := defaultOptions()
	for _, opt := range opts {
		opt(&o)
	}
	return &MemoryStore{
		opts:           o,
		groups:         make(map[string]model.GroupDescriptor),
		students:       make(map[string]model.Student),
		contribIDs:     make(map[string]struct{}),
		milestones:     make(map[string][]model.MilestoneRecord),
		communications: make(map[string][]model.CommunicationRecord),
		history:        make(map[string][]model.HealthSnapshot),
	}
}

func observe(op string, start time.Time) {
	metrics.RecordStoreLatency(op, float64(time.Since(start).Microseconds())/1000)
}

func (s *MemoryStore) PutGroup(_ context.Context, g model.GroupDescriptor) error {
	defer observe("put_group", time.Now())
	g.Members = slices.Clone(g.Members)

	s.mu.Lock()
	s.groups[g.ID] = g
	n := len(s.groups)
	s.mu.Unlock()

	metrics.UpdateGroupsTotal(n)
	return nil
}

func (s *MemoryStore) Group(_ context.Context, id string) (model.GroupDescriptor, error) {
	defer observe("group", time.Now())
	s.mu.RLock()
	defer s.mu.RUnlock()

	g, ok := s.groups[id]
	if !ok {
		return model.GroupDescriptor{}, fmt.Errorf("%w: group %s", ErrNotFound, id)
	}
	g.Members = slices.Clone(g.Members)
	return g, nil
}

func (s *MemoryStore) Groups(_ context.Context) ([]model.GroupDescriptor, error) {
	defer observe("groups", time.Now())
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]model.GroupDescriptor, 0, len(s.groups))
	for _, g := range s.groups {
		g.Members = slices.Clone(g.Members)
		out = append(out, g)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (s *MemoryStore) GroupForStudent(ctx context.Context, studentID string) (model.GroupDescriptor, error) {
	groups, err := s.Groups(ctx)
	if err != nil {
		return model.GroupDescriptor{}, err
	}
	for _, g := range groups {
		if g.HasMember(studentID) {
			return g, nil
		}
	}
	return model.GroupDescriptor{}, fmt.Errorf("%w: no group for student %s", ErrNotFound, studentID)
}

func (s *MemoryStore) PutStudent(_ context.Context, st model.Student) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.students[st.ID] = st
	return nil
}

func (s *MemoryStore) Student(_ context.Context, id string) (model.Student, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	st, ok := s.students[id]
	if !ok {
		return model.Student{}, fmt.Errorf("%w: student %s", ErrNotFound, id)
	}
	return st, nil
}

func (s *MemoryStore) AddContribution(_ context.Context, c model.ContributionRecord) error {
	defer observe("add_contribution", time.Now())
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, dup := s.contribIDs[c.ID]; dup {
		return fmt.Errorf("%w: contribution %s", ErrConflict, c.ID)
	}
	s.contribIDs[c.ID] = struct{}{}
	s.contributions = append(s.contributions, c)
	return nil
}

func (s *MemoryStore) RemoveContribution(_ context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.contribIDs[id]; !ok {
		return fmt.Errorf("%w: contribution %s", ErrNotFound, id)
	}
	delete(s.contribIDs, id)
	s.contributions = slices.DeleteFunc(s.contributions, func(c model.ContributionRecord) bool {
		return c.ID == id
	})
	return nil
}

func (s *MemoryStore) Contributions(_ context.Context, f ContributionFilter) ([]model.ContributionRecord, error) {
	defer observe("contributions", time.Now())
	s.mu.RLock()
	defer s.mu.RUnlock()

	var out []model.ContributionRecord
	for _, c := range s.contributions {
		if f.match(c) {
			out = append(out, c)
		}
	}
	return out, nil
}

func (s *MemoryStore) AddMilestone(_ context.Context, m model.MilestoneRecord) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.milestones[m.GroupID] = append(s.milestones[m.GroupID], m)
	return nil
}

func (s *MemoryStore) Milestones(_ context.Context, groupID string) ([]model.MilestoneRecord, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return slices.Clone(s.milestones[groupID]), nil
}

func (s *MemoryStore) AddCommunication(_ context.Context, c model.CommunicationRecord) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.communications[c.GroupID] = append(s.communications[c.GroupID], c)
	return nil
}

func (s *MemoryStore) Communications(_ context.Context, groupID string) ([]model.CommunicationRecord, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return slices.Clone(s.communications[groupID]), nil
}

func (s *MemoryStore) SaveHealthSnapshot(_ context.Context, snap model.HealthSnapshot) error {
	defer observe("save_snapshot", time.Now())
	s.mu.Lock()
	h := append(s.history[snap.GroupID], snap)
	if limit := s.opts.historyLimit; limit > 0 && len(h) > limit {
		h = slices.Clone(h[len(h)-limit:])
	}
	s.history[snap.GroupID] = h
	s.mu.Unlock()

	metrics.RecordSnapshotSaved()
	return nil
}

func (s *MemoryStore) HealthHistory(_ context.Context, groupID string, limit int) ([]model.HealthSnapshot, error) {
	if limit < 0 {
		return nil, fmt.Errorf("%w: %d", ErrInvalidLimit, limit)
	}
	s.mu.RLock()
	defer s.mu.RUnlock()

	h := s.history[groupID]
	n := len(h)
	if limit > 0 && limit < n {
		n = limit
	}
	out := make([]model.HealthSnapshot, 0, n)
	for i := len(h) - 1; i >= 0 && len(out) < n; i-- {
		out = append(out, h[i])
	}
	return out, nil
}

// Close is a no-op for the in-memory store.
func (s *MemoryStore) Close() error {
	return nil
}
