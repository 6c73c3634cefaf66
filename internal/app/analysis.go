package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	eventqueue "github.com/okian/teampulse/internal/adapters/mq/queue"
	"github.com/okian/teampulse/internal/adapters/render"
	"github.com/okian/teampulse/internal/adapters/repository"
	"github.com/okian/teampulse/internal/domain/aggregate"
	"github.com/okian/teampulse/internal/domain/detect"
	"github.com/okian/teampulse/internal/domain/escalate"
	"github.com/okian/teampulse/internal/domain/model"
	"github.com/okian/teampulse/internal/domain/nudge"
	"github.com/okian/teampulse/pkg/logger"
	"github.com/okian/teampulse/pkg/metrics"
)

// issueSeparator joins alert messages inside rendered assessments.
const issueSeparator = "; "

// GroupReport is a health report plus its rendered assessment.
type GroupReport struct {
	Group      model.GroupDescriptor   `json:"group"`
	Report     model.GroupHealthReport `json:"report"`
	Assessment string                  `json:"assessment"`
}

// StudentNudges is the rendered nudge list for one student.
type StudentNudges struct {
	StudentID string        `json:"student_id"`
	GroupID   string        `json:"group_id"`
	Nudges    []model.Nudge `json:"nudges"`
}

// Group returns the descriptor for id, or ErrUnknownGroup.
func (s *Service) Group(ctx context.Context, id string) (model.GroupDescriptor, error) {
	g, err := s.store.Group(ctx, id)
	if errors.Is(err, repository.ErrNotFound) {
		return model.GroupDescriptor{}, fmt.Errorf("%w: %s", ErrUnknownGroup, id)
	}
	if err != nil {
		return model.GroupDescriptor{}, fmt.Errorf("loading group %s: %w", id, err)
	}
	return g, nil
}

// Groups lists every group ordered by id.
func (s *Service) Groups(ctx context.Context) ([]model.GroupDescriptor, error) {
	groups, err := s.store.Groups(ctx)
	if err != nil {
		return nil, fmt.Errorf("listing groups: %w", err)
	}
	return groups, nil
}

// snapshot loads every record of a group that has at least one member.
func (s *Service) snapshot(ctx context.Context, groupID string) (model.GroupSnapshot, error) {
	snap, err := repository.LoadSnapshot(ctx, s.store, groupID)
	if errors.Is(err, repository.ErrNotFound) {
		return model.GroupSnapshot{}, fmt.Errorf("%w: %s", ErrUnknownGroup, groupID)
	}
	if err != nil {
		return model.GroupSnapshot{}, fmt.Errorf("loading records of %s: %w", groupID, err)
	}
	if len(snap.Group.Members) == 0 {
		return model.GroupSnapshot{}, fmt.Errorf("%w: %s", ErrEmptyMembers, groupID)
	}
	return snap, nil
}

// observe records how long an analysis stage took.
func observe(stage string, start time.Time) {
	metrics.RecordAnalysis(stage)
	metrics.RecordAnalysisLatency(stage, float64(time.Since(start).Microseconds())/1000)
}

// GroupMetrics aggregates a group's contributions.
func (s *Service) GroupMetrics(ctx context.Context, groupID string) (model.GroupMetrics, error) {
	snap, err := s.snapshot(ctx, groupID)
	if err != nil {
		return model.GroupMetrics{}, err
	}
	defer observe("aggregate", time.Now())
	return aggregate.Aggregate(snap.Group.ID, snap.Group.Members, snap.Contributions, s.now()), nil
}

// GroupAlerts runs the imbalance detector for a group.
func (s *Service) GroupAlerts(ctx context.Context, groupID string) ([]model.Alert, error) {
	snap, err := s.snapshot(ctx, groupID)
	if err != nil {
		return nil, err
	}
	defer observe("detect", time.Now())
	now := s.now()
	m := aggregate.Aggregate(snap.Group.ID, snap.Group.Members, snap.Contributions, now)
	alerts := detect.Detect(m, snap.Milestones, snap.Communications, s.thresholds, now)
	if alerts == nil {
		alerts = []model.Alert{}
	}
	return alerts, nil
}

// GroupReport computes a fresh health report and renders its assessment.
func (s *Service) GroupReport(ctx context.Context, groupID string) (GroupReport, error) {
	snap, err := s.snapshot(ctx, groupID)
	if err != nil {
		return GroupReport{}, err
	}
	report := s.analyze(snap)
	return GroupReport{
		Group:      snap.Group,
		Report:     report,
		Assessment: s.assess(ctx, snap.Group, report),
	}, nil
}

// AnalyzeGroup recomputes a group's report and appends it to the health
// history. The refresh workers call it for every dequeued job.
func (s *Service) AnalyzeGroup(ctx context.Context, groupID string) (model.GroupHealthReport, error) {
	snap, err := s.snapshot(ctx, groupID)
	if err != nil {
		return model.GroupHealthReport{}, err
	}
	report := s.analyze(snap)
	for _, a := range report.Alerts {
		metrics.RecordAlert(string(a.Category()), a.Severity.String())
	}

	if err := s.store.SaveHealthSnapshot(ctx, model.SnapshotOf(uuid.NewString(), report)); err != nil {
		return report, fmt.Errorf("saving health snapshot of %s: %w", groupID, err)
	}
	metrics.RecordSnapshotSaved()
	return report, nil
}

func (s *Service) analyze(snap model.GroupSnapshot) model.GroupHealthReport {
	defer observe("health", time.Now())
	report := escalate.Run(snap, s.thresholds, s.now())
	metrics.UpdateGroupHealthScore(report.GroupID, report.HealthScore)
	return report
}

// assess renders the one-paragraph group assessment.
func (s *Service) assess(ctx context.Context, g model.GroupDescriptor, r model.GroupHealthReport) string {
	issues := make([]string, 0, len(r.Alerts))
	for _, a := range r.Alerts {
		issues = append(issues, a.Message)
	}
	params := render.Params{
		render.ParamGroup:  escalate.DisplayName(g),
		render.ParamStatus: r.Status.Label(),
		render.ParamScore:  fmt.Sprintf("%.2f", r.HealthScore),
		render.ParamIssues: strings.Join(issues, issueSeparator),
	}
	return s.renderText(ctx, render.KindGroupAssessment, params)
}

// renderText renders a phrase, keeping the caller's message when the
// renderer reports an error despite its contract.
func (s *Service) renderText(ctx context.Context, kind render.Kind, params render.Params) string {
	text, err := s.renderer.Render(ctx, kind, params)
	if err != nil || strings.TrimSpace(text) == "" {
		if msg := params[render.ParamMessage]; msg != "" {
			return msg
		}
		return render.DefaultPhrase
	}
	return text
}

// renderEach runs fn for 0..n-1 concurrently so a slow renderer costs one
// timeout per request instead of one per phrase.
func (s *Service) renderEach(n int, fn func(i int)) {
	var g errgroup.Group
	g.SetLimit(renderParallelism)
	for i := range n {
		g.Go(func() error {
			fn(i)
			return nil
		})
	}
	_ = g.Wait()
}

// StudentNudges evaluates and renders a student's nudges. An empty groupID
// resolves the student's group from membership.
func (s *Service) StudentNudges(ctx context.Context, studentID, groupID string) (StudentNudges, error) {
	group, err := s.groupOf(ctx, studentID, groupID)
	if err != nil {
		return StudentNudges{}, err
	}
	snap, err := s.snapshot(ctx, group.ID)
	if err != nil {
		return StudentNudges{}, err
	}

	start := time.Now()
	m := aggregate.Aggregate(snap.Group.ID, snap.Group.Members, snap.Contributions, s.now())
	nudges, err := nudge.Generate(studentID, m, snap.Milestones, s.thresholds)
	observe("nudge", start)
	if err != nil {
		return StudentNudges{}, err
	}

	for i := range nudges {
		metrics.RecordNudge(string(nudges[i].Kind))
	}
	s.renderEach(len(nudges), func(i int) {
		nudges[i].Message = s.renderText(ctx, render.Kind(nudges[i].Kind), render.NudgeParams(nudges[i]))
	})
	return StudentNudges{StudentID: studentID, GroupID: group.ID, Nudges: nudges}, nil
}

// InstructorFeed analyzes every group, loading them in parallel, and builds
// the escalated alerts, recommendations and course summary. Alerts follow
// group id order.
func (s *Service) InstructorFeed(ctx context.Context) (escalate.Feed, error) {
	groups, err := s.Groups(ctx)
	if err != nil {
		return escalate.Feed{}, err
	}

	results := make([]escalate.GroupResult, len(groups))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(feedParallelism)
	for i, group := range groups {
		g.Go(func() error {
			snap, err := repository.LoadSnapshot(gctx, s.store, group.ID)
			if err != nil {
				return fmt.Errorf("loading records of %s: %w", group.ID, err)
			}
			results[i] = escalate.GroupResult{Group: snap.Group, Report: s.analyze(snap)}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return escalate.Feed{}, err
	}

	start := time.Now()
	feed := escalate.FromResults(results, s.thresholds)
	observe("escalate", start)

	for _, a := range feed.Alerts {
		metrics.RecordInstructorAlert(string(a.Priority))
	}
	s.renderEach(len(feed.Alerts), func(i int) {
		a := feed.Alerts[i]
		feed.Alerts[i].Summary = s.renderText(ctx, render.KindInstructorAlert, render.Params{
			render.ParamGroup:    a.GroupName,
			render.ParamIssues:   a.Message,
			render.ParamPriority: string(a.Priority),
			render.ParamMessage:  a.Message,
		})
	})
	for range feed.Recommendations {
		metrics.RecordRecommendation()
	}
	metrics.UpdateGroupsTotal(len(groups))

	s.logger.Debug(ctx, "instructor feed built",
		logger.Int("groups", len(groups)),
		logger.Int("alerts", len(feed.Alerts)),
		logger.Int("recommendations", len(feed.Recommendations)),
	)
	return feed, nil
}

// HealthHistory lists stored snapshots for a group, newest first.
func (s *Service) HealthHistory(ctx context.Context, groupID string, limit int) ([]model.HealthSnapshot, error) {
	if _, err := s.Group(ctx, groupID); err != nil {
		return nil, err
	}
	history, err := s.store.HealthHistory(ctx, groupID, limit)
	if err != nil {
		return nil, fmt.Errorf("loading history of %s: %w", groupID, err)
	}
	if history == nil {
		history = []model.HealthSnapshot{}
	}
	return history, nil
}

// RefreshAll schedules a refresh of every group and returns how many were
// accepted. Rejected groups are logged and skipped.
func (s *Service) RefreshAll(ctx context.Context) (int, error) {
	groups, err := s.Groups(ctx)
	if err != nil {
		return 0, err
	}
	accepted := 0
	for _, g := range groups {
		job := model.RefreshJob{
			JobID:      uuid.NewString(),
			GroupID:    g.ID,
			Reason:     model.ReasonScheduled,
			EnqueuedAt: s.now().UTC(),
		}
		if !s.queue.Enqueue(ctx, job) {
			s.logger.Warn(ctx, "refresh rejected", logger.String("groupID", g.ID))
			continue
		}
		accepted++
	}
	return accepted, nil
}

// RefreshGroup schedules an on-demand refresh of one group. A refused job
// surfaces as the queue's error.
func (s *Service) RefreshGroup(ctx context.Context, groupID string) (model.RefreshJob, error) {
	if _, err := s.Group(ctx, groupID); err != nil {
		return model.RefreshJob{}, err
	}
	job := model.RefreshJob{
		JobID:      uuid.NewString(),
		GroupID:    groupID,
		Reason:     model.ReasonManual,
		EnqueuedAt: s.now().UTC(),
	}
	if !s.queue.Enqueue(ctx, job) {
		return model.RefreshJob{}, eventqueue.Reject(s.queue, groupID)
	}
	return job, nil
}
