package simulate

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"time"

	"github.com/okian/teampulse/internal/domain/model"
	"github.com/okian/teampulse/pkg/logger"
)

// ErrVerification reports analytics that disagree with what was submitted.
var ErrVerification = errors.New("simulation verification failed")

const pollInterval = 100 * time.Millisecond

// settle waits until the server's refresh queue is empty or timeout passes.
func settle(ctx context.Context, c *client, timeout time.Duration) error {
	deadline := time.Now().Add(timeout)
	for {
		var stats map[string]any
		if err := c.getJSON(ctx, "/stats", &stats); err != nil {
			return err
		}
		if n, ok := stats["queueLength"].(float64); ok && n == 0 {
			return nil
		}
		if time.Now().After(deadline) {
			return fmt.Errorf("%w: refresh queue did not drain within %s", ErrVerification, timeout)
		}
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(pollInterval):
		}
	}
}

// waitForHistory polls until the group has at least one stored snapshot.
func waitForHistory(ctx context.Context, c *client, groupID string, timeout time.Duration) (int, error) {
	deadline := time.Now().Add(timeout)
	path := "/groups/" + url.PathEscape(groupID) + "/history?limit=500"
	for {
		var history []model.HealthSnapshot
		if err := c.getJSON(ctx, path, &history); err != nil {
			return 0, err
		}
		if len(history) > 0 {
			return len(history), nil
		}
		if time.Now().After(deadline) {
			return 0, fmt.Errorf("%w: no health snapshot for %s", ErrVerification, groupID)
		}
		select {
		case <-ctx.Done():
			return 0, ctx.Err()
		case <-time.After(pollInterval):
		}
	}
}

type reportShape struct {
	Report struct {
		GroupID     string            `json:"group_id"`
		HealthScore float64           `json:"health_score"`
		Status      model.GroupStatus `json:"status"`
	} `json:"report"`
	Assessment string `json:"assessment"`
}

// verify reads every report and the instructor feed back from the server.
func verify(ctx context.Context, c *client, cfg *Config, groups []model.GroupDescriptor, touched map[string]bool, stats *Stats) error {
	logger.Get().Info(ctx, "verifying analytics")

	for _, g := range groups {
		var r reportShape
		if err := c.getJSON(ctx, "/groups/"+url.PathEscape(g.ID)+"/report", &r); err != nil {
			return err
		}
		if r.Report.GroupID != g.ID {
			return fmt.Errorf("%w: report for %s names %s", ErrVerification, g.ID, r.Report.GroupID)
		}
		if r.Report.HealthScore < 0 || r.Report.HealthScore > 1 {
			return fmt.Errorf("%w: %s health score %.3f out of range", ErrVerification, g.ID, r.Report.HealthScore)
		}
		if r.Assessment == "" {
			return fmt.Errorf("%w: %s has an empty assessment", ErrVerification, g.ID)
		}
		stats.ReportsFetched++

		if !touched[g.ID] {
			continue
		}
		n, err := waitForHistory(ctx, c, g.ID, cfg.Settle)
		if err != nil {
			return err
		}
		stats.SnapshotsSeen += n
	}

	var summary model.CourseSummary
	if err := c.getJSON(ctx, "/instructor/summary", &summary); err != nil {
		return err
	}
	if summary.TotalGroups != len(groups) {
		return fmt.Errorf("%w: summary counts %d groups, roster has %d", ErrVerification, summary.TotalGroups, len(groups))
	}

	var alerts []model.InstructorAlert
	if err := c.getJSON(ctx, "/instructor/alerts", &alerts); err != nil {
		return err
	}
	if summary.TotalAlerts != len(alerts) {
		return fmt.Errorf("%w: summary counts %d alerts, feed has %d", ErrVerification, summary.TotalAlerts, len(alerts))
	}
	stats.FeedAlerts = len(alerts)

	var recs []model.Recommendation
	if err := c.getJSON(ctx, "/instructor/recommendations", &recs); err != nil {
		return err
	}
	stats.Recommendations = len(recs)

	logger.Get().Info(ctx, "verification completed",
		logger.Int("reports", stats.ReportsFetched),
		logger.Int("snapshots", stats.SnapshotsSeen),
		logger.Int("alerts", stats.FeedAlerts),
		logger.Int("recommendations", stats.Recommendations))
	return nil
}
