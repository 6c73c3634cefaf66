package simulate

import (
	"context"
	"fmt"
	"strconv"
	"time"

	"github.com/okian/teampulse/internal/domain/model"
	"github.com/okian/teampulse/pkg/logger"
)

// Run executes a complete simulation against cfg.BaseURL.
func Run(ctx context.Context, cfg Config) (*Stats, error) {
	cfg.withDefaults()
	if err := cfg.validate(); err != nil {
		return nil, err
	}

	stats := &Stats{StartTime: time.Now()}
	c := newClient(cfg.BaseURL, cfg.Token, cfg.Timeout)

	logger.Get().Info(ctx, "starting teampulse simulation",
		logger.String("baseURL", cfg.BaseURL),
		logger.Int("contributions", cfg.Contributions),
		logger.Int("workers", cfg.Workers),
		logger.Float64("duplicateRate", cfg.DuplicateRate))

	if err := c.getJSON(ctx, "/livez", nil); err != nil {
		return nil, fmt.Errorf("service liveness check failed: %w", err)
	}

	var groups []model.GroupDescriptor
	if err := c.getJSON(ctx, "/groups", &groups); err != nil {
		return nil, fmt.Errorf("listing groups: %w", err)
	}
	members := roster(groups, cfg.Students)
	if len(members) == 0 {
		return nil, fmt.Errorf("%w: server has no students; seed it first", ErrInvalidConfig)
	}
	stats.Groups = len(groups)
	stats.Students = len(members)

	gen := newGenerator(cfg.Seed, time.Now())
	items := gen.generate(members, cfg.Contributions, cfg.DuplicateRate, strconv.FormatUint(cfg.Seed, 36))
	stats.Generated = len(items)

	submit(ctx, c, &cfg, items, stats)

	if err := settle(ctx, c, cfg.Settle); err != nil {
		return stats, err
	}

	touched := make(map[string]bool)
	for _, it := range items {
		touched[it.GroupID] = true
	}
	if err := verify(ctx, c, &cfg, groups, touched, stats); err != nil {
		return stats, err
	}

	stats.EndTime = time.Now()
	stats.Duration = stats.EndTime.Sub(stats.StartTime)
	logFinalStats(ctx, stats)
	return stats, nil
}

// roster flattens group membership, keeping at most limit students when limit
// is positive.
func roster(groups []model.GroupDescriptor, limit int) []member {
	var out []member
	for _, g := range groups {
		for _, s := range g.Members {
			if limit > 0 && len(out) == limit {
				return out
			}
			out = append(out, member{StudentID: s, GroupID: g.ID})
		}
	}
	return out
}

func logFinalStats(ctx context.Context, stats *Stats) {
	var perSecond float64
	if stats.Duration > 0 {
		perSecond = float64(stats.Submitted) / stats.Duration.Seconds()
	}
	logger.Get().Info(ctx, "final statistics",
		logger.Int("groups", stats.Groups),
		logger.Int("students", stats.Students),
		logger.Int("submitted", stats.Submitted),
		logger.Int("accepted", stats.Accepted),
		logger.Int("duplicate", stats.Duplicate),
		logger.Int("rejected", stats.Rejected),
		logger.Int("failed", stats.Failed),
		logger.Duration("duration", stats.Duration),
		logger.Float64("perSecond", perSecond))
}
