// Package service wires the analysis stages to storage, rendering and the
// refresh queue. It implements the dependencies required by the HTTP API.
package service

import (
	"context"
	"runtime"
	"sync"
	"time"

	eventqueue "github.com/okian/teampulse/internal/adapters/mq/queue"
	workerpool "github.com/okian/teampulse/internal/adapters/mq/worker"
	"github.com/okian/teampulse/internal/adapters/render"
	"github.com/okian/teampulse/internal/adapters/repository"
	"github.com/okian/teampulse/internal/domain/dedupe"
	"github.com/okian/teampulse/internal/domain/rules"
	"github.com/okian/teampulse/pkg/logger"
	"github.com/okian/teampulse/pkg/metrics"
)

const (
	// feedParallelism bounds concurrent group loads while building the instructor feed.
	feedParallelism = 8
	// renderParallelism bounds concurrent phrase renders within one request.
	renderParallelism = 8
	// analysisTimeout bounds one background group refresh.
	analysisTimeout = 30 * time.Second
)

// Service implements the API dependencies for the collaboration analytics engine.
type Service struct {
	mu sync.RWMutex

	store      repository.Store
	renderer   render.Renderer
	deduper    dedupe.Deduper
	queue      eventqueue.Queue
	workerPool *workerpool.Pool
	thresholds rules.Thresholds
	now        func() time.Time

	workerCount     int
	queueSize       int
	dedupeSize      int
	refreshInterval time.Duration

	started bool
	stopCh  chan struct{}

	logger logger.Logger
}

// Option applies a configuration option to the Service.
type Option func(*Service)

// WithStore sets the record store. The service closes it on Stop.
func WithStore(store repository.Store) Option {
	return func(s *Service) {
		if store != nil {
			s.store = store
		}
	}
}

// WithRenderer sets the phrase renderer. Wrap generative backends in render.Fallback.
func WithRenderer(r render.Renderer) Option {
	return func(s *Service) {
		if r != nil {
			s.renderer = r
		}
	}
}

// WithThresholds sets the analysis thresholds. They are assumed validated.
func WithThresholds(th rules.Thresholds) Option {
	return func(s *Service) {
		s.thresholds = th
	}
}

// WithClock overrides the time source used as "now" by every analysis.
func WithClock(now func() time.Time) Option {
	return func(s *Service) {
		if now != nil {
			s.now = now
		}
	}
}

// WithWorkerCount sets the number of refresh workers.
func WithWorkerCount(count int) Option {
	return func(s *Service) {
		if count > 0 {
			s.workerCount = count
		}
	}
}

// WithQueueSize sets the maximum number of pending refresh jobs.
func WithQueueSize(size int) Option {
	return func(s *Service) {
		if size > 0 {
			s.queueSize = size
		}
	}
}

// WithDedupeSize bounds the idempotency-key tracker. Zero means unbounded.
func WithDedupeSize(size int) Option {
	return func(s *Service) {
		if size >= 0 {
			s.dedupeSize = size
		}
	}
}

// WithRefreshInterval schedules a refresh of every group. Zero disables it.
func WithRefreshInterval(d time.Duration) Option {
	return func(s *Service) {
		if d >= 0 {
			s.refreshInterval = d
		}
	}
}

// WithLogger sets a custom logger for the service.
func WithLogger(l logger.Logger) Option {
	return func(s *Service) {
		if l != nil {
			s.logger = l
		}
	}
}

// New constructs a Service. Without options it uses an in-memory store,
// template rendering and default thresholds.
func New(opts ...Option) *Service {
	s := &Service{
		thresholds:  rules.Defaults(),
		now:         time.Now,
		workerCount: runtime.NumCPU() * 2,
		queueSize:   10_000,
		dedupeSize:  50_000,
		stopCh:      make(chan struct{}),
	}

	for _, opt := range opts {
		opt(s)
	}

	if s.logger == nil {
		s.logger = logger.Get().Named("service")
	}
	if s.store == nil {
		s.store = repository.NewMemoryStore()
	}
	if s.renderer == nil {
		s.renderer = render.NewFallback(nil)
	}
	s.deduper = dedupe.NewInMemoryDeduper(dedupe.WithMaxSize(s.dedupeSize))
	s.queue = eventqueue.NewInMemoryQueue(
		eventqueue.WithCapacity(s.queueSize),
		eventqueue.WithBufferSize(s.queueSize),
	)
	return s
}

// Start launches the worker pool and the periodic refresh loop.
func (s *Service) Start(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.started {
		return nil
	}

	s.logger.Info(ctx, "starting teampulse service...")

	s.workerPool = workerpool.NewPool(s.workerCount, s.queue, s,
		workerpool.WithJobTimeout(analysisTimeout),
	)
	s.workerPool.Start(ctx)

	if s.refreshInterval > 0 {
		go s.refreshLoop(ctx)
	}

	s.started = true
	s.logger.Info(ctx, "teampulse service started",
		logger.Int("workers", s.workerCount),
		logger.Int("queueSize", s.queueSize),
		logger.Int("dedupeSize", s.dedupeSize),
		logger.Duration("refreshInterval", s.refreshInterval),
	)
	return nil
}

// Stop drains the workers, closes the queue and the store.
func (s *Service) Stop() {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.started {
		return
	}

	ctx := context.Background()
	s.logger.Info(ctx, "stopping teampulse service...")

	select {
	case <-s.stopCh:
	default:
		close(s.stopCh)
	}

	if s.workerPool != nil {
		if err := s.workerPool.Shutdown(ctx); err != nil {
			s.logger.Warn(ctx, "worker pool shutdown", logger.Error(err))
		}
	}
	if err := s.store.Close(); err != nil {
		s.logger.Warn(ctx, "closing store", logger.Error(err))
	}

	s.started = false
	s.logger.Info(ctx, "teampulse service stopped")
}

// refreshLoop enqueues a scheduled refresh for every group on each tick.
func (s *Service) refreshLoop(ctx context.Context) {
	ticker := time.NewTicker(s.refreshInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-s.stopCh:
			return
		case <-ticker.C:
			if _, err := s.RefreshAll(ctx); err != nil {
				s.logger.Warn(ctx, "scheduled refresh failed", logger.Error(err))
			}
		}
	}
}

// Store exposes the underlying record store for seeding and tooling.
func (s *Service) Store() repository.Store { return s.store }

// Thresholds returns the thresholds every analysis runs with.
func (s *Service) Thresholds() rules.Thresholds { return s.thresholds }

// RendererAvailable reports whether the configured phrase backend is reachable.
func (s *Service) RendererAvailable(ctx context.Context) bool {
	if p, ok := s.renderer.(render.Prober); ok {
		return p.Available(ctx)
	}
	return true
}

// GetStats returns service statistics for monitoring.
func (s *Service) GetStats(ctx context.Context) map[string]any {
	s.mu.RLock()
	defer s.mu.RUnlock()

	stats := map[string]any{
		"started":       s.started,
		"workerCount":   s.workerCount,
		"queueSize":     s.queueSize,
		"dedupeSize":    s.dedupeSize,
		"queueLength":   s.queue.Len(ctx),
		"dedupeEntries": s.deduper.Size(),
	}
	if p, ok := s.renderer.(interface{ Provider() string }); ok {
		stats["renderer"] = p.Provider()
	}

	if groups, err := s.store.Groups(ctx); err == nil {
		stats["groups"] = len(groups)
		metrics.UpdateGroupsTotal(len(groups))
	}
	metrics.UpdateWorkerActiveCount(s.workerCount)
	return stats
}
