package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"runtime"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"

	"github.com/okian/teampulse/internal/adapters/http/api"
	"github.com/okian/teampulse/internal/adapters/http/swagger"
	"github.com/okian/teampulse/internal/adapters/identity"
	"github.com/okian/teampulse/internal/adapters/render"
	"github.com/okian/teampulse/internal/adapters/repository"
	app "github.com/okian/teampulse/internal/app"
	"github.com/okian/teampulse/internal/config"
	"github.com/okian/teampulse/internal/sampledata"
	"github.com/okian/teampulse/pkg/logger"
	"github.com/okian/teampulse/pkg/metrics"
)

// HTTP server timeout constants.
const (
	readTimeout               = 10 * time.Second
	writeTimeout              = 30 * time.Second
	idleTimeout               = 60 * time.Second
	readHeaderTimeout         = 5 * time.Second
	shutdownTimeout           = 30 * time.Second
	systemMetricsInterval     = 10 * time.Second
	serviceMetricsInterval    = 5 * time.Second
	nanosecondsPerMillisecond = 1e6
)

func main() {
	// Our own system metrics replace the default Go collectors.
	prometheus.Unregister(collectors.NewGoCollector())
	prometheus.Unregister(collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))

	if err := logger.Init(); err != nil {
		fmt.Fprintln(os.Stderr, "failed to initialize logging:", err)
		os.Exit(1)
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := run(ctx); err != nil {
		logger.Get().Error(ctx, "teampulse exited", logger.Error(err))
		stop()
		os.Exit(1)
	}
}

func run(ctx context.Context) error {
	cfg, err := config.Load(ctx)
	if err != nil {
		return err
	}
	if err := logger.InitWithFormat(cfg.LogFormat); err != nil {
		return err
	}
	log := logger.Get()
	if err := logger.SetLevelString(cfg.LogLevel); err != nil {
		log.Warn(ctx, "invalid log_level; falling back to info", logger.String("log_level", cfg.LogLevel), logger.Error(err))
		_ = logger.SetLevelString("info")
	}

	auth, err := buildAuth(cfg)
	if err != nil {
		return err
	}

	svc, err := buildService(ctx, cfg)
	if err != nil {
		return err
	}
	if err := svc.Start(ctx); err != nil {
		return fmt.Errorf("starting service: %w", err)
	}
	defer svc.Stop()

	go startSystemMetricsUpdater(ctx)
	go startServiceMetricsUpdater(ctx, svc)

	srv := &http.Server{
		Addr:              cfg.Addr,
		Handler:           newMux(ctx, svc, auth),
		ReadTimeout:       readTimeout,
		WriteTimeout:      writeTimeout,
		IdleTimeout:       idleTimeout,
		ReadHeaderTimeout: readHeaderTimeout,
	}

	serveErr := make(chan error, 1)
	go func() {
		log.Info(ctx, "starting HTTP server",
			logger.String("addr", cfg.Addr),
			logger.Bool("auth", auth.Enabled()),
			logger.String("store", cfg.Store.Driver),
			logger.String("renderer", cfg.Renderer.Provider))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serveErr <- err
		}
		close(serveErr)
	}()

	select {
	case <-ctx.Done():
	case err := <-serveErr:
		if err != nil {
			return fmt.Errorf("http server: %w", err)
		}
	}
	log.Info(ctx, "shutting down server...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error(ctx, "server shutdown failed", logger.Error(err))
	}

	log.Info(ctx, "server stopped")
	return nil
}

// buildAuth returns the JWT provider, or a disabled one that treats every
// caller as an anonymous admin.
func buildAuth(cfg *config.Config) (*identity.Provider, error) {
	if !cfg.Auth.Enabled {
		return identity.Disabled(), nil
	}
	return identity.NewProvider(cfg.Auth.JWTSecret,
		identity.WithIssuer(cfg.Auth.Issuer),
		identity.WithTTL(cfg.Auth.TokenTTL()),
	)
}

// buildRenderer wraps the configured phrase backend in the template fallback.
func buildRenderer(cfg *config.Config) *render.Fallback {
	named := render.WithLogger(logger.Named("render"))
	timeout := render.WithTimeout(cfg.Renderer.Timeout())
	if cfg.Renderer.Provider != config.ProviderOllama {
		return render.NewFallback(nil, timeout, named)
	}
	ollama := render.NewOllamaRenderer(render.OllamaConfig{
		Endpoint:   cfg.Renderer.Endpoint,
		Model:      cfg.Renderer.Model,
		Timeout:    cfg.Renderer.Timeout(),
		MaxRetries: cfg.Renderer.MaxRetries,
	})
	return render.NewFallback(ollama, timeout, named)
}

// buildService opens the store, seeds it when configured and assembles the
// analytics service.
func buildService(ctx context.Context, cfg *config.Config) (*app.Service, error) {
	store, err := repository.Open(cfg.Store.Driver, cfg.Store.DSN)
	if err != nil {
		return nil, fmt.Errorf("opening %s store: %w", cfg.Store.Driver, err)
	}
	if cfg.SeedSampleData {
		if err := sampledata.Load(ctx, store, sampledata.Build(time.Now())); err != nil {
			_ = store.Close()
			return nil, fmt.Errorf("seeding sample data: %w", err)
		}
		logger.Get().Info(ctx, "sample course loaded")
	}

	return app.New(
		app.WithLogger(logger.Named("service")),
		app.WithStore(store),
		app.WithRenderer(buildRenderer(cfg)),
		app.WithThresholds(cfg.Thresholds),
		app.WithWorkerCount(cfg.WorkerCount),
		app.WithQueueSize(cfg.QueueSize),
		app.WithDedupeSize(cfg.DedupeSize),
		app.WithRefreshInterval(cfg.RefreshInterval()),
	), nil
}

// newMux registers docs and business routes.
func newMux(ctx context.Context, svc *app.Service, auth *identity.Provider) *http.ServeMux {
	mux := http.NewServeMux()
	swagger.Register(ctx, mux)
	api.NewServer(svc, svc, auth).Register(ctx, mux)
	return mux
}

// startSystemMetricsUpdater refreshes process metrics until ctx ends.
func startSystemMetricsUpdater(ctx context.Context) {
	ticker := time.NewTicker(systemMetricsInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			updateSystemMetrics()
		}
	}
}

// startServiceMetricsUpdater refreshes queue and group gauges until ctx ends.
func startServiceMetricsUpdater(ctx context.Context, svc *app.Service) {
	ticker := time.NewTicker(serviceMetricsInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			updateServiceMetrics(ctx, svc)
		}
	}
}

func updateSystemMetrics() {
	var m runtime.MemStats
	runtime.ReadMemStats(&m)
	metrics.UpdateSystemMemoryUsage(m.Alloc)
	metrics.UpdateSystemGoroutineCount(runtime.NumGoroutine())

	if m.NumGC > 0 {
		avgPauseMs := float64(m.PauseTotalNs) / float64(m.NumGC) / nanosecondsPerMillisecond
		metrics.RecordSystemGCPauseTime(avgPauseMs)
	}
}

// updateServiceMetrics reads service stats. GetStats already refreshes the
// group and worker gauges.
func updateServiceMetrics(ctx context.Context, svc *app.Service) {
	stats := svc.GetStats(ctx)
	if queueLen, ok := stats["queueLength"].(int); ok {
		metrics.UpdateQueueSize(queueLen)
	}
}
