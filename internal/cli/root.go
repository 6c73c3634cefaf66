// Package cli implements teampulsectl, the operator command line.
package cli

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"github.com/okian/teampulse/internal/adapters/render"
	"github.com/okian/teampulse/internal/adapters/repository"
	service "github.com/okian/teampulse/internal/app"
	"github.com/okian/teampulse/internal/config"
	"github.com/okian/teampulse/pkg/logger"
)

// ErrNeedsPersistentStore is returned by commands that make no sense against
// the in-memory store.
var ErrNeedsPersistentStore = errors.New("command needs the sqlite store; pass --driver sqlite")

// globals are the persistent flags and the configuration they shape.
type globals struct {
	driver  string
	dsn     string
	asJSON  bool
	verbose bool
	cfg     *config.Config
}

// NewRootCmd creates the top-level "teampulsectl" command.
func NewRootCmd() *cobra.Command {
	g := &globals{}

	root := &cobra.Command{
		Use:           "teampulsectl",
		Short:         "Operate and inspect a teampulse deployment",
		SilenceErrors: true,
		SilenceUsage:  true,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			return g.load(cmd)
		},
	}

	root.PersistentFlags().StringVar(&g.driver, "driver", "", "store driver (memory|sqlite); overrides config")
	root.PersistentFlags().StringVar(&g.dsn, "dsn", "", "store DSN; overrides config")
	root.PersistentFlags().BoolVar(&g.asJSON, "json", false, "print JSON instead of tables")
	root.PersistentFlags().BoolVarP(&g.verbose, "verbose", "v", false, "log at debug level")

	root.AddCommand(
		newSeedCmd(g),
		newReportCmd(g),
		newFeedCmd(g),
		newNudgesCmd(g),
		newTokenCmd(g),
		newSimulateCmd(g),
	)
	return root
}

// load reads configuration, applies flag overrides and routes logs to stderr.
func (g *globals) load(cmd *cobra.Command) error {
	cfg, err := config.Load(cmd.Context())
	if err != nil {
		return err
	}
	if g.driver != "" {
		cfg.Store.Driver = g.driver
	}
	if g.dsn != "" {
		cfg.Store.DSN = g.dsn
	}
	if err := cfg.Validate(); err != nil {
		return err
	}
	g.cfg = cfg

	if err := logger.InitWithWriter(cmd.ErrOrStderr(), cfg.LogFormat); err != nil {
		return err
	}
	level := "warn"
	if g.verbose {
		level = "debug"
	}
	return logger.SetLevelString(level)
}

// openService builds a service over the configured store. Workers are not
// started; commands call the synchronous analysis operations.
func (g *globals) openService() (*service.Service, error) {
	store, err := repository.Open(g.cfg.Store.Driver, g.cfg.Store.DSN)
	if err != nil {
		return nil, fmt.Errorf("opening %s store: %w", g.cfg.Store.Driver, err)
	}
	return service.New(
		service.WithLogger(logger.Named("cli")),
		service.WithStore(store),
		service.WithThresholds(g.cfg.Thresholds),
		service.WithRenderer(g.renderer()),
		service.WithWorkerCount(1),
		service.WithQueueSize(g.cfg.QueueSize),
	), nil
}

func (g *globals) renderer() render.Renderer {
	opts := []render.Option{
		render.WithTimeout(g.cfg.Renderer.Timeout()),
		render.WithLogger(logger.Named("render")),
	}
	if g.cfg.Renderer.Provider != config.ProviderOllama {
		return render.NewFallback(nil, opts...)
	}
	return render.NewFallback(render.NewOllamaRenderer(render.OllamaConfig{
		Endpoint:   g.cfg.Renderer.Endpoint,
		Model:      g.cfg.Renderer.Model,
		Timeout:    g.cfg.Renderer.Timeout(),
		MaxRetries: g.cfg.Renderer.MaxRetries,
	}), opts...)
}

// withService opens the service, runs fn and closes the store.
func (g *globals) withService(ctx context.Context, fn func(context.Context, *service.Service) error) error {
	svc, err := g.openService()
	if err != nil {
		return err
	}
	defer func() { _ = svc.Store().Close() }()
	return fn(ctx, svc)
}

func printJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
