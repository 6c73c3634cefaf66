package config

import (
	"context"
	"fmt"
	"os"
	"strings"

	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/v2"
)

const (
	envPrefix     = "TEAMPULSE_"
	envConfigFile = "TEAMPULSE_CONFIG"
	envNesting    = "__"
)

// Load builds a Config by layering defaults, optional file, and env vars.
// Order of precedence (low -> high):
//  1. defaults (New())
//  2. file (YAML) if TEAMPULSE_CONFIG is set
//  3. env (prefix TEAMPULSE_, "__" separates nested keys)
func Load(_ context.Context) (*Config, error) {
	cfg := *New()

	k := koanf.New(".")

	if path := os.Getenv(envConfigFile); path != "" {
		if err := k.Load(file.Provider(path), yaml.Parser()); err != nil {
			return nil, fmt.Errorf("%w: reading %s: %w", ErrLoadConfig, path, err)
		}
	}

	// TEAMPULSE_THRESHOLDS__IMBALANCE_THRESHOLD -> thresholds.imbalance_threshold
	envProvider := env.Provider(envPrefix, ".", func(s string) string {
		s = strings.TrimPrefix(s, envPrefix)
		s = strings.ToLower(s)
		return strings.ReplaceAll(s, envNesting, ".")
	})
	if err := k.Load(envProvider, nil); err != nil {
		return nil, fmt.Errorf("%w: reading env: %w", ErrLoadConfig, err)
	}

	if err := k.UnmarshalWithConf("", &cfg, koanf.UnmarshalConf{Tag: "koanf"}); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrLoadConfig, err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Validate checks infrastructure fields and threshold ranges.
func (c *Config) Validate() error {
	switch {
	case c.Addr == "":
		return invalid("addr must not be empty")
	case c.QueueSize < 1:
		return invalid("queue_size must be positive, got %d", c.QueueSize)
	case c.WorkerCount < 0:
		return invalid("worker_count must not be negative, got %d", c.WorkerCount)
	case c.DedupeSize < 0:
		return invalid("dedupe_size must not be negative, got %d", c.DedupeSize)
	case c.RefreshIntervalSeconds < 0:
		return invalid("refresh_interval_seconds must not be negative, got %d", c.RefreshIntervalSeconds)
	}

	switch c.LogFormat {
	case "text", "json":
	default:
		return invalid("unknown log_format %q", c.LogFormat)
	}

	switch c.Store.Driver {
	case DriverMemory:
	case DriverSQLite:
		if c.Store.DSN == "" {
			return invalid("store.dsn is required for the sqlite driver")
		}
	default:
		return invalid("unknown store.driver %q", c.Store.Driver)
	}

	if c.Auth.Enabled && c.Auth.JWTSecret == "" {
		return invalid("auth.jwt_secret is required when auth is enabled")
	}
	if c.Auth.TokenTTLHours < 1 {
		return invalid("auth.token_ttl_hours must be positive, got %d", c.Auth.TokenTTLHours)
	}

	switch c.Renderer.Provider {
	case ProviderTemplate:
	case ProviderOllama:
		if c.Renderer.Endpoint == "" || c.Renderer.Model == "" {
			return invalid("renderer.endpoint and renderer.model are required for ollama")
		}
	default:
		return invalid("unknown renderer.provider %q", c.Renderer.Provider)
	}
	if c.Renderer.TimeoutMS < 1 {
		return invalid("renderer.timeout_ms must be positive, got %d", c.Renderer.TimeoutMS)
	}
	if c.Renderer.MaxRetries < 0 {
		return invalid("renderer.max_retries must not be negative, got %d", c.Renderer.MaxRetries)
	}

	if err := c.Thresholds.Validate(); err != nil {
		return fmt.Errorf("%w: %w", ErrInvalidConfig, err)
	}
	return nil
}

func invalid(format string, args ...any) error {
	return fmt.Errorf("%w: %s", ErrInvalidConfig, fmt.Sprintf(format, args...))
}
