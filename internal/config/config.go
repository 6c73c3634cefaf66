// Package config defines service configuration and its layered loading.
//
// Conventions:
// - New() returns a Config populated with defaults.
// - Load(ctx) layers a YAML file and TEAMPULSE_ env vars on top and validates once.
// - Validation errors wrap ErrInvalidConfig, which is a configuration error.
package config

import (
	"time"

	"github.com/okian/teampulse/internal/domain/rules"
)

// Store drivers and renderer providers accepted by Validate.
const (
	DriverMemory = "memory"
	DriverSQLite = "sqlite"

	ProviderTemplate = "template"
	ProviderOllama   = "ollama"
)

// Config contains process configuration.
type Config struct {
	// LogLevel controls verbosity: debug, info, warn, error.
	LogLevel string `koanf:"log_level"`

	// LogFormat selects the slog handler: text or json.
	LogFormat string `koanf:"log_format"`

	// Addr configures the HTTP listen address, e.g. ":9080".
	Addr string `koanf:"addr"`

	// QueueSize bounds the in-memory refresh queue.
	QueueSize int `koanf:"queue_size"`

	// WorkerCount sets the number of refresh workers. Zero scales with CPUs.
	WorkerCount int `koanf:"worker_count"`

	// DedupeSize bounds the idempotency-key tracker. Zero means unbounded.
	DedupeSize int `koanf:"dedupe_size"`

	// RefreshIntervalSeconds schedules a refresh of every group. Zero disables it.
	RefreshIntervalSeconds int `koanf:"refresh_interval_seconds"`

	// SeedSampleData loads the demo course into an empty store at startup.
	SeedSampleData bool `koanf:"seed_sample_data"`

	Store      StoreConfig      `koanf:"store"`
	Auth       AuthConfig       `koanf:"auth"`
	Renderer   RendererConfig   `koanf:"renderer"`
	Thresholds rules.Thresholds `koanf:"thresholds"`
}

// StoreConfig selects the record store.
type StoreConfig struct {
	Driver string `koanf:"driver"`
	DSN    string `koanf:"dsn"`
}

// AuthConfig configures bearer-token identity.
type AuthConfig struct {
	Enabled       bool   `koanf:"enabled"`
	JWTSecret     string `koanf:"jwt_secret"`
	TokenTTLHours int    `koanf:"token_ttl_hours"`
	Issuer        string `koanf:"issuer"`
}

// RendererConfig configures the phrase renderer.
type RendererConfig struct {
	Provider   string `koanf:"provider"`
	Endpoint   string `koanf:"endpoint"`
	Model      string `koanf:"model"`
	TimeoutMS  int    `koanf:"timeout_ms"`
	MaxRetries int    `koanf:"max_retries"`
}

// New creates a Config populated with defaults.
func New() *Config {
	return &Config{
		LogLevel:               "info",
		LogFormat:              "text",
		Addr:                   ":9080",
		QueueSize:              10_000,
		WorkerCount:            0,
		DedupeSize:             50_000,
		RefreshIntervalSeconds: 300,
		Store: StoreConfig{
			Driver: DriverMemory,
			DSN:    "data/teampulse.db",
		},
		Auth: AuthConfig{
			TokenTTLHours: 24,
			Issuer:        "teampulse",
		},
		Renderer: RendererConfig{
			Provider:   ProviderTemplate,
			Endpoint:   "http://localhost:11434",
			Model:      "llama3.2",
			TimeoutMS:  3000,
			MaxRetries: 2,
		},
		Thresholds: rules.Defaults(),
	}
}

// RefreshInterval returns the periodic refresh interval, zero when disabled.
func (c *Config) RefreshInterval() time.Duration {
	return time.Duration(c.RefreshIntervalSeconds) * time.Second
}

// TokenTTL returns the lifetime of minted tokens.
func (a AuthConfig) TokenTTL() time.Duration {
	return time.Duration(a.TokenTTLHours) * time.Hour
}

// Timeout returns the primary renderer deadline.
func (r RendererConfig) Timeout() time.Duration {
	return time.Duration(r.TimeoutMS) * time.Millisecond
}
