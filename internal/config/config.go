// Package config defines the dashboard client configuration and its loading hooks.
//
// Conventions:
//   - Provide New(ctx) to build a Config with defaults.
//   - Functions accept context.Context as the first parameter.
//   - Validation failures wrap ErrInvalidConfig.
package config

import (
	"context"
	"fmt"
	"net/url"
	"time"
)

// Defaults.
const (
	DefaultBaseURL     = "http://localhost:8000/api/v1"
	DefaultTimeout     = 30 * time.Second
	DefaultUserAgent   = "dashboard-client/1.0"
	DefaultSnapshotDir = "snapshots"
)

// Config contains process configuration.
type Config struct {
	// LogLevel controls verbosity: debug, info, warn, error.
	LogLevel string `koanf:"log_level"`

	// LogFormat selects the log handler: text or json.
	LogFormat string `koanf:"log_format"`

	// BaseURL is the backend API root every endpoint path is appended to.
	BaseURL string `koanf:"base_url"`

	// Timeout bounds a single HTTP request.
	Timeout time.Duration `koanf:"timeout"`

	// UserAgent is sent on every request.
	UserAgent string `koanf:"user_agent"`

	// SnapshotDir is where snapshots land when no output path is given.
	SnapshotDir string `koanf:"snapshot_dir"`

	// Metrics dumps the client metrics to stderr when a command finishes.
	Metrics bool `koanf:"metrics"`
}

// New creates a Config populated with defaults.
func New(_ context.Context) *Config {
	return &Config{
		LogLevel:    "info",
		LogFormat:   "text",
		BaseURL:     DefaultBaseURL,
		Timeout:     DefaultTimeout,
		UserAgent:   DefaultUserAgent,
		SnapshotDir: DefaultSnapshotDir,
	}
}

// Validate checks the fields the client cannot work without.
func (c *Config) Validate(_ context.Context) error {
	if c.BaseURL == "" {
		return fmt.Errorf("%w: base_url must not be empty", ErrInvalidConfig)
	}
	u, err := url.Parse(c.BaseURL)
	if err != nil {
		return fmt.Errorf("%w: base_url: %w", ErrInvalidConfig, err)
	}
	if (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
		return fmt.Errorf("%w: base_url must be an absolute http(s) URL, got %q", ErrInvalidConfig, c.BaseURL)
	}
	if c.Timeout <= 0 {
		return fmt.Errorf("%w: timeout must be positive, got %s", ErrInvalidConfig, c.Timeout)
	}
	switch c.LogFormat {
	case "", "text", "json":
	default:
		return fmt.Errorf("%w: log_format must be text or json, got %q", ErrInvalidConfig, c.LogFormat)
	}
	return nil
}
