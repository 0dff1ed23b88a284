// Package config reads process configuration from the environment.
// Flags override these values where commands expose them.
package config

import (
	"fmt"
	"io"
	"log/slog"

	"github.com/caarlos0/env/v11"
)

// Config is the environment-derived process configuration.
type Config struct {
	// DatabasePath is the SQLite snapshot database.
	DatabasePath string `env:"AUTOMATON_DB" envDefault:"automaton.db"`

	// LogLevel is one of debug, info, warn, error.
	LogLevel string `env:"AUTOMATON_LOG_LEVEL" envDefault:"info"`
	// LogFormat is text or json.
	LogFormat string `env:"AUTOMATON_LOG_FORMAT" envDefault:"text"`

	// MetricsAddr, when set, serves the Prometheus endpoint on this
	// address (e.g. ":9109").
	MetricsAddr string `env:"AUTOMATON_METRICS_ADDR"`
}

// Load parses the environment and validates the result.
func Load() (Config, error) {
	cfg, err := env.ParseAs[Config]()
	if err != nil {
		return Config{}, fmt.Errorf("parse environment: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// Validate checks the enumerated fields.
func (c Config) Validate() error {
	switch c.LogLevel {
	case "debug", "info", "warn", "error":
	default:
		return fmt.Errorf("invalid AUTOMATON_LOG_LEVEL %q", c.LogLevel)
	}
	switch c.LogFormat {
	case "text", "json":
	default:
		return fmt.Errorf("invalid AUTOMATON_LOG_FORMAT %q", c.LogFormat)
	}
	return nil
}

// Level returns the slog level for LogLevel.
func (c Config) Level() slog.Level {
	switch c.LogLevel {
	case "debug":
		return slog.LevelDebug
	case "warn":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

// Handler builds the slog handler for the configured level and format.
func (c Config) Handler(w io.Writer) slog.Handler {
	opts := &slog.HandlerOptions{Level: c.Level()}
	if c.LogFormat == "json" {
		return slog.NewJSONHandler(w, opts)
	}
	return slog.NewTextHandler(w, opts)
}
