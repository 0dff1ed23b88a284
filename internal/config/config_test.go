package config

import (
	"log/slog"
	"os"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// clearEnv unsets a variable for the test while restoring the
// original value afterwards via t.Setenv's cleanup.
func clearEnv(t *testing.T, key string) {
	t.Helper()
	t.Setenv(key, "")
	os.Unsetenv(key)
}

// TestLoadDefaults checks the zero-environment defaults.
func TestLoadDefaults(t *testing.T) {
	for _, key := range []string{
		"AUTOMATON_DB", "AUTOMATON_LOG_LEVEL", "AUTOMATON_LOG_FORMAT", "AUTOMATON_METRICS_ADDR",
	} {
		clearEnv(t, key)
	}

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, "automaton.db", cfg.DatabasePath)
	assert.Equal(t, "info", cfg.LogLevel)
	assert.Equal(t, "text", cfg.LogFormat)
	assert.Empty(t, cfg.MetricsAddr)
	assert.Equal(t, slog.LevelInfo, cfg.Level())
}

// TestLoadFromEnvironment reads explicit values.
func TestLoadFromEnvironment(t *testing.T) {
	t.Setenv("AUTOMATON_DB", "/tmp/world.db")
	t.Setenv("AUTOMATON_LOG_LEVEL", "debug")
	t.Setenv("AUTOMATON_LOG_FORMAT", "json")
	t.Setenv("AUTOMATON_METRICS_ADDR", ":9109")

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, "/tmp/world.db", cfg.DatabasePath)
	assert.Equal(t, slog.LevelDebug, cfg.Level())
	assert.Equal(t, "json", cfg.LogFormat)
	assert.Equal(t, ":9109", cfg.MetricsAddr)
}

// TestLoadRejectsBadLevel fails on an unknown log level.
func TestLoadRejectsBadLevel(t *testing.T) {
	t.Setenv("AUTOMATON_LOG_LEVEL", "loud")

	_, err := Load()
	require.Error(t, err)
}
