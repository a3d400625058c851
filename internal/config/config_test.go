package config

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad_Defaults(t *testing.T) {
	t.Setenv("BONDPRICER_DATA_DIR", t.TempDir())

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, 8001, cfg.Port)
	assert.Equal(t, "info", cfg.LogLevel)
	assert.False(t, cfg.DevMode)
	assert.Equal(t, "0 0 18 * * *", cfg.RevalueSchedule)
	assert.Zero(t, cfg.RetentionDays)
	assert.True(t, filepath.IsAbs(cfg.DataDir))
}

func TestLoad_FromEnvironment(t *testing.T) {
	t.Setenv("BONDPRICER_DATA_DIR", t.TempDir())
	t.Setenv("GO_PORT", "9090")
	t.Setenv("LOG_LEVEL", "debug")
	t.Setenv("DEV_MODE", "true")
	t.Setenv("REVALUE_SCHEDULE", "@hourly")
	t.Setenv("HISTORY_RETENTION_DAYS", "365")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, 9090, cfg.Port)
	assert.Equal(t, "debug", cfg.LogLevel)
	assert.True(t, cfg.DevMode)
	assert.Equal(t, "@hourly", cfg.RevalueSchedule)
	assert.Equal(t, 365, cfg.RetentionDays)
}

func TestLoad_InvalidPort(t *testing.T) {
	t.Setenv("BONDPRICER_DATA_DIR", t.TempDir())
	t.Setenv("GO_PORT", "70000")

	_, err := Load()
	assert.Error(t, err)
}

func TestLoad_NegativeRetention(t *testing.T) {
	t.Setenv("BONDPRICER_DATA_DIR", t.TempDir())
	t.Setenv("HISTORY_RETENTION_DAYS", "-1")

	_, err := Load()
	assert.Error(t, err)
}

func TestDatabasePath(t *testing.T) {
	cfg := &Config{DataDir: "/data"}
	assert.Equal(t, filepath.Join("/data", "bonds.db"), cfg.DatabasePath("bonds.db"))
}
