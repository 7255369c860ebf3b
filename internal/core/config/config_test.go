package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(body), 0o644))
	return path
}

func TestLoad_Defaults(t *testing.T) {
	dataDir := t.TempDir()

	cfg, err := Load("", dataDir)
	require.NoError(t, err)

	assert.Equal(t, dataDir, cfg.DataDir)
	assert.NotEmpty(t, cfg.Owner)
	assert.Equal(t, 25*time.Minute, cfg.Timer.Duration)
	assert.Equal(t, time.Second, cfg.Timer.Tick)
	assert.Equal(t, 3, cfg.Classify.CurrentLimit)
	assert.Equal(t, 8, cfg.Bulk.Workers)
	assert.Equal(t, 5000, cfg.Database.BusyTimeout)
	assert.True(t, cfg.Notifications.IsEnabled())
	assert.Equal(t, filepath.Join(dataDir, "tally.db"), cfg.DatabaseFile())
}

func TestLoad_MissingFileUsesDefaults(t *testing.T) {
	cfg, err := Load(filepath.Join(t.TempDir(), "nope.yaml"), t.TempDir())
	require.NoError(t, err)
	assert.Equal(t, 25*time.Minute, cfg.Timer.Duration)
}

func TestLoad_FromFile(t *testing.T) {
	path := writeConfig(t, `
owner: alice
theme: gruvbox
timer:
  duration: 50m
classify:
  current_limit: 5
bulk:
  workers: 2
notifications:
  enabled: false
  terminal: true
`)

	cfg, err := Load(path, t.TempDir())
	require.NoError(t, err)

	assert.Equal(t, "alice", cfg.Owner)
	assert.Equal(t, "gruvbox", cfg.Theme)
	assert.Equal(t, 50*time.Minute, cfg.Timer.Duration)
	assert.Equal(t, time.Second, cfg.Timer.Tick, "unset keys keep defaults")
	assert.Equal(t, 5, cfg.Classify.CurrentLimit)
	assert.Equal(t, 2, cfg.Bulk.Workers)
	assert.False(t, cfg.Notifications.IsEnabled())
	assert.True(t, cfg.Notifications.Terminal)
}

func TestLoad_Invalid(t *testing.T) {
	tests := []struct {
		name  string
		body  string
		field string
	}{
		{"unknown theme", "theme: neon", "theme"},
		{"negative workers", "bulk:\n  workers: -1", "bulk.workers"},
		{"negative limit", "classify:\n  current_limit: -2", "classify.current_limit"},
		{"negative duration", "timer:\n  duration: -5m", "timer.duration"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Load(writeConfig(t, tt.body), t.TempDir())
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.field)
		})
	}
}

func TestLoad_ParseError(t *testing.T) {
	_, err := Load(writeConfig(t, "timer: [unterminated"), t.TempDir())
	assert.ErrorContains(t, err, "parse config file")
}

func TestValidateDeep(t *testing.T) {
	dir := t.TempDir()
	cfg := DefaultConfig()
	cfg.DataDir = filepath.Join(dir, "data")

	require.NoError(t, cfg.ValidateDeep(""))

	err := cfg.ValidateDeep(dir)
	assert.ErrorContains(t, err, "config_file")

	file := filepath.Join(dir, "file")
	require.NoError(t, os.WriteFile(file, nil, 0o644))
	cfg.DataDir = file
	assert.ErrorContains(t, cfg.ValidateDeep(""), "data_dir")
}

func TestWarnings(t *testing.T) {
	cfg := DefaultConfig()
	assert.Empty(t, cfg.Warnings())

	cfg.Timer.Tick = time.Hour
	cfg.Database.MaxIdleConns = 10
	warnings := cfg.Warnings()
	require.Len(t, warnings, 2)
	assert.Equal(t, "Timer", warnings[0].Category)
	assert.Equal(t, "Database", warnings[1].Category)
}
