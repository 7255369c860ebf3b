// Package config handles configuration loading and validation for tally.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"gopkg.in/yaml.v3"
)

// Config holds the application configuration.
type Config struct {
	Owner         string              `yaml:"owner"`
	Theme         string              `yaml:"theme"`
	Timer         TimerConfig         `yaml:"timer"`
	Classify      ClassifyConfig      `yaml:"classify"`
	Bulk          BulkConfig          `yaml:"bulk"`
	Database      DatabaseConfig      `yaml:"database"`
	Notifications NotificationsConfig `yaml:"notifications"`
	DataDir       string              `yaml:"-"` // set by caller, not from config file
}

// TimerConfig controls the focus session.
type TimerConfig struct {
	Duration time.Duration `yaml:"duration"` // session budget
	Tick     time.Duration `yaml:"tick"`     // how often the budget is checked
}

// ClassifyConfig controls task labelling.
type ClassifyConfig struct {
	CurrentLimit int `yaml:"current_limit"` // tasks per area labelled current
}

// BulkConfig controls batch mutations.
type BulkConfig struct {
	Workers int `yaml:"workers"` // concurrent store requests per batch
}

// DatabaseConfig holds SQLite connection settings.
type DatabaseConfig struct {
	MaxOpenConns int `yaml:"max_open_conns"`
	MaxIdleConns int `yaml:"max_idle_conns"`
	BusyTimeout  int `yaml:"busy_timeout"` // milliseconds
}

// NotificationsConfig controls where notifications go.
type NotificationsConfig struct {
	Enabled  *bool `yaml:"enabled"`  // nil means enabled
	Terminal bool  `yaml:"terminal"` // also print notifications to stderr
}

// IsEnabled reports whether notifications are delivered at all.
func (n NotificationsConfig) IsEnabled() bool {
	return n.Enabled == nil || *n.Enabled
}

// DefaultConfig returns a Config with sensible defaults.
func DefaultConfig() Config {
	return Config{
		Owner: defaultOwner(),
		Theme: "tokyo-night",
		Timer: TimerConfig{
			Duration: 25 * time.Minute,
			Tick:     time.Second,
		},
		Classify: ClassifyConfig{
			CurrentLimit: 3,
		},
		Bulk: BulkConfig{
			Workers: 8,
		},
		Database: DatabaseConfig{
			MaxOpenConns: 2,
			MaxIdleConns: 1,
			BusyTimeout:  5000,
		},
	}
}

// Load reads configuration from the given path and sets the data directory.
// If configPath is empty or doesn't exist, returns defaults with the provided dataDir.
func Load(configPath, dataDir string) (*Config, error) {
	cfg := DefaultConfig()
	cfg.DataDir = dataDir

	if configPath != "" {
		if _, err := os.Stat(configPath); err == nil {
			data, err := os.ReadFile(configPath)
			if err != nil {
				return nil, fmt.Errorf("read config file: %w", err)
			}

			if err := yaml.Unmarshal(data, &cfg); err != nil {
				return nil, fmt.Errorf("parse config file: %w", err)
			}

			// Re-set dataDir since Unmarshal may have cleared it
			cfg.DataDir = dataDir
		}
	}

	// Apply defaults for zero values
	cfg.applyDefaults()

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}

	return &cfg, nil
}

// applyDefaults sets default values for any unset configuration options.
func (c *Config) applyDefaults() {
	defaults := DefaultConfig()
	if c.Owner == "" {
		c.Owner = defaults.Owner
	}
	if c.Theme == "" {
		c.Theme = defaults.Theme
	}
	if c.Timer.Duration == 0 {
		c.Timer.Duration = defaults.Timer.Duration
	}
	if c.Timer.Tick == 0 {
		c.Timer.Tick = defaults.Timer.Tick
	}
	if c.Classify.CurrentLimit == 0 {
		c.Classify.CurrentLimit = defaults.Classify.CurrentLimit
	}
	if c.Bulk.Workers == 0 {
		c.Bulk.Workers = defaults.Bulk.Workers
	}
	if c.Database.MaxOpenConns == 0 {
		c.Database.MaxOpenConns = defaults.Database.MaxOpenConns
	}
	if c.Database.MaxIdleConns == 0 {
		c.Database.MaxIdleConns = defaults.Database.MaxIdleConns
	}
	if c.Database.BusyTimeout == 0 {
		c.Database.BusyTimeout = defaults.Database.BusyTimeout
	}
}

// DatabaseFile returns the path to the SQLite database.
func (c *Config) DatabaseFile() string {
	return filepath.Join(c.DataDir, "tally.db")
}

// ExportDir returns the directory CSV exports are written to by default.
func (c *Config) ExportDir() string {
	return filepath.Join(c.DataDir, "exports")
}

func defaultOwner() string {
	if u := os.Getenv("USER"); u != "" {
		return u
	}
	if u := os.Getenv("USERNAME"); u != "" {
		return u
	}
	return "me"
}
