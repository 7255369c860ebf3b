package config

import (
	"errors"
	"fmt"
	"os"
	"slices"
	"time"

	"github.com/hay-kot/criterio"

	"github.com/colonyops/tally/internal/core/styles"
)

// ValidationWarning represents a non-fatal configuration issue.
type ValidationWarning struct {
	Category string `json:"category"`
	Item     string `json:"item,omitempty"`
	Message  string `json:"message"`
}

// Validate checks that the configuration is structurally valid.
func (c *Config) Validate() error {
	return criterio.ValidateStruct(
		criterio.Run("owner", c.Owner, required),
		criterio.Run("data_dir", c.DataDir, required),
		criterio.Run("theme", c.Theme, knownTheme),
		criterio.Run("timer.duration", c.Timer.Duration.String(), positiveDuration),
		criterio.Run("timer.tick", c.Timer.Tick.String(), positiveDuration),
		c.validateNumbers(),
	)
}

// ValidateDeep runs Validate and then checks the file system: the config
// file must be a regular file and the data directory must be a directory
// or not exist yet.
func (c *Config) ValidateDeep(configPath string) error {
	if err := c.Validate(); err != nil {
		return err
	}

	return criterio.ValidateStruct(
		validateConfigFile(configPath),
		criterio.Run("data_dir", c.DataDir, isDirectoryOrNotExist),
	)
}

// Warnings returns non-fatal configuration issues.
func (c *Config) Warnings() []ValidationWarning {
	var warnings []ValidationWarning

	if c.Timer.Tick > c.Timer.Duration {
		warnings = append(warnings, ValidationWarning{
			Category: "Timer",
			Item:     "tick",
			Message:  fmt.Sprintf("tick %s is longer than the session %s; completion will be late", c.Timer.Tick, c.Timer.Duration),
		})
	}
	if c.Database.MaxIdleConns > c.Database.MaxOpenConns {
		warnings = append(warnings, ValidationWarning{
			Category: "Database",
			Item:     "max_idle_conns",
			Message:  "max_idle_conns exceeds max_open_conns and will be capped",
		})
	}

	return warnings
}

func (c *Config) validateNumbers() error {
	var errs criterio.FieldErrorsBuilder

	if c.Classify.CurrentLimit < 1 {
		errs = errs.Append("classify.current_limit", errors.New("must be at least 1"))
	}
	if c.Bulk.Workers < 1 {
		errs = errs.Append("bulk.workers", errors.New("must be at least 1"))
	}
	if c.Database.MaxOpenConns < 1 {
		errs = errs.Append("database.max_open_conns", errors.New("must be at least 1"))
	}
	if c.Database.MaxIdleConns < 0 {
		errs = errs.Append("database.max_idle_conns", errors.New("must not be negative"))
	}
	if c.Database.BusyTimeout < 0 {
		errs = errs.Append("database.busy_timeout", errors.New("must not be negative"))
	}

	return errs.ToError()
}

func required(s string) error {
	if s == "" {
		return errors.New("is required")
	}
	return nil
}

func knownTheme(name string) error {
	if slices.Contains(styles.ThemeNames(), name) {
		return nil
	}
	return fmt.Errorf("unknown theme %q (available: %v)", name, styles.ThemeNames())
}

func positiveDuration(s string) error {
	d, err := time.ParseDuration(s)
	if err != nil {
		return err
	}
	if d <= 0 {
		return errors.New("must be positive")
	}
	return nil
}

func validateConfigFile(configPath string) error {
	if configPath == "" {
		return nil
	}

	info, err := os.Stat(configPath)
	if os.IsNotExist(err) {
		return nil // not found is fine, using defaults
	}
	if err != nil {
		return criterio.NewFieldErrors("config_file", fmt.Errorf("cannot access: %w", err))
	}
	if info.IsDir() {
		return criterio.NewFieldErrors("config_file", fmt.Errorf("%s is a directory, not a file", configPath))
	}
	return nil
}

func isDirectoryOrNotExist(path string) error {
	info, err := os.Stat(path)
	if os.IsNotExist(err) {
		return nil
	}
	if err != nil {
		return fmt.Errorf("cannot access: %w", err)
	}
	if !info.IsDir() {
		return fmt.Errorf("%s is not a directory", path)
	}
	return nil
}
