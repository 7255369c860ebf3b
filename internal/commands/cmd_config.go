package commands

import (
	"context"
	"fmt"

	"github.com/urfave/cli/v3"
	"gopkg.in/yaml.v3"

	"github.com/colonyops/tally/internal/core/config"
	"github.com/colonyops/tally/internal/printer"
	"github.com/colonyops/tally/pkg/iojson"
)

type ConfigCmd struct {
	flags  *Flags
	format string
}

// NewConfigCmd creates a new config command.
func NewConfigCmd(flags *Flags) *ConfigCmd {
	return &ConfigCmd{flags: flags}
}

// Register adds the config command to the application.
func (cmd *ConfigCmd) Register(app *cli.Command) *cli.Command {
	app.Commands = append(app.Commands, &cli.Command{
		Name:  "config",
		Usage: "Configuration management commands",
		Commands: []*cli.Command{
			{
				Name:        "validate",
				Usage:       "Validate configuration file",
				UsageText:   "tally config validate [--format text|json]",
				Description: "Validates the configuration file and data directory and reports non-fatal warnings.",
				Flags: []cli.Flag{
					&cli.StringFlag{
						Name:        "format",
						Usage:       "output format (text, json)",
						Value:       "text",
						Destination: &cmd.format,
					},
				},
				Action: cmd.runValidate,
			},
			{
				Name:      "show",
				Usage:     "Print the effective configuration as YAML",
				UsageText: "tally config show",
				Action:    cmd.runShow,
			},
		},
	})

	return app
}

// validateResult is the JSON output of tally config validate.
type validateResult struct {
	Valid    bool                       `json:"valid"`
	Error    string                     `json:"error,omitempty"`
	Warnings []config.ValidationWarning `json:"warnings,omitempty"`
}

func (cmd *ConfigCmd) runValidate(ctx context.Context, c *cli.Command) error {
	cfg := cmd.flags.Config
	err := cfg.ValidateDeep(cmd.flags.ConfigPath)

	res := validateResult{Valid: err == nil, Warnings: cfg.Warnings()}
	if err != nil {
		res.Error = err.Error()
	}

	if cmd.format == "json" {
		if encErr := iojson.Encode(c.Root().Writer, res); encErr != nil {
			return encErr
		}
		if !res.Valid {
			return cli.Exit("", 1)
		}
		return nil
	}

	p := printer.Ctx(ctx)
	for _, w := range res.Warnings {
		if w.Item != "" {
			p.Warnf("%s (%s): %s", w.Category, w.Item, w.Message)
		} else {
			p.Warnf("%s: %s", w.Category, w.Message)
		}
	}

	if !res.Valid {
		p.Errorf("%s", res.Error)
		return cli.Exit("", 1)
	}

	p.Successf("Configuration is valid")
	return nil
}

func (cmd *ConfigCmd) runShow(ctx context.Context, c *cli.Command) error {
	data, err := yaml.Marshal(cmd.flags.Config)
	if err != nil {
		return fmt.Errorf("encode config: %w", err)
	}
	_, err = c.Root().Writer.Write(data)
	return err
}
