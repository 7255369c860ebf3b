package commands

import (
	"context"
	"fmt"
	"time"

	"github.com/urfave/cli/v3"

	"github.com/colonyops/tally/internal/printer"
	"github.com/colonyops/tally/internal/tracker"
)

type ExportCmd struct {
	flags *Flags
	app   *tracker.App

	// flags
	dir string
}

// NewExportCmd creates a new export command
func NewExportCmd(flags *Flags, app *tracker.App) *ExportCmd {
	return &ExportCmd{flags: flags, app: app}
}

// Register adds the export command to the application
func (cmd *ExportCmd) Register(app *cli.Command) *cli.Command {
	app.Commands = append(app.Commands, &cli.Command{
		Name:      "export",
		Usage:     "Export every task to CSV",
		UsageText: "tally export [--dir D]",
		Description: `Writes tasks-export-<owner>-<date>.csv with one row per task, including the
completion date, turnaround time, and days until the deadline.`,
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:        "dir",
				Usage:       "directory to write the CSV file to (defaults to <data-dir>/exports)",
				Destination: &cmd.dir,
			},
		},
		Action: cmd.run,
	})

	return app
}

func (cmd *ExportCmd) run(ctx context.Context, c *cli.Command) error {
	dir := cmd.dir
	if dir == "" {
		dir = cmd.app.Config.ExportDir()
	}

	path, n, err := cmd.app.ExportAll(dir, time.Now())
	if err != nil {
		return fmt.Errorf("export: %w", err)
	}

	printer.Ctx(ctx).Successf("Exported %d tasks to %s", n, path)
	return nil
}
