package commands

import (
	"context"
	"fmt"
	"time"

	"github.com/urfave/cli/v3"

	"github.com/colonyops/tally/internal/printer"
	"github.com/colonyops/tally/internal/tracker"
	"github.com/colonyops/tally/pkg/iojson"
)

type StatsCmd struct {
	flags *Flags
	app   *tracker.App

	// flags
	jsonOutput bool
}

// NewStatsCmd creates a new stats command
func NewStatsCmd(flags *Flags, app *tracker.App) *StatsCmd {
	return &StatsCmd{flags: flags, app: app}
}

// Register adds the stats command to the application
func (cmd *StatsCmd) Register(app *cli.Command) *cli.Command {
	app.Commands = append(app.Commands, &cli.Command{
		Name:      "stats",
		Usage:     "Show the productivity dashboard",
		UsageText: "tally stats [--json]",
		Description: `Shows task counts, average turnaround, completion and on-time rates, and
the total time tracked with the focus timer.`,
		Flags: []cli.Flag{
			&cli.BoolFlag{
				Name:        "json",
				Usage:       "output as JSON",
				Destination: &cmd.jsonOutput,
			},
		},
		Action: cmd.run,
	})

	return app
}

func (cmd *StatsCmd) run(ctx context.Context, c *cli.Command) error {
	summary := cmd.app.Summary(time.Now())
	out := c.Root().Writer

	if cmd.jsonOutput {
		return iojson.Encode(out, summary)
	}

	_, err := fmt.Fprintln(out, printer.Dashboard(summary))
	return err
}
