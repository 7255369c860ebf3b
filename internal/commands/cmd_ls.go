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

type LsCmd struct {
	flags *Flags
	app   *tracker.App

	// flags
	mode       string
	query      string
	filters    []string
	jsonOutput bool
}

// NewLsCmd creates a new ls command
func NewLsCmd(flags *Flags, app *tracker.App) *LsCmd {
	return &LsCmd{flags: flags, app: app}
}

// Register adds the ls command to the application
func (cmd *LsCmd) Register(app *cli.Command) *cli.Command {
	app.Commands = append(app.Commands, &cli.Command{
		Name:      "ls",
		Usage:     "List tasks",
		UsageText: "tally ls [--mode current|pending|done] [--query Q] [--filter F]... [--json]",
		Description: `Displays tasks grouped by area.

Incomplete tasks are ranked per area by priority and deadline; the top of
each area is "current" and the rest are "pending". --filter narrows the list
to high priority, overdue, or due-today tasks and may be repeated; repeated
filters combine with OR.

Use --json for one JSON object per visible task.`,
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:        "mode",
				Aliases:     []string{"m"},
				Usage:       "which tasks to show (current, pending, done)",
				Value:       "current",
				Destination: &cmd.mode,
			},
			&cli.StringFlag{
				Name:        "query",
				Aliases:     []string{"q"},
				Usage:       "case-insensitive search over title, description, and area",
				Destination: &cmd.query,
			},
			&cli.StringSliceFlag{
				Name:        "filter",
				Aliases:     []string{"f"},
				Usage:       "filter (all, high, overdue, today); repeatable",
				Destination: &cmd.filters,
			},
			&cli.BoolFlag{
				Name:        "json",
				Usage:       "output as JSON lines",
				Destination: &cmd.jsonOutput,
			},
		},
		Action: cmd.run,
	})

	return app
}

func (cmd *LsCmd) run(ctx context.Context, c *cli.Command) error {
	state, err := viewState(cmd.mode, cmd.query, cmd.filters)
	if err != nil {
		return err
	}

	now := time.Now()
	view := cmd.app.View(state, now)
	ledger := cmd.app.Timer.Ledger()
	out := c.Root().Writer

	if cmd.jsonOutput {
		for _, at := range view.Visible {
			if err := iojson.WriteLine(out, newTaskInfo(at, ledger[at.ID], now)); err != nil {
				return fmt.Errorf("encode task: %w", err)
			}
		}
		return nil
	}

	if len(cmd.app.Tasks.Tasks()) == 0 {
		printer.Ctx(ctx).Infof("No tasks yet. Run 'tally add' to create one.")
		return nil
	}

	_, err = fmt.Fprintln(out, printer.Board(view, state.Mode, ledger, now))
	return err
}
