package commands

import (
	"context"
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/urfave/cli/v3"
	"golang.org/x/term"

	"github.com/colonyops/tally/internal/core/metrics"
	"github.com/colonyops/tally/internal/core/styles"
	"github.com/colonyops/tally/internal/printer"
	"github.com/colonyops/tally/internal/tracker"
	"github.com/colonyops/tally/pkg/iojson"
)

type ShowCmd struct {
	flags *Flags
	app   *tracker.App

	// flags
	history    bool
	jsonOutput bool
}

// NewShowCmd creates a new show command
func NewShowCmd(flags *Flags, app *tracker.App) *ShowCmd {
	return &ShowCmd{flags: flags, app: app}
}

// Register adds the show command to the application
func (cmd *ShowCmd) Register(app *cli.Command) *cli.Command {
	app.Commands = append(app.Commands, &cli.Command{
		Name:      "show",
		Usage:     "Show one task",
		UsageText: "tally show [--history] [--json] <id>",
		Description: `Prints a task with its description rendered as markdown.

The id may be shortened to any unique prefix. --history lists every focus
session recorded for the task.`,
		Flags: []cli.Flag{
			&cli.BoolFlag{
				Name:        "history",
				Usage:       "list recorded focus sessions",
				Destination: &cmd.history,
			},
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

func (cmd *ShowCmd) run(ctx context.Context, c *cli.Command) error {
	tasks := cmd.app.Tasks.Tasks()
	t, err := findTask(tasks, c.Args().First())
	if err != nil {
		return err
	}

	now := time.Now()
	labels := cmd.app.Classifier.Labels(tasks)
	spent := cmd.app.Timer.Ledger()[t.ID]
	out := c.Root().Writer

	if cmd.jsonOutput {
		return iojson.Encode(out, t)
	}

	width := 80
	if w, _, err := term.GetSize(int(os.Stdout.Fd())); err == nil && w > 0 {
		width = w
	}

	card, err := printer.TaskCard(t, labels[t.ID], spent, now, width)
	if err != nil {
		return err
	}
	_, _ = fmt.Fprintln(out, card)

	if !cmd.history {
		return nil
	}

	records, err := cmd.app.Timer.History(ctx, t.ID)
	if err != nil {
		if errors.Is(err, tracker.ErrNoHistory) {
			printer.Ctx(ctx).Warnf("Session history is not available")
			return nil
		}
		return fmt.Errorf("load history: %w", err)
	}
	if len(records) == 0 {
		printer.Ctx(ctx).Infof("No focus sessions recorded")
		return nil
	}

	for _, r := range records {
		marker := styles.IconTimer
		if r.Exhausted {
			marker = styles.IconDone
		}
		_, _ = fmt.Fprintf(out, "%s %s  %-8s total %s\n",
			marker,
			r.StartTime.In(now.Location()).Format("2006-01-02 15:04"),
			metrics.FormatElapsed(r.Elapsed),
			metrics.FormatElapsed(r.Total),
		)
	}
	return nil
}
