package commands

import (
	"context"
	"fmt"

	"github.com/urfave/cli/v3"

	"github.com/colonyops/tally/internal/core/metrics"
	"github.com/colonyops/tally/internal/core/styles"
	"github.com/colonyops/tally/internal/core/task"
	"github.com/colonyops/tally/internal/core/timer"
	"github.com/colonyops/tally/internal/printer"
	"github.com/colonyops/tally/internal/tracker"
	"github.com/colonyops/tally/internal/tui/focus"
	"github.com/colonyops/tally/pkg/iojson"
)

type TimerCmd struct {
	flags *Flags
	app   *tracker.App

	// flags
	jsonOutput bool
	openFocus  bool
}

// NewTimerCmd creates a new timer command
func NewTimerCmd(flags *Flags, app *tracker.App) *TimerCmd {
	return &TimerCmd{flags: flags, app: app}
}

// Register adds the timer command to the application
func (cmd *TimerCmd) Register(app *cli.Command) *cli.Command {
	app.Commands = append(app.Commands, &cli.Command{
		Name:  "timer",
		Usage: "Focus timer",
		Description: `One focus session runs at a time. Starting a session for another task stops
the running one and records its time. A session that runs out its budget is
recorded the next time any tally command runs.`,
		Commands: []*cli.Command{
			{
				Name:      "start",
				Usage:     "Start a focus session",
				UsageText: "tally timer start [--focus] <id>",
				Flags: []cli.Flag{
					&cli.BoolFlag{
						Name:        "focus",
						Usage:       "open the countdown view after starting",
						Destination: &cmd.openFocus,
					},
				},
				Action: cmd.runStart,
			},
			{
				Name:      "stop",
				Usage:     "Stop the running session",
				UsageText: "tally timer stop [id]",
				Action:    cmd.runStop,
			},
			{
				Name:      "status",
				Usage:     "Show the running session",
				UsageText: "tally timer status [--json]",
				Flags: []cli.Flag{
					&cli.BoolFlag{
						Name:        "json",
						Usage:       "output as JSON",
						Destination: &cmd.jsonOutput,
					},
				},
				Action: cmd.runStatus,
			},
			{
				Name:      "focus",
				Usage:     "Open the countdown view",
				UsageText: "tally timer focus [id]",
				Description: `Shows the remaining time of the running session, starting one for id first
when given. Press s to stop the session or q to leave it running.`,
				Action: cmd.runFocus,
			},
		},
	})

	return app
}

// settle records a session that ran out while no process was watching.
func (cmd *TimerCmd) settle(p *printer.Printer) {
	if r, ok := cmd.app.Timer.Tick(); ok {
		p.Infof("%s Earlier session on %s completed (%s)", styles.IconTimer, cmd.title(r.TaskID), metrics.FormatElapsed(r.Elapsed))
	}
}

func (cmd *TimerCmd) title(id string) string {
	if t, ok := cmd.app.Tasks.Mirror().Get(id); ok {
		return t.Title
	}
	return id
}

func (cmd *TimerCmd) runStart(ctx context.Context, c *cli.Command) error {
	p := printer.Ctx(ctx)
	cmd.settle(p)

	t, err := findTask(cmd.app.Tasks.Tasks(), c.Args().First())
	if err != nil {
		return err
	}

	before := cmd.app.Timer.Status()
	sess, err := cmd.app.Timer.Start(t.ID)
	if err != nil {
		return fmt.Errorf("start timer: %w", err)
	}

	if before.State == timer.StateRunning {
		p.Infof("Stopped %s after %s", cmd.title(before.TaskID), metrics.FormatElapsed(before.Elapsed))
	}
	p.Successf("Working on %s for %s", t.Title, metrics.FormatElapsed(sess.Budget))

	if cmd.openFocus {
		return cmd.focus(p, t.Title)
	}
	return nil
}

func (cmd *TimerCmd) runStop(ctx context.Context, c *cli.Command) error {
	p := printer.Ctx(ctx)
	cmd.settle(p)

	id := cmd.app.Timer.Status().TaskID
	if ref := c.Args().First(); ref != "" {
		t, err := findTask(cmd.app.Tasks.Tasks(), ref)
		if err != nil {
			return err
		}
		id = t.ID
	}
	if id == "" {
		return task.ErrNoSession
	}

	r, err := cmd.app.Timer.Stop(id)
	if err != nil {
		return fmt.Errorf("stop timer: %w", err)
	}

	p.Successf("Time recorded on %s: %s (total %s)", cmd.title(id), metrics.FormatElapsed(r.Elapsed), metrics.FormatElapsed(r.Total))
	return nil
}

// timerInfo is the JSON format for tally timer status --json.
type timerInfo struct {
	timer.Status
	Title string `json:"title,omitempty"`
}

func (cmd *TimerCmd) runStatus(ctx context.Context, c *cli.Command) error {
	p := printer.Ctx(ctx)
	cmd.settle(p)

	st := cmd.app.Timer.Status()
	title := ""
	if st.TaskID != "" {
		title = cmd.title(st.TaskID)
	}

	if cmd.jsonOutput {
		return iojson.Encode(c.Root().Writer, timerInfo{Status: st, Title: title})
	}

	_, err := fmt.Fprintln(c.Root().Writer, printer.TimerStatus(st, title))
	return err
}

func (cmd *TimerCmd) runFocus(ctx context.Context, c *cli.Command) error {
	p := printer.Ctx(ctx)
	cmd.settle(p)

	if ref := c.Args().First(); ref != "" {
		t, err := findTask(cmd.app.Tasks.Tasks(), ref)
		if err != nil {
			return err
		}
		if st := cmd.app.Timer.Status(); st.TaskID != t.ID {
			if _, err := cmd.app.Timer.Start(t.ID); err != nil {
				return fmt.Errorf("start timer: %w", err)
			}
		}
	}

	st := cmd.app.Timer.Status()
	if st.State != timer.StateRunning {
		return task.ErrNoSession
	}
	return cmd.focus(p, cmd.title(st.TaskID))
}

func (cmd *TimerCmd) focus(p *printer.Printer, title string) error {
	m, err := focus.Run(cmd.app.Timer, title)
	if err != nil {
		return err
	}
	if err := m.Err(); err != nil {
		return err
	}

	if r, ok := m.Finished(); ok {
		if m.Stopped() {
			p.Successf("Time recorded on %s: %s", title, metrics.FormatElapsed(r.Elapsed))
		} else {
			p.Successf("Pomodoro complete on %s. Time for a break.", title)
		}
	}
	return nil
}
