package commands

import (
	"context"
	"fmt"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"github.com/rs/zerolog/log"
	"github.com/urfave/cli/v3"

	"github.com/colonyops/tally/internal/core/classify"
	"github.com/colonyops/tally/internal/core/eventbus"
	"github.com/colonyops/tally/internal/core/styles"
	"github.com/colonyops/tally/internal/core/timer"
	"github.com/colonyops/tally/internal/data/stores"
	"github.com/colonyops/tally/internal/printer"
	"github.com/colonyops/tally/internal/tracker"
	"github.com/colonyops/tally/pkg/utils"
)

// clearScreen moves the cursor home and clears the terminal.
const clearScreen = "\x1b[H\x1b[2J"

type WatchCmd struct {
	flags *Flags
	app   *tracker.App

	// flags
	mode    string
	query   string
	filters []string
}

// NewWatchCmd creates a new watch command
func NewWatchCmd(flags *Flags, app *tracker.App) *WatchCmd {
	return &WatchCmd{flags: flags, app: app}
}

// Register adds the watch command to the application
func (cmd *WatchCmd) Register(app *cli.Command) *cli.Command {
	app.Commands = append(app.Commands, &cli.Command{
		Name:      "watch",
		Usage:     "Keep the board on screen and redraw it on every change",
		UsageText: "tally watch [--mode M] [--query Q] [--filter F]...",
		Description: `Redraws the board whenever tasks change, including changes made by other
tally processes, and keeps the focus timer running so a session completes
on time. Press ctrl+c to exit.`,
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
				Usage:       "case-insensitive search",
				Destination: &cmd.query,
			},
			&cli.StringSliceFlag{
				Name:        "filter",
				Aliases:     []string{"f"},
				Usage:       "filter (all, high, overdue, today); repeatable",
				Destination: &cmd.filters,
			},
		},
		Action: cmd.run,
	})

	return app
}

func (cmd *WatchCmd) run(ctx context.Context, c *cli.Command) error {
	state, err := viewState(cmd.mode, cmd.query, cmd.filters)
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(ctx, syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	var (
		mu    sync.Mutex
		frame = &utils.DeferredWriter{}
		out   = c.Root().Writer
	)

	redraw := func() {
		mu.Lock()
		defer mu.Unlock()

		cmd.render(frame, state, time.Now())
		if err := frame.Flush(out, clearScreen); err != nil {
			log.Warn().Err(err).Msg("redraw failed")
		}
	}

	cmd.app.Bus.SubscribeTaskSnapshot(func(eventbus.TaskSnapshotPayload) { redraw() })
	cmd.app.Bus.SubscribeTimerStarted(func(eventbus.TimerStartedPayload) { redraw() })
	cmd.app.Bus.SubscribeTimerStopped(func(eventbus.TimerStoppedPayload) { redraw() })
	cmd.app.Bus.SubscribeTimerCompleted(func(eventbus.TimerCompletedPayload) { redraw() })

	if cmd.app.Refresher != nil {
		cw, err := stores.NewChangeWatcher(cmd.app.DB.Path(), log.With().Str("component", "watch").Logger())
		if err != nil {
			return fmt.Errorf("watch database: %w", err)
		}
		defer func() { _ = cw.Close() }()

		go tracker.FollowChanges(ctx, cw.Watch(ctx), cmd.app.Refresher, cmd.app.Timer)
	}

	go tracker.RunTicker(ctx, cmd.app.Timer, cmd.app.Config.Timer.Tick, nil)

	redraw()

	// Keep the countdown moving while a session runs.
	ticker := time.NewTicker(time.Second)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return nil
		case <-ticker.C:
			if cmd.app.Timer.Status().State == timer.StateRunning {
				redraw()
			}
		}
	}
}

func (cmd *WatchCmd) render(w *utils.DeferredWriter, state classify.ViewState, now time.Time) {
	view := cmd.app.View(state, now)
	st := cmd.app.Timer.Status()

	title := ""
	if t, ok := cmd.app.Tasks.Mirror().Get(st.TaskID); ok {
		title = t.Title
	}

	_, _ = fmt.Fprintln(w, printer.Board(view, state.Mode, cmd.app.Timer.Ledger(), now))
	_, _ = fmt.Fprintln(w)
	_, _ = fmt.Fprintln(w, printer.TimerStatus(st, title))
	_, _ = fmt.Fprintln(w, styles.HelpStyle.Render(fmt.Sprintf("updated %s • ctrl+c to exit", now.Format(time.TimeOnly))))
}
