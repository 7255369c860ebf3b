package commands

import (
	"context"
	"fmt"
	"time"

	"github.com/charmbracelet/lipgloss"
	"github.com/urfave/cli/v3"

	"github.com/colonyops/tally/internal/core/notify"
	"github.com/colonyops/tally/internal/core/styles"
	"github.com/colonyops/tally/internal/printer"
	"github.com/colonyops/tally/internal/tracker"
	"github.com/colonyops/tally/pkg/iojson"
)

type NotificationsCmd struct {
	flags *Flags
	app   *tracker.App

	// flags
	jsonOutput bool
}

// NewNotificationsCmd creates a new notifications command
func NewNotificationsCmd(flags *Flags, app *tracker.App) *NotificationsCmd {
	return &NotificationsCmd{flags: flags, app: app}
}

// Register adds the notifications command to the application
func (cmd *NotificationsCmd) Register(app *cli.Command) *cli.Command {
	app.Commands = append(app.Commands, &cli.Command{
		Name:    "notifications",
		Aliases: []string{"notif"},
		Usage:   "Review timer, bulk, and export notifications",
		Commands: []*cli.Command{
			{
				Name:      "ls",
				Usage:     "List notifications, newest first",
				UsageText: "tally notifications ls [--json]",
				Flags: []cli.Flag{
					&cli.BoolFlag{
						Name:        "json",
						Usage:       "output as JSON lines",
						Destination: &cmd.jsonOutput,
					},
				},
				Action: cmd.runList,
			},
			{
				Name:      "clear",
				Usage:     "Delete every notification",
				UsageText: "tally notifications clear",
				Action:    cmd.runClear,
			},
		},
	})

	return app
}

func (cmd *NotificationsCmd) runList(ctx context.Context, c *cli.Command) error {
	items, err := cmd.app.Notifications.List(ctx)
	if err != nil {
		return fmt.Errorf("list notifications: %w", err)
	}

	out := c.Root().Writer
	if cmd.jsonOutput {
		for _, n := range items {
			if err := iojson.WriteLine(out, n); err != nil {
				return fmt.Errorf("encode notification: %w", err)
			}
		}
		return nil
	}

	if len(items) == 0 {
		printer.Ctx(ctx).Infof("No notifications")
		return nil
	}

	for _, n := range items {
		_, _ = fmt.Fprintf(out, "%s  %s %s\n",
			styles.MutedStyle.Render(n.CreatedAt.Local().Format(time.DateTime)),
			levelStyle(n.Level).Render(n.Title),
			n.Message,
		)
	}
	return nil
}

func (cmd *NotificationsCmd) runClear(ctx context.Context, c *cli.Command) error {
	n, err := cmd.app.Notifications.Count(ctx)
	if err != nil {
		return fmt.Errorf("count notifications: %w", err)
	}
	if err := cmd.app.Notifications.Clear(ctx); err != nil {
		return fmt.Errorf("clear notifications: %w", err)
	}

	printer.Ctx(ctx).Successf("Cleared %d notifications", n)
	return nil
}

func levelStyle(l notify.Level) lipgloss.Style {
	switch l {
	case notify.LevelError:
		return styles.ErrorStyle
	case notify.LevelWarning:
		return styles.OverdueStyle
	case notify.LevelSuccess:
		return styles.SuccessStyle
	default:
		return styles.HeaderStyle
	}
}
