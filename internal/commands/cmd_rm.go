package commands

import (
	"context"
	"errors"
	"fmt"
	"os"

	"github.com/charmbracelet/huh"
	"github.com/urfave/cli/v3"
	"golang.org/x/term"

	"github.com/colonyops/tally/internal/printer"
	"github.com/colonyops/tally/internal/tracker"
)

type RmCmd struct {
	flags *Flags
	app   *tracker.App

	// flags
	yes bool
}

// NewRmCmd creates a new rm command
func NewRmCmd(flags *Flags, app *tracker.App) *RmCmd {
	return &RmCmd{flags: flags, app: app}
}

// Register adds the rm and clear commands to the application
func (cmd *RmCmd) Register(app *cli.Command) *cli.Command {
	app.Commands = append(app.Commands,
		&cli.Command{
			Name:      "rm",
			Usage:     "Delete tasks",
			UsageText: "tally rm <id>...",
			Action:    cmd.runRm,
		},
		&cli.Command{
			Name:        "clear",
			Usage:       "Delete every task",
			UsageText:   "tally clear [--yes]",
			Description: "Deletes all of your tasks. Asks for confirmation unless --yes is passed.",
			Flags: []cli.Flag{
				&cli.BoolFlag{
					Name:        "yes",
					Aliases:     []string{"y"},
					Usage:       "skip the confirmation prompt",
					Destination: &cmd.yes,
				},
			},
			Action: cmd.runClear,
		},
	)

	return app
}

func (cmd *RmCmd) runRm(ctx context.Context, c *cli.Command) error {
	refs := c.Args().Slice()
	if len(refs) == 0 {
		return errors.New("at least one task id is required")
	}

	tasks := cmd.app.Tasks.Tasks()
	p := printer.Ctx(ctx)

	if len(refs) == 1 {
		t, err := findTask(tasks, refs[0])
		if err != nil {
			return err
		}
		if err := cmd.app.Tasks.RequestDelete(ctx, t.ID); err != nil {
			return fmt.Errorf("delete task: %w", err)
		}
		p.Successf("Deleted %s", t.Title)
		return nil
	}

	return reportBulk(p, cmd.app.BulkDelete(ctx, resolveIDs(tasks, refs)))
}

func (cmd *RmCmd) runClear(ctx context.Context, c *cli.Command) error {
	p := printer.Ctx(ctx)

	n := len(cmd.app.Tasks.Tasks())
	if n == 0 {
		p.Infof("No tasks to clear")
		return nil
	}

	if !cmd.yes {
		if !term.IsTerminal(int(os.Stdin.Fd())) {
			return errors.New("refusing to clear without --yes when stdin is not a terminal")
		}

		confirmed := false
		err := huh.NewConfirm().
			Title(fmt.Sprintf("Delete all %d tasks?", n)).
			Affirmative("Delete").
			Negative("Cancel").
			Value(&confirmed).
			Run()
		if err != nil {
			if errors.Is(err, huh.ErrUserAborted) {
				return nil
			}
			return fmt.Errorf("confirm: %w", err)
		}
		if !confirmed {
			return nil
		}
	}

	return reportBulk(p, cmd.app.ClearAll(ctx))
}
