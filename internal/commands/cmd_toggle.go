package commands

import (
	"context"
	"fmt"

	"github.com/urfave/cli/v3"

	"github.com/colonyops/tally/internal/printer"
	"github.com/colonyops/tally/internal/tracker"
)

type ToggleCmd struct {
	flags *Flags
	app   *tracker.App
}

// NewToggleCmd creates a new toggle command
func NewToggleCmd(flags *Flags, app *tracker.App) *ToggleCmd {
	return &ToggleCmd{flags: flags, app: app}
}

// Register adds the toggle command to the application
func (cmd *ToggleCmd) Register(app *cli.Command) *cli.Command {
	app.Commands = append(app.Commands, &cli.Command{
		Name:        "toggle",
		Aliases:     []string{"done"},
		Usage:       "Complete or reopen a task",
		UsageText:   "tally toggle <id>",
		Description: "Completing a task records when it was finished. Reopening clears that time.",
		Action:      cmd.run,
	})

	return app
}

func (cmd *ToggleCmd) run(ctx context.Context, c *cli.Command) error {
	t, err := findTask(cmd.app.Tasks.Tasks(), c.Args().First())
	if err != nil {
		return err
	}

	completed, err := cmd.app.Tasks.Toggle(ctx, t.ID)
	if err != nil {
		return fmt.Errorf("toggle task: %w", err)
	}

	p := printer.Ctx(ctx)
	if completed {
		p.Successf("Completed %s", t.Title)
	} else {
		p.Infof("Reopened %s", t.Title)
	}
	return nil
}
