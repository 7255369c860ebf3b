package commands

import (
	"context"
	"fmt"

	"github.com/urfave/cli/v3"

	"github.com/colonyops/tally/internal/core/task"
	"github.com/colonyops/tally/internal/printer"
	"github.com/colonyops/tally/internal/tracker"
)

type EditCmd struct {
	flags *Flags
	app   *tracker.App

	// flags
	title       string
	description string
	area        string
	priority    string
	deadline    string
}

// NewEditCmd creates a new edit command
func NewEditCmd(flags *Flags, app *tracker.App) *EditCmd {
	return &EditCmd{flags: flags, app: app}
}

// Register adds the edit command to the application
func (cmd *EditCmd) Register(app *cli.Command) *cli.Command {
	app.Commands = append(app.Commands, &cli.Command{
		Name:        "edit",
		Usage:       "Change fields of a task",
		UsageText:   "tally edit [--title T] [--description D] [--area A] [--priority P] [--deadline YYYY-MM-DD] <id>",
		Description: "Only the flags that are passed are changed. Use 'tally toggle' to complete or reopen a task.",
		Flags: []cli.Flag{
			&cli.StringFlag{Name: "title", Aliases: []string{"t"}, Usage: "new title", Destination: &cmd.title},
			&cli.StringFlag{Name: "description", Aliases: []string{"d"}, Usage: "new description", Destination: &cmd.description},
			&cli.StringFlag{Name: "area", Aliases: []string{"a"}, Usage: "new area (Home, Work, Self)", Destination: &cmd.area},
			&cli.StringFlag{Name: "priority", Aliases: []string{"p"}, Usage: "new priority (high, medium, low)", Destination: &cmd.priority},
			&cli.StringFlag{Name: "deadline", Usage: "new deadline as YYYY-MM-DD", Destination: &cmd.deadline},
		},
		Action: cmd.run,
	})

	return app
}

func (cmd *EditCmd) run(ctx context.Context, c *cli.Command) error {
	t, err := findTask(cmd.app.Tasks.Tasks(), c.Args().First())
	if err != nil {
		return err
	}

	patch, err := cmd.patch(c.IsSet)
	if err != nil {
		return err
	}
	if patch.IsEmpty() {
		printer.Ctx(ctx).Infof("Nothing to change")
		return nil
	}

	if err := cmd.app.Tasks.RequestUpdate(ctx, t.ID, patch); err != nil {
		return fmt.Errorf("edit task: %w", err)
	}

	printer.Ctx(ctx).Successf("Updated %s", t.ID)
	return nil
}

// patch builds a patch from the flags for which isSet reports true.
func (cmd *EditCmd) patch(isSet func(string) bool) (task.Patch, error) {
	var p task.Patch

	if isSet("title") {
		p.Title = &cmd.title
	}
	if isSet("description") {
		p.Description = &cmd.description
	}
	if isSet("area") {
		a, ok := task.ParseArea(cmd.area)
		if !ok {
			return p, fmt.Errorf("invalid area %q: must be one of Home, Work, Self", cmd.area)
		}
		p.Area = &a
	}
	if isSet("priority") {
		pr := task.Priority(cmd.priority)
		p.Priority = &pr
	}
	if isSet("deadline") {
		p.Deadline = &cmd.deadline
	}

	return p, nil
}
