package commands

import (
	"context"
	"errors"
	"fmt"
	"os"

	"github.com/charmbracelet/huh"
	"github.com/urfave/cli/v3"
	"golang.org/x/term"

	"github.com/colonyops/tally/internal/core/task"
	"github.com/colonyops/tally/internal/printer"
	"github.com/colonyops/tally/internal/tracker"
)

type AddCmd struct {
	flags *Flags
	app   *tracker.App

	// flags
	title       string
	description string
	area        string
	priority    string
	deadline    string
}

// NewAddCmd creates a new add command
func NewAddCmd(flags *Flags, app *tracker.App) *AddCmd {
	return &AddCmd{flags: flags, app: app}
}

// Register adds the add command to the application
func (cmd *AddCmd) Register(app *cli.Command) *cli.Command {
	app.Commands = append(app.Commands, &cli.Command{
		Name:      "add",
		Usage:     "Add a task",
		UsageText: "tally add [--title T] [--area Home|Work|Self] [--priority high|medium|low] [--deadline YYYY-MM-DD]",
		Description: `Creates a task owned by the current user.

When --title is omitted and stdin is a terminal, an interactive form prompts
for every field. Area defaults to Home and priority to medium. A deadline is
required.`,
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:        "title",
				Aliases:     []string{"t"},
				Usage:       "task title",
				Destination: &cmd.title,
			},
			&cli.StringFlag{
				Name:        "description",
				Aliases:     []string{"d"},
				Usage:       "longer description, rendered as markdown by 'tally show'",
				Destination: &cmd.description,
			},
			&cli.StringFlag{
				Name:        "area",
				Aliases:     []string{"a"},
				Usage:       "area (Home, Work, Self)",
				Destination: &cmd.area,
			},
			&cli.StringFlag{
				Name:        "priority",
				Aliases:     []string{"p"},
				Usage:       "priority (high, medium, low)",
				Destination: &cmd.priority,
			},
			&cli.StringFlag{
				Name:        "deadline",
				Usage:       "deadline as YYYY-MM-DD",
				Destination: &cmd.deadline,
			},
		},
		Action: cmd.run,
	})

	return app
}

func (cmd *AddCmd) run(ctx context.Context, c *cli.Command) error {
	p := printer.Ctx(ctx)

	if cmd.title == "" {
		if !term.IsTerminal(int(os.Stdin.Fd())) {
			return errors.New("--title is required when stdin is not a terminal")
		}
		if err := cmd.runForm(); err != nil {
			if errors.Is(err, huh.ErrUserAborted) {
				return nil
			}
			return fmt.Errorf("form: %w", err)
		}
	}

	fields, err := cmd.fields()
	if err != nil {
		return err
	}

	id, err := cmd.app.Tasks.RequestCreate(ctx, fields)
	if err != nil {
		return fmt.Errorf("add task: %w", err)
	}

	p.Successf("Added %s (%s)", fields.WithDefaults().Title, id)
	return nil
}

func (cmd *AddCmd) fields() (task.Fields, error) {
	f := task.Fields{
		Title:       cmd.title,
		Description: cmd.description,
		Deadline:    cmd.deadline,
	}

	if cmd.area != "" {
		a, ok := task.ParseArea(cmd.area)
		if !ok {
			return f, fmt.Errorf("invalid area %q: must be one of Home, Work, Self", cmd.area)
		}
		f.Area = a
	}
	if cmd.priority != "" {
		f.Priority = task.Priority(cmd.priority)
	}

	return f, nil
}

func (cmd *AddCmd) runForm() error {
	if cmd.area == "" {
		cmd.area = string(task.AreaHome)
	}
	if cmd.priority == "" {
		cmd.priority = string(task.PriorityMedium)
	}

	return huh.NewForm(
		huh.NewGroup(
			huh.NewInput().
				Title("Title").
				Validate(task.ValidateTitle).
				Value(&cmd.title),
			huh.NewText().
				Title("Description").
				Description("Markdown is supported").
				Value(&cmd.description),
		),
		huh.NewGroup(
			huh.NewSelect[string]().
				Title("Area").
				Options(huh.NewOptions(areaNames()...)...).
				Value(&cmd.area),
			huh.NewSelect[string]().
				Title("Priority").
				Options(huh.NewOptions(
					string(task.PriorityHigh),
					string(task.PriorityMedium),
					string(task.PriorityLow),
				)...).
				Value(&cmd.priority),
			huh.NewInput().
				Title("Deadline").
				Description("YYYY-MM-DD").
				Validate(task.ValidateDeadline).
				Value(&cmd.deadline),
		),
	).Run()
}

func areaNames() []string {
	areas := task.Areas()
	out := make([]string, len(areas))
	for i, a := range areas {
		out[i] = string(a)
	}
	return out
}

