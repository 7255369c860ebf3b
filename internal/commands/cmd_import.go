package commands

import (
	"context"
	"fmt"

	"github.com/urfave/cli/v3"

	"github.com/colonyops/tally/internal/core/task"
	"github.com/colonyops/tally/internal/printer"
	"github.com/colonyops/tally/internal/tracker"
	"github.com/colonyops/tally/pkg/iojson"
)

type ImportCmd struct {
	flags *Flags
	app   *tracker.App

	fr *iojson.FileReader[[]task.Fields]
}

// NewImportCmd creates a new import command
func NewImportCmd(flags *Flags, app *tracker.App) *ImportCmd {
	return &ImportCmd{
		flags: flags,
		app:   app,
		fr:    &iojson.FileReader[[]task.Fields]{},
	}
}

// Register adds the import command to the application
func (cmd *ImportCmd) Register(app *cli.Command) *cli.Command {
	app.Commands = append(app.Commands, &cli.Command{
		Name:      "import",
		Usage:     "Create tasks from JSON",
		UsageText: "tally import [-f tasks.json]",
		Description: `Reads a JSON array of tasks and creates each one:

  [{"title": "Buy milk", "area": "Home", "priority": "high", "deadline": "2026-05-12"}]

Every entry is validated before anything is written; one invalid entry
rejects the whole file.`,
		Flags:  []cli.Flag{cmd.fr.Flag()},
		Action: cmd.run,
	})

	return app
}

// importResult is the JSON line written per created task.
type importResult struct {
	ID    string `json:"id"`
	Title string `json:"title"`
}

func (cmd *ImportCmd) run(ctx context.Context, c *cli.Command) error {
	entries, err := cmd.fr.Read(c.Root().Reader)
	if err != nil {
		return fmt.Errorf("read input: %w", err)
	}

	for i, f := range entries {
		if err := f.WithDefaults().Validate(); err != nil {
			return fmt.Errorf("entry %d: %w", i, err)
		}
	}

	out := c.Root().Writer
	for _, f := range entries {
		id, err := cmd.app.Tasks.RequestCreate(ctx, f)
		if err != nil {
			return fmt.Errorf("create %q: %w", f.Title, err)
		}
		if err := iojson.WriteLine(out, importResult{ID: id, Title: f.WithDefaults().Title}); err != nil {
			return err
		}
	}

	printer.Ctx(ctx).Successf("Imported %d tasks", len(entries))
	return nil
}
