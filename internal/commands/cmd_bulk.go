package commands

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/urfave/cli/v3"

	"github.com/colonyops/tally/internal/core/bulk"
	"github.com/colonyops/tally/internal/printer"
	"github.com/colonyops/tally/internal/tracker"
)

type BulkCmd struct {
	flags *Flags
	app   *tracker.App

	// flags
	dir     string
	mode    string
	query   string
	filters []string
	visible bool
}

// NewBulkCmd creates a new bulk command
func NewBulkCmd(flags *Flags, app *tracker.App) *BulkCmd {
	return &BulkCmd{flags: flags, app: app}
}

// Register adds the bulk command to the application
func (cmd *BulkCmd) Register(app *cli.Command) *cli.Command {
	app.Commands = append(app.Commands, &cli.Command{
		Name:  "bulk",
		Usage: "Apply an action to many tasks",
		Description: `Runs one store request per selected task. A batch is best effort: ids that
fail are reported and the rest are kept.`,
		Commands: []*cli.Command{
			{
				Name:      "complete",
				Usage:     "Complete the selected tasks",
				UsageText: "tally bulk complete <id>... | --visible [view flags]",
				Flags:     cmd.selectionFlags(),
				Action:    cmd.runComplete,
			},
			{
				Name:      "delete",
				Usage:     "Delete the selected tasks",
				UsageText: "tally bulk delete <id>... | --visible [view flags]",
				Flags:     cmd.selectionFlags(),
				Action:    cmd.runDelete,
			},
			{
				Name:      "export",
				Usage:     "Export the selected tasks to CSV",
				UsageText: "tally bulk export [--dir D] <id>... | --visible [view flags]",
				Flags: append([]cli.Flag{
					&cli.StringFlag{
						Name:        "dir",
						Usage:       "directory to write the CSV file to (defaults to <data-dir>/exports)",
						Destination: &cmd.dir,
					},
				}, cmd.selectionFlags()...),
				Action: cmd.runExport,
			},
		},
	})

	return app
}

// selectionFlags returns fresh view flags for each subcommand.
func (cmd *BulkCmd) selectionFlags() []cli.Flag {
	return []cli.Flag{
		&cli.BoolFlag{
			Name:        "visible",
			Usage:       "select every task the matching 'ls' view shows instead of passing ids",
			Destination: &cmd.visible,
		},
		&cli.StringFlag{
			Name:        "mode",
			Usage:       "view mode used with --visible",
			Value:       "current",
			Destination: &cmd.mode,
		},
		&cli.StringFlag{
			Name:        "query",
			Usage:       "search used with --visible",
			Destination: &cmd.query,
		},
		&cli.StringSliceFlag{
			Name:        "filter",
			Usage:       "filter used with --visible; repeatable",
			Destination: &cmd.filters,
		},
	}
}

// selection replaces the app selection with the ids named on the command
// line, or with the visible tasks of the requested view.
func (cmd *BulkCmd) selection(c *cli.Command) ([]string, error) {
	tasks := cmd.app.Tasks.Tasks()

	if cmd.visible {
		state, err := viewState(cmd.mode, cmd.query, cmd.filters)
		if err != nil {
			return nil, err
		}
		view := cmd.app.View(state, time.Now())
		ids := make([]string, len(view.Visible))
		for i, at := range view.Visible {
			ids[i] = at.ID
		}
		cmd.app.Selection.Replace(ids)
		return cmd.app.Selection.IDs(), nil
	}

	refs := c.Args().Slice()
	if len(refs) == 0 {
		return nil, errors.New("pass task ids or --visible")
	}
	cmd.app.Selection.Replace(resolveIDs(tasks, refs))
	return cmd.app.Selection.IDs(), nil
}

func (cmd *BulkCmd) runComplete(ctx context.Context, c *cli.Command) error {
	ids, err := cmd.selection(c)
	if err != nil {
		return err
	}
	return reportBulk(printer.Ctx(ctx), cmd.app.BulkComplete(ctx, ids))
}

func (cmd *BulkCmd) runDelete(ctx context.Context, c *cli.Command) error {
	ids, err := cmd.selection(c)
	if err != nil {
		return err
	}
	return reportBulk(printer.Ctx(ctx), cmd.app.BulkDelete(ctx, ids))
}

func (cmd *BulkCmd) runExport(ctx context.Context, c *cli.Command) error {
	ids, err := cmd.selection(c)
	if err != nil {
		return err
	}

	dir := cmd.dir
	if dir == "" {
		dir = cmd.app.Config.ExportDir()
	}

	path, n, err := cmd.app.ExportSelected(dir, ids, time.Now())
	if err != nil {
		return fmt.Errorf("export: %w", err)
	}

	printer.Ctx(ctx).Successf("Exported %d selected tasks to %s", n, path)
	return nil
}

// reportBulk prints the outcome of a batch and returns an error when any
// item failed so the exit status reflects it.
func reportBulk(p *printer.Printer, res bulk.Result) error {
	if res.Requested == 0 {
		p.Infof("Nothing selected")
		return nil
	}

	verb := "Completed"
	if res.Op == bulk.OpDelete {
		verb = "Deleted"
	}

	if res.OK() {
		p.Successf("%s %d tasks", verb, res.Succeeded)
		return nil
	}

	p.Warnf("%s %d of %d tasks", verb, res.Succeeded, res.Requested)
	for _, id := range res.FailedIDs() {
		p.Errorf("%s: %v", id, res.Failed[id])
	}
	return fmt.Errorf("%d tasks failed: %s", len(res.Failed), strings.Join(res.FailedIDs(), ", "))
}
