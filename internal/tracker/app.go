package tracker

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/rs/zerolog"

	"github.com/colonyops/tally/internal/core/bulk"
	"github.com/colonyops/tally/internal/core/classify"
	"github.com/colonyops/tally/internal/core/config"
	"github.com/colonyops/tally/internal/core/eventbus"
	"github.com/colonyops/tally/internal/core/metrics"
	"github.com/colonyops/tally/internal/core/notify"
	"github.com/colonyops/tally/internal/data/db"
)

const (
	selectedExportPrefix = "selected-tasks"
	fullExportPrefix     = "tasks-export"
)

// App is the central entry point for all tally operations.
// Commands and the TUI consume App instead of cherry-picking raw dependencies.
type App struct {
	Tasks         *TaskService
	Timer         *TimerService
	Bulk          *bulk.Coordinator
	Selection     *bulk.Selection
	Notifications notify.Store
	Classifier    classify.Classifier

	Config *config.Config
	DB     *db.DB
	Bus    *eventbus.EventBus

	// Refresher re-reads the store for long-lived commands that follow
	// writes from other processes. Nil when the store pushes changes itself.
	Refresher Refresher

	log zerolog.Logger
}

// NewApp constructs an App from explicit dependencies.
func NewApp(
	tasks *TaskService,
	timerSvc *TimerService,
	notifications notify.Store,
	cfg *config.Config,
	database *db.DB,
	bus *eventbus.EventBus,
	log zerolog.Logger,
) *App {
	selection := bulk.NewSelection()
	return &App{
		Tasks:         tasks,
		Timer:         timerSvc,
		Bulk:          bulk.NewCoordinator(tasks, cfg.Bulk.Workers, selection, log.With().Str("component", "bulk").Logger()),
		Selection:     selection,
		Notifications: notifications,
		Classifier:    classify.New(cfg.Classify.CurrentLimit),
		Config:        cfg,
		DB:            database,
		Bus:           bus,
		log:           log,
	}
}

// View classifies the mirrored tasks for display.
func (a *App) View(state classify.ViewState, now time.Time) classify.View {
	return a.Classifier.Classify(a.Tasks.Tasks(), state, now)
}

// Summary aggregates the dashboard numbers.
func (a *App) Summary(now time.Time) metrics.Summary {
	return metrics.Summarize(a.Classifier, a.Tasks.Tasks(), a.Timer.Ledger(), now)
}

// BulkComplete completes every id and reports the outcome on the bus.
func (a *App) BulkComplete(ctx context.Context, ids []string) bulk.Result {
	res := a.Bulk.Complete(ctx, ids)
	a.Bus.PublishBulkFinished(eventbus.BulkFinishedPayload{Result: res})
	return res
}

// BulkDelete deletes every id and reports the outcome on the bus.
func (a *App) BulkDelete(ctx context.Context, ids []string) bulk.Result {
	res := a.Bulk.Delete(ctx, ids)
	a.Bus.PublishBulkFinished(eventbus.BulkFinishedPayload{Result: res})
	return res
}

// ClearAll deletes every mirrored task.
func (a *App) ClearAll(ctx context.Context) bulk.Result {
	tasks := a.Tasks.Tasks()
	ids := make([]string, len(tasks))
	for i, t := range tasks {
		ids[i] = t.ID
	}
	return a.BulkDelete(ctx, ids)
}

// ExportSelected writes the selection export into dir and returns the file
// path and the number of task rows written.
func (a *App) ExportSelected(dir string, ids []string, now time.Time) (string, int, error) {
	rows := bulk.ExportRows(a.Classifier, a.Tasks.Tasks(), ids, now)
	path := filepath.Join(dir, bulk.ExportFilename(selectedExportPrefix, a.Tasks.Owner(), now))
	if err := writeExport(path, rows); err != nil {
		return "", 0, err
	}

	a.Selection.Clear()
	a.Bus.PublishExportFinished(eventbus.ExportFinishedPayload{Path: path, Count: len(rows) - 1, Selected: true})
	return path, len(rows) - 1, nil
}

// ExportAll writes the full export of every task into dir.
func (a *App) ExportAll(dir string, now time.Time) (string, int, error) {
	rows := bulk.ExportAll(a.Classifier, a.Tasks.Tasks(), now)
	path := filepath.Join(dir, bulk.ExportFilename(fullExportPrefix, a.Tasks.Owner(), now))
	if err := writeExport(path, rows); err != nil {
		return "", 0, err
	}

	a.Bus.PublishExportFinished(eventbus.ExportFinishedPayload{Path: path, Count: len(rows) - 1})
	return path, len(rows) - 1, nil
}

// Close releases the subscription. The database is owned by the caller.
func (a *App) Close() {
	a.Tasks.Close()
}

func writeExport(path string, rows [][]string) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("create export dir: %w", err)
	}

	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create export file: %w", err)
	}

	if err := bulk.WriteCSV(f, rows); err != nil {
		_ = f.Close()
		return err
	}
	return f.Close()
}
