package main

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"runtime/debug"
	"time"

	"github.com/rs/zerolog/log"
	"github.com/urfave/cli/v3"

	"github.com/colonyops/tally/internal/commands"
	"github.com/colonyops/tally/internal/core/config"
	"github.com/colonyops/tally/internal/core/eventbus"
	"github.com/colonyops/tally/internal/core/logging"
	"github.com/colonyops/tally/internal/core/notify"
	"github.com/colonyops/tally/internal/core/styles"
	"github.com/colonyops/tally/internal/core/timer"
	"github.com/colonyops/tally/internal/data/db"
	"github.com/colonyops/tally/internal/data/stores"
	"github.com/colonyops/tally/internal/printer"
	"github.com/colonyops/tally/internal/tracker"
	"github.com/colonyops/tally/pkg/logutils"
)

var (
	// Build information. Populated at build-time via -ldflags flag.
	// When installed via `go install module@version`, init() populates
	// these from runtime/debug.BuildInfo instead.
	version = "dev"
	commit  = "HEAD"
	date    = "now"
)

func build() string {
	v, c, d := version, commit, date

	// ldflags aren't set by `go install module@version`, so fall back to the
	// module version and VCS metadata Go records in the binary.
	if v == "dev" {
		if info, ok := debug.ReadBuildInfo(); ok {
			if mv := info.Main.Version; mv != "" && mv != "(devel)" {
				v = mv
			}
			for _, s := range info.Settings {
				switch s.Key {
				case "vcs.revision":
					c = s.Value
				case "vcs.time":
					d = s.Value
				}
			}
		}
	}

	short := c
	if len(c) > 7 {
		short = c[:7]
	}

	return fmt.Sprintf("%s (%s) %s", v, short, d)
}

// openDatabase opens the store, moving a corrupted file aside once and
// starting fresh.
func openDatabase(cfg *config.Config) (*db.DB, error) {
	opts := db.OpenOptions{
		MaxOpenConns: cfg.Database.MaxOpenConns,
		MaxIdleConns: cfg.Database.MaxIdleConns,
		BusyTimeout:  cfg.Database.BusyTimeout,
	}

	database, err := db.Open(cfg.DataDir, opts)
	if err == nil || !stores.IsCorruptionError(err) {
		return database, err
	}

	log.Warn().Err(err).Str("data_dir", cfg.DataDir).Msg("database corrupted, moving it aside")
	if rerr := stores.RecoverFromCorruption(cfg.DataDir); rerr != nil {
		return nil, fmt.Errorf("recover database: %w", rerr)
	}
	return db.Open(cfg.DataDir, opts)
}

func main() {
	ctx := context.Background()

	var (
		logCloser func()
		tallyApp  = &tracker.App{}
		database  *db.DB
		busCancel context.CancelFunc
	)

	flags := &commands.Flags{}

	app := &cli.Command{
		Name:      "tally",
		Usage:     "Track tasks by area and time them with focus sessions",
		UsageText: "tally [global options] command [command options]",
		Description: `Tally keeps a per-owner task list split across the Home, Work, and Self
areas. The board labels the top tasks of each area as current, flags overdue
deadlines, and a pomodoro-style timer records the time spent on each task.

Run 'tally add' to create a task and 'tally ls' to see the board.
Run 'tally watch' to keep the board open while other commands change it.`,
		Version: build(),
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:        "log-level",
				Usage:       "log level (debug, info, warn, error, fatal, panic)",
				Sources:     cli.EnvVars("TALLY_LOG_LEVEL"),
				Value:       "info",
				Destination: &flags.LogLevel,
			},
			&cli.StringFlag{
				Name:        "log-file",
				Usage:       "path to log file (defaults to <data-dir>/tally.log)",
				Sources:     cli.EnvVars("TALLY_LOG_FILE"),
				Destination: &flags.LogFile,
			},
			&cli.StringFlag{
				Name:        "config",
				Aliases:     []string{"c"},
				Usage:       "path to config file",
				Sources:     cli.EnvVars("TALLY_CONFIG"),
				Value:       commands.DefaultConfigPath(),
				Destination: &flags.ConfigPath,
			},
			&cli.StringFlag{
				Name:        "data-dir",
				Usage:       "path to data directory",
				Sources:     cli.EnvVars("TALLY_DATA_DIR"),
				Value:       commands.DefaultDataDir(),
				Destination: &flags.DataDir,
			},
			&cli.StringFlag{
				Name:        "owner",
				Usage:       "owner whose tasks are shown (defaults to the config owner or $USER)",
				Sources:     cli.EnvVars("TALLY_OWNER"),
				Destination: &flags.Owner,
			},
		},
		Before: func(ctx context.Context, c *cli.Command) (context.Context, error) {
			if err := os.MkdirAll(flags.DataDir, 0o755); err != nil {
				return ctx, fmt.Errorf("create data dir: %w", err)
			}

			logFile := flags.LogFile
			if logFile == "" {
				logFile = filepath.Join(flags.DataDir, "tally.log")
			}

			logger, closer, err := logutils.New(flags.LogLevel, logFile)
			if err != nil {
				return ctx, fmt.Errorf("setup logger: %w", err)
			}
			log.Logger = logger.Hook(logging.ContextHook{})
			logCloser = closer

			cfg, err := config.Load(flags.ConfigPath, flags.DataDir)
			if err != nil {
				return ctx, fmt.Errorf("load config: %w", err)
			}
			if flags.Owner != "" {
				cfg.Owner = flags.Owner
			}
			ctx = logging.WithOwnerID(ctx, cfg.Owner)

			// Load validates the theme name.
			palette, _ := styles.GetPalette(cfg.Theme)
			styles.SetTheme(palette)

			database, err = openDatabase(cfg)
			if err != nil {
				return ctx, fmt.Errorf("open database: %w", err)
			}

			taskStore := stores.NewTaskStore(database, logging.Component("store"))
			ledgerStore := stores.NewLedgerStore(database, cfg.Owner)
			notifyStore := stores.NewNotifyStore(database)

			bus := eventbus.New(64)
			busCtx, cancel := context.WithCancel(context.Background())
			busCancel = cancel
			go bus.Start(busCtx)

			eventbus.RegisterDebugLogger(bus, logging.Component("eventbus"))
			eventbus.NewNotificationRouter(bus).Register()

			if cfg.Notifications.IsEnabled() {
				sinks := notify.Multi{notify.NewStoreNotifier(notifyStore)}
				if cfg.Notifications.Terminal {
					sinks = append(sinks, notify.NewWriterNotifier(os.Stderr))
				}
				eventbus.ForwardNotifications(bus, sinks, logging.Component("notify"))
			}

			tasks := tracker.NewTaskService(taskStore, cfg.Owner, bus, logging.ForOwner("tasks", cfg.Owner))
			if err := tasks.Start(ctx); err != nil {
				return ctx, fmt.Errorf("load tasks: %w", err)
			}

			timerSvc, err := tracker.NewTimerService(ctx, ledgerStore, tasks.Mirror(), bus, log.Logger,
				timer.WithBudget(cfg.Timer.Duration),
			)
			if err != nil {
				return ctx, fmt.Errorf("start timer: %w", err)
			}

			// Commands already hold a pointer to the App.
			*tallyApp = *tracker.NewApp(tasks, timerSvc, notifyStore, cfg, database, bus, log.Logger)
			tallyApp.Refresher = taskStore
			flags.Config = cfg

			return printer.NewContext(ctx, printer.New(os.Stdout, os.Stderr)), nil
		},
		After: func(ctx context.Context, c *cli.Command) error {
			// Deliver queued notifications before the process exits.
			if tallyApp.Bus != nil {
				flushCtx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
				if err := tallyApp.Bus.Flush(flushCtx); err != nil {
					log.Warn().Err(err).Msg("event bus did not drain")
				}
				cancel()
			}
			if busCancel != nil {
				busCancel()
			}

			if tallyApp.Tasks != nil {
				tallyApp.Close()
			}

			if database != nil {
				if err := database.Close(); err != nil {
					log.Error().Err(err).Msg("failed to close database")
					return err
				}
			}

			if logCloser != nil {
				logCloser()
			}
			return nil
		},
	}

	app = commands.NewAddCmd(flags, tallyApp).Register(app)
	app = commands.NewLsCmd(flags, tallyApp).Register(app)
	app = commands.NewShowCmd(flags, tallyApp).Register(app)
	app = commands.NewEditCmd(flags, tallyApp).Register(app)
	app = commands.NewToggleCmd(flags, tallyApp).Register(app)
	app = commands.NewRmCmd(flags, tallyApp).Register(app)
	app = commands.NewBulkCmd(flags, tallyApp).Register(app)
	app = commands.NewExportCmd(flags, tallyApp).Register(app)
	app = commands.NewImportCmd(flags, tallyApp).Register(app)
	app = commands.NewStatsCmd(flags, tallyApp).Register(app)
	app = commands.NewTimerCmd(flags, tallyApp).Register(app)
	app = commands.NewNotificationsCmd(flags, tallyApp).Register(app)
	app = commands.NewWatchCmd(flags, tallyApp).Register(app)
	app = commands.NewConfigCmd(flags).Register(app)

	exitCode := 0
	runErr := app.Run(ctx, os.Args)
	if runErr != nil {
		fmt.Fprintln(os.Stderr, runErr.Error())
		exitCode = 1
	}

	os.Exit(exitCode)
}
