package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"

	"github.com/desertthunder/mazeed/internal/repositories"
	"github.com/desertthunder/mazeed/internal/server"
	"github.com/desertthunder/mazeed/internal/services"
	"github.com/desertthunder/mazeed/internal/session"
	"github.com/desertthunder/mazeed/internal/shared"
	"github.com/desertthunder/mazeed/internal/tasks"
	"github.com/desertthunder/mazeed/internal/toast"
	"github.com/urfave/cli/v3"
)

const tuiLogFile = "./tmp/mazeed-tui.log"

func main() {
	logger := shared.NewLogger(nil)
	if err := shared.LoadEnv(); err != nil {
		logger.Warn("failed to load .env", "error", err)
	}

	runner := NewRunner(RunnerOpts{Logger: logger})

	app := &cli.Command{
		Name:    "mazeed",
		Usage:   "Turn Instagram content into YouTube and TikTok videos",
		Version: "0.1.0",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "config",
				Aliases: []string{"c"},
				Usage:   "Path to configuration file",
				Value:   "config.toml",
				Sources: cli.EnvVars("MAZEED_CONFIG"),
			},
		},
		After:    runner.Close,
		Commands: runner.register(),
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	if err := app.Run(ctx, os.Args); err != nil {
		switch {
		case errors.Is(err, context.Canceled):
			os.Exit(130)
		case errors.Is(err, shared.ErrNotAuthenticated), errors.Is(err, shared.ErrValidation):
			logger.Error(err)
			os.Exit(1)
		default:
			logger.Fatalf("application error: %v", err)
		}
	}
}

// loadConfig reads the config file when present, then applies env overrides.
func loadConfig(path string) (*shared.Config, error) {
	config := shared.DefaultConfig()
	if _, err := os.Stat(path); err == nil {
		if config, err = shared.LoadConfig(path); err != nil {
			return nil, err
		}
	}
	config.ApplyEnv()
	if err := config.Validate(); err != nil {
		return nil, err
	}
	return config, nil
}

// Open wires the backend clients, storage and flows for a command. It is a
// Before hook; repeated calls are no-ops.
func (r *Runner) Open(ctx context.Context, cmd *cli.Command) (context.Context, error) {
	if r.jobs != nil {
		return ctx, nil
	}

	path := cmd.String("config")
	config, err := loadConfig(path)
	if err != nil {
		return ctx, err
	}

	logFile := config.Logging.File
	if logFile == "" && cmd.Name == "tui" {
		// log lines would interleave with the rendered screen
		logFile = tuiLogFile
	}

	logger := r.logger
	if logFile != "" {
		fileLogger, closer, err := shared.NewFileLogger(logFile)
		if err != nil {
			return ctx, err
		}
		r.closers = append(r.closers, closer)
		logger = fileLogger
	}
	shared.SetLogLevel(logger, shared.ParseLogLevel(config.Logging.Level))

	db, err := shared.OpenDatabase(config.Database)
	if err != nil {
		return ctx, fmt.Errorf("failed to open database: %w", err)
	}
	r.closers = append(r.closers, db)

	store := repositories.NewStorageRepository(db)
	creds := repositories.NewCredentialStore(store)
	history := repositories.NewJobRepository(db)

	toasts := toast.NewBus(toast.BusOpts{Logger: logger})
	base := &http.Client{Timeout: config.API.Timeout()}
	auth := services.NewAuthService(config.API.BaseURL, base, shared.WithLogger(logger, "service", "auth"))

	manager := session.NewManager(session.ManagerOpts{
		Auth:      auth,
		Store:     creds,
		Navigator: r,
		Notifier:  toasts,
		Logger:    logger,
	})

	src := services.NewCredentialSource(ctx, services.CredentialSourceOpts{
		Store:     creds,
		Refresher: auth,
		OnFailure: manager.ForceLogout,
		Logger:    logger,
	})
	client := services.NewAuthorizedClient(src, base)

	jobs := tasks.NewJobRunner(tasks.RunnerOpts{
		Jobs:      services.NewTransformationService(config.API.BaseURL, client, shared.WithLogger(logger, "service", "transformations")),
		Uploads:   services.NewUploadService(config.API.BaseURL, client, shared.WithLogger(logger, "service", "uploads")),
		History:   history,
		UserID:    r.userID,
		Notifier:  toasts,
		Logger:    logger,
		Polling:   tasks.PollOptsFromConfig(config.Polling),
		Downloads: tasks.DownloadOptsFromConfig(config.Downloads),
	})

	connector := server.NewConnectFlow(server.ConnectFlowOpts{
		BaseURL:  config.API.ConnectURL,
		Host:     config.Server.Host,
		Port:     config.Server.Port,
		Timeout:  config.Server.ConnectTimeout(),
		UserID:   r.userID,
		Notifier: toasts,
		Logger:   shared.WithLogger(logger, "component", "connect"),
	})

	r.init(RunnerOpts{
		Config:     config,
		ConfigPath: path,
		Store:      store,
		History:    history,
		Session:    manager,
		API:        services.NewAPIService(config.API.BaseURL, client),
		Jobs:       jobs,
		Connector:  connector,
		Toasts:     toasts,
		Logger:     logger,
		Output:     r.output,
	})
	return ctx, nil
}

// Close releases the database and log file opened by [Runner.Open].
func (r *Runner) Close(ctx context.Context, cmd *cli.Command) error {
	var errs []error
	for i := len(r.closers) - 1; i >= 0; i-- {
		errs = append(errs, r.closers[i].Close())
	}
	r.closers = nil
	return errors.Join(errs...)
}
