package main

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/phrazzld/clipflow-api/internal/config"
	"github.com/phrazzld/clipflow-api/internal/events"
	"github.com/phrazzld/clipflow-api/internal/generation"
	"github.com/phrazzld/clipflow-api/internal/platform/browser"
	"github.com/phrazzld/clipflow-api/internal/platform/gemini"
	"github.com/phrazzld/clipflow-api/internal/queue"
)

// application holds all the shared application dependencies to simplify
// management and ensure proper cleanup on shutdown.
type application struct {
	config *config.Config
	logger *slog.Logger

	planner   generation.Planner
	executor  *browser.Executor
	scheduler *queue.Scheduler
	emitter   *events.InMemoryEmitter
}

// newApplication creates a new application instance with all dependencies
// initialized. The scheduler is started here; cleanup stops it again.
func newApplication(ctx context.Context, cfg *config.Config, logger *slog.Logger) (*application, error) {
	app := &application{
		config: cfg,
		logger: logger,
	}

	// The planner is optional. Without an API key instructions are
	// forwarded to the bridge verbatim.
	if cfg.LLM.GeminiAPIKey != "" {
		planner, err := gemini.NewPlanner(ctx, logger.With("component", "edit_planner"), cfg.LLM)
		if err != nil {
			return nil, fmt.Errorf("failed to initialize edit planner: %w", err)
		}
		app.planner = planner
		logger.Info("edit planner initialized", "model", cfg.LLM.ModelName)
	} else {
		logger.Info("no LLM API key configured, running without an edit planner")
	}

	executor, err := browser.NewExecutor(
		cfg.Executor,
		app.planner,
		logger.With("component", "browser_executor"),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize render executor: %w", err)
	}
	app.executor = executor

	app.emitter = events.NewInMemoryEmitter(logger)
	app.emitter.RegisterHandler(events.NewLogHandler(logger))

	app.scheduler = queue.NewScheduler(executor, queue.SchedulerConfig{
		Capacity:         cfg.Queue.Capacity,
		OperationTimeout: time.Duration(cfg.Queue.OperationTimeoutSeconds) * time.Second,
		CleanupInterval:  time.Duration(cfg.Queue.CleanupIntervalSeconds) * time.Second,
		Retention:        time.Duration(cfg.Queue.RetentionMinutes) * time.Minute,
	}, app.emitter, logger.With("component", "scheduler"))
	app.scheduler.Start()

	logger.Info("Application initialized successfully")
	return app, nil
}

// Run starts the application server, handling lifecycle and cleanup.
func (app *application) Run(ctx context.Context) error {
	router := app.setupRouter()

	if err := app.startHTTPServer(ctx, router); err != nil {
		return fmt.Errorf("server error: %w", err)
	}
	return nil
}

// cleanup handles graceful shutdown of application resources.
func (app *application) cleanup() {
	if app.scheduler != nil {
		app.scheduler.Stop()
	}
	app.logger.Info("Application shutdown completed")
}
