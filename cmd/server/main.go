// Package main implements the entry point for the clipflow API server,
// which queues video edit operations against a single shared browser
// render session and exposes their lifecycle over HTTP.
package main

import (
	"context"
	"fmt"
	"log"
	"log/slog"

	"github.com/phrazzld/clipflow-api/internal/config"
	"github.com/phrazzld/clipflow-api/internal/platform/logger"
)

func main() {
	ctx := context.Background()

	cfg, appLogger, err := initializeApp()
	if err != nil {
		log.Fatalf("Failed to initialize application: %v", err)
	}

	app, err := newApplication(ctx, cfg, appLogger)
	if err != nil {
		log.Fatalf("Failed to build application: %v", err)
	}

	if err := app.Run(ctx); err != nil {
		log.Fatalf("Server error: %v", err)
	}
}

// initializeApp loads configuration and sets up structured logging.
func initializeApp() (*config.Config, *slog.Logger, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, nil, fmt.Errorf("failed to load configuration: %w", err)
	}

	appLogger, err := logger.Setup(cfg.Server)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to set up logger: %w", err)
	}

	appLogger.Info("Server configuration loaded",
		"port", cfg.Server.Port,
		"log_level", cfg.Server.LogLevel,
		"queue_capacity", cfg.Queue.Capacity,
		"bridge_url", cfg.Executor.BridgeURL)

	if cfg.LLM.GeminiAPIKey != "" {
		appLogger.Debug("LLM configuration", "api_key_present", true, "model", cfg.LLM.ModelName)
	}
	if cfg.Auth.TokenSecret != "" {
		appLogger.Debug("Auth configuration", "token_secret_present", true)
	}

	return cfg, appLogger, nil
}
