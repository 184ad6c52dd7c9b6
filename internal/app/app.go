// Package app wires configuration, ingest, partitioning, and storage into
// a runnable application.
package app

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/micromet/fvspart/pkg/config"
)

// App represents the main application
type App struct {
	configProvider config.ConfigProvider
	logger         *zap.SugaredLogger
}

// New creates a new application instance
func New(configProvider config.ConfigProvider, logger *zap.SugaredLogger) *App {
	return &App{
		configProvider: configProvider,
		logger:         logger,
	}
}

// Run starts the application and blocks until it finishes or is shut
// down. With live ingest configured it runs as a daemon; otherwise it
// processes the configured input files as a batch and exits.
func (a *App) Run(ctx context.Context) error {
	cfg, err := a.configProvider.LoadConfig()
	if err != nil {
		return fmt.Errorf("could not load configuration: %w", err)
	}

	if cfg.Ingest != nil {
		return a.runDaemon(ctx, cfg)
	}
	if cfg.Input.Glob != "" {
		return a.runBatch(ctx, cfg)
	}
	return fmt.Errorf("nothing to do: configure input.glob for batch processing or ingest for daemon mode")
}
