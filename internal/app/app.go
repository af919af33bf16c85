// Package app initializes and holds long-lived application services, acting
// as a dependency injection container.
package app

import (
	"context"
	"fmt"
	"net/http"

	"go.uber.org/zap"

	"github.com/streamcat/hotstar-crawler/internal/catalog"
	"github.com/streamcat/hotstar-crawler/internal/config"
	"github.com/streamcat/hotstar-crawler/internal/logging"
	"github.com/streamcat/hotstar-crawler/internal/metrics"
	"github.com/streamcat/hotstar-crawler/internal/storage/memory"
	"github.com/streamcat/hotstar-crawler/internal/storage/postgres"
)

// App holds the shared, long-lived services for the application: the
// logger, the catalog store, and the loaded configuration. It is built once
// at startup and injected into the commands that need it.
type App struct {
	cfg    config.Config
	logger *zap.Logger
	store  catalog.Store
}

// Config returns the loaded configuration.
func (a *App) Config() config.Config {
	return a.cfg
}

// Logger returns the shared zap logger instance.
func (a *App) Logger() *zap.Logger {
	return a.logger
}

// Store returns the configured catalog store.
func (a *App) Store() catalog.Store {
	return a.store
}

// New creates and initializes an App from configuration. It fails fast if
// any critical service cannot be initialized.
func New(ctx context.Context, cfg config.Config) (*App, error) {
	logger, err := logging.New(cfg.Logging.Development)
	if err != nil {
		return nil, fmt.Errorf("init logger: %w", err)
	}
	logger.Info("Initializing application services...")

	var store catalog.Store
	switch cfg.DB.Provider {
	case "postgres":
		logger.Info("Connecting to PostgreSQL...")
		store, err = postgres.NewCatalogStore(ctx, postgres.CatalogStoreConfig{
			DSN:             cfg.DB.DSN,
			MaxConns:        cfg.DB.MaxConns,
			MinConns:        cfg.DB.MinConns,
			MaxConnLifetime: cfg.DB.ConnLifetime(),
		})
		if err != nil {
			return nil, fmt.Errorf("init catalog store: %w", err)
		}
	case "memory":
		logger.Info("Using in-memory catalog store. Data will be discarded on exit.")
		store = memory.NewCatalogStore()
	default:
		return nil, fmt.Errorf("unknown db provider: %s", cfg.DB.Provider)
	}

	if cfg.Metrics.Enabled {
		metrics.Init()
		addr := fmt.Sprintf(":%d", cfg.Metrics.Port)
		go func() {
			mux := http.NewServeMux()
			mux.Handle("/metrics", metrics.Handler())
			logger.Info("Starting metrics server", zap.String("addr", addr))
			if err := http.ListenAndServe(addr, mux); err != nil {
				logger.Error("Metrics server failed", zap.Error(err))
			}
		}()
	}

	logger.Info("Application services initialized successfully.")
	return &App{cfg: cfg, logger: logger, store: store}, nil
}

// Close gracefully shuts down the services held by the App.
func (a *App) Close() {
	a.logger.Info("Shutting down application services...")
	a.store.Close()

	// Flushing the logger buffer is best effort; logging itself may be the
	// thing that is failing.
	_ = a.logger.Sync()
}
