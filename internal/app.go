// Package internal contains core application functionality
package internal

import (
	"errors"
	"fmt"
	"log/slog"

	"github.com/karloscodes/cartridge"

	"ackee/internal/config"
	"ackee/internal/database"
	"ackee/internal/jobs"
	"ackee/internal/tokens"
)

// Application wraps cartridge.Application with the ackee specific components
type Application struct {
	*cartridge.Application
	DBManager *database.DBManager
}

// NewApp creates a new application instance with default settings
func NewApp() (*Application, error) {
	return NewAppWithConfig(config.GetConfig())
}

// NewAppWithConfig creates a new application with the provided config
func NewAppWithConfig(cfg *config.Config) (*Application, error) {
	logger := cartridge.NewLogger(cfg, nil)

	dbManager := database.NewDBManager(cfg, logger)
	if err := dbManager.Init(); err != nil {
		return nil, fmt.Errorf("failed to initialize database: %w", err)
	}

	creds, err := tokens.NewCredentials(cfg.Username, cfg.Password)
	if err != nil {
		if !errors.Is(err, tokens.ErrNoCredentials) {
			return nil, fmt.Errorf("failed to prepare credentials: %w", err)
		}
		logger.Warn("ACKEE_USERNAME and ACKEE_PASSWORD are not set, login is disabled")
	}

	scheduler := jobs.NewScheduler(dbManager, logger, cfg, nil)

	app, err := cartridge.NewApplication(cartridge.ApplicationOptions{
		Config:    cfg,
		Logger:    logger,
		DBManager: dbManager,
		RouteMountFunc: func(srv *cartridge.Server) {
			MountAppRoutes(srv, cfg, creds)
		},
		BackgroundWorkers: []cartridge.BackgroundWorker{scheduler},
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create application: %w", err)
	}

	logger.Info("Application created",
		slog.String("environment", cfg.Environment),
		slog.Bool("login_enabled", creds != nil))

	return &Application{
		Application: app,
		DBManager:   dbManager,
	}, nil
}
