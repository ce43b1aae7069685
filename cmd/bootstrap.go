package cmd

import (
	"fmt"

	"fleet-manager/core/config"
	"fleet-manager/core/database"
	"fleet-manager/core/logger"
	"fleet-manager/core/storage"

	"go.uber.org/zap"
	"gorm.io/gorm"
)

// deps bundles what every command needs.
type deps struct {
	cfg    *config.Config
	logger *zap.Logger
	db     *gorm.DB
	store  storage.Client
}

// bootstrap loads configuration, builds the logger and connects to the
// database. Object storage is optional: it stays nil without an endpoint.
func bootstrap() (*deps, error) {
	cfg, err := config.LoadConfig(configPath)
	if err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}

	logg, err := logger.New(&cfg.Log)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize logger: %w", err)
	}

	db, err := database.Connect(cfg.Database)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}
	logg = logg.With(zap.String("driver", cfg.Database.Driver))

	rt := &deps{cfg: cfg, logger: logg, db: db}
	if cfg.Storage.Enabled() {
		client, err := storage.NewClient(cfg.Storage)
		if err != nil {
			return nil, fmt.Errorf("failed to create storage client: %w", err)
		}
		rt.store = client
	} else {
		logg.Warn("Object storage not configured; snapshot archives disabled")
	}
	return rt, nil
}
