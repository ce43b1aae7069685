package snapshot

import (
	"fleet-manager/core/server"
	"fleet-manager/core/storage"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

// Feature implements the loader.Feature interface.
type Feature struct {
	service *Service
	handler *Handler
}

// NewFeature creates the snapshot feature. client may be nil when object
// storage is not configured.
func NewFeature(db *gorm.DB, client storage.Client, storageCfg storage.Config, serverCfg server.Config, logger *zap.Logger) *Feature {
	svc := NewService(db, client, storageCfg, logger)
	return &Feature{service: svc, handler: NewHandler(svc, serverCfg)}
}

// Name returns the name of the feature.
func (f *Feature) Name() string {
	return "snapshot"
}

// IsEnabled checks if the feature is enabled.
func (f *Feature) IsEnabled() bool {
	return true
}

// Load registers the feature's routes.
func (f *Feature) Load(app fiber.Router) error {
	f.handler.RegisterRoutes(app)
	return nil
}

// Service returns the snapshot service.
func (f *Feature) Service() *Service {
	return f.service
}
