package integrity

import (
	"context"

	"fleet-manager/core/storage"
	"fleet-manager/feature/fleet/models"
	"fleet-manager/feature/integrity/checks"

	"go.uber.org/zap"
	"gorm.io/gorm"
)

// Service handles integrity checks.
type Service struct {
	db      *gorm.DB
	client  storage.Client
	storage storage.Config
	logger  *zap.Logger
	models  []any
}

// NewService creates a new integrity service. client may be nil when object
// storage is not configured.
func NewService(db *gorm.DB, client storage.Client, cfg storage.Config, logger *zap.Logger) *Service {
	return &Service{
		db:      db,
		client:  client,
		storage: cfg,
		logger:  logger,
		models:  models.All(),
	}
}

// CheckSchema compares the live tables with the entity models.
func (s *Service) CheckSchema() (*checks.SchemaReport, error) {
	return checks.CheckSchema(s.db, s.models...)
}

// CheckSequences reports identifier sequences lagging behind their tables.
func (s *Service) CheckSequences(ctx context.Context) ([]checks.SequenceReport, error) {
	tables, err := checks.SequencedTables(s.db, s.models...)
	if err != nil {
		return nil, err
	}
	return checks.CheckSequences(ctx, s.db, tables)
}

// FixSequences repairs the lagging sequences in reports.
func (s *Service) FixSequences(ctx context.Context, reports []checks.SequenceReport) error {
	return checks.FixSequences(ctx, s.db, s.logger, reports)
}

// CheckStorage inspects the snapshot archive bucket.
func (s *Service) CheckStorage(ctx context.Context) (*checks.StorageReport, error) {
	if s.client == nil {
		return nil, ErrStorageDisabled
	}
	return checks.CheckStorage(ctx, s.client, s.storage.Bucket, s.storage.SnapshotPrefix)
}

// FixStorage creates the snapshot archive bucket.
func (s *Service) FixStorage(ctx context.Context) error {
	if s.client == nil {
		return ErrStorageDisabled
	}
	return checks.FixStorage(ctx, s.client, s.storage.Bucket, s.storage.Region, s.logger)
}
