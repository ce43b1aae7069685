package fleet

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"fleet-manager/core/database"
	"fleet-manager/feature/fleet/models"

	"go.uber.org/zap"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

var (
	// ErrNotFound is returned when the addressed entity does not exist.
	ErrNotFound = errors.New("not found")
	// ErrNameTaken is returned when a unique name is already in use.
	ErrNameTaken = errors.New("name already in use")
	// ErrTypeInUse is returned when deleting an equipment type that assets
	// still reference.
	ErrTypeInUse = errors.New("equipment type is referenced by assets")
	// ErrInvalid is returned for collaborator input missing a required value.
	ErrInvalid = errors.New("invalid input")
)

// Store is the collaborator-facing side of the entity store. Every write
// runs in its own transaction so it is observed entirely before or after a
// concurrent restore.
type Store struct {
	db     *gorm.DB
	logger *zap.Logger
	now    func() time.Time
}

// NewStore creates a store over db.
func NewStore(db *gorm.DB, logger *zap.Logger) *Store {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Store{db: db, logger: logger, now: time.Now}
}

// NewAsset holds the collaborator-supplied fields of an asset.
type NewAsset struct {
	Name           string
	TypeID         *int64
	Color          string
	ManufacturedAt *string
}

// NewPosition holds the collaborator-supplied fields of a GPS fix.
type NewPosition struct {
	Equipment  string
	Latitude   float64
	Longitude  float64
	RecordedAt time.Time
	Note       string
}

// AssetView is an asset together with its battery status.
type AssetView struct {
	models.RegisteredAsset
	Battery Status `json:"battery"`
}

// CreateEquipmentType adds a type with the next free identifier.
func (s *Store) CreateEquipmentType(ctx context.Context, name string, icon *string) (*models.EquipmentType, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, fmt.Errorf("%w: equipment type name is required", ErrInvalid)
	}

	et := &models.EquipmentType{Name: name, Icon: icon}
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := ensureNameFree(tx, &models.EquipmentType{}, name); err != nil {
			return err
		}
		id, err := database.NextID(tx, et.TableName())
		if err != nil {
			return err
		}
		et.ID = id
		return tx.Create(et).Error
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create equipment type %q: %w", name, err)
	}
	return et, nil
}

// CreateAsset adds an asset with the next free identifier. An empty colour
// becomes the default asset colour.
func (s *Store) CreateAsset(ctx context.Context, in NewAsset) (*models.RegisteredAsset, error) {
	name := strings.TrimSpace(in.Name)
	if name == "" {
		return nil, fmt.Errorf("%w: asset name is required", ErrInvalid)
	}

	asset := &models.RegisteredAsset{
		Name:           name,
		TypeID:         in.TypeID,
		Color:          in.Color,
		ManufacturedAt: in.ManufacturedAt,
	}
	if asset.Color == "" {
		asset.Color = models.DefaultAssetColor
	}

	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := ensureNameFree(tx, &models.RegisteredAsset{}, name); err != nil {
			return err
		}
		if asset.TypeID != nil {
			var n int64
			if err := tx.Model(&models.EquipmentType{}).Where("id = ?", *asset.TypeID).Count(&n).Error; err != nil {
				return err
			}
			if n == 0 {
				return fmt.Errorf("%w: equipment type %d", ErrNotFound, *asset.TypeID)
			}
		}
		id, err := database.NextID(tx, asset.TableName())
		if err != nil {
			return err
		}
		asset.ID = id
		return tx.Omit(clause.Associations).Create(asset).Error
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create asset %q: %w", name, err)
	}
	return asset, nil
}

// RecordPosition stores a GPS fix. The equipment name and the asset's
// current colour are copied onto the record; fixes for unknown equipment get
// the default colour.
func (s *Store) RecordPosition(ctx context.Context, in NewPosition) (*models.PositionRecord, error) {
	equipment := strings.TrimSpace(in.Equipment)
	if equipment == "" {
		return nil, fmt.Errorf("%w: equipment name is required", ErrInvalid)
	}

	synced := s.now().UTC()
	pos := &models.PositionRecord{
		Equipment:  equipment,
		Latitude:   in.Latitude,
		Longitude:  in.Longitude,
		RecordedAt: in.RecordedAt.UTC(),
		SyncedAt:   &synced,
		Note:       in.Note,
		Color:      models.DefaultAssetColor,
	}

	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var asset models.RegisteredAsset
		err := tx.Where("name = ?", equipment).Take(&asset).Error
		switch {
		case err == nil:
			if asset.Color != "" {
				pos.Color = asset.Color
			}
		case errors.Is(err, gorm.ErrRecordNotFound):
		default:
			return err
		}

		id, err := database.NextID(tx, pos.TableName())
		if err != nil {
			return err
		}
		pos.ID = id
		return tx.Create(pos).Error
	})
	if err != nil {
		return nil, fmt.Errorf("failed to record position for %q: %w", equipment, err)
	}
	return pos, nil
}

// DeleteEquipmentType removes a type together with its checklist questions.
// Types still referenced by assets are refused.
func (s *Store) DeleteEquipmentType(ctx context.Context, id int64) error {
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var n int64
		if err := tx.Model(&models.RegisteredAsset{}).Where("type_id = ?", id).Count(&n).Error; err != nil {
			return err
		}
		if n > 0 {
			return ErrTypeInUse
		}

		if err := tx.Where("type_id = ?", id).Delete(&models.ChecklistQuestion{}).Error; err != nil {
			return err
		}
		res := tx.Delete(&models.EquipmentType{}, id)
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return ErrNotFound
		}
		return nil
	})
	if err != nil {
		return fmt.Errorf("failed to delete equipment type %d: %w", id, err)
	}
	s.logger.Info("Deleted equipment type", zap.Int64("id", id))
	return nil
}

// SetConfig writes a configuration value, replacing any previous one.
func (s *Store) SetConfig(ctx context.Context, key, value string) error {
	if strings.TrimSpace(key) == "" {
		return fmt.Errorf("%w: config key is required", ErrInvalid)
	}
	err := s.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "key"}},
		DoUpdates: clause.AssignmentColumns([]string{"value"}),
	}).Create(&models.Config{Key: key, Value: value}).Error
	if err != nil {
		return fmt.Errorf("failed to set config %q: %w", key, err)
	}
	return nil
}

// Thresholds returns the battery limits currently configured.
func (s *Store) Thresholds(ctx context.Context) (Thresholds, error) {
	return LoadThresholds(ctx, s.db, s.logger)
}

// ListAssets returns every asset ordered by name with its battery status.
// Thresholds are read once per call.
func (s *Store) ListAssets(ctx context.Context) ([]AssetView, error) {
	th, err := s.Thresholds(ctx)
	if err != nil {
		return nil, err
	}

	var assets []models.RegisteredAsset
	if err := s.db.WithContext(ctx).Order("name").Find(&assets).Error; err != nil {
		return nil, fmt.Errorf("failed to list assets: %w", err)
	}

	now := s.now()
	views := make([]AssetView, len(assets))
	for i, a := range assets {
		views[i] = AssetView{
			RegisteredAsset: a,
			Battery:         ClassifyAt(a.ManufacturedAt, th.Warning, th.Critical, now),
		}
	}
	return views, nil
}

func ensureNameFree(tx *gorm.DB, model any, name string) error {
	var n int64
	if err := tx.Model(model).Where("name = ?", name).Count(&n).Error; err != nil {
		return err
	}
	if n > 0 {
		return ErrNameTaken
	}
	return nil
}
