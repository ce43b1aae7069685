package snapshot

import (
	"fmt"

	"fleet-manager/core/reconcile"
	"fleet-manager/feature/fleet/models"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// Collections returns the restore adapters in dependency order, parents
// before children. ChecklistAnswer's orphan guard relies on ChecklistRun
// being applied earlier in the same pass.
func Collections() []reconcile.Collection {
	return []reconcile.Collection{
		configCollection{},
		&entityCollection[models.EquipmentType]{name: KeyEquipmentTypes, decode: decodeEquipmentType},
		&entityCollection[models.SavedRegion]{name: KeyRegions, decode: decodeRegion},
		&entityCollection[models.GeofenceArea]{name: KeyAreas, decode: decodeArea},
		&entityCollection[models.RegisteredAsset]{name: KeyAssets, decode: decodeAsset},
		&entityCollection[models.PositionRecord]{name: KeyPositions, decode: decodePosition},
		&entityCollection[models.ChecklistQuestion]{name: KeyChecklistQuestions, decode: decodeQuestion},
		&entityCollection[models.ChecklistRun]{name: KeyChecklistRuns, decode: decodeRun},
		&entityCollection[models.ChecklistAnswer]{name: KeyChecklistAnswers, decode: decodeAnswer, guard: runExists},
	}
}

// configCollection overwrites values of existing keys.
type configCollection struct{}

func (configCollection) Name() string  { return KeyConfig }
func (configCollection) Table() string { return "" }

func (configCollection) Validate(rows []reconcile.Row) ([]reconcile.Record, error) {
	records := make([]reconcile.Record, 0, len(rows))
	seen := make(map[string]int, len(rows))
	for i, row := range rows {
		f := fields{row: row, index: i}
		key, err := f.name("key")
		if err != nil {
			return nil, err
		}
		value, err := f.text("value")
		if err != nil {
			return nil, err
		}
		// A repeated key keeps the last value, as sequential upserts would.
		if j, ok := seen[key]; ok {
			records[j] = &models.Config{Key: key, Value: value}
			continue
		}
		seen[key] = len(records)
		records = append(records, &models.Config{Key: key, Value: value})
	}
	return records, nil
}

func (configCollection) Apply(tx *gorm.DB, rec reconcile.Record) (reconcile.Outcome, error) {
	cfg := rec.(*models.Config)

	var n int64
	if err := tx.Model(&models.Config{}).Where(map[string]any{"key": cfg.Key}).Count(&n).Error; err != nil {
		return 0, err
	}

	err := tx.Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "key"}},
		DoUpdates: clause.AssignmentColumns([]string{"value"}),
	}).Create(cfg).Error
	if err != nil {
		return 0, err
	}

	if n > 0 {
		return reconcile.OutcomeUpdated, nil
	}
	return reconcile.OutcomeInserted, nil
}

// entity is a model keyed by a caller-visible identifier.
type entity interface {
	TableName() string
}

// entityCollection inserts records whose identifier is absent and leaves
// existing rows untouched. guard, when set, can drop a record whose parent
// is missing.
type entityCollection[T entity] struct {
	name   string
	decode func(f fields) (*T, int64, error)
	guard  func(tx *gorm.DB, rec *T) (bool, error)
}

type entityRecord[T entity] struct {
	id    int64
	model *T
}

func (c *entityCollection[T]) Name() string {
	return c.name
}

func (c *entityCollection[T]) Table() string {
	var zero T
	return zero.TableName()
}

func (c *entityCollection[T]) Validate(rows []reconcile.Row) ([]reconcile.Record, error) {
	records := make([]reconcile.Record, len(rows))
	for i, row := range rows {
		model, id, err := c.decode(fields{row: row, index: i})
		if err != nil {
			return nil, err
		}
		records[i] = entityRecord[T]{id: id, model: model}
	}
	return records, nil
}

func (c *entityCollection[T]) Apply(tx *gorm.DB, rec reconcile.Record) (reconcile.Outcome, error) {
	r := rec.(entityRecord[T])

	var n int64
	if err := tx.Table(c.Table()).Where("id = ?", r.id).Count(&n).Error; err != nil {
		return 0, err
	}
	if n > 0 {
		return reconcile.OutcomeExisting, nil
	}

	if c.guard != nil {
		ok, err := c.guard(tx, r.model)
		if err != nil {
			return 0, err
		}
		if !ok {
			return reconcile.OutcomeOrphaned, nil
		}
	}

	if err := tx.Omit(clause.Associations).Create(r.model).Error; err != nil {
		return 0, fmt.Errorf("insert %s id %d: %w", c.name, r.id, err)
	}
	return reconcile.OutcomeInserted, nil
}

func runExists(tx *gorm.DB, answer *models.ChecklistAnswer) (bool, error) {
	var n int64
	if err := tx.Model(&models.ChecklistRun{}).Where("id = ?", answer.RunID).Count(&n).Error; err != nil {
		return false, err
	}
	return n > 0, nil
}

func decodeEquipmentType(f fields) (*models.EquipmentType, int64, error) {
	var (
		m   models.EquipmentType
		err error
	)
	if m.ID, err = f.id("id"); err != nil {
		return nil, 0, err
	}
	if m.Name, err = f.name("name"); err != nil {
		return nil, 0, err
	}
	if m.Icon, err = f.optString("icon"); err != nil {
		return nil, 0, err
	}
	return &m, m.ID, nil
}

func decodeRegion(f fields) (*models.SavedRegion, int64, error) {
	var (
		m   models.SavedRegion
		err error
	)
	if m.ID, err = f.id("id"); err != nil {
		return nil, 0, err
	}
	if m.Name, err = f.name("name"); err != nil {
		return nil, 0, err
	}
	if m.Latitude, err = f.float("latitude"); err != nil {
		return nil, 0, err
	}
	if m.Longitude, err = f.float("longitude"); err != nil {
		return nil, 0, err
	}
	zoom, err := f.int64("zoom")
	if err != nil {
		return nil, 0, err
	}
	m.Zoom = int(zoom)
	return &m, m.ID, nil
}

func decodeArea(f fields) (*models.GeofenceArea, int64, error) {
	var (
		m   models.GeofenceArea
		err error
	)
	if m.ID, err = f.id("id"); err != nil {
		return nil, 0, err
	}
	if m.Name, err = f.name("name"); err != nil {
		return nil, 0, err
	}
	if m.Geometry, err = f.object("geometry"); err != nil {
		return nil, 0, err
	}
	if m.Color, err = f.color("color", models.DefaultAreaColor); err != nil {
		return nil, 0, err
	}
	return &m, m.ID, nil
}

func decodeAsset(f fields) (*models.RegisteredAsset, int64, error) {
	var (
		m   models.RegisteredAsset
		err error
	)
	if m.ID, err = f.id("id"); err != nil {
		return nil, 0, err
	}
	if m.Name, err = f.name("name"); err != nil {
		return nil, 0, err
	}
	if m.TypeID, err = f.optID("type_id"); err != nil {
		return nil, 0, err
	}
	if m.Color, err = f.color("color", models.DefaultAssetColor); err != nil {
		return nil, 0, err
	}
	// Unparsable dates are kept; the classifier reports them.
	if m.ManufacturedAt, err = f.optString("manufactured_at"); err != nil {
		return nil, 0, err
	}
	return &m, m.ID, nil
}

func decodePosition(f fields) (*models.PositionRecord, int64, error) {
	var (
		m   models.PositionRecord
		err error
	)
	if m.ID, err = f.id("id"); err != nil {
		return nil, 0, err
	}
	if m.Equipment, err = f.name("equipment"); err != nil {
		return nil, 0, err
	}
	if m.Latitude, err = f.float("latitude"); err != nil {
		return nil, 0, err
	}
	if m.Longitude, err = f.float("longitude"); err != nil {
		return nil, 0, err
	}
	if m.RecordedAt, err = f.time("recorded_at"); err != nil {
		return nil, 0, err
	}
	if m.SyncedAt, err = f.optTime("synced_at"); err != nil {
		return nil, 0, err
	}
	if m.Note, err = f.optText("note", ""); err != nil {
		return nil, 0, err
	}
	if m.Color, err = f.color("color", models.DefaultAssetColor); err != nil {
		return nil, 0, err
	}
	return &m, m.ID, nil
}

func decodeQuestion(f fields) (*models.ChecklistQuestion, int64, error) {
	var (
		m   models.ChecklistQuestion
		err error
	)
	if m.ID, err = f.id("id"); err != nil {
		return nil, 0, err
	}
	if m.TypeID, err = f.id("type_id"); err != nil {
		return nil, 0, err
	}
	if m.Text, err = f.name("text"); err != nil {
		return nil, 0, err
	}
	return &m, m.ID, nil
}

func decodeRun(f fields) (*models.ChecklistRun, int64, error) {
	var (
		m   models.ChecklistRun
		err error
	)
	if m.ID, err = f.id("id"); err != nil {
		return nil, 0, err
	}
	if m.Equipment, err = f.name("equipment"); err != nil {
		return nil, 0, err
	}
	if m.Operator, err = f.name("operator"); err != nil {
		return nil, 0, err
	}
	if m.PerformedAt, err = f.time("performed_at"); err != nil {
		return nil, 0, err
	}
	return &m, m.ID, nil
}

func decodeAnswer(f fields) (*models.ChecklistAnswer, int64, error) {
	var (
		m   models.ChecklistAnswer
		err error
	)
	if m.ID, err = f.id("id"); err != nil {
		return nil, 0, err
	}
	if m.RunID, err = f.id("run_id"); err != nil {
		return nil, 0, err
	}
	if m.Question, err = f.name("question"); err != nil {
		return nil, 0, err
	}
	if m.Compliant, err = f.bool("compliant"); err != nil {
		return nil, 0, err
	}
	if m.Note, err = f.optText("note", ""); err != nil {
		return nil, 0, err
	}
	if m.Photo, err = f.optString("photo"); err != nil {
		return nil, 0, err
	}
	return &m, m.ID, nil
}
