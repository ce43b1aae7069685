package checks

import (
	"context"
	"errors"
	"fmt"

	"fleet-manager/core/database"

	"go.uber.org/zap"
	"gorm.io/gorm"
)

// Sequence states.
const (
	SequenceOK       = "ok"
	SequenceUnseeded = "unseeded"
	SequenceBehind   = "behind"
)

// SequenceReport compares a table's identifier sequence with its data.
type SequenceReport struct {
	Table  string `json:"table"`
	MaxID  int64  `json:"max_id"`
	NextID *int64 `json:"next_id"`
	Status string `json:"status"`
}

// SequencedTables returns the tables of models keyed by an integer id.
func SequencedTables(db *gorm.DB, models ...any) ([]string, error) {
	var tables []string
	for _, model := range models {
		stmt := &gorm.Statement{DB: db}
		if err := stmt.Parse(model); err != nil {
			return nil, fmt.Errorf("failed to parse model %T: %w", model, err)
		}
		pk := stmt.Schema.PrioritizedPrimaryField
		if pk != nil && pk.DBName == "id" {
			tables = append(tables, stmt.Schema.Table)
		}
	}
	return tables, nil
}

// CheckSequences reports, per table, whether the next identifier would
// collide with existing rows. Unseeded sequences are fine; they start past
// the current maximum on first use.
func CheckSequences(ctx context.Context, db *gorm.DB, tables []string) ([]SequenceReport, error) {
	reports := make([]SequenceReport, 0, len(tables))
	tx := db.WithContext(ctx)

	for _, table := range tables {
		maxID, err := database.MaxID(tx, table)
		if err != nil {
			return nil, err
		}
		r := SequenceReport{Table: table, MaxID: maxID, Status: SequenceOK}

		var seq database.IDSequence
		err = tx.Where("entity = ?", table).Take(&seq).Error
		switch {
		case errors.Is(err, gorm.ErrRecordNotFound):
			r.Status = SequenceUnseeded
		case err != nil:
			return nil, fmt.Errorf("failed to read sequence for %s: %w", table, err)
		default:
			next := seq.NextID
			r.NextID = &next
			if next <= maxID {
				r.Status = SequenceBehind
			}
		}
		reports = append(reports, r)
	}
	return reports, nil
}

// FixSequences moves every lagging sequence past its table's largest id in
// one transaction.
func FixSequences(ctx context.Context, db *gorm.DB, logger *zap.Logger, reports []SequenceReport) error {
	return db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		for _, r := range reports {
			if r.Status != SequenceBehind {
				continue
			}
			next, err := database.Resync(tx, r.Table)
			if err != nil {
				return err
			}
			logger.Info("Repaired identifier sequence", zap.String("table", r.Table), zap.Int64("next_id", next))
		}
		return nil
	})
}
