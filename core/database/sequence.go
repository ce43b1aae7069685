package database

import (
	"fmt"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// IDSequence is the explicit "next identifier" of one entity table. Organic
// inserts draw identifiers from it; imports that carry their own identifiers
// push it forward with Resync.
type IDSequence struct {
	Entity string `gorm:"primaryKey;size:64"`
	NextID int64  `gorm:"not null"`
}

// TableName pins the sequence table name.
func (IDSequence) TableName() string {
	return "id_sequences"
}

// NextID reserves and returns the next identifier for table. It must run
// inside a transaction; the increment happens before the read so concurrent
// writers serialise on the sequence row.
func NextID(tx *gorm.DB, table string) (int64, error) {
	bumped, err := bump(tx, table)
	if err != nil {
		return 0, err
	}
	if !bumped {
		if err := seed(tx, table); err != nil {
			return 0, err
		}
		if bumped, err = bump(tx, table); err != nil {
			return 0, err
		}
		if !bumped {
			return 0, fmt.Errorf("sequence for %s could not be initialised", table)
		}
	}

	var seq IDSequence
	if err := tx.Where("entity = ?", table).Take(&seq).Error; err != nil {
		return 0, fmt.Errorf("failed to read sequence for %s: %w", table, err)
	}
	return seq.NextID - 1, nil
}

// Resync moves the sequence of table so the next identifier is strictly
// greater than every identifier present. It never moves a sequence backwards.
// Returns the resulting next identifier.
func Resync(tx *gorm.DB, table string) (int64, error) {
	maxID, err := MaxID(tx, table)
	if err != nil {
		return 0, err
	}

	if err := seed(tx, table); err != nil {
		return 0, err
	}

	err = tx.Model(&IDSequence{}).
		Where("entity = ? AND next_id <= ?", table, maxID).
		UpdateColumn("next_id", maxID+1).Error
	if err != nil {
		return 0, fmt.Errorf("failed to resync sequence for %s: %w", table, err)
	}

	var seq IDSequence
	if err := tx.Where("entity = ?", table).Take(&seq).Error; err != nil {
		return 0, fmt.Errorf("failed to read sequence for %s: %w", table, err)
	}
	return seq.NextID, nil
}

// MaxID returns the largest id in table, or 0 when it is empty.
func MaxID(tx *gorm.DB, table string) (int64, error) {
	var maxID int64
	if err := tx.Table(table).Select("COALESCE(MAX(id), 0)").Scan(&maxID).Error; err != nil {
		return 0, fmt.Errorf("failed to read max id of %s: %w", table, err)
	}
	return maxID, nil
}

func bump(tx *gorm.DB, table string) (bool, error) {
	res := tx.Model(&IDSequence{}).
		Where("entity = ?", table).
		UpdateColumn("next_id", gorm.Expr("next_id + 1"))
	if res.Error != nil {
		return false, fmt.Errorf("failed to advance sequence for %s: %w", table, res.Error)
	}
	return res.RowsAffected > 0, nil
}

// seed creates the sequence row for table from the current max id if it does
// not exist yet.
func seed(tx *gorm.DB, table string) error {
	maxID, err := MaxID(tx, table)
	if err != nil {
		return err
	}
	err = tx.Clauses(clause.OnConflict{DoNothing: true}).
		Create(&IDSequence{Entity: table, NextID: maxID + 1}).Error
	if err != nil {
		return fmt.Errorf("failed to seed sequence for %s: %w", table, err)
	}
	return nil
}
