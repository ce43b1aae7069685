package checks

import (
	"context"
	"testing"

	"fleet-manager/core/database"
	"fleet-manager/feature/fleet/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

func TestSequencedTables(t *testing.T) {
	db := newMemoryDB(t)

	tables, err := SequencedTables(db, models.All()...)
	require.NoError(t, err)
	assert.NotContains(t, tables, "config")
	assert.Contains(t, tables, "equipment_types")
	assert.Contains(t, tables, "checklist_answers")
	assert.Len(t, tables, len(models.All())-1)
}

func TestCheckAndFixSequences(t *testing.T) {
	db := newMemoryDB(t)
	require.NoError(t, database.Migrate(db, models.All()...))
	ctx := context.Background()

	// regions: sequence seeded then overtaken by an explicit insert.
	require.NoError(t, db.Transaction(func(tx *gorm.DB) error {
		_, err := database.NextID(tx, "regions")
		return err
	}))
	require.NoError(t, db.Create(&models.SavedRegion{ID: 40, Name: "Port", Zoom: 3}).Error)
	require.NoError(t, db.Create(&models.EquipmentType{ID: 3, Name: "Truck"}).Error)

	reports, err := CheckSequences(ctx, db, []string{"regions", "equipment_types"})
	require.NoError(t, err)
	require.Len(t, reports, 2)

	assert.Equal(t, SequenceBehind, reports[0].Status)
	assert.Equal(t, int64(40), reports[0].MaxID)
	require.NotNil(t, reports[0].NextID)
	assert.Equal(t, int64(2), *reports[0].NextID)

	assert.Equal(t, SequenceUnseeded, reports[1].Status)
	assert.Nil(t, reports[1].NextID)

	require.NoError(t, FixSequences(ctx, db, zap.NewNop(), reports))

	reports, err = CheckSequences(ctx, db, []string{"regions", "equipment_types"})
	require.NoError(t, err)
	assert.Equal(t, SequenceOK, reports[0].Status)
	assert.Equal(t, int64(41), *reports[0].NextID)
	assert.Equal(t, SequenceUnseeded, reports[1].Status)
}
