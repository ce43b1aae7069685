package checks

import (
	"testing"

	"fleet-manager/core/database"
	"fleet-manager/feature/fleet/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

func newMemoryDB(t *testing.T) *gorm.DB {
	t.Helper()
	db, err := database.Connect(database.Config{Driver: database.DriverSQLite, Name: ":memory:"})
	require.NoError(t, err)
	return db
}

func TestCheckSchema(t *testing.T) {
	t.Run("Nil DB", func(t *testing.T) {
		report, err := CheckSchema(nil, models.All()...)
		assert.Error(t, err)
		assert.Nil(t, report)
	})

	t.Run("Migrated", func(t *testing.T) {
		db := newMemoryDB(t)
		require.NoError(t, database.Migrate(db, models.All()...))

		report, err := CheckSchema(db, models.All()...)
		require.NoError(t, err)
		assert.True(t, report.Matched, "%+v", report.Tables)
		assert.Len(t, report.Tables, len(models.All()))
		assert.Equal(t, "ok", report.Tables["areas"].Status)
	})

	t.Run("Missing Table", func(t *testing.T) {
		db := newMemoryDB(t)
		require.NoError(t, db.AutoMigrate(&models.EquipmentType{}))

		report, err := CheckSchema(db, &models.EquipmentType{}, &models.SavedRegion{})
		require.NoError(t, err)
		assert.False(t, report.Matched)
		assert.Equal(t, "ok", report.Tables["equipment_types"].Status)
		assert.True(t, report.Tables["regions"].MissingTable)
	})

	t.Run("Missing Column And Type Mismatch", func(t *testing.T) {
		db := newMemoryDB(t)
		require.NoError(t, db.Exec("CREATE TABLE regions (id integer PRIMARY KEY, name text, latitude text, longitude real)").Error)

		report, err := CheckSchema(db, &models.SavedRegion{})
		require.NoError(t, err)
		assert.False(t, report.Matched)

		tbl := report.Tables["regions"]
		assert.Equal(t, "error", tbl.Status)
		assert.Equal(t, []string{"zoom"}, tbl.MissingColumns)
		require.Len(t, tbl.TypeMismatches, 1)
		assert.Contains(t, tbl.TypeMismatches[0], "latitude: expected float, got text")
	})
}

func TestTypeMatches(t *testing.T) {
	assert.True(t, typeMatches("int", "bigint"))
	assert.True(t, typeMatches("int", "integer"))
	assert.True(t, typeMatches("string", "varchar(120)"))
	assert.True(t, typeMatches("string", "character varying"))
	assert.True(t, typeMatches("time", "timestamp with time zone"))
	assert.True(t, typeMatches("json", "jsonb"))
	assert.True(t, typeMatches("bool", "tinyint(1)"))
	assert.True(t, typeMatches("custom", "anything"))
	assert.False(t, typeMatches("float", "varchar(10)"))
	assert.False(t, typeMatches("time", "bigint"))
}
