package fleet

import (
	"context"
	"errors"
	"testing"
	"time"

	"fleet-manager/core/database"
	"fleet-manager/feature/fleet/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

func newTestStore(t *testing.T) (*Store, *gorm.DB) {
	t.Helper()
	db, err := database.Connect(database.Config{Driver: database.DriverSQLite, Name: ":memory:"})
	require.NoError(t, err)
	require.NoError(t, database.Migrate(db, models.All()...))
	return NewStore(db, zap.NewNop()), db
}

func TestStore_CreateEquipmentType(t *testing.T) {
	store, _ := newTestStore(t)
	ctx := context.Background()

	truck, err := store.CreateEquipmentType(ctx, "Truck", nil)
	require.NoError(t, err)
	assert.Equal(t, int64(1), truck.ID)

	icon := "forklift.png"
	lift, err := store.CreateEquipmentType(ctx, " Forklift ", &icon)
	require.NoError(t, err)
	assert.Equal(t, int64(2), lift.ID)
	assert.Equal(t, "Forklift", lift.Name)

	_, err = store.CreateEquipmentType(ctx, "Truck", nil)
	assert.True(t, errors.Is(err, ErrNameTaken))

	_, err = store.CreateEquipmentType(ctx, "", nil)
	assert.True(t, errors.Is(err, ErrInvalid))
}

func TestStore_CreateEquipmentType_AfterExplicitID(t *testing.T) {
	store, db := newTestStore(t)
	require.NoError(t, db.Create(&models.EquipmentType{ID: 500, Name: "Imported"}).Error)

	et, err := store.CreateEquipmentType(context.Background(), "Organic", nil)
	require.NoError(t, err)
	assert.Equal(t, int64(501), et.ID)
}

func TestStore_CreateAsset(t *testing.T) {
	store, _ := newTestStore(t)
	ctx := context.Background()

	truck, err := store.CreateEquipmentType(ctx, "Truck", nil)
	require.NoError(t, err)

	asset, err := store.CreateAsset(ctx, NewAsset{Name: "T-01", TypeID: &truck.ID})
	require.NoError(t, err)
	assert.Equal(t, int64(1), asset.ID)
	assert.Equal(t, models.DefaultAssetColor, asset.Color)

	missing := int64(99)
	_, err = store.CreateAsset(ctx, NewAsset{Name: "T-02", TypeID: &missing})
	assert.True(t, errors.Is(err, ErrNotFound))

	_, err = store.CreateAsset(ctx, NewAsset{Name: "T-01"})
	assert.True(t, errors.Is(err, ErrNameTaken))
}

func TestStore_RecordPosition_SnapshotsColour(t *testing.T) {
	store, db := newTestStore(t)
	ctx := context.Background()
	store.now = func() time.Time { return time.Date(2024, 6, 1, 12, 0, 0, 0, time.UTC) }

	_, err := store.CreateAsset(ctx, NewAsset{Name: "T-01", Color: "#ff0000"})
	require.NoError(t, err)

	recorded := time.Date(2024, 6, 1, 11, 0, 0, 0, time.UTC)
	pos, err := store.RecordPosition(ctx, NewPosition{Equipment: "T-01", Latitude: -23.5, Longitude: -46.6, RecordedAt: recorded})
	require.NoError(t, err)
	assert.Equal(t, "#ff0000", pos.Color)
	require.NotNil(t, pos.SyncedAt)
	assert.Equal(t, 2024, pos.SyncedAt.Year())

	// Recolouring the asset must not touch history.
	require.NoError(t, db.Model(&models.RegisteredAsset{}).Where("name = ?", "T-01").Update("color", "#00ff00").Error)

	var stored models.PositionRecord
	require.NoError(t, db.First(&stored, pos.ID).Error)
	assert.Equal(t, "#ff0000", stored.Color)
	assert.Equal(t, "T-01", stored.Equipment)

	unknown, err := store.RecordPosition(ctx, NewPosition{Equipment: "ghost", RecordedAt: recorded})
	require.NoError(t, err)
	assert.Equal(t, models.DefaultAssetColor, unknown.Color)
	assert.Equal(t, int64(2), unknown.ID)
}

func TestStore_DeleteEquipmentType(t *testing.T) {
	store, db := newTestStore(t)
	ctx := context.Background()

	truck, err := store.CreateEquipmentType(ctx, "Truck", nil)
	require.NoError(t, err)
	lift, err := store.CreateEquipmentType(ctx, "Forklift", nil)
	require.NoError(t, err)

	require.NoError(t, db.Create(&models.ChecklistQuestion{ID: 1, TypeID: truck.ID, Text: "Tyres?"}).Error)
	require.NoError(t, db.Create(&models.ChecklistQuestion{ID: 2, TypeID: lift.ID, Text: "Forks?"}).Error)
	require.NoError(t, db.Create(&models.ChecklistRun{ID: 1, Equipment: "T-01", Operator: "ana", PerformedAt: time.Now()}).Error)

	require.NoError(t, store.DeleteEquipmentType(ctx, truck.ID))

	var questions []models.ChecklistQuestion
	require.NoError(t, db.Find(&questions).Error)
	require.Len(t, questions, 1)
	assert.Equal(t, lift.ID, questions[0].TypeID)

	var runs int64
	db.Model(&models.ChecklistRun{}).Count(&runs)
	assert.Equal(t, int64(1), runs)

	assert.True(t, errors.Is(store.DeleteEquipmentType(ctx, truck.ID), ErrNotFound))

	_, err = store.CreateAsset(ctx, NewAsset{Name: "L-01", TypeID: &lift.ID})
	require.NoError(t, err)
	assert.True(t, errors.Is(store.DeleteEquipmentType(ctx, lift.ID), ErrTypeInUse))
}

func TestStore_SetConfigAndListAssets(t *testing.T) {
	store, _ := newTestStore(t)
	ctx := context.Background()
	store.now = func() time.Time { return time.Date(2024, 6, 15, 0, 0, 0, 0, time.UTC) }

	th, err := store.Thresholds(ctx)
	require.NoError(t, err)
	assert.Equal(t, DefaultThresholds(), th)

	old := "2020-06"
	fresh := "2024-01"
	_, err = store.CreateAsset(ctx, NewAsset{Name: "B", ManufacturedAt: &old})
	require.NoError(t, err)
	_, err = store.CreateAsset(ctx, NewAsset{Name: "A", ManufacturedAt: &fresh})
	require.NoError(t, err)
	_, err = store.CreateAsset(ctx, NewAsset{Name: "C"})
	require.NoError(t, err)

	views, err := store.ListAssets(ctx)
	require.NoError(t, err)
	require.Len(t, views, 3)
	assert.Equal(t, "A", views[0].Name)
	assert.Equal(t, LabelHealthy, views[0].Battery.Label)
	assert.Equal(t, LabelNearExpiry, views[1].Battery.Label)
	assert.Equal(t, LabelUndefined, views[2].Battery.Label)

	require.NoError(t, store.SetConfig(ctx, ConfigCriticalMonths, "40"))
	require.NoError(t, store.SetConfig(ctx, ConfigWarningMonths, "30"))
	require.NoError(t, store.SetConfig(ctx, ConfigCriticalMonths, "48"))

	th, err = store.Thresholds(ctx)
	require.NoError(t, err)
	assert.Equal(t, Thresholds{Warning: 30, Critical: 48}, th)

	views, err = store.ListAssets(ctx)
	require.NoError(t, err)
	assert.Equal(t, LabelExpired, views[1].Battery.Label)
	assert.Equal(t, SeverityCritical, views[1].Battery.Severity)

	assert.True(t, errors.Is(store.SetConfig(ctx, " ", "x"), ErrInvalid))
}
