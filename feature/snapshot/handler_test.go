package snapshot_test

import (
	"encoding/json"
	"io"
	"net/http/httptest"
	"strings"
	"testing"

	"fleet-manager/core/database"
	"fleet-manager/core/server"
	"fleet-manager/core/storage"
	"fleet-manager/core/storage/mocks"
	"fleet-manager/feature/fleet/models"
	"fleet-manager/feature/snapshot"

	"github.com/gofiber/fiber/v2"
	"github.com/minio/minio-go/v7"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func newTestApp(t *testing.T, client storage.Client, serverCfg server.Config) *fiber.App {
	t.Helper()
	db, err := database.Connect(database.Config{Driver: database.DriverSQLite, Name: ":memory:"})
	require.NoError(t, err)
	require.NoError(t, database.Migrate(db, models.All()...))

	feature := snapshot.NewFeature(db, client, storage.Config{Bucket: "fleet", SnapshotPrefix: "snapshots"}, serverCfg, zap.NewNop())
	app := fiber.New()
	require.NoError(t, feature.Load(app))
	return app
}

func generous() server.Config {
	return server.Config{RateLimit: 1000, RateBurst: 1000}
}

func decodeBody(t *testing.T, body io.Reader) map[string]any {
	t.Helper()
	var out map[string]any
	require.NoError(t, json.NewDecoder(body).Decode(&out))
	return out
}

func TestHandleRestore(t *testing.T) {
	app := newTestApp(t, nil, generous())

	req := httptest.NewRequest("POST", "/snapshot/restore", strings.NewReader(fullDocument))
	req.Header.Set("Content-Type", "application/json")
	resp, err := app.Test(req)
	require.NoError(t, err)
	assert.Equal(t, fiber.StatusOK, resp.StatusCode)

	body := decodeBody(t, resp.Body)
	assert.Equal(t, "imported", body["status"])
	summary := body["summary"].(map[string]any)
	assert.Equal(t, float64(1), summary["orphaned"])
}

func TestHandleRestore_YAML(t *testing.T) {
	app := newTestApp(t, nil, generous())

	req := httptest.NewRequest("POST", "/snapshot/restore", strings.NewReader("config:\n  - key: bat_aviso\n    value: 60\n"))
	req.Header.Set("Content-Type", "application/yaml")
	resp, err := app.Test(req)
	require.NoError(t, err)
	assert.Equal(t, fiber.StatusOK, resp.StatusCode)
}

func TestHandleRestore_Malformed(t *testing.T) {
	app := newTestApp(t, nil, generous())

	req := httptest.NewRequest("POST", "/snapshot/restore", strings.NewReader(`{"assets": [{"id": 1}]}`))
	req.Header.Set("Content-Type", "application/json")
	resp, err := app.Test(req)
	require.NoError(t, err)
	assert.Equal(t, fiber.StatusBadRequest, resp.StatusCode)

	body := decodeBody(t, resp.Body)
	assert.Equal(t, "malformed_input", body["kind"])
	assert.Equal(t, "assets", body["collection"])
	assert.Equal(t, float64(0), body["index"])
	assert.Equal(t, "name", body["field"])
	assert.Contains(t, body["error"], "required field is missing")
}

func TestHandleRestore_StorageFault(t *testing.T) {
	app := newTestApp(t, nil, generous())

	req := httptest.NewRequest("POST", "/snapshot/restore", strings.NewReader(`{"checklist_questions": [{"id": 1, "type_id": 3, "text": "Q"}]}`))
	req.Header.Set("Content-Type", "application/json")
	resp, err := app.Test(req)
	require.NoError(t, err)
	assert.Equal(t, fiber.StatusInternalServerError, resp.StatusCode)

	body := decodeBody(t, resp.Body)
	assert.Equal(t, "storage_fault", body["kind"])
	assert.Equal(t, "checklist_questions", body["collection"])
}

func TestHandleExport(t *testing.T) {
	app := newTestApp(t, nil, generous())

	req := httptest.NewRequest("POST", "/snapshot/restore", strings.NewReader(`{"equipment_types": [{"id": 4, "name": "Truck"}]}`))
	resp, err := app.Test(req)
	require.NoError(t, err)
	require.Equal(t, fiber.StatusOK, resp.StatusCode)

	resp, err = app.Test(httptest.NewRequest("GET", "/snapshot/export", nil))
	require.NoError(t, err)
	assert.Equal(t, fiber.StatusOK, resp.StatusCode)
	assert.Contains(t, resp.Header.Get("Content-Disposition"), "attachment")

	var snap snapshot.Snapshot
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&snap))
	require.Len(t, snap.EquipmentTypes, 1)
	assert.Equal(t, int64(4), snap.EquipmentTypes[0].ID)
}

func TestHandleArchive(t *testing.T) {
	client := new(mocks.Client)
	client.On("PutObject", mock.Anything, "fleet", mock.Anything, mock.Anything, mock.Anything, mock.Anything).
		Return(minio.UploadInfo{}, nil)
	app := newTestApp(t, client, generous())

	resp, err := app.Test(httptest.NewRequest("POST", "/snapshot/archive", nil))
	require.NoError(t, err)
	assert.Equal(t, fiber.StatusCreated, resp.StatusCode)

	body := decodeBody(t, resp.Body)
	assert.True(t, strings.HasPrefix(body["key"].(string), "snapshots/"))
}

func TestHandleArchive_Disabled(t *testing.T) {
	app := newTestApp(t, nil, generous())

	resp, err := app.Test(httptest.NewRequest("POST", "/snapshot/archive", nil))
	require.NoError(t, err)
	assert.Equal(t, fiber.StatusServiceUnavailable, resp.StatusCode)
}

func TestHandleRestoreObject_NotFound(t *testing.T) {
	client := new(mocks.Client)
	client.On("GetObject", mock.Anything, "fleet", "snapshots/gone.json", mock.Anything).
		Return(nil, minio.ErrorResponse{Code: "NoSuchKey"})
	app := newTestApp(t, client, generous())

	resp, err := app.Test(httptest.NewRequest("POST", "/snapshot/restore/gone.json", nil))
	require.NoError(t, err)
	assert.Equal(t, fiber.StatusNotFound, resp.StatusCode)
}

func TestHandleListArchives_Empty(t *testing.T) {
	client := new(mocks.Client)
	client.On("ListObjects", mock.Anything, "fleet", mock.Anything).Return(nil)
	app := newTestApp(t, client, generous())

	resp, err := app.Test(httptest.NewRequest("GET", "/snapshot/archives", nil))
	require.NoError(t, err)
	assert.Equal(t, fiber.StatusOK, resp.StatusCode)

	raw, _ := io.ReadAll(resp.Body)
	assert.JSONEq(t, `[]`, string(raw))
}

func TestSnapshotRoutes_RateLimited(t *testing.T) {
	app := newTestApp(t, nil, server.Config{RateLimit: 0.001, RateBurst: 2})

	codes := make([]int, 3)
	for i := range codes {
		resp, err := app.Test(httptest.NewRequest("GET", "/snapshot/export", nil))
		require.NoError(t, err)
		codes[i] = resp.StatusCode
	}
	assert.Equal(t, []int{fiber.StatusOK, fiber.StatusOK, fiber.StatusTooManyRequests}, codes)
}
