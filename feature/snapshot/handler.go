package snapshot

import (
	"bytes"
	"errors"
	"fmt"

	"fleet-manager/core/logger"
	"fleet-manager/core/middleware/ratelimit"
	"fleet-manager/core/reconcile"
	"fleet-manager/core/server"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"
	"golang.org/x/time/rate"
)

// Handler handles HTTP requests for snapshots.
type Handler struct {
	service *Service
	limit   rate.Limit
	burst   int
}

// NewHandler creates a new HTTP handler. Snapshot routes are rate limited
// per client IP with the server's limits.
func NewHandler(service *Service, cfg server.Config) *Handler {
	return &Handler{service: service, limit: rate.Limit(cfg.RateLimit), burst: cfg.RateBurst}
}

// RegisterRoutes registers the snapshot routes.
func (h *Handler) RegisterRoutes(app fiber.Router) {
	group := app.Group("/snapshot", ratelimit.New(h.limit, h.burst))
	group.Post("/restore", h.HandleRestore)
	group.Post("/restore/:object", h.HandleRestoreObject)
	group.Get("/export", h.HandleExport)
	group.Post("/archive", h.HandleArchive)
	group.Get("/archives", h.HandleListArchives)
}

// HandleRestore merges an uploaded snapshot document into the store.
// @Summary Restore Snapshot
// @Description Merge a JSON or YAML snapshot into the store as one transaction. Config values are overwritten, every other record is inserted only when its id is free, answers without a run are skipped and counted.
// @Tags snapshot
// @Accept json
// @Accept application/yaml
// @Produce json
// @Param document body snapshot.Snapshot true "Snapshot document"
// @Success 200 {object} map[string]interface{} "Imported"
// @Failure 400 {object} map[string]interface{} "Malformed Input"
// @Failure 429 {object} map[string]string "Rate Limited"
// @Failure 500 {object} map[string]interface{} "Storage Fault"
// @Router /snapshot/restore [post]
func (h *Handler) HandleRestore(c *fiber.Ctx) error {
	l := logger.WithRayID(h.service.logger, c)

	format := FormatFromContentType(c.Get(fiber.HeaderContentType))
	summary, err := h.service.Restore(c.Context(), bytes.NewReader(c.Body()), format)
	if err != nil {
		return h.fail(c, l, "Snapshot restore failed", err)
	}

	l.Info("Snapshot restored", zap.Int("orphaned", summary.Orphaned), zap.Duration("duration", summary.Duration))
	return c.JSON(fiber.Map{"status": summary.Status, "summary": summary})
}

// HandleRestoreObject restores a snapshot archived in object storage.
// @Summary Restore Archived Snapshot
// @Description Restore a snapshot object stored under the snapshot prefix.
// @Tags snapshot
// @Produce json
// @Param object path string true "Object name (e.g. '20240601T120000Z-<uuid>.json')"
// @Success 200 {object} map[string]interface{} "Imported"
// @Failure 400 {object} map[string]interface{} "Malformed Input"
// @Failure 404 {object} map[string]string "Not Found"
// @Failure 500 {object} map[string]interface{} "Storage Fault"
// @Failure 503 {object} map[string]string "Storage Disabled"
// @Router /snapshot/restore/{object} [post]
func (h *Handler) HandleRestoreObject(c *fiber.Ctx) error {
	l := logger.WithRayID(h.service.logger, c)

	summary, err := h.service.RestoreObject(c.Context(), c.Params("object"))
	if err != nil {
		return h.fail(c, l, "Archived snapshot restore failed", err)
	}
	return c.JSON(fiber.Map{"status": summary.Status, "summary": summary})
}

// HandleExport downloads the whole store as a snapshot document.
// @Summary Export Snapshot
// @Description Export every collection ordered by id. The result can be restored as is.
// @Tags snapshot
// @Produce json
// @Success 200 {object} snapshot.Snapshot "Snapshot"
// @Failure 500 {object} map[string]string "Internal Server Error"
// @Router /snapshot/export [get]
func (h *Handler) HandleExport(c *fiber.Ctx) error {
	l := logger.WithRayID(h.service.logger, c)

	snap, err := h.service.Export(c.Context())
	if err != nil {
		return h.fail(c, l, "Snapshot export failed", err)
	}

	name := fmt.Sprintf("snapshot-%s.json", h.service.now().UTC().Format("20060102T150405Z"))
	c.Attachment(name)
	return c.JSON(snap)
}

// HandleArchive exports the store to object storage.
// @Summary Archive Snapshot
// @Description Export the store and upload it to the snapshot bucket.
// @Tags snapshot
// @Produce json
// @Success 201 {object} snapshot.ArchiveInfo "Archived"
// @Failure 500 {object} map[string]string "Internal Server Error"
// @Failure 503 {object} map[string]string "Storage Disabled"
// @Router /snapshot/archive [post]
func (h *Handler) HandleArchive(c *fiber.Ctx) error {
	l := logger.WithRayID(h.service.logger, c)

	info, err := h.service.Archive(c.Context())
	if err != nil {
		return h.fail(c, l, "Snapshot archive failed", err)
	}
	return c.Status(fiber.StatusCreated).JSON(info)
}

// HandleListArchives lists archived snapshots.
// @Summary List Archived Snapshots
// @Tags snapshot
// @Produce json
// @Success 200 {array} snapshot.ArchiveInfo "Archives"
// @Failure 500 {object} map[string]string "Internal Server Error"
// @Failure 503 {object} map[string]string "Storage Disabled"
// @Router /snapshot/archives [get]
func (h *Handler) HandleListArchives(c *fiber.Ctx) error {
	l := logger.WithRayID(h.service.logger, c)

	archives, err := h.service.ListArchives(c.Context())
	if err != nil {
		return h.fail(c, l, "Snapshot listing failed", err)
	}
	if archives == nil {
		archives = []ArchiveInfo{}
	}
	return c.JSON(archives)
}

func (h *Handler) fail(c *fiber.Ctx, l *zap.Logger, msg string, err error) error {
	var ie *reconcile.ImportError
	if errors.As(err, &ie) {
		status := fiber.StatusInternalServerError
		if ie.Kind == reconcile.KindMalformed {
			status = fiber.StatusBadRequest
			l.Warn(msg, zap.Error(err))
		} else {
			l.Error(msg, zap.Error(err))
		}
		body := fiber.Map{
			"error": ie.Error(),
			"kind":  ie.Kind,
		}
		if ie.Collection != "" {
			body["collection"] = ie.Collection
		}
		if ie.Index >= 0 {
			body["index"] = ie.Index
		}
		if ie.Field != "" {
			body["field"] = ie.Field
		}
		return c.Status(status).JSON(body)
	}

	status := fiber.StatusInternalServerError
	switch {
	case errors.Is(err, ErrArchiveNotFound):
		status = fiber.StatusNotFound
	case errors.Is(err, ErrStorageDisabled):
		status = fiber.StatusServiceUnavailable
	}
	l.Error(msg, zap.Error(err))
	return c.Status(status).JSON(fiber.Map{"error": err.Error()})
}
