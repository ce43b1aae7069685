package integrity

import (
	"errors"

	"fleet-manager/core/logger"
	"fleet-manager/feature/integrity/checks"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"
)

// Handler handles HTTP requests for integrity checks.
type Handler struct {
	service *Service
}

// NewHandler creates a new HTTP handler.
func NewHandler(service *Service) *Handler {
	return &Handler{service: service}
}

// RegisterRoutes registers the integrity routes.
func (h *Handler) RegisterRoutes(app fiber.Router) {
	group := app.Group("/integrity")
	group.Get("/", h.HandleIntegrityCheck)
	group.Get("/schema", h.HandleSchemaCheck)
	group.Get("/sequences", h.HandleSequenceCheck)
	group.Get("/storage", h.HandleStorageCheck)
}

// HandleIntegrityCheck triggers all integrity checks.
// @Summary Run All Integrity Checks
// @Description Performs all available integrity checks (Schema, Sequences, Storage) without fixing anything.
// @Tags integrity
// @Accept json
// @Produce json
// @Success 200 {object} map[string]interface{} "Combined Report"
// @Router /integrity [get]
func (h *Handler) HandleIntegrityCheck(c *fiber.Ctx) error {
	l := logger.WithRayID(h.service.logger, c)
	l.Info("Triggering all integrity checks")

	ctx := c.Context()
	report := make(map[string]interface{})

	if schemaReport, err := h.service.CheckSchema(); err != nil {
		report["schema"] = map[string]interface{}{"status": "error", "error": err.Error()}
	} else {
		report["schema"] = schemaReport
	}

	if seqReport, err := h.service.CheckSequences(ctx); err != nil {
		report["sequences"] = map[string]interface{}{"status": "error", "error": err.Error()}
	} else {
		report["sequences"] = seqReport
	}

	if storageReport, err := h.service.CheckStorage(ctx); err != nil {
		report["storage"] = map[string]interface{}{"status": "error", "error": err.Error()}
	} else {
		report["storage"] = storageReport
	}

	return c.JSON(report)
}

// HandleSchemaCheck checks database schema integrity.
// @Summary Check Database Schema
// @Description Checks that every entity table exists with the columns and column types the models expect.
// @Tags integrity
// @Accept json
// @Produce json
// @Success 200 {object} checks.SchemaReport "Schema Report"
// @Failure 500 {object} map[string]string "Internal Server Error"
// @Router /integrity/schema [get]
func (h *Handler) HandleSchemaCheck(c *fiber.Ctx) error {
	l := logger.WithRayID(h.service.logger, c)

	report, err := h.service.CheckSchema()
	if err != nil {
		l.Error("Schema check failed", zap.Error(err))
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": err.Error()})
	}
	if !report.Matched {
		l.Warn("Schema drift detected")
	}

	return c.JSON(report)
}

// HandleSequenceCheck checks and optionally repairs identifier sequences.
// @Summary Check Identifier Sequences
// @Description Checks that no table's next identifier collides with an existing row. Optionally repairs lagging sequences.
// @Tags integrity
// @Accept json
// @Produce json
// @Param fix query boolean false "Repair lagging sequences"
// @Success 200 {object} map[string]interface{} "Sequence Report"
// @Failure 500 {object} map[string]string "Internal Server Error"
// @Router /integrity/sequences [get]
func (h *Handler) HandleSequenceCheck(c *fiber.Ctx) error {
	l := logger.WithRayID(h.service.logger, c)
	fix := c.Query("fix") == "true"

	reports, err := h.service.CheckSequences(c.Context())
	if err != nil {
		l.Error("Sequence check failed", zap.Error(err))
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": err.Error()})
	}

	var behind []string
	for _, r := range reports {
		if r.Status == checks.SequenceBehind {
			behind = append(behind, r.Table)
		}
	}

	if len(behind) > 0 {
		l.Warn("Lagging sequences detected", zap.Strings("tables", behind))

		if fix {
			l.Info("Attempting to repair sequences")
			if err := h.service.FixSequences(c.Context(), reports); err != nil {
				return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
					"error":   "Failed to repair sequences",
					"details": err.Error(),
					"behind":  behind,
				})
			}
			return c.JSON(fiber.Map{
				"status": "fixed",
				"fixed":  behind,
			})
		}
	}

	return c.JSON(fiber.Map{
		"status":    "checked",
		"sequences": reports,
	})
}

// HandleStorageCheck checks and optionally creates the archive bucket.
// @Summary Check Archive Storage
// @Description Checks that the snapshot archive bucket exists and counts stored snapshots. Optionally creates the bucket.
// @Tags integrity
// @Accept json
// @Produce json
// @Param fix query boolean false "Create the bucket when missing"
// @Success 200 {object} checks.StorageReport "Storage Report"
// @Failure 500 {object} map[string]string "Internal Server Error"
// @Failure 503 {object} map[string]string "Storage Disabled"
// @Router /integrity/storage [get]
func (h *Handler) HandleStorageCheck(c *fiber.Ctx) error {
	l := logger.WithRayID(h.service.logger, c)
	fix := c.Query("fix") == "true"

	report, err := h.service.CheckStorage(c.Context())
	if err != nil {
		status := fiber.StatusInternalServerError
		if errors.Is(err, ErrStorageDisabled) {
			status = fiber.StatusServiceUnavailable
		}
		l.Error("Storage check failed", zap.Error(err))
		return c.Status(status).JSON(fiber.Map{"error": err.Error()})
	}

	if !report.Exists && fix {
		l.Info("Attempting to create archive bucket")
		if err := h.service.FixStorage(c.Context()); err != nil {
			return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
				"error":   "Failed to create bucket",
				"details": err.Error(),
			})
		}
		return c.JSON(fiber.Map{
			"status": "fixed",
			"bucket": report.Bucket,
		})
	}

	return c.JSON(report)
}
