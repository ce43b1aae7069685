package fleet

import (
	"fleet-manager/core/logger"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"
)

// Handler serves the read-only fleet views.
type Handler struct {
	store  *Store
	logger *zap.Logger
}

// NewHandler creates a new HTTP handler.
func NewHandler(store *Store, logger *zap.Logger) *Handler {
	return &Handler{store: store, logger: logger}
}

// RegisterRoutes registers the fleet routes.
func (h *Handler) RegisterRoutes(app fiber.Router) {
	group := app.Group("/fleet")
	group.Get("/assets", h.HandleListAssets)
	group.Get("/thresholds", h.HandleGetThresholds)
}

// HandleListAssets lists assets with their battery status.
// @Summary List Assets
// @Description List registered assets ordered by name, each with its battery classification.
// @Tags fleet
// @Produce json
// @Success 200 {array} fleet.AssetView "Assets"
// @Failure 500 {object} map[string]string "Internal Server Error"
// @Router /fleet/assets [get]
func (h *Handler) HandleListAssets(c *fiber.Ctx) error {
	l := logger.WithRayID(h.logger, c)

	assets, err := h.store.ListAssets(c.Context())
	if err != nil {
		l.Error("Asset listing failed", zap.Error(err))
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": err.Error(),
		})
	}

	return c.JSON(assets)
}

// HandleGetThresholds returns the configured battery limits.
// @Summary Get Battery Thresholds
// @Description Get the warning and critical battery ages in months.
// @Tags fleet
// @Produce json
// @Success 200 {object} fleet.Thresholds "Thresholds"
// @Failure 500 {object} map[string]string "Internal Server Error"
// @Router /fleet/thresholds [get]
func (h *Handler) HandleGetThresholds(c *fiber.Ctx) error {
	th, err := h.store.Thresholds(c.Context())
	if err != nil {
		logger.WithRayID(h.logger, c).Error("Threshold lookup failed", zap.Error(err))
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": err.Error(),
		})
	}
	return c.JSON(th)
}
