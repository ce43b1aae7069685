package fleet

import (
	"context"
	"fmt"
	"strconv"
	"strings"

	"fleet-manager/feature/fleet/models"

	"go.uber.org/zap"
	"gorm.io/gorm"
)

const (
	// ConfigWarningMonths is the Config key of the near-expiry threshold.
	ConfigWarningMonths = "bat_aviso"
	// ConfigCriticalMonths is the Config key of the expiry threshold.
	ConfigCriticalMonths = "bat_critico"

	DefaultWarningMonths  = 48
	DefaultCriticalMonths = 54
)

// Thresholds are the battery age limits, in months.
type Thresholds struct {
	Warning  int `json:"warning_months"`
	Critical int `json:"critical_months"`
}

// DefaultThresholds returns the limits used when Config carries none.
func DefaultThresholds() Thresholds {
	return Thresholds{Warning: DefaultWarningMonths, Critical: DefaultCriticalMonths}
}

// Classify rates manufacturedAt against t.
func (t Thresholds) Classify(manufacturedAt *string) Status {
	return Classify(manufacturedAt, t.Warning, t.Critical)
}

// LoadThresholds reads the battery limits from Config. Missing keys use the
// defaults; unparsable values also fall back to the defaults and are logged.
func LoadThresholds(ctx context.Context, db *gorm.DB, logger *zap.Logger) (Thresholds, error) {
	th := DefaultThresholds()

	var rows []models.Config
	err := db.WithContext(ctx).
		Where(map[string]any{"key": []string{ConfigWarningMonths, ConfigCriticalMonths}}).
		Find(&rows).Error
	if err != nil {
		return th, fmt.Errorf("failed to load battery thresholds: %w", err)
	}

	for _, row := range rows {
		n, err := strconv.Atoi(strings.TrimSpace(row.Value))
		if err != nil || n < 0 {
			if logger != nil {
				logger.Warn("Ignoring invalid battery threshold",
					zap.String("key", row.Key),
					zap.String("value", row.Value),
				)
			}
			continue
		}
		switch row.Key {
		case ConfigWarningMonths:
			th.Warning = n
		case ConfigCriticalMonths:
			th.Critical = n
		}
	}
	return th, nil
}
