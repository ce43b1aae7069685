package fleet

import (
	"strings"
	"time"
)

// Label is the battery classification of an asset.
type Label string

const (
	LabelUndefined  Label = "undefined"
	LabelParseError Label = "parse_error"
	LabelExpired    Label = "expired"
	LabelNearExpiry Label = "near_expiry"
	LabelHealthy    Label = "healthy"
)

// Severity is the display colouring attached to a Label.
type Severity string

const (
	SeverityOk       Severity = "ok"
	SeverityWarning  Severity = "warning"
	SeverityCritical Severity = "critical"
	SeverityNeutral  Severity = "neutral"
)

// manufacturedLayouts are the accepted "YYYY-MM" manufacturing date forms.
// The second also takes a single-digit month ("2020-6").
var manufacturedLayouts = []string{"2006-01", "2006-1"}

// Status is the battery classification of one asset.
type Status struct {
	Label    Label    `json:"label"`
	Severity Severity `json:"severity"`
	// Months is the battery age in whole months; nil when the date is absent
	// or unparsable.
	Months *int `json:"months,omitempty"`
}

// Classify rates a battery against the current time. See ClassifyAt.
func Classify(manufacturedAt *string, warningMonths, criticalMonths int) Status {
	return ClassifyAt(manufacturedAt, warningMonths, criticalMonths, time.Now())
}

// ClassifyAt rates a battery manufactured in the "YYYY-MM" month given by
// manufacturedAt. Age is counted in calendar months, so days within the
// current month do not count. The critical threshold is checked first.
func ClassifyAt(manufacturedAt *string, warningMonths, criticalMonths int, now time.Time) Status {
	if manufacturedAt == nil || strings.TrimSpace(*manufacturedAt) == "" {
		return Status{Label: LabelUndefined, Severity: SeverityNeutral}
	}

	made, ok := parseMonth(strings.TrimSpace(*manufacturedAt))
	if !ok {
		return Status{Label: LabelParseError, Severity: SeverityNeutral}
	}

	months := (now.Year()-made.Year())*12 + int(now.Month()) - int(made.Month())

	status := Status{Label: LabelHealthy, Severity: SeverityOk, Months: &months}
	switch {
	case months >= criticalMonths:
		status.Label, status.Severity = LabelExpired, SeverityCritical
	case months >= warningMonths:
		status.Label, status.Severity = LabelNearExpiry, SeverityWarning
	}
	return status
}

func parseMonth(value string) (time.Time, bool) {
	for _, layout := range manufacturedLayouts {
		if t, err := time.Parse(layout, value); err == nil {
			return t, true
		}
	}
	return time.Time{}, false
}
