package snapshot

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"path"
	"strings"

	"fleet-manager/core/reconcile"
	"fleet-manager/feature/fleet/models"

	"gopkg.in/yaml.v3"
)

// Collection keys of a snapshot document, in restore order.
const (
	KeyConfig             = "config"
	KeyEquipmentTypes     = "equipment_types"
	KeyRegions            = "regions"
	KeyAreas              = "areas"
	KeyAssets             = "assets"
	KeyPositions          = "positions"
	KeyChecklistQuestions = "checklist_questions"
	KeyChecklistRuns      = "checklist_runs"
	KeyChecklistAnswers   = "checklist_answers"
)

// Keys lists the collection keys in restore order.
var Keys = []string{
	KeyConfig,
	KeyEquipmentTypes,
	KeyRegions,
	KeyAreas,
	KeyAssets,
	KeyPositions,
	KeyChecklistQuestions,
	KeyChecklistRuns,
	KeyChecklistAnswers,
}

// Format is the encoding of a snapshot document.
type Format string

const (
	FormatJSON Format = "json"
	FormatYAML Format = "yaml"
)

// FormatFromContentType picks the format for an HTTP body. Anything that is
// not YAML is treated as JSON.
func FormatFromContentType(contentType string) Format {
	if strings.Contains(strings.ToLower(contentType), "yaml") {
		return FormatYAML
	}
	return FormatJSON
}

// FormatFromPath picks the format from a file or object name extension.
func FormatFromPath(name string) Format {
	switch strings.ToLower(path.Ext(name)) {
	case ".yaml", ".yml":
		return FormatYAML
	default:
		return FormatJSON
	}
}

// Snapshot is the typed form of an exported store. Its JSON encoding is a
// document ParseDocument accepts.
type Snapshot struct {
	Config             []models.Config            `json:"config"`
	EquipmentTypes     []models.EquipmentType     `json:"equipment_types"`
	Regions            []models.SavedRegion       `json:"regions"`
	Areas              []models.GeofenceArea      `json:"areas"`
	Assets             []models.RegisteredAsset   `json:"assets"`
	Positions          []models.PositionRecord    `json:"positions"`
	ChecklistQuestions []models.ChecklistQuestion `json:"checklist_questions"`
	ChecklistRuns      []models.ChecklistRun      `json:"checklist_runs"`
	ChecklistAnswers   []models.ChecklistAnswer   `json:"checklist_answers"`
}

// Records returns the number of rows in the snapshot.
func (s *Snapshot) Records() int {
	return len(s.Config) + len(s.EquipmentTypes) + len(s.Regions) + len(s.Areas) +
		len(s.Assets) + len(s.Positions) + len(s.ChecklistQuestions) +
		len(s.ChecklistRuns) + len(s.ChecklistAnswers)
}

// ParseDocument decodes a snapshot document. Every collection is optional
// and a null collection counts as empty. Keys that name no collection are
// kept with no rows so the engine can report them; their values are not
// inspected. Failures are *reconcile.ImportError of kind malformed input.
func ParseDocument(r io.Reader, format Format) (reconcile.Document, error) {
	var raw map[string]any

	switch format {
	case FormatJSON, "":
		dec := json.NewDecoder(r)
		dec.UseNumber()
		if err := dec.Decode(&raw); err != nil {
			return nil, reconcile.Malformed("", fmt.Errorf("invalid JSON document: %w", err))
		}
		if err := dec.Decode(new(json.RawMessage)); err != io.EOF {
			return nil, reconcile.Malformed("", errors.New("invalid JSON document: unexpected data after the document"))
		}
	case FormatYAML:
		dec := yaml.NewDecoder(r)
		if err := dec.Decode(&raw); err != nil {
			return nil, reconcile.Malformed("", fmt.Errorf("invalid YAML document: %w", err))
		}
		if err := dec.Decode(new(yaml.Node)); err != io.EOF {
			return nil, reconcile.Malformed("", errors.New("invalid YAML document: expected a single document"))
		}
	default:
		return nil, reconcile.Malformed("", fmt.Errorf("unsupported document format %q", format))
	}

	if raw == nil {
		return nil, reconcile.Malformed("", errors.New("snapshot document is null"))
	}

	doc := make(reconcile.Document, len(raw))
	for key, value := range raw {
		if !isKnownKey(key) {
			doc[key] = nil
			continue
		}
		rows, err := toRows(key, value)
		if err != nil {
			return nil, err
		}
		doc[key] = rows
	}
	return doc, nil
}

func isKnownKey(key string) bool {
	for _, k := range Keys {
		if k == key {
			return true
		}
	}
	return false
}

func toRows(key string, value any) ([]reconcile.Row, error) {
	if value == nil {
		return nil, nil
	}
	items, ok := value.([]any)
	if !ok {
		return nil, reconcile.Malformed(key, fmt.Errorf("expected an array of records, got %T", value))
	}

	rows := make([]reconcile.Row, len(items))
	for i, item := range items {
		obj, ok := item.(map[string]any)
		if !ok {
			return nil, reconcile.Malformed(key, &reconcile.FieldError{
				Index: i,
				Err:   fmt.Errorf("expected an object, got %T", item),
			})
		}
		rows[i] = obj
	}
	return rows, nil
}
