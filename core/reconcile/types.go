package reconcile

import "time"

// Row is one decoded snapshot record: a flat field map as produced by a JSON
// or YAML decoder.
type Row map[string]any

// Document is a parsed snapshot keyed by collection name. Every collection is
// optional.
type Document map[string][]Row

// Record is a validated, typed row ready to be written by its Collection.
type Record any

// Outcome is what applying one record did to the store.
type Outcome int

const (
	// OutcomeInserted means the record was written with its own identifier.
	OutcomeInserted Outcome = iota
	// OutcomeUpdated means an existing row was overwritten (config only).
	OutcomeUpdated
	// OutcomeExisting means the identifier was already present; nothing written.
	OutcomeExisting
	// OutcomeOrphaned means the record's parent is absent; nothing written.
	OutcomeOrphaned
)

// String returns the outcome name used in logs.
func (o Outcome) String() string {
	switch o {
	case OutcomeInserted:
		return "inserted"
	case OutcomeUpdated:
		return "updated"
	case OutcomeExisting:
		return "existing"
	case OutcomeOrphaned:
		return "orphaned"
	default:
		return "unknown"
	}
}

// CollectionStats counts outcomes for one collection of a restore.
type CollectionStats struct {
	// Name is the collection key in the snapshot document.
	Name string `json:"name"`
	// Received is the number of records present in the document.
	Received int `json:"received"`
	// Inserted counts records written as new rows.
	Inserted int `json:"inserted"`
	// Updated counts records that overwrote an existing row.
	Updated int `json:"updated"`
	// Existing counts records skipped because their identifier was taken.
	Existing int `json:"existing"`
	// Orphaned counts records skipped because their parent was absent.
	Orphaned int `json:"orphaned"`
}

func (s *CollectionStats) record(o Outcome) {
	switch o {
	case OutcomeInserted:
		s.Inserted++
	case OutcomeUpdated:
		s.Updated++
	case OutcomeExisting:
		s.Existing++
	case OutcomeOrphaned:
		s.Orphaned++
	}
}

// Summary is the result of a committed restore.
type Summary struct {
	// Status is always "imported" for a committed restore.
	Status string `json:"status"`
	// Collections holds per-collection counts in processing order.
	Collections []CollectionStats `json:"collections"`
	// Orphaned is the total number of records dropped by orphan guards.
	Orphaned int `json:"orphaned"`
	// Sequences maps each resynchronised table to its next identifier.
	Sequences map[string]int64 `json:"sequences"`
	// Duration is the wall time of the restore.
	Duration time.Duration `json:"duration"`
}

// Collection returns the stats for name, or nil when it was not processed.
func (s *Summary) Collection(name string) *CollectionStats {
	for i := range s.Collections {
		if s.Collections[i].Name == name {
			return &s.Collections[i]
		}
	}
	return nil
}

// Step is the validated records of one collection.
type Step struct {
	Collection Collection
	Records    []Record
}

// RestorePlan holds every validated record in processing order. Building it
// performs no writes.
type RestorePlan struct {
	Steps []Step
	// Ignored lists document keys no collection claimed.
	Ignored []string
}

// Records returns the total number of records in the plan.
func (p *RestorePlan) Records() int {
	n := 0
	for _, s := range p.Steps {
		n += len(s.Records)
	}
	return n
}
