package reconcile

import "gorm.io/gorm"

// Collection defines the interface for entity-specific restore logic. The
// engine owns ordering, transactions and sequence repair; a Collection only
// knows how to validate and write its own records.
type Collection interface {
	// Name returns the document key of this collection (e.g. "equipment_types").
	Name() string

	// Table returns the sequence-managed table written by Apply, or "" when
	// the collection has no identifier sequence.
	Table() string

	// Validate converts raw rows into typed records without touching the
	// store. A failing row must be reported with a *FieldError.
	Validate(rows []Row) ([]Record, error)

	// Apply writes one record inside tx and reports what happened. An error
	// aborts the whole restore.
	Apply(tx *gorm.DB, rec Record) (Outcome, error)
}
