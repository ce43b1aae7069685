// Package reconcile merges snapshot documents into the live entity store.
//
// A restore is planned, then applied:
//
//  1. Plan validates every record of every collection into typed records.
//     Nothing is written, so a malformed record anywhere aborts the restore
//     with the store untouched (validate-then-commit).
//
//  2. Apply runs all collections, in the order given to NewEngine, inside a
//     single transaction, then repairs the identifier sequence of every table
//     that received explicitly identified rows. Any failure rolls the whole
//     transaction back.
//
// # Collections
//
// Entity-specific behaviour lives behind the Collection interface: how rows
// are validated and what "apply" means (overwrite, insert-if-absent, insert
// only when the parent exists). Each application reports an Outcome, which the
// engine tallies into the Summary; orphaned records are a counted outcome,
// never an error.
//
// # Errors
//
// Every failure is an *ImportError of kind malformed_input or storage_fault,
// testable with errors.Is(err, ErrMalformedInput) / ErrStorageFault.
//
// # Concurrency
//
// Restores are serialised by a mutex and isolated from other writers by the
// transaction. The transaction ignores caller cancellation: a restore either
// commits or rolls back as a whole.
//
// # Usage
//
//	engine := reconcile.NewEngine(db, logger, configs, equipmentTypes, ...)
//	summary, err := engine.Restore(ctx, doc)
//	if errors.Is(err, reconcile.ErrMalformedInput) { ... }
package reconcile
