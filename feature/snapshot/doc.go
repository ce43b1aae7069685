// Package snapshot restores and exports whole-store snapshot documents.
//
// A snapshot is a JSON or YAML object with up to nine optional arrays, one
// per entity kind, keyed config, equipment_types, regions, areas, assets,
// positions, checklist_questions, checklist_runs and checklist_answers.
// Records carry their original identifiers.
//
// Restores run through core/reconcile with the collection adapters defined
// here:
//   - config: value overwritten when the key exists
//   - every other collection: inserted only when its id is free
//   - checklist_answers: additionally skipped, and counted, when run_id does
//     not exist at that point of the pass
//
// Every record is validated before the transaction opens. Sequences of the
// written tables are moved past the imported identifiers before commit.
//
// Exports can be written to object storage and restored from there.
//
// Routes:
//   - POST /snapshot/restore
//   - POST /snapshot/restore/:object
//   - GET  /snapshot/export
//   - POST /snapshot/archive
//   - GET  /snapshot/archives
package snapshot
