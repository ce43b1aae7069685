// Package integrity provides system health checks for the fleet store.
//
// # Checks Provided
//
//   - Schema: Validates that every entity table exists with the columns and column types the models declare.
//   - Sequences: Verifies that no identifier sequence would hand out an id already present in its table.
//   - Storage: Checks that the snapshot archive bucket exists and counts the archived snapshots.
//
// # HTTP Endpoints
//
//   - GET /integrity : Runs all checks.
//   - GET /integrity/schema : Runs schema check.
//   - GET /integrity/sequences : Runs sequence check (supports ?fix=true).
//   - GET /integrity/storage : Runs storage check (supports ?fix=true).
package integrity
