// Package database owns the connection to the entity store and the pieces of
// persistence that are shared by every feature.
//
// # Connect
//
// Connect opens MySQL (default), PostgreSQL or SQLite through GORM according
// to Config.Driver. SQLite connections are pinned to a single pooled
// connection with foreign keys enabled, which is what the tests use with the
// ":memory:" name.
//
// # Identifier sequences
//
// Entity identifiers are caller visible and may be re-introduced by snapshot
// restores, so they are not left to driver-specific autoincrement. The
// id_sequences table stores an explicit next identifier per entity table:
//
//	id, err := database.NextID(tx, "equipment_types")   // organic insert
//	next, err := database.Resync(tx, "equipment_types") // after explicit ids
//
// # Schema inspection
//
// GetTableColumns reports live columns so the integrity feature can compare
// them with the GORM models.
package database
