// Package models defines the GORM models of the fleet entity store.
//
// Every entity except Config is keyed by a caller-visible int64 identifier
// that is assigned once and never changes. Identifiers are allocated through
// core/database sequences rather than database autoincrement, so snapshot
// restores can re-introduce them verbatim.
//
// Relationships:
//   - RegisteredAsset.TypeID -> EquipmentType (optional)
//   - ChecklistQuestion.TypeID -> EquipmentType, ON DELETE CASCADE
//   - ChecklistAnswer.RunID -> ChecklistRun
//
// PositionRecord and ChecklistRun reference equipment by name only.
package models
