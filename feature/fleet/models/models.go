package models

import (
	"time"

	"gorm.io/datatypes"
)

const (
	// DefaultAssetColor is the display colour of assets and positions without one.
	DefaultAssetColor = "#007bff"
	// DefaultAreaColor is the display colour of geofence areas without one.
	DefaultAreaColor = "#FFC107"
)

// Config is a mutable operational setting. Restores overwrite existing keys.
type Config struct {
	Key   string `gorm:"column:key;primaryKey;size:64" json:"key"`
	Value string `gorm:"column:value;size:1024;not null" json:"value"`
}

func (Config) TableName() string {
	return "config"
}

// EquipmentType classifies assets and owns the checklist questions asked for it.
type EquipmentType struct {
	ID   int64   `gorm:"column:id;primaryKey;autoIncrement:false" json:"id"`
	Name string  `gorm:"column:name;size:120;not null;uniqueIndex" json:"name"`
	Icon *string `gorm:"column:icon;size:255" json:"icon,omitempty"`
}

func (EquipmentType) TableName() string {
	return "equipment_types"
}

// SavedRegion is a named map viewport.
type SavedRegion struct {
	ID        int64   `gorm:"column:id;primaryKey;autoIncrement:false" json:"id"`
	Name      string  `gorm:"column:name;size:120;not null" json:"name"`
	Latitude  float64 `gorm:"column:latitude;not null" json:"latitude"`
	Longitude float64 `gorm:"column:longitude;not null" json:"longitude"`
	Zoom      int     `gorm:"column:zoom;not null" json:"zoom"`
}

func (SavedRegion) TableName() string {
	return "regions"
}

// GeofenceArea is a drawn map shape. Geometry holds the GeoJSON geometry
// object (Polygon, Point, ...) as stored by the map client.
type GeofenceArea struct {
	ID       int64          `gorm:"column:id;primaryKey;autoIncrement:false" json:"id"`
	Name     string         `gorm:"column:name;size:120;not null" json:"name"`
	Geometry datatypes.JSON `gorm:"column:geometry;not null" json:"geometry"`
	Color    string         `gorm:"column:color;size:16;not null" json:"color"`
}

func (GeofenceArea) TableName() string {
	return "areas"
}

// RegisteredAsset is a tracked piece of equipment. ManufacturedAt is a
// "YYYY-MM" string feeding the battery status classifier.
type RegisteredAsset struct {
	ID             int64          `gorm:"column:id;primaryKey;autoIncrement:false" json:"id"`
	Name           string         `gorm:"column:name;size:120;not null;uniqueIndex" json:"name"`
	TypeID         *int64         `gorm:"column:type_id;index" json:"type_id"`
	Type           *EquipmentType `gorm:"foreignKey:TypeID" json:"-"`
	Color          string         `gorm:"column:color;size:16;not null" json:"color"`
	ManufacturedAt *string        `gorm:"column:manufactured_at;size:16" json:"manufactured_at"`
}

func (RegisteredAsset) TableName() string {
	return "assets"
}

// PositionRecord is a GPS fix. Equipment and Color are copied from the asset
// when the fix is recorded and are never re-derived; later edits to the asset
// do not rewrite history.
type PositionRecord struct {
	ID         int64      `gorm:"column:id;primaryKey;autoIncrement:false" json:"id"`
	Equipment  string     `gorm:"column:equipment;size:120;not null;index" json:"equipment"`
	Latitude   float64    `gorm:"column:latitude;not null" json:"latitude"`
	Longitude  float64    `gorm:"column:longitude;not null" json:"longitude"`
	RecordedAt time.Time  `gorm:"column:recorded_at;not null;index" json:"recorded_at"`
	SyncedAt   *time.Time `gorm:"column:synced_at" json:"synced_at"`
	Note       string     `gorm:"column:note;size:1024" json:"note"`
	Color      string     `gorm:"column:color;size:16;not null" json:"color"`
}

func (PositionRecord) TableName() string {
	return "positions"
}

// ChecklistQuestion is asked for every asset of its equipment type. Questions
// are deleted together with their type.
type ChecklistQuestion struct {
	ID     int64          `gorm:"column:id;primaryKey;autoIncrement:false" json:"id"`
	TypeID int64          `gorm:"column:type_id;not null;index" json:"type_id"`
	Type   *EquipmentType `gorm:"foreignKey:TypeID;constraint:OnDelete:CASCADE" json:"-"`
	Text   string         `gorm:"column:text;size:512;not null" json:"text"`
}

func (ChecklistQuestion) TableName() string {
	return "checklist_questions"
}

// ChecklistRun is one operator inspection of one piece of equipment.
type ChecklistRun struct {
	ID          int64     `gorm:"column:id;primaryKey;autoIncrement:false" json:"id"`
	Equipment   string    `gorm:"column:equipment;size:120;not null;index" json:"equipment"`
	Operator    string    `gorm:"column:operator;size:120;not null" json:"operator"`
	PerformedAt time.Time `gorm:"column:performed_at;not null" json:"performed_at"`
}

func (ChecklistRun) TableName() string {
	return "checklist_runs"
}

// ChecklistAnswer is the answer to one question within a run. Question keeps
// the text as asked, independent of later edits to the question.
type ChecklistAnswer struct {
	ID        int64         `gorm:"column:id;primaryKey;autoIncrement:false" json:"id"`
	RunID     int64         `gorm:"column:run_id;not null;index" json:"run_id"`
	Run       *ChecklistRun `gorm:"foreignKey:RunID" json:"-"`
	Question  string        `gorm:"column:question;size:512;not null" json:"question"`
	Compliant bool          `gorm:"column:compliant;not null" json:"compliant"`
	Note      string        `gorm:"column:note;size:1024" json:"note"`
	Photo     *string       `gorm:"column:photo;size:255" json:"photo,omitempty"`
}

func (ChecklistAnswer) TableName() string {
	return "checklist_answers"
}

// All returns every entity model, parents before children, for migrations.
func All() []any {
	return []any{
		&Config{},
		&EquipmentType{},
		&SavedRegion{},
		&GeofenceArea{},
		&RegisteredAsset{},
		&PositionRecord{},
		&ChecklistQuestion{},
		&ChecklistRun{},
		&ChecklistAnswer{},
	}
}
