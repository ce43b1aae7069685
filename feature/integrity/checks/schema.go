package checks

import (
	"fmt"
	"strings"

	"fleet-manager/core/database"

	"gorm.io/gorm"
	"gorm.io/gorm/schema"
)

// SchemaReport strictly types the result of a schema integrity check.
type SchemaReport struct {
	Matched bool                   `json:"matched"`
	Tables  map[string]TableReport `json:"tables"`
	Errors  []string               `json:"errors"`
}

type TableReport struct {
	MissingTable   bool     `json:"missing_table"`
	MissingColumns []string `json:"missing_columns"`
	TypeMismatches []string `json:"type_mismatches"`
	Status         string   `json:"status"` // "ok", "error"
}

// typeFamilies maps a model data type to fragments any of which may appear
// in the live column type across mysql, postgres and sqlite.
var typeFamilies = map[schema.DataType][]string{
	schema.Bool:   {"bool", "tinyint", "numeric"},
	schema.Int:    {"int", "serial", "numeric"},
	schema.Uint:   {"int", "serial", "numeric"},
	schema.Float:  {"real", "double", "float", "numeric", "decimal"},
	schema.String: {"char", "text"},
	schema.Time:   {"date", "time"},
	schema.Bytes:  {"blob", "binary", "bytea"},
	"json":        {"json", "text"},
}

// CheckSchema verifies the database schema using GORM models as the source
// of truth. Columns the models do not declare are ignored.
func CheckSchema(db *gorm.DB, models ...any) (*SchemaReport, error) {
	if db == nil {
		return nil, fmt.Errorf("database connection is nil")
	}

	report := &SchemaReport{
		Matched: true,
		Tables:  make(map[string]TableReport),
		Errors:  []string{},
	}

	for _, model := range models {
		stmt := &gorm.Statement{DB: db}
		if err := stmt.Parse(model); err != nil {
			return nil, fmt.Errorf("failed to parse model %T: %w", model, err)
		}
		table := stmt.Schema.Table

		actualCols, err := database.GetTableColumns(db, table)
		if err != nil {
			report.Errors = append(report.Errors, fmt.Sprintf("Failed to inspect table %s: %v", table, err))
			report.Matched = false
			continue
		}

		tblReport := TableReport{
			MissingColumns: []string{},
			TypeMismatches: []string{},
			Status:         "ok",
		}
		if len(actualCols) == 0 {
			tblReport.MissingTable = true
			tblReport.Status = "error"
			report.Tables[table] = tblReport
			report.Matched = false
			continue
		}

		actual := make(map[string]string, len(actualCols))
		for _, col := range actualCols {
			actual[col.Field] = col.Type
		}

		for _, field := range stmt.Schema.Fields {
			if field.DBName == "" {
				continue
			}
			colType, ok := actual[field.DBName]
			if !ok {
				tblReport.MissingColumns = append(tblReport.MissingColumns, field.DBName)
				tblReport.Status = "error"
				continue
			}
			if !typeMatches(field.DataType, colType) {
				tblReport.TypeMismatches = append(tblReport.TypeMismatches,
					fmt.Sprintf("%s: expected %s, got %s", field.DBName, field.DataType, colType))
				tblReport.Status = "error"
			}
		}

		if tblReport.Status != "ok" {
			report.Matched = false
		}
		report.Tables[table] = tblReport
	}

	return report, nil
}

func typeMatches(expected schema.DataType, actual string) bool {
	fragments, known := typeFamilies[schema.DataType(strings.ToLower(string(expected)))]
	if !known {
		return true
	}
	for _, f := range fragments {
		if strings.Contains(actual, f) {
			return true
		}
	}
	return false
}
