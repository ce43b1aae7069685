package reconcile

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"

	"fleet-manager/core/database"
	"fleet-manager/core/utils"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

type widget struct {
	ID   int64  `gorm:"primaryKey;autoIncrement:false"`
	Name string `gorm:"uniqueIndex;not null"`
}

func (widget) TableName() string { return "widgets" }

type part struct {
	ID       int64 `gorm:"primaryKey;autoIncrement:false"`
	WidgetID int64 `gorm:"not null"`
}

func (part) TableName() string { return "parts" }

// widgetCollection inserts widgets if their id is absent.
type widgetCollection struct {
	panicOn string
}

func (widgetCollection) Name() string  { return "widgets" }
func (widgetCollection) Table() string { return "widgets" }

func (widgetCollection) Validate(rows []Row) ([]Record, error) {
	out := make([]Record, 0, len(rows))
	for i, row := range rows {
		id, err := utils.ToInt64(row["id"])
		if err != nil {
			return nil, &FieldError{Index: i, Field: "id", Err: err}
		}
		name, err := utils.ToString(row["name"])
		if err != nil {
			return nil, &FieldError{Index: i, Field: "name", Err: err}
		}
		out = append(out, widget{ID: id, Name: name})
	}
	return out, nil
}

func (c widgetCollection) Apply(tx *gorm.DB, rec Record) (Outcome, error) {
	w := rec.(widget)
	if c.panicOn != "" && w.Name == c.panicOn {
		panic("exploding widget")
	}
	var n int64
	if err := tx.Model(&widget{}).Where("id = ?", w.ID).Count(&n).Error; err != nil {
		return 0, err
	}
	if n > 0 {
		return OutcomeExisting, nil
	}
	return OutcomeInserted, tx.Create(&w).Error
}

// partCollection drops parts whose widget is missing.
type partCollection struct{}

func (partCollection) Name() string  { return "parts" }
func (partCollection) Table() string { return "parts" }

func (partCollection) Validate(rows []Row) ([]Record, error) {
	out := make([]Record, 0, len(rows))
	for i, row := range rows {
		id, err := utils.ToInt64(row["id"])
		if err != nil {
			return nil, &FieldError{Index: i, Field: "id", Err: err}
		}
		wid, err := utils.ToInt64(row["widget_id"])
		if err != nil {
			return nil, &FieldError{Index: i, Field: "widget_id", Err: err}
		}
		out = append(out, part{ID: id, WidgetID: wid})
	}
	return out, nil
}

func (partCollection) Apply(tx *gorm.DB, rec Record) (Outcome, error) {
	p := rec.(part)
	var n int64
	if err := tx.Model(&widget{}).Where("id = ?", p.WidgetID).Count(&n).Error; err != nil {
		return 0, err
	}
	if n == 0 {
		return OutcomeOrphaned, nil
	}
	if err := tx.Model(&part{}).Where("id = ?", p.ID).Count(&n).Error; err != nil {
		return 0, err
	}
	if n > 0 {
		return OutcomeExisting, nil
	}
	return OutcomeInserted, tx.Create(&p).Error
}

func setupEngine(t *testing.T, widgets widgetCollection) (*Engine, *gorm.DB) {
	t.Helper()
	db, err := database.Connect(database.Config{Driver: database.DriverSQLite, Name: ":memory:"})
	require.NoError(t, err)
	require.NoError(t, database.Migrate(db, &widget{}, &part{}))
	return NewEngine(db, zap.NewNop(), widgets, partCollection{}), db
}

func count(t *testing.T, db *gorm.DB, model any) int64 {
	t.Helper()
	var n int64
	require.NoError(t, db.Model(model).Count(&n).Error)
	return n
}

func TestEngine_Restore(t *testing.T) {
	ctx := context.Background()

	t.Run("Parents Before Children", func(t *testing.T) {
		engine, db := setupEngine(t, widgetCollection{})

		summary, err := engine.Restore(ctx, Document{
			"parts":   {{"id": 1, "widget_id": 7}, {"id": 2, "widget_id": 99}},
			"widgets": {{"id": 7, "name": "seven"}},
		})
		require.NoError(t, err)

		assert.Equal(t, "imported", summary.Status)
		assert.Equal(t, 1, summary.Orphaned)
		assert.Equal(t, 1, summary.Collection("parts").Inserted)
		assert.Equal(t, 1, summary.Collection("parts").Orphaned)
		assert.Equal(t, int64(1), count(t, db, &part{}))
	})

	t.Run("Idempotent", func(t *testing.T) {
		engine, db := setupEngine(t, widgetCollection{})
		doc := Document{"widgets": {{"id": 1, "name": "one"}, {"id": 2, "name": "two"}}}

		_, err := engine.Restore(ctx, doc)
		require.NoError(t, err)
		summary, err := engine.Restore(ctx, doc)
		require.NoError(t, err)

		assert.Equal(t, 2, summary.Collection("widgets").Existing)
		assert.Equal(t, 0, summary.Collection("widgets").Inserted)
		assert.Equal(t, int64(2), count(t, db, &widget{}))
	})

	t.Run("Malformed Record Writes Nothing", func(t *testing.T) {
		engine, db := setupEngine(t, widgetCollection{})

		_, err := engine.Restore(ctx, Document{
			"widgets": {{"id": 1, "name": "one"}},
			"parts":   {{"id": 1, "widget_id": "not-a-number"}},
		})
		require.Error(t, err)
		assert.ErrorIs(t, err, ErrMalformedInput)
		assert.NotErrorIs(t, err, ErrStorageFault)

		var ie *ImportError
		require.True(t, errors.As(err, &ie))
		assert.Equal(t, "parts", ie.Collection)
		assert.Equal(t, 0, ie.Index)
		assert.Equal(t, "widget_id", ie.Field)
		assert.ErrorIs(t, err, utils.ErrWrongType)

		assert.Equal(t, int64(0), count(t, db, &widget{}))
	})

	t.Run("Storage Fault Rolls Back Earlier Collections", func(t *testing.T) {
		engine, db := setupEngine(t, widgetCollection{})
		require.NoError(t, db.Create(&widget{ID: 1, Name: "taken"}).Error)

		// id 2 reuses a unique name: a constraint violation other than the id.
		_, err := engine.Restore(ctx, Document{
			"widgets": {{"id": 3, "name": "fresh"}, {"id": 2, "name": "taken"}},
		})
		require.Error(t, err)
		assert.ErrorIs(t, err, ErrStorageFault)

		var ie *ImportError
		require.True(t, errors.As(err, &ie))
		assert.Equal(t, "widgets", ie.Collection)
		assert.Equal(t, 1, ie.Index)

		assert.Equal(t, int64(1), count(t, db, &widget{}))
		assert.Equal(t, int64(0), count(t, db, &database.IDSequence{}))
	})

	t.Run("Panic Becomes Storage Fault", func(t *testing.T) {
		engine, db := setupEngine(t, widgetCollection{panicOn: "boom"})

		_, err := engine.Restore(ctx, Document{
			"widgets": {{"id": 1, "name": "fine"}, {"id": 2, "name": "boom"}},
		})
		require.Error(t, err)
		assert.ErrorIs(t, err, ErrStorageFault)
		assert.Contains(t, err.Error(), "exploding widget")
		assert.Equal(t, int64(0), count(t, db, &widget{}))
	})

	t.Run("Sequences Repaired", func(t *testing.T) {
		engine, db := setupEngine(t, widgetCollection{})

		summary, err := engine.Restore(ctx, Document{"widgets": {{"id": 500, "name": "big"}}})
		require.NoError(t, err)
		assert.Equal(t, map[string]int64{"widgets": 501}, summary.Sequences)

		var id int64
		err = db.Transaction(func(tx *gorm.DB) (err error) {
			id, err = database.NextID(tx, "widgets")
			return err
		})
		require.NoError(t, err)
		assert.Equal(t, int64(501), id)
	})

	t.Run("Untouched Tables Keep Their Sequence", func(t *testing.T) {
		engine, _ := setupEngine(t, widgetCollection{})

		summary, err := engine.Restore(ctx, Document{"parts": {{"id": 1, "widget_id": 5}}})
		require.NoError(t, err)
		assert.Empty(t, summary.Sequences)
	})

	t.Run("Cancelled Context Still Commits", func(t *testing.T) {
		engine, db := setupEngine(t, widgetCollection{})
		cancelled, cancel := context.WithCancel(ctx)
		cancel()

		_, err := engine.Restore(cancelled, Document{"widgets": {{"id": 1, "name": "one"}}})
		require.NoError(t, err)
		assert.Equal(t, int64(1), count(t, db, &widget{}))
	})

	t.Run("Concurrent Restores Insert Once", func(t *testing.T) {
		engine, db := setupEngine(t, widgetCollection{})
		doc := Document{"widgets": {{"id": 1, "name": "one"}, {"id": 2, "name": "two"}}}

		var wg sync.WaitGroup
		summaries := make([]*Summary, 8)
		errs := make([]error, 8)
		for i := range summaries {
			wg.Add(1)
			go func(i int) {
				defer wg.Done()
				summaries[i], errs[i] = engine.Restore(ctx, doc)
			}(i)
		}
		wg.Wait()

		inserted := 0
		for i := range summaries {
			require.NoError(t, errs[i])
			inserted += summaries[i].Collection("widgets").Inserted
		}
		assert.Equal(t, 2, inserted)
		assert.Equal(t, int64(2), count(t, db, &widget{}))
	})
}

func TestEngine_Plan(t *testing.T) {
	engine, _ := setupEngine(t, widgetCollection{})

	plan, err := engine.Plan(Document{
		"widgets": {{"id": 1, "name": "one"}},
		"gizmos":  {{"id": 1}},
	})
	require.NoError(t, err)

	assert.Equal(t, []string{"gizmos"}, plan.Ignored)
	assert.Equal(t, 1, plan.Records())
	assert.Equal(t, []string{"widgets", "parts"}, engine.Collections())
}

func TestImportError_Error(t *testing.T) {
	tests := []struct {
		err  *ImportError
		want string
	}{
		{&ImportError{Kind: KindMalformed, Collection: "assets", Index: 2, Field: "name", Err: fmt.Errorf("missing")},
			"restore failed: malformed_input in assets[2].name: missing"},
		{&ImportError{Kind: KindStorage, Collection: "assets", Index: 0, Err: fmt.Errorf("locked")},
			"restore failed: storage_fault in assets[0]: locked"},
		{&ImportError{Kind: KindStorage, Index: -1, Err: fmt.Errorf("commit")},
			"restore failed: storage_fault: commit"},
	}

	for _, tt := range tests {
		assert.Equal(t, tt.want, tt.err.Error())
	}
}
