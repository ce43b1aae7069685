package reconcile

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"fleet-manager/core/database"

	"go.uber.org/zap"
	"gorm.io/gorm"
)

// Engine merges snapshot documents into the store. Collections are processed
// in the order they were given to NewEngine, which must be parents before
// children.
type Engine struct {
	db          *gorm.DB
	logger      *zap.Logger
	collections []Collection

	// mu serialises restores within the process; the transaction isolates
	// them from everything else.
	mu sync.Mutex
}

// NewEngine creates an engine over db for the ordered collections.
func NewEngine(db *gorm.DB, logger *zap.Logger, collections ...Collection) *Engine {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Engine{db: db, logger: logger, collections: collections}
}

// Collections returns the collection names in processing order.
func (e *Engine) Collections() []string {
	names := make([]string, len(e.collections))
	for i, c := range e.collections {
		names[i] = c.Name()
	}
	return names
}

// Restore validates doc and applies it as one unit of work.
func (e *Engine) Restore(ctx context.Context, doc Document) (*Summary, error) {
	plan, err := e.Plan(doc)
	if err != nil {
		return nil, err
	}
	return e.Apply(ctx, plan)
}

// Plan validates every record of every collection. No writes happen here, so
// a malformed record anywhere in the document leaves the store untouched.
func (e *Engine) Plan(doc Document) (*RestorePlan, error) {
	plan := &RestorePlan{}
	known := make(map[string]struct{}, len(e.collections))

	for _, c := range e.collections {
		known[c.Name()] = struct{}{}
		rows, ok := doc[c.Name()]
		if !ok {
			continue
		}
		records, err := c.Validate(rows)
		if err != nil {
			return nil, malformed(c.Name(), err)
		}
		plan.Steps = append(plan.Steps, Step{Collection: c, Records: records})
	}

	for key := range doc {
		if _, ok := known[key]; !ok {
			plan.Ignored = append(plan.Ignored, key)
		}
	}
	sort.Strings(plan.Ignored)

	return plan, nil
}

// Apply writes a validated plan and repairs identifier sequences, all inside
// one transaction. Cancelling ctx does not interrupt a running restore.
func (e *Engine) Apply(ctx context.Context, plan *RestorePlan) (summary *Summary, err error) {
	e.mu.Lock()
	defer e.mu.Unlock()

	start := time.Now()
	if len(plan.Ignored) > 0 {
		e.logger.Warn("Ignoring unknown snapshot collections", zap.Strings("collections", plan.Ignored))
	}

	summary = &Summary{
		Status:    "imported",
		Sequences: make(map[string]int64),
	}

	err = e.db.WithContext(context.WithoutCancel(ctx)).Transaction(func(tx *gorm.DB) (txErr error) {
		defer func() {
			if r := recover(); r != nil {
				txErr = storageFault("", -1, fmt.Errorf("panic during restore: %v", r))
			}
		}()

		touched := make(map[string]struct{})
		summary.Collections = summary.Collections[:0]
		summary.Orphaned = 0

		for _, step := range plan.Steps {
			name := step.Collection.Name()
			stats := CollectionStats{Name: name, Received: len(step.Records)}

			for i, rec := range step.Records {
				outcome, err := step.Collection.Apply(tx, rec)
				if err != nil {
					return storageFault(name, i, err)
				}
				stats.record(outcome)
				if outcome == OutcomeInserted && step.Collection.Table() != "" {
					touched[step.Collection.Table()] = struct{}{}
				}
			}

			summary.Collections = append(summary.Collections, stats)
			summary.Orphaned += stats.Orphaned
		}

		tables := make([]string, 0, len(touched))
		for table := range touched {
			tables = append(tables, table)
		}
		sort.Strings(tables)

		for _, table := range tables {
			next, err := database.Resync(tx, table)
			if err != nil {
				return storageFault("", -1, err)
			}
			summary.Sequences[table] = next
		}
		return nil
	})

	if err != nil {
		ie, ok := err.(*ImportError)
		if !ok {
			// Begin or commit failed.
			ie = storageFault("", -1, err)
		}
		e.logger.Error("Restore rolled back",
			zap.String("kind", string(ie.Kind)),
			zap.String("collection", ie.Collection),
			zap.Int("index", ie.Index),
			zap.Error(ie.Err),
		)
		return nil, ie
	}

	summary.Duration = time.Since(start)
	e.logger.Info("Restore committed",
		zap.Int("records", plan.Records()),
		zap.Int("orphaned", summary.Orphaned),
		zap.Int("sequences", len(summary.Sequences)),
		zap.Duration("duration", summary.Duration),
	)
	return summary, nil
}
