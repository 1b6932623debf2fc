package ranking

import (
	"context"
	"fmt"
	"sort"
	"sync"

	"github.com/uptrace/bun"
	"go.uber.org/zap"

	"raceday/models"
)

// Engine recomputes category rankings. Recalculations for the same
// category are serialized behind a per-category mutex so two finishes
// recorded at the same moment cannot interleave their read-sort-write
// cycles.
type Engine struct {
	db  *bun.DB
	log *zap.Logger

	mu    sync.Mutex
	locks map[int]*sync.Mutex
}

// NewEngine creates an Engine over the given database connection.
func NewEngine(db *bun.DB, log *zap.Logger) *Engine {
	return &Engine{
		db:    db,
		log:   log,
		locks: map[int]*sync.Mutex{},
	}
}

func (e *Engine) categoryLock(categoryID int) *sync.Mutex {
	e.mu.Lock()
	defer e.mu.Unlock()
	l, ok := e.locks[categoryID]
	if !ok {
		l = &sync.Mutex{}
		e.locks[categoryID] = l
	}
	return l
}

// Recalculate rewrites the ranking field of every result in the category:
// fetch all results, parse each completion time to milliseconds, sort
// ascending and assign 1..N. Ties break deterministically on earlier
// recorded_at, then lower id. All updates run in one transaction so a
// failure part-way leaves the previous rankings intact.
func (e *Engine) Recalculate(ctx context.Context, categoryID int) error {
	lock := e.categoryLock(categoryID)
	lock.Lock()
	defer lock.Unlock()

	var results []models.Result
	err := e.db.NewSelect().Model(&results).
		Where("category_id = ?", categoryID).
		OrderExpr("recorded_at ASC, id ASC").
		Scan(ctx)
	if err != nil {
		e.log.Error("fetch results for recalculation", zap.Int("categoryID", categoryID), zap.Error(err))
		return fmt.Errorf("fetching results for category %d: %w", categoryID, err)
	}
	if len(results) == 0 {
		return nil
	}

	durations := make([]int64, len(results))
	for i := range results {
		durations[i] = ParseCompletionTime(results[i].CompletionTime)
	}

	order := make([]int, len(results))
	for i := range order {
		order[i] = i
	}
	// The fetch is ordered recorded_at, id; a stable sort on duration
	// keeps that order for equal times.
	sort.SliceStable(order, func(a, b int) bool {
		return durations[order[a]] < durations[order[b]]
	})

	tx, err := e.db.BeginTx(ctx, nil)
	if err != nil {
		e.log.Error("begin recalculation tx", zap.Int("categoryID", categoryID), zap.Error(err))
		return fmt.Errorf("beginning recalculation transaction: %w", err)
	}
	committed := false
	defer func() {
		if !committed {
			_ = tx.Rollback()
		}
	}()

	for pos, idx := range order {
		rank := pos + 1
		results[idx].Ranking = &rank
		if _, err := tx.NewUpdate().Model(&results[idx]).
			Column("ranking").
			WherePK().
			Exec(ctx); err != nil {
			e.log.Error("update ranking", zap.Int("resultID", results[idx].ID), zap.Error(err))
			return fmt.Errorf("updating ranking for result %d: %w", results[idx].ID, err)
		}
	}

	if err := tx.Commit(); err != nil {
		e.log.Error("commit recalculation tx", zap.Int("categoryID", categoryID), zap.Error(err))
		return fmt.Errorf("committing recalculation: %w", err)
	}
	committed = true

	e.log.Debug("category recalculated",
		zap.Int("categoryID", categoryID),
		zap.Int("results", len(results)),
	)
	return nil
}
