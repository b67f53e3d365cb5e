// Package rank assigns priority scores to an owner's tasks. A run asks the
// oracle for the whole batch and, if that fails in any way, scores the whole
// batch locally instead. The two sources are never mixed within one run.
package rank

import (
	"context"
	"errors"
	"fmt"
	"log"
	"time"

	"taskpilot/pkg/runlog"
	"taskpilot/pkg/task"
)

// Strategies recorded on a run.
const (
	StrategyOracle   = "oracle"
	StrategyFallback = "fallback"
	StrategyNone     = "none" // nothing to rank
)

var (
	errNoScorer     = errors.New("no oracle configured")
	errEmptyReply   = errors.New("oracle returned no usable records")
	errPartialReply = errors.New("oracle reply does not cover every task")
)

// Scorer produces score records for a batch. *oracle.Client satisfies it.
type Scorer interface {
	Score(ctx context.Context, tasks []task.Task) ([]task.ScoreRecord, error)
}

// Result is what a ranking run hands back to the caller.
type Result struct {
	Updated  int         `json:"updated"`
	Strategy string      `json:"strategy"`
	RunID    string      `json:"run_id,omitempty"`
	Tasks    []task.Task `json:"tasks"`
}

// Engine runs ranking for one owner at a time.
type Engine struct {
	store   task.Store
	scorer  Scorer
	journal runlog.Store
	locks   *ownerLocks
	now     func() time.Time
}

// New creates an Engine. scorer and journal may be nil.
func New(store task.Store, scorer Scorer, journal runlog.Store) *Engine {
	return &Engine{
		store:   store,
		scorer:  scorer,
		journal: journal,
		locks:   newOwnerLocks(),
		now:     time.Now,
	}
}

// Rank scores every task owned by owner, persists the scores and returns the
// owner's tasks sorted by priority. Oracle problems never surface here; only
// storage failures and a missing owner do.
func (e *Engine) Rank(ctx context.Context, owner string) (*Result, error) {
	if owner == "" {
		return nil, &task.ValidationError{Field: "owner", Message: "is required"}
	}

	release, err := e.locks.acquire(ctx, owner)
	if err != nil {
		return nil, fmt.Errorf("wait for ranking lock: %w", err)
	}
	defer release()

	started := e.now()
	tasks, err := e.store.List(ctx, owner, task.Filter{Order: task.ByCreated})
	if err != nil {
		return nil, err
	}
	if len(tasks) == 0 {
		return &Result{Strategy: StrategyNone, Tasks: []task.Task{}}, nil
	}

	records, strategy, cause := e.score(ctx, tasks, started)

	updated := 0
	for _, rec := range records {
		if _, err := e.store.Update(ctx, owner, rec.ID, fromRecord(rec)); err != nil {
			// deleted since the batch was loaded
			if errors.Is(err, task.ErrNotFound) {
				continue
			}
			return nil, err
		}
		updated++
	}

	ranked, err := e.store.List(ctx, owner, task.Filter{Order: task.ByPriority})
	if err != nil {
		return nil, err
	}

	run := &runlog.Run{
		ID:         runlog.NewID(),
		Owner:      owner,
		Strategy:   strategy,
		TaskCount:  len(tasks),
		Updated:    updated,
		Details:    map[string]any{},
		StartedAt:  started,
		FinishedAt: e.now(),
	}
	if cause != nil {
		run.Details["oracle_error"] = cause.Error()
	}
	if e.journal != nil {
		if err := e.journal.Append(ctx, run); err != nil {
			log.Printf("rank: journal append failed for run %s: %v", run.ID, err)
		}
	}
	log.Printf("rank: owner=%s strategy=%s updated=%d/%d", owner, strategy, updated, len(tasks))

	return &Result{
		Updated:  updated,
		Strategy: strategy,
		RunID:    run.ID,
		Tasks:    ranked,
	}, nil
}

// score picks the source for the whole batch. The returned error is the
// reason the oracle was not used, if it wasn't.
func (e *Engine) score(ctx context.Context, tasks []task.Task, now time.Time) ([]task.ScoreRecord, string, error) {
	if e.scorer == nil {
		return FallbackAll(tasks, now), StrategyFallback, errNoScorer
	}
	records, err := e.scorer.Score(ctx, tasks)
	if err == nil {
		records, err = reconcile(tasks, records)
	}
	if err != nil {
		log.Printf("rank: falling back for %d tasks: %v", len(tasks), err)
		return FallbackAll(tasks, now), StrategyFallback, err
	}
	return records, StrategyOracle, nil
}

// reconcile matches oracle records to the batch. Unknown ids are dropped and
// the first record for an id wins. Any task left without a record makes the
// reply unusable.
func reconcile(tasks []task.Task, records []task.ScoreRecord) ([]task.ScoreRecord, error) {
	byID := make(map[int64]task.ScoreRecord, len(records))
	known := make(map[int64]bool, len(tasks))
	for _, t := range tasks {
		known[t.ID] = true
	}
	for _, rec := range records {
		if !known[rec.ID] {
			continue
		}
		if _, dup := byID[rec.ID]; dup {
			continue
		}
		if rec.Score < task.MinScore || rec.Score > task.MaxScore {
			return nil, fmt.Errorf("score %d for task %d out of range", rec.Score, rec.ID)
		}
		byID[rec.ID] = rec
	}
	if len(byID) == 0 {
		return nil, errEmptyReply
	}
	if len(byID) < len(tasks) {
		return nil, fmt.Errorf("%w: %d of %d", errPartialReply, len(byID), len(tasks))
	}

	out := make([]task.ScoreRecord, 0, len(tasks))
	for _, t := range tasks {
		out = append(out, byID[t.ID])
	}
	return out, nil
}

// Recent returns the owner's latest runs from the journal.
func (e *Engine) Recent(ctx context.Context, owner string, limit int) ([]runlog.Run, error) {
	if e.journal == nil {
		return []runlog.Run{}, nil
	}
	return e.journal.Recent(ctx, owner, limit)
}
