package runlog

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"
)

// PgStore is a PostgreSQL-backed run journal.
type PgStore struct {
	pool *pgxpool.Pool
}

var _ Store = (*PgStore)(nil)

// NewPgStore creates a PgStore.
func NewPgStore(pool *pgxpool.Pool) *PgStore {
	return &PgStore{pool: pool}
}

// EnsureTable creates the rank_runs table if it doesn't exist.
func (s *PgStore) EnsureTable(ctx context.Context) error {
	_, err := s.pool.Exec(ctx, `
		CREATE TABLE IF NOT EXISTS rank_runs (
			id          TEXT PRIMARY KEY,
			owner       TEXT NOT NULL,
			strategy    TEXT NOT NULL,
			task_count  INTEGER NOT NULL DEFAULT 0,
			updated     INTEGER NOT NULL DEFAULT 0,
			details     JSONB NOT NULL DEFAULT '{}',
			started_at  TIMESTAMPTZ NOT NULL,
			finished_at TIMESTAMPTZ NOT NULL
		)`)
	if err != nil {
		return err
	}
	_, err = s.pool.Exec(ctx, `CREATE INDEX IF NOT EXISTS idx_rank_runs_owner ON rank_runs(owner, started_at DESC)`)
	return err
}

// Append stores r, assigning an ID when it has none.
func (s *PgStore) Append(ctx context.Context, r *Run) error {
	if r.ID == "" {
		r.ID = NewID()
	}
	if r.Details == nil {
		r.Details = map[string]any{}
	}
	detailsJSON, err := json.Marshal(r.Details)
	if err != nil {
		return fmt.Errorf("marshal details: %w", err)
	}
	_, err = s.pool.Exec(ctx, `
		INSERT INTO rank_runs (id, owner, strategy, task_count, updated, details, started_at, finished_at)
		VALUES ($1, $2, $3, $4, $5, $6::jsonb, $7, $8)`,
		r.ID, r.Owner, r.Strategy, r.TaskCount, r.Updated, string(detailsJSON), r.StartedAt, r.FinishedAt)
	if err != nil {
		return fmt.Errorf("insert run: %w", err)
	}
	return nil
}

// Recent returns the owner's latest runs, newest first.
func (s *PgStore) Recent(ctx context.Context, owner string, limit int) ([]Run, error) {
	rows, err := s.pool.Query(ctx, `
		SELECT id, owner, strategy, task_count, updated, details, started_at, finished_at
		FROM rank_runs WHERE owner = $1 ORDER BY started_at DESC, id DESC LIMIT $2`, owner, limit)
	if err != nil {
		return nil, fmt.Errorf("recent runs: %w", err)
	}
	defer rows.Close()

	runs := []Run{}
	for rows.Next() {
		var r Run
		var detailsJSON []byte
		if err := rows.Scan(&r.ID, &r.Owner, &r.Strategy, &r.TaskCount, &r.Updated, &detailsJSON, &r.StartedAt, &r.FinishedAt); err != nil {
			return nil, err
		}
		if err := json.Unmarshal(detailsJSON, &r.Details); err != nil {
			r.Details = map[string]any{}
		}
		runs = append(runs, r)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("row iteration: %w", err)
	}
	return runs, nil
}
