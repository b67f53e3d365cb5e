// Package runlog is an append-only journal of ranking runs.
package runlog

import (
	"context"
	"time"

	"github.com/google/uuid"
)

// Run records the outcome of one ranking run.
type Run struct {
	ID         string         `json:"id"` // UUID v7 (time-ordered)
	Owner      string         `json:"owner"`
	Strategy   string         `json:"strategy"` // "oracle" or "fallback"
	TaskCount  int            `json:"task_count"`
	Updated    int            `json:"updated"`
	Details    map[string]any `json:"details"` // e.g. why the oracle was skipped
	StartedAt  time.Time      `json:"started_at"`
	FinishedAt time.Time      `json:"finished_at"`
}

// Store is the contract for run persistence.
type Store interface {
	Append(ctx context.Context, r *Run) error
	Recent(ctx context.Context, owner string, limit int) ([]Run, error)
	EnsureTable(ctx context.Context) error
}

// NewID returns a fresh time-ordered run ID.
func NewID() string {
	return uuid.Must(uuid.NewV7()).String()
}
