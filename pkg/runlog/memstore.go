package runlog

import (
	"context"
	"sync"
)

// MemStore keeps runs in memory.
type MemStore struct {
	mu   sync.Mutex
	runs []Run
}

var _ Store = (*MemStore)(nil)

// NewMemStore creates an empty MemStore.
func NewMemStore() *MemStore {
	return &MemStore{}
}

func (s *MemStore) EnsureTable(_ context.Context) error { return nil }

func (s *MemStore) Append(_ context.Context, r *Run) error {
	if r.ID == "" {
		r.ID = NewID()
	}
	if r.Details == nil {
		r.Details = map[string]any{}
	}
	s.mu.Lock()
	s.runs = append(s.runs, *r)
	s.mu.Unlock()
	return nil
}

// Recent returns up to limit runs for owner, newest first.
func (s *MemStore) Recent(_ context.Context, owner string, limit int) ([]Run, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := []Run{}
	for i := len(s.runs) - 1; i >= 0 && len(out) < limit; i-- {
		if s.runs[i].Owner == owner {
			out = append(out, s.runs[i])
		}
	}
	return out, nil
}
