package task

import (
	"context"
	"sort"
	"strings"
	"sync"
	"time"
)

type memKey struct {
	owner string
	id    int64
}

// MemStore is an in-memory Store used when no database is configured and in tests.
type MemStore struct {
	mu     sync.RWMutex
	nextID int64
	tasks  map[memKey]*Task
	now    func() time.Time
}

var _ Store = (*MemStore)(nil)

// NewMemStore creates an empty MemStore.
func NewMemStore() *MemStore {
	return &MemStore{tasks: make(map[memKey]*Task), now: time.Now}
}

// EnsureTable is a no-op.
func (s *MemStore) EnsureTable(_ context.Context) error { return nil }

// Insert stores a copy of t. A non-zero t.ID is kept, which lets tests seed
// colliding ids for different owners.
func (s *MemStore) Insert(_ context.Context, t *Task) (*Task, error) {
	if err := Normalize(t); err != nil {
		return nil, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	cp := *t
	if cp.ID == 0 {
		s.nextID++
		cp.ID = s.nextID
	} else if cp.ID > s.nextID {
		s.nextID = cp.ID
	}
	if cp.CreatedAt.IsZero() {
		// Strictly increasing so created_at ordering is stable within a test.
		cp.CreatedAt = s.now().Add(time.Duration(s.nextID) * time.Microsecond)
	}
	cp.UpdatedAt = cp.CreatedAt
	s.tasks[memKey{cp.Owner, cp.ID}] = &cp
	out := cp
	return &out, nil
}

// Get returns a copy of the task.
func (s *MemStore) Get(_ context.Context, owner string, id int64) (*Task, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	t, ok := s.tasks[memKey{owner, id}]
	if !ok {
		return nil, ErrNotFound
	}
	cp := *t
	return &cp, nil
}

// Update applies f to the stored task.
func (s *MemStore) Update(_ context.Context, owner string, id int64, f Fields) (*Task, error) {
	if err := f.Validate(); err != nil {
		return nil, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	t, ok := s.tasks[memKey{owner, id}]
	if !ok {
		return nil, ErrNotFound
	}
	if f.Title != nil {
		t.Title = strings.TrimSpace(*f.Title)
	}
	if f.Description != nil {
		t.Description = *f.Description
	}
	if f.DueDate != nil {
		d := *f.DueDate
		t.DueDate = &d
	}
	if f.ClearDue {
		t.DueDate = nil
	}
	if f.Urgency != nil {
		t.Urgency = *f.Urgency
	}
	if f.Workload != nil {
		t.Workload = *f.Workload
	}
	if f.Category != nil {
		t.Category = strings.TrimSpace(*f.Category)
	}
	if f.Priority != nil {
		t.PriorityScore = f.Priority.Score
		t.PriorityReason = nil
		if f.Priority.Score.Valid() && f.Priority.Reason != "" {
			r := f.Priority.Reason
			t.PriorityReason = &r
		}
	}
	t.UpdatedAt = s.now()
	cp := *t
	return &cp, nil
}

// Delete removes the task if present.
func (s *MemStore) Delete(_ context.Context, owner string, id int64) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	k := memKey{owner, id}
	if _, ok := s.tasks[k]; !ok {
		return false, nil
	}
	delete(s.tasks, k)
	return true, nil
}

// List returns copies of the owner's tasks in the requested order.
func (s *MemStore) List(_ context.Context, owner string, f Filter) ([]Task, error) {
	s.mu.RLock()
	tasks := []Task{}
	for k, t := range s.tasks {
		if k.owner != owner {
			continue
		}
		if f.Category != "" && t.Category != f.Category {
			continue
		}
		tasks = append(tasks, *t)
	}
	s.mu.RUnlock()

	if f.Order == ByCreated {
		sort.Slice(tasks, func(i, j int) bool {
			if !tasks[i].CreatedAt.Equal(tasks[j].CreatedAt) {
				return tasks[i].CreatedAt.Before(tasks[j].CreatedAt)
			}
			return tasks[i].ID < tasks[j].ID
		})
		return tasks, nil
	}
	SortByPriority(tasks)
	return tasks, nil
}

// SortByPriority orders tasks by score desc with unranked tasks last, then
// by created_at desc.
func SortByPriority(tasks []Task) {
	sort.SliceStable(tasks, func(i, j int) bool {
		si, iok := tasks[i].PriorityScore.Int()
		sj, jok := tasks[j].PriorityScore.Int()
		if iok != jok {
			return iok
		}
		if iok && si != sj {
			return si > sj
		}
		if !tasks[i].CreatedAt.Equal(tasks[j].CreatedAt) {
			return tasks[i].CreatedAt.After(tasks[j].CreatedAt)
		}
		return tasks[i].ID > tasks[j].ID
	})
}
