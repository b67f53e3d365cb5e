package task

import (
	"context"
	"time"
)

const (
	// DefaultCategory is assigned when a task is created without one.
	DefaultCategory = "General"

	// MinLevel and MaxLevel bound urgency and workload.
	MinLevel = 1
	MaxLevel = 5
)

// Task is a unit of work owned by exactly one principal.
type Task struct {
	ID             int64      `json:"id"`
	Owner          string     `json:"owner"`
	Title          string     `json:"title"`
	Description    string     `json:"description"`
	DueDate        *time.Time `json:"due_date"`
	Urgency        int        `json:"urgency"`  // 1-5
	Workload       int        `json:"workload"` // 1-5
	Category       string     `json:"category"`
	PriorityScore  Score      `json:"priority_score"`
	PriorityReason *string    `json:"priority_reason"`
	CreatedAt      time.Time  `json:"created_at"`
	UpdatedAt      time.Time  `json:"updated_at"`
}

// Ranked reports whether the task carries a priority score.
func (t *Task) Ranked() bool {
	return t.PriorityScore.Valid()
}

// ScoreRecord is one scored task produced by a ranking strategy.
type ScoreRecord struct {
	ID     int64  `json:"id"`
	Score  int    `json:"priority_score"`
	Reason string `json:"reason"`
}

// Priority is the score/reason pair written together onto a task.
// A null Score always travels with an empty Reason.
type Priority struct {
	Score  Score
	Reason string
}

// Fields is a partial update. Nil pointers leave the column untouched.
type Fields struct {
	Title       *string
	Description *string
	DueDate     *time.Time
	ClearDue    bool
	Urgency     *int
	Workload    *int
	Category    *string
	Priority    *Priority
}

// Empty reports whether the update would change nothing.
func (f Fields) Empty() bool {
	return f.Title == nil && f.Description == nil && f.DueDate == nil && !f.ClearDue &&
		f.Urgency == nil && f.Workload == nil && f.Category == nil && f.Priority == nil
}

// Order selects the sort applied by List.
type Order int

const (
	// ByPriority sorts by priority_score desc (nulls last), then created_at desc.
	ByPriority Order = iota
	// ByCreated sorts by created_at asc, then id asc.
	ByCreated
)

// Filter narrows a List call. The zero value lists everything by priority.
type Filter struct {
	Order    Order
	Category string
}

// Store is the contract for task persistence. Every operation is scoped by
// owner; a task owned by someone else is reported as ErrNotFound.
type Store interface {
	List(ctx context.Context, owner string, f Filter) ([]Task, error)
	Get(ctx context.Context, owner string, id int64) (*Task, error)
	Insert(ctx context.Context, t *Task) (*Task, error)
	Update(ctx context.Context, owner string, id int64, f Fields) (*Task, error)
	Delete(ctx context.Context, owner string, id int64) (bool, error)
	EnsureTable(ctx context.Context) error
}
