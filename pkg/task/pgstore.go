package task

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

const taskColumns = `id, owner, title, description, due_date, urgency, workload, category, priority_score, priority_reason, created_at, updated_at`

// PgStore is a PostgreSQL-backed task store.
type PgStore struct {
	pool *pgxpool.Pool
}

var _ Store = (*PgStore)(nil)

// NewPgStore creates a PgStore.
func NewPgStore(pool *pgxpool.Pool) *PgStore {
	return &PgStore{pool: pool}
}

// EnsureTable creates the tasks table if it doesn't exist.
func (s *PgStore) EnsureTable(ctx context.Context) error {
	_, err := s.pool.Exec(ctx, `
		CREATE TABLE IF NOT EXISTS tasks (
			id              BIGSERIAL,
			owner           TEXT NOT NULL,
			title           TEXT NOT NULL,
			description     TEXT NOT NULL DEFAULT '',
			due_date        TIMESTAMPTZ,
			urgency         INTEGER NOT NULL DEFAULT 1 CHECK (urgency BETWEEN 1 AND 5),
			workload        INTEGER NOT NULL DEFAULT 1 CHECK (workload BETWEEN 1 AND 5),
			category        TEXT NOT NULL DEFAULT 'General',
			priority_score  INTEGER CHECK (priority_score BETWEEN 0 AND 100),
			priority_reason TEXT,
			created_at      TIMESTAMPTZ NOT NULL DEFAULT NOW(),
			updated_at      TIMESTAMPTZ NOT NULL DEFAULT NOW(),
			PRIMARY KEY (owner, id)
		)`)
	if err != nil {
		return &StorageError{Op: "create tasks table", Err: err}
	}
	_, err = s.pool.Exec(ctx, `CREATE INDEX IF NOT EXISTS idx_tasks_owner_created ON tasks(owner, created_at)`)
	if err != nil {
		return &StorageError{Op: "create tasks index", Err: err}
	}
	return nil
}

// Insert stores a new task and returns it with id and timestamps assigned.
func (s *PgStore) Insert(ctx context.Context, t *Task) (*Task, error) {
	if err := Normalize(t); err != nil {
		return nil, err
	}
	now := time.Now().Truncate(time.Microsecond)
	row := s.pool.QueryRow(ctx, `
		INSERT INTO tasks (owner, title, description, due_date, urgency, workload, category, priority_score, priority_reason, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $10)
		RETURNING `+taskColumns,
		t.Owner, t.Title, t.Description, t.DueDate, t.Urgency, t.Workload, t.Category, t.PriorityScore, t.PriorityReason, now)
	created, err := scanTask(row)
	if err != nil {
		return nil, &StorageError{Op: "insert task", Err: err}
	}
	return created, nil
}

// Get retrieves a single task by owner and ID.
func (s *PgStore) Get(ctx context.Context, owner string, id int64) (*Task, error) {
	row := s.pool.QueryRow(ctx, `SELECT `+taskColumns+` FROM tasks WHERE owner = $1 AND id = $2`, owner, id)
	t, err := scanTask(row)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, &StorageError{Op: fmt.Sprintf("get task %d", id), Err: err}
	}
	return t, nil
}

// Update modifies the fields set in f and returns the updated task.
func (s *PgStore) Update(ctx context.Context, owner string, id int64, f Fields) (*Task, error) {
	if err := f.Validate(); err != nil {
		return nil, err
	}

	setClauses := []string{"updated_at = $1"}
	args := []any{time.Now().Truncate(time.Microsecond)}
	set := func(column string, v any) {
		args = append(args, v)
		setClauses = append(setClauses, fmt.Sprintf("%s = $%d", column, len(args)))
	}

	if f.Title != nil {
		set("title", strings.TrimSpace(*f.Title))
	}
	if f.Description != nil {
		set("description", *f.Description)
	}
	if f.DueDate != nil {
		set("due_date", *f.DueDate)
	}
	if f.ClearDue {
		set("due_date", nil)
	}
	if f.Urgency != nil {
		set("urgency", *f.Urgency)
	}
	if f.Workload != nil {
		set("workload", *f.Workload)
	}
	if f.Category != nil {
		set("category", strings.TrimSpace(*f.Category))
	}
	if f.Priority != nil {
		set("priority_score", f.Priority.Score)
		set("priority_reason", reasonValue(*f.Priority))
	}

	args = append(args, owner, id)
	query := fmt.Sprintf("UPDATE tasks SET %s WHERE owner = $%d AND id = $%d RETURNING %s",
		strings.Join(setClauses, ", "), len(args)-1, len(args), taskColumns)

	t, err := scanTask(s.pool.QueryRow(ctx, query, args...))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, &StorageError{Op: fmt.Sprintf("update task %d", id), Err: err}
	}
	return t, nil
}

// Delete removes a task. It reports false when nothing matched.
func (s *PgStore) Delete(ctx context.Context, owner string, id int64) (bool, error) {
	tag, err := s.pool.Exec(ctx, `DELETE FROM tasks WHERE owner = $1 AND id = $2`, owner, id)
	if err != nil {
		return false, &StorageError{Op: fmt.Sprintf("delete task %d", id), Err: err}
	}
	return tag.RowsAffected() > 0, nil
}

// List returns the owner's tasks in the order selected by f.
func (s *PgStore) List(ctx context.Context, owner string, f Filter) ([]Task, error) {
	query := `SELECT ` + taskColumns + ` FROM tasks WHERE owner = $1`
	args := []any{owner}
	if f.Category != "" {
		query += ` AND category = $2`
		args = append(args, f.Category)
	}
	switch f.Order {
	case ByCreated:
		query += ` ORDER BY created_at ASC, id ASC`
	default:
		query += ` ORDER BY priority_score DESC NULLS LAST, created_at DESC, id DESC`
	}

	rows, err := s.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, &StorageError{Op: "list tasks", Err: err}
	}
	defer rows.Close()
	tasks, err := scanTaskRows(rows)
	if err != nil {
		return nil, &StorageError{Op: "list tasks", Err: err}
	}
	return tasks, nil
}

func reasonValue(p Priority) any {
	if !p.Score.Valid() || p.Reason == "" {
		return nil
	}
	return p.Reason
}

func scanTask(row pgx.Row) (*Task, error) {
	var t Task
	err := row.Scan(&t.ID, &t.Owner, &t.Title, &t.Description, &t.DueDate, &t.Urgency, &t.Workload,
		&t.Category, &t.PriorityScore, &t.PriorityReason, &t.CreatedAt, &t.UpdatedAt)
	if err != nil {
		return nil, err
	}
	return &t, nil
}

func scanTaskRows(rows pgx.Rows) ([]Task, error) {
	tasks := []Task{}
	for rows.Next() {
		t, err := scanTask(rows)
		if err != nil {
			return nil, err
		}
		tasks = append(tasks, *t)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("row iteration: %w", err)
	}
	return tasks, nil
}
