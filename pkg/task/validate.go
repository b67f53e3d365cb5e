package task

import (
	"fmt"
	"strings"
)

// Normalize fills creation defaults and validates a new task.
func Normalize(t *Task) error {
	t.Title = strings.TrimSpace(t.Title)
	if t.Owner == "" {
		return &ValidationError{Field: "owner", Message: "is required"}
	}
	if t.Urgency == 0 {
		t.Urgency = MinLevel
	}
	if t.Workload == 0 {
		t.Workload = MinLevel
	}
	if strings.TrimSpace(t.Category) == "" {
		t.Category = DefaultCategory
	}
	if err := validateTitle(t.Title); err != nil {
		return err
	}
	if err := validateLevel("urgency", t.Urgency); err != nil {
		return err
	}
	if err := validateLevel("workload", t.Workload); err != nil {
		return err
	}
	return validatePriority(t.PriorityScore, t.PriorityReason)
}

// Validate checks a partial update.
func (f Fields) Validate() error {
	if f.Title != nil {
		if err := validateTitle(strings.TrimSpace(*f.Title)); err != nil {
			return err
		}
	}
	if f.Urgency != nil {
		if err := validateLevel("urgency", *f.Urgency); err != nil {
			return err
		}
	}
	if f.Workload != nil {
		if err := validateLevel("workload", *f.Workload); err != nil {
			return err
		}
	}
	if f.Category != nil && strings.TrimSpace(*f.Category) == "" {
		return &ValidationError{Field: "category", Message: "must not be empty"}
	}
	if f.DueDate != nil && f.ClearDue {
		return &ValidationError{Field: "due_date", Message: "cannot set and clear at once"}
	}
	if f.Priority != nil {
		var reason *string
		if f.Priority.Reason != "" {
			reason = &f.Priority.Reason
		}
		return validatePriority(f.Priority.Score, reason)
	}
	return nil
}

func validateTitle(title string) error {
	if title == "" {
		return &ValidationError{Field: "title", Message: "is required"}
	}
	return nil
}

func validateLevel(field string, v int) error {
	if v < MinLevel || v > MaxLevel {
		return &ValidationError{Field: field, Message: fmt.Sprintf("must be between %d and %d, got %d", MinLevel, MaxLevel, v)}
	}
	return nil
}

func validatePriority(s Score, reason *string) error {
	if n, ok := s.Int(); ok && (n < MinScore || n > MaxScore) {
		return &ValidationError{Field: "priority_score", Message: fmt.Sprintf("out of range: %d", n)}
	}
	if !s.Valid() && reason != nil && *reason != "" {
		return &ValidationError{Field: "priority_reason", Message: "requires a priority_score"}
	}
	return nil
}
