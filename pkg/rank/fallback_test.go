package rank

import (
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"taskpilot/pkg/task"
)

var fixedNow = time.Date(2026, 3, 10, 9, 0, 0, 0, time.UTC)

func due(d time.Duration) *time.Time {
	t := fixedNow.Add(d)
	return &t
}

func TestFallbackScenarios(t *testing.T) {
	tests := []struct {
		name   string
		task   task.Task
		score  int
		reason string
	}{
		{
			name:   "due within the hour",
			task:   task.Task{ID: 1, Urgency: 5, Workload: 1, DueDate: due(time.Hour)},
			score:  100,
			reason: "Fallback: 0d left, urgency 5",
		},
		{
			name:   "no due date defaults to a week",
			task:   task.Task{ID: 2, Urgency: 1, Workload: 5},
			score:  15,
			reason: "Fallback: 7d left, urgency 1",
		},
		{
			name:  "overdue counts as due now",
			task:  task.Task{ID: 3, Urgency: 1, Workload: 1, DueDate: due(-72 * time.Hour)},
			score: 50 + 10 + 21,
		},
		{
			name:  "three days out",
			task:  task.Task{ID: 4, Urgency: 3, Workload: 3, DueDate: due(3 * 24 * time.Hour)},
			score: 29 + 30 + 13, // round(4*50/7)=29, round(26/2)=13
		},
		{
			name:  "far future",
			task:  task.Task{ID: 5, Urgency: 2, Workload: 2, DueDate: due(30 * 24 * time.Hour)},
			score: 0 + 20 + 17,
		},
		{
			name:  "half day rounds up",
			task:  task.Task{ID: 6, Urgency: 1, Workload: 5, DueDate: due(12 * time.Hour)},
			score: 43 + 10 + 5, // 1 day left: round(6*50/7)=43
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Fallback(tt.task, fixedNow)
			assert.Equal(t, tt.task.ID, got.ID)
			assert.Equal(t, tt.score, got.Score)
			assert.True(t, strings.HasPrefix(got.Reason, FallbackMarker))
			if tt.reason != "" {
				assert.Equal(t, tt.reason, got.Reason)
			}
		})
	}
}

func TestFallbackIsPure(t *testing.T) {
	tk := task.Task{ID: 9, Urgency: 4, Workload: 2, DueDate: due(50 * time.Hour)}
	first := Fallback(tk, fixedNow)
	for i := 0; i < 10; i++ {
		assert.Equal(t, first, Fallback(tk, fixedNow))
	}
}

func TestFallbackStaysInRange(t *testing.T) {
	for u := task.MinLevel; u <= task.MaxLevel; u++ {
		for w := task.MinLevel; w <= task.MaxLevel; w++ {
			for _, d := range []time.Duration{-240 * time.Hour, 0, time.Hour, 36 * time.Hour, 400 * time.Hour} {
				got := Fallback(task.Task{Urgency: u, Workload: w, DueDate: due(d)}, fixedNow)
				assert.GreaterOrEqual(t, got.Score, task.MinScore)
				assert.LessOrEqual(t, got.Score, task.MaxScore)
			}
		}
	}
}

func TestOverride(t *testing.T) {
	reason := "  boss asked  "
	f, err := Override(task.MustScore(100), &reason)
	assert.NoError(t, err)
	assert.Equal(t, "boss asked", f.Priority.Reason)

	f, err = Override(task.NoScore(), nil)
	assert.NoError(t, err)
	assert.False(t, f.Priority.Score.Valid())

	_, err = Override(task.NoScore(), &reason)
	assert.True(t, task.IsValidation(err))
}
