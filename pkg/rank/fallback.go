package rank

import (
	"fmt"
	"math"
	"time"

	"taskpilot/pkg/task"
)

// FallbackMarker prefixes every locally computed reason.
const FallbackMarker = "Fallback:"

const (
	defaultHorizon = 7 * 24 * time.Hour
	horizonDays    = 7
	maxDeadline    = 50
)

// Fallback scores t without touching the network or storage. The result
// depends only on t's due date, urgency, workload and now.
func Fallback(t task.Task, now time.Time) task.ScoreRecord {
	due := now.Add(defaultHorizon)
	if t.DueDate != nil {
		due = *t.DueDate
	}

	daysLeft := int(math.Max(0, roundHalfUp(float64(due.Sub(now))/float64(24*time.Hour))))

	deadline := int(roundHalfUp(float64(horizonDays-min(horizonDays, daysLeft)) * maxDeadline / horizonDays))
	deadline = max(0, min(maxDeadline, deadline))

	urgency := t.Urgency * 10
	workload := max(0, 50-t.Workload*8)

	score := min(task.MaxScore, deadline+urgency+int(roundHalfUp(float64(workload)/2)))
	return task.ScoreRecord{
		ID:     t.ID,
		Score:  score,
		Reason: fmt.Sprintf("%s %dd left, urgency %d", FallbackMarker, daysLeft, t.Urgency),
	}
}

// FallbackAll scores a whole batch with Fallback.
func FallbackAll(tasks []task.Task, now time.Time) []task.ScoreRecord {
	out := make([]task.ScoreRecord, len(tasks))
	for i, t := range tasks {
		out[i] = Fallback(t, now)
	}
	return out
}

// roundHalfUp rounds x.5 toward +Inf, so -0.5 becomes 0 rather than -1.
func roundHalfUp(x float64) float64 {
	return math.Floor(x + 0.5)
}
