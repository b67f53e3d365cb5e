package rank

import (
	"strings"

	"taskpilot/pkg/task"
)

// Override builds the update for a manual priority edit. A null score clears
// the reason too; a reason needs a score to go with it. The value holds only
// until the next ranking run, which overwrites it.
func Override(score task.Score, reason *string) (task.Fields, error) {
	p := &task.Priority{Score: score}
	if reason != nil {
		p.Reason = strings.TrimSpace(*reason)
	}
	f := task.Fields{Priority: p}
	if err := f.Validate(); err != nil {
		return task.Fields{}, err
	}
	return f, nil
}

// fromRecord is the update a ranking run writes, whatever the task held before.
func fromRecord(rec task.ScoreRecord) task.Fields {
	return task.Fields{Priority: &task.Priority{
		Score:  task.MustScore(rec.Score),
		Reason: rec.Reason,
	}}
}
