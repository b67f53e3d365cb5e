package oracle

import (
	"encoding/json"
	"fmt"
	"time"

	"taskpilot/pkg/task"
)

// promptHeader instructs the model on scale and reply format.
const promptHeader = `You are a task prioritization assistant.
For each task below (title, description, due_date, urgency 1-5, workload 1-5) assign:
- priority_score: an integer from 0 to 100, higher means more important
- reason: one or two short lines explaining the score

Reply with ONLY a raw JSON array. No markdown, no code fences, no commentary.
Each element must have exactly this shape:
{"id": number, "priority_score": number, "reason": string}

Tasks:
`

// promptTask is the subset of a task the oracle sees.
type promptTask struct {
	ID          int64   `json:"id"`
	Title       string  `json:"title"`
	Description string  `json:"description,omitempty"`
	DueDate     *string `json:"due_date"`
	Urgency     int     `json:"urgency"`
	Workload    int     `json:"workload"`
}

// BuildPrompt renders the request text for a batch.
func BuildPrompt(tasks []task.Task) (string, error) {
	batch := make([]promptTask, len(tasks))
	for i, t := range tasks {
		pt := promptTask{
			ID:          t.ID,
			Title:       t.Title,
			Description: t.Description,
			Urgency:     t.Urgency,
			Workload:    t.Workload,
		}
		if t.DueDate != nil {
			d := t.DueDate.UTC().Format(time.RFC3339)
			pt.DueDate = &d
		}
		batch[i] = pt
	}
	body, err := json.Marshal(batch)
	if err != nil {
		return "", fmt.Errorf("marshal tasks: %w", err)
	}
	return promptHeader + string(body) + "\n", nil
}
