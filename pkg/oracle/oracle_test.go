package oracle

import (
	"context"
	"encoding/json"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"taskpilot/pkg/task"
)

// fakeGenerator returns a canned reply and records the prompt it saw.
type fakeGenerator struct {
	reply  string
	err    error
	delay  time.Duration
	prompt string
	calls  int
}

func (g *fakeGenerator) Generate(ctx context.Context, prompt string) (string, error) {
	g.calls++
	g.prompt = prompt
	if g.delay > 0 {
		select {
		case <-time.After(g.delay):
		case <-ctx.Done():
			return "", ctx.Err()
		}
	}
	return g.reply, g.err
}

func sampleTasks() []task.Task {
	due := time.Date(2026, 5, 1, 12, 0, 0, 0, time.UTC)
	return []task.Task{
		{ID: 1, Owner: "a", Title: "File taxes", Description: "federal + state", DueDate: &due, Urgency: 5, Workload: 3},
		{ID: 2, Owner: "a", Title: "Water plants", Urgency: 1, Workload: 1},
	}
}

func TestClientWithoutCredential(t *testing.T) {
	c := New(nil, 0)
	assert.False(t, c.Enabled())

	_, err := c.Score(context.Background(), sampleTasks())
	assert.ErrorIs(t, err, ErrUnavailable)
}

func TestClientGeneratorFailure(t *testing.T) {
	gen := &fakeGenerator{err: errors.New("503 Service Unavailable")}
	c := New(gen, time.Second)

	_, err := c.Score(context.Background(), sampleTasks())
	assert.ErrorIs(t, err, ErrUnavailable)
	assert.Equal(t, 1, gen.calls, "client must not retry")
}

func TestClientTimeoutIsUnavailable(t *testing.T) {
	gen := &fakeGenerator{reply: "[]", delay: time.Second}
	c := New(gen, 20*time.Millisecond)

	start := time.Now()
	_, err := c.Score(context.Background(), sampleTasks())
	assert.ErrorIs(t, err, ErrUnavailable)
	assert.True(t, time.Since(start) < 500*time.Millisecond, "call should be bounded by the timeout")
}

func TestClientMalformedReply(t *testing.T) {
	c := New(&fakeGenerator{reply: "I think task 1 matters most."}, time.Second)

	_, err := c.Score(context.Background(), sampleTasks())
	assert.ErrorIs(t, err, ErrMalformedOutput)
	assert.NotErrorIs(t, err, ErrUnavailable)
}

func TestClientSuccess(t *testing.T) {
	gen := &fakeGenerator{reply: "```json\n[{\"id\":1,\"priority_score\":95,\"reason\":\"Deadline\"},{\"id\":2,\"priority_score\":20,\"reason\":\"Easy\"}]\n```"}
	c := New(gen, time.Second)

	got, err := c.Score(context.Background(), sampleTasks())
	require.NoError(t, err)
	assert.Equal(t, []task.ScoreRecord{
		{ID: 1, Score: 95, Reason: "Deadline"},
		{ID: 2, Score: 20, Reason: "Easy"},
	}, got)
	assert.Equal(t, 1, gen.calls)
}

func TestBuildPromptEmbedsBatch(t *testing.T) {
	prompt, err := BuildPrompt(sampleTasks())
	require.NoError(t, err)

	assert.Contains(t, prompt, "raw JSON array")
	assert.Contains(t, prompt, `"priority_score"`)

	body := prompt[strings.Index(prompt, "Tasks:\n")+len("Tasks:\n"):]
	var batch []map[string]any
	require.NoError(t, json.Unmarshal([]byte(body), &batch))
	require.Len(t, batch, 2)

	assert.Equal(t, "File taxes", batch[0]["title"])
	assert.Equal(t, "federal + state", batch[0]["description"])
	assert.Equal(t, "2026-05-01T12:00:00Z", batch[0]["due_date"])
	assert.EqualValues(t, 5, batch[0]["urgency"])
	assert.EqualValues(t, 3, batch[0]["workload"])
	assert.Nil(t, batch[1]["due_date"])
	assert.NotContains(t, batch[0], "owner")
}
