package oracle

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"taskpilot/pkg/task"
)

func TestStripFences(t *testing.T) {
	cases := []struct {
		name string
		in   string
		want string
	}{
		{"plain", `[{"id":1}]`, `[{"id":1}]`},
		{"json fence", "```json\n[{\"id\":1}]\n```", `[{"id":1}]`},
		{"bare fence", "```\n[]\n```", `[]`},
		{"surrounding whitespace", "\n\n  ```json [1] ```  \n", `[1]`},
		{"only leading fence", "```json\n[]", `[]`},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.want, StripFences(tc.in))
		})
	}
}

func TestParseValid(t *testing.T) {
	reply := "```json\n" + `[
		{"reason": "Due tomorrow", "priority_score": 91, "id": 4},
		{"id": 7, "priority_score": 12.6, "reason": "  Someday  ", "extra": true}
	]` + "\n```"

	got, err := Parse(reply)
	require.NoError(t, err)
	assert.Equal(t, []task.ScoreRecord{
		{ID: 4, Score: 91, Reason: "Due tomorrow"},
		{ID: 7, Score: 13, Reason: "Someday"},
	}, got)
}

func TestParseEmptyArray(t *testing.T) {
	got, err := Parse("[]")
	require.NoError(t, err)
	assert.Empty(t, got)
}

func TestParseMalformed(t *testing.T) {
	cases := []struct {
		name  string
		reply string
	}{
		{"empty", ""},
		{"fence only", "```json\n```"},
		{"prose", "Sure! Here are your priorities."},
		{"object not array", `{"id": 1, "priority_score": 5, "reason": "x"}`},
		{"array of numbers", `[1, 2, 3]`},
		{"missing id", `[{"priority_score": 5, "reason": "x"}]`},
		{"string id", `[{"id": "one", "priority_score": 5, "reason": "x"}]`},
		{"fractional id", `[{"id": 1.5, "priority_score": 5, "reason": "x"}]`},
		{"null score", `[{"id": 1, "priority_score": null, "reason": "x"}]`},
		{"score too high", `[{"id": 1, "priority_score": 140, "reason": "x"}]`},
		{"score negative", `[{"id": 1, "priority_score": -4, "reason": "x"}]`},
		{"missing reason", `[{"id": 1, "priority_score": 5}]`},
		{"numeric reason", `[{"id": 1, "priority_score": 5, "reason": 9}]`},
		{"truncated", `[{"id": 1, "priority_score": 5, "reason": "x"`},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := Parse(tc.reply)
			require.Error(t, err)
			assert.ErrorIs(t, err, ErrMalformedOutput)
		})
	}
}
