package oracle

import (
	"encoding/json"
	"fmt"
	"math"
	"regexp"
	"strings"

	"taskpilot/pkg/task"
)

// fenceRe matches an opening code fence with an optional language tag.
var fenceRe = regexp.MustCompile("^```[A-Za-z]*\\s*")

// StripFences removes leading and trailing markdown code fence markers.
func StripFences(text string) string {
	text = strings.TrimSpace(text)
	text = fenceRe.ReplaceAllString(text, "")
	text = strings.TrimSuffix(text, "```")
	return strings.TrimSpace(text)
}

// Parse reads an oracle reply as a JSON array of score records. Key order
// is irrelevant and unknown keys are ignored. Any element that is not an
// object with a numeric id, a numeric priority_score in range and a string
// reason makes the whole reply malformed. An empty array parses to an empty
// slice; deciding what that means is up to the caller.
func Parse(text string) ([]task.ScoreRecord, error) {
	cleaned := StripFences(text)
	if cleaned == "" {
		return nil, fmt.Errorf("%w: empty reply", ErrMalformedOutput)
	}

	var elems []json.RawMessage
	if err := json.Unmarshal([]byte(cleaned), &elems); err != nil {
		return nil, fmt.Errorf("%w: not a JSON array: %v", ErrMalformedOutput, err)
	}

	records := make([]task.ScoreRecord, 0, len(elems))
	for i, raw := range elems {
		rec, err := parseRecord(raw)
		if err != nil {
			return nil, fmt.Errorf("%w: element %d: %v", ErrMalformedOutput, i, err)
		}
		records = append(records, rec)
	}
	return records, nil
}

func parseRecord(raw json.RawMessage) (task.ScoreRecord, error) {
	var obj map[string]json.RawMessage
	if err := json.Unmarshal(raw, &obj); err != nil || obj == nil {
		return task.ScoreRecord{}, fmt.Errorf("not an object")
	}

	id, err := numberField(obj, "id")
	if err != nil {
		return task.ScoreRecord{}, err
	}
	if id != math.Trunc(id) || id <= 0 {
		return task.ScoreRecord{}, fmt.Errorf("id %v is not a positive integer", id)
	}

	score, err := numberField(obj, "priority_score")
	if err != nil {
		return task.ScoreRecord{}, err
	}
	rounded := int(math.Round(score))
	if rounded < task.MinScore || rounded > task.MaxScore {
		return task.ScoreRecord{}, fmt.Errorf("priority_score %v out of range", score)
	}

	rawReason, ok := obj["reason"]
	if !ok || isNull(rawReason) {
		return task.ScoreRecord{}, fmt.Errorf("missing reason")
	}
	var reason string
	if err := json.Unmarshal(rawReason, &reason); err != nil {
		return task.ScoreRecord{}, fmt.Errorf("reason is not a string")
	}

	return task.ScoreRecord{ID: int64(id), Score: rounded, Reason: strings.TrimSpace(reason)}, nil
}

func numberField(obj map[string]json.RawMessage, key string) (float64, error) {
	raw, ok := obj[key]
	if !ok || isNull(raw) {
		return 0, fmt.Errorf("missing %s", key)
	}
	var f float64
	if err := json.Unmarshal(raw, &f); err != nil {
		return 0, fmt.Errorf("%s is not a number", key)
	}
	return f, nil
}

func isNull(raw json.RawMessage) bool {
	return strings.TrimSpace(string(raw)) == "null"
}
