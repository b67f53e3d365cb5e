package api

import (
	"encoding/json"
	"fmt"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/gorilla/mux"

	"taskpilot/pkg/rank"
	"taskpilot/pkg/task"
)

func (s *Server) handleTaskList(w http.ResponseWriter, r *http.Request) {
	f := task.Filter{Order: task.ByPriority, Category: strings.TrimSpace(r.URL.Query().Get("category"))}
	tasks, err := s.tasks.List(r.Context(), ownerFrom(r.Context()), f)
	if err != nil {
		writeStoreError(w, "list tasks", err)
		return
	}
	writeJSON(w, http.StatusOK, tasks)
}

func (s *Server) handleTaskGet(w http.ResponseWriter, r *http.Request) {
	id, ok := taskID(w, r)
	if !ok {
		return
	}
	t, err := s.tasks.Get(r.Context(), ownerFrom(r.Context()), id)
	if err != nil {
		writeStoreError(w, "get task", err)
		return
	}
	writeJSON(w, http.StatusOK, t)
}

func (s *Server) handleTaskCreate(w http.ResponseWriter, r *http.Request) {
	body, ok := decodeBody(w, r)
	if !ok {
		return
	}
	f, err := decodeFields(body)
	if err != nil {
		writeStoreError(w, "create task", err)
		return
	}

	// New tasks start unranked; owner comes from the token only.
	t := task.Task{Owner: ownerFrom(r.Context()), DueDate: f.DueDate}
	if f.Title != nil {
		t.Title = *f.Title
	}
	if f.Description != nil {
		t.Description = *f.Description
	}
	if f.Urgency != nil {
		t.Urgency = *f.Urgency
	}
	if f.Workload != nil {
		t.Workload = *f.Workload
	}
	if f.Category != nil {
		t.Category = *f.Category
	}

	created, err := s.tasks.Insert(r.Context(), &t)
	if err != nil {
		writeStoreError(w, "create task", err)
		return
	}
	writeJSON(w, http.StatusCreated, created)
}

func (s *Server) handleTaskUpdate(w http.ResponseWriter, r *http.Request) {
	id, ok := taskID(w, r)
	if !ok {
		return
	}
	body, ok := decodeBody(w, r)
	if !ok {
		return
	}
	f, err := decodeFields(body)
	if err != nil {
		writeStoreError(w, "update task", err)
		return
	}

	owner := ownerFrom(r.Context())
	if err := s.applyOverride(r, owner, id, body, &f); err != nil {
		writeStoreError(w, "update task", err)
		return
	}
	if f.Empty() {
		t, err := s.tasks.Get(r.Context(), owner, id)
		if err != nil {
			writeStoreError(w, "get task", err)
			return
		}
		writeJSON(w, http.StatusOK, t)
		return
	}

	t, err := s.tasks.Update(r.Context(), owner, id, f)
	if err != nil {
		writeStoreError(w, "update task", err)
		return
	}
	writeJSON(w, http.StatusOK, t)
}

// applyOverride turns priority_score/priority_reason keys into a manual
// override. A reason sent alone is attached to the task's current score.
func (s *Server) applyOverride(r *http.Request, owner string, id int64, body map[string]json.RawMessage, f *task.Fields) error {
	rawScore, hasScore := body["priority_score"]
	rawReason, hasReason := body["priority_reason"]
	if !hasScore && !hasReason {
		return nil
	}

	var score task.Score
	if hasScore {
		if err := score.UnmarshalJSON(rawScore); err != nil {
			return err
		}
	} else {
		current, err := s.tasks.Get(r.Context(), owner, id)
		if err != nil {
			return err
		}
		score = current.PriorityScore
	}

	var reason *string
	if hasReason && !isNull(rawReason) {
		var str string
		if err := json.Unmarshal(rawReason, &str); err != nil {
			return &task.ValidationError{Field: "priority_reason", Message: "must be a string or null"}
		}
		reason = &str
	}

	override, err := rank.Override(score, reason)
	if err != nil {
		return err
	}
	f.Priority = override.Priority
	return nil
}

func (s *Server) handleTaskDelete(w http.ResponseWriter, r *http.Request) {
	id, ok := taskID(w, r)
	if !ok {
		return
	}
	deleted, err := s.tasks.Delete(r.Context(), ownerFrom(r.Context()), id)
	if err != nil {
		writeStoreError(w, "delete task", err)
		return
	}
	if !deleted {
		writeError(w, http.StatusNotFound, "task not found")
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"message": "task deleted", "id": id})
}

func taskID(w http.ResponseWriter, r *http.Request) (int64, bool) {
	id, err := strconv.ParseInt(mux.Vars(r)["id"], 10, 64)
	if err != nil || id <= 0 {
		writeError(w, http.StatusNotFound, "task not found")
		return 0, false
	}
	return id, true
}

func decodeBody(w http.ResponseWriter, r *http.Request) (map[string]json.RawMessage, bool) {
	var body map[string]json.RawMessage
	if err := json.NewDecoder(http.MaxBytesReader(w, r.Body, 1<<20)).Decode(&body); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON: "+err.Error())
		return nil, false
	}
	if body == nil {
		writeError(w, http.StatusBadRequest, "invalid JSON: expected an object")
		return nil, false
	}
	return body, true
}

// decodeFields reads the editable task fields. Keys that are absent stay
// nil; unknown keys are ignored. priority_* keys are handled separately.
func decodeFields(body map[string]json.RawMessage) (task.Fields, error) {
	var f task.Fields
	var err error

	if raw, ok := body["title"]; ok {
		if f.Title, err = stringField("title", raw); err != nil {
			return f, err
		}
		if f.Title == nil {
			return f, &task.ValidationError{Field: "title", Message: "is required"}
		}
	}
	if raw, ok := body["description"]; ok {
		if f.Description, err = stringField("description", raw); err != nil {
			return f, err
		}
		if f.Description == nil {
			empty := ""
			f.Description = &empty
		}
	}
	if raw, ok := body["due_date"]; ok {
		if f.DueDate, err = dueField(raw); err != nil {
			return f, err
		}
		f.ClearDue = f.DueDate == nil
	}
	if raw, ok := body["urgency"]; ok {
		if f.Urgency, err = levelField("urgency", raw); err != nil {
			return f, err
		}
	}
	if raw, ok := body["workload"]; ok {
		if f.Workload, err = levelField("workload", raw); err != nil {
			return f, err
		}
	}
	if raw, ok := body["category"]; ok {
		if f.Category, err = stringField("category", raw); err != nil {
			return f, err
		}
	}
	return f, f.Validate()
}

func isNull(raw json.RawMessage) bool {
	return strings.TrimSpace(string(raw)) == "null"
}

func stringField(name string, raw json.RawMessage) (*string, error) {
	if isNull(raw) {
		return nil, nil
	}
	var s string
	if err := json.Unmarshal(raw, &s); err != nil {
		return nil, &task.ValidationError{Field: name, Message: "must be a string"}
	}
	return &s, nil
}

// dueDateLayouts are tried in order; date-only values mean midnight UTC.
var dueDateLayouts = []string{time.RFC3339Nano, "2006-01-02T15:04", time.DateOnly}

func dueField(raw json.RawMessage) (*time.Time, error) {
	s, err := stringField("due_date", raw)
	if err != nil || s == nil || strings.TrimSpace(*s) == "" {
		return nil, err
	}
	for _, layout := range dueDateLayouts {
		if t, err := time.Parse(layout, strings.TrimSpace(*s)); err == nil {
			return &t, nil
		}
	}
	return nil, &task.ValidationError{Field: "due_date", Message: fmt.Sprintf("unrecognized date %q", *s)}
}

// levelField accepts an integer or a numeric string.
func levelField(name string, raw json.RawMessage) (*int, error) {
	var n int
	if err := json.Unmarshal(raw, &n); err == nil {
		return &n, nil
	}
	var s string
	if err := json.Unmarshal(raw, &s); err == nil {
		if n, err := strconv.Atoi(strings.TrimSpace(s)); err == nil {
			return &n, nil
		}
	}
	return nil, &task.ValidationError{Field: name, Message: "must be an integer"}
}
