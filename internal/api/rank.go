package api

import (
	"net/http"
)

const (
	defaultRunLimit = 20
	maxRunLimit     = 100
)

// handleRank runs the ranking engine for the caller. Oracle trouble never
// fails this request; only storage does.
func (s *Server) handleRank(w http.ResponseWriter, r *http.Request) {
	res, err := s.engine.Rank(r.Context(), ownerFrom(r.Context()))
	if err != nil {
		writeStoreError(w, "rank tasks", err)
		return
	}
	writeJSON(w, http.StatusOK, res)
}

func (s *Server) handleRunList(w http.ResponseWriter, r *http.Request) {
	limit := queryInt(r, "limit", defaultRunLimit)
	if limit <= 0 || limit > maxRunLimit {
		limit = defaultRunLimit
	}
	runs, err := s.engine.Recent(r.Context(), ownerFrom(r.Context()), limit)
	if err != nil {
		writeStoreError(w, "list runs", err)
		return
	}
	writeJSON(w, http.StatusOK, runs)
}
