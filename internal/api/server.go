package api

import (
	"encoding/json"
	"errors"
	"io"
	"log"
	"net/http"
	"strconv"

	"github.com/gorilla/handlers"
	"github.com/gorilla/mux"

	"taskpilot/pkg/rank"
	"taskpilot/pkg/task"
)

// Options configures the HTTP layer.
type Options struct {
	JWTSecret      []byte
	AllowedOrigins []string
	AccessLog      io.Writer // nil disables access logging
}

// Server is the HTTP API server.
type Server struct {
	tasks   task.Store
	engine  *rank.Engine
	secret  []byte
	router  *mux.Router
	handler http.Handler
}

// New creates a new Server.
func New(tasks task.Store, engine *rank.Engine, opts Options) *Server {
	s := &Server{
		tasks:  tasks,
		engine: engine,
		secret: opts.JWTSecret,
		router: mux.NewRouter(),
	}
	s.routes()

	origins := opts.AllowedOrigins
	if len(origins) == 0 {
		origins = []string{"*"}
	}
	var h http.Handler = handlers.CORS(
		handlers.AllowedHeaders([]string{"X-Requested-With", "Content-Type", "Authorization"}),
		handlers.AllowedMethods([]string{"GET", "POST", "PUT", "DELETE", "OPTIONS"}),
		handlers.AllowedOrigins(origins),
	)(s.router)
	h = handlers.RecoveryHandler(handlers.PrintRecoveryStack(true))(h)
	if opts.AccessLog != nil {
		h = handlers.CombinedLoggingHandler(opts.AccessLog, h)
	}
	s.handler = h
	return s
}

// ServeHTTP implements http.Handler.
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.handler.ServeHTTP(w, r)
}

func (s *Server) routes() {
	s.router.HandleFunc("/health", s.handleHealth).Methods(http.MethodGet)

	api := s.router.PathPrefix("/api").Subrouter()
	api.Use(s.requirePrincipal)

	// Tasks
	api.HandleFunc("/tasks", s.handleTaskList).Methods(http.MethodGet)
	api.HandleFunc("/tasks", s.handleTaskCreate).Methods(http.MethodPost)
	api.HandleFunc("/tasks/rank", s.handleRank).Methods(http.MethodPost)
	api.HandleFunc("/tasks/{id:[0-9]+}", s.handleTaskGet).Methods(http.MethodGet)
	api.HandleFunc("/tasks/{id:[0-9]+}", s.handleTaskUpdate).Methods(http.MethodPut)
	api.HandleFunc("/tasks/{id:[0-9]+}", s.handleTaskDelete).Methods(http.MethodDelete)

	// Ranking journal
	api.HandleFunc("/rank/runs", s.handleRunList).Methods(http.MethodGet)
}

func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		log.Printf("api: write json: %v", err)
	}
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}

// writeStoreError maps the task error taxonomy onto HTTP statuses. Storage
// details are logged, not returned.
func writeStoreError(w http.ResponseWriter, op string, err error) {
	var ve *task.ValidationError
	switch {
	case errors.As(err, &ve):
		writeError(w, http.StatusBadRequest, ve.Error())
	case errors.Is(err, task.ErrNotFound):
		writeError(w, http.StatusNotFound, "task not found")
	default:
		log.Printf("api: %s: %v", op, err)
		writeError(w, http.StatusInternalServerError, op+" failed")
	}
}

func queryInt(r *http.Request, key string, def int) int {
	v := r.URL.Query().Get(key)
	if v == "" {
		return def
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return def
	}
	return n
}
