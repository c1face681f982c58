// Package api serves the HTTP control plane of a running individual.
package api

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"go.uber.org/zap"

	"github.com/Rob9999/ethos-ai-clim/internal/individual"
	"github.com/Rob9999/ethos-ai-clim/internal/process"
	"github.com/Rob9999/ethos-ai-clim/internal/state"
	"github.com/Rob9999/ethos-ai-clim/internal/task"
)

// Scheduler accepts tasks and reports its state.
type Scheduler interface {
	Status() individual.Status
	Submit(ctx context.Context, t *task.Task) error
}

// Snapshotter reports the process model's state.
type Snapshotter interface {
	Snapshot() process.Snapshot
}

// Pinger checks the Redis connection. Nil when Redis is not configured.
type Pinger interface {
	Ping(ctx context.Context) error
}

// Server is the HTTP control plane.
type Server struct {
	scheduler Scheduler
	process   Snapshotter
	redis     Pinger
	logger    *zap.Logger
	server    *http.Server
}

// New creates a server. redis may be nil.
func New(scheduler Scheduler, proc Snapshotter, redis Pinger, logger *zap.Logger) *Server {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Server{
		scheduler: scheduler,
		process:   proc,
		redis:     redis,
		logger:    logger.Named("api"),
	}
}

// Handler returns the router.
func (s *Server) Handler() http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.Recoverer)

	r.Get("/healthz", s.health)
	r.Get("/status", s.status)
	r.Get("/topics", s.topics)
	r.Post("/tasks", s.submit)
	return r
}

// Start serves on addr in the background.
func (s *Server) Start(addr string) error {
	s.server = &http.Server{
		Addr:         addr,
		Handler:      s.Handler(),
		ReadTimeout:  5 * time.Second,
		WriteTimeout: 5 * time.Second,
	}

	go func() {
		if err := s.server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			s.logger.Error("API server failed", zap.String("addr", addr), zap.Error(err))
		}
	}()
	s.logger.Info("API listening", zap.String("addr", addr))
	return nil
}

// Shutdown gracefully stops the server.
func (s *Server) Shutdown(ctx context.Context) error {
	if s.server == nil {
		return nil
	}
	return s.server.Shutdown(ctx)
}

// HealthResponse is the body of GET /healthz.
type HealthResponse struct {
	Status string `json:"status"`
	Redis  string `json:"redis,omitempty"`
	Error  string `json:"error,omitempty"`
}

func (s *Server) health(w http.ResponseWriter, r *http.Request) {
	if s.redis == nil {
		writeJSON(w, http.StatusOK, HealthResponse{Status: "healthy", Redis: "disabled"})
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
	defer cancel()
	if err := s.redis.Ping(ctx); err != nil {
		writeJSON(w, http.StatusServiceUnavailable, HealthResponse{
			Status: "unhealthy",
			Redis:  "disconnected",
			Error:  err.Error(),
		})
		return
	}
	writeJSON(w, http.StatusOK, HealthResponse{Status: "healthy", Redis: "connected"})
}

// StatusResponse is the body of GET /status.
type StatusResponse struct {
	individual.Status
	Process process.Snapshot `json:"process"`
}

func (s *Server) status(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, StatusResponse{
		Status:  s.scheduler.Status(),
		Process: s.process.Snapshot(),
	})
}

// TopicsResponse is the body of GET /topics.
type TopicsResponse struct {
	AspirationCount int                `json:"aspiration_count"`
	ToDoCount       int                `json:"todo_count"`
	Aspirations     []string           `json:"aspirations"`
	LongTerm        []string           `json:"long_term_aspirations"`
	ToDos           []process.ToDoView `json:"todos"`
	Denied          []process.ToDoView `json:"denied_todos"`
}

func (s *Server) topics(w http.ResponseWriter, _ *http.Request) {
	snap := s.process.Snapshot()
	writeJSON(w, http.StatusOK, TopicsResponse{
		AspirationCount: len(snap.Aspirations),
		ToDoCount:       len(snap.ToDos),
		Aspirations:     snap.Aspirations,
		LongTerm:        snap.LongTerm,
		ToDos:           snap.ToDos,
		Denied:          snap.Denied,
	})
}

// SubmitRequest is the body of POST /tasks. Priority defaults to PRIO_1.
type SubmitRequest struct {
	Type     string `json:"type"`
	Priority string `json:"priority,omitempty"`
}

// SubmitResponse acknowledges an accepted task.
type SubmitResponse struct {
	ID       string         `json:"id"`
	Type     task.Type      `json:"type"`
	Priority state.Priority `json:"priority"`
}

type errorResponse struct {
	Error string `json:"error"`
}

func (s *Server) submit(w http.ResponseWriter, r *http.Request) {
	var req SubmitRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, errorResponse{"invalid JSON body: " + err.Error()})
		return
	}

	typ, err := task.ParseType(req.Type)
	if err != nil {
		writeJSON(w, http.StatusBadRequest, errorResponse{err.Error()})
		return
	}
	prio := state.Priority1
	if req.Priority != "" {
		if prio, err = state.ParsePriority(req.Priority); err != nil {
			writeJSON(w, http.StatusBadRequest, errorResponse{err.Error()})
			return
		}
	}

	t := task.New(typ, prio)
	if err := s.scheduler.Submit(r.Context(), t); err != nil {
		writeJSON(w, http.StatusUnprocessableEntity, errorResponse{err.Error()})
		return
	}

	s.logger.Info("Task submitted",
		zap.String("task_id", t.ID),
		zap.String("type", string(t.Type)),
		zap.String("priority", prio.String()),
		zap.String("request_id", middleware.GetReqID(r.Context())))
	writeJSON(w, http.StatusAccepted, SubmitResponse{ID: t.ID, Type: t.Type, Priority: t.Priority})
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
