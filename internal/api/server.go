// Package api exposes the HTTP interface for the assessment service.
package api

import (
	"context"
	"encoding/json"
	"net/http"
	"sync"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"go.uber.org/zap"

	"github.com/sells-group/presence-cli/internal/assess"
	"github.com/sells-group/presence-cli/internal/model"
	"github.com/sells-group/presence-cli/internal/orchestrator"
	"github.com/sells-group/presence-cli/internal/store"
)

// Server wires HTTP handlers to the assessment service and store.
type Server struct {
	router chi.Router
	svc    *assess.Service
	store  store.Store

	mu      sync.RWMutex
	handles map[string]*orchestrator.Handle
}

// NewServer constructs a Server with middleware and routes.
func NewServer(svc *assess.Service, st store.Store) *Server {
	s := &Server{
		svc:     svc,
		store:   st,
		handles: make(map[string]*orchestrator.Handle),
	}

	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.Recoverer)
	r.Use(middleware.Timeout(60 * time.Second))
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins: []string{"*"},
		AllowedMethods: []string{"GET", "POST", "OPTIONS"},
		AllowedHeaders: []string{"Accept", "Content-Type"},
	}))

	r.Get("/health", s.health)
	r.Post("/assess", s.submitAssessment)
	r.Route("/runs", func(r chi.Router) {
		r.Get("/", s.listRuns)
		r.Route("/{run_id}", func(r chi.Router) {
			r.Get("/", s.getRun)
			r.Get("/status", s.getRunStatus)
		})
	})

	s.router = r
	return s
}

// Handler returns the router for use with http.Server.
func (s *Server) Handler() http.Handler {
	return s.router
}

func (s *Server) health(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

type assessRequest struct {
	URL     string `json:"url"`
	Name    string `json:"name"`
	Address string `json:"address"`
	City    string `json:"city"`
	State   string `json:"state"`
}

func (s *Server) submitAssessment(w http.ResponseWriter, r *http.Request) {
	var req assessRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON")
		return
	}

	target := model.Target{
		URL:     req.URL,
		Name:    req.Name,
		Address: req.Address,
		City:    req.City,
		State:   req.State,
	}

	// The handle outlives the request; probes keep running after the
	// response is written, so they get a fresh context.
	handle, err := s.svc.Begin(context.WithoutCancel(r.Context()), target)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	s.mu.Lock()
	s.handles[handle.RunID()] = handle
	s.mu.Unlock()

	go s.finalize(handle)

	writeJSON(w, http.StatusAccepted, map[string]string{
		"run_id": handle.RunID(),
		"status": "accepted",
	})
}

// finalize waits for the probes to finish, scores and persists the run,
// then drops the live handle.
func (s *Server) finalize(handle *orchestrator.Handle) {
	<-handle.Done()
	run := handle.Snapshot()

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if _, err := s.svc.Finalize(ctx, &run); err != nil {
		zap.L().Error("api: finalize run failed",
			zap.String("run_id", run.ID), zap.Error(err))
	}

	s.mu.Lock()
	delete(s.handles, run.ID)
	s.mu.Unlock()
}

func (s *Server) getRun(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "run_id")

	if handle := s.liveHandle(id); handle != nil {
		run := handle.Snapshot()
		writeJSON(w, http.StatusOK, run)
		return
	}

	run, err := s.store.GetRun(r.Context(), id)
	if err != nil {
		writeError(w, http.StatusNotFound, "run not found")
		return
	}
	writeJSON(w, http.StatusOK, run)
}

type statusResponse struct {
	RunID  string                       `json:"run_id"`
	Live   bool                         `json:"live"`
	Probes map[string]model.ProbeStatus `json:"probes"`
}

func (s *Server) getRunStatus(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "run_id")

	if handle := s.liveHandle(id); handle != nil {
		run := handle.Snapshot()
		writeJSON(w, http.StatusOK, statusResponse{
			RunID:  id,
			Live:   true,
			Probes: probeStatuses(run.Results),
		})
		return
	}

	run, err := s.store.GetRun(r.Context(), id)
	if err != nil {
		writeError(w, http.StatusNotFound, "run not found")
		return
	}
	writeJSON(w, http.StatusOK, statusResponse{
		RunID:  id,
		Live:   false,
		Probes: probeStatuses(run.Results),
	})
}

func (s *Server) listRuns(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	filter := store.RunFilter{
		TargetURL:  q.Get("url"),
		ScoredOnly: q.Get("scored") == "true",
	}

	runs, err := s.store.ListRuns(r.Context(), filter)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "list runs failed")
		return
	}
	if runs == nil {
		runs = []model.AssessmentRun{}
	}
	writeJSON(w, http.StatusOK, runs)
}

func (s *Server) liveHandle(id string) *orchestrator.Handle {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.handles[id]
}

func probeStatuses(results map[string]model.ProbeResult) map[string]model.ProbeStatus {
	out := make(map[string]model.ProbeStatus, len(results))
	for name, res := range results {
		out[name] = res.Status
	}
	return out
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		zap.L().Warn("api: write response failed", zap.Error(err))
	}
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}
