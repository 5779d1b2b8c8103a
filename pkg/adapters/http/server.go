// Package http exposes the workflow engine as a JSON API with SSE progress streams.
package http

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strings"
	"sync"

	"github.com/aretw0/foreman"
	"github.com/aretw0/foreman/internal/logging"
	"github.com/aretw0/foreman/internal/presentation/graph"
	"github.com/aretw0/foreman/pkg/domain"
	"github.com/aretw0/foreman/pkg/input"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/google/uuid"
)

// Engine is the subset of the foreman engine served over HTTP.
type Engine interface {
	Run(ctx context.Context, query string, opts ...foreman.RunOption) (*domain.State, error)
	Resume(ctx context.Context, runID string, opts ...foreman.RunOption) (*domain.State, error)
	Load(ctx context.Context, runID string) (*domain.State, error)
	List(ctx context.Context) ([]string, error)
	Delete(ctx context.Context, runID string) error
}

// Server serves the run API.
type Server struct {
	Engine  Engine
	Streams *StreamManager

	metrics http.Handler
	logger  *slog.Logger
	baseCtx context.Context
	wg      sync.WaitGroup
}

// Option configures the Server.
type Option func(*Server)

// WithLogger sets the structured logger.
func WithLogger(logger *slog.Logger) Option {
	return func(s *Server) {
		if logger != nil {
			s.logger = logger
		}
	}
}

// WithMetricsHandler mounts h on /metrics.
func WithMetricsHandler(h http.Handler) Option {
	return func(s *Server) {
		s.metrics = h
	}
}

// WithBaseContext sets the parent context of asynchronous runs.
// Canceling it abandons runs that are still in flight.
func WithBaseContext(ctx context.Context) Option {
	return func(s *Server) {
		s.baseCtx = ctx
	}
}

// NewServer creates a server around engine.
func NewServer(engine Engine, opts ...Option) *Server {
	s := &Server{
		Engine:  engine,
		logger:  logging.NewNop(),
		baseCtx: context.Background(),
	}
	for _, opt := range opts {
		opt(s)
	}
	s.Streams = NewStreamManager(s.logger)
	return s
}

// NewHandler creates a new HTTP handler for the engine.
func NewHandler(engine Engine, opts ...Option) http.Handler {
	return NewServer(engine, opts...).Handler()
}

// Handler returns the routed API.
func (s *Server) Handler() http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.Recoverer)

	r.Get("/health", s.GetHealth)
	r.Get("/info", s.GetInfo)
	r.Get("/graph", s.GetWorkflowGraph)
	if s.metrics != nil {
		r.Method(http.MethodGet, "/metrics", s.metrics)
	}

	r.Route("/runs", func(r chi.Router) {
		r.Post("/", s.CreateRun)
		r.Get("/", s.ListRuns)
		r.Route("/{runID}", func(r chi.Router) {
			r.Get("/", s.GetRun)
			r.Delete("/", s.DeleteRun)
			r.Post("/resume", s.ResumeRun)
			r.Get("/events", s.SubscribeEvents)
			r.Get("/graph", s.GetRunGraph)
		})
	})

	return enableCORS(r)
}

// Wait blocks until every asynchronous run has finished.
func (s *Server) Wait() {
	s.wg.Wait()
}

func enableCORS(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Access-Control-Allow-Origin", "*")
		w.Header().Set("Access-Control-Allow-Methods", "GET, POST, DELETE, OPTIONS")
		w.Header().Set("Access-Control-Allow-Headers", "Content-Type")
		if r.Method == http.MethodOptions {
			w.WriteHeader(http.StatusOK)
			return
		}
		next.ServeHTTP(w, r)
	})
}

// RunRequest is the body of POST /runs.
type RunRequest struct {
	Query    string `json:"query"`
	RunID    string `json:"run_id,omitempty"`
	MaxSteps int    `json:"max_steps,omitempty"`
	Async    bool   `json:"async,omitempty"`
}

// AcceptedResponse is returned for asynchronous runs.
type AcceptedResponse struct {
	RunID     string `json:"run_id"`
	StatusURL string `json:"status_url"`
	EventsURL string `json:"events_url"`
}

// ErrorResponse is the body of every error reply.
type ErrorResponse struct {
	Error string             `json:"error"`
	Kind  domain.FailureKind `json:"kind,omitempty"`
}

// CreateRun handles POST /runs.
func (s *Server) CreateRun(w http.ResponseWriter, r *http.Request) {
	var body RunRequest
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		writeError(w, http.StatusBadRequest, fmt.Errorf("invalid request body: %w", err))
		s.logger.Warn("CreateRun: Invalid request body", "err", err)
		return
	}

	query, err := input.Sanitize(body.Query)
	if err != nil {
		writeError(w, http.StatusBadRequest, fmt.Errorf("invalid query: %w", err))
		s.logger.Warn("CreateRun: Query rejected", "err", err, "size", len(body.Query))
		return
	}

	runID := body.RunID
	if runID == "" {
		runID = uuid.NewString()
	}
	opts := s.runOptions(runID, body.MaxSteps)

	if body.Async {
		s.wg.Add(1)
		go func() {
			defer s.wg.Done()
			state, err := s.Engine.Run(s.baseCtx, query, opts...)
			s.finish(runID, state, err)
		}()
		writeJSON(w, http.StatusAccepted, AcceptedResponse{
			RunID:     runID,
			StatusURL: "/runs/" + runID,
			EventsURL: "/runs/" + runID + "/events",
		})
		return
	}

	state, err := s.Engine.Run(r.Context(), query, opts...)
	s.finish(runID, state, err)
	s.writeOutcome(w, state, err)
}

// ResumeRun handles POST /runs/{runID}/resume.
func (s *Server) ResumeRun(w http.ResponseWriter, r *http.Request) {
	runID := chi.URLParam(r, "runID")
	state, err := s.Engine.Resume(r.Context(), runID, s.runOptions(runID, 0)...)
	s.finish(runID, state, err)
	s.writeOutcome(w, state, err)
}

func (s *Server) runOptions(runID string, maxSteps int) []foreman.RunOption {
	return []foreman.RunOption{
		foreman.WithRunID(runID),
		foreman.WithRunMaxSteps(maxSteps),
		foreman.WithStepObserver(func(_ context.Context, prev, next *domain.State) {
			diff := domain.Diff(prev, next)
			if diff == nil {
				return
			}
			data, err := json.Marshal(diff)
			if err != nil {
				s.logger.Error("Failed to encode diff", "run_id", runID, "err", err)
				return
			}
			s.Streams.Broadcast(runID, Message{Data: string(data)})
		}),
	}
}

// finish closes the event streams of a run once it stops.
func (s *Server) finish(runID string, state *domain.State, err error) {
	if state == nil {
		if err != nil {
			s.logger.Warn("Run rejected", "run_id", runID, "err", err)
		}
		return
	}
	s.Streams.Finish(runID, endMessage(runID, state))
}

// endMessage summarizes a stopped run for its event streams.
func endMessage(runID string, state *domain.State) Message {
	summary := map[string]any{"run_id": runID, "phase": state.Phase, "steps": state.StepCount}
	if state.Failure != nil {
		summary["failure"] = state.Failure
	}
	data, _ := json.Marshal(summary)
	return Message{Event: "end", Data: string(data)}
}

func (s *Server) writeOutcome(w http.ResponseWriter, state *domain.State, err error) {
	if err == nil {
		writeJSON(w, http.StatusOK, state)
		return
	}
	if f, ok := domain.AsFailure(err); ok && state != nil {
		status := http.StatusUnprocessableEntity
		if f.Kind == domain.FailureCanceled {
			status = http.StatusServiceUnavailable
		}
		writeJSON(w, status, state)
		return
	}
	writeError(w, statusFor(err), err)
}

func statusFor(err error) int {
	switch {
	case errors.Is(err, foreman.ErrEmptyQuery):
		return http.StatusBadRequest
	case errors.Is(err, domain.ErrRunNotFound):
		return http.StatusNotFound
	case errors.Is(err, foreman.ErrRunExists), errors.Is(err, domain.ErrRunFinished):
		return http.StatusConflict
	case errors.Is(err, foreman.ErrNoStore):
		return http.StatusNotImplemented
	}
	return http.StatusInternalServerError
}

// ListRuns handles GET /runs.
func (s *Server) ListRuns(w http.ResponseWriter, r *http.Request) {
	ids, err := s.Engine.List(r.Context())
	if err != nil {
		writeError(w, statusFor(err), err)
		return
	}
	if ids == nil {
		ids = []string{}
	}
	writeJSON(w, http.StatusOK, map[string][]string{"runs": ids})
}

// GetRun handles GET /runs/{runID}.
func (s *Server) GetRun(w http.ResponseWriter, r *http.Request) {
	state, err := s.Engine.Load(r.Context(), chi.URLParam(r, "runID"))
	if err != nil {
		writeError(w, statusFor(err), err)
		return
	}
	writeJSON(w, http.StatusOK, state)
}

// DeleteRun handles DELETE /runs/{runID}.
func (s *Server) DeleteRun(w http.ResponseWriter, r *http.Request) {
	if err := s.Engine.Delete(r.Context(), chi.URLParam(r, "runID")); err != nil {
		writeError(w, statusFor(err), err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// GetWorkflowGraph handles GET /graph.
func (s *Server) GetWorkflowGraph(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	fmt.Fprint(w, graph.GenerateMermaid(nil))
}

// GetRunGraph handles GET /runs/{runID}/graph.
func (s *Server) GetRunGraph(w http.ResponseWriter, r *http.Request) {
	state, err := s.Engine.Load(r.Context(), chi.URLParam(r, "runID"))
	if err != nil {
		writeError(w, statusFor(err), err)
		return
	}
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	fmt.Fprint(w, graph.GenerateMermaid(graph.OverlayFromState(state)))
}

// GetHealth handles the GET /health request.
func (s *Server) GetHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// GetInfo handles the GET /info request.
func (s *Server) GetInfo(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{
		"app":     "foreman-http",
		"version": strings.TrimSpace(foreman.Version),
	})
}

// SubscribeEvents handles GET /runs/{runID}/events. Each step of the run is
// sent as a StateDiff; the stream ends with an "end" event, which is sent
// right away when the run has already stopped.
// The optional watch parameter (facts, history, phase, draft, failure)
// filters diffs by the fields they touch.
func (s *Server) SubscribeEvents(w http.ResponseWriter, r *http.Request) {
	flusher, ok := w.(http.Flusher)
	if !ok {
		writeError(w, http.StatusInternalServerError, errors.New("streaming not supported"))
		return
	}

	runID := chi.URLParam(r, "runID")
	var watch []string
	if v := r.URL.Query().Get("watch"); v != "" {
		watch = strings.Split(v, ",")
	}

	ch, cancel := s.Streams.Subscribe(runID)
	defer cancel()
	s.logger.Info("SSE: Subscribing to run updates", "run_id", runID)

	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")
	fmt.Fprintf(w, "event: ping\ndata: connected\n\n")
	flusher.Flush()

	// A run that stopped before the subscription will never broadcast again.
	if state, err := s.Engine.Load(r.Context(), runID); err == nil && state.Phase.Terminal() {
		msg := endMessage(runID, state)
		fmt.Fprintf(w, "event: %s\ndata: %s\n\n", msg.Event, msg.Data)
		flusher.Flush()
		return
	}

	for {
		select {
		case <-r.Context().Done():
			s.logger.Info("SSE client disconnected", "run_id", runID)
			return
		case msg, ok := <-ch:
			if !ok {
				return
			}
			if msg.Event == "" && !matchesWatch(msg.Data, watch) {
				continue
			}
			if msg.Event != "" {
				fmt.Fprintf(w, "event: %s\n", msg.Event)
			}
			fmt.Fprintf(w, "data: %s\n\n", msg.Data)
			flusher.Flush()
		}
	}
}

func matchesWatch(data string, watch []string) bool {
	if len(watch) == 0 {
		return true
	}
	var diff domain.StateDiff
	if err := json.Unmarshal([]byte(data), &diff); err != nil {
		return true
	}
	for _, field := range watch {
		switch strings.TrimSpace(field) {
		case "facts":
			if len(diff.Facts) > 0 {
				return true
			}
		case "history":
			if len(diff.History) > 0 {
				return true
			}
		case "phase":
			if diff.Phase != nil {
				return true
			}
		case "draft":
			if diff.Draft != nil {
				return true
			}
		case "failure":
			if diff.Failure != nil {
				return true
			}
		}
	}
	return false
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, err error) {
	resp := ErrorResponse{Error: err.Error()}
	if f, ok := domain.AsFailure(err); ok {
		resp.Kind = f.Kind
	}
	writeJSON(w, status, resp)
}
