package http

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"

	"github.com/aretw0/stepwise/pkg/domain"
	"github.com/aretw0/stepwise/pkg/runner"
	"github.com/aretw0/stepwise/pkg/session"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// WatchFunc reports names of changed descriptions until ctx ends.
type WatchFunc func(ctx context.Context) (<-chan string, error)

// Server exposes a session.Manager as a JSON API.
type Server struct {
	Manager *session.Manager
	Streams *StreamManager

	entry    string
	version  string
	watch    WatchFunc
	gatherer prometheus.Gatherer
	origins  []string
	logger   *slog.Logger
}

// Option configures the Server.
type Option func(*Server)

// WithEntry sets the entry path used when a start request names none.
func WithEntry(entry string) Option {
	return func(s *Server) { s.entry = entry }
}

// WithVersion sets the version reported by /info.
func WithVersion(v string) Option {
	return func(s *Server) { s.version = v }
}

// WithWatch enables the global /events stream.
func WithWatch(fn WatchFunc) Option {
	return func(s *Server) { s.watch = fn }
}

// WithGatherer serves /metrics from g instead of the default registry.
func WithGatherer(g prometheus.Gatherer) Option {
	return func(s *Server) { s.gatherer = g }
}

// WithAllowedOrigins restricts CORS origins. The default allows any origin.
func WithAllowedOrigins(origins ...string) Option {
	return func(s *Server) { s.origins = origins }
}

// WithLogger sets the logger.
func WithLogger(logger *slog.Logger) Option {
	return func(s *Server) {
		if logger != nil {
			s.logger = logger
		}
	}
}

// SessionResponse is the body returned by every session endpoint.
type SessionResponse struct {
	ID        string         `json:"id"`
	Submitted bool           `json:"submitted"`
	Prompt    *domain.Prompt `json:"prompt,omitempty"`
	Entries   []domain.Entry `json:"entries,omitempty"`
}

type startRequest struct {
	Entry string `json:"entry"`
}

type inputRequest struct {
	Input string `json:"input"`
}

// NewHandler creates the HTTP handler for manager.
func NewHandler(manager *session.Manager, opts ...Option) http.Handler {
	s := &Server{
		Manager: manager,
		Streams: NewStreamManager(),
		entry:   "start",
		version: "dev",
		origins: []string{"*"},
		logger:  slog.Default(),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s.routes()
}

func (s *Server) routes() http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.Recoverer)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins: s.origins,
		AllowedMethods: []string{"GET", "POST", "DELETE", "OPTIONS"},
		AllowedHeaders: []string{"Content-Type"},
		MaxAge:         300,
	}))

	r.Get("/health", s.health)
	r.Get("/info", s.info)
	if s.gatherer != nil {
		r.Handle("/metrics", promhttp.HandlerFor(s.gatherer, promhttp.HandlerOpts{}))
	} else {
		r.Handle("/metrics", promhttp.Handler())
	}
	r.Get("/events", s.globalEvents)

	r.Route("/sessions", func(r chi.Router) {
		r.Get("/", s.listSessions)
		r.Post("/", s.startSession)
		r.Route("/{id}", func(r chi.Router) {
			r.Get("/", s.getSession)
			r.Delete("/", s.deleteSession)
			r.Post("/input", s.input)
			r.Post("/back", s.back)
			r.Get("/collection", s.collection)
			r.Get("/events", s.sessionEvents)
		})
	})
	return r
}

func (s *Server) health(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (s *Server) info(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{
		"app":     "stepwise-http",
		"version": strings.TrimSpace(s.version),
	})
}

func (s *Server) listSessions(w http.ResponseWriter, r *http.Request) {
	ids, err := s.Manager.List(r.Context())
	if err != nil {
		s.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string][]string{"sessions": ids})
}

func (s *Server) startSession(w http.ResponseWriter, r *http.Request) {
	var body startRequest
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil && !errors.Is(err, io.EOF) {
		http.Error(w, "Invalid request body", http.StatusBadRequest)
		return
	}
	entry := body.Entry
	if entry == "" {
		entry = s.entry
	}

	sess, err := s.Manager.Start(r.Context(), entry)
	if err != nil {
		s.fail(w, r, err)
		return
	}

	var resp SessionResponse
	err = s.Manager.Do(r.Context(), sess.ID(), func(ctx context.Context, sess *session.Session) error {
		var verr error
		resp, verr = view(ctx, sess)
		return verr
	})
	if err != nil {
		s.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, resp)
}

// getSession renders the current prompt. Rendering may move the session
// forward (completed contexts, verified menus), so the result is persisted.
func (s *Server) getSession(w http.ResponseWriter, r *http.Request) {
	s.do(w, r, func(ctx context.Context, sess *session.Session) error { return nil })
}

func (s *Server) input(w http.ResponseWriter, r *http.Request) {
	var body inputRequest
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		http.Error(w, "Invalid request body", http.StatusBadRequest)
		return
	}
	clean, err := runner.SanitizeAnswer(body.Input)
	if err != nil {
		s.logger.Warn("Input rejected", "error", err, "size", len(body.Input))
		http.Error(w, fmt.Sprintf("Invalid input: %v", err), http.StatusBadRequest)
		return
	}
	s.do(w, r, func(ctx context.Context, sess *session.Session) error {
		_, err := sess.Input(ctx, clean)
		return err
	})
}

func (s *Server) back(w http.ResponseWriter, r *http.Request) {
	s.do(w, r, func(ctx context.Context, sess *session.Session) error {
		_, err := sess.Back(ctx)
		return err
	})
}

func (s *Server) collection(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	var entries []domain.Entry
	err := s.Manager.View(r.Context(), id, func(ctx context.Context, sess *session.Session) error {
		entries = sess.Collect()
		return nil
	})
	if err != nil {
		s.fail(w, r, err)
		return
	}
	if entries == nil {
		entries = []domain.Entry{}
	}
	writeJSON(w, http.StatusOK, map[string][]domain.Entry{"entries": entries})
}

func (s *Server) deleteSession(w http.ResponseWriter, r *http.Request) {
	if err := s.Manager.Delete(r.Context(), chi.URLParam(r, "id")); err != nil {
		s.fail(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// do applies fn, renders the resulting view and broadcasts it to subscribers.
func (s *Server) do(w http.ResponseWriter, r *http.Request, fn func(context.Context, *session.Session) error) {
	id := chi.URLParam(r, "id")
	var resp SessionResponse
	err := s.Manager.Do(r.Context(), id, func(ctx context.Context, sess *session.Session) error {
		if err := fn(ctx, sess); err != nil {
			return err
		}
		var err error
		resp, err = view(ctx, sess)
		return err
	})
	if err != nil {
		s.fail(w, r, err)
		return
	}
	if payload, err := json.Marshal(resp); err == nil {
		s.Streams.Broadcast(id, string(payload))
	}
	writeJSON(w, http.StatusOK, resp)
}

// view renders the session state after the last step.
func view(ctx context.Context, sess *session.Session) (SessionResponse, error) {
	resp := SessionResponse{ID: sess.ID()}
	if !sess.Submitted() {
		p, err := sess.Prompt(ctx)
		switch {
		case errors.Is(err, domain.ErrSessionSubmitted):
		case err != nil:
			return resp, err
		default:
			resp.Prompt = &p
		}
	}
	if sess.Submitted() {
		resp.Submitted = true
		resp.Entries = sess.Entries()
	}
	return resp, nil
}

func (s *Server) fail(w http.ResponseWriter, r *http.Request, err error) {
	var (
		construction *domain.ConstructionError
		load         *domain.LoadError
	)
	status := http.StatusInternalServerError
	switch {
	case errors.Is(err, domain.ErrSessionNotFound):
		status = http.StatusNotFound
	case errors.Is(err, domain.ErrSessionSubmitted):
		status = http.StatusConflict
	case errors.Is(err, context.DeadlineExceeded), errors.Is(err, context.Canceled):
		status = http.StatusServiceUnavailable
	case errors.As(err, &construction), errors.As(err, &load):
		status = http.StatusUnprocessableEntity
	}
	if status >= http.StatusInternalServerError {
		s.logger.Error("Request failed", "path", r.URL.Path, "error", err)
	}
	writeJSON(w, status, map[string]string{"error": err.Error()})
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}
