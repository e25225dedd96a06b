package http

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strings"

	"github.com/aretw0/scribe/internal/logging"
	"github.com/aretw0/scribe/internal/presentation/graph"
	"github.com/aretw0/scribe/pkg/domain"
	"github.com/aretw0/scribe/pkg/ports"
	"github.com/aretw0/scribe/pkg/session"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// SessionLister exposes the sessions currently running.
type SessionLister interface {
	Active() []domain.SessionInfo
}

// Server serves the read-only admin API.
type Server struct {
	Sessions SessionLister
	Store    ports.DocumentStore
	Streams  *StreamManager

	gatherer prometheus.Gatherer
	version  string
	logger   *slog.Logger
}

// Option configures the Server.
type Option func(*Server)

// WithGatherer selects the registry served on /metrics.
func WithGatherer(g prometheus.Gatherer) Option {
	return func(s *Server) {
		s.gatherer = g
	}
}

// WithVersion sets the version reported by /info.
func WithVersion(v string) Option {
	return func(s *Server) {
		s.version = v
	}
}

// WithLogger sets a custom structured logger.
func WithLogger(logger *slog.Logger) Option {
	return func(s *Server) {
		s.logger = logger
	}
}

// NewServer creates an admin server. store may be nil when archiving is off.
func NewServer(sessions SessionLister, store ports.DocumentStore, opts ...Option) *Server {
	s := &Server{
		Sessions: sessions,
		Store:    store,
		Streams:  NewStreamManager(),
		gatherer: prometheus.DefaultGatherer,
		version:  "dev",
		logger:   logging.NewNop(),
	}
	for _, opt := range opts {
		opt(s)
	}
	s.Streams.logger = s.logger
	return s
}

// Handler returns the chi router for the admin API.
func (s *Server) Handler() http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.Recoverer)
	r.Use(enableCORS)

	r.Get("/health", s.GetHealth)
	r.Get("/info", s.GetInfo)
	r.Get("/sessions", s.ListSessions)
	r.Get("/graph", s.GetGraph)
	r.Get("/events", s.SubscribeEvents)
	r.Route("/documents", func(r chi.Router) {
		r.Get("/", s.ListDocuments)
		r.Get("/{id}", s.GetDocument)
	})
	r.Method(http.MethodGet, "/metrics", promhttp.HandlerFor(s.gatherer, promhttp.HandlerOpts{}))
	return r
}

// Hooks broadcasts session lifecycle events to /events subscribers.
func (s *Server) Hooks() domain.LifecycleHooks {
	publish := func(kind string) func(context.Context, *domain.SessionEvent) {
		return func(_ context.Context, e *domain.SessionEvent) {
			payload := eventPayload{
				Kind:      kind,
				Timestamp: e.Timestamp,
				Session:   e.Session,
				Outcome:   e.Outcome,
				Field:     e.Field,
			}
			if e.Err != nil {
				payload.Error = e.Err.Error()
			}
			data, err := json.Marshal(payload)
			if err != nil {
				s.logger.Error("event encode failed", "err", err)
				return
			}
			s.Streams.Broadcast(e.Session.ID, string(data))
		}
	}
	return domain.LifecycleHooks{
		OnSessionStart:  publish("session_start"),
		OnPhaseEnter:    publish("phase_enter"),
		OnFieldAppended: publish("field_appended"),
		OnSessionEnd:    publish("session_end"),
	}
}

func enableCORS(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Access-Control-Allow-Origin", "*")
		w.Header().Set("Access-Control-Allow-Methods", "GET, OPTIONS")
		w.Header().Set("Access-Control-Allow-Headers", "Content-Type")
		if r.Method == http.MethodOptions {
			w.WriteHeader(http.StatusOK)
			return
		}
		next.ServeHTTP(w, r)
	})
}

func (s *Server) writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		s.logger.Error("response encode failed", "err", err)
	}
}

// GetHealth handles the GET /health request.
func (s *Server) GetHealth(w http.ResponseWriter, r *http.Request) {
	s.writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// GetInfo handles the GET /info request.
func (s *Server) GetInfo(w http.ResponseWriter, r *http.Request) {
	s.writeJSON(w, http.StatusOK, map[string]string{
		"app":     "scribe",
		"version": strings.TrimSpace(s.version),
	})
}

// ListSessions handles the GET /sessions request.
func (s *Server) ListSessions(w http.ResponseWriter, r *http.Request) {
	sessions := []domain.SessionInfo{}
	if s.Sessions != nil {
		sessions = append(sessions, s.Sessions.Active()...)
	}
	s.writeJSON(w, http.StatusOK, sessions)
}

// GetGraph handles the GET /graph request: the session state machine as
// Mermaid, annotated with how many sessions sit in each phase.
func (s *Server) GetGraph(w http.ResponseWriter, r *http.Request) {
	var overlay *graph.Overlay
	if s.Sessions != nil {
		overlay = graph.NewOverlay(s.Sessions.Active())
	}
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	fmt.Fprint(w, graph.GenerateMermaid(session.Transitions(), overlay))
}

// ListDocuments handles the GET /documents request.
func (s *Server) ListDocuments(w http.ResponseWriter, r *http.Request) {
	if s.Store == nil {
		http.Error(w, "Archive disabled", http.StatusNotFound)
		return
	}
	ids, err := s.Store.List(r.Context())
	if err != nil {
		http.Error(w, fmt.Sprintf("List error: %v", err), http.StatusInternalServerError)
		s.logger.Error("List documents failed", "err", err)
		return
	}
	if ids == nil {
		ids = []string{}
	}
	s.writeJSON(w, http.StatusOK, ids)
}

// GetDocument handles the GET /documents/{id} request.
func (s *Server) GetDocument(w http.ResponseWriter, r *http.Request) {
	if s.Store == nil {
		http.Error(w, "Archive disabled", http.StatusNotFound)
		return
	}
	id := chi.URLParam(r, "id")
	rec, err := s.Store.Load(r.Context(), id)
	if errors.Is(err, domain.ErrDocumentNotFound) {
		http.Error(w, "Document not found", http.StatusNotFound)
		return
	}
	if err != nil {
		http.Error(w, fmt.Sprintf("Load error: %v", err), http.StatusInternalServerError)
		s.logger.Error("Load document failed", "document_id", id, "err", err)
		return
	}
	s.writeJSON(w, http.StatusOK, rec)
}
