// Package http serves the registry over HTTP: a JSON introspection surface,
// a Server-Sent-Events feed of registry events, health, and metrics.
package http

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/aretw0/tether/internal/logging"
	"github.com/aretw0/tether/pkg/domain"
)

// Introspector is the read side of the registry the server needs.
// *tether.Registry satisfies it.
type Introspector interface {
	Objects() []domain.ObjectInfo
	Len() int
}

// Server wires the introspector and the hub into an HTTP handler.
type Server struct {
	registry  Introspector
	hub       *Hub
	heartbeat time.Duration
	logger    *slog.Logger
}

type Option func(*Server)

// WithHeartbeat sets the SSE keep-alive comment interval.
func WithHeartbeat(d time.Duration) Option {
	return func(s *Server) {
		s.heartbeat = d
	}
}

// WithLogger sets the request-level logger.
func WithLogger(logger *slog.Logger) Option {
	return func(s *Server) {
		s.logger = logger
	}
}

// NewHandler builds the chi router for the feed server.
func NewHandler(registry Introspector, hub *Hub, opts ...Option) http.Handler {
	s := &Server{
		registry:  registry,
		hub:       hub,
		heartbeat: 15 * time.Second,
		logger:    logging.NewNop(),
	}
	for _, opt := range opts {
		opt(s)
	}

	r := chi.NewRouter()
	r.Get("/healthz", s.health)
	r.Get("/objects", s.objects)
	r.Get("/events", s.events)
	r.Handle("/metrics", promhttp.Handler())
	return r
}

func (s *Server) health(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, map[string]any{
		"status":  "ok",
		"tracked": s.registry.Len(),
	})
}

// objects handles GET /objects: a snapshot of live side-table entries.
func (s *Server) objects(w http.ResponseWriter, r *http.Request) {
	infos := s.registry.Objects()
	if infos == nil {
		infos = []domain.ObjectInfo{}
	}
	writeJSON(w, infos)
}

// events handles GET /events (SSE).
func (s *Server) events(w http.ResponseWriter, r *http.Request) {
	flusher, ok := w.(http.Flusher)
	if !ok {
		http.Error(w, "streaming not supported", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")

	feed, cancel := s.hub.Subscribe()
	defer cancel()

	fmt.Fprintf(w, "event: ping\ndata: connected\n\n")
	flusher.Flush()

	ticker := time.NewTicker(s.heartbeat)
	defer ticker.Stop()

	for {
		select {
		case <-r.Context().Done():
			return
		case <-ticker.C:
			fmt.Fprintf(w, ": heartbeat\n\n")
			flusher.Flush()
		case ev, ok := <-feed:
			if !ok {
				return
			}
			data, err := json.Marshal(ev)
			if err != nil {
				s.logger.Warn("failed to encode feed event", "err", err)
				continue
			}
			fmt.Fprintf(w, "event: %s\ndata: %s\n\n", ev.Type, data)
			flusher.Flush()
		}
	}
}

func writeJSON(w http.ResponseWriter, v any) {
	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(v); err != nil {
		http.Error(w, "encode error", http.StatusInternalServerError)
	}
}
