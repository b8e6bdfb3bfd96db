package inspect

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/statebus/statebus/pkg/store"
)

// Server is a read-only debugging surface over a store engine. It serves
// JSON snapshots over HTTP and a live change stream over WebSocket. It never
// mutates the store and must not be exposed beyond development environments.
type Server struct {
	engine *store.Engine
	logger *slog.Logger
	router chi.Router

	httpServer *http.Server
}

// Option configures the inspector.
type Option func(*Server)

// WithLogger sets the structured logger. If not set, slog.Default() is used.
func WithLogger(logger *slog.Logger) Option {
	return func(s *Server) {
		if logger != nil {
			s.logger = logger
		}
	}
}

// New creates an inspector for engine.
func New(engine *store.Engine, opts ...Option) *Server {
	s := &Server{
		engine: engine,
		logger: slog.Default(),
	}
	for _, opt := range opts {
		opt(s)
	}

	r := chi.NewRouter()
	r.Get("/api/snapshot", s.handleSnapshot)
	r.Get("/api/namespaces", s.handleNamespaces)
	r.Get("/api/namespaces/{namespace}", s.handleNamespace)
	r.Get("/live", s.handleLive)
	s.router = r

	return s
}

// Handler returns the inspector's HTTP handler, for mounting into a host
// router.
func (s *Server) Handler() http.Handler {
	return s.router
}

// ListenAndServe serves the inspector on addr until ctx is cancelled, then
// shuts down gracefully.
func (s *Server) ListenAndServe(ctx context.Context, addr string) error {
	s.httpServer = &http.Server{
		Addr:              addr,
		Handler:           s.router,
		ReadHeaderTimeout: 5 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		errCh <- s.httpServer.ListenAndServe()
	}()

	s.logger.Info("inspector listening", "addr", addr)

	select {
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		return s.httpServer.Shutdown(shutdownCtx)
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	}
}

// handleSnapshot serves a deep copy of the entire storage map.
func (s *Server) handleSnapshot(w http.ResponseWriter, r *http.Request) {
	s.writeJSON(w, http.StatusOK, s.engine.Snapshot())
}

// handleNamespaces serves the declared namespace names.
func (s *Server) handleNamespaces(w http.ResponseWriter, r *http.Request) {
	s.writeJSON(w, http.StatusOK, map[string]any{
		"namespaces": s.engine.Namespaces(),
	})
}

// handleNamespace serves one namespace's current value.
func (s *Server) handleNamespace(w http.ResponseWriter, r *http.Request) {
	namespace := chi.URLParam(r, "namespace")
	if !s.knownNamespace(namespace) {
		s.writeJSON(w, http.StatusNotFound, map[string]any{
			"error": "unknown namespace",
		})
		return
	}
	s.writeJSON(w, http.StatusOK, map[string]any{
		"namespace": namespace,
		"data":      s.engine.Get(namespace),
	})
}

func (s *Server) knownNamespace(namespace string) bool {
	for _, n := range s.engine.Namespaces() {
		if n == namespace {
			return true
		}
	}
	return false
}

func (s *Server) writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		s.logger.Error("response encode error", "error", err)
	}
}
