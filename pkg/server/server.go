package server

import (
	"context"
	"errors"
	"io"
	"net/http"
	"sync"
	"time"

	"github.com/charmbracelet/log"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/adonovan/spaghetti/pkg/client"
	"github.com/adonovan/spaghetti/pkg/dag"
	errs "github.com/adonovan/spaghetti/pkg/errors"
	"github.com/adonovan/spaghetti/pkg/observability"
	"github.com/adonovan/spaghetti/pkg/store"
)

// DefaultAddr is the address the server listens on when none is given.
const DefaultAddr = "localhost:18080"

// RequestTimeout bounds the handling of a single request. Rendering a large
// graph to SVG is the slowest operation.
const RequestTimeout = 60 * time.Second

// Config configures a Server.
type Config struct {
	// Graph is the graph to serve and edit. Required.
	Graph *dag.Graph
	// Store persists broken edges. Nil keeps them in memory only.
	Store store.Store
	// StoreKey names this graph's record in Store.
	StoreKey string
	// Title is shown in the page header, typically the package patterns.
	Title string
	// Logger receives request and edit logs. Nil discards them.
	Logger *log.Logger
}

// Server serves one package graph over HTTP. Handlers serialize on a single
// mutex: every request sees a consistent graph and edits apply one at a
// time.
type Server struct {
	mu     sync.Mutex
	g      *dag.Graph
	store  store.Store
	key    string
	title  string
	logger *log.Logger
	router chi.Router
}

// New returns a server for cfg.Graph.
func New(cfg Config) (*Server, error) {
	if cfg.Graph == nil {
		return nil, errs.New(errs.ErrCodeInvalidInput, "server needs a graph")
	}
	logger := cfg.Logger
	if logger == nil {
		logger = log.New(io.Discard)
	}
	st := cfg.Store
	if st == nil {
		st = store.NewMemoryStore()
	}
	s := &Server{
		g:      cfg.Graph,
		store:  st,
		key:    cfg.StoreKey,
		title:  cfg.Title,
		logger: logger,
	}
	s.router = s.routes()
	return s, nil
}

func (s *Server) routes() chi.Router {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(s.logRequests)
	r.Use(middleware.Recoverer)
	r.Use(middleware.Timeout(RequestTimeout))

	r.Get("/", s.handleIndex)
	r.Get(client.DataEndpoint, s.handleData)
	r.Get(client.BreakEndpoint, s.handleBreak)
	r.Get(client.UnbreakEndpoint, s.handleUnbreak)
	r.Get("/graph.dot", s.handleDOT)
	r.Get("/graph.svg", s.handleSVG)
	return r
}

// Handler returns the HTTP handler of the server.
func (s *Server) Handler() http.Handler { return s.router }

// Restore re-applies the broken edges saved in the store. Edges that no
// longer exist in the graph are dropped from the record.
func (s *Server) Restore(ctx context.Context) error {
	keys, err := s.store.Load(ctx, s.key)
	if err != nil {
		return err
	}
	if len(keys) == 0 {
		return nil
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	skipped := s.g.ApplyBroken(keys)
	s.recomputed(ctx)
	for _, k := range skipped {
		s.logger.Warn("dropping saved broken edge", "edge", k)
	}
	s.logger.Info("restored broken edges", "count", len(keys)-len(skipped))
	if len(skipped) > 0 {
		return s.store.Save(ctx, s.key, s.g.BrokenKeys())
	}
	return nil
}

// ListenAndServe serves on addr until ctx is cancelled, then shuts down
// gracefully.
func (s *Server) ListenAndServe(ctx context.Context, addr string) error {
	if addr == "" {
		addr = DefaultAddr
	}
	srv := &http.Server{
		Addr:              addr,
		Handler:           s.router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errc := make(chan error, 1)
	go func() { errc <- srv.ListenAndServe() }()
	s.logger.Info("listening", "url", "http://"+addr)

	select {
	case err := <-errc:
		return errs.Wrap(errs.ErrCodeNetwork, err, "listen on %s", addr)
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return err
	}
	if err := <-errc; err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

// recomputed reports the last recompute to the graph hooks. Callers hold mu.
func (s *Server) recomputed(ctx context.Context) {
	observability.Graph().OnRecompute(ctx, s.g.Len(), s.g.ReachableCount(), s.g.Elapsed())
	s.logger.Debug("recomputed", "generation", s.g.Generation(), "reachable", s.g.ReachableCount(), "elapsed", s.g.Elapsed())
}

// persist saves the broken edges. Callers hold mu. A failed save is logged
// and does not fail the edit.
func (s *Server) persist(ctx context.Context) {
	if err := s.store.Save(ctx, s.key, s.g.BrokenKeys()); err != nil {
		s.logger.Error("saving broken edges", "err", err)
	}
}

func (s *Server) logRequests(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		start := time.Now()
		next.ServeHTTP(ww, r)
		s.logger.Debug("request",
			"method", r.Method,
			"path", r.URL.RequestURI(),
			"status", ww.Status(),
			"bytes", ww.BytesWritten(),
			"elapsed", time.Since(start),
			"id", middleware.GetReqID(r.Context()))
	})
}
