// Package server provides the HTTP API for kotae.
package server

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"github.com/hyperjump/kotae/internal/config"
	"github.com/hyperjump/kotae/internal/indexer"
	"github.com/hyperjump/kotae/internal/lexical"
	"github.com/hyperjump/kotae/internal/ranking"
	"github.com/hyperjump/kotae/internal/search"
	"github.com/hyperjump/kotae/internal/storage"
	"github.com/hyperjump/kotae/internal/vector"
)

// Deps are the services the API is built on.
type Deps struct {
	Engine     *search.Engine
	Reranker   *ranking.Reranker
	Indexer    *indexer.Indexer
	Vectorizer *indexer.Vectorizer
	Records    storage.RecordStore
	Lexical    lexical.Index
	Vectors    vector.Store
	Config     *config.Config
}

// Server is the HTTP server for the kotae API.
type Server struct {
	deps   Deps
	logger *zap.Logger
	server *http.Server
}

// NewServer creates a server with the given dependencies.
func NewServer(deps Deps, logger *zap.Logger) *Server {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Server{deps: deps, logger: logger}
}

// Router builds the HTTP handler.
func (s *Server) Router() http.Handler {
	timeout := s.deps.Config.Server.WriteTimeout
	if timeout <= 0 {
		timeout = 60 * time.Second
	}

	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(s.requestLogger)
	r.Use(middleware.Recoverer)
	r.Use(middleware.Timeout(timeout))
	r.Use(middleware.Compress(5))

	r.Route("/api/v1", func(r chi.Router) {
		r.Post("/search", s.handleSearch)
		r.Post("/rank", s.handleRank)
		r.Post("/records", s.handleIndexRecord)
		r.Get("/records/{id}", s.handleGetRecord)
		r.Delete("/records/{id}", s.handleDeleteRecord)
		r.Post("/records/{id}/vectorize", s.handleVectorize)
		r.Post("/reindex", s.handleReindex)
		r.Get("/status", s.handleStatus)
	})
	r.Handle("/metrics", promhttp.Handler())
	r.Get("/health", s.handleHealth)
	return r
}

// Start starts the HTTP server and blocks until it stops.
func (s *Server) Start() error {
	addr := fmt.Sprintf("%s:%d", s.deps.Config.Server.Host, s.deps.Config.Server.Port)
	s.server = &http.Server{
		Addr:              addr,
		Handler:           s.Router(),
		ReadHeaderTimeout: 10 * time.Second,
	}
	s.logger.Info("starting server", zap.String("addr", addr))
	return s.server.ListenAndServe()
}

// Stop gracefully shuts down the server.
func (s *Server) Stop(ctx context.Context) error {
	if s.server != nil {
		return s.server.Shutdown(ctx)
	}
	return nil
}

func (s *Server) requestLogger(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		start := time.Now()
		next.ServeHTTP(ww, r)
		s.logger.Debug("http request",
			zap.String("method", r.Method),
			zap.String("path", r.URL.Path),
			zap.Int("status", ww.Status()),
			zap.Duration("duration", time.Since(start)),
			zap.String("request_id", middleware.GetReqID(r.Context())))
	})
}
