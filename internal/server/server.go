// Package server provides the HTTP API for docsift.
package server

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/docsift/docsift/internal/config"
	"github.com/docsift/docsift/internal/scoring"
	"github.com/docsift/docsift/internal/storage"
	"go.uber.org/zap"
)

// Server is the HTTP server for the docsift API.
type Server struct {
	scorer *scoring.Scorer
	runs   *storage.RunStore // optional; when nil, /api/v1/runs reports unavailable
	config *config.ServerConfig
	logger *zap.Logger
	server *http.Server
}

// NewServer creates a server with the given dependencies. runs may be nil.
func NewServer(scorer *scoring.Scorer, runs *storage.RunStore, cfg *config.ServerConfig, logger *zap.Logger) *Server {
	return &Server{
		scorer: scorer,
		runs:   runs,
		config: cfg,
		logger: logger,
	}
}

// Handler returns the configured HTTP handler.
func (s *Server) Handler() http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)
	r.Use(middleware.Timeout(60 * time.Second))
	r.Use(middleware.Compress(5))

	r.Post("/api/v1/score", s.handleScore)
	r.Get("/api/v1/runs", s.handleRuns)
	r.Get("/health", s.handleHealth)
	return r
}

// Start starts the HTTP server and blocks until it stops.
func (s *Server) Start() error {
	addr := fmt.Sprintf("%s:%d", s.config.Host, s.config.Port)
	s.server = &http.Server{
		Addr:    addr,
		Handler: s.Handler(),
	}
	s.logger.Info("Starting server", zap.String("addr", addr))
	return s.server.ListenAndServe()
}

// Stop gracefully shuts down the server.
func (s *Server) Stop(ctx context.Context) error {
	if s.server != nil {
		return s.server.Shutdown(ctx)
	}
	return nil
}
