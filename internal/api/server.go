// Package api exposes the pipeline core over HTTP for the dashboard.
// It is a thin wrapper: all scoring, ranking, and persistence
// semantics live in the pipeline and storage packages.
package api

import (
	"context"
	"net/http"
	"sync"
	"time"

	chi "github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog"

	"github.com/Kakaur/tensr-signal-agent/internal/pipeline"
	"github.com/Kakaur/tensr-signal-agent/internal/profile"
	"github.com/Kakaur/tensr-signal-agent/internal/storage"
)

// Pipeline is the run surface the API needs from the runner.
type Pipeline interface {
	RunProfiles(ctx context.Context, refs []pipeline.ProfileRef, progress pipeline.ProgressFunc) ([]pipeline.Result, error)
	Gate() *pipeline.Gate
}

// Server wires the HTTP routes to the pipeline core.
type Server struct {
	Router chi.Router

	runner   Pipeline
	runs     storage.RunStore
	signals  storage.SignalReader
	profiles *profile.Store
	logger   zerolog.Logger

	mu         sync.Mutex
	lastStatus string
	lastRunAt  *time.Time
}

// NewServer builds the router with the standard middleware stack.
func NewServer(runner Pipeline, runs storage.RunStore, signals storage.SignalReader, profiles *profile.Store, timeout time.Duration, logger zerolog.Logger) *Server {
	s := &Server{
		runner:     runner,
		runs:       runs,
		signals:    signals,
		profiles:   profiles,
		logger:     logger.With().Str("component", "api").Logger(),
		lastStatus: "idle",
	}

	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Recoverer)
	if timeout > 0 {
		r.Use(middleware.Timeout(timeout))
	}

	r.Get("/metrics", promhttp.Handler().ServeHTTP)

	r.Route("/api", func(r chi.Router) {
		r.Get("/signals", s.handleSignals)
		r.Get("/summary", s.handleSummary)
		r.Get("/status", s.handleStatus)
		r.Get("/batches", s.handleListBatches)
		r.Post("/batches/delete", s.handleDeleteBatch)
		r.Post("/batches/delete-all", s.handleDeleteAllBatches)
		r.Post("/run-pipeline", s.handleRunPipeline)
		r.Get("/profiles", s.handleListProfiles)
		r.Get("/profiles/default", s.handleDefaultProfile)
		r.Post("/profiles/save", s.handleSaveProfile)
	})

	s.Router = r
	return s
}

// Start runs the HTTP server until ctx is cancelled.
func (s *Server) Start(ctx context.Context, addr string) error {
	srv := &http.Server{
		Addr:        addr,
		Handler:     s.Router,
		ReadTimeout: 15 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		s.logger.Info().Str("addr", addr).Msg("http server listening")
		errCh <- srv.ListenAndServe()
	}()

	select {
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	case err := <-errCh:
		return err
	}
}

func (s *Server) setStatus(status string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.lastStatus = status
	if status != "running" {
		now := time.Now().UTC()
		s.lastRunAt = &now
	}
}

func (s *Server) status() (string, *time.Time) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.lastStatus, s.lastRunAt
}
