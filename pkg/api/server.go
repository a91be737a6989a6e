// Package api exposes the console's REST surface: host registration,
// assessment job scheduling, report retrieval, and on-demand
// discovery. Assessment execution itself lives in the background job
// runner; handlers only move structured data in and out of the store.
package api

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/hwinsight/hic/pkg/config"
	"github.com/hwinsight/hic/pkg/store"
)

type Server struct {
	cfg    *config.Config
	store  *store.SQLiteStore
	runner *JobRunner
	logger *slog.Logger
	http   *http.Server
}

func NewServer(cfg *config.Config, st *store.SQLiteStore, runner *JobRunner, logger *slog.Logger) *Server {
	if logger == nil {
		logger = slog.Default()
	}
	return &Server{
		cfg:    cfg,
		store:  st,
		runner: runner,
		logger: logger,
	}
}

// Handler builds the full route table with the configured middleware
// chain applied.
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()

	mux.HandleFunc("GET /health", s.handleHealth)
	mux.HandleFunc("GET /api/v1/hosts", s.handleListHosts)
	mux.HandleFunc("POST /api/v1/hosts", s.handleCreateHost)
	mux.HandleFunc("GET /api/v1/jobs", s.handleListJobs)
	mux.HandleFunc("POST /api/v1/jobs", s.handleCreateJob)
	mux.HandleFunc("GET /api/v1/jobs/{id}", s.handleGetJob)
	mux.HandleFunc("GET /api/v1/reports/{job_id}", s.handleGetReport)
	mux.HandleFunc("GET /api/v1/discovery", s.handleDiscovery)

	var handler http.Handler = mux
	if s.cfg.API.APIKey != "" {
		handler = auth(s.cfg.API.APIKey)(handler)
	}
	if s.cfg.API.EnableCORS {
		handler = cors()(handler)
	}
	return logging(s.logger)(handler)
}

// Start runs the HTTP server until Shutdown or listener failure.
func (s *Server) Start() error {
	s.http = &http.Server{
		Addr:         s.cfg.API.ListenAddr,
		Handler:      s.Handler(),
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 120 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	s.logger.Info("starting HTTP server", slog.String("addr", s.cfg.API.ListenAddr))

	if err := s.http.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		return fmt.Errorf("server error: %w", err)
	}
	return nil
}

// Shutdown drains in-flight requests and stops the job runner.
func (s *Server) Shutdown(ctx context.Context) error {
	s.runner.Stop()
	if s.http == nil {
		return nil
	}
	return s.http.Shutdown(ctx)
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, map[string]string{"error": message})
}
