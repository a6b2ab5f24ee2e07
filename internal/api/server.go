// internal/api/server.go
package api

import (
	"context"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"

	"citypulse/internal/common/config"
	"citypulse/internal/common/logger"
	"citypulse/internal/models"
)

// Analyzer runs the full question pipeline. Implemented by agent.Agent.
type Analyzer interface {
	Analyze(ctx context.Context, question string) (*models.AnalyzeResult, error)
}

// ModeController exposes the SQL generation mode for the status and
// switch-mode endpoints.
type ModeController interface {
	Mode() string
	DatafileID() string
	SwitchMode(mode, datafileID string) error
}

// Pinger reports database liveness for the health endpoint.
type Pinger interface {
	Ping(ctx context.Context) error
}

// Server exposes the analysis API plus health, status, and metrics routes.
type Server struct {
	httpServer *http.Server
	analyzer   Analyzer
	modes      ModeController
	db         Pinger
	cfg        *config.Config
	logger     logger.Logger
}

func NewServer(cfg *config.Config, analyzer Analyzer, modes ModeController, db Pinger, log logger.Logger) *Server {
	s := &Server{
		analyzer: analyzer,
		modes:    modes,
		db:       db,
		cfg:      cfg,
		logger:   log.With(map[string]interface{}{"component": "api"}),
	}

	mux := http.NewServeMux()
	mux.HandleFunc("GET /{$}", s.handleHealth)
	mux.HandleFunc("GET /api/health", s.handleHealth)
	mux.HandleFunc("POST /api/analyze", s.handleAnalyze)
	mux.HandleFunc("GET /api/schema", s.handleSchema)
	mux.HandleFunc("GET /api/status", s.handleStatus)
	mux.HandleFunc("POST /api/switch-mode", s.handleSwitchMode)
	mux.HandleFunc("GET /api/demo-queries", s.handleDemoQueries)
	mux.Handle("GET /metrics", promhttp.Handler())

	handler := chain(mux,
		s.recoveryMiddleware,
		s.loggingMiddleware,
		corsMiddleware,
		requestIDMiddleware,
	)

	s.httpServer = &http.Server{
		Addr:         cfg.Server.Address,
		Handler:      handler,
		ReadTimeout:  config.GetDuration(cfg.Server.ReadTimeout),
		WriteTimeout: config.GetDuration(cfg.Server.WriteTimeout),
		IdleTimeout:  60 * time.Second,
	}
	return s
}

// Start begins listening. Returns http.ErrServerClosed on graceful shutdown.
func (s *Server) Start() error {
	s.logger.Info("http server starting", map[string]interface{}{
		"addr": s.httpServer.Addr,
	})
	return s.httpServer.ListenAndServe()
}

// Shutdown gracefully drains connections within the given context deadline.
func (s *Server) Shutdown(ctx context.Context) error {
	return s.httpServer.Shutdown(ctx)
}

// ServeHTTP delegates to the underlying handler, useful for testing.
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.httpServer.Handler.ServeHTTP(w, r)
}
