package server

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/gorilla/mux"

	"github.com/vpakspace/ontoguard-ai/internal/audit"
	"github.com/vpakspace/ontoguard-ai/internal/engine"
	"github.com/vpakspace/ontoguard-ai/internal/loader"
	"github.com/vpakspace/ontoguard-ai/pkg/config"
	"github.com/vpakspace/ontoguard-ai/pkg/authz"
	"github.com/vpakspace/ontoguard-ai/pkg/logger"
	"github.com/vpakspace/ontoguard-ai/pkg/monitoring"
)

// Service exposes the decision engine over HTTP
type Service struct {
	router        *mux.Router
	server        *http.Server
	snapshot      *engine.Snapshot
	reloader      *loader.Reloader
	recorder      audit.Recorder
	healthManager *monitoring.HealthManager
	logger        *logger.Logger
	cfg           *config.Config
	startTime     time.Time
}

// NewService creates the HTTP service around a compiled index snapshot.
// The reloader may be nil when reload-over-HTTP is not wanted; the recorder
// may be nil when decisions are not audited.
func NewService(cfg *config.Config, snapshot *engine.Snapshot, reloader *loader.Reloader, recorder audit.Recorder, log *logger.Logger) *Service {
	s := &Service{
		router:        mux.NewRouter(),
		snapshot:      snapshot,
		reloader:      reloader,
		recorder:      recorder,
		healthManager: monitoring.NewHealthManager("ontoguard", "1.0.0"),
		logger:        log,
		cfg:           cfg,
		startTime:     time.Now(),
	}

	s.registerHealthChecks()
	s.setupRoutes()

	s.server = &http.Server{
		Addr:         fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port),
		Handler:      s.router,
		ReadTimeout:  time.Duration(cfg.Server.ReadTimeout) * time.Second,
		WriteTimeout: time.Duration(cfg.Server.WriteTimeout) * time.Second,
		IdleTimeout:  time.Duration(cfg.Server.IdleTimeout) * time.Second,
	}

	return s
}

// Router returns the configured router, used by tests
func (s *Service) Router() *mux.Router {
	return s.router
}

// Start begins serving HTTP requests and blocks until the server stops
func (s *Service) Start() error {
	s.logger.WithComponent("server").WithField("addr", s.server.Addr).Info("Starting HTTP server")
	if err := s.server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		return fmt.Errorf("http server failed: %w", err)
	}
	return nil
}

// Shutdown gracefully stops the server, draining in-flight requests
func (s *Service) Shutdown(ctx context.Context) error {
	s.logger.WithComponent("server").Info("Shutting down HTTP server")
	return s.server.Shutdown(ctx)
}

func (s *Service) setupRoutes() {
	s.router.Use(s.requestIDMiddleware)
	s.router.Use(s.loggingMiddleware)
	s.router.Use(s.securityHeadersMiddleware)
	s.router.Use(monitoring.Middleware)

	v1 := s.router.PathPrefix("/api/v1").Subrouter()
	v1.HandleFunc("/validate", s.handleValidate).Methods(http.MethodPost)
	v1.HandleFunc("/suggest", s.handleSuggest).Methods(http.MethodPost)
	v1.HandleFunc("/reload", s.handleReload).Methods(http.MethodPost)

	if s.cfg.Monitoring.Enabled {
		s.router.Handle(s.cfg.Monitoring.HealthPath, s.healthManager.Handler()).Methods(http.MethodGet)
		s.router.Handle(s.cfg.Monitoring.MetricsPath, monitoring.Handler()).Methods(http.MethodGet)
	}
}

func (s *Service) registerHealthChecks() {
	s.healthManager.RegisterChecker("index", monitoring.CheckFunc(func(ctx context.Context) monitoring.HealthCheck {
		check := monitoring.HealthCheck{
			Name:        "index",
			LastChecked: time.Now(),
		}
		idx := s.snapshot.Load()
		if idx == nil {
			check.Status = monitoring.HealthStatusUnhealthy
			check.Message = "no compiled index loaded"
			return check
		}
		check.Status = monitoring.HealthStatusHealthy
		check.Message = fmt.Sprintf("%d rules loaded", idx.RuleCount())
		return check
	}))
}

func (s *Service) suggestionLimit() int {
	if s.cfg.Suggestions.Limit > 0 {
		return s.cfg.Suggestions.Limit
	}
	return authz.DefaultSuggestionLimit
}
