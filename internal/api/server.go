// Package api exposes usage summaries, sessions and settings over HTTP.
package api

import (
	"context"
	"fmt"
	"net"
	"net/http"
	"time"

	"github.com/goodtune/screenbreak/internal/usage"
	"github.com/gorilla/mux"
	"github.com/rs/zerolog"
)

// Config holds the API server configuration.
type Config struct {
	ListenAddr      string
	RateLimit       int
	RateLimitWindow time.Duration
	AllowedOrigins  []string
	SessionGap      time.Duration
	CycleTimeout    time.Duration
}

// Evaluator runs an evaluation cycle on demand.
type Evaluator interface {
	RunCycle(ctx context.Context) usage.Summary
}

// LogStore reads the usage log and updates settings.
type LogStore interface {
	GetLog(ctx context.Context) (usage.Document, error)
	UpdateSettings(ctx context.Context, patch usage.SettingsPatch) (usage.Settings, error)
}

// Server represents the API HTTP server.
type Server struct {
	config      Config
	evaluator   Evaluator
	store       LogStore
	clock       usage.Clock
	rateLimiter *RateLimiter
	server      *http.Server
	router      *mux.Router
	listener    net.Listener
	logger      zerolog.Logger
}

// NewServer creates a new API server.
func NewServer(cfg Config, evaluator Evaluator, store LogStore, clock usage.Clock, logger zerolog.Logger) *Server {
	if cfg.RateLimit == 0 {
		cfg.RateLimit = 120
	}
	if cfg.RateLimitWindow == 0 {
		cfg.RateLimitWindow = time.Minute
	}
	if cfg.SessionGap <= 0 {
		cfg.SessionGap = usage.DefaultSessionGap
	}

	s := &Server{
		config:      cfg,
		evaluator:   evaluator,
		store:       store,
		clock:       clock,
		rateLimiter: NewRateLimiter(cfg.RateLimit, cfg.RateLimitWindow),
		router:      mux.NewRouter(),
		logger:      logger.With().Str("component", "api").Logger(),
	}

	s.setupRoutes()

	s.server = &http.Server{
		Addr:         cfg.ListenAddr,
		Handler:      s.router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 60 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	return s
}

// setupRoutes configures all HTTP routes.
func (s *Server) setupRoutes() {
	s.router.Use(LoggingMiddleware(s.logger))
	s.router.Use(RateLimitMiddleware(s.rateLimiter))

	if len(s.config.AllowedOrigins) > 0 {
		s.router.Use(CORSMiddleware(s.config.AllowedOrigins))
	}

	s.router.HandleFunc("/health", s.handleHealth).Methods("GET")
	s.router.HandleFunc("/usage-summary", s.handleUsageSummary).Methods("GET", "OPTIONS")
	s.router.HandleFunc("/settings", s.handleGetSettings).Methods("GET", "OPTIONS")
	s.router.HandleFunc("/settings", s.handleUpdateSettings).Methods("POST")
	s.router.HandleFunc("/sessions", s.handleSessions).Methods("GET", "OPTIONS")
	s.router.HandleFunc("/trend", s.handleTrend).Methods("GET", "OPTIONS")
	s.router.HandleFunc("/status", s.handleStatus).Methods("GET", "OPTIONS")
}

// Handler returns the router, for tests and embedding.
func (s *Server) Handler() http.Handler {
	return s.router
}

// SetListener sets a pre-created listener for systemd socket activation
func (s *Server) SetListener(ln net.Listener) {
	s.listener = ln
}

// Start starts the API server.
func (s *Server) Start() error {
	s.logger.Info().Str("addr", s.config.ListenAddr).Msg("Starting API server")

	go func() {
		var err error
		if s.listener != nil {
			s.logger.Debug().Msg("Using systemd socket-activated API listener")
			err = s.server.Serve(s.listener)
		} else {
			err = s.server.ListenAndServe()
		}
		if err != nil && err != http.ErrServerClosed {
			s.logger.Error().Err(err).Msg("API server error")
		}
	}()

	return nil
}

// Stop gracefully stops the API server.
func (s *Server) Stop() error {
	s.logger.Info().Msg("Stopping API server")
	s.rateLimiter.Stop()

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := s.server.Shutdown(ctx); err != nil {
		return fmt.Errorf("api server shutdown: %w", err)
	}

	return nil
}
