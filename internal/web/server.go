// Package web provides the HTTP server for the registry read API.
package web

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"

	"github.com/JonMunkholm/regsync/internal/config"
	"github.com/JonMunkholm/regsync/internal/core"
	"github.com/JonMunkholm/regsync/internal/metrics"
	"github.com/JonMunkholm/regsync/internal/web/middleware"
)

// HealthChecker reports whether the store is reachable.
// *pgxpool.Pool satisfies it.
type HealthChecker interface {
	Ping(ctx context.Context) error
}

// Options wires the server's dependencies. Reader is required; a nil
// Health, RPC or MetricsHandler leaves that route unregistered.
type Options struct {
	Reader         core.Reader
	Health         HealthChecker
	RPC            http.Handler
	MetricsHandler http.Handler
	Metrics        *metrics.Metrics
	Server         config.ServerConfig
	RateLimit      config.RateLimitConfig
	Logger         *slog.Logger
}

// Server is the HTTP server for the registry API.
type Server struct {
	reader  core.Reader
	health  HealthChecker
	rpc     http.Handler
	promh   http.Handler
	metrics *metrics.Metrics
	cfg     config.ServerConfig
	rate    config.RateLimitConfig
	logger  *slog.Logger
	limiter *rateLimiter
	router  *chi.Mux
	server  *http.Server
}

// NewServer creates a new Server instance.
func NewServer(opts Options) *Server {
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}
	s := &Server{
		reader:  opts.Reader,
		health:  opts.Health,
		rpc:     opts.RPC,
		promh:   opts.MetricsHandler,
		metrics: opts.Metrics,
		cfg:     opts.Server,
		rate:    opts.RateLimit,
		logger:  logger,
		router:  chi.NewRouter(),
	}
	s.setupMiddleware()
	s.setupRoutes()
	s.server = &http.Server{
		Addr:         s.cfg.Addr(),
		Handler:      s.router,
		ReadTimeout:  s.cfg.ReadTimeout,
		WriteTimeout: s.cfg.WriteTimeout,
		IdleTimeout:  s.cfg.IdleTimeout,
	}
	return s
}

// setupMiddleware configures middleware for all routes.
func (s *Server) setupMiddleware() {
	s.router.Use(chimw.RequestID)
	s.router.Use(middleware.TrustedRealIP(s.cfg.TrustedProxies))
	s.router.Use(middleware.Logger(s.logger))
	s.router.Use(chimw.Recoverer)
	if s.cfg.RequestTimeout > 0 {
		s.router.Use(chimw.Timeout(s.cfg.RequestTimeout))
	}

	s.router.Use(securityHeaders)

	if s.rate.Enabled {
		s.limiter = newRateLimiter(s.rate.RequestsPerMinute, time.Minute, s.rate.Burst)
		s.router.Use(s.rateLimit)
	}
}

// setupRoutes configures all HTTP routes.
func (s *Server) setupRoutes() {
	if s.health != nil {
		s.router.Get("/healthz", s.handleHealth)
	}
	if s.promh != nil {
		s.router.Method(http.MethodGet, "/metrics", s.promh)
	}
	if s.rpc != nil {
		s.router.Method(http.MethodPost, "/rpc", s.rpc)
	}

	s.router.Route("/api", func(r chi.Router) {
		r.Get("/registrations", s.handleSearch)
		r.Get("/registrations/{key}", s.handleGetRegistration)
		r.Get("/stats", s.handleStats)
		r.Get("/versions", s.handleVersions)
	})
}

// Start begins listening for HTTP requests. It returns http.ErrServerClosed
// after Shutdown, including a Shutdown that ran first.
func (s *Server) Start() error {
	s.logger.Info("starting server", "addr", s.server.Addr)
	return s.server.ListenAndServe()
}

// Shutdown gracefully stops the server and the limiter's cleanup loop.
func (s *Server) Shutdown(ctx context.Context) error {
	if s.limiter != nil {
		s.limiter.Close()
	}
	return s.server.Shutdown(ctx)
}

// Router returns the underlying chi router for testing.
func (s *Server) Router() *chi.Mux {
	return s.router
}

// securityHeaders adds security headers to all responses.
func securityHeaders(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("X-Content-Type-Options", "nosniff")
		w.Header().Set("X-Frame-Options", "DENY")
		w.Header().Set("Referrer-Policy", "no-referrer")
		next.ServeHTTP(w, r)
	})
}

// writeJSON encodes v as JSON with the given status.
// Encoding errors are only logged since headers are already sent.
func (s *Server) writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		s.logger.Debug("json encode error", "error", err)
	}
}
