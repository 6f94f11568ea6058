// Package web serves the ledger over HTTP: the collection API used by the
// import CLI, a health probe, Prometheus metrics and a small status page.
package web

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/JonMunkholm/ledgerimport/internal/config"
	"github.com/JonMunkholm/ledgerimport/internal/core"
	"github.com/JonMunkholm/ledgerimport/internal/ledger"
	mw "github.com/JonMunkholm/ledgerimport/internal/web/middleware"
)

// Server is the ledgerd HTTP server.
type Server struct {
	cfg     *config.Config
	ledgers ledger.Collections
	limiter *core.UploadLimiter
	router  *chi.Mux
	server  *http.Server
	started time.Time
}

// NewServer wires the router for ledgers.
func NewServer(cfg *config.Config, ledgers ledger.Collections) *Server {
	s := &Server{
		cfg:     cfg,
		ledgers: ledgers,
		limiter: core.NewUploadLimiter(cfg.Upload.MaxConcurrent, cfg.Upload.MaxWaitTime),
		router:  chi.NewRouter(),
		started: time.Now(),
	}
	s.setupMiddleware()
	s.setupRoutes()
	return s
}

func (s *Server) setupMiddleware() {
	s.router.Use(middleware.RequestID)
	s.router.Use(mw.TrustedRealIP(s.cfg.Security.TrustedProxies))
	s.router.Use(mw.Logger)
	s.router.Use(middleware.Recoverer)
	if s.cfg.Server.RequestTimeout > 0 {
		s.router.Use(middleware.Timeout(s.cfg.Server.RequestTimeout))
	}
	s.router.Use(securityHeaders(s.cfg.Security.EnableCSP))
}

func (s *Server) setupRoutes() {
	s.router.Get("/", s.handleStatusPage)
	s.router.Get("/healthz", s.handleHealth)
	s.router.Handle("/metrics", promhttp.Handler())

	s.router.Route("/api/collections/{loc}", func(r chi.Router) {
		r.Use(mw.APIKeyAuth(s.cfg.Security.RequireAPIKey, s.cfg.Security.APIKeys))
		r.Use(middleware.Compress(5, "application/json"))

		r.Post("/items", s.handleCreateItems)
		r.Get("/items/{itemID}", s.handleGetItem)
		r.Put("/items/{itemID}/files/{fileHash}", s.handleUploadFile)
	})
}

// Start listens on the configured address until Shutdown.
func (s *Server) Start() error {
	s.server = &http.Server{
		Addr:         s.cfg.Server.Addr(),
		Handler:      s.router,
		ReadTimeout:  s.cfg.Server.ReadTimeout,
		WriteTimeout: s.cfg.Server.WriteTimeout,
		IdleTimeout:  s.cfg.Server.IdleTimeout,
	}

	slog.Info("Starting ledgerd", "addr", s.server.Addr)
	if err := s.server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return fmt.Errorf("listen: %w", err)
	}
	return nil
}

// Shutdown stops accepting requests and waits for in-flight uploads.
func (s *Server) Shutdown(ctx context.Context) error {
	var err error
	if s.server != nil {
		err = s.server.Shutdown(ctx)
	}
	if active := s.limiter.ActiveCount(); active > 0 {
		slog.Info("Waiting for uploads to finish", "active", active)
	}
	if drainErr := s.limiter.WaitForDrain(ctx); drainErr != nil {
		slog.Warn("Uploads still active at shutdown", "active", s.limiter.ActiveCount())
		err = errors.Join(err, drainErr)
	}
	return err
}

// Router returns the underlying chi router for testing.
func (s *Server) Router() *chi.Mux {
	return s.router
}

// securityHeaders sets the response hardening headers. The status page only
// needs inline styles.
func securityHeaders(csp bool) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.Header().Set("X-Content-Type-Options", "nosniff")
			w.Header().Set("X-Frame-Options", "DENY")
			w.Header().Set("Referrer-Policy", "no-referrer")
			if csp {
				w.Header().Set("Content-Security-Policy", "default-src 'none'; style-src 'unsafe-inline'")
			}
			next.ServeHTTP(w, r)
		})
	}
}

// writeJSON encodes v with the given status.
func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		slog.Error("json encode error", "error", err)
	}
}
