// Package api assembles the HTTP surface of the reconciliation service.
package api

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/ledgerline/reconcile-backend/internal/api/handlers"
	"github.com/ledgerline/reconcile-backend/internal/api/middleware"
	"github.com/ledgerline/reconcile-backend/internal/application/reconcile"
	"github.com/ledgerline/reconcile-backend/internal/infrastructure/storage"
)

// Config holds API server configuration.
type Config struct {
	Address        string
	ReadTimeout    time.Duration
	WriteTimeout   time.Duration
	AllowedOrigins []string
}

// DefaultConfig returns sensible defaults for the API server.
func DefaultConfig() Config {
	return Config{
		Address:        ":8080",
		ReadTimeout:    15 * time.Second,
		WriteTimeout:   30 * time.Second,
		AllowedOrigins: []string{"http://localhost:3000", "http://localhost:5173"},
	}
}

// Server is the HTTP API server.
type Server struct {
	config       Config
	router       chi.Router
	httpServer   *http.Server
	logger       *slog.Logger
	repo         storage.Repository
	orchestrator *reconcile.Orchestrator
	alerts       handlers.AlertService
}

// NewServer creates a new API server.
// If alerts is nil, the notification trigger endpoint is not registered.
func NewServer(cfg Config, repo storage.Repository, orchestrator *reconcile.Orchestrator, alerts handlers.AlertService, logger *slog.Logger) *Server {
	if logger == nil {
		logger = slog.Default()
	}

	s := &Server{
		config:       cfg,
		router:       chi.NewRouter(),
		logger:       logger,
		repo:         repo,
		orchestrator: orchestrator,
		alerts:       alerts,
	}

	s.setupMiddleware()
	s.setupRoutes()

	return s
}

// setupMiddleware configures global middleware.
func (s *Server) setupMiddleware() {
	corsConfig := middleware.CORSConfig{
		AllowedOrigins: s.config.AllowedOrigins,
		AllowedMethods: []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowedHeaders: []string{"Accept", "Authorization", "Content-Type"},
	}
	s.router.Use(middleware.CORS(corsConfig))
	s.router.Use(middleware.Logging(s.logger))
}

// setupRoutes configures all API routes.
func (s *Server) setupRoutes() {
	// Health check (no /api prefix - for load balancers)
	healthHandler := handlers.NewHealthHandler()
	s.router.Get("/health", healthHandler.ServeHTTP)

	s.router.Route("/api", func(r chi.Router) {
		// Customers
		customersHandler := handlers.NewCustomersHandler(s.repo)
		r.Post("/customers", customersHandler.Create)
		r.Get("/customers", customersHandler.List)

		// Invoices
		invoicesHandler := handlers.NewInvoicesHandler(s.repo)
		r.Post("/invoices", invoicesHandler.Create)
		r.Get("/invoices", invoicesHandler.List)
		r.Get("/invoices/{id}", invoicesHandler.Get)

		// Bank transactions
		transactionsHandler := handlers.NewTransactionsHandler(s.repo, s.orchestrator)
		r.Post("/transactions", transactionsHandler.Create)
		r.Get("/transactions", transactionsHandler.List)
		r.Get("/transactions/{id}", transactionsHandler.Get)

		// Reconciliation
		reconcileHandler := handlers.NewReconcileHandler(s.orchestrator)
		r.Post("/reconcile", reconcileHandler.Bulk)
		r.Get("/reconcile/stats", reconcileHandler.Stats)
		r.Post("/reconcile/manual", reconcileHandler.ManualMatch)
		r.Post("/reconcile/transactions/{id}", reconcileHandler.Process)
		r.Post("/reconcile/transactions/{id}/reprocess", reconcileHandler.Reprocess)

		// Audit trail
		logsHandler := handlers.NewLogsHandler(s.repo)
		r.Get("/logs", logsHandler.List)

		// Notification history and manual trigger
		notificationsHandler := handlers.NewNotificationsHandler(s.repo, s.alerts)
		r.Get("/notifications", notificationsHandler.List)
		if s.alerts != nil {
			r.Post("/notifications/check", notificationsHandler.Check)
		}
	})
}

// Start starts the HTTP server.
func (s *Server) Start() error {
	s.httpServer = &http.Server{
		Addr:         s.config.Address,
		Handler:      s.router,
		ReadTimeout:  s.config.ReadTimeout,
		WriteTimeout: s.config.WriteTimeout,
		IdleTimeout:  60 * time.Second,
	}

	s.logger.Info("starting API server", "addr", s.config.Address)

	if err := s.httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		return err
	}

	return nil
}

// Shutdown gracefully shuts down the server.
func (s *Server) Shutdown(ctx context.Context) error {
	s.logger.Info("shutting down API server")

	if s.httpServer == nil {
		return nil
	}

	return s.httpServer.Shutdown(ctx)
}

// Router returns the chi router for testing.
func (s *Server) Router() chi.Router {
	return s.router
}
