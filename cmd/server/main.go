package main

import (
	"context"
	"database/sql"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/ispeciadev/LocalMoves-Backend-sub000/internal"
	"github.com/ispeciadev/LocalMoves-Backend-sub000/internal/billing"
	"github.com/ispeciadev/LocalMoves-Backend-sub000/internal/email"
	"github.com/ispeciadev/LocalMoves-Backend-sub000/internal/handler"
	"github.com/ispeciadev/LocalMoves-Backend-sub000/internal/jobs"
	"github.com/ispeciadev/LocalMoves-Backend-sub000/internal/metrics"
	"github.com/ispeciadev/LocalMoves-Backend-sub000/internal/middleware"
	"github.com/ispeciadev/LocalMoves-Backend-sub000/internal/repository"
	"github.com/ispeciadev/LocalMoves-Backend-sub000/internal/service"
	"github.com/ispeciadev/LocalMoves-Backend-sub000/internal/storage"
	"github.com/ispeciadev/LocalMoves-Backend-sub000/internal/worker"
	_ "github.com/jackc/pgx/v5/stdlib"
)

func run() error {
	ctx := context.Background()

	// Load configuration
	cfg, err := internal.NewConfig()
	if err != nil {
		return fmt.Errorf("config initialization failed: %w", err)
	}

	// Configure logger
	logger := internal.NewLogger(os.Stdout, cfg.Env, cfg.LogLevel)

	// Initialize database connection
	db, err := sql.Open("pgx", cfg.DatabaseUrl)
	if err != nil {
		return fmt.Errorf("database connection failed: %w", err)
	}
	defer db.Close()

	if err := db.PingContext(ctx); err != nil {
		return fmt.Errorf("database ping failed: %w", err)
	}

	// Run migrations
	if err := internal.RunMigrations(db); err != nil {
		return fmt.Errorf("migration failed: %w", err)
	}
	logger.Info("Database ready")

	// Initialize repository
	queries := repository.New(db)

	// Initialize file storage
	var store storage.Storage
	switch cfg.StorageProvider {
	case storage.ProviderR2:
		store, err = storage.NewR2Storage(storage.R2Config{
			AccountID:       cfg.R2AccountID,
			AccessKeyID:     cfg.R2AccessKeyID,
			SecretAccessKey: cfg.R2SecretAccessKey,
			BucketName:      cfg.R2BucketName,
			PublicURL:       cfg.R2PublicURL,
		}, logger)
	default:
		store, err = storage.NewLocalStorage(storage.LocalConfig{
			BasePath: cfg.LocalStoragePath,
			BaseURL:  cfg.LocalStorageURL,
		}, logger)
	}
	if err != nil {
		return fmt.Errorf("storage initialization failed: %w", err)
	}
	logger.Info("Storage ready", "provider", cfg.StorageProvider)

	// Initialize email service
	emailService, err := email.NewSMTPEmailService(email.SMTPConfig{
		Host:     cfg.SMTPHost,
		Port:     cfg.SMTPPort,
		Username: cfg.SMTPUsername,
		Password: cfg.SMTPPassword,
		From:     cfg.SMTPFrom,
		FromName: cfg.SMTPFromName,
	}, cfg.BaseURL, logger)
	if err != nil {
		return fmt.Errorf("email service initialization failed: %w", err)
	}

	// Initialize billing (optional — nil when Stripe is not configured)
	var billingService billing.Service
	if cfg.StripeSecretKey != "" {
		billingService = billing.NewStripeService(cfg.StripeSecretKey, cfg.StripeWebhookSecret, billing.PriceConfig{
			BasicMonthlyPriceID:    cfg.StripeBasicMonthlyPriceID,
			BasicYearlyPriceID:     cfg.StripeBasicYearlyPriceID,
			StandardMonthlyPriceID: cfg.StripeStandardMonthlyPriceID,
			StandardYearlyPriceID:  cfg.StripeStandardYearlyPriceID,
			PremiumMonthlyPriceID:  cfg.StripePremiumMonthlyPriceID,
			PremiumYearlyPriceID:   cfg.StripePremiumYearlyPriceID,
		})
		logger.Info("Stripe billing enabled")
	} else {
		logger.Warn("Stripe billing disabled: STRIPE_SECRET_KEY not set")
	}

	// Initialize services
	userService := service.NewUserService(queries, logger)
	companyService := service.NewCompanyService(queries, logger)
	subscriptionService := service.NewSubscriptionService(queries, emailService, logger)
	assignmentService := service.NewAssignmentService(db, queries, emailService, logger)
	boardService := service.NewBoardService(db, queries, logger)
	requestService := service.NewRequestService(queries, logger)
	photoService := service.NewPhotoService(queries, store, service.NewImagingProcessor(), logger)

	// Initialize background worker and scheduler
	var (
		jobWorker *worker.Worker
		scheduler *worker.Scheduler
	)
	if cfg.WorkerEnabled {
		workerCfg := worker.DefaultConfig()
		workerCfg.Concurrency = cfg.WorkerConcurrency
		workerCfg.PollInterval = cfg.WorkerPollInterval
		workerCfg.JobTimeout = cfg.WorkerJobTimeout

		jobWorker, err = worker.New(db, queries, workerCfg, logger)
		if err != nil {
			return fmt.Errorf("worker initialization failed: %w", err)
		}

		jobWorker.Register(jobs.NewResetMonthlyViewsHandler(subscriptionService, logger))
		jobWorker.Register(jobs.NewCheckSubscriptionExpiryHandler(subscriptionService, logger))
		jobWorker.Register(jobs.NewCleanupSessionsHandler(userService, logger))

		jobWorker.Start(ctx)
		scheduler = worker.NewScheduler(queries, logger)
		scheduler.Start(ctx)
		logger.Info("Worker started", "concurrency", cfg.WorkerConcurrency)
	} else {
		logger.Warn("Worker disabled: periodic maintenance will not run")
	}

	// Initialize middleware
	isSecure := cfg.Env != "development"
	authMw := middleware.NewAuthMiddleware(userService, logger, isSecure).
		WithAdminEmails(cfg.AdminEmails)
	authLimiter := middleware.NewAuthRateLimiter(logger)
	loggingMw := middleware.NewRequestLoggingMiddleware(logger)
	securityMw := middleware.NewSecurityHeadersMiddleware(isSecure)
	metricsAuth := middleware.NewMetricsAuthMiddleware(cfg.MetricsUsername, cfg.MetricsPassword)

	// Initialize handlers
	authHandler := handler.NewAuthHandler(userService, authLimiter, logger, isSecure)
	companyHandler := handler.NewCompanyHandler(companyService, logger)
	requestHandler := handler.NewRequestHandler(assignmentService, requestService, photoService, logger)
	managerHandler := handler.NewManagerHandler(boardService, assignmentService, logger)
	adminHandler := handler.NewAdminHandler(assignmentService, subscriptionService, logger)
	billingHandler := handler.NewBillingHandler(billingService, companyService, cfg.BaseURL, logger)
	webhookHandler := handler.NewWebhookHandler(billingService, companyService, subscriptionService, logger)

	// ==========================================================================
	// Create router and register routes
	// ==========================================================================

	mux := http.NewServeMux()

	// Health check
	mux.HandleFunc("GET /health", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		w.Write([]byte("OK"))
	})

	// Prometheus metrics (basic auth when configured)
	mux.Handle("GET /metrics", metricsAuth.Handler(promhttp.Handler()))

	// Uploaded files (local storage only; R2 serves its own URLs)
	if cfg.StorageProvider == storage.ProviderLocal {
		filesFS := http.FileServer(http.Dir(cfg.LocalStoragePath))
		mux.Handle("GET /files/", http.StripPrefix("/files/", filesFS))
	}

	// Middleware stacks for protected routes
	withUser := authMw.WithUser
	requireUser := middleware.Stack(authMw.WithUser, authMw.RequireUser)
	requireManager := middleware.Stack(authMw.WithUser, authMw.RequireManager)
	requireAdmin := middleware.Stack(authMw.WithUser, authMw.RequireAdmin)

	authHandler.RegisterRoutes(mux, withUser, requireUser)
	companyHandler.RegisterRoutes(mux, requireUser, requireManager)
	requestHandler.RegisterRoutes(mux, requireUser, requireManager)
	managerHandler.RegisterRoutes(mux, requireManager)
	adminHandler.RegisterRoutes(mux, requireAdmin)
	billingHandler.RegisterRoutes(mux, requireManager)
	webhookHandler.RegisterRoutes(mux)

	// Everything else is a JSON 404
	mux.HandleFunc("/", func(w http.ResponseWriter, r *http.Request) {
		handler.NotFoundResponse(w, r, logger)
	})

	// Global middleware: logging, security headers, request metrics
	root := middleware.Stack(loggingMw.Handler, securityMw.Handler, metrics.Middleware)(mux)

	// ==========================================================================
	// Start server
	// ==========================================================================

	server := &http.Server{
		Addr:    fmt.Sprintf(":%d", cfg.Port),
		Handler: root,
	}

	// Channel to listen for interrupt signals
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)

	// Start server in goroutine
	go func() {
		logger.Info("Server started", "address", server.Addr, "env", cfg.Env)
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Error("Server failed", "error", err)
		}
	}()

	// Wait for interrupt signal
	<-sigChan
	logger.Info("Shutdown signal received, initiating graceful shutdown...")

	// Create shutdown context with timeout
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Error("Server shutdown error", "error", err)
	}

	// Stop background processing after the HTTP server stops accepting work
	if scheduler != nil {
		scheduler.Stop()
	}
	if jobWorker != nil {
		jobWorker.Stop()
	}

	logger.Info("Graceful shutdown complete")
	return nil
}

func main() {
	if err := run(); err != nil {
		log.Fatal(err)
	}
}
