package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/techvilo/crm-api/internal/auth"
	"github.com/techvilo/crm-api/internal/cache"
	"github.com/techvilo/crm-api/internal/config"
	"github.com/techvilo/crm-api/internal/database"
	"github.com/techvilo/crm-api/internal/http/handler"
	"github.com/techvilo/crm-api/internal/http/middleware"
	"github.com/techvilo/crm-api/internal/http/router"
	"github.com/techvilo/crm-api/internal/jobs"
	"github.com/techvilo/crm-api/internal/logger"
	"github.com/techvilo/crm-api/internal/notify"
	"github.com/techvilo/crm-api/internal/repository"
	"github.com/techvilo/crm-api/internal/service"
	"github.com/techvilo/crm-api/internal/storage"
	"go.uber.org/zap"
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func run() error {
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}

	log, err := logger.NewLogger(&cfg.Logging, &cfg.App)
	if err != nil {
		return fmt.Errorf("failed to create logger: %w", err)
	}
	defer func() { _ = log.Sync() }()

	log.Info("Starting application",
		zap.String("app", cfg.App.Name),
		zap.String("env", cfg.App.Environment),
		zap.Int("port", cfg.App.Port),
	)

	db, err := database.NewDatabase(&cfg.Database)
	if err != nil {
		return fmt.Errorf("failed to connect to database: %w", err)
	}

	if cfg.App.Environment == "development" {
		if err := database.AutoMigrate(db); err != nil {
			return fmt.Errorf("failed to run automatic migrations: %w", err)
		}
	}

	var fileStorage storage.Storage
	switch cfg.Storage.Backend {
	case "azure":
		fileStorage, err = storage.NewAzureBlobStorage(cfg.Storage.AzureConnectionString, cfg.Storage.AzureContainer, log)
	default:
		fileStorage, err = storage.NewLocalStorage(cfg.Storage.BasePath)
	}
	if err != nil {
		return fmt.Errorf("failed to initialize storage: %w", err)
	}

	metricsCache, err := cache.New(512, 5*time.Minute)
	if err != nil {
		return fmt.Errorf("failed to initialize cache: %w", err)
	}

	var notifier notify.Notifier = notify.NopNotifier{}
	if cfg.SMTP.Enabled {
		notifier = notify.NewMailer(cfg.SMTP.Host, cfg.SMTP.Port, cfg.SMTP.User, cfg.SMTP.Password, cfg.SMTP.From, log)
		log.Info("SMTP notifications enabled", zap.String("host", cfg.SMTP.Host))
	}

	// Repositories
	clientRepo := repository.NewClientRepository(db)
	leadRepo := repository.NewLeadRepository(db)
	projectRepo := repository.NewProjectRepository(db)
	taskRepo := repository.NewTaskRepository(db)
	transactionRepo := repository.NewTransactionRepository(db)
	interactionRepo := repository.NewInteractionRepository(db)
	documentRepo := repository.NewDocumentRepository(db)
	kpiTargetRepo := repository.NewKPITargetRepository(db)
	userRepo := repository.NewUserRepository(db)

	// Services
	engine := service.NewDerivedStateEngine(log)
	issuer := auth.NewTokenIssuer(cfg.Auth.JWTSecret, cfg.Auth.TokenTTL())
	userService := service.NewUserService(userRepo, issuer, log)
	clientService := service.NewClientService(clientRepo, projectRepo, userRepo, transactionRepo, metricsCache, notifier, log)
	leadService := service.NewLeadService(leadRepo, userRepo, notifier, log, db)
	projectService := service.NewProjectService(projectRepo, clientRepo, userRepo, notifier, log)
	taskService := service.NewTaskService(taskRepo, projectRepo, engine, log, db)
	transactionService := service.NewTransactionService(transactionRepo, clientRepo, projectRepo, engine, metricsCache, log, db)
	interactionService := service.NewInteractionService(interactionRepo, clientRepo, leadRepo, log)
	documentService := service.NewDocumentService(documentRepo, fileStorage, log)
	kpiService := service.NewKPIService(kpiTargetRepo, userRepo, log, db)
	dashboardService := service.NewDashboardService(clientRepo, leadRepo, projectRepo, taskRepo, transactionRepo, kpiService, log)

	// HTTP layer
	authMiddleware := auth.NewMiddleware(issuer, log)
	rateLimiter := middleware.NewRateLimiter(&cfg.RateLimit, log)
	rt := router.NewRouter(
		cfg,
		log,
		db,
		authMiddleware,
		rateLimiter,
		handler.NewAuthHandler(userService, log),
		handler.NewClientHandler(clientService, projectService, interactionService, documentService, log),
		handler.NewLeadHandler(leadService, interactionService, documentService, log),
		handler.NewProjectHandler(projectService, taskService, documentService, log),
		handler.NewTaskHandler(taskService, log),
		handler.NewTransactionHandler(transactionService, log),
		handler.NewInteractionHandler(interactionService, log),
		handler.NewDocumentHandler(documentService, cfg.Storage.MaxUploadSizeMB, log),
		handler.NewKPIHandler(kpiService, log),
		handler.NewDashboardHandler(dashboardService, log),
	)

	// Background jobs
	var scheduler *jobs.Scheduler
	if cfg.Jobs.Enabled {
		scheduler = jobs.NewScheduler(log)
		followUp := jobs.NewFollowUpJob(leadService, userRepo, notifier, log)
		if err := scheduler.Register(cfg.Jobs.FollowUpCron, "lead-follow-up", followUp.Run); err != nil {
			return fmt.Errorf("failed to register follow-up job: %w", err)
		}
		scheduler.Start()
		defer scheduler.Stop()
	}

	server := &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.App.Port),
		Handler:      rt.Setup(),
		ReadTimeout:  cfg.Server.ReadTimeoutDuration(),
		WriteTimeout: cfg.Server.WriteTimeoutDuration(),
	}

	errCh := make(chan error, 1)
	go func() {
		log.Info("HTTP server listening", zap.String("addr", server.Addr))
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			errCh <- err
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

	select {
	case err := <-errCh:
		return fmt.Errorf("server error: %w", err)
	case sig := <-quit:
		log.Info("shutting down", zap.String("signal", sig.String()))
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("graceful shutdown failed: %w", err)
	}

	log.Info("server stopped")
	return nil
}
