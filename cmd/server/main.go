package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/goldshop/backend/internal/application/report"
	"github.com/goldshop/backend/internal/application/workflow"
	"github.com/goldshop/backend/internal/infrastructure/auth"
	"github.com/goldshop/backend/internal/infrastructure/cache"
	"github.com/goldshop/backend/internal/infrastructure/config"
	"github.com/goldshop/backend/internal/infrastructure/logger"
	"github.com/goldshop/backend/internal/infrastructure/persistence"
	"github.com/goldshop/backend/internal/interfaces/http/handler"
	"github.com/goldshop/backend/internal/interfaces/http/router"
	"go.uber.org/zap"
)

func main() {
	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		panic("Failed to load configuration: " + err.Error())
	}

	// Initialize logger
	log, err := logger.New(&logger.Config{
		Level:  cfg.Log.Level,
		Format: cfg.Log.Format,
		Output: cfg.Log.Output,
	})
	if err != nil {
		panic("Failed to initialize logger: " + err.Error())
	}
	defer func() {
		_ = log.Sync()
	}()

	log.Info("Starting goldshop backend",
		zap.String("app", cfg.App.Name),
		zap.String("env", cfg.App.Env),
		zap.String("port", cfg.App.Port),
	)

	// Database connection with the zap-backed GORM logger
	gormLog := logger.NewGormLogger(log, logger.MapGormLogLevel(cfg.Log.Level))
	db, err := persistence.NewDatabaseWithLogger(&cfg.Database, gormLog)
	if err != nil {
		log.Fatal("Failed to connect to database", zap.Error(err))
	}
	defer func() {
		if err := db.Close(); err != nil {
			log.Error("Error closing database", zap.Error(err))
		}
	}()
	log.Info("Database connected")

	// Snapshot cache for the replay audit. Redis when reachable, in-memory
	// otherwise.
	cacheFactory := cache.NewSnapshotCacheFactory(cfg.Redis, cache.WithLogger(log))
	snapshotCache, err := cacheFactory.CreateCache()
	if err != nil {
		log.Fatal("Failed to create snapshot cache", zap.Error(err))
	}
	defer func() {
		if err := snapshotCache.Close(); err != nil {
			log.Error("Error closing snapshot cache", zap.Error(err))
		}
	}()

	// Repositories and the transaction scope the workflows run inside
	productRepo := persistence.NewGormProductRepository(db.DB)
	transactionRepo := persistence.NewGormTransactionRepository(db.DB)
	scope := persistence.NewGormTransactionScope(db.DB)

	// Application services
	depositService := workflow.NewDepositService(scope)
	manufacturerService := workflow.NewManufacturerService(scope)
	swapService := workflow.NewSwapService(scope)
	reportService := report.NewService(productRepo, transactionRepo, snapshotCache, log,
		report.WithSnapshotTTL(cfg.Report.SnapshotTTL))

	// Authentication
	var jwtService *auth.JWTService
	if cfg.JWT.Secret != "" {
		jwtService = auth.NewJWTService(cfg.JWT)
	} else {
		log.Warn("JWT secret not configured, API authentication is disabled")
	}

	// HTTP layer
	handlers := router.Handlers{
		Workflow: handler.NewWorkflowHandler(depositService, manufacturerService, swapService),
		Report:   handler.NewReportHandler(reportService),
		System:   handler.NewSystemHandler(db),
	}
	engine := router.New(cfg, log, handlers, jwtService)

	srv := &http.Server{
		Addr:           ":" + cfg.App.Port,
		Handler:        engine,
		ReadTimeout:    cfg.HTTP.ReadTimeout,
		WriteTimeout:   cfg.HTTP.WriteTimeout,
		IdleTimeout:    cfg.HTTP.IdleTimeout,
		MaxHeaderBytes: cfg.HTTP.MaxHeaderBytes,
	}

	go func() {
		log.Info("Server starting", zap.String("addr", srv.Addr))
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatal("Failed to start server", zap.Error(err))
		}
	}()

	// Graceful shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	log.Info("Shutting down server...")

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		log.Fatal("Server forced to shutdown", zap.Error(err))
	}

	log.Info("Server exited gracefully")
}
