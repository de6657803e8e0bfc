package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/rs/zerolog/log"

	httpAdapter "github.com/iho/bookscan/internal/adapter/http"
	"github.com/iho/bookscan/internal/adapter/http/handler"
	postgresRepo "github.com/iho/bookscan/internal/adapter/repository/postgres"
	redisRepo "github.com/iho/bookscan/internal/adapter/repository/redis"
	"github.com/iho/bookscan/internal/infrastructure/config"
	"github.com/iho/bookscan/internal/infrastructure/logger"
	"github.com/iho/bookscan/internal/infrastructure/metrics"
	"github.com/iho/bookscan/internal/infrastructure/postgres"
	"github.com/iho/bookscan/internal/infrastructure/redis"
	"github.com/iho/bookscan/internal/usecase"
)

func main() {
	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		log.Fatal().Err(err).Msg("failed to load configuration")
	}

	// Setup logger
	appLogger := logger.New(logger.Config{Level: cfg.LogLevel, Format: cfg.LogFormat})
	log.Logger = appLogger

	ctx := context.Background()

	// Run migrations
	if cfg.AutoMigrate {
		if err := postgres.RunMigrations(cfg.DatabaseURL, cfg.MigrationsPath); err != nil {
			log.Fatal().Err(err).Msg("failed to run migrations")
		}
	}

	// Connect to PostgreSQL
	pool, err := postgres.NewPool(ctx, cfg.DatabaseURL, cfg.DatabaseMaxConns, cfg.DatabaseMinConns)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to connect to postgres")
	}
	defer pool.Close()
	log.Info().Msg("connected to postgres")

	// Connect to Redis
	redisClient, err := redis.NewClient(ctx, cfg.RedisURL)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to connect to redis")
	}
	defer redisClient.Close()
	log.Info().Msg("connected to redis")

	// Initialize repositories
	txManager := postgresRepo.NewTxManager(pool)
	retrier := postgresRepo.NewRetrier(appLogger)
	moveRepo := postgresRepo.NewMoveRepository(pool, retrier)
	templateRepo := postgresRepo.NewTemplateRepository(pool)
	scanLock := redisRepo.NewScanLock(redisClient, cfg.ScanLockTTL)
	idGen := postgresRepo.NewULIDGenerator()

	// Initialize use cases
	scanUC := usecase.NewScanUseCase(moveRepo, idGen, cfg.BooksRoot, appLogger)
	bookUC := usecase.NewBookUseCase(templateRepo, moveRepo, txManager, scanUC, scanLock, appLogger)
	exportUC := usecase.NewExportUseCase(moveRepo)

	// Initialize handlers
	scanMetrics := metrics.New()
	scanHandler := handler.NewScanHandler(bookUC, scanMetrics)
	exportHandler := handler.NewExportHandler(exportUC)
	healthHandler := handler.NewHealthHandler(pool, redisClient)

	// Create router
	router := httpAdapter.NewRouter(httpAdapter.RouterConfig{
		ScanHandler:   scanHandler,
		ExportHandler: exportHandler,
		HealthHandler: healthHandler,
		Logger:        appLogger,
	})

	// Create server
	server := &http.Server{
		Addr:         ":" + cfg.HTTPPort,
		Handler:      router,
		ReadTimeout:  cfg.HTTPReadTimeout,
		WriteTimeout: cfg.HTTPWriteTimeout,
		IdleTimeout:  cfg.HTTPIdleTimeout,
	}

	// Start server
	go func() {
		log.Info().Str("port", cfg.HTTPPort).Msg("starting HTTP server")
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatal().Err(err).Msg("server failed")
		}
	}()

	// Wait for shutdown signal
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info().Msg("shutting down server")

	shutdownCtx, cancel := context.WithTimeout(ctx, cfg.HTTPShutdownTimeout)
	defer cancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("server shutdown failed")
	}

	log.Info().Msg("server stopped")
}
