package main

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	zlog "github.com/rs/zerolog/log"

	"github.com/iho/chequer/internal/adapter/gateway"
	httpAdapter "github.com/iho/chequer/internal/adapter/http"
	"github.com/iho/chequer/internal/adapter/http/handler"
	"github.com/iho/chequer/internal/adapter/http/middleware"
	postgresRepo "github.com/iho/chequer/internal/adapter/repository/postgres"
	redisRepo "github.com/iho/chequer/internal/adapter/repository/redis"
	"github.com/iho/chequer/internal/domain"
	"github.com/iho/chequer/internal/infrastructure/config"
	"github.com/iho/chequer/internal/infrastructure/eventpublisher"
	"github.com/iho/chequer/internal/infrastructure/logger"
	"github.com/iho/chequer/internal/infrastructure/logging"
	"github.com/iho/chequer/internal/infrastructure/metrics"
	"github.com/iho/chequer/internal/infrastructure/postgres"
	"github.com/iho/chequer/internal/infrastructure/redis"
	"github.com/iho/chequer/internal/infrastructure/settlementworker"
	"github.com/iho/chequer/internal/usecase"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		zlog.Fatal().Err(err).Msg("failed to load configuration")
	}

	log := logger.New(logger.Config{Level: cfg.LogLevel, Format: cfg.LogFormat})
	workerLog := logging.New(slog.LevelInfo, cfg.LogFormat)

	ctx := context.Background()

	// Connect to PostgreSQL
	pool, err := postgres.NewPool(ctx, cfg.DatabaseURL, cfg.DatabaseMaxConns, cfg.DatabaseMinConns)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to connect to postgres")
	}
	defer pool.Close()
	log.Info().Msg("connected to postgres")

	if err := postgres.RunMigrations(cfg.DatabaseURL, "internal/infrastructure/postgres/migrations"); err != nil {
		log.Fatal().Err(err).Msg("failed to run migrations")
	}

	// Connect to Redis
	redisClient, err := redis.NewClient(ctx, cfg.RedisURL)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to connect to redis")
	}
	defer redisClient.Close()
	log.Info().Msg("connected to redis")

	m := metrics.New()

	// Initialize repositories
	txManager := postgresRepo.NewTxManager(pool)
	chequeRepo := postgresRepo.NewChequeRepository(pool)
	ledgerRepo := postgresRepo.NewLedgerRepository(pool)
	attemptRepo := postgresRepo.NewAttemptRepository(pool)
	accountRepo := postgresRepo.NewAccountRepository(pool)
	outboxRepo := postgresRepo.NewOutboxRepository(pool)
	idempotencyStore := redisRepo.NewIdempotencyStore(redisClient)
	leaseStore := redisRepo.NewLeaseStore(redisClient)
	idGen := postgresRepo.NewULIDGenerator()
	retrier := postgresRepo.NewRetrier()

	settlementGateway := gateway.NewHTTPGateway(cfg.GatewayURL, cfg.GatewayTimeout, m)

	workerID := resolveWorkerID(cfg.WorkerID)

	policy := usecase.ClearingPolicy{
		Limits: domain.Limits{
			MaxAmountMinor:     cfg.MaxAmountMinor,
			PayerDailyCapMinor: cfg.PayerDailyCapMinor,
			IssueDateMaxAge:    cfg.IssueDateMaxAge,
			IssueDateMaxFuture: cfg.IssueDateMaxFuture,
		},
		RetryBound:     cfg.SettlementRetries,
		BackoffInitial: cfg.BackoffInitial,
		BackoffMax:     cfg.BackoffMax,
		ReversalWindow: cfg.ReversalWindow,
		LeaseTTL:       cfg.LeaseTTL,
		GatewayTimeout: cfg.GatewayTimeout,
		WorkerID:       workerID,
	}

	// Initialize use cases
	submissionUC := usecase.NewSubmissionUseCase(txManager, chequeRepo, ledgerRepo, accountRepo, outboxRepo, idGen, retrier, policy, m)
	settlementUC := usecase.NewSettlementUseCase(txManager, chequeRepo, ledgerRepo, attemptRepo, accountRepo, outboxRepo, settlementGateway, leaseStore, idGen, policy, workerLog.Logger, m)
	reversalUC := usecase.NewReversalUseCase(txManager, chequeRepo, ledgerRepo, accountRepo, outboxRepo, idGen, policy, m)
	statusUC := usecase.NewStatusUseCase(chequeRepo, ledgerRepo, attemptRepo, outboxRepo)
	accountUC := usecase.NewAccountUseCase(accountRepo, idGen)

	// Initialize handlers
	chequeHandler := handler.NewChequeHandler(submissionUC, statusUC, reversalUC)
	accountHandler := handler.NewAccountHandler(accountUC)
	healthHandler := handler.NewHealthHandler(pool, redisClient)

	// Create router
	rateLimiter := middleware.NewRateLimiter(100, 200)
	router := httpAdapter.NewRouter(httpAdapter.RouterConfig{
		ChequeHandler:    chequeHandler,
		AccountHandler:   accountHandler,
		HealthHandler:    healthHandler,
		IdempotencyStore: idempotencyStore,
		RateLimiter:      rateLimiter,
		Logger:           log,
	})

	// Background workers
	workerCtx, stopWorkers := context.WithCancel(ctx)
	defer stopWorkers()

	go func() {
		ticker := time.NewTicker(10 * time.Minute)
		defer ticker.Stop()
		for {
			select {
			case <-workerCtx.Done():
				return
			case <-ticker.C:
				rateLimiter.CleanupLimiters(time.Hour)
			}
		}
	}()

	worker := settlementworker.New(settlementworker.Config{
		Settler:   settlementUC,
		Logger:    workerLog.Logger,
		Interval:  cfg.WorkerPollInterval,
		BatchSize: cfg.WorkerBatchSize,
	})
	go worker.Start(workerCtx)

	publisher := eventpublisher.NewEventPublisher(eventpublisher.Config{
		OutboxRepo: outboxRepo,
		Publisher:  eventpublisher.NewRedisPublisher(redisClient, cfg.EventChannel),
		Logger:     workerLog.Logger,
		Metrics:    m,
		BatchSize:  cfg.PublishBatchSize,
		Interval:   cfg.PublishInterval,
	})
	go publisher.Start(workerCtx)

	// Create server
	server := &http.Server{
		Addr:         fmt.Sprintf(":%s", cfg.HTTPPort),
		Handler:      router,
		ReadTimeout:  cfg.HTTPReadTimeout,
		WriteTimeout: cfg.HTTPWriteTimeout,
		IdleTimeout:  cfg.HTTPIdleTimeout,
	}

	// Start server in goroutine
	go func() {
		log.Info().Str("port", cfg.HTTPPort).Str("worker_id", workerID).Msg("starting server")
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatal().Err(err).Msg("server failed")
		}
	}()

	// Wait for interrupt signal
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info().Msg("shutting down server...")

	stopWorkers()

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.HTTPShutdownTimeout)
	defer cancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		log.Fatal().Err(err).Msg("server forced to shutdown")
	}

	log.Info().Msg("server stopped")
}

// resolveWorkerID returns the configured worker identity, falling back to the
// hostname so each instance claims leases under a distinct owner.
func resolveWorkerID(configured string) string {
	if configured != "" {
		return configured
	}

	hostname, err := os.Hostname()
	if err != nil || hostname == "" {
		return "worker-unknown"
	}
	return hostname
}
