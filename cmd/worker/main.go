package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"go.uber.org/zap"

	"github.com/talhao-editor/internal/config"
	"github.com/talhao-editor/internal/pkg/logger"
	"github.com/talhao-editor/internal/repository/cache"
	"github.com/talhao-editor/internal/repository/postgres"
	redisRepo "github.com/talhao-editor/internal/repository/redis"
	"github.com/talhao-editor/internal/usecase"
	"github.com/talhao-editor/internal/worker"
	"github.com/talhao-editor/internal/worker/farmstats"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		panic(fmt.Sprintf("Failed to load config: %v", err))
	}

	if !cfg.Worker.Enabled {
		fmt.Println("Worker is disabled in configuration. Set WORKER_ENABLED=true to enable.")
		os.Exit(0)
	}

	log, err := logger.New(cfg.Log.Level, "talhao-worker")
	if err != nil {
		panic(fmt.Sprintf("Failed to initialize logger: %v", err))
	}
	defer log.Sync()

	if err := run(cfg, log); err != nil {
		log.Fatal("Worker exited with error", zap.Error(err))
	}
	log.Info("Worker shutdown complete")
}

// run поднимает зависимости воркера статистики и блокирует до SIGINT/SIGTERM
func run(cfg *config.Config, log *zap.Logger) error {
	log.Info("Starting farm stats worker",
		zap.String("consumer_group", cfg.Worker.ConsumerGroup),
		zap.Int("max_retries", cfg.Worker.MaxRetries),
		zap.Duration("stream_read_timeout", cfg.Worker.StreamReadTimeout))

	db, err := postgres.New(&cfg.Database, log)
	if err != nil {
		return fmt.Errorf("postgres: %w", err)
	}
	defer closeLogged(log, "PostgreSQL", db.Close)

	// кеш статистики и отдельный клиент под блокирующий XREADGROUP
	redisClient, err := cache.NewRedis(&cfg.Redis, log)
	if err != nil {
		return fmt.Errorf("redis cache: %w", err)
	}
	defer closeLogged(log, "Redis", redisClient.Close)

	streamsClient, err := cache.NewRedisStreams(&cfg.Redis, log)
	if err != nil {
		return fmt.Errorf("redis streams: %w", err)
	}
	defer closeLogged(log, "Redis Streams", streamsClient.Close)

	statsUC := usecase.NewStatsUseCase(
		postgres.NewStatsRepository(db, log),
		cache.NewCacheRepository(redisClient),
		log,
		cfg.Cache.StatsCacheTTL,
	)
	streamRepo := redisRepo.NewStreamRepository(streamsClient, log,
		redisRepo.WithBlockTimeout(cfg.Worker.StreamReadTimeout))

	manager := worker.NewWorkerManager(log)
	manager.Register(farmstats.NewWorker(
		streamRepo,
		statsUC,
		cfg.Worker.ConsumerGroup,
		cfg.Worker.MaxRetries,
		log,
	))

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := manager.Start(ctx); err != nil {
		return fmt.Errorf("start workers: %w", err)
	}

	<-ctx.Done()
	log.Info("Received shutdown signal")

	return manager.Stop()
}

func closeLogged(log *zap.Logger, name string, closeFn func() error) {
	if err := closeFn(); err != nil {
		log.Error("Failed to close connection", zap.String("name", name), zap.Error(err))
	}
}
