package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"go.uber.org/zap"

	"github.com/talhao-editor/internal/config"
	httpDelivery "github.com/talhao-editor/internal/delivery/http"
	"github.com/talhao-editor/internal/delivery/http/handler"
	"github.com/talhao-editor/internal/domain/repository"
	"github.com/talhao-editor/internal/geometry/reproject"
	"github.com/talhao-editor/internal/pkg/logger"
	"github.com/talhao-editor/internal/pkg/metrics"
	"github.com/talhao-editor/internal/repository/cache"
	"github.com/talhao-editor/internal/repository/postgres"
	redisRepo "github.com/talhao-editor/internal/repository/redis"
	"github.com/talhao-editor/internal/repository/s3archive"
	"github.com/talhao-editor/internal/usecase"
)

// janitorInterval - как часто закрываются просроченные сессии
const janitorInterval = time.Minute

func main() {
	// 1. Load configuration
	cfg, err := config.Load()
	if err != nil {
		panic(fmt.Sprintf("Failed to load config: %v", err))
	}

	// 2. Initialize logger
	log, err := logger.New(cfg.Log.Level, "talhao-api")
	if err != nil {
		panic(fmt.Sprintf("Failed to initialize logger: %v", err))
	}
	defer log.Sync()

	projection := reproject.Projection{Zone: cfg.Projection.UTMZone, South: cfg.Projection.South}
	log.Info("Starting Talhao Editor API")
	log.Info("Configuration loaded",
		zap.String("env", cfg.Server.Env),
		zap.String("server_addr", cfg.GetServerAddr()),
		zap.Int("projection_epsg", projection.EPSG()),
		zap.Bool("archive_enabled", cfg.Archive.Enabled),
	)

	// 3. Connect to PostgreSQL
	db, err := postgres.New(&cfg.Database, log)
	if err != nil {
		log.Fatal("Failed to connect to PostgreSQL", zap.Error(err))
	}
	defer func() {
		if err := db.Close(); err != nil {
			log.Error("Failed to close PostgreSQL connection", zap.Error(err))
		}
	}()

	// 4. Connect to Redis
	redisClient, err := cache.NewRedis(&cfg.Redis, log)
	if err != nil {
		log.Fatal("Failed to connect to Redis", zap.Error(err))
	}
	defer func() {
		if err := redisClient.Close(); err != nil {
			log.Error("Failed to close Redis connection", zap.Error(err))
		}
	}()

	// 5. Health checks and migrations
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := db.Health(ctx); err != nil {
		log.Fatal("PostgreSQL health check failed", zap.Error(err))
	}
	if err := redisClient.Health(ctx); err != nil {
		log.Fatal("Redis health check failed", zap.Error(err))
	}
	if err := db.Migrate(ctx); err != nil {
		log.Fatal("Failed to apply migrations", zap.Error(err))
	}

	log.Info("All connections healthy")

	// 6. Initialize Repositories
	farmRepo := postgres.NewFarmRepository(db)
	statsRepo := postgres.NewStatsRepository(db, log)
	cacheRepo := cache.NewCacheRepository(redisClient)
	streamRepo := redisRepo.NewStreamRepository(redisClient.Client(), log)

	var archiveRepo repository.ArchiveRepository
	if cfg.Archive.Enabled {
		store, err := s3archive.New(ctx, &cfg.Archive, log)
		if err != nil {
			log.Fatal("Failed to initialize import archive", zap.Error(err))
		}
		archiveRepo = store
	}

	log.Info("Repositories initialized")

	// 7. Initialize Use Cases
	m := metrics.New(prometheus.DefaultRegisterer)

	farmUC := usecase.NewFarmUseCase(farmRepo, cacheRepo, log, cfg.Cache.FarmCacheTTL)
	statsUC := usecase.NewStatsUseCase(statsRepo, cacheRepo, log, cfg.Cache.StatsCacheTTL)
	editorUC := usecase.NewEditorUseCase(
		farmRepo,
		farmUC,
		streamRepo,
		archiveRepo,
		m,
		usecase.EditorConfig{
			SessionTTL:  cfg.Editor.SessionTTL,
			MaxFeatures: cfg.Editor.MaxFeatures,
			Projection:  projection,
		},
		log,
	)

	log.Info("Use cases initialized")

	// 8. Initialize HTTP Handlers
	sessionHandler := handler.NewSessionHandler(editorUC, log)
	farmHandler := handler.NewFarmHandler(farmUC, log)
	statsHandler := handler.NewStatsHandler(statsUC, log)

	// 9. Initialize HTTP Server
	server := httpDelivery.NewServer(
		cfg,
		log,
		sessionHandler,
		farmHandler,
		statsHandler,
		prometheus.DefaultGatherer,
	)

	// 10. Start session janitor and server
	janitorCtx, stopJanitor := context.WithCancel(context.Background())
	defer stopJanitor()
	go editorUC.RunJanitor(janitorCtx, janitorInterval)

	go func() {
		if err := server.Start(); err != nil {
			log.Fatal("Failed to start server", zap.Error(err))
		}
	}()

	log.Info("Server started successfully",
		zap.String("address", cfg.GetServerAddr()),
		zap.String("env", cfg.Server.Env),
	)

	// 11. Graceful shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, os.Interrupt, syscall.SIGTERM)
	<-quit

	log.Info("Shutting down server gracefully...")
	stopJanitor()

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer shutdownCancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		log.Error("Server shutdown error", zap.Error(err))
	}

	log.Info("Server stopped successfully")
}
