package cache

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/talhao-editor/internal/config"
)

const pingTimeout = 5 * time.Second

// Redis - соединение кеша ферм и статистики
type Redis struct {
	client *redis.Client
	logger *zap.Logger
}

// NewRedis подключается к Redis для кеша
func NewRedis(cfg *config.RedisConfig, logger *zap.Logger) (*Redis, error) {
	client, err := dial(cfg, &redis.Options{}, "cache", logger)
	if err != nil {
		return nil, err
	}
	return &Redis{client: client, logger: logger}, nil
}

// NewRedisStreams - отдельный клиент для стримов. XREADGROUP блокирует
// соединение, поэтому воркер не делит пул с кешем.
func NewRedisStreams(cfg *config.RedisConfig, logger *zap.Logger) (*redis.Client, error) {
	return dial(cfg, &redis.Options{
		ReadTimeout:  -1,
		PoolSize:     4,
		MinIdleConns: 1,
	}, "streams", logger)
}

func dial(cfg *config.RedisConfig, opts *redis.Options, purpose string, logger *zap.Logger) (*redis.Client, error) {
	opts.Addr = cfg.Addr()
	opts.Password = cfg.Password
	opts.DB = cfg.DB
	client := redis.NewClient(opts)

	ctx, cancel := context.WithTimeout(context.Background(), pingTimeout)
	defer cancel()

	if err := client.Ping(ctx).Err(); err != nil {
		client.Close()
		return nil, fmt.Errorf("connect to redis (%s) at %s: %w", purpose, opts.Addr, err)
	}

	logger.Info("Redis connected",
		zap.String("purpose", purpose),
		zap.String("addr", opts.Addr),
		zap.Int("db", cfg.DB))
	return client, nil
}

func (r *Redis) Close() error {
	r.logger.Info("Closing Redis connection")
	return r.client.Close()
}

func (r *Redis) Health(ctx context.Context) error {
	return r.client.Ping(ctx).Err()
}

func (r *Redis) Client() *redis.Client {
	return r.client
}

// NewRedisForTest оборачивает готовый клиент
func NewRedisForTest(client *redis.Client, logger *zap.Logger) *Redis {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Redis{client: client, logger: logger}
}
