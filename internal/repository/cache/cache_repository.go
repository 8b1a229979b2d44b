package cache

import (
	"context"
	"encoding/json"
	"fmt"
	"strconv"
	"time"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/talhao-editor/internal/domain"
	"github.com/talhao-editor/internal/domain/repository"
)

const (
	farmKeyPrefix = "farm:"
	ownerStatsKey = "stats:owners"
)

type cacheRepository struct {
	client *redis.Client
	logger *zap.Logger
}

func NewCacheRepository(redis *Redis) repository.CacheRepository {
	return &cacheRepository{
		client: redis.Client(),
		logger: redis.logger,
	}
}

func (r *cacheRepository) Get(ctx context.Context, key string) ([]byte, error) {
	val, err := r.client.Get(ctx, key).Bytes()
	if err == redis.Nil {
		return nil, nil // промах
	}
	if err != nil {
		r.logger.Error("Failed to get from cache", zap.String("key", key), zap.Error(err))
		return nil, fmt.Errorf("cache get error: %w", err)
	}

	r.logger.Debug("Cache hit", zap.String("key", key))
	return val, nil
}

func (r *cacheRepository) Set(ctx context.Context, key string, value []byte, ttl time.Duration) error {
	err := r.client.Set(ctx, key, value, ttl).Err()
	if err != nil {
		r.logger.Error("Failed to set cache", zap.String("key", key), zap.Error(err))
		return fmt.Errorf("cache set error: %w", err)
	}

	r.logger.Debug("Cache set", zap.String("key", key), zap.Duration("ttl", ttl))
	return nil
}

func (r *cacheRepository) Delete(ctx context.Context, key string) error {
	err := r.client.Del(ctx, key).Err()
	if err != nil {
		r.logger.Error("Failed to delete from cache", zap.String("key", key), zap.Error(err))
		return fmt.Errorf("cache delete error: %w", err)
	}

	r.logger.Debug("Cache deleted", zap.String("key", key))
	return nil
}

// cachedFarm - ферма в кеше: реквизиты плюс талханы как FeatureCollection
type cachedFarm struct {
	domain.Farm
	Parcels json.RawMessage `json:"parcels"`
}

func farmKey(id int64) string {
	return farmKeyPrefix + strconv.FormatInt(id, 10)
}

// GetFarm получает ферму из кеша
func (r *cacheRepository) GetFarm(ctx context.Context, id int64) (*domain.Farm, error) {
	data, err := r.Get(ctx, farmKey(id))
	if err != nil || data == nil {
		return nil, err
	}

	var cached cachedFarm
	if err := json.Unmarshal(data, &cached); err != nil {
		r.logger.Error("Failed to unmarshal farm from cache", zap.Int64("id", id), zap.Error(err))
		return nil, fmt.Errorf("unmarshal farm: %w", err)
	}

	farm := cached.Farm
	if len(cached.Parcels) > 0 {
		features, err := domain.DecodeFeatures(cached.Parcels)
		if err != nil {
			return nil, fmt.Errorf("decode cached parcels: %w", err)
		}
		farm.Features = features
	}
	return &farm, nil
}

// SetFarm сохраняет ферму вместе с талханами
func (r *cacheRepository) SetFarm(ctx context.Context, farm *domain.Farm, ttl time.Duration) error {
	parcels, err := domain.EncodeFeatures(farm.Features)
	if err != nil {
		return fmt.Errorf("encode parcels: %w", err)
	}

	data, err := json.Marshal(cachedFarm{Farm: *farm, Parcels: parcels})
	if err != nil {
		r.logger.Error("Failed to marshal farm", zap.Int64("id", farm.ID), zap.Error(err))
		return fmt.Errorf("marshal farm: %w", err)
	}

	return r.Set(ctx, farmKey(farm.ID), data, ttl)
}

// DeleteFarm инвалидирует ферму
func (r *cacheRepository) DeleteFarm(ctx context.Context, id int64) error {
	return r.Delete(ctx, farmKey(id))
}

// GetOwnerStats получает статистику из кеша
func (r *cacheRepository) GetOwnerStats(ctx context.Context) (*domain.OwnerStats, error) {
	data, err := r.Get(ctx, ownerStatsKey)
	if err != nil || data == nil {
		return nil, err
	}

	var stats domain.OwnerStats
	if err := json.Unmarshal(data, &stats); err != nil {
		r.logger.Error("Failed to unmarshal owner stats from cache", zap.Error(err))
		return nil, fmt.Errorf("unmarshal owner stats: %w", err)
	}
	return &stats, nil
}

// SetOwnerStats сохраняет статистику в кеше
func (r *cacheRepository) SetOwnerStats(ctx context.Context, stats *domain.OwnerStats, ttl time.Duration) error {
	data, err := json.Marshal(stats)
	if err != nil {
		r.logger.Error("Failed to marshal owner stats", zap.Error(err))
		return fmt.Errorf("marshal owner stats: %w", err)
	}

	return r.Set(ctx, ownerStatsKey, data, ttl)
}
