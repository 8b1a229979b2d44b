package repository

import (
	"context"
	"time"

	"github.com/talhao-editor/internal/domain"
)

// CacheRepository определяет методы для работы с кешем
type CacheRepository interface {
	// Get получает значение из кеша по ключу
	Get(ctx context.Context, key string) ([]byte, error)

	// Set сохраняет значение в кеше с TTL
	Set(ctx context.Context, key string, value []byte, ttl time.Duration) error

	// Delete удаляет значение из кеша
	Delete(ctx context.Context, key string) error

	// GetFarm получает ферму из кеша, nil - промах
	GetFarm(ctx context.Context, id int64) (*domain.Farm, error)

	// SetFarm сохраняет ферму вместе с талханами
	SetFarm(ctx context.Context, farm *domain.Farm, ttl time.Duration) error

	// DeleteFarm инвалидирует ферму после сохранения
	DeleteFarm(ctx context.Context, id int64) error

	// GetOwnerStats получает статистику владельцев из кеша
	GetOwnerStats(ctx context.Context) (*domain.OwnerStats, error)

	// SetOwnerStats сохраняет статистику владельцев
	SetOwnerStats(ctx context.Context, stats *domain.OwnerStats, ttl time.Duration) error
}
