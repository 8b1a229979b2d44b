package usecase

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/talhao-editor/internal/domain"
	"github.com/talhao-editor/internal/domain/repository"
)

// FarmUseCase - чтение сохранённых ферм
type FarmUseCase struct {
	farmRepo  repository.FarmRepository
	cacheRepo repository.CacheRepository
	logger    *zap.Logger
	cacheTTL  time.Duration
}

// NewFarmUseCase создает новый экземпляр FarmUseCase
func NewFarmUseCase(
	farmRepo repository.FarmRepository,
	cacheRepo repository.CacheRepository,
	logger *zap.Logger,
	cacheTTL time.Duration,
) *FarmUseCase {
	return &FarmUseCase{
		farmRepo:  farmRepo,
		cacheRepo: cacheRepo,
		logger:    logger,
		cacheTTL:  cacheTTL,
	}
}

// ListFarms возвращает фермы, отфильтрованные по коду, имени и владельцу
func (uc *FarmUseCase) ListFarms(ctx context.Context, filter domain.FarmFilter) ([]domain.FarmSummary, error) {
	farms, err := uc.farmRepo.List(ctx, filter)
	if err != nil {
		return nil, fmt.Errorf("list farms: %w", err)
	}

	uc.logger.Debug("Farms listed",
		zap.Int("count", len(farms)),
		zap.Bool("filtered", !filter.IsEmpty()))
	return farms, nil
}

// GetFarm возвращает ферму с талханами, используя кеш когда возможно
func (uc *FarmUseCase) GetFarm(ctx context.Context, id int64) (*domain.Farm, error) {
	cached, err := uc.cacheRepo.GetFarm(ctx, id)
	if err == nil && cached != nil {
		uc.logger.Debug("Farm fetched from cache", zap.Int64("id", id))
		return cached, nil
	}
	if err != nil {
		uc.logger.Warn("Failed to get farm from cache", zap.Int64("id", id), zap.Error(err))
	}

	farm, err := uc.farmRepo.GetByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("get farm %d: %w", id, err)
	}

	if err := uc.cacheRepo.SetFarm(ctx, farm, uc.cacheTTL); err != nil {
		uc.logger.Warn("Failed to cache farm", zap.Int64("id", id), zap.Error(err))
	}
	return farm, nil
}

// InvalidateFarm убирает ферму из кеша после сохранения
func (uc *FarmUseCase) InvalidateFarm(ctx context.Context, id int64) {
	if err := uc.cacheRepo.DeleteFarm(ctx, id); err != nil {
		uc.logger.Warn("Failed to invalidate farm cache", zap.Int64("id", id), zap.Error(err))
	}
}
