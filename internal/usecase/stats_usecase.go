package usecase

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/talhao-editor/internal/domain"
	"github.com/talhao-editor/internal/domain/repository"
)

// TopOwners - сколько владельцев показывается отдельно, остальные в "Outros"
const TopOwners = 5

// OthersLabel - имя агрегата владельцев вне топа
const OthersLabel = "Outros"

// StatsUseCase обрабатывает бизнес-логику для статистики
type StatsUseCase struct {
	statsRepo repository.StatsRepository
	cacheRepo repository.CacheRepository
	logger    *zap.Logger
	cacheTTL  time.Duration
}

// NewStatsUseCase создает новый экземпляр StatsUseCase
func NewStatsUseCase(
	statsRepo repository.StatsRepository,
	cacheRepo repository.CacheRepository,
	logger *zap.Logger,
	cacheTTL time.Duration,
) *StatsUseCase {
	return &StatsUseCase{
		statsRepo: statsRepo,
		cacheRepo: cacheRepo,
		logger:    logger,
		cacheTTL:  cacheTTL,
	}
}

// GetOwnerStats возвращает рейтинг владельцев, используя кеш когда возможно
func (uc *StatsUseCase) GetOwnerStats(ctx context.Context) (*domain.OwnerStats, error) {
	cached, err := uc.cacheRepo.GetOwnerStats(ctx)
	if err == nil && cached != nil {
		uc.logger.Debug("Owner stats fetched from cache")
		return cached, nil
	}
	if err != nil {
		uc.logger.Warn("Failed to get owner stats from cache", zap.Error(err))
	}

	return uc.RefreshOwnerStats(ctx)
}

// RefreshOwnerStats пересчитывает статистику из БД и обновляет кеш
func (uc *StatsUseCase) RefreshOwnerStats(ctx context.Context) (*domain.OwnerStats, error) {
	owners, err := uc.statsRepo.AreaByOwner(ctx)
	if err != nil {
		return nil, fmt.Errorf("get owner areas: %w", err)
	}

	stats := BuildOwnerStats(owners, TopOwners)
	stats.UpdatedAt = time.Now().UTC()

	if err := uc.cacheRepo.SetOwnerStats(ctx, stats, uc.cacheTTL); err != nil {
		uc.logger.Warn("Failed to cache owner stats", zap.Error(err))
	}

	uc.logger.Info("Owner stats refreshed",
		zap.Int("owners", len(owners)),
		zap.Float64("total_ha", stats.TotalHa))
	return stats, nil
}

// BuildOwnerStats - топ top владельцев по площади и агрегат остальных.
// owners должен быть отсортирован по убыванию площади.
func BuildOwnerStats(owners []domain.OwnerArea, top int) *domain.OwnerStats {
	stats := &domain.OwnerStats{
		Top:    []domain.OwnerArea{},
		Others: domain.OwnerArea{Owner: OthersLabel},
	}

	for i, o := range owners {
		stats.TotalHa += o.AreaHa
		stats.FarmCount += o.Farms
		if i < top {
			stats.Top = append(stats.Top, o)
			continue
		}
		stats.Others.AreaHa += o.AreaHa
		stats.Others.Farms += o.Farms
		stats.OthersCount++
	}
	return stats
}
