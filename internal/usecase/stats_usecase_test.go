package usecase_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/talhao-editor/internal/domain"
	"github.com/talhao-editor/internal/usecase"
)

func owners() []domain.OwnerArea {
	return []domain.OwnerArea{
		{Owner: "Maria", AreaHa: 900, Farms: 3},
		{Owner: "João", AreaHa: 500, Farms: 2},
		{Owner: "Ana", AreaHa: 300, Farms: 1},
		{Owner: "Pedro", AreaHa: 200, Farms: 1},
		{Owner: "Rita", AreaHa: 100, Farms: 1},
		{Owner: "Caio", AreaHa: 60, Farms: 2},
		{Owner: "N/D", AreaHa: 40, Farms: 1},
	}
}

func TestBuildOwnerStats(t *testing.T) {
	t.Run("top owners and others aggregate", func(t *testing.T) {
		stats := usecase.BuildOwnerStats(owners(), usecase.TopOwners)

		require.Len(t, stats.Top, 5)
		assert.Equal(t, "Maria", stats.Top[0].Owner)
		assert.Equal(t, "Rita", stats.Top[4].Owner)

		assert.Equal(t, usecase.OthersLabel, stats.Others.Owner)
		assert.Equal(t, 100.0, stats.Others.AreaHa)
		assert.Equal(t, 3, stats.Others.Farms)
		assert.Equal(t, 2, stats.OthersCount)

		assert.Equal(t, 2100.0, stats.TotalHa)
		assert.Equal(t, 11, stats.FarmCount)
	})

	t.Run("fewer owners than top", func(t *testing.T) {
		stats := usecase.BuildOwnerStats(owners()[:2], usecase.TopOwners)

		assert.Len(t, stats.Top, 2)
		assert.Zero(t, stats.OthersCount)
		assert.Zero(t, stats.Others.AreaHa)
	})

	t.Run("no farms", func(t *testing.T) {
		stats := usecase.BuildOwnerStats(nil, usecase.TopOwners)

		assert.NotNil(t, stats.Top)
		assert.Empty(t, stats.Top)
		assert.Zero(t, stats.TotalHa)
	})
}

func TestStatsUseCase_GetOwnerStats(t *testing.T) {
	logger := zap.NewNop()
	ctx := context.Background()

	t.Run("cache hit", func(t *testing.T) {
		statsRepo := &MockStatsRepository{}
		cacheRepo := &MockCacheRepository{}
		uc := usecase.NewStatsUseCase(statsRepo, cacheRepo, logger, time.Hour)

		cached := &domain.OwnerStats{TotalHa: 10}
		cacheRepo.On("GetOwnerStats", ctx).Return(cached, nil)

		stats, err := uc.GetOwnerStats(ctx)
		require.NoError(t, err)
		assert.Same(t, cached, stats)

		statsRepo.AssertNotCalled(t, "AreaByOwner", mock.Anything)
	})

	t.Run("cache miss recomputes and stores", func(t *testing.T) {
		statsRepo := &MockStatsRepository{}
		cacheRepo := &MockCacheRepository{}
		uc := usecase.NewStatsUseCase(statsRepo, cacheRepo, logger, time.Hour)

		cacheRepo.On("GetOwnerStats", ctx).Return(nil, nil)
		statsRepo.On("AreaByOwner", ctx).Return(owners(), nil)
		cacheRepo.On("SetOwnerStats", ctx, mock.AnythingOfType("*domain.OwnerStats"), time.Hour).Return(nil)

		stats, err := uc.GetOwnerStats(ctx)
		require.NoError(t, err)
		assert.Len(t, stats.Top, 5)
		assert.False(t, stats.UpdatedAt.IsZero())

		statsRepo.AssertExpectations(t)
		cacheRepo.AssertExpectations(t)
	})

	t.Run("cache failure is not fatal", func(t *testing.T) {
		statsRepo := &MockStatsRepository{}
		cacheRepo := &MockCacheRepository{}
		uc := usecase.NewStatsUseCase(statsRepo, cacheRepo, logger, time.Hour)

		cacheRepo.On("GetOwnerStats", ctx).Return(nil, errors.New("redis down"))
		statsRepo.On("AreaByOwner", ctx).Return(owners()[:1], nil)
		cacheRepo.On("SetOwnerStats", ctx, mock.Anything, time.Hour).Return(errors.New("redis down"))

		stats, err := uc.GetOwnerStats(ctx)
		require.NoError(t, err)
		assert.Equal(t, 900.0, stats.TotalHa)
	})

	t.Run("database error", func(t *testing.T) {
		statsRepo := &MockStatsRepository{}
		cacheRepo := &MockCacheRepository{}
		uc := usecase.NewStatsUseCase(statsRepo, cacheRepo, logger, time.Hour)

		cacheRepo.On("GetOwnerStats", ctx).Return(nil, nil)
		statsRepo.On("AreaByOwner", ctx).Return(nil, errors.New("connection refused"))

		stats, err := uc.GetOwnerStats(ctx)
		assert.Error(t, err)
		assert.Nil(t, stats)
		cacheRepo.AssertNotCalled(t, "SetOwnerStats", mock.Anything, mock.Anything, mock.Anything)
	})
}
