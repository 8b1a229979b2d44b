package cache_test

import (
	"context"
	"testing"
	"time"

	"github.com/paulmach/orb"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/talhao-editor/internal/domain"
	"github.com/talhao-editor/internal/repository/cache"
)

func newTestCache(t *testing.T) *cache.Redis {
	client := redis.NewClient(&redis.Options{Addr: "localhost:6379", DB: 1})

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	if err := client.Ping(ctx).Err(); err != nil {
		t.Skipf("Redis not available for integration tests: %v", err)
	}

	t.Cleanup(func() {
		client.Del(context.Background(), "farm:501", "stats:owners")
		client.Close()
	})
	return cache.NewRedisForTest(client, zap.NewNop())
}

func TestCacheRepository_FarmRoundTrip(t *testing.T) {
	repo := cache.NewCacheRepository(newTestCache(t))
	ctx := context.Background()

	miss, err := repo.GetFarm(ctx, 501)
	require.NoError(t, err)
	assert.Nil(t, miss)

	override := 3.0
	farm := &domain.Farm{
		ID:     501,
		Code:   "FZ-501",
		Name:   "Aurora",
		Owner:  "Ana",
		AreaHa: 3,
		Features: []domain.Feature{{
			Geometry:   orb.Polygon{{{-39, -18}, {-38.999, -18}, {-38.999, -17.999}, {-39, -18}}},
			Properties: domain.Properties{Label: "1", AreaOverrideHa: &override},
		}},
	}
	require.NoError(t, repo.SetFarm(ctx, farm, time.Minute))

	got, err := repo.GetFarm(ctx, 501)
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Equal(t, "Aurora", got.Name)
	require.Len(t, got.Features, 1)
	assert.Equal(t, "1", got.Features[0].Properties.Label)
	assert.Equal(t, 3.0, *got.Features[0].Properties.AreaOverrideHa)

	require.NoError(t, repo.DeleteFarm(ctx, 501))
	got, err = repo.GetFarm(ctx, 501)
	require.NoError(t, err)
	assert.Nil(t, got)
}

func TestCacheRepository_OwnerStats(t *testing.T) {
	repo := cache.NewCacheRepository(newTestCache(t))
	ctx := context.Background()

	stats := &domain.OwnerStats{
		Top:       []domain.OwnerArea{{Owner: "Ana", AreaHa: 10, Farms: 1}},
		TotalHa:   10,
		FarmCount: 1,
	}
	require.NoError(t, repo.SetOwnerStats(ctx, stats, time.Minute))

	got, err := repo.GetOwnerStats(ctx)
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Equal(t, stats.Top, got.Top)
	assert.Equal(t, 10.0, got.TotalHa)
}
