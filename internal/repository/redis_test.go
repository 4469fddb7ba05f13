package repository

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"villabook/internal/stats"
)

func setupRedis(t *testing.T) (*miniredis.Miniredis, *redis.Client) {
	s, err := miniredis.Run()
	require.NoError(t, err)
	t.Cleanup(s.Close)

	client := redis.NewClient(&redis.Options{Addr: s.Addr()})
	t.Cleanup(func() { _ = client.Close() })
	return s, client
}

func TestRedisSessionRepository(t *testing.T) {
	s, client := setupRedis(t)
	repo := NewRedisSessionRepository(client)
	ctx := context.Background()

	t.Run("CreateAndCheck", func(t *testing.T) {
		require.NoError(t, repo.CreateSession(ctx, "tok-1", time.Hour))

		ok, err := repo.SessionExists(ctx, "tok-1")
		require.NoError(t, err)
		assert.True(t, ok)

		ok, err = repo.SessionExists(ctx, "tok-unknown")
		require.NoError(t, err)
		assert.False(t, ok)
	})

	t.Run("Expiry", func(t *testing.T) {
		require.NoError(t, repo.CreateSession(ctx, "tok-ttl", time.Minute))
		s.FastForward(2 * time.Minute)

		ok, err := repo.SessionExists(ctx, "tok-ttl")
		require.NoError(t, err)
		assert.False(t, ok)
	})

	t.Run("Delete", func(t *testing.T) {
		require.NoError(t, repo.CreateSession(ctx, "tok-del", time.Hour))
		require.NoError(t, repo.DeleteSession(ctx, "tok-del"))

		ok, err := repo.SessionExists(ctx, "tok-del")
		require.NoError(t, err)
		assert.False(t, ok)
	})

	t.Run("RateLimit", func(t *testing.T) {
		for i := 0; i < 3; i++ {
			ok, err := repo.CheckRateLimit(ctx, "1.2.3.4", 3, time.Minute)
			require.NoError(t, err)
			assert.True(t, ok, "attempt %d should pass", i+1)
		}
		ok, err := repo.CheckRateLimit(ctx, "1.2.3.4", 3, time.Minute)
		require.NoError(t, err)
		assert.False(t, ok)

		// Window rollover resets the counter.
		s.FastForward(2 * time.Minute)
		ok, err = repo.CheckRateLimit(ctx, "1.2.3.4", 3, time.Minute)
		require.NoError(t, err)
		assert.True(t, ok)
	})
}

func TestRedisStatsCache(t *testing.T) {
	s, client := setupRedis(t)
	cache := NewRedisStatsCache(client)
	ctx := context.Background()

	monthly := stats.Monthly{
		Month:         "2024-03",
		TotalIncome:   100,
		TotalExpenses: 40,
		NetProfit:     60,
		TotalBookings: 2,
		OccupancyRate: 4.8,
	}

	t.Run("MissThenHit", func(t *testing.T) {
		got, err := cache.GetMonthly(ctx, "2024-03")
		require.NoError(t, err)
		assert.Nil(t, got)

		require.NoError(t, cache.SetMonthly(ctx, monthly, time.Minute))

		got, err = cache.GetMonthly(ctx, "2024-03")
		require.NoError(t, err)
		require.NotNil(t, got)
		assert.Equal(t, monthly, *got)
	})

	t.Run("TTL", func(t *testing.T) {
		s.FastForward(2 * time.Minute)
		got, err := cache.GetMonthly(ctx, "2024-03")
		require.NoError(t, err)
		assert.Nil(t, got)
	})

	t.Run("Invalidate", func(t *testing.T) {
		require.NoError(t, cache.SetMonthly(ctx, monthly, time.Hour))
		other := monthly
		other.Month = "2024-04"
		require.NoError(t, cache.SetMonthly(ctx, other, time.Hour))

		require.NoError(t, cache.Invalidate(ctx))

		for _, key := range []string{"2024-03", "2024-04"} {
			got, err := cache.GetMonthly(ctx, key)
			require.NoError(t, err)
			assert.Nil(t, got)
		}
	})
}
