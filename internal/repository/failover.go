package repository

import (
	"context"
	"sync/atomic"
	"time"

	"github.com/rs/zerolog"

	"villabook/internal/domain"
	"villabook/internal/stats"
)

const recoveryProbeInterval = time.Minute

// FailoverSessionRepository prefers the primary (redis) repository and drops
// to the in-memory fallback when the primary errors, probing the primary
// again after a cool-down.
type FailoverSessionRepository struct {
	primary   domain.SessionRepository
	fallback  domain.SessionRepository
	logger    *zerolog.Logger
	isDown    atomic.Bool
	lastCheck atomic.Int64 // unix nanos of the last failed probe
}

func NewFailoverSessionRepository(primary, fallback domain.SessionRepository, logger *zerolog.Logger) *FailoverSessionRepository {
	return &FailoverSessionRepository{
		primary:  primary,
		fallback: fallback,
		logger:   logger,
	}
}

func (r *FailoverSessionRepository) markDown(err error) {
	r.logger.Error().Err(err).Msg("Primary session repository failed, falling back to memory")
	r.isDown.Store(true)
	r.lastCheck.Store(time.Now().UnixNano())
}

func (r *FailoverSessionRepository) shouldProbe() bool {
	return time.Since(time.Unix(0, r.lastCheck.Load())) > recoveryProbeInterval
}

func (r *FailoverSessionRepository) CreateSession(ctx context.Context, token string, ttl time.Duration) error {
	if !r.isDown.Load() || r.shouldProbe() {
		err := r.primary.CreateSession(ctx, token, ttl)
		if err == nil {
			r.isDown.Store(false)
			// Mirror into the fallback so validation still works if the
			// primary drops later.
			_ = r.fallback.CreateSession(ctx, token, ttl)
			return nil
		}
		r.markDown(err)
	}
	return r.fallback.CreateSession(ctx, token, ttl)
}

func (r *FailoverSessionRepository) SessionExists(ctx context.Context, token string) (bool, error) {
	if !r.isDown.Load() || r.shouldProbe() {
		ok, err := r.primary.SessionExists(ctx, token)
		if err == nil {
			r.isDown.Store(false)
			if ok {
				return true, nil
			}
			// Primary may have restarted empty; honor the fallback copy.
			return r.fallback.SessionExists(ctx, token)
		}
		r.markDown(err)
	}
	return r.fallback.SessionExists(ctx, token)
}

func (r *FailoverSessionRepository) DeleteSession(ctx context.Context, token string) error {
	_ = r.fallback.DeleteSession(ctx, token)
	if !r.isDown.Load() || r.shouldProbe() {
		err := r.primary.DeleteSession(ctx, token)
		if err == nil {
			r.isDown.Store(false)
			return nil
		}
		r.markDown(err)
	}
	return nil
}

func (r *FailoverSessionRepository) CheckRateLimit(ctx context.Context, key string, limit int, window time.Duration) (bool, error) {
	if !r.isDown.Load() || r.shouldProbe() {
		ok, err := r.primary.CheckRateLimit(ctx, key, limit, window)
		if err == nil {
			r.isDown.Store(false)
			return ok, nil
		}
		r.markDown(err)
	}
	return r.fallback.CheckRateLimit(ctx, key, limit, window)
}

// FailoverStatsCache applies the same pattern to the stats cache. Cache
// errors degrade to misses rather than failures.
type FailoverStatsCache struct {
	primary   domain.StatsCache
	fallback  domain.StatsCache
	logger    *zerolog.Logger
	isDown    atomic.Bool
	lastCheck atomic.Int64
}

func NewFailoverStatsCache(primary, fallback domain.StatsCache, logger *zerolog.Logger) *FailoverStatsCache {
	return &FailoverStatsCache{
		primary:  primary,
		fallback: fallback,
		logger:   logger,
	}
}

func (c *FailoverStatsCache) markDown(err error) {
	c.logger.Error().Err(err).Msg("Primary stats cache failed, falling back to memory")
	c.isDown.Store(true)
	c.lastCheck.Store(time.Now().UnixNano())
}

func (c *FailoverStatsCache) shouldProbe() bool {
	return time.Since(time.Unix(0, c.lastCheck.Load())) > recoveryProbeInterval
}

func (c *FailoverStatsCache) GetMonthly(ctx context.Context, monthKey string) (*stats.Monthly, error) {
	if !c.isDown.Load() || c.shouldProbe() {
		m, err := c.primary.GetMonthly(ctx, monthKey)
		if err == nil {
			c.isDown.Store(false)
			return m, nil
		}
		c.markDown(err)
	}
	return c.fallback.GetMonthly(ctx, monthKey)
}

func (c *FailoverStatsCache) SetMonthly(ctx context.Context, monthly stats.Monthly, ttl time.Duration) error {
	_ = c.fallback.SetMonthly(ctx, monthly, ttl)
	if !c.isDown.Load() || c.shouldProbe() {
		err := c.primary.SetMonthly(ctx, monthly, ttl)
		if err == nil {
			c.isDown.Store(false)
			return nil
		}
		c.markDown(err)
	}
	return nil
}

func (c *FailoverStatsCache) Invalidate(ctx context.Context) error {
	_ = c.fallback.Invalidate(ctx)
	if !c.isDown.Load() || c.shouldProbe() {
		err := c.primary.Invalidate(ctx)
		if err == nil {
			c.isDown.Store(false)
			return nil
		}
		c.markDown(err)
	}
	return nil
}
