package repository

import (
	"context"
	"sync"
	"time"

	"villabook/internal/stats"
)

// MemorySessionRepository is the in-process fallback for sessions when redis
// is unavailable. Sessions stored here do not survive a restart.
type MemorySessionRepository struct {
	sessions   sync.Map // token -> expiresAt time.Time
	rateLimits sync.Map
}

func NewMemorySessionRepository() *MemorySessionRepository {
	return &MemorySessionRepository{}
}

func (r *MemorySessionRepository) CreateSession(ctx context.Context, token string, ttl time.Duration) error {
	r.sessions.Store(token, time.Now().Add(ttl))
	return nil
}

func (r *MemorySessionRepository) SessionExists(ctx context.Context, token string) (bool, error) {
	val, ok := r.sessions.Load(token)
	if !ok {
		return false, nil
	}
	if time.Now().After(val.(time.Time)) {
		r.sessions.Delete(token)
		return false, nil
	}
	return true, nil
}

func (r *MemorySessionRepository) DeleteSession(ctx context.Context, token string) error {
	r.sessions.Delete(token)
	return nil
}

type rateLimitEntry struct {
	mu        sync.Mutex
	count     int
	expiresAt time.Time
}

func (r *MemorySessionRepository) CheckRateLimit(ctx context.Context, key string, limit int, window time.Duration) (bool, error) {
	now := time.Now()
	val, _ := r.rateLimits.LoadOrStore(key, &rateLimitEntry{})
	entry := val.(*rateLimitEntry)

	entry.mu.Lock()
	defer entry.mu.Unlock()

	if now.After(entry.expiresAt) {
		entry.count = 0
		entry.expiresAt = now.Add(window)
	}
	entry.count++
	return entry.count <= limit, nil
}

type cachedMonthly struct {
	monthly   stats.Monthly
	expiresAt time.Time
}

// MemoryStatsCache is the fallback monthly-aggregate cache.
type MemoryStatsCache struct {
	mu     sync.Mutex
	months map[string]cachedMonthly
}

func NewMemoryStatsCache() *MemoryStatsCache {
	return &MemoryStatsCache{months: make(map[string]cachedMonthly)}
}

func (c *MemoryStatsCache) GetMonthly(ctx context.Context, monthKey string) (*stats.Monthly, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	entry, ok := c.months[monthKey]
	if !ok {
		return nil, nil
	}
	if time.Now().After(entry.expiresAt) {
		delete(c.months, monthKey)
		return nil, nil
	}
	m := entry.monthly
	return &m, nil
}

func (c *MemoryStatsCache) SetMonthly(ctx context.Context, monthly stats.Monthly, ttl time.Duration) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.months[monthly.Month] = cachedMonthly{monthly: monthly, expiresAt: time.Now().Add(ttl)}
	return nil
}

func (c *MemoryStatsCache) Invalidate(ctx context.Context) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.months = make(map[string]cachedMonthly)
	return nil
}
