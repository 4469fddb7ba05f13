package repository

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"villabook/internal/config"
	"villabook/internal/stats"
)

const (
	sessionKeyPrefix = "session:"
	statsKeyPrefix   = "stats:month:"
	rateLimitPrefix  = "rate_limit:"
	statsKeySet      = "stats:keys"
)

var errNilClient = errors.New("redis client is nil")

// NewRedisClient создает новый клиент Redis на основе конфигурации
func NewRedisClient(cfg config.RedisConfig) *redis.Client {
	return redis.NewClient(&redis.Options{
		Addr:     cfg.Address,
		Password: cfg.Password,
		DB:       cfg.DB,
		PoolSize: cfg.PoolSize,
	})
}

// RedisSessionRepository keeps PIN sessions and attempt counters in redis so
// they survive process restarts.
type RedisSessionRepository struct {
	client *redis.Client
}

func NewRedisSessionRepository(client *redis.Client) *RedisSessionRepository {
	return &RedisSessionRepository{client: client}
}

func (r *RedisSessionRepository) CreateSession(ctx context.Context, token string, ttl time.Duration) error {
	if r.client == nil {
		return errNilClient
	}
	if err := r.client.Set(ctx, sessionKeyPrefix+token, "1", ttl).Err(); err != nil {
		return fmt.Errorf("failed to store session in redis: %w", err)
	}
	return nil
}

func (r *RedisSessionRepository) SessionExists(ctx context.Context, token string) (bool, error) {
	if r.client == nil {
		return false, errNilClient
	}
	n, err := r.client.Exists(ctx, sessionKeyPrefix+token).Result()
	if err != nil {
		return false, fmt.Errorf("failed to check session in redis: %w", err)
	}
	return n > 0, nil
}

func (r *RedisSessionRepository) DeleteSession(ctx context.Context, token string) error {
	if r.client == nil {
		return errNilClient
	}
	if err := r.client.Del(ctx, sessionKeyPrefix+token).Err(); err != nil {
		return fmt.Errorf("failed to delete session from redis: %w", err)
	}
	return nil
}

func (r *RedisSessionRepository) CheckRateLimit(ctx context.Context, key string, limit int, window time.Duration) (bool, error) {
	if r.client == nil {
		return false, errNilClient
	}
	redisKey := rateLimitPrefix + key
	count, err := r.client.Incr(ctx, redisKey).Result()
	if err != nil {
		return false, fmt.Errorf("failed to increment rate limit: %w", err)
	}
	if count == 1 {
		r.client.Expire(ctx, redisKey, window)
	}
	return count <= int64(limit), nil
}

// RedisStatsCache caches monthly aggregates as JSON under their YYYY-MM key.
type RedisStatsCache struct {
	client *redis.Client
}

func NewRedisStatsCache(client *redis.Client) *RedisStatsCache {
	return &RedisStatsCache{client: client}
}

func (r *RedisStatsCache) GetMonthly(ctx context.Context, monthKey string) (*stats.Monthly, error) {
	if r.client == nil {
		return nil, errNilClient
	}
	val, err := r.client.Get(ctx, statsKeyPrefix+monthKey).Result()
	if err == redis.Nil {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get stats from redis: %w", err)
	}

	var m stats.Monthly
	if err := json.Unmarshal([]byte(val), &m); err != nil {
		return nil, fmt.Errorf("failed to unmarshal stats: %w", err)
	}
	return &m, nil
}

func (r *RedisStatsCache) SetMonthly(ctx context.Context, monthly stats.Monthly, ttl time.Duration) error {
	if r.client == nil {
		return errNilClient
	}
	data, err := json.Marshal(monthly)
	if err != nil {
		return fmt.Errorf("failed to marshal stats: %w", err)
	}
	key := statsKeyPrefix + monthly.Month
	if err := r.client.Set(ctx, key, data, ttl).Err(); err != nil {
		return fmt.Errorf("failed to set stats in redis: %w", err)
	}
	// Track live keys so Invalidate does not need SCAN.
	if err := r.client.SAdd(ctx, statsKeySet, key).Err(); err != nil {
		return fmt.Errorf("failed to track stats key: %w", err)
	}
	return nil
}

func (r *RedisStatsCache) Invalidate(ctx context.Context) error {
	if r.client == nil {
		return errNilClient
	}
	keys, err := r.client.SMembers(ctx, statsKeySet).Result()
	if err != nil {
		return fmt.Errorf("failed to list stats keys: %w", err)
	}
	if len(keys) > 0 {
		if err := r.client.Del(ctx, keys...).Err(); err != nil {
			return fmt.Errorf("failed to invalidate stats keys: %w", err)
		}
	}
	if err := r.client.Del(ctx, statsKeySet).Err(); err != nil {
		return fmt.Errorf("failed to clear stats key set: %w", err)
	}
	return nil
}

// Ping проверяет соединение с Redis
func Ping(ctx context.Context, client *redis.Client) error {
	if _, err := client.Ping(ctx).Result(); err != nil {
		return fmt.Errorf("failed to ping Redis: %w", err)
	}
	return nil
}
