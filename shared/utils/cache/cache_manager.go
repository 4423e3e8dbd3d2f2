package cache

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog/log"

	"pokedex-backend/shared/config"
)

const (
	counterPrefix = "ratelimit:count:"
	blockPrefix   = "ratelimit:block:"
)

// CacheManager keeps rate limit counters in Redis so every auth-service
// replica shares them.
type CacheManager struct {
	client *redis.Client
}

// NewCacheManager connects to the configured Redis instance
func NewCacheManager(ctx context.Context, cfg *config.Config) (*CacheManager, error) {
	client := redis.NewClient(&redis.Options{
		Addr:     fmt.Sprintf("%s:%s", cfg.RedisHost, cfg.RedisPort),
		Password: cfg.RedisPassword,
		DB:       cfg.RedisDB,
	})

	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("failed to connect to Redis: %w", err)
	}

	log.Info().Str("host", cfg.RedisHost).Str("port", cfg.RedisPort).Int("db", cfg.RedisDB).
		Msg("redis cache manager initialized")

	return NewCacheManagerWithClient(client), nil
}

func NewCacheManagerWithClient(client *redis.Client) *CacheManager {
	return &CacheManager{client: client}
}

// CounterKey generates the key of a rate limit window counter
func CounterKey(key string) string {
	return counterPrefix + key
}

// BlockKey generates the key of a rate limit block marker
func BlockKey(key string) string {
	return blockPrefix + key
}

// IsBlocked reports whether key is inside a block period
func (cm *CacheManager) IsBlocked(ctx context.Context, key string) (bool, error) {
	n, err := cm.client.Exists(ctx, BlockKey(key)).Result()
	if err != nil {
		return false, fmt.Errorf("failed to check block: %w", err)
	}
	return n > 0, nil
}

// Hit increments the counter of key, starting a new window of the given
// length on the first hit, and returns the updated count.
func (cm *CacheManager) Hit(ctx context.Context, key string, window time.Duration) (int64, error) {
	counter := CounterKey(key)
	count, err := cm.client.Incr(ctx, counter).Result()
	if err != nil {
		return 0, fmt.Errorf("failed to increment counter: %w", err)
	}
	if count == 1 {
		if err := cm.client.Expire(ctx, counter, window).Err(); err != nil {
			return 0, fmt.Errorf("failed to set counter window: %w", err)
		}
	}
	return count, nil
}

// Block marks key as blocked for d and resets its counter
func (cm *CacheManager) Block(ctx context.Context, key string, d time.Duration) error {
	pipe := cm.client.TxPipeline()
	pipe.Set(ctx, BlockKey(key), 1, d)
	pipe.Del(ctx, CounterKey(key))
	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("failed to block %s: %w", key, err)
	}
	log.Warn().Str("key", key).Dur("duration", d).Msg("rate limit block set")
	return nil
}

// InvalidateAll removes every rate limit counter and block
func (cm *CacheManager) InvalidateAll(ctx context.Context) error {
	for _, pattern := range []string{counterPrefix + "*", blockPrefix + "*"} {
		if err := cm.invalidateByPattern(ctx, pattern); err != nil {
			return err
		}
	}
	return nil
}

// invalidateByPattern invalidates cache entries matching a pattern
func (cm *CacheManager) invalidateByPattern(ctx context.Context, pattern string) error {
	iter := cm.client.Scan(ctx, 0, pattern, 0).Iterator()
	var keys []string

	for iter.Next(ctx) {
		keys = append(keys, iter.Val())
	}

	if err := iter.Err(); err != nil {
		return fmt.Errorf("failed to scan keys: %w", err)
	}

	if len(keys) > 0 {
		if err := cm.client.Del(ctx, keys...).Err(); err != nil {
			return fmt.Errorf("failed to delete keys: %w", err)
		}
		log.Info().Int("keys", len(keys)).Str("pattern", pattern).Msg("cache invalidated")
	}

	return nil
}

// Close closes the cache manager connection
func (cm *CacheManager) Close() error {
	if cm != nil && cm.client != nil {
		return cm.client.Close()
	}
	return nil
}
