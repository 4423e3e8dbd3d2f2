package middleware

import (
	"context"
	"net/http"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog/log"

	shared "pokedex-backend/shared/middleware"
	"pokedex-backend/shared/utils/cache"
)

// RateLimitConfig - Rate limiter configurations
type RateLimitConfig struct {
	MaxRequests   int
	TimeWindow    time.Duration
	BlockDuration time.Duration
}

// LimitStore decides whether one more request under key is allowed
type LimitStore interface {
	Allow(ctx context.Context, key string, config RateLimitConfig) (bool, error)
}

// RateLimit - For IP limit info
type RateLimit struct {
	Count      int
	ResetAt    time.Time
	LastAccess time.Time
	Blocked    bool
	BlockUntil time.Time
}

// MemoryStore keeps counters in process. Used when Redis is not configured.
type MemoryStore struct {
	store       map[string]*RateLimit
	mutex       sync.Mutex
	cleanupTime time.Duration
	now         func() time.Time
}

// NewMemoryStore creates the store and starts its cleanup loop
func NewMemoryStore(cleanupTime time.Duration) *MemoryStore {
	s := &MemoryStore{
		store:       make(map[string]*RateLimit),
		cleanupTime: cleanupTime,
		now:         time.Now,
	}

	go s.cleanup()

	return s
}

// cleanup - Remove old records
func (s *MemoryStore) cleanup() {
	ticker := time.NewTicker(s.cleanupTime)
	defer ticker.Stop()

	for range ticker.C {
		s.mutex.Lock()
		now := s.now()
		for key, limit := range s.store {
			if now.Sub(limit.LastAccess) > 24*time.Hour && now.After(limit.BlockUntil) {
				delete(s.store, key)
			}
		}
		s.mutex.Unlock()
	}
}

// Allow - Checks if the request is allowed based on rate limiting
func (s *MemoryStore) Allow(_ context.Context, key string, config RateLimitConfig) (bool, error) {
	s.mutex.Lock()
	defer s.mutex.Unlock()

	now := s.now()
	limit, exists := s.store[key]

	if !exists {
		s.store[key] = &RateLimit{
			Count:      1,
			ResetAt:    now.Add(config.TimeWindow),
			LastAccess: now,
		}
		return true, nil
	}

	if limit.Blocked {
		if now.After(limit.BlockUntil) {
			limit.Blocked = false
			limit.Count = 1
			limit.ResetAt = now.Add(config.TimeWindow)
			limit.LastAccess = now
			return true, nil
		}
		return false, nil
	}

	if now.After(limit.ResetAt) {
		limit.Count = 1
		limit.ResetAt = now.Add(config.TimeWindow)
		limit.LastAccess = now
		return true, nil
	}

	if limit.Count >= config.MaxRequests {
		limit.Blocked = true
		limit.BlockUntil = now.Add(config.BlockDuration)
		limit.LastAccess = now
		return false, nil
	}

	limit.Count++
	limit.LastAccess = now
	return true, nil
}

// RedisStore shares counters between replicas through Redis
type RedisStore struct {
	cache *cache.CacheManager
}

func NewRedisStore(cm *cache.CacheManager) *RedisStore {
	return &RedisStore{cache: cm}
}

func (s *RedisStore) Allow(ctx context.Context, key string, config RateLimitConfig) (bool, error) {
	blocked, err := s.cache.IsBlocked(ctx, key)
	if err != nil {
		return false, err
	}
	if blocked {
		return false, nil
	}

	count, err := s.cache.Hit(ctx, key, config.TimeWindow)
	if err != nil {
		return false, err
	}
	if count > int64(config.MaxRequests) {
		if err := s.cache.Block(ctx, key, config.BlockDuration); err != nil {
			return false, err
		}
		return false, nil
	}
	return true, nil
}

// RateLimiter - Rate limiting manager
type RateLimiter struct {
	store LimitStore
}

func NewRateLimiter(store LimitStore) *RateLimiter {
	return &RateLimiter{store: store}
}

// isAllowed fails open when the store is unreachable
func (rl *RateLimiter) isAllowed(c *gin.Context, key string, config RateLimitConfig) bool {
	allowed, err := rl.store.Allow(c.Request.Context(), key, config)
	if err != nil {
		log.Error().Err(err).Str("key", key).Msg("rate limit store unavailable")
		return true
	}
	return allowed
}

func (rl *RateLimiter) limit(prefix, details string, config RateLimitConfig) gin.HandlerFunc {
	return func(c *gin.Context) {
		key := prefix + c.ClientIP()

		if !rl.isAllowed(c, key, config) {
			shared.RespondFailure(c, http.StatusTooManyRequests, "RATE_LIMITED", details)
			return
		}

		c.Next()
	}
}

// RateLimitMiddleware - General rate limiting middleware
func (rl *RateLimiter) RateLimitMiddleware(config RateLimitConfig) gin.HandlerFunc {
	return rl.limit("", "Rate limit exceeded. Please try again later.", config)
}

// LoginRateLimitMiddleware - Login endpoint rate limiting middleware
func (rl *RateLimiter) LoginRateLimitMiddleware(config RateLimitConfig) gin.HandlerFunc {
	return rl.limit("login:", "Too many login attempts. Please try again later.", config)
}

// RegistrationRateLimitMiddleware - Registration endpoint rate limiting middleware
func (rl *RateLimiter) RegistrationRateLimitMiddleware(config RateLimitConfig) gin.HandlerFunc {
	return rl.limit("register:", "Too many registration attempts. Please try again later.", config)
}
