package middleware

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func init() {
	gin.SetMode(gin.TestMode)
}

func newTestMemoryStore(now *time.Time) *MemoryStore {
	return &MemoryStore{
		store: make(map[string]*RateLimit),
		now:   func() time.Time { return *now },
	}
}

func TestMemoryStoreBlocksAfterLimit(t *testing.T) {
	now := time.Now()
	s := newTestMemoryStore(&now)
	cfg := RateLimitConfig{MaxRequests: 2, TimeWindow: time.Minute, BlockDuration: 10 * time.Minute}
	ctx := context.Background()

	for i := 0; i < 2; i++ {
		ok, err := s.Allow(ctx, "login:1.2.3.4", cfg)
		require.NoError(t, err)
		assert.True(t, ok)
	}

	ok, _ := s.Allow(ctx, "login:1.2.3.4", cfg)
	assert.False(t, ok)

	// Other keys are counted separately.
	ok, _ = s.Allow(ctx, "register:1.2.3.4", cfg)
	assert.True(t, ok)

	now = now.Add(5 * time.Minute)
	ok, _ = s.Allow(ctx, "login:1.2.3.4", cfg)
	assert.False(t, ok, "still blocked")

	now = now.Add(6 * time.Minute)
	ok, _ = s.Allow(ctx, "login:1.2.3.4", cfg)
	assert.True(t, ok, "block expired")
}

func TestMemoryStoreWindowResets(t *testing.T) {
	now := time.Now()
	s := newTestMemoryStore(&now)
	cfg := RateLimitConfig{MaxRequests: 1, TimeWindow: time.Minute, BlockDuration: time.Hour}
	ctx := context.Background()

	ok, _ := s.Allow(ctx, "k", cfg)
	assert.True(t, ok)

	now = now.Add(2 * time.Minute)
	ok, _ = s.Allow(ctx, "k", cfg)
	assert.True(t, ok)
}

type failingStore struct{}

func (failingStore) Allow(context.Context, string, RateLimitConfig) (bool, error) {
	return false, errors.New("redis down")
}

func TestLoginRateLimitMiddleware(t *testing.T) {
	now := time.Now()
	limiter := NewRateLimiter(newTestMemoryStore(&now))
	cfg := RateLimitConfig{MaxRequests: 3, TimeWindow: time.Minute, BlockDuration: time.Minute}

	router := gin.New()
	router.POST("/login", limiter.LoginRateLimitMiddleware(cfg), func(c *gin.Context) {
		c.Status(http.StatusCreated)
	})

	codes := make([]int, 0, 4)
	for i := 0; i < 4; i++ {
		w := httptest.NewRecorder()
		router.ServeHTTP(w, httptest.NewRequest(http.MethodPost, "/login", nil))
		codes = append(codes, w.Code)
	}

	assert.Equal(t, []int{201, 201, 201, 429}, codes)
}

func TestRateLimiterFailsOpen(t *testing.T) {
	limiter := NewRateLimiter(failingStore{})
	cfg := RateLimitConfig{MaxRequests: 1, TimeWindow: time.Minute, BlockDuration: time.Minute}

	router := gin.New()
	router.POST("/register", limiter.RegistrationRateLimitMiddleware(cfg), func(c *gin.Context) {
		c.Status(http.StatusCreated)
	})

	for i := 0; i < 3; i++ {
		w := httptest.NewRecorder()
		router.ServeHTTP(w, httptest.NewRequest(http.MethodPost, "/register", nil))
		assert.Equal(t, http.StatusCreated, w.Code)
	}
}
