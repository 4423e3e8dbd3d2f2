package main

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog/log"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"

	"pokedex-backend/auth-service/handlers"
	"pokedex-backend/auth-service/middleware"
	"pokedex-backend/auth-service/services"
	_ "pokedex-backend/docs"
	"pokedex-backend/shared/config"
	"pokedex-backend/shared/database"
	"pokedex-backend/shared/logging"
	shared "pokedex-backend/shared/middleware"
	"pokedex-backend/shared/store"
	utils "pokedex-backend/shared/utils/auth"
	"pokedex-backend/shared/utils/cache"
)

func main() {
	// Load configuration
	cfg := config.GetConfig()
	logging.Init(cfg.LogLevel, cfg.LogFormat)

	// Initialize database
	if err := database.InitDatabase(); err != nil {
		log.Fatal().Err(err).Msg("failed to initialize database")
	}
	defer database.CloseDatabase()

	st := store.New(database.GetDB())
	tokens := utils.NewTokenManager(cfg.JWTSecret, cfg.JWTExpirationDuration)
	sessions := services.NewSessionService(st, tokens)
	auth := shared.NewAuth(tokens, st)

	// Initialize handlers
	authHandler := handlers.NewAuthHandler(sessions, utils.CookieOptions{
		HTTPOnly: cfg.CookieHTTPOnly,
		Secure:   cfg.CookieSecure,
		Domain:   cfg.CookieDomain,
	})

	// Initialize rate limiter
	rateLimiter := middleware.NewRateLimiter(newLimitStore(cfg))

	// Rate limiting configs
	generalConfig := middleware.RateLimitConfig{
		MaxRequests:   cfg.RateLimitMaxRequests,
		TimeWindow:    cfg.RateLimitTimeWindow(),
		BlockDuration: cfg.RateLimitBlockDuration(),
	}

	loginConfig := middleware.RateLimitConfig{
		MaxRequests:   cfg.LoginRateLimitMaxAttempts,
		TimeWindow:    cfg.LoginRateLimitWindow(),
		BlockDuration: cfg.LoginRateLimitBlock(),
	}

	registerConfig := middleware.RateLimitConfig{
		MaxRequests:   cfg.RegisterRateLimitMaxAttempts,
		TimeWindow:    cfg.RegisterRateLimitWindow(),
		BlockDuration: cfg.RegisterRateLimitBlock(),
	}

	router := gin.New()
	router.Use(gin.Recovery(), shared.RequestID(), logging.RequestLogger(), shared.CORS(cfg.FrontendURL))

	// Auth endpoints
	router.POST("/api/auth/login", rateLimiter.LoginRateLimitMiddleware(loginConfig), authHandler.Login)
	router.POST("/api/auth/logout", rateLimiter.RateLimitMiddleware(generalConfig), auth.OptionalAuth(), authHandler.Logout)
	router.POST("/api/auth/register", rateLimiter.RegistrationRateLimitMiddleware(registerConfig), authHandler.Register)
	router.GET("/api/auth/me", rateLimiter.RateLimitMiddleware(generalConfig), auth.RequireAuth(), authHandler.Me)

	// Health check
	router.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{
			"status":  "healthy",
			"service": "auth",
		})
	})

	// Swagger documentation
	router.GET("/swagger/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))

	port := config.ServicePort(cfg.AuthServiceURL, "8001")
	log.Info().Str("port", port).Msg("auth service starting")
	if err := router.Run(":" + port); err != nil {
		log.Fatal().Err(err).Msg("auth service stopped")
	}
}

// newLimitStore prefers Redis so replicas share counters, falling back to
// the in-process store when Redis is not configured or unreachable.
func newLimitStore(cfg *config.Config) middleware.LimitStore {
	if cfg.RedisHost != "" {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()

		cm, err := cache.NewCacheManager(ctx, cfg)
		if err == nil {
			return middleware.NewRedisStore(cm)
		}
		log.Warn().Err(err).Msg("redis unavailable, using in-memory rate limiting")
	}
	return middleware.NewMemoryStore(30 * time.Minute)
}
