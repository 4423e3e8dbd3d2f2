package main

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog/log"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"

	"pokedex-backend/core-service/handlers"
	_ "pokedex-backend/docs"
	"pokedex-backend/shared/config"
	"pokedex-backend/shared/database"
	"pokedex-backend/shared/logging"
	shared "pokedex-backend/shared/middleware"
	"pokedex-backend/shared/storage"
	"pokedex-backend/shared/store"
	utils "pokedex-backend/shared/utils/auth"
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
	auth := shared.NewAuth(tokens, st)

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	images := storage.NewImageResolver(ctx, cfg)
	cancel()

	router := gin.New()
	router.Use(gin.Recovery(), shared.RequestID(), logging.RequestLogger(), shared.CORS(cfg.FrontendURL))

	handlers.RegisterRoutes(router, auth, handlers.Handlers{
		Organizations: handlers.NewOrganizationHandler(st),
		Users:         handlers.NewUserHandler(),
		Pokemons:      handlers.NewPokemonHandler(images),
	})

	// Health check
	router.GET("/health", func(c *gin.Context) {
		status, dbStatus := http.StatusOK, "connected"
		if sqlDB, err := database.GetDB().DB(); err != nil || sqlDB.PingContext(c.Request.Context()) != nil {
			status, dbStatus = http.StatusServiceUnavailable, "unreachable"
		}
		c.JSON(status, gin.H{
			"status":   http.StatusText(status),
			"service":  "core",
			"database": dbStatus,
		})
	})

	// Swagger documentation
	router.GET("/swagger/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))

	port := config.ServicePort(cfg.CoreServiceURL, "8003")
	log.Info().Str("port", port).Msg("core service starting")
	if err := router.Run(":" + port); err != nil {
		log.Fatal().Err(err).Msg("core service stopped")
	}
}
