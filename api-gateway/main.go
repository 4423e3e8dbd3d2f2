package main

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog/log"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"

	"pokedex-backend/api-gateway/routes"
	_ "pokedex-backend/docs"
	"pokedex-backend/shared/config"
	"pokedex-backend/shared/logging"
	shared "pokedex-backend/shared/middleware"
)

func main() {
	// Load configuration
	cfg := config.GetConfig()
	logging.Init(cfg.LogLevel, cfg.LogFormat)

	gateway, err := routes.NewGateway(map[string]string{
		"auth": cfg.AuthServiceURL,
		"core": cfg.CoreServiceURL,
	})
	if err != nil {
		log.Fatal().Err(err).Msg("invalid gateway configuration")
	}

	router := gin.New()
	// CORS is answered by the services themselves, preflights included
	router.Use(gin.Recovery(), shared.RequestID(), logging.RequestLogger())

	// Health check
	router.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{
			"status":  "healthy",
			"service": "gateway",
		})
	})

	// Swagger documentation UI, development only
	router.GET("/swagger/*any", func(c *gin.Context) {
		if gin.Mode() != gin.DebugMode {
			shared.RespondFailure(c, http.StatusNotFound, "NOT_FOUND", "Swagger documentation not available in production")
			return
		}
		ginSwagger.WrapHandler(swaggerFiles.Handler)(c)
	})

	router.NoRoute(gateway.Handler())

	port := config.ServicePort(cfg.APIGatewayURL, "8000")
	log.Info().Str("port", port).Msg("API gateway starting")
	if err := router.Run(":" + port); err != nil {
		log.Fatal().Err(err).Msg("API gateway stopped")
	}
}
