package main

import (
	"context"
	"time"

	"github.com/rs/zerolog/log"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"pokedex-backend/shared/config"
	"pokedex-backend/shared/database"
	"pokedex-backend/shared/logging"
	"pokedex-backend/shared/utils/cache"
)

func main() {
	cfg := config.GetConfig()
	logging.Init(cfg.LogLevel, cfg.LogFormat)
	log.Info().Msg("starting database reset")

	db, err := gorm.Open(postgres.Open(database.DSN(cfg)), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		log.Fatal().Err(err).Msg("database connection failed")
	}

	// Children first so the drops never trip a foreign key
	for i := len(database.Models) - 1; i >= 0; i-- {
		model := database.Models[i]
		if err := db.Migrator().DropTable(model); err != nil {
			log.Fatal().Err(err).Msgf("failed to drop %T", model)
		}
		log.Info().Msgf("dropped table for %T", model)
	}

	if cfg.RedisHost != "" {
		resetRateLimits(cfg)
	}

	log.Info().Msg("database reset completed, run the seeder to recreate tables and data")
}

// resetRateLimits clears counters and blocks left by the auth service
func resetRateLimits(cfg *config.Config) {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	cm, err := cache.NewCacheManager(ctx, cfg)
	if err != nil {
		log.Warn().Err(err).Msg("redis unavailable, rate limit keys left in place")
		return
	}
	defer cm.Close()

	if err := cm.InvalidateAll(ctx); err != nil {
		log.Warn().Err(err).Msg("failed to clear rate limit keys")
		return
	}
	log.Info().Msg("rate limit keys cleared")
}
