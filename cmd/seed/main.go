package main

import (
	"context"
	"os/signal"
	"syscall"

	"github.com/rs/zerolog/log"

	"pokedex-backend/shared/clients"
	"pokedex-backend/shared/config"
	"pokedex-backend/shared/database"
	"pokedex-backend/shared/logging"
	"pokedex-backend/shared/storage"
)

func main() {
	// Load configuration
	cfg := config.GetConfig()
	logging.Init(cfg.LogLevel, cfg.LogFormat)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// Initialize database
	if err := database.InitDatabase(); err != nil {
		log.Fatal().Err(err).Msg("failed to initialize database")
	}
	defer database.CloseDatabase()

	opts := database.SeedOptions{
		Organizations: cfg.SeedOrganizations,
		UsersPerOrg:   cfg.SeedUsersPerOrg,
		UserPassword:  cfg.SeedUserPassword,
		MaxPages:      cfg.SeedMaxPokemonPages,
	}
	if cfg.SeedMirrorSprites {
		sprites, err := storage.NewSpriteStore(ctx, cfg)
		if err != nil {
			log.Warn().Err(err).Msg("MinIO unavailable, sprites will not be mirrored")
		} else {
			opts.Mirror = sprites
		}
	}

	seeder := database.NewSeeder(database.GetDB(), clients.NewPokeAPIClient(cfg.PokemonAPI), opts)
	if _, err := seeder.Run(ctx); err != nil {
		log.Fatal().Err(err).Msg("failed to seed database")
	}

	log.Info().Msg("database seeding completed")
}
