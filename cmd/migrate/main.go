package main

import (
	"github.com/lemixologue/backend/config"
	"github.com/lemixologue/backend/internal/database"
	"github.com/lemixologue/backend/internal/logging"
	"github.com/lemixologue/backend/internal/model"
)

// Applies the schema migrations and verifies the columns older
// deployments were missing. Run this before starting the API against a
// fresh or upgraded database.
func main() {
	logger := logging.New(!config.IsProduction())

	cfg, err := config.Load()
	if err != nil {
		logger.Fatal().Err(err).Msg("invalid configuration")
	}

	db, err := database.New(cfg)
	if err != nil {
		logger.Fatal().Err(err).Msg("failed to connect to database")
	}

	if err := database.Migrate(db); err != nil {
		logger.Fatal().Err(err).Msg("migration failed")
	}

	// Deployments created before image generation existed lack this
	// column; AutoMigrate adds it, this confirms it
	if !db.Migrator().HasColumn(&model.Cocktail{}, "image_path") {
		logger.Fatal().Msg("image_path column missing after migration")
	}

	logger.Info().Str("driver", cfg.DBDriver).Msg("migrations applied")
}
