package main

import (
	"context"
	"flag"

	"github.com/lemixologue/backend/config"
	"github.com/lemixologue/backend/internal/database"
	"github.com/lemixologue/backend/internal/logging"
	"github.com/lemixologue/backend/internal/service"
)

// Seeds the database with a handful of demo cocktails so a fresh
// install has something to show. With -generate the sheets come from
// the live LLM instead of the built-in samples.
func main() {
	generate := flag.Bool("generate", false, "generate seed cocktails through the LLM instead of using built-in samples")
	flag.Parse()

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

	cocktails := service.NewCocktailService(db, cfg.ImagesDir, logger, logging.Security(logger))
	ctx := context.Background()

	if *generate {
		llm := service.NewLLMService(cfg, logger)
		for _, prompt := range seedPrompts {
			sheet, err := llm.GenerateCocktail(ctx, prompt)
			if err != nil {
				logger.Error().Err(err).Str("prompt", prompt).Msg("generation failed, skipping")
				continue
			}
			if _, err := cocktails.Create(ctx, sheet, prompt); err != nil {
				logger.Fatal().Err(err).Msg("failed to save seed cocktail")
			}
		}
	} else {
		for i, sheet := range sampleSheets {
			if _, err := cocktails.Create(ctx, &sheet, seedPrompts[i]); err != nil {
				logger.Fatal().Err(err).Msg("failed to save seed cocktail")
			}
		}
	}

	stats, err := cocktails.Stats(ctx)
	if err != nil {
		logger.Fatal().Err(err).Msg("failed to read stats")
	}
	logger.Info().Int64("total", stats.Total).Msg("seeding complete")
}

var seedPrompts = []string{
	"a refreshing gin cocktail for a summer evening on the terrace",
	"something warm and smoky for a rainy autumn night",
	"a festive non-alcoholic cocktail with citrus and herbs",
}

var sampleSheets = []service.CocktailSheet{
	{
		Name:          "Terrasse d'Été",
		Ingredients:   []string{"4 cl gin", "2 cl elderflower liqueur", "1 cl lime juice", "top tonic water", "cucumber ribbon"},
		Description:   "Crisp and floral, made for long summer evenings when the terrace stays warm past sunset.",
		MusicAmbiance: "Bossa nova with soft percussion",
		ImagePrompt:   "Tall glass with pale green cocktail, cucumber ribbon, golden evening light",
	},
	{
		Name:          "Braise d'Octobre",
		Ingredients:   []string{"5 cl smoky scotch", "1.5 cl amaro", "1 cl honey syrup", "2 dashes walnut bitters"},
		Description:   "A slow sipper built around peat smoke and honey, the drink equivalent of a wool blanket.",
		MusicAmbiance: "Low-fi blues with vinyl crackle",
		ImagePrompt:   "Rocks glass with amber cocktail, large ice cube, dark wood bar, candlelight",
	},
	{
		Name:          "Jardin Sans Alcool",
		Ingredients:   []string{"6 cl fresh grapefruit juice", "2 cl rosemary syrup", "1 cl lemon juice", "top sparkling water"},
		Description:   "Bright citrus lifted by garden rosemary, festive enough that nobody asks where the spirit went.",
		MusicAmbiance: "Acoustic indie folk, morning energy",
		ImagePrompt:   "Coupe glass with pink cocktail, rosemary sprig, white marble background",
	},
}
