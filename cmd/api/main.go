package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/lemixologue/backend/config"
	"github.com/lemixologue/backend/internal/api"
	"github.com/lemixologue/backend/internal/database"
	"github.com/lemixologue/backend/internal/logging"
	"github.com/lemixologue/backend/internal/middleware"
	"github.com/lemixologue/backend/internal/router"
	"github.com/lemixologue/backend/internal/server"
	"github.com/lemixologue/backend/internal/service"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		bootLogger := logging.New(true)
		bootLogger.Fatal().Err(err).Msg("invalid configuration")
	}

	logger := logging.New(!config.IsProduction())
	seclog := logging.Security(logger)

	db, err := database.New(cfg)
	if err != nil {
		logger.Fatal().Err(err).Msg("failed to connect to database")
	}
	if err := database.Migrate(db); err != nil {
		logger.Fatal().Err(err).Msg("failed to run migrations")
	}

	var store middleware.LimiterStore
	if cfg.RateLimitBackend == "redis" {
		rdb, err := database.NewRedisClient(cfg)
		if err != nil {
			logger.Fatal().Err(err).Msg("failed to connect to redis")
		}
		defer rdb.Close()
		store = middleware.NewRedisStore(rdb)
		logger.Info().Str("addr", cfg.RedisAddr()).Msg("using redis rate limit backend")
	} else {
		store = middleware.NewMemoryStore()
	}

	s3cfg, err := config.NewS3Config(context.Background(), cfg)
	if err != nil {
		logger.Warn().Err(err).Msg("S3 mirroring disabled")
	}

	llm := service.NewLLMService(cfg, logger)
	images := service.NewImageService(cfg, s3cfg, logger)
	cocktails := service.NewCocktailService(db, cfg.ImagesDir, logger, seclog)

	handlers := &router.Handlers{
		Cocktails: api.NewCocktailHandler(llm, cocktails, logger, seclog),
		Images:    api.NewImageHandler(images, cocktails, logger),
		Status:    api.NewStatusHandler(db, images),
		Static:    api.NewStaticHandler(cfg.ImagesDir, seclog),
	}

	srv := server.New(cfg, router.New(cfg, handlers, store, logger, seclog), logger)

	errChan := make(chan error, 1)
	go func() {
		errChan <- srv.Start()
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

	select {
	case err := <-errChan:
		if err != nil {
			logger.Fatal().Err(err).Msg("server error")
		}
	case sig := <-quit:
		logger.Info().Str("signal", sig.String()).Msg("received shutdown signal")
	}

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil {
		logger.Fatal().Err(err).Msg("server shutdown error")
	}
	logger.Info().Msg("server stopped")
}
