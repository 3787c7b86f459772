package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"

	"onmodel/internal/adapter/repo"
	"onmodel/internal/domain"
	"onmodel/internal/http/handlers"
	"onmodel/internal/http/httpapi"
	"onmodel/internal/infra"
	"onmodel/internal/infra/geoip"
	"onmodel/internal/middleware"
	"onmodel/internal/providers/image"
	"onmodel/internal/service"
	"onmodel/internal/storage"
)

func main() {
	_ = godotenv.Load(".env", ".env.local")

	cfg, err := infra.LoadConfig()
	if err != nil {
		panic(err)
	}
	logger := infra.NewLogger(cfg.AppEnv)

	ctx := context.Background()

	var (
		listings domain.ListingRepository
		settings domain.SettingsRepository
	)
	if cfg.DatabaseURL != "" {
		pool, err := infra.NewDBPool(ctx, cfg)
		if err != nil {
			logger.Fatal().Err(err).Msg("failed to connect database")
		}
		defer pool.Close()
		listings = repo.NewListingRepository(pool)
		settings = repo.NewSettingsRepository(pool)
		logger.Info().Msg("listing store: postgres")
	} else {
		store, err := storage.NewFileStore(cfg.DataDir)
		if err != nil {
			logger.Fatal().Err(err).Msg("failed to open file store")
		}
		listings, settings = store, store
		logger.Warn().Str("dir", cfg.DataDir).Msg("DATABASE_URL not set, listing store: file-backed")
	}

	generator, err := image.NewClient(image.Options{
		APIKey:    cfg.GeneratorAPIKey,
		BaseURL:   cfg.GeneratorBaseURL,
		Model:     cfg.GeneratorModel,
		AssetBase: cfg.AssetBaseURL,
		Logger:    &logger,
	})
	if err != nil {
		logger.Fatal().Err(err).Msg("failed to configure generator client")
	}
	if cfg.GeneratorAPIKey == "" {
		logger.Warn().Str("model", generator.Model()).Msg("generator api key missing, using synthetic renders")
	}

	svc := service.NewListingService(listings, generator, logger)
	app := handlers.NewApp(listings, settings, svc, logger)

	var lookup middleware.CountryLookup
	resolver, err := geoip.NewResolver(cfg.GeoIPDBPath)
	if err != nil {
		logger.Warn().Err(err).Msg("geoip resolver unavailable, locale detection degrades to headers")
	} else if resolver != nil {
		lookup = resolver.CountryCode
	}

	router := httpapi.NewRouter(app, cfg, logger, lookup)
	server := infra.NewHTTPServer(cfg, router)

	go func() {
		logger.Info().Msgf("API listening on :%s", cfg.Port)
		if err := server.Start(); err != nil && err != http.ErrServerClosed {
			logger.Fatal().Err(err).Msg("http server failed")
		}
	}()

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)
	<-stop

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.HTTPIdleTimeout)
	defer cancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Error().Err(err).Msg("failed to shutdown server")
	}
	logger.Info().Msg("server stopped")
}
