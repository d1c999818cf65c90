package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/comparaprecios/backend/config"
	httpDelivery "github.com/comparaprecios/backend/internal/delivery/http"
	"github.com/comparaprecios/backend/internal/domain"
	"github.com/comparaprecios/backend/internal/infrastructure/cache"
	"github.com/comparaprecios/backend/internal/infrastructure/catalogapi"
	"github.com/comparaprecios/backend/internal/infrastructure/importer"
	"github.com/comparaprecios/backend/internal/infrastructure/memory"
	"github.com/comparaprecios/backend/internal/infrastructure/postgres"
	"github.com/comparaprecios/backend/internal/logging"
	"github.com/comparaprecios/backend/internal/usecase"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatal().Err(err).Msg("failed to load configuration")
	}

	logger := logging.New(logging.Options{
		Level:  cfg.Log.Level,
		Format: cfg.Log.Format,
		File:   cfg.Log.File,
	})

	if err := run(cfg, logger); err != nil {
		logger.Fatal().Err(err).Msg("server stopped with error")
	}
}

func run(cfg *config.Config, logger zerolog.Logger) error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	logger.Info().
		Str("version", httpDelivery.Version).
		Str("environment", cfg.Server.Environment).
		Str("catalog", cfg.Catalog.Source).
		Str("cache", cfg.Cache.Type).
		Dur("cache_ttl", cfg.Cache.TTL).
		Msg("starting comparaprecios backend")

	var closers []io.Closer
	defer func() {
		for i := len(closers) - 1; i >= 0; i-- {
			if err := closers[i].Close(); err != nil {
				logger.Warn().Err(err).Msg("close failed")
			}
		}
	}()

	reader := importer.NewReader(logger)

	listings, closer, err := newListingRepository(ctx, cfg.Catalog, logger)
	if err != nil {
		return err
	}
	if closer != nil {
		closers = append(closers, closer)
	}

	if cfg.Catalog.SeedFile != "" && cfg.Catalog.Source != "remote" {
		if err := seedCatalog(ctx, listings, reader, cfg.Catalog.SeedFile, logger); err != nil {
			return err
		}
	}

	catalogCache, closer, err := newCache(ctx, cfg.Cache)
	if err != nil {
		return err
	}
	if closer != nil {
		closers = append(closers, closer)
	}

	priceService := usecase.NewPriceService(listings, catalogCache, reader, usecase.PriceServiceConfig{
		CatalogTTL: cfg.Cache.TTL,
		Logger:     &logger,
	})

	handler := httpDelivery.NewHandler(priceService, logger)
	router := httpDelivery.SetupRouter(cfg, handler, logger)

	server := &http.Server{
		Addr:              fmt.Sprintf(":%s", cfg.Server.Port),
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       30 * time.Second,
		WriteTimeout:      30 * time.Second,
		IdleTimeout:       120 * time.Second,
	}

	serveErr := make(chan error, 1)
	go func() {
		logger.Info().Str("addr", server.Addr).Msg("server listening")
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serveErr <- err
		}
		close(serveErr)
	}()

	select {
	case err := <-serveErr:
		return err
	case <-ctx.Done():
	}

	logger.Info().Msg("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	return server.Shutdown(shutdownCtx)
}

// newListingRepository builds the catalog backend named by cfg.Source
func newListingRepository(ctx context.Context, cfg config.CatalogConfig, logger zerolog.Logger) (domain.ListingRepository, io.Closer, error) {
	switch cfg.Source {
	case "postgres":
		db, err := postgres.Open(ctx, cfg.DatabaseURL)
		if err != nil {
			return nil, nil, err
		}
		repo := postgres.NewRepository(db)
		if err := repo.EnsureSchema(ctx); err != nil {
			_ = db.Close()
			return nil, nil, err
		}
		logger.Info().Msg("using postgres catalog")
		return repo, db, nil
	case "remote":
		logger.Info().Str("url", cfg.RemoteURL).Msg("using remote catalog")
		return catalogapi.NewClient(cfg.RemoteURL, catalogapi.WithLogger(logger)), nil, nil
	default:
		return memory.NewStore(nil), nil, nil
	}
}

// newCache returns a nil repository when caching is off
func newCache(ctx context.Context, cfg config.CacheConfig) (domain.CacheRepository, io.Closer, error) {
	switch cfg.Type {
	case "redis":
		redisCache, err := cache.NewRedisCacheFromURL(ctx, cfg.RedisURL, cfg.KeyPrefix)
		if err != nil {
			return nil, nil, fmt.Errorf("connect redis: %w", err)
		}
		return redisCache, redisCache, nil
	case "memory":
		memoryCache := cache.NewMemoryCache(max(cfg.TTL, time.Minute))
		return memoryCache, memoryCache, nil
	default:
		return nil, nil, nil
	}
}

// seedCatalog loads path into an empty catalog
func seedCatalog(ctx context.Context, listings domain.ListingRepository, reader domain.ListingReader, path string, logger zerolog.Logger) error {
	existing, err := listings.List(ctx)
	if err != nil {
		return fmt.Errorf("check catalog before seeding: %w", err)
	}
	if len(existing) > 0 {
		logger.Info().Int("listings", len(existing)).Msg("catalog already populated, skipping seed")
		return nil
	}

	f, err := os.Open(path)
	if err != nil {
		return fmt.Errorf("open seed file: %w", err)
	}
	defer f.Close()

	seed, err := reader.ReadListings(f, path)
	if err != nil {
		return fmt.Errorf("read seed file: %w", err)
	}
	n, err := listings.AddBatch(ctx, seed)
	if err != nil {
		return fmt.Errorf("seed catalog: %w", err)
	}
	logger.Info().Str("file", path).Int("listings", n).Msg("catalog seeded")
	return nil
}
