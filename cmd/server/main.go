// Package main is the entry point for the genotiles server.
package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"go.uber.org/zap"

	"github.com/genotiles/server/internal/api"
	"github.com/genotiles/server/internal/cache"
	"github.com/genotiles/server/internal/config"
	"github.com/genotiles/server/internal/logging"
	"github.com/genotiles/server/internal/metrics"
	"github.com/genotiles/server/internal/render"
	"github.com/genotiles/server/internal/seed"
	"github.com/genotiles/server/internal/service"
	"github.com/genotiles/server/internal/store/memory"
	"github.com/genotiles/server/internal/store/sqlite"
	"github.com/genotiles/server/internal/tileset"
)

func main() {
	// Parse command line flags
	configPath := flag.String("config", "config/server.yaml", "Path to configuration file")
	demo := flag.Bool("demo", false, "Serve the built-in demo tilesets")
	flag.Parse()

	// A missing .env is fine; the process environment is used as is.
	dotenvErr := godotenv.Load()

	cfg, err := config.Load(*configPath)
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}
	if err := cfg.ApplyEnv(os.Getenv); err != nil {
		log.Fatalf("Invalid environment: %v", err)
	}
	if *demo {
		cfg.Data.Demo = true
	}

	logger, err := logging.New(cfg.Log.Level, cfg.Log.Development)
	if err != nil {
		log.Fatalf("Failed to build logger: %v", err)
	}
	defer logger.Sync()

	if dotenvErr != nil {
		logger.Debug("no .env loaded", zap.Error(dotenvErr))
	}

	if err := run(cfg, logger); err != nil {
		logger.Fatal("server failed", zap.Error(err))
	}
}

func run(cfg *config.Config, logger *zap.Logger) error {
	ctx := context.Background()

	records, err := loadRecords(ctx, cfg.Data, logger)
	if err != nil {
		return err
	}

	repo, err := memory.New(records, memory.Config{MaxConcurrency: cfg.Tiles.MaxConcurrency})
	if err != nil {
		return fmt.Errorf("building repository: %w", err)
	}
	logger.Info("tilesets loaded", zap.Int("count", repo.Len()))

	cacheManager, err := cache.NewManager(cache.Config{
		TileCacheSizeMB: cfg.Cache.TileSizeMB,
		TileTTL:         cfg.Cache.TileTTL(),
		LookupCacheSize: cfg.Cache.LookupCacheSize,
	})
	if err != nil {
		return fmt.Errorf("initializing cache: %w", err)
	}
	defer cacheManager.Close()

	renderer, err := render.NewTileRenderer(render.Config{
		ImageSize:       cfg.Tiles.ImageSize,
		DefaultColormap: cfg.Tiles.DefaultColormap,
	})
	if err != nil {
		return fmt.Errorf("initializing renderer: %w", err)
	}

	m := metrics.New()
	m.WatchCache(cacheManager.Stats)
	svc := service.NewTilesetService(service.TilesetServiceConfig{
		Repository: repo,
		Cache:      cacheManager,
		Metrics:    m,
		Logger:     logger,
	})

	router := api.NewRouter(api.RouterConfig{
		Service:     svc,
		Renderer:    renderer,
		Metrics:     m,
		Logger:      logger,
		CORSOrigins: cfg.Server.CORSOrigins,
		Title:       cfg.Server.Title,
	})

	server := &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.Server.Port),
		Handler:      router,
		ReadTimeout:  30 * time.Second,
		WriteTimeout: 60 * time.Second,
		IdleTimeout:  120 * time.Second,
	}

	errc := make(chan error, 1)
	go func() {
		logger.Info("server listening", zap.Int("port", cfg.Server.Port))
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			errc <- err
		}
	}()

	// Wait for interrupt signal
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	select {
	case err := <-errc:
		return fmt.Errorf("listening: %w", err)
	case <-quit:
	}

	logger.Info("shutting down server")

	shutdownCtx, cancel := context.WithTimeout(ctx, 30*time.Second)
	defer cancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Warn("server forced to shutdown", zap.Error(err))
	}

	logger.Info("server stopped")
	return nil
}

// loadRecords merges the demo fixtures, the seed file and the SQLite
// catalog, in that order. A uuid already loaded is skipped with a warning.
func loadRecords(ctx context.Context, data config.DataConfig, logger *zap.Logger) ([]tileset.Record, error) {
	var records []tileset.Record
	seen := make(map[string]string)
	add := func(origin string, recs []tileset.Record) {
		for _, rec := range recs {
			if prev, dup := seen[rec.Tileset.UUID]; dup {
				logger.Warn("duplicate tileset skipped",
					zap.String("uuid", rec.Tileset.UUID),
					zap.String("source", origin),
					zap.String("first_source", prev),
				)
				continue
			}
			seen[rec.Tileset.UUID] = origin
			records = append(records, rec)
		}
	}

	if data.Demo {
		add("demo", seed.Demo(time.Now()))
	}

	if data.SeedPath != "" {
		recs, err := seed.LoadFile(data.SeedPath)
		if err != nil {
			return nil, err
		}
		logger.Info("seed loaded", zap.String("path", data.SeedPath), zap.Int("tilesets", len(recs)))
		add("seed", recs)
	}

	if data.CatalogPath != "" {
		// The server only reads the catalog; cmd/ingest creates it.
		if _, err := os.Stat(data.CatalogPath); err != nil {
			return nil, fmt.Errorf("opening catalog: %w", err)
		}
		catalog, err := sqlite.NewCatalog(data.CatalogPath)
		if err != nil {
			return nil, fmt.Errorf("opening catalog: %w", err)
		}
		defer catalog.Close()

		recs, err := catalog.Load(ctx)
		if err != nil {
			return nil, fmt.Errorf("loading catalog: %w", err)
		}
		logger.Info("catalog loaded", zap.String("path", data.CatalogPath), zap.Int("tilesets", len(recs)))
		add("catalog", recs)
	}

	if len(records) == 0 {
		logger.Warn("no tilesets registered; chrom-sizes falls back to built-in assemblies")
	}
	return records, nil
}
