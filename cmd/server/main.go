// Package main provides the meal battle service binary: an HTTP API over
// the battle arena, the meal store, and the pantry.
package main

import (
	"context"
	"flag"
	"log"
	"time"

	"go.uber.org/zap"

	"github.com/mealbrawl/mealbrawl/internal/config"
	"github.com/mealbrawl/mealbrawl/internal/game/battle"
	"github.com/mealbrawl/mealbrawl/internal/game/random"
	"github.com/mealbrawl/mealbrawl/internal/observability"
	"github.com/mealbrawl/mealbrawl/internal/server"
	"github.com/mealbrawl/mealbrawl/internal/storage/postgres"
)

func main() {
	configPath := flag.String("config", "configs/dev.yaml", "path to configuration file")
	flag.Parse()

	ctx := context.Background()

	cfg, err := config.Load(*configPath)
	if err != nil {
		log.Fatalf("loading config: %v", err)
	}

	logger, err := observability.NewLogger(cfg.Logging)
	if err != nil {
		log.Fatalf("initializing logger: %v", err)
	}
	defer logger.Sync()

	logger.Info("starting meal battle service",
		zap.String("http_addr", cfg.HTTP.Addr()),
		zap.String("random_source", cfg.Random.Source),
	)

	// Connect to PostgreSQL and bootstrap the schema.
	dbStart := time.Now()
	pool, err := postgres.NewPool(ctx, cfg.Database)
	if err != nil {
		logger.Fatal("connecting to database", zap.Error(err))
	}
	defer pool.Close()
	if err := pool.EnsureSchema(ctx); err != nil {
		logger.Fatal("bootstrapping schema", zap.Error(err))
	}
	logger.Info("database connected",
		zap.String("host", cfg.Database.Host),
		zap.Duration("elapsed", time.Since(dbStart)),
	)

	mealRepo := postgres.NewMealRepository(pool.DB())
	ingredientRepo := postgres.NewIngredientRepository(pool.DB())

	var rng random.Provider
	switch cfg.Random.Source {
	case "randomorg":
		rng = random.NewOrgProvider(cfg.Random.URL, cfg.Random.Timeout)
	default:
		rng = random.NewCryptoProvider()
	}
	rng = random.NewLoggedProvider(rng, logger)

	arena := battle.NewArena(rng, mealRepo, logger)
	metrics := server.NewMetrics()

	srv := server.New(cfg.HTTP, logger, arena, mealRepo, ingredientRepo, pool, rng, metrics)

	lc := server.NewLifecycle(logger)
	lc.Add("http", srv)
	if err := lc.Run(ctx); err != nil {
		logger.Fatal("running services", zap.Error(err))
	}
}
