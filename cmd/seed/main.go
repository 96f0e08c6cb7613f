// Command seed embeds the curated reference set of qualifying reasons and
// inserts it into the strong_reasons table.
package main

import (
	"context"

	"go.uber.org/zap"

	"github.com/coelhoxyz/lead-qualifier-agent/internal/config"
	"github.com/coelhoxyz/lead-qualifier-agent/internal/db"
	"github.com/coelhoxyz/lead-qualifier-agent/internal/llm"
	"github.com/coelhoxyz/lead-qualifier-agent/internal/vector"
)

var strongReasons = []string{
	"Preciso fazer cirurgia e o médico exigiu perder peso",
	"Minha saúde está em risco, pressão alta e diabetes",
	"Quero engravidar mas o médico disse que preciso emagrecer",
	"Tenho dor nas articulações por causa do peso",
	"Meu colesterol está altíssimo e estou com medo de infarto",
}

func main() {
	cfg := config.Load()

	logger, err := zap.NewProduction()
	if err != nil {
		panic(err)
	}
	defer logger.Sync()

	ctx := context.Background()

	database, err := db.New(cfg.DatabaseURL, logger)
	if err != nil {
		logger.Fatal("failed to connect to database", zap.Error(err))
	}
	defer database.Close()

	if err := database.RunMigrations(cfg.MigrationsDir); err != nil {
		logger.Fatal("failed to run migrations", zap.Error(err))
	}

	_, embedder, err := llm.New(ctx, cfg)
	if err != nil {
		logger.Fatal("failed to create LLM provider", zap.Error(err))
	}

	if err := vector.New(database, embedder, logger).Add(ctx, strongReasons); err != nil {
		logger.Fatal("seeding failed", zap.Error(err))
	}

	logger.Info("seeded strong reasons", zap.Int("count", len(strongReasons)))
}
