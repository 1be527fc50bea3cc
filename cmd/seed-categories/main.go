// Command seed-categories writes the default category vocabulary for a user.
// Run once per user before their first ingestion.
package main

import (
	"context"
	"flag"
	"time"

	"budgetpipe/internal/config"
	"budgetpipe/internal/domain"
	"budgetpipe/internal/logger"
	mongostore "budgetpipe/internal/store/mongo"
)

func main() {
	userID := flag.String("user", "", "user id to seed categories for")
	flag.Parse()

	log := logger.NewService("seed-categories")

	if *userID == "" {
		log.Fatal().Msg("-user is required")
	}

	cfg := config.Load()
	ctx := context.Background()

	mongoStore, mongoClient, err := mongostore.Connect(ctx, cfg.Mongo.URI, cfg.Mongo.Database)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to connect to MongoDB")
	}
	defer mongoClient.Disconnect(ctx)

	if err := mongoStore.EnsureIndexes(ctx); err != nil {
		log.Fatal().Err(err).Msg("Failed to ensure indexes")
	}

	categories := mongoStore.Categories()
	seeded := 0
	for _, cat := range domain.DefaultCategories(*userID, time.Now()) {
		if err := categories.Put(ctx, cat); err != nil {
			log.Fatal().Err(err).Str("name", cat.Name).Msg("Failed to seed category")
		}
		seeded++
	}

	log.Info().Str("user_id", *userID).Int("seeded", seeded).Msg("Default categories seeded")
}
