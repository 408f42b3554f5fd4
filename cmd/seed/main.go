// Package main provides a CLI tool for preparing the database: it applies the
// schema and seeds the demo catalog with opening stock.
package main

import (
	"context"
	"fmt"
	"os"

	"stockroom/internal/config"
	"stockroom/internal/domain/receiving"
	"stockroom/internal/infrastructure/storage/postgres"
	"stockroom/internal/infrastructure/storage/postgres/catalog_repo"
	"stockroom/pkg/logger"
)

func main() {
	log, err := logger.New(logger.Config{
		Level:       "info",
		Development: true,
	})
	if err != nil {
		fmt.Printf("failed to create logger: %v\n", err)
		os.Exit(1)
	}

	cfg, err := config.Load()
	if err != nil {
		log.Fatalw("failed to load config", "error", err)
	}

	ctx := logger.WithLogger(context.Background(), log)

	// Connect to database
	if cfg.Database.URL == "" {
		log.Fatal("DATABASE_URL environment variable is required")
	}

	pool, err := postgres.NewPool(ctx, postgres.DefaultPoolConfig(cfg.Database.URL))
	if err != nil {
		log.Fatalw("failed to connect to database", "error", err)
	}
	defer pool.Close()

	log.Info("connected to database")

	if err := postgres.ApplySchema(ctx, pool); err != nil {
		log.Fatalw("failed to apply schema", "error", err)
	}
	log.Info("schema applied")

	// Seed demo data if requested
	if os.Getenv("SEED_DEMO_DATA") != "false" {
		if err := seedDemoData(ctx, pool, log); err != nil {
			log.Fatalw("failed to seed demo data", "error", err)
		}
	}

	log.Info("seeding completed successfully")
}

// seedDemoData upserts the demo catalog and sets each item's opening balance.
// Re-running it resets balances to the demo values.
func seedDemoData(ctx context.Context, pool *postgres.Pool, log *logger.Logger) error {
	log.Info("seeding demo data...")

	txManager := postgres.NewTxManager(pool)
	items := catalog_repo.NewItemRepo(txManager)

	return txManager.RunInTransaction(ctx, func(ctx context.Context) error {
		for _, item := range receiving.DemoItems() {
			if err := items.Upsert(ctx, item); err != nil {
				return fmt.Errorf("seed item %s: %w", item.ItemRef, err)
			}

			_, err := txManager.GetQuerier(ctx).Exec(ctx, `
				INSERT INTO reg_stock_balances (item_ref, location, quantity)
				VALUES ($1, 'main', $2)
				ON CONFLICT (item_ref, location) DO UPDATE SET quantity = EXCLUDED.quantity
			`, item.ItemRef, item.StockOnHand)
			if err != nil {
				return fmt.Errorf("seed stock %s: %w", item.ItemRef, err)
			}

			log.Infow("item seeded", "ref", item.ItemRef, "name", item.Name, "stock", item.StockOnHand)
		}
		return nil
	})
}
