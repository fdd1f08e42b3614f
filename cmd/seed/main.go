package main

import (
	"context"
	"log"
	"os"

	"storefront-cart/internal/config"
	"storefront-cart/internal/db"
	"storefront-cart/internal/repository/discount"
	"storefront-cart/internal/repository/product"
	"storefront-cart/internal/seed"
)

func main() {
	cfg := config.Load()
	logger := log.New(os.Stdout, "[seed] ", log.LstdFlags|log.LUTC|log.Lshortfile)

	ctx := context.Background()
	pool, err := db.Connect(ctx, cfg.DBConnString)
	if err != nil {
		logger.Fatalf("connect db: %v", err)
	}
	defer pool.Close()

	discounts, closeDiscounts, err := discount.Open(ctx, cfg.DiscountSource, pool, cfg.MongoURI, cfg.MongoDatabase, logger)
	if err != nil {
		logger.Fatalf("open discount source: %v", err)
	}
	defer closeDiscounts(ctx)

	if err := seed.Apply(ctx, product.NewPostgres(pool, logger), discounts); err != nil {
		logger.Fatalf("seed apply: %v", err)
	}

	logger.Println("seed applied")
}
