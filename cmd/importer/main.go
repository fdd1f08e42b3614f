package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"os"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/urfave/cli/v3"

	"storefront-cart/internal/config"
	"storefront-cart/internal/db"
	"storefront-cart/internal/importer"
	"storefront-cart/internal/repository/discount"
)

func main() {
	cmd := &cli.Command{
		Name:  "importer",
		Usage: "Import discounts from a CSV file",
		Flags: []cli.Flag{
			&cli.StringFlag{Name: "file", Aliases: []string{"f"}, Usage: "path to the discount CSV", Required: true},
			&cli.StringFlag{Name: "source", Usage: "discount store: postgres or mongo (defaults to DISCOUNT_SOURCE)"},
		},
		Action: run,
	}

	if err := cmd.Run(context.Background(), os.Args); err != nil {
		log.Fatal(err)
	}
}

func run(ctx context.Context, c *cli.Command) error {
	cfg := config.Load()
	logger := log.New(os.Stdout, "[importer] ", log.LstdFlags|log.LUTC|log.Lshortfile)

	source := cfg.DiscountSource
	if s := c.String("source"); s != "" {
		source = s
	}

	var pool *pgxpool.Pool
	if source != discount.SourceMongo {
		if cfg.DBConnString == "" {
			return errors.New("DB_DSN is required for the postgres discount source")
		}
		p, err := db.Connect(ctx, cfg.DBConnString)
		if err != nil {
			return fmt.Errorf("connect db: %w", err)
		}
		defer p.Close()
		pool = p
	}

	repo, closeRepo, err := discount.Open(ctx, source, pool, cfg.MongoURI, cfg.MongoDatabase, logger)
	if err != nil {
		return err
	}
	defer closeRepo(ctx)

	f, err := os.Open(c.String("file"))
	if err != nil {
		return fmt.Errorf("open file: %w", err)
	}
	defer f.Close()

	start := time.Now()
	count, err := importer.NewCSVImporter(f, repo).Run(ctx)
	if err != nil {
		return fmt.Errorf("import failed after %d discounts: %w", count, err)
	}

	fmt.Printf("Imported %d discounts into %s in %s\n", count, source, time.Since(start).Truncate(time.Millisecond))
	return nil
}
