package main

import (
	"context"
	"log"
	"os"

	"github.com/urfave/cli/v3"

	"storefront-cart/internal/config"
	"storefront-cart/internal/db"
	"storefront-cart/internal/migrate"
)

func main() {
	logger := log.New(os.Stdout, "[migrate] ", log.LstdFlags|log.LUTC|log.Lshortfile)

	cmd := &cli.Command{
		Name:  "migrate",
		Usage: "Manage the storefront cart schema",
		Commands: []*cli.Command{
			{
				Name:  "up",
				Usage: "Apply all pending migrations",
				Action: func(ctx context.Context, c *cli.Command) error {
					cfg := config.Load()
					pool, err := db.Connect(ctx, cfg.DBConnString)
					if err != nil {
						return err
					}
					defer pool.Close()

					if err := migrate.Apply(ctx, pool); err != nil {
						return err
					}
					logger.Println("migrations applied")
					return nil
				},
			},
			{
				Name:  "down",
				Usage: "Roll back migrations",
				Flags: []cli.Flag{
					&cli.IntFlag{Name: "steps", Value: 1, Usage: "number of migrations to roll back"},
				},
				Action: func(ctx context.Context, c *cli.Command) error {
					cfg := config.Load()
					pool, err := db.Connect(ctx, cfg.DBConnString)
					if err != nil {
						return err
					}
					defer pool.Close()

					steps := int(c.Int("steps"))
					if err := migrate.Rollback(ctx, pool, steps); err != nil {
						return err
					}
					logger.Printf("rolled back %d migration(s)", steps)
					return nil
				},
			},
		},
		DefaultCommand: "up",
	}

	if err := cmd.Run(context.Background(), os.Args); err != nil {
		logger.Fatal(err)
	}
}
