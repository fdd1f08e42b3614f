package product

import (
	"context"
	"errors"
	"os"
	"testing"

	"github.com/jackc/pgx/v5/pgxpool"

	"storefront-cart/internal/domain"
	"storefront-cart/internal/migrate"
)

func TestPostgres_UpsertListAndGet(t *testing.T) {
	ctx := context.Background()
	pool := testPool(ctx, t)
	defer pool.Close()

	if err := migrate.Apply(ctx, pool); err != nil {
		t.Fatalf("apply migrations: %v", err)
	}
	if _, err := pool.Exec(ctx, `TRUNCATE products`); err != nil {
		t.Fatalf("truncate products: %v", err)
	}

	repo := NewPostgres(pool, nil)
	created, err := repo.Upsert(ctx, domain.Product{ID: "mug", Name: "Mug", PriceCents: 1299, ImageURL: "https://img/mug.jpg"})
	if err != nil {
		t.Fatalf("Upsert: %v", err)
	}
	if created.CreatedAt.IsZero() {
		t.Fatalf("expected created_at to be populated")
	}
	if _, err := repo.Upsert(ctx, domain.Product{ID: "mug", Name: "Big Mug", PriceCents: 1499}); err != nil {
		t.Fatalf("Upsert update: %v", err)
	}

	list, err := repo.List(ctx)
	if err != nil {
		t.Fatalf("List: %v", err)
	}
	if len(list) != 1 {
		t.Fatalf("expected 1 product, got %d", len(list))
	}

	got, err := repo.GetByID(ctx, "mug")
	if err != nil {
		t.Fatalf("GetByID: %v", err)
	}
	if got.Name != "Big Mug" || got.PriceCents != 1499 {
		t.Fatalf("unexpected product %+v", got)
	}

	if _, err := repo.GetByID(ctx, "missing"); !errors.Is(err, domain.ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func testPool(ctx context.Context, t *testing.T) *pgxpool.Pool {
	t.Helper()
	dsn := os.Getenv("TEST_DB_DSN")
	if dsn == "" {
		t.Skip("TEST_DB_DSN not set")
	}
	pool, err := pgxpool.New(ctx, dsn)
	if err != nil {
		t.Fatalf("connect db: %v", err)
	}
	return pool
}
