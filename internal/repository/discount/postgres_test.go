package discount

import (
	"context"
	"os"
	"testing"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"

	"storefront-cart/internal/domain"
	"storefront-cart/internal/migrate"
)

func TestPostgres_UpsertAndListActive(t *testing.T) {
	ctx := context.Background()
	dsn := os.Getenv("TEST_DB_DSN")
	if dsn == "" {
		t.Skip("TEST_DB_DSN not set")
	}
	pool, err := pgxpool.New(ctx, dsn)
	if err != nil {
		t.Fatalf("connect db: %v", err)
	}
	defer pool.Close()

	if err := migrate.Apply(ctx, pool); err != nil {
		t.Fatalf("apply migrations: %v", err)
	}
	if _, err := pool.Exec(ctx, `TRUNCATE discounts`); err != nil {
		t.Fatalf("truncate: %v", err)
	}

	end := time.Date(2030, 1, 1, 0, 0, 0, 0, time.UTC)
	repo := NewPostgres(pool, nil)
	for _, d := range []domain.Discount{
		{ID: "welcome", Name: "Welcome", Type: domain.DiscountTypeOrder, Percentage: 5, IsActive: true, EndDate: &end},
		{ID: "retired", Name: "Retired", Type: domain.DiscountTypeOrder, Percentage: 40, IsActive: false},
		{ID: "mug-sale", Name: "Mug sale", Type: domain.DiscountTypeProduct, Percentage: 20, IsActive: true, ProductIDs: []string{"mug"}},
	} {
		if err := repo.Upsert(ctx, d); err != nil {
			t.Fatalf("Upsert %s: %v", d.ID, err)
		}
	}

	orders, err := repo.ListActive(ctx, domain.DiscountTypeOrder)
	if err != nil {
		t.Fatalf("ListActive: %v", err)
	}
	if len(orders) != 1 || orders[0].ID != "welcome" {
		t.Fatalf("unexpected order discounts %+v", orders)
	}
	if orders[0].EndDate == nil || !orders[0].EndDate.Equal(end) {
		t.Fatalf("end date not round-tripped: %+v", orders[0].EndDate)
	}

	products, err := repo.ListActive(ctx, domain.DiscountTypeProduct)
	if err != nil {
		t.Fatalf("ListActive products: %v", err)
	}
	if len(products) != 1 || len(products[0].ProductIDs) != 1 || products[0].ProductIDs[0] != "mug" {
		t.Fatalf("unexpected product discounts %+v", products)
	}
}
