package seed

import (
	"context"
	"fmt"

	"storefront-cart/internal/domain"
)

type ProductWriter interface {
	Upsert(ctx context.Context, product domain.Product) (*domain.Product, error)
}

type DiscountWriter interface {
	Upsert(ctx context.Context, d domain.Discount) error
}

// Products is the demo catalog.
var Products = []domain.Product{
	{ID: "demo-shirt", Name: "Demo T-Shirt", PriceCents: 1999, ImageURL: "https://images.example.com/demo-shirt.png"},
	{ID: "demo-mug", Name: "Demo Mug", PriceCents: 1299, ImageURL: "https://images.example.com/demo-mug.png"},
	{ID: "demo-sticker", Name: "Demo Sticker Pack", PriceCents: 499},
}

// Discounts holds demo order and product discounts.
var Discounts = []domain.Discount{
	{ID: "welcome-5", Name: "Welcome 5%", Type: domain.DiscountTypeOrder, Percentage: 5, IsActive: true},
	{ID: "basket-10", Name: "10% over 50.00", Type: domain.DiscountTypeOrder, Percentage: 10, MinPurchaseAmount: 5000, IsActive: true},
	{ID: "mug-20", Name: "Mug week", Type: domain.DiscountTypeProduct, Percentage: 20, IsActive: true, ProductIDs: []string{"demo-mug"}},
}

// Apply upserts the demo catalog and discounts. It is idempotent. A nil discount
// writer skips discounts.
func Apply(ctx context.Context, products ProductWriter, discounts DiscountWriter) error {
	for _, p := range Products {
		if _, err := products.Upsert(ctx, p); err != nil {
			return fmt.Errorf("upsert product %s: %w", p.ID, err)
		}
	}
	if discounts == nil {
		return nil
	}
	for _, d := range Discounts {
		if err := discounts.Upsert(ctx, d); err != nil {
			return fmt.Errorf("upsert discount %s: %w", d.ID, err)
		}
	}
	return nil
}
