package discount

import (
	"context"

	"storefront-cart/internal/domain"
)

// Repository is the discount document store. ListActive returns the discounts of the
// given type whose isActive flag is set; date windows are checked by the caller.
type Repository interface {
	ListActive(ctx context.Context, discountType domain.DiscountType) ([]domain.Discount, error)
	Upsert(ctx context.Context, d domain.Discount) error
}
