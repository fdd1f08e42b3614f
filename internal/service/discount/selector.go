package discount

import (
	"time"

	"storefront-cart/internal/domain"
)

// SourceProductDiscount marks a line discount that came from a product promotion.
const SourceProductDiscount = "product_discount"

// SelectBest returns the order discount with the highest percentage among those that
// are active at now and whose minimum purchase is covered by subtotal. Ties keep the
// earliest candidate. It returns nil when nothing is eligible.
func SelectBest(discounts []domain.Discount, subtotal int64, now time.Time) *domain.Discount {
	var best *domain.Discount
	for i := range discounts {
		d := discounts[i]
		if d.Type != "" && d.Type != domain.DiscountTypeOrder {
			continue
		}
		if !d.ActiveAt(now) {
			continue
		}
		if subtotal < d.MinPurchaseAmount {
			continue
		}
		if best == nil || d.Percentage > best.Percentage {
			picked := d
			best = &picked
		}
	}
	return best
}

// BestForProduct returns the highest product discount covering productID, or nil.
func BestForProduct(discounts []domain.Discount, productID string, now time.Time) *domain.Discount {
	var best *domain.Discount
	for i := range discounts {
		d := discounts[i]
		if d.Type != domain.DiscountTypeProduct || !d.AppliesTo(productID) || !d.ActiveAt(now) {
			continue
		}
		if best == nil || d.Percentage > best.Percentage {
			picked := d
			best = &picked
		}
	}
	return best
}
