package domain

import "time"

// DiscountType distinguishes order-level discounts from per-product ones.
type DiscountType string

const (
	DiscountTypeOrder   DiscountType = "order"
	DiscountTypeProduct DiscountType = "product"
)

// Discount is a read-only promotion document supplied by the discount store.
type Discount struct {
	ID                string       `json:"id" bson:"_id"`
	Name              string       `json:"name" bson:"name"`
	Type              DiscountType `json:"type" bson:"type"`
	Percentage        float64      `json:"percentage" bson:"percentage"`
	MinPurchaseAmount int64        `json:"minPurchaseAmount,omitempty" bson:"minPurchaseAmount,omitempty"`
	IsActive          bool         `json:"isActive" bson:"isActive"`
	StartDate         *time.Time   `json:"startDate,omitempty" bson:"startDate,omitempty"`
	EndDate           *time.Time   `json:"endDate,omitempty" bson:"endDate,omitempty"`
	ProductIDs        []string     `json:"productIds,omitempty" bson:"productIds,omitempty"`
}

// ActiveAt reports whether the discount is enabled and now falls inside its window.
// A nil bound leaves that side of the window open.
func (d Discount) ActiveAt(now time.Time) bool {
	if !d.IsActive {
		return false
	}
	if d.StartDate != nil && now.Before(*d.StartDate) {
		return false
	}
	if d.EndDate != nil && now.After(*d.EndDate) {
		return false
	}
	return true
}

// AppliesTo reports whether a product discount covers productID.
func (d Discount) AppliesTo(productID string) bool {
	for _, id := range d.ProductIDs {
		if id == productID {
			return true
		}
	}
	return false
}
