package domain

// Cart is the device-local shopping cart. ItemsSubtotal is derived from Items and
// AppliedOrderDiscount is nil when no order-level discount applies.
type Cart struct {
	Items                []CartLineItem        `json:"items"`
	ItemsSubtotal        int64                 `json:"itemsSubtotal"`
	AppliedOrderDiscount *AppliedOrderDiscount `json:"appliedOrderDiscount,omitempty"`
}

// CartLineItem is one product line. Name, image and unit price are snapshots taken
// when the product was first added.
type CartLineItem struct {
	ProductID             string  `json:"productId"`
	ProductName           string  `json:"productName"`
	ImageURL              string  `json:"imageUrl"`
	Quantity              int     `json:"quantity"`
	UnitPrice             int64   `json:"unitPrice"`
	DiscountPercentage    float64 `json:"discountPercentage"`
	DiscountedUnitPrice   int64   `json:"discountedUnitPrice"`
	AppliedDiscountID     string  `json:"appliedDiscountId,omitempty"`
	AppliedDiscountSource string  `json:"appliedDiscountSource,omitempty"`
}

// AppliedOrderDiscount records the order discount in effect. Amount is a snapshot taken
// when the discount was applied.
type AppliedOrderDiscount struct {
	ID         string  `json:"id"`
	Name       string  `json:"name"`
	Percentage float64 `json:"percentage"`
	Amount     int64   `json:"amount"`
}

// Upper bounds for a single line. With at most MaxLineQuantity units priced at most
// MaxUnitPrice, a line total stays far below the int64 range.
const (
	MaxLineQuantity       = 9999
	MaxUnitPrice    int64 = 100_000_000_000
)

// EmptyCart returns a cart with no items and no discount.
func EmptyCart() Cart {
	return Cart{Items: []CartLineItem{}}
}

// Clone returns a deep copy that shares no memory with c.
func (c Cart) Clone() Cart {
	out := Cart{
		Items:         make([]CartLineItem, len(c.Items)),
		ItemsSubtotal: c.ItemsSubtotal,
	}
	copy(out.Items, c.Items)
	if c.AppliedOrderDiscount != nil {
		d := *c.AppliedOrderDiscount
		out.AppliedOrderDiscount = &d
	}
	return out
}

// Subtotal sums discounted unit price times quantity over all lines.
func Subtotal(items []CartLineItem) int64 {
	var total int64
	for _, it := range items {
		total += it.DiscountedUnitPrice * int64(it.Quantity)
	}
	return total
}

// TotalQuantity returns the number of units across all lines.
func (c Cart) TotalQuantity() int {
	n := 0
	for _, it := range c.Items {
		n += it.Quantity
	}
	return n
}

// Total is the subtotal minus the applied order discount, never negative.
func (c Cart) Total() int64 {
	total := c.ItemsSubtotal
	if c.AppliedOrderDiscount != nil {
		total -= c.AppliedOrderDiscount.Amount
	}
	if total < 0 {
		return 0
	}
	return total
}
