package domain

import "github.com/shopspring/decimal"

var hundred = decimal.NewFromInt(100)

// DiscountedUnitPrice applies percentage to unitPrice, rounding half away from zero.
// OrderDiscountAmount uses the same rule so both paths agree on every cent.
func DiscountedUnitPrice(unitPrice int64, percentage float64) int64 {
	if percentage <= 0 {
		return unitPrice
	}
	keep := hundred.Sub(decimal.NewFromFloat(percentage))
	return decimal.NewFromInt(unitPrice).Mul(keep).Div(hundred).Round(0).IntPart()
}

// OrderDiscountAmount is round(subtotal × percentage / 100).
func OrderDiscountAmount(subtotal int64, percentage float64) int64 {
	if percentage <= 0 || subtotal <= 0 {
		return 0
	}
	return decimal.NewFromInt(subtotal).Mul(decimal.NewFromFloat(percentage)).Div(hundred).Round(0).IntPart()
}
