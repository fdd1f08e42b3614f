package domain

import "errors"

var (
	// ErrNotFound indicates the requested entity was not found.
	ErrNotFound = errors.New("not found")
	// ErrInvalidQuantity is returned when an item is added with a quantity below one.
	ErrInvalidQuantity = errors.New("quantity must be at least 1")
	// ErrInvalidItem is returned for malformed line item input other than quantity.
	ErrInvalidItem = errors.New("invalid cart item")
)
