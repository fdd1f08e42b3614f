package seed

import (
	"context"
	"errors"
	"testing"

	"storefront-cart/internal/domain"
)

type stubProducts struct {
	ids []string
	err error
}

func (s *stubProducts) Upsert(_ context.Context, p domain.Product) (*domain.Product, error) {
	if s.err != nil {
		return nil, s.err
	}
	s.ids = append(s.ids, p.ID)
	return &p, nil
}

type stubDiscounts struct {
	ids []string
}

func (s *stubDiscounts) Upsert(_ context.Context, d domain.Discount) error {
	s.ids = append(s.ids, d.ID)
	return nil
}

func TestApply(t *testing.T) {
	products := &stubProducts{}
	discounts := &stubDiscounts{}
	if err := Apply(context.Background(), products, discounts); err != nil {
		t.Fatalf("apply: %v", err)
	}
	if len(products.ids) != len(Products) || len(discounts.ids) != len(Discounts) {
		t.Fatalf("unexpected counts: %d products, %d discounts", len(products.ids), len(discounts.ids))
	}
}

func TestApplyWithoutDiscounts(t *testing.T) {
	products := &stubProducts{}
	if err := Apply(context.Background(), products, nil); err != nil {
		t.Fatalf("apply: %v", err)
	}
	if len(products.ids) != len(Products) {
		t.Fatalf("expected products to be seeded")
	}
}

func TestApplyProductError(t *testing.T) {
	err := Apply(context.Background(), &stubProducts{err: errors.New("boom")}, &stubDiscounts{})
	if err == nil {
		t.Fatalf("expected error")
	}
}

func TestProductDiscountsReferenceSeededProducts(t *testing.T) {
	known := map[string]bool{}
	for _, p := range Products {
		known[p.ID] = true
	}
	for _, d := range Discounts {
		for _, id := range d.ProductIDs {
			if !known[id] {
				t.Fatalf("discount %s references unknown product %s", d.ID, id)
			}
		}
	}
}
