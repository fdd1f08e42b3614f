package product

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/benbjohnson/clock"

	"storefront-cart/internal/domain"
)

type stubProductRepo struct {
	product *domain.Product
	err     error
	lastID  string
}

func (s *stubProductRepo) List(_ context.Context) ([]domain.Product, error) {
	if s.product == nil {
		return nil, s.err
	}
	return []domain.Product{*s.product}, s.err
}

func (s *stubProductRepo) GetByID(_ context.Context, id string) (*domain.Product, error) {
	s.lastID = id
	return s.product, s.err
}

type stubDiscountRepo struct {
	discounts []domain.Discount
	err       error
	lastType  domain.DiscountType
}

func (s *stubDiscountRepo) ListActive(_ context.Context, t domain.DiscountType) ([]domain.Discount, error) {
	s.lastType = t
	return s.discounts, s.err
}

func fixedClock() clock.Clock {
	mock := clock.NewMock()
	mock.Set(time.Date(2026, 10, 19, 9, 0, 0, 0, time.UTC))
	return mock
}

func TestPrepareLineSnapshotsProductAndDiscount(t *testing.T) {
	products := &stubProductRepo{product: &domain.Product{ID: "mug", Name: "Mug", PriceCents: 1299, ImageURL: "https://img/mug.jpg"}}
	discounts := &stubDiscountRepo{discounts: []domain.Discount{
		{ID: "mug-10", Type: domain.DiscountTypeProduct, Percentage: 10, IsActive: true, ProductIDs: []string{"mug"}},
		{ID: "mug-25", Type: domain.DiscountTypeProduct, Percentage: 25, IsActive: true, ProductIDs: []string{"mug"}},
		{ID: "plates", Type: domain.DiscountTypeProduct, Percentage: 50, IsActive: true, ProductIDs: []string{"plate"}},
	}}
	svc := New(products, discounts, fixedClock())

	in, err := svc.PrepareLine(context.Background(), " mug ", 2)
	if err != nil {
		t.Fatalf("PrepareLine: %v", err)
	}
	if products.lastID != "mug" {
		t.Fatalf("expected trimmed product id, got %q", products.lastID)
	}
	if discounts.lastType != domain.DiscountTypeProduct {
		t.Fatalf("expected product discounts to be queried, got %q", discounts.lastType)
	}
	if in.ProductName != "Mug" || in.UnitPrice != 1299 || in.ImageURL != "https://img/mug.jpg" || in.Quantity != 2 {
		t.Fatalf("unexpected snapshot %+v", in)
	}
	if in.DiscountPercentage != 25 || in.AppliedDiscountID != "mug-25" || in.AppliedDiscountSource != "product_discount" {
		t.Fatalf("unexpected discount snapshot %+v", in)
	}
}

func TestPrepareLineWithoutDiscount(t *testing.T) {
	products := &stubProductRepo{product: &domain.Product{ID: "mug", Name: "Mug", PriceCents: 500}}
	svc := New(products, &stubDiscountRepo{}, fixedClock())

	in, err := svc.PrepareLine(context.Background(), "mug", 1)
	if err != nil {
		t.Fatalf("PrepareLine: %v", err)
	}
	if in.DiscountPercentage != 0 || in.AppliedDiscountID != "" || in.AppliedDiscountSource != "" {
		t.Fatalf("expected no discount, got %+v", in)
	}
}

func TestPrepareLineErrors(t *testing.T) {
	svc := New(&stubProductRepo{err: domain.ErrNotFound}, nil, fixedClock())
	if _, err := svc.PrepareLine(context.Background(), "missing", 1); !errors.Is(err, domain.ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
	if _, err := svc.PrepareLine(context.Background(), "  ", 1); !errors.Is(err, domain.ErrInvalidItem) {
		t.Fatalf("expected ErrInvalidItem, got %v", err)
	}

	products := &stubProductRepo{product: &domain.Product{ID: "mug", PriceCents: 500}}
	svc = New(products, &stubDiscountRepo{err: errors.New("timeout")}, fixedClock())
	if _, err := svc.PrepareLine(context.Background(), "mug", 1); err == nil {
		t.Fatalf("expected discount lookup error")
	}
}
