package product

import (
	"context"
	"fmt"
	"strings"

	"github.com/benbjohnson/clock"

	"storefront-cart/internal/domain"
	cartsvc "storefront-cart/internal/service/cart"
	discountsvc "storefront-cart/internal/service/discount"
)

type productRepo interface {
	List(ctx context.Context) ([]domain.Product, error)
	GetByID(ctx context.Context, id string) (*domain.Product, error)
}

type discountRepo interface {
	ListActive(ctx context.Context, discountType domain.DiscountType) ([]domain.Discount, error)
}

// Service resolves catalog products into cart line snapshots.
type Service struct {
	repo      productRepo
	discounts discountRepo
	clock     clock.Clock
}

func New(repo productRepo, discounts discountRepo, clk clock.Clock) *Service {
	if clk == nil {
		clk = clock.New()
	}
	return &Service{repo: repo, discounts: discounts, clock: clk}
}

func (s *Service) List(ctx context.Context) ([]domain.Product, error) {
	return s.repo.List(ctx)
}

func (s *Service) Get(ctx context.Context, id string) (*domain.Product, error) {
	return s.repo.GetByID(ctx, id)
}

// PrepareLine snapshots the product's name, price and image together with the best
// product discount active right now.
func (s *Service) PrepareLine(ctx context.Context, productID string, quantity int) (cartsvc.AddItemInput, error) {
	productID = strings.TrimSpace(productID)
	if productID == "" {
		return cartsvc.AddItemInput{}, fmt.Errorf("%w: productId required", domain.ErrInvalidItem)
	}
	p, err := s.repo.GetByID(ctx, productID)
	if err != nil {
		return cartsvc.AddItemInput{}, err
	}

	in := cartsvc.AddItemInput{
		ProductID:   p.ID,
		ProductName: p.Name,
		UnitPrice:   p.PriceCents,
		Quantity:    quantity,
		ImageURL:    p.ImageURL,
	}
	if s.discounts == nil {
		return in, nil
	}
	discounts, err := s.discounts.ListActive(ctx, domain.DiscountTypeProduct)
	if err != nil {
		return cartsvc.AddItemInput{}, fmt.Errorf("list product discounts: %w", err)
	}
	if best := discountsvc.BestForProduct(discounts, p.ID, s.clock.Now()); best != nil {
		in.DiscountPercentage = best.Percentage
		in.AppliedDiscountID = best.ID
		in.AppliedDiscountSource = discountsvc.SourceProductDiscount
	}
	return in, nil
}
