package cart

import (
	"errors"
	"fmt"
	"io"
	"log"
	"strings"
	"sync"

	"github.com/go-playground/validator/v10"

	"storefront-cart/internal/domain"
)

// Flusher persists cart snapshots. ScheduleFlush must not block on I/O.
type Flusher interface {
	ScheduleFlush(cart domain.Cart)
}

// Store is the single writer of the cart. Every mutation recomputes the subtotal under
// the same lock that changes the items, then schedules a persistence flush.
type Store struct {
	mu       sync.RWMutex
	cart     domain.Cart
	flusher  Flusher
	validate *validator.Validate
	logger   *log.Logger

	subMu      sync.Mutex
	listeners  []subscription
	nextSubID  int
	delivering bool
	queued     bool
}

type subscription struct {
	id int
	fn func(domain.Cart)
}

// AddItemInput carries the product snapshot taken when the item is added.
type AddItemInput struct {
	ProductID             string  `json:"productId" validate:"required"`
	ProductName           string  `json:"productName"`
	UnitPrice             int64   `json:"unitPrice" validate:"gte=0,lte=100000000000"`
	DiscountPercentage    float64 `json:"discountPercentage" validate:"gte=0,lte=100"`
	Quantity              int     `json:"quantity" validate:"gte=1,lte=9999"`
	ImageURL              string  `json:"imageUrl"`
	AppliedDiscountID     string  `json:"appliedDiscountId,omitempty"`
	AppliedDiscountSource string  `json:"appliedDiscountSource,omitempty"`
}

func New(flusher Flusher, logger *log.Logger) *Store {
	if logger == nil {
		logger = log.New(io.Discard, "", 0)
	}
	return &Store{
		cart:     domain.EmptyCart(),
		flusher:  flusher,
		validate: validator.New(),
		logger:   logger,
	}
}

// AddItem merges into the existing line for the product or appends a new one.
// On merge only quantity and the discount fields change. A merge that would take the
// line past domain.MaxLineQuantity is rejected with ErrInvalidQuantity.
func (s *Store) AddItem(in AddItemInput) (domain.Cart, error) {
	in.ProductID = strings.TrimSpace(in.ProductID)
	if err := s.validateAdd(in); err != nil {
		return s.Snapshot(), err
	}

	var mergeErr error
	snap := s.mutate(func(c *domain.Cart) bool {
		if idx := indexOf(c.Items, in.ProductID); idx >= 0 {
			line := &c.Items[idx]
			if line.Quantity+in.Quantity > domain.MaxLineQuantity {
				mergeErr = fmt.Errorf("%w: %d + %d exceeds %d", domain.ErrInvalidQuantity, line.Quantity, in.Quantity, domain.MaxLineQuantity)
				return false
			}
			line.Quantity += in.Quantity
			line.DiscountPercentage = in.DiscountPercentage
			line.DiscountedUnitPrice = domain.DiscountedUnitPrice(line.UnitPrice, in.DiscountPercentage)
			line.AppliedDiscountID = in.AppliedDiscountID
			line.AppliedDiscountSource = in.AppliedDiscountSource
			return true
		}
		c.Items = append(c.Items, domain.CartLineItem{
			ProductID:             in.ProductID,
			ProductName:           in.ProductName,
			ImageURL:              in.ImageURL,
			Quantity:              in.Quantity,
			UnitPrice:             in.UnitPrice,
			DiscountPercentage:    in.DiscountPercentage,
			DiscountedUnitPrice:   domain.DiscountedUnitPrice(in.UnitPrice, in.DiscountPercentage),
			AppliedDiscountID:     in.AppliedDiscountID,
			AppliedDiscountSource: in.AppliedDiscountSource,
		})
		return true
	})
	return snap, mergeErr
}

// UpdateItem sets the absolute quantity; zero or less removes the line and values
// above domain.MaxLineQuantity are clamped to it. Unknown products are ignored.
func (s *Store) UpdateItem(productID string, quantity int) domain.Cart {
	quantity = min(quantity, domain.MaxLineQuantity)
	return s.mutate(func(c *domain.Cart) bool {
		idx := indexOf(c.Items, productID)
		if idx < 0 {
			return false
		}
		if quantity <= 0 {
			c.Items = removeAt(c.Items, idx)
			return true
		}
		c.Items[idx].Quantity = quantity
		return true
	})
}

// RemoveItem drops the line for productID if present.
func (s *Store) RemoveItem(productID string) domain.Cart {
	return s.mutate(func(c *domain.Cart) bool {
		idx := indexOf(c.Items, productID)
		if idx < 0 {
			return false
		}
		c.Items = removeAt(c.Items, idx)
		return true
	})
}

// Clear empties the cart and drops the order discount.
func (s *Store) Clear() domain.Cart {
	return s.mutate(func(c *domain.Cart) bool {
		*c = domain.EmptyCart()
		return true
	})
}

// SetAppliedOrderDiscount overwrites the applied order discount as given. An empty id
// clears it. The amount is stored as passed.
func (s *Store) SetAppliedOrderDiscount(id, name string, percentage float64, amount int64) domain.Cart {
	return s.mutate(func(c *domain.Cart) bool {
		if id == "" {
			c.AppliedOrderDiscount = nil
			return true
		}
		c.AppliedOrderDiscount = &domain.AppliedOrderDiscount{
			ID:         id,
			Name:       name,
			Percentage: percentage,
			Amount:     amount,
		}
		return true
	})
}

// Snapshot returns a copy of the cart that callers may keep or modify.
func (s *Store) Snapshot() domain.Cart {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.cart.Clone()
}

// Hydrate replaces the cart with a loaded snapshot without scheduling a flush.
// Lines with a quantity below one are dropped, duplicate products are merged and
// derived prices are recomputed.
func (s *Store) Hydrate(loaded domain.Cart) domain.Cart {
	items := make([]domain.CartLineItem, 0, len(loaded.Items))
	for _, it := range loaded.Items {
		if it.ProductID == "" || it.Quantity < 1 || it.UnitPrice < 0 || it.UnitPrice > domain.MaxUnitPrice {
			s.logger.Printf("cart store: hydrate dropping line product_id=%q quantity=%d unit_price=%d", it.ProductID, it.Quantity, it.UnitPrice)
			continue
		}
		if idx := indexOf(items, it.ProductID); idx >= 0 {
			items[idx].Quantity = min(items[idx].Quantity+it.Quantity, domain.MaxLineQuantity)
			continue
		}
		it.Quantity = min(it.Quantity, domain.MaxLineQuantity)
		it.DiscountedUnitPrice = domain.DiscountedUnitPrice(it.UnitPrice, it.DiscountPercentage)
		items = append(items, it)
	}

	s.mu.Lock()
	s.cart = domain.Cart{Items: items, ItemsSubtotal: domain.Subtotal(items)}
	if loaded.AppliedOrderDiscount != nil {
		d := *loaded.AppliedOrderDiscount
		s.cart.AppliedOrderDiscount = &d
	}
	snap := s.cart.Clone()
	s.mu.Unlock()

	s.notify()
	return snap
}

// Subscribe registers fn for change notifications and returns a function that
// removes it. Listeners always receive the latest cart, one delivery round at a time.
// A change made while a round is running, including one made by a listener, is
// delivered in a following round by the goroutine already delivering, so the last
// snapshot every listener sees is the current state. When no other round is in
// flight the mutating goroutine delivers before its mutation returns.
func (s *Store) Subscribe(fn func(domain.Cart)) func() {
	s.subMu.Lock()
	s.nextSubID++
	id := s.nextSubID
	s.listeners = append(s.listeners, subscription{id: id, fn: fn})
	s.subMu.Unlock()

	return func() {
		s.subMu.Lock()
		defer s.subMu.Unlock()
		for i, sub := range s.listeners {
			if sub.id == id {
				s.listeners = append(s.listeners[:i:i], s.listeners[i+1:]...)
				return
			}
		}
	}
}

// mutate applies fn under the write lock. When fn reports a change the subtotal is
// recomputed and the flush is scheduled before the lock is released, so persisted
// snapshots follow mutation order.
func (s *Store) mutate(fn func(c *domain.Cart) bool) domain.Cart {
	s.mu.Lock()
	changed := fn(&s.cart)
	if changed {
		s.cart.ItemsSubtotal = domain.Subtotal(s.cart.Items)
	}
	snap := s.cart.Clone()
	if changed && s.flusher != nil {
		s.flusher.ScheduleFlush(snap.Clone())
	}
	s.mu.Unlock()

	if changed {
		s.notify()
	}
	return snap
}

// notify queues a delivery round. Only one goroutine delivers at a time; it keeps
// running rounds until no change is queued, taking a fresh snapshot for each.
func (s *Store) notify() {
	s.subMu.Lock()
	s.queued = true
	if s.delivering {
		s.subMu.Unlock()
		return
	}
	s.delivering = true
	s.subMu.Unlock()

	done := false
	defer func() {
		if !done {
			// a listener panicked; let the next change deliver again
			s.subMu.Lock()
			s.delivering = false
			s.subMu.Unlock()
		}
	}()

	for {
		s.subMu.Lock()
		if !s.queued {
			s.delivering = false
			s.subMu.Unlock()
			done = true
			return
		}
		s.queued = false
		listeners := make([]subscription, len(s.listeners))
		copy(listeners, s.listeners)
		s.subMu.Unlock()

		snap := s.Snapshot()
		for _, sub := range listeners {
			sub.fn(snap.Clone())
		}
	}
}

func (s *Store) validateAdd(in AddItemInput) error {
	err := s.validate.Struct(in)
	if err == nil {
		return nil
	}
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return fmt.Errorf("%w: %v", domain.ErrInvalidItem, err)
	}
	for _, fe := range verrs {
		if fe.Field() == "Quantity" {
			return fmt.Errorf("%w: got %d", domain.ErrInvalidQuantity, in.Quantity)
		}
	}
	fe := verrs[0]
	return fmt.Errorf("%w: %s failed %s", domain.ErrInvalidItem, fe.Field(), fe.Tag())
}

func indexOf(items []domain.CartLineItem, productID string) int {
	for i := range items {
		if items[i].ProductID == productID {
			return i
		}
	}
	return -1
}

func removeAt(items []domain.CartLineItem, idx int) []domain.CartLineItem {
	out := make([]domain.CartLineItem, 0, len(items)-1)
	out = append(out, items[:idx]...)
	return append(out, items[idx+1:]...)
}
