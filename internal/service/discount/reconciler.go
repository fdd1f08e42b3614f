package discount

import (
	"context"
	"fmt"
	"io"
	"log"
	"sync"
	"time"

	"github.com/benbjohnson/clock"

	"storefront-cart/internal/domain"
)

type cartStore interface {
	Snapshot() domain.Cart
	SetAppliedOrderDiscount(id, name string, percentage float64, amount int64) domain.Cart
	Subscribe(fn func(domain.Cart)) func()
}

type discountRepo interface {
	ListActive(ctx context.Context, discountType domain.DiscountType) ([]domain.Discount, error)
}

// Reconciler keeps the cart's applied order discount in line with the current subtotal
// and candidate set. It compares both the winning id and the recomputed amount, so a
// subtotal change under the same winner still refreshes the amount.
type Reconciler struct {
	store  cartStore
	repo   discountRepo
	clock  clock.Clock
	logger *log.Logger

	mu         sync.Mutex
	candidates []domain.Discount
	running    bool
	dirty      bool
	epoch      uint64
	idle       *sync.Cond
}

func NewReconciler(store cartStore, repo discountRepo, clk clock.Clock, logger *log.Logger) *Reconciler {
	if clk == nil {
		clk = clock.New()
	}
	if logger == nil {
		logger = log.New(io.Discard, "", 0)
	}
	r := &Reconciler{store: store, repo: repo, clock: clk, logger: logger}
	r.idle = sync.NewCond(&r.mu)
	return r
}

// SetCandidates replaces the candidate set and re-evaluates the applied discount.
func (r *Reconciler) SetCandidates(discounts []domain.Discount) domain.Cart {
	cp := make([]domain.Discount, len(discounts))
	copy(cp, discounts)

	r.mu.Lock()
	r.candidates = cp
	r.mu.Unlock()

	return r.Reconcile()
}

// Candidates returns a copy of the current candidate set.
func (r *Reconciler) Candidates() []domain.Discount {
	r.mu.Lock()
	defer r.mu.Unlock()
	cp := make([]domain.Discount, len(r.candidates))
	copy(cp, r.candidates)
	return cp
}

// Reconcile re-runs SelectBest against the current subtotal and updates the store only
// when the winning id or the computed amount differ from what is applied. A call made
// while another pass is running marks the state dirty and waits for the running pass,
// which repeats, so the returned cart reflects the candidates set before the call.
// Reconcile must not be called from a cart listener; Watch uses a non-blocking request.
func (r *Reconciler) Reconcile() domain.Cart {
	return r.reconcile(true)
}

func (r *Reconciler) reconcile(wait bool) domain.Cart {
	r.mu.Lock()
	if r.running {
		r.dirty = true
		if wait {
			epoch := r.epoch
			for r.epoch == epoch {
				r.idle.Wait()
			}
		}
		r.mu.Unlock()
		return r.store.Snapshot()
	}
	r.running = true
	r.mu.Unlock()

	for {
		snap := r.pass()
		r.mu.Lock()
		if !r.dirty {
			r.running = false
			r.epoch++
			r.idle.Broadcast()
			r.mu.Unlock()
			return snap
		}
		r.dirty = false
		r.mu.Unlock()
	}
}

func (r *Reconciler) pass() domain.Cart {
	snap := r.store.Snapshot()
	best := SelectBest(r.Candidates(), snap.ItemsSubtotal, r.clock.Now())
	current := snap.AppliedOrderDiscount

	if best == nil {
		if current == nil {
			return snap
		}
		r.logger.Printf("discount reconciler: clearing id=%s subtotal=%d", current.ID, snap.ItemsSubtotal)
		return r.store.SetAppliedOrderDiscount("", "", 0, 0)
	}

	amount := domain.OrderDiscountAmount(snap.ItemsSubtotal, best.Percentage)
	if current != nil && current.ID == best.ID && current.Amount == amount {
		return snap
	}
	r.logger.Printf("discount reconciler: applying id=%s percentage=%v amount=%d subtotal=%d", best.ID, best.Percentage, amount, snap.ItemsSubtotal)
	return r.store.SetAppliedOrderDiscount(best.ID, best.Name, best.Percentage, amount)
}

// Watch re-runs the rule whenever the cart subtotal changes. The returned function
// stops watching.
func (r *Reconciler) Watch() func() {
	var (
		mu   sync.Mutex
		last int64 = -1
	)
	return r.store.Subscribe(func(c domain.Cart) {
		mu.Lock()
		changed := c.ItemsSubtotal != last
		last = c.ItemsSubtotal
		mu.Unlock()
		if changed {
			r.reconcile(false)
		}
	})
}

// Refresh reloads active order discounts from the repository and reconciles.
func (r *Reconciler) Refresh(ctx context.Context) error {
	if r.repo == nil {
		return nil
	}
	discounts, err := r.repo.ListActive(ctx, domain.DiscountTypeOrder)
	if err != nil {
		r.logger.Printf("discount reconciler: refresh error=%v", err)
		return fmt.Errorf("list order discounts: %w", err)
	}
	r.SetCandidates(discounts)
	r.logger.Printf("discount reconciler: refreshed candidates=%d", len(discounts))
	return nil
}

// Run refreshes on every interval until ctx is done. Refresh failures keep the
// previous candidate set.
func (r *Reconciler) Run(ctx context.Context, interval time.Duration) {
	ticker := r.clock.Ticker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			_ = r.Refresh(ctx)
		}
	}
}
