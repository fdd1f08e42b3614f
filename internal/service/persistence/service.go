package persistence

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log"
	"sync"
	"time"

	"github.com/benbjohnson/clock"

	"storefront-cart/internal/debounce"
	"storefront-cart/internal/domain"
	"storefront-cart/internal/repository/kv"
)

const (
	DefaultKey          = "storefront:cart"
	DefaultDebounce     = 500 * time.Millisecond
	DefaultWriteTimeout = 5 * time.Second
)

// Options tune the persistence adapter. Zero values fall back to the defaults.
type Options struct {
	Key          string
	Debounce     time.Duration
	WriteTimeout time.Duration
	Clock        clock.Clock
	Logger       *log.Logger
}

// Service writes cart snapshots to a key-value store. Scheduled writes are debounced
// and only the newest snapshot is written. Writes are serialized and a snapshot older
// than the last one written is dropped.
type Service struct {
	store        kv.Store
	key          string
	writeTimeout time.Duration
	timer        *debounce.Timer
	logger       *log.Logger

	mu      sync.Mutex
	seq     uint64
	pending *versioned

	writeMu sync.Mutex
	written uint64
}

type versioned struct {
	seq  uint64
	cart domain.Cart
}

func New(store kv.Store, opts Options) *Service {
	if opts.Key == "" {
		opts.Key = DefaultKey
	}
	if opts.Debounce <= 0 {
		opts.Debounce = DefaultDebounce
	}
	if opts.WriteTimeout <= 0 {
		opts.WriteTimeout = DefaultWriteTimeout
	}
	if opts.Logger == nil {
		opts.Logger = log.New(io.Discard, "", 0)
	}
	return &Service{
		store:        store,
		key:          opts.Key,
		writeTimeout: opts.WriteTimeout,
		timer:        debounce.New(opts.Clock, opts.Debounce),
		logger:       opts.Logger,
	}
}

// Load reads the persisted cart. A missing key, a read failure or a corrupt value all
// yield an empty cart; corrupt values are removed.
func (s *Service) Load(ctx context.Context) domain.Cart {
	raw, err := s.store.Get(ctx, s.key)
	if errors.Is(err, domain.ErrNotFound) {
		return domain.EmptyCart()
	}
	if err != nil {
		s.logger.Printf("cart persistence: load key=%s error=%v", s.key, err)
		return domain.EmptyCart()
	}

	cart, err := decode(raw)
	if err != nil {
		s.logger.Printf("cart persistence: load key=%s corrupt value: %v", s.key, err)
		if err := s.store.Remove(ctx, s.key); err != nil {
			s.logger.Printf("cart persistence: remove corrupt key=%s error=%v", s.key, err)
		}
		return domain.EmptyCart()
	}
	return cart
}

// ScheduleFlush queues cart for writing once the debounce delay passes without
// another call. It never blocks on storage.
func (s *Service) ScheduleFlush(cart domain.Cart) {
	s.mu.Lock()
	s.seq++
	s.pending = &versioned{seq: s.seq, cart: cart.Clone()}
	s.mu.Unlock()

	s.timer.Arm(s.flushPending)
}

// FlushNow cancels any pending debounced write and writes cart immediately.
func (s *Service) FlushNow(ctx context.Context, cart domain.Cart) error {
	s.timer.Cancel()

	s.mu.Lock()
	s.seq++
	v := versioned{seq: s.seq, cart: cart.Clone()}
	s.pending = nil
	s.mu.Unlock()

	return s.write(ctx, v)
}

// Close writes any snapshot still waiting for its debounce delay.
func (s *Service) Close(ctx context.Context) error {
	s.timer.Cancel()

	s.mu.Lock()
	v := s.pending
	s.pending = nil
	s.mu.Unlock()

	if v == nil {
		return nil
	}
	return s.write(ctx, *v)
}

// Pending reports whether a debounced write is waiting to fire.
func (s *Service) Pending() bool {
	return s.timer.Pending()
}

func (s *Service) flushPending() {
	s.mu.Lock()
	v := s.pending
	s.pending = nil
	s.mu.Unlock()

	if v == nil {
		return
	}
	ctx, cancel := context.WithTimeout(context.Background(), s.writeTimeout)
	defer cancel()
	// failure is already logged; the next mutation writes a newer snapshot
	_ = s.write(ctx, *v)
}

func (s *Service) write(ctx context.Context, v versioned) error {
	s.writeMu.Lock()
	defer s.writeMu.Unlock()

	if v.seq <= s.written {
		s.logger.Printf("cart persistence: skip stale snapshot seq=%d written=%d", v.seq, s.written)
		return nil
	}

	raw, err := json.Marshal(v.cart)
	if err != nil {
		s.logger.Printf("cart persistence: encode seq=%d error=%v", v.seq, err)
		return fmt.Errorf("encode cart: %w", err)
	}
	if err := s.store.Set(ctx, s.key, string(raw)); err != nil {
		s.logger.Printf("cart persistence: write key=%s seq=%d error=%v", s.key, v.seq, err)
		return fmt.Errorf("write cart: %w", err)
	}
	s.written = v.seq
	return nil
}

func decode(raw string) (domain.Cart, error) {
	var cart domain.Cart
	if err := json.Unmarshal([]byte(raw), &cart); err != nil {
		return domain.Cart{}, err
	}
	if cart.Items == nil {
		cart.Items = []domain.CartLineItem{}
	}
	return cart, nil
}
