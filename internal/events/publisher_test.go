package events

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"log"
	"sync"
	"testing"
	"time"

	amqp "github.com/rabbitmq/amqp091-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"storefront-cart/internal/domain"
)

type stubChannel struct {
	mu   sync.Mutex
	msgs []amqp.Publishing
	keys []string
	err  error
}

func (s *stubChannel) PublishWithContext(_ context.Context, exchange, key string, _, _ bool, msg amqp.Publishing) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.err != nil {
		return s.err
	}
	s.keys = append(s.keys, exchange+"/"+key)
	s.msgs = append(s.msgs, msg)
	return nil
}

func (s *stubChannel) count() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.msgs)
}

func TestPublishCartEvent(t *testing.T) {
	ch := &stubChannel{}
	pub := NewPublisher(ch, "cart-events", 1, nil)
	pub.now = func() time.Time { return time.Date(2026, 10, 19, 8, 0, 0, 0, time.UTC) }

	cart := domain.Cart{Items: []domain.CartLineItem{{ProductID: "P1", Quantity: 1, UnitPrice: 10, DiscountedUnitPrice: 10}}, ItemsSubtotal: 10}
	require.NoError(t, pub.Publish(context.Background(), cart))

	require.Len(t, ch.msgs, 1)
	msg := ch.msgs[0]
	assert.Equal(t, "/cart-events", ch.keys[0])
	assert.Equal(t, "application/json", msg.ContentType)
	assert.Equal(t, amqp.Persistent, msg.DeliveryMode)
	assert.Equal(t, TypeCartUpdated, msg.Type)

	var evt CartEvent
	require.NoError(t, json.Unmarshal(msg.Body, &evt))
	assert.Equal(t, msg.MessageId, evt.ID)
	assert.Equal(t, int64(10), evt.Cart.ItemsSubtotal)
	assert.True(t, evt.OccurredAt.Equal(pub.now()))
}

func TestPublishError(t *testing.T) {
	pub := NewPublisher(&stubChannel{err: errors.New("channel closed")}, "q", 1, nil)
	err := pub.Publish(context.Background(), domain.EmptyCart())
	assert.ErrorContains(t, err, "channel closed")
}

func TestEnqueueDropsWhenFull(t *testing.T) {
	var logs bytes.Buffer
	pub := NewPublisher(&stubChannel{}, "q", 1, log.New(&logs, "", 0))

	pub.Enqueue(domain.EmptyCart())
	pub.Enqueue(domain.EmptyCart())

	assert.Contains(t, logs.String(), "buffer full")
}

func TestRunDrainsBuffer(t *testing.T) {
	ch := &stubChannel{}
	pub := NewPublisher(ch, "q", 4, nil)
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go pub.Run(ctx)

	pub.Enqueue(domain.EmptyCart())
	pub.Enqueue(domain.EmptyCart())

	require.Eventually(t, func() bool { return ch.count() == 2 }, time.Second, 5*time.Millisecond)
}
