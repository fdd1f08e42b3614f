package events

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log"
	"time"

	"github.com/google/uuid"
	amqp "github.com/rabbitmq/amqp091-go"

	"storefront-cart/internal/domain"
)

const TypeCartUpdated = "cart.updated"

// CartEvent is the message body published for every cart change.
type CartEvent struct {
	ID         string      `json:"id"`
	Type       string      `json:"type"`
	OccurredAt time.Time   `json:"occurredAt"`
	Cart       domain.Cart `json:"cart"`
}

type channel interface {
	PublishWithContext(ctx context.Context, exchange, key string, mandatory, immediate bool, msg amqp.Publishing) error
}

// Publisher forwards cart snapshots to a queue. Enqueue never blocks; when the buffer
// is full the snapshot is dropped and logged.
type Publisher struct {
	ch      channel
	queue   string
	logger  *log.Logger
	timeout time.Duration
	buf     chan domain.Cart
	now     func() time.Time
}

func NewPublisher(ch channel, queue string, bufferSize int, logger *log.Logger) *Publisher {
	if logger == nil {
		logger = log.New(io.Discard, "", 0)
	}
	if bufferSize <= 0 {
		bufferSize = 64
	}
	return &Publisher{
		ch:      ch,
		queue:   queue,
		logger:  logger,
		timeout: 5 * time.Second,
		buf:     make(chan domain.Cart, bufferSize),
		now:     time.Now,
	}
}

// Dial connects to RabbitMQ and declares the durable queue. The returned function
// closes the channel and connection.
func Dial(url, queue string, logger *log.Logger) (*Publisher, func(), error) {
	conn, err := amqp.Dial(url)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to connect to RabbitMQ: %w", err)
	}
	ch, err := conn.Channel()
	if err != nil {
		conn.Close()
		return nil, nil, fmt.Errorf("failed to open channel: %w", err)
	}
	if _, err := ch.QueueDeclare(queue, true, false, false, false, nil); err != nil {
		ch.Close()
		conn.Close()
		return nil, nil, fmt.Errorf("failed to declare queue %s: %w", queue, err)
	}
	closeFn := func() {
		ch.Close()
		conn.Close()
	}
	return NewPublisher(ch, queue, 0, logger), closeFn, nil
}

// Enqueue buffers a snapshot for publishing. It has the cart listener signature.
func (p *Publisher) Enqueue(cart domain.Cart) {
	select {
	case p.buf <- cart:
	default:
		p.logger.Printf("events: buffer full, dropping cart snapshot subtotal=%d", cart.ItemsSubtotal)
	}
}

// Run publishes buffered snapshots until ctx is done.
func (p *Publisher) Run(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			return
		case cart := <-p.buf:
			if err := p.Publish(ctx, cart); err != nil {
				p.logger.Printf("events: publish error=%v", err)
			}
		}
	}
}

// Publish sends one cart.updated event.
func (p *Publisher) Publish(ctx context.Context, cart domain.Cart) error {
	evt := CartEvent{
		ID:         uuid.NewString(),
		Type:       TypeCartUpdated,
		OccurredAt: p.now().UTC(),
		Cart:       cart,
	}
	body, err := json.Marshal(evt)
	if err != nil {
		return fmt.Errorf("failed to marshal event: %w", err)
	}

	ctx, cancel := context.WithTimeout(ctx, p.timeout)
	defer cancel()

	err = p.ch.PublishWithContext(ctx, "", p.queue, false, false, amqp.Publishing{
		DeliveryMode: amqp.Persistent,
		ContentType:  "application/json",
		MessageId:    evt.ID,
		Type:         evt.Type,
		Timestamp:    evt.OccurredAt,
		Body:         body,
	})
	if err != nil {
		return fmt.Errorf("failed to publish event: %w", err)
	}
	return nil
}
