package queue

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/ordermeow/ordermeow/internal/logging"
	amqp "github.com/rabbitmq/amqp091-go"
)

type Publisher interface {
	PublishOrderCreated(ctx context.Context, event OrderCreatedEvent) error
	Close() error
}

// NopPublisher drops every event. It is used when no broker is configured.
type NopPublisher struct{}

func (NopPublisher) PublishOrderCreated(context.Context, OrderCreatedEvent) error { return nil }
func (NopPublisher) Close() error                                                 { return nil }

// channel is the part of *amqp.Channel the publisher uses.
type channel interface {
	QueueDeclare(name string, durable, autoDelete, exclusive, noWait bool, args amqp.Table) (amqp.Queue, error)
	PublishWithContext(ctx context.Context, exchange, key string, mandatory, immediate bool, msg amqp.Publishing) error
	Close() error
}

// AMQPPublisher publishes persistent JSON messages to a durable queue over a
// single connection. Channels are not safe for concurrent publishing, so
// publishes are serialized.
type AMQPPublisher struct {
	mu    sync.Mutex
	conn  *amqp.Connection
	ch    channel
	queue string
	log   logging.Logger
}

// DialAMQP connects to url and declares queue.
func DialAMQP(url, queue string, log logging.Logger) (*AMQPPublisher, error) {
	conn, err := amqp.Dial(url)
	if err != nil {
		return nil, fmt.Errorf("rabbitmq dial: %w", err)
	}
	ch, err := conn.Channel()
	if err != nil {
		_ = conn.Close()
		return nil, fmt.Errorf("rabbitmq channel open: %w", err)
	}
	p, err := newAMQPPublisher(ch, queue, log)
	if err != nil {
		_ = conn.Close()
		return nil, err
	}
	p.conn = conn
	return p, nil
}

func newAMQPPublisher(ch channel, queue string, log logging.Logger) (*AMQPPublisher, error) {
	if queue == "" {
		queue = DefaultOrderQueue
	}
	if log == nil {
		log = logging.NopLogger{}
	}
	if _, err := ch.QueueDeclare(queue, true, false, false, false, nil); err != nil {
		_ = ch.Close()
		return nil, fmt.Errorf("rabbitmq queue declare %q: %w", queue, err)
	}
	return &AMQPPublisher{ch: ch, queue: queue, log: log.With("module", "amqp_publisher")}, nil
}

func (p *AMQPPublisher) PublishOrderCreated(ctx context.Context, event OrderCreatedEvent) error {
	body, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("marshal event: %w", err)
	}

	msg := amqp.Publishing{
		ContentType:  "application/json",
		DeliveryMode: amqp.Persistent,
		Timestamp:    time.Now().UTC(),
		Type:         "OrderCreated",
		Body:         body,
	}

	p.mu.Lock()
	defer p.mu.Unlock()
	if err := p.ch.PublishWithContext(ctx, "", p.queue, false, false, msg); err != nil {
		p.log.Error(ctx, "publish failed", "queue", p.queue, "order_id", event.OrderID, "error", err)
		return fmt.Errorf("rabbitmq publish: %w", err)
	}
	p.log.Debug(ctx, "order event published", "queue", p.queue, "order_id", event.OrderID)
	return nil
}

func (p *AMQPPublisher) Close() error {
	p.mu.Lock()
	defer p.mu.Unlock()
	var errs []error
	if p.ch != nil {
		errs = append(errs, p.ch.Close())
	}
	if p.conn != nil {
		errs = append(errs, p.conn.Close())
	}
	return errors.Join(errs...)
}
