// Package queue publishes lead events to RabbitMQ.
package queue

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"time"

	"github.com/e5digital/leads-bfa-go/internal/domain"

	amqp "github.com/rabbitmq/amqp091-go"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.uber.org/zap"
)

var tracer = otel.Tracer("queue")

// DefaultExchange is the topic exchange lead events go to. The routing key is
// the event type, e.g. "lead.captured".
const DefaultExchange = "ex.leads"

// Publisher implements port.LeadEventPublisher over one AMQP channel.
type Publisher struct {
	conn     *amqp.Connection
	ch       *amqp.Channel
	exchange string
	mu       sync.Mutex
	logger   *zap.Logger
}

// NewPublisher dials url and declares the durable topic exchange.
func NewPublisher(url, exchange string, logger *zap.Logger) (*Publisher, error) {
	if exchange == "" {
		exchange = DefaultExchange
	}

	conn, err := amqp.Dial(url)
	if err != nil {
		return nil, fmt.Errorf("connect rabbitmq: %w", err)
	}

	ch, err := conn.Channel()
	if err != nil {
		_ = conn.Close()
		return nil, fmt.Errorf("open channel: %w", err)
	}

	if err := ch.ExchangeDeclare(exchange, "topic", true, false, false, false, nil); err != nil {
		_ = conn.Close()
		return nil, fmt.Errorf("declare exchange %s: %w", exchange, err)
	}

	return &Publisher{conn: conn, ch: ch, exchange: exchange, logger: logger}, nil
}

// Publish sends ev as a persistent JSON message.
func (p *Publisher) Publish(ctx context.Context, ev *domain.LeadEvent) error {
	ctx, span := tracer.Start(ctx, "RabbitMQ.Publish")
	defer span.End()
	span.SetAttributes(attribute.String("event.type", string(ev.Type)))

	msg, err := newPublishing(ev)
	if err != nil {
		return err
	}

	p.mu.Lock()
	defer p.mu.Unlock()

	if err := p.ch.PublishWithContext(ctx, p.exchange, string(ev.Type), false, false, msg); err != nil {
		return fmt.Errorf("publish %s: %w", ev.Type, err)
	}

	p.logger.Debug("lead event published",
		zap.String("exchange", p.exchange),
		zap.String("routing_key", string(ev.Type)),
		zap.Strings("lead_ids", ev.LeadIDs),
	)
	return nil
}

// Healthy reports whether the connection is still open.
func (p *Publisher) Healthy() bool {
	return p.conn != nil && !p.conn.IsClosed()
}

// Close closes channel and connection.
func (p *Publisher) Close() error {
	p.mu.Lock()
	defer p.mu.Unlock()

	if err := p.ch.Close(); err != nil {
		p.logger.Warn("rabbitmq: channel close failed", zap.Error(err))
	}
	return p.conn.Close()
}

func newPublishing(ev *domain.LeadEvent) (amqp.Publishing, error) {
	body, err := json.Marshal(ev)
	if err != nil {
		return amqp.Publishing{}, fmt.Errorf("encode %s event: %w", ev.Type, err)
	}
	ts := ev.OccurredAt
	if ts.IsZero() {
		ts = time.Now()
	}
	return amqp.Publishing{
		ContentType:  "application/json",
		Type:         string(ev.Type),
		Timestamp:    ts,
		Body:         body,
		DeliveryMode: amqp.Persistent,
	}, nil
}

// Noop discards events. Used when RABBITMQ_URL is not set.
type Noop struct{}

// Publish does nothing.
func (Noop) Publish(context.Context, *domain.LeadEvent) error { return nil }
