// Package events publishes account-lifecycle events to a RabbitMQ topic
// exchange for downstream consumers (notifications, analytics). Publishing
// is best effort everywhere: a broker outage never fails the calling flow.
package events

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	amqp "github.com/rabbitmq/amqp091-go"
)

// Routing keys for lifecycle events.
const (
	KeyAccountRegistered   = "account.registered"
	KeySellerVerified      = "seller.verified"
	KeySubscriptionUpdated = "subscription.updated"
	KeyAccountReaped       = "account.reaped"
)

// LifecycleEvent is the envelope published for every routing key.
type LifecycleEvent struct {
	Event      string `json:"event"`
	Version    int    `json:"version"`
	OccurredAt string `json:"occurred_at"`
	UID        string `json:"uid"`
	Role       string `json:"role,omitempty"`
	Detail     string `json:"detail,omitempty"`
}

// Publisher emits lifecycle events.
type Publisher interface {
	Publish(ctx context.Context, key, uid, role, detail string) error
	Close() error
}

type rabbitPublisher struct {
	conn     *amqp.Connection
	ch       *amqp.Channel
	exchange string
}

// NewRabbitPublisher dials the broker and declares the topic exchange.
func NewRabbitPublisher(url, exchange string) (Publisher, error) {
	conn, err := amqp.Dial(url)
	if err != nil {
		return nil, fmt.Errorf("dial rabbitmq: %w", err)
	}
	ch, err := conn.Channel()
	if err != nil {
		_ = conn.Close()
		return nil, fmt.Errorf("open channel: %w", err)
	}
	if err := ch.ExchangeDeclare(exchange, "topic", true, false, false, false, nil); err != nil {
		_ = ch.Close()
		_ = conn.Close()
		return nil, fmt.Errorf("declare exchange: %w", err)
	}
	return &rabbitPublisher{conn: conn, ch: ch, exchange: exchange}, nil
}

func (p *rabbitPublisher) Publish(ctx context.Context, key, uid, role, detail string) error {
	evt := LifecycleEvent{
		Event:      key,
		Version:    1,
		OccurredAt: time.Now().UTC().Format(time.RFC3339),
		UID:        uid,
		Role:       role,
		Detail:     detail,
	}
	body, err := json.Marshal(evt)
	if err != nil {
		return err
	}
	return p.ch.PublishWithContext(ctx, p.exchange, key, false, false, amqp.Publishing{
		ContentType: "application/json",
		Body:        body,
	})
}

func (p *rabbitPublisher) Close() error {
	if p.ch != nil {
		_ = p.ch.Close()
	}
	if p.conn != nil {
		return p.conn.Close()
	}
	return nil
}

// NopPublisher is used when no broker is configured.
type NopPublisher struct{}

func (NopPublisher) Publish(context.Context, string, string, string, string) error { return nil }
func (NopPublisher) Close() error                                                  { return nil }
