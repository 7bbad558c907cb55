// Package events publishes a settlement event per completed order for
// downstream consumers (dashboards, restock tooling). Publishing is
// fire-and-forget: a broker outage never affects the customer flow.
package events

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/segmentio/kafka-go"

	"github.com/dmateus/vendhub/internal/domain"
)

const Topic = "order-settled"

// Settlement is the payload written per completed order.
type Settlement struct {
	OrderID     string             `json:"order_id"`
	Items       []domain.OrderLine `json:"items"`
	TotalAmount float64            `json:"total_amount"`
	Currency    string             `json:"currency"`
	SettledAt   time.Time          `json:"settled_at"`
}

// Writer is the slice of kafka.Writer the publisher uses.
type Writer interface {
	WriteMessages(ctx context.Context, msgs ...kafka.Message) error
}

// Publisher writes settlement events to the broker. A nil *Publisher is
// valid and publishes nothing, so brokers stay optional.
type Publisher struct {
	writer Writer
	closer func() error
}

func NewPublisher(brokers ...string) *Publisher {
	if len(brokers) == 0 {
		return nil
	}
	w := &kafka.Writer{
		Addr:                   kafka.TCP(brokers...),
		Topic:                  Topic,
		Balancer:               &kafka.LeastBytes{},
		AllowAutoTopicCreation: true,
	}
	return &Publisher{writer: w, closer: w.Close}
}

// Publish writes one settlement event, keyed by order ID for ordering.
func (p *Publisher) Publish(ctx context.Context, s Settlement) error {
	if p == nil {
		return nil
	}
	payload, err := json.Marshal(s)
	if err != nil {
		return fmt.Errorf("marshal settlement event: %w", err)
	}
	msg := kafka.Message{
		Key:   []byte(s.OrderID),
		Value: payload,
		Headers: []kafka.Header{
			{Key: "event_type", Value: []byte(Topic)},
		},
	}
	if err := p.writer.WriteMessages(ctx, msg); err != nil {
		return fmt.Errorf("publish settlement event: %w", err)
	}
	return nil
}

func (p *Publisher) Close() error {
	if p == nil || p.closer == nil {
		return nil
	}
	return p.closer()
}
