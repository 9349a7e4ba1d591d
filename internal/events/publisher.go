package events

import (
	"context"
	"encoding/json"
	"time"

	"fooddirect/internal/domain"
	"github.com/segmentio/kafka-go"
)

// Event types published to the order lifecycle topic.
const (
	TypeOrderCreated       = "order.created"
	TypeOrderStatusChanged = "order.status_changed"
	TypeOrderDeleted       = "order.deleted"
)

// OrderEvent is the payload published for downstream consumers (kitchen
// displays, notification senders). Publishing is always best-effort.
type OrderEvent struct {
	Type       string             `json:"type"`
	OrderID    string             `json:"orderId"`
	Code       string             `json:"code"`
	Status     domain.OrderStatus `json:"status,omitempty"`
	Phone      string             `json:"phone,omitempty"`
	TotalCents int64              `json:"totalCents,omitempty"`
	OccurredAt time.Time          `json:"occurredAt"`
}

// Publisher writes order lifecycle events to Kafka.
type Publisher struct {
	writer *kafka.Writer
}

func NewPublisher(writer *kafka.Writer) *Publisher {
	return &Publisher{writer: writer}
}

// NewWriter builds a kafka writer for the given broker and topic.
func NewWriter(broker, topic string) *kafka.Writer {
	return &kafka.Writer{
		Addr:     kafka.TCP(broker),
		Topic:    topic,
		Balancer: &kafka.LeastBytes{},
	}
}

func (p *Publisher) Publish(ctx context.Context, ev OrderEvent) error {
	if ev.OccurredAt.IsZero() {
		ev.OccurredAt = time.Now().UTC()
	}
	payload, err := json.Marshal(ev)
	if err != nil {
		return err
	}
	return p.writer.WriteMessages(ctx, kafka.Message{
		Key:   []byte(ev.OrderID),
		Value: payload,
	})
}

func (p *Publisher) Close() error {
	return p.writer.Close()
}
