package events

import (
	"context"
	"encoding/json"
	"log"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/segmentio/kafka-go"
)

const (
	TypeOrderCreated   = "order.created"
	TypeOrderCancelled = "order.cancelled"
)

// OrderEvent is the payload published on order lifecycle changes. Consumers
// are downstream systems (analytics, fulfilment); publishing is best-effort.
type OrderEvent struct {
	EventID    string    `json:"event_id"`
	Type       string    `json:"type"`
	OrderID    string    `json:"order_id"`
	UserID     string    `json:"user_id"`
	TotalPrice float64   `json:"total_price"`
	OccurredAt time.Time `json:"occurred_at"`
}

// messageWriter is the slice of kafka.Writer the publisher needs.
type messageWriter interface {
	WriteMessages(ctx context.Context, msgs ...kafka.Message) error
	Close() error
}

type Publisher struct {
	writer  messageWriter
	timeout time.Duration
	wg      sync.WaitGroup
}

func NewPublisher(brokers []string, topic string) *Publisher {
	w := &kafka.Writer{
		Addr:                   kafka.TCP(brokers...),
		Topic:                  topic,
		Balancer:               &kafka.LeastBytes{},
		AllowAutoTopicCreation: true,
	}
	return &Publisher{writer: w, timeout: 5 * time.Second}
}

// Publish writes the event asynchronously. Failures are logged and never
// surfaced to the caller.
func (p *Publisher) Publish(event OrderEvent) {
	if event.EventID == "" {
		event.EventID = uuid.NewString()
	}
	if event.OccurredAt.IsZero() {
		event.OccurredAt = time.Now()
	}

	payload, err := json.Marshal(event)
	if err != nil {
		log.Printf("failed to marshal %s event for order %s: %v", event.Type, event.OrderID, err)
		return
	}

	p.wg.Add(1)
	go func() {
		defer p.wg.Done()

		ctx, cancel := context.WithTimeout(context.Background(), p.timeout)
		defer cancel()

		msg := kafka.Message{
			Key:   []byte(event.OrderID),
			Value: payload,
		}
		if err := p.writer.WriteMessages(ctx, msg); err != nil {
			log.Printf("failed to publish %s event for order %s: %v", event.Type, event.OrderID, err)
		}
	}()
}

// Close drains in-flight publishes before closing the writer, so shutdown
// cannot pull the writer out from under a pending write.
func (p *Publisher) Close() error {
	p.wg.Wait()
	return p.writer.Close()
}
