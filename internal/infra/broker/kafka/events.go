package kafka

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/IBM/sarama"

	"erent/internal/app/handlers/notifications"
)

var ErrMalformedEvent = errors.New("kafka: malformed cloud event")

// cloudEvent is the structured-mode envelope the outbox relay writes.
type cloudEvent struct {
	ID   string          `json:"id"`
	Type string          `json:"type"`
	Data json.RawMessage `json:"data"`
}

// DecodeEvent reads a structured CloudEvent.
func DecodeEvent(payload []byte) (notifications.Event, error) {
	var ce cloudEvent
	if err := json.Unmarshal(payload, &ce); err != nil {
		return notifications.Event{}, fmt.Errorf("%w: %w", ErrMalformedEvent, err)
	}
	if ce.ID == "" || ce.Type == "" {
		return notifications.Event{}, ErrMalformedEvent
	}
	return notifications.Event{ID: ce.ID, Type: ce.Type, Data: ce.Data}, nil
}

// Projection is what consumed events are handed to.
type Projection interface {
	Project(ctx context.Context, ev notifications.Event) error
}

// ProjectionHandler feeds consumed messages to a projection. Malformed
// messages are dropped so they cannot block the partition.
type ProjectionHandler struct {
	Projection Projection
}

func (h ProjectionHandler) Handle(ctx context.Context, msg *sarama.ConsumerMessage) error {
	ev, err := DecodeEvent(msg.Value)
	if err != nil {
		return nil
	}
	return h.Projection.Project(ctx, ev)
}

// Loopback stands in for the broker when none is configured: relayed events
// go straight to the projection in process.
type Loopback struct {
	Projection Projection
}

func (l Loopback) Publish(ctx context.Context, topic string, key string, payload []byte, headers map[string]string) error {
	ev, err := DecodeEvent(payload)
	if err != nil {
		return err
	}
	return l.Projection.Project(ctx, ev)
}

func (l Loopback) Close() error { return nil }
