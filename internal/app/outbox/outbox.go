package outbox

import (
	"context"
	"encoding/json"
	"time"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/propagation"

	"erent/internal/domain/shared/events"
)

// EventRecord is a domain event encoded for relay. ID is stable across
// retries so consumers can deduplicate on it.
type EventRecord struct {
	ID         string
	Name       string
	Payload    []byte
	OccurredAt time.Time
	Aggregate  string
	Headers    map[string]string
}

type Outbox interface {
	Add(ctx context.Context, record EventRecord) error
	Flush(ctx context.Context) error
}

type EventEncoder interface {
	Encode(ev events.DomainEvent) (EventRecord, error)
}

type JSONEventEncoder struct {
	IDGenerator func() string
}

func (e JSONEventEncoder) Encode(ev events.DomainEvent) (EventRecord, error) {
	payload, err := json.Marshal(ev)
	if err != nil {
		return EventRecord{}, err
	}
	idGen := e.IDGenerator
	if idGen == nil {
		idGen = uuid.NewString
	}
	return EventRecord{
		ID:         idGen(),
		Name:       ev.EventName(),
		Payload:    payload,
		OccurredAt: ev.OccurredAt(),
		Aggregate:  ev.AggregateID(),
		Headers:    map[string]string{},
	}, nil
}

// RecordDomainEvents encodes evs and adds them to box. The trace context of
// ctx travels with each record as headers.
func RecordDomainEvents(ctx context.Context, box Outbox, encoder EventEncoder, evs []events.DomainEvent) error {
	if box == nil || len(evs) == 0 {
		return nil
	}
	if encoder == nil {
		encoder = JSONEventEncoder{}
	}
	for _, ev := range evs {
		rec, err := encoder.Encode(ev)
		if err != nil {
			return err
		}
		if rec.Headers == nil {
			rec.Headers = map[string]string{}
		}
		otel.GetTextMapPropagator().Inject(ctx, propagation.MapCarrier(rec.Headers))
		if err := box.Add(ctx, rec); err != nil {
			return err
		}
	}
	return nil
}

// Publish drains the pending events of an aggregate into box.
func Publish(ctx context.Context, box Outbox, encoder EventEncoder, agg events.Recorder) error {
	return RecordDomainEvents(ctx, box, encoder, agg.PullEvents())
}
