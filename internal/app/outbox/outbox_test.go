package outbox

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"erent/internal/domain/shared/events"
)

type sampleEvent struct {
	ID string    `json:"id"`
	At time.Time `json:"at"`
}

func (e sampleEvent) EventName() string     { return "sample.happened" }
func (e sampleEvent) AggregateID() string   { return e.ID }
func (e sampleEvent) OccurredAt() time.Time { return e.At }

type sliceOutbox struct{ records []EventRecord }

func (s *sliceOutbox) Add(_ context.Context, rec EventRecord) error {
	s.records = append(s.records, rec)
	return nil
}

func (s *sliceOutbox) Flush(context.Context) error { return nil }

type aggregate struct{ events.EventRecorder }

func TestPublishDrainsAggregate(t *testing.T) {
	at := time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)
	agg := &aggregate{}
	agg.Record(sampleEvent{ID: "a-1", At: at})
	agg.Record(sampleEvent{ID: "a-1", At: at.Add(time.Second)})

	box := &sliceOutbox{}
	n := 0
	enc := JSONEventEncoder{IDGenerator: func() string { n++; return "evt-" + string(rune('0'+n)) }}
	require.NoError(t, Publish(context.Background(), box, enc, agg))

	assert.Empty(t, agg.PendingEvents())
	require.Len(t, box.records, 2)
	rec := box.records[0]
	assert.Equal(t, "evt-1", rec.ID)
	assert.Equal(t, "sample.happened", rec.Name)
	assert.Equal(t, "a-1", rec.Aggregate)
	assert.Equal(t, at, rec.OccurredAt)
	assert.NotNil(t, rec.Headers)

	var decoded sampleEvent
	require.NoError(t, json.Unmarshal(rec.Payload, &decoded))
	assert.Equal(t, "a-1", decoded.ID)
}

func TestRecordDomainEventsIgnoresNilOutbox(t *testing.T) {
	assert.NoError(t, RecordDomainEvents(context.Background(), nil, nil, []events.DomainEvent{sampleEvent{}}))
}
