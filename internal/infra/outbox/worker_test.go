package outbox

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type sliceStore struct {
	docs   []*EventDocument
	sent   []string
	failed []string
}

func (s *sliceStore) Claim(context.Context, string) (*EventDocument, error) {
	for _, doc := range s.docs {
		if doc.State == StateNew {
			doc.State = StateClaimed
			return doc, nil
		}
	}
	return nil, nil
}

func (s *sliceStore) MarkSent(_ context.Context, id string) error {
	s.sent = append(s.sent, id)
	return nil
}

func (s *sliceStore) MarkFailed(_ context.Context, id string, _ time.Time, _ string) error {
	s.failed = append(s.failed, id)
	return nil
}

type published struct {
	topic   string
	key     string
	payload []byte
	headers map[string]string
}

type recordingProducer struct {
	out []published
	err error
}

func (p *recordingProducer) Publish(_ context.Context, topic, key string, payload []byte, headers map[string]string) error {
	if p.err != nil {
		return p.err
	}
	p.out = append(p.out, published{topic: topic, key: key, payload: payload, headers: headers})
	return nil
}

func TestWorkerDrainPublishesCloudEvents(t *testing.T) {
	store := &sliceStore{docs: []*EventDocument{{
		ID:         "evt-1",
		Name:       "rent.created",
		Payload:    []byte(`{"rent_id":"r-1"}`),
		Aggregate:  "r-1",
		OccurredAt: time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC),
		Headers:    map[string]string{"traceparent": "00-abc-def-01"},
		State:      StateNew,
	}}}
	producer := &recordingProducer{}
	w := &Worker{Store: store, Producer: producer, TopicPrefix: "erent."}

	sent, err := w.Drain(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 1, sent)
	assert.Equal(t, []string{"evt-1"}, store.sent)
	require.Len(t, producer.out, 1)

	msg := producer.out[0]
	assert.Equal(t, "erent.rent.events.v1", msg.topic)
	assert.Equal(t, "r-1", msg.key)
	assert.Equal(t, "application/cloudevents+json", msg.headers["content-type"])
	assert.Equal(t, "00-abc-def-01", msg.headers["traceparent"])

	var evt map[string]any
	require.NoError(t, json.Unmarshal(msg.payload, &evt))
	assert.Equal(t, "evt-1", evt["id"])
	assert.Equal(t, "rent.created.v1", evt["type"])
	assert.Equal(t, "app://erent", evt["source"])
	assert.Equal(t, map[string]any{"rent_id": "r-1"}, evt["data"])
}

func TestWorkerMarksFailedDeliveries(t *testing.T) {
	store := &sliceStore{docs: []*EventDocument{{ID: "evt-1", Name: "viewing.created", Payload: []byte(`{}`), State: StateNew}}}
	w := &Worker{Store: store, Producer: &recordingProducer{err: errors.New("broker down")}}

	sent, err := w.Drain(context.Background())
	require.NoError(t, err)
	assert.Zero(t, sent)
	assert.Equal(t, []string{"evt-1"}, store.failed)
	assert.Empty(t, store.sent)
}

func TestTopicFor(t *testing.T) {
	assert.Equal(t, "review.events.v1", TopicFor("", "review.submitted"))
	assert.Equal(t, "p.plain.events.v1", TopicFor("p.", "plain"))
}
