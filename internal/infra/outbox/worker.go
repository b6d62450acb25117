package outbox

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"
)

type Producer interface {
	Publish(ctx context.Context, topic string, key string, payload []byte, headers map[string]string) error
}

// Worker relays outbox records to the broker as CloudEvents. The event id is
// the outbox record id, so redeliveries carry the same id.
type Worker struct {
	Store       Store
	Producer    Producer
	Interval    time.Duration
	TopicPrefix string
	Source      string
	ID          string
	Backoff     []time.Duration
	Logger      *slog.Logger
}

func (w *Worker) Run(ctx context.Context) error {
	if w.Store == nil || w.Producer == nil {
		return ErrWorkerNotConfigured
	}
	if w.ID == "" {
		w.ID = uuid.NewString()
	}
	ticker := time.NewTicker(w.interval())
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
			if _, err := w.Drain(ctx); err != nil && ctx.Err() == nil {
				w.logger().Error("outbox relay failed", "error", err)
			}
		}
	}
}

// Drain relays every due record and returns how many were delivered.
func (w *Worker) Drain(ctx context.Context) (int, error) {
	sent := 0
	for {
		ok, err := w.processOnce(ctx)
		if err != nil || !ok {
			return sent, err
		}
		sent++
	}
}

func (w *Worker) processOnce(ctx context.Context) (bool, error) {
	doc, err := w.Store.Claim(ctx, w.workerID())
	if err != nil || doc == nil {
		return false, err
	}
	topic := w.topicFor(doc.Name)
	payload, headers, err := w.formatPayload(doc)
	if err != nil {
		return false, w.Store.MarkFailed(ctx, doc.ID, w.nextRetry(doc.Attempts), err.Error())
	}
	if err := w.Producer.Publish(ctx, topic, doc.Aggregate, payload, headers); err != nil {
		w.logger().Warn("outbox publish failed", "event_id", doc.ID, "event", doc.Name, "attempts", doc.Attempts+1, "error", err)
		return false, w.Store.MarkFailed(ctx, doc.ID, w.nextRetry(doc.Attempts), err.Error())
	}
	if err := w.Store.MarkSent(ctx, doc.ID); err != nil {
		return false, err
	}
	w.logger().Debug("outbox event relayed", "event_id", doc.ID, "event", doc.Name, "topic", topic)
	return true, nil
}

func (w *Worker) formatPayload(doc *EventDocument) ([]byte, map[string]string, error) {
	if doc.Headers == nil {
		doc.Headers = map[string]string{}
	}
	data := map[string]any{}
	if err := json.Unmarshal(doc.Payload, &data); err != nil {
		return nil, nil, err
	}
	evt := map[string]any{
		"specversion":     "1.0",
		"id":              doc.ID,
		"type":            doc.Name + ".v1",
		"source":          w.source(),
		"subject":         doc.Aggregate,
		"time":            doc.OccurredAt,
		"datacontenttype": "application/json",
		"data":            data,
	}
	if trace, ok := doc.Headers["traceparent"]; ok {
		evt["traceparent"] = trace
	}
	payload, err := json.Marshal(evt)
	if err != nil {
		return nil, nil, err
	}
	headers := map[string]string{
		"content-type": "application/cloudevents+json",
		"ce_id":        doc.ID,
		"ce_type":      doc.Name + ".v1",
	}
	for k, v := range doc.Headers {
		headers[k] = v
	}
	return payload, headers, nil
}

// TopicFor maps an event name such as rent.created to its topic.
func TopicFor(prefix, name string) string {
	base := name
	if idx := strings.IndexRune(name, '.'); idx > 0 {
		base = name[:idx]
	}
	return prefix + base + ".events.v1"
}

func (w *Worker) topicFor(name string) string {
	return TopicFor(w.TopicPrefix, name)
}

func (w *Worker) workerID() string {
	if w.ID != "" {
		return w.ID
	}
	return "outbox-relay"
}

func (w *Worker) interval() time.Duration {
	if w.Interval <= 0 {
		return 500 * time.Millisecond
	}
	return w.Interval
}

func (w *Worker) nextRetry(attempts int) time.Time {
	if attempts < len(w.Backoff) {
		return time.Now().Add(w.Backoff[attempts])
	}
	if len(w.Backoff) > 0 {
		return time.Now().Add(w.Backoff[len(w.Backoff)-1])
	}
	return time.Now().Add(5 * time.Second)
}

func (w *Worker) source() string {
	if w.Source != "" {
		return w.Source
	}
	return "app://erent"
}

func (w *Worker) logger() *slog.Logger {
	if w.Logger != nil {
		return w.Logger
	}
	return slog.Default()
}

var ErrWorkerNotConfigured = errors.New("outbox: worker missing dependencies")
