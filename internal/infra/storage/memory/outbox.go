package memory

import (
	"context"
	"sync"
	"time"

	appoutbox "erent/internal/app/outbox"
	infraoutbox "erent/internal/infra/outbox"
)

// Outbox queues encoded events for the relay worker. Records added inside a
// memory unit of work are held by the unit and only queued when it commits.
type Outbox struct {
	mu      sync.Mutex
	records []*infraoutbox.EventDocument
	index   map[string]*infraoutbox.EventDocument
}

func NewOutbox() *Outbox {
	return &Outbox{index: make(map[string]*infraoutbox.EventDocument)}
}

func (o *Outbox) Add(ctx context.Context, record appoutbox.EventRecord) error {
	if u, ok := fromContext(ctx); ok && u.store.outbox == o {
		if err := u.writable(); err != nil {
			return err
		}
		u.events = append(u.events, record)
		return nil
	}
	o.enqueue([]appoutbox.EventRecord{record})
	return nil
}

func (o *Outbox) Flush(context.Context) error {
	return nil
}

func (o *Outbox) enqueue(records []appoutbox.EventRecord) {
	if len(records) == 0 {
		return
	}
	o.mu.Lock()
	defer o.mu.Unlock()
	now := time.Now().UTC()
	for _, rec := range records {
		doc := &infraoutbox.EventDocument{
			ID:          rec.ID,
			Name:        rec.Name,
			Payload:     append([]byte(nil), rec.Payload...),
			OccurredAt:  rec.OccurredAt,
			Aggregate:   rec.Aggregate,
			Headers:     copyHeaders(rec.Headers),
			State:       infraoutbox.StateNew,
			NextAttempt: now,
		}
		o.records = append(o.records, doc)
		o.index[doc.ID] = doc
	}
}

// Claim hands out the oldest record that is due, or nil when none is.
func (o *Outbox) Claim(ctx context.Context, workerID string) (*infraoutbox.EventDocument, error) {
	o.mu.Lock()
	defer o.mu.Unlock()
	now := time.Now().UTC()
	for _, doc := range o.records {
		if doc.State != infraoutbox.StateNew && doc.State != infraoutbox.StateFailed {
			continue
		}
		if doc.NextAttempt.After(now) {
			continue
		}
		doc.State = infraoutbox.StateClaimed
		doc.ClaimedBy = workerID
		doc.ClaimedAt = now
		out := *doc
		out.Headers = copyHeaders(doc.Headers)
		return &out, nil
	}
	return nil, nil
}

func (o *Outbox) MarkSent(ctx context.Context, id string) error {
	o.mu.Lock()
	defer o.mu.Unlock()
	doc, ok := o.index[id]
	if !ok {
		return nil
	}
	doc.State = infraoutbox.StateSent
	doc.SentAt = time.Now().UTC()
	o.compact()
	return nil
}

func (o *Outbox) MarkFailed(ctx context.Context, id string, next time.Time, errMsg string) error {
	o.mu.Lock()
	defer o.mu.Unlock()
	doc, ok := o.index[id]
	if !ok {
		return nil
	}
	doc.State = infraoutbox.StateFailed
	doc.NextAttempt = next
	doc.LastError = errMsg
	doc.Attempts++
	return nil
}

// Pending reports how many records still wait for delivery.
func (o *Outbox) Pending() int {
	o.mu.Lock()
	defer o.mu.Unlock()
	n := 0
	for _, doc := range o.records {
		if doc.State != infraoutbox.StateSent {
			n++
		}
	}
	return n
}

func (o *Outbox) compact() {
	kept := o.records[:0]
	for _, doc := range o.records {
		if doc.State == infraoutbox.StateSent {
			delete(o.index, doc.ID)
			continue
		}
		kept = append(kept, doc)
	}
	o.records = kept
}

func copyHeaders(in map[string]string) map[string]string {
	out := make(map[string]string, len(in))
	for k, v := range in {
		out[k] = v
	}
	return out
}

var (
	_ appoutbox.Outbox  = (*Outbox)(nil)
	_ infraoutbox.Store = (*Outbox)(nil)
)
