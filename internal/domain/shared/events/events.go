package events

import "time"

type EventID string

type DomainEvent interface {
	EventName() string
	AggregateID() string
	OccurredAt() time.Time
}

// EventRecorder is embedded by aggregates to collect events until the
// unit of work hands them to the outbox.
type EventRecorder struct {
	pending []DomainEvent
}

func (r *EventRecorder) Record(event DomainEvent) {
	if event == nil {
		return
	}
	r.pending = append(r.pending, event)
}

func (r *EventRecorder) PendingEvents() []DomainEvent {
	out := make([]DomainEvent, len(r.pending))
	copy(out, r.pending)
	return out
}

func (r *EventRecorder) ClearEvents() {
	r.pending = nil
}

// PullEvents returns pending events and clears the recorder.
func (r *EventRecorder) PullEvents() []DomainEvent {
	out := r.PendingEvents()
	r.ClearEvents()
	return out
}

// Recorder is implemented by every aggregate embedding EventRecorder.
type Recorder interface {
	PullEvents() []DomainEvent
}
