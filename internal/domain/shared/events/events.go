package events

import "time"

// DomainEvent is a fact recorded by an aggregate and published through the outbox.
type DomainEvent interface {
	EventName() string
	AggregateID() string
	OccurredAt() time.Time
}

// EventRecorder is embedded in aggregates to collect events until they are persisted.
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

// DrainEvents returns the pending events and clears the recorder.
func (r *EventRecorder) DrainEvents() []DomainEvent {
	out := r.PendingEvents()
	r.ClearEvents()
	return out
}

// Source is implemented by anything that embeds an EventRecorder.
type Source interface {
	DrainEvents() []DomainEvent
}
