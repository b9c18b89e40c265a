package outbox

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel/propagation"

	"geargrab/internal/domain/shared/events"
)

// EventRecord is a domain event serialized for the relay worker. Headers carry the
// W3C trace context of the command that produced it.
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
	Encode(ctx context.Context, ev events.DomainEvent) (EventRecord, error)
}

// JSONEventEncoder marshals events with encoding/json and stamps each with a uuid.
type JSONEventEncoder struct {
	NewID func() string
}

func (e JSONEventEncoder) Encode(ctx context.Context, ev events.DomainEvent) (EventRecord, error) {
	payload, err := json.Marshal(ev)
	if err != nil {
		return EventRecord{}, fmt.Errorf("encode %s: %w", ev.EventName(), err)
	}
	newID := e.NewID
	if newID == nil {
		newID = uuid.NewString
	}
	headers := map[string]string{}
	propagation.TraceContext{}.Inject(ctx, propagation.MapCarrier(headers))
	return EventRecord{
		ID:         newID(),
		Name:       ev.EventName(),
		Payload:    payload,
		OccurredAt: ev.OccurredAt().UTC(),
		Aggregate:  ev.AggregateID(),
		Headers:    headers,
	}, nil
}

// RecordPending drains src and adds one record per event. Events already drained are
// lost if Add fails, so callers log the error rather than retry.
func RecordPending(ctx context.Context, box Outbox, encoder EventEncoder, src events.Source) error {
	evs := src.DrainEvents()
	if box == nil || len(evs) == 0 {
		return nil
	}
	if encoder == nil {
		encoder = JSONEventEncoder{}
	}
	for _, ev := range evs {
		rec, err := encoder.Encode(ctx, ev)
		if err != nil {
			return err
		}
		if err := box.Add(ctx, rec); err != nil {
			return err
		}
	}
	return nil
}
