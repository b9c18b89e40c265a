package memory

import (
	"context"
	"sync"
	"time"

	appoutbox "geargrab/internal/app/outbox"
	infraoutbox "geargrab/internal/infra/outbox"
)

// Outbox keeps events in memory and serves them to the outbox worker in insertion order.
type Outbox struct {
	mu      sync.Mutex
	records []*outboxEntry
	now     func() time.Time
}

type outboxEntry struct {
	record    appoutbox.EventRecord
	state     string
	attempts  int
	next      time.Time
	lastError string
}

const (
	outboxNew     = "NEW"
	outboxClaimed = "CLAIMED"
	outboxSent    = "SENT"
	outboxFailed  = "FAILED"
)

func NewOutbox() *Outbox {
	return &Outbox{now: time.Now}
}

func (o *Outbox) Add(ctx context.Context, record appoutbox.EventRecord) error {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.records = append(o.records, &outboxEntry{record: record, state: outboxNew})
	return nil
}

func (o *Outbox) Flush(ctx context.Context) error {
	return nil
}

// Records returns every event ever added, including those already published.
func (o *Outbox) Records() []appoutbox.EventRecord {
	o.mu.Lock()
	defer o.mu.Unlock()
	out := make([]appoutbox.EventRecord, 0, len(o.records))
	for _, e := range o.records {
		out = append(out, e.record)
	}
	return out
}

// Pending counts records not yet published.
func (o *Outbox) Pending() int {
	o.mu.Lock()
	defer o.mu.Unlock()
	n := 0
	for _, e := range o.records {
		if e.state != outboxSent {
			n++
		}
	}
	return n
}

func (o *Outbox) Claim(ctx context.Context, workerID string) (*infraoutbox.EventDocument, error) {
	o.mu.Lock()
	defer o.mu.Unlock()
	now := o.now()
	for _, e := range o.records {
		if e.state == outboxNew || (e.state == outboxFailed && !e.next.After(now)) {
			e.state = outboxClaimed
			return &infraoutbox.EventDocument{
				ID:         e.record.ID,
				Name:       e.record.Name,
				Payload:    e.record.Payload,
				OccurredAt: e.record.OccurredAt,
				Aggregate:  e.record.Aggregate,
				Headers:    e.record.Headers,
				State:      outboxClaimed,
				Attempts:   e.attempts,
				ClaimedBy:  workerID,
				ClaimedAt:  now,
			}, nil
		}
	}
	return nil, nil
}

func (o *Outbox) MarkSent(ctx context.Context, id string) error {
	return o.update(id, func(e *outboxEntry) { e.state = outboxSent })
}

func (o *Outbox) MarkFailed(ctx context.Context, id string, next time.Time, errMsg string) error {
	return o.update(id, func(e *outboxEntry) {
		e.state = outboxFailed
		e.attempts++
		e.next = next
		e.lastError = errMsg
	})
}

func (o *Outbox) update(id string, fn func(e *outboxEntry)) error {
	o.mu.Lock()
	defer o.mu.Unlock()
	for _, e := range o.records {
		if e.record.ID == id {
			fn(e)
			return nil
		}
	}
	return nil
}

var (
	_ appoutbox.Outbox  = (*Outbox)(nil)
	_ infraoutbox.Queue = (*Outbox)(nil)
)
