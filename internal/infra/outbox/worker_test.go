package outbox_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/tidwall/gjson"

	appoutbox "geargrab/internal/app/outbox"
	infraoutbox "geargrab/internal/infra/outbox"
	"geargrab/internal/infra/storage/memory"
)

type published struct {
	topic   string
	key     string
	payload []byte
	headers map[string]string
}

type captureProducer struct {
	msgs []published
	err  error
}

func (p *captureProducer) Publish(_ context.Context, topic, key string, payload []byte, headers map[string]string) error {
	if p.err != nil {
		return p.err
	}
	p.msgs = append(p.msgs, published{topic: topic, key: key, payload: payload, headers: headers})
	return nil
}

func addRecord(t *testing.T, box *memory.Outbox, id, name string) {
	t.Helper()
	require.NoError(t, box.Add(context.Background(), appoutbox.EventRecord{
		ID:         id,
		Name:       name,
		Payload:    []byte(`{"bookingId":"bk_1","to":"confirmed"}`),
		OccurredAt: time.Date(2025, 7, 1, 10, 0, 0, 0, time.UTC),
		Aggregate:  "bk_1",
		Headers:    map[string]string{"traceparent": "00-abc-def-01"},
	}))
}

func TestWorkerPublishesCloudEvents(t *testing.T) {
	box := memory.NewOutbox()
	addRecord(t, box, "evt-1", "booking.status_changed")
	addRecord(t, box, "evt-2", "booking.payment_succeeded")
	prod := &captureProducer{}
	w := &infraoutbox.Worker{Queue: box, Producer: prod, TopicPrefix: "dev."}

	sent, err := w.Drain(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 2, sent)
	assert.Zero(t, box.Pending())

	require.Len(t, prod.msgs, 2)
	msg := prod.msgs[0]
	assert.Equal(t, "dev.booking.events.v1", msg.topic)
	assert.Equal(t, "bk_1", msg.key)
	assert.Equal(t, "application/cloudevents+json", msg.headers["content-type"])
	assert.Equal(t, "00-abc-def-01", msg.headers["traceparent"])

	body := gjson.ParseBytes(msg.payload)
	assert.Equal(t, "1.0", body.Get("specversion").String())
	assert.Equal(t, "evt-1", body.Get("id").String())
	assert.Equal(t, "booking.status_changed.v1", body.Get("type").String())
	assert.Equal(t, "app://geargrab", body.Get("source").String())
	assert.Equal(t, "confirmed", body.Get("data.to").String())
}

func TestWorkerReschedulesFailedPublish(t *testing.T) {
	box := memory.NewOutbox()
	addRecord(t, box, "evt-1", "booking.created")
	prod := &captureProducer{err: errors.New("broker down")}
	w := &infraoutbox.Worker{Queue: box, Producer: prod, Backoff: []time.Duration{time.Hour}}

	sent, err := w.Drain(context.Background())
	require.NoError(t, err)
	assert.Zero(t, sent)
	assert.Equal(t, 1, box.Pending())

	prod.err = nil
	sent, err = w.Drain(context.Background())
	require.NoError(t, err)
	assert.Zero(t, sent, "record waits for its backoff")
}

func TestWorkerRequiresDependencies(t *testing.T) {
	_, err := (&infraoutbox.Worker{}).Drain(context.Background())
	require.ErrorIs(t, err, infraoutbox.ErrWorkerNotConfigured)
}
