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

// Worker publishes claimed outbox records as CloudEvents. Drain is driven by the
// background scheduler at the configured poll interval.
type Worker struct {
	Queue       Queue
	Producer    Producer
	TopicPrefix string
	Source      string
	ID          string
	Backoff     []time.Duration
	BatchSize   int
	Logger      *slog.Logger
	Now         func() time.Time
}

var ErrWorkerNotConfigured = errors.New("outbox: worker missing dependencies")

// Drain publishes records until the queue is empty or the batch is used up and reports
// how many were sent. Publish failures are rescheduled with backoff, not returned.
func (w *Worker) Drain(ctx context.Context) (int, error) {
	if w.Queue == nil || w.Producer == nil {
		return 0, ErrWorkerNotConfigured
	}
	sent := 0
	for i := 0; i < w.batchSize(); i++ {
		if err := ctx.Err(); err != nil {
			return sent, err
		}
		ok, err := w.processOnce(ctx)
		if err != nil {
			return sent, err
		}
		if !ok {
			break
		}
		sent++
	}
	return sent, nil
}

// processOnce reports false when nothing was published, either because the queue is
// empty or because the claimed record failed and was rescheduled.
func (w *Worker) processOnce(ctx context.Context) (bool, error) {
	doc, err := w.Queue.Claim(ctx, w.workerID())
	if err != nil || doc == nil {
		return false, err
	}
	topic := w.topicFor(doc.Name)
	payload, headers, err := w.formatPayload(doc)
	if err != nil {
		w.logger().ErrorContext(ctx, "outbox record malformed", "event_id", doc.ID, "error", err)
		return false, w.Queue.MarkFailed(ctx, doc.ID, w.nextRetry(doc.Attempts), err.Error())
	}
	if err := w.Producer.Publish(ctx, topic, doc.Aggregate, payload, headers); err != nil {
		w.logger().WarnContext(ctx, "outbox publish failed", "event_id", doc.ID, "topic", topic, "attempts", doc.Attempts, "error", err)
		return false, w.Queue.MarkFailed(ctx, doc.ID, w.nextRetry(doc.Attempts), err.Error())
	}
	return true, w.Queue.MarkSent(ctx, doc.ID)
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
	}
	for k, v := range doc.Headers {
		headers[k] = v
	}
	return payload, headers, nil
}

// topicFor maps "booking.status_changed" to "booking.events.v1".
func (w *Worker) topicFor(name string) string {
	base := name
	if idx := strings.IndexRune(name, '.'); idx > 0 {
		base = name[:idx]
	}
	topic := base + ".events.v1"
	if w.TopicPrefix != "" {
		topic = w.TopicPrefix + topic
	}
	return topic
}

func (w *Worker) workerID() string {
	if w.ID == "" {
		w.ID = uuid.NewString()
	}
	return w.ID
}

func (w *Worker) batchSize() int {
	if w.BatchSize <= 0 {
		return 100
	}
	return w.BatchSize
}

func (w *Worker) now() time.Time {
	if w.Now != nil {
		return w.Now()
	}
	return time.Now()
}

func (w *Worker) nextRetry(attempts int) time.Time {
	if attempts < len(w.Backoff) {
		return w.now().Add(w.Backoff[attempts])
	}
	if len(w.Backoff) > 0 {
		return w.now().Add(w.Backoff[len(w.Backoff)-1])
	}
	return w.now().Add(5 * time.Second)
}

func (w *Worker) source() string {
	if w.Source != "" {
		return w.Source
	}
	return "app://geargrab"
}

func (w *Worker) logger() *slog.Logger {
	if w.Logger != nil {
		return w.Logger
	}
	return slog.New(slog.DiscardHandler)
}

// LogProducer writes events to the log. Used when no broker is configured.
type LogProducer struct {
	Logger *slog.Logger
}

func (p LogProducer) Publish(ctx context.Context, topic string, key string, payload []byte, headers map[string]string) error {
	if p.Logger != nil {
		p.Logger.InfoContext(ctx, "event published", "topic", topic, "key", key, "bytes", len(payload))
	}
	return nil
}
