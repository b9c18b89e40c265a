package notifications

import (
	"context"
	"time"

	"golang.org/x/sync/semaphore"

	"geargrab/internal/app/policies"
)

const (
	defaultAsyncLimit   = 16
	defaultAsyncTimeout = 30 * time.Second
)

// AsyncNotifier hands notifications to Next on background goroutines so request
// handlers do not wait for the mail provider. At most limit sends run at once; once
// saturated, Notify blocks until a slot frees up.
type AsyncNotifier struct {
	Next    policies.Notifier
	Timeout time.Duration

	limit int64
	sem   *semaphore.Weighted
}

func NewAsyncNotifier(next policies.Notifier, limit int64, timeout time.Duration) *AsyncNotifier {
	if limit <= 0 {
		limit = defaultAsyncLimit
	}
	if timeout <= 0 {
		timeout = defaultAsyncTimeout
	}
	return &AsyncNotifier{Next: next, Timeout: timeout, limit: limit, sem: semaphore.NewWeighted(limit)}
}

func (n *AsyncNotifier) Notify(ctx context.Context, bookingID string, kind policies.Notification) {
	// Detached: the request may finish before the email is sent.
	ctx = context.WithoutCancel(ctx)
	if err := n.sem.Acquire(ctx, 1); err != nil {
		return
	}
	go func() {
		defer n.sem.Release(1)
		sendCtx, cancel := context.WithTimeout(ctx, n.Timeout)
		defer cancel()
		n.Next.Notify(sendCtx, bookingID, kind)
	}()
}

// Close waits for in-flight sends to finish or for ctx to expire.
func (n *AsyncNotifier) Close(ctx context.Context) error {
	if err := n.sem.Acquire(ctx, n.limit); err != nil {
		return err
	}
	n.sem.Release(n.limit)
	return nil
}

var _ policies.Notifier = (*AsyncNotifier)(nil)
