package notifications

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"geargrab/internal/app/policies"
)

type gatedNotifier struct {
	release chan struct{}
	done    chan error
}

func (n *gatedNotifier) Notify(ctx context.Context, bookingID string, kind policies.Notification) {
	<-n.release
	n.done <- ctx.Err()
}

func TestAsyncNotifierDoesNotBlockCaller(t *testing.T) {
	next := &gatedNotifier{release: make(chan struct{}), done: make(chan error, 1)}
	n := NewAsyncNotifier(next, 2, time.Minute)

	reqCtx, cancel := context.WithCancel(context.Background())
	returned := make(chan struct{})
	go func() {
		n.Notify(reqCtx, "b-1", policies.NotifyBookingCancelled)
		close(returned)
	}()
	select {
	case <-returned:
	case <-time.After(time.Second):
		t.Fatal("Notify waited for the sender")
	}
	cancel()

	closeCtx, stop := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer stop()
	assert.ErrorIs(t, n.Close(closeCtx), context.DeadlineExceeded)

	close(next.release)
	select {
	case err := <-next.done:
		assert.NoError(t, err, "send context must outlive the request")
	case <-time.After(time.Second):
		t.Fatal("notification never sent")
	}
	require.NoError(t, n.Close(context.Background()))
}

func TestAsyncNotifierDeliversThroughDispatcher(t *testing.T) {
	d, sender, id := newDispatcher(t)
	n := NewAsyncNotifier(d, 0, 0)

	n.Notify(context.Background(), string(id), policies.NotifyBookingCancelled)
	require.NoError(t, n.Close(context.Background()))

	sender.mu.Lock()
	defer sender.mu.Unlock()
	assert.Len(t, sender.emails, 2)
}
