package policies

import "context"

// Inbox remembers delivered event IDs. Seen records the ID and reports whether it had
// been recorded before. Forget drops a record so a redelivery is processed again.
type Inbox interface {
	Seen(ctx context.Context, eventID string) (bool, error)
	Forget(ctx context.Context, eventID string) error
}
