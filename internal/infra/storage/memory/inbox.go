package memory

import (
	"context"
	"sync"

	"geargrab/internal/app/policies"
)

type Inbox struct {
	mu   sync.Mutex
	seen map[string]struct{}
}

func NewInbox() *Inbox {
	return &Inbox{seen: make(map[string]struct{})}
}

func (i *Inbox) Seen(ctx context.Context, eventID string) (bool, error) {
	i.mu.Lock()
	defer i.mu.Unlock()
	if _, ok := i.seen[eventID]; ok {
		return true, nil
	}
	i.seen[eventID] = struct{}{}
	return false, nil
}

func (i *Inbox) Forget(ctx context.Context, eventID string) error {
	i.mu.Lock()
	defer i.mu.Unlock()
	delete(i.seen, eventID)
	return nil
}

var _ policies.Inbox = (*Inbox)(nil)
