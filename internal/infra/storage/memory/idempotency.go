package memory

import (
	"context"
	"sync"
	"time"

	"geargrab/internal/app/middleware"
)

// IdempotencyStore keeps replayable command results. Records older than TTL are treated
// as absent, the way the Mongo TTL index drops them.
type IdempotencyStore struct {
	TTL time.Duration
	Now func() time.Time

	mu    sync.Mutex
	items map[string]middleware.IdempotencyRecord
}

func NewIdempotencyStore() *IdempotencyStore {
	return &IdempotencyStore{items: make(map[string]middleware.IdempotencyRecord)}
}

func (s *IdempotencyStore) Get(ctx context.Context, key string) (middleware.IdempotencyRecord, bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	rec, ok := s.items[key]
	if ok && s.expired(rec) {
		delete(s.items, key)
		return middleware.IdempotencyRecord{}, false, nil
	}
	return rec, ok, nil
}

func (s *IdempotencyStore) Save(ctx context.Context, rec middleware.IdempotencyRecord) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, exists := s.items[rec.Key]; exists && !s.expired(s.items[rec.Key]) {
		return nil
	}
	s.items[rec.Key] = rec
	return nil
}

func (s *IdempotencyStore) expired(rec middleware.IdempotencyRecord) bool {
	if s.TTL <= 0 {
		return false
	}
	now := time.Now()
	if s.Now != nil {
		now = s.Now()
	}
	return now.Sub(rec.OccurredAt) > s.TTL
}

var _ middleware.IdempotencyStore = (*IdempotencyStore)(nil)
