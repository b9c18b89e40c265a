package inbox

import (
	"context"
	"time"

	"github.com/redis/go-redis/v9"

	"geargrab/internal/app/policies"
)

// RedisStore dedups events with SET NX; keys expire after TTL.
type RedisStore struct {
	Client   redis.Cmdable
	Consumer string
	TTL      time.Duration
}

func NewRedisStore(url, consumer string, ttl time.Duration) (*RedisStore, *redis.Client, error) {
	opts, err := redis.ParseURL(url)
	if err != nil {
		return nil, nil, err
	}
	client := redis.NewClient(opts)
	return &RedisStore{Client: client, Consumer: consumer, TTL: ttl}, client, nil
}

func (s *RedisStore) key(eventID string) string {
	return "inbox:" + s.Consumer + ":" + eventID
}

func (s *RedisStore) Seen(ctx context.Context, eventID string) (bool, error) {
	stored, err := s.Client.SetNX(ctx, s.key(eventID), 1, s.TTL).Result()
	if err != nil {
		return false, err
	}
	return !stored, nil
}

func (s *RedisStore) Forget(ctx context.Context, eventID string) error {
	return s.Client.Del(ctx, s.key(eventID)).Err()
}

var _ policies.Inbox = (*RedisStore)(nil)
