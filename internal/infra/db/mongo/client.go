package mongo

import (
	"context"
	"time"

	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

type Client struct {
	DB *mongo.Database
}

func New(ctx context.Context, uri, database string) (*Client, error) {
	ctx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()
	opts := options.Client().ApplyURI(uri).SetRetryWrites(true)
	m, err := mongo.Connect(ctx, opts)
	if err != nil {
		return nil, err
	}
	return &Client{DB: m.Database(database)}, nil
}

func (c *Client) Ping(ctx context.Context) error {
	return c.DB.Client().Ping(ctx, nil)
}

func (c *Client) Close(ctx context.Context) error {
	return c.DB.Client().Disconnect(ctx)
}

// EnsureIndexes creates the indexes every collection relies on. Safe to call on each start.
func (c *Client) EnsureIndexes(ctx context.Context, idempotencyTTL time.Duration) error {
	for _, ensure := range []func(context.Context, *mongo.Database) error{
		ensureBookingIndexes,
		ensureJobIndexes,
		func(ctx context.Context, db *mongo.Database) error { return ensureIdempotencyIndexes(ctx, db, idempotencyTTL) },
	} {
		if err := ensure(ctx, c.DB); err != nil {
			return err
		}
	}
	return nil
}

type documentMoney struct {
	Amount   int64  `bson:"amount"`
	Currency string `bson:"currency"`
}

type rangeDocument struct {
	Start int64 `bson:"start"`
	End   int64 `bson:"end"`
}

func timestampToTime(ms int64) time.Time {
	if ms == 0 {
		return time.Time{}
	}
	return time.UnixMilli(ms).UTC()
}

func timeToTimestamp(t time.Time) int64 {
	if t.IsZero() {
		return 0
	}
	return t.UnixMilli()
}
