package schedule

import (
	"context"
	"time"

	"geargrab/internal/domain/jobs"
)

// Scheduler registers durable work to run after runAt.
type Scheduler interface {
	Schedule(ctx context.Context, kind jobs.Kind, bookingID string, runAt time.Time) error
}

// StoreScheduler persists jobs in a jobs.Store for the background sweeper.
type StoreScheduler struct {
	Store jobs.Store
	Now   func() time.Time
}

func (s StoreScheduler) Schedule(ctx context.Context, kind jobs.Kind, bookingID string, runAt time.Time) error {
	now := time.Now
	if s.Now != nil {
		now = s.Now
	}
	job, err := jobs.New(kind, bookingID, runAt, now())
	if err != nil {
		return err
	}
	return s.Store.Schedule(ctx, job)
}

var _ Scheduler = StoreScheduler{}
