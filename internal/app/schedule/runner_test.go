package schedule_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"geargrab/internal/app/schedule"
	"geargrab/internal/domain/jobs"
	"geargrab/internal/infra/storage/memory"
)

func TestStoreSchedulerIsIdempotent(t *testing.T) {
	store := memory.NewJobStore()
	now := time.Date(2025, 7, 4, 12, 0, 0, 0, time.UTC)
	s := schedule.StoreScheduler{Store: store, Now: func() time.Time { return now }}

	require.NoError(t, s.Schedule(context.Background(), jobs.KindReleaseDeposit, "bk_1", now.Add(48*time.Hour)))
	require.NoError(t, s.Schedule(context.Background(), jobs.KindReleaseDeposit, "bk_1", now.Add(96*time.Hour)))

	job, err := store.ByID(context.Background(), jobs.JobID(jobs.KindReleaseDeposit, "bk_1"))
	require.NoError(t, err)
	assert.Equal(t, now.Add(48*time.Hour), job.DueAt)
}

func TestRunnerSweepRunsDueJobsOnce(t *testing.T) {
	store := memory.NewJobStore()
	now := time.Date(2025, 7, 4, 12, 0, 0, 0, time.UTC)
	clock := func() time.Time { return now }
	s := schedule.StoreScheduler{Store: store, Now: clock}
	require.NoError(t, s.Schedule(context.Background(), jobs.KindReleaseDeposit, "bk_due", now.Add(-time.Minute)))
	require.NoError(t, s.Schedule(context.Background(), jobs.KindReleaseDeposit, "bk_later", now.Add(time.Hour)))

	var ran []string
	r := &schedule.Runner{
		Store: store,
		Now:   clock,
		Handlers: map[jobs.Kind]schedule.JobHandler{
			jobs.KindReleaseDeposit: func(_ context.Context, job jobs.Job) error {
				ran = append(ran, job.BookingID)
				return nil
			},
		},
	}

	done, err := r.Sweep(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 1, done)
	assert.Equal(t, []string{"bk_due"}, ran)

	done, err = r.Sweep(context.Background())
	require.NoError(t, err)
	assert.Zero(t, done)

	job, err := store.ByID(context.Background(), jobs.JobID(jobs.KindReleaseDeposit, "bk_due"))
	require.NoError(t, err)
	assert.Equal(t, jobs.StatusDone, job.Status)
}

func TestRunnerSweepReschedulesFailures(t *testing.T) {
	store := memory.NewJobStore()
	now := time.Date(2025, 7, 4, 12, 0, 0, 0, time.UTC)
	clock := func() time.Time { return now }
	require.NoError(t, schedule.StoreScheduler{Store: store, Now: clock}.Schedule(context.Background(), jobs.KindReleaseDeposit, "bk_1", now))

	r := &schedule.Runner{
		Store: store,
		Now:   clock,
		Handlers: map[jobs.Kind]schedule.JobHandler{
			jobs.KindReleaseDeposit: func(context.Context, jobs.Job) error { return errors.New("gateway timeout") },
		},
	}

	done, err := r.Sweep(context.Background())
	require.NoError(t, err)
	assert.Zero(t, done)

	job, err := store.ByID(context.Background(), jobs.JobID(jobs.KindReleaseDeposit, "bk_1"))
	require.NoError(t, err)
	assert.Equal(t, jobs.StatusPending, job.Status)
	assert.Equal(t, 1, job.Attempts)
	assert.Equal(t, "gateway timeout", job.LastError)
	assert.Equal(t, now.Add(time.Minute), job.DueAt)
}

func TestRunnerSweepFailsUnknownKinds(t *testing.T) {
	store := memory.NewJobStore()
	now := time.Now().UTC()
	require.NoError(t, store.Schedule(context.Background(), jobs.Job{ID: "x", Kind: "mystery", BookingID: "bk", DueAt: now.Add(-time.Second), Status: jobs.StatusPending}))

	r := &schedule.Runner{Store: store}
	done, err := r.Sweep(context.Background())
	require.NoError(t, err)
	assert.Zero(t, done)

	job, err := store.ByID(context.Background(), "x")
	require.NoError(t, err)
	assert.Contains(t, job.LastError, "no handler")
}
