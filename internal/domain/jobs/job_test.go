package jobs

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewBuildsDeterministicID(t *testing.T) {
	now := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	job, err := New(KindReleaseDeposit, "b-1", now.Add(time.Hour), now)
	require.NoError(t, err)
	assert.Equal(t, "release_deposit:b-1", job.ID)
	assert.Equal(t, StatusPending, job.Status)

	_, err = New("", "b-1", now, now)
	assert.ErrorIs(t, err, ErrKindRequired)
	_, err = New(KindReleaseDeposit, "", now, now)
	assert.ErrorIs(t, err, ErrTargetEmpty)
}

func TestClaimable(t *testing.T) {
	now := time.Date(2026, 1, 1, 12, 0, 0, 0, time.UTC)
	pending := Job{Status: StatusPending, DueAt: now}
	assert.True(t, pending.Claimable(now, DefaultLease))
	pending.DueAt = now.Add(time.Second)
	assert.False(t, pending.Claimable(now, DefaultLease))

	running := Job{Status: StatusRunning, UpdatedAt: now.Add(-time.Minute)}
	assert.False(t, running.Claimable(now, DefaultLease))
	running.UpdatedAt = now.Add(-DefaultLease)
	assert.True(t, running.Claimable(now, DefaultLease))

	assert.False(t, Job{Status: StatusDone}.Claimable(now, DefaultLease))
}

func TestFailBacksOffThenParks(t *testing.T) {
	now := time.Date(2026, 1, 1, 12, 0, 0, 0, time.UTC)
	job := Job{Status: StatusRunning, Attempts: 2}
	job.Fail("gateway down", now)
	assert.Equal(t, StatusPending, job.Status)
	assert.Equal(t, now.Add(2*time.Minute), job.DueAt)
	assert.Equal(t, "gateway down", job.LastError)

	job.Attempts = MaxAttempts
	job.Fail("still down", now)
	assert.Equal(t, StatusFailed, job.Status)
}
