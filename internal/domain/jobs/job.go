package jobs

import (
	"context"
	"errors"
	"time"
)

var (
	ErrJobNotFound  = errors.New("jobs: not found")
	ErrKindRequired = errors.New("jobs: kind is required")
	ErrTargetEmpty  = errors.New("jobs: booking id is required")
)

type Kind string

const KindReleaseDeposit Kind = "release_deposit"

type Status string

const (
	StatusPending Status = "pending"
	StatusRunning Status = "running"
	StatusDone    Status = "done"
	StatusFailed  Status = "failed"
)

// Job is a durable delayed action on a booking.
type Job struct {
	ID        string
	Kind      Kind
	BookingID string
	DueAt     time.Time
	Status    Status
	Attempts  int
	LastError string
	CreatedAt time.Time
	UpdatedAt time.Time
}

// JobID is deterministic per kind and booking, so scheduling the same work twice
// leaves a single job.
func JobID(kind Kind, bookingID string) string {
	return string(kind) + ":" + bookingID
}

func New(kind Kind, bookingID string, dueAt, now time.Time) (Job, error) {
	if kind == "" {
		return Job{}, ErrKindRequired
	}
	if bookingID == "" {
		return Job{}, ErrTargetEmpty
	}
	now = now.UTC()
	return Job{
		ID:        JobID(kind, bookingID),
		Kind:      kind,
		BookingID: bookingID,
		DueAt:     dueAt.UTC(),
		Status:    StatusPending,
		CreatedAt: now,
		UpdatedAt: now,
	}, nil
}

const (
	// DefaultLease is how long a running job may stay claimed before another sweep takes it over.
	DefaultLease = 10 * time.Minute
	// MaxAttempts bounds retries; the job is parked as failed afterwards.
	MaxAttempts  = 5
	retryBackoff = time.Minute
)

// Claimable reports whether a sweep at now may take the job. Running jobs whose lease
// expired are claimable again so a crashed worker does not strand them.
func (j Job) Claimable(now time.Time, lease time.Duration) bool {
	switch j.Status {
	case StatusPending:
		return !j.DueAt.After(now)
	case StatusRunning:
		return !j.UpdatedAt.Add(lease).After(now)
	}
	return false
}

// Fail records a failed attempt and either reschedules the job with linear backoff or
// parks it once MaxAttempts is reached.
func (j *Job) Fail(reason string, now time.Time) {
	now = now.UTC()
	j.LastError = reason
	j.UpdatedAt = now
	if j.Attempts >= MaxAttempts {
		j.Status = StatusFailed
		return
	}
	j.Status = StatusPending
	j.DueAt = now.Add(time.Duration(j.Attempts) * retryBackoff)
}

// Store persists jobs. Schedule ignores a job whose ID already exists. ClaimDue moves
// claimable jobs to running and counts the attempt, so each job is handed to a single
// worker at a time.
type Store interface {
	Schedule(ctx context.Context, job Job) error
	ByID(ctx context.Context, id string) (Job, error)
	ClaimDue(ctx context.Context, now time.Time, limit int) ([]Job, error)
	MarkDone(ctx context.Context, id string, now time.Time) error
	MarkFailed(ctx context.Context, id string, reason string, now time.Time) error
}
