package schedule

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"geargrab/internal/domain/jobs"
)

// JobHandler performs the work behind one job kind.
type JobHandler func(ctx context.Context, job jobs.Job) error

// Runner claims due jobs and hands each to the handler registered for its kind.
type Runner struct {
	Store     jobs.Store
	Handlers  map[jobs.Kind]JobHandler
	BatchSize int
	Now       func() time.Time
	Logger    *slog.Logger
}

// Sweep runs one pass and returns how many jobs completed. A failing job is rescheduled
// through the store and does not stop the pass.
func (r *Runner) Sweep(ctx context.Context) (int, error) {
	now := r.now()
	due, err := r.Store.ClaimDue(ctx, now, r.batchSize())
	if err != nil {
		return 0, fmt.Errorf("claim due jobs: %w", err)
	}
	done := 0
	for _, job := range due {
		if err := r.run(ctx, job); err != nil {
			r.logger().WarnContext(ctx, "job failed", "job_id", job.ID, "kind", job.Kind, "attempt", job.Attempts, "error", err)
			if markErr := r.Store.MarkFailed(ctx, job.ID, err.Error(), r.now()); markErr != nil {
				return done, markErr
			}
			continue
		}
		if err := r.Store.MarkDone(ctx, job.ID, r.now()); err != nil {
			return done, err
		}
		r.logger().InfoContext(ctx, "job done", "job_id", job.ID, "kind", job.Kind)
		done++
	}
	return done, nil
}

func (r *Runner) run(ctx context.Context, job jobs.Job) error {
	handler, ok := r.Handlers[job.Kind]
	if !ok {
		return fmt.Errorf("no handler for job kind %q", job.Kind)
	}
	return handler(ctx, job)
}

func (r *Runner) now() time.Time {
	if r.Now != nil {
		return r.Now().UTC()
	}
	return time.Now().UTC()
}

func (r *Runner) batchSize() int {
	if r.BatchSize <= 0 {
		return 50
	}
	return r.BatchSize
}

func (r *Runner) logger() *slog.Logger {
	if r.Logger != nil {
		return r.Logger
	}
	return slog.New(slog.DiscardHandler)
}
