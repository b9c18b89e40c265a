package scheduler

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/go-co-op/gocron/v2"
)

// Task is one recurring unit of background work. Run returns how many items it handled.
type Task struct {
	Name     string
	Interval time.Duration
	Run      func(ctx context.Context) (int, error)
}

// Background runs tasks on gocron. Each task is a singleton: a slow run delays the
// next instead of overlapping it.
type Background struct {
	sched  gocron.Scheduler
	logger *slog.Logger
}

var ErrNoTasks = errors.New("scheduler: no tasks configured")

func New(ctx context.Context, logger *slog.Logger, tasks ...Task) (*Background, error) {
	if len(tasks) == 0 {
		return nil, ErrNoTasks
	}
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	sched, err := gocron.NewScheduler(gocron.WithLocation(time.UTC))
	if err != nil {
		return nil, fmt.Errorf("create scheduler: %w", err)
	}
	b := &Background{sched: sched, logger: logger}
	for _, task := range tasks {
		if task.Interval <= 0 || task.Run == nil {
			_ = sched.Shutdown()
			return nil, fmt.Errorf("scheduler: task %q needs an interval and a run func", task.Name)
		}
		_, err := sched.NewJob(
			gocron.DurationJob(task.Interval),
			gocron.NewTask(b.wrap(ctx, task)),
			gocron.WithName(task.Name),
			gocron.WithSingletonMode(gocron.LimitModeReschedule),
		)
		if err != nil {
			_ = sched.Shutdown()
			return nil, fmt.Errorf("schedule %s: %w", task.Name, err)
		}
	}
	return b, nil
}

func (b *Background) wrap(ctx context.Context, task Task) func() {
	return func() {
		if ctx.Err() != nil {
			return
		}
		n, err := task.Run(ctx)
		if err != nil {
			b.logger.ErrorContext(ctx, "background task failed", "task", task.Name, "error", err)
			return
		}
		if n > 0 {
			b.logger.DebugContext(ctx, "background task ran", "task", task.Name, "handled", n)
		}
	}
}

func (b *Background) Start() {
	b.sched.Start()
}

// Shutdown waits for running tasks to return.
func (b *Background) Shutdown() error {
	return b.sched.Shutdown()
}
