package memory

import (
	"context"
	"sort"
	"sync"
	"time"

	"geargrab/internal/domain/jobs"
)

// JobStore keeps scheduled jobs in memory.
type JobStore struct {
	mu    sync.Mutex
	items map[string]jobs.Job
	lease time.Duration
}

func NewJobStore() *JobStore {
	return &JobStore{items: make(map[string]jobs.Job), lease: jobs.DefaultLease}
}

func (s *JobStore) Schedule(ctx context.Context, job jobs.Job) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.items[job.ID]; ok {
		return nil
	}
	s.items[job.ID] = job
	return nil
}

func (s *JobStore) ByID(ctx context.Context, id string) (jobs.Job, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	job, ok := s.items[id]
	if !ok {
		return jobs.Job{}, jobs.ErrJobNotFound
	}
	return job, nil
}

func (s *JobStore) ClaimDue(ctx context.Context, now time.Time, limit int) ([]jobs.Job, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	now = now.UTC()
	due := make([]jobs.Job, 0)
	for _, job := range s.items {
		if job.Claimable(now, s.lease) {
			due = append(due, job)
		}
	}
	sort.Slice(due, func(i, j int) bool { return due[i].DueAt.Before(due[j].DueAt) })
	if limit > 0 && len(due) > limit {
		due = due[:limit]
	}
	for i := range due {
		due[i].Status = jobs.StatusRunning
		due[i].Attempts++
		due[i].UpdatedAt = now
		s.items[due[i].ID] = due[i]
	}
	return due, nil
}

func (s *JobStore) MarkDone(ctx context.Context, id string, now time.Time) error {
	return s.update(id, func(job *jobs.Job) {
		job.Status = jobs.StatusDone
		job.LastError = ""
		job.UpdatedAt = now.UTC()
	})
}

func (s *JobStore) MarkFailed(ctx context.Context, id string, reason string, now time.Time) error {
	return s.update(id, func(job *jobs.Job) {
		job.Fail(reason, now)
	})
}

func (s *JobStore) update(id string, fn func(job *jobs.Job)) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	job, ok := s.items[id]
	if !ok {
		return jobs.ErrJobNotFound
	}
	fn(&job)
	s.items[id] = job
	return nil
}

var _ jobs.Store = (*JobStore)(nil)
