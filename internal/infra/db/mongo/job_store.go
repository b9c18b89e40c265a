package mongo

import (
	"context"
	"errors"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"geargrab/internal/domain/jobs"
)

const jobCollection = "app_jobs"

// JobStore persists scheduled jobs. Claims are single-document findAndModify calls, so
// concurrent sweepers never receive the same job.
type JobStore struct {
	col   *mongo.Collection
	lease time.Duration
}

func NewJobStore(db *mongo.Database) *JobStore {
	return &JobStore{col: db.Collection(jobCollection), lease: jobs.DefaultLease}
}

func ensureJobIndexes(ctx context.Context, db *mongo.Database) error {
	_, err := db.Collection(jobCollection).Indexes().CreateOne(ctx, mongo.IndexModel{
		Keys: bson.D{{Key: "status", Value: 1}, {Key: "due_at", Value: 1}},
	})
	return err
}

type jobDocument struct {
	ID        string    `bson:"_id"`
	Kind      string    `bson:"kind"`
	BookingID string    `bson:"booking_id"`
	DueAt     time.Time `bson:"due_at"`
	Status    string    `bson:"status"`
	Attempts  int       `bson:"attempts"`
	LastError string    `bson:"last_error,omitempty"`
	CreatedAt time.Time `bson:"created_at"`
	UpdatedAt time.Time `bson:"updated_at"`
}

func newJobDocument(j jobs.Job) jobDocument {
	return jobDocument{
		ID:        j.ID,
		Kind:      string(j.Kind),
		BookingID: j.BookingID,
		DueAt:     j.DueAt.UTC(),
		Status:    string(j.Status),
		Attempts:  j.Attempts,
		LastError: j.LastError,
		CreatedAt: j.CreatedAt.UTC(),
		UpdatedAt: j.UpdatedAt.UTC(),
	}
}

func (d jobDocument) toJob() jobs.Job {
	return jobs.Job{
		ID:        d.ID,
		Kind:      jobs.Kind(d.Kind),
		BookingID: d.BookingID,
		DueAt:     d.DueAt.UTC(),
		Status:    jobs.Status(d.Status),
		Attempts:  d.Attempts,
		LastError: d.LastError,
		CreatedAt: d.CreatedAt.UTC(),
		UpdatedAt: d.UpdatedAt.UTC(),
	}
}

// Schedule inserts the job unless one with the same ID exists.
func (s *JobStore) Schedule(ctx context.Context, job jobs.Job) error {
	_, err := s.col.UpdateByID(ctx, job.ID, bson.M{"$setOnInsert": newJobDocument(job)}, options.Update().SetUpsert(true))
	if mongo.IsDuplicateKeyError(err) {
		return nil
	}
	return err
}

func (s *JobStore) ByID(ctx context.Context, id string) (jobs.Job, error) {
	var doc jobDocument
	if err := s.col.FindOne(ctx, bson.M{"_id": id}).Decode(&doc); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return jobs.Job{}, jobs.ErrJobNotFound
		}
		return jobs.Job{}, err
	}
	return doc.toJob(), nil
}

func (s *JobStore) ClaimDue(ctx context.Context, now time.Time, limit int) ([]jobs.Job, error) {
	now = now.UTC()
	filter := bson.M{"$or": bson.A{
		bson.M{"status": string(jobs.StatusPending), "due_at": bson.M{"$lte": now}},
		bson.M{"status": string(jobs.StatusRunning), "updated_at": bson.M{"$lte": now.Add(-s.lease)}},
	}}
	update := bson.M{
		"$set": bson.M{"status": string(jobs.StatusRunning), "updated_at": now},
		"$inc": bson.M{"attempts": 1},
	}
	opts := options.FindOneAndUpdate().
		SetReturnDocument(options.After).
		SetSort(bson.D{{Key: "due_at", Value: 1}})

	var claimed []jobs.Job
	for limit <= 0 || len(claimed) < limit {
		var doc jobDocument
		err := s.col.FindOneAndUpdate(ctx, filter, update, opts).Decode(&doc)
		if errors.Is(err, mongo.ErrNoDocuments) {
			break
		}
		if err != nil {
			return claimed, err
		}
		claimed = append(claimed, doc.toJob())
	}
	return claimed, nil
}

func (s *JobStore) MarkDone(ctx context.Context, id string, now time.Time) error {
	res, err := s.col.UpdateByID(ctx, id, bson.M{
		"$set":   bson.M{"status": string(jobs.StatusDone), "updated_at": now.UTC()},
		"$unset": bson.M{"last_error": ""},
	})
	if err != nil {
		return err
	}
	if res.MatchedCount == 0 {
		return jobs.ErrJobNotFound
	}
	return nil
}

func (s *JobStore) MarkFailed(ctx context.Context, id string, reason string, now time.Time) error {
	job, err := s.ByID(ctx, id)
	if err != nil {
		return err
	}
	job.Fail(reason, now)
	_, err = s.col.ReplaceOne(ctx, bson.M{"_id": id}, newJobDocument(job))
	return err
}

var _ jobs.Store = (*JobStore)(nil)
