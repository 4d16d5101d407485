package scheduler

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

type fakeJobRepo struct {
	due []Job

	done     []uuid.UUID
	failed   []uuid.UUID
	retried  []uuid.UUID
	requeued int64
}

func (f *fakeJobRepo) Schedule(ctx context.Context, job *Job) error {
	f.due = append(f.due, *job)
	return nil
}

func (f *fakeJobRepo) ScheduleTx(tx *gorm.DB, job *Job) error {
	f.due = append(f.due, *job)
	return nil
}

func (f *fakeJobRepo) ClaimDue(ctx context.Context, now time.Time, limit int) ([]Job, error) {
	claimed := f.due
	if len(claimed) > limit {
		claimed = claimed[:limit]
	}
	f.due = f.due[len(claimed):]
	for i := range claimed {
		claimed[i].Status = JobStatusRunning
		claimed[i].Attempts++
	}
	return claimed, nil
}

func (f *fakeJobRepo) MarkDone(ctx context.Context, id uuid.UUID) error {
	f.done = append(f.done, id)
	return nil
}

func (f *fakeJobRepo) MarkFailed(ctx context.Context, id uuid.UUID, jobErr error, retryAt *time.Time) error {
	if retryAt != nil {
		f.retried = append(f.retried, id)
		return nil
	}
	f.failed = append(f.failed, id)
	return nil
}

func (f *fakeJobRepo) EnsureRecurring(ctx context.Context, kind string, payload interface{}, dueAt time.Time) error {
	for _, job := range f.due {
		if job.Kind == kind {
			return nil
		}
	}
	job, err := NewJob(kind, payload, dueAt)
	if err != nil {
		return err
	}
	job.ID = uuid.New()
	f.due = append(f.due, *job)
	return nil
}

func (f *fakeJobRepo) RequeueStale(ctx context.Context, cutoff time.Time) (int64, error) {
	return f.requeued, nil
}

func dueJob(t *testing.T, kind string, payload interface{}) Job {
	t.Helper()
	job, err := NewJob(kind, payload, time.Now().Add(-time.Second))
	require.NoError(t, err)
	job.ID = uuid.New()
	return *job
}

func TestWorker_DispatchesToHandler(t *testing.T) {
	repo := &fakeJobRepo{}
	job := dueJob(t, "booking.expiry", map[string]string{"booking_id": uuid.NewString()})
	repo.due = []Job{job}

	worker := NewWorker(repo, nil)
	var handled []uuid.UUID
	worker.RegisterHandler("booking.expiry", func(ctx context.Context, j *Job) error {
		handled = append(handled, j.ID)
		return nil
	})

	worker.tick(context.Background())

	assert.Equal(t, []uuid.UUID{job.ID}, handled)
	assert.Equal(t, []uuid.UUID{job.ID}, repo.done)
	assert.Empty(t, repo.failed)
}

func TestWorker_RetriesUntilMaxAttempts(t *testing.T) {
	repo := &fakeJobRepo{}
	job := dueJob(t, "booking.expiry", struct{}{})
	repo.due = []Job{job}

	config := DefaultWorkerConfig()
	config.MaxAttempts = 3

	worker := NewWorker(repo, config)
	worker.RegisterHandler("booking.expiry", func(ctx context.Context, j *Job) error {
		return errors.New("transient failure")
	})

	// First attempt: below the cap, goes back to the pending queue.
	worker.tick(context.Background())
	assert.Equal(t, []uuid.UUID{job.ID}, repo.retried)
	assert.Empty(t, repo.failed)

	// Simulate the retried job coming due again at the attempt cap.
	job.Attempts = config.MaxAttempts
	repo.due = []Job{job}
	worker.tick(context.Background())
	assert.Equal(t, []uuid.UUID{job.ID}, repo.failed, "exhausted job fails terminally")
}

func TestWorker_UnregisteredKindFailsJob(t *testing.T) {
	repo := &fakeJobRepo{}
	job := dueJob(t, "unknown.kind", struct{}{})
	repo.due = []Job{job}

	worker := NewWorker(repo, nil)
	worker.tick(context.Background())

	assert.Equal(t, []uuid.UUID{job.ID}, repo.failed)
	assert.Empty(t, repo.retried, "no retry without a handler")
}

func TestWorker_BatchSizeLimitsClaim(t *testing.T) {
	repo := &fakeJobRepo{}
	for i := 0; i < 5; i++ {
		repo.due = append(repo.due, dueJob(t, "booking.expiry", struct{}{}))
	}

	config := DefaultWorkerConfig()
	config.BatchSize = 2

	worker := NewWorker(repo, config)
	worker.RegisterHandler("booking.expiry", func(ctx context.Context, j *Job) error { return nil })

	worker.tick(context.Background())
	assert.Len(t, repo.done, 2)
	assert.Len(t, repo.due, 3)
}
