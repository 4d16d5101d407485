package scheduler

import (
	"context"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type Repository interface {
	Schedule(ctx context.Context, job *Job) error

	// ScheduleTx enqueues within the caller's transaction, so the job
	// commits or rolls back together with the rows that made it necessary.
	ScheduleTx(tx *gorm.DB, job *Job) error

	// ClaimDue atomically moves up to limit due pending jobs to RUNNING
	// and returns them. FOR UPDATE SKIP LOCKED keeps concurrent claimers
	// from grabbing the same rows.
	ClaimDue(ctx context.Context, now time.Time, limit int) ([]Job, error)

	MarkDone(ctx context.Context, id uuid.UUID) error

	// MarkFailed records the error; a non-nil retryAt puts the job back in
	// the pending queue for that time instead of failing it terminally.
	MarkFailed(ctx context.Context, id uuid.UUID, jobErr error, retryAt *time.Time) error

	// EnsureRecurring schedules a job of the given kind unless a pending
	// one already exists. Used to seed recurring jobs at startup.
	EnsureRecurring(ctx context.Context, kind string, payload interface{}, dueAt time.Time) error

	// RequeueStale resets RUNNING jobs older than the cutoff back to
	// PENDING. Recovers jobs orphaned by a crash mid-execution.
	RequeueStale(ctx context.Context, cutoff time.Time) (int64, error)
}

type repository struct {
	db *gorm.DB
}

func NewRepository(db *gorm.DB) Repository {
	return &repository{db: db}
}

func (r *repository) Schedule(ctx context.Context, job *Job) error {
	return r.db.WithContext(ctx).Create(job).Error
}

func (r *repository) ScheduleTx(tx *gorm.DB, job *Job) error {
	return tx.Create(job).Error
}

func (r *repository) ClaimDue(ctx context.Context, now time.Time, limit int) ([]Job, error) {
	var claimed []Job

	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.
			Clauses(clause.Locking{Strength: "UPDATE", Options: "SKIP LOCKED"}).
			Where("status = ? AND due_at <= ?", JobStatusPending, now).
			Order("due_at ASC").
			Limit(limit).
			Find(&claimed).Error; err != nil {
			return err
		}

		if len(claimed) == 0 {
			return nil
		}

		ids := make([]uuid.UUID, len(claimed))
		for i := range claimed {
			ids[i] = claimed[i].ID
		}

		if err := tx.Model(&Job{}).
			Where("id IN ?", ids).
			Updates(map[string]interface{}{
				"status":     JobStatusRunning,
				"attempts":   gorm.Expr("attempts + 1"),
				"updated_at": time.Now(),
			}).Error; err != nil {
			return err
		}

		for i := range claimed {
			claimed[i].Status = JobStatusRunning
			claimed[i].Attempts++
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return claimed, nil
}

func (r *repository) MarkDone(ctx context.Context, id uuid.UUID) error {
	now := time.Now()
	return r.db.WithContext(ctx).Model(&Job{}).
		Where("id = ?", id).
		Updates(map[string]interface{}{
			"status":       JobStatusDone,
			"completed_at": now,
			"updated_at":   now,
		}).Error
}

func (r *repository) MarkFailed(ctx context.Context, id uuid.UUID, jobErr error, retryAt *time.Time) error {
	updates := map[string]interface{}{
		"status":     JobStatusFailed,
		"last_error": jobErr.Error(),
		"updated_at": time.Now(),
	}
	if retryAt != nil {
		updates["status"] = JobStatusPending
		updates["due_at"] = *retryAt
	}
	return r.db.WithContext(ctx).Model(&Job{}).
		Where("id = ?", id).
		Updates(updates).Error
}

func (r *repository) EnsureRecurring(ctx context.Context, kind string, payload interface{}, dueAt time.Time) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var count int64
		if err := tx.Model(&Job{}).
			Where("kind = ? AND status IN ?", kind, []JobStatus{JobStatusPending, JobStatusRunning}).
			Count(&count).Error; err != nil {
			return err
		}
		if count > 0 {
			return nil
		}

		job, err := NewJob(kind, payload, dueAt)
		if err != nil {
			return err
		}
		return tx.Create(job).Error
	})
}

func (r *repository) RequeueStale(ctx context.Context, cutoff time.Time) (int64, error) {
	result := r.db.WithContext(ctx).Model(&Job{}).
		Where("status = ? AND updated_at < ?", JobStatusRunning, cutoff).
		Updates(map[string]interface{}{
			"status":     JobStatusPending,
			"updated_at": time.Now(),
		})
	return result.RowsAffected, result.Error
}
