package shows

import (
	"context"
	"errors"
	"time"

	"cinebook/internal/shared/apperrors"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type Repository interface {
	CreateBatch(ctx context.Context, batch []Show) error
	GetByID(ctx context.Context, id uuid.UUID) (*Show, error)
	GetByIDWithMovie(ctx context.Context, id uuid.UUID) (*Show, error)
	GetUpcoming(ctx context.Context) ([]Show, error)
	GetUpcomingByMovie(ctx context.Context, movieID string) ([]Show, error)
	GetStartingWithin(ctx context.Context, from, until time.Time) ([]Show, error)

	// GetForUpdate locks the show row inside tx; the caller owns the
	// transaction. Holding this lock is what serializes seat-map writes
	// per show.
	GetForUpdate(tx *gorm.DB, id uuid.UUID) (*Show, error)
	SaveSeatMap(tx *gorm.DB, id uuid.UUID, seats SeatMap) error
}

type repository struct {
	db *gorm.DB
}

func NewRepository(db *gorm.DB) Repository {
	return &repository{db: db}
}

func (r *repository) CreateBatch(ctx context.Context, batch []Show) error {
	if len(batch) == 0 {
		return nil
	}
	return r.db.WithContext(ctx).Create(&batch).Error
}

func (r *repository) GetByID(ctx context.Context, id uuid.UUID) (*Show, error) {
	var show Show
	err := r.db.WithContext(ctx).Where("id = ?", id).First(&show).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperrors.ErrNotFound
		}
		return nil, err
	}
	return &show, nil
}

func (r *repository) GetByIDWithMovie(ctx context.Context, id uuid.UUID) (*Show, error) {
	var show Show
	err := r.db.WithContext(ctx).
		Preload("Movie").
		Where("id = ?", id).
		First(&show).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperrors.ErrNotFound
		}
		return nil, err
	}
	return &show, nil
}

func (r *repository) GetUpcoming(ctx context.Context) ([]Show, error) {
	var result []Show
	err := r.db.WithContext(ctx).
		Preload("Movie").
		Where("start_time >= ?", time.Now()).
		Order("start_time ASC").
		Find(&result).Error
	return result, err
}

func (r *repository) GetUpcomingByMovie(ctx context.Context, movieID string) ([]Show, error) {
	var result []Show
	err := r.db.WithContext(ctx).
		Where("movie_id = ?", movieID).
		Where("start_time >= ?", time.Now()).
		Order("start_time ASC").
		Find(&result).Error
	return result, err
}

func (r *repository) GetStartingWithin(ctx context.Context, from, until time.Time) ([]Show, error) {
	var result []Show
	err := r.db.WithContext(ctx).
		Preload("Movie").
		Where("start_time >= ? AND start_time <= ?", from, until).
		Order("start_time ASC").
		Find(&result).Error
	return result, err
}

func (r *repository) GetForUpdate(tx *gorm.DB, id uuid.UUID) (*Show, error) {
	var show Show
	err := tx.
		Clauses(clause.Locking{Strength: "UPDATE"}).
		Where("id = ?", id).
		First(&show).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperrors.ErrNotFound
		}
		return nil, err
	}
	return &show, nil
}

func (r *repository) SaveSeatMap(tx *gorm.DB, id uuid.UUID, seats SeatMap) error {
	return tx.Model(&Show{}).
		Where("id = ?", id).
		Updates(map[string]interface{}{
			"occupied_seats": seats,
			"updated_at":     time.Now(),
		}).Error
}
