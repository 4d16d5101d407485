package movies

import (
	"context"
	"errors"

	"cinebook/internal/shared/apperrors"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type Repository interface {
	GetByID(ctx context.Context, id string) (*Movie, error)
	Create(ctx context.Context, movie *Movie) error
	GetByIDs(ctx context.Context, ids []string) ([]Movie, error)
}

type repository struct {
	db *gorm.DB
}

func NewRepository(db *gorm.DB) Repository {
	return &repository{db: db}
}

func (r *repository) GetByID(ctx context.Context, id string) (*Movie, error) {
	var movie Movie
	err := r.db.WithContext(ctx).Where("id = ?", id).First(&movie).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperrors.ErrNotFound
		}
		return nil, err
	}
	return &movie, nil
}

// Create inserts the cached catalog record. Two concurrent lookup-or-create
// calls can race on the same id; the conflict clause makes the loser a no-op.
func (r *repository) Create(ctx context.Context, movie *Movie) error {
	return r.db.WithContext(ctx).
		Clauses(clause.OnConflict{DoNothing: true}).
		Create(movie).Error
}

func (r *repository) GetByIDs(ctx context.Context, ids []string) ([]Movie, error) {
	var result []Movie
	if len(ids) == 0 {
		return result, nil
	}
	err := r.db.WithContext(ctx).Where("id IN ?", ids).Find(&result).Error
	return result, err
}
