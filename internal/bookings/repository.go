package bookings

import (
	"context"
	"errors"
	"fmt"
	"time"

	"cinebook/internal/scheduler"
	"cinebook/internal/shared/apperrors"
	"cinebook/internal/shows"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type Repository interface {
	// CreateWithSeatHold commits the reservation atomically: it locks the
	// show row, rejects conflicting seats, writes the seat map, inserts
	// the booking, and enqueues the expiry job, all in one transaction.
	// The booking's Amount is derived from the locked show's price.
	CreateWithSeatHold(ctx context.Context, booking *Booking, holdWindow time.Duration) error

	// ConfirmIfUnpaid flips is_paid in a single conditional update and
	// reports whether this call performed the transition. Repeated
	// confirmations return false without touching the row again.
	ConfirmIfUnpaid(ctx context.Context, id uuid.UUID) (bool, error)

	// ExpireIfUnpaid releases the booking's seats and deletes the record
	// if it is still unpaid. Returns the deleted booking, or nil when the
	// booking was already paid or already gone.
	ExpireIfUnpaid(ctx context.Context, id uuid.UUID) (*Booking, error)

	SetPaymentRef(ctx context.Context, id uuid.UUID, ref string) error
	GetByID(ctx context.Context, id uuid.UUID) (*Booking, error)
	GetUserBookings(ctx context.Context, userID string) ([]Booking, error)
	GetAll(ctx context.Context) ([]Booking, error)
	PaidStats(ctx context.Context) (count int64, revenue float64, err error)
}

type repository struct {
	db        *gorm.DB
	showRepo  shows.Repository
	schedRepo scheduler.Repository
}

func NewRepository(db *gorm.DB, showRepo shows.Repository, schedRepo scheduler.Repository) Repository {
	return &repository{db: db, showRepo: showRepo, schedRepo: schedRepo}
}

func (r *repository) CreateWithSeatHold(ctx context.Context, booking *Booking, holdWindow time.Duration) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		// Lock the show row; every seat-map mutation for this show
		// serializes on this lock.
		show, err := r.showRepo.GetForUpdate(tx, booking.ShowID)
		if err != nil {
			if errors.Is(err, apperrors.ErrNotFound) {
				return err
			}
			return fmt.Errorf("failed to lock show: %w", err)
		}

		if conflicts := show.OccupiedSeats.Conflicts(booking.Seats); len(conflicts) > 0 {
			return &apperrors.SeatUnavailableError{Seats: conflicts}
		}

		if show.OccupiedSeats == nil {
			show.OccupiedSeats = shows.SeatMap{}
		}
		if err := show.OccupiedSeats.Reserve(booking.Seats, booking.UserID); err != nil {
			return &apperrors.SeatUnavailableError{Seats: show.OccupiedSeats.Conflicts(booking.Seats)}
		}

		if err := r.showRepo.SaveSeatMap(tx, show.ID, show.OccupiedSeats); err != nil {
			return fmt.Errorf("failed to persist seat map: %w", err)
		}

		if booking.ID == uuid.Nil {
			booking.ID = uuid.New()
		}
		booking.Amount = show.Price * float64(len(booking.Seats))
		booking.IsPaid = false

		if err := tx.Create(booking).Error; err != nil {
			return fmt.Errorf("failed to create booking: %w", err)
		}

		// The expiry check commits with the booking; a crash after this
		// point cannot leave seats held forever.
		job, err := scheduler.NewJob(
			scheduler.JobKindBookingExpiry,
			ExpiryPayload{BookingID: booking.ID},
			time.Now().Add(holdWindow),
		)
		if err != nil {
			return err
		}
		if err := r.schedRepo.ScheduleTx(tx, job); err != nil {
			return fmt.Errorf("failed to schedule expiry: %w", err)
		}

		return nil
	})
}

func (r *repository) ConfirmIfUnpaid(ctx context.Context, id uuid.UUID) (bool, error) {
	result := r.db.WithContext(ctx).Model(&Booking{}).
		Where("id = ? AND is_paid = ?", id, false).
		Updates(map[string]interface{}{
			"is_paid":     true,
			"payment_ref": "",
			"updated_at":  time.Now(),
		})
	if result.Error != nil {
		return false, result.Error
	}
	return result.RowsAffected == 1, nil
}

func (r *repository) ExpireIfUnpaid(ctx context.Context, id uuid.UUID) (*Booking, error) {
	var released *Booking

	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var booking Booking
		err := tx.
			Clauses(clause.Locking{Strength: "UPDATE"}).
			Where("id = ?", id).
			First(&booking).Error
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return nil
			}
			return fmt.Errorf("failed to lock booking: %w", err)
		}

		if booking.IsPaid {
			return nil
		}

		show, err := r.showRepo.GetForUpdate(tx, booking.ShowID)
		if err != nil {
			return fmt.Errorf("failed to lock show: %w", err)
		}

		show.OccupiedSeats.Release(booking.Seats)
		if err := r.showRepo.SaveSeatMap(tx, show.ID, show.OccupiedSeats); err != nil {
			return fmt.Errorf("failed to persist seat map: %w", err)
		}

		if err := tx.Delete(&Booking{}, "id = ?", booking.ID).Error; err != nil {
			return fmt.Errorf("failed to delete booking: %w", err)
		}

		released = &booking
		return nil
	})
	if err != nil {
		return nil, err
	}
	return released, nil
}

func (r *repository) SetPaymentRef(ctx context.Context, id uuid.UUID, ref string) error {
	return r.db.WithContext(ctx).Model(&Booking{}).
		Where("id = ?", id).
		Updates(map[string]interface{}{
			"payment_ref": ref,
			"updated_at":  time.Now(),
		}).Error
}

func (r *repository) GetByID(ctx context.Context, id uuid.UUID) (*Booking, error) {
	var booking Booking
	err := r.db.WithContext(ctx).
		Preload("Show").
		Preload("Show.Movie").
		Preload("User").
		Where("id = ?", id).
		First(&booking).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperrors.ErrNotFound
		}
		return nil, err
	}
	return &booking, nil
}

func (r *repository) GetUserBookings(ctx context.Context, userID string) ([]Booking, error) {
	var result []Booking
	err := r.db.WithContext(ctx).
		Preload("Show").
		Preload("Show.Movie").
		Where("user_id = ?", userID).
		Order("created_at DESC").
		Find(&result).Error
	return result, err
}

func (r *repository) GetAll(ctx context.Context) ([]Booking, error) {
	var result []Booking
	err := r.db.WithContext(ctx).
		Preload("Show").
		Preload("Show.Movie").
		Preload("User").
		Order("created_at DESC").
		Find(&result).Error
	return result, err
}

func (r *repository) PaidStats(ctx context.Context) (int64, float64, error) {
	var stats struct {
		Count   int64
		Revenue float64
	}
	err := r.db.WithContext(ctx).Model(&Booking{}).
		Select("COUNT(*) AS count, COALESCE(SUM(amount), 0) AS revenue").
		Where("is_paid = ?", true).
		Scan(&stats).Error
	if err != nil {
		return 0, 0, err
	}
	return stats.Count, stats.Revenue, nil
}
