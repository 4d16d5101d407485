package bookings

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"cinebook/internal/scheduler"
	"cinebook/internal/shared/apperrors"
	"cinebook/pkg/logger"

	"github.com/google/uuid"
)

// PaymentInitiator creates a checkout session for an unpaid booking and
// returns the URL the client should be sent to. Defined here so the
// payments package can depend on bookings and not the other way around.
type PaymentInitiator interface {
	CreateSession(ctx context.Context, booking *Booking) (string, error)
}

// Notifier publishes booking lifecycle notifications.
type Notifier interface {
	NotifyBookingConfirmed(ctx context.Context, booking *Booking) error
}

type Service interface {
	// Reserve validates and commits the seat hold, schedules expiry, and
	// initiates payment. On payment-session failure the committed hold is
	// rolled back so the caller observes no partial state.
	Reserve(ctx context.Context, userID string, showID uuid.UUID, seats []string) (*CreateBookingResponse, error)

	// ConfirmPayment marks the booking paid. Idempotent: only the first
	// call performs the transition and triggers the confirmation email.
	ConfirmPayment(ctx context.Context, bookingID uuid.UUID) error

	// HandleExpiry is the scheduler handler for booking.expiry jobs.
	HandleExpiry(ctx context.Context, job *scheduler.Job) error

	GetBooking(ctx context.Context, userID string, isAdmin bool, id uuid.UUID) (*Booking, error)
	GetUserBookings(ctx context.Context, userID string) ([]Booking, error)
	GetAllBookings(ctx context.Context) ([]Booking, error)
	PaidStats(ctx context.Context) (int64, float64, error)
}

type service struct {
	repo       Repository
	seatLock   *SeatLock
	payments   PaymentInitiator
	notifier   Notifier
	holdWindow time.Duration
	log        *logger.Logger
}

func NewService(repo Repository, seatLock *SeatLock, payments PaymentInitiator, notifier Notifier, holdWindow time.Duration) Service {
	return &service{
		repo:       repo,
		seatLock:   seatLock,
		payments:   payments,
		notifier:   notifier,
		holdWindow: holdWindow,
		log:        logger.GetDefault(),
	}
}

func (s *service) Reserve(ctx context.Context, userID string, showID uuid.UUID, seats []string) (*CreateBookingResponse, error) {
	// A repeated label in one request is still one seat; collapse it so
	// the booking is neither double-priced nor double-listed.
	seats = dedupeSeats(seats)

	// Fast-fail gate; contended requests bounce here without touching
	// Postgres. A Redis outage just skips the gate.
	if err := s.seatLock.Acquire(ctx, showID, seats, userID, s.holdWindow); err != nil {
		if _, ok := apperrors.IsSeatUnavailable(err); ok {
			return nil, err
		}
		s.log.Warn("seat lock gate unavailable, falling through to database",
			slog.String("show_id", showID.String()),
			slog.String("error", err.Error()),
		)
	}

	booking := &Booking{
		ShowID: showID,
		UserID: userID,
		Seats:  SeatList(seats),
	}

	if err := s.repo.CreateWithSeatHold(ctx, booking, s.holdWindow); err != nil {
		if releaseErr := s.seatLock.Release(ctx, showID, seats); releaseErr != nil {
			s.log.Warn("failed to release seat locks", slog.String("error", releaseErr.Error()))
		}
		return nil, err
	}

	s.log.LogBookingCreated(ctx, booking.ID.String(), showID.String(), userID)

	// Payment session creation happens outside the transaction; if the
	// provider is down we undo the hold so no orphaned booking survives.
	paymentURL, err := s.payments.CreateSession(ctx, booking)
	if err != nil {
		s.log.Error("payment session creation failed, rolling back hold",
			slog.String("booking_id", booking.ID.String()),
			slog.String("error", err.Error()),
		)
		if _, rollbackErr := s.repo.ExpireIfUnpaid(ctx, booking.ID); rollbackErr != nil {
			s.log.Error("failed to roll back booking after payment failure",
				slog.String("booking_id", booking.ID.String()),
				slog.String("error", rollbackErr.Error()),
			)
		}
		if releaseErr := s.seatLock.Release(ctx, showID, seats); releaseErr != nil {
			s.log.Warn("failed to release seat locks", slog.String("error", releaseErr.Error()))
		}
		return nil, fmt.Errorf("%w: %v", apperrors.ErrUpstreamUnavailable, err)
	}

	if err := s.repo.SetPaymentRef(ctx, booking.ID, paymentURL); err != nil {
		s.log.Warn("failed to store payment link",
			slog.String("booking_id", booking.ID.String()),
			slog.String("error", err.Error()),
		)
	}
	booking.PaymentRef = paymentURL

	return &CreateBookingResponse{Booking: booking, PaymentURL: paymentURL}, nil
}

func dedupeSeats(seats []string) []string {
	seen := make(map[string]struct{}, len(seats))
	deduped := make([]string, 0, len(seats))
	for _, seat := range seats {
		if _, ok := seen[seat]; ok {
			continue
		}
		seen[seat] = struct{}{}
		deduped = append(deduped, seat)
	}
	return deduped
}

func (s *service) ConfirmPayment(ctx context.Context, bookingID uuid.UUID) error {
	applied, err := s.repo.ConfirmIfUnpaid(ctx, bookingID)
	if err != nil {
		return fmt.Errorf("failed to confirm booking %s: %w", bookingID, err)
	}
	if !applied {
		// Duplicate webhook delivery, or the booking already expired.
		s.log.Info("payment confirmation ignored",
			slog.String("booking_id", bookingID.String()),
		)
		return nil
	}

	s.log.LogPaymentConfirmed(ctx, bookingID.String())

	if s.notifier == nil {
		return nil
	}
	booking, err := s.repo.GetByID(ctx, bookingID)
	if err != nil {
		s.log.Warn("confirmed booking not loadable for notification",
			slog.String("booking_id", bookingID.String()),
			slog.String("error", err.Error()),
		)
		return nil
	}
	if err := s.notifier.NotifyBookingConfirmed(ctx, booking); err != nil {
		// The booking is paid regardless; the email is best effort.
		s.log.Warn("failed to send booking confirmation",
			slog.String("booking_id", bookingID.String()),
			slog.String("error", err.Error()),
		)
	}
	return nil
}

func (s *service) HandleExpiry(ctx context.Context, job *scheduler.Job) error {
	var payload ExpiryPayload
	if err := job.DecodePayload(&payload); err != nil {
		return fmt.Errorf("invalid expiry payload: %w", err)
	}

	released, err := s.repo.ExpireIfUnpaid(ctx, payload.BookingID)
	if err != nil {
		return err
	}
	if released == nil {
		// Paid in time, or already cleaned up.
		return nil
	}

	if err := s.seatLock.Release(ctx, released.ShowID, released.Seats); err != nil {
		s.log.Warn("failed to release seat locks after expiry",
			slog.String("booking_id", released.ID.String()),
			slog.String("error", err.Error()),
		)
	}

	s.log.LogBookingExpired(ctx, released.ID.String(), released.ShowID.String())
	return nil
}

func (s *service) GetBooking(ctx context.Context, userID string, isAdmin bool, id uuid.UUID) (*Booking, error) {
	booking, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if !isAdmin && booking.UserID != userID {
		return nil, apperrors.ErrUnauthorized
	}
	return booking, nil
}

func (s *service) GetUserBookings(ctx context.Context, userID string) ([]Booking, error) {
	return s.repo.GetUserBookings(ctx, userID)
}

func (s *service) GetAllBookings(ctx context.Context) ([]Booking, error) {
	return s.repo.GetAll(ctx)
}

func (s *service) PaidStats(ctx context.Context) (int64, float64, error) {
	return s.repo.PaidStats(ctx)
}
