package bookings

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"

	"cinebook/internal/scheduler"
	"cinebook/internal/shared/apperrors"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeBookingRepo struct {
	bookings map[uuid.UUID]*Booking

	createErr      error
	conflictSeats  []string
	confirmApplied bool
	expired        []uuid.UUID
	paymentRefs    map[uuid.UUID]string
	price          float64
}

func newFakeBookingRepo() *fakeBookingRepo {
	return &fakeBookingRepo{
		bookings:    make(map[uuid.UUID]*Booking),
		paymentRefs: make(map[uuid.UUID]string),
		price:       300,
	}
}

func (f *fakeBookingRepo) CreateWithSeatHold(ctx context.Context, booking *Booking, holdWindow time.Duration) error {
	if f.createErr != nil {
		return f.createErr
	}
	if len(f.conflictSeats) > 0 {
		return &apperrors.SeatUnavailableError{Seats: f.conflictSeats}
	}
	booking.ID = uuid.New()
	booking.Amount = f.price * float64(len(booking.Seats))
	f.bookings[booking.ID] = booking
	return nil
}

func (f *fakeBookingRepo) ConfirmIfUnpaid(ctx context.Context, id uuid.UUID) (bool, error) {
	booking, ok := f.bookings[id]
	if !ok || booking.IsPaid {
		return false, nil
	}
	booking.IsPaid = true
	return true, nil
}

func (f *fakeBookingRepo) ExpireIfUnpaid(ctx context.Context, id uuid.UUID) (*Booking, error) {
	f.expired = append(f.expired, id)
	booking, ok := f.bookings[id]
	if !ok || booking.IsPaid {
		return nil, nil
	}
	delete(f.bookings, id)
	return booking, nil
}

func (f *fakeBookingRepo) SetPaymentRef(ctx context.Context, id uuid.UUID, ref string) error {
	f.paymentRefs[id] = ref
	return nil
}

func (f *fakeBookingRepo) GetByID(ctx context.Context, id uuid.UUID) (*Booking, error) {
	booking, ok := f.bookings[id]
	if !ok {
		return nil, apperrors.ErrNotFound
	}
	return booking, nil
}

func (f *fakeBookingRepo) GetUserBookings(ctx context.Context, userID string) ([]Booking, error) {
	var result []Booking
	for _, booking := range f.bookings {
		if booking.UserID == userID {
			result = append(result, *booking)
		}
	}
	return result, nil
}

func (f *fakeBookingRepo) GetAll(ctx context.Context) ([]Booking, error) {
	var result []Booking
	for _, booking := range f.bookings {
		result = append(result, *booking)
	}
	return result, nil
}

func (f *fakeBookingRepo) PaidStats(ctx context.Context) (int64, float64, error) {
	var count int64
	var revenue float64
	for _, booking := range f.bookings {
		if booking.IsPaid {
			count++
			revenue += booking.Amount
		}
	}
	return count, revenue, nil
}

type fakePayments struct {
	url   string
	err   error
	calls int
}

func (f *fakePayments) CreateSession(ctx context.Context, booking *Booking) (string, error) {
	f.calls++
	if f.err != nil {
		return "", f.err
	}
	return f.url, nil
}

type fakeNotifier struct {
	confirmed []uuid.UUID
	err       error
}

func (f *fakeNotifier) NotifyBookingConfirmed(ctx context.Context, booking *Booking) error {
	f.confirmed = append(f.confirmed, booking.ID)
	return f.err
}

func newTestService(repo *fakeBookingRepo, payments *fakePayments, notifier *fakeNotifier) Service {
	// nil Redis client makes the advisory gate a no-op; Postgres semantics
	// are what these tests exercise.
	return NewService(repo, NewSeatLock(nil), payments, notifier, 10*time.Minute)
}

func TestService_Reserve(t *testing.T) {
	repo := newFakeBookingRepo()
	payments := &fakePayments{url: "https://pay.example/session/abc"}
	svc := newTestService(repo, payments, &fakeNotifier{})

	resp, err := svc.Reserve(context.Background(), "user-1", uuid.New(), []string{"A1", "A2"})
	require.NoError(t, err)
	require.NotNil(t, resp)

	assert.Equal(t, 600.0, resp.Booking.Amount)
	assert.False(t, resp.Booking.IsPaid)
	assert.Equal(t, "https://pay.example/session/abc", resp.PaymentURL)
	assert.Equal(t, resp.PaymentURL, repo.paymentRefs[resp.Booking.ID])
	assert.Equal(t, 1, payments.calls)
}

func TestService_Reserve_DuplicateSeatLabelsCollapse(t *testing.T) {
	repo := newFakeBookingRepo()
	svc := newTestService(repo, &fakePayments{url: "u"}, &fakeNotifier{})

	resp, err := svc.Reserve(context.Background(), "user-1", uuid.New(), []string{"A1", "A1", "A2"})
	require.NoError(t, err)

	assert.Equal(t, SeatList{"A1", "A2"}, resp.Booking.Seats)
	assert.Equal(t, 600.0, resp.Booking.Amount, "a repeated label is priced once")
}

func TestService_Reserve_SeatConflict(t *testing.T) {
	repo := newFakeBookingRepo()
	repo.conflictSeats = []string{"A1"}
	payments := &fakePayments{url: "https://pay.example/session/abc"}
	svc := newTestService(repo, payments, &fakeNotifier{})

	_, err := svc.Reserve(context.Background(), "user-2", uuid.New(), []string{"A1", "B1"})
	require.Error(t, err)

	conflict, ok := apperrors.IsSeatUnavailable(err)
	require.True(t, ok)
	assert.Equal(t, []string{"A1"}, conflict.Seats)
	assert.Zero(t, payments.calls, "no payment session for a rejected hold")
}

func TestService_Reserve_PaymentFailureRollsBackHold(t *testing.T) {
	repo := newFakeBookingRepo()
	payments := &fakePayments{err: errors.New("provider timeout")}
	svc := newTestService(repo, payments, &fakeNotifier{})

	_, err := svc.Reserve(context.Background(), "user-1", uuid.New(), []string{"A1"})
	require.Error(t, err)
	assert.ErrorIs(t, err, apperrors.ErrUpstreamUnavailable)

	require.Len(t, repo.expired, 1, "committed hold must be undone")
	assert.Empty(t, repo.bookings, "no orphaned booking survives")
}

func TestService_ConfirmPayment_Idempotent(t *testing.T) {
	repo := newFakeBookingRepo()
	notifier := &fakeNotifier{}
	svc := newTestService(repo, &fakePayments{url: "u"}, notifier)

	resp, err := svc.Reserve(context.Background(), "user-1", uuid.New(), []string{"A1"})
	require.NoError(t, err)
	id := resp.Booking.ID

	require.NoError(t, svc.ConfirmPayment(context.Background(), id))
	assert.True(t, repo.bookings[id].IsPaid)
	assert.Equal(t, []uuid.UUID{id}, notifier.confirmed)

	// Duplicate webhook delivery
	require.NoError(t, svc.ConfirmPayment(context.Background(), id))
	assert.Len(t, notifier.confirmed, 1, "only the first confirmation notifies")
}

func TestService_ConfirmPayment_AfterExpiryIsNoop(t *testing.T) {
	repo := newFakeBookingRepo()
	notifier := &fakeNotifier{}
	svc := newTestService(repo, &fakePayments{url: "u"}, notifier)

	// Confirmation for a booking that no longer exists is acknowledged
	// without error so the provider stops retrying.
	require.NoError(t, svc.ConfirmPayment(context.Background(), uuid.New()))
	assert.Empty(t, notifier.confirmed)
}

func TestService_HandleExpiry(t *testing.T) {
	repo := newFakeBookingRepo()
	svc := newTestService(repo, &fakePayments{url: "u"}, &fakeNotifier{})

	resp, err := svc.Reserve(context.Background(), "user-1", uuid.New(), []string{"A1"})
	require.NoError(t, err)
	id := resp.Booking.ID

	job, err := scheduler.NewJob(scheduler.JobKindBookingExpiry, ExpiryPayload{BookingID: id}, time.Now())
	require.NoError(t, err)

	require.NoError(t, svc.HandleExpiry(context.Background(), job))
	assert.Empty(t, repo.bookings, "unpaid booking released")
}

func TestService_HandleExpiry_PaidBookingSurvives(t *testing.T) {
	repo := newFakeBookingRepo()
	svc := newTestService(repo, &fakePayments{url: "u"}, &fakeNotifier{})

	resp, err := svc.Reserve(context.Background(), "user-1", uuid.New(), []string{"A1"})
	require.NoError(t, err)
	id := resp.Booking.ID
	require.NoError(t, svc.ConfirmPayment(context.Background(), id))

	job, err := scheduler.NewJob(scheduler.JobKindBookingExpiry, ExpiryPayload{BookingID: id}, time.Now())
	require.NoError(t, err)

	require.NoError(t, svc.HandleExpiry(context.Background(), job))
	assert.Contains(t, repo.bookings, id, "paid booking is never expired")
}

func TestService_HandleExpiry_BadPayload(t *testing.T) {
	svc := newTestService(newFakeBookingRepo(), &fakePayments{url: "u"}, &fakeNotifier{})

	job := &scheduler.Job{Kind: scheduler.JobKindBookingExpiry, Payload: scheduler.Payload(`{"booking_id":`)}
	assert.Error(t, svc.HandleExpiry(context.Background(), job))
}

// raceBookingRepo serializes check-then-write on a shared seat map the
// way the show row lock does in Postgres, so concurrent reservations
// genuinely contend for the same seats.
type raceBookingRepo struct {
	mu       sync.Mutex
	price    float64
	seats    map[string]string
	bookings map[uuid.UUID]*Booking
}

func newRaceBookingRepo() *raceBookingRepo {
	return &raceBookingRepo{
		price:    300,
		seats:    make(map[string]string),
		bookings: make(map[uuid.UUID]*Booking),
	}
}

func (f *raceBookingRepo) CreateWithSeatHold(ctx context.Context, booking *Booking, holdWindow time.Duration) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	var conflicts []string
	for _, seat := range booking.Seats {
		if _, held := f.seats[seat]; held {
			conflicts = append(conflicts, seat)
		}
	}
	if len(conflicts) > 0 {
		return &apperrors.SeatUnavailableError{Seats: conflicts}
	}

	for _, seat := range booking.Seats {
		f.seats[seat] = booking.UserID
	}
	booking.ID = uuid.New()
	booking.Amount = f.price * float64(len(booking.Seats))
	f.bookings[booking.ID] = booking
	return nil
}

func (f *raceBookingRepo) ConfirmIfUnpaid(ctx context.Context, id uuid.UUID) (bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	booking, ok := f.bookings[id]
	if !ok || booking.IsPaid {
		return false, nil
	}
	booking.IsPaid = true
	return true, nil
}

func (f *raceBookingRepo) ExpireIfUnpaid(ctx context.Context, id uuid.UUID) (*Booking, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	booking, ok := f.bookings[id]
	if !ok || booking.IsPaid {
		return nil, nil
	}
	for _, seat := range booking.Seats {
		delete(f.seats, seat)
	}
	delete(f.bookings, id)
	return booking, nil
}

func (f *raceBookingRepo) SetPaymentRef(ctx context.Context, id uuid.UUID, ref string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if booking, ok := f.bookings[id]; ok {
		booking.PaymentRef = ref
	}
	return nil
}

func (f *raceBookingRepo) GetByID(ctx context.Context, id uuid.UUID) (*Booking, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	booking, ok := f.bookings[id]
	if !ok {
		return nil, apperrors.ErrNotFound
	}
	copied := *booking
	return &copied, nil
}

func (f *raceBookingRepo) GetUserBookings(ctx context.Context, userID string) ([]Booking, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var result []Booking
	for _, booking := range f.bookings {
		if booking.UserID == userID {
			result = append(result, *booking)
		}
	}
	return result, nil
}

func (f *raceBookingRepo) GetAll(ctx context.Context) ([]Booking, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var result []Booking
	for _, booking := range f.bookings {
		result = append(result, *booking)
	}
	return result, nil
}

func (f *raceBookingRepo) PaidStats(ctx context.Context) (int64, float64, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var count int64
	var revenue float64
	for _, booking := range f.bookings {
		if booking.IsPaid {
			count++
			revenue += booking.Amount
		}
	}
	return count, revenue, nil
}

func TestService_Reserve_ConcurrentOverlapOneWinner(t *testing.T) {
	repo := newRaceBookingRepo()
	svc := NewService(repo, NewSeatLock(nil), &fakePayments{url: "u"}, &fakeNotifier{}, 10*time.Minute)

	showID := uuid.New()
	const contenders = 8

	var wg sync.WaitGroup
	results := make([]error, contenders)
	for i := 0; i < contenders; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			_, results[i] = svc.Reserve(context.Background(), fmt.Sprintf("user-%d", i), showID, []string{"A1", "A2"})
		}(i)
	}
	wg.Wait()

	var winners, rejected int
	for _, err := range results {
		if err == nil {
			winners++
			continue
		}
		_, ok := apperrors.IsSeatUnavailable(err)
		require.True(t, ok, "losers must see a seat conflict, got %v", err)
		rejected++
	}

	assert.Equal(t, 1, winners, "exactly one overlapping reservation wins")
	assert.Equal(t, contenders-1, rejected)
	assert.Len(t, repo.bookings, 1)
}

func TestService_ConcurrentConfirmAndExpire(t *testing.T) {
	// The outcome of racing a confirmation against the expiry check must
	// always be exactly one of: paid booking kept, or booking gone with
	// its seats released. Run several rounds to vary the interleaving.
	for round := 0; round < 20; round++ {
		repo := newRaceBookingRepo()
		notifier := &fakeNotifier{}
		svc := NewService(repo, NewSeatLock(nil), &fakePayments{url: "u"}, notifier, 10*time.Minute)

		resp, err := svc.Reserve(context.Background(), "user-1", uuid.New(), []string{"A1"})
		require.NoError(t, err)
		id := resp.Booking.ID

		job, err := scheduler.NewJob(scheduler.JobKindBookingExpiry, ExpiryPayload{BookingID: id}, time.Now())
		require.NoError(t, err)

		var wg sync.WaitGroup
		wg.Add(2)
		go func() {
			defer wg.Done()
			assert.NoError(t, svc.ConfirmPayment(context.Background(), id))
		}()
		go func() {
			defer wg.Done()
			assert.NoError(t, svc.HandleExpiry(context.Background(), job))
		}()
		wg.Wait()

		if booking, kept := repo.bookings[id]; kept {
			assert.True(t, booking.IsPaid, "a surviving booking must be the paid one")
			assert.Equal(t, []uuid.UUID{id}, notifier.confirmed)
			assert.Contains(t, repo.seats, "A1")
		} else {
			assert.Empty(t, notifier.confirmed, "an expired booking never notifies")
			assert.Empty(t, repo.seats, "expiry released the seats")
		}
	}
}

func TestService_GetBooking_Ownership(t *testing.T) {
	repo := newFakeBookingRepo()
	svc := newTestService(repo, &fakePayments{url: "u"}, &fakeNotifier{})

	resp, err := svc.Reserve(context.Background(), "user-1", uuid.New(), []string{"A1"})
	require.NoError(t, err)
	id := resp.Booking.ID

	_, err = svc.GetBooking(context.Background(), "user-1", false, id)
	assert.NoError(t, err)

	_, err = svc.GetBooking(context.Background(), "user-2", false, id)
	assert.ErrorIs(t, err, apperrors.ErrUnauthorized)

	_, err = svc.GetBooking(context.Background(), "user-2", true, id)
	assert.NoError(t, err, "admins can read any booking")
}
