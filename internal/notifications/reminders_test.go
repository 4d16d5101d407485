package notifications

import (
	"context"
	"errors"
	"testing"
	"time"

	"cinebook/internal/bookings"
	"cinebook/internal/movies"
	"cinebook/internal/scheduler"
	"cinebook/internal/shows"
	"cinebook/internal/users"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

type fakeSchedulerRepo struct {
	scheduled []*scheduler.Job
}

func (f *fakeSchedulerRepo) Schedule(ctx context.Context, job *scheduler.Job) error {
	f.scheduled = append(f.scheduled, job)
	return nil
}

func (f *fakeSchedulerRepo) ScheduleTx(tx *gorm.DB, job *scheduler.Job) error {
	f.scheduled = append(f.scheduled, job)
	return nil
}

func (f *fakeSchedulerRepo) ClaimDue(ctx context.Context, now time.Time, limit int) ([]scheduler.Job, error) {
	return nil, nil
}

func (f *fakeSchedulerRepo) MarkDone(ctx context.Context, id uuid.UUID) error { return nil }

func (f *fakeSchedulerRepo) MarkFailed(ctx context.Context, id uuid.UUID, jobErr error, retryAt *time.Time) error {
	return nil
}

func (f *fakeSchedulerRepo) EnsureRecurring(ctx context.Context, kind string, payload interface{}, dueAt time.Time) error {
	return nil
}

func (f *fakeSchedulerRepo) RequeueStale(ctx context.Context, cutoff time.Time) (int64, error) {
	return 0, nil
}

type fakeReminderShowService struct {
	upcoming []shows.Show
	err      error
}

func (f *fakeReminderShowService) AddShows(ctx context.Context, req *shows.AddShowsRequest) (int, error) {
	return 0, nil
}
func (f *fakeReminderShowService) GetUpcomingShows(ctx context.Context) ([]shows.Show, error) {
	return nil, nil
}
func (f *fakeReminderShowService) GetMovieShows(ctx context.Context, movieID string) (*shows.MovieShowsResponse, error) {
	return nil, nil
}
func (f *fakeReminderShowService) GetShow(ctx context.Context, id uuid.UUID) (*shows.Show, error) {
	return nil, nil
}
func (f *fakeReminderShowService) GetOccupiedSeats(ctx context.Context, id uuid.UUID) ([]string, error) {
	return nil, nil
}
func (f *fakeReminderShowService) GetShowsStartingWithin(ctx context.Context, from, until time.Time) ([]shows.Show, error) {
	if f.err != nil {
		return nil, f.err
	}
	return f.upcoming, nil
}
func (f *fakeReminderShowService) CountActiveShows(ctx context.Context) (int64, error) {
	return 0, nil
}

type fakeReminderUserService struct {
	users []users.User
}

func (f *fakeReminderUserService) HandleCreated(ctx context.Context, data users.LifecycleData) error {
	return nil
}
func (f *fakeReminderUserService) HandleUpdated(ctx context.Context, data users.LifecycleData) error {
	return nil
}
func (f *fakeReminderUserService) HandleDeleted(ctx context.Context, id string) error { return nil }
func (f *fakeReminderUserService) GetUser(ctx context.Context, id string) (*users.User, error) {
	for i := range f.users {
		if f.users[i].ID == id {
			return &f.users[i], nil
		}
	}
	return nil, errors.New("not found")
}
func (f *fakeReminderUserService) GetUsers(ctx context.Context, ids []string) ([]users.User, error) {
	var matched []users.User
	for _, id := range ids {
		for i := range f.users {
			if f.users[i].ID == id {
				matched = append(matched, f.users[i])
			}
		}
	}
	return matched, nil
}
func (f *fakeReminderUserService) ListUsers(ctx context.Context) ([]users.User, error) {
	return f.users, nil
}
func (f *fakeReminderUserService) CountUsers(ctx context.Context) (int64, error) {
	return int64(len(f.users)), nil
}

type recordingNotifier struct {
	batches [][]*EmailNotification
}

func (r *recordingNotifier) SendNotification(ctx context.Context, n *EmailNotification) error {
	r.batches = append(r.batches, []*EmailNotification{n})
	return nil
}
func (r *recordingNotifier) SendBatchNotifications(ctx context.Context, ns []*EmailNotification) error {
	r.batches = append(r.batches, ns)
	return nil
}
func (r *recordingNotifier) NotifyBookingConfirmed(ctx context.Context, booking *bookings.Booking) error {
	return nil
}
func (r *recordingNotifier) AnnounceShowAdded(ctx context.Context, movie *movies.Movie, showCount int) error {
	return nil
}
func (r *recordingNotifier) Start(ctx context.Context) error       { return nil }
func (r *recordingNotifier) Stop() error                           { return nil }
func (r *recordingNotifier) HealthCheck(ctx context.Context) error { return nil }

func reminderJobFiring(t *testing.T, attempts int) *scheduler.Job {
	t.Helper()
	job, err := scheduler.NewJob(scheduler.JobKindShowReminders, struct{}{}, time.Now())
	require.NoError(t, err)
	job.Attempts = attempts
	return job
}

func TestReminderJob_SendsToSeatHolders(t *testing.T) {
	showService := &fakeReminderShowService{
		upcoming: []shows.Show{{
			ID:            uuid.New(),
			StartTime:     time.Now().Add(2 * time.Hour),
			OccupiedSeats: shows.SeatMap{"A1": "user-1", "A2": "user-2", "A3": "user-1"},
			Movie:         &movies.Movie{ID: "550", Title: "Orbit Decay"},
		}},
	}
	userService := &fakeReminderUserService{users: []users.User{
		{ID: "user-1", Name: "Alice", Email: "alice@example.com"},
		{ID: "user-2", Name: "Bob", Email: "bob@example.com"},
	}}
	notifier := &recordingNotifier{}
	schedRepo := &fakeSchedulerRepo{}

	job := NewReminderJob(showService, userService, notifier, schedRepo, 8*time.Hour, 24*time.Hour)
	require.NoError(t, job.Handle(context.Background(), reminderJobFiring(t, 1)))

	require.Len(t, notifier.batches, 1)
	assert.Len(t, notifier.batches[0], 2, "one reminder per distinct seat holder")
	for _, notification := range notifier.batches[0] {
		assert.Equal(t, NotificationTypeShowReminder, notification.Type)
	}
}

func TestReminderJob_ChainsNextOccurrenceOnSuccess(t *testing.T) {
	showService := &fakeReminderShowService{}
	notifier := &recordingNotifier{}
	schedRepo := &fakeSchedulerRepo{}

	job := NewReminderJob(showService, &fakeReminderUserService{}, notifier, schedRepo, 8*time.Hour, 24*time.Hour)
	require.NoError(t, job.Handle(context.Background(), reminderJobFiring(t, 1)))

	require.Len(t, schedRepo.scheduled, 1)
	next := schedRepo.scheduled[0]
	assert.Equal(t, scheduler.JobKindShowReminders, next.Kind)
	assert.WithinDuration(t, time.Now().Add(8*time.Hour), next.DueAt, time.Minute)
}

func TestReminderJob_RetriedFiringChainsOnce(t *testing.T) {
	// A failed scan is retried by the worker; the retry must continue the
	// same recurring chain, not fork a second one.
	showService := &fakeReminderShowService{err: errors.New("db down")}
	notifier := &recordingNotifier{}
	schedRepo := &fakeSchedulerRepo{}

	job := NewReminderJob(showService, &fakeReminderUserService{}, notifier, schedRepo, 8*time.Hour, 24*time.Hour)

	firing := reminderJobFiring(t, 1)
	require.Error(t, job.Handle(context.Background(), firing))
	assert.Empty(t, schedRepo.scheduled, "a failed run schedules nothing")

	showService.err = nil
	firing.Attempts = 2
	require.NoError(t, job.Handle(context.Background(), firing))

	assert.Len(t, schedRepo.scheduled, 1, "one logical firing chains exactly one next occurrence")
}
