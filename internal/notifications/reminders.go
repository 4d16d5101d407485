package notifications

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"cinebook/internal/scheduler"
	"cinebook/internal/shows"
	"cinebook/internal/users"
	"cinebook/pkg/logger"
)

// ReminderJob is the recurring show.reminders handler: it scans upcoming
// shows, mails every seat holder, and schedules its own next run. Seeding
// the first occurrence happens at startup via EnsureRecurring, after which
// the chain is self-sustaining.
type ReminderJob struct {
	showService shows.Service
	userService users.Service
	notifier    NotificationService
	schedRepo   scheduler.Repository
	interval    time.Duration
	lookahead   time.Duration
	log         *logger.Logger
}

func NewReminderJob(showService shows.Service, userService users.Service, notifier NotificationService, schedRepo scheduler.Repository, interval, lookahead time.Duration) *ReminderJob {
	return &ReminderJob{
		showService: showService,
		userService: userService,
		notifier:    notifier,
		schedRepo:   schedRepo,
		interval:    interval,
		lookahead:   lookahead,
		log:         logger.GetDefault(),
	}
}

// Handle implements scheduler.HandlerFunc.
func (rj *ReminderJob) Handle(ctx context.Context, job *scheduler.Job) error {
	sent, failed, err := rj.sendReminders(ctx)
	if err != nil {
		return err
	}

	// Chain the next occurrence only after a successful run; a failed run
	// is retried by the worker, and chaining up front would fork one new
	// recurring chain per retry. A run that exhausts its retries leaves no
	// pending occurrence, which EnsureRecurring repairs at startup.
	next, err := scheduler.NewJob(scheduler.JobKindShowReminders, struct{}{}, time.Now().Add(rj.interval))
	if err != nil {
		return err
	}
	if err := rj.schedRepo.Schedule(ctx, next); err != nil {
		return fmt.Errorf("failed to schedule next reminder run: %w", err)
	}

	rj.log.Info("show reminders dispatched",
		slog.Int("sent", sent),
		slog.Int("failed", failed),
	)
	return nil
}

func (rj *ReminderJob) sendReminders(ctx context.Context) (sent, failed int, err error) {
	now := time.Now()
	upcoming, err := rj.showService.GetShowsStartingWithin(ctx, now, now.Add(rj.lookahead))
	if err != nil {
		return 0, 0, fmt.Errorf("failed to load upcoming shows: %w", err)
	}

	for i := range upcoming {
		show := &upcoming[i]
		holders := show.OccupiedSeats.Holders()
		if len(holders) == 0 {
			continue
		}

		recipients, err := rj.userService.GetUsers(ctx, holders)
		if err != nil {
			rj.log.Warn("failed to resolve reminder recipients",
				slog.String("show_id", show.ID.String()),
				slog.String("error", err.Error()),
			)
			failed += len(holders)
			continue
		}

		notifications := make([]*EmailNotification, 0, len(recipients))
		for _, user := range recipients {
			notifications = append(notifications, rj.buildReminder(show, &user))
		}

		if err := rj.notifier.SendBatchNotifications(ctx, notifications); err != nil {
			rj.log.Warn("failed to publish show reminders",
				slog.String("show_id", show.ID.String()),
				slog.String("error", err.Error()),
			)
			failed += len(notifications)
			continue
		}
		sent += len(notifications)
	}

	return sent, failed, nil
}

func (rj *ReminderJob) buildReminder(show *shows.Show, user *users.User) *EmailNotification {
	movieTitle := "your movie"
	if show.Movie != nil {
		movieTitle = show.Movie.Title
	}

	var seats []string
	for _, seat := range show.OccupiedSeats.Seats() {
		if holder, _ := show.OccupiedSeats.Holder(seat); holder == user.ID {
			seats = append(seats, seat)
		}
	}

	return NewNotificationBuilder().
		WithType(NotificationTypeShowReminder).
		WithRecipient(user.ID, user.Email, user.Name).
		WithShowContext(show.ID).
		WithSubject(fmt.Sprintf("Reminder: %s starts soon", movieTitle)).
		WithTemplateData(map[string]interface{}{
			"movie_title": movieTitle,
			"show_time":   show.StartTime.Format("Mon, 02 Jan 2006 15:04"),
			"seats":       strings.Join(seats, ", "),
		}).
		// A reminder delivered after the show starts is noise.
		WithExpiration(show.StartTime).
		Build()
}
