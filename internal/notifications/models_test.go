package notifications

import (
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNotificationBuilder(t *testing.T) {
	showID := uuid.New()
	bookingID := uuid.New()
	startsAt := time.Now().Add(2 * time.Hour)

	notification := NewNotificationBuilder().
		WithType(NotificationTypeBookingConfirmed).
		WithRecipient("user_abc", "alice@example.com", "Alice Sharma").
		WithSubject("Booking confirmed: Orbit Decay").
		WithTemplateData(map[string]interface{}{"seats": []string{"A1", "A2"}}).
		WithShowContext(showID).
		WithBookingContext(bookingID).
		WithExpiration(startsAt).
		Build()

	assert.NotEqual(t, uuid.Nil, notification.ID)
	assert.Equal(t, NotificationTypeBookingConfirmed, notification.Type)
	assert.Equal(t, NotificationPriorityHigh, notification.Priority, "confirmations outrank reminders")
	assert.Equal(t, "user_abc", notification.RecipientID)
	assert.Equal(t, NotificationStatusPending, notification.Status)
	require.NotNil(t, notification.ShowID)
	assert.Equal(t, showID, *notification.ShowID)
	require.NotNil(t, notification.BookingID)
	assert.Equal(t, bookingID, *notification.BookingID)
	assert.False(t, notification.IsExpired())
}

func TestGetDefaultPriority(t *testing.T) {
	assert.Equal(t, NotificationPriorityHigh, GetDefaultPriority(NotificationTypeBookingConfirmed))
	assert.Equal(t, NotificationPriorityMedium, GetDefaultPriority(NotificationTypeShowReminder))
	assert.Equal(t, NotificationPriorityLow, GetDefaultPriority(NotificationTypeShowAdded))
	assert.Equal(t, NotificationPriorityMedium, GetDefaultPriority(NotificationType("UNKNOWN")))
}

func TestEmailNotification_PartitionKeyIsRecipient(t *testing.T) {
	a := NewNotificationBuilder().WithRecipient("user_a", "a@example.com", "A").Build()
	b := NewNotificationBuilder().WithRecipient("user_a", "a@example.com", "A").Build()
	c := NewNotificationBuilder().WithRecipient("user_b", "b@example.com", "B").Build()

	assert.Equal(t, a.GetPartitionKey(), b.GetPartitionKey(), "same recipient keeps ordering")
	assert.NotEqual(t, a.GetPartitionKey(), c.GetPartitionKey())
}

func TestEmailNotification_Expiry(t *testing.T) {
	fresh := NewNotificationBuilder().
		WithType(NotificationTypeShowReminder).
		WithExpiration(time.Now().Add(time.Hour)).
		Build()
	assert.False(t, fresh.IsExpired())

	stale := NewNotificationBuilder().
		WithType(NotificationTypeShowReminder).
		WithExpiration(time.Now().Add(-time.Minute)).
		Build()
	assert.True(t, stale.IsExpired(), "a reminder for a started show is dropped")

	unbounded := NewNotificationBuilder().WithType(NotificationTypeShowAdded).Build()
	assert.False(t, unbounded.IsExpired())
}

func TestEmailNotification_StatusTransitions(t *testing.T) {
	notification := NewNotificationBuilder().WithType(NotificationTypeBookingConfirmed).Build()

	notification.MarkSent()
	assert.Equal(t, NotificationStatusSent, notification.Status)
	require.NotNil(t, notification.SentAt)

	failed := NewNotificationBuilder().WithType(NotificationTypeBookingConfirmed).Build()
	failed.MarkFailed(errors.New("smtp unreachable"))
	assert.Equal(t, NotificationStatusFailed, failed.Status)
	require.NotNil(t, failed.LastError)
	assert.Equal(t, "smtp unreachable", *failed.LastError)
}
