package scheduler

import (
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewJob_EncodesPayload(t *testing.T) {
	bookingID := uuid.New()
	dueAt := time.Now().Add(10 * time.Minute)

	job, err := NewJob(JobKindBookingExpiry, map[string]string{"booking_id": bookingID.String()}, dueAt)
	require.NoError(t, err)

	assert.Equal(t, JobKindBookingExpiry, job.Kind)
	assert.Equal(t, JobStatusPending, job.Status)
	assert.Equal(t, dueAt, job.DueAt)

	var decoded struct {
		BookingID string `json:"booking_id"`
	}
	require.NoError(t, job.DecodePayload(&decoded))
	assert.Equal(t, bookingID.String(), decoded.BookingID)
}

func TestNewJob_RejectsUnencodablePayload(t *testing.T) {
	_, err := NewJob(JobKindBookingExpiry, make(chan int), time.Now())
	assert.Error(t, err)
}

func TestPayload_ScanValue(t *testing.T) {
	p := Payload(`{"booking_id":"abc"}`)

	raw, err := p.Value()
	require.NoError(t, err)
	assert.Equal(t, `{"booking_id":"abc"}`, raw)

	var scanned Payload
	require.NoError(t, scanned.Scan([]byte(`{"k":"v"}`)))
	assert.Equal(t, Payload(`{"k":"v"}`), scanned)

	require.NoError(t, scanned.Scan(nil))
	assert.Equal(t, Payload("{}"), scanned)

	assert.Error(t, scanned.Scan(42))
}

func TestPayload_EmptyValueIsEmptyObject(t *testing.T) {
	var p Payload
	raw, err := p.Value()
	require.NoError(t, err)
	assert.Equal(t, "{}", raw)
}
