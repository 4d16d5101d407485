package payments

import (
	"bytes"
	"context"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"cinebook/internal/bookings"
	"cinebook/internal/scheduler"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeBookingService struct {
	confirmed  []uuid.UUID
	confirmErr error
}

func (f *fakeBookingService) Reserve(ctx context.Context, userID string, showID uuid.UUID, seats []string) (*bookings.CreateBookingResponse, error) {
	return nil, nil
}

func (f *fakeBookingService) ConfirmPayment(ctx context.Context, bookingID uuid.UUID) error {
	if f.confirmErr != nil {
		return f.confirmErr
	}
	f.confirmed = append(f.confirmed, bookingID)
	return nil
}

func (f *fakeBookingService) HandleExpiry(ctx context.Context, job *scheduler.Job) error { return nil }

func (f *fakeBookingService) GetBooking(ctx context.Context, userID string, isAdmin bool, id uuid.UUID) (*bookings.Booking, error) {
	return nil, nil
}

func (f *fakeBookingService) GetUserBookings(ctx context.Context, userID string) ([]bookings.Booking, error) {
	return nil, nil
}

func (f *fakeBookingService) GetAllBookings(ctx context.Context) ([]bookings.Booking, error) {
	return nil, nil
}

func (f *fakeBookingService) PaidStats(ctx context.Context) (int64, float64, error) {
	return 0, 0, nil
}

const testSigningSecret = "whsec_test_secret"

// stripeSignature builds the t=...,v1=... header the provider sends.
func stripeSignature(payload []byte, secret string) string {
	timestamp := time.Now().Unix()
	mac := hmac.New(sha256.New, []byte(secret))
	fmt.Fprintf(mac, "%d.%s", timestamp, payload)
	return fmt.Sprintf("t=%d,v1=%s", timestamp, hex.EncodeToString(mac.Sum(nil)))
}

func postEvent(controller *WebhookController, payload []byte, signature string) *httptest.ResponseRecorder {
	gin.SetMode(gin.TestMode)
	recorder := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(recorder)
	c.Request = httptest.NewRequest(http.MethodPost, "/webhooks/payments", bytes.NewBuffer(payload))
	c.Request.Header.Set("Stripe-Signature", signature)
	controller.HandleEvent(c)
	return recorder
}

func intentSucceededPayload(bookingID string) []byte {
	return []byte(fmt.Sprintf(`{
		"id": "evt_1",
		"api_version": "2023-10-16",
		"type": "payment_intent.succeeded",
		"data": {
			"object": {
				"id": "pi_1",
				"object": "payment_intent",
				"metadata": {"booking_id": %q}
			}
		}
	}`, bookingID))
}

func TestPaymentWebhook_ConfirmsBooking(t *testing.T) {
	service := &fakeBookingService{}
	controller := NewWebhookController(service, testSigningSecret)

	bookingID := uuid.New()
	payload := intentSucceededPayload(bookingID.String())
	recorder := postEvent(controller, payload, stripeSignature(payload, testSigningSecret))

	require.Equal(t, http.StatusOK, recorder.Code)
	assert.Equal(t, []uuid.UUID{bookingID}, service.confirmed)
}

func TestPaymentWebhook_RejectsInvalidSignature(t *testing.T) {
	service := &fakeBookingService{}
	controller := NewWebhookController(service, testSigningSecret)

	payload := intentSucceededPayload(uuid.NewString())
	recorder := postEvent(controller, payload, stripeSignature(payload, "whsec_wrong_secret"))

	require.Equal(t, http.StatusUnauthorized, recorder.Code)
	assert.Empty(t, service.confirmed)
}

func TestPaymentWebhook_IgnoresOtherEventTypes(t *testing.T) {
	service := &fakeBookingService{}
	controller := NewWebhookController(service, testSigningSecret)

	payload := []byte(`{"id":"evt_2","api_version":"2023-10-16","type":"payment_intent.created","data":{"object":{"id":"pi_2","object":"payment_intent"}}}`)
	recorder := postEvent(controller, payload, stripeSignature(payload, testSigningSecret))

	assert.Equal(t, http.StatusOK, recorder.Code, "acked so the provider stops retrying")
	assert.Empty(t, service.confirmed)
}

func TestPaymentWebhook_IgnoresIntentWithoutBookingRef(t *testing.T) {
	service := &fakeBookingService{}
	controller := NewWebhookController(service, testSigningSecret)

	payload := intentSucceededPayload("not-a-uuid")
	recorder := postEvent(controller, payload, stripeSignature(payload, testSigningSecret))

	assert.Equal(t, http.StatusOK, recorder.Code)
	assert.Empty(t, service.confirmed)
}

func TestPaymentWebhook_ConfirmFailureTriggersRedelivery(t *testing.T) {
	service := &fakeBookingService{confirmErr: errors.New("db down")}
	controller := NewWebhookController(service, testSigningSecret)

	payload := intentSucceededPayload(uuid.NewString())
	recorder := postEvent(controller, payload, stripeSignature(payload, testSigningSecret))

	assert.Equal(t, http.StatusInternalServerError, recorder.Code, "non-2xx makes the provider retry")
}
