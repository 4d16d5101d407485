package payments

import (
	"encoding/json"
	"io"
	"log/slog"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/stripe/stripe-go/v76"
	"github.com/stripe/stripe-go/v76/webhook"

	"cinebook/internal/bookings"
	"cinebook/internal/shared/utils/response"
	"cinebook/pkg/logger"
)

const maxWebhookBodyBytes = int64(64 * 1024)

// WebhookController receives payment provider callbacks. Only
// payment_intent.succeeded changes state; every other event type is
// acknowledged and dropped.
type WebhookController struct {
	bookingService bookings.Service
	signingSecret  string
	log            *logger.Logger
}

func NewWebhookController(bookingService bookings.Service, signingSecret string) *WebhookController {
	return &WebhookController{
		bookingService: bookingService,
		signingSecret:  signingSecret,
		log:            logger.GetDefault(),
	}
}

func (ctrl *WebhookController) HandleEvent(c *gin.Context) {
	payload, err := io.ReadAll(io.LimitReader(c.Request.Body, maxWebhookBodyBytes))
	if err != nil {
		response.RespondJSON(c, "error", http.StatusBadRequest, "Failed to read request body", nil, nil)
		return
	}

	event, err := webhook.ConstructEvent(payload, c.GetHeader("Stripe-Signature"), ctrl.signingSecret)
	if err != nil {
		ctrl.log.Warn("payment webhook signature verification failed",
			slog.String("error", err.Error()),
		)
		response.RespondJSON(c, "error", http.StatusUnauthorized, "Invalid webhook signature", nil, nil)
		return
	}

	if event.Type != "payment_intent.succeeded" {
		// Acknowledge so the provider stops retrying; nothing to do.
		response.RespondJSON(c, "success", http.StatusOK, "Event ignored", nil, nil)
		return
	}

	var intent stripe.PaymentIntent
	if err := json.Unmarshal(event.Data.Raw, &intent); err != nil {
		response.RespondJSON(c, "error", http.StatusBadRequest, "Malformed event payload", nil, nil)
		return
	}

	bookingID, err := uuid.Parse(intent.Metadata["booking_id"])
	if err != nil {
		ctrl.log.Warn("payment intent without usable booking reference",
			slog.String("payment_intent", intent.ID),
		)
		response.RespondJSON(c, "success", http.StatusOK, "Event ignored", nil, nil)
		return
	}

	if err := ctrl.bookingService.ConfirmPayment(c.Request.Context(), bookingID); err != nil {
		// Non-2xx makes the provider redeliver; confirmation is idempotent
		// so the retry is safe.
		ctrl.log.Error("failed to apply payment confirmation",
			slog.String("booking_id", bookingID.String()),
			slog.String("error", err.Error()),
		)
		response.RespondJSON(c, "error", http.StatusInternalServerError, "Failed to process event", nil, nil)
		return
	}

	response.RespondJSON(c, "success", http.StatusOK, "Payment confirmed", nil, nil)
}
