package users

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"

	"cinebook/internal/shared/utils/response"
	"cinebook/pkg/logger"

	"github.com/gin-gonic/gin"
)

// WebhookController receives identity-provider lifecycle notifications.
// Payloads are signed Svix-style: HMAC-SHA256 over "{id}.{timestamp}.{body}"
// with base64 signatures in the svix-signature header.
type WebhookController struct {
	service Service
	secret  []byte
	log     *logger.Logger
}

func NewWebhookController(service Service, secret string) *WebhookController {
	key := secret
	// Provider secrets ship with a whsec_ prefix on the base64 key material.
	if trimmed, ok := strings.CutPrefix(secret, "whsec_"); ok {
		key = trimmed
	}
	decoded, err := base64.StdEncoding.DecodeString(key)
	if err != nil {
		decoded = []byte(key)
	}
	return &WebhookController{
		service: service,
		secret:  decoded,
		log:     logger.GetDefault(),
	}
}

// Handle processes POST /webhooks/identity.
func (wc *WebhookController) Handle(c *gin.Context) {
	body, err := io.ReadAll(c.Request.Body)
	if err != nil {
		response.RespondJSON(c, "error", http.StatusBadRequest, "failed to read request body", nil, nil)
		return
	}

	if err := wc.verifySignature(c, body); err != nil {
		wc.log.Warn("identity webhook rejected", slog.String("reason", err.Error()), slog.String("ip", c.ClientIP()))
		response.RespondJSON(c, "error", http.StatusUnauthorized, "invalid webhook signature", nil, nil)
		return
	}

	var event LifecycleEvent
	if err := json.Unmarshal(body, &event); err != nil {
		response.RespondJSON(c, "error", http.StatusBadRequest, "malformed event payload", nil, nil)
		return
	}

	ctx := c.Request.Context()
	switch event.Type {
	case "user.created":
		err = wc.service.HandleCreated(ctx, event.Data)
	case "user.updated":
		err = wc.service.HandleUpdated(ctx, event.Data)
	case "user.deleted":
		err = wc.service.HandleDeleted(ctx, event.Data.ID)
	default:
		wc.log.Info("ignoring identity event", slog.String("type", event.Type))
		response.RespondJSON(c, "success", http.StatusOK, "event ignored", nil, nil)
		return
	}

	if err != nil {
		wc.log.Error("identity event processing failed",
			slog.String("type", event.Type),
			slog.String("user_id", event.Data.ID),
			slog.Any("error", err),
		)
		response.RespondJSON(c, "error", http.StatusInternalServerError, "failed to process event", nil, nil)
		return
	}

	response.RespondJSON(c, "success", http.StatusOK, "event processed", nil, nil)
}

func (wc *WebhookController) verifySignature(c *gin.Context, body []byte) error {
	msgID := c.GetHeader("svix-id")
	timestamp := c.GetHeader("svix-timestamp")
	sigHeader := c.GetHeader("svix-signature")
	if msgID == "" || timestamp == "" || sigHeader == "" {
		return fmt.Errorf("missing signature headers")
	}

	signed := fmt.Sprintf("%s.%s.%s", msgID, timestamp, body)
	mac := hmac.New(sha256.New, wc.secret)
	mac.Write([]byte(signed))
	expected := mac.Sum(nil)

	// Header carries space-separated "v1,<base64>" entries; any match passes.
	for _, part := range strings.Fields(sigHeader) {
		_, value, found := strings.Cut(part, ",")
		if !found {
			continue
		}
		candidate, err := base64.StdEncoding.DecodeString(value)
		if err != nil {
			continue
		}
		if hmac.Equal(candidate, expected) {
			return nil
		}
	}
	return fmt.Errorf("no matching signature")
}
