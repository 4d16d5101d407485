package users

import (
	"github.com/gin-gonic/gin"
)

// SetupWebhookRoutes registers the identity lifecycle webhook.
func SetupWebhookRoutes(rg *gin.RouterGroup, controller *WebhookController) {
	rg.POST("/identity", controller.Handle)
}
