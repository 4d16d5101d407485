package payments

import (
	"github.com/gin-gonic/gin"
)

func SetupWebhookRoutes(router *gin.RouterGroup, controller *WebhookController) {
	router.POST("/payments", controller.HandleEvent)
}
