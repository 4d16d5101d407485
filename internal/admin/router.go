package admin

import (
	"cinebook/internal/shared/middleware"

	"github.com/gin-gonic/gin"
)

func SetupAdminRoutes(router *gin.RouterGroup, controller Controller) {
	adminGroup := router.Group("/admin")
	adminGroup.Use(middleware.JWTAuth(), middleware.RequireAdmin())
	{
		adminGroup.GET("/is-admin", controller.IsAdmin)          // GET /api/v1/admin/is-admin
		adminGroup.GET("/dashboard", controller.GetDashboard)    // GET /api/v1/admin/dashboard
		adminGroup.GET("/all-shows", controller.GetAllShows)     // GET /api/v1/admin/all-shows
		adminGroup.GET("/all-bookings", controller.GetAllBookings) // GET /api/v1/admin/all-bookings
	}
}
