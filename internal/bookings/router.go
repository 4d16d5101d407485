package bookings

import (
	"cinebook/internal/shared/middleware"

	"github.com/gin-gonic/gin"
)

func SetupBookingRoutes(router *gin.RouterGroup, controller Controller) {
	userBookings := router.Group("/bookings")
	userBookings.Use(middleware.JWTAuth())
	{
		userBookings.POST("", controller.CreateBooking)          // POST /api/v1/bookings - Reserve seats
		userBookings.GET("", controller.GetMyBookings)           // GET /api/v1/bookings - Caller's bookings
		userBookings.GET("/:bookingId", controller.GetBooking)   // GET /api/v1/bookings/:bookingId
	}
}
