package shows

import (
	"cinebook/internal/shared/middleware"

	"github.com/gin-gonic/gin"
)

func SetupShowRoutes(router *gin.RouterGroup, controller Controller) {
	// Public routes - anyone can browse screenings
	publicShows := router.Group("/shows")
	{
		publicShows.GET("", controller.GetUpcomingShows)                    // GET /api/v1/shows - Browse upcoming shows
		publicShows.GET("/movie/:movieId", controller.GetMovieShows)        // GET /api/v1/shows/movie/:movieId - Shows for a movie, grouped by date
		publicShows.GET("/:showId", controller.GetShow)                     // GET /api/v1/shows/:showId - Show details
		publicShows.GET("/:showId/occupied-seats", controller.GetOccupiedSeats) // GET /api/v1/shows/:showId/occupied-seats
	}

	// Admin routes - only admins can schedule screenings
	adminShows := router.Group("/admin/shows")
	adminShows.Use(middleware.JWTAuth(), middleware.RequireAdmin())
	{
		adminShows.POST("", controller.AddShows) // POST /api/v1/admin/shows - Create shows for a movie
	}
}
