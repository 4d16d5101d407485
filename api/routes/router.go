// api/routes/router.go
package routes

import (
	"net/http"
	"time"

	"cinebook/internal/admin"
	"cinebook/internal/bookings"
	"cinebook/internal/movies"
	"cinebook/internal/notifications"
	"cinebook/internal/payments"
	"cinebook/internal/scheduler"
	"cinebook/internal/shared/config"
	"cinebook/internal/shared/database"
	"cinebook/internal/shows"
	"cinebook/internal/users"
	"cinebook/pkg/cache"

	"github.com/gin-gonic/gin"
)

// Router wires repositories, services, and controllers. Services built
// here are also what the background workers run against, so main can pull
// them back out through the accessor methods.
type Router struct {
	config              *config.Config
	db                  *database.DB
	notificationService notifications.NotificationService
	seatLock            *bookings.SeatLock

	userService    users.Service
	movieService   movies.Service
	showService    shows.Service
	bookingService bookings.Service
	schedulerRepo  scheduler.Repository
}

func NewRouter(cfg *config.Config, db *database.DB, notificationService notifications.NotificationService, seatLock *bookings.SeatLock) *Router {
	r := &Router{
		config:              cfg,
		db:                  db,
		notificationService: notificationService,
		seatLock:            seatLock,
	}
	r.buildServices()
	return r
}

func (r *Router) buildServices() {
	pg := r.db.GetPostgreSQL()
	cacheService := cache.NewService(r.db.GetRedisClient())

	r.schedulerRepo = scheduler.NewRepository(pg)

	userRepo := users.NewRepository(pg)
	r.userService = users.NewService(userRepo)

	movieRepo := movies.NewRepository(pg)
	catalog := movies.NewCatalogClient(r.config.Catalog)
	r.movieService = movies.NewService(movieRepo, catalog)

	showRepo := shows.NewRepository(pg)
	var announcer shows.Announcer
	if r.notificationService != nil {
		announcer = r.notificationService
	}
	r.showService = shows.NewService(showRepo, r.movieService, cacheService, announcer, r.config.Redis.CacheTTL)

	bookingRepo := bookings.NewRepository(pg, showRepo, r.schedulerRepo)
	paymentProvider := payments.NewProvider(&r.config.Payments, bookingRepo)
	var notifier bookings.Notifier
	if r.notificationService != nil {
		notifier = r.notificationService
	}
	r.bookingService = bookings.NewService(bookingRepo, r.seatLock, paymentProvider, notifier, r.config.Booking.HoldWindow)
}

// Service accessors used by main to wire the scheduler worker.

func (r *Router) BookingService() bookings.Service { return r.bookingService }
func (r *Router) ShowService() shows.Service       { return r.showService }
func (r *Router) UserService() users.Service       { return r.userService }
func (r *Router) SchedulerRepo() scheduler.Repository {
	return r.schedulerRepo
}

// SetupRoutes configures all application routes
func (r *Router) SetupRoutes(engine *gin.Engine) {
	r.setupHealthRoutes(engine)

	api := engine.Group(r.config.GetAPIBasePath())
	{
		r.setupMovieRoutes(api)
		r.setupShowRoutes(api)
		r.setupBookingRoutes(api)
		r.setupAdminRoutes(api)
		r.setupWebhookRoutes(api)
	}
}

// setupHealthRoutes sets up health check and system status routes
func (r *Router) setupHealthRoutes(engine *gin.Engine) {
	engine.GET("/health", func(c *gin.Context) {
		if err := r.db.HealthCheck(c.Request.Context()); err != nil {
			c.JSON(http.StatusServiceUnavailable, gin.H{
				"status":    "unhealthy",
				"error":     err.Error(),
				"timestamp": time.Now(),
				"service":   "cinebook-backend",
			})
			return
		}

		c.JSON(http.StatusOK, gin.H{
			"status":    "healthy",
			"timestamp": time.Now(),
			"service":   "cinebook-backend",
		})
	})

	engine.GET("/ping", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{
			"message": "pong",
			"version": r.config.APIVersion,
		})
	})

	engine.GET("/status", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{
			"status":      "operational",
			"api_version": r.config.APIVersion,
			"timestamp":   time.Now(),
		})
	})
}

func (r *Router) setupMovieRoutes(rg *gin.RouterGroup) {
	movieController := movies.NewController(r.movieService)
	movies.SetupMovieRoutes(rg, movieController)
}

func (r *Router) setupShowRoutes(rg *gin.RouterGroup) {
	showController := shows.NewController(r.showService)
	shows.SetupShowRoutes(rg, showController)
}

func (r *Router) setupBookingRoutes(rg *gin.RouterGroup) {
	bookingController := bookings.NewController(r.bookingService)
	bookings.SetupBookingRoutes(rg, bookingController)
}

func (r *Router) setupAdminRoutes(rg *gin.RouterGroup) {
	adminService := admin.NewService(r.bookingService, r.showService, r.userService)
	adminController := admin.NewController(adminService)
	admin.SetupAdminRoutes(rg, adminController)
}

// setupWebhookRoutes mounts the provider callback endpoints. These are
// authenticated by signature, not by JWT.
func (r *Router) setupWebhookRoutes(rg *gin.RouterGroup) {
	webhooks := rg.Group("/webhooks")

	paymentWebhook := payments.NewWebhookController(r.bookingService, r.config.Payments.WebhookSecret)
	payments.SetupWebhookRoutes(webhooks, paymentWebhook)

	identityWebhook := users.NewWebhookController(r.userService, r.config.Identity.WebhookSecret)
	users.SetupWebhookRoutes(webhooks, identityWebhook)
}
