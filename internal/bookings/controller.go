package bookings

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"cinebook/internal/shared/apperrors"
	"cinebook/internal/shared/utils/response"
	"cinebook/internal/users"
)

type Controller interface {
	CreateBooking(c *gin.Context)
	GetBooking(c *gin.Context)
	GetMyBookings(c *gin.Context)
}

type controller struct {
	service Service
}

func NewController(service Service) Controller {
	return &controller{service: service}
}

// currentUserID reads the authenticated caller set by the JWT middleware.
func currentUserID(c *gin.Context) (string, bool) {
	raw, exists := c.Get("user_id")
	if !exists {
		return "", false
	}
	id, ok := raw.(string)
	return id, ok && id != ""
}

func (ctrl *controller) CreateBooking(c *gin.Context) {
	var req CreateBookingRequest

	if err := c.ShouldBindJSON(&req); err != nil {
		response.RespondJSON(c, "error", http.StatusBadRequest, "Invalid request body", nil, err.Error())
		return
	}

	userID, ok := currentUserID(c)
	if !ok {
		response.RespondJSON(c, "error", http.StatusUnauthorized, "User not authenticated", nil, nil)
		return
	}

	showID, err := uuid.Parse(req.ShowID)
	if err != nil {
		response.RespondJSON(c, "error", http.StatusBadRequest, "Invalid show ID", nil, err.Error())
		return
	}

	result, err := ctrl.service.Reserve(c.Request.Context(), userID, showID, req.Seats)
	if err != nil {
		if seatErr, ok := apperrors.IsSeatUnavailable(err); ok {
			response.RespondJSON(c, "error", http.StatusConflict, "Selected seats are not available", nil, gin.H{
				"unavailable_seats": seatErr.Seats,
			})
			return
		}
		response.RespondJSON(c, "error", apperrors.HTTPStatus(err), "Failed to create booking", nil, err.Error())
		return
	}

	response.RespondJSON(c, "success", http.StatusCreated, "Booking created successfully", result, nil)
}

func (ctrl *controller) GetBooking(c *gin.Context) {
	bookingID, err := uuid.Parse(c.Param("bookingId"))
	if err != nil {
		response.RespondJSON(c, "error", http.StatusBadRequest, "Invalid booking ID", nil, err.Error())
		return
	}

	userID, ok := currentUserID(c)
	if !ok {
		response.RespondJSON(c, "error", http.StatusUnauthorized, "User not authenticated", nil, nil)
		return
	}
	role, _ := c.Get("user_role")
	isAdmin := role == string(users.RoleAdmin)

	booking, err := ctrl.service.GetBooking(c.Request.Context(), userID, isAdmin, bookingID)
	if err != nil {
		response.RespondJSON(c, "error", apperrors.HTTPStatus(err), "Failed to fetch booking", nil, err.Error())
		return
	}

	response.RespondJSON(c, "success", http.StatusOK, "Booking retrieved successfully", booking, nil)
}

func (ctrl *controller) GetMyBookings(c *gin.Context) {
	userID, ok := currentUserID(c)
	if !ok {
		response.RespondJSON(c, "error", http.StatusUnauthorized, "User not authenticated", nil, nil)
		return
	}

	bookingList, err := ctrl.service.GetUserBookings(c.Request.Context(), userID)
	if err != nil {
		response.RespondJSON(c, "error", apperrors.HTTPStatus(err), "Failed to fetch bookings", nil, err.Error())
		return
	}

	response.RespondJSON(c, "success", http.StatusOK, "Bookings retrieved successfully", bookingList, nil)
}
