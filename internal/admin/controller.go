package admin

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"cinebook/internal/shared/apperrors"
	"cinebook/internal/shared/utils/response"
)

type Controller interface {
	IsAdmin(c *gin.Context)
	GetDashboard(c *gin.Context)
	GetAllShows(c *gin.Context)
	GetAllBookings(c *gin.Context)
}

type controller struct {
	service Service
}

func NewController(service Service) Controller {
	return &controller{service: service}
}

// IsAdmin only succeeds behind the admin middleware, so reaching it is
// the answer.
func (ctrl *controller) IsAdmin(c *gin.Context) {
	response.RespondJSON(c, "success", http.StatusOK, "Admin access confirmed", gin.H{
		"is_admin": true,
	}, nil)
}

func (ctrl *controller) GetDashboard(c *gin.Context) {
	data, err := ctrl.service.GetDashboard(c.Request.Context())
	if err != nil {
		response.RespondJSON(c, "error", apperrors.HTTPStatus(err), "Failed to load dashboard", nil, err.Error())
		return
	}

	response.RespondJSON(c, "success", http.StatusOK, "Dashboard retrieved successfully", data, nil)
}

func (ctrl *controller) GetAllShows(c *gin.Context) {
	showList, err := ctrl.service.GetAllShows(c.Request.Context())
	if err != nil {
		response.RespondJSON(c, "error", apperrors.HTTPStatus(err), "Failed to fetch shows", nil, err.Error())
		return
	}

	response.RespondJSON(c, "success", http.StatusOK, "Shows retrieved successfully", showList, nil)
}

func (ctrl *controller) GetAllBookings(c *gin.Context) {
	bookingList, err := ctrl.service.GetAllBookings(c.Request.Context())
	if err != nil {
		response.RespondJSON(c, "error", apperrors.HTTPStatus(err), "Failed to fetch bookings", nil, err.Error())
		return
	}

	response.RespondJSON(c, "success", http.StatusOK, "Bookings retrieved successfully", bookingList, nil)
}
