package shows

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"cinebook/internal/shared/apperrors"
	"cinebook/internal/shared/utils/response"
)

type Controller interface {
	GetUpcomingShows(c *gin.Context)
	GetMovieShows(c *gin.Context)
	GetShow(c *gin.Context)
	GetOccupiedSeats(c *gin.Context)
	AddShows(c *gin.Context)
}

type controller struct {
	service Service
}

func NewController(service Service) Controller {
	return &controller{service: service}
}

func (ctrl *controller) GetUpcomingShows(c *gin.Context) {
	showList, err := ctrl.service.GetUpcomingShows(c.Request.Context())
	if err != nil {
		response.RespondJSON(c, "error", apperrors.HTTPStatus(err), "Failed to fetch shows", nil, err.Error())
		return
	}

	response.RespondJSON(c, "success", http.StatusOK, "Shows retrieved successfully", showList, nil)
}

func (ctrl *controller) GetMovieShows(c *gin.Context) {
	movieID := c.Param("movieId")

	result, err := ctrl.service.GetMovieShows(c.Request.Context(), movieID)
	if err != nil {
		response.RespondJSON(c, "error", apperrors.HTTPStatus(err), "Failed to fetch movie shows", nil, err.Error())
		return
	}

	response.RespondJSON(c, "success", http.StatusOK, "Movie shows retrieved successfully", result, nil)
}

func (ctrl *controller) GetShow(c *gin.Context) {
	showID, err := uuid.Parse(c.Param("showId"))
	if err != nil {
		response.RespondJSON(c, "error", http.StatusBadRequest, "Invalid show ID", nil, err.Error())
		return
	}

	show, err := ctrl.service.GetShow(c.Request.Context(), showID)
	if err != nil {
		response.RespondJSON(c, "error", apperrors.HTTPStatus(err), "Failed to fetch show", nil, err.Error())
		return
	}

	response.RespondJSON(c, "success", http.StatusOK, "Show retrieved successfully", show, nil)
}

func (ctrl *controller) GetOccupiedSeats(c *gin.Context) {
	showID, err := uuid.Parse(c.Param("showId"))
	if err != nil {
		response.RespondJSON(c, "error", http.StatusBadRequest, "Invalid show ID", nil, err.Error())
		return
	}

	seats, err := ctrl.service.GetOccupiedSeats(c.Request.Context(), showID)
	if err != nil {
		response.RespondJSON(c, "error", apperrors.HTTPStatus(err), "Failed to fetch occupied seats", nil, err.Error())
		return
	}

	response.RespondJSON(c, "success", http.StatusOK, "Occupied seats retrieved successfully", gin.H{
		"occupied_seats": seats,
	}, nil)
}

func (ctrl *controller) AddShows(c *gin.Context) {
	var req AddShowsRequest

	if err := c.ShouldBindJSON(&req); err != nil {
		response.RespondJSON(c, "error", http.StatusBadRequest, "Invalid request body", nil, err.Error())
		return
	}

	created, err := ctrl.service.AddShows(c.Request.Context(), &req)
	if err != nil {
		response.RespondJSON(c, "error", apperrors.HTTPStatus(err), "Failed to create shows", nil, err.Error())
		return
	}

	response.RespondJSON(c, "success", http.StatusCreated, "Shows created successfully", gin.H{
		"shows_created": created,
	}, nil)
}
