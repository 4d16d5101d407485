package movies

import (
	"net/http"

	"cinebook/internal/shared/apperrors"
	"cinebook/internal/shared/utils/response"

	"github.com/gin-gonic/gin"
)

type Controller struct {
	service Service
}

func NewController(service Service) *Controller {
	return &Controller{service: service}
}

// NowPlaying handles GET /api/v1/movies/now-playing
func (c *Controller) NowPlaying(ctx *gin.Context) {
	results, err := c.service.NowPlaying(ctx.Request.Context())
	if err != nil {
		response.RespondJSON(ctx, "error", apperrors.HTTPStatus(err), "failed to fetch now-playing movies", nil, err.Error())
		return
	}

	response.RespondJSON(ctx, "success", http.StatusOK, "now-playing movies retrieved", gin.H{"movies": results}, nil)
}

// GetMovie handles GET /api/v1/movies/:movieId
func (c *Controller) GetMovie(ctx *gin.Context) {
	movie, err := c.service.GetMovie(ctx.Request.Context(), ctx.Param("movieId"))
	if err != nil {
		response.RespondJSON(ctx, "error", apperrors.HTTPStatus(err), "failed to fetch movie", nil, err.Error())
		return
	}

	response.RespondJSON(ctx, "success", http.StatusOK, "movie retrieved", movie, nil)
}
