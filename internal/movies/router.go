package movies

import (
	"github.com/gin-gonic/gin"
)

func SetupMovieRoutes(rg *gin.RouterGroup, controller *Controller) {
	movies := rg.Group("/movies")
	{
		movies.GET("/now-playing", controller.NowPlaying)
		movies.GET("/:movieId", controller.GetMovie)
	}
}
