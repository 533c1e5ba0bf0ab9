package places

import (
	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"
	"gorm.io/gorm"

	"github.com/pitchup-app/pitchup/config"
	mw "github.com/pitchup-app/pitchup/internal/middleware"
)

// PlacesRoutes sets up the venue search route. Authenticated so the proxy
// cannot be farmed for free provider quota.
func PlacesRoutes(router *gin.RouterGroup, db *gorm.DB, appConfig *config.Config, log zerolog.Logger) {
	client := NewClient(appConfig.Places.BaseURL, appConfig.Places.APIKey)
	controller := NewController(client, log)

	authRoutes := router.Group("/")
	authRoutes.Use(mw.AuthMiddleware(appConfig.JWT.AccessTokenSecret, db))
	{
		authRoutes.GET("/places/search", controller.SearchPlaces)
	}
}
