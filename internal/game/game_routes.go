package game

import (
	"github.com/gin-gonic/gin"
	"github.com/jonboulle/clockwork"
	"github.com/rs/zerolog"
	"gorm.io/gorm"

	"github.com/pitchup-app/pitchup/config"
	mw "github.com/pitchup-app/pitchup/internal/middleware"
)

// GameRoutes sets up all game and game-request routes.
func GameRoutes(router *gin.RouterGroup, db *gorm.DB, appConfig *config.Config, log zerolog.Logger) {
	repo := NewRepository(db)
	includeUnlocated := appConfig.Workflow.NearbyUnlocatedPolicy == config.NearbyUnlocatedInclude
	service := NewService(repo, clockwork.NewRealClock(), log, includeUnlocated)
	controller := NewController(service)

	// Public discovery routes
	router.GET("/games", controller.FindNearbyGames)
	router.GET("/games/:game_id", controller.GetGame)
	router.GET("/teams/:team_id/games", controller.ListTeamGames)

	// Authenticated routes; fine-grained authorization happens in the service.
	authRoutes := router.Group("/")
	authRoutes.Use(mw.AuthMiddleware(appConfig.JWT.AccessTokenSecret, db))
	{
		authRoutes.POST("/teams/:team_id/games", controller.ScheduleAvailability)
		authRoutes.DELETE("/games/:game_id", controller.DeleteGame)

		authRoutes.POST("/games/:game_id/requests", controller.RequestGame)
		authRoutes.PUT("/game-requests/:request_id/:action", controller.RespondToGameRequest)
		authRoutes.GET("/users/me/game-requests", controller.ListGameRequests)
	}
}
