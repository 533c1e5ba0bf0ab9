package team

import (
	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"
	"gorm.io/gorm"

	"github.com/pitchup-app/pitchup/config"
	mw "github.com/pitchup-app/pitchup/internal/middleware"
)

// TeamRoutes sets up all team and coordinator-request routes.
func TeamRoutes(router *gin.RouterGroup, db *gorm.DB, appConfig *config.Config, log zerolog.Logger) {
	repo := NewRepository(db)
	service := NewService(repo, log)
	controller := NewController(service)

	// Public team routes
	router.GET("/teams", controller.ListTeams)
	router.GET("/teams/:team_id", controller.GetTeam)
	router.GET("/teams/:team_id/members", controller.GetTeamMembers)

	// Authenticated routes; fine-grained authorization happens in the service.
	authRoutes := router.Group("/")
	authRoutes.Use(mw.AuthMiddleware(appConfig.JWT.AccessTokenSecret, db))
	{
		authRoutes.POST("/teams", controller.CreateTeam)
		authRoutes.PUT("/teams/:team_id", controller.UpdateTeam)
		authRoutes.DELETE("/teams/:team_id", controller.DeleteTeam)
		authRoutes.POST("/teams/:team_id/leave", controller.LeaveTeam)

		authRoutes.POST("/teams/:team_id/requests", controller.RequestToJoin)
		authRoutes.GET("/teams/:team_id/requests", controller.ListTeamRequests)
		authRoutes.PUT("/requests/:request_id/:action", controller.RespondToRequest)
		authRoutes.GET("/users/me/requests", controller.ListMyRequests)
	}
}
