package routes

import (
	"net/http"
	"os"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"
	"gorm.io/gorm"

	"github.com/pitchup-app/pitchup/config"
	"github.com/pitchup-app/pitchup/internal/auth"
	"github.com/pitchup-app/pitchup/internal/game"
	"github.com/pitchup-app/pitchup/internal/places"
	"github.com/pitchup-app/pitchup/internal/team"
	"github.com/pitchup-app/pitchup/pkg/rmiddleware"
)

// NewLogger builds the process-wide logger. Development gets a console
// writer, everything else emits JSON.
func NewLogger(cfg *config.Config) zerolog.Logger {
	if cfg.App.Env == "development" {
		return zerolog.New(zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.RFC3339}).
			With().Timestamp().Logger()
	}
	return zerolog.New(os.Stderr).With().Timestamp().Logger()
}

// SetupRoutes wires middleware and every route group onto a gin engine.
func SetupRoutes(db *gorm.DB, cfg *config.Config) *gin.Engine {
	if cfg.App.Env != "development" {
		gin.SetMode(gin.ReleaseMode)
	}
	log := NewLogger(cfg)

	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(rmiddleware.RequestLogger(log))
	r.Use(rmiddleware.Timeout(time.Duration(cfg.App.RequestTimeoutSeconds) * time.Second))

	corsConfig := cors.DefaultConfig()
	corsConfig.AllowOrigins = []string{cfg.App.FrontendURL}
	corsConfig.AllowMethods = []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"}
	corsConfig.AllowHeaders = []string{"Origin", "Content-Type", "Authorization"}
	r.Use(cors.New(corsConfig))

	r.GET("/healthz", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})

	// Swagger route
	r.GET("/swagger/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))

	// API routes
	api := r.Group("/api")
	auth.RegisterAuthRoutes(api, db, cfg, log)
	team.TeamRoutes(api, db, cfg, log)
	game.GameRoutes(api, db, cfg, log)
	places.PlacesRoutes(api, db, cfg, log)

	return r
}
