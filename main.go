package main

import (
	"log"

	"github.com/pitchup-app/pitchup/config"
	_ "github.com/pitchup-app/pitchup/docs"
	"github.com/pitchup-app/pitchup/internal/game"
	"github.com/pitchup-app/pitchup/internal/team"
	"github.com/pitchup-app/pitchup/internal/user"
	"github.com/pitchup-app/pitchup/routes"
)

// @title Pitchup REST API
// @version 1.0
// @description Scheduling server for recreational sports teams.
// @host localhost:8088
// @BasePath /api
// @securityDefinitions.apikey ApiKeyAuth
// @in header
// @name Authorization
func main() {
	if err := config.Initialize(); err != nil {
		log.Fatalf("Failed to initialize application: %v", err)
	}

	cfg := config.GetConfig()

	err := config.DB.AutoMigrate(
		&user.User{}, &user.RefreshToken{},
		&team.Team{}, &team.CoordinatorRequest{},
		&game.Game{}, &game.GameRequest{},
	)
	if err != nil {
		log.Fatalf("AutoMigrate failed: %v", err)
	}
	log.Println("AutoMigrate successful")

	r := routes.SetupRoutes(config.DB, cfg)

	log.Printf("Starting server on port %s in %s mode\n", cfg.App.Port, cfg.App.Env)
	if err := r.Run(":" + cfg.App.Port); err != nil {
		log.Fatalf("Failed to run server: %v", err)
	}
}
