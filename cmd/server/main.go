package main

import (
	"log"

	"github.com/joho/godotenv"

	"github.com/ridgeline/trailgraph-backend-go/internal/api"
	"github.com/ridgeline/trailgraph-backend-go/internal/config"
	"github.com/ridgeline/trailgraph-backend-go/internal/database"
	"github.com/ridgeline/trailgraph-backend-go/internal/service"
)

func main() {
	// .env is optional; real deployments set the environment directly
	if err := godotenv.Load(); err == nil {
		log.Println("Loaded configuration from .env")
	}

	cfg := config.Load()

	manager, err := database.NewManager(cfg.DataDir, cfg.KeepWorkspaces)
	if err != nil {
		log.Fatal("Failed to initialize workspace manager:", err)
	}

	graphService := service.NewGraphService(manager, cfg)
	routeService := service.NewRouteService(manager, cfg)

	router := api.SetupRouter(cfg, graphService, routeService)

	log.Printf("Server starting on port %s", cfg.Port)
	if err := router.Run(cfg.Port); err != nil {
		log.Fatal("Failed to start server:", err)
	}
}
