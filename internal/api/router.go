package api

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/ridgeline/trailgraph-backend-go/internal/config"
	"github.com/ridgeline/trailgraph-backend-go/internal/handler"
	"github.com/ridgeline/trailgraph-backend-go/internal/middleware"
	"github.com/ridgeline/trailgraph-backend-go/internal/service"
)

// SetupRouter wires middleware, handlers and routes
func SetupRouter(cfg *config.Config, graphService *service.GraphService, routeService *service.RouteService) *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(middleware.Logger())
	r.Use(middleware.RateLimit(100, time.Minute))

	// CORS middleware
	r.Use(func(c *gin.Context) {
		c.Writer.Header().Set("Access-Control-Allow-Origin", "*")
		c.Writer.Header().Set("Access-Control-Allow-Methods", "GET, POST, PUT, DELETE, OPTIONS")
		c.Writer.Header().Set("Access-Control-Allow-Headers", "Content-Type, Authorization")

		if c.Request.Method == "OPTIONS" {
			c.AbortWithStatus(http.StatusNoContent)
			return
		}

		c.Next()
	})

	// Health check
	r.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{
			"status":  "ok",
			"message": "Trail Graph API is running",
		})
	})

	graphHandler := handler.NewGraphHandler(graphService)
	routeHandler := handler.NewRouteHandler(routeService)
	adminHandler := handler.NewAdminHandler(graphService)

	api := r.Group("/api/v1")
	{
		regions := api.Group("/regions/:region")
		{
			regions.POST("/graph/build", graphHandler.BuildGraph)
			regions.GET("/graph", graphHandler.GetGraph)
			regions.GET("/graph/validation", graphHandler.GetValidation)
			regions.GET("/trails", graphHandler.GetTrails)

			regions.POST("/routes/search", routeHandler.SearchRoutes)
			regions.GET("/routes", routeHandler.ListRecommendations)
		}

		api.GET("/patterns", routeHandler.GetPatterns)

		// Workspace housekeeping requires authentication
		admin := api.Group("/admin", middleware.JWTAuth(cfg.JWTSecret))
		{
			admin.POST("/workspaces/prune", adminHandler.PruneWorkspaces)
			admin.DELETE("/workspaces/:id", adminHandler.DropWorkspace)
		}
	}

	return r
}
