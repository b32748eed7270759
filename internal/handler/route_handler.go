package handler

import (
	"errors"
	"log"

	"github.com/gin-gonic/gin"

	"github.com/ridgeline/trailgraph-backend-go/internal/database"
	"github.com/ridgeline/trailgraph-backend-go/internal/models"
	"github.com/ridgeline/trailgraph-backend-go/internal/service"
	"github.com/ridgeline/trailgraph-backend-go/pkg/response"
)

// RouteHandler exposes route search and recommendation endpoints
type RouteHandler struct {
	routeService *service.RouteService
}

// NewRouteHandler creates a route handler
func NewRouteHandler(routeService *service.RouteService) *RouteHandler {
	return &RouteHandler{routeService: routeService}
}

// SearchRoutes handles POST /api/v1/regions/:region/routes/search
func (h *RouteHandler) SearchRoutes(c *gin.Context) {
	region := c.Param("region")

	var pattern models.RoutePattern
	if err := c.ShouldBindJSON(&pattern); err != nil {
		response.BadRequest(c, "Invalid request body: "+err.Error())
		return
	}

	result, err := h.routeService.SearchRoutes(c.Request.Context(), region, pattern)
	if err != nil {
		if errors.Is(err, database.ErrNoWorkspace) {
			response.NotFound(c, "No committed graph for region "+region)
			return
		}
		log.Printf("[RouteHandler] search failed for region %s: %v", region, err)
		response.InternalError(c, "Failed to search routes")
		return
	}

	response.Success(c, result)
}

// ListRecommendations handles GET /api/v1/regions/:region/routes
func (h *RouteHandler) ListRecommendations(c *gin.Context) {
	region := c.Param("region")

	var filter models.RecommendationFilter
	if err := c.ShouldBindQuery(&filter); err != nil {
		response.BadRequest(c, "Invalid query parameters: "+err.Error())
		return
	}

	recs, err := h.routeService.ListRecommendations(c.Request.Context(), region, filter)
	if err != nil {
		if errors.Is(err, database.ErrNoWorkspace) {
			response.NotFound(c, "No committed graph for region "+region)
			return
		}
		log.Printf("[RouteHandler] failed to list recommendations for region %s: %v", region, err)
		response.InternalError(c, "Failed to list recommendations")
		return
	}

	response.Success(c, gin.H{
		"recommendations": recs,
		"count":           len(recs),
	})
}

// GetPatterns handles GET /api/v1/patterns
func (h *RouteHandler) GetPatterns(c *gin.Context) {
	response.Success(c, h.routeService.Patterns())
}
