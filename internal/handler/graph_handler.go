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

// GraphHandler exposes graph build and inspection endpoints
type GraphHandler struct {
	graphService *service.GraphService
}

// NewGraphHandler creates a graph handler
func NewGraphHandler(graphService *service.GraphService) *GraphHandler {
	return &GraphHandler{graphService: graphService}
}

// BuildGraphRequest is the body of a build request
type BuildGraphRequest struct {
	Trails []models.TrailInput `json:"trails" binding:"required,min=1"`
}

// BuildGraph handles POST /api/v1/regions/:region/graph/build
func (h *GraphHandler) BuildGraph(c *gin.Context) {
	region := c.Param("region")

	var req BuildGraphRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, "Invalid request body: "+err.Error())
		return
	}

	report, err := h.graphService.BuildGraph(c.Request.Context(), region, req.Trails)
	if err != nil {
		if errors.Is(err, database.ErrBuildInProgress) {
			response.Error(c, 409, err.Error())
			return
		}
		log.Printf("[GraphHandler] build failed for region %s: %v", region, err)
		response.InternalError(c, "Failed to build graph")
		return
	}

	response.Success(c, report)
}

// GetGraph handles GET /api/v1/regions/:region/graph
func (h *GraphHandler) GetGraph(c *gin.Context) {
	region := c.Param("region")

	detail, err := h.graphService.GetGraph(c.Request.Context(), region)
	if err != nil {
		if errors.Is(err, database.ErrNoWorkspace) {
			response.NotFound(c, "No committed graph for region "+region)
			return
		}
		log.Printf("[GraphHandler] failed to read graph for region %s: %v", region, err)
		response.InternalError(c, "Failed to read graph")
		return
	}

	response.Success(c, detail)
}

// GetValidation handles GET /api/v1/regions/:region/graph/validation
func (h *GraphHandler) GetValidation(c *gin.Context) {
	region := c.Param("region")

	report, err := h.graphService.GetValidation(c.Request.Context(), region)
	if err != nil {
		if errors.Is(err, database.ErrNoWorkspace) {
			response.NotFound(c, "No committed graph for region "+region)
			return
		}
		log.Printf("[GraphHandler] failed to read validation for region %s: %v", region, err)
		response.InternalError(c, "Failed to read validation report")
		return
	}

	response.Success(c, report)
}

// GetTrails handles GET /api/v1/regions/:region/trails
func (h *GraphHandler) GetTrails(c *gin.Context) {
	region := c.Param("region")

	var filter models.TrailFilter
	if err := c.ShouldBindQuery(&filter); err != nil {
		response.BadRequest(c, "Invalid query parameters: "+err.Error())
		return
	}

	trails, err := h.graphService.GetTrails(c.Request.Context(), region, filter)
	if err != nil {
		if errors.Is(err, database.ErrNoWorkspace) {
			response.NotFound(c, "No committed graph for region "+region)
			return
		}
		log.Printf("[GraphHandler] failed to list trails for region %s: %v", region, err)
		response.InternalError(c, "Failed to list trails")
		return
	}

	response.Success(c, gin.H{
		"trails": trails,
		"count":  len(trails),
	})
}
