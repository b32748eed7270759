package handler

import (
	"log"

	"github.com/gin-gonic/gin"

	"github.com/ridgeline/trailgraph-backend-go/internal/service"
	"github.com/ridgeline/trailgraph-backend-go/pkg/response"
)

// AdminHandler exposes workspace housekeeping endpoints
type AdminHandler struct {
	graphService *service.GraphService
}

// NewAdminHandler creates an admin handler
func NewAdminHandler(graphService *service.GraphService) *AdminHandler {
	return &AdminHandler{graphService: graphService}
}

// PruneRequest is the body of a workspace prune request
type PruneRequest struct {
	Region string `json:"region" binding:"required"`
}

// PruneWorkspaces handles POST /api/v1/admin/workspaces/prune
func (h *AdminHandler) PruneWorkspaces(c *gin.Context) {
	var req PruneRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, "Invalid request body: "+err.Error())
		return
	}

	pruned, err := h.graphService.PruneWorkspaces(req.Region)
	if err != nil {
		log.Printf("[AdminHandler] prune failed for region %s: %v", req.Region, err)
		response.InternalError(c, "Failed to prune workspaces")
		return
	}

	response.Success(c, gin.H{"pruned": pruned})
}

// DropWorkspace handles DELETE /api/v1/admin/workspaces/:id
func (h *AdminHandler) DropWorkspace(c *gin.Context) {
	id := c.Param("id")

	if err := h.graphService.DropWorkspace(id); err != nil {
		log.Printf("[AdminHandler] drop failed for workspace %s: %v", id, err)
		response.NotFound(c, err.Error())
		return
	}

	response.Success(c, gin.H{"dropped": id})
}
