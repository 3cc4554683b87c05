package handlers

import (
	"net/http"

	"akut-backend/service"

	"github.com/gin-gonic/gin"
)

// HazardHandler handles HTTP requests for hazards and decision trees
type HazardHandler struct {
	hazardService *service.HazardService
}

// NewHazardHandler creates a new hazard handler
func NewHazardHandler(hazardService *service.HazardService) *HazardHandler {
	return &HazardHandler{hazardService: hazardService}
}

// ListHazards handles GET /api/hazards
func (h *HazardHandler) ListHazards(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"hazards": h.hazardService.ListHazards()})
}

// HazardsMeta handles GET /api/hazards_meta
func (h *HazardHandler) HazardsMeta(c *gin.Context) {
	c.Data(http.StatusOK, "application/json; charset=utf-8", h.hazardService.Catalog())
}

// GetDecisionTree handles GET /api/decision-tree/:slug
func (h *HazardHandler) GetDecisionTree(c *gin.Context) {
	resolved, err := h.hazardService.DecisionTree(c.Request.Context(), c.Param("slug"), c.Query("lang"))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, resolved.Tree)
}

// GetHazardDetails handles GET /api/hazards/:slug. The mode query parameter
// is accepted and ignored.
func (h *HazardHandler) GetHazardDetails(c *gin.Context) {
	details, err := h.hazardService.Details(c.Request.Context(), c.Param("slug"), c.Query("lang"))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, details)
}

// AllTrees handles GET /api/all-trees
func (h *HazardHandler) AllTrees(c *gin.Context) {
	trees, err := h.hazardService.AllTrees(c.Request.Context())
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, trees)
}

// AutoNavigateRequest represents the body of POST /api/auto-navigate
type AutoNavigateRequest struct {
	Description interface{} `json:"description"`
}

// AutoNavigate handles POST /api/auto-navigate
func (h *HazardHandler) AutoNavigate(c *gin.Context) {
	var req AutoNavigateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid JSON body: " + err.Error()})
		return
	}

	slug, err := h.hazardService.AutoNavigate(textValue(req.Description))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"slug": slug})
}
