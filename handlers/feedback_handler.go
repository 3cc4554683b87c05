package handlers

import (
	"net/http"

	"akut-backend/models"
	"akut-backend/service"

	"github.com/gin-gonic/gin"
)

// FeedbackHandler handles HTTP requests for feedback and telemetry
type FeedbackHandler struct {
	feedbackService *service.FeedbackService
}

// NewFeedbackHandler creates a new feedback handler
func NewFeedbackHandler(feedbackService *service.FeedbackService) *FeedbackHandler {
	return &FeedbackHandler{feedbackService: feedbackService}
}

// SubmitFeedback handles POST /api/feedback
func (h *FeedbackHandler) SubmitFeedback(c *gin.Context) {
	var payload models.JSONPayload
	if err := c.ShouldBindJSON(&payload); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid JSON body: " + err.Error()})
		return
	}

	if _, err := h.feedbackService.SubmitFeedback(c.Request.Context(), payload); err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}

// RecordTelemetry handles POST /api/telemetry
func (h *FeedbackHandler) RecordTelemetry(c *gin.Context) {
	var payload models.JSONPayload
	if err := c.ShouldBindJSON(&payload); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid JSON body: " + err.Error()})
		return
	}

	if _, err := h.feedbackService.RecordTelemetry(c.Request.Context(), payload); err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}
