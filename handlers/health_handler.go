package handlers

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
)

// Pinger checks a backing database
type Pinger interface {
	Ping(ctx context.Context) error
}

// HealthHandler reports service health
type HealthHandler struct {
	db                 Pinger
	providerConfigured bool
}

// NewHealthHandler creates a new health handler. db may be nil.
func NewHealthHandler(db Pinger, providerConfigured bool) *HealthHandler {
	return &HealthHandler{db: db, providerConfigured: providerConfigured}
}

// Health handles GET /health
func (h *HealthHandler) Health(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}

// APIHealth handles GET /api/health
func (h *HealthHandler) APIHealth(c *gin.Context) {
	dbOK := false
	if h.db != nil {
		ctx, cancel := context.WithTimeout(c.Request.Context(), 2*time.Second)
		defer cancel()
		dbOK = h.db.Ping(ctx) == nil
	}

	c.JSON(http.StatusOK, gin.H{
		"api":      "ok",
		"db":       dbOK,
		"provider": h.providerConfigured,
	})
}
