package handlers

import (
	"errors"
	"net/http"

	"akut-backend/service"

	"github.com/gin-gonic/gin"
)

// statusFor maps service errors to HTTP status codes
func statusFor(err error) int {
	switch {
	case errors.Is(err, service.ErrInvalidRequest):
		return http.StatusBadRequest
	case errors.Is(err, service.ErrTreeNotFound):
		return http.StatusNotFound
	case errors.Is(err, service.ErrProviderUnavailable),
		errors.Is(err, service.ErrPersistenceUnavailable):
		return http.StatusServiceUnavailable
	case errors.Is(err, service.ErrGenerationTimeout):
		return http.StatusGatewayTimeout
	case errors.Is(err, service.ErrUpstreamGeneration):
		return http.StatusBadGateway
	default:
		return http.StatusInternalServerError
	}
}

// respondError writes {"error": message}. Internal failures are recorded on
// the gin context for the request logger and reported without details.
func respondError(c *gin.Context, err error) {
	status := statusFor(err)
	message := err.Error()
	if status == http.StatusInternalServerError {
		_ = c.Error(err)
		message = "internal server error"
		if errors.Is(err, service.ErrTreeLoad) {
			message = service.ErrTreeLoad.Error()
		}
	}
	c.AbortWithStatusJSON(status, gin.H{"error": message})
}
