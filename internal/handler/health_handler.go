package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

// HealthHandler handles health check endpoints.
type HealthHandler struct {
	providers []string
}

// NewHealthHandler creates a new HealthHandler reporting the configured providers.
func NewHealthHandler(providers []string) *HealthHandler {
	return &HealthHandler{providers: providers}
}

// Liveness handles GET /healthz
// @Summary Liveness check
// @Tags health
// @Produce json
// @Success 200 {object} HealthResponse "Process is up"
// @Router /healthz [get]
func (h *HealthHandler) Liveness(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}

// Readiness handles GET /readyz
// @Summary Readiness check
// @Description Reports the configured providers; 503 when none is available
// @Tags health
// @Produce json
// @Success 200 {object} HealthResponse "Ready"
// @Failure 503 {object} HealthResponse "No provider configured"
// @Router /readyz [get]
func (h *HealthHandler) Readiness(c *gin.Context) {
	if len(h.providers) == 0 {
		c.JSON(http.StatusServiceUnavailable, gin.H{"status": "unavailable", "error": "no llm provider configured"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": "ok", "providers": h.providers})
}
