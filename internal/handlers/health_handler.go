package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"loanrisk/internal/scoring"
)

// HealthHandler reports service liveness and the last observed state of
// the scoring collaborator.
type HealthHandler struct {
	monitor *scoring.Monitor
}

// NewHealthHandler creates a new HealthHandler.
func NewHealthHandler(monitor *scoring.Monitor) *HealthHandler {
	return &HealthHandler{monitor: monitor}
}

// Check responds with the API status and the cached scoring health probe.
func (h *HealthHandler) Check(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status":  "ok",
		"scoring": h.monitor.Status(),
	})
}
