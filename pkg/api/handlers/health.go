package handlers

import (
	"net/http"

	"github.com/pingboard/pingboard/pkg/api/response"
	"github.com/pingboard/pingboard/pkg/counter"
	"github.com/pingboard/pingboard/pkg/version"
)

// HealthHandler handles health check endpoints.
type HealthHandler struct {
	counter *counter.Counter
}

// NewHealthHandler creates a health handler.
func NewHealthHandler(c *counter.Counter) *HealthHandler {
	return &HealthHandler{counter: c}
}

// Health handles GET /health (liveness probe).
func (h *HealthHandler) Health(w http.ResponseWriter, r *http.Request) {
	response.JSON(w, http.StatusOK, map[string]any{
		"status":  "ok",
		"count":   h.counter.Value(),
		"version": version.Version,
	})
}
