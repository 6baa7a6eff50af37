package api

import (
	"net/http"

	service "github.com/okian/pitchtrack/internal/app"
)

// HealthReporter reports liveness.
type HealthReporter interface {
	Health() service.Health
}

// HealthHandler handles health check requests.
type HealthHandler struct {
	reporter HealthReporter
}

// NewHealthHandler creates a new health handler.
func NewHealthHandler(reporter HealthReporter) *HealthHandler {
	return &HealthHandler{reporter: reporter}
}

// HandleHealth handles GET / requests. It never touches upstream.
func (h *HealthHandler) HandleHealth(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, h.reporter.Health())
}
