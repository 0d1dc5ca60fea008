package handlers

import (
	"net/http"
	"time"
)

// HealthResponse represents the health check response.
type HealthResponse struct {
	Status    string            `json:"status"`
	Timestamp time.Time         `json:"timestamp"`
	Checks    map[string]string `json:"checks"`
}

// Health reports liveness of the server and its backing services.
// Redis is optional; a missing client is reported as disabled, not
// unhealthy.
func (h *Handler) Health(w http.ResponseWriter, r *http.Request) {
	checks := map[string]string{}
	status := "healthy"
	code := http.StatusOK

	if err := h.db.Ping(r.Context()); err != nil {
		checks["database"] = "unhealthy: " + err.Error()
		status = "unhealthy"
		code = http.StatusServiceUnavailable
	} else {
		checks["database"] = "healthy"
	}

	if h.redis != nil {
		if err := h.redis.Ping(r.Context()); err != nil {
			checks["redis"] = "unhealthy: " + err.Error()
			status = "unhealthy"
			code = http.StatusServiceUnavailable
		} else {
			checks["redis"] = "healthy"
		}
	} else {
		checks["redis"] = "disabled"
	}

	h.JSON(w, code, HealthResponse{
		Status:    status,
		Timestamp: time.Now().UTC(),
		Checks:    checks,
	})
}
