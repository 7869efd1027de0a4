package api

import (
	"net/http"
	"time"
)

type HealthResponse struct {
	Status    string `json:"status"`
	Timestamp string `json:"timestamp"`
}

// Health returns a liveness payload. It must not touch anything external.
// @Summary      Liveness probe
// @Tags         health
// @Produce      json
// @Success      200  {object} HealthResponse
// @Router       /health [get]
func Health(now func() time.Time) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, HealthResponse{
			Status:    "healthy",
			Timestamp: now().UTC().Format(TimestampLayout),
		})
	}
}
