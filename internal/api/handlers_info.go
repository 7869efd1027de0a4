package api

import (
	"net/http"
	"time"

	"github.com/projecthelena/vmprobe/internal/config"
)

type RootResponse struct {
	Message    string `json:"message"`
	InstanceID string `json:"instance_id"`
	Region     string `json:"region"`
	Timestamp  string `json:"timestamp"`
}

type MetadataResponse struct {
	InstanceID  string `json:"instance_id"`
	Region      string `json:"region"`
	Project     string `json:"project"`
	Environment string `json:"environment"`
}

type ErrorResponse struct {
	Error string `json:"error"`
}

// InfoHandler serves the endpoints that echo instance metadata.
type InfoHandler struct {
	server config.ServerConfig
	now    func() time.Time
}

func NewInfoHandler(server config.ServerConfig, now func() time.Time) *InfoHandler {
	if now == nil {
		now = time.Now
	}
	return &InfoHandler{server: server, now: now}
}

// Greeting is the message returned by the root endpoint.
func Greeting(server config.ServerConfig) string {
	return "Hello from " + server.ProjectName + "-" + server.Environment
}

// Root godoc
// @Summary      Greeting with instance identity
// @Tags         info
// @Produce      json
// @Success      200  {object} RootResponse
// @Failure      429  {object} ErrorResponse "Rate limit exceeded (only when RATE_LIMIT_RPS is set)"
// @Router       / [get]
func (h *InfoHandler) Root(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, RootResponse{
		Message:    Greeting(h.server),
		InstanceID: h.server.InstanceID,
		Region:     h.server.Region,
		Timestamp:  h.now().UTC().Format(TimestampLayout),
	})
}

// Metadata godoc
// @Summary      Instance metadata
// @Tags         info
// @Produce      json
// @Success      200  {object} MetadataResponse
// @Failure      429  {object} ErrorResponse "Rate limit exceeded (only when RATE_LIMIT_RPS is set)"
// @Router       /metadata [get]
func (h *InfoHandler) Metadata(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, MetadataResponse{
		InstanceID:  h.server.InstanceID,
		Region:      h.server.Region,
		Project:     h.server.ProjectName,
		Environment: h.server.Environment,
	})
}
