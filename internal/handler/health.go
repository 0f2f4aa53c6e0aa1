package handler

import (
	"net/http"

	natsclient "github.com/capitalize-ai/email-composer/internal/nats"
	"github.com/capitalize-ai/email-composer/internal/service"
)

// HealthHandler handles health check endpoints.
type HealthHandler struct {
	composer   *service.Composer
	natsClient *natsclient.Client
}

// NewHealthHandler creates a new health handler. natsClient is nil when
// event fan-out is disabled.
func NewHealthHandler(composer *service.Composer, natsClient *natsclient.Client) *HealthHandler {
	return &HealthHandler{
		composer:   composer,
		natsClient: natsClient,
	}
}

// Health handles GET /health
func (h *HealthHandler) Health(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{
		"status": "healthy",
	})
}

// Ready handles GET /ready
func (h *HealthHandler) Ready(w http.ResponseWriter, r *http.Request) {
	if !h.composer.Ready() {
		writeJSON(w, http.StatusServiceUnavailable, map[string]string{
			"status": "not ready",
			"reason": "LLM API key not configured",
		})
		return
	}

	if h.natsClient != nil && !h.natsClient.IsConnected() {
		writeJSON(w, http.StatusServiceUnavailable, map[string]string{
			"status": "not ready",
			"reason": "NATS not connected",
		})
		return
	}

	writeJSON(w, http.StatusOK, map[string]string{
		"status": "ready",
	})
}
