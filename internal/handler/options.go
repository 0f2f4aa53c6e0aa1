package handler

import (
	"net/http"

	"github.com/capitalize-ai/email-composer/internal/model"
	"github.com/capitalize-ai/email-composer/internal/service"
)

// OptionsHandler serves the static option sets and presets.
type OptionsHandler struct {
	composer *service.Composer
}

// NewOptionsHandler creates a new options handler.
func NewOptionsHandler(composer *service.Composer) *OptionsHandler {
	return &OptionsHandler{composer: composer}
}

// Options handles GET /api/v1/options
func (h *OptionsHandler) Options(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, model.AllOptions(h.composer.Models()))
}

// Presets handles GET /api/v1/presets
func (h *OptionsHandler) Presets(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"presets": model.Presets(),
	})
}
