package handler

import (
	"net/http"

	"github.com/capitalize-ai/email-composer/internal/middleware"
)

// StartEdit handles POST /api/v1/sessions/{sessionID}/current/edit
func (h *SessionHandler) StartEdit(w http.ResponseWriter, r *http.Request) {
	sess, ok := h.session(w, r)
	if !ok {
		return
	}

	snap, err := sess.StartEdit()
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, snap)
}

// CancelEdit handles DELETE /api/v1/sessions/{sessionID}/current/edit
func (h *SessionHandler) CancelEdit(w http.ResponseWriter, r *http.Request) {
	sess, ok := h.session(w, r)
	if !ok {
		return
	}
	writeJSON(w, http.StatusOK, sess.CancelEdit())
}

type saveRequest struct {
	Content string `json:"content"`
}

// SaveEdit handles PUT /api/v1/sessions/{sessionID}/current
func (h *SessionHandler) SaveEdit(w http.ResponseWriter, r *http.Request) {
	sess, ok := h.session(w, r)
	if !ok {
		return
	}

	var req saveRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	if err := middleware.ValidateContent(req.Content); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	snap, err := sess.SaveEdit(req.Content)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, snap)
}

// ToggleCurrentFavorite handles POST /api/v1/sessions/{sessionID}/current/favorite
func (h *SessionHandler) ToggleCurrentFavorite(w http.ResponseWriter, r *http.Request) {
	sess, ok := h.session(w, r)
	if !ok {
		return
	}

	snap, err := sess.ToggleCurrentFavorite()
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, snap)
}
