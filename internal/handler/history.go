package handler

import (
	"net/http"

	"github.com/capitalize-ai/email-composer/internal/middleware"
)

// History handles GET /api/v1/sessions/{sessionID}/history
func (h *SessionHandler) History(w http.ResponseWriter, r *http.Request) {
	sess, ok := h.session(w, r)
	if !ok {
		return
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"records": sess.History(),
	})
}

// Favorites handles GET /api/v1/sessions/{sessionID}/favorites
func (h *SessionHandler) Favorites(w http.ResponseWriter, r *http.Request) {
	sess, ok := h.session(w, r)
	if !ok {
		return
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"records": sess.Favorites(),
	})
}

// ClearHistory handles DELETE /api/v1/sessions/{sessionID}/history
func (h *SessionHandler) ClearHistory(w http.ResponseWriter, r *http.Request) {
	sess, ok := h.session(w, r)
	if !ok {
		return
	}
	writeJSON(w, http.StatusOK, sess.ClearHistory())
}

// ToggleFavorite handles POST /api/v1/sessions/{sessionID}/history/{index}/favorite
func (h *SessionHandler) ToggleFavorite(w http.ResponseWriter, r *http.Request) {
	sess, ok := h.session(w, r)
	if !ok {
		return
	}
	i, ok := index(w, r)
	if !ok {
		return
	}

	snap, err := sess.ToggleFavorite(i)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, snap)
}

// DeleteRecord handles DELETE /api/v1/sessions/{sessionID}/history/{index}
func (h *SessionHandler) DeleteRecord(w http.ResponseWriter, r *http.Request) {
	sess, ok := h.session(w, r)
	if !ok {
		return
	}
	i, ok := index(w, r)
	if !ok {
		return
	}

	snap, err := sess.DeleteRecord(i)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, snap)
}

type reloadRequest struct {
	ID string `json:"id"`
}

// Reload handles POST /api/v1/sessions/{sessionID}/history/reload
func (h *SessionHandler) Reload(w http.ResponseWriter, r *http.Request) {
	sess, ok := h.session(w, r)
	if !ok {
		return
	}

	var req reloadRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	if err := middleware.ValidateRecordID(req.ID); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	snap, err := sess.Reload(req.ID)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, snap)
}
