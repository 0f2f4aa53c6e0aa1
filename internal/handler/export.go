package handler

import (
	"fmt"
	"net/http"
	"strconv"

	"go.uber.org/zap"

	"github.com/capitalize-ai/email-composer/internal/middleware"
	"github.com/capitalize-ai/email-composer/internal/service"
)

// ExportText handles GET /api/v1/sessions/{sessionID}/export.txt
func (h *SessionHandler) ExportText(w http.ResponseWriter, r *http.Request) {
	h.export(w, r, (*service.Session).ExportText)
}

// ExportPDF handles GET /api/v1/sessions/{sessionID}/export.pdf
func (h *SessionHandler) ExportPDF(w http.ResponseWriter, r *http.Request) {
	h.export(w, r, (*service.Session).ExportPDF)
}

// export writes the record named by ?id=, or the current email, as a download.
func (h *SessionHandler) export(w http.ResponseWriter, r *http.Request, render func(*service.Session, string) (*service.Artifact, error)) {
	sess, ok := h.session(w, r)
	if !ok {
		return
	}

	id := r.URL.Query().Get("id")
	if id != "" {
		if err := middleware.ValidateRecordID(id); err != nil {
			writeError(w, http.StatusBadRequest, err.Error())
			return
		}
	}

	artifact, err := render(sess, id)
	if err != nil {
		writeServiceError(w, err)
		return
	}

	w.Header().Set("Content-Type", artifact.ContentType)
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", artifact.Filename))
	w.Header().Set("Content-Length", strconv.Itoa(len(artifact.Data)))
	w.WriteHeader(http.StatusOK)
	if _, err := w.Write(artifact.Data); err != nil {
		h.logger.Warn("export write failed", zap.String("session_id", sess.ID()), zap.Error(err))
	}
}
