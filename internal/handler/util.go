package handler

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/capitalize-ai/email-composer/internal/export"
	"github.com/capitalize-ai/email-composer/internal/history"
	"github.com/capitalize-ai/email-composer/internal/llm"
	"github.com/capitalize-ai/email-composer/internal/middleware"
	"github.com/capitalize-ai/email-composer/internal/model"
	"github.com/capitalize-ai/email-composer/internal/service"
)

// maxJSONBody bounds JSON request bodies.
const maxJSONBody = 1 << 20

// writeJSON writes a JSON response.
func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

// writeError writes a JSON error response.
func writeError(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, map[string]string{
		"error": message,
	})
}

// errorResponse is the body for service errors.
type errorResponse struct {
	Error    string   `json:"error"`
	Problems []string `json:"problems,omitempty"`
	Attempts int      `json:"attempts,omitempty"`
}

// statusFor maps service errors to HTTP status codes.
func statusFor(err error) int {
	switch {
	case model.IsValidationError(err),
		errors.Is(err, model.ErrUnknownPreset),
		errors.Is(err, service.ErrUnsupportedModel),
		errors.Is(err, service.ErrUnknownFormat):
		return http.StatusBadRequest
	case errors.Is(err, service.ErrSessionNotFound),
		errors.Is(err, history.ErrRecordNotFound),
		errors.Is(err, history.ErrIndexOutOfRange):
		return http.StatusNotFound
	case errors.Is(err, service.ErrNoCurrentEmail):
		return http.StatusConflict
	case errors.Is(err, export.ErrUnrenderable):
		return http.StatusUnprocessableEntity
	case errors.Is(err, llm.ErrMissingCredential):
		return http.StatusPreconditionFailed
	case llm.IsTerminal(err):
		return http.StatusBadGateway
	default:
		return http.StatusInternalServerError
	}
}

// writeServiceError writes err with the status from statusFor.
func writeServiceError(w http.ResponseWriter, err error) {
	status := statusFor(err)
	resp := errorResponse{Error: err.Error()}

	var ve *model.ValidationError
	if errors.As(err, &ve) {
		resp.Error = "invalid request"
		resp.Problems = ve.Problems
	}
	var te *llm.TerminalError
	if errors.As(err, &te) {
		resp.Attempts = te.Attempts
	}
	if status == http.StatusInternalServerError {
		resp.Error = "internal error"
	}

	writeJSON(w, status, resp)
}

// decodeJSON decodes a bounded JSON body into v.
func decodeJSON(w http.ResponseWriter, r *http.Request, v interface{}) bool {
	r.Body = http.MaxBytesReader(w, r.Body, maxJSONBody)
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return false
	}
	return true
}

// session resolves the session named in the route.
func (h *SessionHandler) session(w http.ResponseWriter, r *http.Request) (*service.Session, bool) {
	sess, err := h.manager.Get(chi.URLParam(r, middleware.SessionParam))
	if err != nil {
		writeServiceError(w, err)
		return nil, false
	}
	return sess, true
}

// index parses the history index route parameter.
func index(w http.ResponseWriter, r *http.Request) (int, bool) {
	i, err := middleware.ParseIndex(chi.URLParam(r, "index"))
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return 0, false
	}
	return i, true
}
