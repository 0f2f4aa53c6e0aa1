package handler

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"mime"
	"mime/multipart"
	"net/http"
	"strings"

	"go.uber.org/zap"

	"github.com/capitalize-ai/email-composer/internal/extract"
	"github.com/capitalize-ai/email-composer/internal/middleware"
	"github.com/capitalize-ai/email-composer/internal/model"
	"github.com/capitalize-ai/email-composer/internal/service"
	"github.com/capitalize-ai/email-composer/pkg/logger"
)

// maxRequestPart bounds the JSON "request" part of a multipart body.
const maxRequestPart = 1 << 20

// SessionHandler handles session-scoped endpoints.
type SessionHandler struct {
	manager *service.SessionManager
	logger  *logger.Logger
	// maxUpload bounds the whole multipart body, well above the per-file
	// limit.
	maxUpload int64
}

// NewSessionHandler creates a new session handler.
func NewSessionHandler(manager *service.SessionManager, maxUpload int64, log *logger.Logger) *SessionHandler {
	return &SessionHandler{
		manager:   manager,
		logger:    log,
		maxUpload: maxUpload,
	}
}

// Create handles POST /api/v1/sessions
func (h *SessionHandler) Create(w http.ResponseWriter, r *http.Request) {
	sess := h.manager.Create()
	writeJSON(w, http.StatusCreated, sess.Snapshot())
}

// Get handles GET /api/v1/sessions/{sessionID}
func (h *SessionHandler) Get(w http.ResponseWriter, r *http.Request) {
	sess, ok := h.session(w, r)
	if !ok {
		return
	}
	writeJSON(w, http.StatusOK, sess.Snapshot())
}

// Delete handles DELETE /api/v1/sessions/{sessionID}
func (h *SessionHandler) Delete(w http.ResponseWriter, r *http.Request) {
	if err := h.manager.Delete(middleware.GetSessionID(r.Context())); err != nil {
		writeServiceError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

type presetRequest struct {
	Name string `json:"name"`
}

// ApplyPreset handles PUT /api/v1/sessions/{sessionID}/preset
func (h *SessionHandler) ApplyPreset(w http.ResponseWriter, r *http.Request) {
	sess, ok := h.session(w, r)
	if !ok {
		return
	}

	var req presetRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	snap, err := sess.ApplyPreset(req.Name)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, snap)
}

// ClearPreset handles DELETE /api/v1/sessions/{sessionID}/preset
func (h *SessionHandler) ClearPreset(w http.ResponseWriter, r *http.Request) {
	sess, ok := h.session(w, r)
	if !ok {
		return
	}
	writeJSON(w, http.StatusOK, sess.ClearPreset())
}

type modelRequest struct {
	Model string `json:"model"`
}

// SelectModel handles PUT /api/v1/sessions/{sessionID}/model
func (h *SessionHandler) SelectModel(w http.ResponseWriter, r *http.Request) {
	sess, ok := h.session(w, r)
	if !ok {
		return
	}

	var req modelRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	snap, err := sess.SelectModel(req.Model)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, snap)
}

type attachmentsResponse struct {
	Session  service.Snapshot `json:"session"`
	Warnings []string         `json:"warnings,omitempty"`
}

// SetAttachments handles PUT /api/v1/sessions/{sessionID}/attachments
// with a multipart body of "attachments" files.
func (h *SessionHandler) SetAttachments(w http.ResponseWriter, r *http.Request) {
	sess, ok := h.session(w, r)
	if !ok {
		return
	}

	_, attachments, err := h.readMultipart(w, r, sess)
	if err != nil {
		writeUploadError(w, err)
		return
	}

	snap, warnings := sess.SetAttachments(attachments)
	writeJSON(w, http.StatusOK, attachmentsResponse{Session: snap, Warnings: warnings})
}

// ClearAttachments handles DELETE /api/v1/sessions/{sessionID}/attachments
func (h *SessionHandler) ClearAttachments(w http.ResponseWriter, r *http.Request) {
	sess, ok := h.session(w, r)
	if !ok {
		return
	}
	writeJSON(w, http.StatusOK, sess.ClearAttachments())
}

// Generate handles POST /api/v1/sessions/{sessionID}/generate. The body is
// either a JSON request or multipart with a "request" JSON part and
// "attachments" files.
func (h *SessionHandler) Generate(w http.ResponseWriter, r *http.Request) {
	sess, ok := h.session(w, r)
	if !ok {
		return
	}

	req, ok := h.readRequest(w, r, sess)
	if !ok {
		return
	}

	result, err := sess.Generate(r.Context(), req)
	if err != nil {
		log := h.logger.WithSession(middleware.GetCorrelationID(r.Context()), sess.ID())
		log.Warn("generation failed", zap.Error(err))
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, result)
}

type previewResponse struct {
	Prompt   string   `json:"prompt"`
	Warnings []string `json:"warnings,omitempty"`
}

// Preview handles POST /api/v1/sessions/{sessionID}/preview. It renders the
// prompt without calling the model.
func (h *SessionHandler) Preview(w http.ResponseWriter, r *http.Request) {
	sess, ok := h.session(w, r)
	if !ok {
		return
	}

	req, ok := h.readRequest(w, r, sess)
	if !ok {
		return
	}

	promptText, warnings, err := sess.Preview(req)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, previewResponse{Prompt: promptText, Warnings: warnings})
}

func (h *SessionHandler) readRequest(w http.ResponseWriter, r *http.Request, sess *service.Session) (model.GenerationRequest, bool) {
	var req model.GenerationRequest

	if isMultipart(r) {
		raw, attachments, err := h.readMultipart(w, r, sess)
		if err != nil {
			writeUploadError(w, err)
			return req, false
		}
		if raw != "" {
			if err := json.Unmarshal([]byte(raw), &req); err != nil {
				writeError(w, http.StatusBadRequest, "invalid request part")
				return req, false
			}
		}
		req.Attachments = attachments
		return req, true
	}

	if r.ContentLength == 0 {
		return req, true
	}
	if !decodeJSON(w, r, &req) {
		return req, false
	}
	// Attachment bytes only arrive through multipart.
	req.Attachments = nil
	return req, true
}

func writeUploadError(w http.ResponseWriter, err error) {
	var tooLarge *http.MaxBytesError
	if errors.As(err, &tooLarge) {
		writeError(w, http.StatusRequestEntityTooLarge, fmt.Sprintf("upload exceeds %d bytes", tooLarge.Limit))
		return
	}
	writeError(w, http.StatusBadRequest, err.Error())
}

func isMultipart(r *http.Request) bool {
	mediaType, _, err := mime.ParseMediaType(r.Header.Get("Content-Type"))
	return err == nil && strings.HasPrefix(mediaType, "multipart/")
}

// readMultipart streams the parts of a multipart body and returns the
// "request" part and the uploaded files. Files over the per-file limit or of
// an unsupported type are drained and returned without data, so the session
// reports them as warnings while the rest of the batch goes through. Only
// the overall body cap, maxUpload, fails the request.
func (h *SessionHandler) readMultipart(w http.ResponseWriter, r *http.Request, sess *service.Session) (string, []model.Attachment, error) {
	if h.maxUpload > 0 {
		r.Body = http.MaxBytesReader(w, r.Body, h.maxUpload)
	}
	mr, err := r.MultipartReader()
	if err != nil {
		return "", nil, fmt.Errorf("invalid multipart body: %w", err)
	}

	extractor := h.manager.Composer().Extractor()
	var (
		raw         string
		attachments []model.Attachment
	)
	for {
		part, err := mr.NextPart()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return "", nil, fmt.Errorf("invalid multipart body: %w", err)
		}

		switch part.FormName() {
		case "request":
			data, err := io.ReadAll(io.LimitReader(part, maxRequestPart))
			if err != nil {
				part.Close()
				return "", nil, fmt.Errorf("read request part: %w", err)
			}
			raw = string(data)
		case "attachments":
			att, err := readAttachment(part, extractor)
			if err != nil {
				part.Close()
				return "", nil, fmt.Errorf("read %s: %w", att.Filename, err)
			}
			attachments = append(attachments, att)
		}
		part.Close()
	}

	h.logger.Debug("multipart received",
		zap.String("session_id", sess.ID()),
		zap.Int("files", len(attachments)),
	)
	return raw, attachments, nil
}

// readAttachment reads one file part, keeping at most the per-file limit in
// memory. Size is the byte count seen on the wire.
func readAttachment(part *multipart.Part, extractor *extract.Extractor) (model.Attachment, error) {
	att := model.Attachment{Filename: part.FileName()}

	if errors.Is(extractor.Check(att.Filename, 0), extract.ErrUnsupportedType) {
		n, err := io.Copy(io.Discard, part)
		att.Size = n
		return att, err
	}

	data, err := io.ReadAll(io.LimitReader(part, extractor.MaxSize()+1))
	if err != nil {
		return att, err
	}
	att.Size = int64(len(data))
	if att.Size > extractor.MaxSize() {
		n, err := io.Copy(io.Discard, part)
		att.Size += n
		return att, err
	}

	att.Data = data
	return att, nil
}
