package service

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/capitalize-ai/email-composer/internal/export"
	"github.com/capitalize-ai/email-composer/internal/history"
	"github.com/capitalize-ai/email-composer/internal/llm"
	"github.com/capitalize-ai/email-composer/internal/model"
	"github.com/capitalize-ai/email-composer/pkg/logger"
)

// AttachmentInfo describes a pending upload without its bytes.
type AttachmentInfo struct {
	Filename string `json:"filename"`
	Size     int64  `json:"size"`
}

// Snapshot is a copy of a session's state after a command.
type Snapshot struct {
	ID          string                  `json:"id"`
	CreatedAt   time.Time               `json:"created_at"`
	Draft       model.GenerationRequest `json:"draft"`
	Preset      *model.Preset           `json:"preset,omitempty"`
	Current     *model.HistoryRecord    `json:"current,omitempty"`
	EditMode    bool                    `json:"edit_mode"`
	Attachments []AttachmentInfo        `json:"attachments"`
	History     []model.HistoryRecord   `json:"history"`
	Favorites   []model.HistoryRecord   `json:"favorites"`
	HistorySize int                     `json:"history_size"`
	Ready       bool                    `json:"ready"`
}

// GenerateResult is returned by a successful Generate.
type GenerateResult struct {
	Snapshot Snapshot            `json:"session"`
	Record   model.HistoryRecord `json:"record"`
	Warnings []string            `json:"warnings,omitempty"`
	Attempts int                 `json:"attempts"`
}

// Artifact is an exported document ready for download.
type Artifact struct {
	Filename    string
	ContentType string
	Data        []byte
}

// Session is one user's composer state. It is created by a SessionManager
// and never shared with other sessions.
type Session struct {
	id        string
	createdAt time.Time
	composer  *Composer
	logger    *logger.Logger

	mu          sync.Mutex
	draft       model.GenerationRequest
	preset      *model.Preset
	current     *model.HistoryRecord
	editMode    bool
	attachments []model.Attachment
	history     *history.Store
}

func newSession(id string, composer *Composer, historyLimit int, defaultModel string, log *logger.Logger) *Session {
	return &Session{
		id:        id,
		createdAt: time.Now().UTC(),
		composer:  composer,
		logger:    log.With(zap.String("session_id", id)),
		draft:     model.GenerationRequest{Model: defaultModel}.WithDefaults(),
		history:   history.NewStore(historyLimit),
	}
}

// ID returns the session identifier.
func (s *Session) ID() string {
	return s.id
}

// Snapshot returns the current state.
func (s *Session) Snapshot() Snapshot {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.snapshot()
}

func (s *Session) snapshot() Snapshot {
	attachments := make([]AttachmentInfo, len(s.attachments))
	for i, a := range s.attachments {
		attachments[i] = AttachmentInfo{Filename: a.Filename, Size: a.Size}
	}

	snap := Snapshot{
		ID:          s.id,
		CreatedAt:   s.createdAt,
		Draft:       s.draft,
		EditMode:    s.editMode,
		Attachments: attachments,
		History:     s.history.NewestFirst(),
		Favorites:   s.history.FavoritesNewestFirst(),
		HistorySize: s.history.Len(),
		Ready:       s.composer.Ready(),
	}
	if s.preset != nil {
		p := *s.preset
		snap.Preset = &p
	}
	if cur := s.currentRecord(); cur != nil {
		snap.Current = cur
	}
	return snap
}

// currentRecord returns the current record, refreshed from history when it
// is still stored there.
func (s *Session) currentRecord() *model.HistoryRecord {
	if s.current == nil {
		return nil
	}
	if rec, err := s.history.Get(s.current.ID); err == nil {
		s.current = &rec
	}
	c := *s.current
	return &c
}

// ApplyPreset sets the draft's tone, purpose and body template from the
// named preset in one step.
func (s *Session) ApplyPreset(name string) (Snapshot, error) {
	p, err := model.LookupPreset(name)
	if err != nil {
		return Snapshot{}, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	s.preset = &p
	s.draft.Tone = p.Tone
	s.draft.Purpose = p.Purpose
	s.draft.BodyTemplate = p.BodyTemplate
	s.draft.PresetName = p.Name

	s.logger.Debug("preset applied", zap.String("preset", p.Name))
	return s.snapshot(), nil
}

// ClearPreset deselects the preset and removes its body template from the
// draft. Tone and purpose keep their values.
func (s *Session) ClearPreset() Snapshot {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.preset = nil
	s.draft.BodyTemplate = ""
	s.draft.PresetName = ""
	return s.snapshot()
}

// SelectModel changes the model used by later generations.
func (s *Session) SelectModel(name string) (Snapshot, error) {
	if err := s.composer.CheckModel(name); err != nil {
		return Snapshot{}, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	s.draft.Model = name
	return s.snapshot(), nil
}

// SetAttachments replaces the pending attachment list. Files failing the
// size or type check are dropped with a warning.
func (s *Session) SetAttachments(attachments []model.Attachment) (Snapshot, []string) {
	accepted, warnings := s.composer.Extractor().Screen(attachments)

	s.mu.Lock()
	defer s.mu.Unlock()

	s.attachments = accepted
	return s.snapshot(), warnings
}

// ClearAttachments empties the pending attachment list.
func (s *Session) ClearAttachments() Snapshot {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.attachments = nil
	return s.snapshot()
}

// Generate runs one generation. Empty request fields are filled from the
// session draft, and the pending attachments are used when the request has
// none. On success the result is appended to history and becomes current.
// On failure session state is unchanged.
func (s *Session) Generate(ctx context.Context, req model.GenerationRequest) (*GenerateResult, error) {
	req, err := s.complete(req)
	if err != nil {
		return nil, err
	}

	comp, err := s.composer.Compose(ctx, &req)
	if err != nil {
		s.failed(ctx, &req, err)
		return nil, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	rec := s.history.Append(model.HistoryRecord{
		Content:  comp.Result.Text,
		Metadata: model.MetadataFor(&req),
	})
	s.current = &rec
	s.editMode = false

	s.logger.Info("email generated",
		zap.String("record_id", rec.ID),
		zap.String("model", req.Model),
		zap.Int("attempts", comp.Result.Attempts),
		zap.Int("attachments", len(req.Attachments)),
		zap.Int("warnings", len(comp.Warnings)),
	)

	s.composer.publish(ctx, &model.GenerationEvent{
		SessionID: s.id,
		Type:      model.EventTypeCompleted,
		RecordID:  rec.ID,
		Model:     req.Model,
		Tone:      req.Tone,
		Attempts:  comp.Result.Attempts,
		TokensIn:  comp.Result.TokensIn,
		TokensOut: comp.Result.TokensOut,
		LatencyMs: comp.Result.Duration.Milliseconds(),
	})

	return &GenerateResult{
		Snapshot: s.snapshot(),
		Record:   rec,
		Warnings: comp.Warnings,
		Attempts: comp.Result.Attempts,
	}, nil
}

// failed publishes a failure event for errors raised by the model call.
// Precondition failures are not published.
func (s *Session) failed(ctx context.Context, req *model.GenerationRequest, err error) {
	if !llm.IsTerminal(err) {
		return
	}

	var terminal *llm.TerminalError
	errors.As(err, &terminal)

	s.composer.publish(ctx, &model.GenerationEvent{
		SessionID: s.id,
		Type:      model.EventTypeFailed,
		Model:     req.Model,
		Tone:      req.Tone,
		Attempts:  terminal.Attempts,
		Reason:    terminal.Err.Error(),
	})
}

// Preview renders the prompt for req without calling the model.
func (s *Session) Preview(req model.GenerationRequest) (string, []string, error) {
	req, err := s.complete(req)
	if err != nil {
		return "", nil, err
	}
	return s.composer.Prepare(&req)
}

// complete fills req from the session draft, pending attachments and the
// named preset's template, then applies defaults.
func (s *Session) complete(req model.GenerationRequest) (model.GenerationRequest, error) {
	s.mu.Lock()
	req = mergeDraft(req, s.draft)
	if len(req.Attachments) == 0 {
		req.Attachments = append([]model.Attachment(nil), s.attachments...)
	}
	s.mu.Unlock()

	if req.PresetName != "" && req.BodyTemplate == "" {
		p, err := model.LookupPreset(req.PresetName)
		if err != nil {
			return req, err
		}
		req.BodyTemplate = p.BodyTemplate
	}
	return req.WithDefaults(), nil
}

// StartEdit enters edit mode for the current email.
func (s *Session) StartEdit() (Snapshot, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.current == nil {
		return Snapshot{}, ErrNoCurrentEmail
	}
	s.editMode = true
	return s.snapshot(), nil
}

// CancelEdit leaves edit mode without changing content.
func (s *Session) CancelEdit() Snapshot {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.editMode = false
	return s.snapshot()
}

// SaveEdit overwrites the current email's content, in history as well when
// the record is still stored, and leaves edit mode.
func (s *Session) SaveEdit(content string) (Snapshot, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.current == nil {
		return Snapshot{}, ErrNoCurrentEmail
	}

	if rec, err := s.history.UpdateContent(s.current.ID, content); err == nil {
		s.current = &rec
	} else {
		s.current.Content = content
	}
	s.editMode = false
	return s.snapshot(), nil
}

// ToggleCurrentFavorite flips the favorite flag of the current email,
// located by record ID.
func (s *Session) ToggleCurrentFavorite() (Snapshot, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.current == nil {
		return Snapshot{}, ErrNoCurrentEmail
	}
	rec, err := s.history.ToggleFavoriteByID(s.current.ID)
	if err != nil {
		return Snapshot{}, err
	}
	s.current = &rec
	return s.snapshot(), nil
}

// Reload makes a historical record the current email.
func (s *Session) Reload(recordID string) (Snapshot, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	rec, err := s.history.Get(recordID)
	if err != nil {
		return Snapshot{}, err
	}
	s.current = &rec
	s.editMode = false
	return s.snapshot(), nil
}

// ToggleFavorite flips the favorite flag of the record at index, counted
// in insertion order.
func (s *Session) ToggleFavorite(index int) (Snapshot, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, err := s.history.ToggleFavorite(index); err != nil {
		return Snapshot{}, err
	}
	return s.snapshot(), nil
}

// DeleteRecord removes the record at index, counted in insertion order.
// The current email stays visible if it was the deleted record.
func (s *Session) DeleteRecord(index int) (Snapshot, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, err := s.history.Delete(index); err != nil {
		return Snapshot{}, err
	}
	return s.snapshot(), nil
}

// ClearHistory empties history and favorites.
func (s *Session) ClearHistory() Snapshot {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.history.Clear()
	return s.snapshot()
}

// History returns the records newest first.
func (s *Session) History() []model.HistoryRecord {
	return s.history.NewestFirst()
}

// Favorites returns the favorite records newest first.
func (s *Session) Favorites() []model.HistoryRecord {
	return s.history.FavoritesNewestFirst()
}

// HistoryStore exposes the session's store for index-based reads.
func (s *Session) HistoryStore() *history.Store {
	return s.history
}

// ExportText exports a record, or the current email when recordID is
// empty, as UTF-8 text.
func (s *Session) ExportText(recordID string) (*Artifact, error) {
	return s.Export(recordID, "txt")
}

// ExportPDF exports a record, or the current email when recordID is empty,
// as a PDF document.
func (s *Session) ExportPDF(recordID string) (*Artifact, error) {
	return s.Export(recordID, "pdf")
}

// Export renders a record as plain text ("txt") or PDF ("pdf"). An empty
// recordID exports the current email.
func (s *Session) Export(recordID, format string) (*Artifact, error) {
	rec, err := s.exportTarget(recordID)
	if err != nil {
		return nil, err
	}

	switch format {
	case "txt":
		return &Artifact{
			Filename:    export.Filename(rec.Metadata.RecipientName, "txt"),
			ContentType: export.ContentTypeText,
			Data:        export.ToPlainText(rec.Content),
		}, nil
	case "pdf":
		data, err := export.ToPDF(rec.Content, documentTitle(rec))
		if err != nil {
			s.logger.Error("PDF export failed", zap.String("record_id", rec.ID), zap.Error(err))
			return nil, err
		}
		return &Artifact{
			Filename:    export.Filename(rec.Metadata.RecipientName, "pdf"),
			ContentType: export.ContentTypePDF,
			Data:        data,
		}, nil
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownFormat, format)
	}
}

func (s *Session) exportTarget(recordID string) (model.HistoryRecord, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if recordID == "" {
		cur := s.currentRecord()
		if cur == nil {
			return model.HistoryRecord{}, ErrNoCurrentEmail
		}
		return *cur, nil
	}
	return s.history.Get(recordID)
}

func documentTitle(rec model.HistoryRecord) string {
	if rec.Metadata.RecipientName != "" {
		return "Email to " + rec.Metadata.RecipientName
	}
	return "Generated Email"
}

// mergeDraft fills empty request fields from the session draft.
func mergeDraft(req, draft model.GenerationRequest) model.GenerationRequest {
	fill := func(dst *string, src string) {
		if *dst == "" {
			*dst = src
		}
	}

	if req.Tone == "" {
		req.Tone = draft.Tone
	}
	if req.Length == "" {
		req.Length = draft.Length
	}
	if req.Style == "" {
		req.Style = draft.Style
	}
	if req.Language == "" {
		req.Language = draft.Language
	}
	fill(&req.SenderName, draft.SenderName)
	fill(&req.SenderRole, draft.SenderRole)
	fill(&req.RecipientName, draft.RecipientName)
	fill(&req.RecipientRole, draft.RecipientRole)
	fill(&req.Purpose, draft.Purpose)
	fill(&req.Background, draft.Background)
	fill(&req.SpecialInstructions, draft.SpecialInstructions)
	fill(&req.Model, draft.Model)
	if req.PresetName == "" {
		req.PresetName = draft.PresetName
		req.BodyTemplate = draft.BodyTemplate
	}
	return req
}
