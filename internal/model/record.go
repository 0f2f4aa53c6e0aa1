package model

import "time"

// PurposeSnippetLength is the number of purpose characters kept in history metadata.
const PurposeSnippetLength = 50

// RecordMetadata is fixed when a history record is created.
type RecordMetadata struct {
	Tone          Tone   `json:"tone"`
	RecipientName string `json:"recipient_name"`
	Purpose       string `json:"purpose"`
	PresetName    string `json:"preset_name,omitempty"`
	Model         string `json:"model,omitempty"`
}

// HistoryRecord is one past generation result.
type HistoryRecord struct {
	ID        string         `json:"id"`
	Content   string         `json:"content"`
	CreatedAt time.Time      `json:"created_at"`
	Favorite  bool           `json:"favorite"`
	Metadata  RecordMetadata `json:"metadata"`
}

// MetadataFor derives record metadata from the request that produced it.
func MetadataFor(req *GenerationRequest) RecordMetadata {
	return RecordMetadata{
		Tone:          req.Tone,
		RecipientName: req.RecipientName,
		Purpose:       Snippet(req.Purpose, PurposeSnippetLength),
		PresetName:    req.PresetName,
		Model:         req.Model,
	}
}

// Snippet returns the first n characters of s.
func Snippet(s string, n int) string {
	runes := []rune(s)
	if len(runes) <= n {
		return s
	}
	return string(runes[:n])
}
