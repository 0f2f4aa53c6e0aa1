package model

import (
	"time"
)

// EventType represents the type of generation event.
type EventType string

const (
	EventTypeCompleted EventType = "completed"
	EventTypeFailed    EventType = "failed"
)

// GenerationEvent is published after every generation attempt cycle.
type GenerationEvent struct {
	ID        string    `json:"id"`
	SessionID string    `json:"session_id"`
	Type      EventType `json:"type"`
	RecordID  string    `json:"record_id,omitempty"`
	Model     string    `json:"model"`
	Tone      Tone      `json:"tone"`
	Attempts  int       `json:"attempts,omitempty"`
	TokensIn  int       `json:"tokens_in,omitempty"`
	TokensOut int       `json:"tokens_out,omitempty"`
	LatencyMs int64     `json:"latency_ms,omitempty"`
	Reason    string    `json:"reason,omitempty"`
	CreatedAt time.Time `json:"created_at"`
}
