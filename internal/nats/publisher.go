package nats

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/capitalize-ai/email-composer/internal/model"
)

// SubjectPrefix is the prefix for all generation event subjects.
const SubjectPrefix = "emailgen"

// EventSubject returns the subject for a session's generation event.
func EventSubject(sessionID string, eventType model.EventType) string {
	return fmt.Sprintf("%s.%s.generation.%s", SubjectPrefix, sessionID, eventType)
}

// EventPublisher publishes generation events with core NATS. Events are
// notifications only; nothing is retained by the server.
type EventPublisher struct {
	client *Client
}

// NewEventPublisher creates a publisher on an established connection.
func NewEventPublisher(client *Client) *EventPublisher {
	return &EventPublisher{client: client}
}

// Publish sends event on its session subject.
func (p *EventPublisher) Publish(ctx context.Context, event *model.GenerationEvent) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	data, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("failed to marshal event: %w", err)
	}

	if err := p.client.Conn().Publish(EventSubject(event.SessionID, event.Type), data); err != nil {
		return fmt.Errorf("failed to publish event: %w", err)
	}
	return nil
}
