package nats

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/capitalize-ai/email-composer/internal/model"
)

func TestEventSubject(t *testing.T) {
	assert.Equal(t, "emailgen.abc.generation.completed", EventSubject("abc", model.EventTypeCompleted))
	assert.Equal(t, "emailgen.abc.generation.failed", EventSubject("abc", model.EventTypeFailed))
}
