// Package service holds session state and the generation pipeline.
package service

import (
	"context"
	"errors"
	"fmt"
	"slices"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/capitalize-ai/email-composer/internal/extract"
	"github.com/capitalize-ai/email-composer/internal/llm"
	"github.com/capitalize-ai/email-composer/internal/model"
	"github.com/capitalize-ai/email-composer/internal/prompt"
	"github.com/capitalize-ai/email-composer/pkg/logger"
)

var (
	// ErrUnsupportedModel is returned when the selected model is not offered.
	ErrUnsupportedModel = errors.New("unsupported model")
	// ErrNoCurrentEmail is returned by commands that need a current email.
	ErrNoCurrentEmail = errors.New("no email has been generated yet")
	// ErrUnknownFormat is returned by Export for formats other than txt and pdf.
	ErrUnknownFormat = errors.New("unknown export format")
)

// EventPublisher receives generation events.
type EventPublisher interface {
	Publish(ctx context.Context, event *model.GenerationEvent) error
}

// Composer runs the stateless part of a generation: screening and
// extracting attachments, building the prompt and calling the model.
type Composer struct {
	extractor *extract.Extractor
	builder   *prompt.Builder
	generator *llm.Generator
	events    EventPublisher
	logger    *logger.Logger
}

// NewComposer wires the pipeline. events may be nil.
func NewComposer(
	extractor *extract.Extractor,
	builder *prompt.Builder,
	generator *llm.Generator,
	events EventPublisher,
	log *logger.Logger,
) *Composer {
	return &Composer{
		extractor: extractor,
		builder:   builder,
		generator: generator,
		events:    events,
		logger:    log,
	}
}

// Composition is the output of one successful pipeline run.
type Composition struct {
	Prompt   string
	Result   *llm.Result
	Warnings []string
}

// Ready reports whether a model credential is configured.
func (c *Composer) Ready() bool {
	return c.generator.Ready()
}

// Extractor returns the attachment extractor.
func (c *Composer) Extractor() *extract.Extractor {
	return c.extractor
}

// Models returns the models offered by the configured provider, or the
// default OpenAI list when no provider is configured.
func (c *Composer) Models() []string {
	if client := c.generator.Client(); client != nil {
		return client.Models()
	}
	return model.Models()
}

// DefaultModel picks the model a new session starts with.
func (c *Composer) DefaultModel(preferred string) string {
	models := c.Models()
	for _, m := range []string{preferred, model.DefaultModel} {
		for _, candidate := range models {
			if m != "" && candidate == m {
				return m
			}
		}
	}
	if len(models) > 0 {
		return models[0]
	}
	return model.DefaultModel
}

// CheckModel returns ErrUnsupportedModel when name is not offered.
func (c *Composer) CheckModel(name string) error {
	if client := c.generator.Client(); client != nil {
		if llm.SupportsModel(client, name) {
			return nil
		}
	} else if slices.Contains(model.Models(), name) {
		return nil
	}
	return fmt.Errorf("%w: %q", ErrUnsupportedModel, name)
}

// Prepare validates req and renders its prompt without calling the model.
// It returns the prompt and per-file warnings.
func (c *Composer) Prepare(req *model.GenerationRequest) (string, []string, error) {
	if err := req.Validate(); err != nil {
		return "", nil, err
	}
	promptText, warnings := c.render(req)
	return promptText, warnings, nil
}

// render screens and extracts attachments, then builds the prompt.
func (c *Composer) render(req *model.GenerationRequest) (string, []string) {
	accepted, warnings := c.extractor.Screen(req.Attachments)
	results := c.extractor.ExtractAll(accepted)
	for _, r := range results {
		if r.Err != nil {
			warnings = append(warnings, r.Text)
		}
	}

	return c.builder.Build(req, results), warnings
}

// Compose runs the full pipeline for req. Preconditions (validation,
// credential, model) are checked before attachments are read.
func (c *Composer) Compose(ctx context.Context, req *model.GenerationRequest) (*Composition, error) {
	if err := req.Validate(); err != nil {
		return nil, err
	}
	if !c.generator.Ready() {
		return nil, llm.ErrMissingCredential
	}
	if err := c.CheckModel(req.Model); err != nil {
		return nil, err
	}

	promptText, warnings := c.render(req)

	result, err := c.generator.Generate(ctx, promptText, req.Model)
	if err != nil {
		return nil, err
	}

	return &Composition{
		Prompt:   promptText,
		Result:   result,
		Warnings: warnings,
	}, nil
}

func (c *Composer) publish(ctx context.Context, event *model.GenerationEvent) {
	if c.events == nil {
		return
	}

	event.ID = uuid.Must(uuid.NewV7()).String()
	event.CreatedAt = time.Now().UTC()

	if err := c.events.Publish(ctx, event); err != nil {
		c.logger.Warn("failed to publish generation event",
			zap.String("session_id", event.SessionID),
			zap.String("type", string(event.Type)),
			zap.Error(err),
		)
	}
}
