package llm

import (
	"context"
	"errors"
	"strings"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"

	"github.com/capitalize-ai/email-composer/pkg/logger"
	"github.com/capitalize-ai/email-composer/pkg/metrics"
)

// Default decoding and retry settings.
const (
	DefaultTemperature    = 0.7
	DefaultMaxTokens      = 1500
	DefaultMaxAttempts    = 3
	DefaultBackoffUnit    = time.Second
	DefaultRequestTimeout = 60 * time.Second
)

// RetryConfig holds retry configuration for generation requests.
type RetryConfig struct {
	// MaxAttempts is the total number of provider calls, first one included.
	MaxAttempts int

	// BackoffUnit is multiplied by the attempt number to get the delay
	// before the next attempt.
	BackoffUnit time.Duration
}

// GeneratorConfig holds decoding parameters and retry policy.
type GeneratorConfig struct {
	Temperature    float64
	MaxTokens      int
	Retry          RetryConfig
	RequestTimeout time.Duration
}

// DefaultGeneratorConfig returns the canonical generation settings.
func DefaultGeneratorConfig() GeneratorConfig {
	return GeneratorConfig{
		Temperature: DefaultTemperature,
		MaxTokens:   DefaultMaxTokens,
		Retry: RetryConfig{
			MaxAttempts: DefaultMaxAttempts,
			BackoffUnit: DefaultBackoffUnit,
		},
		RequestTimeout: DefaultRequestTimeout,
	}
}

// Sleeper waits for d or until ctx is done.
type Sleeper func(ctx context.Context, d time.Duration) error

func sleepContext(ctx context.Context, d time.Duration) error {
	timer := time.NewTimer(d)
	defer timer.Stop()

	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}

// GeneratorOption configures a Generator.
type GeneratorOption func(*Generator)

// WithSleeper replaces the backoff wait.
func WithSleeper(s Sleeper) GeneratorOption {
	return func(g *Generator) {
		g.sleep = s
	}
}

// Result is a successful generation.
type Result struct {
	Text      string
	Model     string
	TokensIn  int
	TokensOut int
	Attempts  int
	Duration  time.Duration
}

// Generator sends prompts to a Client with a fixed temperature and token
// budget, retrying transient failures with linear backoff.
type Generator struct {
	client Client
	cfg    GeneratorConfig
	logger *logger.Logger
	sleep  Sleeper
	tracer trace.Tracer
}

// NewGenerator creates a generator. client may be nil when no credential is
// configured; Generate then fails with ErrMissingCredential.
func NewGenerator(client Client, cfg GeneratorConfig, log *logger.Logger, opts ...GeneratorOption) *Generator {
	if cfg.Retry.MaxAttempts <= 0 {
		cfg.Retry.MaxAttempts = DefaultMaxAttempts
	}
	if cfg.MaxTokens <= 0 {
		cfg.MaxTokens = DefaultMaxTokens
	}

	g := &Generator{
		client: client,
		cfg:    cfg,
		logger: log,
		sleep:  sleepContext,
		tracer: otel.Tracer("github.com/capitalize-ai/email-composer/internal/llm"),
	}
	for _, opt := range opts {
		opt(g)
	}
	return g
}

// Ready reports whether a provider client is configured.
func (g *Generator) Ready() bool {
	return g.client != nil
}

// Client returns the configured provider client, or nil.
func (g *Generator) Client() Client {
	return g.client
}

// Backoff returns the delay after the given failed attempt (1-based).
func (g *Generator) Backoff(attempt int) time.Duration {
	return time.Duration(attempt) * g.cfg.Retry.BackoffUnit
}

// Generate sends prompt to model and returns the trimmed completion text.
// Missing credentials fail with ErrMissingCredential before any call.
// Exhausted retries or a fatal provider error yield a *TerminalError.
func (g *Generator) Generate(ctx context.Context, prompt, model string) (*Result, error) {
	if g.client == nil {
		return nil, ErrMissingCredential
	}

	ctx, span := g.tracer.Start(ctx, "llm.Generate", trace.WithAttributes(
		attribute.String("llm.provider", g.client.Name()),
		attribute.String("llm.model", model),
	))
	defer span.End()

	start := time.Now()
	req := &CompletionRequest{
		Model:       model,
		Messages:    []ChatMessage{{Role: RoleUser, Content: prompt}},
		MaxTokens:   g.cfg.MaxTokens,
		Temperature: g.cfg.Temperature,
	}

	var lastErr error
	attempt := 0
	for attempt < g.cfg.Retry.MaxAttempts {
		attempt++

		resp, err := g.attempt(ctx, req, attempt)
		if err == nil {
			text := strings.TrimSpace(resp.Content)
			elapsed := time.Since(start)

			metrics.RecordGeneration(model, "success", elapsed.Seconds(), resp.TokensIn, resp.TokensOut)
			span.SetAttributes(attribute.Int("llm.attempts", attempt))

			return &Result{
				Text:      text,
				Model:     resp.Model,
				TokensIn:  resp.TokensIn,
				TokensOut: resp.TokensOut,
				Attempts:  attempt,
				Duration:  elapsed,
			}, nil
		}
		lastErr = err

		if IsFatal(err) || ctx.Err() != nil {
			break
		}

		if attempt < g.cfg.Retry.MaxAttempts {
			backoff := g.Backoff(attempt)
			g.logger.Warn("generation attempt failed, retrying",
				zap.Int("attempt", attempt),
				zap.Int("max_attempts", g.cfg.Retry.MaxAttempts),
				zap.Duration("backoff", backoff),
				zap.String("model", model),
				zap.Error(err),
			)
			if err := g.sleep(ctx, backoff); err != nil {
				lastErr = err
				break
			}
		}
	}

	metrics.RecordGeneration(model, "failure", time.Since(start).Seconds(), 0, 0)
	span.RecordError(lastErr)
	span.SetStatus(codes.Error, "generation failed")

	g.logger.Error("generation failed",
		zap.Int("attempts", attempt),
		zap.String("model", model),
		zap.Error(lastErr),
	)

	return nil, &TerminalError{Attempts: attempt, Err: lastErr}
}

func (g *Generator) attempt(ctx context.Context, req *CompletionRequest, n int) (*CompletionResponse, error) {
	ctx, span := g.tracer.Start(ctx, "llm.Complete", trace.WithAttributes(attribute.Int("llm.attempt", n)))
	defer span.End()

	if g.cfg.RequestTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, g.cfg.RequestTimeout)
		defer cancel()
	}

	resp, err := g.client.Complete(ctx, req)
	if err != nil {
		if errors.Is(err, context.DeadlineExceeded) && !IsTransient(err) {
			err = NewTransientError(err)
		}
		outcome := "transient_error"
		if IsFatal(err) {
			outcome = "fatal_error"
		}
		metrics.RecordAttempt(req.Model, outcome)
		span.RecordError(err)
		span.SetStatus(codes.Error, outcome)
		return nil, err
	}

	metrics.RecordAttempt(req.Model, "success")
	return resp, nil
}
