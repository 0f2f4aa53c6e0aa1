package llm_test

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/capitalize-ai/email-composer/internal/llm"
	"github.com/capitalize-ai/email-composer/internal/llm/llmtest"
	"github.com/capitalize-ai/email-composer/pkg/logger"
)

type recordingSleeper struct {
	mu     sync.Mutex
	delays []time.Duration
}

func (s *recordingSleeper) Sleep(ctx context.Context, d time.Duration) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.delays = append(s.delays, d)
	return ctx.Err()
}

func newGenerator(client llm.Client, sleeper *recordingSleeper) *llm.Generator {
	cfg := llm.DefaultGeneratorConfig()
	cfg.Retry.BackoffUnit = 10 * time.Millisecond
	return llm.NewGenerator(client, cfg, logger.NewNop(), llm.WithSleeper(sleeper.Sleep))
}

func TestGenerate_FailsTwiceThenSucceeds(t *testing.T) {
	client := &llmtest.Client{Steps: []llmtest.Step{
		{Err: errors.New("connection reset")},
		{Err: llm.NewTransientError(errors.New("503 service unavailable"))},
		{Content: "  Subject: Meeting\n\nDear Team,\n...  \n"},
	}}
	sleeper := &recordingSleeper{}

	res, err := newGenerator(client, sleeper).Generate(context.Background(), "prompt", "gpt-4o-mini")

	require.NoError(t, err)
	assert.Equal(t, "Subject: Meeting\n\nDear Team,\n...", res.Text)
	assert.Equal(t, 3, res.Attempts)
	assert.Equal(t, 3, client.Calls())
	assert.Equal(t, []time.Duration{10 * time.Millisecond, 20 * time.Millisecond}, sleeper.delays)
}

func TestGenerate_SendsFixedDecodingParameters(t *testing.T) {
	client := llmtest.Reply("ok")

	_, err := newGenerator(client, &recordingSleeper{}).Generate(context.Background(), "the prompt", "gpt-4o")
	require.NoError(t, err)

	reqs := client.Requests()
	require.Len(t, reqs, 1)
	assert.Equal(t, "gpt-4o", reqs[0].Model)
	assert.Equal(t, 0.7, reqs[0].Temperature)
	assert.Equal(t, 1500, reqs[0].MaxTokens)
	require.Len(t, reqs[0].Messages, 1)
	assert.Equal(t, llm.RoleUser, reqs[0].Messages[0].Role)
	assert.Equal(t, "the prompt", reqs[0].Messages[0].Content)
}

func TestGenerate_ExhaustsRetries(t *testing.T) {
	client := &llmtest.Client{Steps: []llmtest.Step{{Err: errors.New("timeout")}}}
	sleeper := &recordingSleeper{}

	res, err := newGenerator(client, sleeper).Generate(context.Background(), "prompt", "gpt-4o-mini")

	assert.Nil(t, res)
	var terminal *llm.TerminalError
	require.ErrorAs(t, err, &terminal)
	assert.Equal(t, 3, terminal.Attempts)
	assert.EqualError(t, terminal.Err, "timeout")
	assert.Equal(t, 3, client.Calls())
	assert.Len(t, sleeper.delays, 2)
}

func TestGenerate_FatalErrorStopsImmediately(t *testing.T) {
	client := &llmtest.Client{Steps: []llmtest.Step{
		{Err: llm.NewFatalError(errors.New("401 invalid api key"))},
		{Content: "never reached"},
	}}
	sleeper := &recordingSleeper{}

	_, err := newGenerator(client, sleeper).Generate(context.Background(), "prompt", "gpt-4o-mini")

	require.True(t, llm.IsTerminal(err))
	assert.True(t, llm.IsFatal(err))
	assert.Equal(t, 1, client.Calls())
	assert.Empty(t, sleeper.delays)
}

func TestGenerate_MissingCredential(t *testing.T) {
	gen := llm.NewGenerator(nil, llm.DefaultGeneratorConfig(), logger.NewNop())

	assert.False(t, gen.Ready())
	_, err := gen.Generate(context.Background(), "prompt", "gpt-4o-mini")
	assert.ErrorIs(t, err, llm.ErrMissingCredential)
	assert.False(t, llm.IsTerminal(err))
}

func TestGenerate_CancelledDuringBackoff(t *testing.T) {
	client := &llmtest.Client{Steps: []llmtest.Step{{Err: errors.New("boom")}}}
	ctx, cancel := context.WithCancel(context.Background())

	cfg := llm.DefaultGeneratorConfig()
	gen := llm.NewGenerator(client, cfg, logger.NewNop(), llm.WithSleeper(func(ctx context.Context, d time.Duration) error {
		cancel()
		return ctx.Err()
	}))

	_, err := gen.Generate(ctx, "prompt", "gpt-4o-mini")

	var terminal *llm.TerminalError
	require.ErrorAs(t, err, &terminal)
	assert.Equal(t, 1, terminal.Attempts)
	assert.ErrorIs(t, err, context.Canceled)
	assert.Equal(t, 1, client.Calls())
}

func TestBackoff_Linear(t *testing.T) {
	cfg := llm.DefaultGeneratorConfig()
	gen := llm.NewGenerator(llmtest.Reply("x"), cfg, logger.NewNop())

	assert.Equal(t, time.Second, gen.Backoff(1))
	assert.Equal(t, 2*time.Second, gen.Backoff(2))
}
