package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestLoad_Defaults(t *testing.T) {
	for _, key := range []string{"PORT", "LLM_PROVIDER", "OPENAI_API_KEY", "LLM_TEMPERATURE", "HISTORY_LIMIT", "NATS_URL", "CORS_ALLOWED_ORIGINS"} {
		t.Setenv(key, "")
	}

	cfg := Load()

	assert.Equal(t, "8080", cfg.ServerPort)
	assert.Equal(t, "openai", cfg.LLMProvider)
	assert.Equal(t, 0.7, cfg.Temperature)
	assert.Equal(t, 1500, cfg.MaxTokens)
	assert.Equal(t, 3, cfg.MaxAttempts)
	assert.Equal(t, time.Second, cfg.BackoffUnit)
	assert.Equal(t, int64(5*1024*1024), cfg.MaxAttachmentBytes)
	assert.Equal(t, 3000, cfg.AttachmentBudget)
	assert.Equal(t, 20, cfg.HistoryLimit)
	assert.Empty(t, cfg.NATSURL)
	assert.Nil(t, cfg.AllowedOrigins)
}

func TestLoad_Overrides(t *testing.T) {
	t.Setenv("LLM_PROVIDER", "anthropic")
	t.Setenv("ANTHROPIC_API_KEY", "sk-ant")
	t.Setenv("OPENAI_API_KEY", "sk-openai")
	t.Setenv("LLM_BACKOFF_UNIT", "250ms")
	t.Setenv("HISTORY_LIMIT", "5")
	t.Setenv("TRACING_ENABLED", "true")
	t.Setenv("CORS_ALLOWED_ORIGINS", "https://a.example, https://b.example")

	cfg := Load()

	assert.Equal(t, "sk-ant", cfg.APIKey())
	assert.Equal(t, 250*time.Millisecond, cfg.BackoffUnit)
	assert.Equal(t, 5, cfg.HistoryLimit)
	assert.True(t, cfg.TracingEnabled)
	assert.Equal(t, []string{"https://a.example", "https://b.example"}, cfg.AllowedOrigins)
}

func TestLoad_InvalidValuesFallBack(t *testing.T) {
	t.Setenv("LLM_MAX_TOKENS", "lots")
	t.Setenv("LLM_REQUEST_TIMEOUT", "soon")

	cfg := Load()

	assert.Equal(t, 1500, cfg.MaxTokens)
	assert.Equal(t, 60*time.Second, cfg.RequestTimeout)
}

func TestLoad_ProviderIsCaseInsensitive(t *testing.T) {
	t.Setenv("LLM_PROVIDER", " Anthropic ")
	t.Setenv("ANTHROPIC_API_KEY", "sk-ant-xyz")
	t.Setenv("ANTHROPIC_BASE_URL", "http://anthropic.local/")
	t.Setenv("OPENAI_API_KEY", "sk-openai")
	t.Setenv("OPENAI_BASE_URL", "http://openai.local/v1")

	cfg := Load()

	assert.Equal(t, "anthropic", cfg.LLMProvider)
	assert.Equal(t, "sk-ant-xyz", cfg.APIKey())
	assert.Equal(t, "http://anthropic.local/", cfg.BaseURL())
}

func TestAPIKey_MixedCaseProvider(t *testing.T) {
	cfg := &Config{LLMProvider: "ANTHROPIC", AnthropicAPIKey: "sk-ant", OpenAIAPIKey: "sk-openai"}

	assert.Equal(t, "sk-ant", cfg.APIKey())
}

func TestLoad_UploadLimitDefault(t *testing.T) {
	t.Setenv("MAX_UPLOAD_BYTES", "")

	cfg := Load()

	assert.Equal(t, int64(64*1024*1024), cfg.MaxUploadBytes)
	assert.Greater(t, cfg.MaxUploadBytes, cfg.MaxAttachmentBytes)
}
