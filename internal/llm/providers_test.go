package llm_test

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/capitalize-ai/email-composer/internal/llm"
	"github.com/capitalize-ai/email-composer/internal/model"
)

// providerServer answers every request with status and body, recording the
// decoded JSON request bodies.
type providerServer struct {
	*httptest.Server

	mu     sync.Mutex
	bodies []map[string]any
}

func newProviderServer(t *testing.T, path string, status int, body string) *providerServer {
	t.Helper()

	ps := &providerServer{}
	ps.Server = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, path, r.URL.Path)

		var decoded map[string]any
		assert.NoError(t, json.NewDecoder(r.Body).Decode(&decoded))

		ps.mu.Lock()
		ps.bodies = append(ps.bodies, decoded)
		ps.mu.Unlock()

		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(status)
		io.WriteString(w, body)
	}))
	t.Cleanup(ps.Close)
	return ps
}

func (ps *providerServer) requests() []map[string]any {
	ps.mu.Lock()
	defer ps.mu.Unlock()
	return append([]map[string]any(nil), ps.bodies...)
}

func completionRequest(modelName string) *llm.CompletionRequest {
	return &llm.CompletionRequest{
		Model:       modelName,
		Messages:    []llm.ChatMessage{{Role: llm.RoleUser, Content: "Write an email"}},
		MaxTokens:   1500,
		Temperature: 0.7,
	}
}

const openAIReply = `{
	"id": "chatcmpl-1",
	"object": "chat.completion",
	"model": "gpt-4o-mini",
	"choices": [{"index": 0, "message": {"role": "assistant", "content": "Subject: Hello"}, "finish_reason": "stop"}],
	"usage": {"prompt_tokens": 12, "completion_tokens": 4, "total_tokens": 16}
}`

func TestOpenAIClient_Complete(t *testing.T) {
	srv := newProviderServer(t, "/v1/chat/completions", http.StatusOK, openAIReply)
	client, err := llm.NewOpenAIClient("sk-test", srv.URL+"/v1")
	require.NoError(t, err)

	resp, err := client.Complete(context.Background(), completionRequest(model.ModelGPT4oMini))
	require.NoError(t, err)

	assert.Equal(t, "Subject: Hello", resp.Content)
	assert.Equal(t, 12, resp.TokensIn)
	assert.Equal(t, 4, resp.TokensOut)
	assert.Equal(t, "stop", resp.StopReason)

	reqs := srv.requests()
	require.Len(t, reqs, 1)
	assert.Equal(t, "gpt-4o-mini", reqs[0]["model"])
	assert.EqualValues(t, 1500, reqs[0]["max_tokens"])
	assert.InDelta(t, 0.7, reqs[0]["temperature"], 1e-6)
	assert.NotContains(t, reqs[0], "max_completion_tokens")
}

func TestOpenAIClient_ReasoningModelUsesCompletionTokens(t *testing.T) {
	srv := newProviderServer(t, "/v1/chat/completions", http.StatusOK, openAIReply)
	client, err := llm.NewOpenAIClient("sk-test", srv.URL+"/v1")
	require.NoError(t, err)

	_, err = client.Complete(context.Background(), completionRequest(model.ModelO3Mini))
	require.NoError(t, err)

	reqs := srv.requests()
	require.Len(t, reqs, 1)
	assert.EqualValues(t, 1500, reqs[0]["max_completion_tokens"])
	assert.NotContains(t, reqs[0], "max_tokens")
	assert.NotContains(t, reqs[0], "temperature")
}

func TestOpenAIClient_ErrorClassification(t *testing.T) {
	tests := []struct {
		name      string
		status    int
		transient bool
	}{
		{"rate limited", http.StatusTooManyRequests, true},
		{"server error", http.StatusInternalServerError, true},
		{"unavailable", http.StatusServiceUnavailable, true},
		{"bad key", http.StatusUnauthorized, false},
		{"bad request", http.StatusBadRequest, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			srv := newProviderServer(t, "/v1/chat/completions", tt.status,
				`{"error": {"message": "provider said no", "type": "test_error"}}`)
			client, err := llm.NewOpenAIClient("sk-test", srv.URL+"/v1")
			require.NoError(t, err)

			_, err = client.Complete(context.Background(), completionRequest(model.ModelGPT4o))
			require.Error(t, err)
			assert.Equal(t, tt.transient, llm.IsTransient(err), err.Error())
			assert.Equal(t, !tt.transient, llm.IsFatal(err), err.Error())
			assert.Len(t, srv.requests(), 1)
		})
	}
}

func TestOpenAIClient_ModelsMatchOptions(t *testing.T) {
	client, err := llm.NewOpenAIClient("sk-test", "")
	require.NoError(t, err)

	assert.Equal(t, model.Models(), client.Models())
}

const anthropicReply = `{
	"id": "msg_1",
	"type": "message",
	"role": "assistant",
	"model": "claude-3-5-haiku-20241022",
	"content": [{"type": "text", "text": "Subject: Hello"}],
	"stop_reason": "end_turn",
	"stop_sequence": null,
	"usage": {"input_tokens": 10, "output_tokens": 5}
}`

func TestAnthropicClient_Complete(t *testing.T) {
	srv := newProviderServer(t, "/v1/messages", http.StatusOK, anthropicReply)
	client, err := llm.NewAnthropicClient("sk-ant-test", srv.URL+"/")
	require.NoError(t, err)

	resp, err := client.Complete(context.Background(), completionRequest("claude-3-5-haiku-20241022"))
	require.NoError(t, err)

	assert.Equal(t, "Subject: Hello", resp.Content)
	assert.Equal(t, 10, resp.TokensIn)
	assert.Equal(t, 5, resp.TokensOut)
	assert.Equal(t, "end_turn", resp.StopReason)

	reqs := srv.requests()
	require.Len(t, reqs, 1)
	assert.Equal(t, "claude-3-5-haiku-20241022", reqs[0]["model"])
	assert.EqualValues(t, 1500, reqs[0]["max_tokens"])
	assert.InDelta(t, 0.7, reqs[0]["temperature"], 1e-6)
}

func TestAnthropicClient_ErrorClassification(t *testing.T) {
	tests := []struct {
		name      string
		status    int
		transient bool
	}{
		{"rate limited", http.StatusTooManyRequests, true},
		{"overloaded", 529, true},
		{"bad key", http.StatusUnauthorized, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			srv := newProviderServer(t, "/v1/messages", tt.status,
				`{"type": "error", "error": {"type": "test_error", "message": "provider said no"}}`)
			client, err := llm.NewAnthropicClient("sk-ant-test", srv.URL+"/")
			require.NoError(t, err)

			_, err = client.Complete(context.Background(), completionRequest("claude-3-5-haiku-20241022"))
			require.Error(t, err)
			assert.Equal(t, tt.transient, llm.IsTransient(err), err.Error())
			assert.Equal(t, !tt.transient, llm.IsFatal(err), err.Error())
			// Retries belong to Generator, not the SDK.
			assert.Len(t, srv.requests(), 1)
		})
	}
}
