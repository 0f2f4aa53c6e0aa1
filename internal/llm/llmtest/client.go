// Package llmtest provides a scripted llm.Client for tests.
package llmtest

import (
	"context"
	"errors"
	"sync"

	"github.com/capitalize-ai/email-composer/internal/llm"
)

// Step is one scripted reply: either a response or an error.
type Step struct {
	Content string
	Err     error
}

// Client replays Steps in order. Once the script is exhausted the last step
// repeats. It records every request it receives.
//
//	c := &llmtest.Client{Steps: []llmtest.Step{
//	    {Err: errors.New("503")},
//	    {Content: "Subject: Hello"},
//	}}
type Client struct {
	Steps     []Step
	ModelList []string

	mu       sync.Mutex
	requests []llm.CompletionRequest
}

// Reply returns a client that always answers with content.
func Reply(content string) *Client {
	return &Client{Steps: []Step{{Content: content}}}
}

// Complete implements llm.Client.
func (c *Client) Complete(_ context.Context, req *llm.CompletionRequest) (*llm.CompletionResponse, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	idx := len(c.requests)
	c.requests = append(c.requests, *req)

	if len(c.Steps) == 0 {
		return nil, errors.New("llmtest: no scripted steps")
	}
	if idx >= len(c.Steps) {
		idx = len(c.Steps) - 1
	}

	step := c.Steps[idx]
	if step.Err != nil {
		return nil, step.Err
	}
	return &llm.CompletionResponse{
		Content:   step.Content,
		Model:     req.Model,
		TokensIn:  len(req.Messages[0].Content) / 4,
		TokensOut: len(step.Content) / 4,
	}, nil
}

// Name implements llm.Client.
func (c *Client) Name() string {
	return "scripted"
}

// Models implements llm.Client.
func (c *Client) Models() []string {
	if c.ModelList != nil {
		return c.ModelList
	}
	return []string{"gpt-4o", "gpt-4o-mini", "o1-mini", "o3-mini"}
}

// Calls returns the number of Complete calls so far.
func (c *Client) Calls() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.requests)
}

// Requests returns a copy of every request received.
func (c *Client) Requests() []llm.CompletionRequest {
	c.mu.Lock()
	defer c.mu.Unlock()
	out := make([]llm.CompletionRequest, len(c.requests))
	copy(out, c.requests)
	return out
}
