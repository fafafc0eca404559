// Package llm hides the LLM vendors behind one Provider interface used for
// quiz generation.
package llm

import (
	"context"
	"encoding/json"
	"net/http"
)

// Provider is the core abstraction for LLM interaction.
type Provider interface {
	// Generate sends a prompt and returns the response. When req.Schema is
	// set the provider uses its native structured output and the returned
	// Content is JSON that validates against the schema.
	Generate(ctx context.Context, req Request) (*Response, error)

	// ModelID returns the model identifier this provider is configured to use.
	ModelID() string
}

// Request describes what to send to the LLM.
type Request struct {
	System   string
	Messages []Message

	// Schema, when set, is the JSON Schema the response must conform to.
	Schema *Schema

	MaxTokens int

	// Temperature in [0,1]; zero leaves the provider default.
	Temperature float64
}

// Message represents a single message in the conversation.
type Message struct {
	Role    Role
	Content string
}

// Role is the message sender role.
type Role string

const (
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
)

// Schema defines the JSON structure expected from the LLM.
type Schema struct {
	// Name is kebab-case and doubles as the cache key for compiled schemas.
	Name        string
	Description string
	Definition  map[string]any
}

// Response holds the LLM's output.
type Response struct {
	Content json.RawMessage
	Usage   Usage
	Model   string

	// StopReason is normalized to "end" or "max_tokens".
	StopReason string
}

// Usage tracks token consumption for a single request.
type Usage struct {
	InputTokens  int
	OutputTokens int
	TotalTokens  int
}

// finish turns raw provider output into a Response, rejecting truncated or
// schema-violating content.
func finish(req Request, content json.RawMessage, usage Usage, model, stop string) (*Response, error) {
	if stop == "max_tokens" && req.Schema != nil {
		return nil, &ErrMaxTokensExceeded{Content: content}
	}
	if err := validateResponse(req.Schema, content); err != nil {
		return nil, err
	}
	return &Response{Content: content, Usage: usage, Model: model, StopReason: stop}, nil
}

// classifyStatus maps an HTTP status from any vendor SDK onto our errors.
func classifyStatus(status int, err error) error {
	if status == http.StatusTooManyRequests {
		return &ErrRateLimit{Err: err}
	}
	return &ErrProviderUnavailable{Err: err}
}

// resolveModel maps a friendly model name to a provider model ID; unknown
// names pass through so direct model IDs work.
func resolveModel(name string, models map[string]string) string {
	if id, ok := models[name]; ok {
		return id
	}
	return name
}
