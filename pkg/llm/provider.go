// Package llm wraps chat-completion APIs behind a single Provider interface.
package llm

import (
	"context"
	"encoding/json"
)

// Provider sends one prompt and returns one completion.
type Provider interface {
	// Generate runs a single round trip. When req.Schema is set the
	// returned Content has already been extracted and validated as JSON.
	Generate(ctx context.Context, req Request) (*Response, error)

	// ModelID returns the model identifier this provider is configured to use.
	ModelID() string
}

type Request struct {
	System   string
	Messages []Message

	// Schema, when set, turns on the provider's JSON mode and the reply is
	// validated against it.
	Schema *Schema

	MaxTokens   int
	Temperature float64
}

type Message struct {
	Role    Role
	Content string
}

type Role string

const (
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
)

// Schema is a JSON Schema with a name used for caching and for providers
// that label structured output.
type Schema struct {
	Name        string
	Description string
	Definition  map[string]any
}

type Response struct {
	Content    json.RawMessage
	Usage      Usage
	Model      string
	StopReason string
}

// Text returns the content as a plain string, for prose replies.
func (r *Response) Text() string {
	if r == nil {
		return ""
	}
	return string(r.Content)
}

type Usage struct {
	InputTokens  int
	OutputTokens int
	TotalTokens  int
}

// UserPrompt builds the common single-turn request.
func UserPrompt(system, prompt string) Request {
	return Request{
		System:   system,
		Messages: []Message{{Role: RoleUser, Content: prompt}},
	}
}
