// Package llm defines the narrow tool-calling capability the insight workflow
// depends on, plus provider adapters and resilience wrappers around it.
package llm

import (
	"context"
	"encoding/json"
	"errors"
)

var (
	// ErrUnavailable indicates the model could not be reached after retries.
	ErrUnavailable = errors.New("llm unavailable")
	// ErrUnsupportedPlatform indicates an unknown provider platform.
	ErrUnsupportedPlatform = errors.New("unsupported llm platform")
)

// Capability is an operation the model may call.
type Capability struct {
	Name        string
	Description string
	// Parameters is the JSON schema of the call arguments.
	Parameters map[string]any
}

// ToolCall is one structured call emitted by the model.
type ToolCall struct {
	ID        string          `json:"id"`
	Name      string          `json:"name"`
	Arguments json.RawMessage `json:"arguments"`
}

// Request is a single model invocation.
type Request struct {
	// Stage labels the caller for metrics and tracing.
	Stage        string
	System       string
	User         string
	Capabilities []Capability
}

// Model invokes an LLM and returns the tool calls of its response.
type Model interface {
	Invoke(ctx context.Context, req Request) ([]ToolCall, error)
}

// ModelFunc adapts a function to Model.
type ModelFunc func(ctx context.Context, req Request) ([]ToolCall, error)

// Invoke calls f.
func (f ModelFunc) Invoke(ctx context.Context, req Request) ([]ToolCall, error) {
	return f(ctx, req)
}
