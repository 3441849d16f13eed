// Package llmtest provides a deterministic llm.Model for tests.
package llmtest

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"sync/atomic"

	"github.com/rpggio/prdinsights/internal/llm"
)

// Responder produces the response for one request.
type Responder func(ctx context.Context, req llm.Request) ([]llm.ToolCall, error)

// Scripted is an llm.Model that answers from a Responder and records every request.
type Scripted struct {
	respond Responder

	mu       sync.Mutex
	requests []llm.Request
}

// New creates a scripted model. A nil responder answers every request with no calls.
func New(respond Responder) *Scripted {
	if respond == nil {
		respond = func(context.Context, llm.Request) ([]llm.ToolCall, error) { return nil, nil }
	}
	return &Scripted{respond: respond}
}

// ByStage routes requests to a responder per stage; unknown stages get no calls.
func ByStage(routes map[string]Responder) Responder {
	return func(ctx context.Context, req llm.Request) ([]llm.ToolCall, error) {
		if r, ok := routes[req.Stage]; ok {
			return r(ctx, req)
		}
		return nil, nil
	}
}

// Static always returns calls.
func Static(calls ...llm.ToolCall) Responder {
	return func(context.Context, llm.Request) ([]llm.ToolCall, error) {
		return calls, nil
	}
}

// Invoke records req and delegates to the responder.
func (s *Scripted) Invoke(ctx context.Context, req llm.Request) ([]llm.ToolCall, error) {
	s.mu.Lock()
	s.requests = append(s.requests, req)
	s.mu.Unlock()
	return s.respond(ctx, req)
}

// Calls returns the number of requests received.
func (s *Scripted) Calls() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.requests)
}

// CallsForStage returns the number of requests received for stage.
func (s *Scripted) CallsForStage(stage string) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	n := 0
	for _, req := range s.requests {
		if req.Stage == stage {
			n++
		}
	}
	return n
}

// Requests returns a copy of the recorded requests.
func (s *Scripted) Requests() []llm.Request {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]llm.Request(nil), s.requests...)
}

var callSeq atomic.Int64

// Call builds a tool call with a unique correlation id and JSON-encoded args.
func Call(name string, args any) llm.ToolCall {
	data, err := json.Marshal(args)
	if err != nil {
		panic(fmt.Sprintf("llmtest: marshal args: %v", err))
	}
	return llm.ToolCall{
		ID:        fmt.Sprintf("call-%d", callSeq.Add(1)),
		Name:      name,
		Arguments: data,
	}
}

// Insight returns add_product_insight arguments with every required field set.
func Insight(title string) map[string]any {
	return map[string]any{
		"title":             title,
		"description":       title + " description",
		"flow_type":         "user_flow",
		"priority":          "P1",
		"expected_outcomes": []string{title + " succeeds"},
	}
}

// Concern returns add_concern arguments with every required field set.
func Concern(description string) map[string]any {
	return map[string]any{
		"type":        "ambiguity",
		"severity":    "MEDIUM",
		"description": description,
	}
}
