package llm

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/tmc/langchaingo/llms"
)

// LangChainModel adapts a langchaingo model to Model.
type LangChainModel struct {
	model llms.Model
}

// NewLangChainModel wraps a langchaingo model.
func NewLangChainModel(model llms.Model) *LangChainModel {
	return &LangChainModel{model: model}
}

// Invoke sends a system and a user message and collects the tool calls of every choice.
func (m *LangChainModel) Invoke(ctx context.Context, req Request) ([]ToolCall, error) {
	messages := []llms.MessageContent{
		llms.TextParts(llms.ChatMessageTypeSystem, req.System),
		llms.TextParts(llms.ChatMessageTypeHuman, req.User),
	}

	var opts []llms.CallOption
	if len(req.Capabilities) > 0 {
		opts = append(opts, llms.WithTools(toLangChainTools(req.Capabilities)))
	}

	resp, err := m.model.GenerateContent(ctx, messages, opts...)
	if err != nil {
		return nil, fmt.Errorf("generate content: %w", err)
	}

	var calls []ToolCall
	for _, choice := range resp.Choices {
		for _, tc := range choice.ToolCalls {
			if tc.FunctionCall == nil {
				continue
			}
			id := tc.ID
			if id == "" {
				id = fmt.Sprintf("call_%d", len(calls))
			}
			args := strings.TrimSpace(tc.FunctionCall.Arguments)
			if args == "" {
				args = "{}"
			}
			calls = append(calls, ToolCall{
				ID:        id,
				Name:      tc.FunctionCall.Name,
				Arguments: json.RawMessage(args),
			})
		}
	}
	return calls, nil
}

func toLangChainTools(caps []Capability) []llms.Tool {
	tools := make([]llms.Tool, 0, len(caps))
	for _, c := range caps {
		tools = append(tools, llms.Tool{
			Type: "function",
			Function: &llms.FunctionDefinition{
				Name:        c.Name,
				Description: c.Description,
				Parameters:  c.Parameters,
			},
		})
	}
	return tools
}
