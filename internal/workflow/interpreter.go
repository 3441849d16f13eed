package workflow

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"strings"

	"github.com/google/uuid"
	"github.com/rpggio/prdinsights/internal/domain/insight"
	"github.com/rpggio/prdinsights/internal/llm"
)

// InterpretOptions constrain one interpretation pass.
type InterpretOptions struct {
	// Allowed limits the operations accepted. Nil accepts all four.
	Allowed map[string]bool
	// MaxInsights and MaxConcerns cap the adds kept; zero is unlimited.
	MaxInsights    int
	MaxConcerns    int
	SourceDocument string
}

// Interpretation is the result of one pass over a batch of tool calls.
type Interpretation struct {
	Delta  Delta
	Errors []*CallError
}

// Applied returns the number of calls turned into domain objects or tombstones.
func (r Interpretation) Applied() int {
	d := r.Delta
	return len(d.Insights) + len(d.Concerns) + len(d.DeletedInsights) + len(d.DeletedConcerns)
}

// Interpreter turns model tool calls into domain objects and tombstones.
type Interpreter struct {
	logger *slog.Logger
	newID  func() (string, error)
}

// NewInterpreter creates an interpreter that mints UUIDv7 ids.
func NewInterpreter(logger *slog.Logger) *Interpreter {
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	return &Interpreter{logger: logger, newID: newV7}
}

func newV7() (string, error) {
	id, err := uuid.NewV7()
	if err != nil {
		return "", err
	}
	return id.String(), nil
}

type insightArgs struct {
	Title            string   `json:"title"`
	Description      string   `json:"description"`
	FlowType         string   `json:"flow_type"`
	Priority         string   `json:"priority"`
	Actors           []string `json:"actors"`
	Inputs           []string `json:"inputs"`
	ExpectedOutcomes []string `json:"expected_outcomes"`
	Preconditions    []string `json:"preconditions"`
	Postconditions   []string `json:"postconditions"`
	BusinessRules    []string `json:"business_rules"`
	Assumptions      []string `json:"assumptions"`
	NonGoals         []string `json:"non_goals"`
	ConfidenceLevel  string   `json:"confidence_level"`
}

type concernArgs struct {
	RelatedInsightID string   `json:"related_product_insight_id"`
	Type             string   `json:"type"`
	Severity         string   `json:"severity"`
	Description      string   `json:"description"`
	Impact           string   `json:"impact"`
	Questions        []string `json:"questions"`
	RaisedBy         string   `json:"raised_by"`
}

type deleteInsightArgs struct {
	InsightID string `json:"insight_id"`
}

type deleteConcernArgs struct {
	ConcernID string `json:"concern_id"`
}

// Interpret converts calls in order. A failing call is logged and recorded in
// the result; the remaining calls are still interpreted. The returned delta
// carries the model turn and one acknowledgement per applied call.
func (ip *Interpreter) Interpret(stage string, calls []llm.ToolCall, opts InterpretOptions) Interpretation {
	var out Interpretation
	if len(calls) > 0 {
		out.Delta.Messages = append(out.Delta.Messages, Message{
			Role:      RoleAssistant,
			Stage:     stage,
			ToolCalls: calls,
		})
	}

	for _, call := range calls {
		ack, err := ip.apply(&out.Delta, call, opts)
		if err != nil {
			cerr := &CallError{Stage: stage, CallID: call.ID, Tool: call.Name, Err: err}
			out.Errors = append(out.Errors, cerr)
			toolCallsTotal.WithLabelValues(stage, toolLabel(call.Name), "rejected").Inc()
			ip.logger.Warn("tool call rejected",
				"stage", stage,
				"tool", call.Name,
				"call_id", call.ID,
				"error", err,
			)
			continue
		}
		toolCallsTotal.WithLabelValues(stage, call.Name, "applied").Inc()
		out.Delta.Messages = append(out.Delta.Messages, Message{
			Role:       RoleTool,
			Stage:      stage,
			ToolCallID: call.ID,
			Content:    ack,
		})
	}

	ip.logger.Debug("tool calls interpreted",
		"stage", stage,
		"calls", len(calls),
		"applied", out.Applied(),
		"rejected", len(out.Errors),
	)
	return out
}

func (ip *Interpreter) apply(d *Delta, call llm.ToolCall, opts InterpretOptions) (string, error) {
	switch call.Name {
	case ToolAddInsight, ToolAddConcern, ToolDeleteInsight, ToolDeleteConcern:
	default:
		return "", ErrUnknownTool
	}
	if opts.Allowed != nil && !opts.Allowed[call.Name] {
		return "", ErrToolNotOffered
	}

	switch call.Name {
	case ToolAddInsight:
		if opts.MaxInsights > 0 && len(d.Insights) >= opts.MaxInsights {
			return "", fmt.Errorf("%w: at most %d insights", ErrCapExceeded, opts.MaxInsights)
		}
		var args insightArgs
		if err := decodeArgs(call.Arguments, &args); err != nil {
			return "", err
		}
		in, err := ip.buildInsight(args, opts.SourceDocument)
		if err != nil {
			return "", err
		}
		d.Insights = append(d.Insights, in)
		return fmt.Sprintf("Added product insight %s", in.ID), nil

	case ToolAddConcern:
		if opts.MaxConcerns > 0 && len(d.Concerns) >= opts.MaxConcerns {
			return "", fmt.Errorf("%w: at most %d concerns", ErrCapExceeded, opts.MaxConcerns)
		}
		var args concernArgs
		if err := decodeArgs(call.Arguments, &args); err != nil {
			return "", err
		}
		c, err := ip.buildConcern(args, opts.SourceDocument)
		if err != nil {
			return "", err
		}
		d.Concerns = append(d.Concerns, c)
		return fmt.Sprintf("Added concern %s", c.ID), nil

	case ToolDeleteInsight:
		var args deleteInsightArgs
		if err := decodeArgs(call.Arguments, &args); err != nil {
			return "", err
		}
		id := strings.TrimSpace(args.InsightID)
		if id == "" {
			return "", errors.New("insight_id is required")
		}
		d.DeletedInsights = append(d.DeletedInsights, id)
		return fmt.Sprintf("Deleted product insight %s", id), nil

	default:
		var args deleteConcernArgs
		if err := decodeArgs(call.Arguments, &args); err != nil {
			return "", err
		}
		id := strings.TrimSpace(args.ConcernID)
		if id == "" {
			return "", errors.New("concern_id is required")
		}
		d.DeletedConcerns = append(d.DeletedConcerns, id)
		return fmt.Sprintf("Deleted concern %s", id), nil
	}
}

func (ip *Interpreter) buildInsight(args insightArgs, source string) (insight.Insight, error) {
	confidence := insight.ConfidenceLevel(strings.ToUpper(strings.TrimSpace(args.ConfidenceLevel)))
	if confidence == "" {
		confidence = insight.ConfidenceMedium
	}
	in := insight.Insight{
		Title:            strings.TrimSpace(args.Title),
		Description:      strings.TrimSpace(args.Description),
		FlowType:         insight.FlowType(strings.ToLower(strings.TrimSpace(args.FlowType))),
		Priority:         insight.Priority(strings.ToUpper(strings.TrimSpace(args.Priority))),
		Actors:           args.Actors,
		Inputs:           args.Inputs,
		ExpectedOutcomes: args.ExpectedOutcomes,
		Preconditions:    args.Preconditions,
		Postconditions:   args.Postconditions,
		BusinessRules:    args.BusinessRules,
		Assumptions:      args.Assumptions,
		NonGoals:         args.NonGoals,
		SourceDocument:   source,
		Status:           insight.StatusProposed,
		ConfidenceLevel:  confidence,
	}
	id, err := ip.newID()
	if err != nil {
		return insight.Insight{}, fmt.Errorf("minting insight id: %w", err)
	}
	in.ID = id
	if err := insight.ValidateInsight(in); err != nil {
		return insight.Insight{}, err
	}
	return in, nil
}

func (ip *Interpreter) buildConcern(args concernArgs, source string) (insight.Concern, error) {
	raisedBy := strings.TrimSpace(args.RaisedBy)
	if raisedBy == "" {
		raisedBy = insight.DefaultRaisedBy
	}
	c := insight.Concern{
		RelatedInsightID: strings.TrimSpace(args.RelatedInsightID),
		Type:             insight.ConcernType(strings.ToLower(strings.TrimSpace(args.Type))),
		Severity:         insight.Severity(strings.ToUpper(strings.TrimSpace(args.Severity))),
		Description:      strings.TrimSpace(args.Description),
		Impact:           strings.TrimSpace(args.Impact),
		Questions:        args.Questions,
		RaisedBy:         raisedBy,
		Status:           insight.ConcernOpen,
		SourceDocument:   source,
	}
	id, err := ip.newID()
	if err != nil {
		return insight.Concern{}, fmt.Errorf("minting concern id: %w", err)
	}
	c.ID = id
	if err := insight.ValidateConcern(c); err != nil {
		return insight.Concern{}, err
	}
	return c, nil
}

func decodeArgs(raw json.RawMessage, out any) error {
	raw = bytes.TrimSpace(raw)
	if len(raw) == 0 {
		return errors.New("missing arguments")
	}
	// Some providers send the argument object as a JSON string.
	if raw[0] == '"' {
		var inner string
		if err := json.Unmarshal(raw, &inner); err != nil {
			return fmt.Errorf("decoding arguments: %w", err)
		}
		raw = []byte(inner)
	}
	if err := json.Unmarshal(raw, out); err != nil {
		return fmt.Errorf("decoding arguments: %w", err)
	}
	return nil
}

func toolLabel(name string) string {
	switch name {
	case ToolAddInsight, ToolAddConcern, ToolDeleteInsight, ToolDeleteConcern:
		return name
	}
	return "unknown"
}
