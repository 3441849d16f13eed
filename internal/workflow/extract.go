package workflow

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"strings"

	"github.com/rpggio/prdinsights/internal/llm"
)

// Stage names.
const (
	StageExtract        = "extract"
	StageExtractChunk   = "extract_chunk"
	StageReflect        = "reflect"
	StageChunkDocuments = "chunk_documents"
	StageValidateChunk  = "validate_chunk"
	StageDeduplicate    = "deduplicate"
	StageReview         = "review"
)

// Scope selects the extraction instructions.
type Scope string

const (
	ScopeComplete Scope = "COMPLETE"
	ScopeChunk    Scope = "CHUNK"
)

// ParseScope upper-cases raw and accepts COMPLETE or CHUNK.
func ParseScope(raw string) (Scope, error) {
	switch s := Scope(strings.ToUpper(strings.TrimSpace(raw))); s {
	case ScopeComplete, ScopeChunk:
		return s, nil
	}
	return "", &ValidationError{
		Field:   "scope",
		Message: fmt.Sprintf("%q is not one of COMPLETE, CHUNK", raw),
		Err:     ErrUnsupportedScope,
	}
}

// Stages holds the LLM-backed stage implementations.
type Stages struct {
	model  llm.Model
	interp *Interpreter
	logger *slog.Logger
}

// NewStages creates the stage set around model.
func NewStages(model llm.Model, logger *slog.Logger) *Stages {
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	return &Stages{model: model, interp: NewInterpreter(logger), logger: logger}
}

// Extract issues exactly one LLM call for text under scope and returns its raw
// tool calls. Empty text and unknown scopes fail before the model is called.
func (s *Stages) Extract(ctx context.Context, text, scope string) ([]llm.ToolCall, error) {
	if strings.TrimSpace(text) == "" {
		return nil, &ValidationError{Field: "document", Message: "text is empty"}
	}
	sc, err := ParseScope(scope)
	if err != nil {
		return nil, err
	}

	stage := StageExtract
	if sc == ScopeChunk {
		stage = StageExtractChunk
	}
	system, user := extractionPrompt(sc, text)
	calls, err := s.model.Invoke(ctx, llm.Request{
		Stage:        stage,
		System:       system,
		User:         user,
		Capabilities: AddCapabilities(),
	})
	if err != nil {
		return nil, fmt.Errorf("extracting (%s): %w", sc, err)
	}
	return calls, nil
}

// extractDocument is the whole-document extraction stage.
func (s *Stages) extractDocument(ctx context.Context, st State) (Delta, error) {
	calls, err := s.Extract(ctx, st.Document.Content, string(ScopeComplete))
	if err != nil {
		return Delta{}, err
	}
	res := s.interp.Interpret(StageExtract, calls, InterpretOptions{
		Allowed:        capabilityNames(AddCapabilities()),
		SourceDocument: st.Document.ID,
	})
	s.logger.Info("extraction complete",
		"document_id", st.Document.ID,
		"insights", len(res.Delta.Insights),
		"concerns", len(res.Delta.Concerns),
		"rejected", len(res.Errors),
	)
	return res.Delta, nil
}

// extractChunk is the per-chunk extraction task of the chunked variant.
func (s *Stages) extractChunk(chunk Chunk) StageFunc {
	return func(ctx context.Context, st State) (Delta, error) {
		calls, err := s.Extract(ctx, chunk.Content, string(ScopeChunk))
		if err != nil {
			return Delta{}, fmt.Errorf("chunk %d: %w", chunk.Index, err)
		}
		res := s.interp.Interpret(StageExtractChunk, calls, InterpretOptions{
			Allowed:        capabilityNames(AddCapabilities()),
			SourceDocument: st.Document.ID,
		})
		s.logger.Debug("chunk extraction complete",
			"document_id", st.Document.ID,
			"chunk", chunk.Index,
			"insights", len(res.Delta.Insights),
			"concerns", len(res.Delta.Concerns),
		)
		return res.Delta, nil
	}
}
