package workflow

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"maps"
	"strings"

	"github.com/rpggio/prdinsights/internal/domain/insight"
	"github.com/rpggio/prdinsights/internal/llm"
)

// Mode selects the stage layout of a run.
type Mode string

const (
	// ModeDocument extracts from the whole document, reflects, then validates per chunk.
	ModeDocument Mode = "document"
	// ModeChunked extracts per chunk, deduplicates, then reflects.
	ModeChunked Mode = "chunked"
)

// ParseMode accepts document or chunked, case-insensitively. Empty means document.
func ParseMode(raw string) (Mode, error) {
	switch m := Mode(strings.ToLower(strings.TrimSpace(raw))); m {
	case "":
		return ModeDocument, nil
	case ModeDocument, ModeChunked:
		return m, nil
	}
	return "", &ValidationError{Field: "mode", Message: fmt.Sprintf("%q is not one of document, chunked", raw)}
}

// Input is one workflow invocation.
type Input struct {
	ProjectID string
	ReleaseID string
	Document  Document
	Config    Config
	Mode      Mode
}

// Result is the reviewed output of a run.
type Result struct {
	ProjectID        string
	ReleaseID        string
	DocumentID       string
	Insights         []insight.Insight
	Concerns         []insight.Concern
	ReflectionRounds int
	FailedChunks     []int
	Messages         []Message
}

// Workflow runs the insight extraction graph.
type Workflow struct {
	stages      *Stages
	logger      *slog.Logger
	concurrency int
	stepLimit   int
}

// Option configures a Workflow.
type Option func(*Workflow)

// WithConcurrency bounds concurrent fan-out tasks.
func WithConcurrency(n int) Option {
	return func(w *Workflow) { w.concurrency = n }
}

// WithStepLimit sets the minimum number of stage executions per run. The
// limit is always raised to fit the run's reflection budget.
func WithStepLimit(n int) Option {
	return func(w *Workflow) { w.stepLimit = n }
}

// stageBudget covers every non-reflection step of either mode.
const stageBudget = 5

// New creates a workflow backed by model.
func New(model llm.Model, logger *slog.Logger, opts ...Option) *Workflow {
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	w := &Workflow{
		stages:      NewStages(model, logger),
		logger:      logger,
		concurrency: 4,
		stepLimit:   64,
	}
	for _, opt := range opts {
		opt(w)
	}
	return w
}

// Run validates in, drives the graph for its mode and returns the review.
func (w *Workflow) Run(ctx context.Context, in Input) (*Result, error) {
	mode, err := ParseMode(string(in.Mode))
	if err != nil {
		return nil, err
	}
	if err := validateInput(in, mode); err != nil {
		return nil, err
	}

	reflections := in.Config.Int(MaxReflectionCounterKey, DefaultMaxReflectionCounter)
	graph := w.graph(mode, max(w.stepLimit, reflections+stageBudget))
	initial := State{
		ProjectID: in.ProjectID,
		ReleaseID: in.ReleaseID,
		Document:  in.Document,
		Config:    maps.Clone(in.Config),
		Vars:      map[string]int{ReflectionCounterVar: 0},
	}

	w.logger.Info("workflow started",
		"mode", mode,
		"project_id", in.ProjectID,
		"release_id", in.ReleaseID,
		"document_id", in.Document.ID,
		"chunks", len(in.Document.Chunks),
	)
	final, err := graph.Run(ctx, initial)
	if err != nil {
		runsTotal.WithLabelValues(string(mode), "failed").Inc()
		w.logger.Error("workflow failed", "mode", mode, "document_id", in.Document.ID, "error", err)
		return nil, err
	}
	runsTotal.WithLabelValues(string(mode), "completed").Inc()

	insights, concerns := Review(final)
	res := &Result{
		ProjectID:        final.ProjectID,
		ReleaseID:        final.ReleaseID,
		DocumentID:       final.Document.ID,
		Insights:         insights,
		Concerns:         concerns,
		ReflectionRounds: final.Counter(ReflectionCounterVar),
		FailedChunks:     final.FailedChunks,
		Messages:         final.Messages,
	}
	w.logger.Info("workflow completed",
		"mode", mode,
		"document_id", res.DocumentID,
		"insights", len(res.Insights),
		"concerns", len(res.Concerns),
		"reflection_rounds", res.ReflectionRounds,
		"failed_chunks", len(res.FailedChunks),
	)
	return res, nil
}

func (w *Workflow) graph(mode Mode, steps int) *Graph {
	s := w.stages
	entry := StageExtract
	if mode == ModeChunked {
		entry = StageChunkDocuments
	}
	g := NewGraph(entry,
		WithMaxSteps(steps),
		WithFanOutConcurrency(w.concurrency),
		WithGraphLogger(w.logger),
	)

	if mode == ModeChunked {
		reflectOrReview := Conditional{Predicate: ShouldReflect, Then: StageReflect, Else: StageReview}
		return g.
			AddStage(StageChunkDocuments, s.chunkDocuments).
			AddStage(StageDeduplicate, s.Deduplicate).
			AddStage(StageReflect, s.Reflect).
			AddStage(StageReview, s.review).
			AddEdge(StageChunkDocuments, FanOut{Tasks: s.extractionTasks, Join: StageDeduplicate}).
			AddEdge(StageDeduplicate, reflectOrReview).
			AddEdge(StageReflect, reflectOrReview).
			AddEdge(StageReview, Fixed{To: End})
	}

	reflectOrChunk := Conditional{Predicate: ShouldReflect, Then: StageReflect, Else: StageChunkDocuments}
	return g.
		AddStage(StageExtract, s.extractDocument).
		AddStage(StageReflect, s.Reflect).
		AddStage(StageChunkDocuments, s.chunkDocuments).
		AddStage(StageDeduplicate, s.Deduplicate).
		AddStage(StageReview, s.review).
		AddEdge(StageExtract, reflectOrChunk).
		AddEdge(StageReflect, reflectOrChunk).
		AddEdge(StageChunkDocuments, FanOut{Tasks: s.validationTasks, Join: StageDeduplicate}).
		AddEdge(StageDeduplicate, Fixed{To: StageReview}).
		AddEdge(StageReview, Fixed{To: End})
}

func validateInput(in Input, mode Mode) error {
	switch {
	case strings.TrimSpace(in.ProjectID) == "":
		return &ValidationError{Field: "project_id", Message: "is required"}
	case strings.TrimSpace(in.ReleaseID) == "":
		return &ValidationError{Field: "release_id", Message: "is required"}
	case strings.TrimSpace(in.Document.Content) == "":
		return &ValidationError{Field: "document", Message: "text is empty"}
	}
	for k, v := range in.Config {
		if v < 0 {
			return &ValidationError{Field: "config", Message: fmt.Sprintf("%s must not be negative, got %d", k, v)}
		}
	}
	if mode == ModeChunked && len(in.Document.Chunks) == 0 {
		return &ValidationError{Field: "document", Message: "chunked mode requires chunks"}
	}
	return nil
}
