package analysis

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/rpggio/prdinsights/internal/domain/insight"
	"github.com/rpggio/prdinsights/internal/repository"
	"github.com/rpggio/prdinsights/internal/workflow"
)

// Defaults are applied to requests that leave a setting unset.
type Defaults struct {
	Mode                 workflow.Mode
	MaxReflectionCounter int
	ChunkInsightCap      int
	ChunkConcernCap      int
}

// DefaultDefaults returns the workflow's built-in settings.
func DefaultDefaults() Defaults {
	return Defaults{
		Mode:                 workflow.ModeDocument,
		MaxReflectionCounter: workflow.DefaultMaxReflectionCounter,
		ChunkInsightCap:      workflow.DefaultChunkCap,
		ChunkConcernCap:      workflow.DefaultChunkCap,
	}
}

// Service runs the insight workflow over stored documents and records runs.
type Service struct {
	runs     RunRepository
	docs     DocumentSource
	store    InsightStore
	runner   Runner
	defaults Defaults
	logger   *slog.Logger
	now      func() time.Time
}

// NewService creates a new analysis service.
func NewService(runs RunRepository, docs DocumentSource, store InsightStore, runner Runner, defaults Defaults, logger *slog.Logger) *Service {
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	return &Service{
		runs:     runs,
		docs:     docs,
		store:    store,
		runner:   runner,
		defaults: defaults,
		logger:   logger,
		now:      time.Now,
	}
}

// GenerateRequest selects a document and optional per-run overrides.
type GenerateRequest struct {
	DocumentID           string
	Mode                 string
	MaxReflectionCounter *int
}

// Generate runs the workflow over a stored document, persists the reviewed
// results and records the run. A workflow failure is recorded on the run and
// returned wrapped in ErrRunFailed.
func (s *Service) Generate(ctx context.Context, tenantID string, req GenerateRequest) (*Report, error) {
	if strings.TrimSpace(req.DocumentID) == "" {
		return nil, fmt.Errorf("%w: document_id is required", ErrInvalidInput)
	}
	mode := workflow.Mode(req.Mode)
	if mode == "" {
		mode = s.defaults.Mode
	}
	mode, err := workflow.ParseMode(string(mode))
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidInput, err)
	}
	maxReflection := s.defaults.MaxReflectionCounter
	if req.MaxReflectionCounter != nil {
		if *req.MaxReflectionCounter < 0 {
			return nil, fmt.Errorf("%w: max_reflection_counter must not be negative", ErrInvalidInput)
		}
		maxReflection = *req.MaxReflectionCounter
	}

	doc, err := s.docs.Get(ctx, tenantID, req.DocumentID)
	if err != nil {
		return nil, err
	}

	id, err := uuid.NewV7()
	if err != nil {
		return nil, fmt.Errorf("generating run id: %w", err)
	}
	run := &Run{
		ID:         id.String(),
		TenantID:   tenantID,
		ProjectID:  doc.ProjectID,
		ReleaseID:  doc.ReleaseID,
		DocumentID: doc.ID,
		Mode:       string(mode),
		Status:     RunRunning,
		StartedAt:  s.now(),
	}
	if err := s.runs.Create(ctx, tenantID, run); err != nil {
		return nil, fmt.Errorf("recording run: %w", err)
	}

	chunks := make([]workflow.Chunk, 0, len(doc.Chunks))
	for _, c := range doc.Chunks {
		chunks = append(chunks, workflow.Chunk{Index: c.Index, Content: c.Content})
	}
	res, err := s.runner.Run(ctx, workflow.Input{
		ProjectID: doc.ProjectID,
		ReleaseID: doc.ReleaseID,
		Document:  workflow.Document{ID: doc.ID, Content: doc.Content, Chunks: chunks},
		Config: workflow.Config{
			workflow.MaxReflectionCounterKey: maxReflection,
			workflow.ChunkInsightCapKey:      s.defaults.ChunkInsightCap,
			workflow.ChunkConcernCapKey:      s.defaults.ChunkConcernCap,
		},
		Mode: mode,
	})
	if err != nil {
		s.fail(tenantID, run, err)
		if errors.Is(err, workflow.ErrValidation) {
			return nil, fmt.Errorf("%w: %v", ErrInvalidInput, err)
		}
		return nil, fmt.Errorf("%w: %w", ErrRunFailed, err)
	}

	batch := insight.Batch{
		Origin: insight.Origin{
			ProjectID:  res.ProjectID,
			ReleaseID:  res.ReleaseID,
			DocumentID: res.DocumentID,
			RunID:      run.ID,
		},
		Insights: res.Insights,
		Concerns: res.Concerns,
	}
	if err := s.store.SaveBatch(ctx, tenantID, batch); err != nil {
		s.fail(tenantID, run, err)
		return nil, fmt.Errorf("%w: %w", ErrRunFailed, err)
	}

	completed := s.now()
	run.Status = RunCompleted
	run.InsightCount = len(res.Insights)
	run.ConcernCount = len(res.Concerns)
	run.ReflectionRounds = res.ReflectionRounds
	run.FailedChunks = res.FailedChunks
	run.CompletedAt = &completed
	if err := s.runs.Update(ctx, tenantID, run); err != nil {
		return nil, fmt.Errorf("completing run: %w", err)
	}

	s.logger.Info("analysis run completed",
		"run_id", run.ID,
		"document_id", run.DocumentID,
		"insights", run.InsightCount,
		"concerns", run.ConcernCount,
		"failed_chunks", len(run.FailedChunks),
	)
	return &Report{Run: run, Insights: res.Insights, Concerns: res.Concerns}, nil
}

// fail marks run FAILED with cause. ctx may already be cancelled, so the
// update runs on its own deadline.
func (s *Service) fail(tenantID string, run *Run, cause error) {
	completed := s.now()
	run.Status = RunFailed
	run.Error = cause.Error()
	run.CompletedAt = &completed

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := s.runs.Update(ctx, tenantID, run); err != nil {
		s.logger.Error("failed to record failed run", "run_id", run.ID, "error", err)
	}
	s.logger.Error("analysis run failed", "run_id", run.ID, "document_id", run.DocumentID, "error", cause)
}

// GetRun fetches a run by ID.
func (s *Service) GetRun(ctx context.Context, tenantID, id string) (*Run, error) {
	run, err := s.runs.Get(ctx, tenantID, id)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrRunNotFound
		}
		return nil, fmt.Errorf("getting run: %w", err)
	}
	return run, nil
}

// ListRuns lists runs, newest first.
func (s *Service) ListRuns(ctx context.Context, tenantID string, opts ListOptions) ([]Run, error) {
	return s.runs.List(ctx, tenantID, opts)
}
