package insight

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"strings"
	"time"

	"github.com/rpggio/prdinsights/internal/repository"
)

// Service handles persistence and lifecycle of reviewed insights and concerns.
type Service struct {
	repo   Repository
	logger *slog.Logger
	now    func() time.Time
}

// NewService creates a new insight service.
func NewService(repo Repository, logger *slog.Logger) *Service {
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	return &Service{repo: repo, logger: logger, now: time.Now}
}

// TransitionInsightRequest describes an insight review decision.
type TransitionInsightRequest struct {
	ID       string
	ToStatus InsightStatus
}

// TransitionConcernRequest describes a concern status change.
type TransitionConcernRequest struct {
	ID         string
	ToStatus   ConcernStatus
	ResolvedBy *string
}

// SaveBatch persists reviewed results. Insights always start PROPOSED and
// concerns OPEN regardless of what the batch carries.
func (s *Service) SaveBatch(ctx context.Context, tenantID string, batch Batch) error {
	if strings.TrimSpace(batch.Origin.ProjectID) == "" ||
		strings.TrimSpace(batch.Origin.ReleaseID) == "" ||
		strings.TrimSpace(batch.Origin.DocumentID) == "" {
		return ErrInvalidInput
	}

	insights := make([]Insight, 0, len(batch.Insights))
	for _, in := range batch.Insights {
		in.Status = StatusProposed
		if in.ConfidenceLevel == "" {
			in.ConfidenceLevel = ConfidenceMedium
		}
		if in.SourceDocument == "" {
			in.SourceDocument = batch.Origin.DocumentID
		}
		if err := ValidateInsight(in); err != nil {
			return fmt.Errorf("insight %s: %w", in.ID, err)
		}
		insights = append(insights, in)
	}

	concerns := make([]Concern, 0, len(batch.Concerns))
	for _, c := range batch.Concerns {
		c.Status = ConcernOpen
		if c.RaisedBy == "" {
			c.RaisedBy = DefaultRaisedBy
		}
		if c.SourceDocument == "" {
			c.SourceDocument = batch.Origin.DocumentID
		}
		if err := ValidateConcern(c); err != nil {
			return fmt.Errorf("concern %s: %w", c.ID, err)
		}
		concerns = append(concerns, c)
	}

	batch.Insights = insights
	batch.Concerns = concerns
	if err := s.repo.SaveBatch(ctx, tenantID, batch, s.now()); err != nil {
		return fmt.Errorf("saving insight batch: %w", err)
	}

	s.logger.Info("persisted analysis results",
		"document_id", batch.Origin.DocumentID,
		"run_id", batch.Origin.RunID,
		"insights", len(insights),
		"concerns", len(concerns),
	)
	return nil
}

// GetInsight fetches a persisted insight.
func (s *Service) GetInsight(ctx context.Context, tenantID, id string) (*StoredInsight, error) {
	in, err := s.repo.GetInsight(ctx, tenantID, id)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrInsightNotFound
		}
		return nil, fmt.Errorf("getting insight: %w", err)
	}
	return in, nil
}

// ListInsights lists persisted insights.
func (s *Service) ListInsights(ctx context.Context, tenantID string, opts ListOptions) ([]StoredInsight, error) {
	return s.repo.ListInsights(ctx, tenantID, opts)
}

// ListConcerns lists persisted concerns.
func (s *Service) ListConcerns(ctx context.Context, tenantID string, opts ListOptions) ([]StoredConcern, error) {
	return s.repo.ListConcerns(ctx, tenantID, opts)
}

// SearchInsights runs a full-text query over insight titles and details.
func (s *Service) SearchInsights(ctx context.Context, tenantID, query string, opts ListOptions) ([]SearchResult, error) {
	query = strings.TrimSpace(query)
	if query == "" {
		return nil, fmt.Errorf("%w: query is required", ErrInvalidInput)
	}
	results, err := s.repo.SearchInsights(ctx, tenantID, query, opts)
	if err != nil {
		return nil, fmt.Errorf("searching insights: %w", err)
	}
	return results, nil
}

// TransitionInsight records a review decision on an insight.
func (s *Service) TransitionInsight(ctx context.Context, tenantID string, req TransitionInsightRequest) (*StoredInsight, error) {
	to := InsightStatus(strings.ToUpper(strings.TrimSpace(string(req.ToStatus))))
	in, err := s.GetInsight(ctx, tenantID, req.ID)
	if err != nil {
		return nil, err
	}
	if err := ValidateInsightTransition(in.Status, to); err != nil {
		return nil, err
	}

	now := s.now()
	if err := s.repo.UpdateInsightStatus(ctx, tenantID, in.ID, to, now); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrInsightNotFound
		}
		return nil, fmt.Errorf("updating insight status: %w", err)
	}
	in.Status = to
	in.ModifiedAt = now
	return in, nil
}

// TransitionConcern resolves or reopens a concern.
func (s *Service) TransitionConcern(ctx context.Context, tenantID string, req TransitionConcernRequest) (*StoredConcern, error) {
	to := ConcernStatus(strings.ToUpper(strings.TrimSpace(string(req.ToStatus))))
	c, err := s.repo.GetConcern(ctx, tenantID, req.ID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrConcernNotFound
		}
		return nil, fmt.Errorf("getting concern: %w", err)
	}
	if err := ValidateConcernTransition(c.Status, to, req.ResolvedBy); err != nil {
		return nil, err
	}

	resolvedBy := req.ResolvedBy
	if to == ConcernOpen {
		resolvedBy = nil
	}
	now := s.now()
	if err := s.repo.UpdateConcernStatus(ctx, tenantID, c.ID, to, resolvedBy, now); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrConcernNotFound
		}
		return nil, fmt.Errorf("updating concern status: %w", err)
	}
	c.Status = to
	c.ResolvedBy = resolvedBy
	c.ModifiedAt = now
	return c, nil
}
