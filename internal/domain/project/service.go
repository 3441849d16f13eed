package project

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/rpggio/prdinsights/internal/repository"
)

// Service handles project and release operations.
type Service struct {
	repo   Repository
	logger *slog.Logger
}

// NewService creates a new project service.
func NewService(repo Repository, logger *slog.Logger) *Service {
	return &Service{repo: repo, logger: logger}
}

// CreateRequest defines project creation inputs.
type CreateRequest struct {
	Name        string
	Description string
}

// CreateReleaseRequest defines release creation inputs.
type CreateReleaseRequest struct {
	ProjectID string
	Label     string
	Status    ReleaseStatus
}

// Create creates a new project.
func (s *Service) Create(ctx context.Context, tenantID string, req CreateRequest) (*Project, error) {
	name := strings.TrimSpace(req.Name)
	if name == "" {
		return nil, ErrInvalidInput
	}

	id, err := uuid.NewV7()
	if err != nil {
		return nil, fmt.Errorf("generating project id: %w", err)
	}
	proj := &Project{
		ID:          id.String(),
		TenantID:    tenantID,
		Name:        name,
		Description: req.Description,
		CreatedAt:   time.Now(),
	}

	if err := s.repo.Create(ctx, tenantID, proj); err != nil {
		if errors.Is(err, repository.ErrConflict) {
			return nil, fmt.Errorf("%w: project %q", ErrDuplicateName, name)
		}
		return nil, fmt.Errorf("creating project: %w", err)
	}

	return proj, nil
}

// Get fetches a project by ID.
func (s *Service) Get(ctx context.Context, tenantID, id string) (*Project, error) {
	proj, err := s.repo.Get(ctx, tenantID, id)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrProjectNotFound
		}
		return nil, fmt.Errorf("getting project: %w", err)
	}
	return proj, nil
}

// List returns project summaries.
func (s *Service) List(ctx context.Context, tenantID string) ([]ProjectSummary, error) {
	return s.repo.List(ctx, tenantID)
}

// CreateRelease creates a release under an existing project.
func (s *Service) CreateRelease(ctx context.Context, tenantID string, req CreateReleaseRequest) (*Release, error) {
	label := strings.TrimSpace(req.Label)
	if label == "" || strings.TrimSpace(req.ProjectID) == "" {
		return nil, ErrInvalidInput
	}
	status := ReleaseStatus(strings.ToUpper(strings.TrimSpace(string(req.Status))))
	if status == "" {
		status = ReleaseDraft
	}
	if !status.Valid() {
		return nil, fmt.Errorf("%w: unsupported release status %q", ErrInvalidInput, req.Status)
	}

	if _, err := s.Get(ctx, tenantID, req.ProjectID); err != nil {
		return nil, err
	}

	id, err := uuid.NewV7()
	if err != nil {
		return nil, fmt.Errorf("generating release id: %w", err)
	}
	rel := &Release{
		ID:        id.String(),
		TenantID:  tenantID,
		ProjectID: req.ProjectID,
		Label:     label,
		Status:    status,
		CreatedAt: time.Now(),
	}
	if err := s.repo.CreateRelease(ctx, tenantID, rel); err != nil {
		if errors.Is(err, repository.ErrConflict) {
			return nil, fmt.Errorf("%w: release %q", ErrDuplicateName, label)
		}
		return nil, fmt.Errorf("creating release: %w", err)
	}
	return rel, nil
}

// GetRelease fetches a release by ID.
func (s *Service) GetRelease(ctx context.Context, tenantID, id string) (*Release, error) {
	rel, err := s.repo.GetRelease(ctx, tenantID, id)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrReleaseNotFound
		}
		return nil, fmt.Errorf("getting release: %w", err)
	}
	return rel, nil
}

// ListReleases returns the releases of a project.
func (s *Service) ListReleases(ctx context.Context, tenantID, projectID string) ([]Release, error) {
	if _, err := s.Get(ctx, tenantID, projectID); err != nil {
		return nil, err
	}
	return s.repo.ListReleases(ctx, tenantID, projectID)
}
