package mocks

import (
	"context"
	"time"

	"github.com/rpggio/prdinsights/internal/domain/analysis"
	"github.com/rpggio/prdinsights/internal/domain/document"
	"github.com/rpggio/prdinsights/internal/domain/insight"
	"github.com/rpggio/prdinsights/internal/domain/project"
	"github.com/rpggio/prdinsights/internal/workflow"
	"github.com/stretchr/testify/mock"
)

// ProjectRepository is a mock for project.Repository.
type ProjectRepository struct {
	mock.Mock
}

func (m *ProjectRepository) Create(ctx context.Context, tenantID string, proj *project.Project) error {
	args := m.Called(ctx, tenantID, proj)
	return args.Error(0)
}

func (m *ProjectRepository) Get(ctx context.Context, tenantID, id string) (*project.Project, error) {
	args := m.Called(ctx, tenantID, id)
	if proj, ok := args.Get(0).(*project.Project); ok {
		return proj, args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *ProjectRepository) List(ctx context.Context, tenantID string) ([]project.ProjectSummary, error) {
	args := m.Called(ctx, tenantID)
	if list, ok := args.Get(0).([]project.ProjectSummary); ok {
		return list, args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *ProjectRepository) CreateRelease(ctx context.Context, tenantID string, rel *project.Release) error {
	args := m.Called(ctx, tenantID, rel)
	return args.Error(0)
}

func (m *ProjectRepository) GetRelease(ctx context.Context, tenantID, id string) (*project.Release, error) {
	args := m.Called(ctx, tenantID, id)
	if rel, ok := args.Get(0).(*project.Release); ok {
		return rel, args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *ProjectRepository) ListReleases(ctx context.Context, tenantID, projectID string) ([]project.Release, error) {
	args := m.Called(ctx, tenantID, projectID)
	if list, ok := args.Get(0).([]project.Release); ok {
		return list, args.Error(1)
	}
	return nil, args.Error(1)
}

// DocumentRepository is a mock for document.Repository.
type DocumentRepository struct {
	mock.Mock
}

func (m *DocumentRepository) Create(ctx context.Context, tenantID string, doc *document.Document) error {
	args := m.Called(ctx, tenantID, doc)
	return args.Error(0)
}

func (m *DocumentRepository) Get(ctx context.Context, tenantID, id string) (*document.Document, error) {
	args := m.Called(ctx, tenantID, id)
	if doc, ok := args.Get(0).(*document.Document); ok {
		return doc, args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *DocumentRepository) FindByHash(ctx context.Context, tenantID, projectID, releaseID, hash string) (*document.Document, error) {
	args := m.Called(ctx, tenantID, projectID, releaseID, hash)
	if doc, ok := args.Get(0).(*document.Document); ok {
		return doc, args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *DocumentRepository) List(ctx context.Context, tenantID string, opts document.ListOptions) ([]document.Summary, error) {
	args := m.Called(ctx, tenantID, opts)
	if list, ok := args.Get(0).([]document.Summary); ok {
		return list, args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *DocumentRepository) UpsertChunks(ctx context.Context, documentID string, chunks []document.Chunk) error {
	args := m.Called(ctx, documentID, chunks)
	return args.Error(0)
}

func (m *DocumentRepository) ListChunks(ctx context.Context, documentID string) ([]document.Chunk, error) {
	args := m.Called(ctx, documentID)
	if list, ok := args.Get(0).([]document.Chunk); ok {
		return list, args.Error(1)
	}
	return nil, args.Error(1)
}

// InsightRepository is a mock for insight.Repository.
type InsightRepository struct {
	mock.Mock
}

func (m *InsightRepository) SaveBatch(ctx context.Context, tenantID string, batch insight.Batch, createdAt time.Time) error {
	args := m.Called(ctx, tenantID, batch, createdAt)
	return args.Error(0)
}

func (m *InsightRepository) GetInsight(ctx context.Context, tenantID, id string) (*insight.StoredInsight, error) {
	args := m.Called(ctx, tenantID, id)
	if in, ok := args.Get(0).(*insight.StoredInsight); ok {
		return in, args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *InsightRepository) GetConcern(ctx context.Context, tenantID, id string) (*insight.StoredConcern, error) {
	args := m.Called(ctx, tenantID, id)
	if c, ok := args.Get(0).(*insight.StoredConcern); ok {
		return c, args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *InsightRepository) ListInsights(ctx context.Context, tenantID string, opts insight.ListOptions) ([]insight.StoredInsight, error) {
	args := m.Called(ctx, tenantID, opts)
	if list, ok := args.Get(0).([]insight.StoredInsight); ok {
		return list, args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *InsightRepository) ListConcerns(ctx context.Context, tenantID string, opts insight.ListOptions) ([]insight.StoredConcern, error) {
	args := m.Called(ctx, tenantID, opts)
	if list, ok := args.Get(0).([]insight.StoredConcern); ok {
		return list, args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *InsightRepository) UpdateInsightStatus(ctx context.Context, tenantID, id string, status insight.InsightStatus, modifiedAt time.Time) error {
	args := m.Called(ctx, tenantID, id, status, modifiedAt)
	return args.Error(0)
}

func (m *InsightRepository) UpdateConcernStatus(ctx context.Context, tenantID, id string, status insight.ConcernStatus, resolvedBy *string, modifiedAt time.Time) error {
	args := m.Called(ctx, tenantID, id, status, resolvedBy, modifiedAt)
	return args.Error(0)
}

func (m *InsightRepository) SearchInsights(ctx context.Context, tenantID, query string, opts insight.ListOptions) ([]insight.SearchResult, error) {
	args := m.Called(ctx, tenantID, query, opts)
	if list, ok := args.Get(0).([]insight.SearchResult); ok {
		return list, args.Error(1)
	}
	return nil, args.Error(1)
}

// RunRepository is a mock for analysis.RunRepository.
type RunRepository struct {
	mock.Mock
}

func (m *RunRepository) Create(ctx context.Context, tenantID string, run *analysis.Run) error {
	args := m.Called(ctx, tenantID, run)
	return args.Error(0)
}

func (m *RunRepository) Update(ctx context.Context, tenantID string, run *analysis.Run) error {
	args := m.Called(ctx, tenantID, run)
	return args.Error(0)
}

func (m *RunRepository) Get(ctx context.Context, tenantID, id string) (*analysis.Run, error) {
	args := m.Called(ctx, tenantID, id)
	if run, ok := args.Get(0).(*analysis.Run); ok {
		return run, args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *RunRepository) List(ctx context.Context, tenantID string, opts analysis.ListOptions) ([]analysis.Run, error) {
	args := m.Called(ctx, tenantID, opts)
	if list, ok := args.Get(0).([]analysis.Run); ok {
		return list, args.Error(1)
	}
	return nil, args.Error(1)
}

// InsightStore is a mock for analysis.InsightStore.
type InsightStore struct {
	mock.Mock
}

func (m *InsightStore) SaveBatch(ctx context.Context, tenantID string, batch insight.Batch) error {
	args := m.Called(ctx, tenantID, batch)
	return args.Error(0)
}

// Runner is a mock for analysis.Runner.
type Runner struct {
	mock.Mock
}

func (m *Runner) Run(ctx context.Context, in workflow.Input) (*workflow.Result, error) {
	args := m.Called(ctx, in)
	if res, ok := args.Get(0).(*workflow.Result); ok {
		return res, args.Error(1)
	}
	return nil, args.Error(1)
}
