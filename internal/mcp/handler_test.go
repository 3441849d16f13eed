package mcp

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"testing"

	"github.com/rpggio/prdinsights/internal/domain/analysis"
	"github.com/rpggio/prdinsights/internal/domain/document"
	"github.com/rpggio/prdinsights/internal/domain/insight"
	"github.com/rpggio/prdinsights/internal/domain/project"
	"github.com/rpggio/prdinsights/internal/llm"
	"github.com/stretchr/testify/require"
)

type projectStub struct {
	createFn        func(context.Context, string, project.CreateRequest) (*project.Project, error)
	listFn          func(context.Context, string) ([]project.ProjectSummary, error)
	getFn           func(context.Context, string, string) (*project.Project, error)
	createReleaseFn func(context.Context, string, project.CreateReleaseRequest) (*project.Release, error)
	listReleasesFn  func(context.Context, string, string) ([]project.Release, error)
}

func (p projectStub) Create(ctx context.Context, tenantID string, req project.CreateRequest) (*project.Project, error) {
	return p.createFn(ctx, tenantID, req)
}
func (p projectStub) List(ctx context.Context, tenantID string) ([]project.ProjectSummary, error) {
	return p.listFn(ctx, tenantID)
}
func (p projectStub) Get(ctx context.Context, tenantID, id string) (*project.Project, error) {
	return p.getFn(ctx, tenantID, id)
}
func (p projectStub) CreateRelease(ctx context.Context, tenantID string, req project.CreateReleaseRequest) (*project.Release, error) {
	return p.createReleaseFn(ctx, tenantID, req)
}
func (p projectStub) ListReleases(ctx context.Context, tenantID, projectID string) ([]project.Release, error) {
	return p.listReleasesFn(ctx, tenantID, projectID)
}

type documentStub struct {
	ingestFn func(context.Context, string, document.IngestRequest) (*document.IngestResult, error)
	getFn    func(context.Context, string, string) (*document.Document, error)
	listFn   func(context.Context, string, document.ListOptions) ([]document.Summary, error)
}

func (d documentStub) Ingest(ctx context.Context, tenantID string, req document.IngestRequest) (*document.IngestResult, error) {
	return d.ingestFn(ctx, tenantID, req)
}
func (d documentStub) Get(ctx context.Context, tenantID, id string) (*document.Document, error) {
	return d.getFn(ctx, tenantID, id)
}
func (d documentStub) List(ctx context.Context, tenantID string, opts document.ListOptions) ([]document.Summary, error) {
	return d.listFn(ctx, tenantID, opts)
}

type analysisStub struct {
	generateFn func(context.Context, string, analysis.GenerateRequest) (*analysis.Report, error)
	getRunFn   func(context.Context, string, string) (*analysis.Run, error)
	listRunsFn func(context.Context, string, analysis.ListOptions) ([]analysis.Run, error)
}

func (a analysisStub) Generate(ctx context.Context, tenantID string, req analysis.GenerateRequest) (*analysis.Report, error) {
	return a.generateFn(ctx, tenantID, req)
}
func (a analysisStub) GetRun(ctx context.Context, tenantID, id string) (*analysis.Run, error) {
	return a.getRunFn(ctx, tenantID, id)
}
func (a analysisStub) ListRuns(ctx context.Context, tenantID string, opts analysis.ListOptions) ([]analysis.Run, error) {
	return a.listRunsFn(ctx, tenantID, opts)
}

type insightStub struct {
	listInsightsFn      func(context.Context, string, insight.ListOptions) ([]insight.StoredInsight, error)
	listConcernsFn      func(context.Context, string, insight.ListOptions) ([]insight.StoredConcern, error)
	searchFn            func(context.Context, string, string, insight.ListOptions) ([]insight.SearchResult, error)
	transitionInsightFn func(context.Context, string, insight.TransitionInsightRequest) (*insight.StoredInsight, error)
	transitionConcernFn func(context.Context, string, insight.TransitionConcernRequest) (*insight.StoredConcern, error)
}

func (i insightStub) ListInsights(ctx context.Context, tenantID string, opts insight.ListOptions) ([]insight.StoredInsight, error) {
	return i.listInsightsFn(ctx, tenantID, opts)
}
func (i insightStub) ListConcerns(ctx context.Context, tenantID string, opts insight.ListOptions) ([]insight.StoredConcern, error) {
	return i.listConcernsFn(ctx, tenantID, opts)
}
func (i insightStub) SearchInsights(ctx context.Context, tenantID, query string, opts insight.ListOptions) ([]insight.SearchResult, error) {
	return i.searchFn(ctx, tenantID, query, opts)
}
func (i insightStub) TransitionInsight(ctx context.Context, tenantID string, req insight.TransitionInsightRequest) (*insight.StoredInsight, error) {
	return i.transitionInsightFn(ctx, tenantID, req)
}
func (i insightStub) TransitionConcern(ctx context.Context, tenantID string, req insight.TransitionConcernRequest) (*insight.StoredConcern, error) {
	return i.transitionConcernFn(ctx, tenantID, req)
}

func mustJSON(t *testing.T, v any) json.RawMessage {
	t.Helper()
	data, err := json.Marshal(v)
	require.NoError(t, err)
	return data
}

func requireAPIError(t *testing.T, err error, code string) {
	t.Helper()
	var apiErr *APIError
	require.True(t, errors.As(err, &apiErr), "expected APIError, got %v", err)
	require.Equal(t, code, apiErr.Code)
}

func TestHandler_ProjectCommands(t *testing.T) {
	ctx := context.Background()
	var gotRelease project.CreateReleaseRequest

	handler := NewHandler(Services{Projects: projectStub{
		createFn: func(_ context.Context, tenantID string, req project.CreateRequest) (*project.Project, error) {
			require.Equal(t, "tenant1", tenantID)
			return &project.Project{ID: "p1", Name: req.Name}, nil
		},
		listFn: func(context.Context, string) ([]project.ProjectSummary, error) {
			return nil, nil
		},
		getFn: func(_ context.Context, _ string, id string) (*project.Project, error) {
			if id != "p1" {
				return nil, project.ErrProjectNotFound
			}
			return &project.Project{ID: id, Name: "Checkout"}, nil
		},
		createReleaseFn: func(_ context.Context, _ string, req project.CreateReleaseRequest) (*project.Release, error) {
			gotRelease = req
			return &project.Release{ID: "r1", ProjectID: req.ProjectID, Label: req.Label}, nil
		},
		listReleasesFn: func(context.Context, string, string) ([]project.Release, error) {
			return []project.Release{{ID: "r1", ProjectID: "p1", Label: "v1"}}, nil
		},
	}})

	out, err := handler.Handle(ctx, "tenant1", "create_project", mustJSON(t, CreateProjectParams{Name: "Checkout"}))
	require.NoError(t, err)
	require.Equal(t, "Checkout", out.(*project.Project).Name)

	out, err = handler.Handle(ctx, "tenant1", "list_projects", nil)
	require.NoError(t, err)
	require.NotNil(t, out)
	require.Empty(t, out)

	out, err = handler.Handle(ctx, "tenant1", "get_project", mustJSON(t, GetProjectParams{ID: "p1"}))
	require.NoError(t, err)
	require.Len(t, out.(ProjectResponse).Releases, 1)

	_, err = handler.Handle(ctx, "tenant1", "get_project", mustJSON(t, GetProjectParams{ID: "nope"}))
	requireAPIError(t, err, "PROJECT_NOT_FOUND")

	_, err = handler.Handle(ctx, "tenant1", "create_release", mustJSON(t, CreateReleaseParams{ProjectID: "p1", Label: "v1", Status: "in_review"}))
	require.NoError(t, err)
	require.Equal(t, project.ReleaseStatus("in_review"), gotRelease.Status)
}

func TestHandler_InvalidParams(t *testing.T) {
	handler := NewHandler(Services{})
	ctx := context.Background()

	tests := []struct {
		method string
		params json.RawMessage
	}{
		{"create_project", json.RawMessage(`{}`)},
		{"create_project", json.RawMessage(`{"name": 3}`)},
		{"create_release", json.RawMessage(`{"project_id": "p1"}`)},
		{"ingest_document", json.RawMessage(`{"project_id": "p1", "release_id": "r1"}`)},
		{"generate_insights", json.RawMessage(`{"document_id": "d1", "mode": "batch"}`)},
		{"generate_insights", json.RawMessage(`{"document_id": "d1", "max_reflection_counter": -1}`)},
		{"list_documents", json.RawMessage(`{"limit": -5}`)},
		{"search_insights", nil},
		{"transition_concern", json.RawMessage(`{"id": "c1"}`)},
	}

	for _, tt := range tests {
		t.Run(fmt.Sprintf("%s %s", tt.method, tt.params), func(t *testing.T) {
			_, err := handler.Handle(ctx, "tenant1", tt.method, tt.params)
			requireAPIError(t, err, "INVALID_PARAMS")
		})
	}
}

func TestHandler_UnknownMethod(t *testing.T) {
	_, err := NewHandler(Services{}).Handle(context.Background(), "tenant1", "delete_everything", nil)
	require.ErrorIs(t, err, ErrUnknownMethod)
}

func TestHandler_DocumentCommands(t *testing.T) {
	ctx := context.Background()
	var gotIngest document.IngestRequest

	handler := NewHandler(Services{Documents: documentStub{
		ingestFn: func(_ context.Context, _ string, req document.IngestRequest) (*document.IngestResult, error) {
			gotIngest = req
			return &document.IngestResult{
				Document: &document.Document{
					ID:        "d1",
					ProjectID: req.ProjectID,
					ReleaseID: req.ReleaseID,
					Type:      document.TypePRD,
					Content:   req.Content,
					Chunks:    []document.Chunk{{Index: 0}, {Index: 1}},
				},
				Created: true,
			}, nil
		},
		getFn: func(context.Context, string, string) (*document.Document, error) {
			return nil, document.ErrDocumentNotFound
		},
		listFn: func(_ context.Context, _ string, opts document.ListOptions) ([]document.Summary, error) {
			require.Equal(t, 10, opts.Limit)
			return []document.Summary{{ID: "d1"}}, nil
		},
	}})

	out, err := handler.Handle(ctx, "tenant1", "ingest_document", mustJSON(t, IngestDocumentParams{
		ProjectID: "p1",
		ReleaseID: "r1",
		Type:      "prd",
		Content:   "# Checkout\n\n## Guest\n",
	}))
	require.NoError(t, err)
	resp := out.(IngestDocumentResponse)
	require.True(t, resp.Created)
	require.Equal(t, 2, resp.Document.ChunkCount)
	require.Equal(t, document.DocumentType("prd"), gotIngest.Type)

	_, err = handler.Handle(ctx, "tenant1", "get_document", mustJSON(t, GetDocumentParams{ID: "missing"}))
	requireAPIError(t, err, "DOCUMENT_NOT_FOUND")

	out, err = handler.Handle(ctx, "tenant1", "list_documents", json.RawMessage(`{"limit": 10}`))
	require.NoError(t, err)
	require.Len(t, out, 1)
}

func TestHandler_GenerateInsights(t *testing.T) {
	ctx := context.Background()
	var gotReq analysis.GenerateRequest

	handler := NewHandler(Services{Analysis: analysisStub{
		generateFn: func(_ context.Context, _ string, req analysis.GenerateRequest) (*analysis.Report, error) {
			gotReq = req
			if req.DocumentID == "down" {
				return nil, fmt.Errorf("%w: %w", analysis.ErrRunFailed, llm.ErrUnavailable)
			}
			return &analysis.Report{
				Run: &analysis.Run{ID: "run1", Status: analysis.RunCompleted, InsightCount: 1},
				Insights: []insight.Insight{{
					ID:               "i1",
					Title:            "Guest checkout",
					Description:      "Shoppers pay without an account",
					FlowType:         insight.FlowUser,
					Priority:         insight.PriorityP1,
					ExpectedOutcomes: []string{"Order placed"},
					Status:           insight.StatusProposed,
					ConfidenceLevel:  insight.ConfidenceHigh,
				}},
			}, nil
		},
		getRunFn: func(context.Context, string, string) (*analysis.Run, error) {
			return nil, analysis.ErrRunNotFound
		},
	}})

	rounds := 1
	out, err := handler.Handle(ctx, "tenant1", "generate_insights", mustJSON(t, GenerateInsightsParams{
		DocumentID:           "d1",
		Mode:                 "chunked",
		MaxReflectionCounter: &rounds,
	}))
	require.NoError(t, err)
	resp := out.(GenerateInsightsResponse)
	require.Equal(t, "run1", resp.Run.ID)
	require.Contains(t, resp.Review, "### 1. Guest checkout")
	require.Equal(t, "chunked", gotReq.Mode)
	require.Equal(t, 1, *gotReq.MaxReflectionCounter)

	_, err = handler.Handle(ctx, "tenant1", "generate_insights", mustJSON(t, GenerateInsightsParams{DocumentID: "down"}))
	requireAPIError(t, err, "LLM_UNAVAILABLE")

	_, err = handler.Handle(ctx, "tenant1", "get_run", mustJSON(t, GetRunParams{ID: "x"}))
	requireAPIError(t, err, "RUN_NOT_FOUND")
}

func TestHandler_InsightCommands(t *testing.T) {
	ctx := context.Background()
	var gotOpts insight.ListOptions
	var gotQuery string

	handler := NewHandler(Services{Insights: insightStub{
		listInsightsFn: func(_ context.Context, _ string, opts insight.ListOptions) ([]insight.StoredInsight, error) {
			gotOpts = opts
			return nil, nil
		},
		listConcernsFn: func(context.Context, string, insight.ListOptions) ([]insight.StoredConcern, error) {
			return []insight.StoredConcern{{}}, nil
		},
		searchFn: func(_ context.Context, _ string, query string, _ insight.ListOptions) ([]insight.SearchResult, error) {
			gotQuery = query
			return []insight.SearchResult{{Snippet: "[guest]"}}, nil
		},
		transitionInsightFn: func(context.Context, string, insight.TransitionInsightRequest) (*insight.StoredInsight, error) {
			return nil, fmt.Errorf("%w: APPROVED -> REJECTED", insight.ErrInvalidTransition)
		},
		transitionConcernFn: func(_ context.Context, _ string, req insight.TransitionConcernRequest) (*insight.StoredConcern, error) {
			if req.ResolvedBy == nil {
				return nil, insight.ErrMissingResolvedBy
			}
			return &insight.StoredConcern{ResolvedBy: req.ResolvedBy}, nil
		},
	}})

	out, err := handler.Handle(ctx, "tenant1", "list_insights", mustJSON(t, ListInsightsParams{RunID: "run1", Status: "PROPOSED"}))
	require.NoError(t, err)
	require.NotNil(t, out)
	require.Equal(t, "run1", gotOpts.RunID)
	require.Equal(t, "PROPOSED", gotOpts.Status)

	out, err = handler.Handle(ctx, "tenant1", "list_concerns", nil)
	require.NoError(t, err)
	require.Len(t, out, 1)

	out, err = handler.Handle(ctx, "tenant1", "search_insights", json.RawMessage(`{"query": "guest", "project_id": "p1"}`))
	require.NoError(t, err)
	require.Equal(t, "guest", gotQuery)
	require.Len(t, out, 1)

	_, err = handler.Handle(ctx, "tenant1", "transition_insight", mustJSON(t, TransitionInsightParams{ID: "i1", ToStatus: "REJECTED"}))
	requireAPIError(t, err, "INVALID_TRANSITION")

	_, err = handler.Handle(ctx, "tenant1", "transition_concern", mustJSON(t, TransitionConcernParams{ID: "c1", ToStatus: "RESOLVED"}))
	requireAPIError(t, err, "MISSING_RESOLVED_BY")

	who := "pm@example.com"
	out, err = handler.Handle(ctx, "tenant1", "transition_concern", mustJSON(t, TransitionConcernParams{ID: "c1", ToStatus: "RESOLVED", ResolvedBy: &who}))
	require.NoError(t, err)
	require.Equal(t, who, *out.(*insight.StoredConcern).ResolvedBy)
}

func TestMapError(t *testing.T) {
	require.Nil(t, MapError(nil))
	require.Nil(t, MapError(errors.New("boom")))
	require.Equal(t, "RELEASE_NOT_FOUND", MapError(document.ErrReleaseNotFound).Code)
	require.Equal(t, "DUPLICATE_NAME", MapError(fmt.Errorf("create: %w", project.ErrDuplicateName)).Code)
	require.Equal(t, "RUN_FAILED", MapError(fmt.Errorf("%w: extract: bad", analysis.ErrRunFailed)).Code)
	require.Equal(t, "INVALID_INPUT", MapError(analysis.ErrInvalidInput).Code)
}
