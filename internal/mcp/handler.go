package mcp

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"reflect"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/rpggio/prdinsights/internal/domain/analysis"
	"github.com/rpggio/prdinsights/internal/domain/document"
	"github.com/rpggio/prdinsights/internal/domain/insight"
	"github.com/rpggio/prdinsights/internal/domain/project"
	"github.com/rpggio/prdinsights/internal/workflow"
)

// Handler dispatches MCP commands.
type Handler struct {
	projects  ProjectService
	documents DocumentService
	analysis  AnalysisService
	insights  InsightService
}

// NewHandler creates a new MCP handler.
func NewHandler(services Services) *Handler {
	return &Handler{
		projects:  services.Projects,
		documents: services.Documents,
		analysis:  services.Analysis,
		insights:  services.Insights,
	}
}

// Handle dispatches MCP requests to domain services.
func (h *Handler) Handle(ctx context.Context, tenantID, method string, params json.RawMessage) (any, error) {
	switch method {
	case "create_project":
		var req CreateProjectParams
		if err := decodeParams(params, &req); err != nil {
			return nil, err
		}
		proj, err := h.projects.Create(ctx, tenantID, project.CreateRequest{
			Name:        req.Name,
			Description: req.Description,
		})
		return result(proj, err)
	case "list_projects":
		projects, err := h.projects.List(ctx, tenantID)
		if projects == nil {
			projects = []project.ProjectSummary{}
		}
		return result(projects, err)
	case "get_project":
		var req GetProjectParams
		if err := decodeParams(params, &req); err != nil {
			return nil, err
		}
		proj, err := h.projects.Get(ctx, tenantID, req.ID)
		if err != nil {
			return nil, mapError(err)
		}
		releases, err := h.projects.ListReleases(ctx, tenantID, proj.ID)
		if err != nil {
			return nil, mapError(err)
		}
		if releases == nil {
			releases = []project.Release{}
		}
		return ProjectResponse{Project: proj, Releases: releases}, nil
	case "create_release":
		var req CreateReleaseParams
		if err := decodeParams(params, &req); err != nil {
			return nil, err
		}
		rel, err := h.projects.CreateRelease(ctx, tenantID, project.CreateReleaseRequest{
			ProjectID: req.ProjectID,
			Label:     req.Label,
			Status:    project.ReleaseStatus(req.Status),
		})
		return result(rel, err)
	case "list_releases":
		var req ListReleasesParams
		if err := decodeParams(params, &req); err != nil {
			return nil, err
		}
		releases, err := h.projects.ListReleases(ctx, tenantID, req.ProjectID)
		if releases == nil {
			releases = []project.Release{}
		}
		return result(releases, err)
	case "ingest_document":
		var req IngestDocumentParams
		if err := decodeParams(params, &req); err != nil {
			return nil, err
		}
		res, err := h.documents.Ingest(ctx, tenantID, document.IngestRequest{
			ProjectID: req.ProjectID,
			ReleaseID: req.ReleaseID,
			Name:      req.Name,
			Type:      document.DocumentType(req.Type),
			Content:   req.Content,
		})
		if err != nil {
			return nil, mapError(err)
		}
		doc := res.Document
		return IngestDocumentResponse{
			Document: document.Summary{
				ID:         doc.ID,
				ProjectID:  doc.ProjectID,
				ReleaseID:  doc.ReleaseID,
				Name:       doc.Name,
				Type:       doc.Type,
				Hash:       doc.Hash,
				ChunkCount: len(doc.Chunks),
				CreatedAt:  doc.CreatedAt,
			},
			Created: res.Created,
		}, nil
	case "get_document":
		var req GetDocumentParams
		if err := decodeParams(params, &req); err != nil {
			return nil, err
		}
		doc, err := h.documents.Get(ctx, tenantID, req.ID)
		return result(doc, err)
	case "list_documents":
		var req ListDocumentsParams
		if err := decodeParams(params, &req); err != nil {
			return nil, err
		}
		docs, err := h.documents.List(ctx, tenantID, document.ListOptions{
			ProjectID: req.ProjectID,
			ReleaseID: req.ReleaseID,
			Limit:     req.Limit,
			Offset:    req.Offset,
		})
		if docs == nil {
			docs = []document.Summary{}
		}
		return result(docs, err)
	case "generate_insights":
		var req GenerateInsightsParams
		if err := decodeParams(params, &req); err != nil {
			return nil, err
		}
		report, err := h.analysis.Generate(ctx, tenantID, analysis.GenerateRequest{
			DocumentID:           req.DocumentID,
			Mode:                 req.Mode,
			MaxReflectionCounter: req.MaxReflectionCounter,
		})
		if err != nil {
			return nil, mapError(err)
		}
		var review strings.Builder
		if err := workflow.RenderReview(&review, report.Insights, report.Concerns); err != nil {
			return nil, fmt.Errorf("rendering review: %w", err)
		}
		return GenerateInsightsResponse{
			Run:      report.Run,
			Insights: report.Insights,
			Concerns: report.Concerns,
			Review:   review.String(),
		}, nil
	case "get_run":
		var req GetRunParams
		if err := decodeParams(params, &req); err != nil {
			return nil, err
		}
		run, err := h.analysis.GetRun(ctx, tenantID, req.ID)
		return result(run, err)
	case "list_runs":
		var req ListRunsParams
		if err := decodeParams(params, &req); err != nil {
			return nil, err
		}
		runs, err := h.analysis.ListRuns(ctx, tenantID, analysis.ListOptions{
			ProjectID:  req.ProjectID,
			ReleaseID:  req.ReleaseID,
			DocumentID: req.DocumentID,
			Status:     analysis.RunStatus(req.Status),
			Limit:      req.Limit,
			Offset:     req.Offset,
		})
		if runs == nil {
			runs = []analysis.Run{}
		}
		return result(runs, err)
	case "list_insights":
		var req ListInsightsParams
		if err := decodeParams(params, &req); err != nil {
			return nil, err
		}
		insights, err := h.insights.ListInsights(ctx, tenantID, req.options())
		if insights == nil {
			insights = []insight.StoredInsight{}
		}
		return result(insights, err)
	case "list_concerns":
		var req ListInsightsParams
		if err := decodeParams(params, &req); err != nil {
			return nil, err
		}
		concerns, err := h.insights.ListConcerns(ctx, tenantID, req.options())
		if concerns == nil {
			concerns = []insight.StoredConcern{}
		}
		return result(concerns, err)
	case "search_insights":
		var req SearchInsightsParams
		if err := decodeParams(params, &req); err != nil {
			return nil, err
		}
		results, err := h.insights.SearchInsights(ctx, tenantID, req.Query, req.options())
		if results == nil {
			results = []insight.SearchResult{}
		}
		return result(results, err)
	case "transition_insight":
		var req TransitionInsightParams
		if err := decodeParams(params, &req); err != nil {
			return nil, err
		}
		in, err := h.insights.TransitionInsight(ctx, tenantID, insight.TransitionInsightRequest{
			ID:       req.ID,
			ToStatus: insight.InsightStatus(req.ToStatus),
		})
		return result(in, err)
	case "transition_concern":
		var req TransitionConcernParams
		if err := decodeParams(params, &req); err != nil {
			return nil, err
		}
		c, err := h.insights.TransitionConcern(ctx, tenantID, insight.TransitionConcernRequest{
			ID:         req.ID,
			ToStatus:   insight.ConcernStatus(req.ToStatus),
			ResolvedBy: req.ResolvedBy,
		})
		return result(c, err)
	default:
		return nil, fmt.Errorf("%w: %s", ErrUnknownMethod, method)
	}
}

// ErrUnknownMethod is returned by Handle for names outside the tool catalog.
var ErrUnknownMethod = errors.New("unknown method")

func result(v any, err error) (any, error) {
	if err != nil {
		return nil, mapError(err)
	}
	return v, nil
}

var validate = newValidator()

func newValidator() *validator.Validate {
	v := validator.New(validator.WithRequiredStructEnabled())
	v.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name, _, _ := strings.Cut(fld.Tag.Get("json"), ",")
		if name == "-" {
			return ""
		}
		return name
	})
	return v
}

// decodeParams unmarshals params into out and checks its validate tags.
func decodeParams(params json.RawMessage, out any) error {
	if len(bytes.TrimSpace(params)) > 0 && !bytes.Equal(bytes.TrimSpace(params), []byte("null")) {
		if err := json.Unmarshal(params, out); err != nil {
			return invalidParams(err)
		}
	}
	if err := validate.Struct(out); err != nil {
		var verrs validator.ValidationErrors
		if !errors.As(err, &verrs) {
			return invalidParams(err)
		}
		parts := make([]string, 0, len(verrs))
		for _, fe := range verrs {
			parts = append(parts, fmt.Sprintf("%s failed %s", fe.Field(), fe.Tag()))
		}
		return invalidParams(errors.New(strings.Join(parts, "; ")))
	}
	return nil
}
