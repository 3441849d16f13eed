package mcp

import (
	"github.com/rpggio/prdinsights/internal/domain/analysis"
	"github.com/rpggio/prdinsights/internal/domain/document"
	"github.com/rpggio/prdinsights/internal/domain/insight"
	"github.com/rpggio/prdinsights/internal/domain/project"
)

// Projects and releases

type CreateProjectParams struct {
	Name        string `json:"name" validate:"required"`
	Description string `json:"description,omitempty"`
}

type GetProjectParams struct {
	ID string `json:"id" validate:"required"`
}

type CreateReleaseParams struct {
	ProjectID string `json:"project_id" validate:"required"`
	Label     string `json:"label" validate:"required"`
	Status    string `json:"status,omitempty"`
}

type ListReleasesParams struct {
	ProjectID string `json:"project_id" validate:"required"`
}

type ProjectResponse struct {
	Project  *project.Project  `json:"project"`
	Releases []project.Release `json:"releases"`
}

// Documents

type IngestDocumentParams struct {
	ProjectID string `json:"project_id" validate:"required"`
	ReleaseID string `json:"release_id" validate:"required"`
	Name      string `json:"name,omitempty"`
	Type      string `json:"type,omitempty"`
	Content   string `json:"content" validate:"required"`
}

type IngestDocumentResponse struct {
	Document document.Summary `json:"document"`
	Created  bool             `json:"created"`
}

type GetDocumentParams struct {
	ID string `json:"id" validate:"required"`
}

type ListDocumentsParams struct {
	ProjectID string `json:"project_id,omitempty"`
	ReleaseID string `json:"release_id,omitempty"`
	Limit     int    `json:"limit,omitempty" validate:"gte=0"`
	Offset    int    `json:"offset,omitempty" validate:"gte=0"`
}

// Analysis runs

type GenerateInsightsParams struct {
	DocumentID           string `json:"document_id" validate:"required"`
	Mode                 string `json:"mode,omitempty" validate:"omitempty,oneof=document chunked"`
	MaxReflectionCounter *int   `json:"max_reflection_counter,omitempty" validate:"omitempty,gte=0"`
}

type GenerateInsightsResponse struct {
	Run      *analysis.Run     `json:"run"`
	Insights []insight.Insight `json:"insights"`
	Concerns []insight.Concern `json:"concerns"`
	// Review is the markdown rendering of the reviewed results.
	Review string `json:"review"`
}

type GetRunParams struct {
	ID string `json:"id" validate:"required"`
}

type ListRunsParams struct {
	ProjectID  string `json:"project_id,omitempty"`
	ReleaseID  string `json:"release_id,omitempty"`
	DocumentID string `json:"document_id,omitempty"`
	Status     string `json:"status,omitempty"`
	Limit      int    `json:"limit,omitempty" validate:"gte=0"`
	Offset     int    `json:"offset,omitempty" validate:"gte=0"`
}

// Insights and concerns

type ListInsightsParams struct {
	ProjectID  string `json:"project_id,omitempty"`
	ReleaseID  string `json:"release_id,omitempty"`
	DocumentID string `json:"document_id,omitempty"`
	RunID      string `json:"run_id,omitempty"`
	Status     string `json:"status,omitempty"`
	Limit      int    `json:"limit,omitempty" validate:"gte=0"`
	Offset     int    `json:"offset,omitempty" validate:"gte=0"`
}

func (p ListInsightsParams) options() insight.ListOptions {
	return insight.ListOptions{
		ProjectID:  p.ProjectID,
		ReleaseID:  p.ReleaseID,
		DocumentID: p.DocumentID,
		RunID:      p.RunID,
		Status:     p.Status,
		Limit:      p.Limit,
		Offset:     p.Offset,
	}
}

type SearchInsightsParams struct {
	Query string `json:"query" validate:"required"`
	ListInsightsParams
}

type TransitionInsightParams struct {
	ID       string `json:"id" validate:"required"`
	ToStatus string `json:"to_status" validate:"required"`
}

type TransitionConcernParams struct {
	ID         string  `json:"id" validate:"required"`
	ToStatus   string  `json:"to_status" validate:"required"`
	ResolvedBy *string `json:"resolved_by,omitempty"`
}
