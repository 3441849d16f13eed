package mcp

import (
	"context"
	"log/slog"

	sdkmcp "github.com/modelcontextprotocol/go-sdk/mcp"
	"github.com/rpggio/prdinsights/internal/domain/analysis"
	"github.com/rpggio/prdinsights/internal/domain/document"
	"github.com/rpggio/prdinsights/internal/domain/insight"
	"github.com/rpggio/prdinsights/internal/domain/project"
)

// DefaultTenant is used when authentication is disabled.
const DefaultTenant = "default"

// ProjectService defines project operations needed by MCP.
type ProjectService interface {
	Create(ctx context.Context, tenantID string, req project.CreateRequest) (*project.Project, error)
	List(ctx context.Context, tenantID string) ([]project.ProjectSummary, error)
	Get(ctx context.Context, tenantID, id string) (*project.Project, error)
	CreateRelease(ctx context.Context, tenantID string, req project.CreateReleaseRequest) (*project.Release, error)
	ListReleases(ctx context.Context, tenantID, projectID string) ([]project.Release, error)
}

// DocumentService defines document operations needed by MCP.
type DocumentService interface {
	Ingest(ctx context.Context, tenantID string, req document.IngestRequest) (*document.IngestResult, error)
	Get(ctx context.Context, tenantID, id string) (*document.Document, error)
	List(ctx context.Context, tenantID string, opts document.ListOptions) ([]document.Summary, error)
}

// AnalysisService defines analysis run operations needed by MCP.
type AnalysisService interface {
	Generate(ctx context.Context, tenantID string, req analysis.GenerateRequest) (*analysis.Report, error)
	GetRun(ctx context.Context, tenantID, id string) (*analysis.Run, error)
	ListRuns(ctx context.Context, tenantID string, opts analysis.ListOptions) ([]analysis.Run, error)
}

// InsightService defines insight and concern operations needed by MCP.
type InsightService interface {
	ListInsights(ctx context.Context, tenantID string, opts insight.ListOptions) ([]insight.StoredInsight, error)
	ListConcerns(ctx context.Context, tenantID string, opts insight.ListOptions) ([]insight.StoredConcern, error)
	SearchInsights(ctx context.Context, tenantID, query string, opts insight.ListOptions) ([]insight.SearchResult, error)
	TransitionInsight(ctx context.Context, tenantID string, req insight.TransitionInsightRequest) (*insight.StoredInsight, error)
	TransitionConcern(ctx context.Context, tenantID string, req insight.TransitionConcernRequest) (*insight.StoredConcern, error)
}

// Services contains all domain services needed by MCP.
type Services struct {
	Projects  ProjectService
	Documents DocumentService
	Analysis  AnalysisService
	Insights  InsightService
}

// Config contains server configuration.
type Config struct {
	Services      Services
	Resolver      TenantResolver
	AuthEnabled   bool
	TransportMode string // "stdio" or "http"
	Version       string
	Logger        *slog.Logger
}

// NewServer creates and configures an MCP server with all tools and middleware.
func NewServer(cfg Config) *sdkmcp.Server {
	version := cfg.Version
	if version == "" {
		version = "dev"
	}
	server := sdkmcp.NewServer(&sdkmcp.Implementation{
		Name:    "prdinsights",
		Version: version,
	}, &sdkmcp.ServerOptions{
		Instructions: serverInstructions,
		Logger:       cfg.Logger,
	})

	registerDocResources(server)

	// Stdio is local-only and always runs as the default tenant.
	if cfg.TransportMode != "stdio" && cfg.AuthEnabled {
		server.AddReceivingMiddleware(authMiddleware(cfg.Resolver))
	} else {
		server.AddReceivingMiddleware(noAuthMiddleware(DefaultTenant))
	}
	server.AddReceivingMiddleware(trafficLoggingMiddleware(cfg.Logger, "inbound"))
	server.AddSendingMiddleware(trafficLoggingMiddleware(cfg.Logger, "outbound"))

	registerTools(server, NewHandler(cfg.Services))

	return server
}
