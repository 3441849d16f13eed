// Package app wires repositories, domain services and the workflow together.
package app

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/rpggio/prdinsights/internal/config"
	"github.com/rpggio/prdinsights/internal/domain/analysis"
	"github.com/rpggio/prdinsights/internal/domain/document"
	"github.com/rpggio/prdinsights/internal/domain/insight"
	"github.com/rpggio/prdinsights/internal/domain/project"
	"github.com/rpggio/prdinsights/internal/llm"
	"github.com/rpggio/prdinsights/internal/mcp"
	"github.com/rpggio/prdinsights/internal/sqlite"
	"github.com/rpggio/prdinsights/internal/workflow"
)

// Services holds the concrete domain services.
type Services struct {
	Projects  *project.Service
	Documents *document.Service
	Analysis  *analysis.Service
	Insights  *insight.Service
	APIKeys   *sqlite.APIKeyRepository
}

// MCP returns the services as the MCP layer sees them.
func (s *Services) MCP() mcp.Services {
	return mcp.Services{
		Projects:  s.Projects,
		Documents: s.Documents,
		Analysis:  s.Analysis,
		Insights:  s.Insights,
	}
}

// NewServices builds every domain service over db, running the workflow on model.
func NewServices(db *sqlite.DB, model llm.Model, cfg config.Config, logger *slog.Logger) (*Services, error) {
	chunker, err := document.NewChunker(document.ChunkerConfig{MaxHeaderLevel: cfg.Chunking.MaxHeaderLevel})
	if err != nil {
		return nil, fmt.Errorf("chunker: %w", err)
	}
	mode, err := workflow.ParseMode(cfg.Workflow.Mode)
	if err != nil {
		return nil, fmt.Errorf("workflow mode: %w", err)
	}

	projectRepo := sqlite.NewProjectRepository(db)
	documentRepo := sqlite.NewDocumentRepository(db)
	insightRepo := sqlite.NewInsightRepository(db)
	runRepo := sqlite.NewRunRepository(db)

	projectSvc := project.NewService(projectRepo, logger)
	documentSvc := document.NewService(documentRepo, projectRepo, chunker, logger)
	insightSvc := insight.NewService(insightRepo, logger)

	runner := workflow.New(model, logger, workflow.WithConcurrency(cfg.Workflow.Concurrency))
	analysisSvc := analysis.NewService(runRepo, documentSvc, insightSvc, runner, analysis.Defaults{
		Mode:                 mode,
		MaxReflectionCounter: cfg.Workflow.MaxReflectionCounter,
		ChunkInsightCap:      cfg.Workflow.ChunkInsightCap,
		ChunkConcernCap:      cfg.Workflow.ChunkConcernCap,
	}, logger)

	return &Services{
		Projects:  projectSvc,
		Documents: documentSvc,
		Analysis:  analysisSvc,
		Insights:  insightSvc,
		APIKeys:   sqlite.NewAPIKeyRepository(db),
	}, nil
}

// NewModel builds the configured provider wrapped with metrics, tracing,
// retries and rate limiting.
func NewModel(ctx context.Context, cfg config.LLMConfig, logger *slog.Logger) (llm.Model, error) {
	provider, err := llm.NewProvider(ctx, llm.ProviderConfig{
		Platform: cfg.Platform,
		Model:    cfg.Model,
		BaseURL:  cfg.BaseURL,
		APIKey:   cfg.APIKey,
	})
	if err != nil {
		return nil, fmt.Errorf("llm provider: %w", err)
	}
	platform, _ := llm.ParsePlatform(cfg.Platform)

	return llm.NewResilient(
		llm.Instrument(llm.NewLangChainModel(provider), string(platform)),
		llm.WithRetry(llm.RetryConfig{
			MaxAttempts:     cfg.MaxAttempts,
			InitialInterval: cfg.InitialBackoff,
			MaxInterval:     cfg.MaxBackoff,
			MaxElapsed:      cfg.MaxElapsed,
			Timeout:         cfg.Timeout,
		}),
		llm.WithRateLimit(cfg.RequestsPerSecond, cfg.Burst),
		llm.WithLogger(logger),
	), nil
}
