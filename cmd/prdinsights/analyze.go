package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/rpggio/prdinsights/internal/app"
	"github.com/rpggio/prdinsights/internal/config"
	"github.com/rpggio/prdinsights/internal/domain/analysis"
	"github.com/rpggio/prdinsights/internal/domain/document"
	"github.com/rpggio/prdinsights/internal/domain/project"
	"github.com/rpggio/prdinsights/internal/mcp"
	"github.com/rpggio/prdinsights/internal/workflow"
	"github.com/spf13/cobra"
)

type analyzeOptions struct {
	project     string
	release     string
	docType     string
	mode        string
	reflections int
	tenant      string
}

func analyzeCmd() *cobra.Command {
	opts := analyzeOptions{}

	cmd := &cobra.Command{
		Use:   "analyze <file>",
		Short: "Ingest a document, run the insight workflow and print the review",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load()
			if err != nil {
				return err
			}
			if !cmd.Flags().Changed("reflections") {
				opts.reflections = -1
			}
			return analyze(cmd.Context(), cfg, args[0], opts, cmd.OutOrStdout())
		},
	}

	cmd.Flags().StringVar(&opts.project, "project", "default", "Project name; created when missing")
	cmd.Flags().StringVar(&opts.release, "release", "draft", "Release label; created when missing")
	cmd.Flags().StringVar(&opts.docType, "type", "PRD", "Document type (PRD, ADR, DB_SCHEMA, API_SPEC, OTHER)")
	cmd.Flags().StringVar(&opts.mode, "mode", "", "Workflow mode (document, chunked); defaults to config")
	cmd.Flags().IntVar(&opts.reflections, "reflections", 0, "Reflection rounds; defaults to config")
	cmd.Flags().StringVar(&opts.tenant, "tenant", mcp.DefaultTenant, "Tenant the results are stored under")
	return cmd
}

func analyze(ctx context.Context, cfg config.Config, path string, opts analyzeOptions, out io.Writer) error {
	logger, closeLog, err := newLogger(cfg, true)
	if err != nil {
		return err
	}
	defer closeLog()

	stopTracing, err := setupTracing(ctx, cfg, logger)
	if err != nil {
		return err
	}
	defer stopTracing()

	content, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("read document: %w", err)
	}

	db, err := openDB(cfg.DB.Path)
	if err != nil {
		return err
	}
	defer db.Close()

	model, err := newModel(ctx, cfg.LLM, logger)
	if err != nil {
		return err
	}
	services, err := app.NewServices(db, model, cfg, logger)
	if err != nil {
		return err
	}

	rel, err := ensureRelease(ctx, services.Projects, opts.tenant, opts.project, opts.release)
	if err != nil {
		return err
	}

	ingested, err := services.Documents.Ingest(ctx, opts.tenant, document.IngestRequest{
		ProjectID: rel.ProjectID,
		ReleaseID: rel.ID,
		Name:      filepath.Base(path),
		Type:      document.DocumentType(opts.docType),
		Content:   string(content),
	})
	if err != nil {
		return fmt.Errorf("ingest document: %w", err)
	}

	req := analysis.GenerateRequest{DocumentID: ingested.Document.ID, Mode: opts.mode}
	if opts.reflections >= 0 {
		req.MaxReflectionCounter = &opts.reflections
	}
	report, err := services.Analysis.Generate(ctx, opts.tenant, req)
	if err != nil {
		return err
	}

	logger.Info("analysis complete",
		"run_id", report.Run.ID,
		"document_id", report.Run.DocumentID,
		"insights", report.Run.InsightCount,
		"concerns", report.Run.ConcernCount,
		"failed_chunks", report.Run.FailedChunks,
	)
	return workflow.RenderReview(out, report.Insights, report.Concerns)
}

// ensureRelease finds the project and release by name, creating them when missing.
func ensureRelease(ctx context.Context, projects *project.Service, tenantID, projectName, label string) (*project.Release, error) {
	summaries, err := projects.List(ctx, tenantID)
	if err != nil {
		return nil, err
	}
	projectID := ""
	for _, s := range summaries {
		if s.Name == projectName {
			projectID = s.ID
			break
		}
	}
	if projectID == "" {
		proj, err := projects.Create(ctx, tenantID, project.CreateRequest{Name: projectName})
		if err != nil {
			return nil, fmt.Errorf("create project: %w", err)
		}
		projectID = proj.ID
	}

	releases, err := projects.ListReleases(ctx, tenantID, projectID)
	if err != nil {
		return nil, err
	}
	for i := range releases {
		if releases[i].Label == label {
			return &releases[i], nil
		}
	}
	rel, err := projects.CreateRelease(ctx, tenantID, project.CreateReleaseRequest{ProjectID: projectID, Label: label})
	if errors.Is(err, project.ErrDuplicateName) {
		return nil, fmt.Errorf("release %q exists but was not listed: %w", label, err)
	}
	if err != nil {
		return nil, fmt.Errorf("create release: %w", err)
	}
	return rel, nil
}
