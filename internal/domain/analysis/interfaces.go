package analysis

import (
	"context"

	"github.com/rpggio/prdinsights/internal/domain/document"
	"github.com/rpggio/prdinsights/internal/domain/insight"
	"github.com/rpggio/prdinsights/internal/workflow"
)

// RunRepository manages analysis run persistence
type RunRepository interface {
	Create(ctx context.Context, tenantID string, run *Run) error
	Update(ctx context.Context, tenantID string, run *Run) error
	Get(ctx context.Context, tenantID, id string) (*Run, error)
	List(ctx context.Context, tenantID string, opts ListOptions) ([]Run, error)
}

// DocumentSource loads a stored document with its chunks.
type DocumentSource interface {
	Get(ctx context.Context, tenantID, id string) (*document.Document, error)
}

// InsightStore persists reviewed results.
type InsightStore interface {
	SaveBatch(ctx context.Context, tenantID string, batch insight.Batch) error
}

// Runner executes the insight workflow.
type Runner interface {
	Run(ctx context.Context, in workflow.Input) (*workflow.Result, error)
}
