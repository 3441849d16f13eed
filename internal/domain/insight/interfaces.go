package insight

import (
	"context"
	"time"
)

// Repository provides persistence for reviewed insights and concerns.
type Repository interface {
	SaveBatch(ctx context.Context, tenantID string, batch Batch, createdAt time.Time) error
	GetInsight(ctx context.Context, tenantID, id string) (*StoredInsight, error)
	GetConcern(ctx context.Context, tenantID, id string) (*StoredConcern, error)
	ListInsights(ctx context.Context, tenantID string, opts ListOptions) ([]StoredInsight, error)
	ListConcerns(ctx context.Context, tenantID string, opts ListOptions) ([]StoredConcern, error)
	UpdateInsightStatus(ctx context.Context, tenantID, id string, status InsightStatus, modifiedAt time.Time) error
	UpdateConcernStatus(ctx context.Context, tenantID, id string, status ConcernStatus, resolvedBy *string, modifiedAt time.Time) error
	SearchInsights(ctx context.Context, tenantID, query string, opts ListOptions) ([]SearchResult, error)
}
