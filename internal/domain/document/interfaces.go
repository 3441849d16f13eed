package document

import (
	"context"

	"github.com/rpggio/prdinsights/internal/domain/project"
)

// Repository provides persistence for documents and their chunks.
type Repository interface {
	Create(ctx context.Context, tenantID string, doc *Document) error
	Get(ctx context.Context, tenantID, id string) (*Document, error)
	FindByHash(ctx context.Context, tenantID, projectID, releaseID, hash string) (*Document, error)
	List(ctx context.Context, tenantID string, opts ListOptions) ([]Summary, error)
	UpsertChunks(ctx context.Context, documentID string, chunks []Chunk) error
	ListChunks(ctx context.Context, documentID string) ([]Chunk, error)
}

// ReleaseRepository resolves the release a document is ingested into.
type ReleaseRepository interface {
	GetRelease(ctx context.Context, tenantID, id string) (*project.Release, error)
}
