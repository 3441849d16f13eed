package project

import "context"

// Repository provides persistence for projects and releases.
type Repository interface {
	Create(ctx context.Context, tenantID string, proj *Project) error
	Get(ctx context.Context, tenantID, id string) (*Project, error)
	List(ctx context.Context, tenantID string) ([]ProjectSummary, error)
	CreateRelease(ctx context.Context, tenantID string, rel *Release) error
	GetRelease(ctx context.Context, tenantID, id string) (*Release, error)
	ListReleases(ctx context.Context, tenantID, projectID string) ([]Release, error)
}
