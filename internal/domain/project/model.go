package project

import "time"

// ReleaseStatus represents the lifecycle state of a release
type ReleaseStatus string

const (
	ReleaseDraft    ReleaseStatus = "DRAFT"
	ReleaseInReview ReleaseStatus = "IN_REVIEW"
	ReleaseApproved ReleaseStatus = "APPROVED"
)

// Valid reports whether s is a known release status.
func (s ReleaseStatus) Valid() bool {
	switch s {
	case ReleaseDraft, ReleaseInReview, ReleaseApproved:
		return true
	}
	return false
}

// Project groups the releases of one product within an organization
type Project struct {
	ID          string    `json:"id"`
	TenantID    string    `json:"tenant_id"`
	Name        string    `json:"name"`
	Description string    `json:"description,omitempty"`
	CreatedAt   time.Time `json:"created_at"`
}

// ProjectSummary is a lightweight representation for listing
type ProjectSummary struct {
	ID           string    `json:"id"`
	Name         string    `json:"name"`
	Description  string    `json:"description,omitempty"`
	ReleaseCount int       `json:"release_count"`
	CreatedAt    time.Time `json:"created_at"`
}

// Release is a labelled version of a project that documents are ingested into
type Release struct {
	ID        string        `json:"id"`
	TenantID  string        `json:"tenant_id"`
	ProjectID string        `json:"project_id"`
	Label     string        `json:"label"`
	Status    ReleaseStatus `json:"status"`
	CreatedAt time.Time     `json:"created_at"`
}
