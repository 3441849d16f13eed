package analysis

import (
	"time"

	"github.com/rpggio/prdinsights/internal/domain/insight"
)

// RunStatus represents the lifecycle state of an analysis run
type RunStatus string

const (
	RunRunning   RunStatus = "RUNNING"
	RunCompleted RunStatus = "COMPLETED"
	RunFailed    RunStatus = "FAILED"
)

// Run records one execution of the insight workflow over a document.
type Run struct {
	ID               string     `json:"id"`
	TenantID         string     `json:"tenant_id"`
	ProjectID        string     `json:"project_id"`
	ReleaseID        string     `json:"release_id"`
	DocumentID       string     `json:"document_id"`
	Mode             string     `json:"mode"`
	Status           RunStatus  `json:"status"`
	InsightCount     int        `json:"insight_count"`
	ConcernCount     int        `json:"concern_count"`
	ReflectionRounds int        `json:"reflection_rounds"`
	FailedChunks     []int      `json:"failed_chunks,omitempty"`
	Error            string     `json:"error,omitempty"`
	StartedAt        time.Time  `json:"started_at"`
	CompletedAt      *time.Time `json:"completed_at,omitempty"`
}

// Report is the outcome of a completed run.
type Report struct {
	Run      *Run              `json:"run"`
	Insights []insight.Insight `json:"insights"`
	Concerns []insight.Concern `json:"concerns"`
}
