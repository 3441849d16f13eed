package analysis

// ListOptions provides filtering options for listing runs
type ListOptions struct {
	ProjectID  string
	ReleaseID  string
	DocumentID string
	Status     RunStatus
	Limit      int
	Offset     int
}
