package document

// ListOptions filters document listings.
type ListOptions struct {
	ProjectID string
	ReleaseID string
	Limit     int
	Offset    int
}
