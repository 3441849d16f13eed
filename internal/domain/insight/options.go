package insight

// ListOptions filters persisted insights and concerns.
type ListOptions struct {
	ProjectID  string
	ReleaseID  string
	DocumentID string
	RunID      string
	Status     string
	Limit      int
	Offset     int
}

// SearchResult is a full-text match over persisted insights.
type SearchResult struct {
	Insight StoredInsight `json:"insight"`
	Rank    float64       `json:"rank"`
	Snippet string        `json:"snippet,omitempty"`
}
