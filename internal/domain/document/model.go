package document

import "time"

// DocumentType classifies an ingested document.
type DocumentType string

const (
	TypePRD      DocumentType = "PRD"
	TypeADR      DocumentType = "ADR"
	TypeDBSchema DocumentType = "DB_SCHEMA"
	TypeAPISpec  DocumentType = "API_SPEC"
	TypeOther    DocumentType = "OTHER"
)

// Valid reports whether t is a known document type.
func (t DocumentType) Valid() bool {
	switch t {
	case TypePRD, TypeADR, TypeDBSchema, TypeAPISpec, TypeOther:
		return true
	}
	return false
}

// Document is a stored requirement document with its pre-split chunks.
type Document struct {
	ID        string       `json:"id"`
	TenantID  string       `json:"tenant_id"`
	ProjectID string       `json:"project_id"`
	ReleaseID string       `json:"release_id"`
	Name      string       `json:"name,omitempty"`
	Type      DocumentType `json:"type"`
	Hash      string       `json:"hash"`
	Content   string       `json:"content"`
	CreatedAt time.Time    `json:"created_at"`
	Chunks    []Chunk      `json:"chunks,omitempty"`
}

// Chunk is one contiguous fragment of a document with a stable position.
type Chunk struct {
	Index   int    `json:"index"`
	Content string `json:"content"`
}

// Summary is a lightweight representation for listing
type Summary struct {
	ID         string       `json:"id"`
	ProjectID  string       `json:"project_id"`
	ReleaseID  string       `json:"release_id"`
	Name       string       `json:"name,omitempty"`
	Type       DocumentType `json:"type"`
	Hash       string       `json:"hash"`
	ChunkCount int          `json:"chunk_count"`
	CreatedAt  time.Time    `json:"created_at"`
}
