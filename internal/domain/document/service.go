package document

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/rpggio/prdinsights/internal/repository"
)

// Service handles document ingestion and retrieval.
type Service struct {
	docs     Repository
	releases ReleaseRepository
	chunker  *Chunker
	logger   *slog.Logger
}

// NewService creates a new document service.
func NewService(docs Repository, releases ReleaseRepository, chunker *Chunker, logger *slog.Logger) *Service {
	if chunker == nil {
		chunker, _ = NewChunker(DefaultChunkerConfig())
	}
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	return &Service{docs: docs, releases: releases, chunker: chunker, logger: logger}
}

// IngestRequest defines document ingestion inputs.
type IngestRequest struct {
	ProjectID string
	ReleaseID string
	Name      string
	Type      DocumentType
	Content   string
}

// IngestResult reports the stored document and whether it was new.
type IngestResult struct {
	Document *Document
	Created  bool
}

// Hash returns the SHA-256 hex digest used to deduplicate ingestion.
func Hash(content string) string {
	sum := sha256.Sum256([]byte(content))
	return hex.EncodeToString(sum[:])
}

// Ingest stores a document and its chunks. Re-ingesting identical content
// into the same release returns the existing document.
func (s *Service) Ingest(ctx context.Context, tenantID string, req IngestRequest) (*IngestResult, error) {
	if strings.TrimSpace(req.ProjectID) == "" || strings.TrimSpace(req.ReleaseID) == "" {
		return nil, ErrInvalidInput
	}
	if strings.TrimSpace(req.Content) == "" {
		return nil, ErrEmptyContent
	}
	docType := DocumentType(strings.ToUpper(strings.TrimSpace(string(req.Type))))
	if docType == "" {
		docType = TypePRD
	}
	if !docType.Valid() {
		return nil, fmt.Errorf("%w: unsupported document type %q", ErrInvalidInput, req.Type)
	}

	rel, err := s.releases.GetRelease(ctx, tenantID, req.ReleaseID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrReleaseNotFound
		}
		return nil, fmt.Errorf("getting release: %w", err)
	}
	if rel.ProjectID != req.ProjectID {
		return nil, ErrReleaseNotFound
	}

	hash := Hash(req.Content)
	existing, err := s.docs.FindByHash(ctx, tenantID, req.ProjectID, req.ReleaseID, hash)
	switch {
	case err == nil:
		chunks, err := s.docs.ListChunks(ctx, existing.ID)
		if err != nil {
			return nil, fmt.Errorf("listing chunks: %w", err)
		}
		existing.Chunks = chunks
		s.logger.Info("document already ingested", "document_id", existing.ID, "hash", hash)
		return &IngestResult{Document: existing, Created: false}, nil
	case !errors.Is(err, repository.ErrNotFound):
		return nil, fmt.Errorf("finding document by hash: %w", err)
	}

	id, err := uuid.NewV7()
	if err != nil {
		return nil, fmt.Errorf("generating document id: %w", err)
	}
	doc := &Document{
		ID:        id.String(),
		TenantID:  tenantID,
		ProjectID: req.ProjectID,
		ReleaseID: req.ReleaseID,
		Name:      req.Name,
		Type:      docType,
		Hash:      hash,
		Content:   req.Content,
		CreatedAt: time.Now(),
		Chunks:    s.chunker.Split(req.Content),
	}

	if err := s.docs.Create(ctx, tenantID, doc); err != nil {
		return nil, fmt.Errorf("creating document: %w", err)
	}
	if err := s.docs.UpsertChunks(ctx, doc.ID, doc.Chunks); err != nil {
		return nil, fmt.Errorf("storing chunks: %w", err)
	}

	s.logger.Info("document ingested", "document_id", doc.ID, "release_id", doc.ReleaseID, "chunks", len(doc.Chunks))
	return &IngestResult{Document: doc, Created: true}, nil
}

// Get fetches a document with its chunks ordered by index.
func (s *Service) Get(ctx context.Context, tenantID, id string) (*Document, error) {
	doc, err := s.docs.Get(ctx, tenantID, id)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrDocumentNotFound
		}
		return nil, fmt.Errorf("getting document: %w", err)
	}
	chunks, err := s.docs.ListChunks(ctx, doc.ID)
	if err != nil {
		return nil, fmt.Errorf("listing chunks: %w", err)
	}
	doc.Chunks = chunks
	return doc, nil
}

// GetChunks returns the chunks of a document ordered by index.
func (s *Service) GetChunks(ctx context.Context, tenantID, documentID string) ([]Chunk, error) {
	doc, err := s.Get(ctx, tenantID, documentID)
	if err != nil {
		return nil, err
	}
	return doc.Chunks, nil
}

// List returns document summaries.
func (s *Service) List(ctx context.Context, tenantID string, opts ListOptions) ([]Summary, error) {
	return s.docs.List(ctx, tenantID, opts)
}
