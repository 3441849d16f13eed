package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"github.com/rpggio/prdinsights/internal/domain/document"
	"github.com/rpggio/prdinsights/internal/repository"
)

// DocumentRepository implements document.Repository for SQLite
type DocumentRepository struct {
	db *DB
}

// NewDocumentRepository creates a new DocumentRepository
func NewDocumentRepository(db *DB) *DocumentRepository {
	return &DocumentRepository{db: db}
}

// Create stores a document row. Chunks are written by UpsertChunks.
func (r *DocumentRepository) Create(ctx context.Context, tenantID string, doc *document.Document) error {
	query := `
		INSERT INTO documents (id, tenant_id, project_id, release_id, name, type, hash, content, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
	`

	_, err := r.db.ExecContext(ctx, query,
		doc.ID,
		tenantID,
		doc.ProjectID,
		doc.ReleaseID,
		doc.Name,
		doc.Type,
		doc.Hash,
		doc.Content,
		doc.CreatedAt,
	)
	switch {
	case isUniqueViolation(err):
		return repository.ErrConflict
	case isForeignKeyViolation(err):
		return repository.ErrForeignKeyViolation
	case err != nil:
		return fmt.Errorf("failed to create document: %w", err)
	}
	return nil
}

const documentColumns = `id, tenant_id, project_id, release_id, name, type, hash, content, created_at`

func scanDocument(row interface{ Scan(...any) error }) (*document.Document, error) {
	var doc document.Document
	err := row.Scan(
		&doc.ID,
		&doc.TenantID,
		&doc.ProjectID,
		&doc.ReleaseID,
		&doc.Name,
		&doc.Type,
		&doc.Hash,
		&doc.Content,
		&doc.CreatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &doc, nil
}

// Get retrieves a document by ID without its chunks
func (r *DocumentRepository) Get(ctx context.Context, tenantID, id string) (*document.Document, error) {
	query := `SELECT ` + documentColumns + ` FROM documents WHERE id = ? AND tenant_id = ?`

	doc, err := scanDocument(r.db.QueryRowContext(ctx, query, id, tenantID))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, repository.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get document: %w", err)
	}
	return doc, nil
}

// FindByHash retrieves the document with the given content hash in a release
func (r *DocumentRepository) FindByHash(ctx context.Context, tenantID, projectID, releaseID, hash string) (*document.Document, error) {
	query := `SELECT ` + documentColumns + ` FROM documents
		WHERE tenant_id = ? AND project_id = ? AND release_id = ? AND hash = ?`

	doc, err := scanDocument(r.db.QueryRowContext(ctx, query, tenantID, projectID, releaseID, hash))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, repository.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to find document by hash: %w", err)
	}
	return doc, nil
}

// List returns document summaries, newest first
func (r *DocumentRepository) List(ctx context.Context, tenantID string, opts document.ListOptions) ([]document.Summary, error) {
	query := `
		SELECT d.id, d.project_id, d.release_id, d.name, d.type, d.hash, d.created_at,
			(SELECT COUNT(*) FROM document_chunks c WHERE c.document_id = d.id) as chunk_count
		FROM documents d
		WHERE d.tenant_id = ?
	`
	args := []any{tenantID}
	conditions := []string{}

	if opts.ProjectID != "" {
		conditions = append(conditions, "d.project_id = ?")
		args = append(args, opts.ProjectID)
	}
	if opts.ReleaseID != "" {
		conditions = append(conditions, "d.release_id = ?")
		args = append(args, opts.ReleaseID)
	}
	if len(conditions) > 0 {
		query += " AND " + strings.Join(conditions, " AND ")
	}
	query += " ORDER BY d.created_at DESC, d.id DESC"
	query, args = paginate(query, args, opts.Limit, opts.Offset)

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list documents: %w", err)
	}
	defer rows.Close()

	var summaries []document.Summary
	for rows.Next() {
		var s document.Summary
		if err := rows.Scan(&s.ID, &s.ProjectID, &s.ReleaseID, &s.Name, &s.Type, &s.Hash, &s.CreatedAt, &s.ChunkCount); err != nil {
			return nil, fmt.Errorf("failed to scan document summary: %w", err)
		}
		summaries = append(summaries, s)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating document rows: %w", err)
	}
	return summaries, nil
}

// UpsertChunks writes chunks keyed by (document_id, chunk_index). Rewriting
// an index replaces its content.
func (r *DocumentRepository) UpsertChunks(ctx context.Context, documentID string, chunks []document.Chunk) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	stmt, err := tx.PrepareContext(ctx, `
		INSERT INTO document_chunks (document_id, chunk_index, content)
		VALUES (?, ?, ?)
		ON CONFLICT (document_id, chunk_index) DO UPDATE SET content = excluded.content
	`)
	if err != nil {
		return fmt.Errorf("failed to prepare chunk upsert: %w", err)
	}
	defer stmt.Close()

	for _, c := range chunks {
		if _, err := stmt.ExecContext(ctx, documentID, c.Index, c.Content); err != nil {
			if isForeignKeyViolation(err) {
				return repository.ErrForeignKeyViolation
			}
			return fmt.Errorf("failed to upsert chunk %d: %w", c.Index, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}
	return nil
}

// ListChunks returns the chunks of a document ordered by index
func (r *DocumentRepository) ListChunks(ctx context.Context, documentID string) ([]document.Chunk, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT chunk_index, content FROM document_chunks WHERE document_id = ? ORDER BY chunk_index`,
		documentID)
	if err != nil {
		return nil, fmt.Errorf("failed to list chunks: %w", err)
	}
	defer rows.Close()

	var chunks []document.Chunk
	for rows.Next() {
		var c document.Chunk
		if err := rows.Scan(&c.Index, &c.Content); err != nil {
			return nil, fmt.Errorf("failed to scan chunk: %w", err)
		}
		chunks = append(chunks, c)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating chunk rows: %w", err)
	}
	return chunks, nil
}

func paginate(query string, args []any, limit, offset int) (string, []any) {
	if limit > 0 {
		query += " LIMIT ?"
		args = append(args, limit)
		if offset > 0 {
			query += " OFFSET ?"
			args = append(args, offset)
		}
	}
	return query, args
}
