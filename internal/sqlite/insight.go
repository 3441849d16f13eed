package sqlite

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/rpggio/prdinsights/internal/domain/insight"
	"github.com/rpggio/prdinsights/internal/repository"
)

// InsightRepository implements insight.Repository for SQLite. The full
// insight or concern is stored as JSON in details; status columns are
// authoritative.
type InsightRepository struct {
	db *DB
}

// NewInsightRepository creates a new InsightRepository
func NewInsightRepository(db *DB) *InsightRepository {
	return &InsightRepository{db: db}
}

// SaveBatch stores the insights and concerns of one run in a transaction
func (r *InsightRepository) SaveBatch(ctx context.Context, tenantID string, batch insight.Batch, createdAt time.Time) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	o := batch.Origin
	for _, in := range batch.Insights {
		details, err := json.Marshal(in)
		if err != nil {
			return fmt.Errorf("failed to encode insight %s: %w", in.ID, err)
		}
		_, err = tx.ExecContext(ctx, `
			INSERT INTO product_insights
				(id, tenant_id, project_id, release_id, document_id, run_id, title, status, details, created_at, modified_at)
			VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		`, in.ID, tenantID, o.ProjectID, o.ReleaseID, o.DocumentID, nullString(o.RunID), in.Title, in.Status, string(details), createdAt, createdAt)
		if err := mapWriteError(err, "insert insight"); err != nil {
			return err
		}
	}

	for _, c := range batch.Concerns {
		details, err := json.Marshal(c)
		if err != nil {
			return fmt.Errorf("failed to encode concern %s: %w", c.ID, err)
		}
		_, err = tx.ExecContext(ctx, `
			INSERT INTO product_concerns
				(id, tenant_id, project_id, release_id, document_id, run_id, status, details, created_at, modified_at)
			VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		`, c.ID, tenantID, o.ProjectID, o.ReleaseID, o.DocumentID, nullString(o.RunID), c.Status, string(details), createdAt, createdAt)
		if err := mapWriteError(err, "insert concern"); err != nil {
			return err
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}
	return nil
}

const insightColumns = `i.id, i.project_id, i.release_id, i.document_id, i.run_id, i.status, i.details, i.created_at, i.modified_at`

func scanInsight(row interface{ Scan(...any) error }, extra ...any) (*insight.StoredInsight, error) {
	var (
		in      insight.StoredInsight
		runID   sql.NullString
		status  string
		details string
	)
	dest := append([]any{
		&in.Insight.ID,
		&in.ProjectID,
		&in.ReleaseID,
		&in.DocumentID,
		&runID,
		&status,
		&details,
		&in.CreatedAt,
		&in.ModifiedAt,
	}, extra...)
	if err := row.Scan(dest...); err != nil {
		return nil, err
	}
	id := in.Insight.ID
	if err := json.Unmarshal([]byte(details), &in.Insight); err != nil {
		return nil, fmt.Errorf("failed to decode insight %s: %w", id, err)
	}
	in.Insight.ID = id
	in.Status = insight.InsightStatus(status)
	in.RunID = runID.String
	return &in, nil
}

const concernColumns = `c.id, c.project_id, c.release_id, c.document_id, c.run_id, c.status, c.resolved_by, c.details, c.created_at, c.modified_at`

func scanConcern(row interface{ Scan(...any) error }) (*insight.StoredConcern, error) {
	var (
		c          insight.StoredConcern
		runID      sql.NullString
		resolvedBy sql.NullString
		status     string
		details    string
	)
	err := row.Scan(
		&c.Concern.ID,
		&c.ProjectID,
		&c.ReleaseID,
		&c.DocumentID,
		&runID,
		&status,
		&resolvedBy,
		&details,
		&c.CreatedAt,
		&c.ModifiedAt,
	)
	if err != nil {
		return nil, err
	}
	id := c.Concern.ID
	if err := json.Unmarshal([]byte(details), &c.Concern); err != nil {
		return nil, fmt.Errorf("failed to decode concern %s: %w", id, err)
	}
	c.Concern.ID = id
	c.Status = insight.ConcernStatus(status)
	c.RunID = runID.String
	if resolvedBy.Valid {
		c.ResolvedBy = &resolvedBy.String
	}
	return &c, nil
}

// GetInsight retrieves an insight by ID
func (r *InsightRepository) GetInsight(ctx context.Context, tenantID, id string) (*insight.StoredInsight, error) {
	query := `SELECT ` + insightColumns + ` FROM product_insights i WHERE i.id = ? AND i.tenant_id = ?`

	in, err := scanInsight(r.db.QueryRowContext(ctx, query, id, tenantID))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, repository.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get insight: %w", err)
	}
	return in, nil
}

// GetConcern retrieves a concern by ID
func (r *InsightRepository) GetConcern(ctx context.Context, tenantID, id string) (*insight.StoredConcern, error) {
	query := `SELECT ` + concernColumns + ` FROM product_concerns c WHERE c.id = ? AND c.tenant_id = ?`

	c, err := scanConcern(r.db.QueryRowContext(ctx, query, id, tenantID))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, repository.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get concern: %w", err)
	}
	return c, nil
}

// filters builds the WHERE conditions shared by the list queries.
func filters(alias string, opts insight.ListOptions) ([]string, []any) {
	var conditions []string
	var args []any
	add := func(column, value string) {
		if value == "" {
			return
		}
		conditions = append(conditions, fmt.Sprintf("%s.%s = ?", alias, column))
		args = append(args, value)
	}
	add("project_id", opts.ProjectID)
	add("release_id", opts.ReleaseID)
	add("document_id", opts.DocumentID)
	add("run_id", opts.RunID)
	add("status", strings.ToUpper(opts.Status))
	return conditions, args
}

// ListInsights returns insights in creation order
func (r *InsightRepository) ListInsights(ctx context.Context, tenantID string, opts insight.ListOptions) ([]insight.StoredInsight, error) {
	query := `SELECT ` + insightColumns + ` FROM product_insights i WHERE i.tenant_id = ?`
	args := []any{tenantID}
	conditions, extra := filters("i", opts)
	if len(conditions) > 0 {
		query += " AND " + strings.Join(conditions, " AND ")
		args = append(args, extra...)
	}
	query += " ORDER BY i.created_at, i.id"
	query, args = paginate(query, args, opts.Limit, opts.Offset)

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list insights: %w", err)
	}
	defer rows.Close()

	var out []insight.StoredInsight
	for rows.Next() {
		in, err := scanInsight(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan insight: %w", err)
		}
		out = append(out, *in)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating insight rows: %w", err)
	}
	return out, nil
}

// ListConcerns returns concerns in creation order
func (r *InsightRepository) ListConcerns(ctx context.Context, tenantID string, opts insight.ListOptions) ([]insight.StoredConcern, error) {
	query := `SELECT ` + concernColumns + ` FROM product_concerns c WHERE c.tenant_id = ?`
	args := []any{tenantID}
	conditions, extra := filters("c", opts)
	if len(conditions) > 0 {
		query += " AND " + strings.Join(conditions, " AND ")
		args = append(args, extra...)
	}
	query += " ORDER BY c.created_at, c.id"
	query, args = paginate(query, args, opts.Limit, opts.Offset)

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list concerns: %w", err)
	}
	defer rows.Close()

	var out []insight.StoredConcern
	for rows.Next() {
		c, err := scanConcern(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan concern: %w", err)
		}
		out = append(out, *c)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating concern rows: %w", err)
	}
	return out, nil
}

// UpdateInsightStatus sets the review status of an insight
func (r *InsightRepository) UpdateInsightStatus(ctx context.Context, tenantID, id string, status insight.InsightStatus, modifiedAt time.Time) error {
	result, err := r.db.ExecContext(ctx,
		`UPDATE product_insights SET status = ?, modified_at = ? WHERE id = ? AND tenant_id = ?`,
		status, modifiedAt, id, tenantID)
	if err != nil {
		return fmt.Errorf("failed to update insight status: %w", err)
	}
	return requireOneRow(result)
}

// UpdateConcernStatus sets the status and resolver of a concern
func (r *InsightRepository) UpdateConcernStatus(ctx context.Context, tenantID, id string, status insight.ConcernStatus, resolvedBy *string, modifiedAt time.Time) error {
	result, err := r.db.ExecContext(ctx,
		`UPDATE product_concerns SET status = ?, resolved_by = ?, modified_at = ? WHERE id = ? AND tenant_id = ?`,
		status, resolvedBy, modifiedAt, id, tenantID)
	if err != nil {
		return fmt.Errorf("failed to update concern status: %w", err)
	}
	return requireOneRow(result)
}

func requireOneRow(result sql.Result) error {
	n, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}
	if n == 0 {
		return repository.ErrNotFound
	}
	return nil
}

func mapWriteError(err error, op string) error {
	switch {
	case err == nil:
		return nil
	case isUniqueViolation(err):
		return repository.ErrConflict
	case isForeignKeyViolation(err):
		return repository.ErrForeignKeyViolation
	default:
		return fmt.Errorf("failed to %s: %w", op, err)
	}
}

func nullString(s string) sql.NullString {
	return sql.NullString{String: s, Valid: s != ""}
}
