package sqlite

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/rpggio/prdinsights/internal/domain/analysis"
	"github.com/rpggio/prdinsights/internal/repository"
)

// RunRepository implements analysis.RunRepository for SQLite
type RunRepository struct {
	db *DB
}

// NewRunRepository creates a new RunRepository
func NewRunRepository(db *DB) *RunRepository {
	return &RunRepository{db: db}
}

// Create records a new run
func (r *RunRepository) Create(ctx context.Context, tenantID string, run *analysis.Run) error {
	failed, err := encodeChunks(run.FailedChunks)
	if err != nil {
		return err
	}
	_, err = r.db.ExecContext(ctx, `
		INSERT INTO analysis_runs
			(id, tenant_id, project_id, release_id, document_id, mode, status,
			 insight_count, concern_count, reflection_rounds, failed_chunks, error, started_at, completed_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`,
		run.ID, tenantID, run.ProjectID, run.ReleaseID, run.DocumentID, run.Mode, run.Status,
		run.InsightCount, run.ConcernCount, run.ReflectionRounds, failed, run.Error, run.StartedAt, run.CompletedAt,
	)
	return mapWriteError(err, "create run")
}

// Update writes the outcome fields of a run
func (r *RunRepository) Update(ctx context.Context, tenantID string, run *analysis.Run) error {
	failed, err := encodeChunks(run.FailedChunks)
	if err != nil {
		return err
	}
	result, err := r.db.ExecContext(ctx, `
		UPDATE analysis_runs
		SET status = ?, insight_count = ?, concern_count = ?, reflection_rounds = ?,
			failed_chunks = ?, error = ?, completed_at = ?
		WHERE id = ? AND tenant_id = ?
	`,
		run.Status, run.InsightCount, run.ConcernCount, run.ReflectionRounds,
		failed, run.Error, run.CompletedAt, run.ID, tenantID,
	)
	if err != nil {
		return fmt.Errorf("failed to update run: %w", err)
	}
	return requireOneRow(result)
}

const runColumns = `id, tenant_id, project_id, release_id, document_id, mode, status,
	insight_count, concern_count, reflection_rounds, failed_chunks, error, started_at, completed_at`

func scanRun(row interface{ Scan(...any) error }) (*analysis.Run, error) {
	var (
		run       analysis.Run
		failed    string
		completed sql.NullTime
	)
	err := row.Scan(
		&run.ID, &run.TenantID, &run.ProjectID, &run.ReleaseID, &run.DocumentID, &run.Mode, &run.Status,
		&run.InsightCount, &run.ConcernCount, &run.ReflectionRounds, &failed, &run.Error, &run.StartedAt, &completed,
	)
	if err != nil {
		return nil, err
	}
	if err := json.Unmarshal([]byte(failed), &run.FailedChunks); err != nil {
		return nil, fmt.Errorf("failed to decode failed chunks of run %s: %w", run.ID, err)
	}
	if completed.Valid {
		run.CompletedAt = &completed.Time
	}
	return &run, nil
}

// Get retrieves a run by ID
func (r *RunRepository) Get(ctx context.Context, tenantID, id string) (*analysis.Run, error) {
	run, err := scanRun(r.db.QueryRowContext(ctx,
		`SELECT `+runColumns+` FROM analysis_runs WHERE id = ? AND tenant_id = ?`, id, tenantID))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, repository.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get run: %w", err)
	}
	return run, nil
}

// List returns runs, newest first
func (r *RunRepository) List(ctx context.Context, tenantID string, opts analysis.ListOptions) ([]analysis.Run, error) {
	query := `SELECT ` + runColumns + ` FROM analysis_runs WHERE tenant_id = ?`
	args := []any{tenantID}
	conditions := []string{}

	if opts.ProjectID != "" {
		conditions = append(conditions, "project_id = ?")
		args = append(args, opts.ProjectID)
	}
	if opts.ReleaseID != "" {
		conditions = append(conditions, "release_id = ?")
		args = append(args, opts.ReleaseID)
	}
	if opts.DocumentID != "" {
		conditions = append(conditions, "document_id = ?")
		args = append(args, opts.DocumentID)
	}
	if opts.Status != "" {
		conditions = append(conditions, "status = ?")
		args = append(args, strings.ToUpper(string(opts.Status)))
	}
	if len(conditions) > 0 {
		query += " AND " + strings.Join(conditions, " AND ")
	}
	query += " ORDER BY started_at DESC, id DESC"
	query, args = paginate(query, args, opts.Limit, opts.Offset)

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list runs: %w", err)
	}
	defer rows.Close()

	var runs []analysis.Run
	for rows.Next() {
		run, err := scanRun(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan run: %w", err)
		}
		runs = append(runs, *run)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating run rows: %w", err)
	}
	return runs, nil
}

func encodeChunks(chunks []int) (string, error) {
	if chunks == nil {
		chunks = []int{}
	}
	data, err := json.Marshal(chunks)
	if err != nil {
		return "", fmt.Errorf("failed to encode failed chunks: %w", err)
	}
	return string(data), nil
}
