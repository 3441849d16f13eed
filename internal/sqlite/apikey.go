package sqlite

import (
	"context"
	"crypto/rand"
	"crypto/sha256"
	"database/sql"
	"encoding/hex"
	"errors"
	"fmt"
	"time"
)

// ErrUnauthorized is returned when a bearer token matches no API key.
var ErrUnauthorized = errors.New("unauthorized: invalid token")

// tokenPrefix marks issued tokens so they are recognizable in config files.
const tokenPrefix = "pdi_"

// APIKey describes a stored key. The token itself is never stored.
type APIKey struct {
	// ID is a short prefix of the key hash, enough to tell keys apart.
	ID          string     `json:"id"`
	TenantID    string     `json:"tenant_id"`
	Description string     `json:"description,omitempty"`
	CreatedAt   time.Time  `json:"created_at"`
	LastUsed    *time.Time `json:"last_used,omitempty"`
}

// APIKeyRepository resolves bearer tokens to tenants via the api_keys table.
type APIKeyRepository struct {
	db  *DB
	now func() time.Time
}

// NewAPIKeyRepository creates a new APIKeyRepository
func NewAPIKeyRepository(db *DB) *APIKeyRepository {
	return &APIKeyRepository{db: db, now: time.Now}
}

// HashToken returns the stored form of a token.
func HashToken(token string) string {
	sum := sha256.Sum256([]byte(token))
	return hex.EncodeToString(sum[:])
}

// Create stores the hash of token for tenantID.
func (r *APIKeyRepository) Create(ctx context.Context, tenantID, token, description string) error {
	_, err := r.db.ExecContext(ctx,
		`INSERT INTO api_keys (key_hash, tenant_id, created_at, description) VALUES (?, ?, ?, ?)`,
		HashToken(token), tenantID, r.now(), description)
	return mapWriteError(err, "create api key")
}

// Issue generates a new token for tenantID, stores its hash and returns the
// token. It cannot be recovered later.
func (r *APIKeyRepository) Issue(ctx context.Context, tenantID, description string) (string, error) {
	if tenantID == "" {
		return "", fmt.Errorf("tenant id is required")
	}
	token := tokenPrefix + rand.Text()
	if err := r.Create(ctx, tenantID, token, description); err != nil {
		return "", err
	}
	return token, nil
}

// List returns stored keys ordered by tenant and creation time. An empty
// tenantID lists every tenant.
func (r *APIKeyRepository) List(ctx context.Context, tenantID string) ([]APIKey, error) {
	query := `SELECT key_hash, tenant_id, COALESCE(description, ''), created_at, last_used FROM api_keys`
	var args []any
	if tenantID != "" {
		query += ` WHERE tenant_id = ?`
		args = append(args, tenantID)
	}
	query += ` ORDER BY tenant_id, created_at`

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list api keys: %w", err)
	}
	defer rows.Close()

	var keys []APIKey
	for rows.Next() {
		var (
			key      APIKey
			hash     string
			lastUsed sql.NullTime
		)
		if err := rows.Scan(&hash, &key.TenantID, &key.Description, &key.CreatedAt, &lastUsed); err != nil {
			return nil, fmt.Errorf("failed to scan api key: %w", err)
		}
		key.ID = hash[:12]
		if lastUsed.Valid {
			key.LastUsed = &lastUsed.Time
		}
		keys = append(keys, key)
	}
	return keys, rows.Err()
}

// ResolveTenant returns the tenant owning token and records its use.
func (r *APIKeyRepository) ResolveTenant(ctx context.Context, token string) (string, error) {
	hash := HashToken(token)
	var tenantID string
	err := r.db.QueryRowContext(ctx, `SELECT tenant_id FROM api_keys WHERE key_hash = ?`, hash).Scan(&tenantID)
	if errors.Is(err, sql.ErrNoRows) || (err == nil && tenantID == "") {
		return "", ErrUnauthorized
	}
	if err != nil {
		return "", fmt.Errorf("failed to resolve api key: %w", err)
	}

	if _, err := r.db.ExecContext(ctx, `UPDATE api_keys SET last_used = ? WHERE key_hash = ?`, r.now(), hash); err != nil {
		return "", fmt.Errorf("failed to record api key use: %w", err)
	}
	return tenantID, nil
}
