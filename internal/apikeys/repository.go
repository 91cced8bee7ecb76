package apikeys

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/arbiter-io/arbiter/internal/shared"
)

// Repository provides PostgreSQL backed persistence for API keys.
type Repository struct {
	pool *pgxpool.Pool
}

// NewRepository constructs a repository.
func NewRepository(pool *pgxpool.Pool) *Repository {
	return &Repository{pool: pool}
}

const apikeyColumns = `id, organization_id, role_id, created_by, app_name, prefix, secret_hash, access_type, is_active, last_used_at, created_at, updated_at`

// ErrPrefixTaken signals a unique violation on the prefix column. The issuer
// rerolls the secret on this error instead of surfacing it.
var ErrPrefixTaken = errors.New("apikeys: prefix already taken")

// Insert persists a freshly issued credential record.
func (r *Repository) Insert(ctx context.Context, key APIKey) (APIKey, error) {
	row := r.pool.QueryRow(ctx, `
		INSERT INTO apikeys (id, organization_id, role_id, created_by, app_name, prefix, secret_hash, access_type, is_active, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, TRUE, now(), now())
		RETURNING `+apikeyColumns,
		key.ID, key.OrganizationID, key.RoleID, key.CreatedBy, key.AppName, key.Prefix, key.SecretHash, string(key.AccessType))
	record, err := scanAPIKey(row)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == "23505" {
			return APIKey{}, fmt.Errorf("%w: %s", ErrPrefixTaken, key.Prefix)
		}
		return APIKey{}, err
	}
	return record, nil
}

// Get fetches a credential record by id.
func (r *Repository) Get(ctx context.Context, id string) (APIKey, error) {
	row := r.pool.QueryRow(ctx, `SELECT `+apikeyColumns+` FROM apikeys WHERE id = $1`, id)
	key, err := scanAPIKey(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return APIKey{}, shared.ErrNotFound
		}
		return APIKey{}, err
	}
	return key, nil
}

// GetByPrefix fetches a credential record by its public lookup prefix.
// Verification always retrieves by prefix, never by scanning stored hashes.
func (r *Repository) GetByPrefix(ctx context.Context, prefix string) (APIKey, error) {
	row := r.pool.QueryRow(ctx, `SELECT `+apikeyColumns+` FROM apikeys WHERE prefix = $1`, prefix)
	key, err := scanAPIKey(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return APIKey{}, shared.ErrNotFound
		}
		return APIKey{}, err
	}
	return key, nil
}

// ListByOrganization returns all credential records of one organization.
func (r *Repository) ListByOrganization(ctx context.Context, orgID string) ([]APIKey, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT `+apikeyColumns+` FROM apikeys
		WHERE organization_id = $1 ORDER BY created_at DESC`, orgID)
	if err != nil {
		return nil, fmt.Errorf("apikeys: list: %w", err)
	}
	defer rows.Close()

	var out []APIKey
	for rows.Next() {
		key, err := scanAPIKey(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, key)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return out, nil
}

// ToggleActive flips the credential between its two lifecycle states.
func (r *Repository) ToggleActive(ctx context.Context, id string) (APIKey, error) {
	row := r.pool.QueryRow(ctx, `
		UPDATE apikeys SET is_active = NOT is_active, updated_at = now()
		WHERE id = $1
		RETURNING `+apikeyColumns, id)
	key, err := scanAPIKey(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return APIKey{}, shared.ErrNotFound
		}
		return APIKey{}, err
	}
	return key, nil
}

// Touch records the time a credential last authenticated successfully.
func (r *Repository) Touch(ctx context.Context, prefix string, usedAt time.Time) error {
	_, err := r.pool.Exec(ctx,
		`UPDATE apikeys SET last_used_at = $2 WHERE prefix = $1`, prefix, usedAt)
	if err != nil {
		return fmt.Errorf("apikeys: touch: %w", err)
	}
	return nil
}

func scanAPIKey(row pgx.Row) (APIKey, error) {
	var (
		key        APIKey
		accessType string
		lastUsed   *time.Time
	)
	if err := row.Scan(&key.ID, &key.OrganizationID, &key.RoleID, &key.CreatedBy, &key.AppName,
		&key.Prefix, &key.SecretHash, &accessType, &key.IsActive, &lastUsed,
		&key.CreatedAt, &key.UpdatedAt); err != nil {
		return APIKey{}, err
	}
	key.AccessType = AccessType(accessType)
	key.LastUsedAt = lastUsed
	return key, nil
}
