package members

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/arbiter-io/arbiter/internal/authz"
	"github.com/arbiter-io/arbiter/internal/platform/db"
	"github.com/arbiter-io/arbiter/internal/shared"
)

// Repository provides PostgreSQL backed persistence for memberships.
type Repository struct {
	pool *pgxpool.Pool
}

// NewRepository constructs a repository.
func NewRepository(pool *pgxpool.Pool) *Repository {
	return &Repository{pool: pool}
}

const membershipColumns = `id, user_id, scope_kind, scope_id, role_id, is_active, is_deleted, joined_at, updated_at`

// ActiveRoleID returns the role bound to the user's active, non-deleted
// membership at exactly the given scope. It satisfies authz.MembershipSource.
func (r *Repository) ActiveRoleID(ctx context.Context, userID string, scope authz.Scope) (string, error) {
	var roleID string
	err := r.pool.QueryRow(ctx, `
		SELECT role_id FROM memberships
		WHERE user_id = $1 AND scope_kind = $2 AND scope_id = $3
		  AND is_active AND NOT is_deleted`,
		userID, string(scope.Kind), scope.ID,
	).Scan(&roleID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return "", shared.ErrNotFound
		}
		return "", fmt.Errorf("members: active role: %w", err)
	}
	return roleID, nil
}

// Get fetches the non-deleted membership of a user at a scope.
func (r *Repository) Get(ctx context.Context, userID string, scope authz.Scope) (Membership, error) {
	row := r.pool.QueryRow(ctx, `
		SELECT `+membershipColumns+` FROM memberships
		WHERE user_id = $1 AND scope_kind = $2 AND scope_id = $3 AND NOT is_deleted`,
		userID, string(scope.Kind), scope.ID)
	m, err := scanMembership(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return Membership{}, shared.ErrNotFound
		}
		return Membership{}, err
	}
	return m, nil
}

// Upsert assigns or reassigns the user's role at the scope. The existing row
// is locked for the duration so concurrent assignments serialize.
func (r *Repository) Upsert(ctx context.Context, input AssignRoleInput) (Membership, error) {
	var out Membership
	err := db.WithTx(ctx, r.pool, func(tx pgx.Tx) error {
		var existingID, currentRoleID string
		err := tx.QueryRow(ctx, `
			SELECT id, role_id FROM memberships
			WHERE user_id = $1 AND scope_kind = $2 AND scope_id = $3 AND NOT is_deleted
			FOR UPDATE`,
			input.UserID, string(input.Scope.Kind), input.Scope.ID,
		).Scan(&existingID, &currentRoleID)

		switch {
		case err == nil:
			if input.ProtectedRoleID != "" && currentRoleID == input.ProtectedRoleID {
				return fmt.Errorf("members: owner role cannot be reassigned: %w", shared.ErrForbidden)
			}
			row := tx.QueryRow(ctx, `
				UPDATE memberships
				SET role_id = $2, is_active = TRUE, updated_at = now()
				WHERE id = $1
				RETURNING `+membershipColumns,
				existingID, input.RoleID)
			out, err = scanMembership(row)
			return err
		case errors.Is(err, pgx.ErrNoRows):
			row := tx.QueryRow(ctx, `
				INSERT INTO memberships (id, user_id, scope_kind, scope_id, role_id, is_active, is_deleted, joined_at, updated_at)
				VALUES ($1, $2, $3, $4, $5, TRUE, FALSE, now(), now())
				RETURNING `+membershipColumns,
				uuid.NewString(), input.UserID, string(input.Scope.Kind), input.Scope.ID, input.RoleID)
			out, err = scanMembership(row)
			return err
		default:
			return fmt.Errorf("members: upsert lookup: %w", err)
		}
	})
	if err != nil {
		return Membership{}, err
	}
	return out, nil
}

// Remove tombstones the user's membership at the scope.
func (r *Repository) Remove(ctx context.Context, userID string, scope authz.Scope) error {
	tag, err := r.pool.Exec(ctx, `
		UPDATE memberships SET is_deleted = TRUE, is_active = FALSE, updated_at = now()
		WHERE user_id = $1 AND scope_kind = $2 AND scope_id = $3 AND NOT is_deleted`,
		userID, string(scope.Kind), scope.ID)
	if err != nil {
		return fmt.Errorf("members: remove: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return shared.ErrNotFound
	}
	return nil
}

func scanMembership(row pgx.Row) (Membership, error) {
	var (
		m         Membership
		scopeKind string
		scopeID   string
		joined    time.Time
		updated   time.Time
	)
	if err := row.Scan(&m.ID, &m.UserID, &scopeKind, &scopeID, &m.RoleID,
		&m.IsActive, &m.IsDeleted, &joined, &updated); err != nil {
		return Membership{}, err
	}
	m.Scope = authz.Scope{Kind: authz.ScopeKind(scopeKind), ID: scopeID}
	m.JoinedAt = joined
	m.UpdatedAt = updated
	return m, nil
}
