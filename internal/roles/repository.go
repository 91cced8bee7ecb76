package roles

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/arbiter-io/arbiter/internal/authz"
	"github.com/arbiter-io/arbiter/internal/platform/db"
	"github.com/arbiter-io/arbiter/internal/shared"
)

// Repository provides PostgreSQL backed persistence for roles.
type Repository struct {
	pool *pgxpool.Pool
}

// NewRepository constructs a repository.
func NewRepository(pool *pgxpool.Pool) *Repository {
	return &Repository{pool: pool}
}

const roleColumns = `id, scope_kind, scope_id, name, description, permissions, default_for, is_deleted, created_at, updated_at`

// Create inserts a new role.
func (r *Repository) Create(ctx context.Context, role Role) (Role, error) {
	row := r.pool.QueryRow(ctx, `
		INSERT INTO roles (id, scope_kind, scope_id, name, description, permissions, default_for, is_deleted, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, FALSE, now(), now())
		RETURNING `+roleColumns,
		role.ID, string(role.Scope.Kind), role.Scope.ID, role.Name, role.Description, role.Permissions, string(role.DefaultFor),
	)
	return scanRole(row)
}

// Get fetches a role by id, including tombstoned ones.
func (r *Repository) Get(ctx context.Context, id string) (Role, error) {
	row := r.pool.QueryRow(ctx, `SELECT `+roleColumns+` FROM roles WHERE id = $1`, id)
	role, err := scanRole(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return Role{}, shared.ErrNotFound
		}
		return Role{}, err
	}
	return role, nil
}

// ExistsInScope reports whether a non-deleted role is visible from the given
// scope, either because it lives there or because it is a global default.
func (r *Repository) ExistsInScope(ctx context.Context, scope authz.Scope, roleID string) (bool, error) {
	var exists bool
	err := r.pool.QueryRow(ctx, `
		SELECT EXISTS (
			SELECT 1 FROM roles
			WHERE id = $1
			  AND NOT is_deleted
			  AND (scope_kind = 'global' OR (scope_kind = $2 AND scope_id = $3))
		)`, roleID, string(scope.Kind), scope.ID).Scan(&exists)
	if err != nil {
		return false, fmt.Errorf("roles: exists in scope: %w", err)
	}
	return exists, nil
}

// Permissions resolves a role id to its permission set for authorization
// checks. Missing and tombstoned roles both report shared.ErrNotFound.
func (r *Repository) Permissions(ctx context.Context, roleID string) ([]string, error) {
	var perms []string
	err := r.pool.QueryRow(ctx,
		`SELECT permissions FROM roles WHERE id = $1 AND NOT is_deleted`, roleID,
	).Scan(&perms)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, shared.ErrNotFound
		}
		return nil, fmt.Errorf("roles: permissions: %w", err)
	}
	return perms, nil
}

// Update applies a partial update. The row stays locked for the duration of
// the read-merge-write so concurrent permission merges cannot lose updates.
func (r *Repository) Update(ctx context.Context, roleID string, input UpdateRoleInput) (Role, error) {
	var updated Role
	err := db.WithTx(ctx, r.pool, func(tx pgx.Tx) error {
		row := tx.QueryRow(ctx, `SELECT `+roleColumns+` FROM roles WHERE id = $1 AND NOT is_deleted FOR UPDATE`, roleID)
		current, err := scanRole(row)
		if err != nil {
			if errors.Is(err, pgx.ErrNoRows) {
				return shared.ErrNotFound
			}
			return err
		}

		name := current.Name
		if input.Name != nil {
			name = *input.Name
		}
		description := current.Description
		if input.Description != nil {
			description = *input.Description
		}
		perms := mergePermissions(current.Permissions, input.Permissions)

		row = tx.QueryRow(ctx, `
			UPDATE roles
			SET name = $2, description = $3, permissions = $4, updated_at = now()
			WHERE id = $1
			RETURNING `+roleColumns,
			roleID, name, description, perms,
		)
		updated, err = scanRole(row)
		return err
	})
	if err != nil {
		return Role{}, err
	}
	return updated, nil
}

// SoftDelete tombstones a role. Still-referenced roles tombstone cleanly;
// later checks against them resolve to a deterministic denial.
func (r *Repository) SoftDelete(ctx context.Context, roleID string) error {
	tag, err := r.pool.Exec(ctx,
		`UPDATE roles SET is_deleted = TRUE, updated_at = now() WHERE id = $1 AND NOT is_deleted`, roleID)
	if err != nil {
		return fmt.Errorf("roles: soft delete: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return shared.ErrNotFound
	}
	return nil
}

// List returns non-deleted roles visible from the scope together with the
// total match count. IncludeDefaults unions global roles into the result.
func (r *Repository) List(ctx context.Context, scope authz.Scope, filters ListFilters) ([]Role, int, error) {
	where := `NOT is_deleted AND scope_kind = $1 AND scope_id = $2`
	args := []any{string(scope.Kind), scope.ID}
	if filters.IncludeDefaults {
		where = `NOT is_deleted AND (scope_kind = 'global' OR (scope_kind = $1 AND scope_id = $2))`
	}
	if filters.Name != "" {
		where += fmt.Sprintf(` AND name ILIKE $%d`, len(args)+1)
		args = append(args, "%"+filters.Name+"%")
	}

	var total int
	if err := r.pool.QueryRow(ctx, `SELECT count(*) FROM roles WHERE `+where, args...).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("roles: count: %w", err)
	}

	page := shared.NewPagination(filters.Page, filters.PerPage, total)
	query := fmt.Sprintf(`SELECT %s FROM roles WHERE %s ORDER BY %s %s LIMIT $%d OFFSET $%d`,
		roleColumns, where, sortColumn(filters.SortBy), sortDirection(filters.SortDir), len(args)+1, len(args)+2)
	args = append(args, page.PerPage, page.Offset())

	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, 0, fmt.Errorf("roles: list: %w", err)
	}
	defer rows.Close()

	var out []Role
	for rows.Next() {
		role, err := scanRole(rows)
		if err != nil {
			return nil, 0, err
		}
		out = append(out, role)
	}
	if err := rows.Err(); err != nil {
		return nil, 0, err
	}
	return out, total, nil
}

// GetGlobalByName fetches a non-deleted global default role by name.
func (r *Repository) GetGlobalByName(ctx context.Context, name string) (Role, error) {
	row := r.pool.QueryRow(ctx, `
		SELECT `+roleColumns+` FROM roles
		WHERE scope_kind = 'global' AND name = $1 AND NOT is_deleted
		ORDER BY created_at
		LIMIT 1`, name)
	role, err := scanRole(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return Role{}, shared.ErrNotFound
		}
		return Role{}, err
	}
	return role, nil
}

// EnsureGlobal creates or refreshes a global default role. Globals are keyed
// by (name, originating scope kind): the organization and department default
// sets each carry a "content approver" and those stay distinct records. Used
// only by the bootstrap entry point; permissions merge monotonically so
// reseeding never strips grants.
func (r *Repository) EnsureGlobal(ctx context.Context, id string, kind authz.ScopeKind, name, description string, permissions []string) (Role, error) {
	row := r.pool.QueryRow(ctx, `
		SELECT `+roleColumns+` FROM roles
		WHERE scope_kind = 'global' AND name = $1 AND default_for = $2 AND NOT is_deleted
		ORDER BY created_at
		LIMIT 1`, name, string(kind))
	existing, err := scanRole(row)
	if err != nil {
		if !errors.Is(err, pgx.ErrNoRows) {
			return Role{}, err
		}
		return r.Create(ctx, Role{
			ID:          id,
			Scope:       authz.GlobalScope(),
			Name:        name,
			Description: description,
			Permissions: sortedUnique(permissions),
			DefaultFor:  kind,
		})
	}
	return r.Update(ctx, existing.ID, UpdateRoleInput{Description: &description, Permissions: permissions})
}

func scanRole(row pgx.Row) (Role, error) {
	var (
		role       Role
		scopeKind  string
		scopeID    string
		defaultFor string
		created    time.Time
		updated    time.Time
	)
	if err := row.Scan(&role.ID, &scopeKind, &scopeID, &role.Name, &role.Description,
		&role.Permissions, &defaultFor, &role.IsDeleted, &created, &updated); err != nil {
		return Role{}, err
	}
	role.Scope = authz.Scope{Kind: authz.ScopeKind(scopeKind), ID: scopeID}
	role.DefaultFor = authz.ScopeKind(defaultFor)
	role.CreatedAt = created
	role.UpdatedAt = updated
	return role, nil
}

func mergePermissions(current, incoming []string) []string {
	return sortedUnique(append(append([]string{}, current...), incoming...))
}

func sortedUnique(perms []string) []string {
	set := make(map[string]struct{}, len(perms))
	for _, p := range perms {
		p = strings.TrimSpace(p)
		if p == "" {
			continue
		}
		set[p] = struct{}{}
	}
	out := make([]string, 0, len(set))
	for p := range set {
		out = append(out, p)
	}
	sort.Strings(out)
	return out
}

func sortColumn(requested string) string {
	switch requested {
	case "name", "updated_at", "created_at":
		return requested
	default:
		return "created_at"
	}
}

func sortDirection(requested string) string {
	if strings.EqualFold(requested, "asc") {
		return "ASC"
	}
	return "DESC"
}
