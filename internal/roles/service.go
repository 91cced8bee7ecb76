package roles

import (
	"context"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"golang.org/x/text/cases"
	"golang.org/x/text/language"

	"github.com/arbiter-io/arbiter/internal/authz"
	"github.com/arbiter-io/arbiter/internal/shared"
)

// RepositoryPort defines data access methods for roles.
type RepositoryPort interface {
	Create(ctx context.Context, role Role) (Role, error)
	Get(ctx context.Context, id string) (Role, error)
	ExistsInScope(ctx context.Context, scope authz.Scope, roleID string) (bool, error)
	Update(ctx context.Context, roleID string, input UpdateRoleInput) (Role, error)
	SoftDelete(ctx context.Context, roleID string) error
	List(ctx context.Context, scope authz.Scope, filters ListFilters) ([]Role, int, error)
	GetGlobalByName(ctx context.Context, name string) (Role, error)
	EnsureGlobal(ctx context.Context, id string, kind authz.ScopeKind, name, description string, permissions []string) (Role, error)
}

var nameCaser = cases.Lower(language.Und)

// Service handles role registry business rules.
type Service struct {
	repo RepositoryPort
}

// NewService builds Service instance.
func NewService(repo RepositoryPort) *Service {
	return &Service{repo: repo}
}

// Create registers a new role inside one concrete organization or department
// scope. The global scope is rejected; global defaults only mutate through
// the bootstrap entry point.
func (s *Service) Create(ctx context.Context, scope authz.Scope, input CreateRoleInput) (Role, error) {
	if scope.IsGlobal() {
		return Role{}, shared.ErrGlobalRoleImmutable
	}
	if !scope.Valid() {
		return Role{}, fmt.Errorf("roles: invalid scope %q", scope)
	}
	name := NormalizeName(input.Name)
	if name == "" {
		return Role{}, fmt.Errorf("roles: role name required")
	}
	return s.repo.Create(ctx, Role{
		ID:          uuid.NewString(),
		Scope:       scope,
		Name:        name,
		Description: strings.TrimSpace(input.Description),
		Permissions: sortedUnique(input.Permissions),
	})
}

// Get fetches a role by id.
func (s *Service) Get(ctx context.Context, id string) (Role, error) {
	return s.repo.Get(ctx, id)
}

// ExistsInScope reports whether the role is visible from the scope.
func (s *Service) ExistsInScope(ctx context.Context, scope authz.Scope, roleID string) (bool, error) {
	return s.repo.ExistsInScope(ctx, scope, roleID)
}

// Update merges new permissions into a role and optionally renames it.
// Merging is monotonic: permissions are unioned, never removed.
func (s *Service) Update(ctx context.Context, roleID string, input UpdateRoleInput) (Role, error) {
	current, err := s.repo.Get(ctx, roleID)
	if err != nil {
		return Role{}, err
	}
	if current.Scope.IsGlobal() {
		return Role{}, shared.ErrGlobalRoleImmutable
	}
	if current.IsDeleted {
		return Role{}, shared.ErrNotFound
	}
	if input.Name != nil {
		normalized := NormalizeName(*input.Name)
		if normalized == "" {
			return Role{}, fmt.Errorf("roles: role name required")
		}
		input.Name = &normalized
	}
	return s.repo.Update(ctx, roleID, input)
}

// Delete tombstones a role. Memberships still referencing it are left in
// place; permission checks through them deny deterministically.
func (s *Service) Delete(ctx context.Context, roleID string) error {
	current, err := s.repo.Get(ctx, roleID)
	if err != nil {
		return err
	}
	if current.Scope.IsGlobal() {
		return shared.ErrGlobalRoleImmutable
	}
	return s.repo.SoftDelete(ctx, roleID)
}

// List returns roles visible from the scope.
func (s *Service) List(ctx context.Context, scope authz.Scope, filters ListFilters) ([]Role, int, error) {
	if scope.IsGlobal() || !scope.Valid() {
		return nil, 0, fmt.Errorf("roles: invalid listing scope %q", scope)
	}
	return s.repo.List(ctx, scope, filters)
}

// AdminRole resolves the built-in global admin role.
func (s *Service) AdminRole(ctx context.Context) (Role, error) {
	return s.repo.GetGlobalByName(ctx, "admin")
}

// OwnerRole resolves the built-in global owner role.
func (s *Service) OwnerRole(ctx context.Context) (Role, error) {
	return s.repo.GetGlobalByName(ctx, "owner")
}

// NormalizeName canonicalizes a role name: trimmed and case folded to lower.
func NormalizeName(name string) string {
	return nameCaser.String(strings.TrimSpace(name))
}
