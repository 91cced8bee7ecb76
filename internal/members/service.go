package members

import (
	"context"
	"errors"
	"fmt"

	"github.com/arbiter-io/arbiter/internal/authz"
	"github.com/arbiter-io/arbiter/internal/roles"
	"github.com/arbiter-io/arbiter/internal/shared"
)

// RepositoryPort defines data access methods for memberships.
type RepositoryPort interface {
	ActiveRoleID(ctx context.Context, userID string, scope authz.Scope) (string, error)
	Get(ctx context.Context, userID string, scope authz.Scope) (Membership, error)
	Upsert(ctx context.Context, input AssignRoleInput) (Membership, error)
	Remove(ctx context.Context, userID string, scope authz.Scope) error
}

// RoleDirectory is the slice of the role registry the membership service
// needs: visibility checks and the protected owner role.
type RoleDirectory interface {
	ExistsInScope(ctx context.Context, scope authz.Scope, roleID string) (bool, error)
	OwnerRole(ctx context.Context) (roles.Role, error)
}

// Service handles membership business rules.
type Service struct {
	repo  RepositoryPort
	roles RoleDirectory
}

// NewService builds Service instance.
func NewService(repo RepositoryPort, roles RoleDirectory) *Service {
	return &Service{repo: repo, roles: roles}
}

// AssignRole assigns or reassigns a member's role at one concrete scope. The
// role must be visible from that scope (scope-local or global default). The
// owner binding cannot be reassigned through this path; the refusal is
// enforced by the upsert itself, under its row lock.
func (s *Service) AssignRole(ctx context.Context, input AssignRoleInput) (Membership, error) {
	if input.Scope.IsGlobal() || !input.Scope.Valid() {
		return Membership{}, fmt.Errorf("members: invalid scope %q", input.Scope)
	}

	visible, err := s.roles.ExistsInScope(ctx, input.Scope, input.RoleID)
	if err != nil {
		return Membership{}, err
	}
	if !visible {
		return Membership{}, shared.ErrRoleNotInScope
	}

	owner, err := s.roles.OwnerRole(ctx)
	if err != nil && !errors.Is(err, shared.ErrNotFound) {
		return Membership{}, err
	}
	input.ProtectedRoleID = owner.ID

	return s.repo.Upsert(ctx, input)
}

// Remove tombstones the user's membership at the scope.
func (s *Service) Remove(ctx context.Context, userID string, scope authz.Scope) error {
	return s.repo.Remove(ctx, userID, scope)
}

// Get fetches the user's membership at the scope.
func (s *Service) Get(ctx context.Context, userID string, scope authz.Scope) (Membership, error) {
	return s.repo.Get(ctx, userID, scope)
}

