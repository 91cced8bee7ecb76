// Package authz is the decision core: it resolves whether an authenticated
// principal belongs to a scope and whether its effective role grants a
// permission. Check is read-only and safe under unlimited concurrency.
package authz

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/arbiter-io/arbiter/internal/shared"
)

// MembershipSource looks up the active, non-deleted membership of a user at
// one exact scope instance. Implementations return shared.ErrNotFound when
// no such membership exists.
type MembershipSource interface {
	ActiveRoleID(ctx context.Context, userID string, scope Scope) (string, error)
}

// RoleSource resolves a role id to its permission set. Implementations
// return shared.ErrNotFound for missing or tombstoned roles.
type RoleSource interface {
	Permissions(ctx context.Context, roleID string) ([]string, error)
}

// Service combines the scope membership resolver and the permission
// resolver over pluggable membership and role sources.
type Service struct {
	members MembershipSource
	roles   RoleSource
	logger  *slog.Logger
}

// NewService constructs a Service.
func NewService(members MembershipSource, roles RoleSource, logger *slog.Logger) *Service {
	return &Service{members: members, roles: roles, logger: logger}
}

// Belongs reports whether the principal belongs to the exact scope instance.
// It returns nil on success and shared.ErrNotMember otherwise. Superusers
// belong everywhere; credentials belong only to their bound organization and
// never to any department.
func (s *Service) Belongs(ctx context.Context, principal Principal, scope Scope) error {
	if !scope.Valid() {
		return fmt.Errorf("authz: invalid scope %q: %w", scope, shared.ErrNotMember)
	}

	switch p := principal.(type) {
	case UserPrincipal:
		if p.IsSuperuser {
			return nil
		}
		_, err := s.members.ActiveRoleID(ctx, p.ID, scope)
		if err != nil {
			if errors.Is(err, shared.ErrNotFound) {
				return shared.ErrNotMember
			}
			return fmt.Errorf("authz: membership lookup: %w", err)
		}
		return nil
	case CredentialPrincipal:
		if scope.Kind == ScopeOrganization && scope.ID == p.OrganizationID {
			return nil
		}
		// Credentials are categorically excluded from department scopes,
		// regardless of the bound role.
		return shared.ErrNotMember
	default:
		return shared.ErrNotMember
	}
}

// Check decides whether the principal may perform permission within scope.
// It returns nil when allowed, otherwise shared.ErrNotMember,
// shared.ErrRoleNotInScope or shared.ErrForbidden. Check never mutates state.
func (s *Service) Check(ctx context.Context, principal Principal, scope Scope, permission string) error {
	if err := s.Belongs(ctx, principal, scope); err != nil {
		return err
	}

	var roleID string
	switch p := principal.(type) {
	case UserPrincipal:
		if p.IsSuperuser {
			return nil
		}
		id, err := s.members.ActiveRoleID(ctx, p.ID, scope)
		if err != nil {
			if errors.Is(err, shared.ErrNotFound) {
				return shared.ErrNotMember
			}
			return fmt.Errorf("authz: membership lookup: %w", err)
		}
		roleID = id
	case CredentialPrincipal:
		roleID = p.RoleID
	}

	perms, err := s.roles.Permissions(ctx, roleID)
	if err != nil {
		if errors.Is(err, shared.ErrNotFound) {
			// A tombstoned or dangling role deterministically denies.
			return shared.ErrRoleNotInScope
		}
		return fmt.Errorf("authz: role lookup: %w", err)
	}

	if !hasPermission(perms, permission) {
		if s.logger != nil {
			s.logger.Info("permission denied",
				slog.String("principal", principal.PrincipalID()),
				slog.String("scope", scope.String()),
				slog.String("permission", permission))
		}
		return shared.ErrForbidden
	}
	return nil
}

func hasPermission(granted []string, required string) bool {
	for _, p := range granted {
		if p == shared.PermissionWildcard || p == required {
			return true
		}
	}
	return false
}
