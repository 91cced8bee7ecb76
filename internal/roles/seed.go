package roles

import (
	"context"
	"fmt"

	"github.com/google/uuid"

	"github.com/arbiter-io/arbiter/internal/authz"
	"github.com/arbiter-io/arbiter/internal/shared"
)

// SeedDefaults installs the global default roles shared by all tenants:
// the organization defaults (superadmin, owner, admin, ...) and the
// department defaults (department head, team lead, ...). Each set is seeded
// under its own scope kind, so the "content approver" of one set never
// merges with the other's. It is the only write path for global roles and
// is idempotent.
func SeedDefaults(ctx context.Context, repo RepositoryPort) error {
	seed := func(kind authz.ScopeKind, defs []shared.DefaultRole) error {
		for _, def := range defs {
			name := NormalizeName(def.Name)
			if _, err := repo.EnsureGlobal(ctx, uuid.NewString(), kind, name, def.Description, def.Permissions); err != nil {
				return fmt.Errorf("roles: seed %s %q: %w", kind, name, err)
			}
		}
		return nil
	}
	if err := seed(authz.ScopeOrganization, shared.DefaultOrgRoles()); err != nil {
		return err
	}
	return seed(authz.ScopeDepartment, shared.DefaultDepartmentRoles())
}
