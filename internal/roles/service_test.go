package roles

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/arbiter-io/arbiter/internal/authz"
	"github.com/arbiter-io/arbiter/internal/shared"
)

type mockRepository struct {
	roles map[string]*Role
}

func newMockRepository() *mockRepository {
	return &mockRepository{roles: make(map[string]*Role)}
}

func (m *mockRepository) Create(ctx context.Context, role Role) (Role, error) {
	copied := role
	m.roles[role.ID] = &copied
	return copied, nil
}

func (m *mockRepository) Get(ctx context.Context, id string) (Role, error) {
	role, ok := m.roles[id]
	if !ok {
		return Role{}, shared.ErrNotFound
	}
	return *role, nil
}

func (m *mockRepository) ExistsInScope(ctx context.Context, scope authz.Scope, roleID string) (bool, error) {
	role, ok := m.roles[roleID]
	if !ok || role.IsDeleted {
		return false, nil
	}
	return role.Scope.IsGlobal() || role.Scope == scope, nil
}

func (m *mockRepository) Update(ctx context.Context, roleID string, input UpdateRoleInput) (Role, error) {
	role, ok := m.roles[roleID]
	if !ok || role.IsDeleted {
		return Role{}, shared.ErrNotFound
	}
	if input.Name != nil {
		role.Name = *input.Name
	}
	if input.Description != nil {
		role.Description = *input.Description
	}
	role.Permissions = mergePermissions(role.Permissions, input.Permissions)
	return *role, nil
}

func (m *mockRepository) SoftDelete(ctx context.Context, roleID string) error {
	role, ok := m.roles[roleID]
	if !ok || role.IsDeleted {
		return shared.ErrNotFound
	}
	role.IsDeleted = true
	return nil
}

func (m *mockRepository) List(ctx context.Context, scope authz.Scope, filters ListFilters) ([]Role, int, error) {
	var out []Role
	for _, role := range m.roles {
		if role.IsDeleted {
			continue
		}
		if role.Scope == scope || (filters.IncludeDefaults && role.Scope.IsGlobal()) {
			out = append(out, *role)
		}
	}
	return out, len(out), nil
}

func (m *mockRepository) GetGlobalByName(ctx context.Context, name string) (Role, error) {
	for _, role := range m.roles {
		if role.Scope.IsGlobal() && role.Name == name && !role.IsDeleted {
			return *role, nil
		}
	}
	return Role{}, shared.ErrNotFound
}

func (m *mockRepository) EnsureGlobal(ctx context.Context, id string, kind authz.ScopeKind, name, description string, permissions []string) (Role, error) {
	for _, role := range m.roles {
		if role.Scope.IsGlobal() && role.Name == name && role.DefaultFor == kind && !role.IsDeleted {
			role.Permissions = mergePermissions(role.Permissions, permissions)
			return *role, nil
		}
	}
	role := Role{ID: id, Scope: authz.GlobalScope(), Name: name, Description: description, Permissions: sortedUnique(permissions), DefaultFor: kind}
	m.roles[id] = &role
	return role, nil
}

func TestCreateNormalizesName(t *testing.T) {
	repo := newMockRepository()
	svc := NewService(repo)

	role, err := svc.Create(context.Background(), authz.OrganizationScope("org-1"), CreateRoleInput{
		Name:        "  Content Editor  ",
		Permissions: []string{"content:update", "content:create", "content:update"},
	})
	require.NoError(t, err)
	assert.Equal(t, "content editor", role.Name)
	assert.Equal(t, []string{"content:create", "content:update"}, role.Permissions)
	assert.NotEmpty(t, role.ID)
}

func TestCreateRejectsGlobalScope(t *testing.T) {
	svc := NewService(newMockRepository())

	_, err := svc.Create(context.Background(), authz.GlobalScope(), CreateRoleInput{Name: "sneaky"})
	assert.ErrorIs(t, err, shared.ErrGlobalRoleImmutable)
}

func TestCreateRejectsEmptyName(t *testing.T) {
	svc := NewService(newMockRepository())

	_, err := svc.Create(context.Background(), authz.OrganizationScope("org-1"), CreateRoleInput{Name: "   "})
	assert.Error(t, err)
}

func TestUpdateMergesPermissions(t *testing.T) {
	repo := newMockRepository()
	svc := NewService(repo)

	role, err := svc.Create(context.Background(), authz.OrganizationScope("org-1"), CreateRoleInput{
		Name:        "editor",
		Permissions: []string{"content:create"},
	})
	require.NoError(t, err)

	updated, err := svc.Update(context.Background(), role.ID, UpdateRoleInput{
		Permissions: []string{"content:update", "content:create"},
	})
	require.NoError(t, err)
	assert.Equal(t, []string{"content:create", "content:update"}, updated.Permissions)

	// Re-applying the same update keeps the set unchanged.
	again, err := svc.Update(context.Background(), role.ID, UpdateRoleInput{
		Permissions: []string{"content:create", "content:update"},
	})
	require.NoError(t, err)
	assert.Equal(t, updated.Permissions, again.Permissions)
}

func TestUpdateNeverRemovesPermissions(t *testing.T) {
	repo := newMockRepository()
	svc := NewService(repo)

	role, err := svc.Create(context.Background(), authz.OrganizationScope("org-1"), CreateRoleInput{
		Name:        "editor",
		Permissions: []string{"content:create", "content:delete"},
	})
	require.NoError(t, err)

	updated, err := svc.Update(context.Background(), role.ID, UpdateRoleInput{
		Permissions: []string{"content:view"},
	})
	require.NoError(t, err)
	assert.Equal(t, []string{"content:create", "content:delete", "content:view"}, updated.Permissions)
}

func TestUpdateRejectsGlobalRole(t *testing.T) {
	repo := newMockRepository()
	svc := NewService(repo)

	seeded, err := repo.EnsureGlobal(context.Background(), "gid-1", authz.ScopeOrganization, "admin", "", []string{"role:create"})
	require.NoError(t, err)

	_, err = svc.Update(context.Background(), seeded.ID, UpdateRoleInput{Permissions: []string{"role:delete"}})
	assert.ErrorIs(t, err, shared.ErrGlobalRoleImmutable)
}

func TestDeleteRejectsGlobalRole(t *testing.T) {
	repo := newMockRepository()
	svc := NewService(repo)

	seeded, err := repo.EnsureGlobal(context.Background(), "gid-1", authz.ScopeOrganization, "viewer", "", []string{"content:view"})
	require.NoError(t, err)

	assert.ErrorIs(t, svc.Delete(context.Background(), seeded.ID), shared.ErrGlobalRoleImmutable)
}

func TestDeleteTombstones(t *testing.T) {
	repo := newMockRepository()
	svc := NewService(repo)

	role, err := svc.Create(context.Background(), authz.OrganizationScope("org-1"), CreateRoleInput{Name: "temp"})
	require.NoError(t, err)

	require.NoError(t, svc.Delete(context.Background(), role.ID))

	visible, err := svc.ExistsInScope(context.Background(), authz.OrganizationScope("org-1"), role.ID)
	require.NoError(t, err)
	assert.False(t, visible)

	_, err = svc.Update(context.Background(), role.ID, UpdateRoleInput{Permissions: []string{"x:y"}})
	assert.ErrorIs(t, err, shared.ErrNotFound)
}

func TestListRejectsGlobalScope(t *testing.T) {
	svc := NewService(newMockRepository())

	_, _, err := svc.List(context.Background(), authz.GlobalScope(), ListFilters{})
	assert.Error(t, err)
}

func TestSeedDefaultsIsIdempotent(t *testing.T) {
	repo := newMockRepository()

	require.NoError(t, SeedDefaults(context.Background(), repo))
	first := len(repo.roles)
	require.NoError(t, SeedDefaults(context.Background(), repo))
	assert.Equal(t, first, len(repo.roles))

	admin, err := repo.GetGlobalByName(context.Background(), "admin")
	require.NoError(t, err)
	assert.NotContains(t, admin.Permissions, "organization:delete")

	super, err := repo.GetGlobalByName(context.Background(), "superadmin")
	require.NoError(t, err)
	assert.Equal(t, []string{shared.PermissionWildcard}, super.Permissions)
}

func TestSeedDefaultsKeepsApproverSetsDistinct(t *testing.T) {
	repo := newMockRepository()

	require.NoError(t, SeedDefaults(context.Background(), repo))
	require.NoError(t, SeedDefaults(context.Background(), repo))

	byKind := map[authz.ScopeKind][]string{}
	for _, role := range repo.roles {
		if role.Name == "content approver" {
			byKind[role.DefaultFor] = role.Permissions
		}
	}
	require.Len(t, byKind, 2)
	assert.Equal(t, []string{"content:approve", "content:view"}, byKind[authz.ScopeOrganization])
	assert.Equal(t, []string{"department:approve-content", "department:publish-content", "department:view"}, byKind[authz.ScopeDepartment])
}

func TestMergePermissionsCommutative(t *testing.T) {
	a := []string{"b:1", "a:2"}
	b := []string{"a:2", "c:3"}
	assert.Equal(t, mergePermissions(a, b), mergePermissions(b, a))
}
