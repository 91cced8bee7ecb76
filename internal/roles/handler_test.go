package roles

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/arbiter-io/arbiter/internal/authz"
	"github.com/arbiter-io/arbiter/internal/shared"
)

type stubMembers struct {
	roleIDs map[string]string // "userID|scope" -> roleID
}

func (s *stubMembers) ActiveRoleID(ctx context.Context, userID string, scope authz.Scope) (string, error) {
	roleID, ok := s.roleIDs[userID+"|"+scope.String()]
	if !ok {
		return "", shared.ErrNotFound
	}
	return roleID, nil
}

// stubRoleSource resolves permissions straight from the mock repository so
// the handler, service and decision core all see the same data.
type stubRoleSource struct {
	repo *mockRepository
}

func (s *stubRoleSource) Permissions(ctx context.Context, roleID string) ([]string, error) {
	role, err := s.repo.Get(ctx, roleID)
	if err != nil {
		return nil, err
	}
	if role.IsDeleted {
		return nil, shared.ErrNotFound
	}
	return role.Permissions, nil
}

type handlerFixture struct {
	router  chi.Router
	repo    *mockRepository
	members *stubMembers
}

func newHandlerFixture() *handlerFixture {
	repo := newMockRepository()
	members := &stubMembers{roleIDs: make(map[string]string)}
	decisions := authz.NewService(members, &stubRoleSource{repo: repo}, nil)
	guard := authz.Middleware{Service: decisions}
	handler := NewHandler(nil, NewService(repo), decisions, guard)

	r := chi.NewRouter()
	r.Route("/orgs/{orgID}/roles", handler.MountOrgRoutes)
	r.Route("/depts/{deptID}/roles", handler.MountDeptRoutes)
	r.Route("/roles", handler.MountRoleRoutes)
	return &handlerFixture{router: r, repo: repo, members: members}
}

func (f *handlerFixture) do(t *testing.T, method, path string, principal authz.Principal, body any) *httptest.ResponseRecorder {
	t.Helper()
	var reader *bytes.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewReader(raw)
	} else {
		reader = bytes.NewReader(nil)
	}
	req := httptest.NewRequest(method, path, reader)
	req.Header.Set("Content-Type", "application/json")
	if principal != nil {
		req = req.WithContext(authz.ContextWithPrincipal(req.Context(), principal))
	}
	rec := httptest.NewRecorder()
	f.router.ServeHTTP(rec, req)
	return rec
}

func TestCreateRoleAsSuperuser(t *testing.T) {
	f := newHandlerFixture()
	root := authz.UserPrincipal{ID: "root", IsActive: true, IsSuperuser: true}

	rec := f.do(t, http.MethodPost, "/orgs/org-1/roles", root, map[string]any{
		"name":        "Campaign Lead",
		"permissions": []string{"campaign:view", "campaign:update"},
	})
	require.Equal(t, http.StatusCreated, rec.Code)

	var resp struct {
		Name      string `json:"name"`
		ScopeKind string `json:"scope_kind"`
		ScopeID   string `json:"scope_id"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, "campaign lead", resp.Name)
	assert.Equal(t, "organization", resp.ScopeKind)
	assert.Equal(t, "org-1", resp.ScopeID)
}

func TestCreateRoleUnauthenticated(t *testing.T) {
	f := newHandlerFixture()

	rec := f.do(t, http.MethodPost, "/orgs/org-1/roles", nil, map[string]any{"name": "x y"})
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestCreateRoleWithoutPermission(t *testing.T) {
	f := newHandlerFixture()
	org := authz.OrganizationScope("org-1")

	viewer, err := f.repo.Create(context.Background(), Role{ID: "role-viewer", Scope: org, Name: "viewer", Permissions: []string{"content:view"}})
	require.NoError(t, err)
	f.members.roleIDs["user-1|"+org.String()] = viewer.ID

	rec := f.do(t, http.MethodPost, "/orgs/org-1/roles", authz.UserPrincipal{ID: "user-1", IsActive: true}, map[string]any{"name": "new role"})
	assert.Equal(t, http.StatusForbidden, rec.Code)
}

func TestUpdateRoleMergesPermissions(t *testing.T) {
	f := newHandlerFixture()
	org := authz.OrganizationScope("org-1")

	admin, err := f.repo.Create(context.Background(), Role{ID: "role-admin", Scope: org, Name: "org admin", Permissions: []string{shared.PermRoleUpdate}})
	require.NoError(t, err)
	target, err := f.repo.Create(context.Background(), Role{ID: "role-target", Scope: org, Name: "editor", Permissions: []string{"content:create"}})
	require.NoError(t, err)
	f.members.roleIDs["user-1|"+org.String()] = admin.ID

	rec := f.do(t, http.MethodPatch, "/roles/"+target.ID, authz.UserPrincipal{ID: "user-1", IsActive: true}, map[string]any{
		"permissions": []string{"content:update"},
	})
	require.Equal(t, http.StatusOK, rec.Code)

	var resp struct {
		Permissions []string `json:"permissions"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, []string{"content:create", "content:update"}, resp.Permissions)
}

func TestUpdateGlobalRoleRejected(t *testing.T) {
	f := newHandlerFixture()

	seeded, err := f.repo.EnsureGlobal(context.Background(), "gid-1", authz.ScopeOrganization, "admin", "", []string{shared.PermissionWildcard})
	require.NoError(t, err)

	root := authz.UserPrincipal{ID: "root", IsActive: true, IsSuperuser: true}
	rec := f.do(t, http.MethodPatch, "/roles/"+seeded.ID, root, map[string]any{"permissions": []string{"x:y"}})
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestDeleteRoleTombstones(t *testing.T) {
	f := newHandlerFixture()
	org := authz.OrganizationScope("org-1")

	target, err := f.repo.Create(context.Background(), Role{ID: "role-target", Scope: org, Name: "temp", Permissions: []string{"content:view"}})
	require.NoError(t, err)

	root := authz.UserPrincipal{ID: "root", IsActive: true, IsSuperuser: true}
	rec := f.do(t, http.MethodDelete, "/roles/"+target.ID, root, nil)
	require.Equal(t, http.StatusOK, rec.Code)

	stored, err := f.repo.Get(context.Background(), target.ID)
	require.NoError(t, err)
	assert.True(t, stored.IsDeleted)
}

func TestListIncludesGlobalDefaults(t *testing.T) {
	f := newHandlerFixture()
	org := authz.OrganizationScope("org-1")

	_, err := f.repo.EnsureGlobal(context.Background(), "gid-1", authz.ScopeOrganization, "viewer", "", []string{"content:view"})
	require.NoError(t, err)
	local, err := f.repo.Create(context.Background(), Role{ID: "role-local", Scope: org, Name: "org only", Permissions: nil})
	require.NoError(t, err)
	f.members.roleIDs["user-1|"+org.String()] = local.ID

	rec := f.do(t, http.MethodGet, "/orgs/org-1/roles", authz.UserPrincipal{ID: "user-1", IsActive: true}, nil)
	require.Equal(t, http.StatusOK, rec.Code)

	var resp struct {
		Items []struct {
			Name string `json:"name"`
		} `json:"items"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	names := make([]string, 0, len(resp.Items))
	for _, item := range resp.Items {
		names = append(names, item.Name)
	}
	assert.ElementsMatch(t, []string{"viewer", "org only"}, names)
}
