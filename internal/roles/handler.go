package roles

import (
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"

	"github.com/arbiter-io/arbiter/internal/authz"
	"github.com/arbiter-io/arbiter/internal/platform/httpx"
	"github.com/arbiter-io/arbiter/internal/shared"
)

// Handler exposes role registry administration endpoints.
type Handler struct {
	logger    *slog.Logger
	service   *Service
	decisions *authz.Service
	guard     authz.Middleware
	validator *validator.Validate
}

// NewHandler builds Handler instance.
func NewHandler(logger *slog.Logger, service *Service, decisions *authz.Service, guard authz.Middleware) *Handler {
	return &Handler{
		logger:    logger,
		service:   service,
		decisions: decisions,
		guard:     guard,
		validator: validator.New(),
	}
}

type createRoleRequest struct {
	Name        string   `json:"name" validate:"required,min=2,max=120"`
	Description string   `json:"description" validate:"max=500"`
	Permissions []string `json:"permissions" validate:"dive,min=1"`
}

type updateRoleRequest struct {
	Name        *string  `json:"name" validate:"omitempty,min=2,max=120"`
	Description *string  `json:"description" validate:"omitempty,max=500"`
	Permissions []string `json:"permissions" validate:"dive,min=1"`
}

type roleResponse struct {
	ID          string    `json:"id"`
	ScopeKind   string    `json:"scope_kind"`
	ScopeID     string    `json:"scope_id,omitempty"`
	Name        string    `json:"name"`
	Description string    `json:"description,omitempty"`
	Permissions []string  `json:"permissions"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

type roleListResponse struct {
	Items      []roleResponse    `json:"items"`
	Pagination shared.Pagination `json:"pagination"`
}

// MountOrgRoutes registers organization-scoped role routes; mount under
// /orgs/{orgID}/roles.
func (h *Handler) MountOrgRoutes(r chi.Router) {
	r.Group(func(r chi.Router) {
		r.Use(h.guard.RequireOrgMember("orgID"))
		r.Get("/", h.listOrgRoles)
	})
	r.Group(func(r chi.Router) {
		r.Use(h.guard.RequireOrgPermission("orgID", shared.PermRoleCreate))
		r.Post("/", h.createRole(authz.OrganizationScope, "orgID"))
	})
}

// MountDeptRoutes registers department-scoped role routes; mount under
// /depts/{deptID}/roles.
func (h *Handler) MountDeptRoutes(r chi.Router) {
	r.Group(func(r chi.Router) {
		r.Use(h.guard.RequireDeptMember("deptID"))
		r.Get("/", h.listDeptRoles)
	})
	r.Group(func(r chi.Router) {
		r.Use(h.guard.RequireDeptPermission("deptID", "department:create-role"))
		r.Post("/", h.createRole(authz.DepartmentScope, "deptID"))
	})
}

// MountRoleRoutes registers role mutation routes addressed by role id; mount
// under /roles.
func (h *Handler) MountRoleRoutes(r chi.Router) {
	r.Patch("/{roleID}", h.updateRole)
	r.Delete("/{roleID}", h.deleteRole)
}

func (h *Handler) createRole(scopeOf func(string) authz.Scope, param string) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var payload createRoleRequest
		if err := httpx.DecodeJSON(r, &payload); err != nil {
			httpx.Problem(w, http.StatusBadRequest, "Invalid JSON", err.Error())
			return
		}
		if err := h.validator.Struct(payload); err != nil {
			httpx.Problem(w, http.StatusBadRequest, "Validation Failed", err.Error())
			return
		}

		role, err := h.service.Create(r.Context(), scopeOf(chi.URLParam(r, param)), CreateRoleInput{
			Name:        payload.Name,
			Description: payload.Description,
			Permissions: payload.Permissions,
		})
		if err != nil {
			httpx.RespondError(w, err)
			return
		}
		httpx.JSON(w, http.StatusCreated, toRoleResponse(role))
	}
}

func (h *Handler) listOrgRoles(w http.ResponseWriter, r *http.Request) {
	h.respondList(w, r, authz.OrganizationScope(chi.URLParam(r, "orgID")))
}

func (h *Handler) listDeptRoles(w http.ResponseWriter, r *http.Request) {
	h.respondList(w, r, authz.DepartmentScope(chi.URLParam(r, "deptID")))
}

func (h *Handler) respondList(w http.ResponseWriter, r *http.Request, scope authz.Scope) {
	filters := listFiltersFromQuery(r)
	items, total, err := h.service.List(r.Context(), scope, filters)
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	out := make([]roleResponse, 0, len(items))
	for _, role := range items {
		out = append(out, toRoleResponse(role))
	}
	httpx.JSON(w, http.StatusOK, roleListResponse{
		Items:      out,
		Pagination: shared.NewPagination(filters.Page, filters.PerPage, total),
	})
}

// updateRole merges permissions into an existing role. The required
// permission is evaluated against the scope the role lives in; belonging to
// that scope is implied by the check itself.
func (h *Handler) updateRole(w http.ResponseWriter, r *http.Request) {
	role, ok := h.authorizeRoleWrite(w, r, "update")
	if !ok {
		return
	}

	var payload updateRoleRequest
	if err := httpx.DecodeJSON(r, &payload); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Invalid JSON", err.Error())
		return
	}
	if err := h.validator.Struct(payload); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Validation Failed", err.Error())
		return
	}

	updated, err := h.service.Update(r.Context(), role.ID, UpdateRoleInput{
		Name:        payload.Name,
		Description: payload.Description,
		Permissions: payload.Permissions,
	})
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, toRoleResponse(updated))
}

func (h *Handler) deleteRole(w http.ResponseWriter, r *http.Request) {
	role, ok := h.authorizeRoleWrite(w, r, "delete")
	if !ok {
		return
	}
	if err := h.service.Delete(r.Context(), role.ID); err != nil {
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, map[string]string{"status": "deleted"})
}

func (h *Handler) authorizeRoleWrite(w http.ResponseWriter, r *http.Request, action string) (Role, bool) {
	principal, ok := authz.PrincipalFromContext(r.Context())
	if !ok {
		httpx.RespondError(w, shared.ErrUnauthenticated)
		return Role{}, false
	}

	role, err := h.service.Get(r.Context(), chi.URLParam(r, "roleID"))
	if err != nil {
		httpx.RespondError(w, err)
		return Role{}, false
	}
	if role.Scope.IsGlobal() {
		httpx.RespondError(w, shared.ErrGlobalRoleImmutable)
		return Role{}, false
	}

	if err := h.decisions.Check(r.Context(), principal, role.Scope, rolePermFor(role.Scope.Kind, action)); err != nil {
		httpx.RespondError(w, err)
		return Role{}, false
	}
	return role, true
}

func rolePermFor(kind authz.ScopeKind, action string) string {
	if kind == authz.ScopeDepartment {
		return "department:" + action + "-role"
	}
	return "role:" + action
}

func toRoleResponse(role Role) roleResponse {
	return roleResponse{
		ID:          role.ID,
		ScopeKind:   string(role.Scope.Kind),
		ScopeID:     role.Scope.ID,
		Name:        role.Name,
		Description: role.Description,
		Permissions: role.Permissions,
		CreatedAt:   role.CreatedAt,
		UpdatedAt:   role.UpdatedAt,
	}
}

func listFiltersFromQuery(r *http.Request) ListFilters {
	q := r.URL.Query()
	page, _ := strconv.Atoi(q.Get("page"))
	perPage, _ := strconv.Atoi(q.Get("per_page"))
	includeDefaults := true
	if raw := q.Get("include_defaults"); raw != "" {
		if parsed, err := strconv.ParseBool(raw); err == nil {
			includeDefaults = parsed
		}
	}
	return ListFilters{
		Name:            q.Get("name"),
		SortBy:          q.Get("sort_by"),
		SortDir:         q.Get("order"),
		Page:            page,
		PerPage:         perPage,
		IncludeDefaults: includeDefaults,
	}
}
