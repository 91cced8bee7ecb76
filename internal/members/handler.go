package members

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"

	"github.com/arbiter-io/arbiter/internal/authz"
	"github.com/arbiter-io/arbiter/internal/platform/httpx"
	"github.com/arbiter-io/arbiter/internal/shared"
)

// Handler exposes membership administration endpoints.
type Handler struct {
	logger    *slog.Logger
	service   *Service
	decisions *authz.Service
	validator *validator.Validate
}

// NewHandler builds Handler instance.
func NewHandler(logger *slog.Logger, service *Service, decisions *authz.Service) *Handler {
	return &Handler{logger: logger, service: service, decisions: decisions, validator: validator.New()}
}

type assignRoleRequest struct {
	UserID    string `json:"user_id" validate:"required,uuid4"`
	ScopeKind string `json:"scope_kind" validate:"required,oneof=organization department"`
	ScopeID   string `json:"scope_id" validate:"required"`
	RoleID    string `json:"role_id" validate:"required"`
}

// MountRoutes registers membership routes; mount under /memberships.
func (h *Handler) MountRoutes(r chi.Router) {
	r.Post("/assign", h.assignRole)
}

// assignRole requires the assign-role permission in the target scope. The
// scope arrives in the payload, so the check runs inline rather than through
// the routing guard.
func (h *Handler) assignRole(w http.ResponseWriter, r *http.Request) {
	principal, ok := authz.PrincipalFromContext(r.Context())
	if !ok {
		httpx.RespondError(w, shared.ErrUnauthenticated)
		return
	}

	var payload assignRoleRequest
	if err := httpx.DecodeJSON(r, &payload); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Invalid JSON", err.Error())
		return
	}
	if err := h.validator.Struct(payload); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Validation Failed", err.Error())
		return
	}

	scope := authz.Scope{Kind: authz.ScopeKind(payload.ScopeKind), ID: payload.ScopeID}
	perm := shared.PermOrgAssignRole
	if scope.Kind == authz.ScopeDepartment {
		perm = shared.PermDeptAssignRole
	}
	if err := h.decisions.Check(r.Context(), principal, scope, perm); err != nil {
		httpx.RespondError(w, err)
		return
	}

	membership, err := h.service.AssignRole(r.Context(), AssignRoleInput{
		UserID: payload.UserID,
		Scope:  scope,
		RoleID: payload.RoleID,
	})
	if err != nil {
		httpx.RespondError(w, err)
		return
	}

	httpx.JSON(w, http.StatusOK, map[string]any{
		"id":      membership.ID,
		"user_id": membership.UserID,
		"role_id": membership.RoleID,
		"scope":   membership.Scope.String(),
	})
}
