package apikeys

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"

	"github.com/arbiter-io/arbiter/internal/authz"
	"github.com/arbiter-io/arbiter/internal/platform/httpx"
	"github.com/arbiter-io/arbiter/internal/shared"
)

// Handler exposes machine credential administration endpoints.
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

type issueRequest struct {
	AccessType string `json:"access_type" validate:"required,oneof=full limited"`
	RoleID     string `json:"role_id"`
	AppName    string `json:"app_name" validate:"max=120"`
}

type apikeyResponse struct {
	ID             string     `json:"id"`
	OrganizationID string     `json:"organization_id"`
	RoleID         string     `json:"role_id"`
	AppName        string     `json:"app_name,omitempty"`
	Prefix         string     `json:"prefix"`
	AccessType     string     `json:"access_type"`
	IsActive       bool       `json:"is_active"`
	LastUsedAt     *time.Time `json:"last_used_at,omitempty"`
	CreatedAt      time.Time  `json:"created_at"`
}

// MountOrgRoutes registers organization-scoped credential routes; mount
// under /orgs/{orgID}/apikeys.
func (h *Handler) MountOrgRoutes(r chi.Router) {
	r.Group(func(r chi.Router) {
		r.Use(h.guard.RequireOrgPermission("orgID", shared.PermAPIKeyCreate))
		r.Post("/", h.issue)
	})
	r.Group(func(r chi.Router) {
		r.Use(h.guard.RequireOrgPermission("orgID", shared.PermAPIKeyView))
		r.Get("/", h.list)
	})
}

// MountKeyRoutes registers credential mutation routes addressed by key id;
// mount under /apikeys.
func (h *Handler) MountKeyRoutes(r chi.Router) {
	r.Post("/{keyID}/toggle", h.toggle)
}

func (h *Handler) issue(w http.ResponseWriter, r *http.Request) {
	var payload issueRequest
	if err := httpx.DecodeJSON(r, &payload); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Invalid JSON", err.Error())
		return
	}
	if err := h.validator.Struct(payload); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Validation Failed", err.Error())
		return
	}

	var createdBy string
	if principal, ok := authz.PrincipalFromContext(r.Context()); ok {
		createdBy = principal.PrincipalID()
	}

	record, secret, err := h.service.Issue(r.Context(), IssueInput{
		OrganizationID: chi.URLParam(r, "orgID"),
		AccessType:     AccessType(payload.AccessType),
		RoleID:         payload.RoleID,
		AppName:        payload.AppName,
		CreatedBy:      createdBy,
	})
	if err != nil {
		httpx.RespondError(w, err)
		return
	}

	// The plaintext secret appears in this response and nowhere else.
	httpx.JSON(w, http.StatusCreated, map[string]any{
		"apikey": toResponse(record),
		"secret": secret,
	})
}

func (h *Handler) list(w http.ResponseWriter, r *http.Request) {
	keys, err := h.service.ListByOrganization(r.Context(), chi.URLParam(r, "orgID"))
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	out := make([]apikeyResponse, 0, len(keys))
	for _, key := range keys {
		out = append(out, toResponse(key))
	}
	httpx.JSON(w, http.StatusOK, map[string]any{"items": out})
}

// toggle requires the apikey delete permission within the credential's
// organization; the scope comes from the record itself.
func (h *Handler) toggle(w http.ResponseWriter, r *http.Request) {
	principal, ok := authz.PrincipalFromContext(r.Context())
	if !ok {
		httpx.RespondError(w, shared.ErrUnauthenticated)
		return
	}

	key, err := h.service.Get(r.Context(), chi.URLParam(r, "keyID"))
	if err != nil {
		httpx.RespondError(w, err)
		return
	}

	scope := authz.OrganizationScope(key.OrganizationID)
	if err := h.decisions.Check(r.Context(), principal, scope, shared.PermAPIKeyDelete); err != nil {
		httpx.RespondError(w, err)
		return
	}

	updated, err := h.service.ToggleActive(r.Context(), key.ID)
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, toResponse(updated))
}

func toResponse(key APIKey) apikeyResponse {
	return apikeyResponse{
		ID:             key.ID,
		OrganizationID: key.OrganizationID,
		RoleID:         key.RoleID,
		AppName:        key.AppName,
		Prefix:         key.Prefix,
		AccessType:     string(key.AccessType),
		IsActive:       key.IsActive,
		LastUsedAt:     key.LastUsedAt,
		CreatedAt:      key.CreatedAt,
	}
}
