package users

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/arbiter-io/arbiter/internal/authz"
	"github.com/arbiter-io/arbiter/internal/platform/httpx"
	"github.com/arbiter-io/arbiter/internal/shared"
)

// Handler exposes user account endpoints for operators.
type Handler struct {
	logger  *slog.Logger
	service *Service
}

// NewHandler builds Handler instance.
func NewHandler(logger *slog.Logger, service *Service) *Handler {
	return &Handler{logger: logger, service: service}
}

// MountRoutes registers user routes; mount under /users. Listing accounts is
// an operator concern, restricted to superusers.
func (h *Handler) MountRoutes(r chi.Router) {
	r.Get("/", h.listUsers)
}

func (h *Handler) listUsers(w http.ResponseWriter, r *http.Request) {
	principal, ok := authz.PrincipalFromContext(r.Context())
	if !ok {
		httpx.RespondError(w, shared.ErrUnauthenticated)
		return
	}
	user, ok := principal.(authz.UserPrincipal)
	if !ok || !user.IsSuperuser {
		httpx.RespondError(w, shared.ErrForbidden)
		return
	}

	list, err := h.service.List(r.Context())
	if err != nil {
		httpx.RespondError(w, err)
		return
	}

	type item struct {
		ID          string `json:"id"`
		Email       string `json:"email"`
		Name        string `json:"name"`
		IsActive    bool   `json:"is_active"`
		IsSuperuser bool   `json:"is_superuser"`
	}
	out := make([]item, 0, len(list))
	for _, u := range list {
		out = append(out, item{ID: u.ID, Email: u.Email, Name: u.Name, IsActive: u.IsActive, IsSuperuser: u.IsSuperuser})
	}
	httpx.JSON(w, http.StatusOK, map[string]any{"items": out})
}
