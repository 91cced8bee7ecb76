package app

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"

	"github.com/arbiter-io/arbiter/internal/apikeys"
	"github.com/arbiter-io/arbiter/internal/auth"
	"github.com/arbiter-io/arbiter/internal/members"
	"github.com/arbiter-io/arbiter/internal/observability"
	"github.com/arbiter-io/arbiter/internal/roles"
	"github.com/arbiter-io/arbiter/internal/shared"
	"github.com/arbiter-io/arbiter/internal/users"
	"github.com/arbiter-io/arbiter/jobs"
)

// RouterParams groups dependencies for building the HTTP router.
type RouterParams struct {
	Logger         *slog.Logger
	Config         *Config
	SessionManager *shared.SessionManager
	AuthService    *auth.Service
	AuthHandler    *auth.Handler
	RolesHandler   *roles.Handler
	MembersHandler *members.Handler
	UsersHandler   *users.Handler
	APIKeysHandler *apikeys.Handler
	JobHandler     *jobs.Handler
	Metrics        *observability.Metrics
}

// NewRouter constructs the chi.Router with application defaults.
func NewRouter(params RouterParams) http.Handler {
	r := chi.NewRouter()

	for _, mw := range MiddlewareStack(MiddlewareConfig{
		Logger:         params.Logger,
		Config:         params.Config,
		SessionManager: params.SessionManager,
		AuthService:    params.AuthService,
		Metrics:        params.Metrics,
	}) {
		r.Use(mw)
	}

	r.Use(chimw.Logger)

	r.Get("/healthz", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte(`{"status":"ok"}`))
	})

	r.Route("/auth", params.AuthHandler.MountRoutes)

	r.Route("/orgs/{orgID}", func(r chi.Router) {
		r.Route("/roles", params.RolesHandler.MountOrgRoutes)
		if params.APIKeysHandler != nil {
			r.Route("/apikeys", params.APIKeysHandler.MountOrgRoutes)
		}
	})
	r.Route("/depts/{deptID}/roles", params.RolesHandler.MountDeptRoutes)
	r.Route("/roles", params.RolesHandler.MountRoleRoutes)

	if params.MembersHandler != nil {
		r.Route("/memberships", params.MembersHandler.MountRoutes)
	}
	if params.UsersHandler != nil {
		r.Route("/users", params.UsersHandler.MountRoutes)
	}
	if params.APIKeysHandler != nil {
		r.Route("/apikeys", params.APIKeysHandler.MountKeyRoutes)
	}
	if params.JobHandler != nil {
		r.Route("/jobs", params.JobHandler.MountRoutes)
	}
	if params.Metrics != nil {
		r.Method(http.MethodGet, "/metrics", params.Metrics.Handler())
	}

	return r
}
