package authz

import (
	"errors"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/arbiter-io/arbiter/internal/platform/httpx"
	"github.com/arbiter-io/arbiter/internal/shared"
)

// DecisionRecorder counts authorization outcomes for observability.
type DecisionRecorder interface {
	RecordDecision(outcome string)
}

// Middleware wires authorization guards for HTTP handlers. The principal is
// expected in the request context, placed there by the authentication
// middleware.
type Middleware struct {
	Service *Service
	Logger  *slog.Logger
	Metrics DecisionRecorder
}

// RequireOrgPermission ensures the principal holds perm within the
// organization named by the URL parameter.
func (m Middleware) RequireOrgPermission(param, perm string) func(http.Handler) http.Handler {
	return m.require(param, perm, OrganizationScope)
}

// RequireDeptPermission ensures the principal holds perm within the
// department named by the URL parameter. Credential principals always fail
// here.
func (m Middleware) RequireDeptPermission(param, perm string) func(http.Handler) http.Handler {
	return m.require(param, perm, DepartmentScope)
}

// RequireOrgMember ensures the principal belongs to the organization named
// by the URL parameter, without demanding a specific permission.
func (m Middleware) RequireOrgMember(param string) func(http.Handler) http.Handler {
	return m.require(param, "", OrganizationScope)
}

// RequireDeptMember ensures the principal belongs to the department named by
// the URL parameter.
func (m Middleware) RequireDeptMember(param string) func(http.Handler) http.Handler {
	return m.require(param, "", DepartmentScope)
}

func (m Middleware) require(param, perm string, scopeOf func(string) Scope) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			principal, ok := PrincipalFromContext(r.Context())
			if !ok {
				m.record("unauthenticated")
				httpx.RespondError(w, shared.ErrUnauthenticated)
				return
			}

			scope := scopeOf(chi.URLParam(r, param))

			var err error
			if perm == "" {
				err = m.Service.Belongs(r.Context(), principal, scope)
			} else {
				err = m.Service.Check(r.Context(), principal, scope, perm)
			}
			if err != nil {
				m.record(outcomeLabel(err))
				if m.Logger != nil {
					m.Logger.Warn("authorization denied",
						slog.String("principal", principal.PrincipalID()),
						slog.String("scope", scope.String()),
						slog.String("permission", perm),
						slog.Any("error", err))
				}
				httpx.RespondError(w, err)
				return
			}

			m.record("allow")
			next.ServeHTTP(w, r)
		})
	}
}

func (m Middleware) record(outcome string) {
	if m.Metrics != nil {
		m.Metrics.RecordDecision(outcome)
	}
}

func outcomeLabel(err error) string {
	switch {
	case err == nil:
		return "allow"
	case errors.Is(err, shared.ErrRoleNotInScope):
		return "role_not_in_scope"
	case errors.Is(err, shared.ErrNotMember):
		return "not_member"
	case errors.Is(err, shared.ErrForbidden):
		return "forbidden"
	default:
		return "error"
	}
}
