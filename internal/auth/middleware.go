package auth

import (
	"log/slog"
	"net/http"
	"strings"

	"github.com/arbiter-io/arbiter/internal/authz"
	"github.com/arbiter-io/arbiter/internal/platform/httpx"
	"github.com/arbiter-io/arbiter/internal/shared"
)

const bearerPrefix = "Bearer "

// Principal resolves the request credential into a principal and stores it on
// the context. A bearer token is treated as an api key secret; otherwise the
// session user id is used. Requests without credentials pass through
// anonymous, but a presented bearer token that fails verification is rejected
// here.
func Principal(service *Service, logger *slog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if header := r.Header.Get("Authorization"); strings.HasPrefix(header, bearerPrefix) {
				secret := strings.TrimPrefix(header, bearerPrefix)
				principal, err := service.ResolveAPIKey(r.Context(), secret)
				if err != nil {
					httpx.RespondError(w, err)
					return
				}
				next.ServeHTTP(w, r.WithContext(authz.ContextWithPrincipal(r.Context(), principal)))
				return
			}

			sess := shared.SessionFromContext(r.Context())
			if sess == nil || sess.User() == "" {
				next.ServeHTTP(w, r)
				return
			}
			principal, err := service.ResolveUser(r.Context(), sess.User())
			if err != nil {
				// Stale session references are cleared rather than rejected so
				// the client can log in again.
				logger.Debug("session user resolution failed", slog.Any("error", err))
				sess.SetUser("")
				next.ServeHTTP(w, r)
				return
			}
			next.ServeHTTP(w, r.WithContext(authz.ContextWithPrincipal(r.Context(), principal)))
		})
	}
}
