package httpx

import (
	"errors"
	"net/http"

	"github.com/arbiter-io/arbiter/internal/shared"
)

// ErrValidation flags malformed or invalid request payloads.
var ErrValidation = errors.New("validation failed")

// RespondError maps domain errors to HTTP responses using RFC7807. Order
// matters: ErrRoleNotInScope wraps ErrForbidden and ErrCredentialInactive
// wraps ErrUnauthenticated, so the most specific sentinel is matched first.
func RespondError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, shared.ErrRoleNotInScope):
		Problem(w, http.StatusForbidden, "Role Not In Scope", err.Error())
	case errors.Is(err, shared.ErrNotMember):
		Problem(w, http.StatusForbidden, "Not A Member", err.Error())
	case errors.Is(err, shared.ErrForbidden):
		Problem(w, http.StatusForbidden, "Forbidden", err.Error())
	case errors.Is(err, shared.ErrUnauthenticated):
		Problem(w, http.StatusUnauthorized, "Unauthorized", err.Error())
	case errors.Is(err, shared.ErrInvalidCredentialConfig):
		Problem(w, http.StatusBadRequest, "Invalid Credential Configuration", err.Error())
	case errors.Is(err, shared.ErrGlobalRoleImmutable):
		Problem(w, http.StatusBadRequest, "Global Role Immutable", err.Error())
	case errors.Is(err, shared.ErrNotFound):
		Problem(w, http.StatusNotFound, "Not Found", err.Error())
	case errors.Is(err, ErrValidation):
		Problem(w, http.StatusBadRequest, "Validation Failed", err.Error())
	default:
		Problem(w, http.StatusInternalServerError, "Internal Error", "")
	}
}
