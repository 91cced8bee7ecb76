package shared

import (
	"errors"
	"fmt"
)

var (
	// ErrNotFound indicates resource not found.
	ErrNotFound = errors.New("not found")
	// ErrUnauthenticated indicates missing or invalid credential material.
	ErrUnauthenticated = errors.New("unauthenticated")
	// ErrNotMember indicates the principal has no membership or binding in the requested scope.
	ErrNotMember = errors.New("not a member of this scope")
	// ErrForbidden indicates a member lacking the specific permission.
	ErrForbidden = errors.New("permission denied")
	// ErrRoleNotInScope indicates the referenced role is absent, tombstoned or not
	// visible to the scope. It is a form of ErrForbidden.
	ErrRoleNotInScope = fmt.Errorf("role not available in scope: %w", ErrForbidden)
	// ErrCredentialInactive indicates a deactivated machine credential. Inactive
	// credentials fail authentication unconditionally.
	ErrCredentialInactive = fmt.Errorf("credential is inactive: %w", ErrUnauthenticated)
	// ErrInvalidCredentialConfig indicates an access-type/role-id mismatch at issuance.
	ErrInvalidCredentialConfig = errors.New("invalid credential configuration")
	// ErrGlobalRoleImmutable indicates a write against a global default role from a
	// scoped administrative operation.
	ErrGlobalRoleImmutable = errors.New("global default roles are read-only")
)
