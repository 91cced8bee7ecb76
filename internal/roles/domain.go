package roles

import (
	"time"

	"github.com/arbiter-io/arbiter/internal/authz"
)

// Role is a named, scoped set of permission strings. Roles with a global
// scope are visible to and assignable from every organization or department
// but are only mutated at bootstrap. Deleted roles are tombstoned, never
// removed.
type Role struct {
	ID          string
	Scope       authz.Scope
	Name        string
	Description string
	Permissions []string
	// DefaultFor tags a seeded global default with the scope kind whose
	// default set it belongs to; empty for custom roles. Both the
	// organization and department default sets carry a "content approver",
	// so seeding keys global roles by (name, DefaultFor).
	DefaultFor authz.ScopeKind
	IsDeleted  bool
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

// CreateRoleInput carries the fields for role creation.
type CreateRoleInput struct {
	Name        string
	Description string
	Permissions []string
}

// UpdateRoleInput carries a partial role update. Permissions are merged into
// the existing set, never replaced.
type UpdateRoleInput struct {
	Name        *string
	Description *string
	Permissions []string
}

// ListFilters narrows and orders role listings.
type ListFilters struct {
	Name            string
	SortBy          string
	SortDir         string
	Page            int
	PerPage         int
	IncludeDefaults bool
}
