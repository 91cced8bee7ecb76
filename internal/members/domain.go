package members

import (
	"time"

	"github.com/arbiter-io/arbiter/internal/authz"
)

// Membership binds a user to exactly one role within exactly one concrete
// organization or department scope instance. A user holds at most one active
// membership per scope.
type Membership struct {
	ID        string
	UserID    string
	Scope     authz.Scope
	RoleID    string
	IsActive  bool
	IsDeleted bool
	JoinedAt  time.Time
	UpdatedAt time.Time
}

// AssignRoleInput carries an assignment request. ProtectedRoleID, when set,
// refuses the upsert if the existing binding holds that role; the check runs
// inside the upsert's row lock so concurrent assignments cannot race past it.
type AssignRoleInput struct {
	UserID          string
	Scope           authz.Scope
	RoleID          string
	ProtectedRoleID string
}
