package authz

import "fmt"

// ScopeKind discriminates the tenancy boundary a check runs against.
type ScopeKind string

const (
	// ScopeGlobal is the reserved scope whose roles are visible to, but not
	// owned by, every tenant.
	ScopeGlobal ScopeKind = "global"
	// ScopeOrganization is a concrete organization tenancy boundary.
	ScopeOrganization ScopeKind = "organization"
	// ScopeDepartment is a concrete department tenancy boundary. Department
	// scopes form a tree but checks never inherit along it.
	ScopeDepartment ScopeKind = "department"
)

// Scope identifies the exact scope instance a membership or permission check
// is evaluated against. The zero value is invalid; use the constructors.
type Scope struct {
	Kind ScopeKind
	ID   string
}

// GlobalScope returns the shared sentinel scope.
func GlobalScope() Scope {
	return Scope{Kind: ScopeGlobal}
}

// OrganizationScope returns the scope for one organization.
func OrganizationScope(id string) Scope {
	return Scope{Kind: ScopeOrganization, ID: id}
}

// DepartmentScope returns the scope for one department.
func DepartmentScope(id string) Scope {
	return Scope{Kind: ScopeDepartment, ID: id}
}

// IsGlobal reports whether the scope is the shared sentinel.
func (s Scope) IsGlobal() bool {
	return s.Kind == ScopeGlobal
}

// Valid reports whether the scope is well formed: global scopes carry no id,
// concrete scopes require one.
func (s Scope) Valid() bool {
	switch s.Kind {
	case ScopeGlobal:
		return s.ID == ""
	case ScopeOrganization, ScopeDepartment:
		return s.ID != ""
	default:
		return false
	}
}

func (s Scope) String() string {
	if s.Kind == ScopeGlobal {
		return string(ScopeGlobal)
	}
	return fmt.Sprintf("%s/%s", s.Kind, s.ID)
}
