package authz

import "context"

// Principal is the authenticated actor behind a request. It has exactly two
// variants: UserPrincipal for humans and CredentialPrincipal for machine
// credentials. Call sites branch with a type switch instead of inspecting a
// discriminator field.
type Principal interface {
	PrincipalID() string
	sealed()
}

// UserPrincipal is a human actor resolved from an externally verified
// session identity. Only users can be superusers.
type UserPrincipal struct {
	ID          string
	IsActive    bool
	IsSuperuser bool
}

// PrincipalID returns the user id.
func (p UserPrincipal) PrincipalID() string { return p.ID }

func (UserPrincipal) sealed() {}

// CredentialPrincipal is a machine credential bound to exactly one role
// within exactly one organization. It has no membership records and never
// has access to department scopes.
type CredentialPrincipal struct {
	ID             string
	OrganizationID string
	RoleID         string
	IsActive       bool
}

// PrincipalID returns the credential record id.
func (p CredentialPrincipal) PrincipalID() string { return p.ID }

func (CredentialPrincipal) sealed() {}

type principalContextKey struct{}

// ContextWithPrincipal stores the authenticated principal in context.
func ContextWithPrincipal(ctx context.Context, p Principal) context.Context {
	return context.WithValue(ctx, principalContextKey{}, p)
}

// PrincipalFromContext extracts the authenticated principal, if any.
func PrincipalFromContext(ctx context.Context) (Principal, bool) {
	p, ok := ctx.Value(principalContextKey{}).(Principal)
	return p, ok
}
