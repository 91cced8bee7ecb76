package apikeys

import "time"

// AccessType selects how a credential binds to a role at issuance.
type AccessType string

const (
	// AccessFull auto-binds the credential to the built-in admin role. A
	// caller-supplied role is rejected.
	AccessFull AccessType = "full"
	// AccessLimited requires an explicit role visible from the credential's
	// organization.
	AccessLimited AccessType = "limited"
)

// Valid reports whether the access type is one of the two known values.
func (t AccessType) Valid() bool {
	return t == AccessFull || t == AccessLimited
}

// APIKey is a machine credential record. The plaintext secret is returned to
// the caller exactly once at issuance and never persisted; only the prefix
// and the one-way hash are stored.
type APIKey struct {
	ID             string
	OrganizationID string
	RoleID         string
	CreatedBy      string
	AppName        string
	Prefix         string
	SecretHash     string
	AccessType     AccessType
	IsActive       bool
	LastUsedAt     *time.Time
	CreatedAt      time.Time
	UpdatedAt      time.Time
}

// IssueInput carries an issuance request.
type IssueInput struct {
	OrganizationID string
	AccessType     AccessType
	RoleID         string
	AppName        string
	CreatedBy      string
}
