package auth

import "time"

// Account is the authentication view of a user record. The password hash
// never leaves this package.
type Account struct {
	ID           string
	Email        string
	PasswordHash string
	IsActive     bool
	IsSuperuser  bool
	CreatedAt    time.Time
	UpdatedAt    time.Time
}
