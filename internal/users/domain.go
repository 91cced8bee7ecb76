package users

import "time"

// User represents a user account. The authorization core only needs the
// activity and superuser flags; the rest is account metadata.
type User struct {
	ID          string
	Email       string
	Name        string
	IsActive    bool
	IsSuperuser bool
	CreatedAt   time.Time
	UpdatedAt   time.Time
}
