package domain

import "time"

// UserStatus represents lifecycle states for a storefront account.
type UserStatus string

const (
	UserStatusActive    UserStatus = "ACTIVE"
	UserStatusSuspended UserStatus = "SUSPENDED"
)

// User is the credential record a login is verified against.
type User struct {
	ID           int64
	Name         string
	Email        string
	PasswordHash string
	Status       UserStatus
	Authorities  []Authority
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

// AuthoritySet returns the user's stored authorities as a set.
func (u *User) AuthoritySet() AuthoritySet {
	if u == nil {
		return AuthoritySet{}
	}
	return NewAuthoritySet(u.Authorities...)
}
