package shared

import (
	"github.com/google/uuid"
)

func (u *User) GetID() uuid.UUID {
	return u.ID
}

func (u *User) GetEmail() *string {
	return u.Email
}

func (u *User) GetRole() string {
	return u.Role
}

// IsCleaner reports whether the user can work the request feed.
func (u *User) IsCleaner() bool {
	return u.Role == "cleaner"
}
