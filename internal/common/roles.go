// File: internal/common/roles.go
package common

// Role values persisted on users. They match the values the mobile clients
// already branch on, so they must not be renamed.
const (
	RoleUser    = "user"
	RoleCleaner = "cleaner"
	RoleAdmin   = "admin"
)

// IsValidRole reports whether the given string is an assignable role.
func IsValidRole(role string) bool {
	switch role {
	case RoleUser, RoleCleaner, RoleAdmin:
		return true
	}
	return false
}
