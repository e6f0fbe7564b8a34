// File: internal/user/model.go
package user

import (
	"time"

	"magic_broom_backend/internal/common"
)

// Account statuses. Status is advisory; authorization decisions run on the
// token's email_verified claim, not on this column.
const (
	StatusUnverified = "unverified"
	StatusVerified   = "verified"
)

// User represents the user model in the database.
type User struct {
	common.BaseModel
	FirebaseUID       *string `gorm:"type:varchar(128);uniqueIndex"`
	Email             *string `gorm:"type:varchar(255);uniqueIndex"`
	FullName          *string `gorm:"type:varchar(200)"`
	ProfilePictureURL *string `gorm:"type:text"`
	Role              string  `gorm:"type:varchar(50);not null;default:'user'"`
	Status            string  `gorm:"type:varchar(50);not null;default:'unverified'"`
	TotalPoints       int     `gorm:"not null;default:0"`
	TotalRatings      int     `gorm:"not null;default:0"`
	Average           float64 `gorm:"not null;default:0"`
	LastLoginAt       *time.Time
}

// TableName specifies the table name for the User model.
func (User) TableName() string {
	return "users"
}

// --- DTOs for API requests/responses ---

// UpdateProfileRequest defines the fields a user may change on their own
// profile.
type UpdateProfileRequest struct {
	FullName *string `json:"full_name" binding:"omitempty,max=200"`
}

// UpdateRoleRequest defines the admin-only direct role change.
type UpdateRoleRequest struct {
	Role string `json:"role" binding:"required,oneof=user cleaner admin"`
}
