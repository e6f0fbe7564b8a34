// File: internal/shared/user_response.go
package shared

import (
	"time"

	"github.com/google/uuid"
)

// UserResponse defines the structure for user data sent in API responses.
type UserResponse struct {
	ID                uuid.UUID  `json:"id"`
	Email             *string    `json:"email,omitempty"`
	FullName          *string    `json:"full_name,omitempty"`
	ProfilePictureURL *string    `json:"profile_picture_url,omitempty"`
	Role              string     `json:"role"`
	Status            string     `json:"status"`
	TotalPoints       int        `json:"total_points"`
	TotalRatings      int        `json:"total_ratings"`
	Average           float64    `json:"average"`
	CreatedAt         time.Time  `json:"created_at"`
	UpdatedAt         time.Time  `json:"updated_at"`
	LastLoginAt       *time.Time `json:"last_login_at,omitempty"`
}

// ToUserResponse converts a shared.User to a UserResponse DTO.
func ToUserResponse(svUser *User) UserResponse {
	return UserResponse{
		ID:                svUser.ID,
		Email:             svUser.Email,
		FullName:          svUser.FullName,
		ProfilePictureURL: svUser.ProfilePictureURL,
		Role:              svUser.Role,
		Status:            svUser.Status,
		TotalPoints:       svUser.TotalPoints,
		TotalRatings:      svUser.TotalRatings,
		Average:           svUser.Average,
		CreatedAt:         svUser.CreatedAt,
		UpdatedAt:         svUser.UpdatedAt,
		LastLoginAt:       svUser.LastLoginAt,
	}
}
