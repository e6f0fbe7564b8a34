package user

import (
	"magic_broom_backend/internal/shared"
)

// DBToShared converts a GORM user.User model to a shared.User DTO.
func DBToShared(dbUser *User) *shared.User {
	if dbUser == nil {
		return nil
	}
	return &shared.User{
		ID:                dbUser.ID,
		FirebaseUID:       dbUser.FirebaseUID,
		Email:             dbUser.Email,
		FullName:          dbUser.FullName,
		Role:              dbUser.Role,
		Status:            dbUser.Status,
		ProfilePictureURL: dbUser.ProfilePictureURL,
		TotalPoints:       dbUser.TotalPoints,
		TotalRatings:      dbUser.TotalRatings,
		Average:           dbUser.Average,
		CreatedAt:         dbUser.CreatedAt,
		UpdatedAt:         dbUser.UpdatedAt,
		LastLoginAt:       dbUser.LastLoginAt,
	}
}
