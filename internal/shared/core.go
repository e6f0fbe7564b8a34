package shared

import (
	"context"
	"time"

	firebaseauth "firebase.google.com/go/v4/auth"
	"github.com/google/uuid"
)

// User represents a user in the system as seen by other domains.
type User struct {
	ID                uuid.UUID
	FirebaseUID       *string
	Email             *string
	FullName          *string
	Role              string
	Status            string
	ProfilePictureURL *string
	TotalPoints       int
	TotalRatings      int
	Average           float64
	CreatedAt         time.Time
	UpdatedAt         time.Time
	LastLoginAt       *time.Time
}

// Service defines the interface for user-related business logic needed
// outside the user package.
type Service interface {
	GetUserByID(ctx context.Context, id uuid.UUID) (*User, error)
	GetUserByEmail(ctx context.Context, email string) (*User, error)
	GetUserByFirebaseUID(ctx context.Context, firebaseUID string) (*User, error)
	GetOrCreateUserFromFirebaseClaims(ctx context.Context, firebaseToken *firebaseauth.Token) (usr *User, wasCreated bool, err error)
}
