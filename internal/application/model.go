// File: internal/application/model.go
package application

import (
	"time"

	"github.com/google/uuid"
	"github.com/lib/pq"

	"magic_broom_backend/internal/common"
)

// ApplicationStatus is the review state of a cleaner application.
type ApplicationStatus string

// Review statuses persist exactly as the clients render them; the mixed
// casing matches documents written by earlier releases.
const (
	StatusPending  ApplicationStatus = "pending"
	StatusApproved ApplicationStatus = "Approved"
	StatusRejected ApplicationStatus = "Rejected"
)

// CleanerApplication is a user's request to join the platform as a cleaner.
type CleanerApplication struct {
	common.BaseModel
	UserID            uuid.UUID         `gorm:"type:uuid;not null;index"`
	Email             string            `gorm:"type:varchar(255);not null"`
	FullName          string            `gorm:"type:varchar(200);not null"`
	ProfilePictureURL *string           `gorm:"type:text"`
	Phone             *string           `gorm:"type:varchar(30)"`
	ExperienceYears   *int              `gorm:"type:int"`
	ServicesOffered   pq.StringArray    `gorm:"type:text[]"`
	Status            ApplicationStatus `gorm:"type:varchar(20);not null;default:'pending';index"`
}

// TableName specifies the table name for the CleanerApplication model.
func (CleanerApplication) TableName() string {
	return "cleaner_applications"
}

// --- DTOs ---

// ApplyRequest is the application payload. Name and email default to the
// applicant's profile when omitted.
type ApplyRequest struct {
	FullName        string   `json:"full_name" binding:"omitempty,max=200"`
	Phone           string   `json:"phone" binding:"omitempty,max=30"`
	ExperienceYears *int     `json:"experience_years" binding:"omitempty,gte=0,lte=80"`
	ServicesOffered []string `json:"services_offered" binding:"omitempty,max=20,dive,max=100"`
}

// Response is the API shape of a cleaner application.
type Response struct {
	ID                uuid.UUID         `json:"id"`
	UserID            uuid.UUID         `json:"user_id"`
	Email             string            `json:"email"`
	FullName          string            `json:"full_name"`
	ProfilePictureURL *string           `json:"profile_picture_url,omitempty"`
	Phone             *string           `json:"phone,omitempty"`
	ExperienceYears   *int              `json:"experience_years,omitempty"`
	ServicesOffered   []string          `json:"services_offered,omitempty"`
	Status            ApplicationStatus `json:"status"`
	CreatedAt         time.Time         `json:"created_at"`
	UpdatedAt         time.Time         `json:"updated_at"`
}

// ToResponse converts a CleanerApplication model to its API shape.
func ToResponse(a *CleanerApplication) Response {
	return Response{
		ID:                a.ID,
		UserID:            a.UserID,
		Email:             a.Email,
		FullName:          a.FullName,
		ProfilePictureURL: a.ProfilePictureURL,
		Phone:             a.Phone,
		ExperienceYears:   a.ExperienceYears,
		ServicesOffered:   a.ServicesOffered,
		Status:            a.Status,
		CreatedAt:         a.CreatedAt,
		UpdatedAt:         a.UpdatedAt,
	}
}

// ToResponseList converts a slice of models.
func ToResponseList(apps []CleanerApplication) []Response {
	out := make([]Response, 0, len(apps))
	for i := range apps {
		out = append(out, ToResponse(&apps[i]))
	}
	return out
}
