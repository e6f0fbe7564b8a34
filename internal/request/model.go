// File: internal/request/model.go
package request

import (
	"fmt"
	"strings"
	"time"

	"magic_broom_backend/internal/common"

	"github.com/google/uuid"
)

// RequestStatus is the lifecycle state of a cleaning request.
type RequestStatus string

// Status values are persisted as-is and match the documents written by
// earlier releases, mixed casing included. Do not normalize them.
const (
	StatusPending   RequestStatus = "pending"
	StatusAccepted  RequestStatus = "accepted"
	StatusConfirmed RequestStatus = "Confirmed"
	StatusCompleted RequestStatus = "Completed"
	StatusRejected  RequestStatus = "Rejected"
)

// validTransitions is the closed transition table. Every status write goes
// through a conditional update whose WHERE clause carries the source status,
// so a row can never skip a state even under concurrent writers.
var validTransitions = map[RequestStatus][]RequestStatus{
	StatusPending:   {StatusAccepted, StatusRejected},
	StatusAccepted:  {StatusConfirmed, StatusPending},
	StatusConfirmed: {StatusCompleted},
	StatusCompleted: {},
	StatusRejected:  {},
}

// IsValid reports whether s is a known status value.
func (s RequestStatus) IsValid() bool {
	_, ok := validTransitions[s]
	return ok
}

// CanTransitionTo reports whether the move from s to next is allowed.
func (s RequestStatus) CanTransitionTo(next RequestStatus) bool {
	for _, allowed := range validTransitions[s] {
		if allowed == next {
			return true
		}
	}
	return false
}

// DefaultAdditionalNotes is stored when the customer leaves the notes field
// blank; clients render it verbatim.
const DefaultAdditionalNotes = "No additional notes"

// Date and time stay display-formatted strings, mirroring the stored
// documents. The parsed forms exist only for validation and the sweep job.
const (
	DateLayout = "2006-01-02"
	TimeLayout = "3:04 PM"
)

// CleaningRequest represents a customer's cleaning request.
type CleaningRequest struct {
	common.BaseModel
	UserID          uuid.UUID     `gorm:"type:uuid;not null;index"`
	UserEmail       string        `gorm:"type:varchar(255);not null"`
	Location        string        `gorm:"type:text;not null"`
	Date            string        `gorm:"type:varchar(10);not null"`
	Time            string        `gorm:"type:varchar(8);not null"`
	AdditionalNotes string        `gorm:"type:text;not null"`
	Status          RequestStatus `gorm:"type:varchar(20);not null;default:'pending';index"`
	CleanerID       *uuid.UUID    `gorm:"type:uuid;index"`
	CleanerEmail    *string       `gorm:"type:varchar(255)"`
	Rating          *int
}

// TableName specifies the table name for the CleaningRequest model.
func (CleaningRequest) TableName() string {
	return "cleaning_requests"
}

// ScheduledAt combines the stored date and time into an instant in the
// server's local zone.
func (r *CleaningRequest) ScheduledAt() (time.Time, error) {
	return CombineDateTime(r.Date, r.Time)
}

// NormalizeTimeOfDay validates a 12-hour clock string and returns its
// canonical "3:04 PM" form. The meridiem is case-insensitive and the space
// before it is optional, matching what older clients submitted.
func NormalizeTimeOfDay(value string) (string, error) {
	cleaned := strings.ToUpper(strings.TrimSpace(value))
	for _, meridiem := range []string{"AM", "PM"} {
		if strings.HasSuffix(cleaned, meridiem) && !strings.HasSuffix(cleaned, " "+meridiem) {
			cleaned = strings.TrimSuffix(cleaned, meridiem) + " " + meridiem
			break
		}
	}
	t, err := time.Parse(TimeLayout, cleaned)
	if err != nil {
		return "", fmt.Errorf("time must be in 12-hour HH:MM AM/PM format: %w", err)
	}
	return t.Format(TimeLayout), nil
}

// ValidateDate checks the YYYY-MM-DD shape.
func ValidateDate(value string) error {
	if _, err := time.Parse(DateLayout, value); err != nil {
		return fmt.Errorf("date must be in YYYY-MM-DD format: %w", err)
	}
	return nil
}

// CombineDateTime parses a stored date/time pair into a local instant.
func CombineDateTime(date, timeOfDay string) (time.Time, error) {
	normalized, err := NormalizeTimeOfDay(timeOfDay)
	if err != nil {
		return time.Time{}, err
	}
	return time.ParseInLocation(DateLayout+" "+TimeLayout, date+" "+normalized, time.Local)
}

// --- DTOs ---

// CreateRequest is the submission payload.
type CreateRequest struct {
	Location        string `json:"location" binding:"required,max=500"`
	Date            string `json:"date" binding:"required"`
	Time            string `json:"time" binding:"required"`
	AdditionalNotes string `json:"additional_notes" binding:"omitempty,max=2000"`
}

// UpdateRequest is the edit payload. Only the scheduling fields are
// editable; notes and ownership are fixed at submission.
type UpdateRequest struct {
	Location string `json:"location" binding:"required,max=500"`
	Date     string `json:"date" binding:"required"`
	Time     string `json:"time" binding:"required"`
}

// RateRequest carries the one-time rating for a completed request.
type RateRequest struct {
	Rating int `json:"rating" binding:"required,gte=1,lte=5"`
}

// Response is the API shape of a cleaning request.
type Response struct {
	ID              uuid.UUID     `json:"id"`
	UserID          uuid.UUID     `json:"user_id"`
	UserEmail       string        `json:"user_email"`
	Location        string        `json:"location"`
	Date            string        `json:"date"`
	Time            string        `json:"time"`
	AdditionalNotes string        `json:"additional_notes"`
	Status          RequestStatus `json:"status"`
	CleanerID       *uuid.UUID    `json:"cleaner_id,omitempty"`
	CleanerEmail    *string       `json:"cleaner_email,omitempty"`
	Rating          *int          `json:"rating,omitempty"`
	CreatedAt       time.Time     `json:"created_at"`
	UpdatedAt       time.Time     `json:"updated_at"`
}

// ToResponse converts a CleaningRequest model to its API shape.
func ToResponse(r *CleaningRequest) Response {
	return Response{
		ID:              r.ID,
		UserID:          r.UserID,
		UserEmail:       r.UserEmail,
		Location:        r.Location,
		Date:            r.Date,
		Time:            r.Time,
		AdditionalNotes: r.AdditionalNotes,
		Status:          r.Status,
		CleanerID:       r.CleanerID,
		CleanerEmail:    r.CleanerEmail,
		Rating:          r.Rating,
		CreatedAt:       r.CreatedAt,
		UpdatedAt:       r.UpdatedAt,
	}
}

// ToResponseList converts a slice of models.
func ToResponseList(requests []CleaningRequest) []Response {
	out := make([]Response, 0, len(requests))
	for i := range requests {
		out = append(out, ToResponse(&requests[i]))
	}
	return out
}
