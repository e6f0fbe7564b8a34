package notification

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// NotificationType defines the type of notification.
type NotificationType string

const (
	RequestAccepted     NotificationType = "request_accepted"
	RequestCancelled    NotificationType = "request_cancelled"
	RequestCompleted    NotificationType = "request_completed"
	ApplicationReceived NotificationType = "application_received"
	ApplicationApproved NotificationType = "application_approved"
	ApplicationRejected NotificationType = "application_rejected"
)

// Notification represents a user notification. Notifications are immutable
// once created apart from the read flag.
type Notification struct {
	ID               uuid.UUID        `gorm:"type:uuid;primary_key" json:"id"`
	UserID           uuid.UUID        `gorm:"type:uuid;not null;index:idx_notification_user_status" json:"user_id"`
	Type             NotificationType `gorm:"type:varchar(100);not null" json:"type"`
	Message          string           `gorm:"type:text;not null" json:"message"`
	RelatedRequestID *uuid.UUID       `gorm:"type:uuid" json:"related_request_id,omitempty"`
	IsRead           bool             `gorm:"not null;default:false;index:idx_notification_user_status" json:"is_read"`
	CreatedAt        time.Time        `gorm:"not null;default:CURRENT_TIMESTAMP;index:idx_notification_user_status" json:"created_at"`
}

// TableName specifies the table name for GORM.
func (Notification) TableName() string {
	return "notifications"
}

// BeforeCreate assigns the UUID client-side, matching common.BaseModel.
func (n *Notification) BeforeCreate(_ *gorm.DB) error {
	if n.ID == uuid.Nil {
		n.ID = uuid.New()
	}
	return nil
}
