package notification

import (
	"context"

	"magic_broom_backend/internal/common"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

// Service defines notification business operations. Notify is the producer
// side used by the request and application domains; the rest serves the
// notification endpoints.
type Service interface {
	Notify(ctx context.Context, userID uuid.UUID, ntype NotificationType, message string, relatedRequestID *uuid.UUID)
	GetNotificationsForUser(ctx context.Context, userID uuid.UUID, page, pageSize int) ([]Notification, *common.Pagination, error)
	MarkNotificationAsRead(ctx context.Context, notificationID, userID uuid.UUID) error
	MarkAllUserNotificationsAsRead(ctx context.Context, userID uuid.UUID) (int64, error)
}

type serviceImpl struct {
	repo   Repository
	logger *zap.Logger
}

// NewService creates a new notification service.
func NewService(repo Repository, logger *zap.Logger) Service {
	return &serviceImpl{repo: repo, logger: logger}
}

// Notify records a notification for a user. Delivery is best effort:
// failures are logged and never propagate to the triggering operation.
func (s *serviceImpl) Notify(ctx context.Context, userID uuid.UUID, ntype NotificationType, message string, relatedRequestID *uuid.UUID) {
	n := &Notification{
		UserID:           userID,
		Type:             ntype,
		Message:          message,
		RelatedRequestID: relatedRequestID,
	}
	if err := s.repo.Create(ctx, n); err != nil {
		s.logger.Warn("Failed to create notification",
			zap.Error(err),
			zap.String("userID", userID.String()),
			zap.String("type", string(ntype)),
		)
	}
}

func (s *serviceImpl) GetNotificationsForUser(ctx context.Context, userID uuid.UUID, page, pageSize int) ([]Notification, *common.Pagination, error) {
	return s.repo.GetByUserID(ctx, userID, page, pageSize)
}

func (s *serviceImpl) MarkNotificationAsRead(ctx context.Context, notificationID, userID uuid.UUID) error {
	return s.repo.MarkAsRead(ctx, notificationID, userID)
}

func (s *serviceImpl) MarkAllUserNotificationsAsRead(ctx context.Context, userID uuid.UUID) (int64, error) {
	return s.repo.MarkAllAsRead(ctx, userID)
}
