// File: internal/application/service.go
package application

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/lib/pq"
	"go.uber.org/zap"

	"magic_broom_backend/internal/common"
	"magic_broom_backend/internal/notification"
	"magic_broom_backend/internal/shared"
)

// Service defines cleaner application business operations.
type Service interface {
	Apply(ctx context.Context, applicantID uuid.UUID, req ApplyRequest) (*CleanerApplication, error)
	List(ctx context.Context, page, pageSize int) ([]CleanerApplication, *common.Pagination, error)
	Approve(ctx context.Context, id uuid.UUID) (*CleanerApplication, error)
	Reject(ctx context.Context, id uuid.UUID) (*CleanerApplication, error)
}

type serviceImpl struct {
	repo          Repository
	userService   shared.Service
	notifications notification.Service
	logger        *zap.Logger
}

// NewService creates a new cleaner application service.
func NewService(
	repo Repository,
	userService shared.Service,
	notifications notification.Service,
	logger *zap.Logger,
) Service {
	return &serviceImpl{
		repo:          repo,
		userService:   userService,
		notifications: notifications,
		logger:        logger,
	}
}

// Apply files a cleaner application for the caller. A user can hold at most
// one pending application, and existing cleaners cannot apply again.
func (s *serviceImpl) Apply(ctx context.Context, applicantID uuid.UUID, req ApplyRequest) (*CleanerApplication, error) {
	applicant, err := s.userService.GetUserByID(ctx, applicantID)
	if err != nil {
		return nil, err
	}
	if applicant.Role == common.RoleCleaner {
		return nil, common.ErrConflict.WithDetails("You are already registered as a cleaner.")
	}

	if _, err := s.repo.FindPendingByUserID(ctx, applicantID); err == nil {
		return nil, common.ErrConflict.WithDetails("You already have a pending application.")
	} else if !errors.Is(err, common.ErrNotFound) {
		return nil, err
	}

	app := &CleanerApplication{
		UserID:            applicantID,
		Status:            StatusPending,
		ProfilePictureURL: applicant.ProfilePictureURL,
	}
	if applicant.Email != nil {
		app.Email = *applicant.Email
	}

	fullName := strings.TrimSpace(req.FullName)
	if fullName == "" && applicant.FullName != nil {
		fullName = *applicant.FullName
	}
	if fullName == "" {
		return nil, common.ErrUnprocessableEntity.WithDetails(map[string]string{"full_name": "A name is required on the application."})
	}
	app.FullName = fullName

	if phone := strings.TrimSpace(req.Phone); phone != "" {
		app.Phone = &phone
	}
	app.ExperienceYears = req.ExperienceYears
	if len(req.ServicesOffered) > 0 {
		app.ServicesOffered = pq.StringArray(req.ServicesOffered)
	}

	if err := s.repo.Create(ctx, app); err != nil {
		s.logger.Error("Failed to create cleaner application", zap.Error(err), zap.String("userID", applicantID.String()))
		return nil, common.ErrInternalServer.WithDetails("Could not submit the application.")
	}

	s.notifications.Notify(ctx, applicantID, notification.ApplicationReceived,
		"Your cleaner application was received and is awaiting review.", nil)

	s.logger.Info("Cleaner application submitted",
		zap.String("applicationID", app.ID.String()),
		zap.String("userID", applicantID.String()),
	)
	return app, nil
}

func (s *serviceImpl) List(ctx context.Context, page, pageSize int) ([]CleanerApplication, *common.Pagination, error) {
	return s.repo.FindAll(ctx, page, pageSize)
}

// Approve accepts the application; the applicant becomes a cleaner in the
// same transaction as the status flip.
func (s *serviceImpl) Approve(ctx context.Context, id uuid.UUID) (*CleanerApplication, error) {
	app, err := s.repo.Approve(ctx, id)
	if err != nil {
		return nil, err
	}

	s.notifications.Notify(ctx, app.UserID, notification.ApplicationApproved,
		fmt.Sprintf("Congratulations %s, your cleaner application was approved. You can now accept cleaning requests.", app.FullName),
		nil)

	s.logger.Info("Cleaner application approved",
		zap.String("applicationID", app.ID.String()),
		zap.String("userID", app.UserID.String()),
	)
	return app, nil
}

// Reject declines the application without touching the applicant's role.
func (s *serviceImpl) Reject(ctx context.Context, id uuid.UUID) (*CleanerApplication, error) {
	app, err := s.repo.Reject(ctx, id)
	if err != nil {
		return nil, err
	}

	s.notifications.Notify(ctx, app.UserID, notification.ApplicationRejected,
		"Your cleaner application was not approved this time.", nil)

	s.logger.Info("Cleaner application rejected",
		zap.String("applicationID", app.ID.String()),
		zap.String("userID", app.UserID.String()),
	)
	return app, nil
}
