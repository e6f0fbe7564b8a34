// File: internal/request/service.go
package request

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"magic_broom_backend/internal/common"
	"magic_broom_backend/internal/notification"
)

// Service defines cleaning request business operations.
type Service interface {
	Create(ctx context.Context, ownerID uuid.UUID, ownerEmail string, req CreateRequest) (*CleaningRequest, error)
	GetByID(ctx context.Context, id, callerID uuid.UUID, callerRole string) (*CleaningRequest, error)
	ListPending(ctx context.Context) ([]CleaningRequest, error)
	ListMine(ctx context.Context, ownerID uuid.UUID) ([]CleaningRequest, error)
	ListAssigned(ctx context.Context, cleanerID uuid.UUID) ([]CleaningRequest, error)
	Accept(ctx context.Context, id, cleanerID uuid.UUID, cleanerEmail string) (*CleaningRequest, error)
	Update(ctx context.Context, id, ownerID uuid.UUID, req UpdateRequest) (*CleaningRequest, error)
	Delete(ctx context.Context, id, ownerID uuid.UUID) error
	Cancel(ctx context.Context, id, ownerID uuid.UUID) (*CleaningRequest, error)
	Confirm(ctx context.Context, id, cleanerID uuid.UUID) (*CleaningRequest, error)
	Complete(ctx context.Context, id, cleanerID uuid.UUID) (*CleaningRequest, error)
	Rate(ctx context.Context, id, ownerID uuid.UUID, rating int) (*CleaningRequest, error)
	SearchPending(ctx context.Context, query string) ([]CleaningRequest, error)
	SweepOverdue(ctx context.Context, now time.Time) (int, error)
}

type serviceImpl struct {
	repo          Repository
	notifications notification.Service
	search        *SearchService
	logger        *zap.Logger
}

// NewService creates a new cleaning request service.
func NewService(
	repo Repository,
	notifications notification.Service,
	search *SearchService,
	logger *zap.Logger,
) Service {
	return &serviceImpl{
		repo:          repo,
		notifications: notifications,
		search:        search,
		logger:        logger,
	}
}

// validateSchedule checks the date/time shapes and that the combined
// instant is not in the past. Returns the canonical time-of-day string.
func validateSchedule(date, timeOfDay string, now time.Time) (string, error) {
	if err := ValidateDate(date); err != nil {
		return "", common.ErrUnprocessableEntity.WithDetails(map[string]string{"date": "The date must be in YYYY-MM-DD format."})
	}
	normalizedTime, err := NormalizeTimeOfDay(timeOfDay)
	if err != nil {
		return "", common.ErrUnprocessableEntity.WithDetails(map[string]string{"time": "The time must be in 12-hour HH:MM AM/PM format."})
	}
	scheduledAt, err := CombineDateTime(date, normalizedTime)
	if err != nil {
		return "", common.ErrUnprocessableEntity.WithDetails(map[string]string{"date": "The date and time could not be combined."})
	}
	if !scheduledAt.After(now) {
		return "", common.ErrUnprocessableEntity.WithDetails(map[string]string{"date": "The requested date and time must be in the future."})
	}
	return normalizedTime, nil
}

// Create submits a new cleaning request. Resubmissions are not deduplicated;
// two identical submissions yield two pending requests.
func (s *serviceImpl) Create(ctx context.Context, ownerID uuid.UUID, ownerEmail string, req CreateRequest) (*CleaningRequest, error) {
	normalizedTime, err := validateSchedule(req.Date, req.Time, time.Now())
	if err != nil {
		return nil, err
	}

	notes := strings.TrimSpace(req.AdditionalNotes)
	if notes == "" {
		notes = DefaultAdditionalNotes
	}

	newRequest := &CleaningRequest{
		UserID:          ownerID,
		UserEmail:       ownerEmail,
		Location:        strings.TrimSpace(req.Location),
		Date:            req.Date,
		Time:            normalizedTime,
		AdditionalNotes: notes,
		Status:          StatusPending,
	}

	if err := s.repo.Create(ctx, newRequest); err != nil {
		s.logger.Error("Failed to create cleaning request", zap.Error(err), zap.String("userID", ownerID.String()))
		return nil, common.ErrInternalServer.WithDetails("Could not submit the cleaning request.")
	}

	s.search.Index(ctx, newRequest)
	s.logger.Info("Cleaning request submitted",
		zap.String("requestID", newRequest.ID.String()),
		zap.String("userID", ownerID.String()),
	)
	return newRequest, nil
}

// GetByID returns a request visible to the caller: its owner, its assigned
// cleaner, or an admin.
func (s *serviceImpl) GetByID(ctx context.Context, id, callerID uuid.UUID, callerRole string) (*CleaningRequest, error) {
	req, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	isOwner := req.UserID == callerID
	isAssignedCleaner := req.CleanerID != nil && *req.CleanerID == callerID
	if !isOwner && !isAssignedCleaner && callerRole != common.RoleAdmin {
		return nil, common.ErrForbidden.WithDetails("You are not authorized to view this request.")
	}
	return req, nil
}

func (s *serviceImpl) ListPending(ctx context.Context) ([]CleaningRequest, error) {
	return s.repo.FindPending(ctx)
}

func (s *serviceImpl) ListMine(ctx context.Context, ownerID uuid.UUID) ([]CleaningRequest, error) {
	return s.repo.FindByUserID(ctx, ownerID)
}

func (s *serviceImpl) ListAssigned(ctx context.Context, cleanerID uuid.UUID) ([]CleaningRequest, error) {
	return s.repo.FindByCleanerID(ctx, cleanerID)
}

// Accept claims a pending request for a cleaner and notifies the owner.
func (s *serviceImpl) Accept(ctx context.Context, id, cleanerID uuid.UUID, cleanerEmail string) (*CleaningRequest, error) {
	req, err := s.repo.Accept(ctx, id, cleanerID, cleanerEmail)
	if err != nil {
		return nil, err
	}

	s.notifications.Notify(ctx, req.UserID, notification.RequestAccepted,
		fmt.Sprintf("Your cleaning request for %s on %s was accepted by %s.", req.Location, req.Date, cleanerEmail),
		&req.ID)
	s.search.Index(ctx, req)

	s.logger.Info("Cleaning request accepted",
		zap.String("requestID", id.String()),
		zap.String("cleanerID", cleanerID.String()),
	)
	return req, nil
}

// Update rewrites the scheduling fields of the caller's own request.
// Completed requests are frozen. The write touches location/date/time only,
// so a concurrent accept keeps its status and assignment.
func (s *serviceImpl) Update(ctx context.Context, id, ownerID uuid.UUID, req UpdateRequest) (*CleaningRequest, error) {
	normalizedTime, err := validateSchedule(req.Date, req.Time, time.Now())
	if err != nil {
		return nil, err
	}

	updated, err := s.repo.UpdateSchedule(ctx, id, ownerID, strings.TrimSpace(req.Location), req.Date, normalizedTime)
	if err != nil {
		return nil, err
	}

	s.search.Index(ctx, updated)
	return updated, nil
}

// Delete removes the caller's own request permanently, regardless of status.
func (s *serviceImpl) Delete(ctx context.Context, id, ownerID uuid.UUID) error {
	existing, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return err
	}
	if existing.UserID != ownerID {
		return common.ErrForbidden.WithDetails("You can only delete your own requests.")
	}

	if err := s.repo.Delete(ctx, id); err != nil {
		return err
	}
	s.search.Delete(ctx, id)
	s.logger.Info("Cleaning request deleted", zap.String("requestID", id.String()), zap.String("userID", ownerID.String()))
	return nil
}

// Cancel returns an accepted request to the pending pool and notifies the
// cleaner who had claimed it.
func (s *serviceImpl) Cancel(ctx context.Context, id, ownerID uuid.UUID) (*CleaningRequest, error) {
	// The assignment is cleared by the cancel, so capture it first.
	before, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	previousCleanerID := before.CleanerID

	req, err := s.repo.Cancel(ctx, id, ownerID)
	if err != nil {
		return nil, err
	}

	if previousCleanerID != nil {
		s.notifications.Notify(ctx, *previousCleanerID, notification.RequestCancelled,
			fmt.Sprintf("The cleaning request for %s on %s was cancelled by the customer.", req.Location, req.Date),
			&req.ID)
	}
	s.search.Index(ctx, req)

	s.logger.Info("Cleaning request cancelled", zap.String("requestID", id.String()))
	return req, nil
}

// Confirm is the assigned cleaner acknowledging the job.
func (s *serviceImpl) Confirm(ctx context.Context, id, cleanerID uuid.UUID) (*CleaningRequest, error) {
	req, err := s.repo.TransitionByCleaner(ctx, id, cleanerID, StatusAccepted, StatusConfirmed)
	if err != nil {
		return nil, err
	}
	s.search.Index(ctx, req)
	return req, nil
}

// Complete marks the job done and invites the owner to rate it.
func (s *serviceImpl) Complete(ctx context.Context, id, cleanerID uuid.UUID) (*CleaningRequest, error) {
	req, err := s.repo.TransitionByCleaner(ctx, id, cleanerID, StatusConfirmed, StatusCompleted)
	if err != nil {
		return nil, err
	}

	s.notifications.Notify(ctx, req.UserID, notification.RequestCompleted,
		fmt.Sprintf("Your cleaning at %s on %s is complete. You can now rate your cleaner.", req.Location, req.Date),
		&req.ID)
	s.search.Index(ctx, req)
	return req, nil
}

// Rate records the one-time rating for a completed request and updates the
// cleaner's aggregates.
func (s *serviceImpl) Rate(ctx context.Context, id, ownerID uuid.UUID, rating int) (*CleaningRequest, error) {
	if rating < 1 || rating > 5 {
		return nil, common.ErrUnprocessableEntity.WithDetails(map[string]string{"rating": "The rating must be between 1 and 5."})
	}

	req, err := s.repo.Rate(ctx, id, ownerID, rating)
	if err != nil {
		return nil, err
	}

	s.logger.Info("Cleaning request rated",
		zap.String("requestID", id.String()),
		zap.Int("rating", rating),
	)
	return req, nil
}

// SearchPending serves the cleaner-side search over location and notes.
func (s *serviceImpl) SearchPending(ctx context.Context, query string) ([]CleaningRequest, error) {
	if !s.search.Enabled() {
		return nil, common.ErrServiceUnavailable.WithDetails("Request search is not configured.")
	}

	ids, err := s.search.SearchPendingIDs(ctx, query, 50)
	if err != nil {
		s.logger.Error("Request search failed", zap.Error(err), zap.String("query", query))
		return nil, common.ErrServiceUnavailable.WithDetails("Request search is temporarily unavailable.")
	}

	// The index lags the table slightly, so re-check status on the rows.
	results := make([]CleaningRequest, 0, len(ids))
	for _, id := range ids {
		req, err := s.repo.FindByID(ctx, id)
		if err != nil {
			if errors.Is(err, common.ErrNotFound) {
				continue
			}
			return nil, err
		}
		if req.Status == StatusPending {
			results = append(results, *req)
		}
	}
	return results, nil
}

// SweepOverdue rejects pending requests whose scheduled time has passed.
// Requests with unparseable schedules are skipped and logged.
func (s *serviceImpl) SweepOverdue(ctx context.Context, now time.Time) (int, error) {
	pending, err := s.repo.FindPending(ctx)
	if err != nil {
		return 0, err
	}

	rejected := 0
	for i := range pending {
		req := &pending[i]
		scheduledAt, err := req.ScheduledAt()
		if err != nil {
			s.logger.Warn("Skipping request with unparseable schedule",
				zap.String("requestID", req.ID.String()),
				zap.String("date", req.Date),
				zap.String("time", req.Time),
				zap.Error(err),
			)
			continue
		}
		if scheduledAt.After(now) {
			continue
		}

		ok, err := s.repo.RejectPending(ctx, req.ID)
		if err != nil {
			s.logger.Error("Failed to reject overdue request", zap.Error(err), zap.String("requestID", req.ID.String()))
			continue
		}
		if ok {
			req.Status = StatusRejected
			s.search.Index(ctx, req)
			rejected++
		}
	}
	return rejected, nil
}
