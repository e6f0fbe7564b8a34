// File: internal/request/repository.go
package request

import (
	"context"
	"errors"

	"magic_broom_backend/internal/common"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Repository defines the interface for cleaning request data operations.
// Every status write is a conditional update carrying its precondition in
// the WHERE clause; zero affected rows is re-read and classified into the
// precise precondition failure.
type Repository interface {
	Create(ctx context.Context, req *CleaningRequest) error
	FindByID(ctx context.Context, id uuid.UUID) (*CleaningRequest, error)
	FindPending(ctx context.Context) ([]CleaningRequest, error)
	FindByUserID(ctx context.Context, userID uuid.UUID) ([]CleaningRequest, error)
	FindByCleanerID(ctx context.Context, cleanerID uuid.UUID) ([]CleaningRequest, error)
	UpdateSchedule(ctx context.Context, id, ownerID uuid.UUID, location, date, timeOfDay string) (*CleaningRequest, error)
	Delete(ctx context.Context, id uuid.UUID) error
	Accept(ctx context.Context, id, cleanerID uuid.UUID, cleanerEmail string) (*CleaningRequest, error)
	Cancel(ctx context.Context, id, ownerID uuid.UUID) (*CleaningRequest, error)
	TransitionByCleaner(ctx context.Context, id, cleanerID uuid.UUID, from, to RequestStatus) (*CleaningRequest, error)
	Rate(ctx context.Context, id, ownerID uuid.UUID, rating int) (*CleaningRequest, error)
	RejectPending(ctx context.Context, id uuid.UUID) (bool, error)
	FindAllForSync(ctx context.Context, offset, limit int) ([]CleaningRequest, error)
}

type gormRepository struct {
	db *gorm.DB
}

// NewGORMRepository creates a new GORM cleaning request repository.
func NewGORMRepository(db *gorm.DB) Repository {
	return &gormRepository{db: db}
}

func (r *gormRepository) Create(ctx context.Context, req *CleaningRequest) error {
	return r.db.WithContext(ctx).Create(req).Error
}

func (r *gormRepository) FindByID(ctx context.Context, id uuid.UUID) (*CleaningRequest, error) {
	var reqModel CleaningRequest
	err := r.db.WithContext(ctx).Where("id = ?", id).First(&reqModel).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, common.ErrNotFound.WithDetails("Cleaning request not found.")
		}
		return nil, err
	}
	return &reqModel, nil
}

func (r *gormRepository) FindPending(ctx context.Context) ([]CleaningRequest, error) {
	var requests []CleaningRequest
	err := r.db.WithContext(ctx).
		Where("status = ?", StatusPending).
		Order("created_at DESC").
		Find(&requests).Error
	return requests, err
}

func (r *gormRepository) FindByUserID(ctx context.Context, userID uuid.UUID) ([]CleaningRequest, error) {
	var requests []CleaningRequest
	err := r.db.WithContext(ctx).
		Where("user_id = ?", userID).
		Order("created_at DESC").
		Find(&requests).Error
	return requests, err
}

func (r *gormRepository) FindByCleanerID(ctx context.Context, cleanerID uuid.UUID) ([]CleaningRequest, error) {
	var requests []CleaningRequest
	err := r.db.WithContext(ctx).
		Where("cleaner_id = ?", cleanerID).
		Order("created_at DESC").
		Find(&requests).Error
	return requests, err
}

// UpdateSchedule rewrites location/date/time and nothing else. The ownership
// and not-Completed checks live in the WHERE clause, so a concurrent accept
// between the customer's read and their edit keeps its status and assignment.
func (r *gormRepository) UpdateSchedule(ctx context.Context, id, ownerID uuid.UUID, location, date, timeOfDay string) (*CleaningRequest, error) {
	result := r.db.WithContext(ctx).Model(&CleaningRequest{}).
		Where("id = ? AND user_id = ? AND status <> ?", id, ownerID, StatusCompleted).
		Updates(map[string]interface{}{
			"location": location,
			"date":     date,
			"time":     timeOfDay,
		})
	if result.Error != nil {
		return nil, result.Error
	}
	if result.RowsAffected == 0 {
		var existing CleaningRequest
		err := r.db.WithContext(ctx).Where("id = ?", id).First(&existing).Error
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return nil, common.ErrNotFound.WithDetails("Cleaning request not found.")
			}
			return nil, err
		}
		if existing.UserID != ownerID {
			return nil, common.ErrForbidden.WithDetails("You can only edit your own requests.")
		}
		return nil, common.ErrConflict.WithDetails("Completed requests can no longer be edited.")
	}
	return r.FindByID(ctx, id)
}

func (r *gormRepository) Delete(ctx context.Context, id uuid.UUID) error {
	result := r.db.WithContext(ctx).Delete(&CleaningRequest{}, "id = ?", id)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return common.ErrNotFound.WithDetails("Cleaning request not found.")
	}
	return nil
}

// Accept assigns the request to a cleaner. The pending check and the
// own-request check live in the WHERE clause, so a concurrent accept loses
// cleanly instead of overwriting the winner.
func (r *gormRepository) Accept(ctx context.Context, id, cleanerID uuid.UUID, cleanerEmail string) (*CleaningRequest, error) {
	result := r.db.WithContext(ctx).Model(&CleaningRequest{}).
		Where("id = ? AND status = ? AND user_id <> ?", id, StatusPending, cleanerID).
		Updates(map[string]interface{}{
			"status":        StatusAccepted,
			"cleaner_id":    cleanerID,
			"cleaner_email": cleanerEmail,
		})
	if result.Error != nil {
		return nil, result.Error
	}
	if result.RowsAffected == 0 {
		return nil, r.classifyAcceptFailure(ctx, id, cleanerID)
	}
	return r.FindByID(ctx, id)
}

func (r *gormRepository) classifyAcceptFailure(ctx context.Context, id, cleanerID uuid.UUID) error {
	var existing CleaningRequest
	err := r.db.WithContext(ctx).Where("id = ?", id).First(&existing).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return common.ErrNotFound.WithDetails("Cleaning request not found.")
		}
		return err
	}
	if existing.UserID == cleanerID {
		return common.ErrForbidden.WithDetails("You cannot accept your own request.")
	}
	if existing.Status != StatusPending {
		return common.ErrConflict.WithDetails("This request has already been accepted.")
	}
	return common.ErrConflict.WithDetails("The request could not be accepted.")
}

// Cancel returns an accepted request to the pending pool, clearing the
// cleaner assignment.
func (r *gormRepository) Cancel(ctx context.Context, id, ownerID uuid.UUID) (*CleaningRequest, error) {
	result := r.db.WithContext(ctx).Model(&CleaningRequest{}).
		Where("id = ? AND user_id = ? AND status = ?", id, ownerID, StatusAccepted).
		Updates(map[string]interface{}{
			"status":        StatusPending,
			"cleaner_id":    nil,
			"cleaner_email": nil,
		})
	if result.Error != nil {
		return nil, result.Error
	}
	if result.RowsAffected == 0 {
		var existing CleaningRequest
		err := r.db.WithContext(ctx).Where("id = ?", id).First(&existing).Error
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return nil, common.ErrNotFound.WithDetails("Cleaning request not found.")
			}
			return nil, err
		}
		if existing.UserID != ownerID {
			return nil, common.ErrForbidden.WithDetails("You can only cancel your own requests.")
		}
		return nil, common.ErrConflict.WithDetails("Only accepted requests can be cancelled.")
	}
	return r.FindByID(ctx, id)
}

// TransitionByCleaner moves a request along the lifecycle on behalf of its
// assigned cleaner.
func (r *gormRepository) TransitionByCleaner(ctx context.Context, id, cleanerID uuid.UUID, from, to RequestStatus) (*CleaningRequest, error) {
	if !from.CanTransitionTo(to) {
		return nil, common.ErrConflict.WithDetails("This status change is not allowed.")
	}

	result := r.db.WithContext(ctx).Model(&CleaningRequest{}).
		Where("id = ? AND status = ? AND cleaner_id = ?", id, from, cleanerID).
		Update("status", to)
	if result.Error != nil {
		return nil, result.Error
	}
	if result.RowsAffected == 0 {
		var existing CleaningRequest
		err := r.db.WithContext(ctx).Where("id = ?", id).First(&existing).Error
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return nil, common.ErrNotFound.WithDetails("Cleaning request not found.")
			}
			return nil, err
		}
		if existing.CleanerID == nil || *existing.CleanerID != cleanerID {
			return nil, common.ErrForbidden.WithDetails("You are not assigned to this request.")
		}
		return nil, common.ErrConflict.WithDetails("The request is not in the right state for this change.")
	}
	return r.FindByID(ctx, id)
}

// Rate records the rating and folds it into the cleaner's aggregates in one
// transaction. The guard on rating IS NULL makes the write at-most-once
// under concurrent submissions; the aggregate expressions read the
// pre-update column values, so the stored average is the exact post-
// increment quotient.
func (r *gormRepository) Rate(ctx context.Context, id, ownerID uuid.UUID, rating int) (*CleaningRequest, error) {
	var rated CleaningRequest
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		result := tx.Model(&CleaningRequest{}).
			Where("id = ? AND user_id = ? AND status = ? AND rating IS NULL", id, ownerID, StatusCompleted).
			Update("rating", rating)
		if result.Error != nil {
			return result.Error
		}
		if result.RowsAffected == 0 {
			return r.classifyRateFailure(tx, id, ownerID)
		}

		if err := tx.Where("id = ?", id).First(&rated).Error; err != nil {
			return err
		}
		if rated.CleanerID != nil {
			aggregates := tx.Table("users").
				Where("id = ?", *rated.CleanerID).
				Updates(map[string]interface{}{
					"total_points":  gorm.Expr("total_points + ?", rating),
					"total_ratings": gorm.Expr("total_ratings + 1"),
					"average":       gorm.Expr("(total_points + ?) * 1.0 / (total_ratings + 1)", rating),
				})
			if aggregates.Error != nil {
				return aggregates.Error
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return &rated, nil
}

func (r *gormRepository) classifyRateFailure(tx *gorm.DB, id, ownerID uuid.UUID) error {
	var existing CleaningRequest
	err := tx.Where("id = ?", id).First(&existing).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return common.ErrNotFound.WithDetails("Cleaning request not found.")
		}
		return err
	}
	if existing.UserID != ownerID {
		return common.ErrForbidden.WithDetails("You can only rate your own requests.")
	}
	if existing.Rating != nil {
		return common.ErrConflict.WithDetails("This request has already been rated.")
	}
	return common.ErrConflict.WithDetails("Only completed requests can be rated.")
}

// FindAllForSync pages through every request in insertion order for the
// search index rebuild command.
func (r *gormRepository) FindAllForSync(ctx context.Context, offset, limit int) ([]CleaningRequest, error) {
	var requests []CleaningRequest
	err := r.db.WithContext(ctx).
		Order("created_at ASC").
		Offset(offset).
		Limit(limit).
		Find(&requests).Error
	return requests, err
}

// RejectPending is the sweep job's transition: pending to Rejected, used for
// requests whose scheduled time has already passed. Returns false when the
// request was no longer pending.
func (r *gormRepository) RejectPending(ctx context.Context, id uuid.UUID) (bool, error) {
	result := r.db.WithContext(ctx).Model(&CleaningRequest{}).
		Where("id = ? AND status = ?", id, StatusPending).
		Update("status", StatusRejected)
	if result.Error != nil {
		return false, result.Error
	}
	return result.RowsAffected > 0, nil
}
