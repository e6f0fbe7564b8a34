// File: internal/application/repository.go
package application

import (
	"context"
	"errors"

	"magic_broom_backend/internal/common"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Repository defines the interface for cleaner application data operations.
type Repository interface {
	Create(ctx context.Context, app *CleanerApplication) error
	FindByID(ctx context.Context, id uuid.UUID) (*CleanerApplication, error)
	FindAll(ctx context.Context, page, pageSize int) ([]CleanerApplication, *common.Pagination, error)
	FindPendingByUserID(ctx context.Context, userID uuid.UUID) (*CleanerApplication, error)
	Approve(ctx context.Context, id uuid.UUID) (*CleanerApplication, error)
	Reject(ctx context.Context, id uuid.UUID) (*CleanerApplication, error)
}

type gormRepository struct {
	db *gorm.DB
}

// NewGORMRepository creates a new GORM cleaner application repository.
func NewGORMRepository(db *gorm.DB) Repository {
	return &gormRepository{db: db}
}

func (r *gormRepository) Create(ctx context.Context, app *CleanerApplication) error {
	return r.db.WithContext(ctx).Create(app).Error
}

func (r *gormRepository) FindByID(ctx context.Context, id uuid.UUID) (*CleanerApplication, error) {
	var app CleanerApplication
	err := r.db.WithContext(ctx).Where("id = ?", id).First(&app).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, common.ErrNotFound.WithDetails("Cleaner application not found.")
		}
		return nil, err
	}
	return &app, nil
}

// FindAll returns every application regardless of status, newest first, so
// admins see the full review history.
func (r *gormRepository) FindAll(ctx context.Context, page, pageSize int) ([]CleanerApplication, *common.Pagination, error) {
	var apps []CleanerApplication
	var total int64

	if err := r.db.WithContext(ctx).Model(&CleanerApplication{}).Count(&total).Error; err != nil {
		return nil, nil, err
	}

	pagination := common.NewPagination(total, page, pageSize)

	offset := (page - 1) * pageSize
	if page <= 0 {
		offset = 0
	}

	err := r.db.WithContext(ctx).
		Order("created_at DESC").
		Limit(pageSize).
		Offset(offset).
		Find(&apps).Error
	if err != nil {
		return nil, nil, err
	}
	return apps, pagination, nil
}

func (r *gormRepository) FindPendingByUserID(ctx context.Context, userID uuid.UUID) (*CleanerApplication, error) {
	var app CleanerApplication
	err := r.db.WithContext(ctx).
		Where("user_id = ? AND status = ?", userID, StatusPending).
		First(&app).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, common.ErrNotFound.WithDetails("No pending application for this user.")
		}
		return nil, err
	}
	return &app, nil
}

// Approve flips a pending application to Approved and promotes the
// applicant to cleaner in the same transaction, so the two writes can never
// diverge.
func (r *gormRepository) Approve(ctx context.Context, id uuid.UUID) (*CleanerApplication, error) {
	var approved CleanerApplication
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		result := tx.Model(&CleanerApplication{}).
			Where("id = ? AND status = ?", id, StatusPending).
			Update("status", StatusApproved)
		if result.Error != nil {
			return result.Error
		}
		if result.RowsAffected == 0 {
			return r.classifyReviewFailure(tx, id)
		}

		if err := tx.Where("id = ?", id).First(&approved).Error; err != nil {
			return err
		}

		roleUpdate := tx.Table("users").
			Where("id = ?", approved.UserID).
			Update("role", common.RoleCleaner)
		if roleUpdate.Error != nil {
			return roleUpdate.Error
		}
		if roleUpdate.RowsAffected == 0 {
			return common.ErrNotFound.WithDetails("Applicant's user account no longer exists.")
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return &approved, nil
}

// Reject flips a pending application to Rejected. The applicant's role is
// untouched.
func (r *gormRepository) Reject(ctx context.Context, id uuid.UUID) (*CleanerApplication, error) {
	result := r.db.WithContext(ctx).Model(&CleanerApplication{}).
		Where("id = ? AND status = ?", id, StatusPending).
		Update("status", StatusRejected)
	if result.Error != nil {
		return nil, result.Error
	}
	if result.RowsAffected == 0 {
		return nil, r.classifyReviewFailure(r.db.WithContext(ctx), id)
	}
	return r.FindByID(ctx, id)
}

func (r *gormRepository) classifyReviewFailure(tx *gorm.DB, id uuid.UUID) error {
	var existing CleanerApplication
	err := tx.Where("id = ?", id).First(&existing).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return common.ErrNotFound.WithDetails("Cleaner application not found.")
		}
		return err
	}
	return common.ErrConflict.WithDetails("This application has already been reviewed.")
}
