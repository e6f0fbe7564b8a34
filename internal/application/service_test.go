package application

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"magic_broom_backend/internal/common"
	"magic_broom_backend/internal/config"
	"magic_broom_backend/internal/notification"
	"magic_broom_backend/internal/user"
)

func setupApplicationService(t *testing.T) (Service, *gorm.DB) {
	t.Helper()

	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", t.Name())
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{})
	require.NoError(t, err, "Failed to open test database")

	require.NoError(t, db.AutoMigrate(&user.User{}, &CleanerApplication{}, &notification.Notification{}))

	logger := zap.NewNop()
	userService := user.NewService(user.NewGORMRepository(db), nil, &config.Config{}, logger)
	notifService := notification.NewService(notification.NewGORMRepository(db), logger)
	svc := NewService(NewGORMRepository(db), userService, notifService, logger)
	return svc, db
}

func seedApplicant(t *testing.T, db *gorm.DB, email, role string) *user.User {
	t.Helper()
	name := "Applicant " + email
	u := &user.User{Email: &email, FullName: &name, Role: role, Status: user.StatusVerified}
	require.NoError(t, db.Create(u).Error)
	return u
}

func TestApplicationService_Apply(t *testing.T) {
	svc, db := setupApplicationService(t)
	ctx := context.Background()

	t.Run("success with profile defaults", func(t *testing.T) {
		applicant := seedApplicant(t, db, "apply@test.com", common.RoleUser)

		app, err := svc.Apply(ctx, applicant.ID, ApplyRequest{})
		require.NoError(t, err)
		assert.Equal(t, StatusPending, app.Status)
		assert.Equal(t, "apply@test.com", app.Email)
		assert.Equal(t, *applicant.FullName, app.FullName)

		var notifs []notification.Notification
		require.NoError(t, db.Where("user_id = ? AND type = ?", applicant.ID, notification.ApplicationReceived).
			Find(&notifs).Error)
		assert.Len(t, notifs, 1)
	})

	t.Run("explicit fields override profile", func(t *testing.T) {
		applicant := seedApplicant(t, db, "override@test.com", common.RoleUser)
		years := 3

		app, err := svc.Apply(ctx, applicant.ID, ApplyRequest{
			FullName:        "Professional Name",
			Phone:           "+1 206 555 0100",
			ExperienceYears: &years,
			ServicesOffered: []string{"deep clean", "move-out"},
		})
		require.NoError(t, err)
		assert.Equal(t, "Professional Name", app.FullName)
		require.NotNil(t, app.Phone)
		assert.Equal(t, "+1 206 555 0100", *app.Phone)
		require.NotNil(t, app.ExperienceYears)
		assert.Equal(t, 3, *app.ExperienceYears)
		assert.Equal(t, []string{"deep clean", "move-out"}, []string(app.ServicesOffered))
	})

	t.Run("cleaner cannot apply again", func(t *testing.T) {
		cleaner := seedApplicant(t, db, "already-cleaner@test.com", common.RoleCleaner)

		_, err := svc.Apply(ctx, cleaner.ID, ApplyRequest{})
		require.Error(t, err)
		assert.True(t, errors.Is(err, common.ErrConflict))
	})

	t.Run("one pending application at a time", func(t *testing.T) {
		applicant := seedApplicant(t, db, "pending-dup@test.com", common.RoleUser)

		_, err := svc.Apply(ctx, applicant.ID, ApplyRequest{})
		require.NoError(t, err)

		_, err = svc.Apply(ctx, applicant.ID, ApplyRequest{})
		require.Error(t, err)
		assert.True(t, errors.Is(err, common.ErrConflict))
	})

	t.Run("reapply allowed after rejection", func(t *testing.T) {
		applicant := seedApplicant(t, db, "reapply@test.com", common.RoleUser)

		first, err := svc.Apply(ctx, applicant.ID, ApplyRequest{})
		require.NoError(t, err)
		_, err = svc.Reject(ctx, first.ID)
		require.NoError(t, err)

		_, err = svc.Apply(ctx, applicant.ID, ApplyRequest{})
		require.NoError(t, err)
	})

	t.Run("unknown applicant", func(t *testing.T) {
		_, err := svc.Apply(ctx, uuid.New(), ApplyRequest{})
		require.Error(t, err)
		assert.True(t, errors.Is(err, common.ErrNotFound))
	})
}

func TestApplicationService_Approve(t *testing.T) {
	svc, db := setupApplicationService(t)
	ctx := context.Background()

	t.Run("approval flips status and promotes applicant", func(t *testing.T) {
		applicant := seedApplicant(t, db, "promote@test.com", common.RoleUser)
		app, err := svc.Apply(ctx, applicant.ID, ApplyRequest{})
		require.NoError(t, err)

		approved, err := svc.Approve(ctx, app.ID)
		require.NoError(t, err)
		assert.Equal(t, StatusApproved, approved.Status)

		var promoted user.User
		require.NoError(t, db.Where("id = ?", applicant.ID).First(&promoted).Error)
		assert.Equal(t, common.RoleCleaner, promoted.Role)

		var notifs []notification.Notification
		require.NoError(t, db.Where("user_id = ? AND type = ?", applicant.ID, notification.ApplicationApproved).
			Find(&notifs).Error)
		assert.Len(t, notifs, 1)
	})

	t.Run("second review is a conflict", func(t *testing.T) {
		applicant := seedApplicant(t, db, "double-review@test.com", common.RoleUser)
		app, err := svc.Apply(ctx, applicant.ID, ApplyRequest{})
		require.NoError(t, err)

		_, err = svc.Approve(ctx, app.ID)
		require.NoError(t, err)

		_, err = svc.Approve(ctx, app.ID)
		require.Error(t, err)
		assert.True(t, errors.Is(err, common.ErrConflict))

		_, err = svc.Reject(ctx, app.ID)
		require.Error(t, err)
		assert.True(t, errors.Is(err, common.ErrConflict))
	})

	t.Run("unknown application", func(t *testing.T) {
		_, err := svc.Approve(ctx, uuid.New())
		require.Error(t, err)
		assert.True(t, errors.Is(err, common.ErrNotFound))
	})
}

func TestApplicationService_Reject(t *testing.T) {
	svc, db := setupApplicationService(t)
	ctx := context.Background()

	t.Run("rejection leaves role untouched", func(t *testing.T) {
		applicant := seedApplicant(t, db, "reject@test.com", common.RoleUser)
		app, err := svc.Apply(ctx, applicant.ID, ApplyRequest{})
		require.NoError(t, err)

		rejected, err := svc.Reject(ctx, app.ID)
		require.NoError(t, err)
		assert.Equal(t, StatusRejected, rejected.Status)

		var unchanged user.User
		require.NoError(t, db.Where("id = ?", applicant.ID).First(&unchanged).Error)
		assert.Equal(t, common.RoleUser, unchanged.Role)

		var notifs []notification.Notification
		require.NoError(t, db.Where("user_id = ? AND type = ?", applicant.ID, notification.ApplicationRejected).
			Find(&notifs).Error)
		assert.Len(t, notifs, 1)
	})
}

func TestApplicationService_List(t *testing.T) {
	svc, db := setupApplicationService(t)
	ctx := context.Background()

	for i := 0; i < 3; i++ {
		applicant := seedApplicant(t, db, fmt.Sprintf("list-%d@test.com", i), common.RoleUser)
		_, err := svc.Apply(ctx, applicant.ID, ApplyRequest{})
		require.NoError(t, err)
	}

	apps, pagination, err := svc.List(ctx, 1, 2)
	require.NoError(t, err)
	assert.Len(t, apps, 2)
	require.NotNil(t, pagination)
	assert.Equal(t, int64(3), pagination.TotalItems)
	assert.Equal(t, 2, pagination.TotalPages)
}
