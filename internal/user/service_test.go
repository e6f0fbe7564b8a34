package user

import (
	"context"
	"errors"
	"testing"
	"time"

	"magic_broom_backend/internal/common"
	"magic_broom_backend/internal/config"

	firebaseauth "firebase.google.com/go/v4/auth"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

// MockUserRepository is a mock implementation of the user.Repository interface.
type MockUserRepository struct {
	mock.Mock
}

func (m *MockUserRepository) Create(ctx context.Context, user *User) error {
	args := m.Called(ctx, user)
	if args.Error(0) == nil && user.ID == uuid.Nil {
		user.ID = uuid.New()
	}
	return args.Error(0)
}

func (m *MockUserRepository) FindByEmail(ctx context.Context, email string) (*User, error) {
	args := m.Called(ctx, email)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*User), args.Error(1)
}

func (m *MockUserRepository) FindByID(ctx context.Context, id uuid.UUID) (*User, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*User), args.Error(1)
}

func (m *MockUserRepository) FindByFirebaseUID(ctx context.Context, firebaseUID string) (*User, error) {
	args := m.Called(ctx, firebaseUID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*User), args.Error(1)
}

func (m *MockUserRepository) Update(ctx context.Context, user *User) error {
	args := m.Called(ctx, user)
	return args.Error(0)
}

func (m *MockUserRepository) UpdateRole(ctx context.Context, id uuid.UUID, role string) error {
	args := m.Called(ctx, id, role)
	return args.Error(0)
}

// MockClaimsSyncer is a mock for the ClaimsSyncer interface.
type MockClaimsSyncer struct {
	mock.Mock
}

func (m *MockClaimsSyncer) SetAdminClaim(ctx context.Context, uid string, isAdmin bool) error {
	args := m.Called(ctx, uid, isAdmin)
	return args.Error(0)
}

func newTestService(repo Repository, syncer ClaimsSyncer) *ServiceImplementation {
	return NewService(repo, syncer, &config.Config{}, zap.NewNop())
}

func existingDBUser(firebaseUID string) *User {
	email := "test@example.com"
	name := "Test User"
	now := time.Now()
	return &User{
		BaseModel:   common.BaseModel{ID: uuid.New(), CreatedAt: now, UpdatedAt: now},
		FirebaseUID: &firebaseUID,
		Email:       &email,
		FullName:    &name,
		Role:        common.RoleUser,
		Status:      StatusVerified,
	}
}

func TestUserService_GetOrCreateUserFromFirebaseClaims_CreatesNewUser(t *testing.T) {
	ctx := context.Background()
	mockRepo := new(MockUserRepository)
	svc := newTestService(mockRepo, nil)

	token := &firebaseauth.Token{
		UID: "new_fb_uid",
		Claims: map[string]interface{}{
			"email":          "NewUser@Example.com",
			"email_verified": true,
			"name":           "New User",
			"picture":        "http://example.com/new_pic.jpg",
		},
	}

	mockRepo.On("FindByFirebaseUID", ctx, "new_fb_uid").Return(nil, common.ErrNotFound)
	mockRepo.On("Create", ctx, mock.AnythingOfType("*user.User")).Run(func(args mock.Arguments) {
		u := args.Get(1).(*User)
		require.NotNil(t, u.Email)
		assert.Equal(t, "newuser@example.com", *u.Email)
		require.NotNil(t, u.FullName)
		assert.Equal(t, "New User", *u.FullName)
		assert.Equal(t, common.RoleUser, u.Role)
		assert.Equal(t, StatusVerified, u.Status)
		assert.NotNil(t, u.LastLoginAt)
	}).Return(nil)

	sharedUser, wasCreated, err := svc.GetOrCreateUserFromFirebaseClaims(ctx, token)

	require.NoError(t, err)
	assert.True(t, wasCreated)
	require.NotNil(t, sharedUser)
	require.NotNil(t, sharedUser.Email)
	assert.Equal(t, "newuser@example.com", *sharedUser.Email)
	mockRepo.AssertExpectations(t)
}

func TestUserService_GetOrCreateUserFromFirebaseClaims_UnverifiedEmailStartsUnverified(t *testing.T) {
	ctx := context.Background()
	mockRepo := new(MockUserRepository)
	svc := newTestService(mockRepo, nil)

	token := &firebaseauth.Token{
		UID: "unverified_uid",
		Claims: map[string]interface{}{
			"email":          "pending@example.com",
			"email_verified": false,
		},
	}

	mockRepo.On("FindByFirebaseUID", ctx, "unverified_uid").Return(nil, common.ErrNotFound)
	mockRepo.On("Create", ctx, mock.AnythingOfType("*user.User")).Run(func(args mock.Arguments) {
		u := args.Get(1).(*User)
		assert.Equal(t, StatusUnverified, u.Status)
		assert.Nil(t, u.FullName)
	}).Return(nil)

	_, wasCreated, err := svc.GetOrCreateUserFromFirebaseClaims(ctx, token)

	require.NoError(t, err)
	assert.True(t, wasCreated)
	mockRepo.AssertExpectations(t)
}

func TestUserService_GetOrCreateUserFromFirebaseClaims_ExistingUserRefreshed(t *testing.T) {
	ctx := context.Background()
	mockRepo := new(MockUserRepository)
	svc := newTestService(mockRepo, nil)

	dbUser := existingDBUser("existing_fb_uid")
	dbUser.Status = StatusUnverified

	token := &firebaseauth.Token{
		UID: "existing_fb_uid",
		Claims: map[string]interface{}{
			"email":          "test@example.com",
			"email_verified": true,
		},
	}

	mockRepo.On("FindByFirebaseUID", ctx, "existing_fb_uid").Return(dbUser, nil)
	mockRepo.On("Update", ctx, mock.AnythingOfType("*user.User")).Run(func(args mock.Arguments) {
		u := args.Get(1).(*User)
		assert.Equal(t, StatusVerified, u.Status)
		assert.NotNil(t, u.LastLoginAt)
	}).Return(nil)

	sharedUser, wasCreated, err := svc.GetOrCreateUserFromFirebaseClaims(ctx, token)

	require.NoError(t, err)
	assert.False(t, wasCreated)
	require.NotNil(t, sharedUser)
	assert.Equal(t, dbUser.ID, sharedUser.ID)
	mockRepo.AssertExpectations(t)
}

func TestUserService_GetOrCreateUserFromFirebaseClaims_UpdateFailureDoesNotBlockSignIn(t *testing.T) {
	ctx := context.Background()
	mockRepo := new(MockUserRepository)
	svc := newTestService(mockRepo, nil)

	dbUser := existingDBUser("existing_fb_uid")

	token := &firebaseauth.Token{
		UID:    "existing_fb_uid",
		Claims: map[string]interface{}{"email": "test@example.com", "email_verified": true},
	}

	mockRepo.On("FindByFirebaseUID", ctx, "existing_fb_uid").Return(dbUser, nil)
	mockRepo.On("Update", ctx, mock.AnythingOfType("*user.User")).Return(errors.New("db down"))

	sharedUser, wasCreated, err := svc.GetOrCreateUserFromFirebaseClaims(ctx, token)

	require.NoError(t, err)
	assert.False(t, wasCreated)
	assert.NotNil(t, sharedUser)
	mockRepo.AssertExpectations(t)
}

func TestUserService_GetUserByFirebaseUID(t *testing.T) {
	ctx := context.Background()

	t.Run("found", func(t *testing.T) {
		mockRepo := new(MockUserRepository)
		svc := newTestService(mockRepo, nil)
		dbUser := existingDBUser("existing_fb_uid")

		mockRepo.On("FindByFirebaseUID", ctx, "existing_fb_uid").Return(dbUser, nil)

		sharedUser, err := svc.GetUserByFirebaseUID(ctx, "existing_fb_uid")
		require.NoError(t, err)
		require.NotNil(t, sharedUser)
		require.NotNil(t, sharedUser.Email)
		assert.Equal(t, "test@example.com", *sharedUser.Email)
	})

	t.Run("not found", func(t *testing.T) {
		mockRepo := new(MockUserRepository)
		svc := newTestService(mockRepo, nil)

		mockRepo.On("FindByFirebaseUID", ctx, "missing_uid").Return(nil, common.ErrNotFound)

		_, err := svc.GetUserByFirebaseUID(ctx, "missing_uid")
		require.Error(t, err)
		assert.True(t, errors.Is(err, common.ErrNotFound))
	})

	t.Run("repository error", func(t *testing.T) {
		mockRepo := new(MockUserRepository)
		svc := newTestService(mockRepo, nil)

		mockRepo.On("FindByFirebaseUID", ctx, "error_uid").Return(nil, errors.New("mock repository error"))

		_, err := svc.GetUserByFirebaseUID(ctx, "error_uid")
		require.Error(t, err)
		assert.False(t, errors.Is(err, common.ErrNotFound))
	})
}

func TestUserService_UpdateProfile(t *testing.T) {
	ctx := context.Background()

	t.Run("updates full name", func(t *testing.T) {
		mockRepo := new(MockUserRepository)
		svc := newTestService(mockRepo, nil)
		dbUser := existingDBUser("uid")

		mockRepo.On("FindByID", ctx, dbUser.ID).Return(dbUser, nil)
		mockRepo.On("Update", ctx, mock.AnythingOfType("*user.User")).Return(nil)

		newName := "  Renamed User  "
		updated, err := svc.UpdateProfile(ctx, dbUser.ID, UpdateProfileRequest{FullName: &newName})

		require.NoError(t, err)
		require.NotNil(t, updated.FullName)
		assert.Equal(t, "Renamed User", *updated.FullName)
		mockRepo.AssertExpectations(t)
	})

	t.Run("rejects blank name", func(t *testing.T) {
		mockRepo := new(MockUserRepository)
		svc := newTestService(mockRepo, nil)
		dbUser := existingDBUser("uid")

		mockRepo.On("FindByID", ctx, dbUser.ID).Return(dbUser, nil)

		blank := "   "
		_, err := svc.UpdateProfile(ctx, dbUser.ID, UpdateProfileRequest{FullName: &blank})

		require.Error(t, err)
		assert.True(t, errors.Is(err, common.ErrBadRequest))
		mockRepo.AssertNotCalled(t, "Update")
	})
}

func TestUserService_UpdateRole(t *testing.T) {
	ctx := context.Background()

	t.Run("promotes to admin and syncs claim", func(t *testing.T) {
		mockRepo := new(MockUserRepository)
		mockSyncer := new(MockClaimsSyncer)
		svc := newTestService(mockRepo, mockSyncer)
		dbUser := existingDBUser("uid")

		mockRepo.On("FindByID", ctx, dbUser.ID).Return(dbUser, nil)
		mockRepo.On("UpdateRole", ctx, dbUser.ID, common.RoleAdmin).Return(nil)
		mockSyncer.On("SetAdminClaim", ctx, "uid", true).Return(nil)

		updated, err := svc.UpdateRole(ctx, dbUser.ID, common.RoleAdmin)

		require.NoError(t, err)
		assert.Equal(t, common.RoleAdmin, updated.Role)
		mockRepo.AssertExpectations(t)
		mockSyncer.AssertExpectations(t)
	})

	t.Run("demotion clears admin claim", func(t *testing.T) {
		mockRepo := new(MockUserRepository)
		mockSyncer := new(MockClaimsSyncer)
		svc := newTestService(mockRepo, mockSyncer)
		dbUser := existingDBUser("uid")
		dbUser.Role = common.RoleAdmin

		mockRepo.On("FindByID", ctx, dbUser.ID).Return(dbUser, nil)
		mockRepo.On("UpdateRole", ctx, dbUser.ID, common.RoleCleaner).Return(nil)
		mockSyncer.On("SetAdminClaim", ctx, "uid", false).Return(nil)

		updated, err := svc.UpdateRole(ctx, dbUser.ID, common.RoleCleaner)

		require.NoError(t, err)
		assert.Equal(t, common.RoleCleaner, updated.Role)
		mockSyncer.AssertExpectations(t)
	})

	t.Run("no-op when role unchanged", func(t *testing.T) {
		mockRepo := new(MockUserRepository)
		mockSyncer := new(MockClaimsSyncer)
		svc := newTestService(mockRepo, mockSyncer)
		dbUser := existingDBUser("uid")

		mockRepo.On("FindByID", ctx, dbUser.ID).Return(dbUser, nil)

		_, err := svc.UpdateRole(ctx, dbUser.ID, common.RoleUser)

		require.NoError(t, err)
		mockRepo.AssertNotCalled(t, "UpdateRole")
		mockSyncer.AssertNotCalled(t, "SetAdminClaim")
	})

	t.Run("invalid role", func(t *testing.T) {
		mockRepo := new(MockUserRepository)
		svc := newTestService(mockRepo, nil)

		_, err := svc.UpdateRole(ctx, uuid.New(), "superuser")

		require.Error(t, err)
		assert.True(t, errors.Is(err, common.ErrBadRequest))
		mockRepo.AssertNotCalled(t, "FindByID")
	})

	t.Run("claim sync failure does not fail the role change", func(t *testing.T) {
		mockRepo := new(MockUserRepository)
		mockSyncer := new(MockClaimsSyncer)
		svc := newTestService(mockRepo, mockSyncer)
		dbUser := existingDBUser("uid")

		mockRepo.On("FindByID", ctx, dbUser.ID).Return(dbUser, nil)
		mockRepo.On("UpdateRole", ctx, dbUser.ID, common.RoleAdmin).Return(nil)
		mockSyncer.On("SetAdminClaim", ctx, "uid", true).Return(errors.New("firebase unavailable"))

		updated, err := svc.UpdateRole(ctx, dbUser.ID, common.RoleAdmin)

		require.NoError(t, err)
		assert.Equal(t, common.RoleAdmin, updated.Role)
	})
}
