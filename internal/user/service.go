package user

import (
	"context"
	"errors"
	"strings"
	"time"

	firebaseauth "firebase.google.com/go/v4/auth"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"magic_broom_backend/internal/common"
	"magic_broom_backend/internal/config"
	"magic_broom_backend/internal/shared"
)

// ClaimsSyncer pushes local role changes back to the auth provider. The
// Firebase service implements it; tests pass nil.
type ClaimsSyncer interface {
	SetAdminClaim(ctx context.Context, uid string, isAdmin bool) error
}

// Service is the user-facing surface of this package, a superset of the
// shared.Service other domains consume.
type Service interface {
	shared.Service
	UpdateProfile(ctx context.Context, id uuid.UUID, req UpdateProfileRequest) (*shared.User, error)
	UpdateProfilePicture(ctx context.Context, id uuid.UUID, pictureURL string) (*shared.User, error)
	UpdateRole(ctx context.Context, id uuid.UUID, role string) (*shared.User, error)
}

// ServiceImplementation implements Service.
type ServiceImplementation struct {
	repo         Repository
	claimsSyncer ClaimsSyncer
	cfg          *config.Config
	logger       *zap.Logger
}

var _ Service = (*ServiceImplementation)(nil)
var _ shared.Service = (*ServiceImplementation)(nil)

// NewService creates a new user service.
func NewService(
	repo Repository,
	claimsSyncer ClaimsSyncer,
	cfg *config.Config,
	logger *zap.Logger,
) *ServiceImplementation {
	return &ServiceImplementation{
		repo:         repo,
		claimsSyncer: claimsSyncer,
		cfg:          cfg,
		logger:       logger,
	}
}

// GetOrCreateUserFromFirebaseClaims resolves the local profile for a
// verified Firebase token, creating it on first contact. New profiles start
// as plain users with zero rating aggregates.
func (s *ServiceImplementation) GetOrCreateUserFromFirebaseClaims(
	ctx context.Context, firebaseToken *firebaseauth.Token,
) (*shared.User, bool, error) {
	dbUser, err := s.repo.FindByFirebaseUID(ctx, firebaseToken.UID)
	if err == nil {
		changed := s.refreshFromClaims(dbUser, firebaseToken)
		now := time.Now()
		dbUser.LastLoginAt = &now
		if err := s.repo.Update(ctx, dbUser); err != nil {
			// Last-login bookkeeping must not block sign-in.
			s.logger.Warn("Failed to update profile on sync", zap.Error(err), zap.String("userID", dbUser.ID.String()))
		} else if changed {
			s.logger.Info("Profile refreshed from provider claims", zap.String("userID", dbUser.ID.String()))
		}
		return DBToShared(dbUser), false, nil
	}
	if !errors.Is(err, common.ErrNotFound) {
		s.logger.Error("Error finding user by Firebase UID", zap.Error(err), zap.String("firebaseUID", firebaseToken.UID))
		return nil, false, err
	}

	now := time.Now()
	uid := firebaseToken.UID
	newUser := &User{
		FirebaseUID: &uid,
		Role:        common.RoleUser,
		Status:      StatusUnverified,
		LastLoginAt: &now,
	}
	if email, ok := firebaseToken.Claims["email"].(string); ok && email != "" {
		normalized := strings.ToLower(strings.TrimSpace(email))
		newUser.Email = &normalized
	}
	if name, ok := firebaseToken.Claims["name"].(string); ok && name != "" {
		newUser.FullName = &name
	}
	if picture, ok := firebaseToken.Claims["picture"].(string); ok && picture != "" {
		newUser.ProfilePictureURL = &picture
	}
	if verified, ok := firebaseToken.Claims["email_verified"].(bool); ok && verified {
		newUser.Status = StatusVerified
	}

	if err := s.repo.Create(ctx, newUser); err != nil {
		s.logger.Error("Failed to create user from Firebase claims", zap.Error(err), zap.String("firebaseUID", firebaseToken.UID))
		if apiErr, ok := common.IsAPIError(err); ok {
			return nil, false, apiErr
		}
		return nil, false, common.ErrInternalServer.WithDetails("Could not create user account.")
	}

	s.logger.Info("New user created from Firebase claims", zap.String("userID", newUser.ID.String()))
	return DBToShared(newUser), true, nil
}

// refreshFromClaims folds provider-side changes into an existing profile.
func (s *ServiceImplementation) refreshFromClaims(dbUser *User, firebaseToken *firebaseauth.Token) bool {
	changed := false
	if verified, ok := firebaseToken.Claims["email_verified"].(bool); ok && verified && dbUser.Status == StatusUnverified {
		dbUser.Status = StatusVerified
		changed = true
	}
	if email, ok := firebaseToken.Claims["email"].(string); ok && email != "" {
		normalized := strings.ToLower(strings.TrimSpace(email))
		if dbUser.Email == nil || *dbUser.Email != normalized {
			dbUser.Email = &normalized
			changed = true
		}
	}
	if name, ok := firebaseToken.Claims["name"].(string); ok && name != "" && dbUser.FullName == nil {
		dbUser.FullName = &name
		changed = true
	}
	return changed
}

func (s *ServiceImplementation) GetUserByID(ctx context.Context, id uuid.UUID) (*shared.User, error) {
	dbUser, err := s.repo.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, common.ErrNotFound) {
			s.logger.Debug("User not found by ID", zap.String("userID", id.String()))
		} else {
			s.logger.Error("Error finding user by ID", zap.Error(err), zap.String("userID", id.String()))
		}
		return nil, err
	}
	return DBToShared(dbUser), nil
}

func (s *ServiceImplementation) GetUserByEmail(ctx context.Context, email string) (*shared.User, error) {
	dbUser, err := s.repo.FindByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, common.ErrNotFound) {
			s.logger.Debug("User not found by email", zap.String("email", email))
		} else {
			s.logger.Error("Error finding user by email", zap.Error(err), zap.String("email", email))
		}
		return nil, err
	}
	return DBToShared(dbUser), nil
}

func (s *ServiceImplementation) GetUserByFirebaseUID(ctx context.Context, firebaseUID string) (*shared.User, error) {
	dbUser, err := s.repo.FindByFirebaseUID(ctx, firebaseUID)
	if err != nil {
		return nil, err
	}
	return DBToShared(dbUser), nil
}

// UpdateProfile applies the self-service profile changes.
func (s *ServiceImplementation) UpdateProfile(ctx context.Context, id uuid.UUID, req UpdateProfileRequest) (*shared.User, error) {
	dbUser, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}

	if req.FullName != nil {
		trimmed := strings.TrimSpace(*req.FullName)
		if trimmed == "" {
			return nil, common.ErrBadRequest.WithDetails("Full name cannot be blank.")
		}
		dbUser.FullName = &trimmed
	}

	if err := s.repo.Update(ctx, dbUser); err != nil {
		s.logger.Error("Failed to update profile", zap.Error(err), zap.String("userID", id.String()))
		return nil, err
	}
	return DBToShared(dbUser), nil
}

// UpdateProfilePicture stores the new picture URL on the profile.
func (s *ServiceImplementation) UpdateProfilePicture(ctx context.Context, id uuid.UUID, pictureURL string) (*shared.User, error) {
	dbUser, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}

	dbUser.ProfilePictureURL = &pictureURL
	if err := s.repo.Update(ctx, dbUser); err != nil {
		s.logger.Error("Failed to update profile picture", zap.Error(err), zap.String("userID", id.String()))
		return nil, err
	}
	return DBToShared(dbUser), nil
}

// UpdateRole sets the role directly (admin action, bypasses the cleaner
// application flow) and keeps the provider's admin claim in sync.
func (s *ServiceImplementation) UpdateRole(ctx context.Context, id uuid.UUID, role string) (*shared.User, error) {
	if !common.IsValidRole(role) {
		return nil, common.ErrBadRequest.WithDetails("Role must be one of user, cleaner, admin.")
	}

	dbUser, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}

	if dbUser.Role != role {
		if err := s.repo.UpdateRole(ctx, id, role); err != nil {
			s.logger.Error("Failed to update role", zap.Error(err), zap.String("userID", id.String()), zap.String("role", role))
			return nil, err
		}
		dbUser.Role = role

		if s.claimsSyncer != nil && dbUser.FirebaseUID != nil {
			if err := s.claimsSyncer.SetAdminClaim(ctx, *dbUser.FirebaseUID, role == common.RoleAdmin); err != nil {
				// The local role is authoritative; claim sync is repaired on
				// the next role change.
				s.logger.Warn("Failed to sync admin claim", zap.Error(err), zap.String("userID", id.String()))
			}
		}
		s.logger.Info("User role updated", zap.String("userID", id.String()), zap.String("role", role))
	}

	return DBToShared(dbUser), nil
}
