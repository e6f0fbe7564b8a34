// File: internal/middleware/auth.go
package middleware

import (
	"magic_broom_backend/internal/common"
	"magic_broom_backend/internal/firebase"
	"magic_broom_backend/internal/shared"

	firebaseauth "firebase.google.com/go/v4/auth"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

// verifyAndStoreClaims verifies the bearer token and stores its claims in
// the context. On failure it aborts with a 401 and returns false. It never
// advances the handler chain itself; the caller owns c.Next, so the rest of
// the chain only runs after the caller has finished populating the context.
func verifyAndStoreClaims(c *gin.Context, verifier firebase.TokenVerifier, logger *zap.Logger) bool {
	tokenString := common.GetTokenFromContext(c)
	if tokenString == "" {
		logger.Debug("Authorization header missing or malformed")
		common.RespondWithError(c, common.ErrUnauthorized.WithDetails("Authorization header format must be 'Bearer <token>'."))
		return false
	}

	token, err := verifier.VerifyIDToken(c.Request.Context(), tokenString)
	if err != nil {
		logger.Warn("ID token verification failed", zap.Error(err))
		common.RespondWithError(c, common.ErrUnauthorized.WithDetails("Invalid or expired credentials."))
		return false
	}

	emailVerified, _ := token.Claims["email_verified"].(bool)
	adminClaim, _ := token.Claims[firebase.AdminClaim].(bool)
	email, _ := token.Claims["email"].(string)

	c.Set(common.FirebaseUIDKey, token.UID)
	c.Set(common.UserEmailKey, email)
	c.Set(common.EmailVerifiedKey, emailVerified)
	c.Set(common.AdminClaimKey, adminClaim)
	c.Set(common.FirebaseTokenKey, token)

	return true
}

// TokenAuthMiddleware verifies the Firebase ID token and stores its claims
// in the context. It does not require a local profile to exist, so the
// profile sync endpoint can run behind it.
func TokenAuthMiddleware(verifier firebase.TokenVerifier, logger *zap.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		if !verifyAndStoreClaims(c, verifier, logger) {
			return
		}
		c.Next()
	}
}

// AuthMiddleware verifies the Firebase ID token and resolves the local
// profile. A valid token without a profile is the distinct PROFILE_NOT_FOUND
// condition: clients recover by calling the sync endpoint, so it must not
// look like a plain 401.
func AuthMiddleware(verifier firebase.TokenVerifier, userService shared.Service, logger *zap.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		if !verifyAndStoreClaims(c, verifier, logger) {
			return
		}

		firebaseUID := common.GetFirebaseUIDFromContext(c)
		usr, err := userService.GetUserByFirebaseUID(c.Request.Context(), firebaseUID)
		if err != nil {
			if apiErr, ok := common.IsAPIError(err); ok && apiErr.Code == common.ErrNotFound.Code {
				logger.Debug("Token valid but no local profile", zap.String("firebaseUID", firebaseUID))
				common.RespondWithError(c, common.ErrProfileNotFound)
				return
			}
			logger.Error("Failed to resolve local user for token", zap.Error(err), zap.String("firebaseUID", firebaseUID))
			common.RespondWithError(c, common.ErrInternalServer)
			return
		}

		c.Set(common.UserIDKey, usr.ID)
		if usr.Email != nil {
			c.Set(common.UserEmailKey, *usr.Email)
		}
		c.Set(common.UserRoleKey, usr.Role)

		logger.Debug("User authenticated successfully",
			zap.String("userID", usr.ID.String()),
			zap.String("role", usr.Role),
		)

		c.Next()
	}
}

// RequireVerifiedEmail rejects callers whose token reports an unverified
// email address and revokes their refresh tokens, the server-side version of
// the forced sign-out the mobile clients perform.
func RequireVerifiedEmail(fbService *firebase.FirebaseService, logger *zap.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		if common.GetEmailVerifiedFromContext(c) {
			c.Next()
			return
		}

		firebaseUID := common.GetFirebaseUIDFromContext(c)
		if firebaseUID != "" {
			if err := fbService.RevokeRefreshTokens(c.Request.Context(), firebaseUID); err != nil {
				logger.Warn("Failed to revoke refresh tokens for unverified account",
					zap.Error(err), zap.String("firebaseUID", firebaseUID))
			}
		}
		common.RespondWithError(c, common.ErrEmailNotVerified)
	}
}

// RoleAuthMiddleware checks that the authenticated user has one of the
// required local roles.
func RoleAuthMiddleware(allowedRoles ...string) gin.HandlerFunc {
	return func(c *gin.Context) {
		userRole := common.GetUserRoleFromContext(c)
		if userRole == "" {
			common.RespondWithError(c, common.ErrForbidden.WithDetails("User role not found in context."))
			return
		}

		for _, role := range allowedRoles {
			if userRole == role {
				c.Next()
				return
			}
		}

		common.RespondWithError(c, common.ErrForbidden.WithDetails("You do not have sufficient permissions for this resource."))
	}
}

// AdminClaimMiddleware requires the admin custom claim on the Firebase token
// itself, the stronger gate for role management endpoints.
func AdminClaimMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		if !common.GetAdminClaimFromContext(c) {
			common.RespondWithError(c, common.ErrForbidden.WithDetails("Administrator privileges are required."))
			return
		}
		c.Next()
	}
}

// GetUserIDFromContext retrieves the user ID from the Gin context.
func GetUserIDFromContext(c *gin.Context) uuid.UUID {
	return common.GetUserIDFromContext(c)
}

// GetUserEmailFromContext retrieves the user email from the Gin context.
func GetUserEmailFromContext(c *gin.Context) string {
	return common.GetUserEmailFromContext(c)
}

// GetUserRoleFromContext retrieves the user role from the Gin context.
func GetUserRoleFromContext(c *gin.Context) string {
	return common.GetUserRoleFromContext(c)
}

// GetFirebaseUIDFromContext retrieves the Firebase UID from the Gin context.
func GetFirebaseUIDFromContext(c *gin.Context) string {
	return common.GetFirebaseUIDFromContext(c)
}

// GetFirebaseTokenFromContext retrieves the verified Firebase ID token stored
// by TokenAuthMiddleware, or nil when no token middleware ran.
func GetFirebaseTokenFromContext(c *gin.Context) *firebaseauth.Token {
	if v, exists := c.Get(common.FirebaseTokenKey); exists {
		if token, ok := v.(*firebaseauth.Token); ok {
			return token
		}
	}
	return nil
}
