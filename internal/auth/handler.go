// File: internal/auth/handler.go
package auth

import (
	"magic_broom_backend/internal/common"
	"magic_broom_backend/internal/firebase"
	"magic_broom_backend/internal/middleware"
	"magic_broom_backend/internal/shared"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// Handler struct holds dependencies for session handlers. Credentials live
// with the identity provider; this package only syncs and inspects the local
// profile behind a verified ID token.
type Handler struct {
	userService shared.Service
	fbService   *firebase.FirebaseService
	logger      *zap.Logger
}

// NewHandler creates a new session handler.
func NewHandler(userService shared.Service, fbService *firebase.FirebaseService, logger *zap.Logger) *Handler {
	return &Handler{
		userService: userService,
		fbService:   fbService,
		logger:      logger,
	}
}

// RegisterRoutes sets up the routes for session operations. Sync runs behind
// the token-only middleware because the local profile may not exist yet; the
// other endpoints require a resolved profile.
func (h *Handler) RegisterRoutes(router *gin.RouterGroup, tokenMW, authMW gin.HandlerFunc) {
	authGroup := router.Group("/auth")
	{
		authGroup.POST("/sync", tokenMW, h.sync)
		authGroup.GET("/me", authMW, h.me)
		authGroup.POST("/logout", authMW, h.logout)
	}
}

// sync provisions or refreshes the local profile from the verified token's
// claims. Safe to call on every sign-in.
func (h *Handler) sync(c *gin.Context) {
	token := middleware.GetFirebaseTokenFromContext(c)
	if token == nil {
		h.logger.Error("Sync called without a verified token in context")
		common.RespondWithError(c, common.ErrUnauthorized)
		return
	}

	usr, wasCreated, err := h.userService.GetOrCreateUserFromFirebaseClaims(c.Request.Context(), token)
	if err != nil {
		common.RespondWithError(c, err)
		return
	}

	if wasCreated {
		common.RespondCreated(c, "Profile created successfully.", shared.ToUserResponse(usr))
		return
	}
	common.RespondOK(c, "Profile synced successfully.", shared.ToUserResponse(usr))
}

func (h *Handler) me(c *gin.Context) {
	userID := middleware.GetUserIDFromContext(c)

	usr, err := h.userService.GetUserByID(c.Request.Context(), userID)
	if err != nil {
		common.RespondWithError(c, err)
		return
	}
	common.RespondOK(c, "Profile retrieved successfully.", shared.ToUserResponse(usr))
}

// logout revokes the caller's refresh tokens. The current ID token remains
// valid until expiry; clients also clear their local session.
func (h *Handler) logout(c *gin.Context) {
	firebaseUID := middleware.GetFirebaseUIDFromContext(c)
	if firebaseUID == "" {
		common.RespondWithError(c, common.ErrUnauthorized)
		return
	}

	if err := h.fbService.RevokeRefreshTokens(c.Request.Context(), firebaseUID); err != nil {
		common.RespondWithError(c, common.ErrInternalServer.WithDetails("Could not end the session."))
		return
	}
	common.RespondOK(c, "Logged out successfully.", nil)
}
