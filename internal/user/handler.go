// File: internal/user/handler.go
package user

import (
	"errors"
	"fmt"

	"magic_broom_backend/internal/common"
	"magic_broom_backend/internal/config"
	"magic_broom_backend/internal/filestorage"
	"magic_broom_backend/internal/middleware"
	"magic_broom_backend/internal/shared"

	"github.com/gin-gonic/gin"
	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

// profilePictureField is the multipart form field the mobile clients send.
const profilePictureField = "profilePicture"

// Handler struct holds dependencies for user handlers.
type Handler struct {
	service     Service
	fileStorage *filestorage.FileStorageService
	cfg         *config.Config
	logger      *zap.Logger
}

// NewHandler creates a new user handler.
func NewHandler(service Service, fileStorage *filestorage.FileStorageService, cfg *config.Config, logger *zap.Logger) *Handler {
	return &Handler{
		service:     service,
		fileStorage: fileStorage,
		cfg:         cfg,
		logger:      logger,
	}
}

// RegisterRoutes sets up the routes for user operations.
func (h *Handler) RegisterRoutes(router *gin.RouterGroup, authMW, adminClaimMW gin.HandlerFunc) {
	userGroup := router.Group("/users")
	userGroup.Use(authMW)
	{
		userGroup.GET("/me", h.getMe)
		userGroup.PATCH("/me", h.updateMe)
		userGroup.POST("/me/picture", h.uploadProfilePicture)
		userGroup.GET("/:id", h.getUserByID)
		userGroup.PATCH("/:id/role", adminClaimMW, h.updateRole)
	}
}

func (h *Handler) getMe(c *gin.Context) {
	userID := middleware.GetUserIDFromContext(c)
	if userID == uuid.Nil {
		h.logger.Error("User ID not found in context for /me", zap.String("path", c.Request.URL.Path))
		common.RespondWithError(c, common.ErrInternalServer.WithDetails("User identifier missing."))
		return
	}
	usr, err := h.service.GetUserByID(c.Request.Context(), userID)
	if err != nil {
		common.RespondWithError(c, err)
		return
	}
	common.RespondOK(c, "User profile retrieved successfully.", shared.ToUserResponse(usr))
}

func (h *Handler) updateMe(c *gin.Context) {
	userID := middleware.GetUserIDFromContext(c)
	if userID == uuid.Nil {
		common.RespondWithError(c, common.ErrInternalServer.WithDetails("User identifier missing."))
		return
	}

	var req UpdateProfileRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		var ve validator.ValidationErrors
		if errors.As(err, &ve) {
			common.RespondWithError(c, common.NewValidationAPIError(common.FormatValidationErrors(ve)))
			return
		}
		common.RespondWithError(c, common.ErrBadRequest.WithDetails(err.Error()))
		return
	}

	usr, err := h.service.UpdateProfile(c.Request.Context(), userID, req)
	if err != nil {
		common.RespondWithError(c, err)
		return
	}
	common.RespondOK(c, "Profile updated successfully.", shared.ToUserResponse(usr))
}

func (h *Handler) uploadProfilePicture(c *gin.Context) {
	userID := middleware.GetUserIDFromContext(c)
	if userID == uuid.Nil {
		common.RespondWithError(c, common.ErrInternalServer.WithDetails("User identifier missing."))
		return
	}

	fileHeader, err := c.FormFile(profilePictureField)
	if err != nil {
		common.RespondWithError(c, common.ErrBadRequest.WithDetails(
			fmt.Sprintf("A %q file is required.", profilePictureField)))
		return
	}

	relativePath, err := h.fileStorage.SaveUploadedFile(fileHeader, filestorage.AvatarsSubDir)
	if err != nil {
		h.logger.Error("Failed to store profile picture", zap.Error(err), zap.String("userID", userID.String()))
		common.RespondWithError(c, common.ErrBadRequest.WithDetails(err.Error()))
		return
	}

	publicURL := fmt.Sprintf("%s/uploads/%s", h.cfg.PublicBaseURL, relativePath)
	usr, err := h.service.UpdateProfilePicture(c.Request.Context(), userID, publicURL)
	if err != nil {
		common.RespondWithError(c, err)
		return
	}
	common.RespondOK(c, "Profile picture updated successfully.", shared.ToUserResponse(usr))
}

func (h *Handler) getUserByID(c *gin.Context) {
	paramID := c.Param("id")
	userIDToFetch, err := uuid.Parse(paramID)
	if err != nil {
		h.logger.Warn("Invalid user ID format in URL parameter", zap.String("paramID", paramID), zap.Error(err))
		common.RespondWithError(c, common.ErrBadRequest.WithDetails("Invalid user ID format."))
		return
	}
	requestingUserID := middleware.GetUserIDFromContext(c)
	requestingUserRole := middleware.GetUserRoleFromContext(c)
	if requestingUserRole != common.RoleAdmin && requestingUserID != userIDToFetch {
		h.logger.Warn("User attempting to fetch another user's profile without admin rights",
			zap.String("requestingUserID", requestingUserID.String()),
			zap.String("targetUserID", userIDToFetch.String()))
		common.RespondWithError(c, common.ErrForbidden.WithDetails("You are not authorized to view this profile."))
		return
	}
	usr, err := h.service.GetUserByID(c.Request.Context(), userIDToFetch)
	if err != nil {
		common.RespondWithError(c, err)
		return
	}
	common.RespondOK(c, "User retrieved successfully.", shared.ToUserResponse(usr))
}

func (h *Handler) updateRole(c *gin.Context) {
	paramID := c.Param("id")
	targetID, err := uuid.Parse(paramID)
	if err != nil {
		common.RespondWithError(c, common.ErrBadRequest.WithDetails("Invalid user ID format."))
		return
	}

	var req UpdateRoleRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		var ve validator.ValidationErrors
		if errors.As(err, &ve) {
			common.RespondWithError(c, common.NewValidationAPIError(common.FormatValidationErrors(ve)))
			return
		}
		common.RespondWithError(c, common.ErrBadRequest.WithDetails(err.Error()))
		return
	}

	usr, err := h.service.UpdateRole(c.Request.Context(), targetID, req.Role)
	if err != nil {
		common.RespondWithError(c, err)
		return
	}
	common.RespondOK(c, "User role updated successfully.", shared.ToUserResponse(usr))
}
