// File: internal/application/handler.go
package application

import (
	"errors"
	"strconv"

	"magic_broom_backend/internal/common"
	"magic_broom_backend/internal/middleware"

	"github.com/gin-gonic/gin"
	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

// Handler struct holds dependencies for cleaner application handlers.
type Handler struct {
	service Service
	logger  *zap.Logger
}

// NewHandler creates a new cleaner application handler.
func NewHandler(service Service, logger *zap.Logger) *Handler {
	return &Handler{service: service, logger: logger}
}

// RegisterRoutes sets up the routes for cleaner application operations.
// Applying requires a verified email; review endpoints require the Firebase
// admin claim.
func (h *Handler) RegisterRoutes(router *gin.RouterGroup, authMW, verifiedMW, adminClaimMW gin.HandlerFunc) {
	applications := router.Group("/applications")
	applications.Use(authMW)
	{
		applications.POST("", verifiedMW, h.apply)

		adminRoutes := applications.Group("")
		adminRoutes.Use(adminClaimMW)
		{
			adminRoutes.GET("", h.list)
			adminRoutes.POST("/:id/approve", h.approve)
			adminRoutes.POST("/:id/reject", h.reject)
		}
	}
}

func (h *Handler) apply(c *gin.Context) {
	userID := middleware.GetUserIDFromContext(c)

	var req ApplyRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		var ve validator.ValidationErrors
		if errors.As(err, &ve) {
			common.RespondWithError(c, common.NewValidationAPIError(common.FormatValidationErrors(ve)))
			return
		}
		common.RespondWithError(c, common.ErrBadRequest.WithDetails(err.Error()))
		return
	}

	app, err := h.service.Apply(c.Request.Context(), userID, req)
	if err != nil {
		common.RespondWithError(c, err)
		return
	}
	common.RespondCreated(c, "Cleaner application submitted successfully.", ToResponse(app))
}

func (h *Handler) list(c *gin.Context) {
	page, _ := strconv.Atoi(c.DefaultQuery("page", "1"))
	pageSize, _ := strconv.Atoi(c.DefaultQuery("pageSize", "20"))

	apps, pagination, err := h.service.List(c.Request.Context(), page, pageSize)
	if err != nil {
		common.RespondWithError(c, err)
		return
	}
	common.RespondPaginated(c, "Cleaner applications retrieved successfully.", ToResponseList(apps), pagination)
}

func (h *Handler) approve(c *gin.Context) {
	id, ok := h.applicationIDParam(c)
	if !ok {
		return
	}

	app, err := h.service.Approve(c.Request.Context(), id)
	if err != nil {
		common.RespondWithError(c, err)
		return
	}
	common.RespondOK(c, "Cleaner application approved.", ToResponse(app))
}

func (h *Handler) reject(c *gin.Context) {
	id, ok := h.applicationIDParam(c)
	if !ok {
		return
	}

	app, err := h.service.Reject(c.Request.Context(), id)
	if err != nil {
		common.RespondWithError(c, err)
		return
	}
	common.RespondOK(c, "Cleaner application rejected.", ToResponse(app))
}

func (h *Handler) applicationIDParam(c *gin.Context) (uuid.UUID, bool) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		common.RespondWithError(c, common.ErrBadRequest.WithDetails("Invalid application ID format."))
		return uuid.Nil, false
	}
	return id, true
}
