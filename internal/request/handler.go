// File: internal/request/handler.go
package request

import (
	"errors"
	"strings"

	"magic_broom_backend/internal/common"
	"magic_broom_backend/internal/middleware"

	"github.com/gin-gonic/gin"
	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

// Handler struct holds dependencies for cleaning request handlers.
type Handler struct {
	service Service
	logger  *zap.Logger
}

// NewHandler creates a new cleaning request handler.
func NewHandler(service Service, logger *zap.Logger) *Handler {
	return &Handler{service: service, logger: logger}
}

// RegisterRoutes sets up the routes for cleaning request operations.
// authMW resolves the session, verifiedMW gates writes on a verified email,
// cleanerMW restricts the feed endpoints to cleaners.
func (h *Handler) RegisterRoutes(router *gin.RouterGroup, authMW, verifiedMW, cleanerMW gin.HandlerFunc) {
	requests := router.Group("/requests")
	requests.Use(authMW)
	{
		requests.POST("", verifiedMW, h.create)
		requests.GET("/mine", h.listMine)
		requests.GET("/:id", h.getByID)
		requests.PATCH("/:id", verifiedMW, h.update)
		requests.DELETE("/:id", h.delete)
		requests.POST("/:id/cancel", h.cancel)
		requests.POST("/:id/rating", verifiedMW, h.rate)

		cleanerRoutes := requests.Group("")
		cleanerRoutes.Use(cleanerMW)
		{
			cleanerRoutes.GET("/pending", h.listPending)
			cleanerRoutes.GET("/search", h.searchPending)
			cleanerRoutes.GET("/assigned", h.listAssigned)
			cleanerRoutes.POST("/:id/accept", h.accept)
			cleanerRoutes.POST("/:id/confirm", h.confirm)
			cleanerRoutes.POST("/:id/complete", h.complete)
		}
	}
}

func (h *Handler) bindJSON(c *gin.Context, target interface{}) bool {
	if err := c.ShouldBindJSON(target); err != nil {
		var ve validator.ValidationErrors
		if errors.As(err, &ve) {
			common.RespondWithError(c, common.NewValidationAPIError(common.FormatValidationErrors(ve)))
			return false
		}
		common.RespondWithError(c, common.ErrBadRequest.WithDetails(err.Error()))
		return false
	}
	return true
}

func (h *Handler) requestIDParam(c *gin.Context) (uuid.UUID, bool) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		common.RespondWithError(c, common.ErrBadRequest.WithDetails("Invalid request ID format."))
		return uuid.Nil, false
	}
	return id, true
}

func (h *Handler) create(c *gin.Context) {
	userID := middleware.GetUserIDFromContext(c)
	userEmail := middleware.GetUserEmailFromContext(c)

	var req CreateRequest
	if !h.bindJSON(c, &req) {
		return
	}

	created, err := h.service.Create(c.Request.Context(), userID, userEmail, req)
	if err != nil {
		common.RespondWithError(c, err)
		return
	}
	common.RespondCreated(c, "Cleaning request submitted successfully.", ToResponse(created))
}

func (h *Handler) listMine(c *gin.Context) {
	userID := middleware.GetUserIDFromContext(c)
	requests, err := h.service.ListMine(c.Request.Context(), userID)
	if err != nil {
		common.RespondWithError(c, err)
		return
	}
	common.RespondOK(c, "Cleaning requests retrieved successfully.", ToResponseList(requests))
}

func (h *Handler) listPending(c *gin.Context) {
	requests, err := h.service.ListPending(c.Request.Context())
	if err != nil {
		common.RespondWithError(c, err)
		return
	}
	common.RespondOK(c, "Pending cleaning requests retrieved successfully.", ToResponseList(requests))
}

func (h *Handler) listAssigned(c *gin.Context) {
	cleanerID := middleware.GetUserIDFromContext(c)
	requests, err := h.service.ListAssigned(c.Request.Context(), cleanerID)
	if err != nil {
		common.RespondWithError(c, err)
		return
	}
	common.RespondOK(c, "Assigned cleaning requests retrieved successfully.", ToResponseList(requests))
}

func (h *Handler) searchPending(c *gin.Context) {
	query := strings.TrimSpace(c.Query("q"))
	if query == "" {
		common.RespondWithError(c, common.ErrBadRequest.WithDetails("Query parameter 'q' is required."))
		return
	}

	requests, err := h.service.SearchPending(c.Request.Context(), query)
	if err != nil {
		common.RespondWithError(c, err)
		return
	}
	common.RespondOK(c, "Search results retrieved successfully.", ToResponseList(requests))
}

func (h *Handler) getByID(c *gin.Context) {
	id, ok := h.requestIDParam(c)
	if !ok {
		return
	}
	callerID := middleware.GetUserIDFromContext(c)
	callerRole := middleware.GetUserRoleFromContext(c)

	req, err := h.service.GetByID(c.Request.Context(), id, callerID, callerRole)
	if err != nil {
		common.RespondWithError(c, err)
		return
	}
	common.RespondOK(c, "Cleaning request retrieved successfully.", ToResponse(req))
}

func (h *Handler) update(c *gin.Context) {
	id, ok := h.requestIDParam(c)
	if !ok {
		return
	}
	userID := middleware.GetUserIDFromContext(c)

	var req UpdateRequest
	if !h.bindJSON(c, &req) {
		return
	}

	updated, err := h.service.Update(c.Request.Context(), id, userID, req)
	if err != nil {
		common.RespondWithError(c, err)
		return
	}
	common.RespondOK(c, "Cleaning request updated successfully.", ToResponse(updated))
}

func (h *Handler) delete(c *gin.Context) {
	id, ok := h.requestIDParam(c)
	if !ok {
		return
	}
	userID := middleware.GetUserIDFromContext(c)

	if err := h.service.Delete(c.Request.Context(), id, userID); err != nil {
		common.RespondWithError(c, err)
		return
	}
	common.RespondNoContent(c)
}

func (h *Handler) accept(c *gin.Context) {
	id, ok := h.requestIDParam(c)
	if !ok {
		return
	}
	cleanerID := middleware.GetUserIDFromContext(c)
	cleanerEmail := middleware.GetUserEmailFromContext(c)

	accepted, err := h.service.Accept(c.Request.Context(), id, cleanerID, cleanerEmail)
	if err != nil {
		common.RespondWithError(c, err)
		return
	}
	common.RespondOK(c, "Cleaning request accepted successfully.", ToResponse(accepted))
}

func (h *Handler) cancel(c *gin.Context) {
	id, ok := h.requestIDParam(c)
	if !ok {
		return
	}
	userID := middleware.GetUserIDFromContext(c)

	cancelled, err := h.service.Cancel(c.Request.Context(), id, userID)
	if err != nil {
		common.RespondWithError(c, err)
		return
	}
	common.RespondOK(c, "Cleaning request cancelled successfully.", ToResponse(cancelled))
}

func (h *Handler) confirm(c *gin.Context) {
	id, ok := h.requestIDParam(c)
	if !ok {
		return
	}
	cleanerID := middleware.GetUserIDFromContext(c)

	confirmed, err := h.service.Confirm(c.Request.Context(), id, cleanerID)
	if err != nil {
		common.RespondWithError(c, err)
		return
	}
	common.RespondOK(c, "Cleaning request confirmed successfully.", ToResponse(confirmed))
}

func (h *Handler) complete(c *gin.Context) {
	id, ok := h.requestIDParam(c)
	if !ok {
		return
	}
	cleanerID := middleware.GetUserIDFromContext(c)

	completed, err := h.service.Complete(c.Request.Context(), id, cleanerID)
	if err != nil {
		common.RespondWithError(c, err)
		return
	}
	common.RespondOK(c, "Cleaning request completed successfully.", ToResponse(completed))
}

func (h *Handler) rate(c *gin.Context) {
	id, ok := h.requestIDParam(c)
	if !ok {
		return
	}
	userID := middleware.GetUserIDFromContext(c)

	var req RateRequest
	if !h.bindJSON(c, &req) {
		return
	}

	rated, err := h.service.Rate(c.Request.Context(), id, userID, req.Rating)
	if err != nil {
		common.RespondWithError(c, err)
		return
	}
	common.RespondOK(c, "Rating submitted successfully.", ToResponse(rated))
}
