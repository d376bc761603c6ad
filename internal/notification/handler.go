// File: internal/notification/handler.go
package notification

import (
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/tm-webstudio/service4me-sub000/internal/common"
)

// Handler exposes the signed-in user's notification feed.
type Handler struct {
	service *Service
	logger  *zap.Logger
}

func NewHandler(service *Service, logger *zap.Logger) *Handler {
	return &Handler{service: service, logger: logger}
}

func (h *Handler) RegisterRoutes(rg *gin.RouterGroup, authMW gin.HandlerFunc) {
	notifications := rg.Group("/notifications", authMW)
	{
		notifications.GET("", h.listNotifications)
		notifications.POST("/:id/read", h.markAsRead)
		notifications.POST("/read-all", h.markAllAsRead)
	}
}

func (h *Handler) listNotifications(c *gin.Context) {
	userID := common.GetUserIDFromContext(c)
	page, pageSize := common.GetPaginationParams(c)

	notifications, pagination, unread, err := h.service.ListForUser(c.Request.Context(), userID, page, pageSize)
	if err != nil {
		common.RespondWithError(c, err)
		return
	}
	common.RespondPaginated(c, "", gin.H{
		"notifications": notifications,
		"unread_count":  unread,
	}, pagination)
}

func (h *Handler) markAsRead(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		common.RespondWithError(c, common.ErrBadRequest.WithDetails("Invalid notification ID."))
		return
	}
	userID := common.GetUserIDFromContext(c)
	if err := h.service.MarkAsRead(c.Request.Context(), id, userID); err != nil {
		common.RespondWithError(c, err)
		return
	}
	common.RespondOK(c, "Notification marked as read.", nil)
}

func (h *Handler) markAllAsRead(c *gin.Context) {
	userID := common.GetUserIDFromContext(c)
	count, err := h.service.MarkAllAsRead(c.Request.Context(), userID)
	if err != nil {
		common.RespondWithError(c, err)
		return
	}
	common.RespondOK(c, "All notifications marked as read.", gin.H{"marked": count})
}
