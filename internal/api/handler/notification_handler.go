package handler

import (
	"github.com/gin-gonic/gin"

	"github.com/otidevv/backend-seguimiento-tesis/internal/dto"
	"github.com/otidevv/backend-seguimiento-tesis/internal/service"
	"github.com/otidevv/backend-seguimiento-tesis/pkg/response"
)

// NotificationHandler 站内通知 HTTP 处理器
type NotificationHandler struct {
	notificationSvc service.NotificationService
}

// NewNotificationHandler 创建 NotificationHandler
func NewNotificationHandler(notificationSvc service.NotificationService) *NotificationHandler {
	return &NotificationHandler{notificationSvc: notificationSvc}
}

// List 我的通知
// GET /api/v1/notifications
func (h *NotificationHandler) List(c *gin.Context) {
	var req dto.NotificationListRequest
	if err := c.ShouldBindQuery(&req); err != nil {
		bindError(c, err)
		return
	}

	actor, ok := MustGetActor(c)
	if !ok {
		return
	}

	list, total, err := h.notificationSvc.ListMine(c.Request.Context(), actor.ID, &req)
	if err != nil {
		handleDomainError(c, err)
		return
	}

	response.OKPage(c, list, total, req.GetPage(), req.GetPageSize())
}

// UnreadCount 未读数量
// GET /api/v1/notifications/unread-count
func (h *NotificationHandler) UnreadCount(c *gin.Context) {
	actor, ok := MustGetActor(c)
	if !ok {
		return
	}

	n, err := h.notificationSvc.CountUnread(c.Request.Context(), actor.ID)
	if err != nil {
		handleDomainError(c, err)
		return
	}

	response.OK(c, gin.H{"unread": n})
}

// MarkRead 标记单条已读
// PUT /api/v1/notifications/:id/read
func (h *NotificationHandler) MarkRead(c *gin.Context) {
	actor, ok := MustGetActor(c)
	if !ok {
		return
	}

	if err := h.notificationSvc.MarkAsRead(c.Request.Context(), c.Param("id"), actor.ID); err != nil {
		handleDomainError(c, err)
		return
	}

	response.OK(c, nil)
}

// MarkAllRead 全部标记已读
// PUT /api/v1/notifications/read-all
func (h *NotificationHandler) MarkAllRead(c *gin.Context) {
	actor, ok := MustGetActor(c)
	if !ok {
		return
	}

	n, err := h.notificationSvc.MarkAllAsRead(c.Request.Context(), actor.ID)
	if err != nil {
		handleDomainError(c, err)
		return
	}

	response.OK(c, dto.MarkReadResponse{Updated: n})
}
