package handler

import (
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/otidevv/backend-seguimiento-tesis/internal/dto"
	"github.com/otidevv/backend-seguimiento-tesis/internal/service"
	"github.com/otidevv/backend-seguimiento-tesis/pkg/response"
)

// DeadlineHandler 期限模块 HTTP 处理器
type DeadlineHandler struct {
	deadlineSvc    service.DeadlineService
	alertThreshold int
}

// NewDeadlineHandler 创建 DeadlineHandler
func NewDeadlineHandler(deadlineSvc service.DeadlineService, alertThreshold int) *DeadlineHandler {
	return &DeadlineHandler{deadlineSvc: deadlineSvc, alertThreshold: alertThreshold}
}

// Create 手动创建期限
// POST /api/v1/deadlines
func (h *DeadlineHandler) Create(c *gin.Context) {
	var req dto.CreateDeadlineRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		bindError(c, err)
		return
	}

	actor, ok := MustGetActor(c)
	if !ok {
		return
	}

	deadline, err := h.deadlineSvc.Create(c.Request.Context(), &req, actor)
	if err != nil {
		handleDomainError(c, err)
		return
	}

	response.Created(c, deadline)
}

// Get 期限详情
// GET /api/v1/deadlines/:id
func (h *DeadlineHandler) Get(c *gin.Context) {
	deadline, err := h.deadlineSvc.GetByID(c.Request.Context(), c.Param("id"))
	if err != nil {
		handleDomainError(c, err)
		return
	}

	response.OK(c, deadline)
}

// Remaining 剩余自然日 / 工作日
// GET /api/v1/deadlines/:id/remaining
func (h *DeadlineHandler) Remaining(c *gin.Context) {
	remaining, err := h.deadlineSvc.GetRemainingDays(c.Request.Context(), c.Param("id"))
	if err != nil {
		handleDomainError(c, err)
		return
	}

	response.OK(c, remaining)
}

// Extend 延长意见整改期限
// POST /api/v1/deadlines/:id/extend
func (h *DeadlineHandler) Extend(c *gin.Context) {
	var req dto.ExtendDeadlineRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		bindError(c, err)
		return
	}

	actor, ok := MustGetActor(c)
	if !ok {
		return
	}

	extension, err := h.deadlineSvc.Extend(c.Request.Context(), c.Param("id"), &req, actor)
	if err != nil {
		handleDomainError(c, err)
		return
	}

	response.Created(c, extension)
}

// Complete 标记期限已完成
// POST /api/v1/deadlines/:id/complete
func (h *DeadlineHandler) Complete(c *gin.Context) {
	actor, ok := MustGetActor(c)
	if !ok {
		return
	}

	deadline, err := h.deadlineSvc.MarkAsCompleted(c.Request.Context(), c.Param("id"), actor)
	if err != nil {
		handleDomainError(c, err)
		return
	}

	response.OK(c, deadline)
}

// Upcoming 未来 N 天内到期的进行中期限
// GET /api/v1/deadlines/upcoming?days=7
func (h *DeadlineHandler) Upcoming(c *gin.Context) {
	var q dto.UpcomingQuery
	if err := c.ShouldBindQuery(&q); err != nil {
		bindError(c, err)
		return
	}

	list, err := h.deadlineSvc.ListUpcoming(c.Request.Context(), q.Days)
	if err != nil {
		handleDomainError(c, err)
		return
	}

	response.OK(c, gin.H{"list": list})
}

// Expired 已过期未处理的期限
// GET /api/v1/deadlines/expired
func (h *DeadlineHandler) Expired(c *gin.Context) {
	list, err := h.deadlineSvc.ListExpired(c.Request.Context())
	if err != nil {
		handleDomainError(c, err)
		return
	}

	response.OK(c, gin.H{"list": list})
}

// ProcessExpired 手动触发过期扫描
// POST /api/v1/deadlines/process-expired
func (h *DeadlineHandler) ProcessExpired(c *gin.Context) {
	result, err := h.deadlineSvc.ProcessExpiredDeadlines(c.Request.Context())
	if err != nil {
		handleDomainError(c, err)
		return
	}

	response.OK(c, result)
}

// SendAlerts 手动触发临期提醒
// POST /api/v1/deadlines/send-alerts?threshold=3
func (h *DeadlineHandler) SendAlerts(c *gin.Context) {
	threshold := h.alertThreshold
	if raw := c.Query("threshold"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n <= 0 || n > 30 {
			response.BadRequest(c, codeBadRequest, "threshold 必须为 1-30 的整数")
			return
		}
		threshold = n
	}

	result, err := h.deadlineSvc.SendUpcomingDeadlineAlerts(c.Request.Context(), threshold)
	if err != nil {
		handleDomainError(c, err)
		return
	}

	response.OK(c, result)
}

// ListByThesis 论文的全部期限
// GET /api/v1/theses/:id/deadlines
func (h *DeadlineHandler) ListByThesis(c *gin.Context) {
	list, err := h.deadlineSvc.ListByThesis(c.Request.Context(), c.Param("id"))
	if err != nil {
		handleDomainError(c, err)
		return
	}

	response.OK(c, gin.H{"list": list})
}

// ListActiveByThesis 论文的进行中期限
// GET /api/v1/theses/:id/deadlines/active
func (h *DeadlineHandler) ListActiveByThesis(c *gin.Context) {
	list, err := h.deadlineSvc.ListActiveByThesis(c.Request.Context(), c.Param("id"))
	if err != nil {
		handleDomainError(c, err)
		return
	}

	response.OK(c, gin.H{"list": list})
}

// Status 论文当前期限状态（含剩余天数）
// GET /api/v1/theses/:id/deadlines/status
func (h *DeadlineHandler) Status(c *gin.Context) {
	status, err := h.deadlineSvc.GetActiveDeadlineStatus(c.Request.Context(), c.Param("id"))
	if err != nil {
		handleDomainError(c, err)
		return
	}

	response.OK(c, status)
}
