package handler

import (
	"github.com/gin-gonic/gin"

	"github.com/otidevv/backend-seguimiento-tesis/internal/dto"
	"github.com/otidevv/backend-seguimiento-tesis/internal/service"
	"github.com/otidevv/backend-seguimiento-tesis/pkg/response"
)

// MilestoneHandler 里程碑模块 HTTP 处理器
type MilestoneHandler struct {
	milestoneSvc service.MilestoneService
}

// NewMilestoneHandler 创建 MilestoneHandler
func NewMilestoneHandler(milestoneSvc service.MilestoneService) *MilestoneHandler {
	return &MilestoneHandler{milestoneSvc: milestoneSvc}
}

// Create 为论文添加里程碑
// POST /api/v1/theses/:id/milestones
func (h *MilestoneHandler) Create(c *gin.Context) {
	var req dto.CreateMilestoneRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		bindError(c, err)
		return
	}

	actor, ok := MustGetActor(c)
	if !ok {
		return
	}

	milestone, err := h.milestoneSvc.Create(c.Request.Context(), c.Param("id"), &req, actor)
	if err != nil {
		handleDomainError(c, err)
		return
	}

	response.Created(c, milestone)
}

// ListByThesis 论文的里程碑（按顺序）
// GET /api/v1/theses/:id/milestones
func (h *MilestoneHandler) ListByThesis(c *gin.Context) {
	actor, ok := MustGetActor(c)
	if !ok {
		return
	}

	list, err := h.milestoneSvc.ListByThesis(c.Request.Context(), c.Param("id"), actor)
	if err != nil {
		handleDomainError(c, err)
		return
	}

	response.OK(c, gin.H{"list": list})
}

// Reorder 重排论文的里程碑
// PUT /api/v1/theses/:id/milestones/reorder
func (h *MilestoneHandler) Reorder(c *gin.Context) {
	var req dto.ReorderMilestonesRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		bindError(c, err)
		return
	}

	actor, ok := MustGetActor(c)
	if !ok {
		return
	}

	list, err := h.milestoneSvc.Reorder(c.Request.Context(), c.Param("id"), &req, actor)
	if err != nil {
		handleDomainError(c, err)
		return
	}

	response.OK(c, gin.H{"list": list})
}

// Get 里程碑详情
// GET /api/v1/milestones/:id
func (h *MilestoneHandler) Get(c *gin.Context) {
	actor, ok := MustGetActor(c)
	if !ok {
		return
	}

	milestone, err := h.milestoneSvc.GetByID(c.Request.Context(), c.Param("id"), actor)
	if err != nil {
		handleDomainError(c, err)
		return
	}

	response.OK(c, milestone)
}

// Update 更新里程碑
// PUT /api/v1/milestones/:id
func (h *MilestoneHandler) Update(c *gin.Context) {
	var req dto.UpdateMilestoneRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		bindError(c, err)
		return
	}

	actor, ok := MustGetActor(c)
	if !ok {
		return
	}

	milestone, err := h.milestoneSvc.Update(c.Request.Context(), c.Param("id"), &req, actor)
	if err != nil {
		handleDomainError(c, err)
		return
	}

	response.OK(c, milestone)
}

// Complete 标记里程碑完成
// POST /api/v1/milestones/:id/complete
func (h *MilestoneHandler) Complete(c *gin.Context) {
	actor, ok := MustGetActor(c)
	if !ok {
		return
	}

	milestone, err := h.milestoneSvc.Complete(c.Request.Context(), c.Param("id"), actor)
	if err != nil {
		handleDomainError(c, err)
		return
	}

	response.OK(c, milestone)
}

// Uncomplete 撤销完成
// POST /api/v1/milestones/:id/uncomplete
func (h *MilestoneHandler) Uncomplete(c *gin.Context) {
	actor, ok := MustGetActor(c)
	if !ok {
		return
	}

	milestone, err := h.milestoneSvc.Uncomplete(c.Request.Context(), c.Param("id"), actor)
	if err != nil {
		handleDomainError(c, err)
		return
	}

	response.OK(c, milestone)
}

// Remove 删除里程碑
// DELETE /api/v1/milestones/:id
func (h *MilestoneHandler) Remove(c *gin.Context) {
	actor, ok := MustGetActor(c)
	if !ok {
		return
	}

	if err := h.milestoneSvc.Remove(c.Request.Context(), c.Param("id"), actor); err != nil {
		handleDomainError(c, err)
		return
	}

	response.OK(c, nil)
}
