package handler

import (
	"github.com/gin-gonic/gin"

	"github.com/otidevv/backend-seguimiento-tesis/internal/dto"
	"github.com/otidevv/backend-seguimiento-tesis/internal/service"
	"github.com/otidevv/backend-seguimiento-tesis/pkg/response"
)

// ThesisHandler 论文模块 HTTP 处理器
type ThesisHandler struct {
	thesisSvc service.ThesisService
}

// NewThesisHandler 创建 ThesisHandler
func NewThesisHandler(thesisSvc service.ThesisService) *ThesisHandler {
	return &ThesisHandler{thesisSvc: thesisSvc}
}

// Create 学生创建论文（DRAFT）
// POST /api/v1/theses
func (h *ThesisHandler) Create(c *gin.Context) {
	var req dto.CreateThesisRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		bindError(c, err)
		return
	}

	actor, ok := MustGetActor(c)
	if !ok {
		return
	}

	thesis, err := h.thesisSvc.Create(c.Request.Context(), &req, actor)
	if err != nil {
		handleDomainError(c, err)
		return
	}

	response.Created(c, thesis)
}

// List 分页查询论文，协调员只能看到本学院
// GET /api/v1/theses
func (h *ThesisHandler) List(c *gin.Context) {
	var req dto.ThesisListRequest
	if err := c.ShouldBindQuery(&req); err != nil {
		bindError(c, err)
		return
	}

	actor, ok := MustGetActor(c)
	if !ok {
		return
	}

	list, total, err := h.thesisSvc.List(c.Request.Context(), &req, actor)
	if err != nil {
		handleDomainError(c, err)
		return
	}

	response.OKPage(c, list, total, req.GetPage(), req.GetPageSize())
}

// ListMine 与当前用户相关的论文
// GET /api/v1/theses/me
func (h *ThesisHandler) ListMine(c *gin.Context) {
	actor, ok := MustGetActor(c)
	if !ok {
		return
	}

	list, err := h.thesisSvc.ListMine(c.Request.Context(), actor)
	if err != nil {
		handleDomainError(c, err)
		return
	}

	response.OK(c, gin.H{"list": list})
}

// ListActiveByUser 某用户作为作者的在办论文
// GET /api/v1/users/:id/active-theses
func (h *ThesisHandler) ListActiveByUser(c *gin.Context) {
	list, err := h.thesisSvc.ListActiveByUser(c.Request.Context(), c.Param("id"))
	if err != nil {
		handleDomainError(c, err)
		return
	}

	response.OK(c, gin.H{"list": list})
}

// Get 论文详情（含评审委员会）
// GET /api/v1/theses/:id
func (h *ThesisHandler) Get(c *gin.Context) {
	thesis, err := h.thesisSvc.GetByID(c.Request.Context(), c.Param("id"))
	if err != nil {
		handleDomainError(c, err)
		return
	}

	response.OK(c, thesis)
}

// Update 修改草稿
// PUT /api/v1/theses/:id
func (h *ThesisHandler) Update(c *gin.Context) {
	var req dto.UpdateThesisRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		bindError(c, err)
		return
	}

	actor, ok := MustGetActor(c)
	if !ok {
		return
	}

	thesis, err := h.thesisSvc.Update(c.Request.Context(), c.Param("id"), &req, actor)
	if err != nil {
		handleDomainError(c, err)
		return
	}

	response.OK(c, thesis)
}

// Remove 软删除草稿
// DELETE /api/v1/theses/:id
func (h *ThesisHandler) Remove(c *gin.Context) {
	actor, ok := MustGetActor(c)
	if !ok {
		return
	}

	if err := h.thesisSvc.Remove(c.Request.Context(), c.Param("id"), actor); err != nil {
		handleDomainError(c, err)
		return
	}

	response.OK(c, nil)
}

// Submit 提交草稿
// POST /api/v1/theses/:id/submit
func (h *ThesisHandler) Submit(c *gin.Context) {
	actor, ok := MustGetActor(c)
	if !ok {
		return
	}

	thesis, err := h.thesisSvc.Submit(c.Request.Context(), c.Param("id"), actor)
	if err != nil {
		handleDomainError(c, err)
		return
	}

	response.OK(c, thesis)
}

// ChangeStatus 流转论文状态
// POST /api/v1/theses/:id/status
func (h *ThesisHandler) ChangeStatus(c *gin.Context) {
	var req dto.ChangeStatusRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		bindError(c, err)
		return
	}

	actor, ok := MustGetActor(c)
	if !ok {
		return
	}

	thesis, err := h.thesisSvc.ChangeStatus(c.Request.Context(), c.Param("id"), &req, actor)
	if err != nil {
		handleDomainError(c, err)
		return
	}

	response.OK(c, thesis)
}

// AssignJury 指派（替换）评审委员会
// POST /api/v1/theses/:id/jury
func (h *ThesisHandler) AssignJury(c *gin.Context) {
	var req dto.AssignJuryRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		bindError(c, err)
		return
	}

	actor, ok := MustGetActor(c)
	if !ok {
		return
	}

	thesis, err := h.thesisSvc.AssignJury(c.Request.Context(), c.Param("id"), &req, actor)
	if err != nil {
		handleDomainError(c, err)
		return
	}

	response.OK(c, thesis)
}

// History 状态变更历史，新记录在前
// GET /api/v1/theses/:id/history
func (h *ThesisHandler) History(c *gin.Context) {
	actor, ok := MustGetActor(c)
	if !ok {
		return
	}

	list, err := h.thesisSvc.GetStatusHistory(c.Request.Context(), c.Param("id"), actor)
	if err != nil {
		handleDomainError(c, err)
		return
	}

	response.OK(c, gin.H{"list": list})
}
