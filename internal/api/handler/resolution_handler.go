package handler

import (
	"github.com/gin-gonic/gin"

	"github.com/otidevv/backend-seguimiento-tesis/internal/dto"
	"github.com/otidevv/backend-seguimiento-tesis/internal/service"
	"github.com/otidevv/backend-seguimiento-tesis/pkg/response"
)

// ResolutionHandler 决议模块 HTTP 处理器
type ResolutionHandler struct {
	resolutionSvc service.ResolutionService
}

// NewResolutionHandler 创建 ResolutionHandler
func NewResolutionHandler(resolutionSvc service.ResolutionService) *ResolutionHandler {
	return &ResolutionHandler{resolutionSvc: resolutionSvc}
}

// Create 发布决议
// POST /api/v1/resolutions
func (h *ResolutionHandler) Create(c *gin.Context) {
	var req dto.CreateResolutionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		bindError(c, err)
		return
	}

	actor, ok := MustGetActor(c)
	if !ok {
		return
	}

	resolution, err := h.resolutionSvc.Create(c.Request.Context(), &req, actor)
	if err != nil {
		handleDomainError(c, err)
		return
	}

	response.Created(c, resolution)
}

// List 决议列表
// GET /api/v1/resolutions?thesis_id=&type=&page=&page_size=
func (h *ResolutionHandler) List(c *gin.Context) {
	var req dto.ResolutionListRequest
	if err := c.ShouldBindQuery(&req); err != nil {
		bindError(c, err)
		return
	}

	list, total, err := h.resolutionSvc.List(c.Request.Context(), &req)
	if err != nil {
		handleDomainError(c, err)
		return
	}

	response.OKPage(c, list, total, req.GetPage(), req.GetPageSize())
}

// Types 决议类型
// GET /api/v1/resolutions/types
func (h *ResolutionHandler) Types(c *gin.Context) {
	response.OK(c, gin.H{"list": h.resolutionSvc.Types()})
}

// GetByNumber 按编号查询
// GET /api/v1/resolutions/number/:number
func (h *ResolutionHandler) GetByNumber(c *gin.Context) {
	actor, ok := MustGetActor(c)
	if !ok {
		return
	}

	resolution, err := h.resolutionSvc.GetByNumber(c.Request.Context(), c.Param("number"), actor)
	if err != nil {
		handleDomainError(c, err)
		return
	}

	response.OK(c, resolution)
}

// Get 决议详情
// GET /api/v1/resolutions/:id
func (h *ResolutionHandler) Get(c *gin.Context) {
	actor, ok := MustGetActor(c)
	if !ok {
		return
	}

	resolution, err := h.resolutionSvc.GetByID(c.Request.Context(), c.Param("id"), actor)
	if err != nil {
		handleDomainError(c, err)
		return
	}

	response.OK(c, resolution)
}

// Update 修改决议说明或文档链接
// PUT /api/v1/resolutions/:id
func (h *ResolutionHandler) Update(c *gin.Context) {
	var req dto.UpdateResolutionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		bindError(c, err)
		return
	}

	actor, ok := MustGetActor(c)
	if !ok {
		return
	}

	resolution, err := h.resolutionSvc.Update(c.Request.Context(), c.Param("id"), &req, actor)
	if err != nil {
		handleDomainError(c, err)
		return
	}

	response.OK(c, resolution)
}

// Remove 删除决议
// DELETE /api/v1/resolutions/:id
func (h *ResolutionHandler) Remove(c *gin.Context) {
	actor, ok := MustGetActor(c)
	if !ok {
		return
	}

	if err := h.resolutionSvc.Remove(c.Request.Context(), c.Param("id"), actor); err != nil {
		handleDomainError(c, err)
		return
	}

	response.OK(c, nil)
}

// ListByThesis 论文的决议（按签发时间倒序）
// GET /api/v1/theses/:id/resolutions
func (h *ResolutionHandler) ListByThesis(c *gin.Context) {
	actor, ok := MustGetActor(c)
	if !ok {
		return
	}

	list, err := h.resolutionSvc.ListByThesis(c.Request.Context(), c.Param("id"), actor)
	if err != nil {
		handleDomainError(c, err)
		return
	}

	response.OK(c, gin.H{"list": list})
}
