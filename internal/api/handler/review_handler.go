package handler

import (
	"github.com/gin-gonic/gin"

	"github.com/otidevv/backend-seguimiento-tesis/internal/dto"
	"github.com/otidevv/backend-seguimiento-tesis/internal/service"
	"github.com/otidevv/backend-seguimiento-tesis/pkg/response"
)

// ReviewHandler 评审模块 HTTP 处理器
type ReviewHandler struct {
	reviewSvc service.ReviewService
}

// NewReviewHandler 创建 ReviewHandler
func NewReviewHandler(reviewSvc service.ReviewService) *ReviewHandler {
	return &ReviewHandler{reviewSvc: reviewSvc}
}

// Submit 评审委员提交评审意见
// POST /api/v1/theses/:id/reviews
func (h *ReviewHandler) Submit(c *gin.Context) {
	var req dto.SubmitReviewRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		bindError(c, err)
		return
	}

	actor, ok := MustGetActor(c)
	if !ok {
		return
	}

	review, err := h.reviewSvc.Submit(c.Request.Context(), c.Param("id"), &req, actor)
	if err != nil {
		handleDomainError(c, err)
		return
	}

	response.Created(c, review)
}

// ListByThesis 论文的全部评审记录
// GET /api/v1/theses/:id/reviews
func (h *ReviewHandler) ListByThesis(c *gin.Context) {
	list, err := h.reviewSvc.ListByThesis(c.Request.Context(), c.Param("id"))
	if err != nil {
		handleDomainError(c, err)
		return
	}

	response.OK(c, gin.H{"list": list})
}

// Summary 评审共识汇总
// GET /api/v1/theses/:id/reviews/summary
func (h *ReviewHandler) Summary(c *gin.Context) {
	summary, err := h.reviewSvc.GetSummary(c.Request.Context(), c.Param("id"))
	if err != nil {
		handleDomainError(c, err)
		return
	}

	response.OK(c, summary)
}

// PresidentDecision 主席作出最终决定
// POST /api/v1/theses/:id/president-decision
func (h *ReviewHandler) PresidentDecision(c *gin.Context) {
	var req dto.PresidentDecisionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		bindError(c, err)
		return
	}

	actor, ok := MustGetActor(c)
	if !ok {
		return
	}

	result, err := h.reviewSvc.PresidentDecision(c.Request.Context(), c.Param("id"), &req, actor)
	if err != nil {
		handleDomainError(c, err)
		return
	}

	response.OK(c, result)
}

// ListMine 当前用户提交过的评审
// GET /api/v1/reviews/me
func (h *ReviewHandler) ListMine(c *gin.Context) {
	actor, ok := MustGetActor(c)
	if !ok {
		return
	}

	list, err := h.reviewSvc.ListMine(c.Request.Context(), actor)
	if err != nil {
		handleDomainError(c, err)
		return
	}

	response.OK(c, gin.H{"list": list})
}

// Get 评审详情
// GET /api/v1/reviews/:id
func (h *ReviewHandler) Get(c *gin.Context) {
	review, err := h.reviewSvc.GetByID(c.Request.Context(), c.Param("id"))
	if err != nil {
		handleDomainError(c, err)
		return
	}

	response.OK(c, review)
}
