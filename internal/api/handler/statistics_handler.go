package handler

import (
	"github.com/gin-gonic/gin"

	"github.com/otidevv/backend-seguimiento-tesis/internal/dto"
	"github.com/otidevv/backend-seguimiento-tesis/internal/service"
	"github.com/otidevv/backend-seguimiento-tesis/pkg/response"
)

// StatisticsHandler 统计模块 HTTP 处理器
type StatisticsHandler struct {
	statsSvc service.StatisticsService
}

// NewStatisticsHandler 创建 StatisticsHandler
func NewStatisticsHandler(statsSvc service.StatisticsService) *StatisticsHandler {
	return &StatisticsHandler{statsSvc: statsSvc}
}

// Dashboard 首页统计
// GET /api/v1/stats/dashboard
func (h *StatisticsHandler) Dashboard(c *gin.Context) {
	actor, ok := MustGetActor(c)
	if !ok {
		return
	}

	stats, err := h.statsSvc.Dashboard(c.Request.Context(), actor)
	if err != nil {
		handleDomainError(c, err)
		return
	}

	response.OK(c, stats)
}

// ByStatus 论文状态分布
// GET /api/v1/stats/charts/status
func (h *StatisticsHandler) ByStatus(c *gin.Context) {
	actor, ok := MustGetActor(c)
	if !ok {
		return
	}

	points, err := h.statsSvc.ThesesByStatus(c.Request.Context(), actor)
	if err != nil {
		handleDomainError(c, err)
		return
	}

	response.OK(c, gin.H{"list": points})
}

// ByMonth 每月新建论文数
// GET /api/v1/stats/charts/month?months=6
func (h *StatisticsHandler) ByMonth(c *gin.Context) {
	var q dto.MonthChartQuery
	if err := c.ShouldBindQuery(&q); err != nil {
		bindError(c, err)
		return
	}

	actor, ok := MustGetActor(c)
	if !ok {
		return
	}

	points, err := h.statsSvc.ThesesByMonth(c.Request.Context(), q.Months, actor)
	if err != nil {
		handleDomainError(c, err)
		return
	}

	response.OK(c, gin.H{"list": points})
}

// ByCareer 各专业论文数
// GET /api/v1/stats/charts/career
func (h *StatisticsHandler) ByCareer(c *gin.Context) {
	actor, ok := MustGetActor(c)
	if !ok {
		return
	}

	points, err := h.statsSvc.ThesesByCareer(c.Request.Context(), actor)
	if err != nil {
		handleDomainError(c, err)
		return
	}

	response.OK(c, gin.H{"list": points})
}
