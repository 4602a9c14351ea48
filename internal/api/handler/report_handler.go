package handler

import (
	"net/http"
	"net/url"

	"github.com/gin-gonic/gin"

	"github.com/otidevv/backend-seguimiento-tesis/internal/dto"
	"github.com/otidevv/backend-seguimiento-tesis/internal/service"
)

const (
	xlsxContentType = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"
	icsContentType  = "text/calendar; charset=utf-8"
)

// ReportHandler 文件导出 HTTP 处理器（论文进度表、期限日历）
type ReportHandler struct {
	exportSvc   service.ExportService
	calendarSvc service.CalendarService
}

// NewReportHandler 创建 ReportHandler
func NewReportHandler(exportSvc service.ExportService, calendarSvc service.CalendarService) *ReportHandler {
	return &ReportHandler{exportSvc: exportSvc, calendarSvc: calendarSvc}
}

// ThesesXLSX 导出论文进度表，筛选参数与论文列表一致
// GET /api/v1/reports/theses.xlsx
func (h *ReportHandler) ThesesXLSX(c *gin.Context) {
	var req dto.ThesisListRequest
	if err := c.ShouldBindQuery(&req); err != nil {
		bindError(c, err)
		return
	}

	actor, ok := MustGetActor(c)
	if !ok {
		return
	}

	buf, filename, err := h.exportSvc.ExportTheses(c.Request.Context(), &req, actor)
	if err != nil {
		handleDomainError(c, err)
		return
	}

	setAttachment(c, filename)
	c.Data(http.StatusOK, xlsxContentType, buf.Bytes())
}

// DeadlinesICS 论文进行中期限的 iCalendar 订阅文件
// GET /api/v1/theses/:id/deadlines.ics
func (h *ReportHandler) DeadlinesICS(c *gin.Context) {
	content, filename, err := h.calendarSvc.ExportThesisDeadlines(c.Request.Context(), c.Param("id"))
	if err != nil {
		handleDomainError(c, err)
		return
	}

	setAttachment(c, filename)
	c.Data(http.StatusOK, icsContentType, []byte(content))
}

func setAttachment(c *gin.Context, filename string) {
	c.Header("Content-Description", "File Transfer")
	c.Header("Content-Disposition", "attachment; filename*=UTF-8''"+url.PathEscape(filename))
}
