package handler

import (
	"github.com/otidevv/backend-seguimiento-tesis/internal/service"
)

// Handler 所有 Handler 的聚合入口
type Handler struct {
	Thesis       *ThesisHandler
	Review       *ReviewHandler
	Deadline     *DeadlineHandler
	Notification *NotificationHandler
	Report       *ReportHandler
	Milestone    *MilestoneHandler
	Resolution   *ResolutionHandler
	Statistics   *StatisticsHandler
}

// NewHandler 创建 Handler 聚合
// alertThreshold 为手动触发临期提醒时的默认阈值（工作日）
func NewHandler(svc *service.Service, alertThreshold int) *Handler {
	return &Handler{
		Thesis:       NewThesisHandler(svc.Thesis),
		Review:       NewReviewHandler(svc.Review),
		Deadline:     NewDeadlineHandler(svc.Deadline, alertThreshold),
		Notification: NewNotificationHandler(svc.Notification),
		Report:       NewReportHandler(svc.Export, svc.Calendar),
		Milestone:    NewMilestoneHandler(svc.Milestone),
		Resolution:   NewResolutionHandler(svc.Resolution),
		Statistics:   NewStatisticsHandler(svc.Statistics),
	}
}
