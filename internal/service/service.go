package service

import (
	"time"

	"go.uber.org/zap"

	"github.com/otidevv/backend-seguimiento-tesis/config"
	"github.com/otidevv/backend-seguimiento-tesis/internal/repository"
	"github.com/otidevv/backend-seguimiento-tesis/pkg/clock"
)

// notifyQueueSize 异步通知队列容量
const notifyQueueSize = 512

// Service 所有 Service 的聚合入口
type Service struct {
	Thesis       ThesisService
	Review       ReviewService
	Deadline     DeadlineService
	Notification NotificationService
	Export       ExportService
	Calendar     CalendarService
	Milestone    MilestoneService
	Resolution   ResolutionService
	Statistics   StatisticsService

	notifier *AsyncNotifier
}

// NewService 创建 Service 聚合
// guard 为 nil 时临期提醒不去重；loc 为期限日期解析与提醒去重所用时区
func NewService(
	cfg *config.Config,
	repo *repository.Repository,
	guard AlertGuard,
	clk clock.Clock,
	loc *time.Location,
	logger *zap.Logger,
) *Service {
	notifications := NewNotificationService(repo, logger)
	notifier := NewAsyncNotifier(notifications, notifyQueueSize, logger)

	deadlines := NewDeadlineService(cfg.Deadline, repo, notifier, guard, clk, loc, logger)
	return &Service{
		Thesis:       NewThesisService(cfg.Deadline, repo, deadlines, notifier, clk, logger),
		Review:       NewReviewService(cfg.Review, repo, deadlines, notifier, clk, logger),
		Deadline:     deadlines,
		Notification: notifications,
		Export:       NewExportService(repo, clk, logger),
		Calendar:     NewCalendarService(repo, clk, cfg.Server.BaseURL, logger),
		Milestone:    NewMilestoneService(repo, clk, loc, logger),
		Resolution:   NewResolutionService(repo, deadlines, notifier, clk, loc, logger),
		Statistics:   NewStatisticsService(repo, deadlines, clk, loc, logger),
		notifier:     notifier,
	}
}

// Close 等待排队中的通知写完
func (s *Service) Close() {
	s.notifier.Close()
}
