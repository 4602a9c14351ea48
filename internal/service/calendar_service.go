package service

import (
	"context"
	"fmt"
	"time"

	ics "github.com/arran4/golang-ical"
	"go.uber.org/zap"

	"github.com/otidevv/backend-seguimiento-tesis/internal/model"
	"github.com/otidevv/backend-seguimiento-tesis/internal/repository"
	"github.com/otidevv/backend-seguimiento-tesis/internal/workflow"
	"github.com/otidevv/backend-seguimiento-tesis/pkg/clock"
)

// CalendarService 期限日历导出接口
type CalendarService interface {
	// ExportThesisDeadlines 将论文的进行中期限导出为 iCalendar，返回内容与建议文件名
	ExportThesisDeadlines(ctx context.Context, thesisID string) (string, string, error)
}

type calendarService struct {
	repo    *repository.Repository
	clock   clock.Clock
	baseURL string
	logger  *zap.Logger
}

// NewCalendarService 创建 CalendarService 实例
func NewCalendarService(repo *repository.Repository, clk clock.Clock, baseURL string, logger *zap.Logger) CalendarService {
	return &calendarService{repo: repo, clock: clk, baseURL: baseURL, logger: logger}
}

// ExportThesisDeadlines 每个 ACTIVE 期限生成一个 VEVENT：
// 事件从截止时刻前一小时持续到截止时刻，并提前一天提醒
func (s *calendarService) ExportThesisDeadlines(ctx context.Context, thesisID string) (string, string, error) {
	thesis, err := s.repo.Thesis.GetByID(ctx, thesisID)
	if err != nil {
		return "", "", mapThesisLookupError(s.logger, thesisID, err)
	}

	deadlines, err := s.repo.Deadline.ListActiveByThesis(ctx, thesisID)
	if err != nil {
		s.logger.Error("查询论文进行中期限失败", zap.String("thesis_id", thesisID), zap.Error(err))
		return "", "", err
	}

	now := s.clock.Now()
	cal := ics.NewCalendar()
	cal.SetMethod(ics.MethodPublish)
	cal.SetProductId("-//seguimiento-tesis//deadlines//ZH")
	cal.SetXWRCalName(fmt.Sprintf("论文期限 - %s", shortTitle(thesis.Title, 30)))

	for i := range deadlines {
		d := &deadlines[i]
		event := cal.AddEvent(fmt.Sprintf("%s@seguimiento-tesis", d.DeadlineID))
		event.SetDtStampTime(now)
		event.SetCreatedTime(d.CreatedAt)
		event.SetStartAt(d.DueDate.Add(-time.Hour))
		event.SetEndAt(d.DueDate)
		event.SetSummary(fmt.Sprintf("%s截止：%s", workflow.DeadlineTypeLabel(d.Type), shortTitle(thesis.Title, 40)))
		event.SetDescription(deadlineDescription(thesis, d))
		if s.baseURL != "" {
			event.SetURL(fmt.Sprintf("%s/theses/%s", s.baseURL, thesis.ThesisID))
		}

		alarm := event.AddAlarm()
		alarm.SetAction(ics.ActionDisplay)
		alarm.SetTrigger("-P1D")
	}

	filename := fmt.Sprintf("thesis_%s_deadlines.ics", thesis.ThesisID)
	return cal.Serialize(), filename, nil
}

func deadlineDescription(thesis *model.Thesis, d *model.Deadline) string {
	desc := fmt.Sprintf("论文：%s\n状态：%s", thesis.Title, workflow.StatusLabel(thesis.Status))
	switch {
	case d.BusinessDays != nil:
		desc += fmt.Sprintf("\n期限：%d 个工作日", *d.BusinessDays)
	case d.CalendarDays != nil:
		desc += fmt.Sprintf("\n期限：%d 个自然日", *d.CalendarDays)
	}
	if d.Notes != nil && *d.Notes != "" {
		desc += "\n备注：" + *d.Notes
	}
	return desc
}
