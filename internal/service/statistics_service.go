package service

import (
	"context"
	"time"

	"go.uber.org/zap"

	"github.com/otidevv/backend-seguimiento-tesis/internal/dto"
	"github.com/otidevv/backend-seguimiento-tesis/internal/model"
	"github.com/otidevv/backend-seguimiento-tesis/internal/repository"
	"github.com/otidevv/backend-seguimiento-tesis/internal/workflow"
	"github.com/otidevv/backend-seguimiento-tesis/pkg/clock"
)

const (
	upcomingWindowDays = 7
	upcomingListSize   = 5
	defaultChartMonths = 6
	maxChartMonths     = 24
)

// approvedStatuses 已通过评审及之后的阶段（不含驳回）
var approvedStatuses = []model.ThesisStatus{
	model.StatusApproved, model.StatusResolutionIssued, model.StatusInDevelopment,
	model.StatusFinalReview, model.StatusReadyForDefense, model.StatusDefended, model.StatusFinalized,
}

// reviewStatuses 已提交、尚未得出评审结论的阶段
var reviewStatuses = []model.ThesisStatus{
	model.StatusSubmitted, model.StatusRegistered, model.StatusForwardedToSchool,
	model.StatusCommitteeAssigned, model.StatusUnderEvaluation, model.StatusObserved,
	model.StatusLiftingObservations,
}

// StatisticsService 统计业务接口（仅管理员与协调员）
type StatisticsService interface {
	Dashboard(ctx context.Context, actor workflow.Actor) (*dto.DashboardResponse, error)
	ThesesByStatus(ctx context.Context, actor workflow.Actor) ([]dto.ChartPoint, error)
	ThesesByMonth(ctx context.Context, months int, actor workflow.Actor) ([]dto.ChartPoint, error)
	ThesesByCareer(ctx context.Context, actor workflow.Actor) ([]dto.ChartPoint, error)
}

type statisticsService struct {
	repo      *repository.Repository
	deadlines DeadlineService
	clock     clock.Clock
	loc       *time.Location
	logger    *zap.Logger
}

// NewStatisticsService 创建 StatisticsService 实例
// loc 决定"本月"与按月分组的边界
func NewStatisticsService(repo *repository.Repository, deadlines DeadlineService, clk clock.Clock, loc *time.Location, logger *zap.Logger) StatisticsService {
	if loc == nil {
		loc = time.UTC
	}
	return &statisticsService{repo: repo, deadlines: deadlines, clock: clk, loc: loc, logger: logger}
}

func (s *statisticsService) Dashboard(ctx context.Context, actor workflow.Actor) (*dto.DashboardResponse, error) {
	if err := s.authorize(actor); err != nil {
		return nil, err
	}
	now := s.clock.Now().In(s.loc)

	total, err := s.repo.Statistics.CountTheses(ctx, nil)
	if err != nil {
		return nil, s.queryFailed("统计论文总数失败", err)
	}
	monthStart := startOfMonth(now)
	thisMonth, err := s.repo.Statistics.CountTheses(ctx, &monthStart)
	if err != nil {
		return nil, s.queryFailed("统计本月论文失败", err)
	}
	byStatus, err := s.statusCounts(ctx)
	if err != nil {
		return nil, err
	}

	resp := &dto.DashboardResponse{
		Theses: dto.ThesisStats{
			Total:      total,
			ByStatus:   make(map[string]int64, len(byStatus)),
			ThisMonth:  thisMonth,
			Approved:   sumStatuses(byStatus, approvedStatuses),
			InProgress: sumStatuses(byStatus, reviewStatuses),
			Pending:    byStatus[model.StatusDraft],
		},
	}
	for status, n := range byStatus {
		resp.Theses.ByStatus[string(status)] = n
	}

	if resp.Deadlines.Active, err = s.repo.Statistics.CountActiveDeadlines(ctx); err != nil {
		return nil, s.queryFailed("统计进行中期限失败", err)
	}
	horizon := clock.AddCalendarDays(now, upcomingWindowDays)
	if resp.Deadlines.Upcoming, err = s.repo.Statistics.CountActiveDeadlinesDueBetween(ctx, now, horizon); err != nil {
		return nil, s.queryFailed("统计临期期限失败", err)
	}
	if resp.Deadlines.Expired, err = s.repo.Statistics.CountActiveDeadlinesDueBefore(ctx, now); err != nil {
		return nil, s.queryFailed("统计过期期限失败", err)
	}
	if resp.Deadlines.UpcomingList, err = s.deadlines.ListUpcomingWithRemaining(ctx, upcomingWindowDays, upcomingListSize); err != nil {
		return nil, err
	}
	return resp, nil
}

// ThesesByStatus 按流程顺序返回全部状态，无论文的状态计 0
func (s *statisticsService) ThesesByStatus(ctx context.Context, actor workflow.Actor) ([]dto.ChartPoint, error) {
	if err := s.authorize(actor); err != nil {
		return nil, err
	}
	byStatus, err := s.statusCounts(ctx)
	if err != nil {
		return nil, err
	}
	points := make([]dto.ChartPoint, 0, len(model.AllThesisStatuses))
	for _, status := range model.AllThesisStatuses {
		points = append(points, dto.ChartPoint{
			Key:   string(status),
			Label: workflow.StatusLabel(status),
			Count: byStatus[status],
		})
	}
	return points, nil
}

// ThesesByMonth 最近 months 个自然月（含本月）每月新建论文数，升序，无数据的月份计 0
func (s *statisticsService) ThesesByMonth(ctx context.Context, months int, actor workflow.Actor) ([]dto.ChartPoint, error) {
	if err := s.authorize(actor); err != nil {
		return nil, err
	}
	if months <= 0 {
		months = defaultChartMonths
	}
	if months > maxChartMonths {
		months = maxChartMonths
	}

	first := startOfMonth(s.clock.Now().In(s.loc)).AddDate(0, -(months - 1), 0)
	rows, err := s.repo.Statistics.CountThesesByMonth(ctx, first, s.loc.String())
	if err != nil {
		return nil, s.queryFailed("按月统计论文失败", err)
	}
	counts := make(map[string]int64, len(rows))
	for _, r := range rows {
		counts[r.Month] = r.Count
	}

	points := make([]dto.ChartPoint, 0, months)
	for i := 0; i < months; i++ {
		key := first.AddDate(0, i, 0).Format("2006-01")
		points = append(points, dto.ChartPoint{Key: key, Label: key, Count: counts[key]})
	}
	return points, nil
}

func (s *statisticsService) ThesesByCareer(ctx context.Context, actor workflow.Actor) ([]dto.ChartPoint, error) {
	if err := s.authorize(actor); err != nil {
		return nil, err
	}
	rows, err := s.repo.Statistics.CountThesesByCareer(ctx)
	if err != nil {
		return nil, s.queryFailed("按专业统计论文失败", err)
	}
	points := make([]dto.ChartPoint, 0, len(rows))
	for _, r := range rows {
		points = append(points, dto.ChartPoint{Key: r.CareerID, Label: r.CareerName, Count: r.Count})
	}
	return points, nil
}

// ── 辅助 ──

func (s *statisticsService) authorize(actor workflow.Actor) error {
	return workflow.Authorize(workflow.OpViewStatistics, workflow.ResolveCapabilities(actor, nil, nil))
}

func (s *statisticsService) statusCounts(ctx context.Context) (map[model.ThesisStatus]int64, error) {
	rows, err := s.repo.Statistics.CountThesesByStatus(ctx)
	if err != nil {
		return nil, s.queryFailed("按状态统计论文失败", err)
	}
	counts := make(map[model.ThesisStatus]int64, len(model.AllThesisStatuses))
	for _, status := range model.AllThesisStatuses {
		counts[status] = 0
	}
	for _, r := range rows {
		counts[r.Status] = r.Count
	}
	return counts, nil
}

func (s *statisticsService) queryFailed(msg string, err error) error {
	s.logger.Error(msg, zap.Error(err))
	return err
}

func sumStatuses(counts map[model.ThesisStatus]int64, statuses []model.ThesisStatus) int64 {
	var n int64
	for _, st := range statuses {
		n += counts[st]
	}
	return n
}

func startOfMonth(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), 1, 0, 0, 0, 0, t.Location())
}
