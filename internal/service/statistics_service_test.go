package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"go.uber.org/zap"

	"github.com/otidevv/backend-seguimiento-tesis/internal/model"
	"github.com/otidevv/backend-seguimiento-tesis/internal/workflow"
)

func (e *testEnv) statisticsSvc(loc *time.Location) StatisticsService {
	return NewStatisticsService(e.repo, e.deadlineSvc, e.clock, loc, zap.NewNop())
}

// seedThesisAt 写入指定状态与创建时间的论文
func (e *testEnv) seedThesisAt(status model.ThesisStatus, createdAt time.Time) *model.Thesis {
	t := e.seedThesis(status)
	e.stored(t.ThesisID).CreatedAt = createdAt
	return e.stored(t.ThesisID)
}

// statsFixture 6 篇在册论文 + 1 篇已删除论文，以及各类期限
type statsFixture struct {
	draft, submitted, evaluating, approved, finalized, rejected, removed *model.Thesis
}

func (e *testEnv) seedStatistics() statsFixture {
	f := statsFixture{
		draft:      e.seedThesisAt(model.StatusDraft, time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC)),
		submitted:  e.seedThesisAt(model.StatusSubmitted, time.Date(2026, 2, 10, 9, 0, 0, 0, time.UTC)),
		evaluating: e.seedThesisAt(model.StatusUnderEvaluation, time.Date(2026, 1, 5, 9, 0, 0, 0, time.UTC)),
		approved:   e.seedThesisAt(model.StatusApproved, time.Date(2025, 12, 20, 9, 0, 0, 0, time.UTC)),
		finalized:  e.seedThesisAt(model.StatusFinalized, time.Date(2026, 3, 2, 8, 0, 0, 0, time.UTC)),
		rejected:   e.seedThesisAt(model.StatusRejected, time.Date(2026, 2, 15, 9, 0, 0, 0, time.UTC)),
		removed:    e.seedThesisAt(model.StatusDraft, time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC)),
	}
	f.removed.IsActive = false

	day := 24 * time.Hour
	// 七天内到期 6 条（按到期时间写入）
	e.seedDeadline(f.evaluating.ThesisID, model.DeadlineCommitteeEvaluation, testNow.Add(1*day))
	for i, typ := range []model.DeadlineType{
		model.DeadlineObservationLift, model.DeadlineObservationExtension,
		model.DeadlineCorrectionReview, model.DeadlineDefense,
	} {
		e.seedDeadline(f.draft.ThesisID, typ, testNow.Add(time.Duration(i+2)*day))
	}
	e.seedDeadline(f.submitted.ThesisID, model.DeadlineObservationLift, testNow.Add(6*day))
	// 已过期但尚未被定时任务处理
	e.seedDeadline(f.approved.ThesisID, model.DeadlineObservationLift, testNow.Add(-day))
	// 七天之外
	e.seedDeadline(f.rejected.ThesisID, model.DeadlineObservationLift, testNow.Add(20*day))
	// 已删除论文的期限不计入
	e.seedDeadline(f.removed.ThesisID, model.DeadlineObservationLift, testNow.Add(day))
	return f
}

func TestStatisticsService_Dashboard(t *testing.T) {
	env := newTestEnv()
	f := env.seedStatistics()

	dash, err := env.statisticsSvc(time.UTC).Dashboard(context.Background(), coordinatorActor)
	if err != nil {
		t.Fatalf("获取仪表盘失败: %v", err)
	}

	theses := []struct {
		name      string
		got, want int64
	}{
		{"总数", dash.Theses.Total, 6},
		{"本月新建", dash.Theses.ThisMonth, 2},
		{"已通过", dash.Theses.Approved, 2},
		{"评审中", dash.Theses.InProgress, 2},
		{"草稿", dash.Theses.Pending, 1},
		{"状态 REJECTED", dash.Theses.ByStatus[string(model.StatusRejected)], 1},
		{"状态 OBSERVED", dash.Theses.ByStatus[string(model.StatusObserved)], 0},
	}
	for _, tt := range theses {
		if tt.got != tt.want {
			t.Errorf("论文%s：期望 %d，实际 %d", tt.name, tt.want, tt.got)
		}
	}
	if len(dash.Theses.ByStatus) != len(model.AllThesisStatuses) {
		t.Errorf("状态分布应覆盖全部 %d 个状态，实际 %d", len(model.AllThesisStatuses), len(dash.Theses.ByStatus))
	}

	deadlines := []struct {
		name      string
		got, want int64
	}{
		{"进行中", dash.Deadlines.Active, 8},
		{"七天内到期", dash.Deadlines.Upcoming, 6},
		{"已过期", dash.Deadlines.Expired, 1},
	}
	for _, tt := range deadlines {
		if tt.got != tt.want {
			t.Errorf("期限%s：期望 %d，实际 %d", tt.name, tt.want, tt.got)
		}
	}

	list := dash.Deadlines.UpcomingList
	if len(list) != 5 {
		t.Fatalf("临期列表最多 5 条，实际 %d", len(list))
	}
	if list[0].ThesisID != f.evaluating.ThesisID || list[0].RemainingDays != 1 {
		t.Errorf("首条应为最早到期的评审期限，实际 %+v", list[0])
	}
	for _, d := range list {
		if d.ThesisID == f.removed.ThesisID {
			t.Error("已删除论文的期限不应出现在临期列表")
		}
	}
}

func TestStatisticsService_ThisMonthFollowsConfiguredTimezone(t *testing.T) {
	env := newTestEnv()
	lima := loadLima(t)
	// UTC 已是 3 月，利马仍为 2 月 28 日晚
	env.seedThesisAt(model.StatusDraft, time.Date(2026, 3, 1, 3, 0, 0, 0, time.UTC))
	env.seedThesisAt(model.StatusDraft, time.Date(2026, 3, 1, 6, 0, 0, 0, time.UTC))
	svc := env.statisticsSvc(lima)

	dash, err := svc.Dashboard(context.Background(), adminActor)
	if err != nil {
		t.Fatalf("获取仪表盘失败: %v", err)
	}
	if dash.Theses.ThisMonth != 1 {
		t.Errorf("本月应按配置时区划分，期望 1，实际 %d", dash.Theses.ThisMonth)
	}

	points, err := svc.ThesesByMonth(context.Background(), 2, adminActor)
	if err != nil {
		t.Fatalf("按月统计失败: %v", err)
	}
	if points[0].Key != "2026-02" || points[0].Count != 1 || points[1].Key != "2026-03" || points[1].Count != 1 {
		t.Errorf("按月分组应按配置时区，实际 %+v", points)
	}
}

func TestStatisticsService_ThesesByMonth(t *testing.T) {
	env := newTestEnv()
	env.seedStatistics()
	svc := env.statisticsSvc(time.UTC)
	ctx := context.Background()

	points, err := svc.ThesesByMonth(ctx, 3, adminActor)
	if err != nil {
		t.Fatalf("按月统计失败: %v", err)
	}
	want := []struct {
		key   string
		count int64
	}{
		{"2026-01", 1},
		{"2026-02", 2},
		{"2026-03", 2},
	}
	if len(points) != len(want) {
		t.Fatalf("期望 %d 个月，实际 %d", len(want), len(points))
	}
	for i, w := range want {
		if points[i].Key != w.key || points[i].Count != w.count {
			t.Errorf("第 %d 个月：期望 %s=%d，实际 %s=%d", i, w.key, w.count, points[i].Key, points[i].Count)
		}
	}

	tests := []struct {
		name   string
		months int
		want   int
	}{
		{"默认 6 个月", 0, 6},
		{"超过上限截断", 60, 24},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			points, err := svc.ThesesByMonth(ctx, tt.months, adminActor)
			if err != nil {
				t.Fatalf("按月统计失败: %v", err)
			}
			if len(points) != tt.want {
				t.Errorf("期望 %d 个数据点，实际 %d", tt.want, len(points))
			}
			if last := points[len(points)-1]; last.Key != "2026-03" {
				t.Errorf("最后一个数据点应为本月，实际 %s", last.Key)
			}
		})
	}
}

func TestStatisticsService_ThesesByStatusAndCareer(t *testing.T) {
	env := newTestEnv()
	env.seedStatistics()
	svc := env.statisticsSvc(time.UTC)
	ctx := context.Background()

	points, err := svc.ThesesByStatus(ctx, adminActor)
	if err != nil {
		t.Fatalf("按状态统计失败: %v", err)
	}
	if len(points) != len(model.AllThesisStatuses) {
		t.Fatalf("期望 %d 个状态，实际 %d", len(model.AllThesisStatuses), len(points))
	}
	if points[0].Key != string(model.StatusDraft) || points[0].Count != 1 || points[0].Label != workflow.StatusLabel(model.StatusDraft) {
		t.Errorf("首个数据点应为草稿状态，实际 %+v", points[0])
	}

	careers, err := svc.ThesesByCareer(ctx, adminActor)
	if err != nil {
		t.Fatalf("按专业统计失败: %v", err)
	}
	if len(careers) != 1 || careers[0].Label != "计算机科学" || careers[0].Count != 6 {
		t.Errorf("专业统计不符: %+v", careers)
	}
}

func TestStatisticsService_Errors(t *testing.T) {
	env := newTestEnv()
	svc := env.statisticsSvc(time.UTC)
	ctx := context.Background()

	for _, actor := range []workflow.Actor{authorActor, advisorActor, memberActor} {
		if _, err := svc.Dashboard(ctx, actor); !errors.Is(err, workflow.ErrForbidden) {
			t.Errorf("%s 不应查看统计，实际 %v", actor.ID, err)
		}
	}

	env.stats.err = errMockStore
	if _, err := svc.Dashboard(ctx, adminActor); !errors.Is(err, errMockStore) {
		t.Errorf("存储错误应原样返回，实际 %v", err)
	}
	if _, err := svc.ThesesByStatus(ctx, adminActor); !errors.Is(err, errMockStore) {
		t.Errorf("存储错误应原样返回，实际 %v", err)
	}
}
