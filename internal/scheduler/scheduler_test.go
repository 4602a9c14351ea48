package scheduler

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"go.uber.org/zap"

	"github.com/otidevv/backend-seguimiento-tesis/config"
	"github.com/otidevv/backend-seguimiento-tesis/internal/dto"
	"github.com/otidevv/backend-seguimiento-tesis/pkg/clock"
)

type countingJobs struct {
	expired   atomic.Int32
	alerts    atomic.Int32
	threshold atomic.Int32
	err       error
}

func (c *countingJobs) ProcessExpiredDeadlines(context.Context) (*dto.ProcessExpiredResponse, error) {
	c.expired.Add(1)
	if c.err != nil {
		return nil, c.err
	}
	return &dto.ProcessExpiredResponse{}, nil
}

func (c *countingJobs) SendUpcomingDeadlineAlerts(_ context.Context, threshold int) (*dto.SendAlertsResponse, error) {
	c.alerts.Add(1)
	c.threshold.Store(int32(threshold))
	return &dto.SendAlertsResponse{}, nil
}

func TestNew_InvalidConfig(t *testing.T) {
	tests := []struct {
		name string
		cfg  config.SchedulerConfig
	}{
		{"提醒时间格式错误", config.SchedulerConfig{AlertTime: "8am", ExpireInterval: time.Hour}},
		{"时区不存在", config.SchedulerConfig{AlertTime: "08:00", ExpireInterval: time.Hour, Timezone: "Mars/Olympus"}},
		{"扫描间隔为零", config.SchedulerConfig{AlertTime: "08:00"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := New(tt.cfg, 3, &countingJobs{}, clock.Real{}, zap.NewNop()); err == nil {
				t.Error("期望返回错误")
			}
		})
	}
}

func TestNextDailyRun(t *testing.T) {
	lima, err := time.LoadLocation("America/Lima")
	if err != nil {
		t.Skipf("缺少时区数据: %v", err)
	}

	tests := []struct {
		name string
		from time.Time
		want time.Time
	}{
		{"当日未到", time.Date(2026, 3, 2, 7, 30, 0, 0, lima), time.Date(2026, 3, 2, 8, 0, 0, 0, lima)},
		{"恰好到点顺延一天", time.Date(2026, 3, 2, 8, 0, 0, 0, lima), time.Date(2026, 3, 3, 8, 0, 0, 0, lima)},
		{"当日已过", time.Date(2026, 3, 2, 21, 0, 0, 0, lima), time.Date(2026, 3, 3, 8, 0, 0, 0, lima)},
		{"跨月", time.Date(2026, 3, 31, 9, 0, 0, 0, lima), time.Date(2026, 4, 1, 8, 0, 0, 0, lima)},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := nextDailyRun(tt.from, 8, 0); !got.Equal(tt.want) {
				t.Errorf("nextDailyRun(%v)=%v，期望 %v", tt.from, got, tt.want)
			}
		})
	}
}

func TestScheduler_StartRunsExpirySweep(t *testing.T) {
	jobs := &countingJobs{}
	s, err := New(config.SchedulerConfig{AlertTime: "08:00", ExpireInterval: 10 * time.Millisecond}, 3, jobs, clock.Real{}, zap.NewNop())
	if err != nil {
		t.Fatalf("New 失败: %v", err)
	}

	s.Start()
	deadline := time.Now().Add(2 * time.Second)
	for jobs.expired.Load() < 2 && time.Now().Before(deadline) {
		time.Sleep(5 * time.Millisecond)
	}
	s.Stop()
	s.Stop()

	if n := jobs.expired.Load(); n < 2 {
		t.Errorf("期望过期扫描至少执行 2 次，实际 %d", n)
	}
	after := jobs.expired.Load()
	time.Sleep(30 * time.Millisecond)
	if jobs.expired.Load() != after {
		t.Error("Stop 之后不应继续执行")
	}
}

func TestScheduler_TasksSwallowErrors(t *testing.T) {
	jobs := &countingJobs{err: errors.New("db down")}
	s, err := New(config.SchedulerConfig{AlertTime: "08:00", ExpireInterval: time.Hour}, 5, jobs, clock.Real{}, zap.NewNop())
	if err != nil {
		t.Fatalf("New 失败: %v", err)
	}

	s.processExpired()
	s.sendAlerts()
	if jobs.expired.Load() != 1 || jobs.alerts.Load() != 1 {
		t.Errorf("期望各执行 1 次，实际 %d/%d", jobs.expired.Load(), jobs.alerts.Load())
	}
	if jobs.threshold.Load() != 5 {
		t.Errorf("期望使用配置的提醒阈值 5，实际 %d", jobs.threshold.Load())
	}
}

func TestScheduler_DailyRunFollowsInjectedClock(t *testing.T) {
	lima, err := time.LoadLocation("America/Lima")
	if err != nil {
		t.Skipf("缺少时区数据: %v", err)
	}
	// 固定时钟停在提醒时间前 20ms，与真实时间无关
	clk := &clock.Fixed{T: time.Date(2026, 3, 2, 7, 59, 59, 980_000_000, lima)}
	jobs := &countingJobs{}
	s, err := New(config.SchedulerConfig{AlertTime: "08:00", ExpireInterval: time.Hour, Timezone: "America/Lima"},
		3, jobs, clk, zap.NewNop())
	if err != nil {
		t.Fatalf("New 失败: %v", err)
	}

	s.Start()
	deadline := time.Now().Add(2 * time.Second)
	for jobs.alerts.Load() < 1 && time.Now().Before(deadline) {
		time.Sleep(5 * time.Millisecond)
	}
	s.Stop()

	if jobs.alerts.Load() < 1 {
		t.Error("按注入时钟计算，每日提醒应在 20ms 后触发")
	}
	if jobs.threshold.Load() != 3 {
		t.Errorf("期望提醒阈值 3，实际 %d", jobs.threshold.Load())
	}
}
