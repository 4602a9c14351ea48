// Package scheduler 期限相关的定时任务：过期扫描与每日临期提醒。
package scheduler

import (
	"context"
	"fmt"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/otidevv/backend-seguimiento-tesis/config"
	"github.com/otidevv/backend-seguimiento-tesis/internal/dto"
	"github.com/otidevv/backend-seguimiento-tesis/pkg/clock"
)

// DeadlineJobs 定时任务调用的期限操作
type DeadlineJobs interface {
	ProcessExpiredDeadlines(ctx context.Context) (*dto.ProcessExpiredResponse, error)
	SendUpcomingDeadlineAlerts(ctx context.Context, thresholdBusinessDays int) (*dto.SendAlertsResponse, error)
}

// Scheduler 周期性触发期限任务
type Scheduler struct {
	jobs      DeadlineJobs
	interval  time.Duration
	alertHour int
	alertMin  int
	threshold int
	loc       *time.Location
	clock     clock.Clock
	timeout   time.Duration
	logger    *zap.Logger

	stop chan struct{}
	wg   sync.WaitGroup
	once sync.Once
}

// New 根据配置创建调度器；alert_time 格式为 "HH:MM"
// 每日任务的下次执行时间按 clk 计算
func New(cfg config.SchedulerConfig, threshold int, jobs DeadlineJobs, clk clock.Clock, logger *zap.Logger) (*Scheduler, error) {
	at, err := time.Parse("15:04", cfg.AlertTime)
	if err != nil {
		return nil, fmt.Errorf("解析 scheduler.alert_time 失败: %w", err)
	}
	loc := time.UTC
	if cfg.Timezone != "" {
		if loc, err = time.LoadLocation(cfg.Timezone); err != nil {
			return nil, fmt.Errorf("加载时区 %s 失败: %w", cfg.Timezone, err)
		}
	}
	if cfg.ExpireInterval <= 0 {
		return nil, fmt.Errorf("scheduler.expire_interval 必须为正数")
	}

	return &Scheduler{
		jobs:      jobs,
		interval:  cfg.ExpireInterval,
		alertHour: at.Hour(),
		alertMin:  at.Minute(),
		threshold: threshold,
		loc:       loc,
		clock:     clk,
		timeout:   5 * time.Minute,
		logger:    logger,
		stop:      make(chan struct{}),
	}, nil
}

// Start 启动后台任务，立即执行一次过期扫描
func (s *Scheduler) Start() {
	s.logger.Info("启动定时任务",
		zap.Duration("expire_interval", s.interval),
		zap.String("alert_time", fmt.Sprintf("%02d:%02d", s.alertHour, s.alertMin)),
		zap.String("timezone", s.loc.String()),
	)

	s.wg.Add(2)
	go s.runInterval("process_expired", s.interval, s.processExpired)
	go s.runDaily("deadline_alerts", s.sendAlerts)
}

// Stop 通知任务退出并等待正在执行的任务完成
func (s *Scheduler) Stop() {
	s.once.Do(func() {
		close(s.stop)
	})
	s.wg.Wait()
	s.logger.Info("定时任务已停止")
}

func (s *Scheduler) runInterval(name string, interval time.Duration, task func()) {
	defer s.wg.Done()

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	task()
	for {
		select {
		case <-ticker.C:
			task()
		case <-s.stop:
			return
		}
	}
}

func (s *Scheduler) runDaily(name string, task func()) {
	defer s.wg.Done()

	for {
		now := s.clock.Now().In(s.loc)
		next := nextDailyRun(now, s.alertHour, s.alertMin)
		s.logger.Debug("下次执行时间", zap.String("task", name), zap.Time("next_run", next))

		timer := time.NewTimer(next.Sub(now))
		select {
		case <-timer.C:
			task()
		case <-s.stop:
			timer.Stop()
			return
		}
	}
}

func (s *Scheduler) processExpired() {
	ctx, cancel := context.WithTimeout(context.Background(), s.timeout)
	defer cancel()

	result, err := s.jobs.ProcessExpiredDeadlines(ctx)
	if err != nil {
		s.logger.Error("过期期限处理失败", zap.Error(err))
		return
	}
	if result.Processed > 0 {
		s.logger.Info("过期期限处理完成", zap.Int("processed", result.Processed))
	}
}

func (s *Scheduler) sendAlerts() {
	ctx, cancel := context.WithTimeout(context.Background(), s.timeout)
	defer cancel()

	result, err := s.jobs.SendUpcomingDeadlineAlerts(ctx, s.threshold)
	if err != nil {
		s.logger.Error("发送临期提醒失败", zap.Error(err))
		return
	}
	s.logger.Info("临期提醒发送完成", zap.Int("alerts_sent", result.AlertsSent))
}

// nextDailyRun 返回 from 之后最近一次 hour:minute（from 所在时区）
func nextDailyRun(from time.Time, hour, minute int) time.Time {
	next := time.Date(from.Year(), from.Month(), from.Day(), hour, minute, 0, 0, from.Location())
	if !next.After(from) {
		next = next.AddDate(0, 0, 1)
	}
	return next
}
