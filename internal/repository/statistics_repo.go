package repository

import (
	"context"
	"time"

	"gorm.io/gorm"

	"github.com/otidevv/backend-seguimiento-tesis/internal/model"
)

// StatusCount 按状态统计的论文数
type StatusCount struct {
	Status model.ThesisStatus
	Count  int64
}

// MonthCount 按月统计的论文数，Month 形如 "2026-03"
type MonthCount struct {
	Month string
	Count int64
}

// CareerCount 按专业统计的论文数
type CareerCount struct {
	CareerID   string
	CareerName string
	Count      int64
}

// StatisticsRepository 统计聚合查询（只统计未删除的论文）
type StatisticsRepository interface {
	CountTheses(ctx context.Context, since *time.Time) (int64, error)
	CountThesesByStatus(ctx context.Context) ([]StatusCount, error)
	CountThesesByMonth(ctx context.Context, since time.Time, timezone string) ([]MonthCount, error)
	CountThesesByCareer(ctx context.Context) ([]CareerCount, error)

	CountActiveDeadlines(ctx context.Context) (int64, error)
	CountActiveDeadlinesDueBetween(ctx context.Context, from, to time.Time) (int64, error)
	CountActiveDeadlinesDueBefore(ctx context.Context, t time.Time) (int64, error)
}

type statisticsRepo struct {
	db *gorm.DB
}

// NewStatisticsRepo 创建 StatisticsRepository 实例
func NewStatisticsRepo(db *gorm.DB) StatisticsRepository {
	return &statisticsRepo{db: db}
}

func (r *statisticsRepo) activeTheses(ctx context.Context) *gorm.DB {
	return r.db.WithContext(ctx).Model(&model.Thesis{}).Where("is_active = ?", true)
}

func (r *statisticsRepo) CountTheses(ctx context.Context, since *time.Time) (int64, error) {
	var count int64
	db := r.activeTheses(ctx)
	if since != nil {
		db = db.Where("created_at >= ?", *since)
	}
	err := db.Count(&count).Error
	return count, err
}

func (r *statisticsRepo) CountThesesByStatus(ctx context.Context) ([]StatusCount, error) {
	var rows []StatusCount
	err := r.activeTheses(ctx).
		Select("status, COUNT(*) AS count").
		Group("status").
		Scan(&rows).Error
	return rows, err
}

// CountThesesByMonth 按 timezone 下的自然月分组，只返回有数据的月份
func (r *statisticsRepo) CountThesesByMonth(ctx context.Context, since time.Time, timezone string) ([]MonthCount, error) {
	var rows []MonthCount
	err := r.activeTheses(ctx).
		Select("to_char(created_at AT TIME ZONE ?, 'YYYY-MM') AS month, COUNT(*) AS count", timezone).
		Where("created_at >= ?", since).
		Group("month").
		Order("month ASC").
		Scan(&rows).Error
	return rows, err
}

func (r *statisticsRepo) CountThesesByCareer(ctx context.Context) ([]CareerCount, error) {
	var rows []CareerCount
	err := r.db.WithContext(ctx).
		Table("theses t").
		Select("t.career_id, c.name AS career_name, COUNT(*) AS count").
		Joins("JOIN careers c ON c.career_id = t.career_id").
		Where("t.is_active = ?", true).
		Group("t.career_id, c.name").
		Order("count DESC, c.name ASC").
		Scan(&rows).Error
	return rows, err
}

func (r *statisticsRepo) activeDeadlines(ctx context.Context) *gorm.DB {
	return r.db.WithContext(ctx).
		Model(&model.Deadline{}).
		Scopes(liveThesis).
		Where("status = ?", model.DeadlineActive)
}

func (r *statisticsRepo) CountActiveDeadlines(ctx context.Context) (int64, error) {
	var count int64
	err := r.activeDeadlines(ctx).Count(&count).Error
	return count, err
}

func (r *statisticsRepo) CountActiveDeadlinesDueBetween(ctx context.Context, from, to time.Time) (int64, error) {
	var count int64
	err := r.activeDeadlines(ctx).
		Where("due_date >= ? AND due_date <= ?", from, to).
		Count(&count).Error
	return count, err
}

func (r *statisticsRepo) CountActiveDeadlinesDueBefore(ctx context.Context, t time.Time) (int64, error) {
	var count int64
	err := r.activeDeadlines(ctx).
		Where("due_date < ?", t).
		Count(&count).Error
	return count, err
}
