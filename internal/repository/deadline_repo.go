package repository

import (
	"context"
	"time"

	"gorm.io/gorm"

	"github.com/otidevv/backend-seguimiento-tesis/internal/model"
)

// DeadlineRepository 期限数据访问接口
type DeadlineRepository interface {
	Create(ctx context.Context, deadline *model.Deadline) error
	GetByID(ctx context.Context, id string) (*model.Deadline, error)
	GetActive(ctx context.Context, thesisID string, typ model.DeadlineType) (*model.Deadline, error)
	CancelActive(ctx context.Context, thesisID string, typ model.DeadlineType) (int64, error)
	TransitionStatus(ctx context.Context, id string, from, to model.DeadlineStatus, completedAt *time.Time) (bool, error)
	ExistsWithStatus(ctx context.Context, thesisID string, typ model.DeadlineType, statuses ...model.DeadlineStatus) (bool, error)

	ListByThesis(ctx context.Context, thesisID string) ([]model.Deadline, error)
	ListActiveByThesis(ctx context.Context, thesisID string) ([]model.Deadline, error)
	ListActive(ctx context.Context) ([]model.Deadline, error)
	ListActiveDueBefore(ctx context.Context, t time.Time) ([]model.Deadline, error)
	ListActiveDueBetween(ctx context.Context, from, to time.Time) ([]model.Deadline, error)
}

type deadlineRepo struct {
	db *gorm.DB
}

// NewDeadlineRepo 创建 DeadlineRepository 实例
func NewDeadlineRepo(db *gorm.DB) DeadlineRepository {
	return &deadlineRepo{db: db}
}

func (r *deadlineRepo) Create(ctx context.Context, deadline *model.Deadline) error {
	return r.db.WithContext(ctx).Create(deadline).Error
}

func (r *deadlineRepo) GetByID(ctx context.Context, id string) (*model.Deadline, error) {
	var deadline model.Deadline
	err := r.db.WithContext(ctx).
		Preload("Thesis").
		Where("deadline_id = ?", id).
		First(&deadline).Error
	if err != nil {
		return nil, err
	}
	return &deadline, nil
}

func (r *deadlineRepo) GetActive(ctx context.Context, thesisID string, typ model.DeadlineType) (*model.Deadline, error) {
	var deadline model.Deadline
	err := r.db.WithContext(ctx).
		Where("thesis_id = ? AND type = ? AND status = ?", thesisID, typ, model.DeadlineActive).
		First(&deadline).Error
	if err != nil {
		return nil, err
	}
	return &deadline, nil
}

// CancelActive 将 (thesis_id, type) 下的 ACTIVE 期限全部置为 CANCELLED，返回影响行数
func (r *deadlineRepo) CancelActive(ctx context.Context, thesisID string, typ model.DeadlineType) (int64, error) {
	result := r.db.WithContext(ctx).
		Model(&model.Deadline{}).
		Where("thesis_id = ? AND type = ? AND status = ?", thesisID, typ, model.DeadlineActive).
		Updates(map[string]interface{}{
			"status":     model.DeadlineCancelled,
			"updated_at": gorm.Expr("NOW()"),
		})
	return result.RowsAffected, result.Error
}

// TransitionStatus 按当前状态比较并交换；返回 false 表示期限已不处于 from 状态
func (r *deadlineRepo) TransitionStatus(ctx context.Context, id string, from, to model.DeadlineStatus, completedAt *time.Time) (bool, error) {
	updates := map[string]interface{}{
		"status":     to,
		"updated_at": gorm.Expr("NOW()"),
	}
	if completedAt != nil {
		updates["completed_at"] = completedAt
	}
	result := r.db.WithContext(ctx).
		Model(&model.Deadline{}).
		Where("deadline_id = ? AND status = ?", id, from).
		Updates(updates)
	if result.Error != nil {
		return false, result.Error
	}
	return result.RowsAffected > 0, nil
}

func (r *deadlineRepo) ExistsWithStatus(ctx context.Context, thesisID string, typ model.DeadlineType, statuses ...model.DeadlineStatus) (bool, error) {
	var count int64
	err := r.db.WithContext(ctx).
		Model(&model.Deadline{}).
		Where("thesis_id = ? AND type = ? AND status IN ?", thesisID, typ, statuses).
		Count(&count).Error
	if err != nil {
		return false, err
	}
	return count > 0, nil
}

func (r *deadlineRepo) ListByThesis(ctx context.Context, thesisID string) ([]model.Deadline, error) {
	var deadlines []model.Deadline
	err := r.db.WithContext(ctx).
		Where("thesis_id = ?", thesisID).
		Order("due_date ASC").
		Find(&deadlines).Error
	return deadlines, err
}

func (r *deadlineRepo) ListActiveByThesis(ctx context.Context, thesisID string) ([]model.Deadline, error) {
	var deadlines []model.Deadline
	err := r.db.WithContext(ctx).
		Where("thesis_id = ? AND status = ?", thesisID, model.DeadlineActive).
		Order("due_date ASC").
		Find(&deadlines).Error
	return deadlines, err
}

// liveThesis 只保留所属论文未被删除的期限
func liveThesis(db *gorm.DB) *gorm.DB {
	return db.Where("EXISTS (SELECT 1 FROM theses t WHERE t.thesis_id = deadlines.thesis_id AND t.is_active)")
}

// ListActive 进行中的期限，不含已删除论文的期限
func (r *deadlineRepo) ListActive(ctx context.Context) ([]model.Deadline, error) {
	var deadlines []model.Deadline
	err := r.db.WithContext(ctx).
		Scopes(liveThesis).
		Preload("Thesis").
		Where("status = ?", model.DeadlineActive).
		Order("due_date ASC").
		Find(&deadlines).Error
	return deadlines, err
}

// ListActiveDueBefore 已过截止时间但仍为 ACTIVE 的期限
func (r *deadlineRepo) ListActiveDueBefore(ctx context.Context, t time.Time) ([]model.Deadline, error) {
	var deadlines []model.Deadline
	err := r.db.WithContext(ctx).
		Preload("Thesis").
		Where("status = ? AND due_date < ?", model.DeadlineActive, t).
		Order("due_date ASC").
		Find(&deadlines).Error
	return deadlines, err
}

func (r *deadlineRepo) ListActiveDueBetween(ctx context.Context, from, to time.Time) ([]model.Deadline, error) {
	var deadlines []model.Deadline
	err := r.db.WithContext(ctx).
		Scopes(liveThesis).
		Preload("Thesis").
		Where("status = ? AND due_date >= ? AND due_date <= ?", model.DeadlineActive, from, to).
		Order("due_date ASC").
		Find(&deadlines).Error
	return deadlines, err
}
