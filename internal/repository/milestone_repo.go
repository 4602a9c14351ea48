package repository

import (
	"context"

	"gorm.io/gorm"

	"github.com/otidevv/backend-seguimiento-tesis/internal/model"
)

// MilestoneRepository 里程碑数据访问接口
type MilestoneRepository interface {
	Create(ctx context.Context, m *model.Milestone) error
	GetByID(ctx context.Context, id string) (*model.Milestone, error)
	ListByThesis(ctx context.Context, thesisID string) ([]model.Milestone, error)
	MaxOrder(ctx context.Context, thesisID string) (int, error)
	Update(ctx context.Context, m *model.Milestone) error
	UpdateOrder(ctx context.Context, id string, order int) error
	Delete(ctx context.Context, id string) error
}

type milestoneRepo struct {
	db *gorm.DB
}

// NewMilestoneRepo 创建 MilestoneRepository 实例
func NewMilestoneRepo(db *gorm.DB) MilestoneRepository {
	return &milestoneRepo{db: db}
}

func (r *milestoneRepo) Create(ctx context.Context, m *model.Milestone) error {
	return r.db.WithContext(ctx).Create(m).Error
}

func (r *milestoneRepo) GetByID(ctx context.Context, id string) (*model.Milestone, error) {
	var m model.Milestone
	if err := r.db.WithContext(ctx).Where("milestone_id = ?", id).First(&m).Error; err != nil {
		return nil, err
	}
	return &m, nil
}

func (r *milestoneRepo) ListByThesis(ctx context.Context, thesisID string) ([]model.Milestone, error) {
	var list []model.Milestone
	err := r.db.WithContext(ctx).
		Where("thesis_id = ?", thesisID).
		Order("sort_order ASC, created_at ASC").
		Find(&list).Error
	return list, err
}

// MaxOrder 论文当前最大排序值；尚无里程碑时返回 -1
func (r *milestoneRepo) MaxOrder(ctx context.Context, thesisID string) (int, error) {
	var last int
	err := r.db.WithContext(ctx).
		Model(&model.Milestone{}).
		Where("thesis_id = ?", thesisID).
		Select("COALESCE(MAX(sort_order), -1)").
		Scan(&last).Error
	return last, err
}

func (r *milestoneRepo) Update(ctx context.Context, m *model.Milestone) error {
	return r.db.WithContext(ctx).
		Model(&model.Milestone{}).
		Where("milestone_id = ?", m.MilestoneID).
		Updates(map[string]interface{}{
			"title":        m.Title,
			"description":  m.Description,
			"due_date":     m.DueDate,
			"sort_order":   m.SortOrder,
			"is_completed": m.IsCompleted,
			"completed_at": m.CompletedAt,
			"updated_by":   m.UpdatedBy,
			"updated_at":   gorm.Expr("NOW()"),
		}).Error
}

func (r *milestoneRepo) UpdateOrder(ctx context.Context, id string, order int) error {
	return r.db.WithContext(ctx).
		Model(&model.Milestone{}).
		Where("milestone_id = ?", id).
		Updates(map[string]interface{}{
			"sort_order": order,
			"updated_at": gorm.Expr("NOW()"),
		}).Error
}

func (r *milestoneRepo) Delete(ctx context.Context, id string) error {
	return r.db.WithContext(ctx).
		Where("milestone_id = ?", id).
		Delete(&model.Milestone{}).Error
}
