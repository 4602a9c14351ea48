package repository

import (
	"context"

	"gorm.io/gorm"
)

// Repository 所有 Repository 的聚合入口
type Repository struct {
	db *gorm.DB

	Thesis       ThesisRepository
	Jury         JuryRepository
	Deadline     DeadlineRepository
	User         UserRepository
	Career       CareerRepository
	Notification NotificationRepository
	Milestone    MilestoneRepository
	Resolution   ResolutionRepository
	Statistics   StatisticsRepository
}

// NewRepository 创建 Repository 聚合
func NewRepository(db *gorm.DB) *Repository {
	return &Repository{
		db:           db,
		Thesis:       NewThesisRepo(db),
		Jury:         NewJuryRepo(db),
		Deadline:     NewDeadlineRepo(db),
		User:         NewUserRepo(db),
		Career:       NewCareerRepo(db),
		Notification: NewNotificationRepo(db),
		Milestone:    NewMilestoneRepo(db),
		Resolution:   NewResolutionRepo(db),
		Statistics:   NewStatisticsRepo(db),
	}
}

// Transaction 在单个数据库事务中执行 fn，fn 收到绑定到该事务的 Repository。
// fn 返回错误时整体回滚。
// 未绑定数据库的聚合（单元测试中以 mock 组装）直接以自身调用 fn。
func (r *Repository) Transaction(ctx context.Context, fn func(tx *Repository) error) error {
	if r.db == nil {
		return fn(r)
	}
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return fn(NewRepository(tx))
	})
}
