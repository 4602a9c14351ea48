package repository

import (
	"context"
	"sort"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/otidevv/backend-seguimiento-tesis/internal/model"
)

// UserRepository 用户数据访问接口（只读）
type UserRepository interface {
	GetByID(ctx context.Context, id string) (*model.User, error)
	ListByIDs(ctx context.Context, ids []string) ([]model.User, error)
	LockForUpdate(ctx context.Context, ids []string) error
}

// userRepo UserRepository 的 GORM 实现
type userRepo struct {
	db *gorm.DB
}

// NewUserRepo 创建 UserRepository 实例
func NewUserRepo(db *gorm.DB) UserRepository {
	return &userRepo{db: db}
}

func (r *userRepo) GetByID(ctx context.Context, id string) (*model.User, error) {
	var user model.User
	err := r.db.WithContext(ctx).
		Where("user_id = ? AND is_active = ?", id, true).
		First(&user).Error
	if err != nil {
		return nil, err
	}
	return &user, nil
}

func (r *userRepo) ListByIDs(ctx context.Context, ids []string) ([]model.User, error) {
	var users []model.User
	if len(ids) == 0 {
		return users, nil
	}
	err := r.db.WithContext(ctx).
		Where("user_id IN ?", ids).
		Find(&users).Error
	return users, err
}

// LockForUpdate 按 user_id 升序对用户行加排他锁，须在事务内调用。
// 同一学生的在办论文检查与写入以此串行化。
func (r *userRepo) LockForUpdate(ctx context.Context, ids []string) error {
	if len(ids) == 0 {
		return nil
	}
	sorted := append([]string(nil), ids...)
	sort.Strings(sorted)

	var users []model.User
	return r.db.WithContext(ctx).
		Clauses(clause.Locking{Strength: "UPDATE"}).
		Select("user_id").
		Where("user_id IN ?", sorted).
		Order("user_id").
		Find(&users).Error
}

// ── Career ──

// CareerRepository 专业数据访问接口（只读）
type CareerRepository interface {
	GetByID(ctx context.Context, id string) (*model.Career, error)
}

type careerRepo struct {
	db *gorm.DB
}

// NewCareerRepo 创建 CareerRepository 实例
func NewCareerRepo(db *gorm.DB) CareerRepository {
	return &careerRepo{db: db}
}

func (r *careerRepo) GetByID(ctx context.Context, id string) (*model.Career, error) {
	var career model.Career
	err := r.db.WithContext(ctx).
		Where("career_id = ? AND is_active = ?", id, true).
		First(&career).Error
	if err != nil {
		return nil, err
	}
	return &career, nil
}
