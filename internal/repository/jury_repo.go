package repository

import (
	"context"

	"gorm.io/gorm"

	"github.com/otidevv/backend-seguimiento-tesis/internal/model"
)

// JuryRepository 评审委员与评审意见数据访问接口
type JuryRepository interface {
	ListActiveMembers(ctx context.Context, thesisID string) ([]model.JuryMember, error)
	GetMember(ctx context.Context, id string) (*model.JuryMember, error)
	ReplaceMembers(ctx context.Context, thesisID string, members []model.JuryMember) error

	CreateReview(ctx context.Context, review *model.Review) error
	GetReview(ctx context.Context, id string) (*model.Review, error)
	ListReviews(ctx context.Context, thesisID string) ([]model.Review, error)
	ListReviewsByUser(ctx context.Context, userID string) ([]model.Review, error)
}

type juryRepo struct {
	db *gorm.DB
}

// NewJuryRepo 创建 JuryRepository 实例
func NewJuryRepo(db *gorm.DB) JuryRepository {
	return &juryRepo{db: db}
}

func (r *juryRepo) ListActiveMembers(ctx context.Context, thesisID string) ([]model.JuryMember, error) {
	var members []model.JuryMember
	err := r.db.WithContext(ctx).
		Preload("User").
		Where("thesis_id = ? AND is_active = ?", thesisID, true).
		Order("created_at ASC").
		Find(&members).Error
	return members, err
}

func (r *juryRepo) GetMember(ctx context.Context, id string) (*model.JuryMember, error) {
	var member model.JuryMember
	err := r.db.WithContext(ctx).
		Where("jury_member_id = ?", id).
		First(&member).Error
	if err != nil {
		return nil, err
	}
	return &member, nil
}

// ReplaceMembers 先删后插替换整个委员会。
// 旧委员的评审意见保留为历史（reviews.jury_member_id 不设外键）。
func (r *juryRepo) ReplaceMembers(ctx context.Context, thesisID string, members []model.JuryMember) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("thesis_id = ?", thesisID).
			Delete(&model.JuryMember{}).Error; err != nil {
			return err
		}
		if len(members) > 0 {
			if err := tx.Create(&members).Error; err != nil {
				return err
			}
		}
		return nil
	})
}

// ── 评审意见（重新提交时插入新行）──

func (r *juryRepo) CreateReview(ctx context.Context, review *model.Review) error {
	return r.db.WithContext(ctx).Create(review).Error
}

func (r *juryRepo) GetReview(ctx context.Context, id string) (*model.Review, error) {
	var review model.Review
	err := r.db.WithContext(ctx).
		Preload("JuryMember").
		Where("review_id = ?", id).
		First(&review).Error
	if err != nil {
		return nil, err
	}
	return &review, nil
}

func (r *juryRepo) ListReviews(ctx context.Context, thesisID string) ([]model.Review, error) {
	var reviews []model.Review
	err := r.db.WithContext(ctx).
		Where("thesis_id = ?", thesisID).
		Order("jury_member_id ASC, review_number DESC").
		Find(&reviews).Error
	return reviews, err
}

// ListReviewsByUser 某用户以评审委员身份提交过的全部意见
func (r *juryRepo) ListReviewsByUser(ctx context.Context, userID string) ([]model.Review, error) {
	var reviews []model.Review
	err := r.db.WithContext(ctx).
		Preload("JuryMember").
		Joins("JOIN jury_members ON jury_members.jury_member_id = reviews.jury_member_id").
		Where("jury_members.user_id = ?", userID).
		Order("reviews.created_at DESC").
		Find(&reviews).Error
	return reviews, err
}
