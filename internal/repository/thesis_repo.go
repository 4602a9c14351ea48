package repository

import (
	"context"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/otidevv/backend-seguimiento-tesis/internal/model"
	pkgerrors "github.com/otidevv/backend-seguimiento-tesis/pkg/errors"
)

// ThesisFilter 论文列表筛选条件（空值表示不限）
type ThesisFilter struct {
	CareerID  string
	FacultyID string
	Status    model.ThesisStatus
	AuthorID  string
	AdvisorID string
}

// ThesisRepository 论文及状态历史数据访问接口
type ThesisRepository interface {
	Create(ctx context.Context, thesis *model.Thesis) error
	GetByID(ctx context.Context, id string) (*model.Thesis, error)
	GetForUpdate(ctx context.Context, id string) (*model.Thesis, error)
	Update(ctx context.Context, thesis *model.Thesis) error
	UpdateStatus(ctx context.Context, thesis *model.Thesis) error
	SoftDelete(ctx context.Context, thesis *model.Thesis, deletedBy string) error
	List(ctx context.Context, filter ThesisFilter, offset, limit int) ([]model.Thesis, int64, error)
	ListByStudent(ctx context.Context, userID string) ([]model.Thesis, error)
	ListByFaculty(ctx context.Context, userID string) ([]model.Thesis, error)
	ListInProgressByStudent(ctx context.Context, userID string) ([]model.Thesis, error)
	ExistsInProgressInCareer(ctx context.Context, userIDs []string, careerID, excludeID string) (bool, error)

	CreateHistory(ctx context.Context, history *model.ThesisStatusHistory) error
	ListHistory(ctx context.Context, thesisID string) ([]model.ThesisStatusHistory, error)
}

type thesisRepo struct {
	db *gorm.DB
}

// NewThesisRepo 创建 ThesisRepository 实例
func NewThesisRepo(db *gorm.DB) ThesisRepository {
	return &thesisRepo{db: db}
}

func (r *thesisRepo) Create(ctx context.Context, thesis *model.Thesis) error {
	return r.db.WithContext(ctx).Create(thesis).Error
}

func (r *thesisRepo) GetByID(ctx context.Context, id string) (*model.Thesis, error) {
	var thesis model.Thesis
	err := r.db.WithContext(ctx).
		Preload("Career").
		Where("thesis_id = ? AND is_active = ?", id, true).
		First(&thesis).Error
	if err != nil {
		return nil, err
	}
	return &thesis, nil
}

// GetForUpdate 读取并锁定论文行（SELECT ... FOR UPDATE），须在事务内调用
func (r *thesisRepo) GetForUpdate(ctx context.Context, id string) (*model.Thesis, error) {
	var thesis model.Thesis
	err := r.db.WithContext(ctx).
		Clauses(clause.Locking{Strength: "UPDATE"}).
		Where("thesis_id = ? AND is_active = ?", id, true).
		First(&thesis).Error
	if err != nil {
		return nil, err
	}
	return &thesis, nil
}

// Update 更新论文基本信息（乐观锁）
func (r *thesisRepo) Update(ctx context.Context, thesis *model.Thesis) error {
	oldVersion := thesis.Version
	result := r.db.WithContext(ctx).
		Model(&model.Thesis{}).
		Where("thesis_id = ? AND version = ?", thesis.ThesisID, oldVersion).
		Updates(map[string]interface{}{
			"title":           thesis.Title,
			"description":     thesis.Description,
			"academic_degree": thesis.AcademicDegree,
			"co_author_id":    thesis.CoAuthorID,
			"co_advisor_id":   thesis.CoAdvisorID,
			"updated_by":      thesis.UpdatedBy,
			"updated_at":      gorm.Expr("NOW()"),
			"version":         oldVersion + 1,
		})
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return pkgerrors.ErrOptimisticLock
	}
	thesis.Version = oldVersion + 1
	return nil
}

// UpdateStatus 写入状态及通过 / 答辩日期（按 version 比较并交换）
func (r *thesisRepo) UpdateStatus(ctx context.Context, thesis *model.Thesis) error {
	oldVersion := thesis.Version
	result := r.db.WithContext(ctx).
		Model(&model.Thesis{}).
		Where("thesis_id = ? AND version = ?", thesis.ThesisID, oldVersion).
		Updates(map[string]interface{}{
			"status":        thesis.Status,
			"approval_date": thesis.ApprovalDate,
			"defense_date":  thesis.DefenseDate,
			"updated_by":    thesis.UpdatedBy,
			"updated_at":    gorm.Expr("NOW()"),
			"version":       oldVersion + 1,
		})
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return pkgerrors.ErrOptimisticLock
	}
	thesis.Version = oldVersion + 1
	return nil
}

// SoftDelete 软删除：is_active 置为 false
func (r *thesisRepo) SoftDelete(ctx context.Context, thesis *model.Thesis, deletedBy string) error {
	oldVersion := thesis.Version
	result := r.db.WithContext(ctx).
		Model(&model.Thesis{}).
		Where("thesis_id = ? AND version = ?", thesis.ThesisID, oldVersion).
		Updates(map[string]interface{}{
			"is_active":  false,
			"updated_by": deletedBy,
			"updated_at": gorm.Expr("NOW()"),
			"version":    oldVersion + 1,
		})
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return pkgerrors.ErrOptimisticLock
	}
	thesis.IsActive = false
	thesis.Version = oldVersion + 1
	return nil
}

func (r *thesisRepo) List(ctx context.Context, filter ThesisFilter, offset, limit int) ([]model.Thesis, int64, error) {
	var theses []model.Thesis
	var total int64

	db := r.db.WithContext(ctx).Model(&model.Thesis{}).Where("theses.is_active = ?", true)
	if filter.CareerID != "" {
		db = db.Where("theses.career_id = ?", filter.CareerID)
	}
	if filter.Status != "" {
		db = db.Where("theses.status = ?", filter.Status)
	}
	if filter.AuthorID != "" {
		db = db.Where("theses.author_id = ?", filter.AuthorID)
	}
	if filter.AdvisorID != "" {
		db = db.Where("theses.advisor_id = ?", filter.AdvisorID)
	}
	if filter.FacultyID != "" {
		db = db.Where("theses.career_id IN (?)",
			r.db.Model(&model.Career{}).Select("career_id").Where("faculty_id = ?", filter.FacultyID))
	}

	if err := db.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	query := db.Preload("Career").Order("theses.created_at DESC")
	if limit > 0 {
		query = query.Offset(offset).Limit(limit)
	}
	if err := query.Find(&theses).Error; err != nil {
		return nil, 0, err
	}
	return theses, total, nil
}

// ListByStudent 作为作者或合著者的论文
func (r *thesisRepo) ListByStudent(ctx context.Context, userID string) ([]model.Thesis, error) {
	var theses []model.Thesis
	err := r.db.WithContext(ctx).
		Preload("Career").
		Where("is_active = ? AND (author_id = ? OR co_author_id = ?)", true, userID, userID).
		Order("created_at DESC").
		Find(&theses).Error
	return theses, err
}

// ListByFaculty 作为导师、副导师或在任评审委员的论文
func (r *thesisRepo) ListByFaculty(ctx context.Context, userID string) ([]model.Thesis, error) {
	var theses []model.Thesis
	juryThesisIDs := r.db.Model(&model.JuryMember{}).
		Select("thesis_id").
		Where("user_id = ? AND is_active = ?", userID, true)
	err := r.db.WithContext(ctx).
		Preload("Career").
		Where("is_active = ?", true).
		Where(r.db.Where("advisor_id = ?", userID).
			Or("co_advisor_id = ?", userID).
			Or("thesis_id IN (?)", juryThesisIDs)).
		Order("created_at DESC").
		Find(&theses).Error
	return theses, err
}

// ListInProgressByStudent 作为作者或合著者、且处于在办状态的论文
func (r *thesisRepo) ListInProgressByStudent(ctx context.Context, userID string) ([]model.Thesis, error) {
	var theses []model.Thesis
	err := r.db.WithContext(ctx).
		Preload("Career").
		Where("is_active = ? AND status IN ?", true, model.InProgressStatuses()).
		Where("author_id = ? OR co_author_id = ?", userID, userID).
		Order("created_at DESC").
		Find(&theses).Error
	return theses, err
}

// ExistsInProgressInCareer 任一用户（作为作者或合著者）在该专业下是否已有在办论文
func (r *thesisRepo) ExistsInProgressInCareer(ctx context.Context, userIDs []string, careerID, excludeID string) (bool, error) {
	var count int64
	db := r.db.WithContext(ctx).
		Model(&model.Thesis{}).
		Where("is_active = ? AND career_id = ? AND status IN ?", true, careerID, model.InProgressStatuses()).
		Where("author_id IN ? OR co_author_id IN ?", userIDs, userIDs)
	if excludeID != "" {
		db = db.Where("thesis_id <> ?", excludeID)
	}
	if err := db.Count(&count).Error; err != nil {
		return false, err
	}
	return count > 0, nil
}

// ── 状态历史（只追加）──

func (r *thesisRepo) CreateHistory(ctx context.Context, history *model.ThesisStatusHistory) error {
	return r.db.WithContext(ctx).Create(history).Error
}

func (r *thesisRepo) ListHistory(ctx context.Context, thesisID string) ([]model.ThesisStatusHistory, error) {
	var histories []model.ThesisStatusHistory
	err := r.db.WithContext(ctx).
		Where("thesis_id = ?", thesisID).
		Order("created_at DESC").
		Find(&histories).Error
	return histories, err
}
