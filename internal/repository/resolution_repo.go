package repository

import (
	"context"
	"errors"

	"gorm.io/gorm"

	"github.com/otidevv/backend-seguimiento-tesis/internal/model"
)

// ResolutionFilter 决议列表筛选条件
type ResolutionFilter struct {
	ThesisID string
	Type     model.ResolutionType
}

// ResolutionRepository 决议数据访问接口
type ResolutionRepository interface {
	Create(ctx context.Context, res *model.Resolution) error
	GetByID(ctx context.Context, id string) (*model.Resolution, error)
	GetByNumber(ctx context.Context, number string) (*model.Resolution, error)
	List(ctx context.Context, f ResolutionFilter, offset, limit int) ([]model.Resolution, int64, error)
	ListByThesis(ctx context.Context, thesisID string) ([]model.Resolution, error)
	Update(ctx context.Context, res *model.Resolution) error
	Delete(ctx context.Context, id string) error

	// LockNumbering 在当前事务内独占某编号前缀，事务结束自动释放
	LockNumbering(ctx context.Context, prefix string) error
	// LastNumberWithPrefix 该前缀下序号最大的编号；不存在时返回空串
	LastNumberWithPrefix(ctx context.Context, prefix string) (string, error)
}

type resolutionRepo struct {
	db *gorm.DB
}

// NewResolutionRepo 创建 ResolutionRepository 实例
func NewResolutionRepo(db *gorm.DB) ResolutionRepository {
	return &resolutionRepo{db: db}
}

func (r *resolutionRepo) Create(ctx context.Context, res *model.Resolution) error {
	return r.db.WithContext(ctx).Create(res).Error
}

func (r *resolutionRepo) GetByID(ctx context.Context, id string) (*model.Resolution, error) {
	var res model.Resolution
	err := r.db.WithContext(ctx).
		Preload("Thesis").
		Preload("IssuedBy").
		Where("resolution_id = ?", id).
		First(&res).Error
	if err != nil {
		return nil, err
	}
	return &res, nil
}

func (r *resolutionRepo) GetByNumber(ctx context.Context, number string) (*model.Resolution, error) {
	var res model.Resolution
	err := r.db.WithContext(ctx).
		Preload("Thesis").
		Preload("IssuedBy").
		Where("resolution_number = ?", number).
		First(&res).Error
	if err != nil {
		return nil, err
	}
	return &res, nil
}

func (r *resolutionRepo) List(ctx context.Context, f ResolutionFilter, offset, limit int) ([]model.Resolution, int64, error) {
	var list []model.Resolution
	var total int64

	db := r.db.WithContext(ctx).Model(&model.Resolution{})
	if f.ThesisID != "" {
		db = db.Where("thesis_id = ?", f.ThesisID)
	}
	if f.Type != "" {
		db = db.Where("type = ?", f.Type)
	}
	if err := db.Count(&total).Error; err != nil {
		return nil, 0, err
	}
	if err := db.Preload("Thesis").
		Preload("IssuedBy").
		Order("issued_at DESC").
		Offset(offset).Limit(limit).
		Find(&list).Error; err != nil {
		return nil, 0, err
	}
	return list, total, nil
}

func (r *resolutionRepo) ListByThesis(ctx context.Context, thesisID string) ([]model.Resolution, error) {
	var list []model.Resolution
	err := r.db.WithContext(ctx).
		Preload("IssuedBy").
		Where("thesis_id = ?", thesisID).
		Order("issued_at DESC").
		Find(&list).Error
	return list, err
}

func (r *resolutionRepo) Update(ctx context.Context, res *model.Resolution) error {
	return r.db.WithContext(ctx).
		Model(&model.Resolution{}).
		Where("resolution_id = ?", res.ResolutionID).
		Updates(map[string]interface{}{
			"description":  res.Description,
			"document_url": res.DocumentURL,
			"updated_by":   res.UpdatedBy,
			"updated_at":   gorm.Expr("NOW()"),
		}).Error
}

func (r *resolutionRepo) Delete(ctx context.Context, id string) error {
	return r.db.WithContext(ctx).
		Where("resolution_id = ?", id).
		Delete(&model.Resolution{}).Error
}

func (r *resolutionRepo) LockNumbering(ctx context.Context, prefix string) error {
	return r.db.WithContext(ctx).
		Exec("SELECT pg_advisory_xact_lock(hashtext(?))", "resolutions:"+prefix).Error
}

// LastNumberWithPrefix 序号位数可能超过 4 位，先按长度再按字典序取最大
func (r *resolutionRepo) LastNumberWithPrefix(ctx context.Context, prefix string) (string, error) {
	var res model.Resolution
	err := r.db.WithContext(ctx).
		Select("resolution_number").
		Where("resolution_number LIKE ?", prefix+"%").
		Order("LENGTH(resolution_number) DESC, resolution_number DESC").
		First(&res).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return "", nil
	}
	if err != nil {
		return "", err
	}
	return res.ResolutionNumber, nil
}
