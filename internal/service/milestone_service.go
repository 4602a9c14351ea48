package service

import (
	"context"
	"errors"
	"strings"
	"time"

	"go.uber.org/zap"
	"gorm.io/gorm"

	"github.com/otidevv/backend-seguimiento-tesis/internal/dto"
	"github.com/otidevv/backend-seguimiento-tesis/internal/model"
	"github.com/otidevv/backend-seguimiento-tesis/internal/repository"
	"github.com/otidevv/backend-seguimiento-tesis/internal/workflow"
	"github.com/otidevv/backend-seguimiento-tesis/pkg/clock"
	pkgerrors "github.com/otidevv/backend-seguimiento-tesis/pkg/errors"
)

// ── 里程碑模块业务错误 ──

var (
	ErrMilestoneNotFound       = pkgerrors.New(pkgerrors.KindNotFound, "里程碑不存在")
	ErrMilestoneTitleEmpty     = pkgerrors.New(pkgerrors.KindValidation, "里程碑标题不能为空")
	ErrMilestoneDueDateInvalid = pkgerrors.New(pkgerrors.KindValidation, "里程碑截止日期格式无效")
)

// MilestoneService 论文里程碑业务接口
type MilestoneService interface {
	Create(ctx context.Context, thesisID string, req *dto.CreateMilestoneRequest, actor workflow.Actor) (*dto.MilestoneResponse, error)
	ListByThesis(ctx context.Context, thesisID string, actor workflow.Actor) ([]dto.MilestoneResponse, error)
	GetByID(ctx context.Context, id string, actor workflow.Actor) (*dto.MilestoneResponse, error)
	Update(ctx context.Context, id string, req *dto.UpdateMilestoneRequest, actor workflow.Actor) (*dto.MilestoneResponse, error)
	Complete(ctx context.Context, id string, actor workflow.Actor) (*dto.MilestoneResponse, error)
	Uncomplete(ctx context.Context, id string, actor workflow.Actor) (*dto.MilestoneResponse, error)
	Remove(ctx context.Context, id string, actor workflow.Actor) error
	Reorder(ctx context.Context, thesisID string, req *dto.ReorderMilestonesRequest, actor workflow.Actor) ([]dto.MilestoneResponse, error)
}

type milestoneService struct {
	repo   *repository.Repository
	clock  clock.Clock
	loc    *time.Location
	logger *zap.Logger
}

// NewMilestoneService 创建 MilestoneService 实例
func NewMilestoneService(repo *repository.Repository, clk clock.Clock, loc *time.Location, logger *zap.Logger) MilestoneService {
	if loc == nil {
		loc = time.UTC
	}
	return &milestoneService{repo: repo, clock: clk, loc: loc, logger: logger}
}

func (s *milestoneService) Create(ctx context.Context, thesisID string, req *dto.CreateMilestoneRequest, actor workflow.Actor) (*dto.MilestoneResponse, error) {
	title := strings.TrimSpace(req.Title)
	if title == "" {
		return nil, ErrMilestoneTitleEmpty
	}
	due, err := s.parseOptionalDate(req.DueDate)
	if err != nil {
		return nil, err
	}

	milestone := &model.Milestone{
		ThesisID:    thesisID,
		Title:       title,
		Description: req.Description,
		DueDate:     due,
	}
	milestone.CreatedBy = &actor.ID
	milestone.UpdatedBy = &actor.ID

	err = s.repo.Transaction(ctx, func(tx *repository.Repository) error {
		if _, err := s.authorize(ctx, tx, thesisID, workflow.OpManageMilestones, actor, true); err != nil {
			return err
		}
		if req.Order != nil {
			milestone.SortOrder = *req.Order
		} else {
			last, err := tx.Milestone.MaxOrder(ctx, thesisID)
			if err != nil {
				return err
			}
			milestone.SortOrder = last + 1
		}
		return tx.Milestone.Create(ctx, milestone)
	})
	if err != nil {
		if pkgerrors.KindOf(err) == "" {
			s.logger.Error("创建里程碑失败", zap.String("thesis_id", thesisID), zap.Error(err))
		}
		return nil, err
	}

	s.logger.Info("创建里程碑",
		zap.String("milestone_id", milestone.MilestoneID),
		zap.String("thesis_id", thesisID),
		zap.Int("order", milestone.SortOrder),
	)
	return toMilestoneResponse(milestone), nil
}

func (s *milestoneService) ListByThesis(ctx context.Context, thesisID string, actor workflow.Actor) ([]dto.MilestoneResponse, error) {
	if _, err := s.authorize(ctx, s.repo, thesisID, workflow.OpViewMilestones, actor, false); err != nil {
		return nil, err
	}
	list, err := s.repo.Milestone.ListByThesis(ctx, thesisID)
	if err != nil {
		s.logger.Error("查询里程碑失败", zap.String("thesis_id", thesisID), zap.Error(err))
		return nil, err
	}
	return toMilestoneResponses(list), nil
}

func (s *milestoneService) GetByID(ctx context.Context, id string, actor workflow.Actor) (*dto.MilestoneResponse, error) {
	milestone, err := s.getMilestone(ctx, s.repo, id)
	if err != nil {
		return nil, err
	}
	if _, err := s.authorize(ctx, s.repo, milestone.ThesisID, workflow.OpViewMilestones, actor, false); err != nil {
		return nil, err
	}
	return toMilestoneResponse(milestone), nil
}

func (s *milestoneService) Update(ctx context.Context, id string, req *dto.UpdateMilestoneRequest, actor workflow.Actor) (*dto.MilestoneResponse, error) {
	due, err := s.parseOptionalDate(req.DueDate)
	if err != nil {
		return nil, err
	}
	return s.modify(ctx, id, actor, "更新里程碑", func(m *model.Milestone) error {
		if req.Title != nil {
			title := strings.TrimSpace(*req.Title)
			if title == "" {
				return ErrMilestoneTitleEmpty
			}
			m.Title = title
		}
		if req.Description != nil {
			m.Description = req.Description
		}
		if due != nil {
			m.DueDate = due
		}
		if req.Order != nil {
			m.SortOrder = *req.Order
		}
		return nil
	})
}

// Complete 标记完成，已完成的里程碑保留原完成时间
func (s *milestoneService) Complete(ctx context.Context, id string, actor workflow.Actor) (*dto.MilestoneResponse, error) {
	return s.modify(ctx, id, actor, "完成里程碑", func(m *model.Milestone) error {
		if m.IsCompleted {
			return nil
		}
		now := s.clock.Now()
		m.IsCompleted = true
		m.CompletedAt = &now
		return nil
	})
}

func (s *milestoneService) Uncomplete(ctx context.Context, id string, actor workflow.Actor) (*dto.MilestoneResponse, error) {
	return s.modify(ctx, id, actor, "撤销完成里程碑", func(m *model.Milestone) error {
		m.IsCompleted = false
		m.CompletedAt = nil
		return nil
	})
}

func (s *milestoneService) Remove(ctx context.Context, id string, actor workflow.Actor) error {
	var thesisID string
	err := s.repo.Transaction(ctx, func(tx *repository.Repository) error {
		milestone, err := s.getMilestone(ctx, tx, id)
		if err != nil {
			return err
		}
		thesisID = milestone.ThesisID
		if _, err := s.authorize(ctx, tx, milestone.ThesisID, workflow.OpManageMilestones, actor, true); err != nil {
			return err
		}
		return tx.Milestone.Delete(ctx, id)
	})
	if err != nil {
		if pkgerrors.KindOf(err) == "" {
			s.logger.Error("删除里程碑失败", zap.String("milestone_id", id), zap.Error(err))
		}
		return err
	}

	s.logger.Info("删除里程碑",
		zap.String("milestone_id", id),
		zap.String("thesis_id", thesisID),
		zap.String("actor_id", actor.ID),
	)
	return nil
}

// Reorder 按给定顺序重排论文的全部里程碑，校验与写入在同一事务中完成；
// 论文行锁使同一论文的并发重排串行执行
func (s *milestoneService) Reorder(ctx context.Context, thesisID string, req *dto.ReorderMilestonesRequest, actor workflow.Actor) ([]dto.MilestoneResponse, error) {
	var result []model.Milestone
	err := s.repo.Transaction(ctx, func(tx *repository.Repository) error {
		if _, err := s.authorize(ctx, tx, thesisID, workflow.OpManageMilestones, actor, true); err != nil {
			return err
		}
		existing, err := tx.Milestone.ListByThesis(ctx, thesisID)
		if err != nil {
			return err
		}
		ids := make([]string, 0, len(existing))
		for _, m := range existing {
			ids = append(ids, m.MilestoneID)
		}
		if err := workflow.ValidateReorder(ids, req.MilestoneIDs); err != nil {
			return err
		}
		for i, id := range req.MilestoneIDs {
			if err := tx.Milestone.UpdateOrder(ctx, id, i); err != nil {
				return err
			}
		}
		result, err = tx.Milestone.ListByThesis(ctx, thesisID)
		return err
	})
	if err != nil {
		if pkgerrors.KindOf(err) == "" {
			s.logger.Error("重排里程碑失败", zap.String("thesis_id", thesisID), zap.Error(err))
		}
		return nil, err
	}

	s.logger.Info("重排里程碑",
		zap.String("thesis_id", thesisID),
		zap.Int("count", len(result)),
		zap.String("actor_id", actor.ID),
	)
	return toMilestoneResponses(result), nil
}

// ── 辅助 ──

// modify 在事务内读取里程碑、校验权限并应用 fn 后写回
func (s *milestoneService) modify(ctx context.Context, id string, actor workflow.Actor, action string, fn func(m *model.Milestone) error) (*dto.MilestoneResponse, error) {
	var milestone *model.Milestone
	err := s.repo.Transaction(ctx, func(tx *repository.Repository) error {
		var err error
		milestone, err = s.getMilestone(ctx, tx, id)
		if err != nil {
			return err
		}
		if _, err := s.authorize(ctx, tx, milestone.ThesisID, workflow.OpManageMilestones, actor, true); err != nil {
			return err
		}
		if err := fn(milestone); err != nil {
			return err
		}
		milestone.UpdatedBy = &actor.ID
		return tx.Milestone.Update(ctx, milestone)
	})
	if err != nil {
		if pkgerrors.KindOf(err) == "" {
			s.logger.Error(action+"失败", zap.String("milestone_id", id), zap.Error(err))
		}
		return nil, err
	}

	s.logger.Info(action, zap.String("milestone_id", id), zap.String("actor_id", actor.ID))
	return toMilestoneResponse(milestone), nil
}

// authorize 读取论文（lock 为 true 时加行锁）并按操作校验权限；已删除的论文视为不存在
func (s *milestoneService) authorize(ctx context.Context, repo *repository.Repository, thesisID string, op workflow.Operation, actor workflow.Actor, lock bool) (*model.Thesis, error) {
	var (
		thesis *model.Thesis
		err    error
	)
	if lock {
		thesis, err = repo.Thesis.GetForUpdate(ctx, thesisID)
	} else {
		thesis, err = repo.Thesis.GetByID(ctx, thesisID)
	}
	if err != nil {
		return nil, mapThesisLookupError(s.logger, thesisID, err)
	}

	var members []model.JuryMember
	if op == workflow.OpViewMilestones {
		if members, err = repo.Jury.ListActiveMembers(ctx, thesisID); err != nil {
			return nil, err
		}
	}
	if err := workflow.Authorize(op, workflow.ResolveCapabilities(actor, thesis, members)); err != nil {
		return nil, err
	}
	return thesis, nil
}

func (s *milestoneService) getMilestone(ctx context.Context, repo *repository.Repository, id string) (*model.Milestone, error) {
	milestone, err := repo.Milestone.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrMilestoneNotFound
		}
		s.logger.Error("查询里程碑失败", zap.String("milestone_id", id), zap.Error(err))
		return nil, err
	}
	return milestone, nil
}

func (s *milestoneService) parseOptionalDate(value *string) (*time.Time, error) {
	if value == nil || *value == "" {
		return nil, nil
	}
	t, err := parseDueDate(*value, s.loc)
	if err != nil {
		return nil, ErrMilestoneDueDateInvalid
	}
	return &t, nil
}

func toMilestoneResponse(m *model.Milestone) *dto.MilestoneResponse {
	resp := &dto.MilestoneResponse{
		ID:          m.MilestoneID,
		ThesisID:    m.ThesisID,
		Title:       m.Title,
		Description: m.Description,
		Order:       m.SortOrder,
		IsCompleted: m.IsCompleted,
		CreatedAt:   m.CreatedAt.Format(time.RFC3339),
	}
	if m.DueDate != nil {
		v := m.DueDate.Format(time.RFC3339)
		resp.DueDate = &v
	}
	if m.CompletedAt != nil {
		v := m.CompletedAt.Format(time.RFC3339)
		resp.CompletedAt = &v
	}
	return resp
}

func toMilestoneResponses(list []model.Milestone) []dto.MilestoneResponse {
	result := make([]dto.MilestoneResponse, 0, len(list))
	for i := range list {
		result = append(result, *toMilestoneResponse(&list[i]))
	}
	return result
}
