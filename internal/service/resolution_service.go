package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
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

// ── 决议模块业务错误 ──

var (
	ErrResolutionNotFound       = pkgerrors.New(pkgerrors.KindNotFound, "决议不存在")
	ErrResolutionTypeInvalid    = pkgerrors.New(pkgerrors.KindValidation, "决议类型无效")
	ErrResolutionIssuedAtFormat = pkgerrors.New(pkgerrors.KindValidation, "决议签发日期格式无效")
	ErrResolutionNumberConflict = pkgerrors.New(pkgerrors.KindConflict, "决议编号冲突，请重试")
	ErrResolutionNotIssuer      = pkgerrors.New(pkgerrors.KindForbidden, "只有签发人或管理员可以修改该决议")
)

// ResolutionService 决议业务接口
type ResolutionService interface {
	Create(ctx context.Context, req *dto.CreateResolutionRequest, actor workflow.Actor) (*dto.ResolutionResponse, error)
	List(ctx context.Context, req *dto.ResolutionListRequest) ([]dto.ResolutionResponse, int64, error)
	ListByThesis(ctx context.Context, thesisID string, actor workflow.Actor) ([]dto.ResolutionResponse, error)
	GetByID(ctx context.Context, id string, actor workflow.Actor) (*dto.ResolutionResponse, error)
	GetByNumber(ctx context.Context, number string, actor workflow.Actor) (*dto.ResolutionResponse, error)
	Update(ctx context.Context, id string, req *dto.UpdateResolutionRequest, actor workflow.Actor) (*dto.ResolutionResponse, error)
	Remove(ctx context.Context, id string, actor workflow.Actor) error
	Types() []dto.ResolutionTypeResponse
}

type resolutionService struct {
	repo        *repository.Repository
	transitions *transitioner
	notifier    Notifier
	clock       clock.Clock
	loc         *time.Location
	logger      *zap.Logger
}

// NewResolutionService 创建 ResolutionService 实例
// loc 决定编号所属年度与纯日期签发时间的解析
func NewResolutionService(
	repo *repository.Repository,
	deadlines DeadlineService,
	notifier Notifier,
	clk clock.Clock,
	loc *time.Location,
	logger *zap.Logger,
) ResolutionService {
	if loc == nil {
		loc = time.UTC
	}
	return &resolutionService{
		repo: repo,
		transitions: &transitioner{
			repo:      repo,
			deadlines: deadlines,
			notifier:  notifier,
			clock:     clk,
			logger:    logger,
		},
		notifier: notifier,
		clock:    clk,
		loc:      loc,
		logger:   logger,
	}
}

// resolutionSnapshot 决议触发状态流转时写入历史的元数据
type resolutionSnapshot struct {
	ResolutionID     string `json:"resolution_id"`
	ResolutionNumber string `json:"resolution_number"`
	Type             string `json:"type"`
}

// ────────────────────── Create ──────────────────────

// Create 发布决议并在事务内分配编号。
// 已通过的论文收到开题批准决议时，同一事务内流转到 RESOLUTION_ISSUED。
func (s *resolutionService) Create(ctx context.Context, req *dto.CreateResolutionRequest, actor workflow.Actor) (*dto.ResolutionResponse, error) {
	if err := workflow.Authorize(workflow.OpIssueResolution, workflow.ResolveCapabilities(actor, nil, nil)); err != nil {
		return nil, err
	}
	typ := model.ResolutionType(req.Type)
	if !typ.IsValid() {
		return nil, ErrResolutionTypeInvalid
	}
	issuedAt := s.clock.Now()
	if req.IssuedAt != nil && *req.IssuedAt != "" {
		t, err := parseIssuedAt(*req.IssuedAt, s.loc)
		if err != nil {
			return nil, ErrResolutionIssuedAtFormat
		}
		issuedAt = t
	}

	thesis, err := s.repo.Thesis.GetByID(ctx, req.ThesisID)
	if err != nil {
		return nil, mapThesisLookupError(s.logger, req.ThesisID, err)
	}

	resolution := &model.Resolution{
		ThesisID:    req.ThesisID,
		Type:        typ,
		Description: req.Description,
		DocumentURL: req.DocumentURL,
		IssuedAt:    issuedAt,
		IssuedByID:  actor.ID,
	}
	resolution.CreatedBy = &actor.ID
	resolution.UpdatedBy = &actor.ID

	if typ == model.ResolutionProjectApproval && thesis.Status == model.StatusApproved {
		return s.createWithTransition(ctx, resolution, actor)
	}

	err = s.repo.Transaction(ctx, func(tx *repository.Repository) error {
		if _, err := tx.Thesis.GetForUpdate(ctx, req.ThesisID); err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return ErrThesisNotFound
			}
			return err
		}
		return s.issue(ctx, tx, resolution)
	})
	if err != nil {
		if pkgerrors.KindOf(err) == "" {
			s.logger.Error("发布决议失败", zap.String("thesis_id", req.ThesisID), zap.Error(err))
		}
		return nil, err
	}

	s.logIssued(resolution, actor)
	s.notifyIssued(ctx, thesis, resolution)
	resolution.Thesis = thesis
	return toResolutionResponse(resolution), nil
}

func (s *resolutionService) createWithTransition(ctx context.Context, resolution *model.Resolution, actor workflow.Actor) (*dto.ResolutionResponse, error) {
	result, err := s.transitions.run(ctx, transitionRequest{
		ThesisID: resolution.ThesisID,
		Target:   model.StatusResolutionIssued,
		ActorID:  actor.ID,
		Reason:   "发布" + workflow.ResolutionTypeLabel(resolution.Type) + "决议",
		Prepare: func(tx *repository.Repository, _ *model.Thesis) ([]byte, error) {
			if err := s.issue(ctx, tx, resolution); err != nil {
				return nil, err
			}
			return json.Marshal(resolutionSnapshot{
				ResolutionID:     resolution.ResolutionID,
				ResolutionNumber: resolution.ResolutionNumber,
				Type:             string(resolution.Type),
			})
		},
	})
	if err != nil {
		return nil, err
	}

	s.logIssued(resolution, actor)
	s.transitions.afterTransition(ctx, result.Change)
	s.transitions.notifyStatusChange(ctx, result.Thesis)
	s.notifyIssued(ctx, result.Thesis, resolution)
	resolution.Thesis = result.Thesis
	return toResolutionResponse(resolution), nil
}

// issue 在事务内分配编号并写入决议：同一年度的编号分配由事务级咨询锁串行化
func (s *resolutionService) issue(ctx context.Context, tx *repository.Repository, resolution *model.Resolution) error {
	year := resolution.IssuedAt.In(s.loc).Year()
	prefix := workflow.ResolutionNumberPrefix(year)
	if err := tx.Resolution.LockNumbering(ctx, prefix); err != nil {
		return err
	}
	last, err := tx.Resolution.LastNumberWithPrefix(ctx, prefix)
	if err != nil {
		return err
	}
	number, err := workflow.NextResolutionNumber(year, last)
	if err != nil {
		return err
	}
	resolution.ResolutionNumber = number
	if err := tx.Resolution.Create(ctx, resolution); err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return ErrResolutionNumberConflict
		}
		return err
	}
	return nil
}

// ────────────────────── 查询 ──────────────────────

func (s *resolutionService) List(ctx context.Context, req *dto.ResolutionListRequest) ([]dto.ResolutionResponse, int64, error) {
	filter := repository.ResolutionFilter{ThesisID: req.ThesisID}
	if req.Type != "" {
		filter.Type = model.ResolutionType(req.Type)
		if !filter.Type.IsValid() {
			return nil, 0, ErrResolutionTypeInvalid
		}
	}
	list, total, err := s.repo.Resolution.List(ctx, filter, req.Offset(), req.GetPageSize())
	if err != nil {
		s.logger.Error("查询决议列表失败", zap.Error(err))
		return nil, 0, err
	}
	return toResolutionResponses(list), total, nil
}

func (s *resolutionService) ListByThesis(ctx context.Context, thesisID string, actor workflow.Actor) ([]dto.ResolutionResponse, error) {
	if err := s.authorizeView(ctx, thesisID, actor); err != nil {
		return nil, err
	}
	list, err := s.repo.Resolution.ListByThesis(ctx, thesisID)
	if err != nil {
		s.logger.Error("查询论文决议失败", zap.String("thesis_id", thesisID), zap.Error(err))
		return nil, err
	}
	return toResolutionResponses(list), nil
}

func (s *resolutionService) GetByID(ctx context.Context, id string, actor workflow.Actor) (*dto.ResolutionResponse, error) {
	resolution, err := s.getResolution(ctx, s.repo, id)
	if err != nil {
		return nil, err
	}
	if err := s.authorizeView(ctx, resolution.ThesisID, actor); err != nil {
		return nil, err
	}
	return toResolutionResponse(resolution), nil
}

func (s *resolutionService) GetByNumber(ctx context.Context, number string, actor workflow.Actor) (*dto.ResolutionResponse, error) {
	resolution, err := s.repo.Resolution.GetByNumber(ctx, number)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrResolutionNotFound
		}
		s.logger.Error("按编号查询决议失败", zap.String("resolution_number", number), zap.Error(err))
		return nil, err
	}
	if err := s.authorizeView(ctx, resolution.ThesisID, actor); err != nil {
		return nil, err
	}
	return toResolutionResponse(resolution), nil
}

// Types 全部决议类型及显示名称
func (s *resolutionService) Types() []dto.ResolutionTypeResponse {
	result := make([]dto.ResolutionTypeResponse, 0, len(model.AllResolutionTypes))
	for _, t := range model.AllResolutionTypes {
		result = append(result, dto.ResolutionTypeResponse{Value: string(t), Label: workflow.ResolutionTypeLabel(t)})
	}
	return result
}

// ────────────────────── Update / Remove ──────────────────────

// Update 修改说明与文档链接；协调员只能修改自己签发的决议
func (s *resolutionService) Update(ctx context.Context, id string, req *dto.UpdateResolutionRequest, actor workflow.Actor) (*dto.ResolutionResponse, error) {
	if err := workflow.Authorize(workflow.OpUpdateResolution, workflow.ResolveCapabilities(actor, nil, nil)); err != nil {
		return nil, err
	}

	var resolution *model.Resolution
	err := s.repo.Transaction(ctx, func(tx *repository.Repository) error {
		var err error
		resolution, err = s.getResolution(ctx, tx, id)
		if err != nil {
			return err
		}
		if resolution.IssuedByID != actor.ID && !actor.HasRole(model.RoleAdmin) {
			return ErrResolutionNotIssuer
		}
		if req.Description != nil {
			resolution.Description = *req.Description
		}
		if req.DocumentURL != nil {
			resolution.DocumentURL = req.DocumentURL
		}
		resolution.UpdatedBy = &actor.ID
		return tx.Resolution.Update(ctx, resolution)
	})
	if err != nil {
		if pkgerrors.KindOf(err) == "" {
			s.logger.Error("更新决议失败", zap.String("resolution_id", id), zap.Error(err))
		}
		return nil, err
	}

	s.logger.Info("更新决议", zap.String("resolution_id", id), zap.String("actor_id", actor.ID))
	return toResolutionResponse(resolution), nil
}

// Remove 删除决议（仅管理员），不回退论文状态
func (s *resolutionService) Remove(ctx context.Context, id string, actor workflow.Actor) error {
	if err := workflow.Authorize(workflow.OpRemoveResolution, workflow.ResolveCapabilities(actor, nil, nil)); err != nil {
		return err
	}
	resolution, err := s.getResolution(ctx, s.repo, id)
	if err != nil {
		return err
	}
	if err := s.repo.Resolution.Delete(ctx, id); err != nil {
		s.logger.Error("删除决议失败", zap.String("resolution_id", id), zap.Error(err))
		return err
	}

	s.logger.Info("删除决议",
		zap.String("resolution_id", id),
		zap.String("resolution_number", resolution.ResolutionNumber),
		zap.String("actor_id", actor.ID),
	)
	return nil
}

// ── 辅助 ──

func (s *resolutionService) authorizeView(ctx context.Context, thesisID string, actor workflow.Actor) error {
	thesis, err := s.repo.Thesis.GetByID(ctx, thesisID)
	if err != nil {
		return mapThesisLookupError(s.logger, thesisID, err)
	}
	members, err := s.repo.Jury.ListActiveMembers(ctx, thesisID)
	if err != nil {
		s.logger.Error("查询评审委员失败", zap.String("thesis_id", thesisID), zap.Error(err))
		return err
	}
	return workflow.Authorize(workflow.OpViewResolutions, workflow.ResolveCapabilities(actor, thesis, members))
}

func (s *resolutionService) getResolution(ctx context.Context, repo *repository.Repository, id string) (*model.Resolution, error) {
	resolution, err := repo.Resolution.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrResolutionNotFound
		}
		s.logger.Error("查询决议失败", zap.String("resolution_id", id), zap.Error(err))
		return nil, err
	}
	return resolution, nil
}

func (s *resolutionService) logIssued(resolution *model.Resolution, actor workflow.Actor) {
	s.logger.Info("发布决议",
		zap.String("resolution_id", resolution.ResolutionID),
		zap.String("resolution_number", resolution.ResolutionNumber),
		zap.String("thesis_id", resolution.ThesisID),
		zap.String("type", string(resolution.Type)),
		zap.String("actor_id", actor.ID),
	)
}

// notifyIssued 通知作者与合著者决议已发布
func (s *resolutionService) notifyIssued(ctx context.Context, thesis *model.Thesis, resolution *model.Resolution) {
	notifyUsers(ctx, s.notifier, s.logger, thesis.StudentIDs(),
		"决议已发布",
		fmt.Sprintf("您的论文《%s》已发布%s决议，编号 %s。",
			shortTitle(thesis.Title, 50), workflow.ResolutionTypeLabel(resolution.Type), resolution.ResolutionNumber),
		RelatedResolution, resolution.ResolutionID)
}

// parseIssuedAt 支持 RFC3339 与 "2006-01-02"（按当日零点计）
func parseIssuedAt(value string, loc *time.Location) (time.Time, error) {
	if t, err := time.Parse(time.RFC3339, value); err == nil {
		return t, nil
	}
	return time.ParseInLocation("2006-01-02", value, loc)
}

func toResolutionResponse(r *model.Resolution) *dto.ResolutionResponse {
	resp := &dto.ResolutionResponse{
		ID:               r.ResolutionID,
		ThesisID:         r.ThesisID,
		ResolutionNumber: r.ResolutionNumber,
		Type:             string(r.Type),
		TypeLabel:        workflow.ResolutionTypeLabel(r.Type),
		Description:      r.Description,
		DocumentURL:      r.DocumentURL,
		IssuedAt:         r.IssuedAt.Format(time.RFC3339),
		IssuedByID:       r.IssuedByID,
		CreatedAt:        r.CreatedAt.Format(time.RFC3339),
	}
	if r.Thesis != nil {
		resp.ThesisTitle = r.Thesis.Title
		resp.ThesisStatus = string(r.Thesis.Status)
	}
	if r.IssuedBy != nil {
		resp.IssuedBy = &dto.UserBrief{
			ID:        r.IssuedBy.UserID,
			FirstName: r.IssuedBy.FirstName,
			LastName:  r.IssuedBy.LastName,
			Email:     r.IssuedBy.Email,
		}
	}
	return resp
}

func toResolutionResponses(list []model.Resolution) []dto.ResolutionResponse {
	result := make([]dto.ResolutionResponse, 0, len(list))
	for i := range list {
		result = append(result, *toResolutionResponse(&list[i]))
	}
	return result
}
