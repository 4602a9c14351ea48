package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"
	"gorm.io/gorm"

	"github.com/otidevv/backend-seguimiento-tesis/config"
	"github.com/otidevv/backend-seguimiento-tesis/internal/dto"
	"github.com/otidevv/backend-seguimiento-tesis/internal/model"
	"github.com/otidevv/backend-seguimiento-tesis/internal/repository"
	"github.com/otidevv/backend-seguimiento-tesis/internal/workflow"
	"github.com/otidevv/backend-seguimiento-tesis/pkg/clock"
	pkgerrors "github.com/otidevv/backend-seguimiento-tesis/pkg/errors"
)

// ── 论文模块业务错误 ──

var (
	ErrThesisNotFound         = pkgerrors.New(pkgerrors.KindNotFound, "论文不存在")
	ErrThesisNotDraft         = pkgerrors.New(pkgerrors.KindInvalidState, "仅草稿状态的论文可执行该操作")
	ErrThesisNotForwarded     = pkgerrors.New(pkgerrors.KindInvalidState, "仅已转送学院的论文可指派评审委员会")
	ErrThesisStatusInvalid    = pkgerrors.New(pkgerrors.KindValidation, "论文状态值无效")
	ErrThesisInProgressExists = pkgerrors.New(pkgerrors.KindConflict, "作者或合著者在该专业已有在办论文")
	ErrCareerNotFound         = pkgerrors.New(pkgerrors.KindNotFound, "专业不存在")
	ErrUserNotFound           = pkgerrors.New(pkgerrors.KindNotFound, "用户不存在")
	ErrAuthorNotStudent       = pkgerrors.New(pkgerrors.KindValidation, "论文作者须为学生")
	ErrAdvisorNotFound        = pkgerrors.New(pkgerrors.KindNotFound, "指导教师不存在")
	ErrAdvisorNotFaculty      = pkgerrors.New(pkgerrors.KindValidation, "指导教师须具备教师身份")
	ErrCoAuthorSameAsAuthor   = pkgerrors.New(pkgerrors.KindValidation, "合著者不能与作者相同")
	ErrCoAuthorNotFound       = pkgerrors.New(pkgerrors.KindNotFound, "合著者不存在")
	ErrCoAuthorNotStudent     = pkgerrors.New(pkgerrors.KindValidation, "合著者须为学生")
	ErrCoAdvisorNotFound      = pkgerrors.New(pkgerrors.KindNotFound, "共同指导教师不存在")
	ErrCoAdvisorNotFaculty    = pkgerrors.New(pkgerrors.KindValidation, "共同指导教师须具备教师身份")
	ErrJuryMemberNotFaculty   = pkgerrors.New(pkgerrors.KindValidation, "评审委员须为在职教师")
)

// ThesisService 论文生命周期业务接口
type ThesisService interface {
	Create(ctx context.Context, req *dto.CreateThesisRequest, actor workflow.Actor) (*dto.ThesisResponse, error)
	GetByID(ctx context.Context, id string) (*dto.ThesisResponse, error)
	List(ctx context.Context, req *dto.ThesisListRequest, actor workflow.Actor) ([]dto.ThesisResponse, int64, error)
	ListMine(ctx context.Context, actor workflow.Actor) ([]dto.ThesisResponse, error)
	ListActiveByUser(ctx context.Context, userID string) ([]dto.ThesisResponse, error)
	Update(ctx context.Context, id string, req *dto.UpdateThesisRequest, actor workflow.Actor) (*dto.ThesisResponse, error)
	Submit(ctx context.Context, id string, actor workflow.Actor) (*dto.ThesisResponse, error)
	ChangeStatus(ctx context.Context, id string, req *dto.ChangeStatusRequest, actor workflow.Actor) (*dto.ThesisResponse, error)
	AssignJury(ctx context.Context, id string, req *dto.AssignJuryRequest, actor workflow.Actor) (*dto.ThesisResponse, error)
	Remove(ctx context.Context, id string, actor workflow.Actor) error
	GetStatusHistory(ctx context.Context, id string, actor workflow.Actor) ([]dto.StatusHistoryResponse, error)
}

type thesisService struct {
	cfg         config.DeadlineConfig
	repo        *repository.Repository
	transitions *transitioner
	notifier    Notifier
	clock       clock.Clock
	logger      *zap.Logger
}

// NewThesisService 创建 ThesisService 实例
func NewThesisService(
	cfg config.DeadlineConfig,
	repo *repository.Repository,
	deadlines DeadlineService,
	notifier Notifier,
	clk clock.Clock,
	logger *zap.Logger,
) ThesisService {
	return &thesisService{
		cfg:  cfg,
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
		logger:   logger,
	}
}

// ────────────────────── Create ──────────────────────

func (s *thesisService) Create(ctx context.Context, req *dto.CreateThesisRequest, actor workflow.Actor) (*dto.ThesisResponse, error) {
	author, err := s.getUser(ctx, actor.ID, ErrUserNotFound)
	if err != nil {
		return nil, err
	}
	if !author.IsStudent() {
		return nil, ErrAuthorNotStudent
	}

	career, err := s.repo.Career.GetByID(ctx, req.CareerID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrCareerNotFound
		}
		s.logger.Error("查询专业失败", zap.String("career_id", req.CareerID), zap.Error(err))
		return nil, err
	}

	if err := s.validateAdvisor(ctx, req.AdvisorID, ErrAdvisorNotFound, ErrAdvisorNotFaculty); err != nil {
		return nil, err
	}
	coAuthorID := normalizeOptionalID(req.CoAuthorID)
	if coAuthorID != nil {
		if err := s.validateCoAuthor(ctx, author.UserID, *coAuthorID); err != nil {
			return nil, err
		}
	}
	coAdvisorID := normalizeOptionalID(req.CoAdvisorID)
	if coAdvisorID != nil {
		if err := s.validateAdvisor(ctx, *coAdvisorID, ErrCoAdvisorNotFound, ErrCoAdvisorNotFaculty); err != nil {
			return nil, err
		}
	}

	students := []string{author.UserID}
	if coAuthorID != nil {
		students = append(students, *coAuthorID)
	}

	thesis := &model.Thesis{
		Title:          req.Title,
		Description:    req.Description,
		AcademicDegree: req.AcademicDegree,
		CareerID:       career.CareerID,
		AuthorID:       author.UserID,
		CoAuthorID:     coAuthorID,
		AdvisorID:      req.AdvisorID,
		CoAdvisorID:    coAdvisorID,
		Status:         model.StatusDraft,
		IsActive:       true,
		Version:        1,
	}
	thesis.CreatedBy = &actor.ID
	thesis.UpdatedBy = &actor.ID

	now := s.clock.Now()
	err = s.repo.Transaction(ctx, func(tx *repository.Repository) error {
		if err := s.ensureNoThesisInProgress(ctx, tx, students, career.CareerID, ""); err != nil {
			return err
		}
		if err := tx.Thesis.Create(ctx, thesis); err != nil {
			return err
		}
		return tx.Thesis.CreateHistory(ctx, &model.ThesisStatusHistory{
			ThesisID:    thesis.ThesisID,
			NewStatus:   model.StatusDraft,
			ChangedByID: actor.ID,
			Reason:      "论文创建",
			CreatedAt:   now,
		})
	})
	if err != nil {
		if pkgerrors.KindOf(err) == "" {
			s.logger.Error("创建论文失败", zap.String("author_id", actor.ID), zap.Error(err))
		}
		return nil, err
	}
	thesis.Career = career

	s.logger.Info("创建论文",
		zap.String("thesis_id", thesis.ThesisID),
		zap.String("author_id", thesis.AuthorID),
		zap.String("career_id", thesis.CareerID),
	)
	return toThesisResponse(thesis, nil), nil
}

// ────────────────────── 查询 ──────────────────────

func (s *thesisService) GetByID(ctx context.Context, id string) (*dto.ThesisResponse, error) {
	thesis, err := s.getThesis(ctx, id)
	if err != nil {
		return nil, err
	}
	members, err := s.repo.Jury.ListActiveMembers(ctx, id)
	if err != nil {
		s.logger.Error("查询评审委员失败", zap.String("thesis_id", id), zap.Error(err))
		return nil, err
	}
	return toThesisResponse(thesis, members), nil
}

// List 论文列表；非管理员的协调员只能查看本学院的论文
func (s *thesisService) List(ctx context.Context, req *dto.ThesisListRequest, actor workflow.Actor) ([]dto.ThesisResponse, int64, error) {
	filter, err := scopedThesisFilter(req, actor)
	if err != nil {
		return nil, 0, err
	}

	theses, total, err := s.repo.Thesis.List(ctx, filter, req.Offset(), req.GetPageSize())
	if err != nil {
		s.logger.Error("查询论文列表失败", zap.Error(err))
		return nil, 0, err
	}
	return toThesisResponses(theses), total, nil
}

// ListMine 与当前用户相关的论文：学生为作者 / 合著者，教师为导师 / 共同导师 / 在任评审委员
func (s *thesisService) ListMine(ctx context.Context, actor workflow.Actor) ([]dto.ThesisResponse, error) {
	var merged []model.Thesis
	seen := make(map[string]bool)
	appendUnique := func(list []model.Thesis) {
		for _, t := range list {
			if !seen[t.ThesisID] {
				seen[t.ThesisID] = true
				merged = append(merged, t)
			}
		}
	}

	if actor.HasRole(model.RoleStudent) {
		list, err := s.repo.Thesis.ListByStudent(ctx, actor.ID)
		if err != nil {
			s.logger.Error("查询学生论文失败", zap.String("user_id", actor.ID), zap.Error(err))
			return nil, err
		}
		appendUnique(list)
	}
	if actor.HasRole(model.RoleFaculty, model.RoleCoordinator) {
		list, err := s.repo.Thesis.ListByFaculty(ctx, actor.ID)
		if err != nil {
			s.logger.Error("查询教师相关论文失败", zap.String("user_id", actor.ID), zap.Error(err))
			return nil, err
		}
		appendUnique(list)
	}
	return toThesisResponses(merged), nil
}

// ListActiveByUser 学生名下的在办论文
func (s *thesisService) ListActiveByUser(ctx context.Context, userID string) ([]dto.ThesisResponse, error) {
	theses, err := s.repo.Thesis.ListInProgressByStudent(ctx, userID)
	if err != nil {
		s.logger.Error("查询在办论文失败", zap.String("user_id", userID), zap.Error(err))
		return nil, err
	}
	return toThesisResponses(theses), nil
}

func (s *thesisService) GetStatusHistory(ctx context.Context, id string, actor workflow.Actor) ([]dto.StatusHistoryResponse, error) {
	thesis, err := s.getThesis(ctx, id)
	if err != nil {
		return nil, err
	}
	members, err := s.repo.Jury.ListActiveMembers(ctx, id)
	if err != nil {
		s.logger.Error("查询评审委员失败", zap.String("thesis_id", id), zap.Error(err))
		return nil, err
	}
	if err := workflow.Authorize(workflow.OpViewHistory, workflow.ResolveCapabilities(actor, thesis, members)); err != nil {
		return nil, err
	}

	history, err := s.repo.Thesis.ListHistory(ctx, id)
	if err != nil {
		s.logger.Error("查询状态历史失败", zap.String("thesis_id", id), zap.Error(err))
		return nil, err
	}

	result := make([]dto.StatusHistoryResponse, 0, len(history))
	for i := range history {
		result = append(result, toStatusHistoryResponse(&history[i]))
	}
	return result, nil
}

// ────────────────────── Update / Remove ──────────────────────

func (s *thesisService) Update(ctx context.Context, id string, req *dto.UpdateThesisRequest, actor workflow.Actor) (*dto.ThesisResponse, error) {
	thesis, err := s.getThesis(ctx, id)
	if err != nil {
		return nil, err
	}
	if thesis.Status != model.StatusDraft {
		return nil, ErrThesisNotDraft
	}
	if err := workflow.Authorize(workflow.OpUpdateThesis, workflow.ResolveCapabilities(actor, thesis, nil)); err != nil {
		return nil, err
	}

	if req.Title != nil {
		thesis.Title = *req.Title
	}
	if req.Description != nil {
		thesis.Description = *req.Description
	}
	if req.AcademicDegree != nil {
		thesis.AcademicDegree = *req.AcademicDegree
	}

	var joining []string
	if req.CoAuthorID != nil {
		newCoAuthor := normalizeOptionalID(req.CoAuthorID)
		if newCoAuthor != nil && !sameOptionalID(newCoAuthor, thesis.CoAuthorID) {
			if err := s.validateCoAuthor(ctx, thesis.AuthorID, *newCoAuthor); err != nil {
				return nil, err
			}
			joining = []string{*newCoAuthor}
		}
		thesis.CoAuthorID = newCoAuthor
	}
	if req.CoAdvisorID != nil {
		newCoAdvisor := normalizeOptionalID(req.CoAdvisorID)
		if newCoAdvisor != nil && !sameOptionalID(newCoAdvisor, thesis.CoAdvisorID) {
			if err := s.validateAdvisor(ctx, *newCoAdvisor, ErrCoAdvisorNotFound, ErrCoAdvisorNotFaculty); err != nil {
				return nil, err
			}
		}
		thesis.CoAdvisorID = newCoAdvisor
	}

	thesis.UpdatedBy = &actor.ID
	err = s.repo.Transaction(ctx, func(tx *repository.Repository) error {
		if len(joining) > 0 {
			if err := s.ensureNoThesisInProgress(ctx, tx, joining, thesis.CareerID, thesis.ThesisID); err != nil {
				return err
			}
		}
		return tx.Thesis.Update(ctx, thesis)
	})
	if err != nil {
		if pkgerrors.KindOf(err) == "" {
			s.logger.Error("更新论文失败", zap.String("thesis_id", id), zap.Error(err))
		}
		return nil, err
	}
	return toThesisResponse(thesis, nil), nil
}

// Remove 软删除草稿论文
func (s *thesisService) Remove(ctx context.Context, id string, actor workflow.Actor) error {
	err := s.repo.Transaction(ctx, func(tx *repository.Repository) error {
		thesis, err := tx.Thesis.GetForUpdate(ctx, id)
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return ErrThesisNotFound
			}
			return err
		}
		if err := workflow.Authorize(workflow.OpRemoveThesis, workflow.ResolveCapabilities(actor, thesis, nil)); err != nil {
			return err
		}
		if thesis.Status != model.StatusDraft {
			return ErrThesisNotDraft
		}
		return tx.Thesis.SoftDelete(ctx, thesis, actor.ID)
	})
	if err != nil {
		if pkgerrors.KindOf(err) == "" {
			s.logger.Error("删除论文失败", zap.String("thesis_id", id), zap.Error(err))
		}
		return err
	}

	s.logger.Info("删除论文", zap.String("thesis_id", id), zap.String("actor_id", actor.ID))
	return nil
}

// ────────────────────── 状态流转 ──────────────────────

// Submit 作者提交草稿：DRAFT → SUBMITTED
func (s *thesisService) Submit(ctx context.Context, id string, actor workflow.Actor) (*dto.ThesisResponse, error) {
	result, err := s.transitions.run(ctx, transitionRequest{
		ThesisID: id,
		Target:   model.StatusSubmitted,
		ActorID:  actor.ID,
		Reason:   "作者提交论文",
		Prepare: func(_ *repository.Repository, thesis *model.Thesis) ([]byte, error) {
			if err := workflow.Authorize(workflow.OpSubmitThesis, workflow.ResolveCapabilities(actor, thesis, nil)); err != nil {
				return nil, err
			}
			if thesis.Status != model.StatusDraft {
				return nil, ErrThesisNotDraft
			}
			return nil, nil
		},
	})
	if err != nil {
		return nil, err
	}

	s.transitions.afterTransition(ctx, result.Change)
	s.transitions.notifyStatusChange(ctx, result.Thesis)
	return toThesisResponse(result.Thesis, nil), nil
}

// ChangeStatus 由管理人员或导师推动论文流转
func (s *thesisService) ChangeStatus(ctx context.Context, id string, req *dto.ChangeStatusRequest, actor workflow.Actor) (*dto.ThesisResponse, error) {
	target := model.ThesisStatus(req.Status)
	if !target.IsValid() {
		return nil, ErrThesisStatusInvalid
	}

	var metadata []byte
	if len(req.Metadata) > 0 {
		raw, err := json.Marshal(req.Metadata)
		if err != nil {
			return nil, pkgerrors.New(pkgerrors.KindValidation, "metadata 无法序列化")
		}
		metadata = raw
	}

	var members []model.JuryMember
	result, err := s.transitions.run(ctx, transitionRequest{
		ThesisID: id,
		Target:   target,
		ActorID:  actor.ID,
		Reason:   req.Reason,
		Prepare: func(tx *repository.Repository, thesis *model.Thesis) ([]byte, error) {
			var err error
			members, err = tx.Jury.ListActiveMembers(ctx, thesis.ThesisID)
			if err != nil {
				return nil, err
			}
			op := workflow.StatusChangeOperation(thesis.Status, target)
			if err := workflow.Authorize(op, workflow.ResolveCapabilities(actor, thesis, members)); err != nil {
				return nil, err
			}
			return metadata, nil
		},
	})
	if err != nil {
		return nil, err
	}

	s.transitions.afterTransition(ctx, result.Change)
	s.transitions.notifyStatusChange(ctx, result.Thesis)
	if result.Change.To == model.StatusUnderEvaluation {
		s.notifyJuryEvaluationStarted(ctx, result.Thesis, members)
	}
	return toThesisResponse(result.Thesis, members), nil
}

// AssignJury 指派评审委员会并推进到 COMMITTEE_ASSIGNED，委员替换与状态变更在同一事务中完成
func (s *thesisService) AssignJury(ctx context.Context, id string, req *dto.AssignJuryRequest, actor workflow.Actor) (*dto.ThesisResponse, error) {
	assignments := make([]workflow.JuryAssignment, 0, len(req.Members))
	userIDs := make([]string, 0, len(req.Members))
	for _, m := range req.Members {
		assignments = append(assignments, workflow.JuryAssignment{UserID: m.UserID, Role: model.JuryRole(m.Role)})
		userIDs = append(userIDs, m.UserID)
	}
	if err := workflow.ValidateJuryComposition(assignments); err != nil {
		return nil, err
	}

	users, err := s.repo.User.ListByIDs(ctx, userIDs)
	if err != nil {
		s.logger.Error("查询评审委员用户失败", zap.Error(err))
		return nil, err
	}
	byID := make(map[string]*model.User, len(users))
	for i := range users {
		byID[users[i].UserID] = &users[i]
	}
	for _, uid := range userIDs {
		u, ok := byID[uid]
		if !ok {
			return nil, fmt.Errorf("%w: %s", ErrUserNotFound, uid)
		}
		if !u.IsActive || !u.IsFaculty() {
			return nil, fmt.Errorf("%w: %s", ErrJuryMemberNotFaculty, u.FullName())
		}
	}

	var members []model.JuryMember
	result, err := s.transitions.run(ctx, transitionRequest{
		ThesisID: id,
		Target:   model.StatusCommitteeAssigned,
		ActorID:  actor.ID,
		Reason:   "指派评审委员会",
		Prepare: func(tx *repository.Repository, thesis *model.Thesis) ([]byte, error) {
			if err := workflow.Authorize(workflow.OpAssignJury, workflow.ResolveCapabilities(actor, thesis, nil)); err != nil {
				return nil, err
			}
			if thesis.Status != model.StatusForwardedToSchool {
				return nil, ErrThesisNotForwarded
			}

			members = make([]model.JuryMember, 0, len(assignments))
			for _, a := range assignments {
				m := model.JuryMember{
					ThesisID: thesis.ThesisID,
					UserID:   a.UserID,
					Role:     a.Role,
					IsActive: true,
				}
				m.CreatedBy = &actor.ID
				m.UpdatedBy = &actor.ID
				members = append(members, m)
			}
			if err := tx.Jury.ReplaceMembers(ctx, thesis.ThesisID, members); err != nil {
				return nil, err
			}
			return nil, nil
		},
	})
	if err != nil {
		return nil, err
	}

	for i := range members {
		members[i].User = byID[members[i].UserID]
	}

	s.transitions.afterTransition(ctx, result.Change)
	s.transitions.notifyStatusChange(ctx, result.Thesis)
	for _, m := range members {
		notifyUsers(ctx, s.notifier, s.logger, []string{m.UserID},
			"评审委员会指派",
			fmt.Sprintf("您已被指派为论文《%s》评审委员会的%s。",
				shortTitle(result.Thesis.Title, 50), workflow.JuryRoleLabel(m.Role)),
			RelatedThesis, result.Thesis.ThesisID)
	}

	s.logger.Info("指派评审委员会", zap.String("thesis_id", id), zap.Int("members", len(members)))
	return toThesisResponse(result.Thesis, members), nil
}

func (s *thesisService) notifyJuryEvaluationStarted(ctx context.Context, thesis *model.Thesis, members []model.JuryMember) {
	userIDs := make([]string, 0, len(members))
	for _, m := range members {
		userIDs = append(userIDs, m.UserID)
	}
	notifyUsers(ctx, s.notifier, s.logger, userIDs,
		"论文进入评审",
		fmt.Sprintf("论文《%s》已进入评审阶段，请在 %d 个工作日内提交评审意见。",
			shortTitle(thesis.Title, 50), s.cfg.EvaluationBusinessDays),
		RelatedThesis, thesis.ThesisID)
}

// ── 校验辅助 ──

// ensureNoThesisInProgress 在事务内锁定学生行后检查同专业在办论文，
// 并发创建同一学生的论文时后到者会看到先提交的记录
func (s *thesisService) ensureNoThesisInProgress(ctx context.Context, tx *repository.Repository, students []string, careerID, excludeID string) error {
	if err := tx.User.LockForUpdate(ctx, students); err != nil {
		return err
	}
	exists, err := tx.Thesis.ExistsInProgressInCareer(ctx, students, careerID, excludeID)
	if err != nil {
		return err
	}
	if exists {
		return ErrThesisInProgressExists
	}
	return nil
}

// scopedThesisFilter 由查询参数生成筛选条件；非管理员的协调员限定为本学院
func scopedThesisFilter(req *dto.ThesisListRequest, actor workflow.Actor) (repository.ThesisFilter, error) {
	filter := repository.ThesisFilter{
		CareerID:  req.CareerID,
		FacultyID: req.FacultyID,
		AuthorID:  req.AuthorID,
		AdvisorID: req.AdvisorID,
	}
	if req.Status != "" {
		status := model.ThesisStatus(req.Status)
		if !status.IsValid() {
			return filter, ErrThesisStatusInvalid
		}
		filter.Status = status
	}
	if actor.HasRole(model.RoleCoordinator) && !actor.HasRole(model.RoleAdmin) && actor.FacultyID != "" {
		filter.FacultyID = actor.FacultyID
	}
	return filter, nil
}

func (s *thesisService) getThesis(ctx context.Context, id string) (*model.Thesis, error) {
	thesis, err := s.repo.Thesis.GetByID(ctx, id)
	if err != nil {
		return nil, mapThesisLookupError(s.logger, id, err)
	}
	return thesis, nil
}

// mapThesisLookupError 记录不存在转换为 ErrThesisNotFound，其他错误记录日志后原样返回
func mapThesisLookupError(logger *zap.Logger, id string, err error) error {
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return ErrThesisNotFound
	}
	logger.Error("查询论文失败", zap.String("thesis_id", id), zap.Error(err))
	return err
}

func (s *thesisService) getUser(ctx context.Context, id string, notFound error) (*model.User, error) {
	user, err := s.repo.User.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, notFound
		}
		s.logger.Error("查询用户失败", zap.String("user_id", id), zap.Error(err))
		return nil, err
	}
	return user, nil
}

func (s *thesisService) validateAdvisor(ctx context.Context, userID string, notFound, notFaculty error) error {
	user, err := s.getUser(ctx, userID, notFound)
	if err != nil {
		return err
	}
	if !user.IsFaculty() {
		return notFaculty
	}
	return nil
}

func (s *thesisService) validateCoAuthor(ctx context.Context, authorID, coAuthorID string) error {
	if coAuthorID == authorID {
		return ErrCoAuthorSameAsAuthor
	}
	user, err := s.getUser(ctx, coAuthorID, ErrCoAuthorNotFound)
	if err != nil {
		return err
	}
	if !user.IsStudent() {
		return ErrCoAuthorNotStudent
	}
	return nil
}

// normalizeOptionalID 空字符串视为未设置
func normalizeOptionalID(id *string) *string {
	if id == nil || *id == "" {
		return nil
	}
	v := *id
	return &v
}

func sameOptionalID(a, b *string) bool {
	if a == nil || b == nil {
		return a == nil && b == nil
	}
	return *a == *b
}

// ── DTO 转换 ──

func toThesisResponse(t *model.Thesis, members []model.JuryMember) *dto.ThesisResponse {
	resp := &dto.ThesisResponse{
		ID:             t.ThesisID,
		Title:          t.Title,
		Description:    t.Description,
		AcademicDegree: t.AcademicDegree,
		CareerID:       t.CareerID,
		AuthorID:       t.AuthorID,
		CoAuthorID:     t.CoAuthorID,
		AdvisorID:      t.AdvisorID,
		CoAdvisorID:    t.CoAdvisorID,
		Status:         string(t.Status),
		StatusLabel:    workflow.StatusLabel(t.Status),
		Version:        t.Version,
		CreatedAt:      t.CreatedAt.Format(time.RFC3339),
		UpdatedAt:      t.UpdatedAt.Format(time.RFC3339),
	}
	if t.Career != nil {
		resp.CareerName = t.Career.Name
	}
	if t.ApprovalDate != nil {
		v := t.ApprovalDate.Format(time.RFC3339)
		resp.ApprovalDate = &v
	}
	if t.DefenseDate != nil {
		v := t.DefenseDate.Format(time.RFC3339)
		resp.DefenseDate = &v
	}
	if len(members) > 0 {
		resp.JuryMembers = make([]dto.JuryMemberResponse, 0, len(members))
		for _, m := range members {
			jm := dto.JuryMemberResponse{
				ID:        m.JuryMemberID,
				UserID:    m.UserID,
				Role:      string(m.Role),
				RoleLabel: workflow.JuryRoleLabel(m.Role),
			}
			if m.User != nil {
				jm.User = &dto.UserBrief{
					ID:        m.User.UserID,
					FirstName: m.User.FirstName,
					LastName:  m.User.LastName,
					Email:     m.User.Email,
				}
			}
			resp.JuryMembers = append(resp.JuryMembers, jm)
		}
	}
	return resp
}

func toThesisResponses(theses []model.Thesis) []dto.ThesisResponse {
	result := make([]dto.ThesisResponse, 0, len(theses))
	for i := range theses {
		result = append(result, *toThesisResponse(&theses[i], nil))
	}
	return result
}

func toStatusHistoryResponse(h *model.ThesisStatusHistory) dto.StatusHistoryResponse {
	resp := dto.StatusHistoryResponse{
		ID:          h.HistoryID,
		NewStatus:   string(h.NewStatus),
		ChangedByID: h.ChangedByID,
		Reason:      h.Reason,
		CreatedAt:   h.CreatedAt.Format(time.RFC3339),
	}
	if h.PreviousStatus != nil {
		prev := string(*h.PreviousStatus)
		resp.PreviousStatus = &prev
	}
	if len(h.Metadata) > 0 {
		var meta interface{}
		if err := json.Unmarshal(h.Metadata, &meta); err == nil {
			resp.Metadata = meta
		}
	}
	return resp
}
