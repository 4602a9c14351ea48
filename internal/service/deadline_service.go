package service

import (
	"context"
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

// ── 期限模块业务错误 ──

var (
	ErrDeadlineNotFound       = pkgerrors.New(pkgerrors.KindNotFound, "期限不存在")
	ErrDeadlineNotActive      = pkgerrors.New(pkgerrors.KindInvalidState, "只能处理进行中的期限")
	ErrAlreadyExtended        = pkgerrors.New(pkgerrors.KindConflict, "该论文已获得过一次整改延期")
	ErrDeadlineConflict       = pkgerrors.New(pkgerrors.KindConflict, "同类型期限正在被其他操作创建，请稍后重试")
	ErrDeadlineTypeInvalid    = pkgerrors.New(pkgerrors.KindValidation, "期限类型无效")
	ErrDeadlineDueDateInvalid = pkgerrors.New(pkgerrors.KindValidation, "截止日期格式无效或早于当前时间")
)

// AlertGuard 临期提醒去重：同一期限同一天只提醒一次
// MarkAlerted 在标记已存在时返回 false
type AlertGuard interface {
	MarkAlerted(ctx context.Context, deadlineID string, day time.Time, ttl time.Duration) (bool, error)
}

// dayRule 期限天数规则
type dayRule struct {
	days     int
	business bool // true 按工作日，false 按自然日
}

func (r dayRule) dueFrom(from time.Time) time.Time {
	if r.business {
		return clock.AddBusinessDays(from, r.days)
	}
	return clock.AddCalendarDays(from, r.days)
}

// defaultDayRules 各类型期限的默认天数
var defaultDayRules = map[model.DeadlineType]dayRule{
	model.DeadlineCommitteeEvaluation:  {days: 15, business: true},
	model.DeadlineObservationLift:      {days: 30, business: false},
	model.DeadlineObservationExtension: {days: 30, business: false},
	model.DeadlineCorrectionReview:     {days: 5, business: true},
	model.DeadlineDefense:              {days: 30, business: false},
}

// automaticDeadlines 进入某状态时自动创建的期限类型
var automaticDeadlines = map[model.ThesisStatus]model.DeadlineType{
	model.StatusUnderEvaluation: model.DeadlineCommitteeEvaluation,
	model.StatusObserved:        model.DeadlineObservationLift,
}

// DeadlineService 期限业务接口
type DeadlineService interface {
	Create(ctx context.Context, req *dto.CreateDeadlineRequest, actor workflow.Actor) (*dto.DeadlineResponse, error)
	CreateAutomatic(ctx context.Context, thesisID string, status model.ThesisStatus) (*model.Deadline, error)
	Extend(ctx context.Context, id string, req *dto.ExtendDeadlineRequest, actor workflow.Actor) (*dto.DeadlineResponse, error)
	MarkAsCompleted(ctx context.Context, id string, actor workflow.Actor) (*dto.DeadlineResponse, error)
	MarkAsExpired(ctx context.Context, id string) error
	FulfillActive(ctx context.Context, thesisID string, types ...model.DeadlineType) error

	GetByID(ctx context.Context, id string) (*dto.DeadlineResponse, error)
	ListByThesis(ctx context.Context, thesisID string) ([]dto.DeadlineResponse, error)
	ListActiveByThesis(ctx context.Context, thesisID string) ([]dto.DeadlineResponse, error)
	ListUpcoming(ctx context.Context, days int) ([]dto.DeadlineResponse, error)
	ListUpcomingWithRemaining(ctx context.Context, days, limit int) ([]dto.DeadlineWithRemaining, error)
	ListExpired(ctx context.Context) ([]dto.DeadlineResponse, error)
	GetRemainingDays(ctx context.Context, id string) (*dto.RemainingDaysResponse, error)
	GetActiveDeadlineStatus(ctx context.Context, thesisID string) (*dto.ActiveDeadlineStatusResponse, error)

	ProcessExpiredDeadlines(ctx context.Context) (*dto.ProcessExpiredResponse, error)
	SendUpcomingDeadlineAlerts(ctx context.Context, thresholdBusinessDays int) (*dto.SendAlertsResponse, error)
}

type deadlineService struct {
	cfg      config.DeadlineConfig
	rules    map[model.DeadlineType]dayRule
	repo     *repository.Repository
	notifier Notifier
	guard    AlertGuard
	clock    clock.Clock
	loc      *time.Location
	logger   *zap.Logger
}

// NewDeadlineService 创建 DeadlineService 实例
// guard 为 nil 时临期提醒不去重
func NewDeadlineService(
	cfg config.DeadlineConfig,
	repo *repository.Repository,
	notifier Notifier,
	guard AlertGuard,
	clk clock.Clock,
	loc *time.Location,
	logger *zap.Logger,
) DeadlineService {
	rules := make(map[model.DeadlineType]dayRule, len(defaultDayRules))
	for t, r := range defaultDayRules {
		rules[t] = r
	}
	if cfg.EvaluationBusinessDays > 0 {
		rules[model.DeadlineCommitteeEvaluation] = dayRule{days: cfg.EvaluationBusinessDays, business: true}
	}
	if cfg.ObservationCalendarDays > 0 {
		rules[model.DeadlineObservationLift] = dayRule{days: cfg.ObservationCalendarDays, business: false}
	}
	if cfg.AlertThresholdBusinessDays <= 0 {
		cfg.AlertThresholdBusinessDays = 3
	}
	if loc == nil {
		loc = time.UTC
	}
	return &deadlineService{
		cfg:      cfg,
		rules:    rules,
		repo:     repo,
		notifier: notifier,
		guard:    guard,
		clock:    clk,
		loc:      loc,
		logger:   logger,
	}
}

// ────────────────────── Create ──────────────────────

func (s *deadlineService) Create(ctx context.Context, req *dto.CreateDeadlineRequest, actor workflow.Actor) (*dto.DeadlineResponse, error) {
	if err := workflow.Authorize(workflow.OpCreateDeadline, workflow.ResolveCapabilities(actor, nil, nil)); err != nil {
		return nil, err
	}

	typ := model.DeadlineType(req.Type)
	if !typ.IsValid() {
		return nil, ErrDeadlineTypeInvalid
	}
	if _, err := s.repo.Thesis.GetByID(ctx, req.ThesisID); err != nil {
		return nil, mapThesisLookupError(s.logger, req.ThesisID, err)
	}

	now := s.now()
	due, err := parseDueDate(req.DueDate, s.loc)
	if err != nil || !due.After(now) {
		return nil, ErrDeadlineDueDateInvalid
	}

	deadline := &model.Deadline{
		ThesisID:     req.ThesisID,
		Type:         typ,
		DueDate:      due,
		BusinessDays: req.BusinessDays,
		CalendarDays: req.CalendarDays,
		Status:       model.DeadlineActive,
		Notes:        req.Notes,
	}
	if deadline.BusinessDays == nil && deadline.CalendarDays == nil {
		s.fillDefaultDays(deadline)
	}
	deadline.CreatedBy = &actor.ID
	deadline.UpdatedBy = &actor.ID

	if err := s.create(ctx, deadline); err != nil {
		return nil, err
	}

	s.logger.Info("创建期限",
		zap.String("deadline_id", deadline.DeadlineID),
		zap.String("thesis_id", deadline.ThesisID),
		zap.String("type", string(deadline.Type)),
	)
	return toDeadlineResponse(deadline), nil
}

// CreateAutomatic 按状态自动创建期限；状态不在自动规则表中时返回 nil
func (s *deadlineService) CreateAutomatic(ctx context.Context, thesisID string, status model.ThesisStatus) (*model.Deadline, error) {
	typ, ok := automaticDeadlines[status]
	if !ok {
		return nil, nil
	}
	rule := s.rules[typ]
	days := rule.days

	deadline := &model.Deadline{
		ThesisID: thesisID,
		Type:     typ,
		DueDate:  rule.dueFrom(s.now()),
		Status:   model.DeadlineActive,
	}
	if rule.business {
		deadline.BusinessDays = &days
	} else {
		deadline.CalendarDays = &days
	}

	if err := s.create(ctx, deadline); err != nil {
		return nil, err
	}
	s.logger.Info("自动创建期限",
		zap.String("thesis_id", thesisID),
		zap.String("type", string(typ)),
		zap.Time("due_date", deadline.DueDate),
	)
	return deadline, nil
}

// create 在同一事务中取消同类型 ACTIVE 期限并插入新期限
// 并发创建由部分唯一索引 uk_deadlines_active_per_type 兜底
func (s *deadlineService) create(ctx context.Context, deadline *model.Deadline) error {
	err := s.repo.Transaction(ctx, func(tx *repository.Repository) error {
		cancelled, err := tx.Deadline.CancelActive(ctx, deadline.ThesisID, deadline.Type)
		if err != nil {
			return err
		}
		if cancelled > 0 {
			s.logger.Info("取消同类型进行中的期限",
				zap.String("thesis_id", deadline.ThesisID),
				zap.String("type", string(deadline.Type)),
				zap.Int64("count", cancelled),
			)
		}
		return tx.Deadline.Create(ctx, deadline)
	})
	if err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return ErrDeadlineConflict
		}
		s.logger.Error("创建期限失败", zap.String("thesis_id", deadline.ThesisID), zap.Error(err))
		return err
	}
	return nil
}

func (s *deadlineService) fillDefaultDays(d *model.Deadline) {
	rule, ok := s.rules[d.Type]
	if !ok {
		return
	}
	days := rule.days
	if rule.business {
		d.BusinessDays = &days
	} else {
		d.CalendarDays = &days
	}
}

// ────────────────────── Extend ──────────────────────

func (s *deadlineService) Extend(ctx context.Context, id string, req *dto.ExtendDeadlineRequest, actor workflow.Actor) (*dto.DeadlineResponse, error) {
	if err := workflow.Authorize(workflow.OpExtendDeadline, workflow.ResolveCapabilities(actor, nil, nil)); err != nil {
		return nil, err
	}

	newDue, err := parseDueDate(req.NewDueDate, s.loc)
	if err != nil || !newDue.After(s.now()) {
		return nil, ErrDeadlineDueDateInvalid
	}

	var extension *model.Deadline
	err = s.repo.Transaction(ctx, func(tx *repository.Repository) error {
		original, err := tx.Deadline.GetByID(ctx, id)
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return ErrDeadlineNotFound
			}
			return err
		}
		// 整改延期每篇论文只批准一次，已延期的原期限再次申请同样按已延期处理
		switch original.Type {
		case model.DeadlineObservationExtension:
			return ErrAlreadyExtended
		case model.DeadlineObservationLift:
			exists, err := tx.Deadline.ExistsWithStatus(ctx, original.ThesisID, model.DeadlineObservationExtension,
				model.DeadlineActive, model.DeadlineFulfilled)
			if err != nil {
				return err
			}
			if exists {
				return ErrAlreadyExtended
			}
		}
		if original.Status != model.DeadlineActive {
			return ErrDeadlineNotActive
		}

		ok, err := tx.Deadline.TransitionStatus(ctx, original.DeadlineID, model.DeadlineActive, model.DeadlineExtended, nil)
		if err != nil {
			return err
		}
		if !ok {
			return ErrDeadlineNotActive
		}

		newType := original.Type
		if original.Type == model.DeadlineObservationLift {
			newType = model.DeadlineObservationExtension
		}
		originalID := original.DeadlineID
		extension = &model.Deadline{
			ThesisID:      original.ThesisID,
			Type:          newType,
			DueDate:       newDue,
			Status:        model.DeadlineActive,
			ExtensionOfID: &originalID,
			Notes:         req.Reason,
		}
		extension.CreatedBy = &actor.ID
		extension.UpdatedBy = &actor.ID
		return tx.Deadline.Create(ctx, extension)
	})
	if err != nil {
		if pkgerrors.KindOf(err) != "" {
			return nil, err
		}
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return nil, ErrDeadlineConflict
		}
		s.logger.Error("延长期限失败", zap.String("deadline_id", id), zap.Error(err))
		return nil, err
	}

	s.logger.Info("延长期限",
		zap.String("original_id", id),
		zap.String("extension_id", extension.DeadlineID),
		zap.String("type", string(extension.Type)),
	)
	return toDeadlineResponse(extension), nil
}

// ────────────────────── 状态终结 ──────────────────────

func (s *deadlineService) MarkAsCompleted(ctx context.Context, id string, actor workflow.Actor) (*dto.DeadlineResponse, error) {
	if err := workflow.Authorize(workflow.OpCompleteDeadline, workflow.ResolveCapabilities(actor, nil, nil)); err != nil {
		return nil, err
	}

	deadline, err := s.getDeadline(ctx, id)
	if err != nil {
		return nil, err
	}
	if deadline.Status != model.DeadlineActive {
		return nil, ErrDeadlineNotActive
	}

	now := s.now()
	ok, err := s.repo.Deadline.TransitionStatus(ctx, id, model.DeadlineActive, model.DeadlineFulfilled, &now)
	if err != nil {
		s.logger.Error("标记期限完成失败", zap.String("deadline_id", id), zap.Error(err))
		return nil, err
	}
	if !ok {
		return nil, ErrDeadlineNotActive
	}

	deadline.Status = model.DeadlineFulfilled
	deadline.CompletedAt = &now
	return toDeadlineResponse(deadline), nil
}

// MarkAsExpired 将进行中的期限置为 EXPIRED；已不处于 ACTIVE 时不做任何修改
func (s *deadlineService) MarkAsExpired(ctx context.Context, id string) error {
	if _, err := s.getDeadline(ctx, id); err != nil {
		return err
	}
	if _, err := s.repo.Deadline.TransitionStatus(ctx, id, model.DeadlineActive, model.DeadlineExpired, nil); err != nil {
		s.logger.Error("标记期限过期失败", zap.String("deadline_id", id), zap.Error(err))
		return err
	}
	return nil
}

// FulfillActive 将论文指定类型的进行中期限标记为已完成
func (s *deadlineService) FulfillActive(ctx context.Context, thesisID string, types ...model.DeadlineType) error {
	now := s.now()
	for _, typ := range types {
		deadline, err := s.repo.Deadline.GetActive(ctx, thesisID, typ)
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				continue
			}
			return err
		}
		if _, err := s.repo.Deadline.TransitionStatus(ctx, deadline.DeadlineID, model.DeadlineActive, model.DeadlineFulfilled, &now); err != nil {
			return err
		}
		s.logger.Info("期限已完成",
			zap.String("deadline_id", deadline.DeadlineID),
			zap.String("type", string(typ)),
		)
	}
	return nil
}

// ────────────────────── 查询 ──────────────────────

func (s *deadlineService) GetByID(ctx context.Context, id string) (*dto.DeadlineResponse, error) {
	deadline, err := s.getDeadline(ctx, id)
	if err != nil {
		return nil, err
	}
	return toDeadlineResponse(deadline), nil
}

func (s *deadlineService) ListByThesis(ctx context.Context, thesisID string) ([]dto.DeadlineResponse, error) {
	deadlines, err := s.repo.Deadline.ListByThesis(ctx, thesisID)
	if err != nil {
		s.logger.Error("查询论文期限失败", zap.String("thesis_id", thesisID), zap.Error(err))
		return nil, err
	}
	return toDeadlineResponses(deadlines), nil
}

func (s *deadlineService) ListActiveByThesis(ctx context.Context, thesisID string) ([]dto.DeadlineResponse, error) {
	deadlines, err := s.repo.Deadline.ListActiveByThesis(ctx, thesisID)
	if err != nil {
		s.logger.Error("查询论文进行中期限失败", zap.String("thesis_id", thesisID), zap.Error(err))
		return nil, err
	}
	return toDeadlineResponses(deadlines), nil
}

// ListUpcoming 未来 days 个自然日内到期的进行中期限
func (s *deadlineService) ListUpcoming(ctx context.Context, days int) ([]dto.DeadlineResponse, error) {
	if days <= 0 {
		days = 7
	}
	now := s.now()
	deadlines, err := s.repo.Deadline.ListActiveDueBetween(ctx, now, clock.AddCalendarDays(now, days))
	if err != nil {
		s.logger.Error("查询临期期限失败", zap.Error(err))
		return nil, err
	}
	return toDeadlineResponses(deadlines), nil
}

// ListExpired 已过截止时间、尚未被过期处理的期限
func (s *deadlineService) ListExpired(ctx context.Context) ([]dto.DeadlineResponse, error) {
	deadlines, err := s.repo.Deadline.ListActiveDueBefore(ctx, s.now())
	if err != nil {
		s.logger.Error("查询过期期限失败", zap.Error(err))
		return nil, err
	}
	return toDeadlineResponses(deadlines), nil
}

func (s *deadlineService) GetRemainingDays(ctx context.Context, id string) (*dto.RemainingDaysResponse, error) {
	deadline, err := s.getDeadline(ctx, id)
	if err != nil {
		return nil, err
	}
	r := s.remaining(deadline.DueDate)
	return &dto.RemainingDaysResponse{
		DeadlineID:            deadline.DeadlineID,
		DueDate:               deadline.DueDate.Format(time.RFC3339),
		RemainingDays:         r.calendar,
		RemainingBusinessDays: r.business,
		IsExpired:             r.expired,
		IsUrgent:              r.urgent,
	}, nil
}

func (s *deadlineService) GetActiveDeadlineStatus(ctx context.Context, thesisID string) (*dto.ActiveDeadlineStatusResponse, error) {
	deadlines, err := s.repo.Deadline.ListActiveByThesis(ctx, thesisID)
	if err != nil {
		s.logger.Error("查询论文进行中期限失败", zap.String("thesis_id", thesisID), zap.Error(err))
		return nil, err
	}

	result := &dto.ActiveDeadlineStatusResponse{
		HasActiveDeadline: len(deadlines) > 0,
		Deadlines:         make([]dto.DeadlineWithRemaining, 0, len(deadlines)),
	}
	for i := range deadlines {
		result.Deadlines = append(result.Deadlines, s.withRemaining(&deadlines[i]))
	}
	return result, nil
}

// ListUpcomingWithRemaining 未来 days 天内到期的进行中期限（按截止时间升序，至多 limit 条），附剩余天数
func (s *deadlineService) ListUpcomingWithRemaining(ctx context.Context, days, limit int) ([]dto.DeadlineWithRemaining, error) {
	now := s.now()
	deadlines, err := s.repo.Deadline.ListActiveDueBetween(ctx, now, clock.AddCalendarDays(now, days))
	if err != nil {
		s.logger.Error("查询临期期限失败", zap.Error(err))
		return nil, err
	}
	if limit > 0 && len(deadlines) > limit {
		deadlines = deadlines[:limit]
	}
	result := make([]dto.DeadlineWithRemaining, 0, len(deadlines))
	for i := range deadlines {
		result = append(result, s.withRemaining(&deadlines[i]))
	}
	return result, nil
}

// ────────────────────── 定时任务 ──────────────────────

// ProcessExpiredDeadlines 将已过截止时间的进行中期限置为 EXPIRED。
// 整改类期限过期时，若论文处于 OBSERVED / LIFTING_OBSERVATIONS，同一事务内将论文置为 DEADLINE_EXPIRED 并写历史。
// 已处理的期限不再是 ACTIVE，重复执行不会再次处理。
func (s *deadlineService) ProcessExpiredDeadlines(ctx context.Context) (*dto.ProcessExpiredResponse, error) {
	now := s.now()
	expired, err := s.repo.Deadline.ListActiveDueBefore(ctx, now)
	if err != nil {
		s.logger.Error("查询过期期限失败", zap.Error(err))
		return nil, err
	}

	result := &dto.ProcessExpiredResponse{IDs: make([]string, 0, len(expired))}
	for i := range expired {
		deadline := &expired[i]
		processed, thesis, err := s.expireOne(ctx, deadline, now)
		if err != nil {
			s.logger.Error("处理过期期限失败", zap.String("deadline_id", deadline.DeadlineID), zap.Error(err))
			continue
		}
		if !processed {
			continue
		}
		result.IDs = append(result.IDs, deadline.DeadlineID)

		if thesis != nil {
			notifyUsers(ctx, s.notifier, s.logger, thesis.StudentIDs(),
				"论文期限已过",
				fmt.Sprintf("您的论文《%s》的「%s」期限已过，论文状态变更为：%s。",
					shortTitle(thesis.Title, 50), workflow.DeadlineTypeLabel(deadline.Type),
					workflow.StatusLabel(model.StatusDeadlineExpired)),
				RelatedThesis, thesis.ThesisID)
		}
	}
	result.Processed = len(result.IDs)

	if result.Processed > 0 {
		s.logger.Info("过期期限处理完成", zap.Int("processed", result.Processed))
	}
	return result, nil
}

// expireOne 处理单个过期期限；返回的 thesis 非 nil 表示论文被置为 DEADLINE_EXPIRED
func (s *deadlineService) expireOne(ctx context.Context, deadline *model.Deadline, now time.Time) (bool, *model.Thesis, error) {
	var processed bool
	var expiredThesis *model.Thesis

	err := s.repo.Transaction(ctx, func(tx *repository.Repository) error {
		ok, err := tx.Deadline.TransitionStatus(ctx, deadline.DeadlineID, model.DeadlineActive, model.DeadlineExpired, nil)
		if err != nil {
			return err
		}
		if !ok {
			return nil // 已被并发处理
		}
		processed = true

		if !deadline.Type.IsObservation() {
			return nil
		}

		thesis, err := tx.Thesis.GetForUpdate(ctx, deadline.ThesisID)
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return nil
			}
			return err
		}
		if !workflow.CanExpire(thesis.Status) {
			s.logger.Info("论文当前状态不随期限过期变更",
				zap.String("thesis_id", thesis.ThesisID),
				zap.String("status", string(thesis.Status)),
			)
			return nil
		}

		reason := fmt.Sprintf("期限已过: %s", workflow.DeadlineTypeLabel(deadline.Type))
		change, err := workflow.Expire(thesis, thesis.AuthorID, reason)
		if err != nil {
			return err
		}
		change.Apply(thesis, now)
		if err := tx.Thesis.UpdateStatus(ctx, thesis); err != nil {
			return err
		}
		if err := tx.Thesis.CreateHistory(ctx, change.History(nil, now)); err != nil {
			return err
		}
		expiredThesis = thesis
		return nil
	})
	if err != nil {
		return false, nil, err
	}
	return processed, expiredThesis, nil
}

// SendUpcomingDeadlineAlerts 对剩余工作日在 (0, threshold] 内的进行中期限发送提醒：
// 通知论文作者；评审期限另通知全部在任评审委员。
// 同一期限同一天只提醒一次（依赖 AlertGuard；未配置时不去重）。
func (s *deadlineService) SendUpcomingDeadlineAlerts(ctx context.Context, thresholdBusinessDays int) (*dto.SendAlertsResponse, error) {
	if thresholdBusinessDays <= 0 {
		thresholdBusinessDays = s.cfg.AlertThresholdBusinessDays
	}
	if s.guard == nil {
		s.logger.Warn("未配置提醒去重，重复执行将重复发送临期提醒")
	}

	now := s.now()
	deadlines, err := s.repo.Deadline.ListActive(ctx)
	if err != nil {
		s.logger.Error("查询进行中期限失败", zap.Error(err))
		return nil, err
	}

	result := &dto.SendAlertsResponse{IDs: make([]string, 0)}
	for i := range deadlines {
		deadline := &deadlines[i]
		remaining := clock.CountBusinessDaysBetween(now, deadline.DueDate)
		if remaining <= 0 || remaining > thresholdBusinessDays {
			continue
		}

		target, err := s.alertTarget(ctx, deadline)
		if err != nil {
			s.logger.Warn("查询提醒对象失败，下次执行时重试",
				zap.String("deadline_id", deadline.DeadlineID), zap.Error(err))
			continue
		}
		if target == nil {
			continue
		}
		// 收件人全部查到后才写当日标记
		if !s.markAlerted(ctx, deadline.DeadlineID, now) {
			continue
		}

		thesis := target.thesis
		typeLabel := workflow.DeadlineTypeLabel(deadline.Type)
		notifyUsers(ctx, s.notifier, s.logger, []string{thesis.AuthorID},
			"期限即将到期",
			fmt.Sprintf("您的论文《%s》的「%s」期限还剩 %d 个工作日（截止 %s）。",
				shortTitle(thesis.Title, 40), typeLabel, remaining, deadline.DueDate.In(s.loc).Format("2006-01-02")),
			RelatedDeadline, deadline.DeadlineID)

		if len(target.jurors) > 0 {
			notifyUsers(ctx, s.notifier, s.logger, target.jurors,
				"评审期限即将到期",
				fmt.Sprintf("论文《%s》的评审期限还剩 %d 个工作日，请尽快提交评审意见。",
					shortTitle(thesis.Title, 40), remaining),
				RelatedDeadline, deadline.DeadlineID)
		}
		result.IDs = append(result.IDs, deadline.DeadlineID)
	}
	result.AlertsSent = len(result.IDs)
	return result, nil
}

// alertRecipients 一条临期提醒的收件对象
type alertRecipients struct {
	thesis *model.Thesis
	jurors []string
}

// alertTarget 查出提醒所需的论文与评审委员；论文已删除时返回 nil
func (s *deadlineService) alertTarget(ctx context.Context, deadline *model.Deadline) (*alertRecipients, error) {
	thesis := deadline.Thesis
	if thesis == nil {
		var err error
		thesis, err = s.repo.Thesis.GetByID(ctx, deadline.ThesisID)
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return nil, nil
			}
			return nil, err
		}
	}
	if !thesis.IsActive {
		return nil, nil
	}

	target := &alertRecipients{thesis: thesis}
	if deadline.Type == model.DeadlineCommitteeEvaluation {
		members, err := s.repo.Jury.ListActiveMembers(ctx, deadline.ThesisID)
		if err != nil {
			return nil, err
		}
		for _, m := range members {
			target.jurors = append(target.jurors, m.UserID)
		}
	}
	return target, nil
}

// markAlerted 写入当日提醒标记；返回 false 表示今日已提醒过。
// 去重存储不可用时仍然发送。
func (s *deadlineService) markAlerted(ctx context.Context, deadlineID string, now time.Time) bool {
	if s.guard == nil {
		return true
	}
	ok, err := s.guard.MarkAlerted(ctx, deadlineID, clock.StartOfDay(now.In(s.loc)), s.cfg.AlertDedupTTL)
	if err != nil {
		s.logger.Warn("写入提醒去重标记失败，按未提醒处理", zap.String("deadline_id", deadlineID), zap.Error(err))
		return true
	}
	return ok
}

// ── 辅助 ──

type remainingDays struct {
	calendar int
	business int
	expired  bool
	urgent   bool
}

func (s *deadlineService) remaining(due time.Time) remainingDays {
	now := s.now()
	r := remainingDays{
		calendar: clock.RemainingCalendarDays(now, due),
		business: clock.CountBusinessDaysBetween(now, due),
	}
	r.expired = r.calendar < 0
	r.urgent = r.business > 0 && r.business <= s.cfg.AlertThresholdBusinessDays
	return r
}

func (s *deadlineService) withRemaining(d *model.Deadline) dto.DeadlineWithRemaining {
	r := s.remaining(d.DueDate)
	return dto.DeadlineWithRemaining{
		DeadlineResponse:      *toDeadlineResponse(d),
		RemainingDays:         r.calendar,
		RemainingBusinessDays: r.business,
		IsExpired:             r.expired,
		IsUrgent:              r.urgent,
	}
}

// now 当前时间，换算到期限所用时区
func (s *deadlineService) now() time.Time {
	return s.clock.Now().In(s.loc)
}

func (s *deadlineService) getDeadline(ctx context.Context, id string) (*model.Deadline, error) {
	deadline, err := s.repo.Deadline.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrDeadlineNotFound
		}
		s.logger.Error("查询期限失败", zap.String("deadline_id", id), zap.Error(err))
		return nil, err
	}
	return deadline, nil
}

// parseDueDate 支持 RFC3339 与 "2006-01-02"（按当日 23:59:59 计）
func parseDueDate(value string, loc *time.Location) (time.Time, error) {
	if t, err := time.Parse(time.RFC3339, value); err == nil {
		return t, nil
	}
	d, err := time.ParseInLocation("2006-01-02", value, loc)
	if err != nil {
		return time.Time{}, err
	}
	return d.Add(24*time.Hour - time.Second), nil
}

func toDeadlineResponse(d *model.Deadline) *dto.DeadlineResponse {
	resp := &dto.DeadlineResponse{
		ID:            d.DeadlineID,
		ThesisID:      d.ThesisID,
		Type:          string(d.Type),
		TypeLabel:     workflow.DeadlineTypeLabel(d.Type),
		DueDate:       d.DueDate.Format(time.RFC3339),
		BusinessDays:  d.BusinessDays,
		CalendarDays:  d.CalendarDays,
		Status:        string(d.Status),
		ExtensionOfID: d.ExtensionOfID,
		Notes:         d.Notes,
		CreatedAt:     d.CreatedAt.Format(time.RFC3339),
	}
	if d.Thesis != nil {
		resp.ThesisTitle = d.Thesis.Title
	}
	if d.CompletedAt != nil {
		completed := d.CompletedAt.Format(time.RFC3339)
		resp.CompletedAt = &completed
	}
	return resp
}

func toDeadlineResponses(deadlines []model.Deadline) []dto.DeadlineResponse {
	result := make([]dto.DeadlineResponse, 0, len(deadlines))
	for i := range deadlines {
		result = append(result, *toDeadlineResponse(&deadlines[i]))
	}
	return result
}
