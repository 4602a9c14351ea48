package service

import (
	"context"
	"errors"
	"fmt"

	"go.uber.org/zap"
	"gorm.io/gorm"

	"github.com/otidevv/backend-seguimiento-tesis/internal/model"
	"github.com/otidevv/backend-seguimiento-tesis/internal/repository"
	"github.com/otidevv/backend-seguimiento-tesis/internal/workflow"
	"github.com/otidevv/backend-seguimiento-tesis/pkg/clock"
	pkgerrors "github.com/otidevv/backend-seguimiento-tesis/pkg/errors"
)

// transitionRequest 一次论文状态流转
type transitionRequest struct {
	ThesisID string
	Target   model.ThesisStatus
	ActorID  string
	Reason   string

	// Prepare 在状态校验之前、同一事务内执行，可做权限校验或附带写入；
	// 返回的 metadata 写入本次历史记录
	Prepare func(tx *repository.Repository, thesis *model.Thesis) ([]byte, error)
}

// transitionResult 已提交的流转结果
type transitionResult struct {
	Thesis *model.Thesis
	Change *workflow.Change
}

// transitioner 论文状态流转的公共执行器：
// 行锁读取 → 状态机校验 → 按版本号写状态 → 追加历史，全部在一个事务中完成
type transitioner struct {
	repo      *repository.Repository
	deadlines DeadlineService
	notifier  Notifier
	clock     clock.Clock
	logger    *zap.Logger
}

func (t *transitioner) run(ctx context.Context, req transitionRequest) (*transitionResult, error) {
	var result transitionResult

	err := t.repo.Transaction(ctx, func(tx *repository.Repository) error {
		thesis, err := tx.Thesis.GetForUpdate(ctx, req.ThesisID)
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return ErrThesisNotFound
			}
			return err
		}

		var metadata []byte
		if req.Prepare != nil {
			if metadata, err = req.Prepare(tx, thesis); err != nil {
				return err
			}
		}

		change, err := workflow.Transition(thesis, req.Target, req.ActorID, req.Reason)
		if err != nil {
			return err
		}

		now := t.clock.Now()
		change.Apply(thesis, now)
		if err := tx.Thesis.UpdateStatus(ctx, thesis); err != nil {
			return err
		}
		if err := tx.Thesis.CreateHistory(ctx, change.History(metadata, now)); err != nil {
			return err
		}

		result.Thesis = thesis
		result.Change = change
		return nil
	})
	if err != nil {
		if pkgerrors.KindOf(err) == "" {
			t.logger.Error("论文状态流转失败",
				zap.String("thesis_id", req.ThesisID),
				zap.String("target", string(req.Target)),
				zap.Error(err),
			)
		}
		return nil, err
	}

	t.logger.Info("论文状态变更",
		zap.String("thesis_id", req.ThesisID),
		zap.String("from", string(result.Change.From)),
		zap.String("to", string(result.Change.To)),
		zap.String("actor_id", req.ActorID),
	)
	return &result, nil
}

// afterTransition 流转提交后的期限联动，失败只记录日志：
//   - 离开 UNDER_EVALUATION：评审期限完成
//   - LIFTING_OBSERVATIONS → UNDER_EVALUATION：整改期限完成
//   - 进入 UNDER_EVALUATION / OBSERVED：自动创建对应期限
func (t *transitioner) afterTransition(ctx context.Context, change *workflow.Change) {
	if t.deadlines == nil {
		return
	}

	if change.From == model.StatusUnderEvaluation {
		if err := t.deadlines.FulfillActive(ctx, change.ThesisID, model.DeadlineCommitteeEvaluation); err != nil {
			t.logger.Warn("完成评审期限失败", zap.String("thesis_id", change.ThesisID), zap.Error(err))
		}
	}
	if change.From == model.StatusLiftingObservations && change.To == model.StatusUnderEvaluation {
		if err := t.deadlines.FulfillActive(ctx, change.ThesisID,
			model.DeadlineObservationLift, model.DeadlineObservationExtension); err != nil {
			t.logger.Warn("完成整改期限失败", zap.String("thesis_id", change.ThesisID), zap.Error(err))
		}
	}

	if _, err := t.deadlines.CreateAutomatic(ctx, change.ThesisID, change.To); err != nil {
		t.logger.Warn("自动创建期限失败",
			zap.String("thesis_id", change.ThesisID),
			zap.String("status", string(change.To)),
			zap.Error(err),
		)
	}
}

// notifyStatusChange 通知作者与合著者论文状态变化
func (t *transitioner) notifyStatusChange(ctx context.Context, thesis *model.Thesis) {
	notifyUsers(ctx, t.notifier, t.logger, thesis.StudentIDs(),
		"论文状态更新",
		fmt.Sprintf("您的论文《%s》状态已变更为：%s。",
			shortTitle(thesis.Title, 50), workflow.StatusLabel(thesis.Status)),
		RelatedThesis, thesis.ThesisID)
}
