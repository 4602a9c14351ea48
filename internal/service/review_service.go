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

// ── 评审模块业务错误 ──

var (
	ErrReviewNotFound         = pkgerrors.New(pkgerrors.KindNotFound, "评审意见不存在")
	ErrThesisNotUnderReview   = pkgerrors.New(pkgerrors.KindInvalidState, "论文当前不在评审阶段")
	ErrNotJuryMember          = pkgerrors.New(pkgerrors.KindForbidden, "您不是该论文的在任评审委员")
	ErrNotJuryPresident       = pkgerrors.New(pkgerrors.KindForbidden, "只有评审委员会主席可以作出最终决定")
	ErrReviewDecisionInvalid  = pkgerrors.New(pkgerrors.KindValidation, "评审意见取值无效")
	ErrPresidentDecisionValue = pkgerrors.New(pkgerrors.KindValidation, "主席决定只能为 OBSERVED、APPROVED 或 REJECTED")
	ErrConsensusIncomplete    = pkgerrors.New(pkgerrors.KindInvalidState, "评审意见尚未全部提交，主席暂不能作出决定")
)

// presidentDecisions 主席可作出的决定及其对应的论文目标状态
var presidentDecisions = map[model.ReviewDecision]model.ThesisStatus{
	model.DecisionApproved: model.StatusApproved,
	model.DecisionObserved: model.StatusObserved,
	model.DecisionRejected: model.StatusRejected,
}

// decisionLabels 评审意见中文名称
var decisionLabels = map[model.ReviewDecision]string{
	model.DecisionPending:  "待定",
	model.DecisionApproved: "通过",
	model.DecisionObserved: "需修改",
	model.DecisionRejected: "不通过",
}

// ReviewService 评审意见与共识业务接口
type ReviewService interface {
	Submit(ctx context.Context, thesisID string, req *dto.SubmitReviewRequest, actor workflow.Actor) (*dto.ReviewResponse, error)
	PresidentDecision(ctx context.Context, thesisID string, req *dto.PresidentDecisionRequest, actor workflow.Actor) (*dto.PresidentDecisionResponse, error)
	GetSummary(ctx context.Context, thesisID string) (*dto.ReviewSummaryResponse, error)
	ListByThesis(ctx context.Context, thesisID string) ([]dto.ReviewResponse, error)
	ListMine(ctx context.Context, actor workflow.Actor) ([]dto.ReviewResponse, error)
	GetByID(ctx context.Context, id string) (*dto.ReviewResponse, error)
}

type reviewService struct {
	cfg         config.ReviewConfig
	repo        *repository.Repository
	transitions *transitioner
	notifier    Notifier
	clock       clock.Clock
	logger      *zap.Logger
}

// NewReviewService 创建 ReviewService 实例
func NewReviewService(
	cfg config.ReviewConfig,
	repo *repository.Repository,
	deadlines DeadlineService,
	notifier Notifier,
	clk clock.Clock,
	logger *zap.Logger,
) ReviewService {
	return &reviewService{
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

// ────────────────────── Submit ──────────────────────

// Submit 在任委员提交评审意见，每次提交插入新行。
// 提交后若全部委员意见齐全，通知主席。
func (s *reviewService) Submit(ctx context.Context, thesisID string, req *dto.SubmitReviewRequest, actor workflow.Actor) (*dto.ReviewResponse, error) {
	decision := model.ReviewDecision(req.Decision)
	if !decision.IsValid() {
		return nil, ErrReviewDecisionInvalid
	}

	var (
		thesis  *model.Thesis
		member  *model.JuryMember
		members []model.JuryMember
		reviews []model.Review
		review  *model.Review
	)
	err := s.repo.Transaction(ctx, func(tx *repository.Repository) error {
		var err error
		thesis, err = tx.Thesis.GetForUpdate(ctx, thesisID)
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return ErrThesisNotFound
			}
			return err
		}
		if thesis.Status != model.StatusUnderEvaluation {
			return ErrThesisNotUnderReview
		}

		members, err = tx.Jury.ListActiveMembers(ctx, thesisID)
		if err != nil {
			return err
		}
		member = workflow.FindActiveMember(members, actor.ID)
		if member == nil {
			return ErrNotJuryMember
		}

		reviews, err = tx.Jury.ListReviews(ctx, thesisID)
		if err != nil {
			return err
		}

		now := s.clock.Now()
		review = &model.Review{
			ThesisID:     thesisID,
			JuryMemberID: member.JuryMemberID,
			Decision:     decision,
			ReviewNumber: workflow.NextReviewNumber(reviews, member.JuryMemberID),
			Observations: req.Observations,
			Comments:     req.Comments,
			CreatedAt:    now,
		}
		if decision != model.DecisionPending {
			review.ReviewedAt = &now
		}
		return tx.Jury.CreateReview(ctx, review)
	})
	if err != nil {
		if pkgerrors.KindOf(err) == "" {
			s.logger.Error("提交评审意见失败", zap.String("thesis_id", thesisID), zap.Error(err))
		}
		return nil, err
	}

	s.logger.Info("提交评审意见",
		zap.String("thesis_id", thesisID),
		zap.String("jury_member_id", member.JuryMemberID),
		zap.String("decision", string(decision)),
		zap.Int("review_number", review.ReviewNumber),
	)

	reviews = append(reviews, *review)
	s.notifyPresidentIfComplete(ctx, thesis, members, reviews)

	review.JuryMember = member
	return toReviewResponse(review), nil
}

// notifyPresidentIfComplete 意见齐全时通知主席；有委员却没有主席时只记录告警
func (s *reviewService) notifyPresidentIfComplete(ctx context.Context, thesis *model.Thesis, members []model.JuryMember, reviews []model.Review) {
	consensus := workflow.ComputeConsensus(members, reviews)
	if !consensus.IsComplete {
		return
	}
	president := workflow.FindPresident(members)
	if president == nil {
		s.logger.Warn("评审意见已齐全但委员会没有主席",
			zap.String("thesis_id", thesis.ThesisID),
			zap.Int("members", consensus.TotalMembers),
		)
		return
	}

	t := consensus.Tally
	notifyUsers(ctx, s.notifier, s.logger, []string{president.UserID},
		"评审意见已齐全",
		fmt.Sprintf("论文《%s》的全部评审意见已提交：通过 %d，需修改 %d，不通过 %d。请作出最终决定。",
			shortTitle(thesis.Title, 50), t.Approved, t.Observed, t.Rejected),
		RelatedThesis, thesis.ThesisID)
}

// ────────────────────── President decision ──────────────────────

// PresidentDecision 主席作出最终决定，驱动论文离开 UNDER_EVALUATION。
// 共识统计与主席决定一并写入状态历史的 metadata。
func (s *reviewService) PresidentDecision(ctx context.Context, thesisID string, req *dto.PresidentDecisionRequest, actor workflow.Actor) (*dto.PresidentDecisionResponse, error) {
	decision := model.ReviewDecision(req.Decision)
	target, ok := presidentDecisions[decision]
	if !ok {
		return nil, ErrPresidentDecisionValue
	}

	var consensus workflow.Consensus
	result, err := s.transitions.run(ctx, transitionRequest{
		ThesisID: thesisID,
		Target:   target,
		ActorID:  actor.ID,
		Reason:   "主席决定: " + req.Reason,
		Prepare: func(tx *repository.Repository, thesis *model.Thesis) ([]byte, error) {
			if thesis.Status != model.StatusUnderEvaluation {
				return nil, ErrThesisNotUnderReview
			}
			members, err := tx.Jury.ListActiveMembers(ctx, thesis.ThesisID)
			if err != nil {
				return nil, err
			}
			president := workflow.FindPresident(members)
			if president == nil || president.UserID != actor.ID {
				return nil, ErrNotJuryPresident
			}

			reviews, err := tx.Jury.ListReviews(ctx, thesis.ThesisID)
			if err != nil {
				return nil, err
			}
			consensus = workflow.ComputeConsensus(members, reviews)
			if s.cfg.RequireCompleteConsensus && !consensus.IsComplete {
				return nil, ErrConsensusIncomplete
			}

			return json.Marshal(decisionSnapshot{
				Consensus:         consensus,
				PresidentDecision: decision,
				PresidentReason:   req.Reason,
			})
		},
	})
	if err != nil {
		return nil, err
	}

	s.transitions.afterTransition(ctx, result.Change)
	notifyUsers(ctx, s.notifier, s.logger, result.Thesis.StudentIDs(),
		"评审结果",
		fmt.Sprintf("您的论文《%s》评审结果：%s。主席意见：%s",
			shortTitle(result.Thesis.Title, 50), decisionLabels[decision], req.Reason),
		RelatedThesis, result.Thesis.ThesisID)

	s.logger.Info("主席作出决定",
		zap.String("thesis_id", thesisID),
		zap.String("decision", string(decision)),
		zap.Bool("consensus_complete", consensus.IsComplete),
	)
	return &dto.PresidentDecisionResponse{
		Thesis:   *toThesisResponse(result.Thesis, nil),
		Decision: string(decision),
		Reason:   req.Reason,
		Summary:  toReviewSummary(thesisID, consensus),
	}, nil
}

// decisionSnapshot 主席决定时写入历史 metadata 的快照
type decisionSnapshot struct {
	workflow.Consensus
	PresidentDecision model.ReviewDecision `json:"president_decision"`
	PresidentReason   string               `json:"president_reason"`
}

// ────────────────────── 查询 ──────────────────────

func (s *reviewService) GetSummary(ctx context.Context, thesisID string) (*dto.ReviewSummaryResponse, error) {
	if _, err := s.repo.Thesis.GetByID(ctx, thesisID); err != nil {
		return nil, mapThesisLookupError(s.logger, thesisID, err)
	}

	members, err := s.repo.Jury.ListActiveMembers(ctx, thesisID)
	if err != nil {
		s.logger.Error("查询评审委员失败", zap.String("thesis_id", thesisID), zap.Error(err))
		return nil, err
	}
	reviews, err := s.repo.Jury.ListReviews(ctx, thesisID)
	if err != nil {
		s.logger.Error("查询评审意见失败", zap.String("thesis_id", thesisID), zap.Error(err))
		return nil, err
	}

	summary := toReviewSummary(thesisID, workflow.ComputeConsensus(members, reviews))
	return &summary, nil
}

func (s *reviewService) ListByThesis(ctx context.Context, thesisID string) ([]dto.ReviewResponse, error) {
	reviews, err := s.repo.Jury.ListReviews(ctx, thesisID)
	if err != nil {
		s.logger.Error("查询评审意见失败", zap.String("thesis_id", thesisID), zap.Error(err))
		return nil, err
	}
	return toReviewResponses(reviews), nil
}

func (s *reviewService) ListMine(ctx context.Context, actor workflow.Actor) ([]dto.ReviewResponse, error) {
	reviews, err := s.repo.Jury.ListReviewsByUser(ctx, actor.ID)
	if err != nil {
		s.logger.Error("查询我的评审意见失败", zap.String("user_id", actor.ID), zap.Error(err))
		return nil, err
	}
	return toReviewResponses(reviews), nil
}

func (s *reviewService) GetByID(ctx context.Context, id string) (*dto.ReviewResponse, error) {
	review, err := s.repo.Jury.GetReview(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrReviewNotFound
		}
		s.logger.Error("查询评审意见失败", zap.String("review_id", id), zap.Error(err))
		return nil, err
	}
	return toReviewResponse(review), nil
}

// ── DTO 转换 ──

func toReviewResponse(r *model.Review) *dto.ReviewResponse {
	resp := &dto.ReviewResponse{
		ID:           r.ReviewID,
		ThesisID:     r.ThesisID,
		JuryMemberID: r.JuryMemberID,
		Decision:     string(r.Decision),
		ReviewNumber: r.ReviewNumber,
		Observations: r.Observations,
		Comments:     r.Comments,
		CreatedAt:    r.CreatedAt.Format(time.RFC3339),
	}
	if r.JuryMember != nil {
		resp.JuryRole = string(r.JuryMember.Role)
	}
	if r.ReviewedAt != nil {
		v := r.ReviewedAt.Format(time.RFC3339)
		resp.ReviewedAt = &v
	}
	return resp
}

func toReviewResponses(reviews []model.Review) []dto.ReviewResponse {
	result := make([]dto.ReviewResponse, 0, len(reviews))
	for i := range reviews {
		result = append(result, *toReviewResponse(&reviews[i]))
	}
	return result
}

func toReviewSummary(thesisID string, c workflow.Consensus) dto.ReviewSummaryResponse {
	votes := make([]dto.VoteResponse, 0, len(c.Votes))
	for _, v := range c.Votes {
		votes = append(votes, dto.VoteResponse{
			JuryMemberID: v.JuryMemberID,
			UserID:       v.UserID,
			Role:         string(v.Role),
			Decision:     string(v.Decision),
			ReviewNumber: v.ReviewNumber,
		})
	}
	return dto.ReviewSummaryResponse{
		ThesisID:     thesisID,
		TotalMembers: c.TotalMembers,
		Reviewed:     c.Reviewed,
		IsComplete:   c.IsComplete,
		Tally: dto.TallyResponse{
			Approved: c.Tally.Approved,
			Observed: c.Tally.Observed,
			Rejected: c.Tally.Rejected,
			Pending:  c.Tally.Pending,
		},
		Votes: votes,
	}
}
