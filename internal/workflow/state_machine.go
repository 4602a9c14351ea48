// Package workflow 论文流程的纯业务规则：状态机、评审共识统计、操作权限，以及里程碑排序与决议编号。
//
// 本包不做任何 I/O，调用方（service 层）负责在同一事务内持久化状态与历史记录。
package workflow

import (
	"fmt"
	"time"

	"github.com/otidevv/backend-seguimiento-tesis/internal/model"
	pkgerrors "github.com/otidevv/backend-seguimiento-tesis/pkg/errors"
)

// ErrInvalidTransition 目标状态不可从当前状态到达
var ErrInvalidTransition = pkgerrors.New(pkgerrors.KindInvalidTransition, "非法的状态流转")

// transitions 状态邻接表：当前状态 → 允许的下一状态
var transitions = map[model.ThesisStatus][]model.ThesisStatus{
	model.StatusDraft:               {model.StatusSubmitted},
	model.StatusSubmitted:           {model.StatusRegistered},
	model.StatusRegistered:          {model.StatusForwardedToSchool},
	model.StatusForwardedToSchool:   {model.StatusCommitteeAssigned},
	model.StatusCommitteeAssigned:   {model.StatusUnderEvaluation},
	model.StatusUnderEvaluation:     {model.StatusObserved, model.StatusApproved, model.StatusRejected},
	model.StatusObserved:            {model.StatusLiftingObservations},
	model.StatusLiftingObservations: {model.StatusUnderEvaluation, model.StatusDeadlineExpired},
	model.StatusApproved:            {model.StatusResolutionIssued},
	model.StatusResolutionIssued:    {model.StatusInDevelopment},
	model.StatusInDevelopment:       {model.StatusFinalReview},
	model.StatusFinalReview:         {model.StatusReadyForDefense, model.StatusObserved},
	model.StatusReadyForDefense:     {model.StatusDefended},
	model.StatusDefended:            {model.StatusFinalized},
	model.StatusFinalized:           {},
	model.StatusRejected:            {},
	model.StatusDeadlineExpired:     {model.StatusDraft},
}

// expirable 整改期限到期时可被强制置为 DEADLINE_EXPIRED 的状态
var expirable = map[model.ThesisStatus]bool{
	model.StatusObserved:            true,
	model.StatusLiftingObservations: true,
}

// CanTransition 判断 current → target 是否合法
func CanTransition(current, target model.ThesisStatus) bool {
	for _, next := range transitions[current] {
		if next == target {
			return true
		}
	}
	return false
}

// NextStatuses 返回当前状态允许的下一状态
func NextStatuses(current model.ThesisStatus) []model.ThesisStatus {
	next := transitions[current]
	out := make([]model.ThesisStatus, len(next))
	copy(out, next)
	return out
}

// IsTerminal 是否为终态
func IsTerminal(status model.ThesisStatus) bool {
	next, ok := transitions[status]
	return ok && len(next) == 0
}

// CanExpire 整改期限到期时，论文当前状态是否允许强制进入 DEADLINE_EXPIRED
func CanExpire(status model.ThesisStatus) bool {
	return expirable[status]
}

// Expire 整改期限到期时的强制流转：OBSERVED / LIFTING_OBSERVATIONS → DEADLINE_EXPIRED。
// 此边不在常规邻接表中（OBSERVED 不能由人工直接置为 DEADLINE_EXPIRED），仅由期限过期处理使用。
func Expire(thesis *model.Thesis, actorID, reason string) (*Change, error) {
	if !CanExpire(thesis.Status) {
		return nil, fmt.Errorf("%w: %s → %s", ErrInvalidTransition, thesis.Status, model.StatusDeadlineExpired)
	}
	return &Change{
		ThesisID: thesis.ThesisID,
		From:     thesis.Status,
		To:       model.StatusDeadlineExpired,
		ActorID:  actorID,
		Reason:   reason,
	}, nil
}

// Change 一次已通过校验的状态变更，由调用方持久化
type Change struct {
	ThesisID string
	From     model.ThesisStatus
	To       model.ThesisStatus
	ActorID  string
	Reason   string
}

// Transition 校验论文从当前状态流转到 target，返回待持久化的变更。
// 不修改 thesis 本身。
func Transition(thesis *model.Thesis, target model.ThesisStatus, actorID, reason string) (*Change, error) {
	if !CanTransition(thesis.Status, target) {
		return nil, fmt.Errorf("%w: %s → %s", ErrInvalidTransition, thesis.Status, target)
	}
	return &Change{
		ThesisID: thesis.ThesisID,
		From:     thesis.Status,
		To:       target,
		ActorID:  actorID,
		Reason:   reason,
	}, nil
}

// Apply 将变更写入论文快照：进入 APPROVED 记录通过日期，进入 DEFENDED 记录答辩日期
func (c *Change) Apply(thesis *model.Thesis, now time.Time) {
	thesis.Status = c.To
	switch c.To {
	case model.StatusApproved:
		t := now
		thesis.ApprovalDate = &t
	case model.StatusDefended:
		t := now
		thesis.DefenseDate = &t
	}
	actor := c.ActorID
	thesis.UpdatedBy = &actor
}

// History 生成与本次变更对应的状态历史记录
func (c *Change) History(metadata []byte, now time.Time) *model.ThesisStatusHistory {
	from := c.From
	return &model.ThesisStatusHistory{
		ThesisID:       c.ThesisID,
		PreviousStatus: &from,
		NewStatus:      c.To,
		ChangedByID:    c.ActorID,
		Reason:         c.Reason,
		Metadata:       metadata,
		CreatedAt:      now,
	}
}
