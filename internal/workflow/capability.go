package workflow

import (
	"github.com/otidevv/backend-seguimiento-tesis/internal/model"
	pkgerrors "github.com/otidevv/backend-seguimiento-tesis/pkg/errors"
)

// ErrForbidden 操作者缺少该操作所需的关系或角色
var ErrForbidden = pkgerrors.New(pkgerrors.KindForbidden, "无权执行该操作")

// Capability 操作者相对某篇论文的能力
type Capability string

const (
	CapAuthor      Capability = "AUTHOR"
	CapCoAuthor    Capability = "CO_AUTHOR"
	CapAdvisor     Capability = "ADVISOR"
	CapCoAdvisor   Capability = "CO_ADVISOR"
	CapJury        Capability = "JURY"
	CapAdmin       Capability = "ADMIN"
	CapCoordinator Capability = "COORDINATOR"
)

// Actor 操作者身份（由认证层提供）
type Actor struct {
	ID        string
	Roles     []string
	FacultyID string
}

// HasRole 是否持有任一角色
func (a Actor) HasRole(roles ...string) bool {
	return model.StringArray(a.Roles).Contains(roles...)
}

// Capabilities 能力集合
type Capabilities map[Capability]bool

// Has 是否具备任一能力
func (c Capabilities) Has(caps ...Capability) bool {
	for _, want := range caps {
		if c[want] {
			return true
		}
	}
	return false
}

// ResolveCapabilities 计算操作者对论文的能力集合。
// thesis 为 nil 时只解析全局角色（ADMIN / COORDINATOR）。
func ResolveCapabilities(actor Actor, thesis *model.Thesis, jury []model.JuryMember) Capabilities {
	caps := make(Capabilities, 4)
	if actor.HasRole(model.RoleAdmin) {
		caps[CapAdmin] = true
	}
	if actor.HasRole(model.RoleCoordinator) {
		caps[CapCoordinator] = true
	}
	if thesis == nil || actor.ID == "" {
		return caps
	}

	if thesis.AuthorID == actor.ID {
		caps[CapAuthor] = true
	}
	if thesis.CoAuthorID != nil && *thesis.CoAuthorID == actor.ID {
		caps[CapCoAuthor] = true
	}
	if thesis.AdvisorID == actor.ID {
		caps[CapAdvisor] = true
	}
	if thesis.CoAdvisorID != nil && *thesis.CoAdvisorID == actor.ID {
		caps[CapCoAdvisor] = true
	}
	if FindActiveMember(jury, actor.ID) != nil {
		caps[CapJury] = true
	}
	return caps
}

// Operation 需要权限校验的论文操作
type Operation string

const (
	OpUpdateThesis     Operation = "thesis.update"
	OpSubmitThesis     Operation = "thesis.submit"
	OpRemoveThesis     Operation = "thesis.remove"
	OpChangeStatus     Operation = "thesis.change_status"
	OpDecideEvaluation Operation = "thesis.decide_evaluation"
	OpAssignJury       Operation = "thesis.assign_jury"
	OpViewHistory      Operation = "thesis.view_history"
	OpCreateDeadline   Operation = "deadline.create"
	OpExtendDeadline   Operation = "deadline.extend"
	OpCompleteDeadline Operation = "deadline.complete"
	OpViewMilestones   Operation = "milestone.view"
	OpManageMilestones Operation = "milestone.manage"
	OpViewResolutions  Operation = "resolution.view"
	OpIssueResolution  Operation = "resolution.issue"
	OpUpdateResolution Operation = "resolution.update"
	OpRemoveResolution Operation = "resolution.remove"
	OpViewStatistics   Operation = "statistics.view"
)

// requirements 各操作允许的能力（满足任一即可）
var requirements = map[Operation][]Capability{
	OpUpdateThesis:     {CapAuthor, CapCoAuthor},
	OpSubmitThesis:     {CapAuthor, CapCoAuthor},
	OpRemoveThesis:     {CapAuthor, CapCoAuthor, CapAdmin},
	OpChangeStatus:     {CapAdmin, CapCoordinator, CapAdvisor, CapCoAdvisor},
	OpDecideEvaluation: {CapAdmin, CapCoordinator},
	OpAssignJury:       {CapAdmin, CapCoordinator},
	OpViewHistory:      {CapAuthor, CapCoAuthor, CapAdvisor, CapCoAdvisor, CapJury, CapAdmin, CapCoordinator},
	OpCreateDeadline:   {CapAdmin, CapCoordinator},
	OpExtendDeadline:   {CapAdmin, CapCoordinator},
	OpCompleteDeadline: {CapAdmin, CapCoordinator},
	OpViewMilestones:   {CapAuthor, CapCoAuthor, CapAdvisor, CapCoAdvisor, CapJury, CapAdmin, CapCoordinator},
	OpManageMilestones: {CapAuthor, CapCoAuthor, CapAdvisor, CapCoAdvisor, CapAdmin, CapCoordinator},
	OpViewResolutions:  {CapAuthor, CapCoAuthor, CapAdvisor, CapCoAdvisor, CapJury, CapAdmin, CapCoordinator},
	OpIssueResolution:  {CapAdmin, CapCoordinator},
	OpUpdateResolution: {CapAdmin, CapCoordinator},
	OpRemoveResolution: {CapAdmin},
	OpViewStatistics:   {CapAdmin, CapCoordinator},
}

// Authorize 校验能力集合是否满足操作要求；未登记的操作一律拒绝
func Authorize(op Operation, caps Capabilities) error {
	required, ok := requirements[op]
	if !ok || !caps.Has(required...) {
		return ErrForbidden
	}
	return nil
}

// StatusChangeOperation 直接变更状态对应的操作。
// 评审结论（UNDER_EVALUATION → APPROVED / OBSERVED / REJECTED）由主席决定，直接变更只开放给管理人员。
func StatusChangeOperation(from, to model.ThesisStatus) Operation {
	if from == model.StatusUnderEvaluation {
		switch to {
		case model.StatusApproved, model.StatusObserved, model.StatusRejected:
			return OpDecideEvaluation
		}
	}
	return OpChangeStatus
}
