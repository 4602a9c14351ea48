package workflow

import "github.com/otidevv/backend-seguimiento-tesis/internal/model"

// statusLabels 论文状态的显示名称
var statusLabels = map[model.ThesisStatus]string{
	model.StatusDraft:               "草稿",
	model.StatusSubmitted:           "已提交",
	model.StatusRegistered:          "已登记",
	model.StatusForwardedToSchool:   "已转交学院",
	model.StatusCommitteeAssigned:   "已指派评审委员会",
	model.StatusUnderEvaluation:     "评审中",
	model.StatusObserved:            "有评审意见",
	model.StatusLiftingObservations: "整改中",
	model.StatusApproved:            "已通过",
	model.StatusResolutionIssued:    "已发布决议",
	model.StatusInDevelopment:       "撰写中",
	model.StatusFinalReview:         "终审中",
	model.StatusReadyForDefense:     "可答辩",
	model.StatusDefended:            "已答辩",
	model.StatusFinalized:           "已完结",
	model.StatusRejected:            "已驳回",
	model.StatusDeadlineExpired:     "期限已过",
}

// deadlineTypeLabels 期限类型的显示名称
var deadlineTypeLabels = map[model.DeadlineType]string{
	model.DeadlineCommitteeEvaluation:  "评审委员会评审",
	model.DeadlineObservationLift:      "评审意见整改",
	model.DeadlineObservationExtension: "整改延期",
	model.DeadlineCorrectionReview:     "修改稿复核",
	model.DeadlineDefense:              "答辩",
}

// juryRoleLabels 委员角色的显示名称
var juryRoleLabels = map[model.JuryRole]string{
	model.JuryRolePresident: "主席",
	model.JuryRoleSecretary: "秘书",
	model.JuryRoleMember:    "委员",
	model.JuryRoleAlternate: "候补委员",
}

// StatusLabel 状态显示名称，未知状态原样返回
func StatusLabel(s model.ThesisStatus) string {
	if l, ok := statusLabels[s]; ok {
		return l
	}
	return string(s)
}

// DeadlineTypeLabel 期限类型显示名称
func DeadlineTypeLabel(t model.DeadlineType) string {
	if l, ok := deadlineTypeLabels[t]; ok {
		return l
	}
	return string(t)
}

// JuryRoleLabel 委员角色显示名称
func JuryRoleLabel(r model.JuryRole) string {
	if l, ok := juryRoleLabels[r]; ok {
		return l
	}
	return string(r)
}

// resolutionTypeLabels 决议类型的显示名称
var resolutionTypeLabels = map[model.ResolutionType]string{
	model.ResolutionProjectApproval:    "开题批准",
	model.ResolutionJuryDesignation:    "评审委员会任命",
	model.ResolutionAdvisorDesignation: "指导教师任命",
	model.ResolutionDraftApproval:      "初稿批准",
	model.ResolutionDefenseScheduling:  "答辩安排",
	model.ResolutionThesisApproval:     "论文批准",
	model.ResolutionDegreeDiploma:      "学位证书",
	model.ResolutionOther:              "其他",
}

// ResolutionTypeLabel 决议类型显示名称
func ResolutionTypeLabel(t model.ResolutionType) string {
	if l, ok := resolutionTypeLabels[t]; ok {
		return l
	}
	return string(t)
}
