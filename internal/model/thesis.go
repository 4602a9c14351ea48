package model

import (
	"time"

	"gorm.io/datatypes"
)

// ThesisStatus 论文状态
type ThesisStatus string

const (
	StatusDraft               ThesisStatus = "DRAFT"
	StatusSubmitted           ThesisStatus = "SUBMITTED"
	StatusRegistered          ThesisStatus = "REGISTERED"
	StatusForwardedToSchool   ThesisStatus = "FORWARDED_TO_SCHOOL"
	StatusCommitteeAssigned   ThesisStatus = "COMMITTEE_ASSIGNED"
	StatusUnderEvaluation     ThesisStatus = "UNDER_EVALUATION"
	StatusObserved            ThesisStatus = "OBSERVED"
	StatusLiftingObservations ThesisStatus = "LIFTING_OBSERVATIONS"
	StatusApproved            ThesisStatus = "APPROVED"
	StatusResolutionIssued    ThesisStatus = "RESOLUTION_ISSUED"
	StatusInDevelopment       ThesisStatus = "IN_DEVELOPMENT"
	StatusFinalReview         ThesisStatus = "FINAL_REVIEW"
	StatusReadyForDefense     ThesisStatus = "READY_FOR_DEFENSE"
	StatusDefended            ThesisStatus = "DEFENDED"
	StatusFinalized           ThesisStatus = "FINALIZED"
	StatusRejected            ThesisStatus = "REJECTED"
	StatusDeadlineExpired     ThesisStatus = "DEADLINE_EXPIRED"
)

// AllThesisStatuses 全部论文状态（按流程顺序）
var AllThesisStatuses = []ThesisStatus{
	StatusDraft, StatusSubmitted, StatusRegistered, StatusForwardedToSchool,
	StatusCommitteeAssigned, StatusUnderEvaluation, StatusObserved, StatusLiftingObservations,
	StatusApproved, StatusResolutionIssued, StatusInDevelopment, StatusFinalReview,
	StatusReadyForDefense, StatusDefended, StatusFinalized, StatusRejected, StatusDeadlineExpired,
}

// IsValid 是否为已定义的状态
func (s ThesisStatus) IsValid() bool {
	for _, st := range AllThesisStatuses {
		if st == s {
			return true
		}
	}
	return false
}

// IsInProgress 是否计入"在办论文"（除已完结与被驳回外的全部状态）
func (s ThesisStatus) IsInProgress() bool {
	return s.IsValid() && s != StatusFinalized && s != StatusRejected
}

// InProgressStatuses 返回计入"在办论文"的状态集合
func InProgressStatuses() []ThesisStatus {
	result := make([]ThesisStatus, 0, len(AllThesisStatuses))
	for _, s := range AllThesisStatuses {
		if s.IsInProgress() {
			result = append(result, s)
		}
	}
	return result
}

// Thesis 论文表，对应 theses
type Thesis struct {
	ThesisID       string       `gorm:"type:uuid;primaryKey;default:gen_random_uuid()" json:"thesis_id"`
	Title          string       `gorm:"type:varchar(500);not null"                     json:"title"`
	Description    string       `gorm:"type:text"                                      json:"description,omitempty"`
	AcademicDegree string       `gorm:"type:varchar(100);not null"                     json:"academic_degree"`
	CareerID       string       `gorm:"type:uuid;not null"                             json:"career_id"`
	AuthorID       string       `gorm:"type:uuid;not null"                             json:"author_id"`
	CoAuthorID     *string      `gorm:"type:uuid"                                      json:"co_author_id,omitempty"`
	AdvisorID      string       `gorm:"type:uuid;not null"                             json:"advisor_id"`
	CoAdvisorID    *string      `gorm:"type:uuid"                                      json:"co_advisor_id,omitempty"`
	Status         ThesisStatus `gorm:"type:varchar(30);not null;default:'DRAFT'"      json:"status"`
	IsActive       bool         `gorm:"not null;default:true"                          json:"is_active"`
	ApprovalDate   *time.Time   `json:"approval_date,omitempty"`
	DefenseDate    *time.Time   `json:"defense_date,omitempty"`
	Version        int          `gorm:"not null;default:1"                             json:"version"`
	BaseModel

	// 关联
	Career      *Career      `gorm:"foreignKey:CareerID;references:CareerID" json:"career,omitempty"`
	JuryMembers []JuryMember `gorm:"foreignKey:ThesisID"                     json:"jury_members,omitempty"`
}

// TableName 指定表名
func (Thesis) TableName() string { return "theses" }

// IsAuthorOrCoAuthor 判断用户是否为作者或合著者
func (t *Thesis) IsAuthorOrCoAuthor(userID string) bool {
	return t.AuthorID == userID || (t.CoAuthorID != nil && *t.CoAuthorID == userID)
}

// StudentIDs 返回作者及合著者（如有）
func (t *Thesis) StudentIDs() []string {
	ids := []string{t.AuthorID}
	if t.CoAuthorID != nil && *t.CoAuthorID != "" {
		ids = append(ids, *t.CoAuthorID)
	}
	return ids
}

// ThesisStatusHistory 论文状态变更记录表，对应 thesis_status_histories（只追加，写入后不可修改）
type ThesisStatusHistory struct {
	HistoryID      string         `gorm:"type:uuid;primaryKey;default:gen_random_uuid()" json:"history_id"`
	ThesisID       string         `gorm:"type:uuid;not null;index"                       json:"thesis_id"`
	PreviousStatus *ThesisStatus  `gorm:"type:varchar(30)"                               json:"previous_status,omitempty"`
	NewStatus      ThesisStatus   `gorm:"type:varchar(30);not null"                      json:"new_status"`
	ChangedByID    string         `gorm:"type:uuid;not null"                             json:"changed_by_id"`
	Reason         string         `gorm:"type:varchar(1000);not null"                    json:"reason"`
	Metadata       datatypes.JSON `gorm:"type:jsonb"                                     json:"metadata,omitempty"`
	CreatedAt      time.Time      `gorm:"not null;default:CURRENT_TIMESTAMP"             json:"created_at"`
}

// TableName 指定表名
func (ThesisStatusHistory) TableName() string { return "thesis_status_histories" }
