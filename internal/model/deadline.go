package model

import "time"

// DeadlineType 期限类型
type DeadlineType string

const (
	DeadlineCommitteeEvaluation  DeadlineType = "COMMITTEE_EVALUATION"  // 评审委员会评审
	DeadlineObservationLift      DeadlineType = "OBSERVATION_LIFT"      // 整改评审意见
	DeadlineObservationExtension DeadlineType = "OBSERVATION_EXTENSION" // 整改延期（每篇论文至多一次）
	DeadlineCorrectionReview     DeadlineType = "CORRECTION_REVIEW"     // 修改稿复核
	DeadlineDefense              DeadlineType = "DEFENSE"               // 答辩
)

// IsValid 是否为已定义的期限类型
func (t DeadlineType) IsValid() bool {
	switch t {
	case DeadlineCommitteeEvaluation, DeadlineObservationLift, DeadlineObservationExtension,
		DeadlineCorrectionReview, DeadlineDefense:
		return true
	}
	return false
}

// IsObservation 是否属于整改类期限（到期后论文进入 DEADLINE_EXPIRED）
func (t DeadlineType) IsObservation() bool {
	return t == DeadlineObservationLift || t == DeadlineObservationExtension
}

// DeadlineStatus 期限状态：ACTIVE 之后的状态均为终态
type DeadlineStatus string

const (
	DeadlineActive    DeadlineStatus = "ACTIVE"
	DeadlineFulfilled DeadlineStatus = "FULFILLED"
	DeadlineExpired   DeadlineStatus = "EXPIRED"
	DeadlineExtended  DeadlineStatus = "EXTENDED"
	DeadlineCancelled DeadlineStatus = "CANCELLED"
)

// Deadline 期限表，对应 deadlines
// 同一 (thesis_id, type) 至多一条 ACTIVE（部分唯一索引 uk_deadlines_active_per_type）
type Deadline struct {
	DeadlineID    string         `gorm:"type:uuid;primaryKey;default:gen_random_uuid()" json:"deadline_id"`
	ThesisID      string         `gorm:"type:uuid;not null;index"                       json:"thesis_id"`
	Type          DeadlineType   `gorm:"type:varchar(30);not null"                      json:"type"`
	DueDate       time.Time      `gorm:"not null"                                       json:"due_date"`
	BusinessDays  *int           `json:"business_days,omitempty"`
	CalendarDays  *int           `json:"calendar_days,omitempty"`
	Status        DeadlineStatus `gorm:"type:varchar(20);not null;default:'ACTIVE'"     json:"status"`
	ExtensionOfID *string        `gorm:"type:uuid"                                      json:"extension_of_id,omitempty"`
	Notes         *string        `gorm:"type:text"                                      json:"notes,omitempty"`
	CompletedAt   *time.Time     `json:"completed_at,omitempty"`
	BaseModel

	// 关联
	Thesis *Thesis `gorm:"foreignKey:ThesisID;references:ThesisID" json:"thesis,omitempty"`
}

// TableName 指定表名
func (Deadline) TableName() string { return "deadlines" }
