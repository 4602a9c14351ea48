package model

import "time"

// JuryRole 评审委员会角色
type JuryRole string

const (
	JuryRolePresident JuryRole = "PRESIDENT"
	JuryRoleSecretary JuryRole = "SECRETARY"
	JuryRoleMember    JuryRole = "MEMBER"
	JuryRoleAlternate JuryRole = "ALTERNATE"
)

// IsValid 是否为已定义的委员角色
func (r JuryRole) IsValid() bool {
	switch r {
	case JuryRolePresident, JuryRoleSecretary, JuryRoleMember, JuryRoleAlternate:
		return true
	}
	return false
}

// JuryMember 评审委员表，对应 jury_members
type JuryMember struct {
	JuryMemberID string   `gorm:"type:uuid;primaryKey;default:gen_random_uuid()" json:"jury_member_id"`
	ThesisID     string   `gorm:"type:uuid;not null;index"                       json:"thesis_id"`
	UserID       string   `gorm:"type:uuid;not null"                             json:"user_id"`
	Role         JuryRole `gorm:"type:varchar(20);not null"                      json:"role"`
	IsActive     bool     `gorm:"not null;default:true"                          json:"is_active"`
	BaseModel

	// 关联
	User *User `gorm:"foreignKey:UserID;references:UserID" json:"user,omitempty"`
}

// TableName 指定表名
func (JuryMember) TableName() string { return "jury_members" }

// ReviewDecision 评审意见
type ReviewDecision string

const (
	DecisionPending  ReviewDecision = "PENDING"
	DecisionApproved ReviewDecision = "APPROVED"
	DecisionObserved ReviewDecision = "OBSERVED"
	DecisionRejected ReviewDecision = "REJECTED"
)

// IsValid 是否为已定义的评审意见
func (d ReviewDecision) IsValid() bool {
	switch d {
	case DecisionPending, DecisionApproved, DecisionObserved, DecisionRejected:
		return true
	}
	return false
}

// Review 评审意见表，对应 reviews
// 重新提交时插入新行（review_number 递增），旧行保留作为历史
type Review struct {
	ReviewID     string         `gorm:"type:uuid;primaryKey;default:gen_random_uuid()" json:"review_id"`
	ThesisID     string         `gorm:"type:uuid;not null;index"                       json:"thesis_id"`
	JuryMemberID string         `gorm:"type:uuid;not null"                             json:"jury_member_id"`
	Decision     ReviewDecision `gorm:"type:varchar(20);not null;default:'PENDING'"    json:"decision"`
	ReviewNumber int            `gorm:"not null"                                       json:"review_number"`
	Observations *string        `gorm:"type:text"                                      json:"observations,omitempty"`
	Comments     *string        `gorm:"type:text"                                      json:"comments,omitempty"`
	ReviewedAt   *time.Time     `json:"reviewed_at,omitempty"`
	CreatedAt    time.Time      `gorm:"not null;default:CURRENT_TIMESTAMP"             json:"created_at"`

	// 关联
	JuryMember *JuryMember `gorm:"foreignKey:JuryMemberID;references:JuryMemberID" json:"jury_member,omitempty"`
}

// TableName 指定表名
func (Review) TableName() string { return "reviews" }
