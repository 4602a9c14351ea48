package model

import "time"

// ResolutionType 决议类型
type ResolutionType string

const (
	ResolutionProjectApproval    ResolutionType = "PROJECT_APPROVAL"    // 开题批准
	ResolutionJuryDesignation    ResolutionType = "JURY_DESIGNATION"    // 委员会任命
	ResolutionAdvisorDesignation ResolutionType = "ADVISOR_DESIGNATION" // 指导教师任命
	ResolutionDraftApproval      ResolutionType = "DRAFT_APPROVAL"      // 初稿批准
	ResolutionDefenseScheduling  ResolutionType = "DEFENSE_SCHEDULING"  // 答辩安排
	ResolutionThesisApproval     ResolutionType = "THESIS_APPROVAL"     // 论文批准
	ResolutionDegreeDiploma      ResolutionType = "DEGREE_DIPLOMA"      // 学位证书
	ResolutionOther              ResolutionType = "OTHER"
)

// AllResolutionTypes 全部决议类型
var AllResolutionTypes = []ResolutionType{
	ResolutionProjectApproval, ResolutionJuryDesignation, ResolutionAdvisorDesignation,
	ResolutionDraftApproval, ResolutionDefenseScheduling, ResolutionThesisApproval,
	ResolutionDegreeDiploma, ResolutionOther,
}

// IsValid 是否为已定义的决议类型
func (t ResolutionType) IsValid() bool {
	for _, rt := range AllResolutionTypes {
		if rt == t {
			return true
		}
	}
	return false
}

// Resolution 决议表，对应 resolutions
// resolution_number 全局唯一（uk_resolutions_number）
type Resolution struct {
	ResolutionID     string         `gorm:"type:uuid;primaryKey;default:gen_random_uuid()" json:"resolution_id"`
	ThesisID         string         `gorm:"type:uuid;not null;index"                       json:"thesis_id"`
	ResolutionNumber string         `gorm:"type:varchar(50);not null;uniqueIndex"          json:"resolution_number"`
	Type             ResolutionType `gorm:"type:varchar(30);not null"                      json:"type"`
	Description      string         `gorm:"type:varchar(1000);not null"                    json:"description"`
	DocumentURL      *string        `gorm:"type:varchar(500)"                              json:"document_url,omitempty"`
	IssuedAt         time.Time      `gorm:"not null"                                       json:"issued_at"`
	IssuedByID       string         `gorm:"type:uuid;not null"                             json:"issued_by_id"`
	BaseModel

	// 关联
	Thesis   *Thesis `gorm:"foreignKey:ThesisID;references:ThesisID" json:"thesis,omitempty"`
	IssuedBy *User   `gorm:"foreignKey:IssuedByID;references:UserID" json:"issued_by,omitempty"`
}

// TableName 指定表名
func (Resolution) TableName() string { return "resolutions" }
