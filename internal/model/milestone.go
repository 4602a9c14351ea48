package model

import "time"

// Milestone 论文里程碑表，对应 milestones
// 同一论文内按 sort_order 升序展示
type Milestone struct {
	MilestoneID string     `gorm:"type:uuid;primaryKey;default:gen_random_uuid()" json:"milestone_id"`
	ThesisID    string     `gorm:"type:uuid;not null;index"                       json:"thesis_id"`
	Title       string     `gorm:"type:varchar(200);not null"                     json:"title"`
	Description *string    `gorm:"type:text"                                      json:"description,omitempty"`
	DueDate     *time.Time `json:"due_date,omitempty"`
	SortOrder   int        `gorm:"not null;default:0"                             json:"sort_order"`
	IsCompleted bool       `gorm:"not null;default:false"                         json:"is_completed"`
	CompletedAt *time.Time `json:"completed_at,omitempty"`
	BaseModel
}

// TableName 指定表名
func (Milestone) TableName() string { return "milestones" }
