package dto

// ── 期限模块 DTO ──

// CreateDeadlineRequest 创建期限请求
// business_days / calendar_days 省略时按期限类型取默认值
type CreateDeadlineRequest struct {
	ThesisID     string  `json:"thesis_id"     binding:"required"`
	Type         string  `json:"type"          binding:"required,oneof=COMMITTEE_EVALUATION OBSERVATION_LIFT OBSERVATION_EXTENSION CORRECTION_REVIEW DEFENSE"`
	DueDate      string  `json:"due_date"      binding:"required"` // RFC3339 或 "2026-03-20"
	BusinessDays *int    `json:"business_days" binding:"omitempty,min=1"`
	CalendarDays *int    `json:"calendar_days" binding:"omitempty,min=1"`
	Notes        *string `json:"notes"         binding:"omitempty,max=2000"`
}

// ExtendDeadlineRequest 延长期限请求
type ExtendDeadlineRequest struct {
	NewDueDate string  `json:"new_due_date" binding:"required"`
	Reason     *string `json:"reason"       binding:"omitempty,max=2000"`
}

// UpcomingQuery 临期查询参数
type UpcomingQuery struct {
	Days int `form:"days" binding:"omitempty,min=1,max=365"`
}

// DeadlineResponse 期限信息响应
type DeadlineResponse struct {
	ID            string  `json:"id"`
	ThesisID      string  `json:"thesis_id"`
	ThesisTitle   string  `json:"thesis_title,omitempty"`
	Type          string  `json:"type"`
	TypeLabel     string  `json:"type_label"`
	DueDate       string  `json:"due_date"`
	BusinessDays  *int    `json:"business_days,omitempty"`
	CalendarDays  *int    `json:"calendar_days,omitempty"`
	Status        string  `json:"status"`
	ExtensionOfID *string `json:"extension_of_id,omitempty"`
	Notes         *string `json:"notes,omitempty"`
	CompletedAt   *string `json:"completed_at,omitempty"`
	CreatedAt     string  `json:"created_at"`
}

// RemainingDaysResponse 期限剩余天数
type RemainingDaysResponse struct {
	DeadlineID            string `json:"deadline_id"`
	DueDate               string `json:"due_date"`
	RemainingDays         int    `json:"remaining_days"`
	RemainingBusinessDays int    `json:"remaining_business_days"`
	IsExpired             bool   `json:"is_expired"`
	IsUrgent              bool   `json:"is_urgent"`
}

// DeadlineWithRemaining 期限及其剩余天数
type DeadlineWithRemaining struct {
	DeadlineResponse
	RemainingDays         int  `json:"remaining_days"`
	RemainingBusinessDays int  `json:"remaining_business_days"`
	IsExpired             bool `json:"is_expired"`
	IsUrgent              bool `json:"is_urgent"`
}

// ActiveDeadlineStatusResponse 论文当前期限状态
type ActiveDeadlineStatusResponse struct {
	HasActiveDeadline bool                    `json:"has_active_deadline"`
	Deadlines         []DeadlineWithRemaining `json:"deadlines"`
}

// ProcessExpiredResponse 过期处理结果
type ProcessExpiredResponse struct {
	Processed int      `json:"processed"`
	IDs       []string `json:"ids"`
}

// SendAlertsResponse 临期提醒结果
type SendAlertsResponse struct {
	AlertsSent int      `json:"alerts_sent"`
	IDs        []string `json:"ids"`
}
