package dto

// ── 里程碑模块 DTO ──

// CreateMilestoneRequest 创建里程碑请求；order 省略时排在末尾
type CreateMilestoneRequest struct {
	Title       string  `json:"title"       binding:"required,max=200"`
	Description *string `json:"description" binding:"omitempty,max=5000"`
	DueDate     *string `json:"due_date"` // RFC3339 或 "2026-03-20"
	Order       *int    `json:"order"       binding:"omitempty,min=0"`
}

// UpdateMilestoneRequest 更新里程碑请求（只更新非空字段）
type UpdateMilestoneRequest struct {
	Title       *string `json:"title"       binding:"omitempty,max=200"`
	Description *string `json:"description" binding:"omitempty,max=5000"`
	DueDate     *string `json:"due_date"`
	Order       *int    `json:"order"       binding:"omitempty,min=0"`
}

// ReorderMilestonesRequest 重排里程碑请求，列表顺序即新顺序
type ReorderMilestonesRequest struct {
	MilestoneIDs []string `json:"milestone_ids" binding:"required"`
}

// MilestoneResponse 里程碑信息响应
type MilestoneResponse struct {
	ID          string  `json:"id"`
	ThesisID    string  `json:"thesis_id"`
	Title       string  `json:"title"`
	Description *string `json:"description,omitempty"`
	DueDate     *string `json:"due_date,omitempty"`
	Order       int     `json:"order"`
	IsCompleted bool    `json:"is_completed"`
	CompletedAt *string `json:"completed_at,omitempty"`
	CreatedAt   string  `json:"created_at"`
}
