package dto

// ── 决议模块 DTO ──

// CreateResolutionRequest 发布决议请求；编号由系统生成
type CreateResolutionRequest struct {
	ThesisID    string  `json:"thesis_id"    binding:"required"`
	Type        string  `json:"type"         binding:"required,oneof=PROJECT_APPROVAL JURY_DESIGNATION ADVISOR_DESIGNATION DRAFT_APPROVAL DEFENSE_SCHEDULING THESIS_APPROVAL DEGREE_DIPLOMA OTHER"`
	Description string  `json:"description"  binding:"required,max=1000"`
	DocumentURL *string `json:"document_url" binding:"omitempty,url,max=500"`
	IssuedAt    *string `json:"issued_at"` // RFC3339 或 "2026-03-20"，省略为当前时间
}

// UpdateResolutionRequest 更新决议请求（编号与类型不可修改）
type UpdateResolutionRequest struct {
	Description *string `json:"description"  binding:"omitempty,max=1000"`
	DocumentURL *string `json:"document_url" binding:"omitempty,url,max=500"`
}

// ResolutionListRequest 决议列表查询参数
type ResolutionListRequest struct {
	PaginationRequest
	ThesisID string `form:"thesis_id"`
	Type     string `form:"type"`
}

// ResolutionResponse 决议信息响应
type ResolutionResponse struct {
	ID               string     `json:"id"`
	ThesisID         string     `json:"thesis_id"`
	ThesisTitle      string     `json:"thesis_title,omitempty"`
	ResolutionNumber string     `json:"resolution_number"`
	Type             string     `json:"type"`
	TypeLabel        string     `json:"type_label"`
	Description      string     `json:"description"`
	DocumentURL      *string    `json:"document_url,omitempty"`
	IssuedAt         string     `json:"issued_at"`
	IssuedBy         *UserBrief `json:"issued_by,omitempty"`
	IssuedByID       string     `json:"issued_by_id"`
	ThesisStatus     string     `json:"thesis_status,omitempty"`
	CreatedAt        string     `json:"created_at"`
}

// ResolutionTypeResponse 决议类型及显示名称
type ResolutionTypeResponse struct {
	Value string `json:"value"`
	Label string `json:"label"`
}
