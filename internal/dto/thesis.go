package dto

// ── 论文模块 DTO ──

// CreateThesisRequest 创建论文请求（作者为当前登录学生）
type CreateThesisRequest struct {
	Title          string  `json:"title"           binding:"required,min=5,max=500"`
	Description    string  `json:"description"     binding:"omitempty,max=5000"`
	AcademicDegree string  `json:"academic_degree" binding:"required,max=100"`
	CareerID       string  `json:"career_id"       binding:"required"`
	AdvisorID      string  `json:"advisor_id"      binding:"required"`
	CoAuthorID     *string `json:"co_author_id"`
	CoAdvisorID    *string `json:"co_advisor_id"`
}

// UpdateThesisRequest 更新论文请求（仅草稿状态）
// 字段为 nil 表示不修改；co_author_id / co_advisor_id 传空字符串表示移除
type UpdateThesisRequest struct {
	Title          *string `json:"title"           binding:"omitempty,min=5,max=500"`
	Description    *string `json:"description"     binding:"omitempty,max=5000"`
	AcademicDegree *string `json:"academic_degree" binding:"omitempty,max=100"`
	CoAuthorID     *string `json:"co_author_id"`
	CoAdvisorID    *string `json:"co_advisor_id"`
}

// ChangeStatusRequest 变更论文状态请求
type ChangeStatusRequest struct {
	Status   string                 `json:"status"   binding:"required"`
	Reason   string                 `json:"reason"   binding:"required,max=1000"`
	Metadata map[string]interface{} `json:"metadata"`
}

// JuryMemberInput 评审委员指派项
type JuryMemberInput struct {
	UserID string `json:"user_id" binding:"required"`
	Role   string `json:"role"    binding:"required,oneof=PRESIDENT SECRETARY MEMBER ALTERNATE"`
}

// AssignJuryRequest 指派评审委员会请求
type AssignJuryRequest struct {
	Members []JuryMemberInput `json:"members" binding:"required,min=3,dive"`
}

// ThesisListRequest 论文列表查询参数
type ThesisListRequest struct {
	PaginationRequest
	CareerID  string `form:"career_id"`
	FacultyID string `form:"faculty_id"`
	Status    string `form:"status"`
	AuthorID  string `form:"author_id"`
	AdvisorID string `form:"advisor_id"`
}

// ThesisResponse 论文信息响应
type ThesisResponse struct {
	ID             string               `json:"id"`
	Title          string               `json:"title"`
	Description    string               `json:"description,omitempty"`
	AcademicDegree string               `json:"academic_degree"`
	CareerID       string               `json:"career_id"`
	CareerName     string               `json:"career_name,omitempty"`
	AuthorID       string               `json:"author_id"`
	CoAuthorID     *string              `json:"co_author_id,omitempty"`
	AdvisorID      string               `json:"advisor_id"`
	CoAdvisorID    *string              `json:"co_advisor_id,omitempty"`
	Status         string               `json:"status"`
	StatusLabel    string               `json:"status_label"`
	ApprovalDate   *string              `json:"approval_date,omitempty"`
	DefenseDate    *string              `json:"defense_date,omitempty"`
	Version        int                  `json:"version"`
	JuryMembers    []JuryMemberResponse `json:"jury_members,omitempty"`
	CreatedAt      string               `json:"created_at"`
	UpdatedAt      string               `json:"updated_at"`
}

// JuryMemberResponse 评审委员响应
type JuryMemberResponse struct {
	ID        string     `json:"id"`
	UserID    string     `json:"user_id"`
	Role      string     `json:"role"`
	RoleLabel string     `json:"role_label"`
	User      *UserBrief `json:"user,omitempty"`
}

// StatusHistoryResponse 状态历史响应
type StatusHistoryResponse struct {
	ID             string      `json:"id"`
	PreviousStatus *string     `json:"previous_status,omitempty"`
	NewStatus      string      `json:"new_status"`
	ChangedByID    string      `json:"changed_by_id"`
	Reason         string      `json:"reason"`
	Metadata       interface{} `json:"metadata,omitempty"`
	CreatedAt      string      `json:"created_at"`
}
