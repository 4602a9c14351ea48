package dto

// ── 评审模块 DTO ──

// SubmitReviewRequest 提交评审意见请求（委员身份由当前登录用户确定）
type SubmitReviewRequest struct {
	Decision     string  `json:"decision"     binding:"required,oneof=PENDING APPROVED OBSERVED REJECTED"`
	Observations *string `json:"observations" binding:"omitempty,max=10000"`
	Comments     *string `json:"comments"     binding:"omitempty,max=10000"`
}

// PresidentDecisionRequest 主席最终决定请求
type PresidentDecisionRequest struct {
	Decision string `json:"decision" binding:"required,oneof=OBSERVED APPROVED REJECTED"`
	Reason   string `json:"reason"   binding:"required,max=1000"`
}

// ReviewResponse 评审意见响应
type ReviewResponse struct {
	ID           string  `json:"id"`
	ThesisID     string  `json:"thesis_id"`
	JuryMemberID string  `json:"jury_member_id"`
	JuryRole     string  `json:"jury_role,omitempty"`
	Decision     string  `json:"decision"`
	ReviewNumber int     `json:"review_number"`
	Observations *string `json:"observations,omitempty"`
	Comments     *string `json:"comments,omitempty"`
	ReviewedAt   *string `json:"reviewed_at,omitempty"`
	CreatedAt    string  `json:"created_at"`
}

// TallyResponse 意见计数
type TallyResponse struct {
	Approved int `json:"approved"`
	Observed int `json:"observed"`
	Rejected int `json:"rejected"`
	Pending  int `json:"pending"`
}

// VoteResponse 单个委员的最新意见
type VoteResponse struct {
	JuryMemberID string `json:"jury_member_id"`
	UserID       string `json:"user_id"`
	Role         string `json:"role"`
	Decision     string `json:"decision"`
	ReviewNumber int    `json:"review_number"`
}

// ReviewSummaryResponse 评审共识汇总
type ReviewSummaryResponse struct {
	ThesisID     string         `json:"thesis_id"`
	TotalMembers int            `json:"total_members"`
	Reviewed     int            `json:"reviewed"`
	IsComplete   bool           `json:"is_complete"`
	Tally        TallyResponse  `json:"tally"`
	Votes        []VoteResponse `json:"votes"`
}

// PresidentDecisionResponse 主席决定结果
type PresidentDecisionResponse struct {
	Thesis   ThesisResponse        `json:"thesis"`
	Decision string                `json:"decision"`
	Reason   string                `json:"reason"`
	Summary  ReviewSummaryResponse `json:"summary"`
}
