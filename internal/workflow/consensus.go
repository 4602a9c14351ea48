package workflow

import (
	"fmt"

	"github.com/otidevv/backend-seguimiento-tesis/internal/model"
	pkgerrors "github.com/otidevv/backend-seguimiento-tesis/pkg/errors"
)

// ErrInvalidJuryComposition 委员会组成不满足角色要求
var ErrInvalidJuryComposition = pkgerrors.New(pkgerrors.KindValidation, "评审委员会须包含一名主席、一名秘书及至少一名委员")

// Tally 各评审意见计数（仅统计每位委员的最新一次意见）
type Tally struct {
	Approved int `json:"approved"`
	Observed int `json:"observed"`
	Rejected int `json:"rejected"`
	Pending  int `json:"pending"`
}

// MemberVote 单个委员的最新意见
type MemberVote struct {
	JuryMemberID string               `json:"jury_member_id"`
	UserID       string               `json:"user_id"`
	Role         model.JuryRole       `json:"role"`
	Decision     model.ReviewDecision `json:"decision"`
	ReviewNumber int                  `json:"review_number"` // 0 表示尚未提交
}

// Consensus 一篇论文当前委员会的评审共识
type Consensus struct {
	TotalMembers int          `json:"total_members"`
	Reviewed     int          `json:"reviewed"`
	Tally        Tally        `json:"tally"`
	IsComplete   bool         `json:"is_complete"`
	Votes        []MemberVote `json:"votes"`
}

// ComputeConsensus 统计在任委员的最新意见。
// 每位委员只取 review_number 最大的一条；全部在任委员的最新意见都不为 PENDING 时视为齐全。
// 无在任委员时视为齐全（此时也不存在主席）。
func ComputeConsensus(members []model.JuryMember, reviews []model.Review) Consensus {
	latest := make(map[string]*model.Review, len(members))
	for i := range reviews {
		r := &reviews[i]
		if cur, ok := latest[r.JuryMemberID]; !ok || r.ReviewNumber > cur.ReviewNumber {
			latest[r.JuryMemberID] = r
		}
	}

	c := Consensus{IsComplete: true, Votes: make([]MemberVote, 0, len(members))}
	for _, m := range members {
		if !m.IsActive {
			continue
		}
		c.TotalMembers++
		vote := MemberVote{
			JuryMemberID: m.JuryMemberID,
			UserID:       m.UserID,
			Role:         m.Role,
			Decision:     model.DecisionPending,
		}
		if r, ok := latest[m.JuryMemberID]; ok {
			vote.Decision = r.Decision
			vote.ReviewNumber = r.ReviewNumber
		}

		switch vote.Decision {
		case model.DecisionApproved:
			c.Tally.Approved++
		case model.DecisionObserved:
			c.Tally.Observed++
		case model.DecisionRejected:
			c.Tally.Rejected++
		default:
			c.Tally.Pending++
			c.IsComplete = false
		}
		if vote.Decision != model.DecisionPending {
			c.Reviewed++
		}
		c.Votes = append(c.Votes, vote)
	}
	return c
}

// NextReviewNumber 返回某委员下一次提交的序号（已有最大序号 + 1）
func NextReviewNumber(reviews []model.Review, juryMemberID string) int {
	highest := 0
	for _, r := range reviews {
		if r.JuryMemberID == juryMemberID && r.ReviewNumber > highest {
			highest = r.ReviewNumber
		}
	}
	return highest + 1
}

// FindPresident 返回在任主席，没有时返回 nil
func FindPresident(members []model.JuryMember) *model.JuryMember {
	for i := range members {
		if members[i].IsActive && members[i].Role == model.JuryRolePresident {
			return &members[i]
		}
	}
	return nil
}

// FindActiveMember 按用户查找在任委员
func FindActiveMember(members []model.JuryMember, userID string) *model.JuryMember {
	for i := range members {
		if members[i].IsActive && members[i].UserID == userID {
			return &members[i]
		}
	}
	return nil
}

// JuryAssignment 委员指派项
type JuryAssignment struct {
	UserID string
	Role   model.JuryRole
}

// ValidateJuryComposition 校验委员会组成：恰好一名主席、一名秘书、至少一名委员，候补不限；
// 同一用户不得重复出现。
func ValidateJuryComposition(assignments []JuryAssignment) error {
	counts := make(map[model.JuryRole]int, 4)
	seen := make(map[string]bool, len(assignments))
	for _, a := range assignments {
		if !a.Role.IsValid() {
			return fmt.Errorf("%w: 未知角色 %s", ErrInvalidJuryComposition, a.Role)
		}
		if seen[a.UserID] {
			return fmt.Errorf("%w: 用户 %s 重复", ErrInvalidJuryComposition, a.UserID)
		}
		seen[a.UserID] = true
		counts[a.Role]++
	}
	if counts[model.JuryRolePresident] != 1 || counts[model.JuryRoleSecretary] != 1 || counts[model.JuryRoleMember] < 1 {
		return ErrInvalidJuryComposition
	}
	return nil
}
