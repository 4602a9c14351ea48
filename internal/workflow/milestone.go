package workflow

import (
	pkgerrors "github.com/otidevv/backend-seguimiento-tesis/pkg/errors"
)

// ErrReorderMismatch 重排列表与论文现有里程碑不一致
var ErrReorderMismatch = pkgerrors.New(pkgerrors.KindValidation, "排序列表必须恰好包含该论文的全部里程碑")

// ValidateReorder 校验 requested 恰为 existing 的一个排列（无缺漏、无多余、无重复）
func ValidateReorder(existing, requested []string) error {
	if len(existing) != len(requested) {
		return ErrReorderMismatch
	}
	remaining := make(map[string]bool, len(existing))
	for _, id := range existing {
		remaining[id] = true
	}
	for _, id := range requested {
		if !remaining[id] {
			return ErrReorderMismatch
		}
		delete(remaining, id)
	}
	return nil
}
