package workflow

import (
	"fmt"
	"strconv"
	"strings"
)

// ResolutionNumberPrefix 某年度的决议编号前缀，如 "RES-2026-"
func ResolutionNumberPrefix(year int) string {
	return fmt.Sprintf("RES-%d-", year)
}

// NextResolutionNumber 根据该年度最大编号生成下一个编号；last 为空表示该年度尚无决议。
// 序号至少 4 位，不足补零；无法解析的 last 视为错误。
func NextResolutionNumber(year int, last string) (string, error) {
	prefix := ResolutionNumberPrefix(year)
	seq := 0
	if last != "" {
		if !strings.HasPrefix(last, prefix) {
			return "", fmt.Errorf("决议编号 %q 不属于 %d 年度", last, year)
		}
		n, err := strconv.Atoi(strings.TrimPrefix(last, prefix))
		if err != nil || n < 0 {
			return "", fmt.Errorf("决议编号 %q 序号无法解析", last)
		}
		seq = n
	}
	return fmt.Sprintf("%s%04d", prefix, seq+1), nil
}
