// Package errors 定义业务错误分类。
//
// 各 service 模块用 New 声明哨兵错误，调用方用 errors.Is 比较具体错误、
// 用 KindOf 取得分类（Handler 据此映射 HTTP 状态码）。
package errors

import "errors"

// Kind 业务错误分类
type Kind string

const (
	KindNotFound          Kind = "NOT_FOUND"          // 引用的论文 / 期限 / 评审 / 委员不存在
	KindForbidden         Kind = "FORBIDDEN"          // 操作者缺少所需的关系或角色
	KindInvalidState      Kind = "INVALID_STATE"      // 当前状态不允许该操作
	KindInvalidTransition Kind = "INVALID_TRANSITION" // 目标状态不可从当前状态到达
	KindConflict          Kind = "CONFLICT"           // 唯一性冲突
	KindValidation        Kind = "VALIDATION"         // 输入不合法
)

// DomainError 带分类的业务错误
type DomainError struct {
	Kind    Kind
	Message string
}

func (e *DomainError) Error() string { return e.Message }

// New 创建业务错误
func New(kind Kind, message string) *DomainError {
	return &DomainError{Kind: kind, Message: message}
}

// KindOf 返回错误链中第一个 DomainError 的分类；非业务错误返回空字符串
func KindOf(err error) Kind {
	var de *DomainError
	if errors.As(err, &de) {
		return de.Kind
	}
	return ""
}

// ErrOptimisticLock 乐观锁冲突：记录已被其他操作修改
var ErrOptimisticLock = New(KindConflict, "数据已被其他操作修改，请刷新后重试")
