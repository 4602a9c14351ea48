package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	pkgerrors "github.com/otidevv/backend-seguimiento-tesis/pkg/errors"
	"github.com/otidevv/backend-seguimiento-tesis/pkg/response"
)

// 业务错误码：2xxxx 论文流程
const (
	codeBadRequest        = 10001
	codeNotFound          = 20001
	codeForbidden         = 20002
	codeInvalidState      = 20003
	codeInvalidTransition = 20004
	codeConflict          = 20005
	codeValidation        = 20006
)

// handleDomainError 按错误分类映射 HTTP 状态码；未分类错误记入 c.Errors 并返回 500
func handleDomainError(c *gin.Context, err error) {
	switch pkgerrors.KindOf(err) {
	case pkgerrors.KindNotFound:
		response.NotFound(c, codeNotFound, err.Error())
	case pkgerrors.KindForbidden:
		response.Forbidden(c, codeForbidden, err.Error())
	case pkgerrors.KindInvalidState:
		response.Conflict(c, codeInvalidState, err.Error())
	case pkgerrors.KindInvalidTransition:
		response.UnprocessableEntity(c, codeInvalidTransition, err.Error())
	case pkgerrors.KindConflict:
		response.Conflict(c, codeConflict, err.Error())
	case pkgerrors.KindValidation:
		response.BadRequest(c, codeValidation, err.Error())
	default:
		_ = c.Error(err)
		response.InternalError(c)
	}
}

// bindError 请求体 / 查询参数绑定失败
func bindError(c *gin.Context, err error) {
	response.ErrorWithDetails(c, http.StatusBadRequest, codeBadRequest, "请求参数无效", err.Error())
}
