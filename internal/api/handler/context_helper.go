package handler

import (
	"github.com/gin-gonic/gin"

	"github.com/otidevv/backend-seguimiento-tesis/internal/api/middleware"
	"github.com/otidevv/backend-seguimiento-tesis/internal/workflow"
	"github.com/otidevv/backend-seguimiento-tesis/pkg/response"
)

// MustGetActor 从 Gin 上下文中提取认证中间件注入的操作者身份。
// 缺少 user_id 时写入 401 响应并返回 false，调用方应直接 return。
func MustGetActor(c *gin.Context) (workflow.Actor, bool) {
	userID := c.GetString(middleware.CtxUserID)
	if userID == "" {
		response.Unauthorized(c, 10002, "未认证")
		return workflow.Actor{}, false
	}

	var roles []string
	if v, ok := c.Get(middleware.CtxRoles); ok {
		roles, _ = v.([]string)
	}

	return workflow.Actor{
		ID:        userID,
		Roles:     roles,
		FacultyID: c.GetString(middleware.CtxFacultyID),
	}, true
}
