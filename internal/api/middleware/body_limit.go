package middleware

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/otidevv/backend-seguimiento-tesis/pkg/response"
)

// BodyLimit 请求体大小上限
// 声明的 Content-Length 超限时直接拒绝；未声明长度时由 MaxBytesReader 在读取阶段截断
func BodyLimit(maxBytes int64) gin.HandlerFunc {
	return func(c *gin.Context) {
		if c.Request.ContentLength > maxBytes {
			response.Error(c, http.StatusRequestEntityTooLarge, 10005, "请求体过大")
			c.Abort()
			return
		}
		if c.Request.Body != nil {
			c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, maxBytes)
		}
		c.Next()
	}
}
