package middleware

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/otidevv/backend-seguimiento-tesis/config"
	"github.com/otidevv/backend-seguimiento-tesis/pkg/jwt"
)

func init() {
	gin.SetMode(gin.TestMode)
}

type stubBlacklist struct {
	revoked map[string]bool
	err     error
}

func (s *stubBlacklist) IsBlacklisted(_ context.Context, jti string) (bool, error) {
	return s.revoked[jti], s.err
}

type stubLimiter struct {
	allowed bool
	err     error
	keys    []string
}

func (s *stubLimiter) CheckRateLimit(_ context.Context, key string, _ int, _ time.Duration) (bool, error) {
	s.keys = append(s.keys, key)
	return s.allowed, s.err
}

func newJWT() *jwt.Manager {
	return jwt.NewManager(&config.AuthConfig{
		JWTSecret:      "middleware-test-secret-0123456789",
		Issuer:         "thesis-auth",
		AccessTokenTTL: time.Minute,
	})
}

func TestJWTAuth(t *testing.T) {
	mgr := newJWT()
	token, err := mgr.GenerateAccessToken("u-1", []string{"STUDENT"}, "fac-1")
	if err != nil {
		t.Fatalf("签发 Token 失败: %v", err)
	}
	claims, _ := mgr.ParseToken(token)

	tests := []struct {
		name      string
		header    string
		blacklist TokenBlacklist
		want      int
	}{
		{"缺少认证头", "", nil, http.StatusUnauthorized},
		{"认证头格式错误", "Token " + token, nil, http.StatusUnauthorized},
		{"Token 无效", "Bearer not-a-jwt", nil, http.StatusUnauthorized},
		{"有效 Token", "Bearer " + token, nil, http.StatusOK},
		{"小写 bearer", "bearer " + token, nil, http.StatusOK},
		{"已注销", "Bearer " + token, &stubBlacklist{revoked: map[string]bool{claims.ID: true}}, http.StatusUnauthorized},
		{"黑名单出错降级放行", "Bearer " + token, &stubBlacklist{err: errors.New("redis down")}, http.StatusOK},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := gin.New()
			r.GET("/me", JWTAuth(mgr, tt.blacklist, zap.NewNop()), func(c *gin.Context) {
				roles, _ := c.Get(CtxRoles)
				if c.GetString(CtxUserID) != "u-1" || c.GetString(CtxFacultyID) != "fac-1" {
					t.Errorf("上下文用户信息错误")
				}
				if rs, _ := roles.([]string); len(rs) != 1 || rs[0] != "STUDENT" {
					t.Errorf("上下文角色错误: %v", roles)
				}
				c.Status(http.StatusOK)
			})

			w := httptest.NewRecorder()
			req := httptest.NewRequest(http.MethodGet, "/me", nil)
			if tt.header != "" {
				req.Header.Set("Authorization", tt.header)
			}
			r.ServeHTTP(w, req)

			if w.Code != tt.want {
				t.Errorf("期望状态码 %d，实际 %d", tt.want, w.Code)
			}
		})
	}
}

func TestRoleAuth(t *testing.T) {
	tests := []struct {
		name  string
		roles []string
		set   bool
		want  int
	}{
		{"未认证", nil, false, http.StatusUnauthorized},
		{"角色不符", []string{"STUDENT"}, true, http.StatusForbidden},
		{"持有其一", []string{"FACULTY", "COORDINATOR"}, true, http.StatusOK},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := gin.New()
			r.GET("/x", func(c *gin.Context) {
				if tt.set {
					c.Set(CtxRoles, tt.roles)
				}
			}, RoleAuth("ADMIN", "COORDINATOR"), func(c *gin.Context) {
				c.Status(http.StatusOK)
			})

			w := httptest.NewRecorder()
			r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/x", nil))
			if w.Code != tt.want {
				t.Errorf("期望状态码 %d，实际 %d", tt.want, w.Code)
			}
		})
	}
}

func TestRateLimit(t *testing.T) {
	tests := []struct {
		name    string
		limiter *stubLimiter
		want    int
	}{
		{"放行", &stubLimiter{allowed: true}, http.StatusOK},
		{"超限", &stubLimiter{allowed: false}, http.StatusTooManyRequests},
		{"限流器出错降级放行", &stubLimiter{err: errors.New("redis down")}, http.StatusOK},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := gin.New()
			r.POST("/theses/:id/submit", func(c *gin.Context) {
				c.Set(CtxUserID, "u-1")
			}, RateLimit(tt.limiter, 10, time.Minute), func(c *gin.Context) {
				c.Status(http.StatusOK)
			})

			w := httptest.NewRecorder()
			r.ServeHTTP(w, httptest.NewRequest(http.MethodPost, "/theses/t-1/submit", nil))
			if w.Code != tt.want {
				t.Errorf("期望状态码 %d，实际 %d", tt.want, w.Code)
			}
			if len(tt.limiter.keys) != 1 || tt.limiter.keys[0] != "rate_limit:u-1:POST:/theses/:id/submit" {
				t.Errorf("限流键错误: %v", tt.limiter.keys)
			}
		})
	}

	t.Run("未配置限流器", func(t *testing.T) {
		r := gin.New()
		r.GET("/x", RateLimit(nil, 1, time.Minute), func(c *gin.Context) { c.Status(http.StatusOK) })
		w := httptest.NewRecorder()
		r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/x", nil))
		if w.Code != http.StatusOK {
			t.Errorf("期望 200，实际 %d", w.Code)
		}
	})
}

func TestRequestID(t *testing.T) {
	tests := []struct {
		name   string
		header string
		keep   bool
	}{
		{"沿用合法 ID", "abc-123", true},
		{"拒绝非法字符", "abc\n123", false},
		{"拒绝超长", strings.Repeat("a", 65), false},
		{"缺省生成", "", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := gin.New()
			r.Use(RequestID())
			r.GET("/x", func(c *gin.Context) { c.Status(http.StatusOK) })

			w := httptest.NewRecorder()
			req := httptest.NewRequest(http.MethodGet, "/x", nil)
			if tt.header != "" {
				req.Header.Set("X-Request-ID", tt.header)
			}
			r.ServeHTTP(w, req)

			got := w.Header().Get("X-Request-ID")
			if tt.keep && got != tt.header {
				t.Errorf("期望沿用 %q，实际 %q", tt.header, got)
			}
			if !tt.keep && (got == "" || got == tt.header) {
				t.Errorf("期望生成新 ID，实际 %q", got)
			}
		})
	}
}

func TestBodyLimit(t *testing.T) {
	r := gin.New()
	r.Use(BodyLimit(16))
	r.POST("/x", func(c *gin.Context) { c.Status(http.StatusOK) })

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodPost, "/x", strings.NewReader(strings.Repeat("x", 32))))
	if w.Code != http.StatusRequestEntityTooLarge {
		t.Errorf("期望 413，实际 %d", w.Code)
	}

	w = httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodPost, "/x", strings.NewReader("{}")))
	if w.Code != http.StatusOK {
		t.Errorf("期望 200，实际 %d", w.Code)
	}
}

func TestCORS(t *testing.T) {
	r := gin.New()
	r.Use(CORS([]string{"http://localhost:5173/"}))
	r.GET("/x", func(c *gin.Context) { c.Status(http.StatusOK) })

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodOptions, "/x", nil)
	req.Header.Set("Origin", "http://localhost:5173")
	r.ServeHTTP(w, req)
	if w.Code != http.StatusNoContent {
		t.Errorf("预检请求期望 204，实际 %d", w.Code)
	}
	if w.Header().Get("Access-Control-Allow-Origin") != "http://localhost:5173" {
		t.Error("允许的来源应回写 Allow-Origin")
	}

	w = httptest.NewRecorder()
	req = httptest.NewRequest(http.MethodGet, "/x", nil)
	req.Header.Set("Origin", "http://evil.example")
	r.ServeHTTP(w, req)
	if w.Header().Get("Access-Control-Allow-Origin") != "" {
		t.Error("未登记的来源不应回写 Allow-Origin")
	}
}
