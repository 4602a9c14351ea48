package router

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/otidevv/backend-seguimiento-tesis/config"
	"github.com/otidevv/backend-seguimiento-tesis/internal/api/handler"
	"github.com/otidevv/backend-seguimiento-tesis/internal/api/middleware"
	"github.com/otidevv/backend-seguimiento-tesis/internal/model"
	"github.com/otidevv/backend-seguimiento-tesis/pkg/jwt"
	"github.com/otidevv/backend-seguimiento-tesis/pkg/redis"
)

const (
	maxBodyBytes    = 1 << 20
	writeRateLimit  = 60
	writeRateWindow = time.Minute
)

// Setup 初始化并返回 Gin 路由引擎
// rdb 为 nil 时跳过 Token 黑名单与限流
func Setup(cfg *config.Config, h *handler.Handler, jwtMgr *jwt.Manager, rdb *redis.Client, logger *zap.Logger) *gin.Engine {
	gin.SetMode(gin.ReleaseMode)

	var (
		blacklist middleware.TokenBlacklist
		limiter   middleware.RateLimiter
	)
	if rdb != nil {
		blacklist, limiter = rdb, rdb
	}

	r := gin.New()

	// ── 全局中间件 ──
	r.Use(gin.Recovery())
	r.Use(middleware.RequestID())
	r.Use(middleware.Logger(logger))
	r.Use(middleware.SecurityHeaders())
	r.Use(middleware.CORS(cfg.Server.CORS.AllowOrigins))
	r.Use(middleware.BodyLimit(maxBodyBytes))

	// ── 健康检查 ──
	r.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})

	staff := middleware.RoleAuth(model.RoleAdmin, model.RoleCoordinator)
	adminOnly := middleware.RoleAuth(model.RoleAdmin)
	throttle := middleware.RateLimit(limiter, writeRateLimit, writeRateWindow)

	v1 := r.Group("/api/v1")
	v1.Use(middleware.JWTAuth(jwtMgr, blacklist, logger))
	{
		// 论文模块（细粒度权限由 Service 层按论文关系判定）
		theses := v1.Group("/theses")
		{
			theses.POST("", throttle, h.Thesis.Create)
			theses.GET("", h.Thesis.List)
			theses.GET("/me", h.Thesis.ListMine)
			theses.GET("/:id", h.Thesis.Get)
			theses.PUT("/:id", throttle, h.Thesis.Update)
			theses.DELETE("/:id", throttle, h.Thesis.Remove)
			theses.POST("/:id/submit", throttle, h.Thesis.Submit)
			theses.POST("/:id/status", throttle, h.Thesis.ChangeStatus)
			theses.POST("/:id/jury", throttle, h.Thesis.AssignJury)
			theses.GET("/:id/history", h.Thesis.History)

			// 评审
			theses.POST("/:id/reviews", throttle, h.Review.Submit)
			theses.GET("/:id/reviews", h.Review.ListByThesis)
			theses.GET("/:id/reviews/summary", h.Review.Summary)
			theses.POST("/:id/president-decision", throttle, h.Review.PresidentDecision)

			// 期限
			theses.GET("/:id/deadlines", h.Deadline.ListByThesis)
			theses.GET("/:id/deadlines/active", h.Deadline.ListActiveByThesis)
			theses.GET("/:id/deadlines/status", h.Deadline.Status)
			theses.GET("/:id/deadlines.ics", h.Report.DeadlinesICS)

			// 里程碑与决议
			theses.POST("/:id/milestones", throttle, h.Milestone.Create)
			theses.GET("/:id/milestones", h.Milestone.ListByThesis)
			theses.PUT("/:id/milestones/reorder", throttle, h.Milestone.Reorder)
			theses.GET("/:id/resolutions", h.Resolution.ListByThesis)
		}

		v1.GET("/users/:id/active-theses", staff, h.Thesis.ListActiveByUser)

		reviews := v1.Group("/reviews")
		{
			reviews.GET("/me", h.Review.ListMine)
			reviews.GET("/:id", h.Review.Get)
		}

		deadlines := v1.Group("/deadlines")
		{
			deadlines.POST("", throttle, h.Deadline.Create)
			deadlines.GET("/upcoming", staff, h.Deadline.Upcoming)
			deadlines.GET("/expired", staff, h.Deadline.Expired)
			deadlines.POST("/process-expired", adminOnly, h.Deadline.ProcessExpired)
			deadlines.POST("/send-alerts", adminOnly, h.Deadline.SendAlerts)
			deadlines.GET("/:id", h.Deadline.Get)
			deadlines.GET("/:id/remaining", h.Deadline.Remaining)
			deadlines.POST("/:id/extend", throttle, h.Deadline.Extend)
			deadlines.POST("/:id/complete", throttle, h.Deadline.Complete)
		}

		notifications := v1.Group("/notifications")
		{
			notifications.GET("", h.Notification.List)
			notifications.GET("/unread-count", h.Notification.UnreadCount)
			notifications.PUT("/read-all", h.Notification.MarkAllRead)
			notifications.PUT("/:id/read", h.Notification.MarkRead)
		}

		milestones := v1.Group("/milestones")
		{
			milestones.GET("/:id", h.Milestone.Get)
			milestones.PUT("/:id", throttle, h.Milestone.Update)
			milestones.POST("/:id/complete", throttle, h.Milestone.Complete)
			milestones.POST("/:id/uncomplete", throttle, h.Milestone.Uncomplete)
			milestones.DELETE("/:id", throttle, h.Milestone.Remove)
		}

		resolutions := v1.Group("/resolutions")
		{
			resolutions.POST("", staff, throttle, h.Resolution.Create)
			resolutions.GET("", staff, h.Resolution.List)
			resolutions.GET("/types", h.Resolution.Types)
			resolutions.GET("/number/:number", h.Resolution.GetByNumber)
			resolutions.GET("/:id", h.Resolution.Get)
			resolutions.PUT("/:id", staff, throttle, h.Resolution.Update)
			resolutions.DELETE("/:id", adminOnly, throttle, h.Resolution.Remove)
		}

		stats := v1.Group("/stats", staff)
		{
			stats.GET("/dashboard", h.Statistics.Dashboard)
			stats.GET("/charts/status", h.Statistics.ByStatus)
			stats.GET("/charts/month", h.Statistics.ByMonth)
			stats.GET("/charts/career", h.Statistics.ByCareer)
		}

		reports := v1.Group("/reports")
		{
			reports.GET("/theses.xlsx", staff, h.Report.ThesesXLSX)
		}
	}

	return r
}
