package router

import (
	"fmt"

	"github.com/gin-gonic/gin"
	"github.com/gin-gonic/gin/binding"
	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"lecture-scheduler/backend/config"
	"lecture-scheduler/backend/internal/api/handler"
	"lecture-scheduler/backend/internal/api/middleware"
	"lecture-scheduler/backend/internal/dto"
	"lecture-scheduler/backend/internal/model"
	"lecture-scheduler/backend/pkg/jwt"
	"lecture-scheduler/backend/pkg/redis"
)

// maxBodyBytes 请求体上限
const maxBodyBytes = 1 << 20

// Setup 初始化并返回 Gin 路由引擎
func Setup(cfg *config.Config, h *handler.Handler, jwtMgr *jwt.Manager, rdb *redis.Client, logger *zap.Logger) (*gin.Engine, error) {
	gin.SetMode(gin.ReleaseMode)

	if v, ok := binding.Validator.Engine().(*validator.Validate); ok {
		if err := dto.RegisterValidators(v); err != nil {
			return nil, fmt.Errorf("注册校验规则失败: %w", err)
		}
	}

	// Redis 不可用时黑名单与限流均降级关闭
	var (
		blacklist middleware.BlacklistChecker
		limiter   middleware.RateLimiter
	)
	if rdb != nil {
		blacklist = rdb
		limiter = rdb
	}

	r := gin.New()

	// ── 全局中间件 ──
	r.Use(gin.Recovery())
	r.Use(middleware.RequestID())
	r.Use(middleware.Logger(logger))
	r.Use(middleware.CORS(cfg.Server.CORS.AllowOrigins))
	r.Use(middleware.SecurityHeaders())
	r.Use(middleware.BodyLimit(maxBodyBytes))

	// ── 健康检查 ──
	r.GET("/health", func(c *gin.Context) {
		c.JSON(200, gin.H{"status": "ok"})
	})

	adminOnly := middleware.RoleAuth(model.RoleAdmin)
	instructorOnly := middleware.RoleAuth(model.RoleInstructor)

	api := r.Group("/api")
	{
		// 认证模块（无需认证）
		loginLimit := cfg.Auth.LoginRateLimit
		api.POST("/auth/login", middleware.RateLimit(limiter, loginLimit.Limit, loginLimit.Window), h.Auth.Login)

		// 课程目录公开可读
		api.GET("/courses", h.Course.ListCourses)
		api.GET("/courses/:id", h.Course.GetCourse)

		// 需要认证的路由
		authorized := api.Group("")
		authorized.Use(middleware.JWTAuth(jwtMgr, blacklist))
		{
			authorized.GET("/auth/me", h.Auth.GetCurrentUser)
			authorized.POST("/auth/logout", h.Auth.Logout)
			authorized.POST("/auth/register", adminOnly, h.Auth.Register)

			// 课程模块
			courses := authorized.Group("/courses", adminOnly)
			{
				courses.POST("", h.Course.CreateCourse)
				courses.PUT("/:id", h.Course.UpdateCourse)
				courses.DELETE("/:id", h.Course.DeleteCourse)
			}

			// 课节模块
			lectures := authorized.Group("/lectures")
			{
				lectures.GET("", adminOnly, h.Lecture.ListLectures)
				lectures.GET("/assigned", adminOnly, h.Lecture.ListAssigned)
				lectures.GET("/export", adminOnly, h.Export.ExportLectures)
				lectures.GET("/course/:courseId", adminOnly, h.Lecture.ListByCourse)
				lectures.GET("/:id", h.Lecture.GetLecture)
				lectures.POST("", adminOnly, h.Lecture.CreateLecture)
				lectures.PUT("/:id", adminOnly, h.Lecture.UpdateLecture)
				lectures.DELETE("/:id", adminOnly, h.Lecture.DeleteLecture)
				lectures.POST("/:id/assign", adminOnly, h.Lecture.AssignLecture)
			}

			// 讲师模块
			authorized.GET("/admin/instructors", adminOnly, h.Instructor.ListInstructors)
			instructors := authorized.Group("/instructors")
			{
				instructors.GET("", adminOnly, h.Instructor.ListInstructors)
				instructors.GET("/me/lectures", instructorOnly, h.Instructor.MyLectures)
				instructors.GET("/me/lectures.ics", instructorOnly, h.Instructor.MyCalendar)
				instructors.GET("/:id/schedule", adminOnly, h.Instructor.GetSchedule)
			}
		}
	}

	return r, nil
}
