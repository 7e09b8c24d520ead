package api

import (
	"TubeDigest/pkg/logger"
	"TubeDigest/pkg/ratelimiter"

	"github.com/gin-gonic/gin"
)

// RouterOptions 控制路由器挂载的可选中间件。
type RouterOptions struct {
	EnableHSTS    bool
	RateLimiter   ratelimiter.RateLimiter // 为 nil 时不启用限流。
	RequestLogger *logger.Logger          // 为 nil 时不记录访问日志。
}

// SetupRouter 配置和返回一个 Gin 引擎实例。
func SetupRouter(h *Handler, opts RouterOptions) *gin.Engine {
	// 使用默认中间件 (logger, recovery) 创建一个 Gin 引擎。
	r := gin.Default()

	if opts.RequestLogger != nil {
		r.Use(RequestLogger(opts.RequestLogger))
	}
	r.Use(SecurityHeaders(opts.EnableHSTS))
	if opts.RateLimiter != nil {
		r.Use(RateLimit(opts.RateLimiter))
	}

	r.POST("/submit_task", h.SubmitTask)
	r.GET("/task_status/:task_id", h.TaskStatus)
	r.GET("/results", h.Results)
	r.GET("/get_video_info", h.VideoInfo)

	// 运维端点
	r.GET("/health", h.Health)
	r.GET("/system_info", h.SystemInfo)

	return r
}
