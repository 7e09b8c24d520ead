package api

import (
	"net/http"
	"time"

	"TubeDigest/internal/models"
	"TubeDigest/pkg/logger"
	"TubeDigest/pkg/ratelimiter"

	"github.com/gin-gonic/gin"
)

// RequestLogger 创建一个记录请求上下文与耗时的中间件。
// 5xx 响应会附带结构化的错误信息，便于日志检索。
func RequestLogger(log *logger.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()

		entry := log.WithRequest(models.RequestInfo{
			Method:     c.Request.Method,
			Path:       c.Request.URL.Path,
			RemoteAddr: c.ClientIP(),
			UserAgent:  c.Request.UserAgent(),
		}).WithPayload(map[string]interface{}{
			"status":      c.Writer.Status(),
			"duration_ms": time.Since(start).Milliseconds(),
		})

		if c.Writer.Status() >= http.StatusInternalServerError {
			entry.WithError(models.ErrorInfo{
				Message:    c.Errors.String(),
				Type:       "request_error",
				StatusCode: c.Writer.Status(),
			}).Error("Request failed")
			return
		}
		entry.Info("Request handled")
	}
}

// SecurityHeaders 创建一个 Gin 中间件，为所有响应附加安全响应头。
// enableHSTS 仅在服务经由 TLS 暴露时开启。
func SecurityHeaders(enableHSTS bool) gin.HandlerFunc {
	return func(c *gin.Context) {
		h := c.Writer.Header()
		h.Set("X-Content-Type-Options", "nosniff")
		h.Set("X-Frame-Options", "DENY")
		h.Set("X-XSS-Protection", "1; mode=block")
		h.Set("Referrer-Policy", "strict-origin-when-cross-origin")
		h.Set("Content-Security-Policy", "default-src 'self'")
		if enableHSTS {
			h.Set("Strict-Transport-Security", "max-age=31536000; includeSubDomains")
		}
		c.Next()
	}
}

// RateLimit 创建一个基于令牌桶的限流中间件。
// 当令牌耗尽时返回 429。
func RateLimit(limiter ratelimiter.RateLimiter) gin.HandlerFunc {
	return func(c *gin.Context) {
		if !limiter.Allow() {
			c.JSON(http.StatusTooManyRequests, gin.H{"error": "too many requests"})
			c.Abort()
			return
		}
		c.Next()
	}
}
