package api

import (
	"errors"
	"net/http"
	"os/exec"
	"runtime"
	"time"

	"TubeDigest/internal/models"
	"TubeDigest/internal/summarizer_service/service"
	"TubeDigest/internal/summarizer_service/store"
	"TubeDigest/pkg/logger"

	"github.com/gin-gonic/gin"
)

// Handler 封装了所有 API endpoint 的处理函数。
type Handler struct {
	service      *service.SummarizerService
	healthCheck  func() error // 存储后端健康检查，可为 nil。
	cacheBackend string       // "redis" 或 "memory"，用于健康报告。
	started      time.Time
	logger       *logger.Logger
}

// NewHandler 创建一个新的 Handler 实例。
func NewHandler(s *service.SummarizerService, healthCheck func() error, cacheBackend string, log *logger.Logger) *Handler {
	return &Handler{
		service:      s,
		healthCheck:  healthCheck,
		cacheBackend: cacheBackend,
		started:      time.Now(),
		logger:       log,
	}
}

// SubmitTask 处理摘要任务提交请求，立即返回 202 和任务 ID。
func (h *Handler) SubmitTask(c *gin.Context) {
	var req service.SubmitRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	taskID, err := h.service.SubmitTask(c.Request.Context(), req)
	if err != nil {
		var verr *service.ValidationError
		if errors.As(err, &verr) {
			c.JSON(http.StatusBadRequest, gin.H{"error": verr.Reason})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	c.JSON(http.StatusAccepted, gin.H{"task_id": taskID})
}

// TaskStatus 返回任务的当前进度快照。未知或已过期的任务返回 404。
func (h *Handler) TaskStatus(c *gin.Context) {
	taskID := c.Param("task_id")

	task, err := h.service.GetTask(c.Request.Context(), taskID)
	if err != nil {
		if errors.Is(err, store.ErrTaskNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "task not found"})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"task_id":     task.ID,
		"status":      task.Status,
		"description": task.Description,
		"progress": gin.H{
			"total_items":          task.TotalItems,
			"completed_items":      task.CompletedItems,
			"progress_percentage":  task.ProgressPercent(),
			"current_item_details": task.CurrentItemDetails,
		},
		"result":      task.Result,
		"errors":      task.Errors,
		"start_time":  task.StartTime,
		"last_update": task.LastUpdate,
	})
}

// Results 返回终态任务的完整结果。任务尚未结束时返回 409。
func (h *Handler) Results(c *gin.Context) {
	taskID := c.Query("task_id")
	if taskID == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "task_id query parameter is required"})
		return
	}

	task, err := h.service.GetTask(c.Request.Context(), taskID)
	if err != nil {
		if errors.Is(err, store.ErrTaskNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "task not found"})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	if !task.Status.IsTerminal() {
		c.JSON(http.StatusConflict, gin.H{
			"error":  "task is still in progress",
			"status": task.Status,
		})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"task_id": task.ID,
		"status":  task.Status,
		"result":  task.Result,
		"errors":  task.Errors,
	})
}

// VideoInfo 返回单个视频的元数据，不创建任务。
func (h *Handler) VideoInfo(c *gin.Context) {
	url := c.Query("url")
	if url == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "url query parameter is required"})
		return
	}

	info, err := h.service.GetVideoInfo(c.Request.Context(), url)
	if err != nil {
		var verr *service.ValidationError
		if errors.As(err, &verr) {
			c.JSON(http.StatusBadRequest, gin.H{"error": verr.Reason})
			return
		}
		h.logger.WithError(models.ErrorInfo{Message: err.Error(), Type: "info_error"}).Warn("Video info fetch failed")
		c.JSON(http.StatusBadGateway, gin.H{"error": "failed to fetch video info"})
		return
	}

	c.JSON(http.StatusOK, info)
}

// Health 报告服务及其存储后端的健康状态。
func (h *Handler) Health(c *gin.Context) {
	status := "ok"
	code := http.StatusOK
	backend := gin.H{"type": h.cacheBackend, "status": "ok"}

	if h.healthCheck != nil {
		if err := h.healthCheck(); err != nil {
			status = "degraded"
			code = http.StatusServiceUnavailable
			backend["status"] = "unreachable"
			backend["error"] = err.Error()
		}
	}

	c.JSON(code, gin.H{
		"status":  status,
		"uptime":  time.Since(h.started).String(),
		"backend": backend,
	})
}

// SystemInfo 报告运行环境信息，包括外部工具的可用性。
func (h *Handler) SystemInfo(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"go_version":    runtime.Version(),
		"goroutines":    runtime.NumGoroutine(),
		"num_cpu":       runtime.NumCPU(),
		"ytdlp_found":   binaryAvailable("yt-dlp"),
		"ffmpeg_found":  binaryAvailable("ffmpeg"),
		"cache_backend": h.cacheBackend,
	})
}

func binaryAvailable(name string) bool {
	_, err := exec.LookPath(name)
	return err == nil
}
