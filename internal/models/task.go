package models

import (
	"time"
)

// TaskStatus 定义了摘要任务的几种可能状态
type TaskStatus string

const (
	TaskStatusPending    TaskStatus = "pending"     // 任务已创建，尚未处理任何条目
	TaskStatusInProgress TaskStatus = "in_progress" // 至少有一个条目已开始处理
	TaskStatusCompleted  TaskStatus = "completed"   // 所有条目均已尝试处理，终态
	TaskStatusFailed     TaskStatus = "failed"      // 不可恢复的错误，终态
)

// IsTerminal 判断状态是否为终态（completed 或 failed）。
func (s TaskStatus) IsTerminal() bool {
	return s == TaskStatusCompleted || s == TaskStatusFailed
}

// TaskError 记录处理过程中单个条目产生的错误。
type TaskError struct {
	Item      string    `json:"item"`      // 出错条目的描述
	Error     string    `json:"error"`     // 错误信息
	Timestamp time.Time `json:"timestamp"` // 错误发生时间
}

// VideoResult 代表单个视频的处理结果。
// 处理失败时 Error 记录原因，未完成的阶段对应字段保持为空。
type VideoResult struct {
	ID              string `json:"id"`               // YouTube 视频 ID
	URL             string `json:"url"`              // 视频链接
	Title           string `json:"title"`            // 视频标题
	Transcript      string `json:"transcript"`       // 字幕文本（获取失败时为空）
	SummaryMarkdown string `json:"summary_markdown"` // Markdown 格式的摘要（失败时为空）
	Error           string `json:"error,omitempty"`  // 条目级错误（可选）
}

// TaskResult 是任务完成后的最终载荷。
type TaskResult struct {
	IsPlaylist    bool          `json:"is_playlist"`    // 是否为播放列表任务
	PlaylistTitle string        `json:"playlist_title"` // 播放列表标题（单视频任务为空）
	Videos        []VideoResult `json:"videos"`         // 按提交顺序排列的各视频结果
}

// Task 代表一个已提交的摘要任务的进度记录。
// 一个任务在处理期间由创建它的 orchestrator 独占写入；
// 进入终态后成为只读制品，在保留期满后被清除。
type Task struct {
	ID                 string      `json:"task_id"`              // 任务唯一 ID (UUID)
	Status             TaskStatus  `json:"status"`               // 任务当前状态
	Description        string      `json:"description"`          // 任务的人类可读描述
	TotalItems         int         `json:"total_items"`          // 待处理条目总数
	CompletedItems     int         `json:"completed_items"`      // 已尝试处理的条目数，恒 <= TotalItems
	CurrentItemDetails string      `json:"current_item_details"` // 正在处理条目的描述，完成后清空
	Errors             []TaskError `json:"errors"`               // 处理期间只增不减的错误列表
	StartTime          time.Time   `json:"start_time"`           // 任务创建时间
	LastUpdate         time.Time   `json:"last_update"`          // 最近一次更新时间，单调不减
	Result             *TaskResult `json:"result,omitempty"`     // 终态载荷
}

// ProgressPercent 返回任务的完成百分比（0-100）。
func (t *Task) ProgressPercent() int {
	if t.TotalItems <= 0 {
		return 0
	}
	return t.CompletedItems * 100 / t.TotalItems
}

// Clone 返回任务的深拷贝，供读取方使用，避免观察到撕裂的记录。
func (t *Task) Clone() *Task {
	c := *t
	if t.Errors != nil {
		c.Errors = make([]TaskError, len(t.Errors))
		copy(c.Errors, t.Errors)
	}
	if t.Result != nil {
		r := *t.Result
		if t.Result.Videos != nil {
			r.Videos = make([]VideoResult, len(t.Result.Videos))
			copy(r.Videos, t.Result.Videos)
		}
		c.Result = &r
	}
	return &c
}
