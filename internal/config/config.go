package config

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// AppInfo 对应 'app' 部分，包含应用程序的基本信息。
type AppInfo struct {
	Name        string `yaml:"name"`        // 应用程序名称
	Version     string `yaml:"version"`     // 应用程序版本
	Environment string `yaml:"environment"` // 运行环境 (例如: "development", "production")
}

// ServerConfig 定义了 HTTP 服务的监听配置。
type ServerConfig struct {
	Address         string `yaml:"address"`         // 监听地址 (例如: ":8080")
	ShutdownTimeout int    `yaml:"shutdownTimeout"` // 优雅关闭的超时时间 (秒)
	EnableHSTS      bool   `yaml:"enableHSTS"`      // 是否在响应头中启用 HSTS
}

// LoggerConfig 定义了日志记录器的配置。
type LoggerConfig struct {
	Level string `yaml:"level"` // 日志级别 (例如: "info", "debug", "warn", "error")
}

// RedisConfig 定义了 Redis 数据库的连接配置。
type RedisConfig struct {
	Enabled  bool   `yaml:"enabled"`  // 是否启用 Redis（关闭时使用内存存储）
	Address  string `yaml:"address"`  // Redis 服务器地址 (例如: "localhost:6379")
	Password string `yaml:"password"` // Redis 密码
	DB       int    `yaml:"db"`       // Redis 数据库编号
}

// GeminiConfig 包含了 Gemini 模型的配置。
// APIKeys 支持多个密钥，在触发限流时轮换使用。
type GeminiConfig struct {
	APIKeys []string `yaml:"apiKeys"` // Gemini API 密钥列表
	Model   string   `yaml:"model"`   // Gemini 模型名称 (例如: "gemini-2.5-flash")
}

// TranscriptConfig 定义了字幕抓取与缓存的配置。
type TranscriptConfig struct {
	Languages          []string `yaml:"languages"`          // 字幕语言优先级列表
	CacheTTLSeconds    int      `yaml:"cacheTTL"`           // 字幕缓存的 TTL (秒)
	InfoCacheTTL       int      `yaml:"infoCacheTTL"`       // 视频信息缓存的 TTL (秒)
	InfoFallbackTTL    int      `yaml:"infoFallbackTTL"`    // 视频信息获取失败时占位数据的 TTL (秒)
	FetchTimeout       int      `yaml:"fetchTimeout"`       // 单次抓取的超时时间 (秒)
	MaxRetries         int      `yaml:"maxRetries"`         // 抓取失败的最大重试次数
	RetryBaseDelayMSec int      `yaml:"retryBaseDelayMSec"` // 重试退避的基础延迟 (毫秒)
}

// SummarizerConfig 定义了摘要生成的配置。
type SummarizerConfig struct {
	DefaultPrompt   string `yaml:"defaultPrompt"`   // 未提供自定义提示词时使用的默认提示词
	MaxPromptLength int    `yaml:"maxPromptLength"` // 自定义提示词的最大长度
}

// TaskConfig 定义了任务存储与处理的配置。
type TaskConfig struct {
	RetentionSeconds int `yaml:"retentionSeconds"` // 任务记录的保留时间 (秒)，到期后被清除
	PlaylistWorkers  int `yaml:"playlistWorkers"`  // 播放列表条目的最大并行处理数
	QueueWorkers     int `yaml:"queueWorkers"`     // 后台任务队列的工作协程数
}

// RateLimiterConfig 定义了限流器的配置，目前采用令牌桶算法。
type RateLimiterConfig struct {
	Enabled  bool    `yaml:"enabled"`
	Rate     float64 `yaml:"rate"`     // 每秒速率
	Capacity int     `yaml:"capacity"` // 桶容量（突发上限）
}

// CircuitBreakerConfig 定义了保护外部调用（yt-dlp、Gemini）的熔断器配置。
type CircuitBreakerConfig struct {
	Enabled          bool   `yaml:"enabled"`
	FailureThreshold uint32 `yaml:"failureThreshold"`
	SuccessThreshold uint32 `yaml:"successThreshold"`
	Timeout          string `yaml:"timeout"` // 例如: "30s"
}

// MiddlewareConfig 包含所有中间件的配置。
type MiddlewareConfig struct {
	RateLimiter    RateLimiterConfig    `yaml:"rateLimiter"`
	CircuitBreaker CircuitBreakerConfig `yaml:"circuitBreaker"`
}

// AppConfig 是整个 YAML 文件的根结构，包含了应用程序的所有配置。
type AppConfig struct {
	App        AppInfo          `yaml:"app"`        // 应用程序信息
	Server     ServerConfig     `yaml:"server"`     // HTTP 服务配置
	Logger     LoggerConfig     `yaml:"logger"`     // 日志记录器配置
	Redis      RedisConfig      `yaml:"redis"`      // Redis 配置
	Gemini     GeminiConfig     `yaml:"gemini"`     // Gemini 模型配置
	Transcript TranscriptConfig `yaml:"transcript"` // 字幕抓取配置
	Summarizer SummarizerConfig `yaml:"summarizer"` // 摘要生成配置
	Task       TaskConfig       `yaml:"task"`       // 任务处理配置
	Middleware MiddlewareConfig `yaml:"middleware"` // 中间件配置
}

// DefaultSummaryPrompt 是未提供自定义提示词时使用的默认摘要提示词。
const DefaultSummaryPrompt = `Process the given text and convert it into organized notes. Follow these instructions:

Organize the information logically, breaking it down into clear, concise bullet points.

Use simple, accessible language. Avoid jargon and complex phrasing.

Ensure that no major idea or argument is missed. Cover all essential concepts, arguments, and conclusions from the original text.

Structure the output with Markdown formatting, using headings for sections and bold text to emphasize key terms or ideas.

Provide the notes directly without any introductory text or preamble.

Text to process:`

// LoadConfig 函数从指定路径加载并解析 YAML 配置文件。
//
// 参数:
//
//	path: YAML 配置文件的路径。
//
// 返回值:
//
//	*AppConfig: 解析后的应用程序配置结构体。
//	error: 如果文件读取或解析失败，则返回错误。
func LoadConfig(path string) (*AppConfig, error) {
	yamlFile, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("无法读取 YAML 文件 '%s': %w", path, err)
	}
	var cfg AppConfig
	if err := yaml.Unmarshal(yamlFile, &cfg); err != nil {
		return nil, fmt.Errorf("解析 YAML 文件失败: %w", err)
	}
	cfg.applyDefaults()
	// 环境变量中的密钥优先于文件配置，便于容器化部署。
	if key := os.Getenv("GEMINI_API_KEY"); key != "" {
		cfg.Gemini.APIKeys = append([]string{key}, cfg.Gemini.APIKeys...)
	}
	return &cfg, nil
}

// applyDefaults 为未设置的配置项填充默认值。
func (cfg *AppConfig) applyDefaults() {
	if cfg.Server.Address == "" {
		cfg.Server.Address = ":8080"
	}
	if cfg.Server.ShutdownTimeout <= 0 {
		cfg.Server.ShutdownTimeout = 5
	}
	if cfg.Logger.Level == "" {
		cfg.Logger.Level = "info"
	}
	if cfg.Gemini.Model == "" {
		cfg.Gemini.Model = "gemini-2.5-flash"
	}
	if len(cfg.Transcript.Languages) == 0 {
		cfg.Transcript.Languages = []string{"en", "hi", "en-US", "en-GB"}
	}
	if cfg.Transcript.CacheTTLSeconds <= 0 {
		cfg.Transcript.CacheTTLSeconds = 30 * 24 * 3600
	}
	if cfg.Transcript.InfoCacheTTL <= 0 {
		cfg.Transcript.InfoCacheTTL = 24 * 3600
	}
	if cfg.Transcript.InfoFallbackTTL <= 0 {
		cfg.Transcript.InfoFallbackTTL = 300
	}
	if cfg.Transcript.FetchTimeout <= 0 {
		cfg.Transcript.FetchTimeout = 60
	}
	if cfg.Transcript.MaxRetries <= 0 {
		cfg.Transcript.MaxRetries = 3
	}
	if cfg.Transcript.RetryBaseDelayMSec <= 0 {
		cfg.Transcript.RetryBaseDelayMSec = 1000
	}
	if cfg.Summarizer.DefaultPrompt == "" {
		cfg.Summarizer.DefaultPrompt = DefaultSummaryPrompt
	}
	if cfg.Summarizer.MaxPromptLength <= 0 {
		cfg.Summarizer.MaxPromptLength = 2000
	}
	if cfg.Task.RetentionSeconds <= 0 {
		cfg.Task.RetentionSeconds = 3600
	}
	if cfg.Task.PlaylistWorkers <= 0 {
		cfg.Task.PlaylistWorkers = 3
	}
	if cfg.Task.QueueWorkers <= 0 {
		cfg.Task.QueueWorkers = 4
	}
}
