package llm

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"

	"TubeDigest/pkg/logger"

	"github.com/google/generative-ai-go/genai"
	"google.golang.org/api/googleapi"
	"google.golang.org/api/option"
)

// ErrAllKeysExhausted 表示所有配置的 API 密钥均已达到配额上限。
var ErrAllKeysExhausted = errors.New("all Gemini API keys exhausted")

// Summarizer 是摘要生成器的通用接口，便于在测试中替换实现。
type Summarizer interface {
	// Summarize 根据给定的提示词对文本生成摘要。
	Summarize(ctx context.Context, text, prompt string) (string, error)
	// Close 释放底层客户端资源。
	Close() error
}

// Gemini 是一个实现了 Summarizer 接口的结构体，用于与 Gemini API 交互。
// 它持有多个 API 密钥，当当前密钥配额耗尽时自动轮换到下一个。
type Gemini struct {
	mu        sync.Mutex
	modelName string
	apiKeys   []string
	keyIndex  int           // 当前使用的密钥下标。
	client    *genai.Client // 当前密钥对应的 GenAI 客户端。
	logger    *logger.Logger
}

// NewGemini 创建一个新的 Gemini 摘要客户端。
//
// 参数:
//
//	ctx: 上下文，用于控制客户端的生命周期。
//	model: 要使用的 Gemini 模型名称。
//	apiKeys: Gemini API 密钥列表，按顺序轮换使用。
//
// 返回值:
//
//	*Gemini: 新创建的 Gemini 客户端实例。
//	error: 如果密钥列表为空或无法创建 GenAI 客户端，则返回错误。
func NewGemini(ctx context.Context, model string, apiKeys []string, log *logger.Logger) (*Gemini, error) {
	if len(apiKeys) == 0 {
		return nil, errors.New("no Gemini API keys configured")
	}

	// 使用第一个 API 密钥创建 GenAI 客户端。
	client, err := genai.NewClient(ctx, option.WithAPIKey(apiKeys[0]))
	if err != nil {
		return nil, err
	}

	return &Gemini{
		modelName: model,
		apiKeys:   apiKeys,
		client:    client,
		logger:    log,
	}, nil
}

// Summarize 向 Gemini API 发送摘要请求并返回生成的 Markdown 文本。
// 当当前密钥返回配额错误时，自动切换到下一个密钥重试，
// 直到成功或所有密钥均已耗尽。
//
// 参数:
//
//	ctx: 上下文，用于控制请求的生命周期。
//	text: 需要摘要的原始文本。
//	prompt: 摘要提示词。
//
// 返回值:
//
//	string: 生成的摘要文本。
//	error: 如果所有密钥均失败，则返回错误。
func (g *Gemini) Summarize(ctx context.Context, text, prompt string) (string, error) {
	if strings.TrimSpace(text) == "" {
		return "", errors.New("empty text for summarization")
	}

	input := genai.Text(prompt + "\n\n" + text)

	// 每个密钥最多尝试一次，轮换一整圈后放弃。
	for attempt := 0; attempt < len(g.apiKeys); attempt++ {
		resp, err := g.generate(ctx, input)
		if err == nil {
			summary := collectText(resp)
			if summary == "" {
				return "", errors.New("empty response from Gemini")
			}
			return summary, nil
		}

		if !isQuotaError(err) {
			return "", fmt.Errorf("gemini request failed: %w", err)
		}

		// 当前密钥配额耗尽，轮换到下一个密钥。
		if rotErr := g.rotateKey(ctx); rotErr != nil {
			return "", rotErr
		}
	}

	return "", ErrAllKeysExhausted
}

// Close 关闭当前持有的 GenAI 客户端。
func (g *Gemini) Close() error {
	g.mu.Lock()
	defer g.mu.Unlock()
	if g.client != nil {
		return g.client.Close()
	}
	return nil
}

// generate 使用当前客户端发送一次生成请求。
func (g *Gemini) generate(ctx context.Context, part genai.Part) (*genai.GenerateContentResponse, error) {
	g.mu.Lock()
	model := g.client.GenerativeModel(g.modelName)
	g.mu.Unlock()
	return model.GenerateContent(ctx, part)
}

// rotateKey 关闭当前客户端并使用下一个密钥重建客户端。
func (g *Gemini) rotateKey(ctx context.Context) error {
	g.mu.Lock()
	defer g.mu.Unlock()

	g.logger.WithPayload(map[string]interface{}{
		"exhausted_key_index": g.keyIndex,
	}).Warn("Gemini API key quota exhausted, rotating to next key")

	if g.client != nil {
		_ = g.client.Close()
		g.client = nil
	}

	g.keyIndex++
	if g.keyIndex >= len(g.apiKeys) {
		return ErrAllKeysExhausted
	}

	client, err := genai.NewClient(ctx, option.WithAPIKey(g.apiKeys[g.keyIndex]))
	if err != nil {
		return err
	}
	g.client = client
	return nil
}

// isQuotaError 判断错误是否为配额耗尽（HTTP 429 / RESOURCE_EXHAUSTED）。
func isQuotaError(err error) bool {
	var apiErr *googleapi.Error
	if errors.As(err, &apiErr) {
		return apiErr.Code == 429
	}
	// genai 库有时以字符串形式包装配额错误。
	msg := err.Error()
	return strings.Contains(msg, "429") || strings.Contains(msg, "RESOURCE_EXHAUSTED") || strings.Contains(msg, "quota")
}

// collectText 将响应中所有候选内容的文本部分拼接为一个字符串。
func collectText(resp *genai.GenerateContentResponse) string {
	if resp == nil {
		return ""
	}
	var sb strings.Builder
	for _, cand := range resp.Candidates {
		if cand.Content == nil {
			continue
		}
		for _, p := range cand.Content.Parts {
			if t, ok := p.(genai.Text); ok {
				sb.WriteString(string(t))
			}
		}
	}
	return strings.TrimSpace(sb.String())
}
