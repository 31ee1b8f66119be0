package translate

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"

	openai "github.com/sashabaranov/go-openai"

	"kidsfolio/internal/config"
)

var (
	// ErrUnavailable 表示翻译能力未配置或调用失败。
	ErrUnavailable = errors.New("translation unavailable")
	// ErrMalformed 表示模型返回的内容无法解析或结构与源不一致。
	ErrMalformed = errors.New("malformed translation response")
)

// Completer 是对话补全能力的最小接口。
type Completer interface {
	Complete(ctx context.Context, system, user string) (string, error)
}

// OpenAICompleter 调用兼容 OpenAI Chat Completions 协议的服务。
type OpenAICompleter struct {
	client *openai.Client
	model  string
}

// NewOpenAICompleter 未配置 base_url / api_key / model 任一项时返回 ErrUnavailable。
func NewOpenAICompleter(cfg config.TranslationConfig) (*OpenAICompleter, error) {
	baseURL := strings.TrimRight(strings.TrimSpace(cfg.BaseURL), "/")
	if baseURL == "" || strings.TrimSpace(cfg.APIKey) == "" || strings.TrimSpace(cfg.Model) == "" {
		return nil, ErrUnavailable
	}

	clientCfg := openai.DefaultConfig(cfg.APIKey)
	clientCfg.BaseURL = baseURL
	clientCfg.HTTPClient = &http.Client{Timeout: cfg.Timeout}

	return &OpenAICompleter{
		client: openai.NewClientWithConfig(clientCfg),
		model:  cfg.Model,
	}, nil
}

// Model 返回模型名，用于缓存键。
func (c *OpenAICompleter) Model() string {
	return c.model
}

func (c *OpenAICompleter) Complete(ctx context.Context, system, user string) (string, error) {
	resp, err := c.client.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
		Model:       c.model,
		Temperature: 0.2,
		Messages: []openai.ChatCompletionMessage{
			{Role: openai.ChatMessageRoleSystem, Content: system},
			{Role: openai.ChatMessageRoleUser, Content: user},
		},
	})
	if err != nil {
		return "", fmt.Errorf("%w: chat completion: %v", ErrUnavailable, err)
	}
	if len(resp.Choices) == 0 {
		return "", fmt.Errorf("%w: empty choices", ErrMalformed)
	}
	return resp.Choices[0].Message.Content, nil
}

// stripCodeFence 去掉模型常见的 ```json ... ``` 包裹。
func stripCodeFence(s string) string {
	s = strings.TrimSpace(s)
	if !strings.HasPrefix(s, "```") {
		return s
	}
	s = strings.TrimPrefix(s, "```")
	if i := strings.IndexByte(s, '\n'); i >= 0 {
		s = s[i+1:]
	} else {
		s = strings.TrimPrefix(s, "json")
	}
	s = strings.TrimSpace(s)
	s = strings.TrimSuffix(s, "```")
	return strings.TrimSpace(s)
}
