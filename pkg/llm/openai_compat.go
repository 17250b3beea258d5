package llm

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
)

// openAIAdapter 覆盖所有暴露 OpenAI 兼容 chat/completions 接口的
// 提供商：openrouter、huggingface、mistral、nvidia、chutes、requesty。
// 差异只剩 base URL、Bearer 认证以及个别提供商要求的额外请求头。
type openAIAdapter struct {
	name         string
	baseURL      string
	extraHeaders map[string]string
}

func newOpenAIAdapter(name, baseURL string, extraHeaders map[string]string) *openAIAdapter {
	return &openAIAdapter{name: name, baseURL: baseURL, extraHeaders: extraHeaders}
}

func (a *openAIAdapter) Name() string {
	return a.name
}

type openAIChatRequest struct {
	Model            string    `json:"model"`
	Messages         []Message `json:"messages"`
	Temperature      float64   `json:"temperature"`
	TopP             float64   `json:"top_p"`
	MaxTokens        int       `json:"max_tokens"`
	FrequencyPenalty float64   `json:"frequency_penalty,omitempty"`
	PresencePenalty  float64   `json:"presence_penalty,omitempty"`
}

type openAIChatResponse struct {
	Choices []struct {
		Message struct {
			Content string `json:"content"`
		} `json:"message"`
	} `json:"choices"`
}

// BuildRequest 组装 OpenAI 兼容的 chat/completions 请求。
func (a *openAIAdapter) BuildRequest(ctx context.Context, messages []Message, settings Settings, apiKey string) (*http.Request, error) {
	reqBody := openAIChatRequest{
		Model:            settings.Model,
		Messages:         messages,
		Temperature:      settings.Params.Temperature,
		TopP:             settings.Params.TopP,
		MaxTokens:        settings.Params.MaxTokens,
		FrequencyPenalty: settings.Params.FrequencyPenalty,
		PresencePenalty:  settings.Params.PresencePenalty,
	}

	reqBytes, err := json.Marshal(reqBody)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal chat request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, "POST", a.baseURL+"/chat/completions", bytes.NewReader(reqBytes))
	if err != nil {
		return nil, fmt.Errorf("failed to create chat request: %w", err)
	}

	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+apiKey)
	for k, v := range a.extraHeaders {
		req.Header.Set(k, v)
	}
	return req, nil
}

// ParseResponse 提取 choices[0].message.content。
func (a *openAIAdapter) ParseResponse(body []byte) (string, error) {
	var resp openAIChatResponse
	if err := json.Unmarshal(body, &resp); err != nil {
		return "", &MalformedResponseError{Provider: a.name, Detail: "invalid JSON envelope"}
	}
	if len(resp.Choices) == 0 {
		return "", &MalformedResponseError{Provider: a.name, Detail: "no choices in response"}
	}
	text := resp.Choices[0].Message.Content
	if strings.TrimSpace(text) == "" {
		return "", &MalformedResponseError{Provider: a.name, Detail: "empty message content"}
	}
	return text, nil
}

// ClassifyError 使用共享的状态码分类。
func (a *openAIAdapter) ClassifyError(statusCode int, _ []byte) *CallError {
	return classifyStatus(statusCode)
}
