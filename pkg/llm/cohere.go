package llm

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
)

// cohereAdapter 对接 Cohere 的 v2/chat 接口。
// 请求侧与 OpenAI 系接近，但响应文本藏在 message.content 的
// 分段数组里，采样参数命名也有自己的一套（p/k）。
type cohereAdapter struct {
	baseURL string
}

func newCohereAdapter(baseURL string) *cohereAdapter {
	return &cohereAdapter{baseURL: baseURL}
}

func (a *cohereAdapter) Name() string {
	return "cohere"
}

type cohereChatRequest struct {
	Model            string    `json:"model"`
	Messages         []Message `json:"messages"`
	Temperature      float64   `json:"temperature"`
	P                float64   `json:"p"`
	K                int       `json:"k,omitempty"`
	MaxTokens        int       `json:"max_tokens"`
	FrequencyPenalty float64   `json:"frequency_penalty,omitempty"`
	PresencePenalty  float64   `json:"presence_penalty,omitempty"`
}

type cohereChatResponse struct {
	Message struct {
		Content []struct {
			Type string `json:"type"`
			Text string `json:"text"`
		} `json:"content"`
	} `json:"message"`
}

// BuildRequest 组装 Cohere v2/chat 请求。
func (a *cohereAdapter) BuildRequest(ctx context.Context, messages []Message, settings Settings, apiKey string) (*http.Request, error) {
	reqBody := cohereChatRequest{
		Model:            settings.Model,
		Messages:         messages,
		Temperature:      settings.Params.Temperature,
		P:                settings.Params.TopP,
		K:                settings.Params.TopK,
		MaxTokens:        settings.Params.MaxTokens,
		FrequencyPenalty: settings.Params.FrequencyPenalty,
		PresencePenalty:  settings.Params.PresencePenalty,
	}

	reqBytes, err := json.Marshal(reqBody)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal cohere request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, "POST", a.baseURL+"/chat", bytes.NewReader(reqBytes))
	if err != nil {
		return nil, fmt.Errorf("failed to create cohere request: %w", err)
	}

	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+apiKey)
	return req, nil
}

// ParseResponse 拼接 message.content 中全部 text 分段。
func (a *cohereAdapter) ParseResponse(body []byte) (string, error) {
	var resp cohereChatResponse
	if err := json.Unmarshal(body, &resp); err != nil {
		return "", &MalformedResponseError{Provider: a.Name(), Detail: "invalid JSON envelope"}
	}

	var sb strings.Builder
	for _, seg := range resp.Message.Content {
		if seg.Type == "" || seg.Type == "text" {
			sb.WriteString(seg.Text)
		}
	}
	text := sb.String()
	if strings.TrimSpace(text) == "" {
		return "", &MalformedResponseError{Provider: a.Name(), Detail: "empty message content"}
	}
	return text, nil
}

// ClassifyError 使用共享的状态码分类。
func (a *cohereAdapter) ClassifyError(statusCode int, _ []byte) *CallError {
	return classifyStatus(statusCode)
}
