package llm

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
)

// geminiAdapter 对接 Google 的 generateContent 接口。
// Gemini 的消息结构与 OpenAI 系截然不同：system 消息单独放进
// systemInstruction，assistant 角色叫 model，认证走 x-goog-api-key 头。
type geminiAdapter struct {
	baseURL string
}

func newGeminiAdapter(baseURL string) *geminiAdapter {
	return &geminiAdapter{baseURL: baseURL}
}

func (a *geminiAdapter) Name() string {
	return "gemini"
}

type geminiPart struct {
	Text string `json:"text"`
}

type geminiContent struct {
	Role  string       `json:"role,omitempty"`
	Parts []geminiPart `json:"parts"`
}

type geminiGenerateRequest struct {
	Contents          []geminiContent `json:"contents"`
	SystemInstruction *geminiContent  `json:"systemInstruction,omitempty"`
	GenerationConfig  struct {
		Temperature     float64 `json:"temperature"`
		TopP            float64 `json:"topP"`
		TopK            int     `json:"topK,omitempty"`
		MaxOutputTokens int     `json:"maxOutputTokens"`
	} `json:"generationConfig"`
}

type geminiGenerateResponse struct {
	Candidates []struct {
		Content struct {
			Parts []geminiPart `json:"parts"`
		} `json:"content"`
	} `json:"candidates"`
}

// BuildRequest 把归一化消息翻译为 generateContent 请求。
// 多条 system 消息合并为一个 systemInstruction（检索上下文也以
// system 角色注入，所以这里必须支持多条）。
func (a *geminiAdapter) BuildRequest(ctx context.Context, messages []Message, settings Settings, apiKey string) (*http.Request, error) {
	var reqBody geminiGenerateRequest
	var systemParts []geminiPart

	for _, m := range messages {
		switch m.Role {
		case "system":
			systemParts = append(systemParts, geminiPart{Text: m.Content})
		case "assistant":
			reqBody.Contents = append(reqBody.Contents, geminiContent{
				Role:  "model",
				Parts: []geminiPart{{Text: m.Content}},
			})
		default:
			reqBody.Contents = append(reqBody.Contents, geminiContent{
				Role:  "user",
				Parts: []geminiPart{{Text: m.Content}},
			})
		}
	}
	if len(systemParts) > 0 {
		reqBody.SystemInstruction = &geminiContent{Parts: systemParts}
	}
	reqBody.GenerationConfig.Temperature = settings.Params.Temperature
	reqBody.GenerationConfig.TopP = settings.Params.TopP
	reqBody.GenerationConfig.TopK = settings.Params.TopK
	reqBody.GenerationConfig.MaxOutputTokens = settings.Params.MaxTokens

	reqBytes, err := json.Marshal(reqBody)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal gemini request: %w", err)
	}

	url := fmt.Sprintf("%s/models/%s:generateContent", a.baseURL, settings.Model)
	req, err := http.NewRequestWithContext(ctx, "POST", url, bytes.NewReader(reqBytes))
	if err != nil {
		return nil, fmt.Errorf("failed to create gemini request: %w", err)
	}

	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("x-goog-api-key", apiKey)
	return req, nil
}

// ParseResponse 拼接 candidates[0].content.parts 的全部文本。
func (a *geminiAdapter) ParseResponse(body []byte) (string, error) {
	var resp geminiGenerateResponse
	if err := json.Unmarshal(body, &resp); err != nil {
		return "", &MalformedResponseError{Provider: a.Name(), Detail: "invalid JSON envelope"}
	}
	if len(resp.Candidates) == 0 {
		return "", &MalformedResponseError{Provider: a.Name(), Detail: "no candidates in response"}
	}

	var sb strings.Builder
	for _, part := range resp.Candidates[0].Content.Parts {
		sb.WriteString(part.Text)
	}
	text := sb.String()
	if strings.TrimSpace(text) == "" {
		return "", &MalformedResponseError{Provider: a.Name(), Detail: "empty candidate text"}
	}
	return text, nil
}

// ClassifyError 使用共享的状态码分类。
func (a *geminiAdapter) ClassifyError(statusCode int, _ []byte) *CallError {
	return classifyStatus(statusCode)
}
