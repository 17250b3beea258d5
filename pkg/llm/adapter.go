package llm

import (
	"context"
	"net/http"
)

// ProviderAdapter 封装了单个提供商的全部差异：认证头的形态、
// 请求负载的结构、响应包的解析以及错误的分类。网关借助这一层
// 对所有提供商一视同仁。
type ProviderAdapter interface {
	// Name 返回提供商的注册名。
	Name() string
	// BuildRequest 把归一化的消息序列和设置翻译为该提供商的 HTTP 请求。
	BuildRequest(ctx context.Context, messages []Message, settings Settings, apiKey string) (*http.Request, error)
	// ParseResponse 从 2xx 响应体中提取生成文本；字段缺失或文本为空时
	// 返回 *MalformedResponseError。
	ParseResponse(body []byte) (string, error)
	// ClassifyError 把非 2xx 响应归类为可重试/限流/认证失败/致命。
	ClassifyError(statusCode int, body []byte) *CallError
}

// Registry 是按提供商名索引的适配器集合。
type Registry map[string]ProviderAdapter

// NewRegistry 构建全部受支持提供商的适配器。
// gemini 与 cohere 各有自己的响应包结构，其余六家共享
// OpenAI 兼容的 chat/completions 形态（各自的 base URL 与认证头）。
func NewRegistry() Registry {
	adapters := []ProviderAdapter{
		newGeminiAdapter("https://generativelanguage.googleapis.com/v1beta"),
		newCohereAdapter("https://api.cohere.com/v2"),
		newOpenAIAdapter("openrouter", "https://openrouter.ai/api/v1", map[string]string{
			// OpenRouter 要求带上来源站点标识
			"HTTP-Referer": "http://localhost:3000",
			"X-Title":      "ChunRAG",
		}),
		newOpenAIAdapter("huggingface", "https://router.huggingface.co/v1", nil),
		newOpenAIAdapter("mistral", "https://api.mistral.ai/v1", nil),
		newOpenAIAdapter("nvidia", "https://integrate.api.nvidia.com/v1", nil),
		newOpenAIAdapter("chutes", "https://llm.chutes.ai/v1", nil),
		newOpenAIAdapter("requesty", "https://router.requesty.ai/v1", nil),
	}

	registry := make(Registry, len(adapters))
	for _, a := range adapters {
		registry[a.Name()] = a
	}
	return registry
}

// classifyStatus 是各适配器共享的默认错误分类。
// 个别提供商若有特殊状态码语义，可在自己的 ClassifyError 中覆盖。
func classifyStatus(statusCode int) *CallError {
	switch {
	case statusCode == http.StatusTooManyRequests:
		return &CallError{Class: ClassRateLimited, Status: statusCode, Reason: "credential rate limited"}
	case statusCode == http.StatusUnauthorized || statusCode == http.StatusForbidden:
		return &CallError{Class: ClassAuthFailure, Status: statusCode, Reason: "credential rejected"}
	case statusCode == http.StatusBadRequest || statusCode == http.StatusNotFound ||
		statusCode == http.StatusUnprocessableEntity:
		return &CallError{Class: ClassFatal, Status: statusCode, Reason: "malformed request or unsupported model"}
	case statusCode >= 500 || statusCode == http.StatusRequestTimeout:
		return &CallError{Class: ClassRetryable, Status: statusCode, Reason: "transient upstream failure"}
	default:
		return &CallError{Class: ClassFatal, Status: statusCode, Reason: "unexpected provider response"}
	}
}
