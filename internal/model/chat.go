package model

// SamplingParams 是生成采样参数的集合。
// 所有字段均为指针：nil 表示调用方未指定，由存储的全局默认值兜底。
type SamplingParams struct {
	Temperature      *float64 `json:"temperature,omitempty"`
	TopP             *float64 `json:"topP,omitempty"`
	MaxTokens        *int     `json:"maxTokens,omitempty"`
	TopK             *int     `json:"topK,omitempty"`
	FrequencyPenalty *float64 `json:"frequencyPenalty,omitempty"`
	PresencePenalty  *float64 `json:"presencePenalty,omitempty"`
}

// ModelParameters 是进程级别的采样参数默认值，启动时加载、
// 每次修改后写穿到持久化存储。
type ModelParameters struct {
	Temperature      float64 `json:"temperature"`
	TopP             float64 `json:"topP"`
	MaxTokens        int     `json:"maxTokens"`
	TopK             int     `json:"topK"`
	FrequencyPenalty float64 `json:"frequencyPenalty"`
	PresencePenalty  float64 `json:"presencePenalty"`
}

// DefaultModelParameters 返回与前端约定一致的出厂默认值。
func DefaultModelParameters() ModelParameters {
	return ModelParameters{
		Temperature:      0.7,
		TopP:             0.9,
		MaxTokens:        2048,
		TopK:             40,
		FrequencyPenalty: 0,
		PresencePenalty:  0,
	}
}

// Merge 以请求级覆盖值为准合并采样参数，未指定的字段回落到默认值。
func (p ModelParameters) Merge(override *SamplingParams) ModelParameters {
	if override == nil {
		return p
	}
	merged := p
	if override.Temperature != nil {
		merged.Temperature = *override.Temperature
	}
	if override.TopP != nil {
		merged.TopP = *override.TopP
	}
	if override.MaxTokens != nil {
		merged.MaxTokens = *override.MaxTokens
	}
	if override.TopK != nil {
		merged.TopK = *override.TopK
	}
	if override.FrequencyPenalty != nil {
		merged.FrequencyPenalty = *override.FrequencyPenalty
	}
	if override.PresencePenalty != nil {
		merged.PresencePenalty = *override.PresencePenalty
	}
	return merged
}

// ChatRequest 是一次聊天调用的入参。
// Parameters 为 nil 时使用存储的全局采样默认值。
type ChatRequest struct {
	Message      string          `json:"message"`
	Provider     string          `json:"provider"`
	Model        string          `json:"model"`
	SystemPrompt string          `json:"systemPrompt,omitempty"`
	Parameters   *SamplingParams `json:"parameters,omitempty"`
}

// ChatResponse 是聊天编排器返回给调用方的结果。
// ContextUsed 表示本轮是否拼装了非空的文档上下文（与模型是否采纳无关）。
type ChatResponse struct {
	Text        string `json:"response"`
	ContextUsed bool   `json:"contextUsed"`
}
