// Package llm 实现多提供商的 LLM 网关：把归一化的聊天请求分发给
// 某个外部模型提供商，在其 key 池上带重试与故障转移地执行调用，
// 并把各家不同的错误形态收敛为分类后的原因。
package llm

import (
	"fmt"

	"chunrag-go/internal/model"
)

// Message 表示一条发往提供商的角色消息。
type Message struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

// Settings 是一次网关调用的完整设置：目标提供商、模型以及
// 已经与全局默认值合并完毕的采样参数。
type Settings struct {
	Provider string
	Model    string
	Params   model.ModelParameters
}

// ErrorClass 是提供商调用失败的分类。
type ErrorClass int

const (
	// ClassRetryable 表示瞬时故障（网络错误、5xx），同一凭证可重试。
	ClassRetryable ErrorClass = iota
	// ClassRateLimited 表示该凭证被限流，应换下一把 key。
	ClassRateLimited
	// ClassAuthFailure 表示该凭证无效或无权限，应换下一把 key。
	ClassAuthFailure
	// ClassFatal 表示请求本身有问题（格式错误、不支持的模型），立即中止。
	ClassFatal
)

func (c ErrorClass) String() string {
	switch c {
	case ClassRetryable:
		return "retryable"
	case ClassRateLimited:
		return "rate limited"
	case ClassAuthFailure:
		return "auth failure"
	case ClassFatal:
		return "fatal"
	default:
		return "unknown"
	}
}

// CallError 是单次提供商调用的分类结果。Reason 只携带简短的分类
// 描述，永远不包含原始响应体或凭证。
type CallError struct {
	Class  ErrorClass
	Status int
	Reason string
}

func (e *CallError) Error() string {
	if e.Status > 0 {
		return fmt.Sprintf("%s (HTTP %d): %s", e.Class, e.Status, e.Reason)
	}
	return fmt.Sprintf("%s: %s", e.Class, e.Reason)
}

// MalformedResponseError 表示提供商返回了 2xx 但响应包中缺少
// 必要字段或文本为空；宁可报错也不静默返回空串。
type MalformedResponseError struct {
	Provider string
	Detail   string
}

func (e *MalformedResponseError) Error() string {
	return fmt.Sprintf("malformed response from %s: %s", e.Provider, e.Detail)
}

// GatewayError 是耗尽重试/故障转移预算后的最终失败，
// 只向调用方暴露分类后的原因。
type GatewayError struct {
	Provider string
	Attempts int
	Cause    error
}

func (e *GatewayError) Error() string {
	return fmt.Sprintf("llm gateway: provider %s failed after %d credential attempt(s): %v", e.Provider, e.Attempts, e.Cause)
}

func (e *GatewayError) Unwrap() error {
	return e.Cause
}
