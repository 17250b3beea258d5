package model

import (
	"errors"
	"fmt"
)

// 错误分类（见架构说明）：校验错误原样返回调用方；摄取/聊天中的
// 采集与向量化错误带原因中止且不提交半成品状态；重建中的单文档失败
// 只丢弃该文档并继续；网关错误只暴露分类后的原因。

// ErrDocumentNotFound 表示按 ID 找不到文档。
var ErrDocumentNotFound = errors.New("document not found")

// ValidationError 表示调用方输入非法（缺少消息、未知提供商等）。
type ValidationError struct {
	Message string
}

func (e *ValidationError) Error() string {
	return e.Message
}

// NewValidationError 创建一个校验错误。
func NewValidationError(format string, args ...interface{}) *ValidationError {
	return &ValidationError{Message: fmt.Sprintf(format, args...)}
}

// UnsupportedFormatError 表示文本提取器不认识该文件扩展名。
type UnsupportedFormatError struct {
	Ext string
}

func (e *UnsupportedFormatError) Error() string {
	return fmt.Sprintf("unsupported file type: %s", e.Ext)
}

// ExtractionError 表示文本提取失败。
type ExtractionError struct {
	FileName string
	Cause    error
}

func (e *ExtractionError) Error() string {
	return fmt.Sprintf("failed to extract text from %s: %v", e.FileName, e.Cause)
}

func (e *ExtractionError) Unwrap() error {
	return e.Cause
}

// ErrEmbeddingUnavailable 表示没有可用于向量化的凭证。
var ErrEmbeddingUnavailable = errors.New("gemini API key required for embeddings")
