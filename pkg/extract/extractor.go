// Package extract 提供从上传文件中提取纯文本的边界实现。
// 纯文本族格式（txt/md/csv）在本包内完成；其余格式（PDF/DOCX 等）的
// 解析属于外部协作方的职责，这里统一以 UnsupportedFormatError 拒绝。
package extract

import (
	"os"
	"path/filepath"
	"strings"

	"chunrag-go/internal/model"
)

// Extractor 定义了文本提取的接口。
type Extractor interface {
	// Extract 从 filePath 指向的文件中提取纯文本。
	// 未知扩展名返回 *model.UnsupportedFormatError，
	// 读取失败返回 *model.ExtractionError。
	Extract(filePath, originalName string) (string, error)
}

type plainTextExtractor struct{}

// NewExtractor 创建默认的文本提取器。
func NewExtractor() Extractor {
	return &plainTextExtractor{}
}

// Extract 根据原始文件名的扩展名分发提取逻辑。
func (e *plainTextExtractor) Extract(filePath, originalName string) (string, error) {
	ext := strings.ToLower(filepath.Ext(originalName))

	switch ext {
	case ".txt", ".md", ".csv":
		data, err := os.ReadFile(filePath)
		if err != nil {
			return "", &model.ExtractionError{FileName: originalName, Cause: err}
		}
		return string(data), nil
	default:
		return "", &model.UnsupportedFormatError{Ext: ext}
	}
}
