package handler

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/gin-gonic/gin"

	"chunrag-go/internal/model"
	"chunrag-go/internal/service"
	"chunrag-go/pkg/log"
)

// DocumentHandler 负责处理所有与文档管理相关的 API 请求。
type DocumentHandler struct {
	docService service.DocumentService
	uploadDir  string
}

// NewDocumentHandler 创建一个新的 DocumentHandler 实例。
func NewDocumentHandler(docService service.DocumentService, uploadDir string) *DocumentHandler {
	return &DocumentHandler{docService: docService, uploadDir: uploadDir}
}

// List 处理获取文档列表的请求。
func (h *DocumentHandler) List(c *gin.Context) {
	docs, err := h.docService.List(c.Request.Context())
	if err != nil {
		respondError(c, err)
		return
	}
	respondOK(c, "获取文档列表成功", docs)
}

// Upload 处理文档上传：把 multipart 文件落盘为 <毫秒时间戳>-<原名>，
// 随后同步走摄取流水线。摄取失败时删除已保存的文件。
func (h *DocumentHandler) Upload(c *gin.Context) {
	file, err := c.FormFile("document")
	if err != nil {
		respondError(c, model.NewValidationError("document file is required"))
		return
	}

	if err := os.MkdirAll(h.uploadDir, 0o755); err != nil {
		respondError(c, fmt.Errorf("failed to create upload dir: %w", err))
		return
	}

	originalName := filepath.Base(file.Filename)
	savedPath := filepath.Join(h.uploadDir, fmt.Sprintf("%d-%s", time.Now().UnixMilli(), originalName))
	if err := c.SaveUploadedFile(file, savedPath); err != nil {
		respondError(c, fmt.Errorf("failed to save uploaded file: %w", err))
		return
	}

	doc, err := h.docService.Ingest(c.Request.Context(), savedPath, originalName)
	if err != nil {
		if rmErr := os.Remove(savedPath); rmErr != nil {
			log.Warnf("[DocumentHandler] 摄取失败后清理上传文件失败, Path: %s: %v", savedPath, rmErr)
		}
		respondError(c, err)
		return
	}
	respondOK(c, "文档上传成功", doc)
}

// Delete 处理删除文档的请求。
func (h *DocumentHandler) Delete(c *gin.Context) {
	id := c.Param("id")
	if id == "" {
		respondError(c, model.NewValidationError("document id is required"))
		return
	}
	if err := h.docService.Delete(c.Request.Context(), id); err != nil {
		respondError(c, err)
		return
	}
	respondOK(c, "文档删除成功", nil)
}

// Reindex 处理全量重建索引的请求。
func (h *DocumentHandler) Reindex(c *gin.Context) {
	survivors, err := h.docService.Reindex(c.Request.Context())
	if err != nil {
		respondError(c, err)
		return
	}
	respondOK(c, "索引重建完成", gin.H{
		"documents": survivors,
		"count":     len(survivors),
	})
}

// Cleanup 处理清理孤儿上传文件的请求。
func (h *DocumentHandler) Cleanup(c *gin.Context) {
	removed, err := h.docService.CleanupOrphanedFiles(c.Request.Context())
	if err != nil {
		respondError(c, err)
		return
	}
	respondOK(c, "清理完成", gin.H{
		"removed": removed,
		"count":   len(removed),
	})
}
