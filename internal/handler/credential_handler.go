package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"chunrag-go/internal/model"
	"chunrag-go/internal/service"
)

// CredentialHandler 负责处理 API key 管理相关的请求。
// 任何响应都只包含每个提供商的 key 数量，绝不回传 key 本身。
type CredentialHandler struct {
	credService service.CredentialService
}

// NewCredentialHandler 创建一个新的 CredentialHandler 实例。
func NewCredentialHandler(credService service.CredentialService) *CredentialHandler {
	return &CredentialHandler{credService: credService}
}

// Counts 返回 provider → key 数量的映射。
func (h *CredentialHandler) Counts(c *gin.Context) {
	respondOK(c, "获取凭证状态成功", h.credService.Counts())
}

// Set 合并传入的凭证集合（provider → key 列表）。
func (h *CredentialHandler) Set(c *gin.Context) {
	var creds map[string][]string
	if err := c.ShouldBindJSON(&creds); err != nil {
		respondError(c, model.NewValidationError("invalid request body: %v", err))
		return
	}
	if err := h.credService.SetCredentials(c.Request.Context(), creds); err != nil {
		respondError(c, err)
		return
	}
	respondOK(c, "凭证更新成功", h.credService.Counts())
}

// Replace 整体替换传入提供商的 key 列表。
func (h *CredentialHandler) Replace(c *gin.Context) {
	var creds map[string][]string
	if err := c.ShouldBindJSON(&creds); err != nil {
		respondError(c, model.NewValidationError("invalid request body: %v", err))
		return
	}
	if len(creds) == 0 {
		respondError(c, model.NewValidationError("no credentials provided"))
		return
	}
	for provider, keys := range creds {
		if err := h.credService.ReplaceCredentials(c.Request.Context(), provider, keys); err != nil {
			respondError(c, err)
			return
		}
	}
	respondOK(c, "凭证替换成功", h.credService.Counts())
}

// ClearProvider 清空某个提供商的全部 key。
func (h *CredentialHandler) ClearProvider(c *gin.Context) {
	provider := c.Param("provider")
	if _, ok := h.credService.Counts()[provider]; !ok {
		c.JSON(http.StatusNotFound, gin.H{"error": "no API key found for provider: " + provider})
		return
	}
	if err := h.credService.ClearProvider(c.Request.Context(), provider); err != nil {
		respondError(c, err)
		return
	}
	respondOK(c, "凭证已清空", h.credService.Counts())
}

// ClearAll 清空全部提供商的 key。
func (h *CredentialHandler) ClearAll(c *gin.Context) {
	if err := h.credService.ClearAll(c.Request.Context()); err != nil {
		respondError(c, err)
		return
	}
	respondOK(c, "全部凭证已清空", h.credService.Counts())
}

type testCredentialRequest struct {
	APIKey string `json:"apiKey"`
}

// Test 对单个 key 做离线格式校验。
func (h *CredentialHandler) Test(c *gin.Context) {
	var req testCredentialRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, model.NewValidationError("invalid request body: %v", err))
		return
	}

	valid, message, err := h.credService.TestCredential(c.Param("provider"), req.APIKey)
	if err != nil {
		respondError(c, err)
		return
	}
	respondOK(c, message, gin.H{"valid": valid})
}
