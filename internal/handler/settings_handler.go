package handler

import (
	"github.com/gin-gonic/gin"

	"chunrag-go/internal/model"
	"chunrag-go/internal/service"
	"chunrag-go/pkg/llm"
)

// SettingsHandler 负责模型目录与采样参数相关的请求。
type SettingsHandler struct {
	settingsService service.SettingsService
}

// NewSettingsHandler 创建一个新的 SettingsHandler 实例。
func NewSettingsHandler(settingsService service.SettingsService) *SettingsHandler {
	return &SettingsHandler{settingsService: settingsService}
}

// Models 返回按提供商分组的静态模型目录。
func (h *SettingsHandler) Models(c *gin.Context) {
	respondOK(c, "获取模型目录成功", llm.Catalog())
}

// GetParameters 返回当前生效的采样参数默认值。
func (h *SettingsHandler) GetParameters(c *gin.Context) {
	params, err := h.settingsService.Get(c.Request.Context())
	if err != nil {
		respondError(c, err)
		return
	}
	respondOK(c, "获取采样参数成功", params)
}

// UpdateParameters 部分更新采样参数默认值并写穿到存储。
func (h *SettingsHandler) UpdateParameters(c *gin.Context) {
	var override model.SamplingParams
	if err := c.ShouldBindJSON(&override); err != nil {
		respondError(c, model.NewValidationError("invalid request body: %v", err))
		return
	}

	updated, err := h.settingsService.Update(c.Request.Context(), &override)
	if err != nil {
		respondError(c, err)
		return
	}
	respondOK(c, "采样参数更新成功", updated)
}
