package handler

import (
	"github.com/gin-gonic/gin"

	"chunrag-go/internal/model"
	"chunrag-go/internal/service"
)

// ChatHandler 负责处理聊天请求。
type ChatHandler struct {
	chatService service.ChatService
}

// NewChatHandler 创建一个新的 ChatHandler 实例。
func NewChatHandler(chatService service.ChatService) *ChatHandler {
	return &ChatHandler{chatService: chatService}
}

// Chat 处理一轮问答请求。
func (h *ChatHandler) Chat(c *gin.Context) {
	var req model.ChatRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, model.NewValidationError("invalid request body: %v", err))
		return
	}

	resp, err := h.chatService.Chat(c.Request.Context(), req)
	if err != nil {
		respondError(c, err)
		return
	}
	respondOK(c, "聊天成功", resp)
}
