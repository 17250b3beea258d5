// Package handler 包含了处理 HTTP 请求的控制器逻辑。
package handler

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"chunrag-go/internal/model"
	"chunrag-go/pkg/llm"
	"chunrag-go/pkg/log"
)

// respondOK 按统一信封返回成功响应。
func respondOK(c *gin.Context, message string, data interface{}) {
	c.JSON(http.StatusOK, gin.H{
		"code":    http.StatusOK,
		"message": message,
		"data":    data,
	})
}

// respondError 把业务错误映射为 HTTP 状态码。
// 网关错误只携带分类后的原因，这里原样透出即可，不会泄露密钥。
func respondError(c *gin.Context, err error) {
	var (
		ve          *model.ValidationError
		unsupported *model.UnsupportedFormatError
		gatewayErr  *llm.GatewayError
		malformed   *llm.MalformedResponseError
	)

	switch {
	case errors.As(err, &ve):
		c.JSON(http.StatusBadRequest, gin.H{"error": ve.Error()})
	case errors.As(err, &unsupported):
		c.JSON(http.StatusBadRequest, gin.H{"error": unsupported.Error()})
	case errors.Is(err, model.ErrDocumentNotFound):
		c.JSON(http.StatusNotFound, gin.H{"error": err.Error()})
	case errors.Is(err, model.ErrEmbeddingUnavailable):
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
	case errors.As(err, &gatewayErr), errors.As(err, &malformed):
		c.JSON(http.StatusBadGateway, gin.H{"error": err.Error()})
	default:
		log.Errorf("[Handler] 未分类错误: %v", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
	}
}
