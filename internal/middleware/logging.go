// Package middleware 存放 Gin 框架的中间件。
package middleware

import (
	"bytes"
	"io"
	"strings"
	"time"

	"github.com/gin-gonic/gin"

	"chunrag-go/pkg/log"
)

// bodyLogWriter 用于捕获响应体
type bodyLogWriter struct {
	gin.ResponseWriter
	body *bytes.Buffer
}

// Write 实现了 io.Writer 接口，将响应写入 gin.ResponseWriter 和一个内部的 buffer
func (w bodyLogWriter) Write(b []byte) (int, error) {
	w.body.Write(b)
	return w.ResponseWriter.Write(b)
}

// sensitivePath 判断该路径的请求/响应体是否可能携带 API key。
// 凭证端点的报文一律不进日志，上传接口的二进制体也跳过。
func sensitivePath(path string) bool {
	return strings.HasPrefix(path, "/api/keys") || path == "/api/upload"
}

// RequestLogger 是一个 Gin 中间件，用于记录详细的请求和响应日志。
func RequestLogger() gin.HandlerFunc {
	return func(c *gin.Context) {
		startTime := time.Now()
		path := c.Request.URL.Path
		logBodies := !sensitivePath(path)

		// 读取并重新缓存请求体
		var requestBody []byte
		if logBodies && c.Request.Body != nil {
			requestBody, _ = io.ReadAll(c.Request.Body)
			c.Request.Body = io.NopCloser(bytes.NewBuffer(requestBody))
		}

		// 使用自定义的 ResponseWriter 捕获响应
		blw := &bodyLogWriter{body: bytes.NewBufferString(""), ResponseWriter: c.Writer}
		if logBodies {
			c.Writer = blw
		}

		c.Next()

		latency := time.Since(startTime)
		statusCode := c.Writer.Status()
		clientIP := c.ClientIP()
		method := c.Request.Method

		fields := []interface{}{
			"statusCode", statusCode,
			"latency", latency.String(),
			"clientIP", clientIP,
			"method", method,
			"path", path,
		}
		if logBodies {
			fields = append(fields,
				"requestBody", string(requestBody),
				"responseBody", blw.body.String(),
			)
		}
		log.Infow("HTTP Request Log", fields...)
	}
}
