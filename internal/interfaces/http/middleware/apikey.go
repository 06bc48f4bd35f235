// Package middleware 提供 HTTP 中间件
package middleware

import (
	"crypto/subtle"
	"net/http"

	"github.com/gin-gonic/gin"
)

// APIKeyHeader API Key 请求头
const APIKeyHeader = "X-API-Key"

// APIKeyAuth API Key 鉴权中间件
// 配置的 key 为空时不启用鉴权
func APIKeyAuth(apiKey string) gin.HandlerFunc {
	if apiKey == "" {
		return func(c *gin.Context) {
			c.Next()
		}
	}

	return func(c *gin.Context) {
		provided := c.GetHeader(APIKeyHeader)
		if subtle.ConstantTimeCompare([]byte(provided), []byte(apiKey)) != 1 {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{
				"code":     401,
				"message":  "invalid or missing api key",
				"trace_id": c.GetString("trace_id"),
			})
			return
		}
		c.Next()
	}
}
