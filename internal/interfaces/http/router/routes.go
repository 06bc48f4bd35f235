// Package router 提供 HTTP 路由配置
package router

import (
	"github.com/gin-gonic/gin"

	"hybrid-rag-api/internal/interfaces/http/handler"
)

// RegisterV1Routes 注册 v1 版本路由
func RegisterV1Routes(
	v1 *gin.RouterGroup,
	hybridHandler *handler.HybridHandler,
	documentHandler *handler.DocumentHandler,
) {
	// 混合检索
	hybrid := v1.Group("/hybrid")
	{
		hybrid.POST("/upload-hybrid", hybridHandler.Upload)
		hybrid.POST("/search-hybrid", hybridHandler.Search)
		hybrid.POST("/compare-search", hybridHandler.Compare)
		hybrid.GET("/status", hybridHandler.Status)
	}

	// 文档管理
	documents := v1.Group("/documents")
	{
		documents.GET("", documentHandler.List)
		documents.GET("/:did/chunks", documentHandler.Chunks)
		documents.DELETE("/:did", documentHandler.Delete)
	}
}
