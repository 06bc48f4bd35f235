// Package handler 提供 HTTP 请求处理器
package handler

import (
	"context"

	"github.com/gin-gonic/gin"

	"hybrid-rag-api/internal/domain/repository"
	"hybrid-rag-api/internal/interfaces/http/dto"
	"hybrid-rag-api/pkg/errors"
	"hybrid-rag-api/pkg/logger"
)

// DocumentHandler 文档管理处理器
type DocumentHandler struct {
	vector repository.VectorRepository
	graph  repository.GraphRepository
	txMgr  repository.Transactor
}

// NewDocumentHandler 创建文档管理处理器
func NewDocumentHandler(vector repository.VectorRepository, graph repository.GraphRepository, txMgr repository.Transactor) *DocumentHandler {
	return &DocumentHandler{
		vector: vector,
		graph:  graph,
		txMgr:  txMgr,
	}
}

// List 获取已摄取文档列表
// @Summary 获取文档列表
// @Description 从向量库聚合已摄取文档，支持分页
// @Tags Documents
// @Produce json
// @Param page query int false "页码"
// @Param page_size query int false "每页数量"
// @Success 200 {object} dto.Response[dto.DocumentList]
// @Failure 500 {object} dto.ErrorResponse
// @Router /v1/documents [get]
func (h *DocumentHandler) List(c *gin.Context) {
	ctx := c.Request.Context()
	page := dto.BindPage(c)

	docs, err := h.vector.ListDocuments(ctx)
	if err != nil {
		logger.Error(ctx, "failed to list documents", err)
		dto.InternalError(c, "failed to list documents")
		return
	}

	total := len(docs)
	start := page.Offset()
	if start > total {
		start = total
	}
	end := start + page.Limit()
	if end > total {
		end = total
	}

	resp := dto.DocumentList{Count: total}
	for _, d := range docs[start:end] {
		resp.Documents = append(resp.Documents, dto.Document{
			ID:         d.ID,
			Filename:   d.Filename,
			ChunkCount: d.ChunkCount,
		})
	}
	dto.SuccessWithPage(c, resp, dto.NewPageMeta(page.Page, page.PageSize, total))
}

// Chunks 获取文档分块
// @Summary 获取文档分块
// @Description 返回指定文档的全部分块，按顺序排列
// @Tags Documents
// @Produce json
// @Param did path string true "文档 ID"
// @Success 200 {object} dto.Response[dto.ChunkList]
// @Failure 404 {object} dto.ErrorResponse
// @Router /v1/documents/{did}/chunks [get]
func (h *DocumentHandler) Chunks(c *gin.Context) {
	ctx := c.Request.Context()
	documentID := dto.BindDocumentID(c)

	chunks, err := h.vector.ListChunks(ctx, documentID)
	if err != nil {
		logger.Error(ctx, "failed to list chunks", err, "document_id", documentID)
		dto.InternalError(c, "failed to list chunks")
		return
	}
	if len(chunks) == 0 {
		respondError(c, errors.ErrDocumentNotFound)
		return
	}

	resp := dto.ChunkList{DocumentID: documentID, Count: len(chunks)}
	for _, ch := range chunks {
		resp.Chunks = append(resp.Chunks, dto.Chunk{
			ID:         ch.ID,
			DocumentID: ch.DocumentID,
			Filename:   ch.Filename,
			ChunkIndex: ch.Index,
			Content:    ch.Content,
			Metadata:   ch.Metadata,
		})
	}
	dto.Success(c, resp)
}

// Delete 删除文档
// 级联删除向量分块与图谱文档节点，实体与关系不级联、保留为孤儿节点
// @Summary 删除文档
// @Description 删除文档的向量分块与图谱数据
// @Tags Documents
// @Produce json
// @Param did path string true "文档 ID"
// @Success 204
// @Failure 500 {object} dto.ErrorResponse
// @Router /v1/documents/{did} [delete]
func (h *DocumentHandler) Delete(c *gin.Context) {
	ctx := c.Request.Context()
	documentID := dto.BindDocumentID(c)

	if err := h.vector.DeleteByDocument(ctx, documentID); err != nil {
		logger.Error(ctx, "failed to delete document chunks", err, "document_id", documentID)
		dto.InternalError(c, "failed to delete document")
		return
	}

	// 图谱侧删除走事务，保证节点、边与提及链接一并移除
	err := h.txMgr.WithTransaction(ctx, func(txCtx context.Context) error {
		return h.graph.DeleteDocument(txCtx, documentID)
	})
	if err != nil {
		logger.Error(ctx, "failed to delete document graph data", err, "document_id", documentID)
		dto.InternalError(c, "document chunks deleted but graph cleanup failed")
		return
	}

	dto.NoContent(c)
}
