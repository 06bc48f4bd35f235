// Package repository 定义数据访问层接口
package repository

import (
	"context"

	"hybrid-rag-api/internal/domain/entity"
)

// ChunkInsert 待写入向量库的分块与其向量
type ChunkInsert struct {
	Chunk  entity.Chunk
	Vector []float32
}

// ChunkHit 向量检索命中，Similarity 为余弦相似度 (1 - distance)
type ChunkHit struct {
	Chunk      entity.Chunk
	Similarity float64
}

// VectorRepository 向量存储接口
type VectorRepository interface {
	// InsertChunks 批量写入分块向量
	InsertChunks(ctx context.Context, chunks []ChunkInsert) error
	// Search 按向量相似度检索 topK 个分块
	Search(ctx context.Context, vector []float32, topK int) ([]ChunkHit, error)
	// DeleteByDocument 删除文档的全部分块
	DeleteByDocument(ctx context.Context, documentID string) error
	// ListDocuments 聚合分块元数据得到文档列表
	ListDocuments(ctx context.Context) ([]entity.Document, error)
	// ListChunks 返回文档的全部分块（按 chunk_index 升序）
	ListChunks(ctx context.Context, documentID string) ([]entity.Chunk, error)
	// HealthCheck 检查向量库可用性
	HealthCheck(ctx context.Context) error
}
