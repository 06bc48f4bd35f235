// Package repository 定义数据访问层接口
package repository

import (
	"context"

	"hybrid-rag-api/internal/domain/entity"
)

// GraphRepository 知识图谱存储接口
type GraphRepository interface {
	// UpsertDocument 写入/更新文档节点
	UpsertDocument(ctx context.Context, doc entity.Document) error
	// UpsertEntities 批量写入/更新实体节点
	UpsertEntities(ctx context.Context, entities []entity.GraphEntity) error
	// UpsertRelationships 批量写入/更新关系边
	UpsertRelationships(ctx context.Context, relationships []entity.GraphRelationship) error
	// LinkDocumentEntities 建立文档到实体的提及关系
	LinkDocumentEntities(ctx context.Context, documentID string, entityIDs []string) error
	// RelatedContext 从种子实体名出发做受限深度遍历
	// 结果按距离、名称排序并截断
	RelatedContext(ctx context.Context, names []string, maxDepth int) ([]entity.RelatedEntity, error)
	// RelatedDocuments 返回提及种子实体的文档
	RelatedDocuments(ctx context.Context, names []string) ([]entity.RelatedDocument, error)
	// DeleteDocument 删除文档节点及其提及关系，保留共享实体
	DeleteDocument(ctx context.Context, documentID string) error
	// Ping 检查图库可用性
	Ping(ctx context.Context) error
}
