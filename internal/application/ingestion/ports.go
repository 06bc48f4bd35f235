package ingestion

import (
	"context"

	"hybrid-rag-api/internal/domain/entity"
)

// Extraction 文档实体抽取结果，实体尚未分配 ID
type Extraction struct {
	Entities      []entity.GraphEntity
	Relationships []entity.GraphRelationship
}

// EntityExtractor 从文档片段抽取实体与关系
type EntityExtractor interface {
	ExtractEntities(ctx context.Context, text string) (*Extraction, error)
}

// TextExtractor 从上传文件中提取纯文本
// 纯文本直接透传，其他格式由实现方负责解析
type TextExtractor interface {
	ExtractText(ctx context.Context, filename string, data []byte) (string, error)
}
