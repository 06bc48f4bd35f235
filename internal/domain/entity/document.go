// Package entity 定义领域实体
package entity

import (
	"time"
)

// Document 已摄取文档
type Document struct {
	ID         string    `json:"id"`
	Filename   string    `json:"filename"`
	TextLength int       `json:"text_length"`
	ChunkCount int       `json:"chunk_count"`
	CreatedAt  time.Time `json:"created_at"`
}

// Chunk 文档分块
type Chunk struct {
	ID         string            `json:"id"`
	DocumentID string            `json:"document_id"`
	Filename   string            `json:"filename"`
	Index      int               `json:"chunk_index"`
	Content    string            `json:"content"`
	Metadata   map[string]string `json:"metadata,omitempty"`
}
