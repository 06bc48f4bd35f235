// Package dto 提供 HTTP 层数据传输对象
package dto

// Document 已摄取文档
type Document struct {
	ID         string `json:"id"`
	Filename   string `json:"filename"`
	ChunkCount int    `json:"chunk_count"`
}

// DocumentList 文档列表响应
type DocumentList struct {
	Documents []Document `json:"documents"`
	Count     int        `json:"count"`
}

// Chunk 文档分块
type Chunk struct {
	ID         string            `json:"id"`
	DocumentID string            `json:"document_id"`
	Filename   string            `json:"filename"`
	ChunkIndex int               `json:"chunk_index"`
	Content    string            `json:"content"`
	Metadata   map[string]string `json:"metadata,omitempty"`
}

// ChunkList 分块列表响应
type ChunkList struct {
	DocumentID string  `json:"document_id"`
	Chunks     []Chunk `json:"chunks"`
	Count      int     `json:"count"`
}
