// Package dto 提供 HTTP 层数据传输对象
package dto

// SearchRequest 混合检索请求
type SearchRequest struct {
	Query                string   `json:"query" binding:"required"`
	Limit                int      `json:"limit" binding:"omitempty,min=1,max=50"`
	VectorWeight         *float64 `json:"vector_weight" binding:"omitempty,min=0,max=1"`
	GraphWeight          *float64 `json:"graph_weight" binding:"omitempty,min=0,max=1"`
	EnableGraphExpansion *bool    `json:"enable_graph_expansion"`
	MaxGraphDepth        int      `json:"max_graph_depth" binding:"omitempty,min=1,max=5"`
}

// CompareRequest 检索对比请求
type CompareRequest struct {
	Query string `json:"query" binding:"required"`
	Limit int    `json:"limit" binding:"omitempty,min=1,max=50"`
}

// GraphContext 结果附带的图谱上下文
type GraphContext struct {
	RelatedEntities   []string   `json:"related_entities"`
	RelationshipPaths [][]string `json:"relationship_paths,omitempty"`
}

// SearchResult 单条检索结果
type SearchResult struct {
	DocumentID   string        `json:"document_id"`
	Filename     string        `json:"filename"`
	ChunkIndex   int           `json:"chunk_index"`
	Content      string        `json:"content"`
	Similarity   float64       `json:"similarity"`
	Score        float64       `json:"score"`
	Provenance   string        `json:"provenance"`
	GraphContext *GraphContext `json:"graph_context,omitempty"`
}

// SearchResponse 混合检索响应
type SearchResponse struct {
	Query         string         `json:"query"`
	Results       []SearchResult `json:"results"`
	Count         int            `json:"count"`
	QueryEntities []string       `json:"query_entities,omitempty"`
	Strategy      string         `json:"strategy"`
}

// UploadResponse 文档摄取响应
type UploadResponse struct {
	DocumentID        string   `json:"document_id"`
	Filename          string   `json:"filename"`
	TextLength        int      `json:"text_length"`
	ChunkCount        int      `json:"chunk_count"`
	EntityCount       int      `json:"entity_count"`
	RelationshipCount int      `json:"relationship_count"`
	Features          []string `json:"features"`
	Warning           string   `json:"warning,omitempty"`
}

// StatusResponse 检索能力响应
type StatusResponse struct {
	VectorSearch bool `json:"vector_search"`
	GraphSearch  bool `json:"graph_search"`
	HybridSearch bool `json:"hybrid_search"`
}
