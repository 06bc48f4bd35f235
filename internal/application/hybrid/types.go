// Package hybrid 实现向量检索与知识图谱融合的混合检索引擎
package hybrid

import "errors"

// Provenance 结果来源
type Provenance string

const (
	ProvenanceVector Provenance = "vector"
	ProvenanceGraph  Provenance = "graph"
	ProvenanceHybrid Provenance = "hybrid"
)

// 检索策略标签
const (
	StrategyVector   = "vector"
	StrategyHybrid   = "hybrid"
	StrategyFallback = "fallback"
)

// ErrEmptyQuery 查询为空
var ErrEmptyQuery = errors.New("query is required")

// Strategy 混合检索权重策略
type Strategy struct {
	// VectorWeight 向量相似度权重 (0-1)
	VectorWeight float64
	// GraphWeight 图谱关联加成 (0-1)
	GraphWeight float64
	// EnableGraphExpansion 是否启用图谱扩展
	EnableGraphExpansion bool
	// MaxGraphDepth 图遍历最大深度
	MaxGraphDepth int
}

// DefaultStrategy 混合检索默认策略
func DefaultStrategy() Strategy {
	return Strategy{
		VectorWeight:         0.7,
		GraphWeight:          0.3,
		EnableGraphExpansion: true,
		MaxGraphDepth:        2,
	}
}

// VectorOnlyStrategy 纯向量检索策略
func VectorOnlyStrategy() Strategy {
	return Strategy{
		VectorWeight:         1.0,
		GraphWeight:          0.0,
		EnableGraphExpansion: false,
		MaxGraphDepth:        0,
	}
}

func (s Strategy) normalized() Strategy {
	if s.VectorWeight < 0 {
		s.VectorWeight = 0
	}
	if s.VectorWeight > 1 {
		s.VectorWeight = 1
	}
	if s.GraphWeight < 0 {
		s.GraphWeight = 0
	}
	if s.GraphWeight > 1 {
		s.GraphWeight = 1
	}
	if s.EnableGraphExpansion && s.MaxGraphDepth <= 0 {
		s.MaxGraphDepth = 2
	}
	return s
}

// SearchInput 检索请求
type SearchInput struct {
	Query    string
	Limit    int
	Strategy Strategy
}

// GraphContext 命中结果附带的图谱上下文
type GraphContext struct {
	RelatedEntities   []string   `json:"related_entities"`
	RelationshipPaths [][]string `json:"relationship_paths,omitempty"`
}

// SearchResult 单条检索结果
// Similarity 为原始向量相似度，Score 为加权后的最终得分
type SearchResult struct {
	DocumentID   string        `json:"document_id"`
	Filename     string        `json:"filename"`
	ChunkIndex   int           `json:"chunk_index"`
	Content      string        `json:"content"`
	Similarity   float64       `json:"similarity"`
	Score        float64       `json:"score"`
	Provenance   Provenance    `json:"provenance"`
	GraphContext *GraphContext `json:"graph_context,omitempty"`
}

// SearchOutput 检索响应
type SearchOutput struct {
	Results       []SearchResult `json:"results"`
	QueryEntities []string       `json:"query_entities,omitempty"`
	Strategy      string         `json:"strategy"`
}

// Truncate 按 rune 截断文本，超长时追加省略标记
func Truncate(s string, max int) string {
	if max <= 0 {
		return s
	}
	runes := []rune(s)
	if len(runes) <= max {
		return s
	}
	return string(runes[:max]) + "..."
}
