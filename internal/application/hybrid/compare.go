package hybrid

import (
	"context"
)

const (
	previewLength   = 200
	topPreviewCount = 3
)

// ResultPreview 对比结果中的单条摘要
type ResultPreview struct {
	Filename   string     `json:"filename"`
	ChunkIndex int        `json:"chunk_index"`
	Provenance Provenance `json:"provenance"`
	Score      float64    `json:"score"`
	Preview    string     `json:"preview"`
}

// ComparisonSide 一种策略的汇总
type ComparisonSide struct {
	Count           int             `json:"count"`
	AverageScore    float64         `json:"average_score"`
	ContextEnriched int             `json:"context_enriched"`
	TopResults      []ResultPreview `json:"top_results"`
}

// Comparison 纯向量与混合检索的并排对比
type Comparison struct {
	Query      string         `json:"query"`
	VectorOnly ComparisonSide `json:"vector_only"`
	Hybrid     ComparisonSide `json:"hybrid"`
}

// Compare 用两种预设策略执行同一查询，产出只读对比
func (e *Engine) Compare(ctx context.Context, query string, limit int) (*Comparison, error) {
	vectorOut, err := e.Search(ctx, SearchInput{Query: query, Limit: limit, Strategy: VectorOnlyStrategy()})
	if err != nil {
		return nil, err
	}
	hybridOut, err := e.Search(ctx, SearchInput{Query: query, Limit: limit, Strategy: DefaultStrategy()})
	if err != nil {
		return nil, err
	}

	return &Comparison{
		Query:      query,
		VectorOnly: summarize(vectorOut),
		Hybrid:     summarize(hybridOut),
	}, nil
}

func summarize(out *SearchOutput) ComparisonSide {
	side := ComparisonSide{Count: len(out.Results)}

	var sum float64
	for _, r := range out.Results {
		sum += r.Score
		if r.GraphContext != nil && len(r.GraphContext.RelatedEntities) > 0 {
			side.ContextEnriched++
		}
	}
	if len(out.Results) > 0 {
		side.AverageScore = sum / float64(len(out.Results))
	}

	for i, r := range out.Results {
		if i >= topPreviewCount {
			break
		}
		side.TopResults = append(side.TopResults, ResultPreview{
			Filename:   r.Filename,
			ChunkIndex: r.ChunkIndex,
			Provenance: r.Provenance,
			Score:      r.Score,
			Preview:    Truncate(r.Content, previewLength),
		})
	}
	return side
}
