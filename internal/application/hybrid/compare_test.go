package hybrid

import (
	"context"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"hybrid-rag-api/internal/domain/entity"
	"hybrid-rag-api/internal/domain/repository"
)

func TestCompare(t *testing.T) {
	longContent := strings.Repeat("x", 300)
	vector := &fakeVector{hits: []repository.ChunkHit{
		{Chunk: entity.Chunk{DocumentID: "doc1", Filename: "a.txt", Index: 0, Content: longContent}, Similarity: 0.9},
		{Chunk: entity.Chunk{DocumentID: "doc2", Filename: "b.txt", Index: 1, Content: "short"}, Similarity: 0.6},
		{Chunk: entity.Chunk{DocumentID: "doc3", Filename: "c.txt", Index: 2, Content: "other"}, Similarity: 0.5},
		{Chunk: entity.Chunk{DocumentID: "doc4", Filename: "d.txt", Index: 3, Content: "more"}, Similarity: 0.4},
	}}
	graph := &fakeGraph{
		related: []entity.RelatedEntity{
			{Entity: entity.GraphEntity{Name: "Alice"}, Distance: 1},
		},
		relatedDocs: []entity.RelatedDocument{{DocumentID: "doc2"}},
	}
	extractor := &fakeQueryExtractor{names: []string{"Alice"}}
	e := NewEngine(&fakeEmbedder{}, vector, graph, extractor, nil, Options{})

	cmp, err := e.Compare(context.Background(), "who is Alice", 4)
	require.NoError(t, err)

	assert.Equal(t, "who is Alice", cmp.Query)

	// 纯向量侧：无图谱上下文，得分 = 相似度
	assert.Equal(t, 4, cmp.VectorOnly.Count)
	assert.Zero(t, cmp.VectorOnly.ContextEnriched)
	assert.InDelta(t, (0.9+0.6+0.5+0.4)/4, cmp.VectorOnly.AverageScore, 1e-9)

	// 混合侧：所有结果带上下文，doc2 为图谱关联
	assert.Equal(t, 4, cmp.Hybrid.Count)
	assert.Equal(t, 4, cmp.Hybrid.ContextEnriched)
	assert.Greater(t, cmp.Hybrid.AverageScore, 0.0)

	// 预览只取前三条，超长内容截断到 200 字符
	require.Len(t, cmp.VectorOnly.TopResults, 3)
	assert.Equal(t, "a.txt", cmp.VectorOnly.TopResults[0].Filename)
	assert.Len(t, cmp.VectorOnly.TopResults[0].Preview, 203)
	assert.True(t, strings.HasSuffix(cmp.VectorOnly.TopResults[0].Preview, "..."))
	assert.Equal(t, "short", cmp.VectorOnly.TopResults[1].Preview)
}

func TestCompareEmptyQuery(t *testing.T) {
	e := NewEngine(&fakeEmbedder{}, &fakeVector{}, &fakeGraph{}, nil, nil, Options{})
	_, err := e.Compare(context.Background(), "", 5)
	assert.ErrorIs(t, err, ErrEmptyQuery)
}

func TestCompareNoResults(t *testing.T) {
	e := NewEngine(&fakeEmbedder{}, &fakeVector{}, &fakeGraph{}, &fakeQueryExtractor{}, nil, Options{})
	cmp, err := e.Compare(context.Background(), "nothing indexed", 5)
	require.NoError(t, err)
	assert.Zero(t, cmp.VectorOnly.Count)
	assert.Zero(t, cmp.VectorOnly.AverageScore)
	assert.Empty(t, cmp.Hybrid.TopResults)
}
