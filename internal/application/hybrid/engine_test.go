package hybrid

import (
	"context"
	"errors"
	"testing"

	"github.com/cloudwego/eino/components/embedding"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"hybrid-rag-api/internal/domain/entity"
	"hybrid-rag-api/internal/domain/repository"
)

type fakeEmbedder struct {
	err error
}

func (f *fakeEmbedder) EmbedStrings(_ context.Context, texts []string, _ ...embedding.Option) ([][]float64, error) {
	if f.err != nil {
		return nil, f.err
	}
	out := make([][]float64, len(texts))
	for i := range texts {
		out[i] = []float64{0.1, 0.2, 0.3}
	}
	return out, nil
}

type fakeVector struct {
	hits      []repository.ChunkHit
	err       error
	topKCalls []int
}

func (f *fakeVector) Search(_ context.Context, _ []float32, topK int) ([]repository.ChunkHit, error) {
	f.topKCalls = append(f.topKCalls, topK)
	if f.err != nil {
		return nil, f.err
	}
	if len(f.hits) > topK {
		return f.hits[:topK], nil
	}
	return f.hits, nil
}

func (f *fakeVector) InsertChunks(context.Context, []repository.ChunkInsert) error { return nil }
func (f *fakeVector) DeleteByDocument(context.Context, string) error               { return nil }
func (f *fakeVector) ListDocuments(context.Context) ([]entity.Document, error)     { return nil, nil }
func (f *fakeVector) ListChunks(context.Context, string) ([]entity.Chunk, error)   { return nil, nil }
func (f *fakeVector) HealthCheck(context.Context) error                            { return nil }

type fakeGraph struct {
	related     []entity.RelatedEntity
	relatedDocs []entity.RelatedDocument
	contextErr  error
	docsErr     error
	pingErr     error

	contextCalls int
	gotNames     []string
	gotDepth     int
}

func (f *fakeGraph) RelatedContext(_ context.Context, names []string, depth int) ([]entity.RelatedEntity, error) {
	f.contextCalls++
	f.gotNames = names
	f.gotDepth = depth
	if f.contextErr != nil {
		return nil, f.contextErr
	}
	return f.related, nil
}

func (f *fakeGraph) RelatedDocuments(_ context.Context, _ []string) ([]entity.RelatedDocument, error) {
	if f.docsErr != nil {
		return nil, f.docsErr
	}
	return f.relatedDocs, nil
}

func (f *fakeGraph) UpsertDocument(context.Context, entity.Document) error            { return nil }
func (f *fakeGraph) UpsertEntities(context.Context, []entity.GraphEntity) error       { return nil }
func (f *fakeGraph) UpsertRelationships(context.Context, []entity.GraphRelationship) error {
	return nil
}
func (f *fakeGraph) LinkDocumentEntities(context.Context, string, []string) error { return nil }
func (f *fakeGraph) DeleteDocument(context.Context, string) error                 { return nil }
func (f *fakeGraph) Ping(context.Context) error                                   { return f.pingErr }

type fakeQueryExtractor struct {
	names []string
	err   error
	calls int
}

func (f *fakeQueryExtractor) ExtractQueryEntities(context.Context, string) ([]string, error) {
	f.calls++
	if f.err != nil {
		return nil, f.err
	}
	return f.names, nil
}

func hit(docID string, index int, sim float64) repository.ChunkHit {
	return repository.ChunkHit{
		Chunk: entity.Chunk{
			ID:         docID + "_chunk_0",
			DocumentID: docID,
			Filename:   docID + ".txt",
			Index:      index,
			Content:    "content of " + docID,
		},
		Similarity: sim,
	}
}

func TestSearchVectorOnlyStrategy(t *testing.T) {
	vector := &fakeVector{hits: []repository.ChunkHit{
		hit("doc1", 0, 0.9),
		hit("doc2", 1, 0.5),
	}}
	extractor := &fakeQueryExtractor{names: []string{"should not be used"}}
	e := NewEngine(&fakeEmbedder{}, vector, &fakeGraph{}, extractor, nil, Options{})

	out, err := e.Search(context.Background(), SearchInput{
		Query:    "what is doc1",
		Limit:    2,
		Strategy: VectorOnlyStrategy(),
	})
	require.NoError(t, err)

	assert.Equal(t, StrategyVector, out.Strategy)
	assert.Zero(t, extractor.calls)
	require.Len(t, out.Results, 2)
	assert.Equal(t, ProvenanceVector, out.Results[0].Provenance)
	assert.InDelta(t, 0.9, out.Results[0].Score, 1e-9)
	assert.Nil(t, out.Results[0].GraphContext)
}

func TestSearchHybridScoring(t *testing.T) {
	vector := &fakeVector{hits: []repository.ChunkHit{
		hit("doc1", 0, 0.9),
		hit("doc2", 0, 0.5),
		hit("doc3", 0, 0.4),
	}}
	graph := &fakeGraph{
		related: []entity.RelatedEntity{
			{Entity: entity.GraphEntity{Name: "Alice"}, Distance: 1, Path: []string{"Alice"}},
			{Entity: entity.GraphEntity{Name: "Acme"}, Distance: 2, Path: []string{"Alice", "Acme"}},
			{Entity: entity.GraphEntity{Name: "远端"}, Distance: 3, Path: []string{"Alice", "Acme", "远端"}},
		},
		relatedDocs: []entity.RelatedDocument{{DocumentID: "doc2", SharedEntities: 1}},
	}
	extractor := &fakeQueryExtractor{names: []string{"Alice"}}
	e := NewEngine(&fakeEmbedder{}, vector, graph, extractor, nil, Options{})

	out, err := e.Search(context.Background(), SearchInput{
		Query:    "who is Alice",
		Limit:    2,
		Strategy: DefaultStrategy(),
	})
	require.NoError(t, err)

	assert.Equal(t, StrategyHybrid, out.Strategy)
	assert.Equal(t, []string{"Alice"}, out.QueryEntities)
	assert.Equal(t, 2, graph.gotDepth)
	require.Len(t, out.Results, 2)

	// doc2: 0.5*0.7 + 0.3 (图谱关联) + 0.2 (2 个上下文实体) = 0.85
	// doc1: 0.9*0.7 + 0.2 = 0.83
	assert.Equal(t, "doc2", out.Results[0].DocumentID)
	assert.Equal(t, ProvenanceHybrid, out.Results[0].Provenance)
	assert.InDelta(t, 0.85, out.Results[0].Score, 1e-9)
	assert.InDelta(t, 0.5, out.Results[0].Similarity, 1e-9)

	assert.Equal(t, "doc1", out.Results[1].DocumentID)
	assert.Equal(t, ProvenanceVector, out.Results[1].Provenance)
	assert.InDelta(t, 0.83, out.Results[1].Score, 1e-9)

	// 距离 >2 的实体不进入上下文名单，但路径保留
	require.NotNil(t, out.Results[0].GraphContext)
	assert.Equal(t, []string{"Alice", "Acme"}, out.Results[0].GraphContext.RelatedEntities)
	assert.Len(t, out.Results[0].GraphContext.RelationshipPaths, 3)
}

func TestSearchGraphContextIsolatedPerResult(t *testing.T) {
	vector := &fakeVector{hits: []repository.ChunkHit{
		hit("doc1", 0, 0.9),
		hit("doc2", 0, 0.5),
	}}
	graph := &fakeGraph{
		related: []entity.RelatedEntity{
			{Entity: entity.GraphEntity{Name: "Alice"}, Distance: 1, Path: []string{"Alice"}},
			{Entity: entity.GraphEntity{Name: "Acme"}, Distance: 2, Path: []string{"Alice", "Acme"}},
		},
	}
	extractor := &fakeQueryExtractor{names: []string{"Alice"}}
	e := NewEngine(&fakeEmbedder{}, vector, graph, extractor, nil, Options{})

	out, err := e.Search(context.Background(), SearchInput{
		Query:    "who is Alice",
		Limit:    2,
		Strategy: DefaultStrategy(),
	})
	require.NoError(t, err)
	require.Len(t, out.Results, 2)
	require.NotNil(t, out.Results[0].GraphContext)
	require.NotNil(t, out.Results[1].GraphContext)

	// 修改一个结果的上下文不影响其他结果
	out.Results[0].GraphContext.RelatedEntities[0] = "mutated"
	out.Results[0].GraphContext.RelationshipPaths[1][0] = "mutated"

	assert.Equal(t, "Alice", out.Results[1].GraphContext.RelatedEntities[0])
	assert.Equal(t, "Alice", out.Results[1].GraphContext.RelationshipPaths[1][0])
}

func TestSearchOverfetch(t *testing.T) {
	vector := &fakeVector{}
	e := NewEngine(&fakeEmbedder{}, vector, &fakeGraph{}, nil, nil, Options{})

	_, err := e.Search(context.Background(), SearchInput{
		Query:    "q",
		Limit:    5,
		Strategy: DefaultStrategy(),
	})
	require.NoError(t, err)
	require.Len(t, vector.topKCalls, 1)
	// ceil(5 * 1.5) = 8
	assert.Equal(t, 8, vector.topKCalls[0])
}

func TestSearchFallbackOnGraphFailure(t *testing.T) {
	vector := &fakeVector{hits: []repository.ChunkHit{
		hit("doc1", 0, 0.9),
		hit("doc2", 0, 0.5),
	}}
	graph := &fakeGraph{contextErr: errors.New("graph down")}
	extractor := &fakeQueryExtractor{names: []string{"Alice"}}
	e := NewEngine(&fakeEmbedder{}, vector, graph, extractor, nil, Options{})

	out, err := e.Search(context.Background(), SearchInput{
		Query:    "who is Alice",
		Limit:    2,
		Strategy: DefaultStrategy(),
	})
	require.NoError(t, err)

	assert.Equal(t, StrategyFallback, out.Strategy)
	require.Len(t, out.Results, 2)
	// 降级结果得分即原始相似度
	assert.InDelta(t, out.Results[0].Similarity, out.Results[0].Score, 1e-9)
	assert.Equal(t, ProvenanceVector, out.Results[0].Provenance)
	// 第一次过采样 + 降级检索
	require.Len(t, vector.topKCalls, 2)
	assert.Equal(t, 3, vector.topKCalls[0])
	assert.Equal(t, 2, vector.topKCalls[1])
}

func TestSearchExtractionFailureDegradesToVector(t *testing.T) {
	vector := &fakeVector{hits: []repository.ChunkHit{hit("doc1", 0, 0.8)}}
	graph := &fakeGraph{}
	extractor := &fakeQueryExtractor{err: errors.New("llm timeout")}
	e := NewEngine(&fakeEmbedder{}, vector, graph, extractor, nil, Options{})

	out, err := e.Search(context.Background(), SearchInput{
		Query:    "q",
		Limit:    5,
		Strategy: DefaultStrategy(),
	})
	require.NoError(t, err)
	assert.Equal(t, StrategyVector, out.Strategy)
	assert.Zero(t, graph.contextCalls)
}

func TestSearchEmptyQuery(t *testing.T) {
	e := NewEngine(&fakeEmbedder{}, &fakeVector{}, &fakeGraph{}, nil, nil, Options{})
	_, err := e.Search(context.Background(), SearchInput{Query: "   "})
	assert.ErrorIs(t, err, ErrEmptyQuery)
}

func TestSearchEmbeddingFailure(t *testing.T) {
	e := NewEngine(&fakeEmbedder{err: errors.New("quota exceeded")}, &fakeVector{}, &fakeGraph{}, nil, nil, Options{})
	_, err := e.Search(context.Background(), SearchInput{Query: "q"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to embed query")
}

func TestSearchFallbackAlsoFails(t *testing.T) {
	vector := &fakeVector{err: errors.New("milvus down")}
	e := NewEngine(&fakeEmbedder{}, vector, &fakeGraph{}, nil, nil, Options{})
	_, err := e.Search(context.Background(), SearchInput{Query: "q", Strategy: DefaultStrategy()})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "fallback vector search failed")
}

func TestScoreAndRankStableOnTies(t *testing.T) {
	results := []SearchResult{
		{DocumentID: "a", Similarity: 0.5, Provenance: ProvenanceVector},
		{DocumentID: "b", Similarity: 0.5, Provenance: ProvenanceVector},
		{DocumentID: "c", Similarity: 0.5, Provenance: ProvenanceVector},
	}
	ranked := scoreAndRank(results, VectorOnlyStrategy(), 3)
	assert.Equal(t, "a", ranked[0].DocumentID)
	assert.Equal(t, "b", ranked[1].DocumentID)
	assert.Equal(t, "c", ranked[2].DocumentID)
}

func TestCapabilities(t *testing.T) {
	graph := &fakeGraph{}
	e := NewEngine(&fakeEmbedder{}, &fakeVector{}, graph, nil, nil, Options{})

	caps := e.Capabilities(context.Background())
	assert.True(t, caps.VectorSearch)
	assert.True(t, caps.GraphSearch)
	assert.True(t, caps.HybridSearch)

	graph.pingErr = errors.New("refused")
	caps = e.Capabilities(context.Background())
	assert.True(t, caps.VectorSearch)
	assert.False(t, caps.GraphSearch)
	assert.False(t, caps.HybridSearch)
}

func TestTruncate(t *testing.T) {
	assert.Equal(t, "short", Truncate("short", 10))
	assert.Equal(t, "abcde...", Truncate("abcdefgh", 5))
	assert.Equal(t, "中文文本...", Truncate("中文文本超出限制", 4))
}
