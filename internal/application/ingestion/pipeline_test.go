package ingestion

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/cloudwego/eino/components/embedding"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"hybrid-rag-api/internal/domain/entity"
	"hybrid-rag-api/internal/domain/repository"
)

type fakeEmbedder struct {
	calls [][]string
	err   error
}

func (f *fakeEmbedder) EmbedStrings(_ context.Context, texts []string, _ ...embedding.Option) ([][]float64, error) {
	if f.err != nil {
		return nil, f.err
	}
	f.calls = append(f.calls, texts)
	out := make([][]float64, len(texts))
	for i := range texts {
		out[i] = []float64{float64(len(texts[i])), 1}
	}
	return out, nil
}

type fakeVectorRepo struct {
	inserted  []repository.ChunkInsert
	insertErr error
}

func (f *fakeVectorRepo) InsertChunks(_ context.Context, chunks []repository.ChunkInsert) error {
	if f.insertErr != nil {
		return f.insertErr
	}
	f.inserted = append(f.inserted, chunks...)
	return nil
}

func (f *fakeVectorRepo) Search(context.Context, []float32, int) ([]repository.ChunkHit, error) {
	return nil, nil
}
func (f *fakeVectorRepo) DeleteByDocument(context.Context, string) error       { return nil }
func (f *fakeVectorRepo) ListDocuments(context.Context) ([]entity.Document, error) {
	return nil, nil
}
func (f *fakeVectorRepo) ListChunks(context.Context, string) ([]entity.Chunk, error) {
	return nil, nil
}
func (f *fakeVectorRepo) HealthCheck(context.Context) error { return nil }

type fakeGraphRepo struct {
	pingErr   error
	upsertErr error

	documents     []entity.Document
	entities      []entity.GraphEntity
	relationships []entity.GraphRelationship
	linkedDoc     string
	linkedIDs     []string
}

func (f *fakeGraphRepo) UpsertDocument(_ context.Context, doc entity.Document) error {
	if f.upsertErr != nil {
		return f.upsertErr
	}
	f.documents = append(f.documents, doc)
	return nil
}

func (f *fakeGraphRepo) UpsertEntities(_ context.Context, ents []entity.GraphEntity) error {
	if f.upsertErr != nil {
		return f.upsertErr
	}
	f.entities = append(f.entities, ents...)
	return nil
}

func (f *fakeGraphRepo) UpsertRelationships(_ context.Context, rels []entity.GraphRelationship) error {
	if f.upsertErr != nil {
		return f.upsertErr
	}
	f.relationships = append(f.relationships, rels...)
	return nil
}

func (f *fakeGraphRepo) LinkDocumentEntities(_ context.Context, documentID string, entityIDs []string) error {
	if f.upsertErr != nil {
		return f.upsertErr
	}
	f.linkedDoc = documentID
	f.linkedIDs = entityIDs
	return nil
}

func (f *fakeGraphRepo) RelatedContext(context.Context, []string, int) ([]entity.RelatedEntity, error) {
	return nil, nil
}
func (f *fakeGraphRepo) RelatedDocuments(context.Context, []string) ([]entity.RelatedDocument, error) {
	return nil, nil
}
func (f *fakeGraphRepo) DeleteDocument(context.Context, string) error { return nil }
func (f *fakeGraphRepo) Ping(context.Context) error                   { return f.pingErr }

type fakeExtractor struct {
	extraction *Extraction
	err        error
	fn         func(text string) (*Extraction, error)
	texts      []string
}

func (f *fakeExtractor) ExtractEntities(_ context.Context, text string) (*Extraction, error) {
	f.texts = append(f.texts, text)
	if f.fn != nil {
		return f.fn(text)
	}
	if f.err != nil {
		return nil, f.err
	}
	return f.extraction, nil
}

func newTestPipeline(embedder *fakeEmbedder, vector *fakeVectorRepo, graph *fakeGraphRepo, extractor *fakeExtractor) *Pipeline {
	return NewPipeline(embedder, vector, graph, extractor, Options{
		ChunkSize:      50,
		ChunkOverlap:   10,
		EmbeddingBatch: 2,
		BatchDelay:     0,
	})
}

func TestIngestSuccess(t *testing.T) {
	embedder := &fakeEmbedder{}
	vector := &fakeVectorRepo{}
	graph := &fakeGraphRepo{}
	extractor := &fakeExtractor{extraction: &Extraction{
		Entities: []entity.GraphEntity{
			{Name: "Alice", Type: entity.EntityTypePerson},
			{Name: "ALICE", Type: entity.EntityTypeConcept},
			{Name: "Acme", Type: entity.EntityTypeOrganization},
		},
		Relationships: []entity.GraphRelationship{
			{SourceName: "Alice", TargetName: "Acme", Type: entity.RelationPartOf},
			{SourceName: "Alice", TargetName: "Ghost", Type: entity.RelationRelatesTo},
		},
	}}

	p := newTestPipeline(embedder, vector, graph, extractor)
	result, err := p.Ingest(context.Background(), "report.txt", "Alice works at Acme. She leads the platform team there.")
	require.NoError(t, err)

	assert.NotEmpty(t, result.DocumentID)
	assert.Equal(t, "report.txt", result.Filename)
	assert.True(t, result.GraphIndexed)
	assert.Empty(t, result.Warning)
	// 重名实体去重，悬空关系被丢弃
	assert.Equal(t, 2, result.EntityCount)
	assert.Equal(t, 1, result.RelationshipCount)

	require.NotEmpty(t, vector.inserted)
	assert.Equal(t, result.DocumentID+"_chunk_0", vector.inserted[0].Chunk.ID)
	assert.Equal(t, 0, vector.inserted[0].Chunk.Index)
	assert.Equal(t, "report.txt", vector.inserted[0].Chunk.Filename)
	assert.NotEmpty(t, vector.inserted[0].Vector)

	require.Len(t, graph.documents, 1)
	assert.Equal(t, result.DocumentID, graph.documents[0].ID)
	require.Len(t, graph.entities, 2)
	assert.Equal(t, entity.NewGraphEntityID(result.DocumentID, "Alice"), graph.entities[0].ID)
	require.Len(t, graph.relationships, 1)
	assert.Equal(t, result.DocumentID, graph.linkedDoc)
	assert.Len(t, graph.linkedIDs, 2)
}

func TestIngestFailsClosedWhenGraphDown(t *testing.T) {
	graph := &fakeGraphRepo{pingErr: errors.New("connection refused")}
	p := newTestPipeline(&fakeEmbedder{}, &fakeVectorRepo{}, graph, &fakeExtractor{})

	_, err := p.Ingest(context.Background(), "a.txt", "some content")
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrGraphUnavailable)
}

func TestIngestEmptyContent(t *testing.T) {
	p := newTestPipeline(&fakeEmbedder{}, &fakeVectorRepo{}, &fakeGraphRepo{}, &fakeExtractor{})

	_, err := p.Ingest(context.Background(), "a.txt", "\x00\x01  \x02")
	assert.ErrorIs(t, err, ErrEmptyContent)
}

func TestIngestEmbeddingFailure(t *testing.T) {
	embedder := &fakeEmbedder{err: errors.New("rate limited")}
	p := newTestPipeline(embedder, &fakeVectorRepo{}, &fakeGraphRepo{}, &fakeExtractor{})

	_, err := p.Ingest(context.Background(), "a.txt", "some content")
	assert.ErrorIs(t, err, ErrEmbeddingFailed)
}

func TestIngestPartialSuccessWhenGraphWriteFails(t *testing.T) {
	graph := &fakeGraphRepo{upsertErr: errors.New("write failed")}
	p := newTestPipeline(&fakeEmbedder{}, &fakeVectorRepo{}, graph, &fakeExtractor{})

	result, err := p.Ingest(context.Background(), "a.txt", "some content here")
	require.NoError(t, err)
	assert.False(t, result.GraphIndexed)
	assert.NotEmpty(t, result.Warning)
}

func TestIngestExtractionFailureDegradesToVectorOnly(t *testing.T) {
	graph := &fakeGraphRepo{}
	extractor := &fakeExtractor{err: errors.New("llm unavailable")}
	p := newTestPipeline(&fakeEmbedder{}, &fakeVectorRepo{}, graph, extractor)

	result, err := p.Ingest(context.Background(), "a.txt", "some content here")
	require.NoError(t, err)
	assert.True(t, result.GraphIndexed)
	assert.Zero(t, result.EntityCount)
	// 文档节点仍然写入
	require.Len(t, graph.documents, 1)
	assert.Empty(t, graph.entities)
}

func TestIngestEmbedsInBatches(t *testing.T) {
	embedder := &fakeEmbedder{}
	p := NewPipeline(embedder, &fakeVectorRepo{}, &fakeGraphRepo{}, nil, Options{
		ChunkSize:      20,
		ChunkOverlap:   0,
		EmbeddingBatch: 2,
		BatchDelay:     0,
	})

	// 足够长的文本切出 5 块，batch=2 应产生 3 次调用
	text := strings.Repeat("abcdefghijklmnopqrst", 5)
	result, err := p.Ingest(context.Background(), "a.txt", text)
	require.NoError(t, err)
	assert.Equal(t, 5, result.ChunkCount)
	require.Len(t, embedder.calls, 3)
	assert.Len(t, embedder.calls[0], 2)
	assert.Len(t, embedder.calls[2], 1)
}

func TestIngestExtractionCoversFullText(t *testing.T) {
	extractor := &fakeExtractor{fn: func(text string) (*Extraction, error) {
		if strings.Contains(text, "GPT-4") {
			return &Extraction{Entities: []entity.GraphEntity{
				{Name: "GPT-4", Type: entity.EntityTypeTechnology},
			}}, nil
		}
		return &Extraction{}, nil
	}}
	graph := &fakeGraphRepo{}
	p := NewPipeline(&fakeEmbedder{}, &fakeVectorRepo{}, graph, extractor, Options{
		ChunkSize:        2000,
		EmbeddingBatch:   10,
		BatchDelay:       0,
		ExtractionWindow: 2000,
	})

	// 实体只出现在第一个抽取窗口之后，必须被后续窗口覆盖到
	text := strings.Repeat("x", 2500) + " OpenAI released GPT-4 with Microsoft. " + strings.Repeat("y", 2400)
	result, err := p.Ingest(context.Background(), "a.txt", text)
	require.NoError(t, err)

	require.Len(t, extractor.texts, 3)
	assert.Len(t, []rune(extractor.texts[0]), 2000)
	assert.Equal(t, 1, result.EntityCount)
	require.Len(t, graph.entities, 1)
	assert.Equal(t, "GPT-4", graph.entities[0].Name)
}

func TestIngestExtractionWindowFailureSkipsWindow(t *testing.T) {
	extractor := &fakeExtractor{fn: func(text string) (*Extraction, error) {
		if strings.HasPrefix(text, "zzz") {
			return nil, errors.New("llm timeout")
		}
		return &Extraction{Entities: []entity.GraphEntity{
			{Name: "Acme", Type: entity.EntityTypeOrganization},
		}}, nil
	}}
	graph := &fakeGraphRepo{}
	p := NewPipeline(&fakeEmbedder{}, &fakeVectorRepo{}, graph, extractor, Options{
		ChunkSize:        100,
		EmbeddingBatch:   10,
		BatchDelay:       0,
		ExtractionWindow: 10,
	})

	result, err := p.Ingest(context.Background(), "a.txt", strings.Repeat("z", 10)+"Acme Corp ships widgets")
	require.NoError(t, err)
	assert.True(t, result.GraphIndexed)
	// 首个窗口失败被跳过，后续窗口的实体仍然入图
	assert.Equal(t, 1, result.EntityCount)
	require.Len(t, graph.entities, 1)
	assert.Equal(t, "Acme", graph.entities[0].Name)
}
