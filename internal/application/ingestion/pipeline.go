package ingestion

import (
	"context"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/cloudwego/eino/components/embedding"
	"github.com/google/uuid"

	"hybrid-rag-api/internal/domain/entity"
	"hybrid-rag-api/internal/domain/repository"
	"hybrid-rag-api/pkg/logger"
	"hybrid-rag-api/pkg/metrics"
)

const (
	defaultChunkSizeRunes    = 1000
	defaultChunkOverlapRunes = 200
	defaultMaxTextLength     = 100000
	defaultEmbeddingBatch    = 5
	defaultBatchDelay        = time.Second
	defaultExtractionWindow  = 2000
)

// Options 摄取管线参数
type Options struct {
	ChunkSize        int
	ChunkOverlap     int
	MaxTextLength    int
	EmbeddingBatch   int
	BatchDelay       time.Duration
	ExtractionWindow int
}

func (o Options) normalized() Options {
	if o.ChunkSize <= 0 {
		o.ChunkSize = defaultChunkSizeRunes
	}
	if o.ChunkOverlap < 0 {
		o.ChunkOverlap = defaultChunkOverlapRunes
	}
	if o.MaxTextLength <= 0 {
		o.MaxTextLength = defaultMaxTextLength
	}
	if o.EmbeddingBatch <= 0 {
		o.EmbeddingBatch = defaultEmbeddingBatch
	}
	if o.BatchDelay < 0 {
		o.BatchDelay = defaultBatchDelay
	}
	if o.ExtractionWindow <= 0 {
		o.ExtractionWindow = defaultExtractionWindow
	}
	return o
}

// Result 单次摄取结果
type Result struct {
	DocumentID        string
	Filename          string
	TextLength        int
	ChunkCount        int
	EntityCount       int
	RelationshipCount int
	// GraphIndexed 图谱写入是否成功；false 时 Warning 说明原因
	GraphIndexed bool
	Warning      string
}

// Pipeline 文档摄取管线：清洗 -> 分块 -> 向量化 -> 实体抽取 -> 图谱写入
type Pipeline struct {
	embedder  embedding.Embedder
	vector    repository.VectorRepository
	graph     repository.GraphRepository
	extractor EntityExtractor

	opts Options
}

func NewPipeline(embedder embedding.Embedder, vector repository.VectorRepository, graph repository.GraphRepository, extractor EntityExtractor, opts Options) *Pipeline {
	return &Pipeline{
		embedder:  embedder,
		vector:    vector,
		graph:     graph,
		extractor: extractor,
		opts:      opts.normalized(),
	}
}

// Ingest 摄取一篇文档
// 图库不可达时整体失败（不产生只有向量没有图谱的半成品）
// 向量写入成功后图谱写入失败则降级为部分成功，返回 Warning
func (p *Pipeline) Ingest(ctx context.Context, filename, text string) (*Result, error) {
	start := time.Now()

	// 前置探活：fail-closed
	if err := p.graph.Ping(ctx); err != nil {
		metrics.IngestionTotal.WithLabelValues("failed").Inc()
		return nil, fmt.Errorf("%w: %v", ErrGraphUnavailable, err)
	}

	cleaned := CleanText(text, p.opts.MaxTextLength)
	if cleaned == "" {
		metrics.IngestionTotal.WithLabelValues("failed").Inc()
		return nil, ErrEmptyContent
	}

	documentID := uuid.NewString()
	ctx = logger.WithContext(ctx, logger.DocumentIDKey, documentID)

	chunks := Split(cleaned, p.opts.ChunkSize, p.opts.ChunkOverlap)
	if len(chunks) == 0 {
		metrics.IngestionTotal.WithLabelValues("failed").Inc()
		return nil, ErrEmptyContent
	}

	vectors, err := p.embedBatches(ctx, chunks)
	if err != nil {
		metrics.IngestionTotal.WithLabelValues("failed").Inc()
		return nil, fmt.Errorf("%w: %v", ErrEmbeddingFailed, err)
	}

	inserts := make([]repository.ChunkInsert, 0, len(chunks))
	for idx, content := range chunks {
		inserts = append(inserts, repository.ChunkInsert{
			Chunk: entity.Chunk{
				ID:         documentID + "_chunk_" + strconv.Itoa(idx),
				DocumentID: documentID,
				Filename:   filename,
				Index:      idx,
				Content:    content,
				Metadata:   map[string]string{"filename": filename},
			},
			Vector: vectors[idx],
		})
	}
	if err := p.vector.InsertChunks(ctx, inserts); err != nil {
		metrics.IngestionTotal.WithLabelValues("failed").Inc()
		return nil, fmt.Errorf("failed to insert chunks: %w", err)
	}

	result := &Result{
		DocumentID: documentID,
		Filename:   filename,
		TextLength: len([]rune(cleaned)),
		ChunkCount: len(chunks),
	}

	entities, relationships := p.extract(ctx, documentID, cleaned)
	result.EntityCount = len(entities)
	result.RelationshipCount = len(relationships)

	if err := p.writeGraph(ctx, documentID, filename, result.TextLength, len(chunks), entities, relationships); err != nil {
		// 向量已写入，图谱失败降级为部分成功
		logger.Error(ctx, "graph indexing failed after vector write", err, "filename", filename)
		result.Warning = "document indexed for vector search only; knowledge graph update failed"
		metrics.IngestionTotal.WithLabelValues("partial").Inc()
		metrics.IngestionDuration.WithLabelValues("partial").Observe(time.Since(start).Seconds())
		return result, nil
	}

	result.GraphIndexed = true
	metrics.IngestionTotal.WithLabelValues("success").Inc()
	metrics.IngestionDuration.WithLabelValues("success").Observe(time.Since(start).Seconds())
	metrics.IngestionChunks.Observe(float64(len(chunks)))
	metrics.IngestionEntities.Observe(float64(len(entities)))

	logger.Info(ctx, "document ingested",
		"filename", filename,
		"chunks", len(chunks),
		"entities", len(entities),
		"relationships", len(relationships),
	)
	return result, nil
}

// extract 按抽取窗口逐段遍历全文做实体抽取，汇总后去重
// 单个窗口失败只跳过该窗口，全部失败则降级为空结果
func (p *Pipeline) extract(ctx context.Context, documentID, text string) ([]entity.GraphEntity, []entity.GraphRelationship) {
	if p.extractor == nil {
		return nil, nil
	}

	var rawEntities []entity.GraphEntity
	var rawRelationships []entity.GraphRelationship

	runes := []rune(text)
	for start := 0; start < len(runes); start += p.opts.ExtractionWindow {
		end := start + p.opts.ExtractionWindow
		if end > len(runes) {
			end = len(runes)
		}

		extraction, err := p.extractor.ExtractEntities(ctx, string(runes[start:end]))
		if err != nil {
			logger.Warn(ctx, "entity extraction failed for window, skipping",
				"window_start", start, "error", err.Error())
			continue
		}
		if extraction == nil {
			continue
		}
		rawEntities = append(rawEntities, extraction.Entities...)
		rawRelationships = append(rawRelationships, extraction.Relationships...)
	}

	entities := make([]entity.GraphEntity, 0, len(rawEntities))
	for _, e := range rawEntities {
		if strings.TrimSpace(e.Name) == "" {
			continue
		}
		e.ID = entity.NewGraphEntityID(documentID, e.Name)
		e.DocumentID = documentID
		entities = append(entities, e)
	}
	entities = entity.DedupeEntities(entities)

	relationships := entity.ResolveRelationships(documentID, rawRelationships, entities)
	return entities, relationships
}

func (p *Pipeline) writeGraph(ctx context.Context, documentID, filename string, textLength, chunkCount int, entities []entity.GraphEntity, relationships []entity.GraphRelationship) error {
	doc := entity.Document{
		ID:         documentID,
		Filename:   filename,
		TextLength: textLength,
		ChunkCount: chunkCount,
		CreatedAt:  time.Now().UTC(),
	}
	if err := p.graph.UpsertDocument(ctx, doc); err != nil {
		return fmt.Errorf("failed to upsert document node: %w", err)
	}
	if len(entities) == 0 {
		return nil
	}
	if err := p.graph.UpsertEntities(ctx, entities); err != nil {
		return fmt.Errorf("failed to upsert entities: %w", err)
	}
	if len(relationships) > 0 {
		if err := p.graph.UpsertRelationships(ctx, relationships); err != nil {
			return fmt.Errorf("failed to upsert relationships: %w", err)
		}
	}
	entityIDs := make([]string, 0, len(entities))
	for _, e := range entities {
		entityIDs = append(entityIDs, e.ID)
	}
	if err := p.graph.LinkDocumentEntities(ctx, documentID, entityIDs); err != nil {
		return fmt.Errorf("failed to link document entities: %w", err)
	}
	return nil
}

// embedBatches 分批向量化，批次间插入限速延迟
func (p *Pipeline) embedBatches(ctx context.Context, texts []string) ([][]float32, error) {
	out := make([][]float32, 0, len(texts))
	for start := 0; start < len(texts); start += p.opts.EmbeddingBatch {
		if start > 0 && p.opts.BatchDelay > 0 {
			if err := sleepContext(ctx, p.opts.BatchDelay); err != nil {
				return nil, err
			}
		}

		end := start + p.opts.EmbeddingBatch
		if end > len(texts) {
			end = len(texts)
		}
		v64, err := p.embedder.EmbedStrings(ctx, texts[start:end])
		if err != nil {
			metrics.EmbeddingBatchTotal.WithLabelValues("error").Inc()
			return nil, err
		}
		if len(v64) != end-start {
			metrics.EmbeddingBatchTotal.WithLabelValues("error").Inc()
			return nil, fmt.Errorf("embedding count mismatch: got %d, want %d", len(v64), end-start)
		}
		metrics.EmbeddingBatchTotal.WithLabelValues("success").Inc()

		for _, vec := range v64 {
			f32 := make([]float32, 0, len(vec))
			for _, x := range vec {
				f32 = append(f32, float32(x))
			}
			out = append(out, f32)
		}
	}
	return out, nil
}

func sleepContext(ctx context.Context, d time.Duration) error {
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}
