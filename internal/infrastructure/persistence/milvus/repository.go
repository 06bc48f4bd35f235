// Package milvus 提供 Milvus 向量数据库访问层实现
package milvus

import (
	"context"
	"encoding/json"
	"fmt"
	"sort"
	"time"

	"github.com/milvus-io/milvus-sdk-go/v2/client"
	milvusentity "github.com/milvus-io/milvus-sdk-go/v2/entity"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"hybrid-rag-api/internal/domain/entity"
	"hybrid-rag-api/internal/domain/repository"
	"hybrid-rag-api/pkg/metrics"
)

// 列表查询的防御性上限
const queryRowLimit = int64(10000)

// Repository 文档分块向量仓储，实现 repository.VectorRepository
type Repository struct {
	client *Client
	dim    int
}

// NewRepository 创建向量仓储
func NewRepository(c *Client, dim int) *Repository {
	if dim <= 0 {
		dim = DefaultVectorDimension
	}
	return &Repository{client: c, dim: dim}
}

// EnsureCollection 确保 document_chunks 集合与索引可用（不存在则创建）
// 约束：不做 drop/rebuild 等破坏性操作
func (r *Repository) EnsureCollection(ctx context.Context) error {
	if r == nil || r.client == nil || r.client.milvus == nil {
		return fmt.Errorf("milvus client not configured")
	}

	exists, err := r.client.HasCollection(ctx, CollectionDocumentChunks)
	if err != nil {
		return err
	}
	if !exists {
		if err := r.createCollection(ctx); err != nil {
			return err
		}
		if err := r.CreateIndex(ctx); err != nil {
			return err
		}
	}

	return r.client.LoadCollection(ctx, CollectionDocumentChunks)
}

func (r *Repository) createCollection(ctx context.Context) error {
	ctx, span := tracer.Start(ctx, "milvus.CreateCollection",
		trace.WithAttributes(attribute.String("collection", CollectionDocumentChunks)))
	defer span.End()

	schema := DocumentChunksSchema(r.dim)
	schema.CollectionName = r.client.CollectionName(schema.CollectionName)

	if err := r.client.milvus.CreateCollection(ctx, schema, milvusentity.DefaultShardNumber); err != nil {
		span.RecordError(err)
		return fmt.Errorf("failed to create collection: %w", err)
	}
	return nil
}

// CreateIndex 创建 HNSW 索引
func (r *Repository) CreateIndex(ctx context.Context) error {
	ctx, span := tracer.Start(ctx, "milvus.CreateIndex",
		trace.WithAttributes(attribute.String("collection", CollectionDocumentChunks)))
	defer span.End()

	idx, err := milvusentity.NewIndexHNSW(
		milvusentity.COSINE,
		r.client.config.HNSWM,
		r.client.config.HNSWEfConstruction,
	)
	if err != nil {
		span.RecordError(err)
		return fmt.Errorf("failed to create index: %w", err)
	}

	collName := r.client.CollectionName(CollectionDocumentChunks)
	if err := r.client.milvus.CreateIndex(ctx, collName, "vector", idx, false); err != nil {
		span.RecordError(err)
		return fmt.Errorf("failed to create index: %w", err)
	}
	return nil
}

// InsertChunks 批量写入分块向量
func (r *Repository) InsertChunks(ctx context.Context, chunks []repository.ChunkInsert) error {
	if r == nil || r.client == nil || r.client.milvus == nil {
		return fmt.Errorf("milvus client not configured")
	}
	ctx, span := tracer.Start(ctx, "milvus.InsertChunks",
		trace.WithAttributes(attribute.Int("count", len(chunks))))
	defer span.End()

	if len(chunks) == 0 {
		return nil
	}
	if err := r.EnsureCollection(ctx); err != nil {
		return err
	}

	ids := make([]string, len(chunks))
	vectors := make([][]float32, len(chunks))
	documentIDs := make([]string, len(chunks))
	filenames := make([]string, len(chunks))
	chunkIndexes := make([]int64, len(chunks))
	contents := make([]string, len(chunks))
	metadatas := make([]string, len(chunks))

	for i, c := range chunks {
		ids[i] = c.Chunk.ID
		vectors[i] = c.Vector
		documentIDs[i] = c.Chunk.DocumentID
		filenames[i] = c.Chunk.Filename
		chunkIndexes[i] = int64(c.Chunk.Index)
		contents[i] = c.Chunk.Content
		metadatas[i] = encodeMetadata(c.Chunk.Metadata)
	}

	collName := r.client.CollectionName(CollectionDocumentChunks)
	_, err := r.client.milvus.Insert(ctx, collName, "",
		milvusentity.NewColumnVarChar("id", ids),
		milvusentity.NewColumnFloatVector("vector", r.dim, vectors),
		milvusentity.NewColumnVarChar("document_id", documentIDs),
		milvusentity.NewColumnVarChar("filename", filenames),
		milvusentity.NewColumnInt64("chunk_index", chunkIndexes),
		milvusentity.NewColumnVarChar("chunk_content", contents),
		milvusentity.NewColumnVarChar("metadata", metadatas),
	)
	if err != nil {
		span.RecordError(err)
		return fmt.Errorf("failed to insert chunks: %w", err)
	}
	return nil
}

// Search 按向量相似度检索 topK 个分块
func (r *Repository) Search(ctx context.Context, vector []float32, topK int) ([]repository.ChunkHit, error) {
	if r == nil || r.client == nil || r.client.milvus == nil {
		return nil, fmt.Errorf("milvus client not configured")
	}
	ctx, span := tracer.Start(ctx, "milvus.Search",
		trace.WithAttributes(attribute.Int("top_k", topK)))
	defer span.End()

	if err := r.EnsureCollection(ctx); err != nil {
		return nil, err
	}

	sp, err := milvusentity.NewIndexHNSWSearchParam(128)
	if err != nil {
		span.RecordError(err)
		return nil, fmt.Errorf("failed to create search param: %w", err)
	}

	collName := r.client.CollectionName(CollectionDocumentChunks)
	start := time.Now()
	results, err := r.client.milvus.Search(ctx,
		collName,
		nil,
		"",
		[]string{"id", "document_id", "filename", "chunk_index", "chunk_content", "metadata"},
		[]milvusentity.Vector{milvusentity.FloatVector(vector)},
		"vector",
		milvusentity.COSINE,
		topK,
		sp,
	)
	metrics.MilvusSearchDuration.WithLabelValues(CollectionDocumentChunks).Observe(time.Since(start).Seconds())
	if err != nil {
		span.RecordError(err)
		metrics.MilvusSearchTotal.WithLabelValues(CollectionDocumentChunks, "error").Inc()
		return nil, fmt.Errorf("failed to search: %w", err)
	}
	metrics.MilvusSearchTotal.WithLabelValues(CollectionDocumentChunks, "success").Inc()

	var hits []repository.ChunkHit
	for _, result := range results {
		hits = append(hits, searchHits(result)...)
	}

	span.SetAttributes(attribute.Int("result_count", len(hits)))
	return hits, nil
}

// searchHits 将单个搜索结果转换为命中列表
func searchHits(result client.SearchResult) []repository.ChunkHit {
	ids := varCharData(result.Fields.GetColumn("id"))
	docIDs := varCharData(result.Fields.GetColumn("document_id"))
	files := varCharData(result.Fields.GetColumn("filename"))
	indexes := int64Data(result.Fields.GetColumn("chunk_index"))
	contents := varCharData(result.Fields.GetColumn("chunk_content"))
	metas := varCharData(result.Fields.GetColumn("metadata"))

	hits := make([]repository.ChunkHit, 0, result.ResultCount)
	for i := 0; i < result.ResultCount; i++ {
		hit := repository.ChunkHit{
			// COSINE 下 score 即相似度，越大越相似
			Similarity: float64(result.Scores[i]),
		}
		hit.Chunk = entity.Chunk{
			ID:         at(ids, i),
			DocumentID: at(docIDs, i),
			Filename:   at(files, i),
			Content:    at(contents, i),
			Metadata:   decodeMetadata(at(metas, i)),
		}
		if idx := int64At(indexes, i); idx >= 0 {
			hit.Chunk.Index = int(idx)
		}
		hits = append(hits, hit)
	}
	return hits
}

// DeleteByDocument 删除文档的全部分块
func (r *Repository) DeleteByDocument(ctx context.Context, documentID string) error {
	if r == nil || r.client == nil || r.client.milvus == nil {
		return fmt.Errorf("milvus client not configured")
	}
	ctx, span := tracer.Start(ctx, "milvus.DeleteByDocument",
		trace.WithAttributes(attribute.String("document_id", documentID)))
	defer span.End()

	collName := r.client.CollectionName(CollectionDocumentChunks)
	filter := fmt.Sprintf(`document_id == "%s"`, documentID)

	if err := r.client.milvus.Delete(ctx, collName, "", filter); err != nil {
		span.RecordError(err)
		return fmt.Errorf("failed to delete chunks: %w", err)
	}
	return nil
}

// ListDocuments 聚合分块元数据得到文档列表
func (r *Repository) ListDocuments(ctx context.Context) ([]entity.Document, error) {
	if r == nil || r.client == nil || r.client.milvus == nil {
		return nil, fmt.Errorf("milvus client not configured")
	}
	ctx, span := tracer.Start(ctx, "milvus.ListDocuments")
	defer span.End()

	if err := r.EnsureCollection(ctx); err != nil {
		return nil, err
	}

	collName := r.client.CollectionName(CollectionDocumentChunks)
	rs, err := r.client.milvus.Query(ctx, collName, nil,
		`document_id != ""`,
		[]string{"document_id", "filename"},
		client.WithLimit(queryRowLimit),
	)
	if err != nil {
		span.RecordError(err)
		return nil, fmt.Errorf("failed to query documents: %w", err)
	}

	docIDs := varCharData(rs.GetColumn("document_id"))
	files := varCharData(rs.GetColumn("filename"))

	counts := make(map[string]int, len(docIDs))
	names := make(map[string]string, len(docIDs))
	order := make([]string, 0, len(docIDs))
	for i, id := range docIDs {
		if _, ok := counts[id]; !ok {
			order = append(order, id)
		}
		counts[id]++
		names[id] = at(files, i)
	}

	docs := make([]entity.Document, 0, len(order))
	for _, id := range order {
		docs = append(docs, entity.Document{
			ID:         id,
			Filename:   names[id],
			ChunkCount: counts[id],
		})
	}
	span.SetAttributes(attribute.Int("document_count", len(docs)))
	return docs, nil
}

// ListChunks 返回文档的全部分块，按 chunk_index 升序
func (r *Repository) ListChunks(ctx context.Context, documentID string) ([]entity.Chunk, error) {
	if r == nil || r.client == nil || r.client.milvus == nil {
		return nil, fmt.Errorf("milvus client not configured")
	}
	ctx, span := tracer.Start(ctx, "milvus.ListChunks",
		trace.WithAttributes(attribute.String("document_id", documentID)))
	defer span.End()

	if err := r.EnsureCollection(ctx); err != nil {
		return nil, err
	}

	collName := r.client.CollectionName(CollectionDocumentChunks)
	rs, err := r.client.milvus.Query(ctx, collName, nil,
		fmt.Sprintf(`document_id == "%s"`, documentID),
		[]string{"id", "document_id", "filename", "chunk_index", "chunk_content", "metadata"},
		client.WithLimit(queryRowLimit),
	)
	if err != nil {
		span.RecordError(err)
		return nil, fmt.Errorf("failed to query chunks: %w", err)
	}

	ids := varCharData(rs.GetColumn("id"))
	docIDs := varCharData(rs.GetColumn("document_id"))
	files := varCharData(rs.GetColumn("filename"))
	indexes := int64Data(rs.GetColumn("chunk_index"))
	contents := varCharData(rs.GetColumn("chunk_content"))
	metas := varCharData(rs.GetColumn("metadata"))

	chunks := make([]entity.Chunk, 0, len(ids))
	for i := range ids {
		c := entity.Chunk{
			ID:         ids[i],
			DocumentID: at(docIDs, i),
			Filename:   at(files, i),
			Content:    at(contents, i),
			Metadata:   decodeMetadata(at(metas, i)),
		}
		if idx := int64At(indexes, i); idx >= 0 {
			c.Index = int(idx)
		}
		chunks = append(chunks, c)
	}

	sort.Slice(chunks, func(i, j int) bool { return chunks[i].Index < chunks[j].Index })
	return chunks, nil
}

// HealthCheck 检查向量库可用性
func (r *Repository) HealthCheck(ctx context.Context) error {
	if r == nil || r.client == nil {
		return fmt.Errorf("milvus client not configured")
	}
	return r.client.HealthCheck(ctx)
}

func encodeMetadata(m map[string]string) string {
	if len(m) == 0 {
		return "{}"
	}
	b, err := json.Marshal(m)
	if err != nil {
		return "{}"
	}
	return string(b)
}

func decodeMetadata(s string) map[string]string {
	if s == "" || s == "{}" {
		return nil
	}
	var m map[string]string
	if err := json.Unmarshal([]byte(s), &m); err != nil {
		return nil
	}
	return m
}

func varCharData(col milvusentity.Column) []string {
	if c, ok := col.(*milvusentity.ColumnVarChar); ok {
		return c.Data()
	}
	return nil
}

func int64Data(col milvusentity.Column) []int64 {
	if c, ok := col.(*milvusentity.ColumnInt64); ok {
		return c.Data()
	}
	return nil
}

func at(data []string, i int) string {
	if i < len(data) {
		return data[i]
	}
	return ""
}

func int64At(data []int64, i int) int64 {
	if i < len(data) {
		return data[i]
	}
	return -1
}
