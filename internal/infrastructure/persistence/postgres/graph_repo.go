// Package postgres 提供 PostgreSQL Repository 实现
package postgres

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/lib/pq"
	"go.opentelemetry.io/otel/attribute"

	"hybrid-rag-api/internal/domain/entity"
	"hybrid-rag-api/pkg/metrics"
)

// relatedEntityLimit 图遍历结果上限
const relatedEntityLimit = 50

// GraphRepository 知识图谱仓储实现，实现 repository.GraphRepository
type GraphRepository struct {
	client *Client
}

// NewGraphRepository 创建图谱仓储
func NewGraphRepository(client *Client) *GraphRepository {
	return &GraphRepository{client: client}
}

func observeGraph(operation string, start time.Time, err error) {
	status := "success"
	if err != nil {
		status = "error"
	}
	metrics.GraphQueryDuration.WithLabelValues(operation).Observe(time.Since(start).Seconds())
	metrics.GraphQueryTotal.WithLabelValues(operation, status).Inc()
}

// UpsertDocument 写入/更新文档节点
func (r *GraphRepository) UpsertDocument(ctx context.Context, doc entity.Document) (err error) {
	ctx, span := tracer.Start(ctx, "postgres.GraphRepository.UpsertDocument")
	defer span.End()
	start := time.Now()
	defer func() { observeGraph("upsert_document", start, err) }()

	q := getQuerier(ctx, r.client.sqlDB)

	query := `
		INSERT INTO graph_documents (id, filename, text_length, chunk_count, created_at, updated_at)
		VALUES ($1, $2, $3, $4, NOW(), NOW())
		ON CONFLICT (id) DO UPDATE
		SET filename = EXCLUDED.filename,
			text_length = EXCLUDED.text_length,
			chunk_count = EXCLUDED.chunk_count,
			updated_at = NOW()
	`

	if _, err = q.ExecContext(ctx, query, doc.ID, doc.Filename, doc.TextLength, doc.ChunkCount); err != nil {
		span.RecordError(err)
		return fmt.Errorf("failed to upsert document: %w", err)
	}
	return nil
}

// UpsertEntities 批量写入/更新实体节点
func (r *GraphRepository) UpsertEntities(ctx context.Context, entities []entity.GraphEntity) (err error) {
	ctx, span := tracer.Start(ctx, "postgres.GraphRepository.UpsertEntities")
	defer span.End()
	start := time.Now()
	defer func() { observeGraph("upsert_entities", start, err) }()

	span.SetAttributes(attribute.Int("count", len(entities)))
	if len(entities) == 0 {
		return nil
	}

	q := getQuerier(ctx, r.client.sqlDB)

	query := `
		INSERT INTO graph_entities (id, document_id, name, type, description, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, NOW(), NOW())
		ON CONFLICT (id) DO UPDATE
		SET name = EXCLUDED.name,
			type = EXCLUDED.type,
			description = EXCLUDED.description,
			updated_at = NOW()
	`

	for _, e := range entities {
		if _, err = q.ExecContext(ctx, query, e.ID, e.DocumentID, e.Name, string(e.Type), e.Description); err != nil {
			span.RecordError(err)
			return fmt.Errorf("failed to upsert entity %s: %w", e.ID, err)
		}
	}
	return nil
}

// UpsertRelationships 批量写入/更新关系边
func (r *GraphRepository) UpsertRelationships(ctx context.Context, relationships []entity.GraphRelationship) (err error) {
	ctx, span := tracer.Start(ctx, "postgres.GraphRepository.UpsertRelationships")
	defer span.End()
	start := time.Now()
	defer func() { observeGraph("upsert_relationships", start, err) }()

	span.SetAttributes(attribute.Int("count", len(relationships)))
	if len(relationships) == 0 {
		return nil
	}

	q := getQuerier(ctx, r.client.sqlDB)

	query := `
		INSERT INTO graph_relationships (source_id, target_id, type, context, confidence, document_id, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, NOW())
		ON CONFLICT (source_id, target_id, type) DO UPDATE
		SET context = EXCLUDED.context,
			confidence = EXCLUDED.confidence
	`

	for _, rel := range relationships {
		if _, err = q.ExecContext(ctx, query, rel.SourceID, rel.TargetID, string(rel.Type), rel.Context, rel.Confidence, rel.DocumentID); err != nil {
			span.RecordError(err)
			return fmt.Errorf("failed to upsert relationship %s -> %s: %w", rel.SourceID, rel.TargetID, err)
		}
	}
	return nil
}

// LinkDocumentEntities 建立文档到实体的提及关系
func (r *GraphRepository) LinkDocumentEntities(ctx context.Context, documentID string, entityIDs []string) (err error) {
	ctx, span := tracer.Start(ctx, "postgres.GraphRepository.LinkDocumentEntities")
	defer span.End()
	start := time.Now()
	defer func() { observeGraph("link_document_entities", start, err) }()

	if len(entityIDs) == 0 {
		return nil
	}

	q := getQuerier(ctx, r.client.sqlDB)

	query := `
		INSERT INTO graph_document_entities (document_id, entity_id)
		SELECT $1, unnest($2::text[])
		ON CONFLICT DO NOTHING
	`

	if _, err = q.ExecContext(ctx, query, documentID, pq.Array(entityIDs)); err != nil {
		span.RecordError(err)
		return fmt.Errorf("failed to link document entities: %w", err)
	}
	return nil
}

// RelatedContext 从种子实体名出发做受限深度遍历
// 双向展开关系边，按 visited 数组避免环路，结果按距离、名称排序并截断
func (r *GraphRepository) RelatedContext(ctx context.Context, names []string, maxDepth int) (related []entity.RelatedEntity, err error) {
	ctx, span := tracer.Start(ctx, "postgres.GraphRepository.RelatedContext")
	defer span.End()
	start := time.Now()
	defer func() { observeGraph("related_context", start, err) }()

	seeds := normalizeNames(names)
	if len(seeds) == 0 {
		return nil, nil
	}
	if maxDepth < 1 {
		maxDepth = 1
	}
	span.SetAttributes(attribute.Int("seed_count", len(seeds)), attribute.Int("max_depth", maxDepth))

	q := getQuerier(ctx, r.client.sqlDB)

	query := `
		WITH RECURSIVE walk (entity_id, distance, path, visited) AS (
			SELECT e.id, 0, ARRAY[e.name]::text[], ARRAY[e.id]::text[]
			FROM graph_entities e
			WHERE lower(e.name) = ANY($1)
			UNION ALL
			SELECT n.id, w.distance + 1, w.path || n.name, w.visited || n.id
			FROM walk w
			JOIN graph_relationships rel
				ON rel.source_id = w.entity_id OR rel.target_id = w.entity_id
			JOIN graph_entities n
				ON n.id = CASE WHEN rel.source_id = w.entity_id THEN rel.target_id ELSE rel.source_id END
			WHERE w.distance < $2 AND NOT (n.id = ANY(w.visited))
		)
		SELECT id, name, type, description, document_id, distance, path
		FROM (
			SELECT DISTINCT ON (w.entity_id)
				e.id, e.name, e.type, e.description, e.document_id, w.distance, w.path
			FROM walk w
			JOIN graph_entities e ON e.id = w.entity_id
			WHERE w.distance > 0
			ORDER BY w.entity_id, w.distance
		) hits
		ORDER BY distance, name
		LIMIT $3
	`

	rows, err := q.QueryContext(ctx, query, pq.Array(seeds), maxDepth, relatedEntityLimit)
	if err != nil {
		span.RecordError(err)
		return nil, fmt.Errorf("failed to query related context: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var re entity.RelatedEntity
		var entityType string
		var path pq.StringArray
		if err = rows.Scan(
			&re.Entity.ID, &re.Entity.Name, &entityType, &re.Entity.Description,
			&re.Entity.DocumentID, &re.Distance, &path,
		); err != nil {
			span.RecordError(err)
			return nil, fmt.Errorf("failed to scan related entity: %w", err)
		}
		re.Entity.Type = entity.GraphEntityType(entityType)
		re.Path = []string(path)
		related = append(related, re)
	}
	if err = rows.Err(); err != nil {
		span.RecordError(err)
		return nil, fmt.Errorf("failed to iterate related entities: %w", err)
	}

	span.SetAttributes(attribute.Int("result_count", len(related)))
	return related, nil
}

// RelatedDocuments 返回提及种子实体的文档，按共享实体数降序
func (r *GraphRepository) RelatedDocuments(ctx context.Context, names []string) (docs []entity.RelatedDocument, err error) {
	ctx, span := tracer.Start(ctx, "postgres.GraphRepository.RelatedDocuments")
	defer span.End()
	start := time.Now()
	defer func() { observeGraph("related_documents", start, err) }()

	seeds := normalizeNames(names)
	if len(seeds) == 0 {
		return nil, nil
	}

	q := getQuerier(ctx, r.client.sqlDB)

	query := `
		SELECT d.id, d.filename, COUNT(DISTINCT e.id) AS shared_entities
		FROM graph_documents d
		JOIN graph_document_entities de ON de.document_id = d.id
		JOIN graph_entities e ON e.id = de.entity_id
		WHERE lower(e.name) = ANY($1)
		GROUP BY d.id, d.filename
		ORDER BY shared_entities DESC, d.id
	`

	rows, err := q.QueryContext(ctx, query, pq.Array(seeds))
	if err != nil {
		span.RecordError(err)
		return nil, fmt.Errorf("failed to query related documents: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var rd entity.RelatedDocument
		if err = rows.Scan(&rd.DocumentID, &rd.Filename, &rd.SharedEntities); err != nil {
			span.RecordError(err)
			return nil, fmt.Errorf("failed to scan related document: %w", err)
		}
		docs = append(docs, rd)
	}
	if err = rows.Err(); err != nil {
		span.RecordError(err)
		return nil, fmt.Errorf("failed to iterate related documents: %w", err)
	}

	return docs, nil
}

// deleteDocumentStatements 只移除文档节点与提及链接
// 实体和关系可能被其他文档引用，不做级联删除，任其成为孤儿节点
var deleteDocumentStatements = []string{
	`DELETE FROM graph_document_entities WHERE document_id = $1`,
	`DELETE FROM graph_documents WHERE id = $1`,
}

// DeleteDocument 删除文档节点及其提及链接，保留实体与关系
func (r *GraphRepository) DeleteDocument(ctx context.Context, documentID string) (err error) {
	ctx, span := tracer.Start(ctx, "postgres.GraphRepository.DeleteDocument")
	defer span.End()
	start := time.Now()
	defer func() { observeGraph("delete_document", start, err) }()

	q := getQuerier(ctx, r.client.sqlDB)

	for _, stmt := range deleteDocumentStatements {
		if _, err = q.ExecContext(ctx, stmt, documentID); err != nil {
			span.RecordError(err)
			return fmt.Errorf("failed to delete document graph data: %w", err)
		}
	}
	return nil
}

// Ping 检查图库可用性
func (r *GraphRepository) Ping(ctx context.Context) (err error) {
	start := time.Now()
	defer func() { observeGraph("ping", start, err) }()
	err = r.client.Ping(ctx)
	return err
}

// normalizeNames 种子名称去空白、转小写、去重
func normalizeNames(names []string) []string {
	seen := make(map[string]struct{}, len(names))
	out := make([]string, 0, len(names))
	for _, n := range names {
		key := strings.ToLower(strings.TrimSpace(n))
		if key == "" {
			continue
		}
		if _, ok := seen[key]; ok {
			continue
		}
		seen[key] = struct{}{}
		out = append(out, key)
	}
	return out
}
