package hybrid

import (
	"context"
	"fmt"
	"math"
	"sort"
	"strings"
	"time"

	"github.com/cloudwego/eino/components/embedding"
	"golang.org/x/sync/errgroup"

	"hybrid-rag-api/internal/domain/repository"
	"hybrid-rag-api/pkg/logger"
	"hybrid-rag-api/pkg/metrics"
)

const (
	defaultSearchLimit      = 5
	defaultOverfetchFactor  = 1.5
	maxContextDistance      = 2
	maxContextEntitiesBonus = 5
	contextBonusPerEntity   = 0.1
)

// Options 引擎参数
type Options struct {
	DefaultLimit    int
	OverfetchFactor float64
}

func (o Options) normalized() Options {
	if o.DefaultLimit <= 0 {
		o.DefaultLimit = defaultSearchLimit
	}
	if o.OverfetchFactor <= 1 {
		o.OverfetchFactor = defaultOverfetchFactor
	}
	return o
}

// Engine 混合检索引擎
type Engine struct {
	embedder       embedding.Embedder
	vector         repository.VectorRepository
	graph          repository.GraphRepository
	queryExtractor QueryEntityExtractor
	probeCache     ProbeCache

	opts Options
}

func NewEngine(embedder embedding.Embedder, vector repository.VectorRepository, graph repository.GraphRepository, queryExtractor QueryEntityExtractor, probeCache ProbeCache, opts Options) *Engine {
	return &Engine{
		embedder:       embedder,
		vector:         vector,
		graph:          graph,
		queryExtractor: queryExtractor,
		probeCache:     probeCache,
		opts:           opts.normalized(),
	}
}

// Search 执行混合检索
// 向量过采样之后的任何失败都降级为等量纯向量检索
func (e *Engine) Search(ctx context.Context, in SearchInput) (*SearchOutput, error) {
	query := strings.TrimSpace(in.Query)
	if query == "" {
		return nil, ErrEmptyQuery
	}
	limit := in.Limit
	if limit <= 0 {
		limit = e.opts.DefaultLimit
	}
	strat := in.Strategy.normalized()

	start := time.Now()
	vec, err := e.embedQuery(ctx, query)
	if err != nil {
		metrics.SearchTotal.WithLabelValues(StrategyHybrid, "error").Inc()
		return nil, fmt.Errorf("failed to embed query: %w", err)
	}

	out, err := e.search(ctx, query, vec, limit, strat)
	if err != nil {
		logger.Warn(ctx, "hybrid search failed, falling back to vector-only",
			"error", err.Error(), "query_len", len(query))
		fallback, ferr := e.vectorOnly(ctx, vec, limit)
		if ferr != nil {
			metrics.SearchTotal.WithLabelValues(StrategyFallback, "error").Inc()
			return nil, fmt.Errorf("fallback vector search failed: %w", ferr)
		}
		fallback.Strategy = StrategyFallback
		metrics.SearchTotal.WithLabelValues(StrategyFallback, "success").Inc()
		metrics.SearchDuration.WithLabelValues(StrategyFallback).Observe(time.Since(start).Seconds())
		return fallback, nil
	}

	metrics.SearchTotal.WithLabelValues(out.Strategy, "success").Inc()
	metrics.SearchDuration.WithLabelValues(out.Strategy).Observe(time.Since(start).Seconds())
	return out, nil
}

func (e *Engine) search(ctx context.Context, query string, vec []float32, limit int, strat Strategy) (*SearchOutput, error) {
	overfetch := int(math.Ceil(float64(limit) * e.opts.OverfetchFactor))

	var (
		hits  []repository.ChunkHit
		names []string
	)
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		h, err := e.vector.Search(gctx, vec, overfetch)
		if err != nil {
			return fmt.Errorf("vector search failed: %w", err)
		}
		hits = h
		return nil
	})
	if strat.EnableGraphExpansion && e.queryExtractor != nil {
		g.Go(func() error {
			n, err := e.queryExtractor.ExtractQueryEntities(gctx, query)
			if err != nil {
				// 查询实体抽取失败按无实体处理，不触发降级
				logger.Warn(gctx, "query entity extraction failed", "error", err.Error())
				return nil
			}
			names = n
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	out := &SearchOutput{QueryEntities: names, Strategy: StrategyVector}

	if !strat.EnableGraphExpansion || len(names) == 0 {
		out.Results = scoreAndRank(plainResults(hits), strat, limit)
		return out, nil
	}

	related, err := e.graph.RelatedContext(ctx, names, strat.MaxGraphDepth)
	if err != nil {
		return nil, fmt.Errorf("graph context lookup failed: %w", err)
	}
	relatedDocs, err := e.graph.RelatedDocuments(ctx, names)
	if err != nil {
		return nil, fmt.Errorf("related documents lookup failed: %w", err)
	}

	var (
		contextNames []string
		paths        [][]string
	)
	for _, r := range related {
		if r.Distance <= maxContextDistance {
			contextNames = append(contextNames, r.Entity.Name)
		}
		if len(r.Path) > 0 {
			paths = append(paths, r.Path)
		}
	}
	docSet := make(map[string]struct{}, len(relatedDocs))
	for _, d := range relatedDocs {
		docSet[d.DocumentID] = struct{}{}
	}

	results := make([]SearchResult, 0, len(hits))
	for _, h := range hits {
		r := SearchResult{
			DocumentID: h.Chunk.DocumentID,
			Filename:   h.Chunk.Filename,
			ChunkIndex: h.Chunk.Index,
			Content:    h.Chunk.Content,
			Similarity: h.Similarity,
			Provenance: ProvenanceVector,
		}
		if _, ok := docSet[h.Chunk.DocumentID]; ok {
			r.Provenance = ProvenanceHybrid
		}
		if len(contextNames) > 0 {
			// 每个结果持有独立副本，避免共享底层数组
			r.GraphContext = newGraphContext(contextNames, paths)
		}
		results = append(results, r)
	}

	out.Strategy = StrategyHybrid
	out.Results = scoreAndRank(results, strat, limit)
	return out, nil
}

// vectorOnly 降级路径：纯向量检索，得分即原始相似度
func (e *Engine) vectorOnly(ctx context.Context, vec []float32, limit int) (*SearchOutput, error) {
	hits, err := e.vector.Search(ctx, vec, limit)
	if err != nil {
		return nil, err
	}
	results := plainResults(hits)
	for i := range results {
		results[i].Score = results[i].Similarity
		metrics.SearchResultProvenance.WithLabelValues(string(results[i].Provenance)).Inc()
	}
	return &SearchOutput{Results: results, Strategy: StrategyVector}, nil
}

// newGraphContext 构造图谱上下文的深拷贝
func newGraphContext(names []string, paths [][]string) *GraphContext {
	gc := &GraphContext{
		RelatedEntities:   make([]string, len(names)),
		RelationshipPaths: make([][]string, len(paths)),
	}
	copy(gc.RelatedEntities, names)
	for i, p := range paths {
		gc.RelationshipPaths[i] = make([]string, len(p))
		copy(gc.RelationshipPaths[i], p)
	}
	return gc
}

func plainResults(hits []repository.ChunkHit) []SearchResult {
	results := make([]SearchResult, 0, len(hits))
	for _, h := range hits {
		results = append(results, SearchResult{
			DocumentID: h.Chunk.DocumentID,
			Filename:   h.Chunk.Filename,
			ChunkIndex: h.Chunk.Index,
			Content:    h.Chunk.Content,
			Similarity: h.Similarity,
			Provenance: ProvenanceVector,
		})
	}
	return results
}

// scoreAndRank 加权打分、稳定排序并截断
// score = similarity*vectorWeight，图谱关联结果加 graphWeight，
// 有图谱上下文再按实体数加成（封顶 5 个）
func scoreAndRank(results []SearchResult, strat Strategy, limit int) []SearchResult {
	for i := range results {
		score := results[i].Similarity * strat.VectorWeight
		if results[i].Provenance == ProvenanceHybrid || results[i].Provenance == ProvenanceGraph {
			score += strat.GraphWeight
		}
		if gc := results[i].GraphContext; gc != nil && len(gc.RelatedEntities) > 0 {
			n := len(gc.RelatedEntities)
			if n > maxContextEntitiesBonus {
				n = maxContextEntitiesBonus
			}
			score += contextBonusPerEntity * float64(n)
		}
		results[i].Score = score
		metrics.SearchResultProvenance.WithLabelValues(string(results[i].Provenance)).Inc()
	}

	sort.SliceStable(results, func(i, j int) bool {
		return results[i].Score > results[j].Score
	})
	if len(results) > limit {
		results = results[:limit]
	}
	return results
}

func (e *Engine) embedQuery(ctx context.Context, query string) ([]float32, error) {
	v64, err := e.embedder.EmbedStrings(ctx, []string{query})
	if err != nil {
		return nil, err
	}
	if len(v64) == 0 {
		return nil, fmt.Errorf("empty embedding result")
	}
	vec := v64[0]
	out := make([]float32, 0, len(vec))
	for _, x := range vec {
		out = append(out, float32(x))
	}
	return out, nil
}
