package hybrid

import (
	"context"
	"time"
)

const (
	statusCacheKey = "hybrid:status:graph"
	statusCacheTTL = 15 * time.Second
)

// Capabilities 当前可用的检索能力
type Capabilities struct {
	VectorSearch bool `json:"vector_search"`
	GraphSearch  bool `json:"graph_search"`
	HybridSearch bool `json:"hybrid_search"`
}

// Capabilities 返回能力探测结果
// 向量检索视为常开，图谱与混合能力取决于图库可达性
func (e *Engine) Capabilities(ctx context.Context) Capabilities {
	graphUp := e.graphReachable(ctx)
	return Capabilities{
		VectorSearch: true,
		GraphSearch:  graphUp,
		HybridSearch: graphUp,
	}
}

// graphReachable 图库探活，结果走短 TTL 缓存避免每次状态查询都打到图库
func (e *Engine) graphReachable(ctx context.Context) bool {
	probe := func() (interface{}, error) {
		return e.graph.Ping(ctx) == nil, nil
	}

	if e.probeCache == nil {
		up, _ := probe()
		return up.(bool)
	}

	raw, err := e.probeCache.GetOrLoadSafe(ctx, statusCacheKey, statusCacheTTL, probe)
	if err != nil {
		// 缓存故障不应掩盖真实状态
		return e.graph.Ping(ctx) == nil
	}
	return string(raw) == "true"
}
