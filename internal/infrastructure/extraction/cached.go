package extraction

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"hybrid-rag-api/internal/application/hybrid"
)

// queryEntitiesTTL 查询实体缓存时长
const queryEntitiesTTL = 10 * time.Minute

// EntityCache 查询实体缓存接口，由 redis.Cache 提供
type EntityCache interface {
	GetOrLoadSafe(ctx context.Context, key string, ttl time.Duration, loader func() (interface{}, error)) ([]byte, error)
}

// CachedQueryExtractor 带缓存的查询实体抽取器
// 相同查询在缓存期内不重复调用 LLM，singleflight 合并并发请求
type CachedQueryExtractor struct {
	inner hybrid.QueryEntityExtractor
	cache EntityCache
}

// NewCachedQueryExtractor 创建带缓存的查询实体抽取器
func NewCachedQueryExtractor(inner hybrid.QueryEntityExtractor, cache EntityCache) *CachedQueryExtractor {
	return &CachedQueryExtractor{inner: inner, cache: cache}
}

// ExtractQueryEntities 从查询语句抽取实体名（缓存优先）
func (c *CachedQueryExtractor) ExtractQueryEntities(ctx context.Context, query string) ([]string, error) {
	if c.cache == nil {
		return c.inner.ExtractQueryEntities(ctx, query)
	}

	raw, err := c.cache.GetOrLoadSafe(ctx, queryEntitiesCacheKey(query), queryEntitiesTTL, func() (interface{}, error) {
		return c.inner.ExtractQueryEntities(ctx, query)
	})
	if err != nil {
		return nil, err
	}

	var names []string
	if err := json.Unmarshal(raw, &names); err != nil {
		return nil, fmt.Errorf("failed to decode cached query entities: %w", err)
	}
	return names, nil
}

// queryEntitiesCacheKey 查询文本哈希作为缓存键
func queryEntitiesCacheKey(query string) string {
	sum := sha256.Sum256([]byte(strings.ToLower(strings.TrimSpace(query))))
	return "hybrid:entities:" + hex.EncodeToString(sum[:8])
}
