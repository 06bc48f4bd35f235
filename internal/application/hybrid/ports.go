package hybrid

import (
	"context"
	"time"
)

// QueryEntityExtractor 从查询语句抽取实体名
type QueryEntityExtractor interface {
	ExtractQueryEntities(ctx context.Context, query string) ([]string, error)
}

// ProbeCache 图库探活结果的短 TTL 缓存
type ProbeCache interface {
	GetOrLoadSafe(ctx context.Context, key string, ttl time.Duration, loader func() (interface{}, error)) ([]byte, error)
}
