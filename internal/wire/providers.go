// Package wire 提供依赖注入配置
package wire

import (
	"context"

	einoembedding "github.com/cloudwego/eino/components/embedding"
	"github.com/cloudwego/eino/components/model"

	"hybrid-rag-api/internal/application/hybrid"
	"hybrid-rag-api/internal/application/ingestion"
	"hybrid-rag-api/internal/config"
	infraembedding "hybrid-rag-api/internal/infrastructure/embedding"
	"hybrid-rag-api/internal/infrastructure/extraction"
	"hybrid-rag-api/internal/infrastructure/llm"
	"hybrid-rag-api/internal/infrastructure/persistence/milvus"
	"hybrid-rag-api/internal/infrastructure/persistence/postgres"
	"hybrid-rag-api/internal/infrastructure/persistence/redis"
	"hybrid-rag-api/internal/interfaces/http/handler"
)

// Provisioner 一次性基础设施准备所需的依赖（用于 bootstrap）
type Provisioner struct {
	PgClient   *postgres.Client
	VectorRepo *milvus.Repository
}

// ProvidePostgresClient 提供 PostgreSQL 客户端
func ProvidePostgresClient(cfg *config.Config) (*postgres.Client, func(), error) {
	client, err := postgres.NewClient(&cfg.Database.Postgres)
	if err != nil {
		return nil, nil, err
	}
	cleanup := func() {
		client.Close()
	}
	return client, cleanup, nil
}

// ProvideRedisClient 提供 Redis 客户端
func ProvideRedisClient(cfg *config.Config) (*redis.Client, func(), error) {
	client, err := redis.NewClient(&cfg.Cache.Redis)
	if err != nil {
		return nil, nil, err
	}
	cleanup := func() {
		client.Close()
	}
	return client, cleanup, nil
}

// ProvideMilvusClient 提供 Milvus 客户端
func ProvideMilvusClient(ctx context.Context, cfg *config.Config) (*milvus.Client, func(), error) {
	client, err := milvus.NewClient(ctx, &cfg.Vector.Milvus)
	if err != nil {
		return nil, nil, err
	}
	cleanup := func() {
		client.Close()
	}
	return client, cleanup, nil
}

// ProvideVectorRepository 提供向量仓储
func ProvideVectorRepository(client *milvus.Client, cfg *config.Config) *milvus.Repository {
	return milvus.NewRepository(client, cfg.Embedding.Dimension)
}

// ProvideEmbedder 提供 Embedder
func ProvideEmbedder(ctx context.Context, cfg *config.Config) (einoembedding.Embedder, error) {
	return infraembedding.NewEmbedder(ctx, &cfg.Embedding)
}

// ProvideChatModel 提供默认 ChatModel
func ProvideChatModel(ctx context.Context, factory *llm.EinoFactory) (model.BaseChatModel, error) {
	return factory.Default(ctx)
}

// ProvideQueryExtractor 提供带缓存的查询实体抽取器
func ProvideQueryExtractor(extractor *extraction.Extractor, cache extraction.EntityCache) hybrid.QueryEntityExtractor {
	return extraction.NewCachedQueryExtractor(extractor, cache)
}

// ProvideIngestionOptions 提供摄取管线参数
func ProvideIngestionOptions(cfg *config.Config) ingestion.Options {
	return ingestion.Options{
		ChunkSize:        cfg.Ingestion.ChunkSize,
		ChunkOverlap:     cfg.Ingestion.ChunkOverlap,
		MaxTextLength:    cfg.Ingestion.MaxTextLength,
		EmbeddingBatch:   cfg.Ingestion.EmbeddingBatch,
		BatchDelay:       cfg.Ingestion.BatchDelay,
		ExtractionWindow: cfg.Ingestion.ExtractionWindow,
	}
}

// ProvideEngineOptions 提供检索引擎参数
func ProvideEngineOptions(cfg *config.Config) hybrid.Options {
	return hybrid.Options{
		DefaultLimit:    cfg.Search.DefaultLimit,
		OverfetchFactor: cfg.Search.OverfetchFactor,
	}
}

// ProvideHybridHandler 提供混合检索处理器
func ProvideHybridHandler(engine *hybrid.Engine, pipeline *ingestion.Pipeline, textExtractor ingestion.TextExtractor, cfg *config.Config) *handler.HybridHandler {
	return handler.NewHybridHandler(engine, pipeline, textExtractor, cfg.Server.HTTP.MaxUploadSize)
}
