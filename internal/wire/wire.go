//go:build wireinject
// +build wireinject

// Package wire 提供依赖注入配置
package wire

import (
	"context"

	"github.com/google/wire"

	"hybrid-rag-api/internal/application/hybrid"
	"hybrid-rag-api/internal/application/ingestion"
	"hybrid-rag-api/internal/config"
	"hybrid-rag-api/internal/domain/repository"
	"hybrid-rag-api/internal/infrastructure/extraction"
	"hybrid-rag-api/internal/infrastructure/llm"
	"hybrid-rag-api/internal/infrastructure/persistence/milvus"
	"hybrid-rag-api/internal/infrastructure/persistence/postgres"
	"hybrid-rag-api/internal/infrastructure/persistence/redis"
	"hybrid-rag-api/internal/infrastructure/textextract"
	"hybrid-rag-api/internal/interfaces/http/handler"
	"hybrid-rag-api/internal/interfaces/http/middleware"
	"hybrid-rag-api/internal/interfaces/http/router"
)

// InitializeApp 初始化整个应用（带路由器）
func InitializeApp(ctx context.Context, cfg *config.Config) (*router.Router, func(), error) {
	wire.Build(
		PostgresSet,
		RedisSet,
		MilvusSet,
		EmbeddingSet,
		ExtractionSet,
		ApplicationSet,
		RouterSet,
	)
	return nil, nil, nil
}

// InitializeProvisioner 初始化存储准备所需的最小依赖（用于 bootstrap）
func InitializeProvisioner(ctx context.Context, cfg *config.Config) (*Provisioner, func(), error) {
	wire.Build(
		ProvidePostgresClient,
		ProvideMilvusClient,
		ProvideVectorRepository,
		wire.Struct(new(Provisioner), "*"),
	)
	return nil, nil, nil
}

// PostgresSet PostgreSQL 提供者集合
var PostgresSet = wire.NewSet(
	ProvidePostgresClient,
	postgres.NewTxManager,
	postgres.NewGraphRepository,
	wire.Bind(new(repository.Transactor), new(*postgres.TxManager)),
	wire.Bind(new(repository.GraphRepository), new(*postgres.GraphRepository)),
)

// RedisSet Redis 提供者集合
var RedisSet = wire.NewSet(
	ProvideRedisClient,
	redis.NewCache,
	redis.NewRateLimiter,
	wire.Bind(new(middleware.RateLimiter), new(*redis.RateLimiter)),
	wire.Bind(new(hybrid.ProbeCache), new(*redis.Cache)),
	wire.Bind(new(extraction.EntityCache), new(*redis.Cache)),
)

// MilvusSet Milvus 提供者集合
var MilvusSet = wire.NewSet(
	ProvideMilvusClient,
	ProvideVectorRepository,
	wire.Bind(new(repository.VectorRepository), new(*milvus.Repository)),
)

// EmbeddingSet Embedder 提供者集合
var EmbeddingSet = wire.NewSet(
	ProvideEmbedder,
)

// ExtractionSet LLM 实体抽取提供者集合
var ExtractionSet = wire.NewSet(
	llm.NewEinoFactory,
	ProvideChatModel,
	extraction.NewExtractor,
	ProvideQueryExtractor,
	wire.Bind(new(ingestion.EntityExtractor), new(*extraction.Extractor)),
)

// ApplicationSet 应用层提供者集合
var ApplicationSet = wire.NewSet(
	ProvideIngestionOptions,
	ProvideEngineOptions,
	ingestion.NewPipeline,
	hybrid.NewEngine,
	textextract.NewPlainTextExtractor,
	wire.Bind(new(ingestion.TextExtractor), new(*textextract.PlainTextExtractor)),
)

// RouterSet 路由器提供者集合
var RouterSet = wire.NewSet(
	handler.NewHealthHandler,
	ProvideHybridHandler,
	handler.NewDocumentHandler,
	wire.Struct(new(router.Handlers), "*"),
	router.New,
)
