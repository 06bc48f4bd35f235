// Package main 存储层一次性准备：建表、建集合与索引
package main

import (
	"context"
	"fmt"
	"log"

	"github.com/joho/godotenv"

	"hybrid-rag-api/internal/config"
	"hybrid-rag-api/internal/infrastructure/persistence/postgres"
	"hybrid-rag-api/internal/wire"
)

func main() {
	_ = godotenv.Load()

	fmt.Println("Starting storage bootstrap...")

	// 1. 加载配置
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("failed to load config: %v", err)
	}

	ctx := context.Background()

	// 2. 初始化存储客户端
	prov, cleanup, err := wire.InitializeProvisioner(ctx, cfg)
	if err != nil {
		log.Fatalf("failed to initialize storage clients: %v", err)
	}
	defer cleanup()

	// 3. 建图谱表
	fmt.Println("Migrating knowledge graph schema...")
	if err := postgres.Migrate(prov.PgClient); err != nil {
		log.Fatalf("failed to migrate graph schema: %v", err)
	}
	fmt.Println("Graph schema is up to date.")

	// 4. 建向量集合与 HNSW 索引
	fmt.Println("Ensuring vector collection...")
	if err := prov.VectorRepo.EnsureCollection(ctx); err != nil {
		log.Fatalf("failed to ensure vector collection: %v", err)
	}
	fmt.Println("Vector collection is ready.")

	fmt.Println("Bootstrap completed successfully.")
}
