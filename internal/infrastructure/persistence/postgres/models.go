// Package postgres 提供 PostgreSQL 数据库访问层实现
package postgres

import (
	"fmt"
	"time"
)

// GraphDocumentModel 文档节点表
type GraphDocumentModel struct {
	ID         string    `gorm:"column:id;primaryKey;size:64"`
	Filename   string    `gorm:"column:filename;size:512;not null"`
	TextLength int       `gorm:"column:text_length;not null;default:0"`
	ChunkCount int       `gorm:"column:chunk_count;not null;default:0"`
	CreatedAt  time.Time `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt  time.Time `gorm:"column:updated_at;autoUpdateTime"`
}

// TableName 表名
func (GraphDocumentModel) TableName() string { return "graph_documents" }

// GraphEntityModel 实体节点表
type GraphEntityModel struct {
	ID          string    `gorm:"column:id;primaryKey;size:256"`
	DocumentID  string    `gorm:"column:document_id;size:64;index;not null"`
	Name        string    `gorm:"column:name;size:512;index;not null"`
	Type        string    `gorm:"column:type;size:32;not null"`
	Description string    `gorm:"column:description;type:text"`
	CreatedAt   time.Time `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt   time.Time `gorm:"column:updated_at;autoUpdateTime"`
}

// TableName 表名
func (GraphEntityModel) TableName() string { return "graph_entities" }

// GraphRelationshipModel 关系边表
type GraphRelationshipModel struct {
	SourceID   string    `gorm:"column:source_id;primaryKey;size:256"`
	TargetID   string    `gorm:"column:target_id;primaryKey;size:256"`
	Type       string    `gorm:"column:type;primaryKey;size:32"`
	Context    string    `gorm:"column:context;type:text"`
	Confidence float64   `gorm:"column:confidence;not null;default:0.8"`
	DocumentID string    `gorm:"column:document_id;size:64;index;not null"`
	CreatedAt  time.Time `gorm:"column:created_at;autoCreateTime"`
}

// TableName 表名
func (GraphRelationshipModel) TableName() string { return "graph_relationships" }

// GraphDocumentEntityModel 文档到实体的提及关系表
type GraphDocumentEntityModel struct {
	DocumentID string `gorm:"column:document_id;primaryKey;size:64"`
	EntityID   string `gorm:"column:entity_id;primaryKey;size:256"`
}

// TableName 表名
func (GraphDocumentEntityModel) TableName() string { return "graph_document_entities" }

// Migrate 建表与索引迁移
func Migrate(client *Client) error {
	err := client.db.AutoMigrate(
		&GraphDocumentModel{},
		&GraphEntityModel{},
		&GraphRelationshipModel{},
		&GraphDocumentEntityModel{},
	)
	if err != nil {
		return fmt.Errorf("failed to migrate graph schema: %w", err)
	}
	return nil
}
