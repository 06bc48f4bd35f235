// Package entity 定义领域实体
package entity

import (
	"strings"
)

// GraphEntityType 图实体类型
type GraphEntityType string

const (
	EntityTypePerson       GraphEntityType = "PERSON"
	EntityTypeOrganization GraphEntityType = "ORGANIZATION"
	EntityTypeLocation     GraphEntityType = "LOCATION"
	EntityTypeConcept      GraphEntityType = "CONCEPT"
	EntityTypeTechnology   GraphEntityType = "TECHNOLOGY"
	EntityTypeDocument     GraphEntityType = "DOCUMENT"
)

// RelationshipType 图关系类型
type RelationshipType string

const (
	RelationRelatesTo RelationshipType = "RELATES_TO"
	RelationPartOf    RelationshipType = "PART_OF"
	RelationMentions  RelationshipType = "MENTIONS"
	RelationSimilarTo RelationshipType = "SIMILAR_TO"
	RelationContains  RelationshipType = "CONTAINS"
)

// GraphEntity 知识图谱实体节点
type GraphEntity struct {
	ID          string          `json:"id"`
	Name        string          `json:"name"`
	Type        GraphEntityType `json:"type"`
	Description string          `json:"description,omitempty"`
	DocumentID  string          `json:"document_id"`
}

// GraphRelationship 知识图谱关系边
type GraphRelationship struct {
	SourceID   string           `json:"source_id"`
	TargetID   string           `json:"target_id"`
	SourceName string           `json:"source_name"`
	TargetName string           `json:"target_name"`
	Type       RelationshipType `json:"type"`
	// Context 抽取时给出的关系依据文本
	Context    string  `json:"context,omitempty"`
	Confidence float64 `json:"confidence"`
	DocumentID string  `json:"document_id"`
}

// RelatedEntity 图遍历命中的实体及其距离与路径
type RelatedEntity struct {
	Entity   GraphEntity `json:"entity"`
	Distance int         `json:"distance"`
	Path     []string    `json:"path"`
}

// RelatedDocument 通过共享实体关联到的文档
type RelatedDocument struct {
	DocumentID     string `json:"document_id"`
	Filename       string `json:"filename,omitempty"`
	SharedEntities int    `json:"shared_entities"`
}

// DefaultRelationConfidence 抽取关系缺省置信度
const DefaultRelationConfidence = 0.8

// ParseGraphEntityType 解析实体类型，未知类型归为 CONCEPT
func ParseGraphEntityType(s string) GraphEntityType {
	switch GraphEntityType(strings.ToUpper(strings.TrimSpace(s))) {
	case EntityTypePerson:
		return EntityTypePerson
	case EntityTypeOrganization:
		return EntityTypeOrganization
	case EntityTypeLocation:
		return EntityTypeLocation
	case EntityTypeConcept:
		return EntityTypeConcept
	case EntityTypeTechnology:
		return EntityTypeTechnology
	case EntityTypeDocument:
		return EntityTypeDocument
	default:
		return EntityTypeConcept
	}
}

// ParseRelationshipType 解析关系类型，未知类型归为 RELATES_TO
func ParseRelationshipType(s string) RelationshipType {
	switch RelationshipType(strings.ToUpper(strings.TrimSpace(s))) {
	case RelationRelatesTo:
		return RelationRelatesTo
	case RelationPartOf:
		return RelationPartOf
	case RelationMentions:
		return RelationMentions
	case RelationSimilarTo:
		return RelationSimilarTo
	case RelationContains:
		return RelationContains
	default:
		return RelationRelatesTo
	}
}

// NewGraphEntityID 生成确定性实体 ID：documentID + "_entity_" + 规范化名称
// 同一文档内同名实体得到相同 ID，重复摄取幂等
func NewGraphEntityID(documentID, name string) string {
	return documentID + "_entity_" + slugifyName(name)
}

// slugifyName 名称规范化：小写、非字母数字折叠为下划线
func slugifyName(name string) string {
	lower := strings.ToLower(name)
	var b strings.Builder
	b.Grow(len(lower))
	prevUnderscore := false
	for _, r := range lower {
		if (r >= 'a' && r <= 'z') || (r >= '0' && r <= '9') {
			b.WriteRune(r)
			prevUnderscore = false
		} else if !prevUnderscore {
			b.WriteByte('_')
			prevUnderscore = true
		}
	}
	return strings.Trim(b.String(), "_")
}

// DedupeEntities 按名称去重（忽略大小写），保留首次出现
func DedupeEntities(entities []GraphEntity) []GraphEntity {
	seen := make(map[string]struct{}, len(entities))
	result := make([]GraphEntity, 0, len(entities))
	for _, e := range entities {
		key := strings.ToLower(strings.TrimSpace(e.Name))
		if key == "" {
			continue
		}
		if _, ok := seen[key]; ok {
			continue
		}
		seen[key] = struct{}{}
		result = append(result, e)
	}
	return result
}

// ResolveRelationships 将关系端点名称映射为实体 ID，丢弃无法映射的关系
// 置信度缺省为 DefaultRelationConfidence
func ResolveRelationships(documentID string, relationships []GraphRelationship, entities []GraphEntity) []GraphRelationship {
	byName := make(map[string]string, len(entities))
	for _, e := range entities {
		byName[strings.ToLower(strings.TrimSpace(e.Name))] = e.ID
	}

	result := make([]GraphRelationship, 0, len(relationships))
	for _, r := range relationships {
		sourceID, okS := byName[strings.ToLower(strings.TrimSpace(r.SourceName))]
		targetID, okT := byName[strings.ToLower(strings.TrimSpace(r.TargetName))]
		if !okS || !okT {
			continue
		}
		r.SourceID = sourceID
		r.TargetID = targetID
		r.DocumentID = documentID
		if r.Confidence <= 0 {
			r.Confidence = DefaultRelationConfidence
		}
		result = append(result, r)
	}
	return result
}
