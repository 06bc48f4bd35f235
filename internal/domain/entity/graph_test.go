package entity

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestNewGraphEntityID(t *testing.T) {
	tests := []struct {
		name     string
		docID    string
		entity   string
		expected string
	}{
		{"simple", "doc1", "Alice", "doc1_entity_alice"},
		{"spaces and punctuation", "doc1", "Acme Corp., Inc.", "doc1_entity_acme_corp_inc"},
		{"consecutive separators collapse", "doc1", "foo -- bar", "doc1_entity_foo_bar"},
		{"leading and trailing separators trimmed", "doc1", "  #Go!  ", "doc1_entity_go"},
		{"digits preserved", "d", "GPT-4", "d_entity_gpt_4"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, NewGraphEntityID(tt.docID, tt.entity))
		})
	}
}

func TestParseGraphEntityType(t *testing.T) {
	assert.Equal(t, EntityTypePerson, ParseGraphEntityType("person"))
	assert.Equal(t, EntityTypeTechnology, ParseGraphEntityType(" TECHNOLOGY "))
	assert.Equal(t, EntityTypeConcept, ParseGraphEntityType("GADGET"))
	assert.Equal(t, EntityTypeConcept, ParseGraphEntityType(""))
}

func TestParseRelationshipType(t *testing.T) {
	assert.Equal(t, RelationPartOf, ParseRelationshipType("part_of"))
	assert.Equal(t, RelationRelatesTo, ParseRelationshipType("KNOWS"))
	assert.Equal(t, RelationRelatesTo, ParseRelationshipType(""))
}

func TestDedupeEntities(t *testing.T) {
	entities := []GraphEntity{
		{ID: "d_entity_alice", Name: "Alice", Type: EntityTypePerson},
		{ID: "d_entity_alice2", Name: "ALICE", Type: EntityTypeConcept},
		{ID: "d_entity_bob", Name: "Bob", Type: EntityTypePerson},
		{Name: "   "},
	}

	deduped := DedupeEntities(entities)
	assert.Len(t, deduped, 2)
	// 保留首次出现的版本
	assert.Equal(t, "Alice", deduped[0].Name)
	assert.Equal(t, EntityTypePerson, deduped[0].Type)
	assert.Equal(t, "Bob", deduped[1].Name)
}

func TestResolveRelationships(t *testing.T) {
	entities := []GraphEntity{
		{ID: "d_entity_alice", Name: "Alice"},
		{ID: "d_entity_acme", Name: "Acme"},
	}
	relationships := []GraphRelationship{
		{SourceName: "alice", TargetName: "Acme", Type: RelationPartOf, Context: "Alice works at Acme"},
		{SourceName: "Alice", TargetName: "Ghost", Type: RelationRelatesTo},
		{SourceName: "Nobody", TargetName: "Acme", Type: RelationRelatesTo},
	}

	resolved := ResolveRelationships("d", relationships, entities)
	assert.Len(t, resolved, 1)
	assert.Equal(t, "d_entity_alice", resolved[0].SourceID)
	assert.Equal(t, "d_entity_acme", resolved[0].TargetID)
	assert.Equal(t, "d", resolved[0].DocumentID)
	assert.Equal(t, "Alice works at Acme", resolved[0].Context)
	assert.InDelta(t, DefaultRelationConfidence, resolved[0].Confidence, 1e-9)
}

func TestResolveRelationshipsKeepsExplicitConfidence(t *testing.T) {
	entities := []GraphEntity{
		{ID: "d_entity_a", Name: "A"},
		{ID: "d_entity_b", Name: "B"},
	}
	resolved := ResolveRelationships("d", []GraphRelationship{
		{SourceName: "A", TargetName: "B", Type: RelationContains, Confidence: 0.42},
	}, entities)
	assert.Len(t, resolved, 1)
	assert.InDelta(t, 0.42, resolved[0].Confidence, 1e-9)
}
