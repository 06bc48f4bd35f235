// Package extraction 提供基于 LLM 的实体与关系抽取
package extraction

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/cloudwego/eino/components/model"
	"github.com/cloudwego/eino/schema"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"

	"hybrid-rag-api/internal/application/ingestion"
	"hybrid-rag-api/internal/domain/entity"
	"hybrid-rag-api/pkg/metrics"
)

var tracer = otel.Tracer("extraction")

const (
	documentPromptTemplate = `Extract entities and relationships from the following text.
Return a JSON object with "entities" and "relationships" arrays.

For entities, include:
- name: the entity name
- type: PERSON, ORGANIZATION, LOCATION, CONCEPT, or TECHNOLOGY
- description: brief description

For relationships, include:
- from: source entity name
- to: target entity name
- type: RELATES_TO, PART_OF, MENTIONS, or SIMILAR_TO
- description: relationship description

Text: "%s"

Return only valid JSON:`

	queryPromptTemplate = `Extract the main entities (names, organizations, concepts, technologies) from this search query.
Return only a JSON array of entity names.

Query: "%s"`
)

// Extractor LLM 抽取器，实现 ingestion.EntityExtractor 与 hybrid.QueryEntityExtractor
type Extractor struct {
	chatModel model.BaseChatModel
}

// NewExtractor 创建抽取器
func NewExtractor(chatModel model.BaseChatModel) *Extractor {
	return &Extractor{chatModel: chatModel}
}

type extractedEntity struct {
	Name        string `json:"name"`
	Type        string `json:"type"`
	Description string `json:"description"`
}

type extractedRelationship struct {
	From        string `json:"from"`
	To          string `json:"to"`
	Type        string `json:"type"`
	Description string `json:"description"`
}

type extractionPayload struct {
	Entities      []extractedEntity      `json:"entities"`
	Relationships []extractedRelationship `json:"relationships"`
}

// ExtractEntities 从文档片段抽取实体与关系
// 返回的实体尚未分配 ID，由摄取管线补全
func (e *Extractor) ExtractEntities(ctx context.Context, text string) (result *ingestion.Extraction, err error) {
	ctx, span := tracer.Start(ctx, "extraction.ExtractEntities")
	defer span.End()
	start := time.Now()
	defer func() { observeExtraction("document", start, err) }()

	prompt := fmt.Sprintf(documentPromptTemplate, text)
	outMsg, err := e.chatModel.Generate(ctx, []*schema.Message{schema.UserMessage(prompt)},
		model.WithTemperature(0.3))
	if err != nil {
		span.RecordError(err)
		return nil, fmt.Errorf("failed to generate extraction: %w", err)
	}

	var payload extractionPayload
	raw := clipJSONValue(outMsg.Content)
	if unmarshalErr := json.Unmarshal([]byte(raw), &payload); unmarshalErr != nil {
		span.RecordError(unmarshalErr)
		err = fmt.Errorf("failed to parse extraction response: %w", unmarshalErr)
		return nil, err
	}

	result = &ingestion.Extraction{}
	for _, ee := range payload.Entities {
		name := strings.TrimSpace(ee.Name)
		if name == "" {
			continue
		}
		result.Entities = append(result.Entities, entity.GraphEntity{
			Name:        name,
			Type:        entity.ParseGraphEntityType(ee.Type),
			Description: strings.TrimSpace(ee.Description),
		})
	}
	for _, er := range payload.Relationships {
		from := strings.TrimSpace(er.From)
		to := strings.TrimSpace(er.To)
		if from == "" || to == "" {
			continue
		}
		result.Relationships = append(result.Relationships, entity.GraphRelationship{
			SourceName: from,
			TargetName: to,
			Type:       entity.ParseRelationshipType(er.Type),
			Context:    strings.TrimSpace(er.Description),
		})
	}

	span.SetAttributes(
		attribute.Int("entity_count", len(result.Entities)),
		attribute.Int("relationship_count", len(result.Relationships)),
	)
	return result, nil
}

// ExtractQueryEntities 从查询语句抽取实体名
func (e *Extractor) ExtractQueryEntities(ctx context.Context, query string) (names []string, err error) {
	ctx, span := tracer.Start(ctx, "extraction.ExtractQueryEntities")
	defer span.End()
	start := time.Now()
	defer func() { observeExtraction("query", start, err) }()

	prompt := fmt.Sprintf(queryPromptTemplate, query)
	outMsg, err := e.chatModel.Generate(ctx, []*schema.Message{schema.UserMessage(prompt)},
		model.WithTemperature(0.1))
	if err != nil {
		span.RecordError(err)
		return nil, fmt.Errorf("failed to generate query extraction: %w", err)
	}

	var parsed []string
	raw := clipJSONValue(outMsg.Content)
	if unmarshalErr := json.Unmarshal([]byte(raw), &parsed); unmarshalErr != nil {
		span.RecordError(unmarshalErr)
		err = fmt.Errorf("failed to parse query extraction response: %w", unmarshalErr)
		return nil, err
	}

	seen := make(map[string]struct{}, len(parsed))
	for _, n := range parsed {
		n = strings.TrimSpace(n)
		if n == "" {
			continue
		}
		key := strings.ToLower(n)
		if _, ok := seen[key]; ok {
			continue
		}
		seen[key] = struct{}{}
		names = append(names, n)
	}

	span.SetAttributes(attribute.Int("entity_count", len(names)))
	return names, nil
}

func observeExtraction(mode string, start time.Time, err error) {
	status := "success"
	if err != nil {
		status = "error"
	}
	metrics.ExtractionDuration.WithLabelValues(mode).Observe(time.Since(start).Seconds())
	metrics.ExtractionTotal.WithLabelValues(mode, status).Inc()
}
