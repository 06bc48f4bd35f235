package extraction

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/cloudwego/eino/components/model"
	"github.com/cloudwego/eino/schema"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"hybrid-rag-api/internal/domain/entity"
)

type fakeChatModel struct {
	content    string
	err        error
	calls      int
	lastPrompt string
}

func (f *fakeChatModel) Generate(_ context.Context, in []*schema.Message, _ ...model.Option) (*schema.Message, error) {
	f.calls++
	if len(in) > 0 {
		f.lastPrompt = in[len(in)-1].Content
	}
	if f.err != nil {
		return nil, f.err
	}
	return schema.AssistantMessage(f.content, nil), nil
}

func (f *fakeChatModel) Stream(context.Context, []*schema.Message, ...model.Option) (*schema.StreamReader[*schema.Message], error) {
	return nil, errors.New("not implemented")
}

func TestExtractEntities(t *testing.T) {
	cm := &fakeChatModel{content: "Here is the result:\n```json\n" + `{
		"entities": [
			{"name": "Alice", "type": "person", "description": "engineer"},
			{"name": "Acme", "type": "ORGANIZATION"},
			{"name": "  ", "type": "CONCEPT"},
			{"name": "Quantum", "type": "MADE_UP"}
		],
		"relationships": [
			{"from": "Alice", "to": "Acme", "type": "PART_OF", "description": "Alice works at Acme"},
			{"from": "", "to": "Acme", "type": "RELATES_TO"}
		]
	}` + "\n```"}
	ex := NewExtractor(cm)

	out, err := ex.ExtractEntities(context.Background(), "Alice works at Acme.")
	require.NoError(t, err)

	require.Len(t, out.Entities, 3)
	assert.Equal(t, "Alice", out.Entities[0].Name)
	assert.Equal(t, entity.EntityTypePerson, out.Entities[0].Type)
	assert.Equal(t, "engineer", out.Entities[0].Description)
	// 未知类型归为 CONCEPT
	assert.Equal(t, entity.EntityTypeConcept, out.Entities[2].Type)

	// 空端点关系被丢弃
	require.Len(t, out.Relationships, 1)
	assert.Equal(t, "Alice", out.Relationships[0].SourceName)
	assert.Equal(t, entity.RelationPartOf, out.Relationships[0].Type)
	// 关系依据文本随关系保留
	assert.Equal(t, "Alice works at Acme", out.Relationships[0].Context)

	assert.Contains(t, cm.lastPrompt, "Alice works at Acme.")
}

func TestExtractEntitiesInvalidJSON(t *testing.T) {
	ex := NewExtractor(&fakeChatModel{content: "I could not find any entities."})
	_, err := ex.ExtractEntities(context.Background(), "text")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to parse extraction response")
}

func TestExtractEntitiesModelError(t *testing.T) {
	ex := NewExtractor(&fakeChatModel{err: errors.New("rate limited")})
	_, err := ex.ExtractEntities(context.Background(), "text")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to generate extraction")
}

func TestExtractQueryEntities(t *testing.T) {
	cm := &fakeChatModel{content: `["Alice", "alice", "Acme", " ", "GPT-4"]`}
	ex := NewExtractor(cm)

	names, err := ex.ExtractQueryEntities(context.Background(), "who is Alice at Acme")
	require.NoError(t, err)
	// 大小写不敏感去重，保留首次出现
	assert.Equal(t, []string{"Alice", "Acme", "GPT-4"}, names)
}

func TestExtractQueryEntitiesEmpty(t *testing.T) {
	ex := NewExtractor(&fakeChatModel{content: "[]"})
	names, err := ex.ExtractQueryEntities(context.Background(), "generic question")
	require.NoError(t, err)
	assert.Empty(t, names)
}

func TestClipJSONValue(t *testing.T) {
	assert.Equal(t, `{"a":1}`, clipJSONValue("noise before {\"a\":1} noise after"))
	assert.Equal(t, `["x"]`, clipJSONValue("```json\n[\"x\"]\n```"))
	assert.Equal(t, `{"a":[1,2]}`, clipJSONValue(`{"a":[1,2]}`))
	assert.Equal(t, "plain text", clipJSONValue("plain text"))
}

type fakeEntityCache struct {
	store    map[string][]byte
	loadErrs []error
	loads    int
}

func (f *fakeEntityCache) GetOrLoadSafe(_ context.Context, key string, _ time.Duration, loader func() (interface{}, error)) ([]byte, error) {
	if v, ok := f.store[key]; ok {
		return v, nil
	}
	f.loads++
	data, err := loader()
	if err != nil {
		return nil, err
	}
	bytes, err := json.Marshal(data)
	if err != nil {
		return nil, err
	}
	if f.store == nil {
		f.store = make(map[string][]byte)
	}
	f.store[key] = bytes
	return bytes, nil
}

func TestCachedQueryExtractor(t *testing.T) {
	cm := &fakeChatModel{content: `["Alice"]`}
	cache := &fakeEntityCache{}
	cached := NewCachedQueryExtractor(NewExtractor(cm), cache)

	names, err := cached.ExtractQueryEntities(context.Background(), "who is Alice")
	require.NoError(t, err)
	assert.Equal(t, []string{"Alice"}, names)
	assert.Equal(t, 1, cm.calls)

	// 第二次命中缓存，不再调用模型
	names, err = cached.ExtractQueryEntities(context.Background(), "who is Alice")
	require.NoError(t, err)
	assert.Equal(t, []string{"Alice"}, names)
	assert.Equal(t, 1, cm.calls)

	// 不同查询产生不同缓存键
	cm.content = `["Acme"]`
	names, err = cached.ExtractQueryEntities(context.Background(), "what is Acme")
	require.NoError(t, err)
	assert.Equal(t, []string{"Acme"}, names)
	assert.Equal(t, 2, cm.calls)
}

func TestCachedQueryExtractorNilCache(t *testing.T) {
	cm := &fakeChatModel{content: `["Alice"]`}
	cached := NewCachedQueryExtractor(NewExtractor(cm), nil)

	names, err := cached.ExtractQueryEntities(context.Background(), "who is Alice")
	require.NoError(t, err)
	assert.Equal(t, []string{"Alice"}, names)
}
