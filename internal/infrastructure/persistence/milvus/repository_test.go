package milvus

import (
	"testing"

	"github.com/milvus-io/milvus-sdk-go/v2/client"
	milvusentity "github.com/milvus-io/milvus-sdk-go/v2/entity"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSearchHitsKeepsCosineScoreAsSimilarity(t *testing.T) {
	result := client.SearchResult{
		ResultCount: 2,
		Scores:      []float32{0.95, 0.10},
		Fields: client.ResultSet{
			milvusentity.NewColumnVarChar("id", []string{"c1", "c2"}),
			milvusentity.NewColumnVarChar("document_id", []string{"d1", "d2"}),
			milvusentity.NewColumnVarChar("filename", []string{"a.txt", "b.txt"}),
			milvusentity.NewColumnInt64("chunk_index", []int64{0, 3}),
			milvusentity.NewColumnVarChar("chunk_content", []string{"close match", "far match"}),
			milvusentity.NewColumnVarChar("metadata", []string{"{}", `{"k":"v"}`}),
		},
	}

	hits := searchHits(result)
	require.Len(t, hits, 2)

	// COSINE 分数即相似度，高分命中保持更高的相似度
	assert.InDelta(t, 0.95, hits[0].Similarity, 1e-6)
	assert.InDelta(t, 0.10, hits[1].Similarity, 1e-6)
	assert.Greater(t, hits[0].Similarity, hits[1].Similarity)

	assert.Equal(t, "c1", hits[0].Chunk.ID)
	assert.Equal(t, "d2", hits[1].Chunk.DocumentID)
	assert.Equal(t, 3, hits[1].Chunk.Index)
	assert.Nil(t, hits[0].Chunk.Metadata)
	assert.Equal(t, map[string]string{"k": "v"}, hits[1].Chunk.Metadata)
}

func TestSearchHitsMissingColumns(t *testing.T) {
	result := client.SearchResult{
		ResultCount: 1,
		Scores:      []float32{0.5},
		Fields:      client.ResultSet{},
	}

	hits := searchHits(result)
	require.Len(t, hits, 1)
	assert.Equal(t, "", hits[0].Chunk.ID)
	assert.Equal(t, 0, hits[0].Chunk.Index)
	assert.InDelta(t, 0.5, hits[0].Similarity, 1e-6)
}

func TestMetadataCodec(t *testing.T) {
	assert.Equal(t, "{}", encodeMetadata(nil))
	assert.Nil(t, decodeMetadata("{}"))
	assert.Nil(t, decodeMetadata("not json"))

	encoded := encodeMetadata(map[string]string{"source": "upload"})
	assert.Equal(t, map[string]string{"source": "upload"}, decodeMetadata(encoded))
}
