package ingestion

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSplitShortTextSingleChunk(t *testing.T) {
	chunks := Split("short text", 1000, 200)
	require.Len(t, chunks, 1)
	assert.Equal(t, "short text", chunks[0])
}

func TestSplitEmpty(t *testing.T) {
	assert.Nil(t, Split("", 1000, 200))
	assert.Nil(t, Split("   ", 1000, 200))
}

func TestSplitPrefersSentenceBoundary(t *testing.T) {
	text := "First sentence. Second sentence here."
	chunks := Split(text, 20, 0)
	require.NotEmpty(t, chunks)
	assert.Equal(t, "First sentence.", chunks[0])
}

func TestSplitChunkSizeBound(t *testing.T) {
	text := strings.Repeat("lorem ipsum dolor sit amet ", 200)
	chunks := Split(text, 100, 20)
	require.Greater(t, len(chunks), 1)
	for _, c := range chunks {
		assert.LessOrEqual(t, len([]rune(c)), 100)
		assert.NotEmpty(t, strings.TrimSpace(c))
	}
}

func TestSplitCoversTextEnds(t *testing.T) {
	text := "alpha beta gamma delta epsilon zeta eta theta iota kappa"
	chunks := Split(text, 20, 5)
	require.NotEmpty(t, chunks)
	assert.True(t, strings.HasPrefix(text, strings.Fields(chunks[0])[0]))
	last := chunks[len(chunks)-1]
	assert.True(t, strings.HasSuffix(text, strings.Fields(last)[len(strings.Fields(last))-1]))
}

func TestSplitNoSeparatorsHardCut(t *testing.T) {
	text := strings.Repeat("x", 250)
	chunks := Split(text, 100, 0)
	require.Len(t, chunks, 3)
	assert.Equal(t, 100, len(chunks[0]))
	assert.Equal(t, 100, len(chunks[1]))
	assert.Equal(t, 50, len(chunks[2]))
}

func TestSplitOverlapGreaterThanSizeIsClamped(t *testing.T) {
	text := strings.Repeat("y", 300)
	chunks := Split(text, 100, 150)
	// overlap 被收敛到 size/2，不会死循环
	require.NotEmpty(t, chunks)
	assert.LessOrEqual(t, len(chunks), 10)
}
