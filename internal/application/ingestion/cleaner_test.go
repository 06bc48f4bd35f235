package ingestion

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestCleanTextRemovesControlCharacters(t *testing.T) {
	raw := "hello\x00\x01world\x0b!\x7f"
	assert.Equal(t, "helloworld!", CleanText(raw, 0))
}

func TestCleanTextDropsReplacementRune(t *testing.T) {
	assert.Equal(t, "broken text", CleanText("broken� text", 0))
}

func TestCleanTextCollapsesWhitespace(t *testing.T) {
	raw := "  one\t\ttwo\n\n\nthree   four  "
	assert.Equal(t, "one two three four", CleanText(raw, 0))
}

func TestCleanTextKeepsTabsAndNewlinesAsSeparators(t *testing.T) {
	// \t 和 \n 不属于被剥离的控制字符区间，作为空白折叠
	assert.Equal(t, "a b", CleanText("a\tb", 0))
	assert.Equal(t, "a b", CleanText("a\nb", 0))
}

func TestCleanTextTruncatesWithMarker(t *testing.T) {
	raw := strings.Repeat("x", 150)
	cleaned := CleanText(raw, 100)
	assert.Len(t, []rune(cleaned), 103)
	assert.True(t, strings.HasSuffix(cleaned, "..."))
	assert.Equal(t, strings.Repeat("x", 100), strings.TrimSuffix(cleaned, "..."))
}

func TestCleanTextEmptyInput(t *testing.T) {
	assert.Equal(t, "", CleanText("", 100))
	assert.Equal(t, "", CleanText("\x00\x01\x02", 100))
	assert.Equal(t, "", CleanText("   \t\n  ", 100))
}
