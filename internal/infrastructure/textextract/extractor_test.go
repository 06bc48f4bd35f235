package textextract

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestExtractTextPlain(t *testing.T) {
	e := NewPlainTextExtractor()
	text, err := e.ExtractText(context.Background(), "notes.txt", []byte("hello 世界"))
	require.NoError(t, err)
	assert.Equal(t, "hello 世界", text)
}

func TestExtractTextMarkdown(t *testing.T) {
	e := NewPlainTextExtractor()
	text, err := e.ExtractText(context.Background(), "README.md", []byte("# Title"))
	require.NoError(t, err)
	assert.Equal(t, "# Title", text)
}

func TestExtractTextBinaryExtension(t *testing.T) {
	e := NewPlainTextExtractor()
	_, err := e.ExtractText(context.Background(), "report.PDF", []byte("%PDF-1.4"))
	assert.ErrorIs(t, err, ErrUnsupportedFileType)
}

func TestExtractTextInvalidUTF8(t *testing.T) {
	e := NewPlainTextExtractor()
	_, err := e.ExtractText(context.Background(), "data.txt", []byte{0xff, 0xfe, 0x00, 0x01})
	assert.ErrorIs(t, err, ErrBinaryContent)
}
