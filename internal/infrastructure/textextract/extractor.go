// Package textextract 提供上传文件的纯文本提取
package textextract

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"strings"
	"unicode/utf8"
)

// ErrUnsupportedFileType 不支持的文件类型
var ErrUnsupportedFileType = errors.New("unsupported file type")

// ErrBinaryContent 内容不是有效的 UTF-8 文本
var ErrBinaryContent = errors.New("file content is not valid utf-8 text")

// 已知二进制格式，直接拒绝
var binaryExtensions = map[string]struct{}{
	".pdf": {}, ".doc": {}, ".docx": {}, ".xls": {}, ".xlsx": {},
	".png": {}, ".jpg": {}, ".jpeg": {}, ".gif": {}, ".webp": {},
	".zip": {}, ".gz": {}, ".tar": {}, ".exe": {}, ".bin": {},
	".mp3": {}, ".mp4": {}, ".wav": {}, ".avi": {},
}

// PlainTextExtractor 纯文本提取器，实现 ingestion.TextExtractor
// 文本文件按 UTF-8 解码透传，二进制格式拒绝
type PlainTextExtractor struct{}

// NewPlainTextExtractor 创建纯文本提取器
func NewPlainTextExtractor() *PlainTextExtractor {
	return &PlainTextExtractor{}
}

// ExtractText 从上传文件中提取纯文本
func (e *PlainTextExtractor) ExtractText(_ context.Context, filename string, data []byte) (string, error) {
	ext := strings.ToLower(filepath.Ext(filename))
	if _, ok := binaryExtensions[ext]; ok {
		return "", fmt.Errorf("%w: %s", ErrUnsupportedFileType, ext)
	}

	if !utf8.Valid(data) {
		return "", ErrBinaryContent
	}

	return string(data), nil
}
