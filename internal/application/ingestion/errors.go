package ingestion

import "errors"

var (
	// ErrEmptyContent 清洗后文本为空
	ErrEmptyContent = errors.New("document contains no extractable text")
	// ErrGraphUnavailable 图库不可达，摄取前置检查失败
	ErrGraphUnavailable = errors.New("graph store unavailable")
	// ErrEmbeddingFailed 向量生成失败
	ErrEmbeddingFailed = errors.New("embedding generation failed")
)
