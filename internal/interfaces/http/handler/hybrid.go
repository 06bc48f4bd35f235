// Package handler 提供 HTTP 请求处理器
package handler

import (
	stderrors "errors"
	"io"

	"github.com/gin-gonic/gin"

	"hybrid-rag-api/internal/application/hybrid"
	"hybrid-rag-api/internal/application/ingestion"
	"hybrid-rag-api/internal/infrastructure/textextract"
	"hybrid-rag-api/internal/interfaces/http/dto"
	"hybrid-rag-api/pkg/errors"
	"hybrid-rag-api/pkg/logger"
)

const (
	// 响应中单条结果内容的截断长度
	maxResultContentLength = 500
	// 响应中单条结果附带的上下文实体上限
	maxRelatedEntityNames = 5

	defaultMaxUploadSize = 10 << 20
)

// HybridHandler 混合检索处理器
type HybridHandler struct {
	engine        *hybrid.Engine
	pipeline      *ingestion.Pipeline
	textExtractor ingestion.TextExtractor
	maxUploadSize int64
}

// NewHybridHandler 创建混合检索处理器
func NewHybridHandler(engine *hybrid.Engine, pipeline *ingestion.Pipeline, textExtractor ingestion.TextExtractor, maxUploadSize int64) *HybridHandler {
	if maxUploadSize <= 0 {
		maxUploadSize = defaultMaxUploadSize
	}
	return &HybridHandler{
		engine:        engine,
		pipeline:      pipeline,
		textExtractor: textExtractor,
		maxUploadSize: maxUploadSize,
	}
}

// Upload 摄取文档
// @Summary 摄取文档
// @Description 上传文本文件，完成分块、向量化、实体抽取与图谱写入
// @Tags Hybrid
// @Accept multipart/form-data
// @Produce json
// @Param file formData file true "文本文件"
// @Success 200 {object} dto.Response[dto.UploadResponse]
// @Failure 400 {object} dto.ErrorResponse
// @Failure 503 {object} dto.ErrorResponse
// @Router /v1/hybrid/upload-hybrid [post]
func (h *HybridHandler) Upload(c *gin.Context) {
	ctx := c.Request.Context()

	fileHeader, err := c.FormFile("file")
	if err != nil {
		respondError(c, errors.ErrFileMissing)
		return
	}
	if fileHeader.Size > h.maxUploadSize {
		dto.BadRequest(c, "file too large")
		return
	}

	file, err := fileHeader.Open()
	if err != nil {
		logger.Error(ctx, "failed to open uploaded file", err, "filename", fileHeader.Filename)
		dto.InternalError(c, "failed to read uploaded file")
		return
	}
	defer file.Close()

	data, err := io.ReadAll(io.LimitReader(file, h.maxUploadSize+1))
	if err != nil {
		logger.Error(ctx, "failed to read uploaded file", err, "filename", fileHeader.Filename)
		dto.InternalError(c, "failed to read uploaded file")
		return
	}
	if int64(len(data)) > h.maxUploadSize {
		dto.BadRequest(c, "file too large")
		return
	}

	text, err := h.textExtractor.ExtractText(ctx, fileHeader.Filename, data)
	if err != nil {
		if stderrors.Is(err, textextract.ErrUnsupportedFileType) || stderrors.Is(err, textextract.ErrBinaryContent) {
			dto.BadRequest(c, err.Error())
			return
		}
		logger.Error(ctx, "text extraction failed", err, "filename", fileHeader.Filename)
		dto.InternalError(c, "failed to extract text from file")
		return
	}

	result, err := h.pipeline.Ingest(ctx, fileHeader.Filename, text)
	if err != nil {
		switch {
		case stderrors.Is(err, ingestion.ErrGraphUnavailable):
			dto.ServiceUnavailable(c, "knowledge graph store unavailable, upload rejected")
		case stderrors.Is(err, ingestion.ErrEmptyContent):
			respondError(c, errors.ErrEmptyContent)
		default:
			logger.Error(ctx, "ingestion failed", err, "filename", fileHeader.Filename)
			dto.InternalError(c, "failed to ingest document")
		}
		return
	}

	features := []string{"vector_search"}
	if result.GraphIndexed {
		features = append(features, "knowledge_graph")
	}
	if result.EntityCount > 0 {
		features = append(features, "entity_extraction")
	}

	dto.Success(c, dto.UploadResponse{
		DocumentID:        result.DocumentID,
		Filename:          result.Filename,
		TextLength:        result.TextLength,
		ChunkCount:        result.ChunkCount,
		EntityCount:       result.EntityCount,
		RelationshipCount: result.RelationshipCount,
		Features:          features,
		Warning:           result.Warning,
	})
}

// Search 混合检索
// @Summary 混合检索
// @Description 向量检索与知识图谱扩展的加权融合
// @Tags Hybrid
// @Accept json
// @Produce json
// @Param body body dto.SearchRequest true "检索请求"
// @Success 200 {object} dto.Response[dto.SearchResponse]
// @Failure 400 {object} dto.ErrorResponse
// @Router /v1/hybrid/search-hybrid [post]
func (h *HybridHandler) Search(c *gin.Context) {
	ctx := c.Request.Context()

	var req dto.SearchRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		dto.BadRequest(c, "query is required")
		return
	}

	out, err := h.engine.Search(ctx, hybrid.SearchInput{
		Query:    req.Query,
		Limit:    req.Limit,
		Strategy: buildStrategy(&req),
	})
	if err != nil {
		if stderrors.Is(err, hybrid.ErrEmptyQuery) {
			dto.BadRequest(c, "query is required")
			return
		}
		logger.Error(ctx, "hybrid search failed", err)
		dto.InternalError(c, "search failed")
		return
	}

	dto.Success(c, toSearchResponse(req.Query, out))
}

// Compare 检索策略对比
// @Summary 检索策略对比
// @Description 用纯向量与混合两种预设执行同一查询并汇总差异
// @Tags Hybrid
// @Accept json
// @Produce json
// @Param body body dto.CompareRequest true "对比请求"
// @Success 200 {object} dto.Response[hybrid.Comparison]
// @Failure 400 {object} dto.ErrorResponse
// @Router /v1/hybrid/compare-search [post]
func (h *HybridHandler) Compare(c *gin.Context) {
	ctx := c.Request.Context()

	var req dto.CompareRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		dto.BadRequest(c, "query is required")
		return
	}

	cmp, err := h.engine.Compare(ctx, req.Query, req.Limit)
	if err != nil {
		if stderrors.Is(err, hybrid.ErrEmptyQuery) {
			dto.BadRequest(c, "query is required")
			return
		}
		logger.Error(ctx, "compare search failed", err)
		dto.InternalError(c, "compare search failed")
		return
	}

	dto.Success(c, cmp)
}

// Status 检索能力探测
// @Summary 检索能力探测
// @Description 返回向量、图谱与混合检索的当前可用性
// @Tags Hybrid
// @Produce json
// @Success 200 {object} dto.Response[dto.StatusResponse]
// @Router /v1/hybrid/status [get]
func (h *HybridHandler) Status(c *gin.Context) {
	caps := h.engine.Capabilities(c.Request.Context())
	dto.Success(c, dto.StatusResponse{
		VectorSearch: caps.VectorSearch,
		GraphSearch:  caps.GraphSearch,
		HybridSearch: caps.HybridSearch,
	})
}

// buildStrategy 用请求参数覆盖默认混合策略
func buildStrategy(req *dto.SearchRequest) hybrid.Strategy {
	s := hybrid.DefaultStrategy()
	if req.VectorWeight != nil {
		s.VectorWeight = *req.VectorWeight
	}
	if req.GraphWeight != nil {
		s.GraphWeight = *req.GraphWeight
	}
	if req.EnableGraphExpansion != nil {
		s.EnableGraphExpansion = *req.EnableGraphExpansion
	}
	if req.MaxGraphDepth > 0 {
		s.MaxGraphDepth = req.MaxGraphDepth
	}
	return s
}

func toSearchResponse(query string, out *hybrid.SearchOutput) dto.SearchResponse {
	resp := dto.SearchResponse{
		Query:         query,
		Count:         len(out.Results),
		QueryEntities: out.QueryEntities,
		Strategy:      out.Strategy,
	}
	for _, r := range out.Results {
		item := dto.SearchResult{
			DocumentID: r.DocumentID,
			Filename:   r.Filename,
			ChunkIndex: r.ChunkIndex,
			Content:    hybrid.Truncate(r.Content, maxResultContentLength),
			Similarity: r.Similarity,
			Score:      r.Score,
			Provenance: string(r.Provenance),
		}
		if r.GraphContext != nil {
			names := r.GraphContext.RelatedEntities
			if len(names) > maxRelatedEntityNames {
				names = names[:maxRelatedEntityNames]
			}
			item.GraphContext = &dto.GraphContext{
				RelatedEntities:   names,
				RelationshipPaths: r.GraphContext.RelationshipPaths,
			}
		}
		resp.Results = append(resp.Results, item)
	}
	return resp
}
