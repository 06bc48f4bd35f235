package dto

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestContext() (*gin.Context, *httptest.ResponseRecorder) {
	gin.SetMode(gin.TestMode)
	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	c.Request = httptest.NewRequest(http.MethodGet, "/", nil)
	return c, w
}

func TestSuccessEnvelope(t *testing.T) {
	c, w := newTestContext()
	c.Set("trace_id", "t-123")

	Success(c, map[string]string{"hello": "world"})

	assert.Equal(t, http.StatusOK, w.Code)
	var resp Response[map[string]string]
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(t, 200, resp.Code)
	assert.Equal(t, "success", resp.Message)
	assert.Equal(t, "world", resp.Data["hello"])
	assert.Equal(t, "t-123", resp.TraceID)
}

func TestErrorWithDetailEnvelope(t *testing.T) {
	c, w := newTestContext()

	ErrorWithDetail(c, http.StatusServiceUnavailable, "graph store unreachable", &ErrorDetail{
		ErrorCode: "GRAPH_UNAVAILABLE",
		Details:   "connection refused",
	})

	assert.Equal(t, http.StatusServiceUnavailable, w.Code)
	var resp ErrorResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(t, 503, resp.Code)
	require.NotNil(t, resp.Error)
	assert.Equal(t, "GRAPH_UNAVAILABLE", resp.Error.ErrorCode)
}

func TestNewPageMeta(t *testing.T) {
	meta := NewPageMeta(2, 20, 45)
	assert.Equal(t, 2, meta.Page)
	assert.Equal(t, 20, meta.PageSize)
	assert.Equal(t, 45, meta.Total)
	// 余数向上取整
	assert.Equal(t, 3, meta.TotalPages)

	assert.Equal(t, 2, NewPageMeta(1, 20, 40).TotalPages)
}

func TestBindPageDefaultsAndBounds(t *testing.T) {
	gin.SetMode(gin.TestMode)
	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	c.Request = httptest.NewRequest(http.MethodGet, "/?page=0&page_size=500", nil)

	req := BindPage(c)
	assert.Equal(t, 1, req.Page)
	assert.Equal(t, 100, req.PageSize)

	w = httptest.NewRecorder()
	c, _ = gin.CreateTestContext(w)
	c.Request = httptest.NewRequest(http.MethodGet, "/?page=3&page_size=10", nil)
	req = BindPage(c)
	assert.Equal(t, 20, req.Offset())
	assert.Equal(t, 10, req.Limit())
}
