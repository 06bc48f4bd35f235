package handler

import (
	"github.com/gin-gonic/gin"

	"hybrid-rag-api/internal/interfaces/http/dto"
	"hybrid-rag-api/pkg/errors"
)

// respondError 将应用错误映射为统一的错误响应
func respondError(c *gin.Context, err error) {
	appErr := errors.AsAppError(err)
	dto.ErrorWithDetail(c, appErr.HTTPStatus, appErr.Message, &dto.ErrorDetail{
		ErrorCode: string(appErr.Code),
		Details:   appErr.Detail,
	})
}
