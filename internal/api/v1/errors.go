package v1

import (
	"fmt"
	"net/http"

	"github.com/gin-gonic/gin"

	"cruzador/internal/errs"
)

const msgMissingUploads = "Faltan archivos"

// errorStatus 将核对错误映射为 HTTP 状态码与用户可见消息
func (h *Handler) errorStatus(err error) (int, string) {
	switch {
	case errs.IsMissingUpload(err):
		return http.StatusBadRequest, msgMissingUploads
	case errs.IsMissingColumn(err):
		return http.StatusBadRequest, fmt.Sprintf("No se encontró la columna '%s'", h.reconciler.Options().KeyColumn)
	default:
		return http.StatusInternalServerError, err.Error()
	}
}

// abortWithError 写出 {"error": "..."} 响应
func (h *Handler) abortWithError(c *gin.Context, err error) {
	status, msg := h.errorStatus(err)
	c.AbortWithStatusJSON(status, gin.H{"error": msg})
}
