package v1

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"cruzador/internal/model"
	"cruzador/internal/store"
)

const maxListLimit = 500

type listRunsResponse struct {
	Items []*model.ReconcileRun `json:"items"`
}

// ListRuns 最近的核对记录
// GET /api/cruces?limit=N
func (h *Handler) ListRuns(c *gin.Context) {
	if h.history == nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "historial deshabilitado"})
		return
	}

	limit := h.listLimit
	if v := c.Query("limit"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n <= 0 {
			c.JSON(http.StatusBadRequest, gin.H{"error": "limit inválido"})
			return
		}
		limit = min(n, maxListLimit)
	}

	runs, err := h.history.ListRuns(c.Request.Context(), limit)
	if err != nil {
		h.logger.Error("查询核对历史失败", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, listRunsResponse{Items: runs})
}

// GetRun 单条核对记录
// GET /api/cruces/:id
func (h *Handler) GetRun(c *gin.Context) {
	if h.history == nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "historial deshabilitado"})
		return
	}

	run, err := h.history.GetRun(c.Request.Context(), c.Param("id"))
	if errors.Is(err, store.ErrRunNotFound) {
		c.JSON(http.StatusNotFound, gin.H{"error": "Cruce no encontrado"})
		return
	}
	if err != nil {
		h.logger.Error("查询核对历史失败", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, run)
}
