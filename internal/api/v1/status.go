package v1

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

// StatusResponse 系统状态响应
type StatusResponse struct {
	Service        string `json:"service"`
	Version        string `json:"version"`
	Mode           string `json:"mode"`           // 默认核对模式
	KeyColumn      string `json:"keyColumn"`      // 关键列
	AppendOrder    string `json:"appendOrder"`    // 新编码追加顺序
	HistoryEnabled bool   `json:"historyEnabled"` // 是否记录核对历史
}

// GetStatus 获取系统状态
// GET /api/status
func (h *Handler) GetStatus(c *gin.Context) {
	opts := h.reconciler.Options()
	c.JSON(http.StatusOK, StatusResponse{
		Service:        "cruzador",
		Version:        Version,
		Mode:           string(opts.Mode),
		KeyColumn:      opts.KeyColumn,
		AppendOrder:    string(opts.AppendOrder),
		HistoryEnabled: h.history != nil,
	})
}
