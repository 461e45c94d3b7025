package v1

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"cruzador/internal/service/reconcile"
	"cruzador/internal/store"
)

// Version 服务版本
const Version = "1.2.0"

// CruzarPath 核对接口路径（相对 /api）
const CruzarPath = "/cruzar_inventario"

// Options 处理器参数
type Options struct {
	Reconciler *reconcile.Reconciler
	// History 为 nil 表示未启用核对历史
	History        *store.Store
	Logger         *zap.Logger
	MaxUploadBytes int64
	OutputFilename string
	ListLimit      int
}

// Handler API 处理器
type Handler struct {
	reconciler     *reconcile.Reconciler
	history        *store.Store
	logger         *zap.Logger
	maxUploadBytes int64
	outputFilename string
	listLimit      int
}

// NewHandler 创建 API 处理器
func NewHandler(opts Options) *Handler {
	logger := opts.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	outputFilename := opts.OutputFilename
	if outputFilename == "" {
		outputFilename = "inventario_cruzado.xlsx"
	}
	listLimit := opts.ListLimit
	if listLimit <= 0 {
		listLimit = 50
	}
	return &Handler{
		reconciler:     opts.Reconciler,
		history:        opts.History,
		logger:         logger,
		maxUploadBytes: opts.MaxUploadBytes,
		outputFilename: outputFilename,
		listLimit:      listLimit,
	}
}

// RegisterRoutes 注册 API 路由
func (h *Handler) RegisterRoutes(router *gin.RouterGroup) {
	// 库存核对
	router.POST(CruzarPath, h.CruzarInventario)
	for _, method := range []string{http.MethodGet, http.MethodPut, http.MethodPatch, http.MethodDelete} {
		router.Handle(method, CruzarPath, h.MethodNotAllowed)
	}

	// 系统状态
	router.GET("/status", h.GetStatus)

	// 核对历史
	router.GET("/cruces", h.ListRuns)
	router.GET("/cruces/:id", h.GetRun)
}

// MethodNotAllowed 非 POST 请求
func (h *Handler) MethodNotAllowed(c *gin.Context) {
	c.Header("Allow", http.MethodPost)
	c.JSON(http.StatusMethodNotAllowed, gin.H{"error": "Método no permitido"})
}
