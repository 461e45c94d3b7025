package server

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"cruzador/internal/api/v1"
	"cruzador/internal/config"
	"cruzador/internal/service/reconcile"
	"cruzador/internal/store"
)

// Server HTTP服务器
type Server struct {
	router  *gin.Engine
	history *store.Store
	api     *v1.Handler
	logger  *zap.Logger

	mu         sync.Mutex
	httpServer *http.Server
}

// NewServer 创建服务器
func NewServer(cfg *config.AppConfig, info config.LoadConfigInfo, logger *zap.Logger) (*Server, error) {
	if logger == nil {
		logger = zap.NewNop()
	}
	if !cfg.Server.DevMode {
		gin.SetMode(gin.ReleaseMode)
	}

	rec, err := reconcile.New(cfg.ReconcileOptions())
	if err != nil {
		return nil, fmt.Errorf("invalid reconcile options: %w", err)
	}

	// 核对历史（可选）
	var history *store.Store
	if cfg.History.Enabled {
		dbPath := config.HistoryPath(cfg, info)
		history, err = store.New(dbPath)
		if err != nil {
			return nil, fmt.Errorf("failed to initialize history: %w", err)
		}
		logger.Info("核对历史已启用", zap.String("path", dbPath))
	}

	s := &Server{
		router:  gin.New(),
		history: history,
		logger:  logger,
		api: v1.NewHandler(v1.Options{
			Reconciler:     rec,
			History:        history,
			Logger:         logger,
			MaxUploadBytes: cfg.MaxUploadBytes(),
			OutputFilename: cfg.Reconcile.OutputFilename,
			ListLimit:      cfg.History.ListLimit,
		}),
	}

	s.setupRoutes()

	return s, nil
}

// setupRoutes 设置路由
func (s *Server) setupRoutes() {
	s.router.Use(recovery(s.logger), requestID(), accessLog(s.logger), cors())

	api := s.router.Group("/api")
	{
		s.api.RegisterRoutes(api)
	}

	s.router.NoRoute(func(c *gin.Context) {
		c.JSON(http.StatusNotFound, gin.H{"error": "Ruta no encontrada"})
	})
}

// Handler 返回 http.Handler（用于测试）
func (s *Server) Handler() http.Handler {
	return s.router
}

// Run 启动服务器，阻塞直到 Shutdown
func (s *Server) Run(addr string) error {
	srv := &http.Server{
		Addr:              addr,
		Handler:           s.router,
		ReadHeaderTimeout: 10 * time.Second,
	}
	s.mu.Lock()
	s.httpServer = srv
	s.mu.Unlock()

	err := srv.ListenAndServe()
	if errors.Is(err, http.ErrServerClosed) {
		return nil
	}
	return err
}

// Shutdown 优雅退出并关闭历史库
func (s *Server) Shutdown(ctx context.Context) error {
	s.mu.Lock()
	srv := s.httpServer
	s.mu.Unlock()

	var errs []error
	if srv != nil {
		if err := srv.Shutdown(ctx); err != nil {
			errs = append(errs, err)
		}
	}
	if s.history != nil {
		if err := s.history.Close(); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}
