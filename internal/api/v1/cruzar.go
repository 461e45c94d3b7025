package v1

import (
	"bytes"
	"context"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"cruzador/internal/errs"
	"cruzador/internal/model"
	"cruzador/internal/service/excel"
	"cruzador/internal/service/reconcile"
)

// 响应头
const (
	HeaderMatchCount = "X-Coincidencias"
	HeaderNewCodes   = "X-Codigos-Nuevos"
	HeaderRequestID  = "X-Request-ID"
)

// ContextKeyRequestID gin 上下文中请求 ID 的键
const ContextKeyRequestID = "requestID"

// multipartMemory 解析 multipart 时驻留内存的上限，超出部分写入临时文件
const multipartMemory = 8 << 20

type upload struct {
	info model.UploadInfo
	data []byte
}

// CruzarInventario 核对库存表与扫描表
// POST /api/cruzar_inventario
func (h *Handler) CruzarInventario(c *gin.Context) {
	started := time.Now()
	requestID := c.GetString(ContextKeyRequestID)
	if requestID == "" {
		requestID = uuid.NewString()
	}
	logger := h.logger.With(zap.String("request_id", requestID))

	if h.maxUploadBytes > 0 {
		c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, h.maxUploadBytes)
	}

	inventoryHeader, scanHeader, err := h.formFiles(c)
	if err != nil {
		logger.Info("核对请求被拒绝", zap.Error(err))
		h.abortWithError(c, err)
		return
	}

	rec, err := h.reconcilerFor(c)
	if err != nil {
		c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	inventory, err := readUpload(inventoryHeader)
	if err != nil {
		h.abortWithError(c, errs.NewParse(reconcile.SourceInventory, err))
		return
	}
	scan, err := readUpload(scanHeader)
	if err != nil {
		h.abortWithError(c, errs.NewParse(reconcile.SourceScan, err))
		return
	}

	run := h.startRun(c.Request.Context(), logger, uuid.NewString(), rec.Options().Mode, inventory.info, scan.info)

	result, err := rec.ReconcileReaders(bytes.NewReader(inventory.data), bytes.NewReader(scan.data))
	if err != nil {
		h.failRun(c.Request.Context(), logger, run, err)
		logger.Warn("核对失败", zap.Error(err))
		h.abortWithError(c, err)
		return
	}
	defer result.Close()

	body, err := excel.WriteToBytes(result.Workbook)
	if err != nil {
		err = errs.Internal("write workbook", err)
		h.failRun(c.Request.Context(), logger, run, err)
		h.abortWithError(c, err)
		return
	}

	h.completeRun(c.Request.Context(), logger, run, result)
	logger.Info("核对完成",
		zap.String("inventario", inventory.info.Filename),
		zap.String("escaneo", scan.info.Filename),
		zap.String("mode", string(rec.Options().Mode)),
		zap.Int("coincidencias", result.MatchCount),
		zap.Int("codigos_nuevos", len(result.NewCodes)),
		zap.Duration("elapsed", time.Since(started)),
	)

	c.Header("Content-Disposition", buildContentDisposition(h.outputFilename))
	c.Header(HeaderMatchCount, strconv.Itoa(result.MatchCount))
	c.Header(HeaderNewCodes, strconv.Itoa(len(result.NewCodes)))
	c.Header(HeaderRequestID, requestID)
	c.Data(http.StatusOK, excel.ContentType, body)
}

// formFiles 取出两个上传文件；任一缺失都返回 MissingUploadError
func (h *Handler) formFiles(c *gin.Context) (*multipart.FileHeader, *multipart.FileHeader, error) {
	if err := c.Request.ParseMultipartForm(multipartMemory); err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			return nil, nil, errs.NewParse("request", fmt.Errorf("upload exceeds %d bytes", tooLarge.Limit))
		}
		// 非 multipart 请求等同于缺少文件
		return nil, nil, &errs.MissingUploadError{Parts: []string{reconcile.SourceInventory, reconcile.SourceScan}}
	}

	form := c.Request.MultipartForm
	var missing []string
	first := func(name string) *multipart.FileHeader {
		files := form.File[name]
		if len(files) == 0 {
			missing = append(missing, name)
			return nil
		}
		return files[0]
	}
	inventory := first(reconcile.SourceInventory)
	scan := first(reconcile.SourceScan)
	if len(missing) > 0 {
		return nil, nil, &errs.MissingUploadError{Parts: missing}
	}
	return inventory, scan, nil
}

// reconcilerFor 按请求参数 modo 选择核对模式
func (h *Handler) reconcilerFor(c *gin.Context) (*reconcile.Reconciler, error) {
	mode := c.Query("modo")
	if mode == "" {
		mode = c.PostForm("modo")
	}
	if mode == "" || model.MatchMode(mode) == h.reconciler.Options().Mode {
		return h.reconciler, nil
	}
	if !model.MatchMode(mode).Valid() {
		return nil, fmt.Errorf("Modo desconocido: %s", mode)
	}
	return h.reconciler.WithMode(model.MatchMode(mode))
}

func readUpload(fh *multipart.FileHeader) (*upload, error) {
	f, err := fh.Open()
	if err != nil {
		return nil, fmt.Errorf("failed to open upload: %w", err)
	}
	defer f.Close()

	data, err := io.ReadAll(f)
	if err != nil {
		return nil, fmt.Errorf("failed to read upload: %w", err)
	}

	sum := sha256.Sum256(data)
	return &upload{
		info: model.UploadInfo{
			Filename: fh.Filename,
			Size:     int64(len(data)),
			SHA256:   hex.EncodeToString(sum[:]),
		},
		data: data,
	}, nil
}

// startRun 写入历史记录；历史失败只记日志，不影响核对
func (h *Handler) startRun(ctx context.Context, logger *zap.Logger, id string, mode model.MatchMode, inventory, scan model.UploadInfo) *model.ReconcileRun {
	if h.history == nil {
		return nil
	}
	run := &model.ReconcileRun{
		ID:        id,
		Inventory: inventory,
		Scan:      scan,
		Mode:      mode,
	}
	if err := h.history.CreateRun(ctx, run); err != nil {
		logger.Warn("写入核对历史失败", zap.Error(err))
		return nil
	}
	return run
}

func (h *Handler) completeRun(ctx context.Context, logger *zap.Logger, run *model.ReconcileRun, result *reconcile.Result) {
	if run == nil {
		return
	}
	if err := h.history.CompleteRun(ctx, run.ID, result.MatchCount, len(result.NewCodes)); err != nil {
		logger.Warn("更新核对历史失败", zap.Error(err))
	}
}

func (h *Handler) failRun(ctx context.Context, logger *zap.Logger, run *model.ReconcileRun, cause error) {
	if run == nil {
		return
	}
	if err := h.history.FailRun(ctx, run.ID, cause.Error()); err != nil {
		logger.Warn("更新核对历史失败", zap.Error(err))
	}
}
