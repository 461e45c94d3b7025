package v1

import (
	"bytes"
	"encoding/json"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"cruzador/internal/model"
	"cruzador/internal/service/excel"
	"cruzador/internal/service/reconcile"
	"cruzador/internal/store"
	"cruzador/internal/testutil"
)

type testEnv struct {
	router  *gin.Engine
	history *store.Store
}

func newTestEnv(t *testing.T, withHistory bool, mutate func(*Options)) *testEnv {
	t.Helper()
	gin.SetMode(gin.TestMode)

	rec, err := reconcile.New(reconcile.DefaultOptions())
	require.NoError(t, err)

	env := &testEnv{}
	if withHistory {
		st, err := store.New(filepath.Join(t.TempDir(), "cruzador.db"))
		require.NoError(t, err)
		t.Cleanup(func() { _ = st.Close() })
		env.history = st
	}

	opts := Options{
		Reconciler:     rec,
		History:        env.history,
		MaxUploadBytes: 8 << 20,
	}
	if mutate != nil {
		mutate(&opts)
	}

	h := NewHandler(opts)
	env.router = gin.New()
	h.RegisterRoutes(env.router.Group("/api"))
	return env
}

// multipartBody 构造 multipart 请求体；files 的键为表单字段名
func multipartBody(t *testing.T, files map[string][]byte, fields map[string]string) (*bytes.Buffer, string) {
	t.Helper()

	body := &bytes.Buffer{}
	w := multipart.NewWriter(body)
	for name, data := range files {
		part, err := w.CreateFormFile(name, name+".xlsx")
		require.NoError(t, err)
		_, err = part.Write(data)
		require.NoError(t, err)
	}
	for k, v := range fields {
		require.NoError(t, w.WriteField(k, v))
	}
	require.NoError(t, w.Close())
	return body, w.FormDataContentType()
}

func (e *testEnv) post(t *testing.T, target string, files map[string][]byte, fields map[string]string) *httptest.ResponseRecorder {
	t.Helper()
	body, contentType := multipartBody(t, files, fields)
	req := httptest.NewRequest(http.MethodPost, target, body)
	req.Header.Set("Content-Type", contentType)
	w := httptest.NewRecorder()
	e.router.ServeHTTP(w, req)
	return w
}

func decodeError(t *testing.T, w *httptest.ResponseRecorder) string {
	t.Helper()
	var resp map[string]string
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp), w.Body.String())
	return resp["error"]
}

func TestCruzarInventario_Success(t *testing.T) {
	env := newTestEnv(t, false, nil)

	w := env.post(t, "/api/cruzar_inventario", map[string][]byte{
		"inventario": testutil.Codes(t, "A1", "B2"),
		"escaneo":    testutil.Codes(t, "A1", "C3"),
	}, nil)

	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	assert.Equal(t, excel.ContentType, w.Header().Get("Content-Type"))
	assert.Equal(t, "attachment; filename=inventario_cruzado.xlsx", w.Header().Get("Content-Disposition"))
	assert.Equal(t, "1", w.Header().Get(HeaderMatchCount))
	assert.Equal(t, "1", w.Header().Get(HeaderNewCodes))
	assert.NotEmpty(t, w.Header().Get(HeaderRequestID))

	out := testutil.Reopen(t, w.Body.Bytes())
	assert.Equal(t, "A1", testutil.Cell(t, out, "A2"))
	assert.Equal(t, "C3", testutil.Cell(t, out, "A4"))

	color, err := excel.FillColor(out, testutil.Sheet, "A2")
	require.NoError(t, err)
	assert.Equal(t, "00FF00", color)
}

func TestCruzarInventario_DuplicateCodes(t *testing.T) {
	env := newTestEnv(t, false, nil)

	w := env.post(t, "/api/cruzar_inventario", map[string][]byte{
		"inventario": testutil.Codes(t, "A1", "A1"),
		"escaneo":    testutil.Codes(t, "A1"),
	}, nil)

	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	assert.Equal(t, "2", w.Header().Get(HeaderMatchCount))
	assert.Equal(t, "0", w.Header().Get(HeaderNewCodes))
}

func TestCruzarInventario_MissingFiles(t *testing.T) {
	env := newTestEnv(t, false, nil)
	inv := testutil.Codes(t, "A1")

	tests := []struct {
		name  string
		files map[string][]byte
	}{
		{"no files", map[string][]byte{}},
		{"only inventario", map[string][]byte{"inventario": inv}},
		{"only escaneo", map[string][]byte{"escaneo": inv}},
		{"wrong field names", map[string][]byte{"file": inv, "scan": inv}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := env.post(t, "/api/cruzar_inventario", tt.files, nil)
			assert.Equal(t, http.StatusBadRequest, w.Code)
			assert.Equal(t, "Faltan archivos", decodeError(t, w))
		})
	}
}

func TestCruzarInventario_NotMultipart(t *testing.T) {
	env := newTestEnv(t, false, nil)

	req := httptest.NewRequest(http.MethodPost, "/api/cruzar_inventario", bytes.NewBufferString(`{"inventario":"x"}`))
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	env.router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, "Faltan archivos", decodeError(t, w))
}

func TestCruzarInventario_MissingColumn(t *testing.T) {
	env := newTestEnv(t, false, nil)
	noCode := testutil.XLSX(t, testutil.Workbook(t, []string{"CODIGO"}, []any{"A1"}))

	for name, files := range map[string]map[string][]byte{
		"inventario": {"inventario": noCode, "escaneo": testutil.Codes(t, "A1")},
		"escaneo":    {"inventario": testutil.Codes(t, "A1"), "escaneo": noCode},
	} {
		t.Run(name, func(t *testing.T) {
			w := env.post(t, "/api/cruzar_inventario", files, nil)
			assert.Equal(t, http.StatusBadRequest, w.Code)
			assert.Equal(t, "No se encontró la columna 'codigo'", decodeError(t, w))
		})
	}
}

func TestCruzarInventario_InvalidWorkbook(t *testing.T) {
	env := newTestEnv(t, false, nil)

	w := env.post(t, "/api/cruzar_inventario", map[string][]byte{
		"inventario": []byte("codigo\nA1\n"),
		"escaneo":    testutil.Codes(t, "A1"),
	}, nil)

	assert.Equal(t, http.StatusInternalServerError, w.Code)
	msg := decodeError(t, w)
	assert.Contains(t, msg, "inventario")
	assert.NotEmpty(t, msg)
}

func TestCruzarInventario_UploadTooLarge(t *testing.T) {
	env := newTestEnv(t, false, func(o *Options) { o.MaxUploadBytes = 512 })

	w := env.post(t, "/api/cruzar_inventario", map[string][]byte{
		"inventario": bytes.Repeat([]byte("x"), 4096),
		"escaneo":    testutil.Codes(t, "A1"),
	}, nil)

	assert.Equal(t, http.StatusInternalServerError, w.Code)
	assert.Contains(t, decodeError(t, w), "upload exceeds")
}

func TestCruzarInventario_ModeOverride(t *testing.T) {
	env := newTestEnv(t, false, nil)
	files := map[string][]byte{
		"inventario": testutil.Codes(t, "Ábc"),
		"escaneo":    testutil.Codes(t, "ABC"),
	}

	w := env.post(t, "/api/cruzar_inventario", files, nil)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	assert.Equal(t, "0", w.Header().Get(HeaderMatchCount))

	w = env.post(t, "/api/cruzar_inventario?modo=lenient", files, nil)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	assert.Equal(t, "1", w.Header().Get(HeaderMatchCount))

	w = env.post(t, "/api/cruzar_inventario", files, map[string]string{"modo": "lenient"})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	assert.Equal(t, "1", w.Header().Get(HeaderMatchCount))

	w = env.post(t, "/api/cruzar_inventario?modo=fuzzy", files, nil)
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, "Modo desconocido: fuzzy", decodeError(t, w))
}

func TestCruzarInventario_MethodNotAllowed(t *testing.T) {
	env := newTestEnv(t, false, nil)

	req := httptest.NewRequest(http.MethodGet, "/api/cruzar_inventario", nil)
	w := httptest.NewRecorder()
	env.router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusMethodNotAllowed, w.Code)
	assert.Equal(t, http.MethodPost, w.Header().Get("Allow"))
	assert.Equal(t, "Método no permitido", decodeError(t, w))
}

func TestCruzarInventario_CustomOutputFilename(t *testing.T) {
	env := newTestEnv(t, false, func(o *Options) { o.OutputFilename = "cruce final.xlsx" })

	w := env.post(t, "/api/cruzar_inventario", map[string][]byte{
		"inventario": testutil.Codes(t, "A1"),
		"escaneo":    testutil.Codes(t, "A1"),
	}, nil)

	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	assert.Equal(t, `attachment; filename="cruce final.xlsx"; filename*=UTF-8''cruce%20final.xlsx`, w.Header().Get("Content-Disposition"))
}

func TestHistory_Disabled(t *testing.T) {
	env := newTestEnv(t, false, nil)

	for _, target := range []string{"/api/cruces", "/api/cruces/abc"} {
		req := httptest.NewRequest(http.MethodGet, target, nil)
		w := httptest.NewRecorder()
		env.router.ServeHTTP(w, req)

		assert.Equal(t, http.StatusNotFound, w.Code, target)
		assert.Equal(t, "historial deshabilitado", decodeError(t, w))
	}
}

func TestHistory_RecordsRuns(t *testing.T) {
	env := newTestEnv(t, true, nil)

	w := env.post(t, "/api/cruzar_inventario", map[string][]byte{
		"inventario": testutil.Codes(t, "A1", "B2"),
		"escaneo":    testutil.Codes(t, "A1", "C3", "D4"),
	}, nil)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	w = env.post(t, "/api/cruzar_inventario", map[string][]byte{
		"inventario": testutil.XLSX(t, testutil.Workbook(t, []string{"sku"}, []any{"A1"})),
		"escaneo":    testutil.Codes(t, "A1"),
	}, nil)
	require.Equal(t, http.StatusBadRequest, w.Code)

	req := httptest.NewRequest(http.MethodGet, "/api/cruces?limit=10", nil)
	w = httptest.NewRecorder()
	env.router.ServeHTTP(w, req)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	var resp listRunsResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	require.Len(t, resp.Items, 2)

	var success, failed *model.ReconcileRun
	for _, r := range resp.Items {
		switch r.Status {
		case model.RunSuccess:
			success = r
		case model.RunFailed:
			failed = r
		}
	}
	require.NotNil(t, success)
	require.NotNil(t, failed)

	assert.Equal(t, 1, success.MatchCount)
	assert.Equal(t, 2, success.AppendedCount)
	assert.Equal(t, "inventario.xlsx", success.Inventory.Filename)
	assert.Len(t, success.Inventory.SHA256, 64)
	assert.Contains(t, failed.ErrorMessage, "codigo")

	req = httptest.NewRequest(http.MethodGet, "/api/cruces/"+success.ID, nil)
	w = httptest.NewRecorder()
	env.router.ServeHTTP(w, req)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	var one model.ReconcileRun
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &one))
	assert.Equal(t, success.ID, one.ID)

	req = httptest.NewRequest(http.MethodGet, "/api/cruces/unknown", nil)
	w = httptest.NewRecorder()
	env.router.ServeHTTP(w, req)
	assert.Equal(t, http.StatusNotFound, w.Code)
	assert.Equal(t, "Cruce no encontrado", decodeError(t, w))

	req = httptest.NewRequest(http.MethodGet, "/api/cruces?limit=-1", nil)
	w = httptest.NewRecorder()
	env.router.ServeHTTP(w, req)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestGetStatus(t *testing.T) {
	env := newTestEnv(t, true, nil)

	req := httptest.NewRequest(http.MethodGet, "/api/status", nil)
	w := httptest.NewRecorder()
	env.router.ServeHTTP(w, req)
	require.Equal(t, http.StatusOK, w.Code)

	var resp StatusResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(t, "cruzador", resp.Service)
	assert.Equal(t, Version, resp.Version)
	assert.Equal(t, "exact", resp.Mode)
	assert.Equal(t, "codigo", resp.KeyColumn)
	assert.Equal(t, "sorted", resp.AppendOrder)
	assert.True(t, resp.HistoryEnabled)
}

func TestBuildContentDisposition(t *testing.T) {
	assert.Equal(t, "attachment; filename=inventario_cruzado.xlsx", buildContentDisposition("inventario_cruzado.xlsx"))
	assert.Equal(t,
		`attachment; filename="inventario_a_o.xlsx"; filename*=UTF-8''inventario_a%C3%B1o.xlsx`,
		buildContentDisposition("inventario_año.xlsx"),
	)
}
