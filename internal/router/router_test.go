package router

import (
	"compress/gzip"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/Totarae/golinks/internal/auth"
	"github.com/Totarae/golinks/internal/handlers"
	"github.com/Totarae/golinks/internal/metrics"
	"github.com/Totarae/golinks/internal/service"
	"github.com/Totarae/golinks/internal/storage"
	"github.com/Totarae/golinks/internal/storage/memory"
)

func newTestRouter(t *testing.T, token string) http.Handler {
	t.Helper()
	logger := zap.NewNop()
	reg := prometheus.NewRegistry()
	m, err := metrics.New(reg)
	require.NoError(t, err)

	store := storage.Instrument(memory.New(), "memory", m)
	h := handlers.NewHandler(service.NewGolinkService(store, logger), logger)
	return NewRouter(Deps{
		Handler:  h,
		Auth:     auth.New(token),
		Metrics:  m,
		Gatherer: reg,
		Logger:   logger,
	})
}

func serve(h http.Handler, method, target, body, token string) *httptest.ResponseRecorder {
	var req *http.Request
	if body != "" {
		req = httptest.NewRequest(method, target, strings.NewReader(body))
	} else {
		req = httptest.NewRequest(method, target, nil)
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return rec
}

func TestRouter_Routes(t *testing.T) {
	r := newTestRouter(t, "")

	rec := serve(r, http.MethodPost, "/golinks", `{"short_link":"go/docs","url":"https://docs.example.com"}`, "")
	require.Equal(t, http.StatusCreated, rec.Code)

	assert.Equal(t, http.StatusOK, serve(r, http.MethodGet, "/golinks", "", "").Code)
	assert.Equal(t, http.StatusOK, serve(r, http.MethodGet, "/golinks/go/docs", "", "").Code)
	assert.Equal(t, http.StatusOK, serve(r, http.MethodHead, "/golinks/go/docs", "", "").Code)
	assert.Equal(t, http.StatusOK, serve(r, http.MethodPut, "/golinks/go/docs", `{"url":"https://x.example.com"}`, "").Code)
	assert.Equal(t, http.StatusOK, serve(r, http.MethodDelete, "/golinks/go/docs", "", "").Code)
	assert.Equal(t, http.StatusOK, serve(r, http.MethodGet, "/ping", "", "").Code)
}

func TestRouter_Auth(t *testing.T) {
	r := newTestRouter(t, "s3cret")

	assert.Equal(t, http.StatusUnauthorized, serve(r, http.MethodGet, "/golinks", "", "").Code)
	assert.Equal(t, http.StatusUnauthorized, serve(r, http.MethodGet, "/golinks", "", "wrong").Code)
	assert.Equal(t, http.StatusOK, serve(r, http.MethodGet, "/golinks", "", "s3cret").Code)

	// служебные маршруты открыты
	assert.Equal(t, http.StatusOK, serve(r, http.MethodGet, "/ping", "", "").Code)
	assert.Equal(t, http.StatusOK, serve(r, http.MethodGet, "/metrics", "", "").Code)
}

func TestRouter_Metrics(t *testing.T) {
	r := newTestRouter(t, "")

	serve(r, http.MethodGet, "/golinks/go/missing", "", "")
	rec := serve(r, http.MethodGet, "/metrics", "", "")
	require.Equal(t, http.StatusOK, rec.Code)

	body := rec.Body.String()
	assert.Contains(t, body, `golinks_http_requests_total{method="GET",route="/golinks/{prefix}/{name}",status="404"} 1`)
	assert.Contains(t, body, `golinks_storage_operations_total{backend="memory",op="get",outcome="not_found"} 1`)
}

func TestRouter_MetricsGzipOnce(t *testing.T) {
	r := newTestRouter(t, "")
	serve(r, http.MethodGet, "/ping", "", "")

	req := httptest.NewRequest(http.MethodGet, "/metrics", nil)
	req.Header.Set("Accept-Encoding", "gzip")
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, req)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "gzip", rec.Header().Get("Content-Encoding"))

	zr, err := gzip.NewReader(rec.Body)
	require.NoError(t, err)
	body, err := io.ReadAll(zr)
	require.NoError(t, err)

	assert.True(t, strings.HasPrefix(string(body), "# HELP "), "body: %q", body[:min(len(body), 16)])
	assert.Contains(t, string(body), `golinks_http_requests_total{method="GET",route="/ping",status="200"} 1`)
}

func TestRouter_HugePage(t *testing.T) {
	r := newTestRouter(t, "")
	for _, name := range []string{"a", "b", "c"} {
		rec := serve(r, http.MethodPost, "/golinks", `{"short_link":"go/`+name+`","url":"https://example.com"}`, "")
		require.Equal(t, http.StatusCreated, rec.Code)
	}

	rec := serve(r, http.MethodGet, "/golinks?page=9223372036854775807&page_size=10", "", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"data":[],"pagination":{"page":9223372036854775807,"page_size":10,"total_items":3,"total_pages":1}}`, rec.Body.String())
}

func TestRouter_CORSPreflight(t *testing.T) {
	r := newTestRouter(t, "s3cret")

	req := httptest.NewRequest(http.MethodOptions, "/golinks", nil)
	req.Header.Set("Origin", "https://portal.example.com")
	req.Header.Set("Access-Control-Request-Method", http.MethodPut)
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, req)

	assert.Equal(t, "*", rec.Header().Get("Access-Control-Allow-Origin"))
	assert.Contains(t, rec.Header().Get("Access-Control-Allow-Methods"), http.MethodPut)
}
