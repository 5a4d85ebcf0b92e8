package handlers_test

import (
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"github.com/Totarae/golinks/internal/handlers"
	"github.com/Totarae/golinks/internal/service"
	"github.com/Totarae/golinks/internal/storage/memory"
)

func setupBenchRouter(b *testing.B, n int) http.Handler {
	b.Helper()
	logger := zap.NewNop()
	h := handlers.NewHandler(service.NewGolinkService(memory.New(), logger), logger)

	r := chi.NewRouter()
	r.Post("/golinks", h.CreateGolink)
	r.Get("/golinks", h.ListGolinks)
	r.Get("/golinks/{prefix}/{name}", h.GetGolink)

	for i := 0; i < n; i++ {
		body := fmt.Sprintf(`{"short_link":"go/seed%d","url":"https://example.com/%d"}`, i, i)
		req := httptest.NewRequest(http.MethodPost, "/golinks", strings.NewReader(body))
		rec := httptest.NewRecorder()
		r.ServeHTTP(rec, req)
		if rec.Code != http.StatusCreated {
			b.Fatalf("seed %d: status %d", i, rec.Code)
		}
	}
	return r
}

func BenchmarkCreateGolink(b *testing.B) {
	r := setupBenchRouter(b, 0)

	b.ReportAllocs()
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		body := fmt.Sprintf(`{"short_link":"go/bench%d","url":"https://example.com/%d"}`, i, i)
		req := httptest.NewRequest(http.MethodPost, "/golinks", strings.NewReader(body))
		r.ServeHTTP(httptest.NewRecorder(), req)
	}
}

func BenchmarkGetGolink(b *testing.B) {
	r := setupBenchRouter(b, 100)
	req := httptest.NewRequest(http.MethodGet, "/golinks/go/seed42", nil)

	b.ReportAllocs()
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		r.ServeHTTP(httptest.NewRecorder(), req)
	}
}

func BenchmarkListGolinksPage(b *testing.B) {
	r := setupBenchRouter(b, 1000)
	req := httptest.NewRequest(http.MethodGet, "/golinks?page=3&page_size=50", nil)

	b.ReportAllocs()
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		r.ServeHTTP(httptest.NewRecorder(), req)
	}
}
