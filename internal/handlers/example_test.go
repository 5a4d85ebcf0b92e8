package handlers

import (
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"

	"go.uber.org/zap"

	"github.com/Totarae/golinks/internal/service"
	"github.com/Totarae/golinks/internal/storage/memory"
)

// ExampleHandler_CreateGolink демонстрирует регистрацию ссылки.
func ExampleHandler_CreateGolink() {
	logger := zap.NewNop()
	h := NewHandler(service.NewGolinkService(memory.New(), logger), logger)

	body := `{"short_link":"go/docs","url":"https://docs.example.com"}`
	req := httptest.NewRequest(http.MethodPost, "/golinks", strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()

	h.CreateGolink(rec, req)

	fmt.Println(rec.Code)
	fmt.Println(strings.Contains(rec.Body.String(), `"short_link":"go/docs"`))

	// Output:
	// 201
	// true
}

// ExampleHandler_ListGolinks демонстрирует пустую непостраничную выдачу.
func ExampleHandler_ListGolinks() {
	logger := zap.NewNop()
	h := NewHandler(service.NewGolinkService(memory.New(), logger), logger)

	rec := httptest.NewRecorder()
	h.ListGolinks(rec, httptest.NewRequest(http.MethodGet, "/golinks", nil))

	fmt.Println(rec.Code)
	fmt.Print(rec.Body.String())

	// Output:
	// 200
	// []
}
