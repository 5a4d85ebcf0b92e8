package router

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"github.com/Totarae/golinks/internal/auth"
	"github.com/Totarae/golinks/internal/handlers"
	"github.com/Totarae/golinks/internal/metrics"
	"github.com/Totarae/golinks/internal/middleware"
)

// Deps зависимости маршрутизатора.
type Deps struct {
	Handler  *handlers.Handler
	Auth     *auth.Auth
	Metrics  *metrics.Metrics
	Gatherer prometheus.Gatherer
	Logger   *zap.Logger
}

// NewRouter создаёт и настраивает маршрутизатор
func NewRouter(d Deps) *chi.Mux {
	r := chi.NewRouter()

	r.Use(chimw.RequestID)
	r.Use(chimw.Recoverer)
	r.Use(middleware.LoggingMiddleware(d.Logger))
	r.Use(middleware.MetricsMiddleware(d.Metrics, d.Metrics.HTTPInflightRequests))
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins: []string{"*"},
		AllowedMethods: []string{
			http.MethodGet, http.MethodPost, http.MethodPut,
			http.MethodDelete, http.MethodHead, http.MethodOptions,
		},
		AllowedHeaders: []string{"Accept", "Authorization", "Content-Type", "Content-Encoding"},
		MaxAge:         300,
	}))
	r.Use(middleware.GzipMiddleware)

	r.Get("/ping", d.Handler.Ping)
	// сжатие выполняет GzipMiddleware
	r.Handle("/metrics", promhttp.HandlerFor(d.Gatherer, promhttp.HandlerOpts{DisableCompression: true}))

	r.Route("/golinks", func(r chi.Router) {
		r.Use(d.Auth.Middleware)

		r.Post("/", d.Handler.CreateGolink)
		r.Get("/", d.Handler.ListGolinks)
		r.Get("/{prefix}/{name}", d.Handler.GetGolink)
		r.Head("/{prefix}/{name}", d.Handler.HeadGolink)
		r.Put("/{prefix}/{name}", d.Handler.UpdateGolink)
		r.Delete("/{prefix}/{name}", d.Handler.DeleteGolink)
	})
	return r
}
