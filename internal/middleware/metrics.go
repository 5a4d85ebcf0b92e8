package middleware

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
)

// HTTPObserver принимает сведения о завершённых запросах.
type HTTPObserver interface {
	ObserveHTTP(method, route string, status int, d time.Duration)
}

// Inflight счётчик запросов в обработке.
type Inflight interface {
	Inc()
	Dec()
}

// MetricsMiddleware считает запросы по шаблону маршрута chi.
func MetricsMiddleware(obs HTTPObserver, inflight Inflight) func(next http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()
			inflight.Inc()
			defer inflight.Dec()

			rw := newResponseRecorder(w)
			next.ServeHTTP(rw, r)

			route := "UNMATCHED"
			if rctx := chi.RouteContext(r.Context()); rctx != nil {
				if p := rctx.RoutePattern(); p != "" {
					route = p
				}
			}
			obs.ObserveHTTP(r.Method, route, rw.statusCode, time.Since(start))
		})
	}
}
