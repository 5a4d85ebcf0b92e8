package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// Metrics набор метрик сервиса. Регистрируется один раз в переданном Registerer.
type Metrics struct {
	// HTTPRequestsTotal число завершённых запросов.
	// route хранит шаблон маршрута chi, а не реальный путь, иначе ключ ссылки раздует кардинальность.
	HTTPRequestsTotal *prometheus.CounterVec
	// HTTPRequestDurationSeconds распределение времени ответа.
	HTTPRequestDurationSeconds *prometheus.HistogramVec
	// HTTPInflightRequests запросы в обработке.
	HTTPInflightRequests prometheus.Gauge

	// StorageOperationsTotal вызовы хранилища по бэкенду, операции и исходу.
	StorageOperationsTotal *prometheus.CounterVec
	// StorageOperationDurationSeconds время вызовов хранилища.
	StorageOperationDurationSeconds *prometheus.HistogramVec
}

// New создаёт метрики и регистрирует их в reg.
func New(reg prometheus.Registerer) (*Metrics, error) {
	m := &Metrics{
		HTTPRequestsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "golinks_http_requests_total",
				Help: "Total number of HTTP requests.",
			},
			[]string{"method", "route", "status"},
		),
		HTTPRequestDurationSeconds: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "golinks_http_request_duration_seconds",
				Help:    "HTTP request latency distributions.",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"method", "route"},
		),
		HTTPInflightRequests: prometheus.NewGauge(
			prometheus.GaugeOpts{
				Name: "golinks_http_inflight_requests",
				Help: "Current number of in-flight HTTP requests.",
			},
		),
		StorageOperationsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "golinks_storage_operations_total",
				Help: "Total number of storage calls.",
			},
			[]string{"backend", "op", "outcome"},
		),
		StorageOperationDurationSeconds: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "golinks_storage_operation_duration_seconds",
				Help:    "Storage call latency distributions.",
				Buckets: prometheus.ExponentialBuckets(0.0001, 4, 8),
			},
			[]string{"backend", "op"},
		),
	}

	collectors := []prometheus.Collector{
		m.HTTPRequestsTotal,
		m.HTTPRequestDurationSeconds,
		m.HTTPInflightRequests,
		m.StorageOperationsTotal,
		m.StorageOperationDurationSeconds,
	}
	for _, c := range collectors {
		if err := reg.Register(c); err != nil {
			return nil, err
		}
	}
	return m, nil
}

// ObserveStorage реализует storage.Observer.
func (m *Metrics) ObserveStorage(backend, op, outcome string, d time.Duration) {
	m.StorageOperationsTotal.WithLabelValues(backend, op, outcome).Inc()
	m.StorageOperationDurationSeconds.WithLabelValues(backend, op).Observe(d.Seconds())
}

// ObserveHTTP фиксирует завершённый HTTP-запрос.
func (m *Metrics) ObserveHTTP(method, route string, status int, d time.Duration) {
	m.HTTPRequestsTotal.WithLabelValues(method, route, statusLabel(status)).Inc()
	m.HTTPRequestDurationSeconds.WithLabelValues(method, route).Observe(d.Seconds())
}
