package adapthttp

import (
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"hyperlocal/internal/pool"
)

// PoolStats is satisfied by *pool.Pool of any connection type.
type PoolStats interface {
	Stats() pool.Stats
}

type metrics struct {
	registry *prometheus.Registry
	requests *prometheus.CounterVec
	duration *prometheus.HistogramVec
	inFlight prometheus.Gauge
}

func newMetrics(ps PoolStats) *metrics {
	m := &metrics{
		registry: prometheus.NewRegistry(),
		requests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "http_requests_total",
			Help: "HTTP requests by method, route template and status.",
		}, []string{"method", "route", "status"}),
		duration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "http_request_duration_seconds",
			Help:    "HTTP request latency by method and route template.",
			Buckets: prometheus.DefBuckets,
		}, []string{"method", "route"}),
		inFlight: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "http_requests_in_flight",
			Help: "HTTP requests currently being served.",
		}),
	}
	m.registry.MustRegister(
		m.requests, m.duration, m.inFlight,
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)

	if ps != nil {
		m.registry.MustRegister(
			prometheus.NewGaugeFunc(prometheus.GaugeOpts{
				Name: "db_pool_in_use",
				Help: "Database connections currently leased.",
			}, func() float64 { return float64(ps.Stats().InUse) }),
			prometheus.NewGaugeFunc(prometheus.GaugeOpts{
				Name: "db_pool_max",
				Help: "Maximum database connections.",
			}, func() float64 { return float64(ps.Stats().MaxSize) }),
			prometheus.NewGaugeFunc(prometheus.GaugeOpts{
				Name: "db_pool_waiting",
				Help: "Requests queued for a database connection.",
			}, func() float64 { return float64(ps.Stats().Waiting) }),
			prometheus.NewCounterFunc(prometheus.CounterOpts{
				Name: "db_pool_acquire_timeouts_total",
				Help: "Lease attempts that gave up after the acquisition timeout.",
			}, func() float64 { return float64(ps.Stats().AcquireTimeouts) }),
		)
	}
	return m
}

func (m *metrics) handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}

func (m *metrics) middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		m.inFlight.Inc()
		defer m.inFlight.Dec()

		rw := &responseWriter{ResponseWriter: w, statusCode: http.StatusOK}
		next.ServeHTTP(rw, r)

		route := routeFrom(r)
		m.requests.WithLabelValues(r.Method, route, strconv.Itoa(rw.statusCode)).Inc()
		m.duration.WithLabelValues(r.Method, route).Observe(time.Since(start).Seconds())
	})
}
