package middlewares

import (
	"strconv"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	httpMetrics     *HTTPMetrics
	httpMetricsOnce sync.Once
)

// HTTPMetrics holds the request metrics. All are prefixed "nutrilog_http_".
type HTTPMetrics struct {
	RequestsTotal   *prometheus.CounterVec
	RequestDuration *prometheus.HistogramVec
	ActiveRequests  prometheus.Gauge
}

// NewHTTPMetrics registers the metrics once per process.
func NewHTTPMetrics() *HTTPMetrics {
	httpMetricsOnce.Do(func() {
		httpMetrics = &HTTPMetrics{
			RequestsTotal: promauto.NewCounterVec(
				prometheus.CounterOpts{
					Name: "nutrilog_http_requests_total",
					Help: "Total HTTP requests by method, route and status",
				},
				[]string{"method", "route", "status"},
			),
			RequestDuration: promauto.NewHistogramVec(
				prometheus.HistogramOpts{
					Name:    "nutrilog_http_request_duration_seconds",
					Help:    "HTTP request duration in seconds",
					Buckets: []float64{0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10, 30},
				},
				[]string{"method", "route"},
			),
			ActiveRequests: promauto.NewGauge(prometheus.GaugeOpts{
				Name: "nutrilog_http_active_requests",
				Help: "Requests currently being served",
			}),
		}
	})
	return httpMetrics
}

// Middleware labels by route template so path ids do not explode cardinality.
func (m *HTTPMetrics) Middleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		m.ActiveRequests.Inc()
		start := time.Now()
		c.Next()
		m.ActiveRequests.Dec()

		route := c.FullPath()
		if route == "" {
			route = "unmatched"
		}
		m.RequestsTotal.WithLabelValues(c.Request.Method, route, strconv.Itoa(c.Writer.Status())).Inc()
		m.RequestDuration.WithLabelValues(c.Request.Method, route).Observe(time.Since(start).Seconds())
	}
}
