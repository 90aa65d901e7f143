package metrics

import (
	"strconv"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/valyala/fasthttp/fasthttpadaptor"
)

var (
	// HTTP metrics
	httpRequestsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "lively",
		Subsystem: "http",
		Name:      "requests_total",
		Help:      "Total HTTP requests processed",
	}, []string{"method", "path", "status"})

	httpRequestDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: "lively",
		Subsystem: "http",
		Name:      "request_duration_seconds",
		Help:      "HTTP request latency in seconds",
		Buckets:   []float64{0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10, 30},
	}, []string{"method", "path"})

	httpResponseSize = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: "lively",
		Subsystem: "http",
		Name:      "response_size_bytes",
		Help:      "HTTP response size in bytes",
		Buckets:   prometheus.ExponentialBuckets(100, 10, 6),
	}, []string{"method", "path"})

	// Chat pipeline metrics
	WorkflowExecutions = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "lively",
		Subsystem: "workflow",
		Name:      "executions_total",
		Help:      "Total workflow service invocations by outcome",
	}, []string{"outcome"})

	ChatResults = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "lively",
		Subsystem: "chat",
		Name:      "results_total",
		Help:      "Total normalized chat results by kind",
	}, []string{"kind"})

	LocationsDropped = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: "lively",
		Subsystem: "chat",
		Name:      "locations_dropped_total",
		Help:      "Total location records dropped for invalid coordinates",
	})

	GeocodeCacheHits = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: "lively",
		Subsystem: "geocode",
		Name:      "cache_hits_total",
		Help:      "Total reverse-geocode cache hits",
	})

	GeocodeCacheMisses = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: "lively",
		Subsystem: "geocode",
		Name:      "cache_misses_total",
		Help:      "Total reverse-geocode cache misses",
	})

	ActiveWebSockets = promauto.NewGauge(prometheus.GaugeOpts{
		Namespace: "lively",
		Subsystem: "ws",
		Name:      "active_connections",
		Help:      "Current number of active WebSocket connections",
	})
)

// Middleware records request metrics.
func Middleware() fiber.Handler {
	return func(c *fiber.Ctx) error {
		start := time.Now()

		err := c.Next()

		duration := time.Since(start).Seconds()
		status := strconv.Itoa(c.Response().StatusCode())
		path := c.Route().Path
		if path == "" {
			path = c.Path()
		}
		method := c.Method()

		httpRequestsTotal.WithLabelValues(method, path, status).Inc()
		httpRequestDuration.WithLabelValues(method, path).Observe(duration)
		httpResponseSize.WithLabelValues(method, path).Observe(float64(len(c.Response().Body())))

		return err
	}
}

// Handler returns a Fiber handler serving the Prometheus /metrics endpoint.
func Handler() fiber.Handler {
	handler := promhttp.Handler()
	return func(c *fiber.Ctx) error {
		fasthttpadaptor.NewFastHTTPHandler(handler)(c.Context())
		return nil
	}
}
