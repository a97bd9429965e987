package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	requests = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "summary_http_requests_total",
		Help: "HTTP requests by route, method and status.",
	}, []string{"route", "method", "status"})

	latency = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "summary_http_request_duration_seconds",
		Help:    "HTTP request latency by route and method.",
		Buckets: prometheus.DefBuckets,
	}, []string{"route", "method"})

	// Subscribers is the number of open live update connections.
	Subscribers = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "summary_ws_subscribers",
		Help: "Open document update subscriptions.",
	})
)

// Handler exposes Prometheus metrics at /metrics
func Handler() http.Handler {
	return promhttp.Handler()
}

// Observe records one finished request.
func Observe(route, method string, status int, elapsed time.Duration) {
	if route == "" {
		route = "unmatched"
	}
	requests.WithLabelValues(route, method, strconv.Itoa(status)).Inc()
	latency.WithLabelValues(route, method).Observe(elapsed.Seconds())
}
