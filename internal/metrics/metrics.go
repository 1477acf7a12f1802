// Package metrics holds the Prometheus collectors of the storefront.
package metrics

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	// HTTP
	HTTPRequests = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "emporia_http_requests_total",
		Help: "The total number of HTTP requests",
	}, []string{"method", "route", "status"})

	HTTPDuration = prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "emporia_http_request_duration_seconds",
		Help:    "The latency of HTTP requests",
		Buckets: prometheus.DefBuckets,
	}, []string{"method", "route"})

	RateLimited = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "emporia_http_rate_limited_total",
		Help: "The total number of requests rejected by the rate limiter",
	})

	// Orders
	OrderTransitions = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "emporia_order_transitions_total",
		Help: "The total number of order status changes",
	}, []string{"status", "result"})

	StockAdjustments = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "emporia_stock_adjustments_total",
		Help: "The total number of atomic stock adjustments",
	}, []string{"result"})

	// Images
	ImageOperations = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "emporia_image_operations_total",
		Help: "The total number of image uploads and deletions",
	}, []string{"operation", "result"})

	// Events
	EventsPublished = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "emporia_events_published_total",
		Help: "The total number of events published",
	}, []string{"subject", "result"})

	PublishLatency = prometheus.NewHistogram(prometheus.HistogramOpts{
		Name: "emporia_publish_latency_seconds",
		Help: "The latency of event publishing",
	})
)

func init() {
	prometheus.MustRegister(HTTPRequests)
	prometheus.MustRegister(HTTPDuration)
	prometheus.MustRegister(RateLimited)
	prometheus.MustRegister(OrderTransitions)
	prometheus.MustRegister(StockAdjustments)
	prometheus.MustRegister(ImageOperations)
	prometheus.MustRegister(EventsPublished)
	prometheus.MustRegister(PublishLatency)
}

// Result labels an outcome.
func Result(err error) string {
	if err != nil {
		return "error"
	}
	return "ok"
}

// ObservePublish matches pubsub.PublisherOptions.OnPublish.
func ObservePublish(subject string, err error, latency time.Duration) {
	EventsPublished.WithLabelValues(subject, Result(err)).Inc()
	PublishLatency.Observe(latency.Seconds())
}

// Handler serves the default registry.
func Handler() http.Handler {
	return promhttp.Handler()
}
