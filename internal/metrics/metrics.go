// Package metrics collects and exposes Prometheus metrics.
package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Recorder is the interface handlers use to record metrics.
type Recorder interface {
	RecordWebhookEvent(kind string, outcome string)
	RecordHTTPStatus(statusCode int)
	RecordRequestLatency(duration time.Duration)
}

// Webhook outcomes recorded per event kind.
const (
	OutcomeProcessed = "processed"
	OutcomeRejected  = "rejected"
	OutcomeIgnored   = "ignored"
	OutcomeFailed    = "failed"
)

// Collector is the Prometheus-backed Recorder implementation.
type Collector struct {
	webhookEvents  *prometheus.CounterVec
	httpStatus     *prometheus.CounterVec
	requestLatency prometheus.Histogram
}

// NewCollector creates a Collector and registers its metrics with the given
// registry.
func NewCollector(reg prometheus.Registerer) *Collector {
	c := &Collector{
		webhookEvents: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "agentmeet_webhook_events_total",
			Help: "Webhook deliveries by event kind and outcome",
		}, []string{"kind", "outcome"}),
		httpStatus: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "agentmeet_http_status_total",
			Help: "HTTP responses by status code",
		}, []string{"status_code"}),
		requestLatency: prometheus.NewHistogram(prometheus.HistogramOpts{
			Name:    "agentmeet_request_latency_seconds",
			Help:    "HTTP request latency in seconds",
			Buckets: prometheus.DefBuckets,
		}),
	}

	reg.MustRegister(c.webhookEvents, c.httpStatus, c.requestLatency)
	return c
}

// RecordWebhookEvent counts one webhook delivery.
func (c *Collector) RecordWebhookEvent(kind string, outcome string) {
	c.webhookEvents.WithLabelValues(kind, outcome).Inc()
}

// RecordHTTPStatus counts one HTTP response.
func (c *Collector) RecordHTTPStatus(statusCode int) {
	c.httpStatus.WithLabelValues(strconv.Itoa(statusCode)).Inc()
}

// RecordRequestLatency records one request duration.
func (c *Collector) RecordRequestLatency(duration time.Duration) {
	c.requestLatency.Observe(duration.Seconds())
}

// Handler returns the scrape endpoint for the given gatherer.
func Handler(gatherer prometheus.Gatherer) http.Handler {
	return promhttp.HandlerFor(gatherer, promhttp.HandlerOpts{})
}
