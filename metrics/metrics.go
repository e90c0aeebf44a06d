// Package metrics collects Prometheus metrics and exposes them for scraping.
package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Recorder is what the generation client, the ingest path and the HTTP layer report to.
type Recorder interface {
	RecordHTTPStatus(statusCode int)
	RecordGenerationAttempt(model, outcome string)
	RecordGenerationLatency(d time.Duration)
	RecordIngestFailure(reason string)
}

type Collector struct {
	httpStatus   *prometheus.CounterVec
	genAttempts  *prometheus.CounterVec
	genLatency   prometheus.Histogram
	ingestFailed *prometheus.CounterVec
}

// NewCollector creates the collector and registers it with reg.
func NewCollector(reg prometheus.Registerer) *Collector {
	c := &Collector{
		httpStatus: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "wanderplan_http_status_total",
			Help: "Responses by HTTP status code.",
		}, []string{"status_code"}),
		genAttempts: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "wanderplan_generation_attempts_total",
			Help: "Generation attempts by model and outcome.",
		}, []string{"model", "outcome"}),
		genLatency: prometheus.NewHistogram(prometheus.HistogramOpts{
			Name:    "wanderplan_generation_latency_seconds",
			Help:    "Wall time of a full generation request across all model attempts.",
			Buckets: []float64{0.5, 1, 2.5, 5, 10, 20, 40, 80},
		}),
		ingestFailed: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "wanderplan_ingest_failures_total",
			Help: "Generated payloads rejected by the ingest pipeline, by reason.",
		}, []string{"reason"}),
	}
	reg.MustRegister(c.httpStatus, c.genAttempts, c.genLatency, c.ingestFailed)
	return c
}

func (c *Collector) RecordHTTPStatus(statusCode int) {
	c.httpStatus.WithLabelValues(strconv.Itoa(statusCode)).Inc()
}

func (c *Collector) RecordGenerationAttempt(model, outcome string) {
	c.genAttempts.WithLabelValues(model, outcome).Inc()
}

func (c *Collector) RecordGenerationLatency(d time.Duration) {
	c.genLatency.Observe(d.Seconds())
}

func (c *Collector) RecordIngestFailure(reason string) {
	c.ingestFailed.WithLabelValues(reason).Inc()
}

// Handler serves the Prometheus exposition format.
func Handler(gatherer prometheus.Gatherer) http.Handler {
	return promhttp.HandlerFor(gatherer, promhttp.HandlerOpts{})
}

// Nop discards everything. Used where metrics are not wired, e.g. tests.
type Nop struct{}

func (Nop) RecordHTTPStatus(int) {}
func (Nop) RecordGenerationAttempt(string, string) {}
func (Nop) RecordGenerationLatency(time.Duration) {}
func (Nop) RecordIngestFailure(string) {}
