// Package metrics defines the Prometheus collectors recorded by the
// generation pipeline. A nil *Metrics is valid and records nothing.
package metrics

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const namespace = "scribe"

// Metrics holds the pipeline collectors.
type Metrics struct {
	providerCalls    *prometheus.CounterVec
	providerLatency  *prometheus.HistogramVec
	tokens           *prometheus.CounterVec
	runs             *prometheus.CounterVec
	degradedSteps    *prometheus.CounterVec
	logWriteFailures prometheus.Counter
	archivedImages   *prometheus.CounterVec
	batchArticles    *prometheus.CounterVec
	registry         *prometheus.Registry
}

// New creates the collectors and registers them on a dedicated registry
// alongside the Go and process collectors.
func New() *Metrics {
	reg := prometheus.NewRegistry()

	m := &Metrics{
		providerCalls: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "provider_calls_total",
			Help:      "Provider round-trips by provider, media kind and outcome.",
		}, []string{"provider", "kind", "outcome"}),
		providerLatency: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "provider_latency_seconds",
			Help:      "Provider call latency.",
			Buckets:   []float64{0.25, 0.5, 1, 2.5, 5, 10, 20, 30, 60},
		}, []string{"provider", "kind"}),
		tokens: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "provider_tokens_total",
			Help:      "Tokens consumed by provider and direction.",
		}, []string{"provider", "direction"}),
		runs: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "runs_total",
			Help:      "Completed generation runs by final status.",
		}, []string{"status"}),
		degradedSteps: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "degraded_steps_total",
			Help:      "Steps whose output fell back to a degraded form.",
		}, []string{"category"}),
		logWriteFailures: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "response_log_write_failures_total",
			Help:      "Response log entries that could not be persisted.",
		}),
		archivedImages: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "archived_images_total",
			Help:      "Generated images copied to durable storage by outcome.",
		}, []string{"outcome"}),
		batchArticles: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "batch_articles_total",
			Help:      "Source articles handled by the batch runner by outcome.",
		}, []string{"outcome"}),
		registry: reg,
	}

	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
		m.providerCalls,
		m.providerLatency,
		m.tokens,
		m.runs,
		m.degradedSteps,
		m.logWriteFailures,
		m.archivedImages,
		m.batchArticles,
	)

	return m
}

// Handler serves the registry in the Prometheus exposition format.
func (m *Metrics) Handler() http.Handler {
	if m == nil {
		return http.NotFoundHandler()
	}
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}

// Registry exposes the underlying registry for tests and custom exporters.
func (m *Metrics) Registry() *prometheus.Registry {
	if m == nil {
		return nil
	}
	return m.registry
}

func (m *Metrics) ProviderCall(provider, kind string, latency time.Duration, err error) {
	if m == nil {
		return
	}
	outcome := "success"
	if err != nil {
		outcome = "error"
	}
	m.providerCalls.WithLabelValues(provider, kind, outcome).Inc()
	m.providerLatency.WithLabelValues(provider, kind).Observe(latency.Seconds())
}

func (m *Metrics) Tokens(provider string, input, output int) {
	if m == nil {
		return
	}
	m.tokens.WithLabelValues(provider, "input").Add(float64(input))
	m.tokens.WithLabelValues(provider, "output").Add(float64(output))
}

func (m *Metrics) Run(status string) {
	if m == nil {
		return
	}
	m.runs.WithLabelValues(status).Inc()
}

func (m *Metrics) DegradedStep(category string) {
	if m == nil {
		return
	}
	m.degradedSteps.WithLabelValues(category).Inc()
}

func (m *Metrics) LogWriteFailure() {
	if m == nil {
		return
	}
	m.logWriteFailures.Inc()
}

func (m *Metrics) ArchivedImage(ok bool) {
	if m == nil {
		return
	}
	outcome := "archived"
	if !ok {
		outcome = "failed"
	}
	m.archivedImages.WithLabelValues(outcome).Inc()
}

func (m *Metrics) BatchArticle(outcome string) {
	if m == nil {
		return
	}
	m.batchArticles.WithLabelValues(outcome).Inc()
}
