// Package metrics exposes service counters in the Prometheus text format.
// A nil *Metrics is valid and records nothing.
package metrics

import (
	"growdoctor/internal/diagnosis"
	"growdoctor/internal/model"
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const namespace = "growdoctor"

type Metrics struct {
	registry *prometheus.Registry

	Diagnoses        *prometheus.CounterVec
	CacheLookups     *prometheus.CounterVec
	UpstreamDuration *prometheus.HistogramVec
	ExtractFailures  prometheus.Counter
	SchemaDrift      prometheus.Counter
	LegacyOutputs    prometheus.Counter
	SeverityRules    *prometheus.CounterVec
	FertilizerVetoes *prometheus.CounterVec
	Severities       *prometheus.CounterVec
	HTTPRequests     *prometheus.CounterVec
	HTTPDuration     *prometheus.HistogramVec
}

// New registers all collectors on reg; a nil reg gets a fresh registry with
// the Go and process collectors.
func New(reg *prometheus.Registry) *Metrics {
	if reg == nil {
		reg = prometheus.NewRegistry()
		reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	}
	m := &Metrics{
		registry: reg,
		Diagnoses: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "diagnoses_total",
			Help:      "Diagnose requests by outcome (fresh, cached or an error kind).",
		}, []string{"outcome"}),
		CacheLookups: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "cache_lookups_total",
			Help:      "Diagnosis cache lookups by result.",
		}, []string{"result"}),
		UpstreamDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "upstream_duration_seconds",
			Help:      "Vision model call latency.",
			Buckets:   []float64{0.5, 1, 2, 5, 10, 20, 30, 60, 90},
		}, []string{"provider", "outcome"}),
		ExtractFailures: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "extract_failures_total",
			Help:      "Model responses without a recoverable JSON object.",
		}),
		SchemaDrift: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "schema_drift_total",
			Help:      "Model responses that did not match the requested schema.",
		}),
		LegacyOutputs: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "legacy_outputs_total",
			Help:      "Model responses in the nested legacy schema.",
		}),
		SeverityRules: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "severity_rule_total",
			Help:      "Severity decision rule that fired.",
		}, []string{"rule"}),
		FertilizerVetoes: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "fertilizer_veto_total",
			Help:      "Fertilizer veto that fired; empty when fertilizing stayed allowed.",
		}, []string{"veto"}),
		Severities: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "severity_total",
			Help:      "Final traffic light of fresh diagnoses.",
		}, []string{"severity"}),
		HTTPRequests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "http_requests_total",
			Help:      "HTTP requests by route, method and status code.",
		}, []string{"route", "method", "code"}),
		HTTPDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "http_request_duration_seconds",
			Help:      "HTTP request latency by route.",
			Buckets:   prometheus.DefBuckets,
		}, []string{"route"}),
	}
	reg.MustRegister(
		m.Diagnoses, m.CacheLookups, m.UpstreamDuration, m.ExtractFailures, m.SchemaDrift,
		m.LegacyOutputs, m.SeverityRules, m.FertilizerVetoes, m.Severities, m.HTTPRequests, m.HTTPDuration,
	)
	return m
}

// Handler serves the registry in the exposition format
func (m *Metrics) Handler() http.Handler {
	if m == nil {
		return promhttp.HandlerFor(prometheus.NewRegistry(), promhttp.HandlerOpts{})
	}
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}

func (m *Metrics) Diagnosis(outcome string) {
	if m == nil {
		return
	}
	m.Diagnoses.WithLabelValues(outcome).Inc()
}

func (m *Metrics) CacheLookup(result string) {
	if m == nil {
		return
	}
	m.CacheLookups.WithLabelValues(result).Inc()
}

func (m *Metrics) Upstream(provider, outcome string, d time.Duration) {
	if m == nil {
		return
	}
	m.UpstreamDuration.WithLabelValues(provider, outcome).Observe(d.Seconds())
}

// Normalization records what the pipeline reported for one model response
func (m *Metrics) Normalization(rep diagnosis.Report, d model.Diagnosis) {
	if m == nil {
		return
	}
	if !rep.Extracted {
		m.ExtractFailures.Inc()
	}
	if len(rep.SchemaViolations) > 0 {
		m.SchemaDrift.Inc()
	}
	if rep.Legacy {
		m.LegacyOutputs.Inc()
	}
	m.SeverityRules.WithLabelValues(rep.Outcome.SeverityRule).Inc()
	m.FertilizerVetoes.WithLabelValues(rep.Outcome.FertilizerVeto).Inc()
	m.Severities.WithLabelValues(string(d.SeverityIndicator)).Inc()
}

func (m *Metrics) HTTPRequest(route, method string, code int, d time.Duration) {
	if m == nil {
		return
	}
	m.HTTPRequests.WithLabelValues(route, method, strconv.Itoa(code)).Inc()
	m.HTTPDuration.WithLabelValues(route).Observe(d.Seconds())
}
