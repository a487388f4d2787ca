// Package metrics exposes the Prometheus instruments of the proposal service.
package metrics

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const namespace = "victus"

// Metrics groups every instrument. All methods are safe on a nil receiver so
// components can run without metrics in tests.
type Metrics struct {
	registry *prometheus.Registry

	Verdicts       *prometheus.CounterVec
	Admissions     *prometheus.CounterVec
	Deliveries     *prometheus.CounterVec
	DeliveryTries  prometheus.Histogram
	CacheLookups   *prometheus.CounterVec
	PipelineErrors *prometheus.CounterVec
	PipelineTime   prometheus.Histogram
	Sessions       prometheus.Gauge
	SessionsSwept  prometheus.Counter
}

// New registers all instruments on a fresh registry together with the Go and
// process collectors.
func New() *Metrics {
	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	f := promauto.With(reg)
	return &Metrics{
		registry: reg,
		Verdicts: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "decisions_total",
			Help:      "Engine verdicts by outcome",
		}, []string{"verdict"}),
		Admissions: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "admissions_total",
			Help:      "Chat gate outcomes",
		}, []string{"outcome"}),
		Deliveries: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "telegram_deliveries_total",
			Help:      "Telegram deliveries by final result",
		}, []string{"result"}),
		DeliveryTries: f.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "telegram_delivery_attempts",
			Help:      "Attempts spent per delivery, including the fresh-connection attempt",
			Buckets:   []float64{1, 2, 3, 4},
		}),
		CacheLookups: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "snapshot_cache_lookups_total",
			Help:      "Snapshot cache lookups by result",
		}, []string{"result"}),
		PipelineErrors: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "pipeline_errors_total",
			Help:      "Pipeline failures by stage",
		}, []string{"stage"}),
		PipelineTime: f.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "pipeline_duration_seconds",
			Help:      "Wall time from accepted event to delivered result",
			Buckets:   []float64{1, 5, 10, 20, 30, 60, 90, 120},
		}),
		Sessions: f.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "chat_sessions",
			Help:      "Chat sessions currently tracked",
		}),
		SessionsSwept: f.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "chat_sessions_evicted_total",
			Help:      "Chat sessions evicted by the idle sweeper",
		}),
	}
}

// Handler serves the registry in the Prometheus exposition format.
func (m *Metrics) Handler() http.Handler {
	if m == nil {
		return promhttp.Handler()
	}
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}

// Registry returns the underlying registry.
func (m *Metrics) Registry() *prometheus.Registry {
	if m == nil {
		return nil
	}
	return m.registry
}

func (m *Metrics) RecordVerdict(verdict string) {
	if m == nil {
		return
	}
	m.Verdicts.WithLabelValues(verdict).Inc()
}

func (m *Metrics) RecordAdmission(outcome string) {
	if m == nil {
		return
	}
	m.Admissions.WithLabelValues(outcome).Inc()
}

func (m *Metrics) RecordDelivery(ok bool, attempts int) {
	if m == nil {
		return
	}
	result := "failed"
	if ok {
		result = "delivered"
	}
	m.Deliveries.WithLabelValues(result).Inc()
	m.DeliveryTries.Observe(float64(attempts))
}

func (m *Metrics) RecordCache(result string) {
	if m == nil {
		return
	}
	m.CacheLookups.WithLabelValues(result).Inc()
}

func (m *Metrics) RecordPipelineError(stage string) {
	if m == nil {
		return
	}
	m.PipelineErrors.WithLabelValues(stage).Inc()
}

func (m *Metrics) RecordPipeline(d time.Duration) {
	if m == nil {
		return
	}
	m.PipelineTime.Observe(d.Seconds())
}

func (m *Metrics) RecordSweep(evicted, remaining int) {
	if m == nil {
		return
	}
	m.SessionsSwept.Add(float64(evicted))
	m.Sessions.Set(float64(remaining))
}
