package observability

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics groups all Prometheus instruments used by the service.
// All observe methods are safe on a nil receiver so instrumentation can be
// left unwired in tests.
type Metrics struct {
	TurnsProcessed prometheus.Counter
	FactActions    *prometheus.CounterVec
	Suggestions    *prometheus.CounterVec
	EmbedFailures  prometheus.Counter
	EmbedCache     *prometheus.CounterVec
	RecallLatency  prometheus.Histogram
	ActiveSessions prometheus.Gauge
}

// New registers the instrument set on reg under the given namespace.
func New(reg prometheus.Registerer, namespace string) *Metrics {
	factory := promauto.With(reg)
	return &Metrics{
		TurnsProcessed: factory.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "turns_total",
			Help:      "Conversation turns processed.",
		}),
		FactActions: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "fact_actions_total",
			Help:      "Fact store outcomes by action.",
		}, []string{"action"}),
		Suggestions: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "suggestions_total",
			Help:      "Proactive suggestions emitted by trigger reason.",
		}, []string{"reason"}),
		EmbedFailures: factory.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "embed_failures_total",
			Help:      "Embedding calls that failed and degraded to theme recall.",
		}),
		EmbedCache: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "embed_cache_total",
			Help:      "Embedding cache probes by result.",
		}, []string{"result"}),
		RecallLatency: factory.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "recall_latency_ms",
			Help:      "Memory recall latency in milliseconds.",
			Buckets:   []float64{1, 5, 10, 25, 50, 100, 250, 500, 1000},
		}),
		ActiveSessions: factory.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "active_sessions",
			Help:      "Open realtime chat sessions.",
		}),
	}
}

func (m *Metrics) TurnProcessed() {
	if m == nil {
		return
	}
	m.TurnsProcessed.Inc()
}

func (m *Metrics) FactAction(action string) {
	if m == nil {
		return
	}
	m.FactActions.WithLabelValues(action).Inc()
}

func (m *Metrics) SuggestionEmitted(reason string) {
	if m == nil {
		return
	}
	m.Suggestions.WithLabelValues(reason).Inc()
}

func (m *Metrics) EmbedFailure() {
	if m == nil {
		return
	}
	m.EmbedFailures.Inc()
}

func (m *Metrics) EmbedLookup(hit bool) {
	if m == nil {
		return
	}
	result := "miss"
	if hit {
		result = "hit"
	}
	m.EmbedCache.WithLabelValues(result).Inc()
}

func (m *Metrics) ObserveRecallLatency(d time.Duration) {
	if m == nil {
		return
	}
	m.RecallLatency.Observe(float64(d.Milliseconds()))
}

func (m *Metrics) SessionOpened() {
	if m == nil {
		return
	}
	m.ActiveSessions.Inc()
}

func (m *Metrics) SessionClosed() {
	if m == nil {
		return
	}
	m.ActiveSessions.Dec()
}

// Handler serves the default Prometheus registry.
func Handler() http.Handler {
	return promhttp.Handler()
}
