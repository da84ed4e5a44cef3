package metrics

import (
	"sync"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/Antigravity-finder/tabbycat/types"
)

// PrometheusCollector implements types.MetricsCollector backed by Prometheus.
type PrometheusCollector struct {
	reg       prometheus.Registerer
	namespace string
	once      sync.Once

	connState      *prometheus.GaugeVec
	reconnectDelay prometheus.Histogram
	messages       *prometheus.CounterVec
	discards       *prometheus.CounterVec
	diffsApplied   *prometheus.CounterVec
	sortDuration   *prometheus.HistogramVec
}

// Compile-time assertion that PrometheusCollector implements MetricsCollector.
var _ types.MetricsCollector = (*PrometheusCollector)(nil)

// NewPrometheus creates a new Prometheus-backed metrics collector.
//
// Parameters:
//   - reg: Prometheus registerer (uses prometheus.DefaultRegisterer if nil)
//   - namespace: Metrics namespace (defaults to "allocation" if empty)
//
// Returns:
//   - *PrometheusCollector: A MetricsCollector implementation using Prometheus
func NewPrometheus(reg prometheus.Registerer, namespace string) *PrometheusCollector {
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	if namespace == "" {
		namespace = "allocation"
	}

	return &PrometheusCollector{reg: reg, namespace: namespace}
}

func (p *PrometheusCollector) ensureRegistered() {
	p.once.Do(func() {
		p.connState = prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: p.namespace,
			Subsystem: "channel",
			Name:      "connection_state",
			Help:      "Current connection state (1 for the active state, 0 otherwise).",
		}, []string{"state"})

		p.reconnectDelay = prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: p.namespace,
			Subsystem: "channel",
			Name:      "reconnect_delay_seconds",
			Help:      "Scheduled reconnect backoff delays in seconds.",
			Buckets:   []float64{1, 5, 10, 30, 60, 120, 240},
		})

		p.messages = prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: p.namespace,
			Subsystem: "channel",
			Name:      "messages_total",
			Help:      "Processed messages by direction and kind.",
		}, []string{"direction", "kind"})

		p.discards = prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: p.namespace,
			Subsystem: "channel",
			Name:      "discards_total",
			Help:      "Inbound messages dropped before apply, by reason.",
		}, []string{"reason"})

		p.diffsApplied = prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: p.namespace,
			Subsystem: "store",
			Name:      "diffs_applied_total",
			Help:      "Applied diff entries by kind.",
		}, []string{"kind"})

		p.sortDuration = prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: p.namespace,
			Subsystem: "store",
			Name:      "sort_recompute_seconds",
			Help:      "Sort-index recomputation durations in seconds by mode.",
			Buckets:   []float64{0.0001, 0.0005, 0.001, 0.005, 0.01, 0.05},
		}, []string{"mode"})

		p.reg.MustRegister(
			p.connState,
			p.reconnectDelay,
			p.messages,
			p.discards,
			p.diffsApplied,
			p.sortDuration,
		)
	})
}

// RecordConnectionState records a connection state transition.
func (p *PrometheusCollector) RecordConnectionState(state types.ConnState) {
	p.ensureRegistered()
	for _, s := range []types.ConnState{types.StateConnecting, types.StateOpen, types.StateClosed, types.StateTerminated} {
		value := 0.0
		if s == state {
			value = 1.0
		}
		p.connState.WithLabelValues(s.String()).Set(value)
	}
}

// RecordReconnectDelay records a scheduled reconnect backoff delay.
func (p *PrometheusCollector) RecordReconnectDelay(seconds float64) {
	p.ensureRegistered()
	p.reconnectDelay.Observe(seconds)
}

// RecordMessage records one processed message.
func (p *PrometheusCollector) RecordMessage(direction, kind string) {
	p.ensureRegistered()
	p.messages.WithLabelValues(direction, kind).Inc()
}

// RecordDiscard records an inbound message dropped before apply.
func (p *PrometheusCollector) RecordDiscard(reason string) {
	p.ensureRegistered()
	p.discards.WithLabelValues(reason).Inc()
}

// RecordDiffApplied records a batch of applied diffs.
func (p *PrometheusCollector) RecordDiffApplied(kind string, count int) {
	p.ensureRegistered()
	p.diffsApplied.WithLabelValues(kind).Add(float64(count))
}

// RecordSortRecompute records a sort-index recomputation.
func (p *PrometheusCollector) RecordSortRecompute(mode string, seconds float64) {
	p.ensureRegistered()
	p.sortDuration.WithLabelValues(mode).Observe(seconds)
}
