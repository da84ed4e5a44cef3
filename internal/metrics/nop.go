// Package metrics provides no-op and Prometheus-backed implementations of
// types.MetricsCollector.
package metrics

import "github.com/Antigravity-finder/tabbycat/types"

// NopMetrics implements types.MetricsCollector with no-op methods. Used as
// the default when no collector is injected, and embedded by partial
// implementations to satisfy the full interface.
type NopMetrics struct{}

// Compile-time assertion that NopMetrics implements MetricsCollector.
var _ types.MetricsCollector = (*NopMetrics)(nil)

// NewNop returns a collector that records nothing.
func NewNop() *NopMetrics {
	return &NopMetrics{}
}

// RecordConnectionState is a no-op.
func (*NopMetrics) RecordConnectionState(types.ConnState) {}

// RecordReconnectDelay is a no-op.
func (*NopMetrics) RecordReconnectDelay(float64) {}

// RecordMessage is a no-op.
func (*NopMetrics) RecordMessage(string, string) {}

// RecordDiscard is a no-op.
func (*NopMetrics) RecordDiscard(string) {}

// RecordDiffApplied is a no-op.
func (*NopMetrics) RecordDiffApplied(string, int) {}

// RecordSortRecompute is a no-op.
func (*NopMetrics) RecordSortRecompute(string, float64) {}
