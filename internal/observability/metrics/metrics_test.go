package metrics

import (
	"testing"

	"github.com/prometheus/client_golang/prometheus"
)

func TestFunnelMetricsObserve(t *testing.T) {
	reg := prometheus.NewRegistry()
	m := NewFunnelMetrics(reg)
	m.ObserveInbound("text", "processed")
	m.ObserveOutbound("list", "sent")
	m.ObserveTurnLatency(0.8)
	m.ObserveScoring("rules", true)
	m.ObserveLead(true)
}

func TestFunnelMetricsNilSafe(t *testing.T) {
	var m *FunnelMetrics
	m.ObserveInbound("text", "processed")
	m.ObserveOutbound("buttons", "sent")
	m.ObserveTurnLatency(0.1)
	m.ObserveScoring("gemini", false)
	m.ObserveLead(false)
}
