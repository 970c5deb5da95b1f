package metrics

import "github.com/prometheus/client_golang/prometheus"

// FunnelMetrics exposes counters/histograms for the application funnel.
type FunnelMetrics struct {
	inboundTotal  *prometheus.CounterVec
	outboundTotal *prometheus.CounterVec
	turnLatency   prometheus.Histogram
	scoringTotal  *prometheus.CounterVec
	leadsTotal    *prometheus.CounterVec
}

func NewFunnelMetrics(reg prometheus.Registerer) *FunnelMetrics {
	m := &FunnelMetrics{
		inboundTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "recruiting",
			Subsystem: "funnel",
			Name:      "inbound_messages_total",
			Help:      "Total inbound WhatsApp messages",
		}, []string{"type", "status"}),
		outboundTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "recruiting",
			Subsystem: "funnel",
			Name:      "outbound_messages_total",
			Help:      "Total outbound sends by rendered kind",
		}, []string{"kind", "status"}),
		turnLatency: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: "recruiting",
			Subsystem: "funnel",
			Name:      "turn_latency_seconds",
			Help:      "End-to-end latency of one conversation turn",
			Buckets:   prometheus.DefBuckets,
		}),
		scoringTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "recruiting",
			Subsystem: "funnel",
			Name:      "scoring_total",
			Help:      "Profile evaluations by engine and outcome",
		}, []string{"source", "approved"}),
		leadsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "recruiting",
			Subsystem: "funnel",
			Name:      "leads_captured_total",
			Help:      "Leads appended to the lead sheet",
		}, []string{"approved"}),
	}
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	reg.MustRegister(m.inboundTotal, m.outboundTotal, m.turnLatency, m.scoringTotal, m.leadsTotal)
	return m
}

func (m *FunnelMetrics) ObserveInbound(msgType, status string) {
	if m == nil {
		return
	}
	m.inboundTotal.WithLabelValues(msgType, status).Inc()
}

func (m *FunnelMetrics) ObserveOutbound(kind, status string) {
	if m == nil {
		return
	}
	m.outboundTotal.WithLabelValues(kind, status).Inc()
}

func (m *FunnelMetrics) ObserveTurnLatency(seconds float64) {
	if m == nil {
		return
	}
	m.turnLatency.Observe(seconds)
}

func (m *FunnelMetrics) ObserveScoring(source string, approved bool) {
	if m == nil {
		return
	}
	m.scoringTotal.WithLabelValues(source, boolLabel(approved)).Inc()
}

func (m *FunnelMetrics) ObserveLead(approved bool) {
	if m == nil {
		return
	}
	m.leadsTotal.WithLabelValues(boolLabel(approved)).Inc()
}

func boolLabel(v bool) string {
	if v {
		return "true"
	}
	return "false"
}
