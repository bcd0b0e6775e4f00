package metrics

import "github.com/prometheus/client_golang/prometheus"

// PipelineMetrics exposes counters/histograms for the message pipeline.
type PipelineMetrics struct {
	messagesTotal   *prometheus.CounterVec
	stageLatency    *prometheus.HistogramVec
	extractionTotal *prometheus.CounterVec
	ordersTotal     *prometheus.CounterVec
}

func NewPipelineMetrics(reg prometheus.Registerer) *PipelineMetrics {
	m := &PipelineMetrics{
		messagesTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "chatbot",
			Subsystem: "pipeline",
			Name:      "messages_total",
			Help:      "Total inbound messages processed",
		}, []string{"status"}),
		stageLatency: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: "chatbot",
			Subsystem: "pipeline",
			Name:      "stage_latency_seconds",
			Help:      "Latency of each pipeline stage",
			Buckets:   prometheus.DefBuckets,
		}, []string{"stage"}),
		extractionTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "chatbot",
			Subsystem: "leads",
			Name:      "extraction_total",
			Help:      "Total lead extraction attempts",
		}, []string{"outcome"}),
		ordersTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "chatbot",
			Subsystem: "leads",
			Name:      "orders_total",
			Help:      "Total order commit attempts",
		}, []string{"status"}),
	}
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	reg.MustRegister(m.messagesTotal, m.stageLatency, m.extractionTotal, m.ordersTotal)
	return m
}

func (m *PipelineMetrics) ObserveMessage(status string) {
	if m == nil {
		return
	}
	m.messagesTotal.WithLabelValues(status).Inc()
}

func (m *PipelineMetrics) ObserveStage(stage string, seconds float64) {
	if m == nil {
		return
	}
	m.stageLatency.WithLabelValues(stage).Observe(seconds)
}

func (m *PipelineMetrics) ObserveExtraction(outcome string) {
	if m == nil {
		return
	}
	m.extractionTotal.WithLabelValues(outcome).Inc()
}

func (m *PipelineMetrics) ObserveOrder(status string) {
	if m == nil {
		return
	}
	m.ordersTotal.WithLabelValues(status).Inc()
}
