package metrics

import (
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
)

func TestPipelineMetrics_Observe(t *testing.T) {
	reg := prometheus.NewRegistry()
	m := NewPipelineMetrics(reg)

	m.ObserveMessage("ok")
	m.ObserveMessage("ok")
	m.ObserveMessage("generation_failed")
	m.ObserveStage("generate", 0.25)
	m.ObserveExtraction("unparseable")
	m.ObserveOrder("created")

	if got := testutil.ToFloat64(m.messagesTotal.WithLabelValues("ok")); got != 2 {
		t.Fatalf("expected 2 ok messages, got %v", got)
	}
	if got := testutil.ToFloat64(m.messagesTotal.WithLabelValues("generation_failed")); got != 1 {
		t.Fatalf("expected 1 failed message, got %v", got)
	}
	if got := testutil.ToFloat64(m.ordersTotal.WithLabelValues("created")); got != 1 {
		t.Fatalf("expected 1 created order, got %v", got)
	}
}

func TestPipelineMetrics_NilReceiverIsSafe(t *testing.T) {
	var m *PipelineMetrics
	m.ObserveMessage("ok")
	m.ObserveStage("generate", 0.1)
	m.ObserveExtraction("ok")
	m.ObserveOrder("created")
}
