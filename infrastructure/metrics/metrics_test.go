package metrics

import (
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	dto "github.com/prometheus/client_model/go"
)

func TestMetricsRecordsCounters(t *testing.T) {
	reg := prometheus.NewRegistry()
	m := New(reg)

	m.IncReceiptSaved("create")
	m.IncReceiptSaved("create")
	m.IncReceiptSaved("")
	m.ObserveRender("png", 150*time.Millisecond)
	m.IncHTTPRequest("GET", "/app/receipts/{id}", 200)

	families, err := reg.Gather()
	if err != nil {
		t.Fatalf("gather: %v", err)
	}

	saved := findFamily(families, "receipts_saved_total")
	if saved == nil {
		t.Fatalf("receipts_saved_total not registered")
	}
	if got := counterValue(saved, "op", "create"); got != 2 {
		t.Fatalf("expected 2 create saves, got %v", got)
	}
	if got := counterValue(saved, "op", "unknown"); got != 1 {
		t.Fatalf("expected 1 unknown save, got %v", got)
	}

	render := findFamily(families, "receipt_render_duration_seconds")
	if render == nil || len(render.GetMetric()) != 1 {
		t.Fatalf("expected one render histogram series")
	}
	if count := render.GetMetric()[0].GetHistogram().GetSampleCount(); count != 1 {
		t.Fatalf("expected 1 render sample, got %d", count)
	}

	requests := findFamily(families, "http_requests_total")
	if got := counterValue(requests, "status", "200"); got != 1 {
		t.Fatalf("expected 1 request, got %v", got)
	}
}

func TestNilMetricsIsNoop(t *testing.T) {
	var m *Metrics
	m.IncReceiptSaved("create")
	m.ObserveRender("pdf", time.Second)
	m.IncHTTPRequest("GET", "/", 200)

	empty := New(nil)
	empty.IncReceiptSaved("create")
}

func findFamily(families []*dto.MetricFamily, name string) *dto.MetricFamily {
	for _, f := range families {
		if f.GetName() == name {
			return f
		}
	}
	return nil
}

func counterValue(family *dto.MetricFamily, label, value string) float64 {
	if family == nil {
		return 0
	}
	for _, metric := range family.GetMetric() {
		for _, pair := range metric.GetLabel() {
			if pair.GetName() == label && pair.GetValue() == value {
				return metric.GetCounter().GetValue()
			}
		}
	}
	return 0
}
