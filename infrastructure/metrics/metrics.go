package metrics

import (
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// Metrics holds the application collectors. A nil *Metrics is a no-op.
type Metrics struct {
	receiptsSaved  *prometheus.CounterVec
	renderDuration *prometheus.HistogramVec
	httpRequests   *prometheus.CounterVec
}

// New registers the application collectors on reg.
func New(reg prometheus.Registerer) *Metrics {
	if reg == nil {
		return &Metrics{}
	}
	receiptsSaved := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "receipts_saved_total",
		Help: "Receipts written to the store, by operation.",
	}, []string{"op"})
	renderDuration := prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "receipt_render_duration_seconds",
		Help:    "Time spent rendering a receipt export.",
		Buckets: prometheus.DefBuckets,
	}, []string{"format"})
	httpRequests := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "http_requests_total",
		Help: "HTTP requests served, by route pattern and status.",
	}, []string{"method", "route", "status"})
	reg.MustRegister(receiptsSaved, renderDuration, httpRequests)
	return &Metrics{
		receiptsSaved:  receiptsSaved,
		renderDuration: renderDuration,
		httpRequests:   httpRequests,
	}
}

func (m *Metrics) IncReceiptSaved(op string) {
	if m == nil || m.receiptsSaved == nil {
		return
	}
	m.receiptsSaved.WithLabelValues(normalizeLabel(op)).Inc()
}

func (m *Metrics) ObserveRender(format string, d time.Duration) {
	if m == nil || m.renderDuration == nil {
		return
	}
	m.renderDuration.WithLabelValues(normalizeLabel(format)).Observe(d.Seconds())
}

func (m *Metrics) IncHTTPRequest(method, route string, status int) {
	if m == nil || m.httpRequests == nil {
		return
	}
	m.httpRequests.WithLabelValues(method, normalizeLabel(route), strconv.Itoa(status)).Inc()
}

func normalizeLabel(v string) string {
	if v == "" {
		return "unknown"
	}
	return v
}
