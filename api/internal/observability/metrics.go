package observability

import (
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics are recorded by the HTTP layer only; the pipeline itself keeps no
// counters.
type Metrics struct {
	Requests        *prometheus.CounterVec
	Verdicts        *prometheus.CounterVec
	SearchFallbacks *prometheus.CounterVec
	Duration        prometheus.Histogram

	reg *prometheus.Registry
}

func NewMetrics() *Metrics {
	reg := prometheus.NewRegistry()
	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	f := promauto.With(reg)

	return &Metrics{
		Requests: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: "factcheck",
			Name:      "requests_total",
			Help:      "Verification requests by HTTP status code",
		}, []string{"code"}),
		Verdicts: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: "factcheck",
			Name:      "verdicts_total",
			Help:      "Verdicts returned by status",
		}, []string{"status"}),
		SearchFallbacks: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: "factcheck",
			Name:      "search_fallbacks_total",
			Help:      "Requests grounded with a fallback context, by reason",
		}, []string{"reason"}),
		Duration: f.NewHistogram(prometheus.HistogramOpts{
			Namespace: "factcheck",
			Name:      "request_duration_seconds",
			Help:      "End-to-end verification latency in seconds",
			Buckets:   []float64{0.1, 0.25, 0.5, 1, 2.5, 5, 10, 20, 40, 75},
		}),
		reg: reg,
	}
}

func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.reg, promhttp.HandlerOpts{Registry: m.reg})
}

func (m *Metrics) ObserveRequest(code int, took time.Duration) {
	m.Requests.WithLabelValues(strconv.Itoa(code)).Inc()
	m.Duration.Observe(took.Seconds())
}

// ObserveVerdict counts a 200 answer. An empty reason means live search
// results were used.
func (m *Metrics) ObserveVerdict(status, fallbackReason string) {
	m.Verdicts.WithLabelValues(status).Inc()
	if fallbackReason != "" {
		m.SearchFallbacks.WithLabelValues(fallbackReason).Inc()
	}
}
