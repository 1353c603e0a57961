package server

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics holds the server's Prometheus collectors on a private registry.
type Metrics struct {
	registry *prometheus.Registry

	requests       *prometheus.CounterVec
	duration       *prometheus.HistogramVec
	loads          *prometheus.CounterVec
	searches       *prometheus.CounterVec
	assistantCalls *prometheus.CounterVec
	wsClients      prometheus.Gauge
	framesSent     prometheus.Counter
	framesDropped  prometheus.Counter
}

// NewMetrics registers every collector on a fresh registry.
func NewMetrics() *Metrics {
	const ns = "ontoview"
	m := &Metrics{
		registry: prometheus.NewRegistry(),
		requests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: ns,
			Subsystem: "http",
			Name:      "requests_total",
			Help:      "HTTP requests by route, method and status.",
		}, []string{"route", "method", "status"}),
		duration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: ns,
			Subsystem: "http",
			Name:      "request_duration_seconds",
			Help:      "HTTP request latency by route.",
			Buckets:   prometheus.DefBuckets,
		}, []string{"route"}),
		loads: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: ns,
			Name:      "loads_total",
			Help:      "Ontology loads by result.",
		}, []string{"result"}),
		searches: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: ns,
			Name:      "searches_total",
			Help:      "Searches by result.",
		}, []string{"result"}),
		assistantCalls: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: ns,
			Name:      "assistant_calls_total",
			Help:      "Assistant calls by mode and result.",
		}, []string{"mode", "result"}),
		wsClients: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: ns,
			Subsystem: "ws",
			Name:      "clients",
			Help:      "Connected frame subscribers.",
		}),
		framesSent: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: ns,
			Subsystem: "ws",
			Name:      "frames_sent_total",
			Help:      "Frames queued to websocket clients.",
		}),
		framesDropped: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: ns,
			Subsystem: "ws",
			Name:      "frames_dropped_total",
			Help:      "Frames skipped because a client fell behind.",
		}),
	}
	m.registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
		m.requests, m.duration, m.loads, m.searches, m.assistantCalls,
		m.wsClients, m.framesSent, m.framesDropped,
	)
	return m
}

// Handler serves the registry in the exposition format.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{EnableOpenMetrics: true})
}

// Registry exposes the underlying registry for tests.
func (m *Metrics) Registry() *prometheus.Registry { return m.registry }

func result(ok bool) string {
	if ok {
		return "ok"
	}
	return "error"
}
