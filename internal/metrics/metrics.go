// Package metrics registers the Prometheus collectors exposed on /metrics.
package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics groups the service collectors on a private registry.
type Metrics struct {
	Registry *prometheus.Registry

	HTTPRequests       *prometheus.CounterVec
	HTTPDuration       *prometheus.HistogramVec
	PaymentsTotal      *prometheus.CounterVec
	WebhooksTotal      *prometheus.CounterVec
	NotificationsTotal *prometheus.CounterVec
	CrawlUpserts       *prometheus.CounterVec
	WorkerRuns         *prometheus.CounterVec
}

func New() *Metrics {
	reg := prometheus.NewRegistry()
	m := &Metrics{
		Registry: reg,
		HTTPRequests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "wathaci",
			Name:      "http_requests_total",
			Help:      "HTTP requests by route pattern, method and status.",
		}, []string{"route", "method", "status"}),
		HTTPDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: "wathaci",
			Name:      "http_request_duration_seconds",
			Help:      "HTTP request latency by route pattern.",
			Buckets:   prometheus.DefBuckets,
		}, []string{"route", "method"}),
		PaymentsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "wathaci",
			Name:      "payments_total",
			Help:      "Payment state changes by purpose and status.",
		}, []string{"purpose", "status"}),
		WebhooksTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "wathaci",
			Name:      "webhooks_total",
			Help:      "Gateway webhooks by event and outcome.",
		}, []string{"event", "outcome"}),
		NotificationsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "wathaci",
			Name:      "notifications_total",
			Help:      "Notification deliveries by channel and outcome.",
		}, []string{"channel", "outcome"}),
		CrawlUpserts: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "wathaci",
			Name:      "funding_upserts_total",
			Help:      "Funding opportunities written by the crawler by source and result.",
		}, []string{"source", "result"}),
		WorkerRuns: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "wathaci",
			Name:      "worker_runs_total",
			Help:      "Worker loop iterations by job and outcome.",
		}, []string{"job", "outcome"}),
	}
	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
		m.HTTPRequests,
		m.HTTPDuration,
		m.PaymentsTotal,
		m.WebhooksTotal,
		m.NotificationsTotal,
		m.CrawlUpserts,
		m.WorkerRuns,
	)
	return m
}

// Handler serves the registry in the Prometheus text format.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.Registry, promhttp.HandlerOpts{Registry: m.Registry})
}
