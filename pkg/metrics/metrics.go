// Package metrics exposes Prometheus metrics for the secrets daemon. Every
// server owns its own registry, so tests can run servers side by side.
package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/doodlesbykumbi/secrets-in-go/pkg/server/store"
)

// UsageFunc reports the entry counts of every loaded namespace.
type UsageFunc func() map[uint32]store.Usage

// Metrics records request and storage metrics.
type Metrics struct {
	registry *prometheus.Registry

	requestsTotal   *prometheus.CounterVec
	requestDuration *prometheus.HistogramVec
}

// New creates the metrics of one server. usage is sampled on every scrape
// and may be nil.
func New(usage UsageFunc) *Metrics {
	reg := prometheus.NewRegistry()
	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	factory := promauto.With(reg)

	m := &Metrics{
		registry: reg,
		requestsTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "secretsd_requests_total",
				Help: "Total number of requests by method, operation and status code",
			},
			[]string{"method", "operation", "status"},
		),
		requestDuration: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "secretsd_request_duration_seconds",
				Help:    "Duration of requests in seconds",
				Buckets: []float64{0.0005, 0.001, 0.005, 0.01, 0.05, 0.1, 0.5, 1},
			},
			[]string{"operation"},
		),
	}
	if usage != nil {
		reg.MustRegister(newUsageCollector(usage))
	}
	return m
}

// ObserveRequest records one finished request.
func (m *Metrics) ObserveRequest(method, operation string, status int, d time.Duration) {
	m.requestsTotal.WithLabelValues(method, operation, strconv.Itoa(status)).Inc()
	m.requestDuration.WithLabelValues(operation).Observe(d.Seconds())
}

// Registry returns the registry holding every metric.
func (m *Metrics) Registry() *prometheus.Registry {
	return m.registry
}

// Handler serves the metrics in the Prometheus text format.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{Registry: m.registry})
}

type usageCollector struct {
	usage      UsageFunc
	secrets    *prometheus.Desc
	namespaces *prometheus.Desc
}

func newUsageCollector(usage UsageFunc) *usageCollector {
	return &usageCollector{
		usage: usage,
		secrets: prometheus.NewDesc(
			"secretsd_secrets",
			"Number of secrets held per principal",
			[]string{"uid"}, nil,
		),
		namespaces: prometheus.NewDesc(
			"secretsd_namespaces",
			"Number of loaded namespaces",
			nil, nil,
		),
	}
}

func (c *usageCollector) Describe(ch chan<- *prometheus.Desc) {
	ch <- c.secrets
	ch <- c.namespaces
}

func (c *usageCollector) Collect(ch chan<- prometheus.Metric) {
	usage := c.usage()
	for uid, u := range usage {
		ch <- prometheus.MustNewConstMetric(c.secrets, prometheus.GaugeValue,
			float64(u.Secrets), strconv.FormatUint(uint64(uid), 10))
	}
	ch <- prometheus.MustNewConstMetric(c.namespaces, prometheus.GaugeValue, float64(len(usage)))
}
