package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/EugeneVC/web-monitor/internal/domain"
)

// Collector exposes check outcomes and sink failures as Prometheus metrics.
type Collector struct {
	checksTotal   *prometheus.CounterVec
	checkDuration *prometheus.HistogramVec
	sinkErrors    prometheus.Counter
	gatherer      prometheus.Gatherer
}

// New registers the collector's metrics on reg. Pass a fresh
// prometheus.NewRegistry() in tests.
func New(reg *prometheus.Registry) *Collector {
	c := &Collector{
		checksTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "web_monitor_checks_total",
				Help: "Total number of completed checks by site and outcome",
			},
			[]string{"site", "outcome"},
		),
		checkDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "web_monitor_check_duration_seconds",
				Help:    "Check execution time in seconds",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"site"},
		),
		sinkErrors: prometheus.NewCounter(
			prometheus.CounterOpts{
				Name: "web_monitor_sink_errors_total",
				Help: "Records that at least one sink failed to store",
			},
		),
		gatherer: reg,
	}
	reg.MustRegister(c.checksTotal, c.checkDuration, c.sinkErrors)
	return c
}

func (c *Collector) ObserveCheck(r domain.LogRecord) {
	c.checksTotal.WithLabelValues(r.Name, r.Outcome.String()).Inc()
	c.checkDuration.WithLabelValues(r.Name).Observe(r.ExecutionTime.Seconds())
}

func (c *Collector) ObserveSinkError() {
	c.sinkErrors.Inc()
}

// Handler serves the registry in the Prometheus text format.
func (c *Collector) Handler() http.Handler {
	return promhttp.HandlerFor(c.gatherer, promhttp.HandlerOpts{})
}
