package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const namespace = "gke_backend"

// NewRegistry creates a Prometheus registry with Go runtime and process collectors.
func NewRegistry() *prometheus.Registry {
	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewGoCollector())
	reg.MustRegister(collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	return reg
}

// Handler returns an http.Handler that serves Prometheus metrics.
func Handler(reg *prometheus.Registry) http.Handler {
	return promhttp.HandlerFor(reg, promhttp.HandlerOpts{})
}

// PrometheusRecorder implements Recorder on Prometheus collectors.
type PrometheusRecorder struct {
	requestDuration *prometheus.HistogramVec
	requestsTotal   *prometheus.CounterVec
	queryDuration   *prometheus.HistogramVec
	usersReturned   prometheus.Histogram
	initDuration    *prometheus.HistogramVec
	databaseReady   prometheus.Gauge
}

// NewPrometheus creates and registers all collectors on reg.
func NewPrometheus(reg prometheus.Registerer) *PrometheusRecorder {
	p := &PrometheusRecorder{
		requestDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "http",
			Name:      "request_duration_seconds",
			Help:      "Duration of HTTP requests in seconds.",
			Buckets:   prometheus.DefBuckets,
		}, []string{"method", "route", "status_code"}),
		requestsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "http",
			Name:      "requests_total",
			Help:      "Total number of HTTP requests.",
		}, []string{"method", "route", "status_code"}),
		queryDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "users",
			Name:      "query_duration_seconds",
			Help:      "Duration of the users query in seconds.",
			Buckets:   prometheus.DefBuckets,
		}, []string{"status"}),
		usersReturned: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "users",
			Name:      "rows_returned",
			Help:      "Number of rows returned by the users query.",
			Buckets:   prometheus.ExponentialBuckets(1, 4, 8),
		}),
		initDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "init",
			Name:      "phase_duration_seconds",
			Help:      "Duration of startup phases in seconds.",
			Buckets:   prometheus.DefBuckets,
		}, []string{"phase", "status"}),
		databaseReady: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Subsystem: "database",
			Name:      "ready",
			Help:      "1 once the database handle is initialized.",
		}),
	}

	reg.MustRegister(
		p.requestDuration,
		p.requestsTotal,
		p.queryDuration,
		p.usersReturned,
		p.initDuration,
		p.databaseReady,
	)
	return p
}

// ObserveHTTPRequest records one served request.
func (p *PrometheusRecorder) ObserveHTTPRequest(method, route string, status int, duration time.Duration) {
	code := strconv.Itoa(status)
	p.requestDuration.WithLabelValues(method, route, code).Observe(duration.Seconds())
	p.requestsTotal.WithLabelValues(method, route, code).Inc()
}

// ObserveUsersQuery records one execution of the users query.
func (p *PrometheusRecorder) ObserveUsersQuery(status string, rows int, duration time.Duration) {
	p.queryDuration.WithLabelValues(status).Observe(duration.Seconds())
	if status == StatusSuccess {
		p.usersReturned.Observe(float64(rows))
	}
}

// ObserveInitPhase records the outcome of a startup phase.
func (p *PrometheusRecorder) ObserveInitPhase(phase, status string, duration time.Duration) {
	p.initDuration.WithLabelValues(phase, status).Observe(duration.Seconds())
}

// SetDatabaseReady flips the readiness gauge.
func (p *PrometheusRecorder) SetDatabaseReady(ready bool) {
	if ready {
		p.databaseReady.Set(1)
		return
	}
	p.databaseReady.Set(0)
}
