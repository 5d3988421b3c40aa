// Package metrics defines the Prometheus metrics of the hit-calling service.
package metrics

import (
	"net/http"
	"strconv"
	"time"

	"chemhits/domain/bioactivity"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// summaryObjectives returns the quantiles tracked by duration summaries
func summaryObjectives() map[float64]float64 {
	return map[float64]float64{
		0.5:  0.010,
		0.9:  0.010,
		0.99: 0.001,
	}
}

// Metrics holds every collector, registered on one registry
type Metrics struct {
	registry *prometheus.Registry

	runsCount            *prometheus.CounterVec
	runDurationSeconds   *prometheus.SummaryVec
	compoundsCount       *prometheus.CounterVec
	httpRequestsCount    *prometheus.CounterVec
	httpRequestsInflight prometheus.Gauge
}

// New creates the collectors on a fresh registry
func New() *Metrics {
	reg := prometheus.NewRegistry()
	factory := promauto.With(reg)

	return &Metrics{
		registry: reg,

		// runsCount counts hit-calling runs by record source and outcome.
		runsCount: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "chemhits_runs_total",
			Help: "Total number of hit-calling runs",
		}, []string{"source", "outcome"}),

		runDurationSeconds: factory.NewSummaryVec(prometheus.SummaryOpts{
			Name:       "chemhits_run_duration_seconds",
			Help:       "Summarizes the time to fetch, normalize and classify one target (in seconds)",
			Objectives: summaryObjectives(),
		}, []string{"source"}),

		// compoundsCount counts classified compounds by hit strength.
		compoundsCount: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "chemhits_compounds_total",
			Help: "Total number of classified compounds",
		}, []string{"hit_strength"}),

		httpRequestsCount: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "chemhits_http_requests_total",
			Help: "Total number of processed API requests",
		}, []string{"code"}),

		httpRequestsInflight: factory.NewGauge(prometheus.GaugeOpts{
			Name: "chemhits_http_requests_inflight",
			Help: "The number of API requests currently inflight",
		}),
	}
}

// ObserveRun records one finished run
func (m *Metrics) ObserveRun(source, outcome string, duration time.Duration) {
	m.runsCount.WithLabelValues(source, outcome).Inc()
	m.runDurationSeconds.WithLabelValues(source).Observe(duration.Seconds())
}

// ObserveCompounds adds the compounds of one run by hit strength
func (m *Metrics) ObserveCompounds(counts map[bioactivity.HitStrength]int) {
	for strength, n := range counts {
		m.compoundsCount.WithLabelValues(string(strength)).Add(float64(n))
	}
}

// Handler serves the registry in the Prometheus exposition format
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{Registry: m.registry})
}

// Middleware counts requests by status code and tracks inflight requests
func (m *Metrics) Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		m.httpRequestsInflight.Inc()
		defer m.httpRequestsInflight.Dec()

		rec := &statusRecorder{ResponseWriter: w, status: http.StatusOK}
		next.ServeHTTP(rec, r)
		m.httpRequestsCount.WithLabelValues(strconv.Itoa(rec.status)).Inc()
	})
}

type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (r *statusRecorder) WriteHeader(code int) {
	r.status = code
	r.ResponseWriter.WriteHeader(code)
}
