package metrics

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/wonny/ninthball/internal/scenario"
)

// Recorder Prometheus 메트릭 기록기
// scenario.Observer 구현: 생성기에 붙여 반복별 진단 카운터 집계
type Recorder struct {
	registry *prometheus.Registry

	scenarios   *prometheus.CounterVec
	events      *prometheus.CounterVec
	buildPhase  *prometheus.HistogramVec
	simulations *prometheus.HistogramVec
	requests    *prometheus.CounterVec
	latency     *prometheus.HistogramVec
}

// New creates a recorder backed by its own registry
// 전역 DefaultRegisterer를 쓰지 않으므로 테스트마다 새로 만들어도 충돌 없음
func New() *Recorder {
	reg := prometheus.NewRegistry()
	factory := promauto.With(reg)

	return &Recorder{
		registry: reg,
		scenarios: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "ninthball_scenarios_total",
				Help: "Total number of scenarios generated",
			},
			[]string{"generator"},
		),
		events: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "ninthball_scenario_events_total",
				Help: "Sampling events while generating scenarios",
			},
			[]string{"generator", "event"},
		),
		buildPhase: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "ninthball_build_phase_duration_seconds",
				Help:    "Duration of engine build phases in seconds",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"phase"},
		),
		simulations: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "ninthball_simulation_duration_seconds",
				Help:    "Duration of simulation runs in seconds",
				Buckets: []float64{0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10, 30, 60},
			},
			[]string{"generator"},
		),
		requests: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "ninthball_http_requests_total",
				Help: "Total number of HTTP requests",
			},
			[]string{"route", "method", "status"},
		),
		latency: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "ninthball_http_request_duration_seconds",
				Help:    "HTTP request duration in seconds",
				Buckets: []float64{0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10},
			},
			[]string{"route", "method"},
		),
	}
}

// Observe implements scenario.Observer
func (r *Recorder) Observe(generator string, s scenario.Stats) {
	r.scenarios.WithLabelValues(generator).Inc()

	add := func(event string, n int) {
		if n > 0 {
			r.events.WithLabelValues(generator, event).Add(float64(n))
		}
	}
	add("sample", s.Samples)
	add("overlap", s.Overlaps)
	add("resample", s.Resamples)
	add("fallback", s.Fallbacks)
	add("regime_switch", s.RegimeSwitches)
	add("clamp", s.Clamps)
}

// RecordBuildPhase records one engine build phase (load, catalog, thresholds, regimes)
func (r *Recorder) RecordBuildPhase(phase string, d time.Duration) {
	r.buildPhase.WithLabelValues(phase).Observe(d.Seconds())
}

// RecordSimulation records a completed simulation run
func (r *Recorder) RecordSimulation(generator string, d time.Duration) {
	r.simulations.WithLabelValues(generator).Observe(d.Seconds())
}

// RecordRequest records an HTTP request by route template
func (r *Recorder) RecordRequest(route, method, status string, d time.Duration) {
	r.requests.WithLabelValues(route, method, status).Inc()
	r.latency.WithLabelValues(route, method).Observe(d.Seconds())
}

// Registry returns the underlying registry
func (r *Recorder) Registry() *prometheus.Registry {
	return r.registry
}

// Handler returns the /metrics handler for this recorder's registry
func (r *Recorder) Handler() http.Handler {
	return promhttp.HandlerFor(r.registry, promhttp.HandlerOpts{})
}
